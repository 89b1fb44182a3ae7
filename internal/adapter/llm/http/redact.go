package http

import "regexp"

var (
	urlSecretPattern   = regexp.MustCompile(`(https?://)([^:/@\s]+)(:[^@\s]+)?@`)
	queryKeyPattern    = regexp.MustCompile(`([?&](?:key|api_key|token|access_token)=)[^&\s"]+`)
	bearerTokenPattern = regexp.MustCompile(`((?:Bearer|token)\s+)[A-Za-z0-9._\-]+`)
)

// RedactURLSecrets removes credentials embedded in URLs and common token
// patterns from a string before it reaches logs. Clone URLs carry the
// provider token as userinfo, so every error that wraps one must pass
// through here.
func RedactURLSecrets(s string) string {
	s = urlSecretPattern.ReplaceAllString(s, "${1}****@")
	s = queryKeyPattern.ReplaceAllString(s, "${1}****")
	s = bearerTokenPattern.ReplaceAllString(s, "${1}****")
	return s
}

// TruncateForLogging shortens long payloads before they are logged.
func TruncateForLogging(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
