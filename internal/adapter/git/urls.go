package git

import (
	"fmt"
	"strings"

	"github.com/chatagent/code-analyzer/internal/domain"
)

// ParseGitHubURL extracts owner and repo from a GitHub repository URL.
// Accepts full https URLs, bare "github.com/owner/repo" and "owner/repo"
// forms, with or without a trailing .git.
func ParseGitHubURL(url string) (owner, repo string, err error) {
	trimmed := strings.TrimSuffix(url, ".git")
	trimmed = strings.TrimPrefix(trimmed, "https://")
	trimmed = strings.TrimPrefix(trimmed, "http://")
	trimmed = strings.TrimPrefix(trimmed, "github.com/")

	parts := strings.Split(trimmed, "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GitHub repository URL %q: expected [github.com/]owner/repo", url)
	}
	return parts[0], parts[1], nil
}

// AuthURL builds the clone URL with the access token embedded, using each
// provider's credential scheme. The returned string contains a secret and
// must never reach logs unredacted.
func AuthURL(repo *domain.RepositoryDescriptor, token string) (string, error) {
	switch repo.Kind {
	case domain.ProviderGitHub:
		owner, name := repo.Owner, repo.Repo
		if owner == "" || name == "" {
			if repo.RepositoryURL == "" {
				return "", fmt.Errorf("repository URL not provided")
			}
			var err error
			owner, name, err = ParseGitHubURL(repo.RepositoryURL)
			if err != nil {
				return "", err
			}
		}
		return fmt.Sprintf("https://%s@github.com/%s/%s.git", token, owner, name), nil

	case domain.ProviderGitLab:
		if repo.RepositoryURL == "" {
			return "", fmt.Errorf("repository URL is required for GitLab clones")
		}
		return injectCredentials(repo.RepositoryURL, "oauth2:"+token)

	case domain.ProviderBitbucket:
		if repo.Workspace != "" && repo.RepoSlug != "" {
			return fmt.Sprintf("https://x-token-auth:%s@bitbucket.org/%s/%s.git", token, repo.Workspace, repo.RepoSlug), nil
		}
		if repo.RepositoryURL == "" {
			return "", fmt.Errorf("workspace and repo_slug (or repository URL) are required for Bitbucket clones")
		}
		return injectCredentials(repo.RepositoryURL, "x-token-auth:"+token)

	case domain.ProviderAzure:
		if repo.Organization != "" && repo.Project != "" && repo.Repo != "" {
			return fmt.Sprintf("https://%s@dev.azure.com/%s/%s/_git/%s", token, repo.Organization, repo.Project, repo.Repo), nil
		}
		if repo.RepositoryURL == "" {
			return "", fmt.Errorf("organization, project and repo (or repository URL) are required for Azure clones")
		}
		return injectCredentials(repo.RepositoryURL, token)

	default:
		return "", fmt.Errorf("unsupported repository provider: %s", repo.Kind)
	}
}

// injectCredentials places userinfo into an https repository URL, replacing
// any credentials already present.
func injectCredentials(url, userinfo string) (string, error) {
	rest, ok := strings.CutPrefix(url, "https://")
	if !ok {
		rest, ok = strings.CutPrefix(url, "http://")
		if !ok {
			return "", fmt.Errorf("repository URL must be http(s): %s", url)
		}
	}
	if at := strings.Index(rest, "@"); at >= 0 && at < strings.Index(rest+"/", "/") {
		rest = rest[at+1:]
	}
	return "https://" + userinfo + "@" + rest, nil
}
