// Package observability builds the shared worker logger from configuration.
package observability

import (
	llmhttp "github.com/chatagent/code-analyzer/internal/adapter/llm/http"
	"github.com/chatagent/code-analyzer/internal/config"
)

// NewLogger returns the logger described by the logging section. Disabled
// logging yields a no-op logger so callers never nil-check.
func NewLogger(cfg config.LoggingConfig) llmhttp.Logger {
	if !cfg.Enabled {
		return llmhttp.NopLogger{}
	}
	return llmhttp.NewDefaultLogger(
		llmhttp.ParseLogLevel(cfg.Level),
		llmhttp.ParseLogFormat(cfg.Format),
		cfg.RedactAPIKeys,
	)
}
