package scm

import (
	"context"
	"net/http"
	"time"

	llmhttp "github.com/chatagent/code-analyzer/internal/adapter/llm/http"
	"github.com/chatagent/code-analyzer/internal/domain"
)

// Target identifies where a report gets posted.
type Target struct {
	Token string
	Repo  *domain.RepositoryDescriptor
}

// PostResult carries the relevant parts of the provider's response.
type PostResult struct {
	ID  int64
	URL string

	// CreatedIssue is set when a GitHub report landed on a freshly created
	// issue instead of a pull request.
	CreatedIssue bool
}

// Poster posts an analysis report to a provider's discussion surface.
type Poster interface {
	Post(ctx context.Context, target Target, body string) (*PostResult, error)
}

// Logger is the structured logging port shared by the posters.
type Logger = llmhttp.Logger

func defaultHTTPClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}
