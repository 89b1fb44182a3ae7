package scm

import (
	"fmt"
	"net/http"

	"github.com/chatagent/code-analyzer/internal/domain"
)

// NewPoster returns the comment poster for the given provider kind. No I/O
// happens here; validation and HTTP are deferred to Post.
func NewPoster(kind domain.ProviderKind, client *http.Client, logger Logger) (Poster, error) {
	if client == nil {
		client = defaultHTTPClient()
	}
	switch kind {
	case domain.ProviderGitHub:
		return NewGitHubPoster(client, logger), nil
	case domain.ProviderGitLab:
		return NewGitLabPoster(client, logger), nil
	case domain.ProviderBitbucket:
		return NewBitbucketPoster(client, logger), nil
	case domain.ProviderAzure:
		return NewAzurePoster(client, logger), nil
	default:
		return nil, fmt.Errorf("invalid repository type: %s", kind)
	}
}
