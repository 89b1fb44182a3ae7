package scm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/chatagent/code-analyzer/internal/domain"
)

const defaultBitbucketAPIBase = "https://api.bitbucket.org"

// BitbucketPoster posts reports as comments on Bitbucket pull requests.
type BitbucketPoster struct {
	client  *http.Client
	logger  Logger
	baseURL string
}

// NewBitbucketPoster creates a poster against the Bitbucket Cloud API.
func NewBitbucketPoster(client *http.Client, logger Logger) *BitbucketPoster {
	return &BitbucketPoster{
		client:  client,
		logger:  logger,
		baseURL: defaultBitbucketAPIBase,
	}
}

// SetBaseURL sets a custom API base URL (for testing).
func (p *BitbucketPoster) SetBaseURL(url string) {
	p.baseURL = url
}

// Post publishes the report body as a pull request comment.
func (p *BitbucketPoster) Post(ctx context.Context, target Target, body string) (*PostResult, error) {
	repo := target.Repo
	if repo == nil || repo.Workspace == "" || repo.RepoSlug == "" || repo.PullRequestID == "" {
		return nil, &domain.ValidationError{Reason: "workspace, repo_slug and pull_request_id are required for posting to Bitbucket"}
	}

	url := fmt.Sprintf("%s/2.0/repositories/%s/%s/pullrequests/%s/comments",
		p.baseURL, repo.Workspace, repo.RepoSlug, repo.PullRequestID)

	payload := map[string]interface{}{
		"content": map[string]string{"raw": body},
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+target.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("posting to bitbucket: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading bitbucket response: %w", err)
	}

	if resp.StatusCode != http.StatusCreated {
		return nil, &domain.PostingError{Provider: domain.ProviderBitbucket, StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var result struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("parsing bitbucket response: %w", err)
	}

	p.logger.LogInfo(ctx, "comment posted", map[string]interface{}{
		"provider":     "bitbucket",
		"workspace":    repo.Workspace,
		"repo_slug":    repo.RepoSlug,
		"pull_request": repo.PullRequestID,
	})

	return &PostResult{ID: result.ID}, nil
}
