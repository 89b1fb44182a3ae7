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

const defaultGitLabAPIBase = "https://gitlab.com"

// GitLabPoster posts reports as notes on GitLab merge requests.
type GitLabPoster struct {
	client  *http.Client
	logger  Logger
	baseURL string
}

// NewGitLabPoster creates a poster against gitlab.com.
func NewGitLabPoster(client *http.Client, logger Logger) *GitLabPoster {
	return &GitLabPoster{
		client:  client,
		logger:  logger,
		baseURL: defaultGitLabAPIBase,
	}
}

// SetBaseURL sets a custom API base URL (for testing).
func (p *GitLabPoster) SetBaseURL(url string) {
	p.baseURL = url
}

// Post publishes the report body as a merge request note.
func (p *GitLabPoster) Post(ctx context.Context, target Target, body string) (*PostResult, error) {
	repo := target.Repo
	if repo == nil || repo.ProjectID == "" || repo.PullRequestID == "" {
		return nil, &domain.ValidationError{Reason: "project_id and pull_request_id are required for posting to GitLab"}
	}

	url := fmt.Sprintf("%s/api/v4/projects/%s/merge_requests/%s/notes", p.baseURL, repo.ProjectID, repo.PullRequestID)

	data, err := json.Marshal(map[string]string{"body": body})
	if err != nil {
		return nil, fmt.Errorf("marshaling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("PRIVATE-TOKEN", target.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("posting to gitlab: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading gitlab response: %w", err)
	}

	if resp.StatusCode != http.StatusCreated {
		return nil, &domain.PostingError{Provider: domain.ProviderGitLab, StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var result struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("parsing gitlab response: %w", err)
	}

	p.logger.LogInfo(ctx, "note posted", map[string]interface{}{
		"provider":      "gitlab",
		"project":       repo.ProjectID,
		"merge_request": repo.PullRequestID,
	})

	return &PostResult{ID: result.ID}, nil
}
