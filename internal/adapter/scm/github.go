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

const defaultGitHubAPIBase = "https://api.github.com"

// issueFallbackTitle names the issue created when a report has no pull
// request to land on. The title is user-facing product copy.
const issueFallbackTitle = "Análise de Código Automatizada"

// GitHubPoster posts reports as issue comments on GitHub pull requests.
// When the target has no pull request number it creates a new issue instead,
// so the report is never silently dropped.
type GitHubPoster struct {
	client  *http.Client
	logger  Logger
	baseURL string
}

// NewGitHubPoster creates a poster against the public GitHub API.
func NewGitHubPoster(client *http.Client, logger Logger) *GitHubPoster {
	return &GitHubPoster{
		client:  client,
		logger:  logger,
		baseURL: defaultGitHubAPIBase,
	}
}

// SetBaseURL sets a custom API base URL (for testing).
func (p *GitHubPoster) SetBaseURL(url string) {
	p.baseURL = url
}

// Post publishes the report body to the pull request, or to a new issue when
// no pull request number is present.
func (p *GitHubPoster) Post(ctx context.Context, target Target, body string) (*PostResult, error) {
	repo := target.Repo
	if repo == nil || repo.Owner == "" || repo.Repo == "" {
		return nil, &domain.ValidationError{Reason: "owner and repo are required for posting to GitHub"}
	}

	prNumber := repo.PullRequestNumber.Int()
	if prNumber <= 0 {
		p.logger.LogWarning(ctx, "no pull request number, creating issue instead", map[string]interface{}{
			"owner": repo.Owner,
			"repo":  repo.Repo,
		})
		return p.createIssue(ctx, target, body)
	}

	url := fmt.Sprintf("%s/repos/%s/%s/issues/%d/comments", p.baseURL, repo.Owner, repo.Repo, prNumber)
	payload := map[string]string{"body": body}

	status, respBody, err := p.do(ctx, url, target.Token, payload)
	if err != nil {
		return nil, err
	}
	if status != http.StatusCreated {
		return nil, &domain.PostingError{Provider: domain.ProviderGitHub, StatusCode: status, Body: string(respBody)}
	}

	var result struct {
		ID      int64  `json:"id"`
		HTMLURL string `json:"html_url"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("parsing github comment response: %w", err)
	}

	p.logger.LogInfo(ctx, "comment posted", map[string]interface{}{
		"provider": "github",
		"pr":       prNumber,
		"url":      result.HTMLURL,
	})

	return &PostResult{ID: result.ID, URL: result.HTMLURL}, nil
}

func (p *GitHubPoster) createIssue(ctx context.Context, target Target, body string) (*PostResult, error) {
	repo := target.Repo
	url := fmt.Sprintf("%s/repos/%s/%s/issues", p.baseURL, repo.Owner, repo.Repo)
	payload := map[string]string{
		"title": issueFallbackTitle,
		"body":  body,
	}

	status, respBody, err := p.do(ctx, url, target.Token, payload)
	if err != nil {
		return nil, err
	}
	// GitHub documents 201 but some proxies return 200
	if status != http.StatusCreated && status != http.StatusOK {
		return nil, &domain.PostingError{Provider: domain.ProviderGitHub, StatusCode: status, Body: string(respBody)}
	}

	var result struct {
		Number  int64  `json:"number"`
		HTMLURL string `json:"html_url"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("parsing github issue response: %w", err)
	}

	p.logger.LogInfo(ctx, "issue created", map[string]interface{}{
		"provider": "github",
		"issue":    result.Number,
		"url":      result.HTMLURL,
	})

	return &PostResult{ID: result.Number, URL: result.HTMLURL, CreatedIssue: true}, nil
}

func (p *GitHubPoster) do(ctx context.Context, url, token string, payload interface{}) (int, []byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("marshaling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return 0, nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "token "+token)
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("posting to github: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("reading github response: %w", err)
	}
	return resp.StatusCode, respBody, nil
}
