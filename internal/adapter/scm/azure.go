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

const defaultAzureAPIBase = "https://dev.azure.com"

// AzurePoster posts reports as new comment threads on Azure DevOps pull
// requests.
type AzurePoster struct {
	client  *http.Client
	logger  Logger
	baseURL string
}

// NewAzurePoster creates a poster against dev.azure.com.
func NewAzurePoster(client *http.Client, logger Logger) *AzurePoster {
	return &AzurePoster{
		client:  client,
		logger:  logger,
		baseURL: defaultAzureAPIBase,
	}
}

// SetBaseURL sets a custom API base URL (for testing).
func (p *AzurePoster) SetBaseURL(url string) {
	p.baseURL = url
}

type azureComment struct {
	ParentCommentID int    `json:"parentCommentId"`
	Content         string `json:"content"`
	CommentType     int    `json:"commentType"`
}

type azureThread struct {
	Comments []azureComment `json:"comments"`
}

// Post publishes the report body as a pull request thread.
func (p *AzurePoster) Post(ctx context.Context, target Target, body string) (*PostResult, error) {
	repo := target.Repo
	if repo == nil || repo.Organization == "" || repo.Project == "" || repo.Repo == "" || repo.PullRequestID == "" {
		return nil, &domain.ValidationError{Reason: "organization, project, repo and pull_request_id are required for posting to Azure DevOps"}
	}

	url := fmt.Sprintf("%s/%s/%s/_apis/git/repositories/%s/pullRequests/%s/threads?api-version=6.0",
		p.baseURL, repo.Organization, repo.Project, repo.Repo, repo.PullRequestID)

	payload := azureThread{
		Comments: []azureComment{
			{ParentCommentID: 0, Content: body, CommentType: 1},
		},
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Basic "+target.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("posting to azure devops: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading azure devops response: %w", err)
	}

	// Thread creation answers 200, unlike the other providers' 201
	if resp.StatusCode != http.StatusOK {
		return nil, &domain.PostingError{Provider: domain.ProviderAzure, StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var result struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("parsing azure devops response: %w", err)
	}

	p.logger.LogInfo(ctx, "thread posted", map[string]interface{}{
		"provider":     "azure",
		"organization": repo.Organization,
		"project":      repo.Project,
		"pull_request": repo.PullRequestID,
	})

	return &PostResult{ID: result.ID}, nil
}
