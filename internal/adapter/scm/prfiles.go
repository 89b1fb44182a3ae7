package scm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/chatagent/code-analyzer/internal/domain"
)

// ErrFileListingUnsupported marks providers with no usable changed-files
// endpoint; resolution falls through to the git-level strategies.
var ErrFileListingUnsupported = errors.New("pull request file listing not supported for this provider")

// FileLister fetches the changed-file list of a pull request through the
// provider's REST API.
type FileLister struct {
	client        *http.Client
	logger        Logger
	githubBase    string
	gitlabBase    string
	bitbucketBase string
}

// NewFileLister creates a lister against the public provider APIs.
func NewFileLister(client *http.Client, logger Logger) *FileLister {
	if client == nil {
		client = defaultHTTPClient()
	}
	return &FileLister{
		client:        client,
		logger:        logger,
		githubBase:    defaultGitHubAPIBase,
		gitlabBase:    defaultGitLabAPIBase,
		bitbucketBase: defaultBitbucketAPIBase,
	}
}

// SetBaseURLs overrides the provider API bases (for testing). Empty strings
// leave the current value untouched.
func (l *FileLister) SetBaseURLs(github, gitlab, bitbucket string) {
	if github != "" {
		l.githubBase = github
	}
	if gitlab != "" {
		l.gitlabBase = gitlab
	}
	if bitbucket != "" {
		l.bitbucketBase = bitbucket
	}
}

// ListPullRequestFiles returns the paths changed in the pull request the
// descriptor points at. Azure DevOps has no flat changed-files endpoint, so
// it returns ErrFileListingUnsupported.
func (l *FileLister) ListPullRequestFiles(ctx context.Context, repo *domain.RepositoryDescriptor, token string) ([]string, error) {
	if repo == nil {
		return nil, errors.New("repository descriptor missing")
	}
	switch repo.Kind {
	case domain.ProviderGitHub:
		return l.listGitHub(ctx, repo, token)
	case domain.ProviderGitLab:
		return l.listGitLab(ctx, repo, token)
	case domain.ProviderBitbucket:
		return l.listBitbucket(ctx, repo, token)
	default:
		return nil, ErrFileListingUnsupported
	}
}

func (l *FileLister) listGitHub(ctx context.Context, repo *domain.RepositoryDescriptor, token string) ([]string, error) {
	if repo.Owner == "" || repo.Repo == "" || repo.PullRequestNumber.Int() <= 0 {
		return nil, errors.New("owner, repo and pull_request_number are required to list GitHub PR files")
	}

	var files []string
	// The API pages at 100 entries; the analysis cap makes deep pagination
	// pointless, but one extra page covers renames falling off the first.
	for page := 1; page <= 3; page++ {
		url := fmt.Sprintf("%s/repos/%s/%s/pulls/%d/files?per_page=100&page=%d",
			l.githubBase, repo.Owner, repo.Repo, repo.PullRequestNumber.Int(), page)

		body, err := l.get(ctx, url, map[string]string{
			"Authorization": "token " + token,
			"Accept":        "application/vnd.github.v3+json",
		})
		if err != nil {
			return nil, err
		}

		var entries []struct {
			Filename string `json:"filename"`
		}
		if err := json.Unmarshal(body, &entries); err != nil {
			return nil, fmt.Errorf("parsing github files response: %w", err)
		}
		for _, e := range entries {
			files = append(files, e.Filename)
		}
		if len(entries) < 100 {
			break
		}
	}

	l.logger.LogInfo(ctx, "pull request files listed", map[string]interface{}{
		"provider": "github",
		"pr":       repo.PullRequestNumber.Int(),
		"files":    len(files),
	})
	return files, nil
}

func (l *FileLister) listGitLab(ctx context.Context, repo *domain.RepositoryDescriptor, token string) ([]string, error) {
	if repo.ProjectID == "" || repo.PullRequestID == "" {
		return nil, errors.New("project_id and pull_request_id are required to list GitLab MR files")
	}

	url := fmt.Sprintf("%s/api/v4/projects/%s/merge_requests/%s/diffs?per_page=100",
		l.gitlabBase, repo.ProjectID, repo.PullRequestID)

	body, err := l.get(ctx, url, map[string]string{"PRIVATE-TOKEN": token})
	if err != nil {
		return nil, err
	}

	var diffs []struct {
		NewPath string `json:"new_path"`
	}
	if err := json.Unmarshal(body, &diffs); err != nil {
		return nil, fmt.Errorf("parsing gitlab diffs response: %w", err)
	}

	var files []string
	for _, d := range diffs {
		if d.NewPath != "" {
			files = append(files, d.NewPath)
		}
	}
	return files, nil
}

func (l *FileLister) listBitbucket(ctx context.Context, repo *domain.RepositoryDescriptor, token string) ([]string, error) {
	if repo.Workspace == "" || repo.RepoSlug == "" || repo.PullRequestID == "" {
		return nil, errors.New("workspace, repo_slug and pull_request_id are required to list Bitbucket PR files")
	}

	url := fmt.Sprintf("%s/2.0/repositories/%s/%s/pullrequests/%s/diffstat",
		l.bitbucketBase, repo.Workspace, repo.RepoSlug, repo.PullRequestID)

	var files []string
	for url != "" {
		body, err := l.get(ctx, url, map[string]string{"Authorization": "Bearer " + token})
		if err != nil {
			return nil, err
		}

		var page struct {
			Values []struct {
				New struct {
					Path string `json:"path"`
				} `json:"new"`
				Old struct {
					Path string `json:"path"`
				} `json:"old"`
			} `json:"values"`
			Next string `json:"next"`
		}
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("parsing bitbucket diffstat response: %w", err)
		}

		for _, v := range page.Values {
			path := v.New.Path
			if path == "" {
				path = v.Old.Path
			}
			if path != "" {
				files = append(files, path)
			}
		}
		url = page.Next
	}
	return files, nil
}

func (l *FileLister) get(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("listing pull request files: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading files response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("listing pull request files: status %d - %s", resp.StatusCode, string(body))
	}
	return body, nil
}
