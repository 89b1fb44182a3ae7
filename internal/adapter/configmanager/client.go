// Package configmanager talks to the platform's configuration service for
// file quotas and provider integrations.
package configmanager

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type Logger interface {
	LogInfo(ctx context.Context, message string, fields map[string]interface{})
	LogWarning(ctx context.Context, message string, fields map[string]interface{})
}

// Quota is the state the service reports after an update.
type Quota struct {
	EvaluatedFiles int `json:"evaluated_files"`
	AvailableFiles int `json:"available_files"`
}

// Integration describes a configured provider integration.
type Integration struct {
	ID       string `json:"id"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Enabled  bool   `json:"enabled"`
}

// Client caches integration lookups; quota updates always hit the service.
type Client struct {
	baseURL   string
	authToken string
	client    *http.Client
	logger    Logger
	cache     *expirable.LRU[string, *Integration]
}

// Options tunes the client. Zero values fall back to sane defaults.
type Options struct {
	HTTPClient *http.Client
	CacheSize  int
	CacheTTL   time.Duration
}

func New(baseURL, authToken string, logger Logger, opts Options) *Client {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 128
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	return &Client{
		baseURL:   baseURL,
		authToken: authToken,
		client:    opts.HTTPClient,
		logger:    logger,
		cache:     expirable.NewLRU[string, *Integration](opts.CacheSize, nil, opts.CacheTTL),
	}
}

// UpdateFileQuota reports that the user consumed fileCount analyzed files.
// A non-200 answer is logged and swallowed; quota accounting never blocks
// delivery of a report.
func (c *Client) UpdateFileQuota(ctx context.Context, userID string, fileCount int) error {
	endpoint := fmt.Sprintf("%s/api/v1/file-quotas/user/%s/update-quota?pr_file_count=%s",
		c.baseURL, url.PathEscape(userID), strconv.Itoa(fileCount))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return fmt.Errorf("building quota request: %w", err)
	}
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("updating file quota: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode != http.StatusOK {
		c.logger.LogWarning(ctx, "file quota update rejected", map[string]interface{}{
			"user":   userID,
			"status": resp.StatusCode,
			"body":   string(body),
		})
		return nil
	}

	var quota Quota
	if err := json.Unmarshal(body, &quota); err == nil {
		c.logger.LogInfo(ctx, "file quota updated", map[string]interface{}{
			"user":            userID,
			"evaluated_files": quota.EvaluatedFiles,
			"available_files": quota.AvailableFiles,
		})
	}
	return nil
}

// GetIntegration fetches an integration, served from cache within the TTL.
func (c *Client) GetIntegration(ctx context.Context, id string) (*Integration, error) {
	if integration, ok := c.cache.Get(id); ok {
		return integration, nil
	}

	endpoint := fmt.Sprintf("%s/api/v1/integrations/%s", c.baseURL, url.PathEscape(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building integration request: %w", err)
	}
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching integration %s: %w", id, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading integration response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("integration %s: status %d - %s", id, resp.StatusCode, string(body))
	}

	var integration Integration
	if err := json.Unmarshal(body, &integration); err != nil {
		return nil, fmt.Errorf("decoding integration %s: %w", id, err)
	}

	c.cache.Add(id, &integration)
	return &integration, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}
	req.Header.Set("Accept", "application/json")
}
