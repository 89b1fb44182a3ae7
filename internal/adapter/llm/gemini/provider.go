package gemini

import (
	"context"
	"fmt"
)

// Client abstracts the Gemini HTTP client behaviour we need.
type Client interface {
	Call(ctx context.Context, prompt string, options CallOptions) (*APIResponse, error)
}

// Provider adapts the Gemini client to the analysis gateway port.
type Provider struct {
	client Client
}

// NewProvider constructs a Provider around the supplied client.
func NewProvider(client Client) *Provider {
	return &Provider{client: client}
}

// Name identifies the upstream model provider.
func (p *Provider) Name() string {
	return upstreamName
}

// Complete sends the prompt to Gemini and returns the raw text response.
func (p *Provider) Complete(ctx context.Context, prompt string) (string, error) {
	if p.client == nil {
		return "", fmt.Errorf("gemini client missing")
	}

	resp, err := p.client.Call(ctx, prompt, CallOptions{})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}
