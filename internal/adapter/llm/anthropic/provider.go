package anthropic

import (
	"context"
	"fmt"
)

// Client abstracts the Anthropic HTTP client behaviour we need.
type Client interface {
	Call(ctx context.Context, prompt string, options CallOptions) (*APIResponse, error)
}

// Provider adapts the Anthropic client to the analysis gateway port.
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

// Complete sends the prompt to Anthropic and returns the raw text response.
func (p *Provider) Complete(ctx context.Context, prompt string) (string, error) {
	if p.client == nil {
		return "", fmt.Errorf("anthropic client missing")
	}

	resp, err := p.client.Call(ctx, prompt, CallOptions{})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}
