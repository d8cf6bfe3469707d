package ai

import "context"

// Client is the capability the analyzer needs from a model provider:
// prompt in, raw text out.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
