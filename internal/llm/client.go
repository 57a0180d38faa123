// Package llm provides visitor implementations backed by hosted language
// models. Each client turns one batch of identifier names plus a code context
// into a rename mapping; everything scope-related stays in the engine.
package llm

import "context"

// Client is the minimal completion surface a provider must offer.
type Client interface {
	// Complete sends a system and user prompt and returns the raw model text.
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
