package llm

import (
	"context"
	"time"

	"humanify/internal/logging"
	"humanify/internal/rename"
)

const visitorRetries = 3

// NewVisitor adapts a completion client to the engine's visitor contract.
// Transient completion failures are retried with a short backoff; a batch
// that still fails is reported to the engine, which no-ops it and moves on.
func NewVisitor(client Client) rename.Visitor {
	return func(ctx context.Context, names []string, codeContext string) (map[string]string, error) {
		user := buildUserPrompt(names, codeContext)
		var lastErr error
		for attempt := 1; attempt <= visitorRetries; attempt++ {
			timer := logging.StartTimer(logging.CategoryLLM, "Complete")
			raw, err := client.Complete(ctx, systemPrompt, user)
			timer.Stop()
			if err == nil {
				mapping, perr := ParseRenameMapping(raw, names)
				if perr == nil {
					logging.LLMDebug("batch of %d names: %d suggestions", len(names), len(mapping))
					return mapping, nil
				}
				err = perr
			}
			lastErr = err
			logging.Get(logging.CategoryLLM).Warn("attempt %d/%d failed: %v", attempt, visitorRetries, err)
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if attempt < visitorRetries {
				select {
				case <-time.After(time.Duration(attempt) * 250 * time.Millisecond):
				case <-ctx.Done():
					return nil, ctx.Err()
				}
			}
		}
		return nil, lastErr
	}
}

// IdentityVisitor leaves every name unchanged. Useful for round-trip checks
// and dry runs without an API key.
func IdentityVisitor(_ context.Context, names []string, _ string) (map[string]string, error) {
	mapping := make(map[string]string, len(names))
	for _, n := range names {
		mapping[n] = n
	}
	return mapping, nil
}
