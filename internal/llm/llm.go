// Package llm isolates the remote generation and embedding capability
// behind a normalized interface. Backend-specific response extraction
// (candidate/part walking, field-name drift between SDK versions)
// never leaks past this package.
package llm

import (
	"context"
	"errors"
)

// ErrEmbeddingUnavailable marks embedding failures so callers can make
// an explicit degrade choice (skip semantic retrieval for the turn)
// instead of treating them as fatal.
var ErrEmbeddingUnavailable = errors.New("embedding unavailable")

// Client is the remote text capability used by the core services.
// thinkingBudget requests deeper reasoning at higher latency; 0 asks
// for the fastest mode.
type Client interface {
	Generate(ctx context.Context, prompt, systemInstruction string, thinkingBudget int32) (string, error)
	Embed(ctx context.Context, text string) ([]float32, error)
}
