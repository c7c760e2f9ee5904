// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/meshintel/trial-engine/pkg/types"
)

// Backend abstracts one extraction provider so tests can supply a mock.
// Submit sends a rendered prompt and returns the raw response text; any
// returned error is treated as a transport-level failure.
type Backend interface {
	Name() string
	Submit(ctx context.Context, prompt string) (string, error)
}

// TransportError marks a backend call that failed at the transport level
// (timeout, auth, network, non-OK status).
type TransportError struct {
	Backend string
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("backend %s: %v", e.Backend, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// AllBackendsExhausted reports that every backend in the chain failed for
// one abstract. It carries the per-backend sub-errors and is the only error
// the chain ever returns.
type AllBackendsExhausted struct {
	Errors []error
}

func (e *AllBackendsExhausted) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("all %d backends exhausted: %s", len(e.Errors), strings.Join(msgs, "; "))
}

func (e *AllBackendsExhausted) Unwrap() []error { return e.Errors }

// Chain tries an ordered list of backends until one returns text. A failing
// backend is never retried; the chain advances to the next one. Each call
// carries its own timeout when Timeout is set.
type Chain struct {
	Backends []Backend
	Timeout  time.Duration
}

// Submit runs the chain for one prompt. On success it returns the first raw
// response obtained, however malformed; downstream repair absorbs content
// problems. When every backend fails it returns *AllBackendsExhausted.
func (c *Chain) Submit(ctx context.Context, prompt string) (string, error) {
	var errs []error

	for _, backend := range c.Backends {
		callCtx := ctx
		cancel := func() {}
		if c.Timeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, c.Timeout)
		}

		text, err := backend.Submit(callCtx, prompt)
		cancel()
		if err == nil {
			return text, nil
		}
		errs = append(errs, &TransportError{Backend: backend.Name(), Err: err})
	}

	return "", &AllBackendsExhausted{Errors: errs}
}

// NewChain builds a backend chain from configuration. Backends are
// registered in BackendPriority order (default claude then openai);
// a backend with no API key is skipped. At least one backend must be
// configured.
func NewChain(cfg types.ExtractionConfig) (*Chain, error) {
	priority := cfg.BackendPriority
	if len(priority) == 0 {
		priority = []types.BackendName{types.BackendClaude, types.BackendOpenAI}
	}

	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = DefaultTemperature
	}

	chain := &Chain{Timeout: cfg.Timeout}
	for _, name := range priority {
		switch name {
		case types.BackendClaude:
			if cfg.Claude.APIKey == "" {
				continue
			}
			chain.Backends = append(chain.Backends, &ClaudeBackend{
				APIKey:      cfg.Claude.APIKey,
				Model:       cfg.Claude.Model,
				MaxTokens:   cfg.MaxOutputTokens,
				Temperature: temperature,
				MaxRetries:  cfg.Claude.MaxRetries,
			})
		case types.BackendOpenAI:
			if cfg.OpenAI.APIKey == "" {
				continue
			}
			chain.Backends = append(chain.Backends, &OpenAIBackend{
				APIKey:      cfg.OpenAI.APIKey,
				Model:       cfg.OpenAI.Model,
				MaxTokens:   cfg.MaxOutputTokens,
				Temperature: temperature,
				MaxRetries:  cfg.OpenAI.MaxRetries,
			})
		default:
			return nil, fmt.Errorf("unknown backend %q in priority list", name)
		}
	}

	if len(chain.Backends) == 0 {
		return nil, fmt.Errorf("no extraction backend configured: set an API key for claude or openai")
	}
	return chain, nil
}
