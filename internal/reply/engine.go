// Package reply produces answers for the /api/chat endpoint.
package reply

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrEmptyPrompt = errors.New("empty prompt")

type Engine interface {
	Generate(ctx context.Context, message string) (text string, latency time.Duration, err error)
}

// EchoEngine answers without a model. Used when Ollama is unreachable.
type EchoEngine struct {
	minLatency time.Duration
}

func NewEchoEngine(minLatency time.Duration) *EchoEngine { return &EchoEngine{minLatency: minLatency} }

func (e *EchoEngine) Generate(ctx context.Context, message string) (string, time.Duration, error) {
	if message == "" {
		return "", 0, ErrEmptyPrompt
	}
	start := time.Now()
	if e.minLatency > 0 {
		select {
		case <-time.After(e.minLatency):
		case <-ctx.Done():
			return "", time.Since(start), ctx.Err()
		}
	}
	text := fmt.Sprintf("(demo) you said: %s", message)
	return text, time.Since(start), nil
}
