package reply

import (
	"context"
	"fmt"
	"time"

	"github.com/varsilias/seo-chat/internal/ollama"
)

const DefaultPersona = "You are a helpful SEO assistant."

type OllamaEngine struct {
	c       *ollama.Client
	model   string
	persona string
}

func NewOllamaEngine(c *ollama.Client, model, persona string) *OllamaEngine {
	if persona == "" {
		persona = DefaultPersona
	}
	return &OllamaEngine{c: c, model: model, persona: persona}
}

func (e *OllamaEngine) Generate(ctx context.Context, message string) (string, time.Duration, error) {
	if message == "" {
		return "", 0, ErrEmptyPrompt
	}
	prompt := fmt.Sprintf("%s User: %s", e.persona, message)
	text, latency, err := e.c.Generate(ctx, e.model, prompt)
	if err != nil {
		return "", latency, fmt.Errorf("ollama %s: %w", e.model, err)
	}
	return text, latency, nil
}
