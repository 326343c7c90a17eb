package reply

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/varsilias/seo-chat/internal/logging"
	"github.com/varsilias/seo-chat/internal/ollama"
)

func TestEchoEngine(t *testing.T) {
	text, _, err := NewEchoEngine(0).Generate(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "(demo) you said: hello", text)

	_, _, err = NewEchoEngine(0).Generate(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyPrompt)
}

func TestEchoEngineCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := NewEchoEngine(time.Minute).Generate(ctx, "hello")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOllamaEnginePrefixesPersona(t *testing.T) {
	var prompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Prompt string `json:"prompt"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		prompt = body.Prompt
		fmt.Fprint(w, `{"response":"answer"}`)
	}))
	defer server.Close()

	e := NewOllamaEngine(ollama.NewClient(server.URL, logging.Discard()), "gemma3:270m", "")
	text, _, err := e.Generate(context.Background(), "check my site")
	require.NoError(t, err)
	assert.Equal(t, "answer", text)
	assert.True(t, strings.HasPrefix(prompt, DefaultPersona))
	assert.True(t, strings.HasSuffix(prompt, "User: check my site"))
}

func TestOllamaEngineWrapsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, "boom")
	}))
	defer server.Close()

	e := NewOllamaEngine(ollama.NewClient(server.URL, logging.Discard()), "m", "p")
	_, _, err := e.Generate(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ollama m")
	assert.Contains(t, err.Error(), "boom")
}
