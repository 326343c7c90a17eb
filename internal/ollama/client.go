package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

type Client struct {
	baseURL string
	log     *slog.Logger
	client  *http.Client
}

type TagModel struct {
	Name       string    `json:"name"`
	Model      string    `json:"model"`
	Digest     string    `json:"digest"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modified_at"`
}

func NewClient(baseURL string, log *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     log,
		client:  &http.Client{Timeout: 120 * time.Second}, // generation on small CPUs is slow
	}
}

func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/version", nil)
	if err != nil {
		return err
	}
	res, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	data, _ := io.ReadAll(res.Body)
	c.log.Debug("ollama ping", "status", res.StatusCode, "response", string(data))
	if res.StatusCode >= 400 {
		return fmt.Errorf("ollama ping status: %d", res.StatusCode)
	}
	return nil
}

// Generate sends a single-turn generation (non-stream) via /api/generate.
func (c *Client) Generate(ctx context.Context, model, prompt string) (string, time.Duration, error) {
	payload := map[string]any{"model": model, "prompt": prompt, "stream": false}
	b, err := json.Marshal(payload)
	if err != nil {
		return "", 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(b))
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	start := time.Now()
	res, err := c.client.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		body, _ := io.ReadAll(res.Body)
		return "", 0, fmt.Errorf("ollama generate %d: %s", res.StatusCode, strings.TrimSpace(string(body)))
	}
	var out struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", 0, fmt.Errorf("decode generate response: %w", err)
	}
	return strings.TrimSpace(out.Response), time.Since(start), nil
}

// Tags lists local models via GET /api/tags.
func (c *Client) Tags(ctx context.Context) ([]TagModel, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, err
	}
	res, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("ollama tags: %s", res.Status)
	}
	var out struct {
		Models []TagModel `json:"models"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, err
	}
	return out.Models, nil
}

// MissingModels reports which of the wanted models are not pulled yet.
func (c *Client) MissingModels(ctx context.Context, wanted []string) ([]string, error) {
	tags, err := c.Tags(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	have := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		have[t.Name] = struct{}{}
	}
	var missing []string
	for _, m := range wanted {
		if _, ok := have[m]; !ok {
			missing = append(missing, m)
		}
	}
	return missing, nil
}
