package exchange

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client performs the message round trip against a fixed endpoint.
type Client struct {
	endpoint string
	log      *slog.Logger
	http     *resty.Client
}

type request struct {
	Message string `json:"message"`
}

func NewClient(endpoint string, log *slog.Logger) *Client {
	hc := resty.New().
		SetTimeout(0). // no client timeout, the caller's context is the only bound
		SetRetryCount(0).
		SetLogger(restyLogger{log: log})
	return &Client{
		endpoint: endpoint,
		log:      log,
		http:     hc,
	}
}

func (c *Client) Endpoint() string { return c.endpoint }

// Send posts {"message": text} and classifies whatever comes back. It never
// returns an error: transport and protocol failures land in Result.
func (c *Client) Send(ctx context.Context, text string) Result {
	start := time.Now()
	res, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetBody(request{Message: text}).
		Post(c.endpoint)
	if err != nil {
		c.log.Warn("exchange transport failure", "endpoint", c.endpoint, "err", err)
		return Result{
			Outcome: OutcomeTransport,
			Text:    transportText(err),
			Err:     err,
			Latency: time.Since(start),
		}
	}

	out := classify(res.StatusCode(), res.Status(), res.Header().Get("Content-Type"), res.Body())
	out.Latency = time.Since(start)
	c.log.Debug("exchange settled", "endpoint", c.endpoint, "status", out.Status, "outcome", out.Outcome.String(), "latency_ms", out.Latency.Milliseconds())
	return out
}

func classify(status int, statusLine, contentType string, body []byte) Result {
	if statusLine == "" {
		statusLine = fmt.Sprintf("%d", status)
	}
	raw := string(body)
	r := Result{
		Status:      status,
		StatusLine:  statusLine,
		ContentType: contentType,
		Body:        raw,
	}

	if status < 200 || status > 299 {
		r.Outcome = OutcomeHTTPError
		r.Text = httpErrorText(statusLine, raw)
		r.Err = fmt.Errorf("endpoint status: %s", statusLine)
		return r
	}

	if !isJSON(contentType) {
		r.Outcome = OutcomeUnexpectedBody
		r.Text = unexpectedBodyText(contentType, raw)
		return r
	}

	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(body, &decoded); err != nil {
		// valid JSON but not an object is still structured data
		var anyValue any
		if json.Unmarshal(body, &anyValue) == nil {
			r.Outcome = OutcomeShapeFallback
			r.Text = compact(body)
			return r
		}
		r.Outcome = OutcomeUnexpectedBody
		r.Text = unexpectedBodyText(contentType, raw)
		r.Err = fmt.Errorf("decode body: %w", err)
		return r
	}

	reply, ok := decoded["reply"]
	if !ok || isNull(reply) {
		r.Outcome = OutcomeShapeFallback
		r.Text = compact(body)
		return r
	}

	var s string
	if err := json.Unmarshal(reply, &s); err == nil {
		r.Text = s
	} else {
		r.Text = compact(reply)
	}
	r.Outcome = OutcomeReply
	return r
}

func isJSON(contentType string) bool {
	if contentType == "" {
		return false
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func compact(raw []byte) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

// ErrNoEndpoint is returned by Validate when the client has nowhere to send.
var ErrNoEndpoint = errors.New("exchange: empty endpoint")

func (c *Client) Validate() error {
	if strings.TrimSpace(c.endpoint) == "" {
		return ErrNoEndpoint
	}
	return nil
}

// restyLogger routes resty's internal messages into slog.
type restyLogger struct{ log *slog.Logger }

func (l restyLogger) Errorf(format string, v ...interface{}) {
	l.log.Error(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "resty")
}

func (l restyLogger) Warnf(format string, v ...interface{}) {
	l.log.Warn(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "resty")
}

func (l restyLogger) Debugf(format string, v ...interface{}) {
	l.log.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "resty")
}
