package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/varsilias/seo-chat/internal/exchange"
	"github.com/varsilias/seo-chat/internal/session"
	"github.com/varsilias/seo-chat/pkg/types"
)

const (
	DefaultGreeting = "Hi! I am your SEO assistant. Paste a URL or ask me anything about your site."
	PendingText     = "Analyzing..."
)

// DefaultSuggestions are the preset prompts offered before the first message.
var DefaultSuggestions = []string{
	"Analyze the SEO of my homepage",
	"Check my meta tags",
	"Suggest better headings for my blog post",
}

// ErrEmptyMessage is returned when a submission trims to nothing. Nothing is
// appended and no request is sent.
var ErrEmptyMessage = errors.New("empty message")

// Exchanger performs one round trip for a user message.
type Exchanger interface {
	Send(ctx context.Context, text string) exchange.Result
}

type Config struct {
	Greeting    string
	Suggestions []string
}

type Controller struct {
	log         *slog.Logger
	ex          Exchanger
	sessions    session.Store
	greeting    string
	suggestions []string
	newID       func() string
	now         func() time.Time
}

func NewController(log *slog.Logger, ex Exchanger, store session.Store, cfg Config) *Controller {
	greeting := strings.TrimSpace(cfg.Greeting)
	if greeting == "" {
		greeting = DefaultGreeting
	}
	suggestions := cfg.Suggestions
	if suggestions == nil {
		suggestions = DefaultSuggestions
	}
	return &Controller{
		log:         log,
		ex:          ex,
		sessions:    store,
		greeting:    greeting,
		suggestions: append([]string(nil), suggestions...),
		newID:       uuid.NewString,
		now:         time.Now,
	}
}

// Turn is what one accepted submission produced.
type Turn struct {
	User   types.Message
	Reply  types.Message
	Result exchange.Result
}

// View is a snapshot of a session ready to be drawn.
type View struct {
	Transcript []types.Message
	Input      string
	Expanded   bool
	// Suggestions is empty once the first message has been sent.
	Suggestions []string
}

func (v View) Pending() bool {
	for _, m := range v.Transcript {
		if m.Pending() {
			return true
		}
	}
	return false
}

func (c *Controller) Suggestions() []string {
	return append([]string(nil), c.suggestions...)
}

func (c *Controller) seed() []types.Message {
	return []types.Message{c.message(types.RoleBot, types.KindText, c.greeting)}
}

func (c *Controller) message(role types.Role, kind types.Kind, content string) types.Message {
	return types.Message{ID: c.newID(), Role: role, Kind: kind, Content: content, Timestamp: c.now()}
}

func (c *Controller) View(sessionID string) (View, error) {
	if err := c.sessions.Ensure(sessionID, c.seed()); err != nil {
		return View{}, err
	}
	st, err := c.sessions.Get(sessionID)
	if err != nil {
		return View{}, err
	}
	v := View{Transcript: st.Transcript, Input: st.Input, Expanded: st.Expanded}
	if !st.Expanded {
		v.Suggestions = c.Suggestions()
	}
	return v, nil
}

func (c *Controller) SetInput(sessionID, text string) error {
	if err := c.sessions.Ensure(sessionID, c.seed()); err != nil {
		return err
	}
	return c.sessions.SetInput(sessionID, text)
}

// Submit appends the user's message and runs one exchange for it. It blocks
// until the exchange settles. Exchange failures are rendered into the
// transcript and do not produce an error.
func (c *Controller) Submit(ctx context.Context, sessionID, text string) (Turn, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Turn{}, ErrEmptyMessage
	}
	if err := c.sessions.Ensure(sessionID, c.seed()); err != nil {
		return Turn{}, err
	}

	user := c.message(types.RoleUser, types.KindText, text)
	if err := c.sessions.Append(sessionID, user); err != nil {
		return Turn{}, fmt.Errorf("append user message: %w", err)
	}
	if err := c.sessions.SetInput(sessionID, ""); err != nil {
		return Turn{}, err
	}
	if changed, err := c.sessions.Expand(sessionID); err != nil {
		return Turn{}, err
	} else if changed {
		c.log.Info("chat layout expanded", "session", sessionID)
	}

	reply, res, err := c.runExchange(ctx, sessionID, text)
	if err != nil {
		return Turn{}, err
	}
	return Turn{User: user, Reply: reply, Result: res}, nil
}

// runExchange owns the placeholder: it is appended before the request and
// removed on every way out, panics included.
func (c *Controller) runExchange(ctx context.Context, sessionID, text string) (types.Message, exchange.Result, error) {
	placeholder := c.message(types.RoleBot, types.KindPending, PendingText)
	if err := c.sessions.Append(sessionID, placeholder); err != nil {
		return types.Message{}, exchange.Result{}, fmt.Errorf("append placeholder: %w", err)
	}
	defer func() {
		if _, err := c.sessions.Remove(sessionID, placeholder.ID); err != nil {
			c.log.Error("remove placeholder", "session", sessionID, "err", err)
		}
	}()

	res := c.ex.Send(ctx, text)

	if _, err := c.sessions.Remove(sessionID, placeholder.ID); err != nil {
		return types.Message{}, res, fmt.Errorf("remove placeholder: %w", err)
	}

	kind := types.KindText
	switch {
	case res.Diagnostic():
		kind = types.KindDiagnostic
	case res.Outcome == exchange.OutcomeShapeFallback:
		kind = types.KindRaw
	}
	reply := c.message(types.RoleBot, kind, res.Text)
	if err := c.sessions.Append(sessionID, reply); err != nil {
		return types.Message{}, res, fmt.Errorf("append reply: %w", err)
	}

	attrs := []any{
		"session", sessionID,
		"outcome", res.Outcome.String(),
		"status", res.Status,
		"latency_ms", res.Latency.Milliseconds(),
	}
	if res.Diagnostic() {
		c.log.Warn("exchange failed", append(attrs, "err", res.Err)...)
	} else {
		c.log.Info("exchange settled", attrs...)
	}
	return reply, res, nil
}

// Reset restores the greeting and re-shows the suggestions.
func (c *Controller) Reset(sessionID string) error {
	if err := c.sessions.Reset(sessionID, c.seed()); err != nil {
		return err
	}
	c.log.Info("chat cleared", "session", sessionID)
	return nil
}

// Suggest behaves as if the user typed text into the input and submitted it.
func (c *Controller) Suggest(ctx context.Context, sessionID, text string) (Turn, error) {
	if err := c.SetInput(sessionID, text); err != nil {
		return Turn{}, err
	}
	st, err := c.sessions.Get(sessionID)
	if err != nil {
		return Turn{}, err
	}
	return c.Submit(ctx, sessionID, st.Input)
}
