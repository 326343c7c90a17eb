package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/varsilias/seo-chat/internal/chat"
	"github.com/varsilias/seo-chat/internal/exchange"
	"github.com/varsilias/seo-chat/internal/logging"
	"github.com/varsilias/seo-chat/internal/session"
)

type echoExchanger struct{ sent []string }

func (e *echoExchanger) Send(ctx context.Context, text string) exchange.Result {
	e.sent = append(e.sent, text)
	return exchange.Result{Outcome: exchange.OutcomeReply, Text: "re: " + text}
}

func newTestModel() (Model, *echoExchanger, *chat.Controller) {
	ex := &echoExchanger{}
	ctrl := chat.NewController(logging.Discard(), ex, session.NewMemoryStore(), chat.Config{
		Suggestions: []string{"Check my meta tags"},
	})
	return NewModel(context.Background(), ctrl, "http://localhost:8080/api/chat"), ex, ctrl
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

func TestEnterSubmits(t *testing.T) {
	m, ex, ctrl := newTestModel()
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("hello")})
	assert.Equal(t, "hello", m.input.Value())

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Empty(t, m.input.Value())
	assert.Contains(t, m.View(), "1 pending")

	m, _ = update(t, m, cmd())
	assert.NotContains(t, m.View(), "pending")
	assert.NoError(t, m.err)
	assert.Equal(t, []string{"hello"}, ex.sent)

	v, err := ctrl.View(LocalSession)
	require.NoError(t, err)
	require.Len(t, v.Transcript, 3)
	assert.Contains(t, m.View(), "re: hello")
	assert.NotContains(t, m.View(), "alt+1")
}

func TestPendingCountTracksOverlap(t *testing.T) {
	m, _, _ := newTestModel()
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("one")})
	m, first := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("two")})
	m, second := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Contains(t, m.View(), "2 pending")

	m, _ = update(t, m, first())
	assert.Contains(t, m.View(), "1 pending")
	m, _ = update(t, m, second())
	assert.NotContains(t, m.View(), "pending")
}

func TestEnterOnBlankDoesNothing(t *testing.T) {
	m, ex, _ := newTestModel()
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("   ")})
	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Empty(t, ex.sent)
}

func TestAltDigitActivatesSuggestion(t *testing.T) {
	m, ex, _ := newTestModel()
	assert.Contains(t, m.View(), "alt+1  Check my meta tags")

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'1'}, Alt: true})
	require.NotNil(t, cmd)
	_, _ = update(t, m, cmd())
	assert.Equal(t, []string{"Check my meta tags"}, ex.sent)

	// suggestions are gone after the first message
	_, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'1'}, Alt: true})
	if cmd != nil {
		_, isSettle := cmd().(settledMsg)
		assert.False(t, isSettle)
	}
	assert.Len(t, ex.sent, 1)
}

func TestCtrlRResets(t *testing.T) {
	m, _, ctrl := newTestModel()
	_, err := ctrl.Submit(context.Background(), LocalSession, "hello")
	require.NoError(t, err)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	v, _ := ctrl.View(LocalSession)
	assert.Len(t, v.Transcript, 1)
	assert.Contains(t, m.View(), "alt+1")
}

func TestEscQuits(t *testing.T) {
	m, _, _ := newTestModel()
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.True(t, m.quitting)
	assert.Empty(t, m.View())
}
