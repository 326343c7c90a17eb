// Package tui is a terminal front end for the chat controller.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/varsilias/seo-chat/internal/chat"
	"github.com/varsilias/seo-chat/pkg/types"
)

// LocalSession is the single transcript the terminal works on.
const LocalSession = "local"

// settledMsg arrives when a submission's exchange has resolved.
type settledMsg struct {
	turn chat.Turn
	err  error
}

type Model struct {
	ctx       context.Context
	ctrl      *chat.Controller
	sessionID string
	endpoint  string

	input   textinput.Model
	spinner spinner.Model

	inflight int
	width    int
	height   int
	err      error
	quitting bool
}

func NewModel(ctx context.Context, ctrl *chat.Controller, endpoint string) Model {
	ti := textinput.New()
	ti.Placeholder = "Ask about your site..."
	ti.Prompt = "› "
	ti.CharLimit = 4000
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		ctx:       ctx,
		ctrl:      ctrl,
		sessionID: LocalSession,
		endpoint:  endpoint,
		input:     ti,
		spinner:   sp,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

func (m Model) submit(text string) tea.Cmd {
	return func() tea.Msg {
		turn, err := m.ctrl.Submit(m.ctx, m.sessionID, text)
		return settledMsg{turn: turn, err: err}
	}
}

func (m Model) suggest(text string) tea.Cmd {
	return func() tea.Msg {
		turn, err := m.ctrl.Suggest(m.ctx, m.sessionID, text)
		return settledMsg{turn: turn, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(msg.Width-4, 10)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case settledMsg:
		m.inflight--
		if msg.err != nil && !errors.Is(msg.err, chat.ErrEmptyMessage) {
			m.err = msg.err
		}
		return m, nil

	case tea.KeyMsg:
		switch key := msg.String(); key {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "ctrl+r":
			m.err = m.ctrl.Reset(m.sessionID)
			m.input.SetValue("")
			return m, nil
		case "enter":
			text := m.input.Value()
			if strings.TrimSpace(text) == "" {
				return m, nil
			}
			m.input.SetValue("")
			m.err = nil
			m.inflight++
			return m, m.submit(text)
		default:
			if text, ok := m.suggestionFor(key); ok {
				m.input.SetValue("")
				m.err = nil
				m.inflight++
				return m, m.suggest(text)
			}
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// suggestionFor maps alt+1..alt+9 to a visible suggestion.
func (m Model) suggestionFor(key string) (string, bool) {
	if len(key) != 5 || !strings.HasPrefix(key, "alt+") {
		return "", false
	}
	n := int(key[4] - '1')
	if n < 0 || n > 8 {
		return "", false
	}
	v, err := m.ctrl.View(m.sessionID)
	if err != nil || n >= len(v.Suggestions) {
		return "", false
	}
	return v.Suggestions[n], true
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	v, err := m.ctrl.View(m.sessionID)
	if err != nil {
		return errStyle.Render(err.Error()) + "\n"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("SEO Chat"))
	b.WriteString(dimStyle.Render("  " + m.endpoint))
	b.WriteString("\n\n")

	var lines []string
	for _, msg := range v.Transcript {
		lines = append(lines, m.renderMessage(msg)...)
	}
	if m.height > 0 {
		// keep the tail of the transcript on screen
		room := m.height - 8 - len(v.Suggestions)
		if room > 0 && len(lines) > room {
			lines = lines[len(lines)-room:]
		}
	}
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n\n")

	for i, s := range v.Suggestions {
		b.WriteString(chipStyle.Render(fmt.Sprintf("alt+%d  %s", i+1, s)))
		b.WriteString("\n")
	}
	if m.inflight > 0 {
		b.WriteString(dimStyle.Render(fmt.Sprintf("%d pending", m.inflight)))
		b.WriteString("\n")
	}
	if m.err != nil {
		b.WriteString(errStyle.Render("error: " + m.err.Error()))
		b.WriteString("\n")
	}
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("enter send • ctrl+r clear • esc quit"))
	return b.String()
}

func (m Model) renderMessage(msg types.Message) []string {
	var label string
	if msg.Role == types.RoleUser {
		label = userStyle.Render("you ")
	} else {
		label = botStyle.Render("bot ")
	}
	if msg.Pending() {
		return []string{label + m.spinner.View() + " " + dimStyle.Render(msg.Content)}
	}

	body := msg.Content
	width := m.width - 6
	if width > 20 {
		body = lipgloss.NewStyle().Width(width).Render(body)
	}
	if msg.Kind == types.KindDiagnostic {
		body = diagStyle.Render(body)
	}
	out := strings.Split(body, "\n")
	for i := range out {
		if i == 0 {
			out[i] = label + out[i]
		} else {
			out[i] = "    " + out[i]
		}
	}
	return out
}
