package ui

import (
	"bytes"
	"embed"
	"html"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/varsilias/seo-chat/internal/chat"
	"github.com/varsilias/seo-chat/pkg/types"
)

//go:embed templates/*.html
var templateFS embed.FS

type UI struct {
	log    *slog.Logger
	tpl    *template.Template
	chat   *chat.Controller
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

func New(log *slog.Logger, c *chat.Controller) (*UI, error) {
	t, err := template.New("root").ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	md := goldmark.New(
		goldmark.WithRendererOptions(
			gmhtml.WithUnsafe(),
			gmhtml.WithHardWraps(), // a newline in a reply is a line break
		),
		goldmark.WithExtensions(
			highlighting.NewHighlighting(
				highlighting.WithStyle("dracula"),
				highlighting.WithFormatOptions(
					chromahtml.WithLineNumbers(false),
				),
			),
		),
	)

	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").OnElements("code", "pre", "span")
	p.AllowAttrs("style").OnElements("span", "pre") // inline styles from the highlighter

	return &UI{
		log:    log,
		tpl:    t,
		chat:   c,
		md:     md,
		policy: p,
	}, nil
}

type MsgView struct {
	ID      string
	Role    string
	Pending bool
	Diag    bool
	HTML    template.HTML
	At      string
}

type AppView struct {
	Messages    []MsgView
	Suggestions []string
	Expanded    bool
	Input       string
}

func (u *UI) mdHTML(src string) template.HTML {
	var buf bytes.Buffer
	if err := u.md.Convert([]byte(src), &buf); err != nil {
		u.log.Warn("markdown convert", "err", err)
		return plainHTML(src)
	}
	return template.HTML(u.policy.SanitizeBytes(buf.Bytes()))
}

// plainHTML shows text exactly as received, markup included, with newlines as <br>.
func plainHTML(src string) template.HTML {
	escaped := html.EscapeString(src)
	escaped = strings.ReplaceAll(escaped, "\r\n", "\n")
	return template.HTML(strings.ReplaceAll(escaped, "\n", "<br>"))
}

func (u *UI) messageView(m types.Message) MsgView {
	v := MsgView{
		ID:      m.ID,
		Role:    string(m.Role),
		Pending: m.Pending(),
		Diag:    m.Kind == types.KindDiagnostic,
		At:      m.Timestamp.Format("15:04"),
	}
	switch {
	case m.Pending():
		v.HTML = template.HTML("<i>" + html.EscapeString(m.Content) + "</i>")
	case m.Role == types.RoleBot && m.Kind == types.KindText:
		v.HTML = u.mdHTML(m.Content)
	default:
		// user text, raw bodies and diagnostics are never interpreted
		v.HTML = plainHTML(m.Content)
	}
	return v
}

func (u *UI) appView(v chat.View) AppView {
	msgs := make([]MsgView, 0, len(v.Transcript))
	for _, m := range v.Transcript {
		msgs = append(msgs, u.messageView(m))
	}
	return AppView{
		Messages:    msgs,
		Suggestions: v.Suggestions,
		Expanded:    v.Expanded,
		Input:       v.Input,
	}
}

func (u *UI) render(w http.ResponseWriter, name string, data any, status int) {
	var buf bytes.Buffer
	if err := u.tpl.ExecuteTemplate(&buf, name, data); err != nil {
		u.errTpl(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (u *UI) errTpl(w http.ResponseWriter, err error) {
	u.log.Error("template execute", "err", err)
	http.Error(w, "template error", http.StatusInternalServerError)
}
