package ui

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/varsilias/seo-chat/internal/buildinfo"
	"github.com/varsilias/seo-chat/internal/chat"
)

const sessionCookie = "sid"

func RegisterRoutes(mux *chi.Mux, h *UI) {
	mux.Get("/", h.Home)
	mux.Post("/ui/chat", h.ChatPost)
	mux.Post("/ui/suggest", h.SuggestPost)
	mux.Post("/ui/clear", h.Clear)
	mux.Get("/ui/version-pill", h.VersionPill)
}

// sessionID reads the browser's session cookie, issuing one on first visit.
func sessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			return c.Value
		}
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int((24 * time.Hour).Seconds()),
	})
	return id
}

// Home shows the chat page for the caller's session.
func (u *UI) Home(w http.ResponseWriter, r *http.Request) {
	sid := sessionID(w, r)
	v, err := u.chat.View(sid)
	if err != nil {
		u.log.Error("load session", "session", sid, "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	u.render(w, "chat.html", map[string]any{
		"App":     u.appView(v),
		"Version": buildinfo.Version,
		"Commit":  buildinfo.Commit,
	}, http.StatusOK)
}

// ChatPost submits the form's message and returns the refreshed chat fragment.
func (u *UI) ChatPost(w http.ResponseWriter, r *http.Request) {
	if !u.parseForm(w, r) {
		return
	}
	sid := sessionID(w, r)
	_, err := u.chat.Submit(r.Context(), sid, r.Form.Get("message"))
	u.afterSubmit(w, r, sid, err)
}

// SuggestPost acts like a user typing the preset and pressing send.
func (u *UI) SuggestPost(w http.ResponseWriter, r *http.Request) {
	if !u.parseForm(w, r) {
		return
	}
	sid := sessionID(w, r)
	_, err := u.chat.Suggest(r.Context(), sid, r.Form.Get("suggestion"))
	u.afterSubmit(w, r, sid, err)
}

func (u *UI) Clear(w http.ResponseWriter, r *http.Request) {
	sid := sessionID(w, r)
	if err := u.chat.Reset(sid); err != nil {
		u.log.Error("clear chat", "session", sid, "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	u.respond(w, r, sid)
}

func (u *UI) parseForm(w http.ResponseWriter, r *http.Request) bool {
	if err := r.ParseForm(); err != nil {
		u.log.Warn("parse form", "path", r.URL.Path, "err", err)
		http.Error(w, "invalid form body", http.StatusBadRequest)
		return false
	}
	return true
}

func (u *UI) afterSubmit(w http.ResponseWriter, r *http.Request, sid string, err error) {
	if err != nil && !errors.Is(err, chat.ErrEmptyMessage) {
		u.log.Error("submit", "session", sid, "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	u.respond(w, r, sid)
}

// respond sends the chat fragment to htmx, or redirects plain form posts home.
func (u *UI) respond(w http.ResponseWriter, r *http.Request, sid string) {
	if r.Header.Get("HX-Request") != "true" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	v, err := u.chat.View(sid)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	u.render(w, "app.html", u.appView(v), http.StatusOK)
}

type versionVM struct {
	Version string
	Commit  string
	BuiltAt string
}

func (u *UI) VersionPill(w http.ResponseWriter, r *http.Request) {
	// avoid caching so rollouts show quickly
	w.Header().Set("Cache-Control", "no-store")
	u.render(w, "version-pill.html", versionVM{
		Version: buildinfo.Version,
		Commit:  buildinfo.Commit,
		BuiltAt: buildinfo.BuiltAt,
	}, http.StatusOK)
}
