package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/varsilias/seo-chat/internal/buildinfo"
	"github.com/varsilias/seo-chat/internal/reply"
	"github.com/varsilias/seo-chat/pkg/utils"
)

// maxBody caps the size of an incoming chat request.
const maxBody = 64 << 10

type Handlers struct {
	log    *slog.Logger
	engine reply.Engine
}

func NewHandlers(log *slog.Logger, engine reply.Engine) *Handlers {
	return &Handlers{log: log, engine: engine}
}

// Health is a basic liveness endpoint.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, map[string]any{
		"status":    true,
		"message":   "seo-chat",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handlers) Version(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, map[string]any{
		"version":  buildinfo.Version,
		"commit":   buildinfo.Commit,
		"built_at": buildinfo.BuiltAt,
	})
}

// ChatInfo GET /api/chat, so a browser hitting the endpoint gets a hint instead of 405.
func (h *Handlers) ChatInfo(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"note":   "POST JSON {message: string} to this endpoint to chat.",
	})
}

// Chat POST /api/chat {message} -> {reply}
func (h *Handlers) Chat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message *string `json:"message"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(&req); err != nil {
		utils.Detail(w, http.StatusUnprocessableEntity, "invalid json body")
		return
	}
	if req.Message == nil {
		utils.Detail(w, http.StatusUnprocessableEntity, "field required: message")
		return
	}
	msg := strings.TrimSpace(*req.Message)
	h.log.Info("chat request received", "len", len(msg))
	if msg == "" {
		utils.Detail(w, http.StatusUnprocessableEntity, "message must not be empty")
		return
	}

	text, latency, err := h.engine.Generate(r.Context(), msg)
	if err != nil {
		h.log.Error("engine call", "err", err)
		utils.Detail(w, http.StatusBadGateway, err.Error())
		return
	}
	h.log.Debug("chat reply", "latency_ms", latency.Milliseconds(), "len", len(text))
	utils.JSON(w, http.StatusOK, map[string]any{"reply": text})
}
