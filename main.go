package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-chi/chi/v5"

	"github.com/varsilias/seo-chat/internal/api"
	"github.com/varsilias/seo-chat/internal/buildinfo"
	"github.com/varsilias/seo-chat/internal/chat"
	"github.com/varsilias/seo-chat/internal/exchange"
	"github.com/varsilias/seo-chat/internal/logging"
	"github.com/varsilias/seo-chat/internal/middleware"
	"github.com/varsilias/seo-chat/internal/ollama"
	"github.com/varsilias/seo-chat/internal/reply"
	"github.com/varsilias/seo-chat/internal/session"
	"github.com/varsilias/seo-chat/internal/tui"
	"github.com/varsilias/seo-chat/internal/ui"
)

func main() {
	addr := flag.String("addr", getEnv("ADDR", "8080"), "HTTP listen port")
	level := flag.String("log-level", getEnv("LOG_LEVEL", "info"), "log level: debug|info|warn|error")
	json := flag.Bool("log-json", getEnv("LOG_JSON", "false") == "true", "log as JSON")
	logFile := flag.String("log-file", getEnv("LOG_FILE", ""), "write logs to this file instead of stdout")
	endpoint := flag.String("endpoint", getEnv("CHAT_ENDPOINT", ""), "chat endpoint URL (default: this server's /api/chat)")
	greeting := flag.String("greeting", getEnv("CHAT_GREETING", chat.DefaultGreeting), "first bot message of every conversation")
	suggestions := flag.String("suggestions", getEnv("CHAT_SUGGESTIONS", strings.Join(chat.DefaultSuggestions, "|")), "preset prompts separated by |")
	corsOrigins := flag.String("cors-origins", getEnv("CORS_ORIGINS", "*"), "origins allowed to call /api/chat, comma separated")
	sessionTTLRaw := getEnv("SESSION_IDLE_TTL", "24h")
	runTUI := flag.Bool("tui", false, "run the terminal chat instead of the web server")

	ollamaURL := flag.String("ollama", getEnv("OLLAMA_BASE_URL", "http://localhost:11434"), "Ollama base URL")
	model := flag.String("model", getEnv("OLLAMA_MODEL", "gemma3:270m"), "Ollama model answering /api/chat")

	// ollama readiness knobs
	waitEnabled := strings.ToLower(getEnv("OLLAMA_WAIT", "true")) == "true"
	waitTimeoutRaw := getEnv("OLLAMA_WAIT_TIMEOUT", "180s")
	waitIntervalRaw := getEnv("OLLAMA_WAIT_INTERVAL", "2s")

	flag.Parse()

	if *endpoint == "" {
		*endpoint = fmt.Sprintf("http://localhost:%s/api/chat", *addr)
	}

	var logOut io.Writer = os.Stdout
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logOut = f
	} else if *runTUI {
		// the terminal belongs to bubbletea
		logOut = io.Discard
	}
	logger := logging.New(*level, *json, logOut)
	logger.Info("build", "version", buildinfo.Version, "commit", buildinfo.Commit, "built_at", buildinfo.BuiltAt)

	sessionTTL := parseDuration(logger, "SESSION_IDLE_TTL", sessionTTLRaw, 24*time.Hour)
	waitTimeout := parseDuration(logger, "OLLAMA_WAIT_TIMEOUT", waitTimeoutRaw, 180*time.Second)
	waitInterval := parseDuration(logger, "OLLAMA_WAIT_INTERVAL", waitIntervalRaw, 2*time.Second)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ex := exchange.NewClient(*endpoint, logger)
	if err := ex.Validate(); err != nil {
		logger.Error("exchange client", "err", err)
		os.Exit(1)
	}
	store := session.NewMemoryStore()
	chatCtrl := chat.NewController(logger, ex, store, chat.Config{
		Greeting:    *greeting,
		Suggestions: splitSuggestions(*suggestions),
	})

	if *runTUI {
		p := tea.NewProgram(tui.NewModel(ctx, chatCtrl, ex.Endpoint()), tea.WithAltScreen(), tea.WithContext(ctx))
		if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			fmt.Fprintf(os.Stderr, "tui: %v\n", err)
			os.Exit(1)
		}
		return
	}

	logger.Info("chat server is listening", "port", *addr, "endpoint", ex.Endpoint(), "ollama", *ollamaURL)
	engine := pickEngine(ctx, logger, *ollamaURL, *model, waitEnabled, waitTimeout, waitInterval)

	uih, err := ui.New(logger, chatCtrl)
	if err != nil {
		logger.Error("ui init", "err", err)
		os.Exit(1)
	}
	h := api.NewHandlers(logger, engine)

	mux := chi.NewRouter()
	ui.RegisterRoutes(mux, uih)
	api.RegisterRoutes(mux, h, splitList(*corsOrigins, ","))

	handler := middleware.Chain(mux,
		middleware.VersionHeader(),
		middleware.AccessLog(logger),
		middleware.RequestID(),
		middleware.Recoverer(logger),
	)

	server := http.Server{
		Addr:              fmt.Sprintf(":%s", *addr),
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		// the UI handler waits on a full exchange, which may include a slow model
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	go pruneSessions(ctx, logger, store, sessionTTL)

	errChan := make(chan error, 1)
	go func() { errChan <- server.ListenAndServe() }()

	select {
	case err := <-errChan:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "err", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "err", err)
	} else {
		logger.Info("server stopped")
	}
}

// pickEngine prefers Ollama when it is reachable and falls back to echo.
func pickEngine(ctx context.Context, logger *slog.Logger, baseURL, model string, wait bool, timeout, interval time.Duration) reply.Engine {
	oc := ollama.NewClient(baseURL, logger)
	if wait {
		logger.Info("waiting for Ollama", "timeout", timeout.String(), "interval", interval.String(), "model", model)
		ctxWait, cancel := context.WithTimeout(ctx, timeout)
		err := waitForOllama(ctxWait, oc, []string{model}, interval)
		cancel()
		if err != nil {
			logger.Warn("Ollama wait timed out; continuing with fallback", "err", err.Error())
		} else {
			logger.Info("Ollama is ready (API + required models present)")
		}
	}

	if err := oc.Ping(ctx); err != nil {
		logger.Warn("ollama not reachable; falling back to echo engine", "err", err)
		return reply.NewEchoEngine(30 * time.Millisecond)
	}
	logger.Info("ollama reachable: enabling ollama engine", "model", model)
	return reply.NewOllamaEngine(oc, model, reply.DefaultPersona)
}

func waitForOllama(ctx context.Context, oc *ollama.Client, models []string, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	check := func() error {
		if err := oc.Ping(ctx); err != nil {
			return fmt.Errorf("ollama not reachable: %w", err)
		}
		missing, err := oc.MissingModels(ctx, models)
		if err != nil {
			return err
		}
		if len(missing) > 0 {
			return fmt.Errorf("models not present yet: %s", strings.Join(missing, ", "))
		}
		return nil
	}

	// do an immediate attempt first
	if err := check(); err == nil {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := check(); err == nil {
				return nil
			}
		}
	}
}

func pruneSessions(ctx context.Context, logger *slog.Logger, store *session.MemoryStore, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	ticker := time.NewTicker(ttl / 4)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := store.Prune(ttl); n > 0 {
				logger.Info("pruned idle sessions", "count", n, "remaining", store.Len())
			}
		}
	}
}

// parseDuration falls back to def, with a warning, when raw is not a positive duration.
func parseDuration(logger *slog.Logger, key, raw string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil || d <= 0 {
		logger.Warn("invalid duration; using default", "key", key, "value", raw, "default", def.String())
		return def
	}
	return d
}

func splitSuggestions(s string) []string {
	return splitList(s, "|")
}

func splitList(s, sep string) []string {
	out := []string{}
	for _, part := range strings.Split(s, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, def string) string {
	v := os.Getenv(key)
	if v != "" {
		return v
	}
	return def
}
