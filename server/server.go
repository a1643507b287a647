// Package server serves the chat UI over HTTP. Each browser gets its own
// conversation, identified by a session cookie and held in memory until it
// expires.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sonnes/granth/chat"
	"github.com/sonnes/granth/core"
	htmlrender "github.com/sonnes/granth/render/html"
	jsonrender "github.com/sonnes/granth/render/json"
	"golang.org/x/sync/errgroup"
)

// CookieName is the session cookie.
const CookieName = "granth_session"

// Options configures a Server.
type Options struct {
	Addr          string
	Title         string
	SessionTTL    time.Duration
	SweepInterval time.Duration
	Settings      core.Settings // initial sidebar values for new sessions
	Pacing        time.Duration // cosmetic pause between status steps

	// Export transforms the copy of a session served by /session.json,
	// e.g. a redactor. Nil transformers are skipped.
	Export []core.Transformer
}

// Server serves the chat UI.
type Server struct {
	opts  Options
	store *Store
	html  *htmlrender.Renderer
	json  *jsonrender.Renderer
}

// New creates a Server whose conversations ask asker.
func New(asker chat.Asker, opts Options) *Server {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 30 * time.Minute
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = time.Minute
	}
	if opts.Settings == (core.Settings{}) {
		opts.Settings = core.DefaultSettings()
	}
	return &Server{
		opts:  opts,
		store: NewStore(conversationFactory(asker, opts.Settings, opts.Pacing), opts.SessionTTL),
		html:  htmlrender.New(),
		json:  jsonrender.New(),
	}
}

// Store returns the session store.
func (s *Server) Store() *Store {
	return s.store
}

// Handler returns the HTTP handler with all routes and request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /ask", s.handleAsk)
	mux.HandleFunc("POST /settings", s.handleSettings)
	mux.HandleFunc("POST /reset", s.handleReset)
	mux.HandleFunc("GET /session.json", s.handleExport)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintln(w, "ok")
	})
	return loggingMiddleware(mux)
}

// Start serves until ctx is canceled, then shuts down gracefully. The
// session sweeper runs for as long as the server does.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 15 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.store.Run(gctx, s.opts.SweepInterval)
		return nil
	})
	g.Go(func() error {
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	slog.Info("serving", "addr", s.opts.Addr, "session_ttl", s.opts.SessionTTL)
	return g.Wait()
}

// conversation returns the caller's conversation, starting one (and setting
// the cookie) when the cookie is missing or its session has expired.
func (s *Server) conversation(w http.ResponseWriter, r *http.Request) (string, *chat.Conversation) {
	if c, err := r.Cookie(CookieName); err == nil {
		if conv, ok := s.store.Get(c.Value); ok {
			return c.Value, conv
		}
	}
	return s.startConversation(w)
}

func (s *Server) startConversation(w http.ResponseWriter) (string, *chat.Conversation) {
	id, conv := s.store.Create()
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	slog.Debug("session started", "session_id", id)
	return id, conv
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	_, conv := s.conversation(w, r)

	page := htmlrender.PageFor(conv.Snapshot())
	page.Title = s.opts.Title
	if r.URL.Query().Get("failed") != "" {
		page.Notice = "The answer service could not be reached. The error is shown in the conversation."
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.html.RenderPage(w, page); err != nil {
		slog.Error("render page", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	id, conv := s.conversation(w, r)

	question := r.FormValue("question")
	if strings.TrimSpace(question) == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	// The answer is recorded even if the browser goes away mid-request.
	ex, err := conv.Submit(context.WithoutCancel(r.Context()), question)
	switch {
	case errors.Is(err, chat.ErrBusy):
		http.Error(w, "a question is already awaiting its answer", http.StatusConflict)
		return
	case err != nil && ex == (chat.Exchange{}):
		slog.Error("submit", "session_id", id, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	case err != nil:
		slog.Warn("answer service failed", "session_id", id, "error", err)
		http.Redirect(w, r, fmt.Sprintf("/?failed=1#turn-%d", ex.AnswerIndex), http.StatusSeeOther)
		return
	}

	slog.Debug("answered", "session_id", id, "turn", ex.AnswerIndex, "cited", ex.Citation != nil)
	http.Redirect(w, r, fmt.Sprintf("/#turn-%d", ex.AnswerIndex), http.StatusSeeOther)
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	_, conv := s.conversation(w, r)

	settings, err := parseSettings(r)
	if err == nil {
		err = conv.UpdateSettings(settings)
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func parseSettings(r *http.Request) (core.Settings, error) {
	depth, err := strconv.Atoi(r.FormValue("search_depth"))
	if err != nil {
		return core.Settings{}, fmt.Errorf("search_depth: %w", err)
	}
	threshold, err := strconv.ParseFloat(r.FormValue("confidence_threshold"), 64)
	if err != nil {
		return core.Settings{}, fmt.Errorf("confidence_threshold: %w", err)
	}
	return core.Settings{SearchDepth: depth, ConfidenceThreshold: threshold}, nil
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	id, conv := s.conversation(w, r)
	if conv.State() == chat.AwaitingAnswer {
		http.Error(w, "a question is already awaiting its answer", http.StatusConflict)
		return
	}
	s.store.Delete(id)
	s.startConversation(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	id, conv := s.conversation(w, r)

	snap := conv.Snapshot()
	for _, tr := range s.opts.Export {
		if tr == nil {
			continue
		}
		if err := tr.Transform(snap.Session); err != nil {
			slog.Error("export transform", "session_id", id, "error", err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="conversation.json"`)
	if err := s.json.Render(w, snap.Session); err != nil {
		slog.Error("render export", "session_id", id, "error", err)
	}
}

// statusRecorder captures the response status for logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		slog.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start).Round(time.Millisecond),
		)
	})
}
