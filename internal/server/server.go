package server

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/dukerupert/notepad/internal/auth"
	"github.com/dukerupert/notepad/internal/handler"
	"github.com/dukerupert/notepad/internal/middleware"
	"github.com/dukerupert/notepad/internal/notepad"
	"github.com/dukerupert/notepad/internal/store"
	ws "github.com/dukerupert/notepad/internal/websocket"
	"github.com/dukerupert/notepad/web"
)

// loginLimit caps passkey attempts per client address.
var loginLimit = middleware.Limit{Requests: 10, Window: time.Minute}

// Options carries the session and proxy settings from configuration.
type Options struct {
	SessionTTL   time.Duration
	SecureCookie bool
	// TrustProxy keys the login limit on X-Forwarded-For / X-Real-IP.
	TrustProxy bool
}

type Server struct {
	hub          *ws.Hub
	pads         *notepad.Registry
	authH        *handler.AuthHandler
	notePadH     *handler.NotePadHandler
	sessionStore *store.SessionStore
	rateLimiter  *middleware.RateLimiter
	static       fs.FS
	clientIP     func(*http.Request) string
	logger       *slog.Logger
}

func New(db *sql.DB, verifier auth.Verifier, api notepad.API, opts Options, logger *slog.Logger) (*Server, error) {
	hub := ws.NewHub(logger.With("component", "websocket"))
	pads := notepad.NewRegistry(api, logger.With("component", "notepad"))
	pads.OnChange(func(key string, total int) {
		hub.Broadcast(key, ws.Message{Type: ws.MessageNotesChanged, Total: total})
	})

	rd, err := handler.NewRenderer(web.FS, logger.With("component", "template"))
	if err != nil {
		return nil, err
	}
	static, err := fs.Sub(web.FS, "static")
	if err != nil {
		return nil, fmt.Errorf("static assets: %w", err)
	}

	sessionStore := store.NewSessionStore(db)
	authOpts := handler.AuthOptions{SessionTTL: opts.SessionTTL, SecureCookie: opts.SecureCookie}

	return &Server{
		hub:          hub,
		pads:         pads,
		authH:        handler.NewAuthHandler(verifier, sessionStore, pads, hub, rd, authOpts, logger.With("component", "auth")),
		notePadH:     handler.NewNotePadHandler(pads, rd, logger.With("component", "notes")),
		sessionStore: sessionStore,
		rateLimiter:  middleware.NewRateLimiter(loginLimit),
		static:       static,
		clientIP:     middleware.ClientIP(opts.TrustProxy),
		logger:       logger,
	}, nil
}

// RateLimiter returns the login rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// CleanupSessions removes expired sessions along with their notes and open
// connections.
func (s *Server) CleanupSessions() (int, error) {
	ids, err := s.sessionStore.DeleteExpired()
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		key := strconv.FormatInt(id, 10)
		s.pads.Drop(key)
		s.hub.CloseSession(key)
	}
	return len(ids), nil
}

// RunCleanup calls CleanupSessions every interval until ctx is done.
func (s *Server) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.CleanupSessions()
			if err != nil {
				s.logger.Error("session cleanup", "error", err)
				continue
			}
			if n > 0 {
				s.logger.Info("expired sessions removed", "count", n)
			}
		}
	}
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()
	componentLogger := s.logger.With("component", "middleware")

	// Public routes (no auth required)
	loginGate := middleware.RedirectIfAuthenticated(s.sessionStore, componentLogger)
	outerMux.Handle("GET /login", loginGate(http.HandlerFunc(s.authH.LoginPage)))
	outerMux.Handle("POST /login", middleware.RateLimit(s.rateLimiter, s.clientIP)(http.HandlerFunc(s.authH.Login)))
	outerMux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(s.static)))
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	requireAuth := middleware.RequireAuth(s.sessionStore, componentLogger)
	outerMux.Handle("/", requireAuth(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /logout", s.authH.Logout)

	// Page
	mux.HandleFunc("GET /{$}", s.notePadH.Page)

	// Note partials (HTMX)
	mux.HandleFunc("GET /notes", s.notePadH.List)
	mux.HandleFunc("POST /notes/refresh", s.notePadH.Refresh)
	mux.HandleFunc("GET /notes/search", s.notePadH.Search)
	mux.HandleFunc("GET /notes/filter", s.notePadH.Filter)
	mux.HandleFunc("GET /notes/new", s.notePadH.NewForm)
	mux.HandleFunc("POST /notes/dialog/close", s.notePadH.CloseDialog)
	mux.HandleFunc("POST /notes", s.notePadH.Create)
	mux.HandleFunc("GET /notes/{id}/edit", s.notePadH.EditForm)
	mux.HandleFunc("PUT /notes/{id}", s.notePadH.Update)
	mux.HandleFunc("DELETE /notes/{id}", s.notePadH.Delete)
	mux.HandleFunc("POST /notes/{id}/reminder", s.notePadH.ToggleReminder)

	// JSON
	mux.HandleFunc("GET /api/notes", s.notePadH.Notes)

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket")))
}
