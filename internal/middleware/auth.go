package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/notepad/internal/auth"
	"github.com/dukerupert/notepad/internal/model"
)

// SessionCookieName holds the opaque session token.
const SessionCookieName = "notepad_session"

// SessionLookup resolves a token to an unexpired session, or nil.
type SessionLookup interface {
	GetByToken(token string) (*model.Session, error)
}

// RequireAuth validates the session cookie against the store on every request
// and populates auth.SessionContext.
// HTMX-aware: returns HX-Redirect header instead of 303 redirect for HTMX requests.
func RequireAuth(sessions SessionLookup, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := lookup(sessions, r, logger)
			if !ok {
				ClearSessionCookie(w, r.TLS != nil)
				redirectToLogin(w, r)
				return
			}
			ctx := auth.WithSession(r.Context(), auth.SessionContext{SessionID: sess.ID, Token: sess.Token})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RedirectIfAuthenticated sends requests with a valid session to the note
// pad instead of serving next.
func RedirectIfAuthenticated(sessions SessionLookup, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := lookup(sessions, r, logger); ok {
				http.Redirect(w, r, "/", http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func lookup(sessions SessionLookup, r *http.Request, logger *slog.Logger) (*model.Session, bool) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil, false
	}
	sess, err := sessions.GetByToken(cookie.Value)
	if err != nil {
		logger.Error("session lookup", "error", err)
		return nil, false
	}
	return sess, sess != nil
}

// SetSessionCookie writes the session token cookie.
func SetSessionCookie(w http.ResponseWriter, sess *model.Session, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", "/login")
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	http.Error(w, "Unauthorized", http.StatusUnauthorized)
}
