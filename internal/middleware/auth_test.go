package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dukerupert/notepad/internal/auth"
	"github.com/dukerupert/notepad/internal/database"
	"github.com/dukerupert/notepad/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupAuthMiddlewareDB(t *testing.T) *store.SessionStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return store.NewSessionStore(db)
}

func unreachable(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not reach handler")
	})
}

func TestRequireAuthNoCookie(t *testing.T) {
	ss := setupAuthMiddlewareDB(t)
	handler := RequireAuth(ss, testLogger())(unreachable(t))

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Errorf("Location = %q, want %q", loc, "/login")
	}
}

func TestRequireAuthInvalidToken(t *testing.T) {
	ss := setupAuthMiddlewareDB(t)
	handler := RequireAuth(ss, testLogger())(unreachable(t))

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "invalid-token"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	// The stale cookie is cleared.
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 {
		t.Errorf("cookies = %+v, want cleared session cookie", cookies)
	}
}

func TestRequireAuthValidSession(t *testing.T) {
	ss := setupAuthMiddlewareDB(t)
	sess, _ := ss.Create(time.Hour)

	var got auth.SessionContext
	handler := RequireAuth(ss, testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sc, ok := auth.FromContext(r.Context())
		if !ok {
			t.Fatal("expected SessionContext in request context")
		}
		got = sc
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: sess.Token})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got.SessionID != sess.ID {
		t.Errorf("SessionID = %d, want %d", got.SessionID, sess.ID)
	}
}

func TestRequireAuthDeletedSession(t *testing.T) {
	ss := setupAuthMiddlewareDB(t)
	sess, _ := ss.Create(time.Hour)
	ss.DeleteByToken(sess.Token)

	handler := RequireAuth(ss, testLogger())(unreachable(t))
	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: sess.Token})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
}

func TestRequireAuthHTMXRedirect(t *testing.T) {
	ss := setupAuthMiddlewareDB(t)
	handler := RequireAuth(ss, testLogger())(unreachable(t))

	req := httptest.NewRequest("POST", "/notes", nil)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if hxRedirect := rec.Header().Get("HX-Redirect"); hxRedirect != "/login" {
		t.Errorf("HX-Redirect = %q, want %q", hxRedirect, "/login")
	}
}

func TestRequireAuthFormPostUnauthorized(t *testing.T) {
	ss := setupAuthMiddlewareDB(t)
	handler := RequireAuth(ss, testLogger())(unreachable(t))

	req := httptest.NewRequest("POST", "/notes/1/delete", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRedirectIfAuthenticated(t *testing.T) {
	ss := setupAuthMiddlewareDB(t)
	sess, _ := ss.Create(time.Hour)

	var served bool
	handler := RedirectIfAuthenticated(ss, testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		served = true
	}))

	req := httptest.NewRequest("GET", "/login", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: sess.Token})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if served || rec.Code != http.StatusSeeOther {
		t.Errorf("served = %v, status = %d, want redirect", served, rec.Code)
	}

	req = httptest.NewRequest("GET", "/login", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if !served {
		t.Error("login page not served without session")
	}
}
