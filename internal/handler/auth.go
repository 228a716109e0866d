package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dukerupert/notepad/internal/auth"
	"github.com/dukerupert/notepad/internal/middleware"
	"github.com/dukerupert/notepad/internal/model"
	"github.com/dukerupert/notepad/internal/notepad"
	"github.com/dukerupert/notepad/internal/store"
	"github.com/dukerupert/notepad/internal/websocket"
)

// AuthOptions configures session cookies.
type AuthOptions struct {
	SessionTTL   time.Duration
	SecureCookie bool
}

type AuthHandler struct {
	verifier auth.Verifier
	sessions *store.SessionStore
	pads     *notepad.Registry
	hub      *websocket.Hub
	render   *Renderer
	opts     AuthOptions
	logger   *slog.Logger
}

func NewAuthHandler(
	v auth.Verifier,
	ss *store.SessionStore,
	pads *notepad.Registry,
	hub *websocket.Hub,
	rd *Renderer,
	opts AuthOptions,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		verifier: v,
		sessions: ss,
		pads:     pads,
		hub:      hub,
		render:   rd,
		opts:     opts,
		logger:   logger,
	}
}

func (h *AuthHandler) page(w http.ResponseWriter, status int, ts []model.Toast) {
	h.render.render(w, status, part{"login.html", pageData{
		Title:  "Secure Access - Dojo LoM",
		Toasts: ts,
	}})
}

func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.page(w, http.StatusOK, takeFlash(w, r))
}

// Login verifies the passkey and starts a session. Failures leave the
// visitor logged out and explain why with a toast.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	passkey := r.FormValue("passkey")
	if strings.TrimSpace(passkey) == "" {
		http.Error(w, "Passkey is required", http.StatusBadRequest)
		return
	}

	err := h.verifier.Verify(r.Context(), passkey)
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrInvalidPasskey):
		h.logger.Info("login rejected", "remote", middleware.RealIP(r))
		h.loginFailed(w, r, http.StatusUnauthorized,
			model.ErrorToast("Invalid Passkey", "Please enter the correct master key."))
		return
	default:
		h.logger.Error("login verify", "error", err)
		h.loginFailed(w, r, http.StatusBadGateway,
			model.ErrorToast("Authentication Failed", "Unable to validate passkey. Please try again."))
		return
	}

	sess, err := h.sessions.Create(h.opts.SessionTTL)
	if err != nil {
		h.logger.Error("create session", "error", err)
		h.loginFailed(w, r, http.StatusInternalServerError,
			model.ErrorToast("Authentication Failed", "Unable to validate passkey. Please try again."))
		return
	}

	middleware.SetSessionCookie(w, sess, h.opts.SecureCookie)
	setFlash(w, model.InfoToast("Login Successful", "Welcome to Dojo LoM!"))
	h.logger.Info("login", "session", sess.ID)
	redirect(w, r, "/")
}

// loginFailed answers HTMX with just the toast so the form keeps its state.
func (h *AuthHandler) loginFailed(w http.ResponseWriter, r *http.Request, status int, t model.Toast) {
	if isHTMX(r) {
		h.render.render(w, http.StatusOK, part{"toasts", []model.Toast{t}})
		return
	}
	h.page(w, status, []model.Toast{t})
}

// Logout ends the session and discards its notes.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if sc, ok := auth.FromContext(r.Context()); ok {
		if err := h.sessions.DeleteByToken(sc.Token); err != nil {
			h.logger.Error("delete session", "error", err)
		}
		h.pads.Drop(sc.Key())
		if h.hub != nil {
			h.hub.CloseSession(sc.Key())
		}
		h.logger.Info("logout", "session", sc.SessionID)
	}

	middleware.ClearSessionCookie(w, h.opts.SecureCookie)
	setFlash(w, model.InfoToast("Logged Out", "You have been successfully logged out."))
	redirect(w, r, "/login")
}
