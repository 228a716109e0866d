package handler

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/dukerupert/notepad/internal/model"
)

const flashCookieName = "notepad_flash"

// setFlash stores toasts to show on the next full page render.
func setFlash(w http.ResponseWriter, ts ...model.Toast) {
	b, err := json.Marshal(ts)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    base64.RawURLEncoding.EncodeToString(b),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// takeFlash returns and clears any pending flash toasts.
func takeFlash(w http.ResponseWriter, r *http.Request) []model.Toast {
	c, err := r.Cookie(flashCookieName)
	if err != nil || c.Value == "" {
		return nil
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	b, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil
	}
	var ts []model.Toast
	if err := json.Unmarshal(b, &ts); err != nil {
		return nil
	}
	return ts
}
