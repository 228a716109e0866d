package model

import "time"

// Session is a logged-in browser. Its token lives in the session cookie.
type Session struct {
	ID        int64     `json:"id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
