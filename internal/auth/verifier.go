package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/dukerupert/notepad/internal/notesapi"
)

var (
	ErrEmptyPasskey   = errors.New("passkey is required")
	ErrInvalidPasskey = errors.New("invalid passkey")
)

// Verifier checks a login passkey. It returns nil on success,
// ErrInvalidPasskey for a wrong passkey, and any other error when the check
// itself could not be made.
type Verifier interface {
	Verify(ctx context.Context, passkey string) error
}

// Authenticator is the part of the notes API used for login.
type Authenticator interface {
	Authenticate(ctx context.Context, passkey string) error
}

// RemoteVerifier asks the notes API's auth endpoint.
type RemoteVerifier struct {
	api Authenticator
}

func NewRemoteVerifier(api Authenticator) *RemoteVerifier {
	return &RemoteVerifier{api: api}
}

func (v *RemoteVerifier) Verify(ctx context.Context, passkey string) error {
	if strings.TrimSpace(passkey) == "" {
		return ErrEmptyPasskey
	}
	err := v.api.Authenticate(ctx, passkey)
	switch {
	case err == nil:
		return nil
	case notesapi.IsStatus(err, http.StatusUnauthorized), notesapi.IsStatus(err, http.StatusForbidden):
		return ErrInvalidPasskey
	default:
		return fmt.Errorf("verify passkey: %w", err)
	}
}

// HashVerifier compares against a bcrypt hash of the passkey.
type HashVerifier struct {
	hash []byte
}

func NewHashVerifier(hash string) (*HashVerifier, error) {
	hash = strings.TrimSpace(hash)
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, fmt.Errorf("parse passkey hash: %w", err)
	}
	return &HashVerifier{hash: []byte(hash)}, nil
}

func (v *HashVerifier) Verify(_ context.Context, passkey string) error {
	if strings.TrimSpace(passkey) == "" {
		return ErrEmptyPasskey
	}
	if err := bcrypt.CompareHashAndPassword(v.hash, []byte(passkey)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrInvalidPasskey
		}
		return fmt.Errorf("verify passkey: %w", err)
	}
	return nil
}

// HashPasskey returns a bcrypt hash suitable for NewHashVerifier.
func HashPasskey(passkey string) (string, error) {
	if strings.TrimSpace(passkey) == "" {
		return "", ErrEmptyPasskey
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(passkey), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash passkey: %w", err)
	}
	return string(hash), nil
}
