package auth

import (
	"context"
	"testing"
)

func TestWithSessionAndFromContext(t *testing.T) {
	sc := SessionContext{SessionID: 3, Token: "abc"}

	ctx := WithSession(context.Background(), sc)
	got, ok := FromContext(ctx)
	if !ok {
		t.Fatal("expected SessionContext in context")
	}
	if got.SessionID != 3 {
		t.Errorf("SessionID = %d, want 3", got.SessionID)
	}
	if got.Token != "abc" {
		t.Errorf("Token = %q, want %q", got.Token, "abc")
	}
	if got.Key() != "3" {
		t.Errorf("Key = %q, want %q", got.Key(), "3")
	}
}

func TestFromContextMissing(t *testing.T) {
	_, ok := FromContext(context.Background())
	if ok {
		t.Error("expected false for missing SessionContext")
	}
}
