package services

import (
	"errors"
	"testing"
	"time"
)

func TestConfirmationRoundTrip(t *testing.T) {
	m := NewConfirmationManager()

	confirmation := m.RequestDelete("card", "card-1")
	if confirmation.Token == "" {
		t.Fatal("Expected a non-empty token")
	}
	if confirmation.Resource != "card" || confirmation.TargetID != "card-1" {
		t.Errorf("Unexpected confirmation payload: %+v", confirmation)
	}

	if err := m.Confirm(confirmation.Token, "card", "card-1"); err != nil {
		t.Errorf("Expected confirm to succeed, got %v", err)
	}
}

func TestConfirmationTokenIsSingleUse(t *testing.T) {
	m := NewConfirmationManager()
	confirmation := m.RequestDelete("card", "card-1")

	if err := m.Confirm(confirmation.Token, "card", "card-1"); err != nil {
		t.Fatalf("First confirm failed: %v", err)
	}
	if err := m.Confirm(confirmation.Token, "card", "card-1"); !errors.Is(err, ErrConfirmationNotFound) {
		t.Errorf("Expected ErrConfirmationNotFound on reuse, got %v", err)
	}
}

func TestConfirmationTargetMismatch(t *testing.T) {
	m := NewConfirmationManager()
	confirmation := m.RequestDelete("card", "card-1")

	if err := m.Confirm(confirmation.Token, "card", "card-2"); !errors.Is(err, ErrConfirmationMismatch) {
		t.Errorf("Expected ErrConfirmationMismatch, got %v", err)
	}

	// A mismatched attempt spends the token.
	if err := m.Confirm(confirmation.Token, "card", "card-1"); !errors.Is(err, ErrConfirmationNotFound) {
		t.Errorf("Expected token spent after mismatch, got %v", err)
	}
}

func TestConfirmationUnknownToken(t *testing.T) {
	m := NewConfirmationManager()
	if err := m.Confirm("bogus", "card", "card-1"); !errors.Is(err, ErrConfirmationNotFound) {
		t.Errorf("Expected ErrConfirmationNotFound, got %v", err)
	}
}

func TestConfirmationExpires(t *testing.T) {
	m := NewConfirmationManager()
	current := time.Now()
	m.now = func() time.Time { return current }

	confirmation := m.RequestDelete("participant", "p-1")

	current = current.Add(ConfirmationTTL + time.Second)
	if err := m.Confirm(confirmation.Token, "participant", "p-1"); !errors.Is(err, ErrConfirmationNotFound) {
		t.Errorf("Expected expired token rejected, got %v", err)
	}
}
