package services

import (
	"errors"
	"sync"
	"time"
)

// Destructive deletes are a two-phase command: the first request registers a
// PendingConfirmation and returns its token, the second request presents the
// token and the delete runs. This replaces UI-side confirm dialogs with an
// explicit server-side contract.

var (
	ErrConfirmationNotFound = errors.New("confirmation not found or expired")
	ErrConfirmationMismatch = errors.New("confirmation does not match this target")
)

// PendingConfirmation identifies a delete awaiting confirmation.
type PendingConfirmation struct {
	Token     string    `json:"token"`
	Resource  string    `json:"resource"`
	TargetID  string    `json:"targetId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ConfirmationTTL is how long a pending delete stays confirmable.
const ConfirmationTTL = 5 * time.Minute

// ConfirmationManager tracks pending delete confirmations. Safe for
// concurrent use.
type ConfirmationManager struct {
	mu      sync.Mutex
	pending map[string]PendingConfirmation
	now     func() time.Time
}

// NewConfirmationManager creates an empty manager.
func NewConfirmationManager() *ConfirmationManager {
	return &ConfirmationManager{
		pending: make(map[string]PendingConfirmation),
		now:     time.Now,
	}
}

// RequestDelete registers a delete of the given resource/target and returns
// the confirmation the client must echo back.
func (m *ConfirmationManager) RequestDelete(resource, targetID string) PendingConfirmation {
	m.mu.Lock()
	defer m.mu.Unlock()

	confirmation := PendingConfirmation{
		Token:     GenerateID(),
		Resource:  resource,
		TargetID:  targetID,
		ExpiresAt: m.now().Add(ConfirmationTTL),
	}
	m.pending[confirmation.Token] = confirmation
	return confirmation
}

// Confirm consumes a token. The delete may proceed only when Confirm returns
// nil; the token is spent either way. Tokens expire after ConfirmationTTL
// and must match the resource/target they were issued for.
func (m *ConfirmationManager) Confirm(token, resource, targetID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	confirmation, ok := m.pending[token]
	if !ok {
		return ErrConfirmationNotFound
	}
	delete(m.pending, token)

	if m.now().After(confirmation.ExpiresAt) {
		return ErrConfirmationNotFound
	}
	if confirmation.Resource != resource || confirmation.TargetID != targetID {
		return ErrConfirmationMismatch
	}
	return nil
}
