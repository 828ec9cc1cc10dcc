package handlers

import (
	"encoding/json"
	"net/http"

	"financeiro/backend/firesync"
	"financeiro/backend/middleware"
	"financeiro/backend/services"
)

// mirror is the optional Firestore push target. Nil when credentials are
// not configured; every firesync method is nil-safe.
var mirror *firesync.Mirror

// SetMirror wires the Firestore mirror into the handlers.
func SetMirror(m *firesync.Mirror) {
	mirror = m
}

// deleteConfirmations tracks the two-phase delete tokens shared by all
// destructive endpoints.
var deleteConfirmations = services.NewConfirmationManager()

// requireUser extracts the authenticated user id, writing a 401 when the
// context carries none.
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := middleware.GetUserIDFromContext(r)
	if userID == "" {
		http.Error(w, "Unauthorized: No user ID found", http.StatusUnauthorized)
		return "", false
	}
	return userID, true
}

// confirmDelete implements the two-phase delete contract. Without a confirm
// token the pending confirmation is returned with 202 and the caller must
// retry with ?confirm=<token>; with a valid token it returns true and the
// delete may proceed.
func confirmDelete(w http.ResponseWriter, r *http.Request, resource, targetID string) bool {
	token := r.URL.Query().Get("confirm")
	if token == "" {
		confirmation := deleteConfirmations.RequestDelete(resource, targetID)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(confirmation)
		return false
	}

	if err := deleteConfirmations.Confirm(token, resource, targetID); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return false
	}
	return true
}

func generateID() string {
	return services.GenerateID()
}
