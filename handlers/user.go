package handlers

import (
	"encoding/json"
	"net/http"

	"financeiro/backend/database"
	"financeiro/backend/middleware"
	"financeiro/backend/models"
)

// SyncFirebaseUser upserts the authenticated Firebase user into the local
// users table on login.
func SyncFirebaseUser(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r)
	if userID == "" {
		http.Error(w, "Unauthorized: No user ID found", http.StatusUnauthorized)
		return
	}

	var u models.User
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	// The token, not the body, decides whose record this is.
	u.ID = userID

	_, err := database.DB.Exec(`
		INSERT INTO users (id, email, name) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET email = excluded.email, name = excluded.name
	`, u.ID, u.Email, u.Name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(u)
}

// GetCurrentUser returns the authenticated user's record.
func GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var u models.User
	err := database.DB.QueryRow("SELECT id, email, name FROM users WHERE id = ?", userID).
		Scan(&u.ID, &u.Email, &u.Name)
	if err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(u)
}
