package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"financeiro/backend/database"
	"financeiro/backend/middleware"
	"financeiro/backend/migrations"

	_ "github.com/mattn/go-sqlite3"
)

// TestUserID is the authenticated user shared by all handler tests.
const TestUserID = "test-user-id"

// setupTestDB points database.DB at a fresh in-memory database with the full
// schema and a test user. Callers must close database.DB when done.
func setupTestDB() {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		panic(err)
	}
	database.DB = db

	if err := database.CreateTables(db); err != nil {
		panic(err)
	}
	if err := migrations.RunMigrations(db); err != nil {
		panic(err)
	}

	_, err = db.Exec(`INSERT INTO users (id, email, name) VALUES (?, ?, ?)`,
		TestUserID, "test@example.com", "Test User")
	if err != nil {
		panic(err)
	}
}

// SetupTestAuth adds authentication context to the request
func SetupTestAuth(req *http.Request) *http.Request {
	ctx := context.WithValue(req.Context(), middleware.UserIDKey, TestUserID)
	return req.WithContext(ctx)
}

// NewAuthenticatedRequest creates a new HTTP request with a mock authenticated user
func NewAuthenticatedRequest(method, url string, body interface{}) *http.Request {
	var req *http.Request

	if body != nil {
		buf, _ := json.Marshal(body)
		req = httptest.NewRequest(method, url, bytes.NewBuffer(buf))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, url, nil)
	}

	return SetupTestAuth(req)
}
