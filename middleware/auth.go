package middleware

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// Define context keys
type contextKey string

const UserIDKey contextKey = "user_id"

var firebaseAuth *auth.Client

// InitializeFirebase initializes the Firebase Admin SDK used to verify ID
// tokens. Without credentials the server runs in dev mode with auth checks
// disabled.
func InitializeFirebase() error {
	log.Println("Starting Firebase initialization...")

	credentials, err := resolveServiceAccount()
	if err != nil {
		return err
	}
	if credentials == nil {
		log.Println("No Firebase credentials found, running in development mode with auth checks disabled")
		return nil
	}

	projectID := os.Getenv("FIREBASE_PROJECT_ID")
	config := &firebase.Config{ProjectID: projectID}

	app, err := firebase.NewApp(context.Background(), config, option.WithCredentialsJSON(credentials))
	if err != nil {
		log.Printf("Error initializing Firebase app: %v", err)
		return err
	}

	firebaseAuth, err = app.Auth(context.Background())
	if err != nil {
		log.Printf("Error getting Firebase Auth client: %v", err)
		return err
	}

	log.Println("Firebase Admin SDK initialized successfully")
	return nil
}

// resolveServiceAccount reads the service account JSON from the environment,
// checking the same variables the deployment sets for the Firestore mirror.
func resolveServiceAccount() ([]byte, error) {
	if raw := os.Getenv("FIREBASE_SERVICE_ACCOUNT_JSON"); raw != "" {
		log.Println("Using JSON Firebase credentials from environment")
		return []byte(raw), nil
	}
	if encoded := os.Getenv("FIREBASE_SERVICE_ACCOUNT_BASE64"); encoded != "" {
		log.Println("Using base64-encoded Firebase credentials from environment")
		decoded, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			log.Printf("Error decoding base64 Firebase credentials: %v", err)
			return nil, err
		}
		return decoded, nil
	}
	if raw := os.Getenv("FIREBASE_SERVICE_ACCOUNT"); raw != "" {
		log.Println("Using Firebase credentials from environment variable")
		return []byte(raw), nil
	}
	return nil, nil
}

// AuthMiddleware verifies Firebase JWT tokens from the Authorization header
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// If Firebase auth is not initialized, skip token verification (dev mode)
		if firebaseAuth == nil {
			ctx := context.WithValue(r.Context(), UserIDKey, "dev-user-1")
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		// Skip auth for OPTIONS requests (CORS preflight)
		if r.Method == "OPTIONS" {
			next.ServeHTTP(w, r)
			return
		}

		idToken := extractToken(r.Header.Get("Authorization"))
		if idToken == "" {
			http.Error(w, "Unauthorized: No token provided", http.StatusUnauthorized)
			return
		}

		token, err := verifyToken(idToken)
		if err != nil {
			log.Printf("Error verifying token: %v", err)
			http.Error(w, "Unauthorized: Invalid token", http.StatusUnauthorized)
			return
		}

		// Add the user ID to the request context
		ctx := context.WithValue(r.Context(), UserIDKey, token.UID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractToken gets the token from the Authorization header
func extractToken(authHeader string) string {
	if authHeader == "" {
		return ""
	}

	parts := strings.Split(authHeader, "Bearer ")
	if len(parts) != 2 {
		return ""
	}

	return parts[1]
}

// verifyToken verifies the Firebase JWT token
func verifyToken(idToken string) (*auth.Token, error) {
	if firebaseAuth == nil {
		return nil, errors.New("Firebase auth client not initialized")
	}

	ctx := context.Background()
	token, err := firebaseAuth.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("error verifying ID token: %w", err)
	}

	return token, nil
}

// GetUserIDFromContext retrieves the user ID from the request context
func GetUserIDFromContext(r *http.Request) string {
	userID, ok := r.Context().Value(UserIDKey).(string)
	if !ok {
		return ""
	}
	return userID
}
