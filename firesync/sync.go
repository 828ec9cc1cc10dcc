package firesync

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"os"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"

	"financeiro/backend/models"
)

// Mirror pushes a user's documents to the hosted Firestore store, using the
// same document layout the web frontend subscribes to:
//
//	artifacts/{project}/users/{uid}/monthlyData/{YYYY-MM}
//	artifacts/{project}/users/{uid}/creditCards/{cardId}
//	artifacts/{project}/users/{uid}/investments/data
//	artifacts/{project}/users/{uid}/settlement/data
//
// Multi-document updates (an installment group and its ledger mirrors) go
// through a single WriteBatch so they commit together or not at all.
type Mirror struct {
	client    *firestore.Client
	projectID string
}

// NewMirror initializes the Firestore client from the service account
// credentials in the environment. When no credentials are configured it
// returns (nil, nil) and mirroring stays disabled; every method on a nil
// Mirror is a no-op.
func NewMirror(ctx context.Context) (*Mirror, error) {
	projectID := os.Getenv("FIREBASE_PROJECT_ID")
	if projectID == "" {
		log.Println("FIREBASE_PROJECT_ID not set, Firestore mirroring disabled")
		return nil, nil
	}

	credentials, err := resolveCredentials()
	if err != nil {
		return nil, err
	}
	if credentials == nil {
		log.Println("No Firebase credentials found, Firestore mirroring disabled")
		return nil, nil
	}

	config := &firebase.Config{ProjectID: projectID}
	app, err := firebase.NewApp(ctx, config, option.WithCredentialsJSON(credentials))
	if err != nil {
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("error creating Firestore client: %w", err)
	}

	log.Printf("Firestore mirroring enabled for project %s", projectID)
	return &Mirror{client: client, projectID: projectID}, nil
}

// resolveCredentials checks the service account env vars in the same order
// the auth middleware does.
func resolveCredentials() ([]byte, error) {
	if raw := os.Getenv("FIREBASE_SERVICE_ACCOUNT_JSON"); raw != "" {
		return []byte(raw), nil
	}
	if encoded := os.Getenv("FIREBASE_SERVICE_ACCOUNT_BASE64"); encoded != "" {
		decoded, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("error decoding base64 Firebase credentials: %w", err)
		}
		return decoded, nil
	}
	if raw := os.Getenv("FIREBASE_SERVICE_ACCOUNT"); raw != "" {
		return []byte(raw), nil
	}
	return nil, nil
}

// Enabled reports whether mirroring is configured.
func (m *Mirror) Enabled() bool {
	return m != nil && m.client != nil
}

// Close releases the Firestore client.
func (m *Mirror) Close() error {
	if !m.Enabled() {
		return nil
	}
	return m.client.Close()
}

func (m *Mirror) userDoc(userID string) *firestore.DocumentRef {
	return m.client.Collection("artifacts").Doc(m.projectID).
		Collection("users").Doc(userID)
}

// SaveMonthlyData replaces a single month document.
func (m *Mirror) SaveMonthlyData(ctx context.Context, userID string, data models.MonthlyData) error {
	if !m.Enabled() {
		return nil
	}
	ref := m.userDoc(userID).Collection("monthlyData").Doc(data.Month)
	_, err := ref.Set(ctx, monthlyDocument(data))
	if err != nil {
		return fmt.Errorf("error writing month %s: %w", data.Month, err)
	}
	return nil
}

// SaveCardAndMonths commits a card document together with every affected
// month document in one batch. This is the atomic multi-document write that
// keeps the card-expense and monthly-ledger views of the same money
// consistent: a partial application would leave them permanently diverged.
func (m *Mirror) SaveCardAndMonths(ctx context.Context, userID string, card models.Card, expenses []models.CardExpense, months []models.MonthlyData) error {
	if !m.Enabled() {
		return nil
	}

	batch := m.client.Batch()
	cardRef := m.userDoc(userID).Collection("creditCards").Doc(card.ID)
	batch.Set(cardRef, map[string]interface{}{
		"name":     card.Name,
		"expenses": expenses,
	})
	for _, month := range months {
		ref := m.userDoc(userID).Collection("monthlyData").Doc(month.Month)
		batch.Set(ref, monthlyDocument(month))
	}

	if _, err := batch.Commit(ctx); err != nil {
		return fmt.Errorf("error committing card batch for user %s: %w", userID, err)
	}
	return nil
}

// DeleteCard removes a card document and rewrites the months its mirrors
// were purged from, atomically.
func (m *Mirror) DeleteCard(ctx context.Context, userID, cardID string, months []models.MonthlyData) error {
	if !m.Enabled() {
		return nil
	}

	batch := m.client.Batch()
	batch.Delete(m.userDoc(userID).Collection("creditCards").Doc(cardID))
	for _, month := range months {
		ref := m.userDoc(userID).Collection("monthlyData").Doc(month.Month)
		batch.Set(ref, monthlyDocument(month))
	}

	if _, err := batch.Commit(ctx); err != nil {
		return fmt.Errorf("error committing card delete for user %s: %w", userID, err)
	}
	return nil
}

// SaveInvestmentHistory replaces the single investments document.
func (m *Mirror) SaveInvestmentHistory(ctx context.Context, userID string, history []models.ContributionEntry) error {
	if !m.Enabled() {
		return nil
	}
	ref := m.userDoc(userID).Collection("investments").Doc("data")
	_, err := ref.Set(ctx, map[string]interface{}{"history": history})
	if err != nil {
		return fmt.Errorf("error writing investment history: %w", err)
	}
	return nil
}

// SaveSettlementGroup replaces the settlement document holding participants
// and shared expenses.
func (m *Mirror) SaveSettlementGroup(ctx context.Context, userID string, participants []models.Participant, expenses []models.GroupExpense) error {
	if !m.Enabled() {
		return nil
	}
	ref := m.userDoc(userID).Collection("settlement").Doc("data")
	_, err := ref.Set(ctx, map[string]interface{}{
		"participants": participants,
		"expenses":     expenses,
	})
	if err != nil {
		return fmt.Errorf("error writing settlement group: %w", err)
	}
	return nil
}

func monthlyDocument(data models.MonthlyData) map[string]interface{} {
	return map[string]interface{}{
		"incomes":  data.Incomes,
		"expenses": data.Expenses,
	}
}
