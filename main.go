package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"financeiro/backend/database"
	"financeiro/backend/firesync"
	"financeiro/backend/handlers"
	"financeiro/backend/middleware"
	"financeiro/backend/migrations"
	"financeiro/backend/services"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
)

func main() {
	// Parse command line flags
	noExit := flag.Bool("no-exit", false, "Don't exit after database reset")
	resetDB := flag.Bool("reset-db", false, "Force reset the database")
	flag.Parse()

	// Load .env if present; real deployments set env vars directly
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env file")
	}

	// Check if we're running in database reset mode
	isResetDB := os.Getenv("RESET_DB") == "true" || *resetDB

	// Check environment
	isDevelopment := os.Getenv("APP_ENV") != "production" &&
		os.Getenv("ENVIRONMENT") != "production" &&
		os.Getenv("ENV") != "production"

	if isResetDB {
		log.Println("Running in database reset mode")
	}

	if isDevelopment {
		log.Println("Running in development environment")
	}

	// Initialize database
	err := database.InitDB()
	if err != nil {
		log.Fatal(err)
	}

	// Run migrations (including test data seeding if in dev/PR environment)
	log.Println("Running migrations...")
	err = migrations.RunMigrations(database.DB)
	if err != nil {
		log.Printf("Warning: Failed to run migrations: %v", err)
	}

	// If running in reset mode, exit after database setup is complete
	// unless --no-exit flag is provided
	if isResetDB && !*noExit {
		log.Println("Database reset completed successfully. Exiting.")
		return
	}

	// Initialize Firebase Admin SDK
	log.Println("Initializing Firebase Admin SDK...")
	err = middleware.InitializeFirebase()
	if err != nil {
		log.Printf("Warning: Failed to initialize Firebase: %v", err)
		log.Println("Auth token verification will be disabled!")
	}

	// Initialize the Firestore mirror (disabled when credentials are absent)
	mirror, err := firesync.NewMirror(context.Background())
	if err != nil {
		log.Printf("Warning: Failed to initialize Firestore mirror: %v", err)
	}
	handlers.SetMirror(mirror)
	defer mirror.Close()

	// Start the nightly mirror sync
	services.StartScheduler(mirror)

	// Create router
	r := mux.NewRouter()

	// Apply global middleware
	r.Use(middleware.EnableCORS)

	// Register routes with both direct paths and /api prefix to maintain compatibility
	registerRoutes(r)
	apiRouter := r.PathPrefix("/api").Subrouter()
	registerRoutes(apiRouter)

	// Serve static files from the "dist" directory for the frontend
	fs := http.FileServer(http.Dir("./dist"))
	r.PathPrefix("/assets/").Handler(http.StripPrefix("", fs))
	r.PathPrefix("/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Don't log asset requests
		if !strings.HasPrefix(r.URL.Path, "/assets/") {
			log.Printf("Serving index.html for path: %s", r.URL.Path)
		}
		http.ServeFile(w, r, "./dist/index.html")
	}).Methods("GET")

	// Configure the server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Handler:      r,
		Addr:         ":" + port,
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	// Start the server
	log.Printf("Starting server on port %s...", port)
	log.Fatal(srv.ListenAndServe())
}

// registerRoutes sets up all API routes
func registerRoutes(r *mux.Router) {
	// Public routes (no auth required)
	r.HandleFunc("/health", handlers.HealthCheck).Methods("GET", "OPTIONS")

	// Create a subrouter for authenticated routes
	protectedRouter := r.PathPrefix("").Subrouter()
	protectedRouter.Use(middleware.AuthMiddleware)

	// Monthly ledger routes
	protectedRouter.HandleFunc("/monthly/{month}", handlers.GetMonthlyData).Methods("GET")
	protectedRouter.HandleFunc("/monthly/{month}/summary", handlers.GetMonthlySummary).Methods("GET")
	protectedRouter.HandleFunc("/monthly/{month}/copy-fixed", handlers.CopyFixedExpenses).Methods("POST")
	protectedRouter.HandleFunc("/monthly/{month}/{bucket}", handlers.AddMonthlyItem).Methods("POST")
	protectedRouter.HandleFunc("/monthly/{month}/{bucket}/{id}", handlers.UpdateMonthlyItem).Methods("PUT")
	protectedRouter.HandleFunc("/monthly/{month}/{bucket}/{id}", handlers.DeleteMonthlyItem).Methods("DELETE")

	// Card routes
	protectedRouter.HandleFunc("/cards", handlers.GetCards).Methods("GET")
	protectedRouter.HandleFunc("/cards", handlers.AddCard).Methods("POST")
	protectedRouter.HandleFunc("/cards/{id}", handlers.UpdateCard).Methods("PUT")
	protectedRouter.HandleFunc("/cards/{id}", handlers.DeleteCard).Methods("DELETE")
	protectedRouter.HandleFunc("/cards/{cardId}/expenses", handlers.AddCardExpense).Methods("POST")
	protectedRouter.HandleFunc("/cards/{cardId}/expenses/{id}", handlers.UpdateCardExpense).Methods("PUT")
	protectedRouter.HandleFunc("/cards/{cardId}/expenses/{id}", handlers.DeleteCardExpense).Methods("DELETE")

	// Investment routes
	protectedRouter.HandleFunc("/investments", handlers.GetInvestmentHistory).Methods("GET")
	protectedRouter.HandleFunc("/investments", handlers.AddContribution).Methods("POST")
	protectedRouter.HandleFunc("/investments/projection", handlers.GetInvestmentProjection).Methods("GET")
	protectedRouter.HandleFunc("/investments/{id}", handlers.UpdateContribution).Methods("PUT")
	protectedRouter.HandleFunc("/investments/{id}", handlers.DeleteContribution).Methods("DELETE")

	// Settlement routes
	protectedRouter.HandleFunc("/participants", handlers.GetParticipants).Methods("GET")
	protectedRouter.HandleFunc("/participants", handlers.AddParticipant).Methods("POST")
	protectedRouter.HandleFunc("/participants/{id}", handlers.UpdateParticipant).Methods("PUT")
	protectedRouter.HandleFunc("/participants/{id}", handlers.DeleteParticipant).Methods("DELETE")
	protectedRouter.HandleFunc("/group-expenses", handlers.GetGroupExpenses).Methods("GET")
	protectedRouter.HandleFunc("/group-expenses", handlers.AddGroupExpense).Methods("POST")
	protectedRouter.HandleFunc("/group-expenses/{id}", handlers.UpdateGroupExpense).Methods("PUT")
	protectedRouter.HandleFunc("/group-expenses/{id}", handlers.DeleteGroupExpense).Methods("DELETE")
	protectedRouter.HandleFunc("/settlement/balances", handlers.GetBalances).Methods("GET")
	protectedRouter.HandleFunc("/settlement", handlers.GetSettlement).Methods("GET")

	// Dashboard and user routes
	protectedRouter.HandleFunc("/dashboard", handlers.GetDashboardSummary).Methods("GET")
	protectedRouter.HandleFunc("/users/sync", handlers.SyncFirebaseUser).Methods("POST")
	protectedRouter.HandleFunc("/users/me", handlers.GetCurrentUser).Methods("GET")
}
