package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/chauffeurhq/chauffeur-auth/internal/api"
	"github.com/chauffeurhq/chauffeur-auth/internal/config"
	"github.com/chauffeurhq/chauffeur-auth/internal/identity"
	"github.com/chauffeurhq/chauffeur-auth/internal/mailer"
	"github.com/chauffeurhq/chauffeur-auth/internal/provider"
	"github.com/chauffeurhq/chauffeur-auth/internal/provider/emailpassword"
	"github.com/chauffeurhq/chauffeur-auth/internal/provider/google"
	"github.com/chauffeurhq/chauffeur-auth/internal/store"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (optional, env vars override)")
	flag.Parse()

	// Load .env file if it exists (for local development)
	// Silently ignore if file doesn't exist (production uses real env vars)
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Printf("Initializing Firebase Auth for project: %s", cfg.Firebase.ProjectID)
	backend, err := identity.NewFirebaseBackend(ctx, identity.FirebaseConfig{
		ProjectID:       cfg.Firebase.ProjectID,
		CredentialsPath: cfg.Firebase.Credentials,
		APIKey:          cfg.Firebase.APIKey,
	})
	if err != nil {
		log.Fatalf("Failed to create Firebase backend: %v", err)
	}

	var m mailer.Mailer
	if cfg.Mail.ResendAPIKey != "" {
		m, err = mailer.NewResendMailer(cfg.Mail.ResendAPIKey, cfg.Mail.From)
		if err != nil {
			log.Fatalf("Failed to create mailer: %v", err)
		}
		log.Println("Verification emails delivered via Resend")
	} else {
		m = &mailer.LogMailer{}
		log.Println("No mail provider configured; verification links will be logged")
	}

	// Register authentication providers. Each provider owns its routes
	// under a disjoint prefix.
	registry := provider.NewRegistry()
	if err := registry.Register(emailpassword.New(backend, m), "/auth/email-password"); err != nil {
		log.Fatalf("Failed to register email-password provider: %v", err)
	}

	if cfg.GoogleOAuth.ClientID == "" {
		log.Println("GOOGLE_OAUTH_CLIENT_ID not set; Google signin will report missing configuration")
	}
	if err := registry.Register(google.New(backend, cfg.GoogleOAuth.ClientID), "/oauth/google"); err != nil {
		log.Fatalf("Failed to register google provider: %v", err)
	}

	// Optional Firestore diagnostics route.
	var firestoreClient *store.FirestoreClient
	if cfg.Firestore != nil {
		firestoreClient, err = store.NewFirestoreClient(ctx, store.FirestoreConfig{
			ProjectID:   cfg.Firebase.ProjectID,
			Database:    cfg.Firestore.Database,
			Credentials: cfg.Firebase.Credentials,
		})
		if err != nil {
			log.Fatalf("Failed to create Firestore client: %v", err)
		}
		defer firestoreClient.Close()
		log.Printf("Firestore diagnostics enabled for database: %s", firestoreClient.Database())
	}

	routerCfg := api.RouterConfig{Registry: registry}
	if firestoreClient != nil {
		routerCfg.Firestore = firestoreClient
	}

	server := api.NewServer(cfg.Server.Addr, api.NewRouter(routerCfg))
	go func() {
		log.Printf("chauffeur-auth listening on %s", cfg.Server.Addr)
		if err := server.Start(); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Printf("Received signal: %v", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	log.Println("Goodbye!")
}
