// Package store wraps the Firestore client used by the diagnostics surface.
// The facade keeps no application state in Firestore; the Chauffeur app's
// data lives there, and /status/firestore only confirms the project can
// reach it.
package store

import (
	"context"
	"fmt"
	"log"
	"os"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
)

// FirestoreClient wraps the Firestore client.
type FirestoreClient struct {
	client    *firestore.Client
	projectID string
	database  string
}

// FirestoreConfig holds configuration for FirestoreClient.
type FirestoreConfig struct {
	ProjectID   string // GCP Project ID (required)
	Database    string // Database name (optional, defaults to "(default)")
	Credentials string // Path to service account JSON file (optional)
}

// NewFirestoreClient creates a new Firestore client.
// If FIRESTORE_EMULATOR_HOST is set, the client will connect to the emulator.
func NewFirestoreClient(ctx context.Context, cfg FirestoreConfig) (*FirestoreClient, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("projectID is required")
	}

	emulatorHost := os.Getenv("FIRESTORE_EMULATOR_HOST")
	if emulatorHost != "" {
		log.Printf("Using Firestore Emulator at %s", emulatorHost)
	}

	var opts []option.ClientOption
	if cfg.Credentials != "" && emulatorHost == "" {
		// Only use credentials file when not using emulator
		opts = append(opts, option.WithCredentialsFile(cfg.Credentials))
	}

	database := cfg.Database
	if database == "" {
		database = "(default)"
	}

	client, err := firestore.NewClientWithDatabase(ctx, cfg.ProjectID, database, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}

	return &FirestoreClient{
		client:    client,
		projectID: cfg.ProjectID,
		database:  database,
	}, nil
}

// Close releases resources held by the Firestore client.
func (f *FirestoreClient) Close() error {
	if f.client == nil {
		return nil
	}
	return f.client.Close()
}

// Collections lists the top-level collection IDs of the database. One
// round trip; used as a reachability probe by the status endpoint.
func (f *FirestoreClient) Collections(ctx context.Context) ([]string, error) {
	refs, err := f.client.Collections(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		ids = append(ids, ref.ID)
	}
	return ids, nil
}

// ProjectID returns the GCP project ID.
func (f *FirestoreClient) ProjectID() string {
	return f.projectID
}

// Database returns the Firestore database name.
func (f *FirestoreClient) Database() string {
	return f.database
}
