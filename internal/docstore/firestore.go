package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
	"google.golang.org/grpc/status"
)

// FirestoreOptions configures a connection to a Firestore database.
type FirestoreOptions struct {
	// ProjectID overrides the project_id read from the credentials file.
	ProjectID string
	// DatabaseID selects a named database. Empty means "(default)".
	DatabaseID string
	// CredentialsFile is a service account key in JSON form.
	CredentialsFile string
}

// serviceAccountKey holds the fields read from a credentials file.
type serviceAccountKey struct {
	ProjectID string `json:"project_id"`
}

// FirestoreStore writes documents to Cloud Firestore.
type FirestoreStore struct {
	client *firestore.Client
}

// OpenFirestore authenticates with the service account key and connects.
func OpenFirestore(ctx context.Context, opts FirestoreOptions) (*FirestoreStore, error) {
	projectID, err := resolveProjectID(opts)
	if err != nil {
		return nil, err
	}

	databaseID := opts.DatabaseID
	if databaseID == "" {
		databaseID = firestore.DefaultDatabaseID
	}

	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID,
		option.WithCredentialsFile(opts.CredentialsFile))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCredentials, err)
	}
	return &FirestoreStore{client: client}, nil
}

// resolveProjectID checks the credentials file and returns the project to use.
func resolveProjectID(opts FirestoreOptions) (string, error) {
	if opts.CredentialsFile == "" {
		return "", fmt.Errorf("%w: no credentials file configured", ErrCredentials)
	}

	raw, err := os.ReadFile(opts.CredentialsFile)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrCredentials, err)
	}

	var key serviceAccountKey
	if err = json.Unmarshal(raw, &key); err != nil {
		return "", fmt.Errorf("%w: %s is not valid JSON: %w", ErrCredentials, opts.CredentialsFile, err)
	}

	if p := strings.TrimSpace(opts.ProjectID); p != "" {
		return p, nil
	}
	if key.ProjectID == "" {
		return "", fmt.Errorf("%w: %s has no project_id and none was configured",
			ErrCredentials, opts.CredentialsFile)
	}
	return key.ProjectID, nil
}

// CommitBatch sets every document in one transaction. A failed transaction
// is not retried, so a returned error means nothing from the batch was applied.
func (s *FirestoreStore) CommitBatch(ctx context.Context, collection string, writes []Write) error {
	if err := validateBatch(collection, writes); err != nil {
		return err
	}

	coll := s.client.Collection(collection)
	err := s.client.RunTransaction(ctx, func(_ context.Context, tx *firestore.Transaction) error {
		for _, w := range writes {
			if err := tx.Set(coll.Doc(w.Key), w.Data); err != nil {
				return fmt.Errorf("set document %q: %w", w.Key, err)
			}
		}
		return nil
	}, firestore.MaxAttempts(1))
	if err != nil {
		return fmt.Errorf("firestore commit (%s): %w", status.Code(err), err)
	}
	return nil
}

// Add stores data under a Firestore-generated ID.
func (s *FirestoreStore) Add(ctx context.Context, collection string, data map[string]any) (string, error) {
	if collection == "" {
		return "", ErrEmptyCollection
	}
	ref, _, err := s.client.Collection(collection).Add(ctx, data)
	if err != nil {
		return "", fmt.Errorf("firestore add (%s): %w", status.Code(err), err)
	}
	return ref.ID, nil
}

// Close closes the Firestore client.
func (s *FirestoreStore) Close() error {
	return s.client.Close()
}
