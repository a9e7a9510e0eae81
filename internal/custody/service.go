package custody

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"custody-go/internal/database/sqlc"
)

// CustodyService coordinates the relational store, the external document
// store, scratch space and the local filesystem to carry out custody
// operations for the CLI.
type CustodyService struct {
	database  Database
	store     DocumentStore
	staging   StagingArea
	fsmgr     FilesystemManager
	logger    Logger
	clock     Clock
	idgen     IDGenerator
	identity  IdentityVerifier
	manifests ManifestVerifier
}

// Option configures optional collaborators of a CustodyService.
type Option func(*CustodyService)

// WithIdentityVerifier enables national-identity registration and login.
func WithIdentityVerifier(v IdentityVerifier) Option {
	return func(s *CustodyService) { s.identity = v }
}

// WithManifestVerifier replaces the default accept-all manifest check.
func WithManifestVerifier(v ManifestVerifier) Option {
	return func(s *CustodyService) { s.manifests = v }
}

// NewCustodyService creates a CustodyService with the provided dependencies.
func NewCustodyService(database Database, store DocumentStore, staging StagingArea, fsmgr FilesystemManager, logger Logger, clock Clock, idgen IDGenerator, opts ...Option) *CustodyService {
	s := &CustodyService{
		database:  database,
		store:     store,
		staging:   staging,
		fsmgr:     fsmgr,
		logger:    logger,
		clock:     clock,
		idgen:     idgen,
		manifests: AcceptAllManifests{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// inTx runs fn with a copy of the service whose database is bound to one
// transaction. fn must only touch the database through the copy.
func (s *CustodyService) inTx(ctx context.Context, fn func(tx *CustodyService) error) error {
	return s.database.RunInTx(ctx, func(db Database) error {
		bound := *s
		bound.database = db
		return fn(&bound)
	})
}

// liveCollection loads a collection that exists and has not been deleted.
func (s *CustodyService) liveCollection(ctx context.Context, collectionID string) (*sqlc.Collection, error) {
	col, err := s.database.FindCollectionByID(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	if col == nil {
		return nil, fmt.Errorf("collection %s: %w", collectionID, ErrNotFound)
	}
	deleted, err := s.IsCollectionDeleted(ctx, col)
	if err != nil {
		return nil, err
	}
	if deleted {
		return nil, fmt.Errorf("collection %s: %w", collectionID, ErrNotFound)
	}
	return col, nil
}

// documentInCollection loads a document and checks that it belongs to col.
func (s *CustodyService) documentInCollection(ctx context.Context, col *sqlc.Collection, documentID string) (*sqlc.Document, error) {
	doc, err := s.database.FindDocumentByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc == nil || doc.CollectionID != col.ID {
		return nil, fmt.Errorf("document %s in collection %s: %w", documentID, col.ID, ErrNotFound)
	}
	return doc, nil
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	return &t.Time
}
