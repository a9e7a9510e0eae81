package custody

import (
	"context"
	"fmt"
	"time"

	"custody-go/internal/database/sqlc"
)

// RegisterCollectionEvent appends an audit event for col performed by actor.
func (s *CustodyService) RegisterCollectionEvent(ctx context.Context, col *sqlc.Collection, actor *sqlc.User, t EventType) (*sqlc.CollectionEvent, error) {
	if col == nil || col.ID == "" {
		return nil, fmt.Errorf("registering %s event: collection has no id: %w", t, ErrIntegrity)
	}
	if actor == nil || actor.ID == "" {
		return nil, fmt.Errorf("registering %s event on collection %s: actor has no id: %w", t, col.ID, ErrIntegrity)
	}
	ev, err := s.database.CreateCollectionEvent(ctx, col.ID, actor.ID, t)
	if err != nil {
		return nil, fmt.Errorf("registering %s event on collection %s: %w", t, col.ID, err)
	}
	return ev, nil
}

// RegisterDocumentEvent appends an audit event for doc performed by actor.
func (s *CustodyService) RegisterDocumentEvent(ctx context.Context, doc *sqlc.Document, actor *sqlc.User, t EventType) (*sqlc.DocumentEvent, error) {
	if doc == nil || doc.ID == "" {
		return nil, fmt.Errorf("registering %s event: document has no id: %w", t, ErrIntegrity)
	}
	if actor == nil || actor.ID == "" {
		return nil, fmt.Errorf("registering %s event on document %s: actor has no id: %w", t, doc.ID, ErrIntegrity)
	}
	ev, err := s.database.CreateDocumentEvent(ctx, doc.ID, actor.ID, t)
	if err != nil {
		return nil, fmt.Errorf("registering %s event on document %s: %w", t, doc.ID, err)
	}
	return ev, nil
}

// IsCollectionDeleted reports whether col has ever been deleted.
func (s *CustodyService) IsCollectionDeleted(ctx context.Context, col *sqlc.Collection) (bool, error) {
	return s.database.HasCollectionEvent(ctx, col.ID, EventDelete)
}

// IsDocumentDeleted reports whether doc has ever been deleted.
func (s *CustodyService) IsDocumentDeleted(ctx context.Context, doc *sqlc.Document) (bool, error) {
	return s.database.HasDocumentEvent(ctx, doc.ID, EventDelete)
}

// CollectionCreated returns the time of the collection's earliest create event.
func (s *CustodyService) CollectionCreated(ctx context.Context, col *sqlc.Collection) (time.Time, error) {
	ev, err := s.database.FindFirstCollectionEvent(ctx, col.ID, EventCreate)
	if err != nil {
		return time.Time{}, err
	}
	if ev == nil {
		return time.Time{}, fmt.Errorf("collection %s has no create event: %w", col.ID, ErrIntegrity)
	}
	return ev.CreatedAt, nil
}

// CollectionLastAccess returns the latest access to col, or its creation time if never accessed.
func (s *CustodyService) CollectionLastAccess(ctx context.Context, col *sqlc.Collection) (time.Time, error) {
	ev, err := s.database.FindLatestCollectionEvent(ctx, col.ID, EventAccess)
	if err != nil {
		return time.Time{}, err
	}
	if ev == nil {
		return s.CollectionCreated(ctx, col)
	}
	return ev.CreatedAt, nil
}

// DocumentCreated returns the time of the document's earliest create event.
func (s *CustodyService) DocumentCreated(ctx context.Context, doc *sqlc.Document) (time.Time, error) {
	ev, err := s.database.FindFirstDocumentEvent(ctx, doc.ID, EventCreate)
	if err != nil {
		return time.Time{}, err
	}
	if ev == nil {
		return time.Time{}, fmt.Errorf("document %s has no create event: %w", doc.ID, ErrIntegrity)
	}
	return ev.CreatedAt, nil
}

// DocumentLastAccess returns the latest access to doc, or its creation time if never accessed.
func (s *CustodyService) DocumentLastAccess(ctx context.Context, doc *sqlc.Document) (time.Time, error) {
	ev, err := s.database.FindLatestDocumentEvent(ctx, doc.ID, EventAccess)
	if err != nil {
		return time.Time{}, err
	}
	if ev == nil {
		return s.DocumentCreated(ctx, doc)
	}
	return ev.CreatedAt, nil
}
