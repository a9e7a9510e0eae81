package custody

import (
	"context"
	"fmt"
	"time"

	"custody-go/internal/database/sqlc"
)

// DocumentFilter narrows FilterDocuments. Nil fields do not filter.
type DocumentFilter struct {
	Name       *string
	MaxSize    *int64
	LastAccess *time.Time
}

// DeleteDocument marks a document deleted. Its whole update chain drops out
// of every live view.
func (s *CustodyService) DeleteDocument(ctx context.Context, actor *sqlc.User, collectionID, documentID string) error {
	err := s.inTx(ctx, func(tx *CustodyService) error {
		col, err := tx.liveCollection(ctx, collectionID)
		if err != nil {
			return err
		}
		if err := tx.authorize(ctx, col, actor, PermissionWrite); err != nil {
			return err
		}
		doc, err := tx.documentInCollection(ctx, col, documentID)
		if err != nil {
			return err
		}
		deleted, err := tx.IsDocumentDeleted(ctx, doc)
		if err != nil {
			return err
		}
		if deleted {
			return fmt.Errorf("document %s: %w", doc.ID, ErrNotFound)
		}
		_, err = tx.RegisterDocumentEvent(ctx, doc, actor, EventDelete)
		return err
	})
	if err != nil {
		return err
	}
	s.logger.Info("document deleted", "id", documentID, "collection", collectionID, "by", actor.Email)
	return nil
}

// SearchDocuments returns the live documents of the collection named
// exactly name, registering an access on each. No match is ErrNoMatches.
func (s *CustodyService) SearchDocuments(ctx context.Context, actor *sqlc.User, collectionID, name string) ([]*sqlc.Document, error) {
	var docs []*sqlc.Document
	err := s.inTx(ctx, func(tx *CustodyService) error {
		col, err := tx.liveCollection(ctx, collectionID)
		if err != nil {
			return err
		}
		if err := tx.authorize(ctx, col, actor, PermissionRead); err != nil {
			return err
		}
		latest, err := tx.database.ListLatestDocumentsByName(ctx, col.ID, name)
		if err != nil {
			return err
		}
		if docs, err = tx.withoutDeletedChains(ctx, latest); err != nil {
			return err
		}
		if len(docs) == 0 {
			return fmt.Errorf("%q in collection %s: %w", name, col.ID, ErrNoMatches)
		}
		return tx.registerAccess(ctx, actor, docs)
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// FilterDocuments returns the live documents of the collection matching
// filter, registering an access on each. Name and size are matched by the
// database; last access is compared afterwards, before the new accesses are
// recorded.
func (s *CustodyService) FilterDocuments(ctx context.Context, actor *sqlc.User, collectionID string, filter DocumentFilter) ([]*sqlc.Document, error) {
	var docs []*sqlc.Document
	err := s.inTx(ctx, func(tx *CustodyService) error {
		col, err := tx.liveCollection(ctx, collectionID)
		if err != nil {
			return err
		}
		if err := tx.authorize(ctx, col, actor, PermissionRead); err != nil {
			return err
		}
		latest, err := tx.database.FilterLatestDocuments(ctx, col.ID, filter.Name, filter.MaxSize)
		if err != nil {
			return err
		}
		live, err := tx.withoutDeletedChains(ctx, latest)
		if err != nil {
			return err
		}

		docs = make([]*sqlc.Document, 0, len(live))
		for _, doc := range live {
			if filter.LastAccess != nil {
				last, err := tx.DocumentLastAccess(ctx, doc)
				if err != nil {
					return err
				}
				if last.Before(*filter.LastAccess) {
					continue
				}
			}
			docs = append(docs, doc)
		}
		return tx.registerAccess(ctx, actor, docs)
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// DownloadDocument returns the content of one version of a live document.
func (s *CustodyService) DownloadDocument(ctx context.Context, actor *sqlc.User, collectionID, documentID string) (*sqlc.Document, []byte, error) {
	var doc *sqlc.Document
	var content []byte
	err := s.inTx(ctx, func(tx *CustodyService) error {
		col, err := tx.liveCollection(ctx, collectionID)
		if err != nil {
			return err
		}
		if err := tx.authorize(ctx, col, actor, PermissionRead); err != nil {
			return err
		}
		if doc, err = tx.documentInCollection(ctx, col, documentID); err != nil {
			return err
		}
		deleted, err := tx.chainDeleted(ctx, doc)
		if err != nil {
			return err
		}
		if deleted {
			return fmt.Errorf("document %s: %w", doc.ID, ErrNotFound)
		}
		if err := tx.checkEmbargo(col, actor, doc.AccessFromDate); err != nil {
			return err
		}
		if content, err = tx.fetchContent(ctx, doc); err != nil {
			return err
		}
		_, err = tx.RegisterDocumentEvent(ctx, doc, actor, EventAccess)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return doc, content, nil
}

// GetDocument returns a document row of the collection for anyone who may
// view it. No access is registered.
func (s *CustodyService) GetDocument(ctx context.Context, actor *sqlc.User, collectionID, documentID string) (*sqlc.Document, error) {
	col, err := s.GetCollection(ctx, actor, collectionID)
	if err != nil {
		return nil, err
	}
	return s.documentInCollection(ctx, col, documentID)
}

func (s *CustodyService) registerAccess(ctx context.Context, actor *sqlc.User, docs []*sqlc.Document) error {
	for _, doc := range docs {
		if _, err := s.RegisterDocumentEvent(ctx, doc, actor, EventAccess); err != nil {
			return err
		}
	}
	return nil
}

// withoutDeletedChains drops latest versions whose chain has a delete event.
func (s *CustodyService) withoutDeletedChains(ctx context.Context, latest []*sqlc.Document) ([]*sqlc.Document, error) {
	live := make([]*sqlc.Document, 0, len(latest))
	for _, doc := range latest {
		deleted, err := s.chainDeleted(ctx, doc)
		if err != nil {
			return nil, err
		}
		if !deleted {
			live = append(live, doc)
		}
	}
	return live, nil
}

// chainDeleted reports whether any version in doc's update chain, earlier
// or later than doc, has been deleted.
func (s *CustodyService) chainDeleted(ctx context.Context, doc *sqlc.Document) (bool, error) {
	head := doc
	seen := map[string]bool{}
	for {
		if seen[head.ID] {
			return false, fmt.Errorf("update chain through %s loops: %w", head.ID, ErrIntegrity)
		}
		seen[head.ID] = true
		prev, err := s.Previous(ctx, head)
		if err != nil {
			return false, err
		}
		if prev == nil {
			break
		}
		head = prev
	}
	_, deleted, err := s.Latest(ctx, head)
	return deleted, err
}
