package custody

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"custody-go/internal/database/sqlc"
)

// HistoryEntry is one item of a document's history: either an Update linking
// two versions or an event against one of them.
type HistoryEntry struct {
	Time       time.Time
	DocumentID string
	UserID     string
	Update     *sqlc.Update
	Event      *sqlc.DocumentEvent
}

// Kind returns "supersede" for chain links and the event type otherwise.
func (h HistoryEntry) Kind() string {
	if h.Update != nil {
		return "supersede"
	}
	return h.Event.Type
}

// Supersede records content as the new version of old. The old row is left
// untouched; the new row shares its name, folder, collection and access
// date. Supersede returns old; the new version is reachable with Successor.
// A document that already has a successor fails with ErrAlreadyUpdated.
func (s *CustodyService) Supersede(ctx context.Context, actor *sqlc.User, old *sqlc.Document, content []byte) (*sqlc.Document, error) {
	if old == nil || old.ID == "" {
		return nil, fmt.Errorf("superseding: document has no id: %w", ErrIntegrity)
	}
	if actor == nil || actor.ID == "" {
		return nil, fmt.Errorf("superseding %s: actor has no id: %w", old.ID, ErrIntegrity)
	}
	err := s.inTx(ctx, func(tx *CustodyService) error {
		next, err := tx.database.FindUpdateByPrevious(ctx, old.ID)
		if err != nil {
			return err
		}
		if next != nil {
			return fmt.Errorf("document %s superseded by %s: %w", old.ID, next.UpdatedID, ErrAlreadyUpdated)
		}

		col, err := tx.database.FindCollectionByID(ctx, old.CollectionID)
		if err != nil {
			return err
		}
		if col == nil {
			return fmt.Errorf("document %s references collection %s: %w", old.ID, old.CollectionID, ErrIntegrity)
		}

		doc, err := tx.database.CreateDocument(ctx, NewDocument{
			Name:           old.Name,
			Size:           int64(len(content)),
			Hash:           HashContent(content),
			FolderID:       old.FolderID,
			CollectionID:   old.CollectionID,
			AccessFromDate: timePtr(old.AccessFromDate),
		})
		if err != nil {
			return fmt.Errorf("creating new version of %s: %w", old.ID, err)
		}
		if _, err := tx.database.CreateUpdate(ctx, old.ID, doc.ID, actor.ID); err != nil {
			return fmt.Errorf("linking %s to %s: %w", old.ID, doc.ID, err)
		}
		if _, err := tx.RegisterDocumentEvent(ctx, doc, actor, EventCreate); err != nil {
			return err
		}
		if _, err := tx.RegisterDocumentEvent(ctx, old, actor, EventUpdate); err != nil {
			return err
		}
		return tx.uploadDocument(ctx, col, doc, content)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("document superseded", "document", old.ID, "by", actor.Email)
	return old, nil
}

// Next returns the Update leading away from doc, or nil for the latest version.
func (s *CustodyService) Next(ctx context.Context, doc *sqlc.Document) (*sqlc.Update, error) {
	return s.database.FindUpdateByPrevious(ctx, doc.ID)
}

// Successor returns the version that replaced doc, or nil if doc is the latest.
func (s *CustodyService) Successor(ctx context.Context, doc *sqlc.Document) (*sqlc.Document, error) {
	next, err := s.Next(ctx, doc)
	if err != nil || next == nil {
		return nil, err
	}
	return s.chainMember(ctx, next.UpdatedID, next)
}

// Previous returns the version doc replaced, or nil if doc starts its chain.
func (s *CustodyService) Previous(ctx context.Context, doc *sqlc.Document) (*sqlc.Document, error) {
	prev, err := s.database.FindUpdateByUpdated(ctx, doc.ID)
	if err != nil || prev == nil {
		return nil, err
	}
	return s.chainMember(ctx, prev.PreviousID, prev)
}

func (s *CustodyService) chainMember(ctx context.Context, id string, u *sqlc.Update) (*sqlc.Document, error) {
	doc, err := s.database.FindDocumentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("update %s references missing document %s: %w", u.ID, id, ErrIntegrity)
	}
	return doc, nil
}

// Latest follows the chain from doc to its newest version. It reports
// deleted when any version along the way, the last included, has a delete
// event.
func (s *CustodyService) Latest(ctx context.Context, doc *sqlc.Document) (latest *sqlc.Document, deleted bool, err error) {
	seen := map[string]bool{}
	for cur := doc; ; {
		if seen[cur.ID] {
			return nil, false, fmt.Errorf("update chain through %s loops: %w", cur.ID, ErrIntegrity)
		}
		seen[cur.ID] = true

		gone, err := s.IsDocumentDeleted(ctx, cur)
		if err != nil {
			return nil, false, err
		}
		if gone {
			return cur, true, nil
		}
		next, err := s.Successor(ctx, cur)
		if err != nil {
			return nil, false, err
		}
		if next == nil {
			return cur, false, nil
		}
		cur = next
	}
}

// History lists the updates and events of doc and every later version,
// newest first.
func (s *CustodyService) History(ctx context.Context, actor *sqlc.User, collectionID, documentID string) ([]HistoryEntry, error) {
	col, err := s.liveCollection(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, col, actor, PermissionRead); err != nil {
		return nil, err
	}
	doc, err := s.documentInCollection(ctx, col, documentID)
	if err != nil {
		return nil, err
	}
	return s.documentHistory(ctx, doc)
}

func (s *CustodyService) documentHistory(ctx context.Context, doc *sqlc.Document) ([]HistoryEntry, error) {
	var entries []HistoryEntry
	seen := map[string]bool{}
	for cur := doc; cur != nil; {
		if seen[cur.ID] {
			return nil, fmt.Errorf("update chain through %s loops: %w", cur.ID, ErrIntegrity)
		}
		seen[cur.ID] = true

		events, err := s.database.ListDocumentEvents(ctx, cur.ID)
		if err != nil {
			return nil, err
		}
		for _, ev := range events {
			entries = append(entries, HistoryEntry{Time: ev.CreatedAt, DocumentID: cur.ID, UserID: ev.UserID, Event: ev})
		}

		next, err := s.Next(ctx, cur)
		if err != nil {
			return nil, err
		}
		if next == nil {
			break
		}
		entries = append(entries, HistoryEntry{Time: next.CreatedAt, DocumentID: cur.ID, UserID: next.UserID, Update: next})
		if cur, err = s.chainMember(ctx, next.UpdatedID, next); err != nil {
			return nil, err
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Time.After(entries[j].Time)
	})
	return entries, nil
}

// UpdateDocument supersedes a live document of the collection with content.
func (s *CustodyService) UpdateDocument(ctx context.Context, actor *sqlc.User, collectionID, documentID string, content []byte) (*sqlc.Document, error) {
	col, err := s.liveCollection(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, col, actor, PermissionWrite); err != nil {
		return nil, err
	}
	doc, err := s.documentInCollection(ctx, col, documentID)
	if err != nil {
		return nil, err
	}
	deleted, err := s.chainDeleted(ctx, doc)
	if err != nil {
		return nil, err
	}
	if deleted {
		return nil, fmt.Errorf("document %s: %w", doc.ID, ErrNotFound)
	}
	old, err := s.Supersede(ctx, actor, doc, content)
	if errors.Is(err, ErrAlreadyUpdated) {
		s.logger.Warn("document already updated", "document", doc.ID, "by", actor.Email)
	}
	return old, err
}
