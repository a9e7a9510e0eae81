package custody

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"custody-go/internal/database/sqlc"
)

// correlate appends the local document id to content so the stored blob can
// be matched to its row before the store assigns an id of its own.
func correlate(content []byte, documentID string) []byte {
	out := make([]byte, 0, len(content)+len(documentID))
	out = append(out, content...)
	return append(out, documentID...)
}

// decorrelate strips the token added by correlate.
func decorrelate(content []byte, documentID string) []byte {
	return bytes.TrimSuffix(content, []byte(documentID))
}

// uploadDocument sends content to the store, waits for ingestion and records
// the store's id on the document row.
func (s *CustodyService) uploadDocument(ctx context.Context, col *sqlc.Collection, doc *sqlc.Document, content []byte) error {
	correspondent, err := s.ownerCorrespondent(ctx, col)
	if err != nil {
		return err
	}
	upload := DocumentUpload{
		Title:           doc.Name,
		Content:         correlate(content, doc.ID),
		CorrespondentID: correspondent,
	}
	if col.ExternalID.Valid {
		upload.TagIDs = []string{col.ExternalID.String}
	}

	taskID, err := s.store.CreateDocument(ctx, upload)
	if err != nil {
		return fmt.Errorf("uploading document %s to %s: %w", doc.ID, s.store.Name(), err)
	}
	externalID, err := s.store.VerifyDocument(ctx, taskID)
	if err != nil {
		return fmt.Errorf("verifying upload of document %s: %w", doc.ID, err)
	}
	if err := s.database.SetDocumentExternalID(ctx, doc.ID, externalID); err != nil {
		return err
	}
	doc.ExternalID.String, doc.ExternalID.Valid = externalID, true
	s.logger.Debug("document uploaded", "document", doc.ID, "external_id", externalID, "size", len(content))
	return nil
}

// uploadIntakes uploads every persisted intake in document id order.
func (s *CustodyService) uploadIntakes(ctx context.Context, col *sqlc.Collection, intakes map[string]*DocumentIntake) error {
	ids := make([]string, 0, len(intakes))
	for id := range intakes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		doc, err := s.database.FindDocumentByID(ctx, id)
		if err != nil {
			return err
		}
		if doc == nil {
			return fmt.Errorf("uploading document %s: row missing: %w", id, ErrIntegrity)
		}
		if err := s.uploadDocument(ctx, col, doc, intakes[id].Content); err != nil {
			return err
		}
	}
	return nil
}

// fetchContent downloads a document's content from the store.
func (s *CustodyService) fetchContent(ctx context.Context, doc *sqlc.Document) ([]byte, error) {
	if !doc.ExternalID.Valid || doc.ExternalID.String == "" {
		return nil, fmt.Errorf("document %s was never stored: %w", doc.ID, ErrIntegrity)
	}
	content, _, err := s.store.DownloadDocument(ctx, doc.ExternalID.String)
	if err != nil {
		return nil, fmt.Errorf("downloading document %s from %s: %w", doc.ID, s.store.Name(), err)
	}
	return decorrelate(content, doc.ID), nil
}

func (s *CustodyService) ownerCorrespondent(ctx context.Context, col *sqlc.Collection) (string, error) {
	owner, err := s.database.FindUserByID(ctx, col.OwnerID)
	if err != nil {
		return "", err
	}
	if owner == nil {
		return "", fmt.Errorf("collection %s owner %s missing: %w", col.ID, col.OwnerID, ErrIntegrity)
	}
	return s.ensureCorrespondent(ctx, owner)
}
