package custody

import (
	"context"
	"fmt"

	"custody-go/internal/database/sqlc"
)

// CreateFolderTree persists the contents of root under target: sub-folders
// become Folder rows and documents become Document rows in their own folder,
// each with a create event by actor. It returns the intake nodes keyed by the
// id of the persisted document so their content can be uploaded afterwards.
//
// CreateFolderTree is not atomic on its own; callers that need atomicity run
// it inside RunInTx.
func (s *CustodyService) CreateFolderTree(ctx context.Context, actor *sqlc.User, root *FolderNode, target *sqlc.Folder) (map[string]*DocumentIntake, error) {
	if target == nil || target.ID == "" {
		return nil, fmt.Errorf("creating folder tree: target folder has no id: %w", ErrIntegrity)
	}
	col, err := s.database.FindCollectionByID(ctx, target.CollectionID)
	if err != nil {
		return nil, err
	}
	if col == nil {
		return nil, fmt.Errorf("creating folder tree: folder %s references collection %s: %w", target.ID, target.CollectionID, ErrIntegrity)
	}

	type pending struct {
		node   *FolderNode
		folder *sqlc.Folder
	}

	created := make(map[string]*DocumentIntake)
	stack := []pending{{node: root, folder: target}}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, node := range cur.node.Documents {
			intake, ok := node.(*DocumentIntake)
			if !ok {
				return nil, fmt.Errorf("creating folder tree: %q is not an intake document: %w", node.NodeName(), ErrIntegrity)
			}
			doc, err := s.createDocument(ctx, actor, col, cur.folder, intake)
			if err != nil {
				return nil, err
			}
			created[doc.ID] = intake
		}

		for _, child := range cur.node.Folders {
			folder, err := s.database.CreateFolder(ctx, child.Name, col.ID, cur.folder.ID)
			if err != nil {
				return nil, fmt.Errorf("creating folder %q: %w", child.Name, err)
			}
			stack = append(stack, pending{node: child, folder: folder})
		}
	}
	return created, nil
}

// createDocument inserts one document row with a freshly computed hash and
// registers its create event.
func (s *CustodyService) createDocument(ctx context.Context, actor *sqlc.User, col *sqlc.Collection, folder *sqlc.Folder, intake *DocumentIntake) (*sqlc.Document, error) {
	if folder.CollectionID != col.ID {
		return nil, fmt.Errorf("folder %s is not in collection %s: %w", folder.ID, col.ID, ErrIntegrity)
	}
	intake.Size = int64(len(intake.Content))
	intake.Hash = HashContent(intake.Content)

	doc, err := s.database.CreateDocument(ctx, NewDocument{
		Name:           intake.Name,
		Size:           intake.Size,
		Hash:           intake.Hash,
		FolderID:       folder.ID,
		CollectionID:   col.ID,
		AccessFromDate: timePtr(col.AccessFromDate),
	})
	if err != nil {
		return nil, fmt.Errorf("creating document %q: %w", intake.Name, err)
	}
	if _, err := s.RegisterDocumentEvent(ctx, doc, actor, EventCreate); err != nil {
		return nil, err
	}
	intake.DocumentID = doc.ID
	return doc, nil
}
