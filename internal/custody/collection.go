package custody

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"custody-go/internal/database/sqlc"
)

// CollectionOptions are the optional attributes of a new collection.
type CollectionOptions struct {
	// Name defaults to the uploaded filename or the directory name.
	Name               string
	ShareState         ShareState
	AccessFromDate     *time.Time
	ManifestHash       string
	TransactionAddress string
}

// CollectionSummary describes a collection for listings.
type CollectionSummary struct {
	Collection *sqlc.Collection
	Owner      *sqlc.User
	Created    time.Time
	LastAccess time.Time
	Documents  int
	TotalSize  int64
}

// CreateCollection ingests an upload as a new collection owned by actor.
// Tar bundles are extracted and their tree persisted; anything else becomes
// a single document under the root folder.
func (s *CustodyService) CreateCollection(ctx context.Context, actor *sqlc.User, filename string, content []byte, opts CollectionOptions) (*sqlc.Collection, error) {
	if opts.Name == "" {
		opts.Name = filename
	}
	return s.createCollection(ctx, actor, opts, func(tx *CustodyService, col *sqlc.Collection, root *sqlc.Folder) error {
		if !IsArchive(filename) {
			intake := NewDocumentIntake(filepath.Base(filename), content)
			doc, err := tx.createDocument(ctx, actor, col, root, intake)
			if err != nil {
				return err
			}
			return tx.uploadDocument(ctx, col, doc, content)
		}

		dir, err := tx.staging.Acquire(col.ID)
		if err != nil {
			return fmt.Errorf("acquiring scratch space for %s: %w", col.ID, err)
		}
		defer func() {
			if err := tx.staging.Release(col.ID); err != nil {
				tx.logger.Warn("failed to release scratch space", "namespace", col.ID, "error", err)
			}
		}()

		if err := tx.extractArchive(ctx, bytes.NewReader(content), dir, tx.staging.MaxSize()); err != nil {
			return fmt.Errorf("extracting %s: %w", filename, err)
		}
		ingestRoot, err := tx.locateIngestRoot(dir, filepath.Base(trimArchiveSuffix(filename)))
		if err != nil {
			return err
		}
		return tx.ingestDirectory(ctx, actor, col, root, ingestRoot)
	})
}

// CreateCollectionFromDirectory ingests a local directory tree as a new
// collection owned by actor.
func (s *CustodyService) CreateCollectionFromDirectory(ctx context.Context, actor *sqlc.User, dir string, opts CollectionOptions) (*sqlc.Collection, error) {
	p, err := s.fsmgr.Resolve(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", dir, err)
	}
	if opts.Name == "" {
		opts.Name = p.Base()
	}
	return s.createCollection(ctx, actor, opts, func(tx *CustodyService, col *sqlc.Collection, root *sqlc.Folder) error {
		return tx.ingestDirectory(ctx, actor, col, root, p.String())
	})
}

func (s *CustodyService) ingestDirectory(ctx context.Context, actor *sqlc.User, col *sqlc.Collection, root *sqlc.Folder, dir string) error {
	tree, err := s.Walk(ctx, dir)
	if err != nil {
		return err
	}
	intakes, err := s.CreateFolderTree(ctx, actor, tree, root)
	if err != nil {
		return err
	}
	return s.uploadIntakes(ctx, col, intakes)
}

// createCollection creates the collection, its root folder, create event and
// store tag, then runs fill, all in one transaction.
func (s *CustodyService) createCollection(ctx context.Context, actor *sqlc.User, opts CollectionOptions, fill func(tx *CustodyService, col *sqlc.Collection, root *sqlc.Folder) error) (*sqlc.Collection, error) {
	if actor == nil || actor.ID == "" {
		return nil, fmt.Errorf("creating collection: no owner: %w", ErrIntegrity)
	}
	if opts.Name == "" {
		return nil, fmt.Errorf("creating collection: empty name: %w", ErrInvalidArgument)
	}
	if opts.ShareState == "" {
		opts.ShareState = SharePrivate
	}
	if opts.ManifestHash != "" {
		ok, err := s.manifests.Verify(ctx, opts.ManifestHash, opts.TransactionAddress)
		if err != nil {
			return nil, fmt.Errorf("verifying manifest: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("manifest %s: %w", opts.ManifestHash, ErrManifestRejected)
		}
	}

	var col *sqlc.Collection
	err := s.inTx(ctx, func(tx *CustodyService) error {
		if _, err := tx.ensureCorrespondent(ctx, actor); err != nil {
			return err
		}

		var err error
		col, err = tx.database.CreateCollection(ctx, NewCollection{
			Name:               opts.Name,
			OwnerID:            actor.ID,
			ShareState:         opts.ShareState,
			AccessFromDate:     opts.AccessFromDate,
			ManifestHash:       opts.ManifestHash,
			TransactionAddress: opts.TransactionAddress,
		})
		if err != nil {
			return err
		}
		root, err := tx.database.CreateFolder(ctx, col.Name, col.ID, "")
		if err != nil {
			return err
		}
		if _, err := tx.RegisterCollectionEvent(ctx, col, actor, EventCreate); err != nil {
			return err
		}

		tag, err := tx.store.CreateTag(ctx, col.Name+"-"+col.ID)
		if err != nil {
			return fmt.Errorf("creating tag for collection %s: %w", col.ID, err)
		}
		if err := tx.database.SetCollectionExternalID(ctx, col.ID, tag); err != nil {
			return err
		}
		col.ExternalID.String, col.ExternalID.Valid = tag, true

		return fill(tx, col, root)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("collection created", "id", col.ID, "name", col.Name, "owner", actor.Email)
	return col, nil
}

// GetCollection returns a live collection actor may at least view.
func (s *CustodyService) GetCollection(ctx context.Context, actor *sqlc.User, collectionID string) (*sqlc.Collection, error) {
	col, err := s.liveCollection(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, col, actor, PermissionView, PermissionRead, PermissionWrite); err != nil {
		return nil, err
	}
	return col, nil
}

// ListCollections returns the live collections actor owns or holds a grant
// on. Each listed collection gets an access event.
func (s *CustodyService) ListCollections(ctx context.Context, actor *sqlc.User) ([]*sqlc.Collection, error) {
	return s.listCollections(ctx, actor, Database.ListCollectionsVisibleTo)
}

// ListOwnedCollections returns the live collections owned by actor. Each
// listed collection gets an access event.
func (s *CustodyService) ListOwnedCollections(ctx context.Context, actor *sqlc.User) ([]*sqlc.Collection, error) {
	return s.listCollections(ctx, actor, Database.ListCollectionsOwnedBy)
}

func (s *CustodyService) listCollections(ctx context.Context, actor *sqlc.User, list func(Database, context.Context, string) ([]*sqlc.Collection, error)) ([]*sqlc.Collection, error) {
	if actor == nil || actor.ID == "" {
		return nil, fmt.Errorf("listing collections: actor has no id: %w", ErrIntegrity)
	}
	var live []*sqlc.Collection
	err := s.inTx(ctx, func(tx *CustodyService) error {
		cols, err := list(tx.database, ctx, actor.ID)
		if err != nil {
			return err
		}
		if live, err = tx.withoutDeleted(ctx, cols); err != nil {
			return err
		}
		for _, col := range live {
			if _, err := tx.RegisterCollectionEvent(ctx, col, actor, EventAccess); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return live, nil
}

func (s *CustodyService) withoutDeleted(ctx context.Context, cols []*sqlc.Collection) ([]*sqlc.Collection, error) {
	live := make([]*sqlc.Collection, 0, len(cols))
	for _, col := range cols {
		deleted, err := s.IsCollectionDeleted(ctx, col)
		if err != nil {
			return nil, err
		}
		if !deleted {
			live = append(live, col)
		}
	}
	return live, nil
}

// DeleteCollection marks the collection deleted. Nothing is removed.
func (s *CustodyService) DeleteCollection(ctx context.Context, actor *sqlc.User, collectionID string) error {
	err := s.inTx(ctx, func(tx *CustodyService) error {
		col, err := tx.liveCollection(ctx, collectionID)
		if err != nil {
			return err
		}
		if err := tx.authorize(ctx, col, actor, PermissionWrite); err != nil {
			return err
		}
		_, err = tx.RegisterCollectionEvent(ctx, col, actor, EventDelete)
		return err
	})
	if err != nil {
		return err
	}
	s.logger.Info("collection deleted", "id", collectionID, "by", actor.Email)
	return nil
}

// RenameCollection changes the collection's name. Only the owner may rename,
// and the new name must be between 4 and 49 characters. Renaming to the
// current name does nothing.
func (s *CustodyService) RenameCollection(ctx context.Context, actor *sqlc.User, collectionID, name string) error {
	return s.inTx(ctx, func(tx *CustodyService) error {
		col, err := tx.database.FindCollectionByID(ctx, collectionID)
		if err != nil {
			return err
		}
		if col == nil {
			return fmt.Errorf("collection %s: %w", collectionID, ErrNotFound)
		}
		if actor == nil || col.OwnerID != actor.ID {
			return fmt.Errorf("renaming collection %s: only the owner may rename: %w", col.ID, ErrPermissionDenied)
		}
		deleted, err := tx.IsCollectionDeleted(ctx, col)
		if err != nil {
			return err
		}
		if deleted {
			return fmt.Errorf("collection %s: %w", col.ID, ErrNotFound)
		}
		if name == col.Name {
			return nil
		}
		if n := utf8.RuneCountInString(name); n <= 3 || n >= 50 {
			return fmt.Errorf("%q must be longer than 3 and shorter than 50 characters: %w", name, ErrInvalidName)
		}
		if err := tx.database.RenameCollection(ctx, col.ID, name); err != nil {
			return err
		}
		if _, err := tx.RegisterCollectionEvent(ctx, col, actor, EventUpdate); err != nil {
			return err
		}
		tx.logger.Info("collection renamed", "id", col.ID, "from", col.Name, "to", name)
		return nil
	})
}

// CollectionInfo summarises a collection without registering access.
func (s *CustodyService) CollectionInfo(ctx context.Context, actor *sqlc.User, collectionID string) (*CollectionSummary, error) {
	col, err := s.GetCollection(ctx, actor, collectionID)
	if err != nil {
		return nil, err
	}
	owner, err := s.database.FindUserByID(ctx, col.OwnerID)
	if err != nil {
		return nil, err
	}
	if owner == nil {
		return nil, fmt.Errorf("collection %s owner %s missing: %w", col.ID, col.OwnerID, ErrIntegrity)
	}
	created, err := s.CollectionCreated(ctx, col)
	if err != nil {
		return nil, err
	}
	lastAccess, err := s.CollectionLastAccess(ctx, col)
	if err != nil {
		return nil, err
	}
	docs, err := s.database.ListLatestDocuments(ctx, col.ID)
	if err != nil {
		return nil, err
	}
	docs, err = s.withoutDeletedChains(ctx, docs)
	if err != nil {
		return nil, err
	}

	summary := &CollectionSummary{
		Collection: col,
		Owner:      owner,
		Created:    created,
		LastAccess: lastAccess,
		Documents:  len(docs),
	}
	for _, d := range docs {
		summary.TotalSize += d.Size
	}
	return summary, nil
}

// Hierarchy returns the live folder tree of the collection. Each listed
// document is registered as accessed.
func (s *CustodyService) Hierarchy(ctx context.Context, actor *sqlc.User, collectionID string) (*FolderNode, error) {
	var tree *FolderNode
	err := s.inTx(ctx, func(tx *CustodyService) error {
		col, err := tx.GetCollection(ctx, actor, collectionID)
		if err != nil {
			return err
		}
		root, err := tx.rootFolder(ctx, col)
		if err != nil {
			return err
		}
		tree, err = tx.Recreate(ctx, actor, root)
		return err
	})
	return tree, err
}

// ExportCollection writes the live tree of the collection to w as a
// gzip-compressed tar.
func (s *CustodyService) ExportCollection(ctx context.Context, actor *sqlc.User, collectionID string, w io.Writer) error {
	return s.inTx(ctx, func(tx *CustodyService) error {
		col, err := tx.liveCollection(ctx, collectionID)
		if err != nil {
			return err
		}
		if err := tx.authorize(ctx, col, actor, PermissionRead); err != nil {
			return err
		}
		if err := tx.checkEmbargo(col, actor, col.AccessFromDate); err != nil {
			return err
		}
		root, err := tx.rootFolder(ctx, col)
		if err != nil {
			return err
		}
		tree, err := tx.Recreate(ctx, actor, root)
		if err != nil {
			return err
		}
		populated, err := tx.Populate(ctx, tree)
		if err != nil {
			return err
		}

		namespace := "export-" + tx.idgen.New()
		dir, err := tx.staging.Acquire(namespace)
		if err != nil {
			return fmt.Errorf("acquiring scratch space for export: %w", err)
		}
		defer func() {
			if err := tx.staging.Release(namespace); err != nil {
				tx.logger.Warn("failed to release scratch space", "namespace", namespace, "error", err)
			}
		}()

		target := filepath.Join(dir, exportName(col.Name))
		if err := tx.Materialize(ctx, populated, target); err != nil {
			return err
		}
		if err := tx.writeArchive(ctx, w, dir, tx.clock.Now()); err != nil {
			return err
		}
		if _, err := tx.RegisterCollectionEvent(ctx, col, actor, EventAccess); err != nil {
			return err
		}
		tx.logger.Info("collection exported", "id", col.ID, "by", actor.Email)
		return nil
	})
}

// ExportCollectionForEmail exports a collection on behalf of the user
// registered under email, which may be an anonymous grantee.
func (s *CustodyService) ExportCollectionForEmail(ctx context.Context, email, collectionID string, w io.Writer) error {
	user, err := s.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	return s.ExportCollection(ctx, user, collectionID, w)
}

func (s *CustodyService) rootFolder(ctx context.Context, col *sqlc.Collection) (*sqlc.Folder, error) {
	root, err := s.database.FindRootFolder(ctx, col.ID)
	if err != nil {
		return nil, err
	}
	if root == nil {
		return nil, fmt.Errorf("collection %s has no root folder: %w", col.ID, ErrIntegrity)
	}
	return root, nil
}

// checkEmbargo denies everyone but the owner before the access date.
func (s *CustodyService) checkEmbargo(col *sqlc.Collection, actor *sqlc.User, from sql.NullTime) error {
	if !from.Valid || (actor != nil && actor.ID == col.OwnerID) {
		return nil
	}
	if s.clock.Now().Before(from.Time) {
		return fmt.Errorf("content available from %s: %w", from.Time.Format(time.RFC3339), ErrPermissionDenied)
	}
	return nil
}

// exportName turns a collection name into a directory name.
func exportName(name string) string {
	name = trimArchiveSuffix(name)
	name = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == 0 {
			return '_'
		}
		return r
	}, name)
	if name == "" || name == "." || name == ".." {
		return "collection"
	}
	return name
}
