package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"custody-go/internal/config"
	"custody-go/internal/custody"
	"custody-go/internal/database"
	"custody-go/internal/database/sqlc"
	"custody-go/internal/docstore"
	"custody-go/internal/encryption"
	"custody-go/internal/fs"
	"custody-go/internal/staging"
)

// ErrNoActor is returned by commands that need an acting user when none was given.
var ErrNoActor = errors.New("no acting user: pass --as or set CUSTODY_USER")

// CustodyApp is the application layer between the CLI and CustodyService.
// It constructs all dependencies from config, exposes high-level operations
// that accept raw strings and paths, and releases resources on Close.
type CustodyApp struct {
	cfg     *config.Config
	db      custody.Database
	store   custody.DocumentStore
	staging custody.StagingArea
	fsmgr   custody.FilesystemManager
	service *custody.CustodyService
	logger  *slogAdapter
	op      *Operation
	logFile *os.File
	closed  bool
}

// NewCustodyApp creates a fully wired CustodyApp from the given config.
// operation identifies the CLI command being run (e.g. "CreateCollection")
// and actorEmail the user it runs as, which may be empty.
// The caller must call Close when done.
func NewCustodyApp(ctx context.Context, cfg *config.Config, operation, actorEmail string) (*CustodyApp, error) {
	op := NewOperation(operation, actorEmail, time.Now())
	logger, logFile, err := newLogger(cfg.LogDir, op.ID, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	a := &CustodyApp{cfg: cfg, op: op, logFile: logFile, logger: &slogAdapter{l: logger}}

	if err := a.wire(ctx); err != nil {
		a.closeResources()
		return nil, err
	}
	a.logger.Info("operation started", "operation", op.Name, "actor", op.Actor)
	return a, nil
}

func (a *CustodyApp) wire(ctx context.Context) error {
	cfg := a.cfg
	local, err := fs.ParseIgnoreFile(filepath.Join(cfg.BaseDir, fs.IgnoreFileName))
	if err != nil {
		return err
	}
	a.fsmgr = fs.NewOSFilesystemManager(append(append([]string{}, cfg.Filesystem.Ignore...), local...))

	sa, err := staging.NewStagingAreaFromConfig(cfg.Staging, a.fsmgr)
	if err != nil {
		return fmt.Errorf("creating staging area: %w", err)
	}
	a.staging = sa

	db, err := database.NewDatabaseFromConfig(cfg.Database, cfg.InstanceID)
	if err != nil {
		return fmt.Errorf("creating database: %w", err)
	}
	a.db = db
	if err := db.CheckMigrations(); err != nil {
		return fmt.Errorf("database schema out of date: %w", err)
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		return fmt.Errorf("creating encryptor: %w", err)
	}

	store, err := docstore.NewDocumentStoreFromConfig(ctx, cfg.Store, enc)
	if err != nil {
		return fmt.Errorf("creating document store: %w", err)
	}
	if err := store.ValidateSetup(ctx); err != nil {
		return fmt.Errorf("document store %s is not ready: %w", store.Name(), err)
	}
	a.store = store

	a.service = custody.NewCustodyService(db, store, sa, a.fsmgr, a.logger, custody.RealClock{}, custody.UUIDGenerator{})
	return nil
}

// Sealed reports whether stored content is encrypted and must be unlocked
// before it can be read back.
func (a *CustodyApp) Sealed() bool {
	_, ok := a.store.(*docstore.SealedStore)
	return ok
}

// Unlock opens a sealed store for the rest of the command.
func (a *CustodyApp) Unlock(passphrase string) error {
	sealed, ok := a.store.(*docstore.SealedStore)
	if !ok {
		return fmt.Errorf("store %s is not sealed", a.store.Name())
	}
	return sealed.Unlock(passphrase)
}

// actor resolves the acting user of this operation.
func (a *CustodyApp) actor(ctx context.Context) (*sqlc.User, error) {
	if a.op.Actor == "" {
		return nil, ErrNoActor
	}
	user, err := a.service.GetUserByEmail(ctx, a.op.Actor)
	if err != nil {
		return nil, fmt.Errorf("acting user %s: %w", a.op.Actor, err)
	}
	return user, nil
}

// AddUser registers an account. admin selects the administrator role; an
// empty password leaves the account without password login.
func (a *CustodyApp) AddUser(ctx context.Context, email, name, nic, password string, admin bool) (*sqlc.User, error) {
	role := custody.RoleUser
	if admin {
		role = custody.RoleAdmin
	}
	user, err := a.service.CreateUser(ctx, custody.NewUser{Email: email, Name: name, NIC: nic, Role: role, Password: password})
	return user, a.op.Fail(err)
}

// Login checks an email and password.
func (a *CustodyApp) Login(ctx context.Context, email, password string) (*sqlc.User, error) {
	user, err := a.service.VerifyPassword(ctx, email, password)
	if err != nil {
		a.logger.Warn("login failed", "email", email)
		return nil, a.op.Fail(err)
	}
	a.logger.Info("login succeeded", "id", user.ID, "email", user.Email)
	return user, nil
}

// ChangePassword sets the acting user's password. An account that already
// has one must present it as current.
func (a *CustodyApp) ChangePassword(ctx context.Context, current, next string) error {
	actor, err := a.actor(ctx)
	if err != nil {
		return err
	}
	if actor.PasswordHash.Valid {
		if _, err := a.service.VerifyPassword(ctx, actor.Email, current); err != nil {
			return a.op.Fail(err)
		}
	}
	return a.op.Fail(a.service.SetPassword(ctx, actor, next))
}

// ShowUser looks a user up by email.
func (a *CustodyApp) ShowUser(ctx context.Context, email string) (*sqlc.User, error) {
	return a.service.GetUserByEmail(ctx, email)
}

// CreateCollection ingests rawPath as a new collection owned by the acting
// user. Directories are walked; files are uploaded as they are, tar bundles
// being extracted.
func (a *CustodyApp) CreateCollection(ctx context.Context, rawPath string, opts custody.CollectionOptions) (*sqlc.Collection, error) {
	actor, err := a.actor(ctx)
	if err != nil {
		return nil, err
	}
	p, err := a.fsmgr.Resolve(rawPath)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	var col *sqlc.Collection
	if p.IsDir() {
		col, err = a.service.CreateCollectionFromDirectory(ctx, actor, p.String(), opts)
	} else {
		if limit := a.staging.MaxSize(); limit > 0 && p.Info().Size() > limit {
			return nil, a.op.Fail(fmt.Errorf("%s is %d bytes, over the %d byte limit: %w", p, p.Info().Size(), limit, custody.ErrInvalidArgument))
		}
		var content []byte
		content, err = a.fsmgr.ReadFile(p.String())
		if err != nil {
			return nil, a.op.Fail(fmt.Errorf("reading %s: %w", p, err))
		}
		col, err = a.service.CreateCollection(ctx, actor, p.Base(), content, opts)
	}
	return col, a.op.Fail(err)
}

// ListCollections returns the live collections visible to the acting user.
func (a *CustodyApp) ListCollections(ctx context.Context) ([]*sqlc.Collection, error) {
	actor, err := a.actor(ctx)
	if err != nil {
		return nil, err
	}
	return a.service.ListCollections(ctx, actor)
}

// CollectionInfo summarises a collection.
func (a *CustodyApp) CollectionInfo(ctx context.Context, collectionID string) (*custody.CollectionSummary, error) {
	actor, err := a.actor(ctx)
	if err != nil {
		return nil, err
	}
	return a.service.CollectionInfo(ctx, actor, collectionID)
}

// CollectionTree returns the live folder tree of a collection.
func (a *CustodyApp) CollectionTree(ctx context.Context, collectionID string) (*custody.FolderNode, error) {
	actor, err := a.actor(ctx)
	if err != nil {
		return nil, err
	}
	return a.service.Hierarchy(ctx, actor, collectionID)
}

// RenameCollection changes a collection's display name.
func (a *CustodyApp) RenameCollection(ctx context.Context, collectionID, name string) error {
	actor, err := a.actor(ctx)
	if err != nil {
		return err
	}
	return a.op.Fail(a.service.RenameCollection(ctx, actor, collectionID, name))
}

// DeleteCollection soft-deletes a collection.
func (a *CustodyApp) DeleteCollection(ctx context.Context, collectionID string) error {
	actor, err := a.actor(ctx)
	if err != nil {
		return err
	}
	return a.op.Fail(a.service.DeleteCollection(ctx, actor, collectionID))
}

// ExportCollection writes the collection as a tar.gz to outPath, or to
// <collection id>.tar.gz in the working directory when outPath is empty.
// A partial file is removed on failure. It returns the path written.
func (a *CustodyApp) ExportCollection(ctx context.Context, collectionID, outPath string) (string, error) {
	actor, err := a.actor(ctx)
	if err != nil {
		return "", err
	}
	return a.export(ctx, collectionID, outPath, func(w io.Writer) error {
		return a.service.ExportCollection(ctx, actor, collectionID, w)
	})
}

// ExportCollectionForEmail exports on behalf of a grantee identified only by
// email, such as an anonymous user.
func (a *CustodyApp) ExportCollectionForEmail(ctx context.Context, email, collectionID, outPath string) (string, error) {
	return a.export(ctx, collectionID, outPath, func(w io.Writer) error {
		return a.service.ExportCollectionForEmail(ctx, email, collectionID, w)
	})
}

func (a *CustodyApp) export(ctx context.Context, collectionID, outPath string, write func(io.Writer) error) (string, error) {
	if outPath == "" {
		outPath = collectionID + ".tar.gz"
	}
	outPath, err := filepath.Abs(outPath)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	f, err := a.fsmgr.Create(outPath)
	if err != nil {
		return "", a.op.Fail(fmt.Errorf("creating %s: %w", outPath, err))
	}
	err = write(f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		if rerr := a.fsmgr.RemoveAll(outPath); rerr != nil {
			a.logger.Warn("failed to remove partial export", "path", outPath, "error", rerr)
		}
		return "", a.op.Fail(err)
	}
	return outPath, nil
}

// SearchDocuments finds live documents by exact name.
func (a *CustodyApp) SearchDocuments(ctx context.Context, collectionID, name string) ([]*sqlc.Document, error) {
	actor, err := a.actor(ctx)
	if err != nil {
		return nil, err
	}
	return a.service.SearchDocuments(ctx, actor, collectionID, name)
}

// FilterDocuments lists live documents matching filter.
func (a *CustodyApp) FilterDocuments(ctx context.Context, collectionID string, filter custody.DocumentFilter) ([]*sqlc.Document, error) {
	actor, err := a.actor(ctx)
	if err != nil {
		return nil, err
	}
	return a.service.FilterDocuments(ctx, actor, collectionID, filter)
}

// UpdateDocument uploads the file at rawPath as the next version of a document.
func (a *CustodyApp) UpdateDocument(ctx context.Context, collectionID, documentID, rawPath string) error {
	actor, err := a.actor(ctx)
	if err != nil {
		return err
	}
	p, err := a.fsmgr.Resolve(rawPath)
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}
	if p.IsDir() {
		return fmt.Errorf("%s is a directory: %w", p, custody.ErrInvalidArgument)
	}
	content, err := a.fsmgr.ReadFile(p.String())
	if err != nil {
		return a.op.Fail(fmt.Errorf("reading %s: %w", p, err))
	}
	_, err = a.service.UpdateDocument(ctx, actor, collectionID, documentID, content)
	return a.op.Fail(err)
}

// DeleteDocument soft-deletes a document and with it its update chain.
func (a *CustodyApp) DeleteDocument(ctx context.Context, collectionID, documentID string) error {
	actor, err := a.actor(ctx)
	if err != nil {
		return err
	}
	return a.op.Fail(a.service.DeleteDocument(ctx, actor, collectionID, documentID))
}

// DocumentHistory lists a document's updates and events, newest first.
func (a *CustodyApp) DocumentHistory(ctx context.Context, collectionID, documentID string) ([]custody.HistoryEntry, error) {
	actor, err := a.actor(ctx)
	if err != nil {
		return nil, err
	}
	return a.service.History(ctx, actor, collectionID, documentID)
}

// GetDocument downloads one document version to outDir, named after the
// document. It returns the path written.
func (a *CustodyApp) GetDocument(ctx context.Context, collectionID, documentID, outDir string) (string, error) {
	actor, err := a.actor(ctx)
	if err != nil {
		return "", err
	}
	doc, content, err := a.service.DownloadDocument(ctx, actor, collectionID, documentID)
	if err != nil {
		return "", a.op.Fail(err)
	}
	if strings.ContainsAny(doc.Name, `/\`) || doc.Name == "." || doc.Name == ".." {
		return "", fmt.Errorf("document name %q: %w", doc.Name, custody.ErrInvalidArgument)
	}
	target, err := filepath.Abs(filepath.Join(outDir, doc.Name))
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}
	if err := a.fsmgr.WriteFile(target, content); err != nil {
		return "", a.op.Fail(fmt.Errorf("writing %s: %w", target, err))
	}
	return target, nil
}

// AddPermission grants kind ("read", "write" or "view") on a collection to email.
func (a *CustodyApp) AddPermission(ctx context.Context, collectionID, email, kind string) error {
	actor, err := a.actor(ctx)
	if err != nil {
		return err
	}
	k, err := custody.ParsePermissionKind(kind)
	if err != nil {
		return err
	}
	return a.op.Fail(a.service.AddPermission(ctx, actor, collectionID, email, k))
}

// RemovePermission revokes the acting user's grant of kind to email.
func (a *CustodyApp) RemovePermission(ctx context.Context, collectionID, email, kind string) error {
	actor, err := a.actor(ctx)
	if err != nil {
		return err
	}
	k, err := custody.ParsePermissionKind(kind)
	if err != nil {
		return err
	}
	return a.op.Fail(a.service.RemovePermission(ctx, actor, collectionID, email, k))
}

// ListPermissions returns every grant on a collection.
func (a *CustodyApp) ListPermissions(ctx context.Context, collectionID string) ([]custody.PermissionEntry, error) {
	actor, err := a.actor(ctx)
	if err != nil {
		return nil, err
	}
	return a.service.ListPermissions(ctx, actor, collectionID)
}

// Close logs the outcome of the operation and closes all resources.
// Calling Close again does nothing.
func (a *CustodyApp) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true
	a.logger.Info("operation finished",
		"operation", a.op.Name,
		"status", a.op.Status,
		"duration", a.op.Elapsed(time.Now()).Truncate(time.Millisecond),
	)
	return a.closeResources()
}

func (a *CustodyApp) closeResources() error {
	var firstErr error
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			firstErr = fmt.Errorf("closing database: %w", err)
		}
	}
	if c, ok := a.staging.(io.Closer); ok {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing staging area: %w", err)
		}
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}
