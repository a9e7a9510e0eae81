package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"custody-go/internal/custody"
	"custody-go/internal/database/migrations"
	"custody-go/internal/database/sqlc"
)

// SQLiteDatabase implements custody.Database on SQLite.
// A value is either bound to the connection pool or, inside RunInTx, to a single transaction.
type SQLiteDatabase struct {
	db      *sql.DB
	tx      *sql.Tx
	queries *sqlc.Queries
	path    string
	clock   custody.Clock
	idgen   custody.IDGenerator
}

var _ custody.Database = (*SQLiteDatabase)(nil)

// NewSQLiteDatabase opens a SQLite database at path (or ":memory:").
// A nil clock or idgen falls back to the real implementations.
func NewSQLiteDatabase(path string, clock custody.Clock, idgen custody.IDGenerator) (*SQLiteDatabase, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	d := NewSQLiteDatabaseFromDB(db, clock, idgen)
	d.path = path
	return d, nil
}

// NewSQLiteDatabaseFromDB wraps an existing connection.
// The caller is responsible for ensuring the connection is properly configured.
func NewSQLiteDatabaseFromDB(db *sql.DB, clock custody.Clock, idgen custody.IDGenerator) *SQLiteDatabase {
	if clock == nil {
		clock = custody.RealClock{}
	}
	if idgen == nil {
		idgen = custody.UUIDGenerator{}
	}
	return &SQLiteDatabase{
		db:      db,
		queries: sqlc.New(db),
		clock:   clock,
		idgen:   idgen,
	}
}

// OpenConnection opens and configures a SQLite connection with the PRAGMAs the schema relies on.
// Exported for tools and tests.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// PRAGMAs are per connection and every :memory: connection is a separate database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// Path returns the file path the database was opened with.
func (s *SQLiteDatabase) Path() string {
	return s.path
}

func (s *SQLiteDatabase) now() time.Time {
	return s.clock.Now().UTC()
}

// Users

func (s *SQLiteDatabase) CreateUser(ctx context.Context, u custody.NewUser) (*sqlc.User, error) {
	role := u.Role
	if role == "" {
		role = custody.RoleUser
	}
	params := sqlc.InsertUserParams{
		ID:           s.idgen.New(),
		Email:        u.Email,
		Name:         nullString(u.Name),
		Nic:          nullString(u.NIC),
		Role:         string(role),
		Anonymous:    u.Anonymous,
		CreatedAt:    s.now(),
		PasswordHash: nullString(u.PasswordHash),
	}
	if err := s.queries.InsertUser(ctx, params); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("inserting user %s: %w", u.Email, custody.ErrUserExists)
		}
		return nil, fmt.Errorf("inserting user: %w", err)
	}
	return &sqlc.User{
		ID:           params.ID,
		Email:        params.Email,
		Name:         params.Name,
		Nic:          params.Nic,
		Role:         params.Role,
		Anonymous:    params.Anonymous,
		CreatedAt:    params.CreatedAt,
		PasswordHash: params.PasswordHash,
	}, nil
}

func (s *SQLiteDatabase) PromoteAnonymousUser(ctx context.Context, id string, u custody.NewUser) (*sqlc.User, error) {
	role := u.Role
	if role == "" {
		role = custody.RoleUser
	}
	n, err := s.queries.PromoteAnonymousUser(ctx, sqlc.PromoteAnonymousUserParams{
		Name:         nullString(u.Name),
		Nic:          nullString(u.NIC),
		Role:         string(role),
		PasswordHash: nullString(u.PasswordHash),
		ID:           id,
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("promoting user %s: %w", id, custody.ErrUserExists)
		}
		return nil, fmt.Errorf("promoting user: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("promoting user %s: %w", id, custody.ErrUserExists)
	}
	return s.FindUserByID(ctx, id)
}

func (s *SQLiteDatabase) FindUserByID(ctx context.Context, id string) (*sqlc.User, error) {
	user, err := s.queries.GetUserByID(ctx, id)
	return foundOrNil(&user, err, "finding user by id")
}

func (s *SQLiteDatabase) FindUserByEmail(ctx context.Context, email string) (*sqlc.User, error) {
	user, err := s.queries.GetUserByEmail(ctx, email)
	return foundOrNil(&user, err, "finding user by email")
}

func (s *SQLiteDatabase) FindUserByName(ctx context.Context, name string) (*sqlc.User, error) {
	user, err := s.queries.GetUserByName(ctx, nullString(name))
	return foundOrNil(&user, err, "finding user by name")
}

func (s *SQLiteDatabase) FindUserByNIC(ctx context.Context, nic string) (*sqlc.User, error) {
	user, err := s.queries.GetUserByNIC(ctx, nullString(nic))
	return foundOrNil(&user, err, "finding user by nic")
}

func (s *SQLiteDatabase) SetUserToken(ctx context.Context, id, token string) error {
	if err := s.queries.UpdateUserToken(ctx, sqlc.UpdateUserTokenParams{Token: nullString(token), ID: id}); err != nil {
		return fmt.Errorf("updating user token: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) SetUserPasswordHash(ctx context.Context, id, hash string) error {
	err := s.queries.UpdateUserPasswordHash(ctx, sqlc.UpdateUserPasswordHashParams{PasswordHash: nullString(hash), ID: id})
	if err != nil {
		return fmt.Errorf("setting password for user %s: %w", id, err)
	}
	return nil
}

func (s *SQLiteDatabase) SetUserExternalID(ctx context.Context, id, externalID string) error {
	err := s.queries.UpdateUserExternalID(ctx, sqlc.UpdateUserExternalIDParams{ExternalID: nullString(externalID), ID: id})
	if err != nil {
		return fmt.Errorf("updating user external id: %w", err)
	}
	return nil
}

// Collections

func (s *SQLiteDatabase) CreateCollection(ctx context.Context, c custody.NewCollection) (*sqlc.Collection, error) {
	state := c.ShareState
	if state == "" {
		state = custody.SharePrivate
	}
	params := sqlc.InsertCollectionParams{
		ID:                 s.idgen.New(),
		Name:               c.Name,
		OwnerID:            c.OwnerID,
		ShareState:         string(state),
		AccessFromDate:     nullTime(c.AccessFromDate),
		ManifestHash:       nullString(c.ManifestHash),
		TransactionAddress: nullString(c.TransactionAddress),
	}
	if err := s.queries.InsertCollection(ctx, params); err != nil {
		return nil, fmt.Errorf("inserting collection: %w", err)
	}
	return &sqlc.Collection{
		ID:                 params.ID,
		Name:               params.Name,
		OwnerID:            params.OwnerID,
		ShareState:         params.ShareState,
		AccessFromDate:     params.AccessFromDate,
		ManifestHash:       params.ManifestHash,
		TransactionAddress: params.TransactionAddress,
	}, nil
}

func (s *SQLiteDatabase) FindCollectionByID(ctx context.Context, id string) (*sqlc.Collection, error) {
	col, err := s.queries.GetCollectionByID(ctx, id)
	return foundOrNil(&col, err, "finding collection")
}

func (s *SQLiteDatabase) ListCollectionsVisibleTo(ctx context.Context, userID string) ([]*sqlc.Collection, error) {
	cols, err := s.queries.ListCollectionsVisibleToUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing visible collections: %w", err)
	}
	return pointers(cols), nil
}

func (s *SQLiteDatabase) ListCollectionsOwnedBy(ctx context.Context, userID string) ([]*sqlc.Collection, error) {
	cols, err := s.queries.ListCollectionsByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing owned collections: %w", err)
	}
	return pointers(cols), nil
}

func (s *SQLiteDatabase) RenameCollection(ctx context.Context, id, name string) error {
	if err := s.queries.UpdateCollectionName(ctx, sqlc.UpdateCollectionNameParams{Name: name, ID: id}); err != nil {
		return fmt.Errorf("renaming collection: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) SetCollectionExternalID(ctx context.Context, id, externalID string) error {
	err := s.queries.UpdateCollectionExternalID(ctx, sqlc.UpdateCollectionExternalIDParams{ExternalID: nullString(externalID), ID: id})
	if err != nil {
		return fmt.Errorf("updating collection external id: %w", err)
	}
	return nil
}

// Folders

func (s *SQLiteDatabase) CreateFolder(ctx context.Context, name, collectionID, parentID string) (*sqlc.Folder, error) {
	params := sqlc.InsertFolderParams{
		ID:           s.idgen.New(),
		Name:         name,
		CollectionID: collectionID,
		ParentID:     nullString(parentID),
	}
	if err := s.queries.InsertFolder(ctx, params); err != nil {
		if parentID == "" && isUniqueViolation(err) {
			return nil, fmt.Errorf("collection %s already has a root folder: %w", collectionID, custody.ErrIntegrity)
		}
		return nil, fmt.Errorf("inserting folder: %w", err)
	}
	return &sqlc.Folder{
		ID:           params.ID,
		Name:         params.Name,
		CollectionID: params.CollectionID,
		ParentID:     params.ParentID,
	}, nil
}

func (s *SQLiteDatabase) FindFolderByID(ctx context.Context, id string) (*sqlc.Folder, error) {
	folder, err := s.queries.GetFolderByID(ctx, id)
	return foundOrNil(&folder, err, "finding folder")
}

func (s *SQLiteDatabase) FindRootFolder(ctx context.Context, collectionID string) (*sqlc.Folder, error) {
	folder, err := s.queries.GetRootFolder(ctx, collectionID)
	return foundOrNil(&folder, err, "finding root folder")
}

func (s *SQLiteDatabase) ListChildFolders(ctx context.Context, folderID string) ([]*sqlc.Folder, error) {
	folders, err := s.queries.ListChildFolders(ctx, nullString(folderID))
	if err != nil {
		return nil, fmt.Errorf("listing child folders: %w", err)
	}
	return pointers(folders), nil
}

// Documents

func (s *SQLiteDatabase) CreateDocument(ctx context.Context, d custody.NewDocument) (*sqlc.Document, error) {
	params := sqlc.InsertDocumentParams{
		ID:             s.idgen.New(),
		Name:           d.Name,
		Size:           d.Size,
		Hash:           d.Hash,
		FolderID:       d.FolderID,
		CollectionID:   d.CollectionID,
		AccessFromDate: nullTime(d.AccessFromDate),
	}
	if err := s.queries.InsertDocument(ctx, params); err != nil {
		return nil, fmt.Errorf("inserting document: %w", err)
	}
	return &sqlc.Document{
		ID:             params.ID,
		Name:           params.Name,
		Size:           params.Size,
		Hash:           params.Hash,
		FolderID:       params.FolderID,
		CollectionID:   params.CollectionID,
		AccessFromDate: params.AccessFromDate,
	}, nil
}

func (s *SQLiteDatabase) FindDocumentByID(ctx context.Context, id string) (*sqlc.Document, error) {
	doc, err := s.queries.GetDocumentByID(ctx, id)
	return foundOrNil(&doc, err, "finding document")
}

func (s *SQLiteDatabase) SetDocumentExternalID(ctx context.Context, id, externalID string) error {
	err := s.queries.UpdateDocumentExternalID(ctx, sqlc.UpdateDocumentExternalIDParams{ExternalID: nullString(externalID), ID: id})
	if err != nil {
		return fmt.Errorf("updating document external id: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) ListChainHeads(ctx context.Context, folderID string) ([]*sqlc.Document, error) {
	docs, err := s.queries.ListChainHeadsInFolder(ctx, folderID)
	if err != nil {
		return nil, fmt.Errorf("listing chain heads: %w", err)
	}
	return pointers(docs), nil
}

func (s *SQLiteDatabase) ListLatestDocuments(ctx context.Context, collectionID string) ([]*sqlc.Document, error) {
	docs, err := s.queries.ListLatestDocumentsInCollection(ctx, collectionID)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	return pointers(docs), nil
}

func (s *SQLiteDatabase) ListLatestDocumentsByName(ctx context.Context, collectionID, name string) ([]*sqlc.Document, error) {
	docs, err := s.queries.ListLatestDocumentsByName(ctx, sqlc.ListLatestDocumentsByNameParams{
		CollectionID: collectionID,
		Name:         name,
	})
	if err != nil {
		return nil, fmt.Errorf("searching documents: %w", err)
	}
	return pointers(docs), nil
}

func (s *SQLiteDatabase) FilterLatestDocuments(ctx context.Context, collectionID string, name *string, maxSize *int64) ([]*sqlc.Document, error) {
	params := sqlc.FilterLatestDocumentsParams{CollectionID: collectionID}
	if name != nil {
		params.Name = sql.NullString{String: *name, Valid: true}
	}
	if maxSize != nil {
		params.MaxSize = sql.NullInt64{Int64: *maxSize, Valid: true}
	}
	docs, err := s.queries.FilterLatestDocuments(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("filtering documents: %w", err)
	}
	return pointers(docs), nil
}

// Update chain

func (s *SQLiteDatabase) CreateUpdate(ctx context.Context, previousID, updatedID, userID string) (*sqlc.Update, error) {
	params := sqlc.InsertUpdateParams{
		ID:         s.idgen.New(),
		PreviousID: previousID,
		UpdatedID:  updatedID,
		UserID:     userID,
		CreatedAt:  s.now(),
	}
	if err := s.queries.InsertUpdate(ctx, params); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("updating document %s: %w", previousID, custody.ErrAlreadyUpdated)
		}
		return nil, fmt.Errorf("inserting update: %w", err)
	}
	u := sqlc.Update(params)
	return &u, nil
}

func (s *SQLiteDatabase) FindUpdateByPrevious(ctx context.Context, documentID string) (*sqlc.Update, error) {
	u, err := s.queries.GetUpdateByPreviousID(ctx, documentID)
	return foundOrNil(&u, err, "finding next update")
}

func (s *SQLiteDatabase) FindUpdateByUpdated(ctx context.Context, documentID string) (*sqlc.Update, error) {
	u, err := s.queries.GetUpdateByUpdatedID(ctx, documentID)
	return foundOrNil(&u, err, "finding previous update")
}

// Event log

func (s *SQLiteDatabase) CreateCollectionEvent(ctx context.Context, collectionID, userID string, t custody.EventType) (*sqlc.CollectionEvent, error) {
	params := sqlc.InsertCollectionEventParams{
		ID:           s.idgen.New(),
		CollectionID: collectionID,
		UserID:       userID,
		Type:         string(t),
		CreatedAt:    s.now(),
	}
	if err := s.queries.InsertCollectionEvent(ctx, params); err != nil {
		return nil, fmt.Errorf("inserting collection event: %w", err)
	}
	ev := sqlc.CollectionEvent(params)
	return &ev, nil
}

func (s *SQLiteDatabase) CreateDocumentEvent(ctx context.Context, documentID, userID string, t custody.EventType) (*sqlc.DocumentEvent, error) {
	params := sqlc.InsertDocumentEventParams{
		ID:         s.idgen.New(),
		DocumentID: documentID,
		UserID:     userID,
		Type:       string(t),
		CreatedAt:  s.now(),
	}
	if err := s.queries.InsertDocumentEvent(ctx, params); err != nil {
		return nil, fmt.Errorf("inserting document event: %w", err)
	}
	ev := sqlc.DocumentEvent(params)
	return &ev, nil
}

func (s *SQLiteDatabase) ListCollectionEvents(ctx context.Context, collectionID string) ([]*sqlc.CollectionEvent, error) {
	events, err := s.queries.ListCollectionEvents(ctx, collectionID)
	if err != nil {
		return nil, fmt.Errorf("listing collection events: %w", err)
	}
	return pointers(events), nil
}

func (s *SQLiteDatabase) ListDocumentEvents(ctx context.Context, documentID string) ([]*sqlc.DocumentEvent, error) {
	events, err := s.queries.ListDocumentEvents(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("listing document events: %w", err)
	}
	return pointers(events), nil
}

func (s *SQLiteDatabase) HasCollectionEvent(ctx context.Context, collectionID string, t custody.EventType) (bool, error) {
	n, err := s.queries.CollectionHasEventType(ctx, sqlc.CollectionHasEventTypeParams{CollectionID: collectionID, Type: string(t)})
	if err != nil {
		return false, fmt.Errorf("checking collection events: %w", err)
	}
	return n != 0, nil
}

func (s *SQLiteDatabase) HasDocumentEvent(ctx context.Context, documentID string, t custody.EventType) (bool, error) {
	n, err := s.queries.DocumentHasEventType(ctx, sqlc.DocumentHasEventTypeParams{DocumentID: documentID, Type: string(t)})
	if err != nil {
		return false, fmt.Errorf("checking document events: %w", err)
	}
	return n != 0, nil
}

func (s *SQLiteDatabase) FindFirstCollectionEvent(ctx context.Context, collectionID string, t custody.EventType) (*sqlc.CollectionEvent, error) {
	ev, err := s.queries.GetFirstCollectionEvent(ctx, sqlc.GetFirstCollectionEventParams{CollectionID: collectionID, Type: string(t)})
	return foundOrNil(&ev, err, "finding first collection event")
}

func (s *SQLiteDatabase) FindLatestCollectionEvent(ctx context.Context, collectionID string, t custody.EventType) (*sqlc.CollectionEvent, error) {
	ev, err := s.queries.GetLatestCollectionEvent(ctx, sqlc.GetLatestCollectionEventParams{CollectionID: collectionID, Type: string(t)})
	return foundOrNil(&ev, err, "finding latest collection event")
}

func (s *SQLiteDatabase) FindFirstDocumentEvent(ctx context.Context, documentID string, t custody.EventType) (*sqlc.DocumentEvent, error) {
	ev, err := s.queries.GetFirstDocumentEvent(ctx, sqlc.GetFirstDocumentEventParams{DocumentID: documentID, Type: string(t)})
	return foundOrNil(&ev, err, "finding first document event")
}

func (s *SQLiteDatabase) FindLatestDocumentEvent(ctx context.Context, documentID string, t custody.EventType) (*sqlc.DocumentEvent, error) {
	ev, err := s.queries.GetLatestDocumentEvent(ctx, sqlc.GetLatestDocumentEventParams{DocumentID: documentID, Type: string(t)})
	return foundOrNil(&ev, err, "finding latest document event")
}

// Permissions

func (s *SQLiteDatabase) CreatePermission(ctx context.Context, collectionID, userID string, kind custody.PermissionKind, grantedBy string) (*sqlc.Permission, error) {
	params := sqlc.InsertPermissionParams{
		CollectionID: collectionID,
		UserID:       userID,
		Permission:   string(kind),
		GrantedBy:    grantedBy,
		GrantedAt:    s.now(),
	}
	if err := s.queries.InsertPermission(ctx, params); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("granting %s on %s: %w", kind, collectionID, custody.ErrAlreadyGranted)
		}
		return nil, fmt.Errorf("inserting permission: %w", err)
	}
	p := sqlc.Permission(params)
	return &p, nil
}

func (s *SQLiteDatabase) DeletePermission(ctx context.Context, collectionID, userID string, kind custody.PermissionKind, grantedBy string) (bool, error) {
	n, err := s.queries.DeletePermission(ctx, sqlc.DeletePermissionParams{
		CollectionID: collectionID,
		UserID:       userID,
		Permission:   string(kind),
		GrantedBy:    grantedBy,
	})
	if err != nil {
		return false, fmt.Errorf("deleting permission: %w", err)
	}
	return n > 0, nil
}

func (s *SQLiteDatabase) HasPermission(ctx context.Context, collectionID, userID string, kind custody.PermissionKind) (bool, error) {
	n, err := s.queries.HasPermission(ctx, sqlc.HasPermissionParams{
		CollectionID: collectionID,
		UserID:       userID,
		Permission:   string(kind),
	})
	if err != nil {
		return false, fmt.Errorf("checking permission: %w", err)
	}
	return n != 0, nil
}

func (s *SQLiteDatabase) ListPermissions(ctx context.Context, collectionID string) ([]*sqlc.Permission, error) {
	perms, err := s.queries.ListPermissionsForCollection(ctx, collectionID)
	if err != nil {
		return nil, fmt.Errorf("listing permissions: %w", err)
	}
	return pointers(perms), nil
}

// Transactions and lifecycle

func (s *SQLiteDatabase) RunInTx(ctx context.Context, fn func(custody.Database) error) error {
	if s.tx != nil {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	bound := &SQLiteDatabase{
		db:      s.db,
		tx:      tx,
		queries: s.queries.WithTx(tx),
		path:    s.path,
		clock:   s.clock,
		idgen:   s.idgen,
	}
	if err := fn(bound); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// MigrateUp applies pending schema migrations.
func (s *SQLiteDatabase) MigrateUp() error {
	return migrations.MigrateUp(s.db)
}

func (s *SQLiteDatabase) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// Close closes the underlying connection. It is a no-op on a transaction-bound value.
func (s *SQLiteDatabase) Close() error {
	if s.tx != nil {
		return nil
	}
	return s.db.Close()
}

// foundOrNil maps sql.ErrNoRows to nil, nil.
func foundOrNil[T any](row *T, err error, action string) (*T, error) {
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", action, err)
	}
	return row, nil
}

func pointers[T any](rows []T) []*T {
	out := make([]*T, len(rows))
	for i := range rows {
		out[i] = &rows[i]
	}
	return out
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}
