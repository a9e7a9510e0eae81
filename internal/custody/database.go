package custody

import (
	"context"
	"time"

	"custody-go/internal/database/sqlc"
)

// NewUser describes an account to insert. CustodyService.CreateUser hashes
// Password into PasswordHash; the database stores only the hash.
type NewUser struct {
	Email        string
	Name         string
	NIC          string
	Role         Role
	Anonymous    bool
	Password     string
	PasswordHash string
}

// NewCollection describes a collection row to insert.
type NewCollection struct {
	Name               string
	OwnerID            string
	ShareState         ShareState
	AccessFromDate     *time.Time
	ManifestHash       string
	TransactionAddress string
}

// NewDocument describes a document row to insert. Rows are immutable once written.
type NewDocument struct {
	Name           string
	Size           int64
	Hash           string
	FolderID       string
	CollectionID   string
	AccessFromDate *time.Time
}

// Database persists users, the folder/document graph, the update chain, the
// event log and permission grants. Find methods return nil, nil when nothing
// matches. Identifiers and timestamps are assigned by the implementation.
type Database interface {
	// Users
	CreateUser(ctx context.Context, u NewUser) (*sqlc.User, error)
	PromoteAnonymousUser(ctx context.Context, id string, u NewUser) (*sqlc.User, error)
	FindUserByID(ctx context.Context, id string) (*sqlc.User, error)
	FindUserByEmail(ctx context.Context, email string) (*sqlc.User, error)
	FindUserByName(ctx context.Context, name string) (*sqlc.User, error)
	FindUserByNIC(ctx context.Context, nic string) (*sqlc.User, error)
	SetUserToken(ctx context.Context, id, token string) error
	SetUserPasswordHash(ctx context.Context, id, hash string) error
	SetUserExternalID(ctx context.Context, id, externalID string) error

	// Collections
	CreateCollection(ctx context.Context, c NewCollection) (*sqlc.Collection, error)
	FindCollectionByID(ctx context.Context, id string) (*sqlc.Collection, error)
	ListCollectionsVisibleTo(ctx context.Context, userID string) ([]*sqlc.Collection, error)
	ListCollectionsOwnedBy(ctx context.Context, userID string) ([]*sqlc.Collection, error)
	RenameCollection(ctx context.Context, id, name string) error
	SetCollectionExternalID(ctx context.Context, id, externalID string) error

	// Folders. An empty parentID creates the collection's root folder.
	CreateFolder(ctx context.Context, name, collectionID, parentID string) (*sqlc.Folder, error)
	FindFolderByID(ctx context.Context, id string) (*sqlc.Folder, error)
	FindRootFolder(ctx context.Context, collectionID string) (*sqlc.Folder, error)
	ListChildFolders(ctx context.Context, folderID string) ([]*sqlc.Folder, error)

	// Documents. "Latest" means the document has no outgoing update.
	CreateDocument(ctx context.Context, d NewDocument) (*sqlc.Document, error)
	FindDocumentByID(ctx context.Context, id string) (*sqlc.Document, error)
	SetDocumentExternalID(ctx context.Context, id, externalID string) error
	ListChainHeads(ctx context.Context, folderID string) ([]*sqlc.Document, error)
	ListLatestDocuments(ctx context.Context, collectionID string) ([]*sqlc.Document, error)
	ListLatestDocumentsByName(ctx context.Context, collectionID, name string) ([]*sqlc.Document, error)
	FilterLatestDocuments(ctx context.Context, collectionID string, name *string, maxSize *int64) ([]*sqlc.Document, error)

	// Update chain. A second update of the same document fails with ErrAlreadyUpdated.
	CreateUpdate(ctx context.Context, previousID, updatedID, userID string) (*sqlc.Update, error)
	FindUpdateByPrevious(ctx context.Context, documentID string) (*sqlc.Update, error)
	FindUpdateByUpdated(ctx context.Context, documentID string) (*sqlc.Update, error)

	// Event log (append-only)
	CreateCollectionEvent(ctx context.Context, collectionID, userID string, t EventType) (*sqlc.CollectionEvent, error)
	CreateDocumentEvent(ctx context.Context, documentID, userID string, t EventType) (*sqlc.DocumentEvent, error)
	ListCollectionEvents(ctx context.Context, collectionID string) ([]*sqlc.CollectionEvent, error)
	ListDocumentEvents(ctx context.Context, documentID string) ([]*sqlc.DocumentEvent, error)
	HasCollectionEvent(ctx context.Context, collectionID string, t EventType) (bool, error)
	HasDocumentEvent(ctx context.Context, documentID string, t EventType) (bool, error)
	FindFirstCollectionEvent(ctx context.Context, collectionID string, t EventType) (*sqlc.CollectionEvent, error)
	FindLatestCollectionEvent(ctx context.Context, collectionID string, t EventType) (*sqlc.CollectionEvent, error)
	FindFirstDocumentEvent(ctx context.Context, documentID string, t EventType) (*sqlc.DocumentEvent, error)
	FindLatestDocumentEvent(ctx context.Context, documentID string, t EventType) (*sqlc.DocumentEvent, error)

	// Permissions. A duplicate grant fails with ErrAlreadyGranted.
	CreatePermission(ctx context.Context, collectionID, userID string, kind PermissionKind, grantedBy string) (*sqlc.Permission, error)
	DeletePermission(ctx context.Context, collectionID, userID string, kind PermissionKind, grantedBy string) (bool, error)
	HasPermission(ctx context.Context, collectionID, userID string, kind PermissionKind) (bool, error)
	ListPermissions(ctx context.Context, collectionID string) ([]*sqlc.Permission, error)

	// RunInTx runs fn against a Database bound to one transaction. The
	// transaction commits if fn returns nil and rolls back otherwise. Calling
	// RunInTx on a transaction-bound Database runs fn in the same transaction.
	RunInTx(ctx context.Context, fn func(Database) error) error

	// CheckMigrations verifies the schema is at the latest version.
	CheckMigrations() error

	Close() error
}
