package custody

import "context"

// DocumentUpload is one document handed to the external store.
type DocumentUpload struct {
	Title           string
	Content         []byte
	CorrespondentID string
	TagIDs          []string
}

// DocumentStore is the external document-management backend that holds the
// actual bytes. Ids it returns are opaque; the relational store only keeps them.
type DocumentStore interface {
	// Name identifies the backend in logs.
	Name() string

	// CreateCorrespondent registers an owner and returns its id.
	CreateCorrespondent(ctx context.Context, name string) (string, error)

	// CreateTag registers a grouping label (one per collection) and returns its id.
	CreateTag(ctx context.Context, name string) (string, error)

	// CreateDocument submits content for ingestion and returns a task id.
	CreateDocument(ctx context.Context, upload DocumentUpload) (string, error)

	// VerifyDocument waits for the task to reach a terminal state and returns
	// the stored document id. A rejected duplicate yields ErrDuplicateDocument.
	VerifyDocument(ctx context.Context, taskID string) (string, error)

	// DownloadDocument returns the stored content and the store's filename.
	DownloadDocument(ctx context.Context, documentID string) ([]byte, string, error)

	// ValidateSetup checks that the backend is reachable and usable.
	ValidateSetup(ctx context.Context) error
}
