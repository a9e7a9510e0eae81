package docstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"custody-go/internal/custody"
)

// MemoryStore is an in-memory implementation of the DocumentStore interface.
// Like Paperless it rejects content it already holds as a duplicate.
// This implementation is safe for concurrent use.
type MemoryStore struct {
	name           string
	documents      map[string]storedDocument // document id -> document
	checksums      map[string]string         // sha256 -> document id
	correspondents map[string]string
	tags           map[string]string
	tasks          *taskBook
	mu             sync.RWMutex
}

type storedDocument struct {
	title           string
	content         []byte
	correspondentID string
	tagIDs          []string
}

// NewMemoryStore creates a new in-memory store with the given name.
func NewMemoryStore(name string) *MemoryStore {
	return &MemoryStore{
		name:           name,
		documents:      make(map[string]storedDocument),
		checksums:      make(map[string]string),
		correspondents: make(map[string]string),
		tags:           make(map[string]string),
		tasks:          newTaskBook(),
	}
}

func (m *MemoryStore) Name() string {
	return m.name
}

func (m *MemoryStore) CreateCorrespondent(ctx context.Context, name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.New().String()
	m.correspondents[id] = name
	return id, nil
}

func (m *MemoryStore) CreateTag(ctx context.Context, name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.New().String()
	m.tags[id] = name
	return id, nil
}

// CreateDocument stores the upload immediately; the outcome is reported by VerifyDocument.
func (m *MemoryStore) CreateDocument(ctx context.Context, upload custody.DocumentUpload) (string, error) {
	checksum := contentID(upload.Content)

	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.checksums[checksum]; ok {
		return m.tasks.record("", fmt.Errorf("content matches document %s: %w", existing, custody.ErrDuplicateDocument)), nil
	}
	if upload.CorrespondentID != "" {
		if _, ok := m.correspondents[upload.CorrespondentID]; !ok {
			return "", fmt.Errorf("unknown correspondent %s", upload.CorrespondentID)
		}
	}
	for _, tag := range upload.TagIDs {
		if _, ok := m.tags[tag]; !ok {
			return "", fmt.Errorf("unknown tag %s", tag)
		}
	}

	id := uuid.New().String()
	m.documents[id] = storedDocument{
		title:           upload.Title,
		content:         append([]byte(nil), upload.Content...),
		correspondentID: upload.CorrespondentID,
		tagIDs:          append([]string(nil), upload.TagIDs...),
	}
	m.checksums[checksum] = id
	return m.tasks.record(id, nil), nil
}

func (m *MemoryStore) VerifyDocument(ctx context.Context, taskID string) (string, error) {
	return m.tasks.resolve(taskID)
}

// DownloadDocument returns a copy of the stored content and its title.
func (m *MemoryStore) DownloadDocument(ctx context.Context, documentID string) ([]byte, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.documents[documentID]
	if !ok {
		return nil, "", fmt.Errorf("document %s: %w", documentID, custody.ErrNotFound)
	}
	return append([]byte(nil), doc.content...), doc.title, nil
}

// ValidateSetup always succeeds for the in-memory store.
func (m *MemoryStore) ValidateSetup(ctx context.Context) error {
	return nil
}

// DocumentCount returns the number of stored documents.
func (m *MemoryStore) DocumentCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.documents)
}

// DocumentTags returns the tag ids a stored document was filed under.
func (m *MemoryStore) DocumentTags(documentID string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.documents[documentID].tagIDs...)
}

// Compile-time check that MemoryStore implements custody.DocumentStore interface
var _ custody.DocumentStore = (*MemoryStore)(nil)
