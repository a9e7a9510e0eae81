package docstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"custody-go/internal/custody"
)

// ErrLocked is returned when sealed content is read before Unlock.
var ErrLocked = errors.New("document store is locked")

// SealedStore encrypts content before it reaches the wrapped store.
// Uploads only need the public key; downloads require Unlock.
type SealedStore struct {
	custody.DocumentStore
	enc custody.Encryptor

	mu     sync.RWMutex
	opener custody.DecryptionContext
}

// NewSealedStore wraps store so that all content passes through enc.
func NewSealedStore(store custody.DocumentStore, enc custody.Encryptor) *SealedStore {
	return &SealedStore{DocumentStore: store, enc: enc}
}

// Unlock opens the private key for the rest of the session.
func (s *SealedStore) Unlock(passphrase string) error {
	opener, err := s.enc.Unlock(passphrase)
	if err != nil {
		return fmt.Errorf("unlocking store: %w", err)
	}
	s.mu.Lock()
	s.opener = opener
	s.mu.Unlock()
	return nil
}

func (s *SealedStore) CreateDocument(ctx context.Context, upload custody.DocumentUpload) (string, error) {
	var sealed bytes.Buffer
	if err := s.enc.Encrypt(bytes.NewReader(upload.Content), &sealed); err != nil {
		return "", fmt.Errorf("sealing %q: %w", upload.Title, err)
	}
	upload.Content = sealed.Bytes()
	return s.DocumentStore.CreateDocument(ctx, upload)
}

func (s *SealedStore) DownloadDocument(ctx context.Context, documentID string) ([]byte, string, error) {
	s.mu.RLock()
	opener := s.opener
	s.mu.RUnlock()
	if opener == nil {
		return nil, "", ErrLocked
	}

	sealed, title, err := s.DocumentStore.DownloadDocument(ctx, documentID)
	if err != nil {
		return nil, "", err
	}
	var plain bytes.Buffer
	if err := opener.Decrypt(bytes.NewReader(sealed), &plain); err != nil {
		return nil, "", fmt.Errorf("opening document %s: %w", documentID, err)
	}
	return plain.Bytes(), title, nil
}

// ValidateSetup also requires the key pair to exist.
func (s *SealedStore) ValidateSetup(ctx context.Context) error {
	if !s.enc.IsConfigured() {
		return fmt.Errorf("encryption keys not configured")
	}
	return s.DocumentStore.ValidateSetup(ctx)
}

// Compile-time check that SealedStore implements custody.DocumentStore interface
var _ custody.DocumentStore = (*SealedStore)(nil)
