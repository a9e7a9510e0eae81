package docstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"custody-go/internal/custody"
)

// FileSystemStore is a filesystem-based implementation of the DocumentStore
// interface. Documents are addressed by the SHA-256 of their content:
//
//	<root>/
//	  documents/
//	    <checksum>        (content)
//	    <checksum>.title  (title given at upload)
//	  labels/
//	    <id>              (correspondent or tag name)
type FileSystemStore struct {
	name         string
	root         string
	documentsDir string
	labelsDir    string
	tasks        *taskBook
}

// NewFileSystemStore creates a new filesystem store rooted at the given path.
func NewFileSystemStore(name, root string) (*FileSystemStore, error) {
	documentsDir := filepath.Join(root, "documents")
	labelsDir := filepath.Join(root, "labels")

	for _, dir := range []string{documentsDir, labelsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	return &FileSystemStore{
		name:         name,
		root:         root,
		documentsDir: documentsDir,
		labelsDir:    labelsDir,
		tasks:        newTaskBook(),
	}, nil
}

func (s *FileSystemStore) Name() string {
	return s.name
}

func (s *FileSystemStore) CreateCorrespondent(ctx context.Context, name string) (string, error) {
	return s.createLabel("correspondent", name)
}

func (s *FileSystemStore) CreateTag(ctx context.Context, name string) (string, error) {
	return s.createLabel("tag", name)
}

func (s *FileSystemStore) createLabel(kind, name string) (string, error) {
	id := kind + "-" + uuid.New().String()
	if err := writeFile(filepath.Join(s.labelsDir, id), []byte(name)); err != nil {
		return "", fmt.Errorf("creating %s %q: %w", kind, name, err)
	}
	return id, nil
}

// CreateDocument writes the content under its checksum. Content that is
// already present is reported as a duplicate through VerifyDocument.
func (s *FileSystemStore) CreateDocument(ctx context.Context, upload custody.DocumentUpload) (string, error) {
	if err := s.checkLabels(upload); err != nil {
		return "", err
	}

	id := contentID(upload.Content)
	contentPath := filepath.Join(s.documentsDir, id)

	if _, err := os.Stat(contentPath); err == nil {
		return s.tasks.record("", fmt.Errorf("content matches document %s: %w", id, custody.ErrDuplicateDocument)), nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("checking for existing document: %w", err)
	}

	if err := writeFile(contentPath+".title", []byte(upload.Title)); err != nil {
		return "", fmt.Errorf("writing title: %w", err)
	}
	if err := writeFile(contentPath, upload.Content); err != nil {
		return "", fmt.Errorf("writing content: %w", err)
	}
	return s.tasks.record(id, nil), nil
}

func (s *FileSystemStore) checkLabels(upload custody.DocumentUpload) error {
	for _, id := range labelIDs(upload) {
		if strings.ContainsAny(id, `/\`) {
			return fmt.Errorf("invalid label id %q: %w", id, custody.ErrInvalidArgument)
		}
		if _, err := os.Stat(filepath.Join(s.labelsDir, id)); err != nil {
			return fmt.Errorf("unknown label %s: %w", id, err)
		}
	}
	return nil
}

func (s *FileSystemStore) VerifyDocument(ctx context.Context, taskID string) (string, error) {
	return s.tasks.resolve(taskID)
}

func (s *FileSystemStore) DownloadDocument(ctx context.Context, documentID string) ([]byte, string, error) {
	if documentID == "" || strings.ContainsAny(documentID, `/\.`) {
		return nil, "", fmt.Errorf("invalid document id %q: %w", documentID, custody.ErrInvalidArgument)
	}
	contentPath := filepath.Join(s.documentsDir, documentID)

	var content bytes.Buffer
	if err := readFile(contentPath, &content); err != nil {
		return nil, "", fmt.Errorf("document %s: %w", documentID, err)
	}
	var title bytes.Buffer
	if err := readFile(contentPath+".title", &title); err != nil {
		return nil, "", fmt.Errorf("document %s title: %w", documentID, err)
	}
	return content.Bytes(), title.String(), nil
}

// ValidateSetup verifies that the store directories are accessible.
func (s *FileSystemStore) ValidateSetup(ctx context.Context) error {
	for _, dir := range []string{s.root, s.documentsDir, s.labelsDir} {
		info, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("store directory not accessible: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("store path is not a directory: %s", dir)
		}
	}
	return nil
}

// contentID names content by its SHA-256 checksum.
func contentID(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// writeFile writes data to the specified path using atomic write (temp file + rename).
func writeFile(destPath string, data []byte) error {
	// Create temp file in the same directory to ensure atomic rename works
	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := tmpFile.Write(data)
	if err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if written != len(data) {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", len(data), written)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

// readFile reads from the specified path and writes to w.
func readFile(srcPath string, w io.Writer) error {
	f, err := os.Open(srcPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return custody.ErrNotFound
		}
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	return nil
}

// Compile-time check that FileSystemStore implements custody.DocumentStore interface
var _ custody.DocumentStore = (*FileSystemStore)(nil)
