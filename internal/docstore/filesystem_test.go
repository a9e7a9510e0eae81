package docstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"custody-go/internal/custody"
)

func TestFileSystemStore(t *testing.T) {
	store, err := NewFileSystemStore("test-store", t.TempDir())
	if err != nil {
		t.Fatalf("NewFileSystemStore() error = %v", err)
	}
	storeRoundTrip(t, store)
}

func TestFileSystemStore_Layout(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store, err := NewFileSystemStore("test-store", root)
	if err != nil {
		t.Fatalf("NewFileSystemStore() error = %v", err)
	}

	task, err := store.CreateDocument(ctx, custody.DocumentUpload{Title: "a.txt", Content: []byte("abc")})
	if err != nil {
		t.Fatalf("CreateDocument() error = %v", err)
	}
	id, err := store.VerifyDocument(ctx, task)
	if err != nil {
		t.Fatalf("VerifyDocument() error = %v", err)
	}

	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if id != want {
		t.Errorf("document id = %s, want sha256 %s", id, want)
	}
	if _, err := os.Stat(filepath.Join(root, "documents", want)); err != nil {
		t.Errorf("content file missing: %v", err)
	}
}

func TestFileSystemStore_Persists(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	first, err := NewFileSystemStore("test-store", root)
	if err != nil {
		t.Fatalf("NewFileSystemStore() error = %v", err)
	}
	task, _ := first.CreateDocument(ctx, custody.DocumentUpload{Title: "kept.txt", Content: []byte("kept")})
	id, err := first.VerifyDocument(ctx, task)
	if err != nil {
		t.Fatalf("VerifyDocument() error = %v", err)
	}

	second, err := NewFileSystemStore("test-store", root)
	if err != nil {
		t.Fatalf("NewFileSystemStore() error = %v", err)
	}
	got, title, err := second.DownloadDocument(ctx, id)
	if err != nil {
		t.Fatalf("DownloadDocument() error = %v", err)
	}
	if string(got) != "kept" || title != "kept.txt" {
		t.Errorf("DownloadDocument() = %q, %q; want %q, %q", got, title, "kept", "kept.txt")
	}
}

func TestFileSystemStore_DownloadInvalidIDs(t *testing.T) {
	store, err := NewFileSystemStore("test-store", t.TempDir())
	if err != nil {
		t.Fatalf("NewFileSystemStore() error = %v", err)
	}

	tests := []struct {
		name    string
		id      string
		wantErr error
	}{
		{name: "empty", id: "", wantErr: custody.ErrInvalidArgument},
		{name: "traversal", id: "../labels/x", wantErr: custody.ErrInvalidArgument},
		{name: "title sidecar", id: "abc.title", wantErr: custody.ErrInvalidArgument},
		{name: "missing", id: "abc", wantErr: custody.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := store.DownloadDocument(context.Background(), tt.id)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("DownloadDocument(%q) error = %v, want %v", tt.id, err, tt.wantErr)
			}
		})
	}
}

func TestFileSystemStore_UnknownLabel(t *testing.T) {
	store, err := NewFileSystemStore("test-store", t.TempDir())
	if err != nil {
		t.Fatalf("NewFileSystemStore() error = %v", err)
	}
	_, err = store.CreateDocument(context.Background(), custody.DocumentUpload{
		Title:   "a",
		Content: []byte("a"),
		TagIDs:  []string{"tag-missing"},
	})
	if err == nil {
		t.Error("CreateDocument() with unknown tag expected error")
	}
}

func TestFileSystemStore_ValidateSetup(t *testing.T) {
	root := t.TempDir()
	store, err := NewFileSystemStore("test-store", root)
	if err != nil {
		t.Fatalf("NewFileSystemStore() error = %v", err)
	}
	if err := os.RemoveAll(filepath.Join(root, "labels")); err != nil {
		t.Fatal(err)
	}
	if err := store.ValidateSetup(context.Background()); err == nil {
		t.Error("ValidateSetup() expected error with missing labels directory")
	}
}
