package custody_test

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"custody-go/internal/custody"
	"custody-go/internal/database/sqlc"
	"custody-go/internal/testutil"
)

func names(docs []*sqlc.Document) string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.Name)
	}
	sort.Strings(out)
	return strings.Join(out, ",")
}

func sizedFiles() map[string]string {
	return map[string]string{
		"small.bin":     strings.Repeat("s", 50),
		"large.bin":     strings.Repeat("l", 150),
		"dir/mid.bin":   strings.Repeat("m", 90),
		"dir/other.txt": "other",
	}
}

func TestCustodyService_FilterDocuments(t *testing.T) {
	ctx := context.Background()
	size := func(n int64) *int64 { return &n }
	name := func(s string) *string { return &s }

	tests := []struct {
		name   string
		filter custody.DocumentFilter
		want   string
	}{
		{name: "no filter", filter: custody.DocumentFilter{}, want: "large.bin,mid.bin,other.txt,small.bin"},
		{name: "max size", filter: custody.DocumentFilter{MaxSize: size(100)}, want: "mid.bin,other.txt,small.bin"},
		{name: "max size is inclusive", filter: custody.DocumentFilter{MaxSize: size(90)}, want: "mid.bin,other.txt,small.bin"},
		{name: "name", filter: custody.DocumentFilter{Name: name("large.bin")}, want: "large.bin"},
		{name: "name and size", filter: custody.DocumentFilter{Name: name("large.bin"), MaxSize: size(100)}, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := testutil.NewTestEnv(t)
			owner := mustUser(t, env, "owner@example.com")
			col := mustCollectionFromFiles(t, env, owner, sizedFiles())

			docs, err := env.Service.FilterDocuments(ctx, owner, col.ID, tt.filter)
			if err != nil {
				t.Fatalf("FilterDocuments() error = %v", err)
			}
			if got := names(docs); got != tt.want {
				t.Errorf("FilterDocuments() = %q, want %q", got, tt.want)
			}
		})
	}

	t.Run("last access", func(t *testing.T) {
		env := testutil.NewTestEnv(t)
		owner := mustUser(t, env, "owner@example.com")
		col := mustCollectionFromFiles(t, env, owner, sizedFiles())

		env.Clock.Advance(time.Hour)
		cutoff := env.Clock.Now()
		small := latestByName(t, env, col, "small.bin")
		if _, _, err := env.Service.DownloadDocument(ctx, owner, col.ID, small.ID); err != nil {
			t.Fatalf("DownloadDocument() error = %v", err)
		}

		env.Clock.Advance(time.Hour)
		docs, err := env.Service.FilterDocuments(ctx, owner, col.ID, custody.DocumentFilter{LastAccess: &cutoff})
		if err != nil {
			t.Fatalf("FilterDocuments() error = %v", err)
		}
		if got := names(docs); got != "small.bin" {
			t.Errorf("FilterDocuments(last access) = %q, want small.bin", got)
		}

		large := latestByName(t, env, col, "large.bin")
		last, err := env.Service.DocumentLastAccess(ctx, large)
		if err != nil {
			t.Fatalf("DocumentLastAccess() error = %v", err)
		}
		if last.After(cutoff) {
			t.Errorf("filtered-out document accessed at %v", last)
		}
	})

	t.Run("requires read permission", func(t *testing.T) {
		env := testutil.NewTestEnv(t)
		owner := mustUser(t, env, "owner@example.com")
		stranger := mustUser(t, env, "stranger@example.com")
		col := mustCollectionFromFiles(t, env, owner, sizedFiles())

		if _, err := env.Service.FilterDocuments(ctx, stranger, col.ID, custody.DocumentFilter{}); !errors.Is(err, custody.ErrPermissionDenied) {
			t.Errorf("FilterDocuments(stranger) error = %v, want ErrPermissionDenied", err)
		}
	})
}

func TestCustodyService_SearchDocuments(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewTestEnv(t)
	owner := mustUser(t, env, "owner@example.com")
	col := mustCollectionFromFiles(t, env, owner, sizedFiles())

	env.Clock.Advance(time.Minute)
	docs, err := env.Service.SearchDocuments(ctx, owner, col.ID, "mid.bin")
	if err != nil {
		t.Fatalf("SearchDocuments() error = %v", err)
	}
	if len(docs) != 1 || docs[0].Name != "mid.bin" || docs[0].Size != 90 {
		t.Fatalf("SearchDocuments() = %v, want mid.bin", docs)
	}
	last, err := env.Service.DocumentLastAccess(ctx, docs[0])
	if err != nil {
		t.Fatalf("DocumentLastAccess() error = %v", err)
	}
	if !last.Equal(env.Clock.Now()) {
		t.Errorf("DocumentLastAccess() = %v, want %v", last, env.Clock.Now())
	}

	_, err = env.Service.SearchDocuments(ctx, owner, col.ID, "missing.bin")
	if !errors.Is(err, custody.ErrNoMatches) {
		t.Errorf("SearchDocuments(missing) error = %v, want ErrNoMatches", err)
	}
	if !errors.Is(err, custody.ErrNotFound) {
		t.Errorf("ErrNoMatches should wrap ErrNotFound, got %v", err)
	}

	if err := env.Service.DeleteDocument(ctx, owner, col.ID, docs[0].ID); err != nil {
		t.Fatalf("DeleteDocument() error = %v", err)
	}
	if _, err := env.Service.SearchDocuments(ctx, owner, col.ID, "mid.bin"); !errors.Is(err, custody.ErrNoMatches) {
		t.Errorf("SearchDocuments(deleted) error = %v, want ErrNoMatches", err)
	}
}

func TestCustodyService_DeleteDocument(t *testing.T) {
	ctx := context.Background()

	t.Run("deleting an older version hides the chain", func(t *testing.T) {
		env := testutil.NewTestEnv(t)
		owner := mustUser(t, env, "owner@example.com")
		col := mustNotes(t, env, owner)
		v1 := latestByName(t, env, col, "a.txt")
		if _, err := env.Service.UpdateDocument(ctx, owner, col.ID, v1.ID, []byte("v2")); err != nil {
			t.Fatalf("UpdateDocument() error = %v", err)
		}
		v2 := latestByName(t, env, col, "a.txt")

		if err := env.Service.DeleteDocument(ctx, owner, col.ID, v1.ID); err != nil {
			t.Fatalf("DeleteDocument(v1) error = %v", err)
		}

		docs, err := env.Service.FilterDocuments(ctx, owner, col.ID, custody.DocumentFilter{})
		if err != nil {
			t.Fatalf("FilterDocuments() error = %v", err)
		}
		if got := names(docs); got != "b.txt" {
			t.Errorf("FilterDocuments() = %q, want b.txt", got)
		}
		if _, _, err := env.Service.DownloadDocument(ctx, owner, col.ID, v2.ID); !errors.Is(err, custody.ErrNotFound) {
			t.Errorf("DownloadDocument(v2) error = %v, want ErrNotFound", err)
		}

		tree, err := env.Service.Hierarchy(ctx, owner, col.ID)
		if err != nil {
			t.Fatalf("Hierarchy() error = %v", err)
		}
		if got, want := treeShape(tree), "sub/\nsub/b.txt:5"; got != want {
			t.Errorf("Hierarchy() =\n%s\nwant\n%s", got, want)
		}
	})

	t.Run("twice", func(t *testing.T) {
		env := testutil.NewTestEnv(t)
		owner := mustUser(t, env, "owner@example.com")
		col := mustNotes(t, env, owner)
		doc := latestByName(t, env, col, "a.txt")

		if err := env.Service.DeleteDocument(ctx, owner, col.ID, doc.ID); err != nil {
			t.Fatalf("DeleteDocument() error = %v", err)
		}
		if err := env.Service.DeleteDocument(ctx, owner, col.ID, doc.ID); !errors.Is(err, custody.ErrNotFound) {
			t.Errorf("second DeleteDocument() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("readers cannot delete", func(t *testing.T) {
		env := testutil.NewTestEnv(t)
		owner := mustUser(t, env, "owner@example.com")
		reader := mustUser(t, env, "reader@example.com")
		col := mustNotes(t, env, owner)
		if err := env.Service.AddPermission(ctx, owner, col.ID, reader.Email, custody.PermissionRead); err != nil {
			t.Fatalf("AddPermission() error = %v", err)
		}
		doc := latestByName(t, env, col, "a.txt")

		if err := env.Service.DeleteDocument(ctx, reader, col.ID, doc.ID); !errors.Is(err, custody.ErrPermissionDenied) {
			t.Errorf("DeleteDocument(reader) error = %v, want ErrPermissionDenied", err)
		}
	})

	t.Run("document of another collection", func(t *testing.T) {
		env := testutil.NewTestEnv(t)
		owner := mustUser(t, env, "owner@example.com")
		notes := mustNotes(t, env, owner)
		other := mustCollectionFromFiles(t, env, owner, map[string]string{"x.txt": "x"})
		doc := latestByName(t, env, notes, "a.txt")

		if err := env.Service.DeleteDocument(ctx, owner, other.ID, doc.ID); !errors.Is(err, custody.ErrNotFound) {
			t.Errorf("DeleteDocument(wrong collection) error = %v, want ErrNotFound", err)
		}
	})
}

func TestCustodyService_DownloadDocument(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewTestEnv(t)
	owner := mustUser(t, env, "owner@example.com")
	col := mustNotes(t, env, owner)
	doc := latestByName(t, env, col, "b.txt")

	got, content, err := env.Service.DownloadDocument(ctx, owner, col.ID, doc.ID)
	if err != nil {
		t.Fatalf("DownloadDocument() error = %v", err)
	}
	if got.ID != doc.ID {
		t.Errorf("DownloadDocument() document = %s, want %s", got.ID, doc.ID)
	}
	if string(content) != "hello" {
		t.Errorf("DownloadDocument() content = %q, want %q", content, "hello")
	}

	stored, _, err := env.Store.DownloadDocument(ctx, doc.ExternalID.String)
	if err != nil {
		t.Fatalf("store DownloadDocument() error = %v", err)
	}
	if string(stored) != "hello"+doc.ID {
		t.Errorf("stored content = %q, want content followed by the document id", stored)
	}
}

func TestCustodyService_GetDocument(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewTestEnv(t)
	owner := mustUser(t, env, "owner@example.com")
	stranger := mustUser(t, env, "stranger@example.com")
	col := mustNotes(t, env, owner)
	doc := latestByName(t, env, col, "a.txt")

	got, err := env.Service.GetDocument(ctx, owner, col.ID, doc.ID)
	if err != nil {
		t.Fatalf("GetDocument() error = %v", err)
	}
	if got.Hash != custody.HashContent([]byte("0123456789")) {
		t.Errorf("GetDocument() hash = %s", got.Hash)
	}
	last, err := env.Service.DocumentLastAccess(ctx, got)
	if err != nil {
		t.Fatalf("DocumentLastAccess() error = %v", err)
	}
	created, _ := env.Service.DocumentCreated(ctx, got)
	if !last.Equal(created) {
		t.Errorf("GetDocument() registered an access at %v", last)
	}

	if _, err := env.Service.GetDocument(ctx, owner, col.ID, "id-9999"); !errors.Is(err, custody.ErrNotFound) {
		t.Errorf("GetDocument(missing) error = %v, want ErrNotFound", err)
	}
	if _, err := env.Service.GetDocument(ctx, stranger, col.ID, doc.ID); err == nil {
		t.Error("GetDocument(stranger) succeeded")
	}
}
