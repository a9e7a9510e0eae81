package app

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"custody-go/internal/config"
	"custody-go/internal/custody"
	"custody-go/internal/docstore"
)

// testConfig lays an instance out under a temp dir with a sqlite database
// and a filesystem store, so state survives between apps.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.NewConfig("test-instance", t.TempDir())
	cfg.Staging = config.StagingConfig{Type: "temp"}
	cfg.LogLevel = "debug"
	return cfg
}

func openApp(t *testing.T, cfg *config.Config, operation, actor string) *CustodyApp {
	t.Helper()
	a, err := NewCustodyApp(context.Background(), cfg, operation, actor)
	if err != nil {
		t.Fatalf("NewCustodyApp() error = %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func addUser(t *testing.T, cfg *config.Config, email string) {
	t.Helper()
	a := openApp(t, cfg, "AddUser", "")
	if _, err := a.AddUser(context.Background(), email, "", "", "", false); err != nil {
		t.Fatalf("AddUser(%s) error = %v", email, err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestNewCustodyApp(t *testing.T) {
	t.Run("wires and logs the operation", func(t *testing.T) {
		cfg := testConfig(t)
		a := openApp(t, cfg, "ConfigCheck", "")
		if a.Sealed() {
			t.Error("Sealed() = true without encryption")
		}
		if err := a.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}

		data, err := os.ReadFile(filepath.Join(cfg.LogDir, "custody.log"))
		if err != nil {
			t.Fatalf("reading log: %v", err)
		}
		log := string(data)
		if !strings.Contains(log, "operation started\toperation=ConfigCheck") {
			t.Errorf("log missing start record: %q", log)
		}
		if !strings.Contains(log, "operation finished\toperation=ConfigCheck\tstatus=success") {
			t.Errorf("log missing finish record: %q", log)
		}
	})

	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{name: "unknown store", mutate: func(c *config.Config) { c.Store.Type = "tape" }},
		{name: "unknown database", mutate: func(c *config.Config) { c.Database.Type = "oracle" }},
		{name: "unknown staging", mutate: func(c *config.Config) { c.Staging.Type = "ramdisk" }},
		{name: "unknown encryption", mutate: func(c *config.Config) { c.Encryption.Type = "rot13" }},
		{name: "unknown log level", mutate: func(c *config.Config) { c.LogLevel = "loud" }},
		{name: "paperless without token", mutate: func(c *config.Config) {
			c.Store = config.StoreConfig{Type: "paperless", Name: "p", PaperlessURL: "http://127.0.0.1:1"}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			tt.mutate(cfg)
			if a, err := NewCustodyApp(context.Background(), cfg, "x", ""); err == nil {
				a.Close()
				t.Error("NewCustodyApp() succeeded")
			}
		})
	}
}

func TestCustodyApp_RequiresActor(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	a := openApp(t, cfg, "ListCollections", "")

	if _, err := a.ListCollections(ctx); !errors.Is(err, ErrNoActor) {
		t.Errorf("ListCollections() error = %v, want ErrNoActor", err)
	}
	a.Close()

	b := openApp(t, cfg, "ListCollections", "ghost@example.com")
	if _, err := b.ListCollections(ctx); !errors.Is(err, custody.ErrNotFound) {
		t.Errorf("ListCollections(ghost) error = %v, want ErrNotFound", err)
	}
}

func TestCustodyApp_CollectionWorkflow(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	addUser(t, cfg, "owner@example.com")
	addUser(t, cfg, "reader@example.com")

	src := t.TempDir()
	writeFiles(t, src, map[string]string{
		"letter.txt":   "dear reader",
		"scans/p1.pdf": "%PDF page",
	})

	a := openApp(t, cfg, "CreateCollection", "owner@example.com")
	col, err := a.CreateCollection(ctx, src, custody.CollectionOptions{Name: "letters"})
	if err != nil {
		t.Fatalf("CreateCollection() error = %v", err)
	}
	if err := a.AddPermission(ctx, col.ID, "reader@example.com", "READ"); err != nil {
		t.Fatalf("AddPermission() error = %v", err)
	}
	if err := a.AddPermission(ctx, col.ID, "reader@example.com", "admin"); !errors.Is(err, custody.ErrInvalidArgument) {
		t.Errorf("AddPermission(admin) error = %v, want ErrInvalidArgument", err)
	}

	info, err := a.CollectionInfo(ctx, col.ID)
	if err != nil {
		t.Fatalf("CollectionInfo() error = %v", err)
	}
	if info.Documents != 2 || info.TotalSize != int64(len("dear reader")+len("%PDF page")) {
		t.Errorf("CollectionInfo() = %d docs, %d bytes", info.Documents, info.TotalSize)
	}

	docs, err := a.SearchDocuments(ctx, col.ID, "letter.txt")
	if err != nil {
		t.Fatalf("SearchDocuments() error = %v", err)
	}
	letter := docs[0]

	newVersion := filepath.Join(t.TempDir(), "letter.txt")
	writeFiles(t, filepath.Dir(newVersion), map[string]string{"letter.txt": "dear reader, again"})
	if err := a.UpdateDocument(ctx, col.ID, letter.ID, newVersion); err != nil {
		t.Fatalf("UpdateDocument() error = %v", err)
	}
	if err := a.UpdateDocument(ctx, col.ID, letter.ID, newVersion); !errors.Is(err, custody.ErrAlreadyUpdated) {
		t.Errorf("second UpdateDocument() error = %v, want ErrAlreadyUpdated", err)
	}
	if a.op.Status != "error" {
		t.Errorf("operation status = %q after a failed update, want error", a.op.Status)
	}
	a.Close()

	// A second process, acting as the reader, sees the same state.
	r := openApp(t, cfg, "ExportCollection", "reader@example.com")
	out := filepath.Join(t.TempDir(), "letters.tar.gz")
	written, err := r.ExportCollection(ctx, col.ID, out)
	if err != nil {
		t.Fatalf("ExportCollection() error = %v", err)
	}
	if written != out {
		t.Errorf("ExportCollection() wrote %s, want %s", written, out)
	}
	got := readTarGz(t, out)
	want := map[string]string{
		"letters/letter.txt":   "dear reader, again",
		"letters/scans/p1.pdf": "%PDF page",
	}
	for name, content := range want {
		if got[name] != content {
			t.Errorf("export %s = %q, want %q (entries: %v)", name, got[name], content, keys(got))
		}
	}

	history, err := r.DocumentHistory(ctx, col.ID, letter.ID)
	if err != nil {
		t.Fatalf("DocumentHistory() error = %v", err)
	}
	if len(history) == 0 || history[len(history)-1].Kind() != "create" {
		t.Errorf("DocumentHistory() = %v", history)
	}

	dir := t.TempDir()
	path, err := r.GetDocument(ctx, col.ID, letter.ID, dir)
	if err != nil {
		t.Fatalf("GetDocument() error = %v", err)
	}
	if data, _ := os.ReadFile(path); string(data) != "dear reader" {
		t.Errorf("GetDocument() wrote %q, want the first version", data)
	}

	if err := r.DeleteDocument(ctx, col.ID, letter.ID); !errors.Is(err, custody.ErrPermissionDenied) {
		t.Errorf("DeleteDocument(reader) error = %v, want ErrPermissionDenied", err)
	}
	if _, err := r.ListPermissions(ctx, col.ID); !errors.Is(err, custody.ErrPermissionDenied) {
		t.Errorf("ListPermissions(reader) error = %v, want ErrPermissionDenied", err)
	}
}

func TestCustodyApp_ExportRemovesPartialFile(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	addUser(t, cfg, "owner@example.com")

	a := openApp(t, cfg, "ExportCollection", "owner@example.com")
	out := filepath.Join(t.TempDir(), "missing.tar.gz")
	if _, err := a.ExportCollection(ctx, "no-such-collection", out); !errors.Is(err, custody.ErrNotFound) {
		t.Fatalf("ExportCollection() error = %v, want ErrNotFound", err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Errorf("partial export left behind: %v", err)
	}
}

func TestCustodyApp_CreateCollectionSizeLimit(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.Staging.MaxSize = 4
	addUser(t, cfg, "owner@example.com")

	src := filepath.Join(t.TempDir(), "big.txt")
	writeFiles(t, filepath.Dir(src), map[string]string{"big.txt": "too large"})

	a := openApp(t, cfg, "CreateCollection", "owner@example.com")
	if _, err := a.CreateCollection(ctx, src, custody.CollectionOptions{}); !errors.Is(err, custody.ErrInvalidArgument) {
		t.Errorf("CreateCollection(oversized) error = %v, want ErrInvalidArgument", err)
	}
	cols, err := a.ListCollections(ctx)
	if err != nil {
		t.Fatalf("ListCollections() error = %v", err)
	}
	if len(cols) != 0 {
		t.Errorf("ListCollections() = %d collections, want none", len(cols))
	}
}

func TestCustodyApp_IgnoreFile(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	addUser(t, cfg, "owner@example.com")
	writeFiles(t, cfg.BaseDir, map[string]string{".custodyignore": "# scanner output\n*.tmp\n"})

	src := t.TempDir()
	writeFiles(t, src, map[string]string{
		"kept.txt":      "kept",
		"scan.tmp":      "scratch",
		"sub/.DS_Store": "meta",
	})

	a := openApp(t, cfg, "CreateCollection", "owner@example.com")
	col, err := a.CreateCollection(ctx, src, custody.CollectionOptions{Name: "ignored"})
	if err != nil {
		t.Fatalf("CreateCollection() error = %v", err)
	}
	info, err := a.CollectionInfo(ctx, col.ID)
	if err != nil {
		t.Fatalf("CollectionInfo() error = %v", err)
	}
	if info.Documents != 1 {
		t.Errorf("CollectionInfo() = %d documents, want only kept.txt", info.Documents)
	}
}

func TestCustodyApp_PasswordLogin(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	a := openApp(t, cfg, "AddUser", "")
	if _, err := a.AddUser(ctx, "owner@example.com", "Owner", "", "first-secret", false); err != nil {
		t.Fatalf("AddUser() error = %v", err)
	}
	a.Close()

	l := openApp(t, cfg, "Login", "")
	if _, err := l.Login(ctx, "owner@example.com", "first-secret"); err != nil {
		t.Errorf("Login() error = %v", err)
	}
	if _, err := l.Login(ctx, "owner@example.com", "guess"); !errors.Is(err, custody.ErrAuthentication) {
		t.Errorf("Login(wrong) error = %v, want ErrAuthentication", err)
	}
	if l.op.Status != "error" {
		t.Errorf("operation status = %q after a failed login, want error", l.op.Status)
	}
	l.Close()

	c := openApp(t, cfg, "ChangePassword", "owner@example.com")
	if err := c.ChangePassword(ctx, "guess", "second-secret"); !errors.Is(err, custody.ErrAuthentication) {
		t.Errorf("ChangePassword(wrong current) error = %v, want ErrAuthentication", err)
	}
	if err := c.ChangePassword(ctx, "first-secret", "second-secret"); err != nil {
		t.Fatalf("ChangePassword() error = %v", err)
	}
	if _, err := c.Login(ctx, "owner@example.com", "second-secret"); err != nil {
		t.Errorf("Login(new password) error = %v", err)
	}
}

func TestCustodyApp_SealedStore(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.Encryption.Type = "test"
	addUser(t, cfg, "owner@example.com")

	src := filepath.Join(t.TempDir(), "memo.txt")
	writeFiles(t, filepath.Dir(src), map[string]string{"memo.txt": "sealed memo"})

	a := openApp(t, cfg, "CreateCollection", "owner@example.com")
	if !a.Sealed() {
		t.Fatal("Sealed() = false with test encryption")
	}
	col, err := a.CreateCollection(ctx, src, custody.CollectionOptions{})
	if err != nil {
		t.Fatalf("CreateCollection() error = %v", err)
	}
	docs, err := a.FilterDocuments(ctx, col.ID, custody.DocumentFilter{})
	if err != nil || len(docs) != 1 {
		t.Fatalf("FilterDocuments() = %v, %v", docs, err)
	}

	dir := t.TempDir()
	if _, err := a.GetDocument(ctx, col.ID, docs[0].ID, dir); !errors.Is(err, docstore.ErrLocked) {
		t.Errorf("GetDocument() before Unlock error = %v, want ErrLocked", err)
	}
	if err := a.Unlock("passphrase"); err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}
	path, err := a.GetDocument(ctx, col.ID, docs[0].ID, dir)
	if err != nil {
		t.Fatalf("GetDocument() error = %v", err)
	}
	if data, _ := os.ReadFile(path); string(data) != "sealed memo" {
		t.Errorf("GetDocument() wrote %q", data)
	}

	plain := openApp(t, testConfig(t), "x", "")
	if err := plain.Unlock("pw"); err == nil {
		t.Error("Unlock() on an unsealed store succeeded")
	}
}

func readTarGz(t *testing.T, path string) map[string]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	gz, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("gzip.NewReader() error = %v", err)
	}
	tr := tar.NewReader(gz)
	entries := make(map[string]string)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("reading tar: %v", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			t.Fatal(err)
		}
		entries[hdr.Name] = string(data)
	}
	return entries
}

func keys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
