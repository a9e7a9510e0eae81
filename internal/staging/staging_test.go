package staging

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"custody-go/internal/config"
	"custody-go/internal/custody"
	"custody-go/internal/fs"
)

func newTestArea(t *testing.T, maxSize int64) *FileSystemStagingArea {
	t.Helper()
	area, err := NewFileSystemStagingArea(fs.NewOSFilesystemManager(nil), t.TempDir(), maxSize)
	if err != nil {
		t.Fatalf("NewFileSystemStagingArea() error = %v", err)
	}
	return area
}

func TestStagingArea_AcquireRelease(t *testing.T) {
	area := newTestArea(t, 1024)

	dir, err := area.Acquire("col-1")
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("expected directory at %s, err = %v", dir, err)
	}
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0o644); err != nil {
		t.Fatalf("writing into namespace: %v", err)
	}
	if area.Active() != 1 {
		t.Errorf("Active() = %d, want 1", area.Active())
	}

	if err := area.Release("col-1"); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("expected %s removed, stat err = %v", dir, err)
	}
	if area.Active() != 0 {
		t.Errorf("Active() = %d, want 0", area.Active())
	}
}

func TestStagingArea_NamespacesAreIsolated(t *testing.T) {
	area := newTestArea(t, 1024)

	a, err := area.Acquire("col-a")
	if err != nil {
		t.Fatalf("Acquire(col-a) error = %v", err)
	}
	b, err := area.Acquire("col-b")
	if err != nil {
		t.Fatalf("Acquire(col-b) error = %v", err)
	}
	if a == b {
		t.Fatalf("namespaces share directory %s", a)
	}

	if _, err := area.Acquire("col-a"); !errors.Is(err, custody.ErrConflict) {
		t.Errorf("second Acquire(col-a) error = %v, want ErrConflict", err)
	}
}

func TestStagingArea_ClearsStaleDirectory(t *testing.T) {
	area := newTestArea(t, 1024)

	stale := filepath.Join(area.root, "col-1")
	if err := os.MkdirAll(stale, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(stale, "old.txt"), []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	dir, err := area.Acquire("col-1")
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("expected empty namespace, found %d entries", len(entries))
	}
}

func TestStagingArea_InvalidNamespace(t *testing.T) {
	area := newTestArea(t, 1024)
	for _, ns := range []string{"", ".", "..", "a/b", `a\b`} {
		if _, err := area.Acquire(ns); !errors.Is(err, custody.ErrInvalidArgument) {
			t.Errorf("Acquire(%q) error = %v, want ErrInvalidArgument", ns, err)
		}
	}
}

func TestStagingArea_ReleaseUnknownIsNoop(t *testing.T) {
	area := newTestArea(t, 1024)
	if err := area.Release("never-acquired"); err != nil {
		t.Errorf("Release() error = %v", err)
	}
}

func TestTempStagingArea_Close(t *testing.T) {
	area, err := NewTempStagingArea(fs.NewOSFilesystemManager(nil), 10)
	if err != nil {
		t.Fatalf("NewTempStagingArea() error = %v", err)
	}
	if _, err := area.Acquire("x"); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if err := area.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := os.Stat(area.root); !os.IsNotExist(err) {
		t.Errorf("expected temp root removed, stat err = %v", err)
	}
	if area.MaxSize() != 10 {
		t.Errorf("MaxSize() = %d, want 10", area.MaxSize())
	}
}

func TestNewStagingAreaFromConfig(t *testing.T) {
	fsmgr := fs.NewOSFilesystemManager(nil)

	tests := []struct {
		name    string
		cfg     config.StagingConfig
		wantErr bool
		wantMax int64
	}{
		{name: "temp with default size", cfg: config.StagingConfig{Type: "temp"}, wantMax: DefaultMaxSize},
		{name: "filesystem", cfg: config.StagingConfig{Type: "filesystem", StagingDir: t.TempDir(), MaxSize: 42}, wantMax: 42},
		{name: "filesystem without dir", cfg: config.StagingConfig{Type: "filesystem"}, wantErr: true},
		{name: "unknown type", cfg: config.StagingConfig{Type: "memory"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			area, err := NewStagingAreaFromConfig(tt.cfg, fsmgr)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewStagingAreaFromConfig() error = %v", err)
			}
			if area.MaxSize() != tt.wantMax {
				t.Errorf("MaxSize() = %d, want %d", area.MaxSize(), tt.wantMax)
			}
			if tmp, ok := area.(*TempStagingArea); ok {
				tmp.Close()
			}
		})
	}
}
