package testutil

import (
	"testing"

	"custody-go/internal/custody"
	"custody-go/internal/staging"
)

const (
	// DefaultStagingMaxSize is the default max size for test staging areas (10MB).
	DefaultStagingMaxSize = 10 * 1024 * 1024
)

// NewTestStagingArea creates a filesystem staging area under a test temp dir.
func NewTestStagingArea(t *testing.T, fsmgr custody.FilesystemManager) custody.StagingArea {
	t.Helper()
	return NewTestStagingAreaWithSize(t, fsmgr, DefaultStagingMaxSize)
}

// NewTestStagingAreaWithSize creates a staging area with a custom max size.
func NewTestStagingAreaWithSize(t *testing.T, fsmgr custody.FilesystemManager, maxSize int64) custody.StagingArea {
	t.Helper()
	area, err := staging.NewFileSystemStagingArea(fsmgr, t.TempDir(), maxSize)
	if err != nil {
		t.Fatalf("failed to create staging area: %v", err)
	}
	return area
}
