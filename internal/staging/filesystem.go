package staging

import (
	"fmt"
	"path/filepath"

	"custody-go/internal/custody"
)

// FileSystemStagingArea keeps scratch namespaces below a configured directory.
//
// Directory structure:
//
//	<staging_dir>/
//	  scratch/
//	    <namespace>/    (extracted archive or assembled export)
type FileSystemStagingArea struct {
	*stagingArea
}

// NewFileSystemStagingArea creates a staging area rooted at stagingDir.
// maxSize is the maximum bytes one namespace may hold; must be positive.
func NewFileSystemStagingArea(fsmgr custody.FilesystemManager, stagingDir string, maxSize int64) (*FileSystemStagingArea, error) {
	root := filepath.Join(stagingDir, "scratch")
	if err := fsmgr.MkdirAll(root); err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	return &FileSystemStagingArea{stagingArea: newStagingArea(fsmgr, root, maxSize)}, nil
}

// Compile-time check that FileSystemStagingArea implements custody.StagingArea interface
var _ custody.StagingArea = (*FileSystemStagingArea)(nil)
