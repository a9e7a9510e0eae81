package staging

import (
	"fmt"
	"os"

	"custody-go/internal/custody"
)

// TempStagingArea keeps scratch namespaces in a private directory under the
// system temp dir. Close removes it.
type TempStagingArea struct {
	*stagingArea
}

// NewTempStagingArea creates a staging area in a fresh temp directory.
func NewTempStagingArea(fsmgr custody.FilesystemManager, maxSize int64) (*TempStagingArea, error) {
	root, err := os.MkdirTemp("", "custody-staging-")
	if err != nil {
		return nil, fmt.Errorf("creating temp staging directory: %w", err)
	}
	return &TempStagingArea{stagingArea: newStagingArea(fsmgr, root, maxSize)}, nil
}

// Close removes the temp directory and every namespace in it.
func (t *TempStagingArea) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	clear(t.active)
	return t.fsmgr.RemoveAll(t.root)
}

// Compile-time check that TempStagingArea implements custody.StagingArea interface
var _ custody.StagingArea = (*TempStagingArea)(nil)
