package staging

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"custody-go/internal/custody"
)

// stagingArea implements custody.StagingArea on top of a root directory.
// Each namespace gets root/<namespace>; a namespace can be held by only one
// caller at a time.
type stagingArea struct {
	fsmgr   custody.FilesystemManager
	root    string
	maxSize int64
	mu      sync.Mutex
	active  map[string]string
}

var _ custody.StagingArea = (*stagingArea)(nil)

func newStagingArea(fsmgr custody.FilesystemManager, root string, maxSize int64) *stagingArea {
	return &stagingArea{
		fsmgr:   fsmgr,
		root:    root,
		maxSize: maxSize,
		active:  make(map[string]string),
	}
}

// Acquire creates an empty directory for namespace. Leftovers from an
// earlier run that never released the namespace are cleared first.
func (s *stagingArea) Acquire(namespace string) (string, error) {
	if err := validateNamespace(namespace); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.active[namespace]; ok {
		return "", fmt.Errorf("staging namespace %q is in use: %w", namespace, custody.ErrConflict)
	}
	dir := filepath.Join(s.root, namespace)
	if err := s.fsmgr.RemoveAll(dir); err != nil {
		return "", fmt.Errorf("clearing stale staging directory: %w", err)
	}
	if err := s.fsmgr.MkdirAll(dir); err != nil {
		return "", fmt.Errorf("creating staging directory: %w", err)
	}
	s.active[namespace] = dir
	return dir, nil
}

// Release removes the namespace directory. Releasing an unknown namespace is a no-op.
func (s *stagingArea) Release(namespace string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir, ok := s.active[namespace]
	if !ok {
		return nil
	}
	delete(s.active, namespace)
	if err := s.fsmgr.RemoveAll(dir); err != nil {
		return fmt.Errorf("removing staging directory: %w", err)
	}
	return nil
}

func (s *stagingArea) MaxSize() int64 {
	return s.maxSize
}

// Active returns the number of namespaces currently held.
func (s *stagingArea) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

func validateNamespace(namespace string) error {
	if namespace == "" || namespace == "." || namespace == ".." ||
		strings.ContainsAny(namespace, `/\`) {
		return fmt.Errorf("invalid staging namespace %q: %w", namespace, custody.ErrInvalidArgument)
	}
	return nil
}
