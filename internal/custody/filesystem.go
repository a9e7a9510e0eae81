package custody

import (
	"io"
	"io/fs"
)

// FilesystemManager is the service's view of local disk: walking ingested
// trees, extracting archives into scratch space and materializing exports.
type FilesystemManager interface {
	// Resolve validates rawPath and returns it as an absolute Path.
	Resolve(rawPath string) (*Path, error)

	// ReadDir lists a directory in name order.
	ReadDir(dir string) ([]fs.DirEntry, error)

	ReadFile(path string) ([]byte, error)

	// Create opens path for writing, truncating any existing file.
	Create(path string) (io.WriteCloser, error)

	WriteFile(path string, data []byte) error

	MkdirAll(path string) error

	// RemoveAll deletes path and anything below it. A missing path is not an error.
	RemoveAll(path string) error

	// IsIgnored reports whether relPath matches a configured ignore pattern.
	IsIgnored(relPath string) bool
}
