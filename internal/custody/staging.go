package custody

// StagingArea hands out scratch directories for archive extraction and
// export assembly. Each namespace maps to its own directory so concurrent
// requests never share extraction space.
type StagingArea interface {
	// Acquire returns an empty directory reserved for namespace.
	Acquire(namespace string) (string, error)

	// Release removes the namespace directory and everything in it.
	Release(namespace string) error

	// MaxSize is the largest number of bytes one namespace may hold. Zero means unlimited.
	MaxSize() int64
}
