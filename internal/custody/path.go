package custody

import "io/fs"

// Path is a validated absolute filesystem path with cached stat info.
// Paths are produced by FilesystemManager.Resolve.
type Path struct {
	absPath string
	isDir   bool
	info    fs.FileInfo
}

// NewPath creates a Path from its components. Intended for FilesystemManager implementations.
func NewPath(absPath string, isDir bool, info fs.FileInfo) *Path {
	return &Path{
		absPath: absPath,
		isDir:   isDir,
		info:    info,
	}
}

func (p *Path) String() string {
	return p.absPath
}

func (p *Path) IsDir() bool {
	return p.isDir
}

// Base returns the final element of the path.
func (p *Path) Base() string {
	if p.info != nil {
		return p.info.Name()
	}
	return p.absPath
}

func (p *Path) Info() fs.FileInfo {
	return p.info
}
