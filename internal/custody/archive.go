package custody

import (
	"archive/tar"
	"bufio"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// archiveSubdir is the conventional directory inside a bundle holding the
// tree to ingest; siblings such as manifests and signatures are ignored.
const archiveSubdir = "archive"

var archiveSuffixes = []string{".tar.gz", ".tgz", ".tar"}

// IsArchive reports whether filename names a tar bundle.
func IsArchive(filename string) bool {
	lower := strings.ToLower(filename)
	for _, suffix := range archiveSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

// trimArchiveSuffix strips a recognised archive suffix from filename.
func trimArchiveSuffix(filename string) string {
	lower := strings.ToLower(filename)
	for _, suffix := range archiveSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return filename[:len(filename)-len(suffix)]
		}
	}
	return filename
}

// extractArchive unpacks a tar stream, gzip-compressed or not, into dir.
// Entries escaping dir and content beyond maxSize bytes are rejected.
func (s *CustodyService) extractArchive(ctx context.Context, r io.Reader, dir string, maxSize int64) error {
	br := bufio.NewReader(r)
	var src io.Reader = br
	if magic, err := br.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return fmt.Errorf("opening gzip stream: %w: %w", ErrInvalidArchive, err)
		}
		defer gz.Close()
		src = gz
	}

	var total int64
	tr := tar.NewReader(src)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading archive: %w: %w", ErrInvalidArchive, err)
		}

		name := path.Clean(strings.TrimPrefix(hdr.Name, "./"))
		if name == "." {
			continue
		}
		if path.IsAbs(name) || name == ".." || strings.HasPrefix(name, "../") {
			return fmt.Errorf("entry %q escapes the archive root: %w", hdr.Name, ErrInvalidArchive)
		}
		target := filepath.Join(dir, filepath.FromSlash(name))

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := s.fsmgr.MkdirAll(target); err != nil {
				return fmt.Errorf("creating %s: %w", target, err)
			}
		case tar.TypeReg:
			total += hdr.Size
			if maxSize > 0 && total > maxSize {
				return fmt.Errorf("archive content exceeds %d bytes: %w", maxSize, ErrInvalidArchive)
			}
			if err := s.fsmgr.MkdirAll(filepath.Dir(target)); err != nil {
				return fmt.Errorf("creating %s: %w", filepath.Dir(target), err)
			}
			if err := s.extractFile(tr, target, hdr.Size); err != nil {
				return err
			}
		default:
			s.logger.Warn("skipping archive entry", "name", hdr.Name, "type", string(hdr.Typeflag))
		}
	}
}

func (s *CustodyService) extractFile(r io.Reader, target string, size int64) error {
	w, err := s.fsmgr.Create(target)
	if err != nil {
		return fmt.Errorf("creating %s: %w", target, err)
	}
	if _, err := io.CopyN(w, r, size); err != nil {
		w.Close()
		return fmt.Errorf("extracting %s: %w: %w", target, ErrInvalidArchive, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", target, err)
	}
	return nil
}

// locateIngestRoot finds the directory to ingest inside an extracted bundle.
// A lone top-level directory is unwrapped when it is named after the bundle
// (stem) or holds an archive/ subdirectory; any other lone directory is
// content and stays. An archive/ subdirectory is then preferred when present.
func (s *CustodyService) locateIngestRoot(dir, stem string) (string, error) {
	entries, err := s.fsmgr.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", dir, err)
	}
	var visible []string
	var onlyDir string
	for _, e := range entries {
		if s.fsmgr.IsIgnored(e.Name()) {
			continue
		}
		visible = append(visible, e.Name())
		if e.IsDir() {
			onlyDir = e.Name()
		}
	}
	if len(visible) == 1 && onlyDir != "" {
		inner := filepath.Join(dir, onlyDir)
		innerEntries, err := s.fsmgr.ReadDir(inner)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", inner, err)
		}
		if onlyDir == stem || hasArchiveSubdir(innerEntries) {
			dir, entries = inner, innerEntries
		}
	}
	if hasArchiveSubdir(entries) {
		return filepath.Join(dir, archiveSubdir), nil
	}
	return dir, nil
}

func hasArchiveSubdir(entries []fs.DirEntry) bool {
	for _, e := range entries {
		if e.IsDir() && e.Name() == archiveSubdir {
			return true
		}
	}
	return false
}

// writeArchive streams the directory tree at dir as a gzip-compressed tar.
func (s *CustodyService) writeArchive(ctx context.Context, w io.Writer, dir string, modTime time.Time) error {
	gz := gzip.NewWriter(w)
	tw := tar.NewWriter(gz)

	type pending struct{ abs, rel string }
	stack := []pending{{abs: dir}}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := s.fsmgr.ReadDir(cur.abs)
		if err != nil {
			return fmt.Errorf("reading %s: %w", cur.abs, err)
		}
		// Reverse so the stack pops entries in name order.
		for i := len(entries) - 1; i >= 0; i-- {
			e := entries[i]
			abs := filepath.Join(cur.abs, e.Name())
			rel := path.Join(cur.rel, e.Name())
			if e.IsDir() {
				stack = append(stack, pending{abs: abs, rel: rel})
			}
		}
		for _, e := range entries {
			abs := filepath.Join(cur.abs, e.Name())
			rel := path.Join(cur.rel, e.Name())
			if e.IsDir() {
				hdr := &tar.Header{Name: rel + "/", Typeflag: tar.TypeDir, Mode: 0o755, ModTime: modTime}
				if err := tw.WriteHeader(hdr); err != nil {
					return fmt.Errorf("writing header for %s: %w", rel, err)
				}
				continue
			}
			content, err := s.fsmgr.ReadFile(abs)
			if err != nil {
				return fmt.Errorf("reading %s: %w", abs, err)
			}
			hdr := &tar.Header{Name: rel, Typeflag: tar.TypeReg, Mode: 0o644, Size: int64(len(content)), ModTime: modTime}
			if err := tw.WriteHeader(hdr); err != nil {
				return fmt.Errorf("writing header for %s: %w", rel, err)
			}
			if _, err := tw.Write(content); err != nil {
				return fmt.Errorf("writing %s: %w", rel, err)
			}
		}
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("closing tar stream: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("closing gzip stream: %w", err)
	}
	return nil
}
