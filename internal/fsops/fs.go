// Package fsops provides the filesystem primitives used by modlay.
//
// All reads and mutations of managed storage, the archive and the
// installation directory go through the FS interface. The default
// implementation sits on top of an afero.Fs so the same code runs against
// the real disk and against an in-memory filesystem in tests.
//
// Key features:
//   - File copies written to a temp file and renamed into place
//   - Recursive listing of regular files (empty directories contribute nothing)
//   - Identifier validation for overlay names
package fsops

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// FS provides an abstraction for filesystem operations.
type FS interface {
	// Stat returns file info, following symlinks.
	Stat(path string) (os.FileInfo, error)

	// Exists checks if a path exists.
	Exists(path string) (bool, error)

	// IsFile reports whether path exists and is a regular file.
	IsFile(path string) (bool, error)

	// IsDir reports whether path exists and is a directory.
	IsDir(path string) (bool, error)

	// MkdirAll creates a directory and all parent directories.
	MkdirAll(path string, perm os.FileMode) error

	// Remove removes a file or empty directory.
	Remove(path string) error

	// RemoveAll removes a path and all its contents.
	RemoveAll(path string) error

	// CopyFile copies a regular file, creating parent directories of dst.
	CopyFile(src, dst string) error

	// ListFiles returns every regular file below root in lexical order.
	ListFiles(root string) ([]string, error)

	// ReadFile reads the entire contents of a file.
	ReadFile(path string) ([]byte, error)

	// AtomicWrite writes data to path using temp file + rename.
	AtomicWrite(path string, data []byte, perm os.FileMode) error

	// Open opens a file for reading.
	Open(path string) (afero.File, error)

	// ValidateIdentifier validates an identifier for safety.
	ValidateIdentifier(id string) error
}

// AferoFS implements FS on top of an afero.Fs.
type AferoFS struct {
	fs afero.Fs
}

// NewAferoFS wraps the given afero filesystem.
func NewAferoFS(fs afero.Fs) *AferoFS {
	return &AferoFS{fs: fs}
}

// NewOsFS returns an FS backed by the operating system.
func NewOsFS() *AferoFS {
	return NewAferoFS(afero.NewOsFs())
}

// Afero returns the underlying afero filesystem.
func (f *AferoFS) Afero() afero.Fs {
	return f.fs
}

// Stat returns file info, following symlinks.
func (f *AferoFS) Stat(path string) (os.FileInfo, error) {
	return f.fs.Stat(path)
}

// Exists checks if a path exists.
func (f *AferoFS) Exists(path string) (bool, error) {
	return afero.Exists(f.fs, path)
}

// IsFile reports whether path exists and is a regular file.
func (f *AferoFS) IsFile(path string) (bool, error) {
	info, err := f.fs.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// IsDir reports whether path exists and is a directory.
func (f *AferoFS) IsDir(path string) (bool, error) {
	ok, err := afero.IsDir(f.fs, path)
	if err != nil && errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return ok, err
}

// MkdirAll creates a directory and all parent directories.
func (f *AferoFS) MkdirAll(path string, perm os.FileMode) error {
	return f.fs.MkdirAll(path, perm)
}

// Remove removes a file or empty directory.
func (f *AferoFS) Remove(path string) error {
	return f.fs.Remove(path)
}

// RemoveAll removes a path and all its contents.
func (f *AferoFS) RemoveAll(path string) error {
	return f.fs.RemoveAll(path)
}

// Open opens a file for reading.
func (f *AferoFS) Open(path string) (afero.File, error) {
	return f.fs.Open(path)
}

// ReadFile reads the entire contents of a file.
func (f *AferoFS) ReadFile(path string) ([]byte, error) {
	return afero.ReadFile(f.fs, path)
}

// CopyFile copies a single regular file from src to dst.
// The destination is written next to its final location and renamed into
// place, so an interrupted copy never leaves a truncated dst behind.
func (f *AferoFS) CopyFile(src, dst string) (err error) {
	srcInfo, err := f.fs.Stat(src)
	if err != nil {
		return fmt.Errorf("failed to stat source: %w", err)
	}
	if !srcInfo.Mode().IsRegular() {
		return fmt.Errorf("source %q is not a regular file", src)
	}

	srcFile, err := f.fs.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer func() {
		_ = srcFile.Close()
	}()

	if err := f.fs.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	tmp := dst + ".modlay-tmp"
	dstFile, err := f.fs.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, srcInfo.Mode().Perm())
	if err != nil {
		return fmt.Errorf("failed to create destination: %w", err)
	}

	_, copyErr := io.Copy(dstFile, srcFile)
	closeErr := dstFile.Close()
	if copyErr != nil || closeErr != nil {
		_ = f.fs.Remove(tmp)
		if copyErr != nil {
			return fmt.Errorf("failed to copy file contents: %w", copyErr)
		}
		return fmt.Errorf("failed to close destination: %w", closeErr)
	}

	if err := f.fs.Rename(tmp, dst); err != nil {
		_ = f.fs.Remove(tmp)
		return fmt.Errorf("failed to rename destination into place: %w", err)
	}

	return nil
}

// ListFiles walks root and returns the paths of all regular files beneath it,
// sorted lexically. Directories are traversed but never returned, so a tree
// made only of empty directories yields an empty list. Symlinks to regular
// files are listed under the link's path; links to directories are not
// descended and dangling links are skipped.
func (f *AferoFS) ListFiles(root string) ([]string, error) {
	var files []string
	err := afero.Walk(f.fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.Mode()&os.ModeSymlink != 0 {
			resolved, err := f.fs.Stat(path)
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			if err != nil {
				return err
			}
			info = resolved
		}
		if info.Mode().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	sort.Strings(files)
	return files, nil
}

// AtomicWrite writes data to path atomically using temp file + rename.
func (f *AferoFS) AtomicWrite(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := f.fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	tmpFile, err := afero.TempFile(f.fs, dir, ".modlay-tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		if tmpFile != nil {
			_ = tmpFile.Close()
			_ = f.fs.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := f.fs.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := f.fs.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	tmpFile = nil
	return nil
}

// ValidateIdentifier validates an identifier (an overlay name) for safety.
// Returns an error if the identifier contains path separators or is a
// traversal component.
func (f *AferoFS) ValidateIdentifier(id string) error {
	return ValidateIdentifier(id)
}

// ValidateIdentifier is the package-level form of AferoFS.ValidateIdentifier.
func ValidateIdentifier(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("invalid identifier: empty")
	}
	if strings.ContainsAny(id, `/\`) || strings.Contains(id, string(filepath.Separator)) {
		return fmt.Errorf("invalid identifier: must not contain path separators")
	}
	if id == "." || id == ".." {
		return fmt.Errorf("invalid identifier: path traversal not allowed")
	}
	if strings.ContainsRune(id, 0) {
		return fmt.Errorf("invalid identifier: contains null byte")
	}
	return nil
}
