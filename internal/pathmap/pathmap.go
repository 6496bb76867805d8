// Package pathmap translates between an overlay's managed-storage paths,
// the installation directory and the archive of original files.
//
// For a managed path P = ManagedRoot/<name>/<rel>:
//
//	Target(P)  = InstallRoot/<rel>
//	Archive(P) = ArchiveRoot/<rel>
//
// The archive is keyed by the installation-relative path only, so the
// original preserved for a target can be located from the target alone,
// whichever overlay archived it.
package pathmap

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrMapping indicates a path does not lie under the expected prefix.
var ErrMapping = errors.New("path mapping error")

// Mapper computes path triples. It holds no state beyond its roots.
type Mapper struct {
	ManagedRoot string
	InstallRoot string
	ArchiveRoot string
}

// New creates a Mapper with cleaned roots.
func New(managedRoot, installRoot, archiveRoot string) Mapper {
	return Mapper{
		ManagedRoot: filepath.Clean(managedRoot),
		InstallRoot: filepath.Clean(installRoot),
		ArchiveRoot: filepath.Clean(archiveRoot),
	}
}

// OverlayRoot returns the managed-storage directory of an overlay.
func (m Mapper) OverlayRoot(name string) string {
	return filepath.Join(m.ManagedRoot, name)
}

// Managed returns the managed-storage path for rel inside the overlay.
func (m Mapper) Managed(name, rel string) string {
	return filepath.Join(m.ManagedRoot, name, rel)
}

// Rel returns P relative to the overlay root.
func (m Mapper) Rel(name, managedPath string) (string, error) {
	return relUnder(m.OverlayRoot(name), managedPath)
}

// Target maps a managed path to its projected installation path.
func (m Mapper) Target(name, managedPath string) (string, error) {
	rel, err := m.Rel(name, managedPath)
	if err != nil {
		return "", err
	}
	return filepath.Join(m.InstallRoot, rel), nil
}

// Archive maps a managed path to the archive location of the original it
// would overwrite.
func (m Mapper) Archive(name, managedPath string) (string, error) {
	rel, err := m.Rel(name, managedPath)
	if err != nil {
		return "", err
	}
	return filepath.Join(m.ArchiveRoot, rel), nil
}

// ArchiveForTarget maps an installation path to its archive location.
func (m Mapper) ArchiveForTarget(target string) (string, error) {
	rel, err := relUnder(m.InstallRoot, target)
	if err != nil {
		return "", err
	}
	return filepath.Join(m.ArchiveRoot, rel), nil
}

// Contains reports whether path is root itself or lies beneath it.
func Contains(root, path string) bool {
	if filepath.Clean(root) == filepath.Clean(path) {
		return true
	}
	_, err := relUnder(root, path)
	return err == nil
}

// Triple holds the three paths derived from one managed file.
type Triple struct {
	Managed string
	Target  string
	Archive string
}

// Map computes the full triple for a managed path.
func (m Mapper) Map(name, managedPath string) (Triple, error) {
	rel, err := m.Rel(name, managedPath)
	if err != nil {
		return Triple{}, err
	}
	return Triple{
		Managed: managedPath,
		Target:  filepath.Join(m.InstallRoot, rel),
		Archive: filepath.Join(m.ArchiveRoot, rel),
	}, nil
}

// relUnder strips prefix from path. The prefix must end at a path
// separator boundary and something must remain after it.
func relUnder(prefix, path string) (string, error) {
	cleanPrefix := filepath.Clean(prefix)
	cleanPath := filepath.Clean(path)

	head := cleanPrefix
	if !strings.HasSuffix(head, string(filepath.Separator)) {
		head += string(filepath.Separator)
	}
	if !strings.HasPrefix(cleanPath, head) {
		return "", fmt.Errorf("%w: %s is not under %s", ErrMapping, path, prefix)
	}

	rel := strings.TrimPrefix(cleanPath, head)
	if rel == "" || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s is not under %s", ErrMapping, path, prefix)
	}
	return rel, nil
}
