// Package config manages modlay configuration and filesystem paths.
//
// The data root (default ~/.modlay, overridable with MODLAY_ROOT) holds the
// managed overlay storage, the archive of original game files, the SQLite
// catalog and the settings file carrying the installation root.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// Directory and file names below the data root.
const (
	ModsDirName      = "mods"
	ArchiveDirName   = "archive"
	CatalogFileName  = "catalog.db"
	SettingsFileName = "settings.yaml"
)

// Paths contains all the filesystem paths used by modlay.
type Paths struct {
	// Root is the base directory for all modlay data (default: ~/.modlay)
	Root string

	// Mods is managed storage; each overlay lives in Mods/<name>
	Mods string

	// Archive holds original installation files preserved before an overwrite
	Archive string

	// Catalog is the path to the SQLite catalog database
	Catalog string

	// Settings is the path to the settings file
	Settings string
}

// NewPaths derives all paths from root.
func NewPaths(root string) *Paths {
	return &Paths{
		Root:     root,
		Mods:     filepath.Join(root, ModsDirName),
		Archive:  filepath.Join(root, ArchiveDirName),
		Catalog:  filepath.Join(root, CatalogFileName),
		Settings: filepath.Join(root, SettingsFileName),
	}
}

// DefaultPaths returns the default paths for modlay.
// Paths can be overridden with environment variables:
// - MODLAY_ROOT: Override the root directory
func DefaultPaths() (*Paths, error) {
	root := os.Getenv("MODLAY_ROOT")
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		root = filepath.Join(home, ".modlay")
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data root %s: %w", root, err)
	}

	return NewPaths(abs), nil
}

// EnsureDirectories creates the data root and managed storage if missing.
// The archive directory is created lazily on first archive.
func (p *Paths) EnsureDirectories(fs afero.Fs) error {
	for _, dir := range []string{p.Root, p.Mods} {
		if err := fs.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
