// Package catalog persists the overlay registry and the set of installation
// paths whose original content has been archived.
//
// The Store interface is the narrow contract the engine works against. The
// backed-up path set is owned by the store and is only reachable through
// BackedUpPaths, AddBackedUpPaths, RemoveBackedUpPath and ClearBackedUpPaths.
package catalog

import (
	"errors"
	"sort"
	"time"
)

var (
	// ErrOverlayNotFound indicates no overlay with the given name is registered.
	ErrOverlayNotFound = errors.New("overlay not found")

	// ErrDuplicateOverlay indicates an overlay with the same name is already registered.
	ErrDuplicateOverlay = errors.New("overlay already exists")
)

// Overlay is a registered overlay and its managed-storage files.
type Overlay struct {
	// Name is the unique overlay name (base name of its source directory)
	Name string `json:"name"`

	// Files are absolute managed-storage paths, sorted lexically
	Files []string `json:"files"`

	// Applied reports whether the overlay is currently projected onto the install root
	Applied bool `json:"applied"`

	// CreatedAt is when the overlay was registered
	CreatedAt time.Time `json:"createdAt"`
}

// Store is the catalog contract consumed by the engine.
type Store interface {
	// ListOverlays returns every registered overlay.
	ListOverlays() ([]Overlay, error)

	// GetOverlay returns the overlay with the given name or ErrOverlayNotFound.
	GetOverlay(name string) (*Overlay, error)

	// OverlayExists reports whether an overlay with the given name is registered.
	OverlayExists(name string) (bool, error)

	// InsertOverlay registers an overlay and its file list in one transaction.
	InsertOverlay(overlay *Overlay) error

	// SetApplied updates the applied flag.
	SetApplied(name string, applied bool) error

	// DeleteOverlay removes the overlay and its file rows.
	DeleteOverlay(name string) error

	// BackedUpPaths returns the set of installation paths with an archived original.
	BackedUpPaths() (map[string]struct{}, error)

	// AddBackedUpPaths adds paths to the backed-up set. Existing entries are kept.
	AddBackedUpPaths(paths []string) error

	// RemoveBackedUpPath removes a single path from the backed-up set.
	RemoveBackedUpPath(path string) error

	// ClearBackedUpPaths empties the backed-up set.
	ClearBackedUpPaths() error

	// Close releases the underlying resources.
	Close() error
}

// SortByRecency orders overlays most recently registered first, breaking
// ties by name.
func SortByRecency(overlays []Overlay) {
	sort.SliceStable(overlays, func(i, j int) bool {
		if !overlays[i].CreatedAt.Equal(overlays[j].CreatedAt) {
			return overlays[i].CreatedAt.After(overlays[j].CreatedAt)
		}
		return overlays[i].Name < overlays[j].Name
	})
}

// SortedPaths returns the members of a path set in lexical order.
func SortedPaths(set map[string]struct{}) []string {
	paths := make([]string, 0, len(set))
	for p := range set {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
