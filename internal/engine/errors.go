package engine

import (
	"errors"
	"fmt"

	"github.com/danieljhkim/modlay/internal/catalog"
	"github.com/danieljhkim/modlay/internal/pathmap"
)

var (
	// ErrDuplicateOverlay indicates an overlay with the same name is already registered.
	ErrDuplicateOverlay = catalog.ErrDuplicateOverlay

	// ErrOverlayNotFound indicates the named overlay is not registered.
	ErrOverlayNotFound = catalog.ErrOverlayNotFound

	// ErrMapping indicates a managed path no longer lies under its overlay root.
	ErrMapping = pathmap.ErrMapping

	// ErrNoFilesFound indicates an import source contained no regular files.
	ErrNoFilesFound = errors.New("no files found")

	// ErrSourceNotFound indicates the import source directory does not exist.
	ErrSourceNotFound = errors.New("source directory not found")

	// ErrIO indicates a copy, delete or mkdir failed.
	ErrIO = errors.New("filesystem operation failed")

	// ErrInstallRootUnset indicates the installation root has not been configured.
	ErrInstallRootUnset = errors.New("installation root not set")

	// ErrAlreadyApplied indicates apply was requested on an applied overlay.
	ErrAlreadyApplied = errors.New("overlay already applied")

	// ErrOverlayApplied indicates an operation requires the overlay (or all
	// overlays) to be retracted first.
	ErrOverlayApplied = errors.New("overlay is applied")

	// ErrBackupsRecorded indicates the installation root cannot change while
	// archived originals are recorded for the current one.
	ErrBackupsRecorded = errors.New("archived originals recorded for installation root")

	// ErrBackupMissing indicates a backed-up path has no archived original.
	ErrBackupMissing = errors.New("archived original missing")

	// ErrValidation indicates a validation failure.
	ErrValidation = errors.New("validation failed")
)

// ProgressError reports how far a per-file loop got before failing.
// Files before Processed were fully handled; there is no rollback.
type ProgressError struct {
	Op        string
	Overlay   string
	Processed int
	Total     int
	Path      string
	Err       error
}

func (e *ProgressError) Error() string {
	return fmt.Sprintf("%s %s: failed after %d of %d files at %s: %v",
		e.Op, e.Overlay, e.Processed, e.Total, e.Path, e.Err)
}

func (e *ProgressError) Unwrap() error {
	return e.Err
}

// ioError tags err as an ErrIO failure.
func ioError(action, path string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", ErrIO, action, path, err)
}
