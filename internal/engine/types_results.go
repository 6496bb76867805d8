package engine

import (
	"github.com/danieljhkim/modlay/internal/catalog"
	"github.com/danieljhkim/modlay/internal/planner"
)

// ImportResult represents the result of importing an overlay.
type ImportResult struct {
	// Overlay is the registered overlay (not registered if DryRun)
	Overlay *catalog.Overlay `json:"overlay"`

	// SourceDir is the absolute source directory
	SourceDir string `json:"sourceDir"`

	// RelPaths are the imported files relative to SourceDir, sorted
	RelPaths []string `json:"relPaths"`

	// DryRun is true if nothing was written
	DryRun bool `json:"dryRun"`
}

// ApplyResult represents the result of applying an overlay.
type ApplyResult struct {
	// Plan is the generated plan
	Plan *planner.Plan `json:"plan"`

	// Applied are the target paths written (empty if DryRun)
	Applied []string `json:"applied"`

	// Archived are the target paths whose originals were archived
	Archived []string `json:"archived"`

	// InstallRoot is the installation root the overlay was applied to
	InstallRoot string `json:"installRoot"`
}

// RetractResult represents the result of retracting an overlay.
type RetractResult struct {
	// Plan is the generated plan
	Plan *planner.Plan `json:"plan"`

	// Removed are the target paths deleted from the installation root
	Removed []string `json:"removed"`

	// Restored are the target paths whose archived original was put back
	Restored []string `json:"restored"`

	// InstallRoot is the installation root the overlay was retracted from
	InstallRoot string `json:"installRoot"`
}

// RemoveResult represents the result of deleting an overlay.
type RemoveResult struct {
	// Name is the overlay name
	Name string `json:"name"`

	// Applied reports whether the overlay was applied when removed
	Applied bool `json:"applied"`

	// FileCount is the number of managed files deleted
	FileCount int `json:"fileCount"`

	// Deleted is true if the overlay was deleted
	Deleted bool `json:"deleted"`

	// DryRun is true if this was a dry run
	DryRun bool `json:"dryRun"`
}

// ClearBackupsResult represents the result of clearing the backup catalog.
type ClearBackupsResult struct {
	// Paths are the backed-up paths that were forgotten
	Paths []string `json:"paths"`

	// AppliedOverlays are overlays still applied whose retraction will no
	// longer restore originals
	AppliedOverlays []string `json:"appliedOverlays"`

	// ArchiveRoot is the archive directory that was removed
	ArchiveRoot string `json:"archiveRoot"`

	// DryRun is true if this was a dry run
	DryRun bool `json:"dryRun"`
}

// BackupEntry describes one backed-up installation path.
type BackupEntry struct {
	// TargetPath is the installation path shadowed by an overlay
	TargetPath string `json:"targetPath"`

	// ArchivePath is where its original is preserved; empty when ForeignRoot
	ArchivePath string `json:"archivePath"`

	// ArchivePresent reports whether the archived copy exists
	ArchivePresent bool `json:"archivePresent"`

	// ForeignRoot is set when TargetPath lies outside the current
	// installation root
	ForeignRoot bool `json:"foreignRoot,omitempty"`
}

// BackupsResult lists the backed-up path set.
type BackupsResult struct {
	Entries []BackupEntry `json:"entries"`

	// Missing counts entries whose archive copy is absent or cannot be
	// located from the current installation root
	Missing int `json:"missing"`
}

// FileStatus describes one overlay file relative to the installation root.
type FileStatus struct {
	RelPath     string `json:"relPath"`
	ManagedPath string `json:"managedPath"`

	// TargetPath is empty when the installation root is unset
	TargetPath string `json:"targetPath,omitempty"`

	// TargetPresent reports whether a file exists at TargetPath
	TargetPresent bool `json:"targetPresent"`

	// Matches reports whether the target content equals the managed copy
	Matches bool `json:"matches"`

	// BackedUp reports whether TargetPath is in the backed-up set
	BackedUp bool `json:"backedUp"`
}

// DescribeResult contains detailed information about an overlay.
type DescribeResult struct {
	Overlay *catalog.Overlay `json:"overlay"`

	// InstallRoot is empty when unset
	InstallRoot string `json:"installRoot,omitempty"`

	Files []FileStatus `json:"files"`

	// Drifted counts files of an applied overlay that are missing or differ
	Drifted int `json:"drifted"`
}
