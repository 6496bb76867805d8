package engine

// ImportRequest represents a request to import an overlay from a directory.
type ImportRequest struct {
	// SourceDir is the directory whose files become the overlay
	SourceDir string

	// DryRun lists the files that would be imported without copying
	DryRun bool
}

// ApplyRequest represents a request to apply an overlay.
type ApplyRequest struct {
	// Name is the overlay to apply
	Name string

	// DryRun performs planning only without making changes
	DryRun bool
}

// RetractRequest represents a request to retract an overlay.
type RetractRequest struct {
	// Name is the overlay to retract
	Name string

	// Force retracts even when the overlay is not marked applied, for
	// cleaning up after an interrupted apply
	Force bool

	// DryRun performs planning only without making changes
	DryRun bool
}

// RemoveRequest represents a request to delete an overlay.
type RemoveRequest struct {
	// Name is the overlay to delete
	Name string

	// Force deletes an applied overlay without retracting it first,
	// leaving its projected files orphaned in the installation root
	Force bool

	// DryRun shows what would be deleted without deleting
	DryRun bool
}

// ClearBackupsRequest represents a request to forget all archived originals.
type ClearBackupsRequest struct {
	// DryRun shows what would be cleared without clearing
	DryRun bool
}

// SetInstallRootRequest represents a request to configure the installation root.
type SetInstallRootRequest struct {
	// Path is the installation directory
	Path string

	// Force allows changing the root while overlays are applied
	Force bool
}
