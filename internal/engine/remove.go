package engine

import (
	"context"
	"fmt"
)

// Remove deletes an overlay's managed storage and catalog rows.
//
// Removing an applied overlay is refused unless Force is set. With Force the
// overlay's projected files stay in the installation root and are no longer
// tracked by any overlay; restoring them is the caller's responsibility.
func (e *Engine) Remove(ctx context.Context, req *RemoveRequest) (*RemoveResult, error) {
	overlay, err := e.loadOverlay(req.Name)
	if err != nil {
		return nil, err
	}

	result := &RemoveResult{
		Name:      overlay.Name,
		Applied:   overlay.Applied,
		FileCount: len(overlay.Files),
		DryRun:    req.DryRun,
	}

	if overlay.Applied && !req.Force {
		return result, fmt.Errorf("%w: %s must be retracted before removal (use --force to remove anyway)", ErrOverlayApplied, overlay.Name)
	}

	if req.DryRun {
		return result, nil
	}

	overlayRoot := e.mapper("").OverlayRoot(overlay.Name)
	if err := e.fs.RemoveAll(overlayRoot); err != nil {
		return result, ioError("remove", overlayRoot, err)
	}

	if err := e.catalog.DeleteOverlay(overlay.Name); err != nil {
		return result, fmt.Errorf("failed to delete overlay from catalog: %w", err)
	}

	if overlay.Applied {
		e.logger.Warn("removed applied overlay; projected files left in place", "overlay", overlay.Name)
	}
	e.logger.Info("overlay removed", "overlay", overlay.Name, "files", len(overlay.Files))

	result.Deleted = true
	return result, nil
}
