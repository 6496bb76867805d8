package engine

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/danieljhkim/modlay/internal/catalog"
)

// InstallRoot returns the configured installation root.
func (e *Engine) InstallRoot(ctx context.Context) (string, error) {
	return e.requireInstallRoot()
}

// SetInstallRoot validates and persists the installation root.
//
// Changing the root while overlays are applied would make their retraction
// delete and restore files under the new root, so it requires Force. So does
// any recorded original: archives are keyed by the path relative to the
// root, so after a change they no longer line up and the next apply could
// overwrite them.
func (e *Engine) SetInstallRoot(ctx context.Context, req *SetInstallRootRequest) (string, error) {
	root, err := filepath.Abs(req.Path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrValidation, err)
	}

	isDir, err := e.fs.IsDir(root)
	if err != nil {
		return "", ioError("stat", root, err)
	}
	if !isDir {
		return "", fmt.Errorf("%w: installation root %s is not a directory", ErrValidation, root)
	}

	current, err := e.settings.InstallRoot()
	if err != nil {
		return "", fmt.Errorf("failed to read installation root: %w", err)
	}

	if current != "" && current != root && !req.Force {
		overlays, err := e.catalog.ListOverlays()
		if err != nil {
			return "", fmt.Errorf("failed to list overlays: %w", err)
		}
		for _, o := range overlays {
			if o.Applied {
				return "", fmt.Errorf("%w: %s is applied to %s (use --force to change the root anyway)", ErrOverlayApplied, o.Name, current)
			}
		}

		recorded, err := e.recordedBackups()
		if err != nil {
			return "", err
		}
		if len(recorded) > 0 {
			return "", fmt.Errorf("%w: %d under %s, first %s (restore them or run 'backups clear', or use --force)",
				ErrBackupsRecorded, len(recorded), current, recorded[0])
		}
	}

	if req.Force && current != "" && current != root {
		recorded, err := e.recordedBackups()
		if err != nil {
			return "", err
		}
		if len(recorded) > 0 {
			e.logger.Warn("archived originals recorded for the previous installation root", "count", len(recorded), "previous", current, "root", root)
		}
	}

	if err := e.settings.SetInstallRoot(root); err != nil {
		return "", fmt.Errorf("failed to save installation root: %w", err)
	}

	e.logger.Info("installation root set", "path", root)
	return root, nil
}

// recordedBackups returns the backed-up set in lexical order.
func (e *Engine) recordedBackups() ([]string, error) {
	set, err := e.catalog.BackedUpPaths()
	if err != nil {
		return nil, fmt.Errorf("failed to load backed up paths: %w", err)
	}
	return catalog.SortedPaths(set), nil
}
