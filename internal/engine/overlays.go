package engine

import (
	"context"
	"fmt"

	"github.com/danieljhkim/modlay/internal/catalog"
	"github.com/danieljhkim/modlay/internal/hash"
)

// ListOverlays returns all overlays, most recently imported first.
func (e *Engine) ListOverlays(ctx context.Context) ([]catalog.Overlay, error) {
	overlays, err := e.catalog.ListOverlays()
	if err != nil {
		return nil, fmt.Errorf("failed to list overlays: %w", err)
	}
	catalog.SortByRecency(overlays)
	return overlays, nil
}

// Describe returns an overlay together with the state of each of its files
// in the installation root. Without a configured installation root only the
// managed side is reported.
func (e *Engine) Describe(ctx context.Context, name string) (*DescribeResult, error) {
	overlay, err := e.loadOverlay(name)
	if err != nil {
		return nil, err
	}

	installRoot, err := e.settings.InstallRoot()
	if err != nil {
		return nil, fmt.Errorf("failed to read installation root: %w", err)
	}

	backedUp, err := e.catalog.BackedUpPaths()
	if err != nil {
		return nil, fmt.Errorf("failed to load backed up paths: %w", err)
	}

	mapper := e.mapper(installRoot)
	result := &DescribeResult{
		Overlay:     overlay,
		InstallRoot: installRoot,
		Files:       make([]FileStatus, 0, len(overlay.Files)),
	}

	for _, managed := range overlay.Files {
		rel, err := mapper.Rel(overlay.Name, managed)
		if err != nil {
			return nil, err
		}
		status := FileStatus{RelPath: rel, ManagedPath: managed}

		if installRoot != "" {
			target, err := mapper.Target(overlay.Name, managed)
			if err != nil {
				return nil, err
			}
			status.TargetPath = target
			_, status.BackedUp = backedUp[target]

			status.TargetPresent, err = e.fs.IsFile(target)
			if err != nil {
				return nil, ioError("stat", target, err)
			}
			if status.TargetPresent {
				status.Matches, err = hash.SameContent(e.hasher, managed, target)
				if err != nil {
					return nil, ioError("hash", target, err)
				}
			}
			if overlay.Applied && !status.Matches {
				result.Drifted++
			}
		}

		result.Files = append(result.Files, status)
	}

	return result, nil
}
