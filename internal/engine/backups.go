package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/danieljhkim/modlay/internal/catalog"
	"github.com/danieljhkim/modlay/internal/pathmap"
)

// ClearBackups forgets every backed-up path and deletes the archive tree.
//
// Nothing is restored. Overlays that are still applied keep their files in
// the installation root, and retracting them later will only delete those
// files because their targets are no longer recognised as backed up.
func (e *Engine) ClearBackups(ctx context.Context, req *ClearBackupsRequest) (*ClearBackupsResult, error) {
	set, err := e.catalog.BackedUpPaths()
	if err != nil {
		return nil, fmt.Errorf("failed to load backed up paths: %w", err)
	}

	overlays, err := e.catalog.ListOverlays()
	if err != nil {
		return nil, fmt.Errorf("failed to list overlays: %w", err)
	}

	result := &ClearBackupsResult{
		Paths:           catalog.SortedPaths(set),
		AppliedOverlays: []string{},
		ArchiveRoot:     e.paths.Archive,
		DryRun:          req.DryRun,
	}
	for _, o := range overlays {
		if o.Applied {
			result.AppliedOverlays = append(result.AppliedOverlays, o.Name)
		}
	}

	if req.DryRun {
		return result, nil
	}

	if err := e.catalog.ClearBackedUpPaths(); err != nil {
		return result, fmt.Errorf("failed to clear backed up paths: %w", err)
	}
	if err := e.fs.RemoveAll(e.paths.Archive); err != nil {
		return result, ioError("remove", e.paths.Archive, err)
	}

	e.logger.Info("backup catalog cleared", "paths", len(result.Paths), "applied_overlays", len(result.AppliedOverlays))
	return result, nil
}

// ListBackups returns the backed-up path set and checks each archived copy.
func (e *Engine) ListBackups(ctx context.Context) (*BackupsResult, error) {
	installRoot, err := e.requireInstallRoot()
	if err != nil {
		return nil, err
	}

	set, err := e.catalog.BackedUpPaths()
	if err != nil {
		return nil, fmt.Errorf("failed to load backed up paths: %w", err)
	}

	mapper := e.mapper(installRoot)
	result := &BackupsResult{Entries: []BackupEntry{}}
	for _, target := range catalog.SortedPaths(set) {
		archive, err := mapper.ArchiveForTarget(target)
		if errors.Is(err, pathmap.ErrMapping) {
			// Recorded under a previous installation root; its archive slot
			// cannot be derived from the current one.
			result.Missing++
			result.Entries = append(result.Entries, BackupEntry{TargetPath: target, ForeignRoot: true})
			continue
		}
		if err != nil {
			return nil, err
		}
		present, err := e.fs.IsFile(archive)
		if err != nil {
			return nil, ioError("stat", archive, err)
		}
		if !present {
			result.Missing++
		}
		result.Entries = append(result.Entries, BackupEntry{
			TargetPath:     target,
			ArchivePath:    archive,
			ArchivePresent: present,
		})
	}

	return result, nil
}

// VerifyBackups is ListBackups that fails with ErrBackupMissing when any
// backed-up path has lost its archived original.
func (e *Engine) VerifyBackups(ctx context.Context) (*BackupsResult, error) {
	result, err := e.ListBackups(ctx)
	if err != nil {
		return nil, err
	}
	if result.Missing > 0 {
		return result, fmt.Errorf("%w: %d of %d backed up paths", ErrBackupMissing, result.Missing, len(result.Entries))
	}
	return result, nil
}
