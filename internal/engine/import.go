package engine

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/danieljhkim/modlay/internal/catalog"
	"github.com/danieljhkim/modlay/internal/pathmap"
)

// Import copies a source directory into managed storage and registers it
// as an overlay named after the directory's base name.
//
// Algorithm:
// 1. Resolve the source directory and derive the overlay name
// 2. Reject duplicates before touching managed storage
// 3. List regular files (empty directories contribute nothing)
// 4. Copy every file to <mods>/<name>/<rel>
// 5. Register the overlay; on any failure managed storage is cleaned up
func (e *Engine) Import(ctx context.Context, req *ImportRequest) (*ImportResult, error) {
	src, err := filepath.Abs(req.SourceDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve source directory: %w", err)
	}

	if pathmap.Contains(e.paths.Mods, src) || pathmap.Contains(src, e.paths.Mods) {
		return nil, fmt.Errorf("%w: %s overlaps managed storage %s", ErrValidation, src, e.paths.Mods)
	}

	isDir, err := e.fs.IsDir(src)
	if err != nil {
		return nil, ioError("stat", src, err)
	}
	if !isDir {
		return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, src)
	}

	name := filepath.Base(src)
	if err := e.fs.ValidateIdentifier(name); err != nil {
		return nil, fmt.Errorf("%w: overlay name %q: %v", ErrValidation, name, err)
	}

	exists, err := e.catalog.OverlayExists(name)
	if err != nil {
		return nil, fmt.Errorf("failed to check overlay: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateOverlay, name)
	}

	sources, err := e.fs.ListFiles(src)
	if err != nil {
		return nil, ioError("list", src, err)
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoFilesFound, src)
	}

	mapper := e.mapper("")
	overlay := &catalog.Overlay{
		Name:      name,
		Files:     make([]string, 0, len(sources)),
		CreatedAt: e.clock.Now(),
	}
	rels := make([]string, 0, len(sources))
	for _, source := range sources {
		rel, err := filepath.Rel(src, source)
		if err != nil {
			return nil, fmt.Errorf("failed to compute relative path for %s: %w", source, err)
		}
		rels = append(rels, rel)
		overlay.Files = append(overlay.Files, mapper.Managed(name, rel))
	}

	result := &ImportResult{Overlay: overlay, SourceDir: src, RelPaths: rels, DryRun: req.DryRun}
	if req.DryRun {
		return result, nil
	}

	overlayRoot := mapper.OverlayRoot(name)
	if leftover, err := e.fs.Exists(overlayRoot); err != nil {
		return nil, ioError("stat", overlayRoot, err)
	} else if leftover {
		// Not in the catalog, so this is debris from an interrupted import.
		e.logger.Warn("removing unregistered managed directory", "overlay", name, "path", overlayRoot)
		if err := e.fs.RemoveAll(overlayRoot); err != nil {
			return nil, ioError("remove", overlayRoot, err)
		}
	}

	for i, source := range sources {
		if err := ctx.Err(); err != nil {
			e.discardManaged(overlayRoot)
			return nil, &ProgressError{Op: "import", Overlay: name, Processed: i, Total: len(sources), Path: rels[i], Err: err}
		}
		if err := e.fs.CopyFile(source, overlay.Files[i]); err != nil {
			e.discardManaged(overlayRoot)
			return nil, &ProgressError{
				Op: "import", Overlay: name, Processed: i, Total: len(sources), Path: rels[i],
				Err: ioError("copy", source, err),
			}
		}
	}

	if err := e.catalog.InsertOverlay(overlay); err != nil {
		e.discardManaged(overlayRoot)
		return nil, fmt.Errorf("failed to register overlay: %w", err)
	}

	e.logger.Info("overlay imported", "overlay", name, "files", len(overlay.Files), "source", src)
	return result, nil
}

// discardManaged removes a partially imported overlay directory.
func (e *Engine) discardManaged(overlayRoot string) {
	if err := e.fs.RemoveAll(overlayRoot); err != nil {
		e.logger.Error("failed to clean up managed directory", "path", overlayRoot, "error", err)
	}
}
