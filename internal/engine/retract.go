package engine

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/danieljhkim/modlay/internal/planner"
)

// Retract removes an overlay's projected files from the installation root
// and restores archived originals.
//
// For every file in lexical order the target is deleted (a missing target
// is fine). If the target is in the backed-up set its archived original is
// copied back and the path leaves the set. The backed-up set is shared by
// all overlays: if another applied overlay also projects the target, its
// file is lost here. The plan's Overlaps report when that happens.
//
// Retracting an overlay that is not applied succeeds without touching
// anything, unless Force is set. An interrupted apply leaves the overlay
// unapplied with some files projected; Force retracts those.
func (e *Engine) Retract(ctx context.Context, req *RetractRequest) (*RetractResult, error) {
	overlay, err := e.loadOverlay(req.Name)
	if err != nil {
		return nil, err
	}

	installRoot, err := e.requireInstallRoot()
	if err != nil {
		return nil, err
	}

	if !overlay.Applied && !req.Force {
		e.logger.Info("overlay not applied; nothing to retract", "overlay", overlay.Name)
		return &RetractResult{
			Plan:        planner.NewPlan(planner.KindRetract, overlay.Name),
			Removed:     []string{},
			Restored:    []string{},
			InstallRoot: installRoot,
		}, nil
	}

	in, err := e.planInput(overlay, installRoot)
	if err != nil {
		return nil, err
	}
	plan, err := planner.BuildRetractPlan(in)
	if err != nil {
		return nil, fmt.Errorf("failed to build retract plan: %w", err)
	}

	result := &RetractResult{
		Plan:        plan,
		Removed:     []string{},
		Restored:    []string{},
		InstallRoot: installRoot,
	}
	if req.DryRun {
		return result, nil
	}

	for _, overlap := range plan.Overlaps {
		e.logger.Warn("retract affects applied overlay",
			"overlay", overlay.Name, "target", overlap.TargetPath, "others", overlap.Overlays, "reason", overlap.Reason)
	}

	total := len(plan.Steps)
	for i, step := range plan.Steps {
		fail := func(err error) (*RetractResult, error) {
			return result, &ProgressError{Op: "retract", Overlay: overlay.Name, Processed: i, Total: total, Path: step.RelPath, Err: err}
		}

		if err := ctx.Err(); err != nil {
			return fail(err)
		}

		if err := e.fs.Remove(step.TargetPath); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return fail(ioError("remove", step.TargetPath, err))
			}
		} else {
			result.Removed = append(result.Removed, step.TargetPath)
		}

		if !step.Restore {
			continue
		}
		if err := e.fs.CopyFile(step.ArchivePath, step.TargetPath); err != nil {
			return fail(ioError("restore", step.TargetPath, err))
		}
		if err := e.catalog.RemoveBackedUpPath(step.TargetPath); err != nil {
			return fail(fmt.Errorf("failed to forget backup: %w", err))
		}
		result.Restored = append(result.Restored, step.TargetPath)
		e.logger.Debug("restored original", "target", step.TargetPath, "archive", step.ArchivePath)
	}

	if err := e.catalog.SetApplied(overlay.Name, false); err != nil {
		return result, fmt.Errorf("failed to mark overlay retracted: %w", err)
	}

	e.logger.Info("overlay retracted",
		"overlay", overlay.Name, "removed", len(result.Removed), "restored", len(result.Restored))
	return result, nil
}
