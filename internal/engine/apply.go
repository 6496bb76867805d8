package engine

import (
	"context"
	"fmt"

	"github.com/danieljhkim/modlay/internal/planner"
)

// Apply projects an overlay onto the installation root.
//
// Algorithm steps:
// 1. Load the overlay (must not be applied) and the installation root
// 2. Build the apply plan against the current backed-up path set
// 3. For each file in lexical order: archive the original if the plan says
//    so and record it in the backed-up set, then copy the managed file over
//    the target
// 4. Mark the overlay applied
//
// A failure mid-loop returns a *ProgressError; files already handled stay
// applied and their archives stay recorded.
func (e *Engine) Apply(ctx context.Context, req *ApplyRequest) (*ApplyResult, error) {
	overlay, err := e.loadOverlay(req.Name)
	if err != nil {
		return nil, err
	}
	if overlay.Applied {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyApplied, overlay.Name)
	}

	installRoot, err := e.requireInstallRoot()
	if err != nil {
		return nil, err
	}

	in, err := e.planInput(overlay, installRoot)
	if err != nil {
		return nil, err
	}
	plan, err := planner.BuildApplyPlan(in)
	if err != nil {
		return nil, fmt.Errorf("failed to build apply plan: %w", err)
	}

	result := &ApplyResult{
		Plan:        plan,
		Applied:     []string{},
		Archived:    []string{},
		InstallRoot: installRoot,
	}
	if req.DryRun {
		return result, nil
	}

	for _, overlap := range plan.Overlaps {
		e.logger.Warn("target shared with applied overlay",
			"overlay", overlay.Name, "target", overlap.TargetPath, "others", overlap.Overlays)
	}

	total := len(plan.Steps)
	for i, step := range plan.Steps {
		fail := func(err error) (*ApplyResult, error) {
			return result, &ProgressError{Op: "apply", Overlay: overlay.Name, Processed: i, Total: total, Path: step.RelPath, Err: err}
		}

		if err := ctx.Err(); err != nil {
			return fail(err)
		}

		if step.Archive {
			if err := e.fs.CopyFile(step.TargetPath, step.ArchivePath); err != nil {
				return fail(ioError("archive", step.TargetPath, err))
			}
			if err := e.catalog.AddBackedUpPaths([]string{step.TargetPath}); err != nil {
				return fail(fmt.Errorf("failed to record backup: %w", err))
			}
			result.Archived = append(result.Archived, step.TargetPath)
			e.logger.Debug("archived original", "target", step.TargetPath, "archive", step.ArchivePath)
		}

		if err := e.fs.CopyFile(step.ManagedPath, step.TargetPath); err != nil {
			return fail(ioError("copy", step.ManagedPath, err))
		}
		result.Applied = append(result.Applied, step.TargetPath)
		e.logger.Debug("projected file", "overlay", overlay.Name, "target", step.TargetPath)
	}

	if err := e.catalog.SetApplied(overlay.Name, true); err != nil {
		return result, fmt.Errorf("failed to mark overlay applied: %w", err)
	}

	e.logger.Info("overlay applied",
		"overlay", overlay.Name, "files", len(result.Applied), "archived", len(result.Archived))
	return result, nil
}
