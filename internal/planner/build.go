package planner

import (
	"fmt"
	"sort"

	"github.com/danieljhkim/modlay/internal/catalog"
	"github.com/danieljhkim/modlay/internal/fsops"
	"github.com/danieljhkim/modlay/internal/pathmap"
)

// Input bundles what both plan builders need.
type Input struct {
	// Overlay is the overlay being applied or retracted
	Overlay *catalog.Overlay

	// Others are all other registered overlays (only applied ones matter)
	Others []catalog.Overlay

	// Mapper computes target and archive paths
	Mapper pathmap.Mapper

	// BackedUp is the current backed-up path set
	BackedUp map[string]struct{}

	// FS is used to probe the installation root
	FS fsops.FS
}

// BuildApplyPlan generates the apply plan for an overlay.
//
// A step archives the existing target only when the target is not already
// in the backed-up set and a file currently exists there: the first overlay
// to overwrite a path preserves the original, later ones never replace it.
func BuildApplyPlan(in Input) (*Plan, error) {
	plan := NewPlan(KindApply, in.Overlay.Name)

	steps, err := buildSteps(in)
	if err != nil {
		return nil, err
	}
	for _, step := range steps {
		_, backedUp := in.BackedUp[step.TargetPath]
		step.Archive = !backedUp && step.TargetExists
		plan.AddStep(step)
	}

	owners := appliedOwners(in)
	for _, step := range plan.Steps {
		others := owners[step.TargetPath]
		if len(others) == 0 {
			continue
		}
		plan.AddOverlap(Overlap{
			TargetPath: step.TargetPath,
			Overlays:   others,
			Reason:     "overwrites a file projected by another applied overlay",
		})
	}

	return plan, nil
}

// BuildRetractPlan generates the retract plan for an overlay.
//
// A step restores the archived original when its target is in the
// backed-up set, regardless of which overlay archived it.
func BuildRetractPlan(in Input) (*Plan, error) {
	plan := NewPlan(KindRetract, in.Overlay.Name)

	steps, err := buildSteps(in)
	if err != nil {
		return nil, err
	}
	for _, step := range steps {
		_, step.Restore = in.BackedUp[step.TargetPath]
		plan.AddStep(step)
	}

	owners := appliedOwners(in)
	for _, step := range plan.Steps {
		others := owners[step.TargetPath]
		if len(others) == 0 {
			continue
		}
		reason := "removes a file still projected by another applied overlay"
		if step.Restore {
			reason = "restores the original over a file still projected by another applied overlay"
		}
		plan.AddOverlap(Overlap{
			TargetPath: step.TargetPath,
			Overlays:   others,
			Reason:     reason,
		})
	}

	return plan, nil
}

// buildSteps maps every managed file in lexical order.
func buildSteps(in Input) ([]Step, error) {
	files := append([]string(nil), in.Overlay.Files...)
	sort.Strings(files)

	steps := make([]Step, 0, len(files))
	for _, managed := range files {
		rel, err := in.Mapper.Rel(in.Overlay.Name, managed)
		if err != nil {
			return nil, err
		}
		triple, err := in.Mapper.Map(in.Overlay.Name, managed)
		if err != nil {
			return nil, err
		}
		exists, err := in.FS.IsFile(triple.Target)
		if err != nil {
			return nil, fmt.Errorf("failed to check target %s: %w", triple.Target, err)
		}
		steps = append(steps, Step{
			RelPath:      rel,
			ManagedPath:  triple.Managed,
			TargetPath:   triple.Target,
			ArchivePath:  triple.Archive,
			TargetExists: exists,
		})
	}
	return steps, nil
}

// appliedOwners maps target paths to the names of other applied overlays
// projecting them. Files of other overlays that no longer map under the
// managed root are skipped; drift is only fatal for the planned overlay.
func appliedOwners(in Input) map[string][]string {
	owners := make(map[string][]string)
	for _, other := range in.Others {
		if other.Name == in.Overlay.Name || !other.Applied {
			continue
		}
		for _, managed := range other.Files {
			target, err := in.Mapper.Target(other.Name, managed)
			if err != nil {
				continue
			}
			owners[target] = append(owners[target], other.Name)
		}
	}
	for target := range owners {
		sort.Strings(owners[target])
	}
	return owners
}
