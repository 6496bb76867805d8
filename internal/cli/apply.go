package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/modlay/internal/engine"
	"github.com/danieljhkim/modlay/internal/planner"
)

var applyDryRun bool

var applyCmd = &cobra.Command{
	Use:   "apply <name>",
	Short: "Apply an overlay to the game directory",
	Long: `Copy an imported overlay's files into the game directory.

Game files that would be overwritten are archived first, unless an original for
that path is already archived by an earlier overlay. Retracting the overlay with
'modlay unapply' restores them.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, closeEngine, err := newEngine()
		if err != nil {
			return err
		}
		defer closeEngine()

		ctx := context.Background()

		result, err := eng.Apply(ctx, &engine.ApplyRequest{
			Name:   args[0],
			DryRun: applyDryRun,
		})
		if err != nil {
			if result != nil && len(result.Applied) > 0 {
				PrintWarning(fmt.Sprintf("%s were written before the failure; run 'modlay unapply --force %s' to undo them",
					PrintCount(len(result.Applied), "file", "files"), args[0]))
			}
			return err
		}

		if jsonOutput {
			return outputJSON(result)
		}

		printOverlaps(result.Plan)

		if applyDryRun {
			PrintSection("Dry Run")
			PrintInfo(fmt.Sprintf("Would apply %s to %s", PrintCount(len(result.Plan.Steps), "file", "files"), result.InstallRoot))
			if len(result.Plan.Steps) > 0 {
				PrintSubsection("Operations:")
				ops := make([]string, 0, len(result.Plan.Steps))
				for _, step := range result.Plan.Steps {
					op := "copy"
					if step.Archive {
						op = "archive + copy"
					} else if step.TargetExists {
						op = "overwrite"
					}
					ops = append(ops, fmt.Sprintf("%s: %s", op, step.RelPath))
				}
				PrintList(ops, 1)
			}
			return nil
		}

		PrintSuccess(fmt.Sprintf("Applied %s from '%s'", PrintCount(len(result.Applied), "file", "files"), args[0]))
		if len(result.Archived) > 0 {
			PrintLabelValue("Originals archived", fmt.Sprintf("%d", len(result.Archived)))
		}
		PrintLabelValue("Game directory", result.InstallRoot)
		return nil
	},
}

func init() {
	applyCmd.Flags().BoolVar(&applyDryRun, "dry-run", false, "Show what would be applied without applying")
}

// printOverlaps warns about targets shared with other applied overlays.
func printOverlaps(plan *planner.Plan) {
	if !plan.HasOverlaps() {
		return
	}
	PrintSection("Shared Files")
	for _, overlap := range plan.Overlaps {
		PrintWarning(fmt.Sprintf("%s (%s): %s", overlap.TargetPath, strings.Join(overlap.Overlays, ", "), overlap.Reason))
	}
	fmt.Println()
}
