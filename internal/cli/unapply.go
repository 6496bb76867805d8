package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/modlay/internal/engine"
)

var (
	unapplyForce  bool
	unapplyDryRun bool
)

var unapplyCmd = &cobra.Command{
	Use:     "unapply <name>",
	Aliases: []string{"retract"},
	Short:   "Retract an overlay from the game directory",
	Long: `Delete an applied overlay's files from the game directory and restore any
archived originals.

Unapplying an overlay that is not applied does nothing unless --force is given;
use --force to clean up after an apply that failed part way through.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, closeEngine, err := newEngine()
		if err != nil {
			return err
		}
		defer closeEngine()

		ctx := context.Background()

		result, err := eng.Retract(ctx, &engine.RetractRequest{
			Name:   args[0],
			Force:  unapplyForce,
			DryRun: unapplyDryRun,
		})
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(result)
		}

		printOverlaps(result.Plan)

		if unapplyDryRun {
			PrintInfo(fmt.Sprintf("Dry run - would remove %s and restore %d originals",
				PrintCount(len(result.Plan.Steps), "path", "paths"), result.Plan.RestoreCount()))
			return nil
		}

		if len(result.Plan.Steps) == 0 {
			PrintInfo(fmt.Sprintf("Overlay '%s' is not applied; nothing to do", args[0]))
			return nil
		}

		PrintSuccess(fmt.Sprintf("Removed %s successfully", PrintCount(len(result.Removed), "path", "paths")))
		if len(result.Restored) > 0 {
			PrintLabelValue("Originals restored", fmt.Sprintf("%d", len(result.Restored)))
		}
		return nil
	},
}

func init() {
	unapplyCmd.Flags().BoolVarP(&unapplyForce, "force", "f", false, "Retract even if the overlay is not marked applied")
	unapplyCmd.Flags().BoolVar(&unapplyDryRun, "dry-run", false, "Show what would be removed without removing")
}
