package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/modlay/internal/engine"
)

var (
	rmForce  bool
	rmDryRun bool
)

var rmCmd = &cobra.Command{
	Use:   "rm <name>",
	Short: "Delete an overlay from managed storage",
	Long: `Delete an overlay permanently, including its managed copy of the mod files.

An applied overlay should be retracted first with 'modlay unapply'. If it is still
applied you'll be prompted to confirm deletion unless --force is used.

Deleting an applied overlay will:
  - Remove the overlay's managed files permanently
  - NOT remove its files from the game directory
  - NOT restore archived originals (they stay archived)`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, closeEngine, err := newEngine()
		if err != nil {
			return err
		}
		defer closeEngine()

		ctx := context.Background()
		name := args[0]

		req := &engine.RemoveRequest{
			Name:   name,
			Force:  rmForce,
			DryRun: rmDryRun,
		}

		result, err := eng.Remove(ctx, req)

		// Applied overlay without --force: explain and ask
		if errors.Is(err, engine.ErrOverlayApplied) && !jsonOutput && !rmDryRun {
			PrintSection("Delete Overlay")
			PrintWarning(fmt.Sprintf("Overlay '%s' is applied to the game directory.", name))
			PrintWarning("Deleting will:")
			PrintList([]string{
				fmt.Sprintf("Remove %s from managed storage", PrintCount(result.FileCount, "file", "files")),
				"Leave the applied files in the game directory",
				fmt.Sprintf("NOT restore originals (use 'modlay unapply %s' first)", name),
			}, 1)
			fmt.Println()

			if err := confirm("Proceed"); err != nil {
				return err
			}

			req.Force = true
			result, err = eng.Remove(ctx, req)
		}

		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(result)
		}

		if rmDryRun {
			PrintSection("Dry Run: Delete Overlay")
			PrintInfo(fmt.Sprintf("Overlay: %s (%s)", result.Name, PrintCount(result.FileCount, "file", "files")))
			if result.Applied {
				PrintWarning("Overlay is applied; --force is required to delete it")
			}
			PrintWarning("Run without --dry-run to delete")
			return nil
		}

		PrintSuccess(fmt.Sprintf("Deleted overlay: %s", result.Name))
		return nil
	},
}

func init() {
	rmCmd.Flags().BoolVarP(&rmForce, "force", "f", false, "Delete even if applied, without confirmation")
	rmCmd.Flags().BoolVar(&rmDryRun, "dry-run", false, "Show what would be deleted without deleting")
}
