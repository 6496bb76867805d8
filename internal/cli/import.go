package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/modlay/internal/engine"
)

var importDryRun bool

var importCmd = &cobra.Command{
	Use:   "import <dir>",
	Short: "Copy a mod directory into managed storage",
	Long: `Import a mod directory as a new overlay.

The overlay is named after the directory's base name. Every regular file under
the directory is copied into managed storage; empty directories are ignored.
Importing does not touch the game directory - use 'modlay apply' for that.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, closeEngine, err := newEngine()
		if err != nil {
			return err
		}
		defer closeEngine()

		ctx := context.Background()

		result, err := eng.Import(ctx, &engine.ImportRequest{
			SourceDir: args[0],
			DryRun:    importDryRun,
		})
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(result)
		}

		overlay := result.Overlay
		if importDryRun {
			PrintSection("Dry Run")
			PrintInfo(fmt.Sprintf("Would import %s as '%s'", PrintCount(len(overlay.Files), "file", "files"), overlay.Name))
			PrintList(result.RelPaths, 1)
			return nil
		}

		PrintSuccess(fmt.Sprintf("Imported overlay '%s' (%s)", overlay.Name, PrintCount(len(overlay.Files), "file", "files")))
		PrintLabelValue("Source", result.SourceDir)
		return nil
	},
}

func init() {
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Show what would be imported without copying")
}
