package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/modlay/internal/engine"
)

var (
	backupsClearYes    bool
	backupsClearDryRun bool
)

var backupsCmd = &cobra.Command{
	Use:   "backups",
	Short: "Inspect and clear archived game files",
	Long: `Manage the archive of original game files.

When an overlay first overwrites a game file, the original is archived and its
path recorded. Retracting the overlay restores it.`,
}

var backupsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List archived originals",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBackupsList(false)
	},
}

var backupsVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check that every recorded original is still archived",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBackupsList(true)
	},
}

var backupsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget all archived originals and delete the archive",
	Long: `Delete every archived original and forget which game files were backed up.

Nothing is restored. Applied overlays keep their files in the game directory,
and retracting them afterwards deletes those files without restoring anything.
Use this after a game update or reinstall has replaced the originals.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, closeEngine, err := newEngine()
		if err != nil {
			return err
		}
		defer closeEngine()

		ctx := context.Background()

		preview, err := eng.ClearBackups(ctx, &engine.ClearBackupsRequest{DryRun: true})
		if err != nil {
			return err
		}

		if backupsClearDryRun {
			if jsonOutput {
				return outputJSON(preview)
			}
			PrintSection("Dry Run: Clear Backups")
			printClearSummary(preview)
			PrintWarning("Run without --dry-run to clear")
			return nil
		}

		if !backupsClearYes {
			if jsonOutput {
				return fmt.Errorf("%w: --yes is required with --json", engine.ErrValidation)
			}
			PrintSection("Clear Backups")
			printClearSummary(preview)
			if err := confirm("Delete all archived originals"); err != nil {
				return err
			}
		}

		result, err := eng.ClearBackups(ctx, &engine.ClearBackupsRequest{})
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(result)
		}
		PrintSuccess(fmt.Sprintf("Cleared %s", PrintCount(len(result.Paths), "archived original", "archived originals")))
		return nil
	},
}

func init() {
	backupsClearCmd.Flags().BoolVarP(&backupsClearYes, "yes", "y", false, "Clear without confirmation")
	backupsClearCmd.Flags().BoolVar(&backupsClearDryRun, "dry-run", false, "Show what would be cleared without clearing")

	backupsCmd.AddCommand(backupsLsCmd)
	backupsCmd.AddCommand(backupsVerifyCmd)
	backupsCmd.AddCommand(backupsClearCmd)
}

func printClearSummary(result *engine.ClearBackupsResult) {
	PrintInfo(fmt.Sprintf("%s recorded under %s",
		PrintCount(len(result.Paths), "archived original", "archived originals"), result.ArchiveRoot))
	if len(result.AppliedOverlays) > 0 {
		PrintWarning(fmt.Sprintf("Still applied, originals will not come back on unapply: %s",
			strings.Join(result.AppliedOverlays, ", ")))
	}
	fmt.Println()
}

// runBackupsList lists the backed-up set; with verify a missing archive
// fails the command.
func runBackupsList(verify bool) error {
	eng, closeEngine, err := newEngine()
	if err != nil {
		return err
	}
	defer closeEngine()

	ctx := context.Background()

	var result *engine.BackupsResult
	if verify {
		result, err = eng.VerifyBackups(ctx)
	} else {
		result, err = eng.ListBackups(ctx)
	}
	if err != nil && !errors.Is(err, engine.ErrBackupMissing) {
		return err
	}

	if jsonOutput {
		if jsonErr := outputJSON(result); jsonErr != nil {
			return jsonErr
		}
		return err
	}

	PrintSection("Archived Originals")
	if len(result.Entries) == 0 {
		PrintEmptyState("No archived originals")
		return nil
	}

	rows := make([][]string, 0, len(result.Entries))
	for _, entry := range result.Entries {
		state := "archived"
		switch {
		case entry.ForeignRoot:
			state = "OTHER ROOT"
		case !entry.ArchivePresent:
			state = "MISSING"
		}
		rows = append(rows, []string{entry.TargetPath, state})
	}
	PrintTable([]string{"Game File", "Archive"}, rows)
	fmt.Println()

	if result.Missing > 0 {
		PrintWarning(fmt.Sprintf("%s missing from the archive or recorded under another game directory",
			PrintCount(result.Missing, "original is", "originals are")))
	} else if verify {
		PrintSuccess("All archived originals present")
	}
	return err
}
