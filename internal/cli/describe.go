package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/modlay/internal/engine"
)

var describeCmd = &cobra.Command{
	Use:   "describe <name>",
	Short: "Show overlay details and file status",
	Long: `Display an overlay and the state of each of its files in the game directory.

For applied overlays, files whose game-directory content no longer matches the
managed copy are reported as drifted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, closeEngine, err := newEngine()
		if err != nil {
			return err
		}
		defer closeEngine()

		ctx := context.Background()

		result, err := eng.Describe(ctx, args[0])
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(result)
		}

		overlay := result.Overlay
		PrintSection(fmt.Sprintf("Overlay: %s", overlay.Name))
		if overlay.Applied {
			PrintLabelValueWithColor("Status", overlayStatus(true), appliedColor)
		} else {
			PrintLabelValue("Status", overlayStatus(false))
		}
		PrintLabelValue("Imported", overlay.CreatedAt.Local().Format(time.DateTime))
		PrintLabelValue("Files", fmt.Sprintf("%d", len(overlay.Files)))
		if result.InstallRoot == "" {
			PrintLabelValue("Game directory", "(not set)")
		} else {
			PrintLabelValue("Game directory", result.InstallRoot)
		}
		if overlay.Applied && result.Drifted > 0 {
			PrintLabelValueWithColor("Drifted", PrintCount(result.Drifted, "file", "files"), driftColor)
		}
		fmt.Println()

		rows := make([][]string, 0, len(result.Files))
		for _, f := range result.Files {
			rows = append(rows, []string{f.RelPath, fileState(f, result.InstallRoot != ""), backupState(f)})
		}
		PrintTable([]string{"Path", "Game File", "Original"}, rows)
		return nil
	},
}

// fileState summarises the game-directory side of a file.
func fileState(f engine.FileStatus, haveRoot bool) string {
	switch {
	case !haveRoot:
		return "-"
	case !f.TargetPresent:
		return "absent"
	case f.Matches:
		return "matches"
	default:
		return "differs"
	}
}

func backupState(f engine.FileStatus) string {
	if f.BackedUp {
		return "archived"
	}
	return "-"
}
