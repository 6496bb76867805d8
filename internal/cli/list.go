package cli

import (
	"context"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

var lsCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List imported overlays",
	Long:    `Display all imported overlays, most recently imported first.`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, closeEngine, err := newEngine()
		if err != nil {
			return err
		}
		defer closeEngine()

		ctx := context.Background()

		overlays, err := eng.ListOverlays(ctx)
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(overlays)
		}

		if len(overlays) == 0 {
			PrintSection("Overlays")
			PrintEmptyState("No overlays imported")
			return nil
		}

		PrintSection("Overlays")
		rows := make([][]string, 0, len(overlays))
		for _, o := range overlays {
			rows = append(rows, []string{
				o.Name,
				overlayStatus(o.Applied),
				strconv.Itoa(len(o.Files)),
				o.CreatedAt.Local().Format(time.DateTime),
			})
		}
		PrintTable([]string{"Name", "Status", "Files", "Imported"}, rows)
		return nil
	},
}
