package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/modlay/internal/engine"
)

var installRootSetForce bool

var installRootCmd = &cobra.Command{
	Use:   "install-root",
	Short: "Show or set the game directory",
	Long:  `Manage the game installation directory overlays are applied to.`,
}

var installRootShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the game directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, closeEngine, err := newEngine()
		if err != nil {
			return err
		}
		defer closeEngine()

		root, err := eng.InstallRoot(context.Background())
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(map[string]string{"installRoot": root})
		}
		PrintInfo(root)
		return nil
	},
}

var installRootSetCmd = &cobra.Command{
	Use:   "set <dir>",
	Short: "Set the game directory",
	Long: `Set the game installation directory overlays are applied to.

Changing the directory is refused unless --force is given while overlays are
applied, or while originals from the current directory are still archived.
Unapply the overlays or run 'modlay backups clear' first.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, closeEngine, err := newEngine()
		if err != nil {
			return err
		}
		defer closeEngine()

		root, err := eng.SetInstallRoot(context.Background(), &engine.SetInstallRootRequest{
			Path:  args[0],
			Force: installRootSetForce,
		})
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(map[string]string{"installRoot": root})
		}
		PrintSuccess(fmt.Sprintf("Game directory set to %s", root))
		return nil
	},
}

func init() {
	installRootSetCmd.Flags().BoolVarP(&installRootSetForce, "force", "f", false, "Change the directory even while overlays are applied")

	installRootCmd.AddCommand(installRootShowCmd)
	installRootCmd.AddCommand(installRootSetCmd)
}
