package cli

import (
	"os"

	"github.com/spf13/cobra"

	cliadapter "github.com/example/stackup/internal/adapters/cli"
	"github.com/example/stackup/internal/wire"
)

// StatusCmd returns the status command
func StatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show which phases are complete",
		Long: `Detect the state of every phase from the project tree, the env
store and the database. Nothing is changed.`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			orch, err := wire.Orchestrator()
			if err != nil {
				return err
			}
			return cliadapter.NewPhaseAdapter(orch, os.Stdout).Status(cmd.Context())
		},
	}
}
