package cli

import (
	"os"

	"github.com/spf13/cobra"

	cliadapter "github.com/example/stackup/internal/adapters/cli"
	apperrors "github.com/example/stackup/internal/errors"
	"github.com/example/stackup/internal/wire"
)

// HistoryCmd returns the history command
func HistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List recorded runs, or show one run",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 1 {
				return apperrors.Newf(apperrors.CodeUsage, "%s accepts at most one run id", cmd.CommandPath())
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := wire.HistoryService()
			if err != nil {
				return err
			}
			adapter := cliadapter.NewHistoryAdapter(svc, os.Stdout)
			if len(args) == 1 {
				return adapter.Show(cmd.Context(), args[0])
			}
			return adapter.List(cmd.Context(), limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to list (0 for all)")
	return cmd
}
