package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/stackup/internal/cli"
	"github.com/example/stackup/internal/config"
	apperrors "github.com/example/stackup/internal/errors"
	"github.com/example/stackup/internal/logger"
	"github.com/example/stackup/internal/version"
	"github.com/example/stackup/internal/wire"
)

func main() {
	var opts cli.GlobalOptions

	rootCmd := &cobra.Command{
		Use:     "stackup",
		Short:   "stackup - generate a Django project backed by PostgreSQL",
		Version: version.String(),
		Long: `stackup brings a Django project up in ordered phases: bootstrap
(project, secrets and database), auth (accounts app) and feature
(extra apps). Every phase is safe to run again.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return cli.Setup(opts)
		},
	}
	rootCmd.SetFlagErrorFunc(cli.UsageError)

	rootCmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", config.DefaultFileName, "project config file")
	rootCmd.PersistentFlags().StringVar(&opts.Dir, "dir", "", "project root (default: current directory)")

	// Add subcommands
	rootCmd.AddCommand(cli.InitCmd())
	rootCmd.AddCommand(cli.DoctorCmd())
	rootCmd.AddCommand(cli.StatusCmd())
	rootCmd.AddCommand(cli.RunCmd())
	rootCmd.AddCommand(cli.PhaseCmd())
	rootCmd.AddCommand(cli.SecretCmd())
	rootCmd.AddCommand(cli.HistoryCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	wire.Close()
	logger.Sync()

	if err != nil {
		apperrors.Print(os.Stderr, err)
		os.Exit(apperrors.ExitCode(err))
	}
}
