package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	cliadapter "github.com/example/stackup/internal/adapters/cli"
	"github.com/example/stackup/internal/app"
	"github.com/example/stackup/internal/config"
	apperrors "github.com/example/stackup/internal/errors"
	"github.com/example/stackup/internal/phases"
	"github.com/example/stackup/internal/wire"
)

// RunCmd returns the run command
func RunCmd() *cobra.Command {
	var through string
	var yes bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run every phase up to and including --through",
		Long: `Bring the project up to the requested phase in one run.

Phases that are already complete are skipped, so running this again
on a finished project changes nothing.

Examples:
  stackup run                     # bootstrap, auth and feature
  stackup run --through auth      # stop after the auth phase
  stackup run --yes               # no confirmation prompts`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, ok := phases.Get(through); !ok {
				return apperrors.Newf(apperrors.CodeUsage, "unknown phase %q (valid: %v)", through, phases.IDs())
			}
			cfg, err := wire.Config()
			if err != nil {
				return err
			}
			title := fmt.Sprintf("Generate %s through phase %s?", cfg.ProjectName, through)
			if err := prepare(cmd.Context(), cfg, yes, title); err != nil {
				return err
			}

			orch, err := wire.Orchestrator()
			if err != nil {
				return err
			}
			return cliadapter.NewPhaseAdapter(orch, os.Stdout).RunThrough(cmd.Context(), through)
		},
	}

	cmd.Flags().StringVar(&through, "through", phases.Feature, "last phase to run")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation prompts")
	return cmd
}

// PhaseCmd returns the phase command
func PhaseCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "phase <id>",
		Short: "Run a single phase",
		Long: `Run one phase. Its predecessor must already be complete.

Phases: bootstrap, auth, feature`,
		Args:      exactArgs(1),
		ValidArgs: phases.IDs(),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if _, ok := phases.Get(id); !ok {
				return apperrors.Newf(apperrors.CodeUsage, "unknown phase %q (valid: %v)", id, phases.IDs())
			}
			cfg, err := wire.Config()
			if err != nil {
				return err
			}
			if err := prepare(cmd.Context(), cfg, yes, fmt.Sprintf("Run phase %s for %s?", id, cfg.ProjectName)); err != nil {
				return err
			}

			orch, err := wire.Orchestrator()
			if err != nil {
				return err
			}
			return cliadapter.NewPhaseAdapter(orch, os.Stdout).Run(cmd.Context(), id)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation prompts")
	return cmd
}

// prepare runs the prerequisite gate and, unless yes is set, asks for
// confirmation and any missing superuser password. Nothing is mutated
// before it returns nil.
func prepare(ctx context.Context, cfg config.ProjectConfig, yes bool, title string) error {
	gate := cliadapter.NewDoctorAdapter(wire.PrerequisiteService(), os.Stderr)
	if err := gate.Gate(ctx, app.RequirementsFor(cfg)); err != nil {
		return err
	}
	if yes {
		return nil
	}
	if err := confirm(title); err != nil {
		return err
	}
	return promptSuperuserPassword(cfg)
}
