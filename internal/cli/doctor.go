package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	cliadapter "github.com/example/stackup/internal/adapters/cli"
	"github.com/example/stackup/internal/app"
	"github.com/example/stackup/internal/config"
	"github.com/example/stackup/internal/wire"
)

// DoctorCmd returns the doctor command for environment validation
func DoctorCmd() *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check that the tools stackup needs are installed",
		Long: `Check external tools before anything is generated.

Validates:
- python3 (3.10 or newer) and pip3
- psql when the database mode is local
- prerequisites listed in the project config and its features

Examples:
  stackup doctor              # Print the report
  stackup doctor --quiet      # Exit code only (0=healthy, 1=issues)`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := wire.Config()
			if err != nil {
				if !quiet {
					fmt.Printf("No usable %s, checking base tools only\n", wire.ConfigPath())
				}
				cfg = config.ProjectConfig{}
			}
			adapter := cliadapter.NewDoctorAdapter(wire.PrerequisiteService(), os.Stdout)
			return adapter.Check(cmd.Context(), app.RequirementsFor(cfg), quiet)
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "exit code only")
	return cmd
}
