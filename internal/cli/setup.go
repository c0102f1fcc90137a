package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/huh"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/stackup/internal/config"
	apperrors "github.com/example/stackup/internal/errors"
	"github.com/example/stackup/internal/logger"
	"github.com/example/stackup/internal/wire"
)

// GlobalOptions are the persistent flags shared by every command.
type GlobalOptions struct {
	Dir        string
	ConfigPath string
}

// Setup loads engine settings, initializes logging and configures wire.
// It runs before every command.
func Setup(opts GlobalOptions) error {
	dir := opts.Dir
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get working directory: %w", err)
		}
		dir = cwd
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeUsage, "resolve --dir")
	}

	settings, err := config.LoadSettings(dir)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeConfigInvalid, "load settings")
	}
	if _, err := logger.Init(settings.LogLevel, settings.LogFormat); err != nil {
		return apperrors.Wrap(err, apperrors.CodeConfigInvalid, "init logger")
	}
	if settings.NoColor {
		color.NoColor = true
	}

	wire.Configure(wire.Options{
		Dir:        dir,
		ConfigPath: opts.ConfigPath,
		Settings:   settings,
	})
	return nil
}

// UsageError marks flag and argument errors so they exit with the usage code.
func UsageError(cmd *cobra.Command, err error) error {
	return apperrors.Wrap(err, apperrors.CodeUsage, cmd.CommandPath())
}

// exactArgs is cobra.ExactArgs with a coded error.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return UsageError(cmd, err)
		}
		return nil
	}
}

// confirm asks a yes/no question. Declining, or having no terminal to ask
// on, aborts with ABORTED.
func confirm(title string) error {
	ok := false
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Affirmative("Yes").
				Negative("No").
				Value(&ok),
		),
	).Run()
	if err != nil {
		return aborted(err)
	}
	if !ok {
		return apperrors.New(apperrors.CodeAborted, "aborted by user")
	}
	return nil
}

// promptSuperuserPassword asks for the local superuser password when the
// config does not carry one. An empty answer is allowed for trust auth.
func promptSuperuserPassword(cfg config.ProjectConfig) error {
	if !cfg.Local() || cfg.Database.SuperuserPassword != "" {
		return nil
	}
	var pw string
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(fmt.Sprintf("Password for PostgreSQL superuser %q", cfg.Database.Superuser)).
				Description("Leave empty for peer or trust authentication.").
				EchoMode(huh.EchoModePassword).
				Value(&pw),
		),
	).Run()
	if err != nil {
		return aborted(err)
	}
	wire.SetSuperuserPassword(pw)
	return nil
}

func aborted(err error) error {
	if errors.Is(err, huh.ErrUserAborted) {
		return apperrors.New(apperrors.CodeAborted, "aborted by user")
	}
	return apperrors.Wrap(err, apperrors.CodeAborted, "interactive prompt failed (use --yes to run unattended)")
}
