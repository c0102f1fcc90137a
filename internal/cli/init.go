package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/example/stackup/internal/config"
	apperrors "github.com/example/stackup/internal/errors"
	"github.com/example/stackup/internal/wire"
)

// initAnswers holds the values collected by the init form.
type initAnswers struct {
	ProjectName string
	ModuleName  string
	Title       string
	Mode        string
	DBName      string
	DBUser      string
	DBPassword  string
	DBHost      string
	DBPort      string
	Features    string // Comma separated feature app names
}

// InitCmd returns the init command
func InitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create stackup.yaml interactively",
		Long: `Ask for the project, module and database settings and write them to
the project config. The file holds credentials and is written with
owner-only permissions.`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := wire.ConfigPath()
			if _, err := os.Stat(path); err == nil && !force {
				return apperrors.Newf(apperrors.CodeUsage, "%s already exists (use --force to overwrite)", path)
			}

			answers := initAnswers{Mode: string(config.ModeLocal), DBHost: "localhost", DBPort: "5432"}
			if err := initForm(&answers).Run(); err != nil {
				return aborted(err)
			}

			cfg, err := buildConfig(answers)
			if err != nil {
				return err
			}
			if err := config.Save(path, cfg); err != nil {
				return apperrors.Wrap(err, apperrors.CodeArtifactIO, "save config")
			}
			fmt.Printf("✓ Wrote %s\n", path)
			fmt.Println("  Next: stackup doctor, then stackup run")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config")
	return cmd
}

func initForm(a *initAnswers) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Project name").
				Description("Python package holding settings and URLs").
				Value(&a.ProjectName).
				Validate(moduleName),
			huh.NewInput().
				Title("Primary module").
				Description("The app serving the site root").
				Value(&a.ModuleName).
				Validate(moduleName),
			huh.NewInput().
				Title("Site title").
				Value(&a.Title),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Database").
				Options(
					huh.NewOption("Create it on a local PostgreSQL server", string(config.ModeLocal)),
					huh.NewOption("Use an existing remote database", string(config.ModeRemote)),
				).
				Value(&a.Mode),
			huh.NewInput().
				Title("Database name").
				Value(&a.DBName).
				Validate(roleName),
			huh.NewInput().
				Title("Database user").
				Value(&a.DBUser).
				Validate(roleName),
			huh.NewInput().
				Title("Database password").
				EchoMode(huh.EchoModePassword).
				Value(&a.DBPassword).
				Validate(func(s string) error {
					if s == "" {
						return errors.New("password is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Host").
				Value(&a.DBHost),
			huh.NewInput().
				Title("Port").
				Value(&a.DBPort).
				Validate(func(s string) error {
					_, err := parsePort(s)
					return err
				}),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Feature apps").
				Description("Comma separated, e.g. videos,blog (optional)").
				Value(&a.Features),
		),
	)
}

func moduleName(s string) error {
	if !config.IsModuleName(s) {
		return fmt.Errorf("%q is not a usable Python package name", s)
	}
	return nil
}

func roleName(s string) error {
	if !config.IsRoleName(s) {
		return fmt.Errorf("%q must be lowercase letters, digits and underscores", s)
	}
	return nil
}

func parsePort(s string) (int, error) {
	port, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || port < 1 || port > 65535 {
		return 0, fmt.Errorf("%q is not a valid port", s)
	}
	return port, nil
}

// buildConfig turns form answers into a defaulted, validated config.
func buildConfig(a initAnswers) (config.ProjectConfig, error) {
	port, err := parsePort(a.DBPort)
	if err != nil {
		return config.ProjectConfig{}, apperrors.Wrap(err, apperrors.CodeConfigInvalid, "database.port")
	}
	cfg := config.ProjectConfig{
		ProjectName: strings.TrimSpace(a.ProjectName),
		ModuleName:  strings.TrimSpace(a.ModuleName),
		Display:     config.DisplayConfig{Title: strings.TrimSpace(a.Title)},
		Database: config.DatabaseConfig{
			Mode:     config.DatabaseMode(a.Mode),
			Name:     strings.TrimSpace(a.DBName),
			User:     strings.TrimSpace(a.DBUser),
			Password: a.DBPassword,
			Host:     strings.TrimSpace(a.DBHost),
			Port:     port,
		},
	}
	for _, name := range strings.Split(a.Features, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		cfg.Features = append(cfg.Features, config.FeatureModule{Name: name, Route: strings.ToLower(name) + "/"})
	}

	cfg = config.ApplyDefaults(cfg)
	if err := config.Validate(cfg); err != nil {
		return config.ProjectConfig{}, err
	}
	return cfg, nil
}
