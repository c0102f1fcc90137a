package phases

import (
	"fmt"
	"path"
	"strconv"

	"github.com/example/stackup/internal/config"
	"github.com/example/stackup/internal/core/artifact"
	"github.com/example/stackup/internal/ports/primary"
	"github.com/example/stackup/internal/ports/secondary"
	"github.com/example/stackup/internal/templates"
)

// List blocks the generated project carries.
const (
	BlockInstalledApps = "installed-apps"
	BlockRoutes        = "routes"
	BlockNav           = "nav"
)

// Env store keys written by the bootstrap phase.
const (
	KeySecret     = "SECRET_KEY"
	KeyDBName     = "DB_NAME"
	KeyDBUser     = "DB_USER"
	KeyDBPassword = "DB_PASSWORD"
	KeyDBHost     = "DB_HOST"
	KeyDBPort     = "DB_PORT"
	KeyDBSSLMode  = "DB_SSLMODE"
)

// EnvFile is the project's env store, relative to the project root.
const EnvFile = ".env"

// AuthModule is the app the auth phase generates.
const AuthModule = "accounts"

// SettingsPath is the project's settings module.
func SettingsPath(cfg config.ProjectConfig) string {
	return path.Join(cfg.ProjectName, "settings.py")
}

// URLsPath is the project's root URL conf.
func URLsPath(cfg config.ProjectConfig) string {
	return path.Join(cfg.ProjectName, "urls.py")
}

// BaseTemplatePath is the primary module's base HTML template.
func BaseTemplatePath(cfg config.ProjectConfig) string {
	return path.Join(cfg.ModuleName, "templates", cfg.ModuleName, "base.html")
}

// AppEntry is the installed-apps element for module.
func AppEntry(module string) string {
	return strconv.Quote(module) + ","
}

// RouteEntry is the routes element mounting include at prefix.
func RouteEntry(prefix, include string) string {
	return fmt.Sprintf("path(%s, include(%s)),", strconv.Quote(prefix), strconv.Quote(include))
}

// RegistrationArtifacts expresses a registration as list-block insertions:
// the installed-apps entry (when the registration names a module) followed
// by the route.
func RegistrationArtifacts(cfg config.ProjectConfig, reg primary.Registration) []artifact.Artifact {
	var out []artifact.Artifact
	if reg.Module != "" {
		out = append(out, artifact.Artifact{
			Path:     SettingsPath(cfg),
			Template: "project/settings.py",
			Strategy: artifact.InsertIntoListBlock{Block: BlockInstalledApps, Entry: AppEntry(reg.Module)},
		})
	}
	out = append(out, artifact.Artifact{
		Path:     URLsPath(cfg),
		Template: "project/urls.py",
		Strategy: artifact.InsertIntoListBlock{Block: BlockRoutes, Entry: RouteEntry(reg.Route, reg.Include())},
	})
	return out
}

// Data builds the template data for cfg. app is the Django app being
// rendered; it is zero for project-level files.
func Data(cfg config.ProjectConfig, app templates.App) templates.Data {
	return templates.Data{
		Project: cfg.ProjectName,
		Module:  cfg.ModuleName,
		Title:   cfg.Display.Title,
		Heading: cfg.Display.Heading,
		App:     app,
		DB: templates.DB{
			Name:    cfg.Database.Name,
			User:    cfg.Database.User,
			Host:    cfg.Database.Host,
			Port:    cfg.Database.Port,
			SSLMode: cfg.Database.SSLMode,
		},
	}
}

// DatabaseEnv maps resolved connection parameters to env store entries.
func DatabaseEnv(conn secondary.ConnParams) []secondary.EnvVar {
	return []secondary.EnvVar{
		{Key: KeyDBName, Value: conn.Name},
		{Key: KeyDBUser, Value: conn.User},
		{Key: KeyDBPassword, Value: conn.Password},
		{Key: KeyDBHost, Value: conn.Host},
		{Key: KeyDBPort, Value: strconv.Itoa(conn.Port)},
		{Key: KeyDBSSLMode, Value: conn.SSLMode},
	}
}
