// Package phases is the static catalog of generation phases: what each phase
// writes, what it registers and how its completion is detected.
package phases

import (
	"context"
	"path"

	"github.com/example/stackup/internal/config"
	"github.com/example/stackup/internal/core/artifact"
	coresecret "github.com/example/stackup/internal/core/secret"
	"github.com/example/stackup/internal/ports/primary"
	"github.com/example/stackup/internal/ports/secondary"
	"github.com/example/stackup/internal/templates"
)

// Phase identifiers in execution order.
const (
	Bootstrap = "bootstrap"
	Auth      = "auth"
	Feature   = "feature"
)

// Planned is an artifact together with the app it renders for.
type Planned struct {
	Artifact artifact.Artifact
	App      templates.App
}

// Env is what completion predicates may observe.
type Env struct {
	FS          secondary.ProjectFS
	Store       secondary.EnvStore
	Provisioner secondary.DatabaseProvisioner
}

// Phase is one unit of generation.
type Phase struct {
	ID            string
	Ordinal       int
	Secrets       []string
	Provision     bool
	Dirs          func(cfg config.ProjectConfig) []string
	Artifacts     func(cfg config.ProjectConfig) []Planned
	Registrations func(cfg config.ProjectConfig) []primary.Registration

	// extra adds checks beyond artifacts and registrations.
	extra func(ctx context.Context, cfg config.ProjectConfig, env Env) ([]string, error)
}

var catalog = []Phase{
	{
		ID:            Bootstrap,
		Ordinal:       1,
		Secrets:       []string{KeySecret},
		Provision:     true,
		Dirs:          bootstrapDirs,
		Artifacts:     bootstrapArtifacts,
		Registrations: bootstrapRegistrations,
		extra:         bootstrapExtra,
	},
	{
		ID:            Auth,
		Ordinal:       2,
		Dirs:          authDirs,
		Artifacts:     authArtifacts,
		Registrations: authRegistrations,
	},
	{
		ID:            Feature,
		Ordinal:       3,
		Dirs:          featureDirs,
		Artifacts:     featureArtifacts,
		Registrations: featureRegistrations,
	},
}

// All returns every phase in execution order.
func All() []Phase {
	out := make([]Phase, len(catalog))
	copy(out, catalog)
	return out
}

// IDs returns the phase identifiers in execution order.
func IDs() []string {
	ids := make([]string, len(catalog))
	for i, p := range catalog {
		ids[i] = p.ID
	}
	return ids
}

// Get returns the phase with id.
func Get(id string) (Phase, bool) {
	for _, p := range catalog {
		if p.ID == id {
			return p, true
		}
	}
	return Phase{}, false
}

// Predecessor returns the phase that must be complete before id, if any.
func Predecessor(id string) (Phase, bool) {
	for i, p := range catalog {
		if p.ID == id && i > 0 {
			return catalog[i-1], true
		}
	}
	return Phase{}, false
}

func create(p, tmpl string, app templates.App) Planned {
	return Planned{Artifact: artifact.Artifact{Path: p, Template: tmpl, Strategy: artifact.CreateIfAbsent{}}, App: app}
}

func appendLine(p, tmpl, marker, line string) Planned {
	return Planned{Artifact: artifact.Artifact{Path: p, Template: tmpl, Strategy: artifact.AppendUniqueLine{Marker: marker, Line: line}}}
}

func navEntry(cfg config.ProjectConfig, entry string) Planned {
	return Planned{Artifact: artifact.Artifact{
		Path:     BaseTemplatePath(cfg),
		Template: "module/base.html",
		Strategy: artifact.InsertIntoListBlock{Block: BlockNav, Entry: entry},
	}}
}

func requirement(pkg string) Planned {
	return appendLine("requirements.txt", "shared/requirements.txt", "", pkg)
}

// appFiles are the files every generated Django app starts with.
func appFiles(app templates.App, views, urls string) []Planned {
	n := app.Name
	return []Planned{
		create(path.Join(n, "__init__.py"), "shared/empty.py", app),
		create(path.Join(n, "apps.py"), "module/apps.py", app),
		create(path.Join(n, "views.py"), views, app),
		create(path.Join(n, "urls.py"), urls, app),
		create(path.Join(n, "migrations", "__init__.py"), "shared/empty.py", app),
	}
}

// Bootstrap

var basePackages = []string{
	"Django>=5.0,<6.0",
	"psycopg[binary]>=3.1",
	"python-dotenv>=1.0",
}

var ignored = []string{
	EnvFile,
	"__pycache__/",
	"*.pyc",
	".venv/",
	"media/",
	"staticfiles/",
}

func primaryApp(cfg config.ProjectConfig) templates.App {
	return templates.App{Name: cfg.ModuleName, Title: cfg.Display.Title}
}

func bootstrapDirs(cfg config.ProjectConfig) []string {
	return []string{
		cfg.ProjectName,
		path.Join(cfg.ModuleName, "migrations"),
		path.Join(cfg.ModuleName, "templates", cfg.ModuleName),
		"static",
		"media",
	}
}

func bootstrapArtifacts(cfg config.ProjectConfig) []Planned {
	p := cfg.ProjectName
	out := []Planned{
		create("manage.py", "project/manage.py", templates.App{}),
		create(path.Join(p, "__init__.py"), "shared/empty.py", templates.App{}),
		create(SettingsPath(cfg), "project/settings.py", templates.App{}),
		create(URLsPath(cfg), "project/urls.py", templates.App{}),
		create(path.Join(p, "wsgi.py"), "project/wsgi.py", templates.App{}),
		create(path.Join(p, "asgi.py"), "project/asgi.py", templates.App{}),
	}
	app := primaryApp(cfg)
	out = append(out, appFiles(app, "module/views.py", "module/urls.py")...)
	out = append(out, create(BaseTemplatePath(cfg), "module/base.html", app))
	for _, pkg := range basePackages {
		out = append(out, requirement(pkg))
	}
	for _, line := range ignored {
		out = append(out, appendLine(".gitignore", "shared/gitignore", "", line))
	}
	out = append(out, Planned{Artifact: artifact.Artifact{
		Path:     ".env.example",
		Template: "shared/env.example",
		Strategy: artifact.OverwriteAlways{},
	}})
	return out
}

func bootstrapRegistrations(cfg config.ProjectConfig) []primary.Registration {
	return []primary.Registration{{Module: cfg.ModuleName, Route: ""}}
}

var databaseKeys = []string{KeyDBName, KeyDBUser, KeyDBPassword, KeyDBHost, KeyDBPort}

func bootstrapExtra(ctx context.Context, cfg config.ProjectConfig, env Env) ([]string, error) {
	var missing []string

	secret, ok, err := env.Store.Get(ctx, KeySecret)
	if err != nil {
		return nil, err
	}
	if !ok || coresecret.IsPlaceholder(secret) {
		missing = append(missing, env.Store.Path()+": "+KeySecret)
	}
	for _, key := range databaseKeys {
		if _, ok, err := env.Store.Get(ctx, key); err != nil {
			return nil, err
		} else if !ok {
			missing = append(missing, env.Store.Path()+": "+key)
		}
	}

	// An unreachable server reads as "not provisioned yet", not as a failure.
	if _, usable, err := env.Provisioner.Inspect(ctx); err != nil || !usable {
		missing = append(missing, "database "+cfg.Database.Name)
	}
	return missing, nil
}

// Auth

var authSettings = []string{
	`AUTH_USER_MODEL = "accounts.User"`,
	`LOGIN_URL = "login"`,
	`LOGIN_REDIRECT_URL = "/"`,
	`LOGOUT_REDIRECT_URL = "/"`,
	`EMAIL_BACKEND = "django.core.mail.backends.console.EmailBackend"`,
}

const authSettingsMarker = "# Authentication"

const authNav = `{% if user.is_authenticated %}<span class="muted">Hello, {{ user.username }}!</span> <form method="post" action="{% url 'logout' %}" style="display: inline;">{% csrf_token %}<button type="submit">Logout</button></form>{% else %}<a href="{% url 'login' %}">Login</a> <a href="{% url 'signup' %}">Sign up</a>{% endif %}`

func authApp() templates.App {
	return templates.App{Name: AuthModule, Title: "Accounts", Route: "accounts/"}
}

func authDirs(cfg config.ProjectConfig) []string {
	return []string{
		path.Join(AuthModule, "migrations"),
		path.Join(AuthModule, "templates", "registration"),
	}
}

func authArtifacts(cfg config.ProjectConfig) []Planned {
	app := authApp()
	out := appFiles(app, "auth/views.py", "auth/urls.py")
	out = append(out,
		create(path.Join(AuthModule, "models.py"), "auth/models.py", app),
		create(path.Join(AuthModule, "forms.py"), "auth/forms.py", app),
		create(path.Join(AuthModule, "admin.py"), "auth/admin.py", app),
	)
	for _, page := range []string{"login", "signup", "logged_out"} {
		out = append(out, create(
			path.Join(AuthModule, "templates", "registration", page+".html"),
			"auth/"+page+".html", app))
	}
	for _, line := range authSettings {
		out = append(out, appendLine(SettingsPath(cfg), "project/settings.py", authSettingsMarker, line))
	}
	return append(out, navEntry(cfg, authNav))
}

func authRegistrations(cfg config.ProjectConfig) []primary.Registration {
	return []primary.Registration{
		{Module: AuthModule, Route: "accounts/"},
		{Route: "accounts/", URLs: "django.contrib.auth.urls"},
	}
}

// Feature

func featureApp(f config.FeatureModule) templates.App {
	return templates.App{Name: f.Name, Title: f.Title, Route: f.Route}
}

func featureDirs(cfg config.ProjectConfig) []string {
	var dirs []string
	for _, f := range cfg.Features {
		dirs = append(dirs,
			path.Join(f.Name, "migrations"),
			path.Join(f.Name, "templates", f.Name),
		)
	}
	return dirs
}

func featureArtifacts(cfg config.ProjectConfig) []Planned {
	var out []Planned
	for _, f := range cfg.Features {
		app := featureApp(f)
		out = append(out, appFiles(app, "feature/views.py", "feature/urls.py")...)
		out = append(out, create(path.Join(f.Name, "templates", f.Name, "index.html"), "feature/index.html", app))
		for _, pkg := range f.Packages {
			out = append(out, requirement(pkg))
		}
		out = append(out, navEntry(cfg, `<a href="{% url '`+f.Name+`:index' %}">`+f.Title+`</a>`))
	}
	return out
}

func featureRegistrations(cfg config.ProjectConfig) []primary.Registration {
	regs := make([]primary.Registration, 0, len(cfg.Features))
	for _, f := range cfg.Features {
		regs = append(regs, primary.Registration{Module: f.Name, Route: f.Route})
	}
	return regs
}
