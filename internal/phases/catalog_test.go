package phases

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/stackup/internal/adapters/envfile"
	"github.com/example/stackup/internal/adapters/filesystem"
	"github.com/example/stackup/internal/config"
	"github.com/example/stackup/internal/core/artifact"
	"github.com/example/stackup/internal/ports/primary"
	"github.com/example/stackup/internal/ports/secondary"
	"github.com/example/stackup/internal/templates"
)

type stubProvisioner struct {
	usable bool
	err    error
}

func (s stubProvisioner) Mode() string { return "local" }

func (s stubProvisioner) Provision(ctx context.Context) (secondary.ProvisionResult, error) {
	return secondary.ProvisionResult{}, errors.New("not used")
}

func (s stubProvisioner) Inspect(ctx context.Context) (secondary.ProvisionResult, bool, error) {
	return secondary.ProvisionResult{}, s.usable, s.err
}

func demoConfig() config.ProjectConfig {
	return config.ApplyDefaults(config.ProjectConfig{
		ProjectName: "demo",
		ModuleName:  "main",
		Database: config.DatabaseConfig{
			Mode: config.ModeLocal, Name: "db_demo", User: "demo_user", Password: "pw",
		},
		Features: []config.FeatureModule{
			{Name: "videos", Route: "videos/", Packages: []string{"yt-dlp>=2024.1"}},
		},
	})
}

func newEnv(t *testing.T, usable bool) Env {
	t.Helper()
	dir := t.TempDir()
	fs, err := filesystem.NewProjectFS(dir)
	if err != nil {
		t.Fatalf("NewProjectFS() error = %v", err)
	}
	return Env{
		FS:          fs,
		Store:       envfile.NewStore(filepath.Join(dir, ".env")),
		Provisioner: stubProvisioner{usable: usable},
	}
}

// apply writes every artifact and registration of p straight through the
// merge rules, standing in for the scaffold service.
func apply(t *testing.T, ctx context.Context, p Phase, cfg config.ProjectConfig, env Env) {
	t.Helper()
	var planned []Planned
	planned = append(planned, p.Artifacts(cfg)...)
	for _, reg := range p.Registrations(cfg) {
		for _, a := range RegistrationArtifacts(cfg, reg) {
			planned = append(planned, Planned{Artifact: a})
		}
	}
	for _, pl := range planned {
		rendered, err := templates.Render(pl.Artifact.Template, Data(cfg, pl.App))
		if err != nil {
			t.Fatalf("Render(%s) error = %v", pl.Artifact.Template, err)
		}
		content, exists, err := env.FS.ReadFile(ctx, pl.Artifact.Path)
		if err != nil {
			t.Fatalf("ReadFile() error = %v", err)
		}
		out, err := artifact.Merge(pl.Artifact.Strategy, artifact.Current{Exists: exists, Content: content}, rendered)
		if err != nil {
			t.Fatalf("Merge(%s) error = %v", pl.Artifact, err)
		}
		if out.Write {
			if err := env.FS.WriteFile(ctx, pl.Artifact.Path, out.Content, 0644); err != nil {
				t.Fatalf("WriteFile() error = %v", err)
			}
		}
	}
}

func TestCatalogOrder(t *testing.T) {
	ids := IDs()
	if strings.Join(ids, ",") != "bootstrap,auth,feature" {
		t.Errorf("IDs() = %v", ids)
	}
	if _, ok := Predecessor(Bootstrap); ok {
		t.Error("bootstrap has a predecessor")
	}
	if p, ok := Predecessor(Feature); !ok || p.ID != Auth {
		t.Errorf("Predecessor(feature) = %v, %v", p.ID, ok)
	}
	if _, ok := Get("deploy"); ok {
		t.Error("Get(deploy) found a phase")
	}
	for i, p := range All() {
		if p.Ordinal != i+1 {
			t.Errorf("%s ordinal = %d, want %d", p.ID, p.Ordinal, i+1)
		}
	}
}

func TestEveryArtifactTemplateExists(t *testing.T) {
	cfg := demoConfig()
	for _, p := range All() {
		for _, pl := range p.Artifacts(cfg) {
			if !templates.Exists(pl.Artifact.Template) {
				t.Errorf("%s: %s uses unknown template %q", p.ID, pl.Artifact.Path, pl.Artifact.Template)
			}
		}
	}
}

func TestBootstrapDetection(t *testing.T) {
	ctx := context.Background()
	cfg := demoConfig()
	env := newEnv(t, true)
	boot, _ := Get(Bootstrap)

	d, err := boot.Detect(ctx, cfg, env)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if d.Complete {
		t.Fatal("empty project detected as bootstrapped")
	}

	apply(t, ctx, boot, cfg, env)
	d, err = boot.Detect(ctx, cfg, env)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if d.Complete {
		t.Fatal("bootstrap complete without env store entries")
	}
	if !containsItem(d.Missing, "SECRET_KEY") {
		t.Errorf("missing = %v, want SECRET_KEY", d.Missing)
	}

	vars := append(DatabaseEnv(secondary.ConnParams{Name: "db_demo", User: "demo_user", Password: "pw", Host: "localhost", Port: 5432, SSLMode: "disable"}),
		secondary.EnvVar{Key: KeySecret, Value: strings.Repeat("k", 50)})
	if err := env.Store.Set(ctx, vars); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	d, err = boot.Detect(ctx, cfg, env)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if !d.Complete {
		t.Errorf("bootstrap incomplete: %v", d.Missing)
	}

	env.Provisioner = stubProvisioner{err: errors.New("connection refused")}
	d, err = boot.Detect(ctx, cfg, env)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if d.Complete || !containsItem(d.Missing, "database db_demo") {
		t.Errorf("unreachable database not reported: %v", d.Missing)
	}
}

func TestAuthAndFeatureDetection(t *testing.T) {
	ctx := context.Background()
	cfg := demoConfig()
	env := newEnv(t, true)
	for _, id := range []string{Bootstrap, Auth, Feature} {
		p, _ := Get(id)
		apply(t, ctx, p, cfg, env)
		d, err := p.Detect(ctx, cfg, env)
		if err != nil {
			t.Fatalf("%s Detect() error = %v", id, err)
		}
		if id != Bootstrap && !d.Complete {
			t.Errorf("%s incomplete after apply: %v", id, d.Missing)
		}
	}

	settings, _, _ := env.FS.ReadFile(ctx, SettingsPath(cfg))
	for _, want := range []string{`"main",`, `"accounts",`, `"videos",`, `AUTH_USER_MODEL = "accounts.User"`} {
		if !strings.Contains(string(settings), want) {
			t.Errorf("settings.py missing %q", want)
		}
	}
	urls, _, _ := env.FS.ReadFile(ctx, URLsPath(cfg))
	for _, want := range []string{
		`path("", include("main.urls")),`,
		`path("accounts/", include("accounts.urls")),`,
		`path("accounts/", include("django.contrib.auth.urls")),`,
		`path("videos/", include("videos.urls")),`,
	} {
		if !strings.Contains(string(urls), want) {
			t.Errorf("urls.py missing %q", want)
		}
	}
	reqs, _, _ := env.FS.ReadFile(ctx, "requirements.txt")
	if !strings.Contains(string(reqs), "yt-dlp>=2024.1") {
		t.Errorf("requirements.txt = %s", reqs)
	}
}

func TestDetectTreatsBrokenMarkersAsMissing(t *testing.T) {
	ctx := context.Background()
	cfg := demoConfig()
	env := newEnv(t, true)
	boot, _ := Get(Bootstrap)
	apply(t, ctx, boot, cfg, env)

	if err := env.FS.WriteFile(ctx, URLsPath(cfg), []byte("urlpatterns = []\n"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	d, err := boot.Detect(ctx, cfg, env)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if !containsItem(d.Missing, "[routes]") {
		t.Errorf("missing = %v, want routes entry", d.Missing)
	}
}

func TestFeatureWithoutModulesIsComplete(t *testing.T) {
	cfg := demoConfig()
	cfg.Features = nil
	feat, _ := Get(Feature)
	d, err := feat.Detect(context.Background(), cfg, newEnv(t, false))
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if !d.Complete {
		t.Errorf("feature phase with no modules incomplete: %v", d.Missing)
	}
}

func TestRegistrationArtifacts(t *testing.T) {
	cfg := demoConfig()
	arts := RegistrationArtifacts(cfg, primary.Registration{Route: "accounts/", URLs: "django.contrib.auth.urls"})
	if len(arts) != 1 || arts[0].Path != "demo/urls.py" {
		t.Fatalf("route-only registration = %v", arts)
	}
	arts = RegistrationArtifacts(cfg, primary.Registration{Module: "videos", Route: "videos/"})
	if len(arts) != 2 {
		t.Fatalf("module registration = %v", arts)
	}
	if st := arts[0].Strategy.(artifact.InsertIntoListBlock); st.Entry != `"videos",` || st.Block != BlockInstalledApps {
		t.Errorf("installed-apps artifact = %+v", st)
	}
}

func containsItem(items []string, sub string) bool {
	for _, it := range items {
		if strings.Contains(it, sub) {
			return true
		}
	}
	return false
}
