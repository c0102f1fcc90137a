package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	apperrors "github.com/example/stackup/internal/errors"
)

const demoYAML = `
project_name: demo
module_name: main
database:
  mode: local
  name: db_demo
  user: demo_user
  password: s3cret
features:
  - name: ytdl
    route: tools/ytdl/
    packages: [yt-dlp]
    requires:
      - tool: ffmpeg
`

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(demoYAML))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Database.Host != "localhost" {
		t.Errorf("Host = %q, want localhost", cfg.Database.Host)
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("Port = %d, want 5432", cfg.Database.Port)
	}
	if cfg.Database.SSLMode != "disable" {
		t.Errorf("SSLMode = %q, want disable", cfg.Database.SSLMode)
	}
	if cfg.Database.Superuser != "postgres" {
		t.Errorf("Superuser = %q, want postgres", cfg.Database.Superuser)
	}
	if cfg.Display.Title != "demo" || cfg.Display.Heading != "Welcome to demo" {
		t.Errorf("Display = %+v", cfg.Display)
	}
	if len(cfg.Features) != 1 || cfg.Features[0].Title != "ytdl" {
		t.Errorf("Features = %+v", cfg.Features)
	}
	if !cfg.Local() {
		t.Error("Local() = false, want true")
	}
}

func TestParseRemoteDefaultsToSSL(t *testing.T) {
	cfg, err := Parse([]byte(`
project_name: shop
module_name: store
database:
  mode: remote
  name: shop
  user: shop_app
  password: pw
  host: db.example.com
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Database.SSLMode != "require" {
		t.Errorf("SSLMode = %q, want require", cfg.Database.SSLMode)
	}
	if cfg.Database.Superuser != "" {
		t.Errorf("Superuser = %q, want empty for remote", cfg.Database.Superuser)
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantMsg string
	}{
		{
			name:    "unknown key",
			yaml:    "project_name: demo\nmodule_name: main\nbogus: 1\n",
			wantMsg: "decode config",
		},
		{
			name:    "python keyword",
			yaml:    "project_name: class\nmodule_name: main\ndatabase: {mode: local, name: db, user: u, password: p}\n",
			wantMsg: "project_name",
		},
		{
			name:    "reserved module",
			yaml:    "project_name: demo\nmodule_name: django\ndatabase: {mode: local, name: db, user: u, password: p}\n",
			wantMsg: "module_name",
		},
		{
			name:    "module equals project",
			yaml:    "project_name: demo\nmodule_name: demo\ndatabase: {mode: local, name: db, user: u, password: p}\n",
			wantMsg: "must differ from ProjectName",
		},
		{
			name:    "uppercase db name",
			yaml:    "project_name: demo\nmodule_name: main\ndatabase: {mode: local, name: DB, user: u, password: p}\n",
			wantMsg: "database.name",
		},
		{
			name:    "reserved role",
			yaml:    "project_name: demo\nmodule_name: main\ndatabase: {mode: local, name: db, user: postgres, password: p}\n",
			wantMsg: "database.user",
		},
		{
			name:    "bad mode",
			yaml:    "project_name: demo\nmodule_name: main\ndatabase: {mode: cloud, name: db, user: u, password: p}\n",
			wantMsg: "database.mode",
		},
		{
			name:    "missing password",
			yaml:    "project_name: demo\nmodule_name: main\ndatabase: {mode: local, name: db, user: u}\n",
			wantMsg: "database.password: required",
		},
		{
			name: "duplicate feature",
			yaml: "project_name: demo\nmodule_name: main\ndatabase: {mode: local, name: db, user: u, password: p}\n" +
				"features:\n  - {name: main, route: main/}\n",
			wantMsg: "already taken",
		},
		{
			name: "route mounted by auth",
			yaml: "project_name: demo\nmodule_name: main\ndatabase: {mode: local, name: db, user: u, password: p}\n" +
				"features:\n  - {name: blog, route: accounts/}\n",
			wantMsg: "features[0].route",
		},
		{
			name: "route without slash",
			yaml: "project_name: demo\nmodule_name: main\ndatabase: {mode: local, name: db, user: u, password: p}\n" +
				"features:\n  - {name: blog, route: blog}\n",
			wantMsg: "relative URL prefix",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("Parse() error = nil, want error")
			}
			if !apperrors.IsCode(err, apperrors.CodeConfigInvalid) {
				t.Errorf("Parse() code = %q, want CONFIG_INVALID", apperrors.CodeOf(err))
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Parse() error = %q, want to contain %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestParseExpandsPasswordEnv(t *testing.T) {
	t.Setenv("DEMO_DB_PASSWORD", "from-env")
	cfg, err := Parse([]byte(strings.Replace(demoYAML, "s3cret", "${DEMO_DB_PASSWORD}", 1)))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Database.Password != "from-env" {
		t.Errorf("Password = %q, want from-env", cfg.Database.Password)
	}
}

func TestParseKeepsLiteralDollarInPasswords(t *testing.T) {
	t.Setenv("word", "expanded")
	t.Setenv("def", "expanded")
	for _, pw := range []string{"pa$$word", "abc$def", "s3cr$t!", "x${def}y", "$word"} {
		t.Run(pw, func(t *testing.T) {
			yml := strings.Replace(demoYAML, "password: s3cret", "password: '"+pw+"'\n  superuser_password: '"+pw+"'", 1)
			cfg, err := Parse([]byte(yml))
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if cfg.Database.Password != pw {
				t.Errorf("Password = %q, want %q", cfg.Database.Password, pw)
			}
			if cfg.Database.SuperuserPassword != pw {
				t.Errorf("SuperuserPassword = %q, want %q", cfg.Database.SuperuserPassword, pw)
			}
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	cfg, err := Parse([]byte(demoYAML))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	path := filepath.Join(t.TempDir(), DefaultFileName)
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Database.Name != "db_demo" || loaded.Features[0].Route != "tools/ytdl/" {
		t.Errorf("Load() = %+v", loaded)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if !apperrors.IsCode(err, apperrors.CodeConfigInvalid) {
		t.Errorf("Load() error = %v, want CONFIG_INVALID", err)
	}
}

func TestLoadSettings(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("STACKUP_LOG_FORMAT", "json")
	t.Setenv("STACKUP_CONNECT_TIMEOUT", "3s")
	t.Setenv("STACKUP_JOURNAL_PATH", filepath.Join(dir, "j.db"))

	s, err := LoadSettings(dir)
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}
	if s.LogFormat != "json" {
		t.Errorf("LogFormat = %q, want json", s.LogFormat)
	}
	if s.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn", s.LogLevel)
	}
	if s.ConnectTimeout != 3*time.Second {
		t.Errorf("ConnectTimeout = %v, want 3s", s.ConnectTimeout)
	}
	if s.JournalPath != filepath.Join(dir, "j.db") {
		t.Errorf("JournalPath = %q", s.JournalPath)
	}
}

func TestLoadSettingsRejectsBadLevel(t *testing.T) {
	t.Setenv("STACKUP_LOG_LEVEL", "chatty")
	if _, err := LoadSettings(t.TempDir()); err == nil {
		t.Fatal("LoadSettings() error = nil, want error")
	}
}
