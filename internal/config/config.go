// Package config loads the declarative project description (stackup.yaml)
// and the engine's own runtime settings.
package config

import (
	"bytes"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	apperrors "github.com/example/stackup/internal/errors"
)

// DefaultFileName is the project config file looked up in the project root.
const DefaultFileName = "stackup.yaml"

var envRefRe = regexp.MustCompile(`^\$\{([A-Za-z_][A-Za-z0-9_]*)\}$`)

// DatabaseMode selects how the backing database is obtained.
type DatabaseMode string

const (
	// ModeLocal creates role, database and grants on a server we administer.
	ModeLocal DatabaseMode = "local"
	// ModeRemote validates a database someone else provisioned.
	ModeRemote DatabaseMode = "remote"
)

// ProjectConfig is the immutable description of the project to generate.
// It is loaded once and passed by value; nothing downstream mutates it.
type ProjectConfig struct {
	ProjectName   string            `yaml:"project_name" validate:"required,pyident"`
	ModuleName    string            `yaml:"module_name" validate:"required,pyident,nefield=ProjectName"`
	Database      DatabaseConfig    `yaml:"database"`
	Display       DisplayConfig     `yaml:"display"`
	Features      []FeatureModule   `yaml:"features,omitempty" validate:"dive"`
	Prerequisites []ToolRequirement `yaml:"prerequisites,omitempty" validate:"dive"`
}

// DatabaseConfig holds connection parameters for the backing PostgreSQL database.
type DatabaseConfig struct {
	Mode              DatabaseMode `yaml:"mode" validate:"required,oneof=local remote"`
	Name              string       `yaml:"name" validate:"required,pgident"`
	User              string       `yaml:"user" validate:"required,pgident"`
	Password          string       `yaml:"password" validate:"required"`
	Host              string       `yaml:"host" validate:"required,hostname_rfc1123|ip"`
	Port              int          `yaml:"port" validate:"required,gte=1,lte=65535"`
	SSLMode           string       `yaml:"sslmode" validate:"required,oneof=disable allow prefer require verify-ca verify-full"`
	Superuser         string       `yaml:"superuser,omitempty" validate:"omitempty,pgname"`
	SuperuserPassword string       `yaml:"superuser_password,omitempty"`
}

// DisplayConfig carries strings substituted into the base HTML template.
type DisplayConfig struct {
	Title   string `yaml:"title"`
	Heading string `yaml:"heading"`
}

// FeatureModule is an additional app added by the feature phase.
type FeatureModule struct {
	Name     string            `yaml:"name" validate:"required,pyident"`
	Title    string            `yaml:"title,omitempty"`
	Route    string            `yaml:"route" validate:"required,route"`
	Packages []string          `yaml:"packages,omitempty"`
	Requires []ToolRequirement `yaml:"requires,omitempty" validate:"dive"`
}

// ToolRequirement names an external tool that must be on PATH.
type ToolRequirement struct {
	Tool       string   `yaml:"tool" validate:"required,excludesall=/"`
	MinVersion string   `yaml:"min_version,omitempty" validate:"omitempty,semverish"`
	Args       []string `yaml:"args,omitempty"`
}

// Local reports whether the database is provisioned by stackup.
func (c ProjectConfig) Local() bool {
	return c.Database.Mode == ModeLocal
}

// Load reads, defaults and validates the project config at path.
// Every failure is a CONFIG_INVALID error.
func Load(path string) (ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ProjectConfig{}, apperrors.Wrap(err, apperrors.CodeConfigInvalid, "read "+path)
	}
	return Parse(data)
}

// Parse decodes YAML bytes into a validated ProjectConfig. Unknown keys are rejected.
func Parse(data []byte) (ProjectConfig, error) {
	var cfg ProjectConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return ProjectConfig{}, apperrors.Wrap(err, apperrors.CodeConfigInvalid, "decode config")
	}
	cfg = ApplyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return ProjectConfig{}, err
	}
	return cfg, nil
}

// ApplyDefaults fills optional fields. A password that is exactly ${NAME}
// is read from the environment; any other value is taken literally.
func ApplyDefaults(cfg ProjectConfig) ProjectConfig {
	db := &cfg.Database
	if db.Host == "" {
		db.Host = "localhost"
	}
	if db.Port == 0 {
		db.Port = 5432
	}
	if db.SSLMode == "" {
		if db.Mode == ModeRemote {
			db.SSLMode = "require"
		} else {
			db.SSLMode = "disable"
		}
	}
	if db.Mode == ModeLocal && db.Superuser == "" {
		db.Superuser = "postgres"
	}
	db.Password = expandEnvRef(db.Password)
	db.SuperuserPassword = expandEnvRef(db.SuperuserPassword)

	if cfg.Display.Title == "" {
		cfg.Display.Title = cfg.ProjectName
	}
	if cfg.Display.Heading == "" && cfg.ProjectName != "" {
		cfg.Display.Heading = "Welcome to " + cfg.ProjectName
	}

	features := make([]FeatureModule, len(cfg.Features))
	for i, f := range cfg.Features {
		if f.Title == "" {
			f.Title = f.Name
		}
		features[i] = f
	}
	cfg.Features = features
	return cfg
}

func expandEnvRef(v string) string {
	m := envRefRe.FindStringSubmatch(v)
	if m == nil {
		return v
	}
	return os.Getenv(m[1])
}

// Save writes cfg as YAML to path with owner-only permissions, since it
// holds database credentials.
func Save(path string, cfg ProjectConfig) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
