package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// SettingsFileName is an optional dotenv file in the working directory that
// seeds STACKUP_* variables.
const SettingsFileName = ".stackup.env"

// Settings are the engine's own knobs, separate from the project description.
type Settings struct {
	LogLevel       string        `mapstructure:"LOG_LEVEL" validate:"required,oneof=debug info warn error"`
	LogFormat      string        `mapstructure:"LOG_FORMAT" validate:"required,oneof=json console"`
	JournalPath    string        `mapstructure:"JOURNAL_PATH" validate:"required"`
	ConnectTimeout time.Duration `mapstructure:"CONNECT_TIMEOUT" validate:"required"`
	NoColor        bool          `mapstructure:"NO_COLOR"`
}

// LoadSettings reads STACKUP_* environment variables, after loading
// SettingsFileName from dir when present.
func LoadSettings(dir string) (Settings, error) {
	_ = godotenv.Load(filepath.Join(dir, SettingsFileName))

	v := viper.New()
	v.SetEnvPrefix("STACKUP")
	v.AutomaticEnv()

	v.SetDefault("LOG_LEVEL", "warn")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("JOURNAL_PATH", defaultJournalPath())
	v.SetDefault("CONNECT_TIMEOUT", "10s")
	v.SetDefault("NO_COLOR", false)

	for _, key := range []string{"LOG_LEVEL", "LOG_FORMAT", "JOURNAL_PATH", "CONNECT_TIMEOUT", "NO_COLOR"} {
		_ = v.BindEnv(key)
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("settings unmarshal error: %w", err)
	}

	// Durations may arrive as strings from the environment.
	if raw := v.GetString("CONNECT_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return Settings{}, fmt.Errorf("invalid STACKUP_CONNECT_TIMEOUT: %w", err)
		}
		s.ConnectTimeout = d
	}

	if err := validate.Struct(&s); err != nil {
		return Settings{}, fmt.Errorf("invalid settings: %w", err)
	}
	return s, nil
}

func defaultJournalPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".stackup", "journal.db")
	}
	return filepath.Join(home, ".stackup", "journal.db")
}
