// Package wire provides dependency injection for stackup.
// It creates singleton services with lazy initialization.
package wire

import (
	"database/sql"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/example/stackup/internal/adapters/envfile"
	"github.com/example/stackup/internal/adapters/filesystem"
	"github.com/example/stackup/internal/adapters/postgres"
	"github.com/example/stackup/internal/adapters/sqlite"
	"github.com/example/stackup/internal/adapters/toolprobe"
	"github.com/example/stackup/internal/app"
	"github.com/example/stackup/internal/config"
	"github.com/example/stackup/internal/db"
	apperrors "github.com/example/stackup/internal/errors"
	"github.com/example/stackup/internal/logger"
	"github.com/example/stackup/internal/phases"
	"github.com/example/stackup/internal/ports/primary"
	"github.com/example/stackup/internal/ports/secondary"
	"github.com/example/stackup/internal/templates"
)

// Options locate the project and carry values gathered by the CLI before
// services are built.
type Options struct {
	Dir               string // Project root
	ConfigPath        string // Relative paths resolve against Dir
	Settings          config.Settings
	SuperuserPassword string // Overrides the config file when set
}

var (
	opts Options

	cfg       config.ProjectConfig
	cfgErr    error
	cfgOnce   sync.Once
	svcErr    error
	svcOnce   sync.Once
	journalDB *sql.DB

	prereqService  primary.PrerequisiteService
	secretService  primary.SecretService
	orchestrator   primary.PhaseOrchestrator
	historyService primary.HistoryService
)

// Configure sets the options used by every accessor. It must be called
// before the first accessor.
func Configure(o Options) {
	opts = o
}

// SetSuperuserPassword supplies the local superuser password gathered
// interactively. It has no effect once services are built.
func SetSuperuserPassword(pw string) {
	opts.SuperuserPassword = pw
}

// ConfigPath returns the resolved project config path.
func ConfigPath() string {
	p := opts.ConfigPath
	if p == "" {
		p = config.DefaultFileName
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(opts.Dir, p)
}

// Config returns the loaded project config.
func Config() (config.ProjectConfig, error) {
	cfgOnce.Do(func() {
		cfg, cfgErr = config.Load(ConfigPath())
	})
	return cfg, cfgErr
}

// PrerequisiteService returns the singleton PrerequisiteService. It does
// not need a project config.
func PrerequisiteService() primary.PrerequisiteService {
	if prereqService == nil {
		prereqService = app.NewPrerequisiteService(toolprobe.NewRunner())
	}
	return prereqService
}

// SecretService returns a SecretService bound to the project's .env file.
func SecretService() primary.SecretService {
	if secretService == nil {
		secretService = app.NewSecretService(envfile.NewStore(filepath.Join(opts.Dir, phases.EnvFile)))
	}
	return secretService
}

// Orchestrator returns the singleton PhaseOrchestrator.
func Orchestrator() (primary.PhaseOrchestrator, error) {
	svcOnce.Do(initServices)
	return orchestrator, svcErr
}

// HistoryService returns the singleton HistoryService. Without a readable
// project config it lists runs of every project.
func HistoryService() (primary.HistoryService, error) {
	if historyService != nil {
		return historyService, nil
	}
	journal, err := openJournal()
	if err != nil {
		return nil, err
	}
	project := ""
	if c, err := Config(); err == nil {
		project = c.ProjectName
	}
	historyService = app.NewHistoryService(journal, project)
	return historyService, nil
}

// Close releases the journal database.
func Close() {
	if journalDB != nil {
		_ = journalDB.Close()
		journalDB = nil
	}
}

// initServices builds the orchestrator and its adapters.
// This is called once via sync.Once.
func initServices() {
	c, err := Config()
	if err != nil {
		svcErr = err
		return
	}

	fs, err := filesystem.NewProjectFS(opts.Dir)
	if err != nil {
		svcErr = apperrors.Wrap(err, apperrors.CodeArtifactIO, "open project root")
		return
	}
	store := envfile.NewStore(filepath.Join(fs.Root(), phases.EnvFile))

	env := phases.Env{FS: fs, Store: store, Provisioner: newProvisioner(c)}

	var options []app.OrchestratorOption
	if journal, err := openJournal(); err != nil {
		logger.L().Warn("run journal unavailable", zap.String("path", opts.Settings.JournalPath), zap.Error(err))
	} else {
		options = append(options, app.WithJournal(journal))
	}

	orchestrator = app.NewOrchestrator(c, env,
		app.NewSecretService(store),
		app.NewScaffoldService(fs, templates.Render),
		app.NewSettingsMerger(fs, c),
		options...,
	)
}

// newProvisioner is the one place the database mode is branched on.
func newProvisioner(c config.ProjectConfig) secondary.DatabaseProvisioner {
	if c.Local() {
		pw := c.Database.SuperuserPassword
		if opts.SuperuserPassword != "" {
			pw = opts.SuperuserPassword
		}
		return postgres.NewLocal(c.Database, postgres.LocalOptions{
			SuperuserPassword: pw,
			ConnectTimeout:    opts.Settings.ConnectTimeout,
		})
	}
	return postgres.NewRemote(c.Database, opts.Settings.ConnectTimeout, postgres.PgxDialer)
}

func openJournal() (*sqlite.JournalRepository, error) {
	if journalDB == nil {
		conn, err := db.Open(opts.Settings.JournalPath)
		if err != nil {
			return nil, err
		}
		journalDB = conn
	}
	return sqlite.NewJournalRepository(journalDB), nil
}
