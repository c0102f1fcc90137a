package app

import (
	"context"
	"errors"
	"os"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/example/stackup/internal/adapters/sqlite"
	"github.com/example/stackup/internal/config"
	"github.com/example/stackup/internal/db"
	"github.com/example/stackup/internal/phases"
	"github.com/example/stackup/internal/ports/secondary"
	"github.com/example/stackup/internal/templates"
)

// Ensure the mocks implement their interfaces
var (
	_ secondary.ProjectFS           = (*mockProjectFS)(nil)
	_ secondary.EnvStore            = (*mockEnvStore)(nil)
	_ secondary.DatabaseProvisioner = (*mockProvisioner)(nil)
	_ secondary.ToolRunner          = (*mockToolRunner)(nil)
)

// mockProjectFS implements secondary.ProjectFS in memory.
type mockProjectFS struct {
	files    map[string][]byte
	modes    map[string]os.FileMode
	dirs     map[string]bool
	writes   int
	writeErr map[string]error
}

func newMockProjectFS() *mockProjectFS {
	return &mockProjectFS{
		files:    make(map[string][]byte),
		modes:    make(map[string]os.FileMode),
		dirs:     make(map[string]bool),
		writeErr: make(map[string]error),
	}
}

func (m *mockProjectFS) Root() string { return "/project" }

func (m *mockProjectFS) ReadFile(ctx context.Context, rel string) ([]byte, bool, error) {
	data, ok := m.files[rel]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), data...), true, nil
}

func (m *mockProjectFS) WriteFile(ctx context.Context, rel string, data []byte, perm os.FileMode) error {
	if err := m.writeErr[rel]; err != nil {
		return err
	}
	m.files[rel] = append([]byte(nil), data...)
	m.modes[rel] = perm
	m.writes++
	return nil
}

func (m *mockProjectFS) MkdirAll(ctx context.Context, rel string) error {
	m.dirs[rel] = true
	return nil
}

// snapshot returns every file as path -> content for before/after comparisons.
func (m *mockProjectFS) snapshot() map[string]string {
	out := make(map[string]string, len(m.files))
	for p, data := range m.files {
		out[p] = string(data)
	}
	return out
}

func (m *mockProjectFS) paths() []string {
	var out []string
	for p := range m.files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// mockEnvStore implements secondary.EnvStore in memory.
type mockEnvStore struct {
	values map[string]string
	sets   int
	getErr error
}

func newMockEnvStore() *mockEnvStore {
	return &mockEnvStore{values: make(map[string]string)}
}

func (m *mockEnvStore) Path() string { return "/project/.env" }

func (m *mockEnvStore) Get(ctx context.Context, key string) (string, bool, error) {
	if m.getErr != nil {
		return "", false, m.getErr
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *mockEnvStore) Set(ctx context.Context, values []secondary.EnvVar) error {
	for _, v := range values {
		m.values[v.Key] = v.Value
	}
	m.sets++
	return nil
}

// mockProvisioner simulates a server that starts empty.
type mockProvisioner struct {
	provisioned  bool
	provisionErr error
	// neverUsable makes Inspect report false even after provisioning.
	neverUsable bool
	calls       int
}

func (m *mockProvisioner) Mode() string { return "local" }

func (m *mockProvisioner) conn() secondary.ConnParams {
	return secondary.ConnParams{Name: "db_demo", User: "demo_user", Password: "s3cret", Host: "localhost", Port: 5432, SSLMode: "disable"}
}

func (m *mockProvisioner) Provision(ctx context.Context) (secondary.ProvisionResult, error) {
	m.calls++
	if m.provisionErr != nil {
		return secondary.ProvisionResult{}, m.provisionErr
	}
	if m.provisioned {
		return secondary.ProvisionResult{Status: secondary.ProvisionAlreadyExists, Conn: m.conn()}, nil
	}
	m.provisioned = true
	return secondary.ProvisionResult{
		Status:            secondary.ProvisionCreated,
		RoleCreated:       true,
		DatabaseCreated:   true,
		PrivilegesGranted: true,
		Conn:              m.conn(),
	}, nil
}

func (m *mockProvisioner) Inspect(ctx context.Context) (secondary.ProvisionResult, bool, error) {
	res := secondary.ProvisionResult{Status: secondary.ProvisionAlreadyExists, Conn: m.conn()}
	return res, m.provisioned && !m.neverUsable, nil
}

// mockToolRunner implements secondary.ToolRunner from canned outputs keyed
// by "tool args...".
type mockToolRunner struct {
	paths   map[string]string
	outputs map[string]secondary.CmdResult
	runs    []string
}

func newMockToolRunner() *mockToolRunner {
	return &mockToolRunner{paths: map[string]string{}, outputs: map[string]secondary.CmdResult{}}
}

func (m *mockToolRunner) install(tool, args string, res secondary.CmdResult) {
	m.paths[tool] = "/usr/bin/" + tool
	m.outputs["/usr/bin/"+tool+" "+args] = res
}

func (m *mockToolRunner) LookPath(name string) (string, error) {
	p, ok := m.paths[name]
	if !ok {
		return "", errors.New("executable file not found in $PATH")
	}
	return p, nil
}

func (m *mockToolRunner) Run(ctx context.Context, name string, args []string) (secondary.CmdResult, error) {
	key := name + " " + strings.Join(args, " ")
	m.runs = append(m.runs, key)
	res, ok := m.outputs[key]
	if !ok {
		return secondary.CmdResult{Stderr: "unknown option", ExitCode: 2}, nil
	}
	return res, nil
}

// demoConfig is the project used throughout the tests: project demo,
// module main, local database db_demo.
func demoConfig() config.ProjectConfig {
	return config.ApplyDefaults(config.ProjectConfig{
		ProjectName: "demo",
		ModuleName:  "main",
		Database: config.DatabaseConfig{
			Mode:     config.ModeLocal,
			Name:     "db_demo",
			User:     "demo_user",
			Password: "s3cret",
		},
	})
}

type harness struct {
	cfg     config.ProjectConfig
	fs      *mockProjectFS
	store   *mockEnvStore
	db      *mockProvisioner
	journal *sqlite.JournalRepository
	orch    *OrchestratorImpl
}

func newHarness(t *testing.T, cfg config.ProjectConfig) *harness {
	t.Helper()
	h := &harness{
		cfg:   cfg,
		fs:    newMockProjectFS(),
		store: newMockEnvStore(),
		db:    &mockProvisioner{},
	}

	conn, err := db.Open(":memory:")
	if err != nil {
		t.Fatalf("db.Open() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	h.journal = sqlite.NewJournalRepository(conn)

	env := phases.Env{FS: h.fs, Store: h.store, Provisioner: h.db}
	ids := 0
	h.orch = NewOrchestrator(cfg, env,
		NewSecretService(h.store),
		NewScaffoldService(h.fs, templates.Render),
		NewSettingsMerger(h.fs, cfg),
		WithJournal(h.journal),
		WithSecretGenerator(func() (string, error) { return strings.Repeat("k", 50), nil }),
		WithClock(func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }),
		WithIDGenerator(func() string {
			ids++
			return "run-" + string(rune('0'+ids))
		}),
	)
	return h
}
