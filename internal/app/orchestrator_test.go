package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/stackup/internal/config"
	"github.com/example/stackup/internal/core/artifact"
	corephase "github.com/example/stackup/internal/core/phase"
	apperrors "github.com/example/stackup/internal/errors"
	"github.com/example/stackup/internal/phases"
	"github.com/example/stackup/internal/ports/secondary"
)

func TestOrchestrator_BootstrapTwice(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, demoConfig())

	first, err := h.orch.Run(ctx, phases.Bootstrap)
	require.NoError(t, err)
	require.Equal(t, corephase.StatusCompleted, first.Status)
	require.False(t, first.Skipped)
	require.NotNil(t, first.Provision)
	assert.Equal(t, secondary.ProvisionCreated, first.Provision.Status)
	assert.True(t, first.Provision.RoleCreated)
	assert.True(t, first.Provision.DatabaseCreated)

	assert.Contains(t, h.fs.paths(), "manage.py")
	assert.Contains(t, h.fs.paths(), "demo/settings.py")
	assert.Contains(t, h.fs.paths(), "main/templates/main/base.html")
	assert.Equal(t, strings.Repeat("k", 50), h.store.values["SECRET_KEY"])
	assert.Equal(t, "db_demo", h.store.values["DB_NAME"])
	assert.Equal(t, "5432", h.store.values["DB_PORT"])
	require.Len(t, first.Secrets, 1)
	assert.True(t, first.Secrets[0].Generated)
	assert.Empty(t, first.Secrets[0].Value, "secret values stay out of reports")

	settings := string(h.fs.files["demo/settings.py"])
	assert.Contains(t, settings, "    \"main\",\n    # stackup:installed-apps:end")
	assert.Contains(t, string(h.fs.files["demo/urls.py"]), `path("", include("main.urls")),`)

	before := h.fs.snapshot()
	writes := h.fs.writes

	second, err := h.orch.Run(ctx, phases.Bootstrap)
	require.NoError(t, err)
	assert.Equal(t, corephase.StatusCompleted, second.Status)
	assert.True(t, second.Skipped)
	assert.Empty(t, second.Applied)
	require.NotNil(t, second.Provision)
	assert.Equal(t, secondary.ProvisionAlreadyExists, second.Provision.Status)
	assert.Equal(t, 1, h.db.calls, "second run must not provision")
	assert.Equal(t, writes, h.fs.writes)
	assert.Equal(t, before, h.fs.snapshot())
}

func TestOrchestrator_PhaseOrder(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, demoConfig())

	report, err := h.orch.Run(ctx, phases.Auth)
	require.Error(t, err)
	assert.Nil(t, report)
	assert.True(t, apperrors.IsCode(err, apperrors.CodePhaseOrder), "got %v", err)
	assert.Contains(t, err.Error(), "requires phase bootstrap")
	assert.Zero(t, h.fs.writes)
	assert.Zero(t, h.store.sets)
	assert.Zero(t, h.db.calls)
}

func TestOrchestrator_RunThroughFeature(t *testing.T) {
	ctx := context.Background()
	cfg := demoConfig()
	cfg.Features = []config.FeatureModule{{Name: "videos", Title: "Videos", Route: "videos/", Packages: []string{"yt-dlp"}}}
	h := newHarness(t, cfg)

	reports, err := h.orch.RunThrough(ctx, phases.Feature)
	require.NoError(t, err)
	require.Len(t, reports, 3)
	for _, r := range reports {
		assert.Equal(t, corephase.StatusCompleted, r.Status, r.PhaseID)
		assert.Equal(t, "run-1", r.RunID)
	}

	urls := string(h.fs.files["demo/urls.py"])
	assert.Contains(t, urls, `path("accounts/", include("django.contrib.auth.urls")),`)
	assert.Contains(t, urls, `path("videos/", include("videos.urls")),`)
	assert.Less(t, strings.Index(urls, "main.urls"), strings.Index(urls, "videos.urls"), "entries keep insertion order")
	assert.Contains(t, string(h.fs.files["requirements.txt"]), "yt-dlp\n")
	assert.Contains(t, string(h.fs.files["main/templates/main/base.html"]), "{% url 'videos:index' %}")

	states, err := h.orch.Status(ctx)
	require.NoError(t, err)
	for _, s := range states {
		assert.True(t, s.Complete, "%s missing %v", s.PhaseID, s.Missing)
	}

	runs, err := h.journal.ListRuns(ctx, secondary.RunFilters{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "completed", runs[0].Status)
	assert.Equal(t, "feature", runs[0].Target)

	recorded, err := h.journal.ListPhases(ctx, "run-1")
	require.NoError(t, err)
	assert.Len(t, recorded, 3)

	again, err := h.orch.RunThrough(ctx, phases.Feature)
	require.NoError(t, err)
	for _, r := range again {
		assert.True(t, r.Skipped, r.PhaseID)
	}
}

func TestOrchestrator_UserEditsSurvive(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, demoConfig())

	_, err := h.orch.Run(ctx, phases.Bootstrap)
	require.NoError(t, err)

	custom := []byte("from django.shortcuts import render\n\n# my own view\n")
	h.fs.files["main/views.py"] = custom
	settings := string(h.fs.files["demo/settings.py"])
	h.fs.files["demo/settings.py"] = []byte(settings + "\nCUSTOM_SETTING = True\n")

	report, err := h.orch.Run(ctx, phases.Auth)
	require.NoError(t, err)
	assert.Equal(t, corephase.StatusCompleted, report.Status)

	assert.Equal(t, custom, h.fs.files["main/views.py"])
	got := string(h.fs.files["demo/settings.py"])
	assert.Contains(t, got, "CUSTOM_SETTING = True")
	assert.Contains(t, got, "# Authentication\nAUTH_USER_MODEL = \"accounts.User\"\n")
	assert.Equal(t, 1, strings.Count(got, "# Authentication"))
	assert.Contains(t, got, `"accounts",`)
}

func TestOrchestrator_ConflictFailsPhase(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, demoConfig())

	_, err := h.orch.Run(ctx, phases.Bootstrap)
	require.NoError(t, err)

	// The user removed the nav markers the auth phase inserts into.
	base := strings.ReplaceAll(string(h.fs.files["main/templates/main/base.html"]), "stackup:nav:", "nav:")
	h.fs.files["main/templates/main/base.html"] = []byte(base)

	report, err := h.orch.Run(ctx, phases.Auth)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeArtifactConflict), "got %v", err)
	assert.Contains(t, err.Error(), "main/templates/main/base.html")
	require.NotNil(t, report)
	assert.Equal(t, corephase.StatusFailed, report.Status)
	assert.NotEmpty(t, report.Applied, "artifacts applied before the conflict are reported")
	assert.Equal(t, base, string(h.fs.files["main/templates/main/base.html"]))

	var coded *apperrors.Error
	require.True(t, errors.As(err, &coded))
	assert.Equal(t, "auth", coded.Meta["phase"])
	assert.Equal(t, "artifacts", coded.Meta["step"])

	runs, err := h.journal.ListRuns(ctx, secondary.RunFilters{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, "failed", runs[0].Status)
	assert.NotEmpty(t, runs[0].Error)
}

func TestOrchestrator_ProvisionFailureStopsPhase(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, demoConfig())
	h.db.provisionErr = apperrors.New(apperrors.CodeProvisioningDenied, "create role demo_user: permission denied")

	report, err := h.orch.Run(ctx, phases.Bootstrap)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeProvisioningDenied))
	assert.Equal(t, corephase.StatusFailed, report.Status)
	assert.Len(t, report.Secrets, 1, "the secret step ran before provisioning")
	assert.Empty(t, report.Applied)
	assert.NotContains(t, h.fs.paths(), "manage.py")
}

func TestOrchestrator_Postcondition(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, demoConfig())
	h.db.neverUsable = true

	report, err := h.orch.Run(ctx, phases.Bootstrap)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodePostcondition), "got %v", err)
	assert.Equal(t, corephase.StatusFailed, report.Status)
	assert.Contains(t, report.Missing, "database db_demo")
}

func TestOrchestrator_UnknownPhase(t *testing.T) {
	h := newHarness(t, demoConfig())
	_, err := h.orch.Run(context.Background(), "deploy")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeUsage))
	_, err = h.orch.RunThrough(context.Background(), "deploy")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeUsage))
}

func TestOrchestrator_JournalRecordsArtifacts(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, demoConfig())

	report, err := h.orch.Run(ctx, phases.Bootstrap)
	require.NoError(t, err)

	history := NewHistoryService(h.journal, "demo")
	runs, err := history.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	recorded, arts, err := history.RunDetail(ctx, runs[0].ID)
	require.NoError(t, err)
	require.Len(t, recorded, 1)
	assert.Equal(t, "completed", recorded[0].Status)
	require.Len(t, arts, len(report.Applied))
	for i, a := range arts {
		assert.Equal(t, report.Applied[i].Path, a.Path)
		assert.Equal(t, string(report.Applied[i].Result), a.Result)
	}
	assert.Equal(t, string(artifact.Written), arts[0].Result)
}
