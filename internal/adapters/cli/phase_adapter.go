// Package cli provides thin CLI adapters that translate between CLI concerns
// and application services. Adapters handle output formatting but delegate
// business logic to services.
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/example/stackup/internal/core/artifact"
	"github.com/example/stackup/internal/core/phase"
	"github.com/example/stackup/internal/ports/primary"
	"github.com/example/stackup/internal/ports/secondary"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	blue   = color.New(color.FgBlue).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// PhaseAdapter translates CLI operations to PhaseOrchestrator calls.
type PhaseAdapter struct {
	service primary.PhaseOrchestrator
	out     io.Writer
}

// NewPhaseAdapter creates a new PhaseAdapter with the given service.
func NewPhaseAdapter(service primary.PhaseOrchestrator, out io.Writer) *PhaseAdapter {
	return &PhaseAdapter{service: service, out: out}
}

// Run executes one phase and prints its report.
func (a *PhaseAdapter) Run(ctx context.Context, phaseID string) error {
	report, err := a.service.Run(ctx, phaseID)
	if report != nil {
		a.printReport(report)
	}
	return err
}

// RunThrough executes every phase up to phaseID and prints each report.
func (a *PhaseAdapter) RunThrough(ctx context.Context, phaseID string) error {
	reports, err := a.service.RunThrough(ctx, phaseID)
	for _, r := range reports {
		a.printReport(r)
	}
	if err == nil {
		fmt.Fprintf(a.out, "%s Project is ready through phase %s\n", green("✓"), phaseID)
	}
	return err
}

// Status prints the detected state of every phase.
func (a *PhaseAdapter) Status(ctx context.Context) error {
	states, err := a.service.Status(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "\n%-3s %-10s %s\n", "#", "PHASE", "STATE")
	fmt.Fprintln(a.out, "────────────────────────────────────────")
	for _, s := range states {
		state := green("complete")
		if !s.Complete {
			state = yellow("pending")
		}
		fmt.Fprintf(a.out, "%-3d %-10s %s\n", s.Ordinal, s.PhaseID, state)
		for _, m := range s.Missing {
			fmt.Fprintf(a.out, "      missing: %s\n", m)
		}
	}
	fmt.Fprintln(a.out)
	return nil
}

func (a *PhaseAdapter) printReport(r *primary.PhaseReport) {
	switch {
	case r.Skipped:
		fmt.Fprintf(a.out, "%s %s already complete\n", green("✓"), bold(r.PhaseID))
	case r.Status == phase.StatusCompleted:
		fmt.Fprintf(a.out, "%s %s completed\n", green("✓"), bold(r.PhaseID))
	case r.Status == phase.StatusFailed:
		fmt.Fprintf(a.out, "%s %s failed\n", red("✗"), bold(r.PhaseID))
	default:
		fmt.Fprintf(a.out, "  %s %s\n", bold(r.PhaseID), r.Status)
	}

	for _, s := range r.Secrets {
		verb := "kept"
		if s.Generated {
			verb = "generated"
		}
		fmt.Fprintf(a.out, "    secret    %s %s in %s\n", s.Key, verb, s.StorePath)
	}
	if r.Provision != nil {
		fmt.Fprintf(a.out, "    database  %s %s\n", r.Provision.Conn.Name, describeProvision(*r.Provision))
	}
	changed := 0
	for _, ap := range r.Applied {
		if ap.Result.Changed() {
			changed++
		}
		fmt.Fprintf(a.out, "    %s %s\n", resultLabel(ap.Result), ap.Path)
	}
	if len(r.Applied) > 0 {
		fmt.Fprintf(a.out, "    %d of %d files changed\n", changed, len(r.Applied))
	}
	for _, m := range r.Missing {
		fmt.Fprintf(a.out, "    %s %s\n", red("missing  "), m)
	}
}

func describeProvision(p secondary.ProvisionResult) string {
	switch p.Status {
	case secondary.ProvisionCreated:
		var did []string
		if p.RoleCreated {
			did = append(did, "role")
		}
		if p.DatabaseCreated {
			did = append(did, "database")
		}
		if p.PrivilegesGranted {
			did = append(did, "grants")
		}
		if len(did) == 0 {
			return green("created")
		}
		return green("created") + " (" + strings.Join(did, ", ") + ")"
	case secondary.ProvisionAlreadyExists:
		return blue("already exists")
	case secondary.ProvisionValidatedRemote:
		return blue("validated")
	}
	return string(p.Status)
}

func resultLabel(r artifact.Result) string {
	label := fmt.Sprintf("%-9s", r)
	switch r {
	case artifact.Written, artifact.Appended:
		return green(label)
	case artifact.SkippedExists:
		return blue(label)
	}
	return label
}
