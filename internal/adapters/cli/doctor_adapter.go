package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/example/stackup/internal/core/prereq"
	"github.com/example/stackup/internal/ports/primary"
)

// DoctorAdapter prints prerequisite reports.
type DoctorAdapter struct {
	service primary.PrerequisiteService
	out     io.Writer
}

// NewDoctorAdapter creates a new DoctorAdapter with the given service.
func NewDoctorAdapter(service primary.PrerequisiteService, out io.Writer) *DoctorAdapter {
	return &DoctorAdapter{service: service, out: out}
}

// Check probes reqs and prints a table. The returned error is non-nil when
// any requirement is unmet.
func (a *DoctorAdapter) Check(ctx context.Context, reqs []prereq.Requirement, quiet bool) error {
	report := a.service.Check(ctx, reqs)
	if !quiet {
		a.print(report)
	}
	return report.Err()
}

// Gate probes reqs and prints only the failures.
func (a *DoctorAdapter) Gate(ctx context.Context, reqs []prereq.Requirement) error {
	report := a.service.Check(ctx, reqs)
	for _, e := range report.Failed() {
		fmt.Fprintf(a.out, "%s %-12s %s\n", red("✗"), e.Requirement.Tool, e.Detail)
	}
	return report.Err()
}

func (a *DoctorAdapter) print(report prereq.Report) {
	fmt.Fprintln(a.out)
	fmt.Fprintf(a.out, "%-12s %-10s %-8s %s\n", "Tool", "Required", "Found", "Status")
	fmt.Fprintln(a.out, "──────────────────────────────────────────────")
	for _, e := range report.Entries {
		required := e.Requirement.MinVersion
		if required == "" {
			required = "any"
		}
		found := e.Version
		if found == "" {
			found = "-"
		}
		fmt.Fprintf(a.out, "%-12s %-10s %-8s %s\n", e.Requirement.Tool, required, found, entryMark(e))
	}
	fmt.Fprintln(a.out)

	failed := report.Failed()
	if len(failed) == 0 {
		fmt.Fprintf(a.out, "%s All prerequisites satisfied\n", green("✓"))
		return
	}
	fmt.Fprintln(a.out, "Details:")
	for _, e := range failed {
		fmt.Fprintf(a.out, "  %s: %s\n", e.Requirement.Tool, e.Detail)
	}
}

func entryMark(e prereq.Entry) string {
	switch e.Status {
	case prereq.StatusFound:
		return green("✓")
	case prereq.StatusVersionTooLow:
		return yellow("⚠ too old")
	}
	return red("✗ missing")
}
