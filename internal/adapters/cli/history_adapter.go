package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/example/stackup/internal/ports/primary"
)

// HistoryAdapter prints the run journal.
type HistoryAdapter struct {
	service primary.HistoryService
	out     io.Writer
}

// NewHistoryAdapter creates a new HistoryAdapter with the given service.
func NewHistoryAdapter(service primary.HistoryService, out io.Writer) *HistoryAdapter {
	return &HistoryAdapter{service: service, out: out}
}

// List prints up to limit runs, newest first.
func (a *HistoryAdapter) List(ctx context.Context, limit int) error {
	runs, err := a.service.ListRuns(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Fprintln(a.out, "No runs recorded")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPROJECT\tTARGET\tSTATUS\tSTARTED")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.Project, r.Target, runStatus(r.Status), r.StartedAt)
	}
	return w.Flush()
}

// Show prints the phases and artifacts of one run.
func (a *HistoryAdapter) Show(ctx context.Context, runID string) error {
	phases, artifacts, err := a.service.RunDetail(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to load run %s: %w", runID, err)
	}
	if len(phases) == 0 && len(artifacts) == 0 {
		fmt.Fprintf(a.out, "No phases recorded for run %s\n", runID)
		return nil
	}

	fmt.Fprintf(a.out, "\nRun: %s\n", runID)
	for _, p := range phases {
		line := fmt.Sprintf("  %s %s", bold(p.PhaseID), runStatus(p.Status))
		if p.Skipped {
			line += " (already complete)"
		}
		fmt.Fprintln(a.out, line)
		if p.Detail != "" {
			fmt.Fprintf(a.out, "    %s\n", p.Detail)
		}
		for _, art := range artifacts {
			if art.PhaseID == p.PhaseID {
				fmt.Fprintf(a.out, "    %-14s %-20s %s\n", art.Result, art.Strategy, art.Path)
			}
		}
	}
	fmt.Fprintln(a.out)
	return nil
}

func runStatus(s string) string {
	switch s {
	case "completed":
		return green(s)
	case "failed":
		return red(s)
	}
	return yellow(s)
}
