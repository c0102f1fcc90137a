package secondary

import "context"

// RunRecord represents one engine invocation as stored in the journal.
type RunRecord struct {
	ID         string
	Project    string
	Target     string // Phase the run was asked to reach
	Status     string // running, completed, failed
	Error      string
	StartedAt  string
	FinishedAt string
}

// PhaseRecord is the final state of one phase within a run.
type PhaseRecord struct {
	RunID      string
	PhaseID    string
	Status     string
	Skipped    bool
	Detail     string
	FinishedAt string
}

// ArtifactRecord is the outcome of one applied artifact.
type ArtifactRecord struct {
	RunID    string
	PhaseID  string
	Path     string
	Strategy string
	Result   string
}

// RunFilters contains filter options for listing runs.
type RunFilters struct {
	Project string
	Limit   int
}

// Journal is the secondary port for the run history. It is informational
// only; completion is always detected from the project itself.
type Journal interface {
	// StartRun persists a new run.
	StartRun(ctx context.Context, run *RunRecord) error

	// FinishRun sets the terminal status of a run.
	FinishRun(ctx context.Context, id, status, errMsg string) error

	// RecordPhase stores the final state of a phase.
	RecordPhase(ctx context.Context, rec *PhaseRecord) error

	// RecordArtifact stores one artifact outcome.
	RecordArtifact(ctx context.Context, rec *ArtifactRecord) error

	// ListRuns returns runs newest first.
	ListRuns(ctx context.Context, filters RunFilters) ([]*RunRecord, error)

	// ListPhases returns the phases recorded for a run.
	ListPhases(ctx context.Context, runID string) ([]*PhaseRecord, error)

	// ListArtifacts returns the artifacts recorded for a run.
	ListArtifacts(ctx context.Context, runID string) ([]*ArtifactRecord, error)
}
