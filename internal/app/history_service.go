package app

import (
	"context"

	"github.com/example/stackup/internal/ports/primary"
	"github.com/example/stackup/internal/ports/secondary"
)

// HistoryServiceImpl implements the HistoryService interface.
type HistoryServiceImpl struct {
	journal secondary.Journal
	project string
}

// NewHistoryService creates a HistoryService scoped to project. An empty
// project lists runs of every project.
func NewHistoryService(journal secondary.Journal, project string) *HistoryServiceImpl {
	return &HistoryServiceImpl{journal: journal, project: project}
}

// ListRuns returns up to limit runs, newest first. limit <= 0 means all.
func (s *HistoryServiceImpl) ListRuns(ctx context.Context, limit int) ([]*secondary.RunRecord, error) {
	return s.journal.ListRuns(ctx, secondary.RunFilters{Project: s.project, Limit: limit})
}

// RunDetail returns the phases and artifacts recorded for runID.
func (s *HistoryServiceImpl) RunDetail(ctx context.Context, runID string) ([]*secondary.PhaseRecord, []*secondary.ArtifactRecord, error) {
	phases, err := s.journal.ListPhases(ctx, runID)
	if err != nil {
		return nil, nil, err
	}
	artifacts, err := s.journal.ListArtifacts(ctx, runID)
	if err != nil {
		return nil, nil, err
	}
	return phases, artifacts, nil
}

var _ primary.HistoryService = (*HistoryServiceImpl)(nil)
