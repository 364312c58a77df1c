package service

import (
	"context"
	"fmt"

	"github.com/akiroussama/codeClashServer/internal/models"
	"github.com/akiroussama/codeClashServer/internal/store"
)

// QueryService exposes the store's read operations. Empty filtered result
// sets surface as store.ErrNoResults so the boundary can answer "no
// content" instead of a server error.
type QueryService struct {
	store store.Store
}

func NewQueryService(s store.Store) *QueryService {
	return &QueryService{store: s}
}

func (s *QueryService) ListFileEvents(ctx context.Context) ([]models.FileEvent, error) {
	events, err := s.store.ListFileEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list file events: %w", err)
	}
	return events, nil
}

func (s *QueryService) ListTestStatus(ctx context.Context) ([]models.TestStatusRecord, error) {
	records, err := s.store.ListTestStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list test status: %w", err)
	}
	return records, nil
}

// LatestTestStatus returns the single most recent record across all users.
func (s *QueryService) LatestTestStatus(ctx context.Context) (*models.TestStatusRecord, error) {
	return s.store.LatestTestStatus(ctx)
}

// LatestPerUser returns one record per distinct user, each user's most
// recent by timestamp.
func (s *QueryService) LatestPerUser(ctx context.Context) ([]models.TestStatusRecord, error) {
	records, err := s.store.LatestPerUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest per user: %w", err)
	}
	return records, nil
}

// FilteredLatestPerUser applies the given filters around the latest-per-user
// selection. An empty final result set returns store.ErrNoResults.
func (s *QueryService) FilteredLatestPerUser(ctx context.Context, f store.Filters) ([]models.TestStatusRecord, error) {
	return s.store.FilteredLatestPerUser(ctx, f)
}
