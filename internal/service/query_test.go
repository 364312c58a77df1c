package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akiroussama/codeClashServer/internal/models"
	"github.com/akiroussama/codeClashServer/internal/store"
)

func TestQueryService_ListFileEvents(t *testing.T) {
	want := []models.FileEvent{{ID: 1, FileName: "a.ts", Timestamp: "t1"}}
	svc := NewQueryService(&mockStore{
		listFileEventsFunc: func(ctx context.Context) ([]models.FileEvent, error) {
			return want, nil
		},
	})

	got, err := svc.ListFileEvents(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestQueryService_ListFileEvents_StorageFailure(t *testing.T) {
	svc := NewQueryService(&mockStore{
		listFileEventsFunc: func(ctx context.Context) ([]models.FileEvent, error) {
			return nil, errors.New("connection refused")
		},
	})

	_, err := svc.ListFileEvents(context.Background())
	assert.Error(t, err)
}

func TestQueryService_LatestTestStatus_NoResults(t *testing.T) {
	svc := NewQueryService(&mockStore{})

	_, err := svc.LatestTestStatus(context.Background())
	assert.ErrorIs(t, err, store.ErrNoResults)
}

func TestQueryService_FilteredLatestPerUser_PassesFilters(t *testing.T) {
	var captured store.Filters
	svc := NewQueryService(&mockStore{
		filteredLatestPerUserFunc: func(ctx context.Context, f store.Filters) ([]models.TestStatusRecord, error) {
			captured = f
			return []models.TestStatusRecord{{ID: 1, User: "bob"}}, nil
		},
	})

	total := 10
	out, err := svc.FilteredLatestPerUser(context.Background(), store.Filters{
		Username:   "bob",
		Date:       "2024-03-01",
		TotalTests: &total,
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "bob", captured.Username)
	assert.Equal(t, "2024-03-01", captured.Date)
	require.NotNil(t, captured.TotalTests)
	assert.Equal(t, 10, *captured.TotalTests)
}

func TestQueryService_FilteredLatestPerUser_NoResults(t *testing.T) {
	svc := NewQueryService(&mockStore{})

	_, err := svc.FilteredLatestPerUser(context.Background(), store.Filters{Username: "nobody"})
	assert.ErrorIs(t, err, store.ErrNoResults)
}
