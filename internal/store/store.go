package store

import (
	"context"
	"errors"

	"github.com/akiroussama/codeClashServer/internal/models"
)

// ErrNoResults indicates a query matched zero rows. Callers distinguish
// this from storage failures so empty result sets surface as "no content"
// rather than server errors.
var ErrNoResults = errors.New("no matching results")

// Filters narrows FilteredLatestPerUser. Username and Date restrict
// candidate rows before latest-per-user selection; the integer filters are
// matched against the testStatus document after selection.
type Filters struct {
	Username   string
	Date       string // exact day, first 10 characters of the timestamp
	TotalTests *int
	Failed     *int
	Passed     *int
}

// Store is the durable, queryable log of file events and test-status
// records. All entities are append-only and immutable once persisted.
type Store interface {
	AppendFileEvent(ctx context.Context, fileName, timestamp string) (int64, error)
	ListFileEvents(ctx context.Context) ([]models.FileEvent, error)

	AppendTestStatus(ctx context.Context, rec *models.TestStatusRecord) (int64, error)
	ListTestStatus(ctx context.Context) ([]models.TestStatusRecord, error)
	LatestTestStatus(ctx context.Context) (*models.TestStatusRecord, error)
	LatestPerUser(ctx context.Context) ([]models.TestStatusRecord, error)
	FilteredLatestPerUser(ctx context.Context, f Filters) ([]models.TestStatusRecord, error)
}
