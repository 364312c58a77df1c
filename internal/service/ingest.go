package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/akiroussama/codeClashServer/internal/logging"
	"github.com/akiroussama/codeClashServer/internal/metrics"
	"github.com/akiroussama/codeClashServer/internal/models"
	"github.com/akiroussama/codeClashServer/internal/store"
)

// Broadcaster fans an already-serialized payload out to live observers.
// Implementations never return an error; delivery failures are isolated
// per connection.
type Broadcaster interface {
	Broadcast(payload []byte)
}

// IngestService validates producer submissions, persists them, and for
// file events triggers the observer broadcast. Persistence always
// completes before broadcast starts; a failed write drops the event.
type IngestService struct {
	store       store.Store
	broadcaster Broadcaster
}

func NewIngestService(s store.Store, b Broadcaster) *IngestService {
	return &IngestService{store: s, broadcaster: b}
}

// SubmitFileEvent persists a file-save notification and then pushes the
// producer's raw payload verbatim to every observer. The broadcast is
// pass-through: observers see exactly what the producer sent, not a
// re-serialization of the stored row.
func (s *IngestService) SubmitFileEvent(ctx context.Context, ev models.FileEvent, raw []byte) (int64, error) {
	start := time.Now()
	id, err := s.store.AppendFileEvent(ctx, ev.FileName, ev.Timestamp)
	metrics.StorageDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.StorageErrors.Inc()
		return 0, fmt.Errorf("failed to persist file event: %w", err)
	}

	s.broadcaster.Broadcast(raw)

	slog.DebugContext(ctx, "file event ingested",
		logging.EventID(id), logging.FileName(ev.FileName))
	return id, nil
}

// SubmitTestStatus validates the required-field invariant and persists the
// record. Test-status submissions are not broadcast; the live channel
// carries file events only.
func (s *IngestService) SubmitTestStatus(ctx context.Context, rec *models.TestStatusRecord) (int64, error) {
	if err := validateTestStatus(rec); err != nil {
		metrics.ValidationErrors.Inc()
		return 0, err
	}

	start := time.Now()
	id, err := s.store.AppendTestStatus(ctx, rec)
	metrics.StorageDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.StorageErrors.Inc()
		return 0, fmt.Errorf("failed to persist test status: %w", err)
	}

	slog.DebugContext(ctx, "test status ingested",
		logging.EventID(id), logging.Username(rec.User))
	return id, nil
}

func validateTestStatus(rec *models.TestStatusRecord) error {
	if strings.TrimSpace(rec.User) == "" {
		return &ValidationError{Reason: "user is required"}
	}
	if len(rec.ProjectInfo) == 0 {
		return &ValidationError{Reason: "projectInfo is required"}
	}
	if len(rec.TestStatus) == 0 {
		return &ValidationError{Reason: "testStatus is required"}
	}
	total, ok := rec.TestStatus.Int("total")
	if !ok {
		return &ValidationError{Reason: "testStatus.total is required"}
	}
	if total <= 0 {
		return &ValidationError{Reason: "testStatus.total must be greater than zero"}
	}
	return nil
}
