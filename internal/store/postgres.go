package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/akiroussama/codeClashServer/internal/models"
)

// PostgresStore persists both event streams in PostgreSQL. Ids are
// assigned by the database (BIGSERIAL) in write order; writes to the two
// tables are independent and non-transactional.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 2
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping reports whether the database is reachable; used by readiness checks.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) AppendFileEvent(ctx context.Context, fileName, timestamp string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO file_events (file_name, ts) VALUES ($1, $2) RETURNING id`,
		fileName, timestamp,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to append file event: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) ListFileEvents(ctx context.Context) ([]models.FileEvent, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, file_name, ts FROM file_events ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list file events: %w", err)
	}
	defer rows.Close()

	out := []models.FileEvent{}
	for rows.Next() {
		var ev models.FileEvent
		if err := rows.Scan(&ev.ID, &ev.FileName, &ev.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan file event: %w", err)
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read file events: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) AppendTestStatus(ctx context.Context, rec *models.TestStatusRecord) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	testStatus, err := rec.TestStatus.Serialize()
	if err != nil {
		return 0, fmt.Errorf("failed to serialize testStatus: %w", err)
	}
	projectInfo, err := rec.ProjectInfo.Serialize()
	if err != nil {
		return 0, fmt.Errorf("failed to serialize projectInfo: %w", err)
	}

	gitInfo, err := serializeOptional(rec.GitInfo)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize gitInfo: %w", err)
	}
	testRunnerInfo, err := serializeOptional(rec.TestRunnerInfo)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize testRunnerInfo: %w", err)
	}
	environment, err := serializeOptional(rec.Environment)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize environment: %w", err)
	}
	execution, err := serializeOptional(rec.Execution)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize execution: %w", err)
	}

	var id int64
	err = s.pool.QueryRow(ctx,
		`INSERT INTO test_status
		    (user_name, ts, test_status, project_info, git_info, test_runner_info, environment, execution)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		rec.User, rec.Timestamp, testStatus, projectInfo,
		gitInfo, testRunnerInfo, environment, execution,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to append test status: %w", err)
	}
	return id, nil
}

const testStatusColumns = `id, user_name, ts, test_status, project_info, git_info, test_runner_info, environment, execution`

func (s *PostgresStore) ListTestStatus(ctx context.Context) ([]models.TestStatusRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+testStatusColumns+` FROM test_status ORDER BY ts DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list test status: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

func (s *PostgresStore) LatestTestStatus(ctx context.Context) (*models.TestStatusRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+testStatusColumns+` FROM test_status ORDER BY ts DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest test status: %w", err)
	}
	defer rows.Close()

	// Newest first; an unreadable row falls back to the next readable one.
	for rows.Next() {
		raw, err := scanRawRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan test status: %w", err)
		}
		rec, err := raw.decode()
		if err != nil {
			slog.Debug("skipping undecodable test status row",
				slog.Int64("id", raw.id), slog.String("error", err.Error()))
			continue
		}
		return rec, nil
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read latest test status: %w", err)
	}
	return nil, ErrNoResults
}

// LatestPerUser selects, for each distinct user, the row with the maximum
// timestamp string, ties broken by highest id.
func (s *PostgresStore) LatestPerUser(ctx context.Context) ([]models.TestStatusRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT DISTINCT ON (user_name) `+testStatusColumns+`
		 FROM test_status
		 ORDER BY user_name, ts DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest per user: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// FilteredLatestPerUser restricts candidate rows structurally in SQL (all
// six documents present, username and date exact matches), selects the
// latest row per user among the parseable candidates, then applies the
// integer filters against the decoded testStatus document.
func (s *PostgresStore) FilteredLatestPerUser(ctx context.Context, f Filters) ([]models.TestStatusRecord, error) {
	q := `SELECT ` + testStatusColumns + `
	      FROM test_status
	      WHERE test_status <> '' AND project_info <> ''
	        AND git_info IS NOT NULL AND git_info <> ''
	        AND test_runner_info IS NOT NULL AND test_runner_info <> ''
	        AND environment IS NOT NULL AND environment <> ''
	        AND execution IS NOT NULL AND execution <> ''`
	args := []interface{}{}
	if f.Username != "" {
		args = append(args, f.Username)
		q += fmt.Sprintf(" AND user_name = $%d", len(args))
	}
	if f.Date != "" {
		args = append(args, f.Date)
		q += fmt.Sprintf(" AND left(ts, 10) = $%d", len(args))
	}
	q += ` ORDER BY user_name, ts DESC, id DESC`

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query filtered test status: %w", err)
	}
	defer rows.Close()

	// Rows arrive grouped by user, newest first. Unparseable rows are
	// dropped before latest-selection, so a user's latest readable row
	// wins even when a newer row is corrupt.
	latest := []models.TestStatusRecord{}
	lastUser := ""
	for rows.Next() {
		raw, err := scanRawRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan test status: %w", err)
		}
		if raw.userName == lastUser {
			continue
		}
		rec, err := raw.decode()
		if err != nil {
			slog.Debug("skipping undecodable test status row",
				slog.Int64("id", raw.id), slog.String("error", err.Error()))
			continue
		}
		latest = append(latest, *rec)
		lastUser = raw.userName
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read filtered test status: %w", err)
	}

	out := []models.TestStatusRecord{}
	for _, rec := range latest {
		if !matchInt(rec.TestStatus, "total", f.TotalTests) {
			continue
		}
		if !matchInt(rec.TestStatus, "failed", f.Failed) {
			continue
		}
		if !matchInt(rec.TestStatus, "passed", f.Passed) {
			continue
		}
		out = append(out, rec)
	}
	if len(out) == 0 {
		return nil, ErrNoResults
	}
	return out, nil
}

func matchInt(doc models.Document, key string, want *int) bool {
	if want == nil {
		return true
	}
	got, ok := doc.Int(key)
	return ok && got == *want
}

func serializeOptional(d models.Document) (*string, error) {
	if d == nil {
		return nil, nil
	}
	s, err := d.Serialize()
	if err != nil {
		return nil, err
	}
	return &s, nil
}
