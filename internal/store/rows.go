package store

import (
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/akiroussama/codeClashServer/internal/models"
)

// rawRecord is a test_status row before its documents are parsed.
type rawRecord struct {
	id             int64
	userName       string
	ts             string
	testStatus     string
	projectInfo    string
	gitInfo        *string
	testRunnerInfo *string
	environment    *string
	execution      *string
}

func scanRawRecord(row pgx.Row) (*rawRecord, error) {
	var r rawRecord
	err := row.Scan(
		&r.id, &r.userName, &r.ts, &r.testStatus, &r.projectInfo,
		&r.gitInfo, &r.testRunnerInfo, &r.environment, &r.execution,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// decode parses the stored document text back into structured form. Any
// column that fails to parse makes the whole row undecodable.
func (r *rawRecord) decode() (*models.TestStatusRecord, error) {
	rec := &models.TestStatusRecord{
		ID:        r.id,
		User:      r.userName,
		Timestamp: r.ts,
	}

	var err error
	if rec.TestStatus, err = models.ParseDocument(r.testStatus); err != nil {
		return nil, fmt.Errorf("testStatus: %w", err)
	}
	if rec.ProjectInfo, err = models.ParseDocument(r.projectInfo); err != nil {
		return nil, fmt.Errorf("projectInfo: %w", err)
	}
	if rec.GitInfo, err = parseOptional(r.gitInfo); err != nil {
		return nil, fmt.Errorf("gitInfo: %w", err)
	}
	if rec.TestRunnerInfo, err = parseOptional(r.testRunnerInfo); err != nil {
		return nil, fmt.Errorf("testRunnerInfo: %w", err)
	}
	if rec.Environment, err = parseOptional(r.environment); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}
	if rec.Execution, err = parseOptional(r.execution); err != nil {
		return nil, fmt.Errorf("execution: %w", err)
	}
	return rec, nil
}

func parseOptional(s *string) (models.Document, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	return models.ParseDocument(*s)
}

// collectRecords drains rows, silently excluding rows whose documents
// fail to parse. A bad row never fails the query.
func collectRecords(rows pgx.Rows) ([]models.TestStatusRecord, error) {
	out := []models.TestStatusRecord{}
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
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read test status rows: %w", err)
	}
	return out, nil
}
