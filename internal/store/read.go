package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/tape/internal/ir"
)

// ErrNotFound is returned when a run id has no record.
var ErrNotFound = errors.New("run not found")

const runColumns = `seq, id, source, program_hash, status, steps, input_bytes, output, error_code, error_message, ir_version`

// ReadRun retrieves a single run by id.
func (s *Store) ReadRun(ctx context.Context, id string) (ir.RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	rec, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.RunRecord{}, fmt.Errorf("read run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return ir.RunRecord{}, fmt.Errorf("read run %s: %w", id, err)
	}
	return rec, nil
}

// ListRuns returns up to limit runs, newest first. limit <= 0 means no limit.
//
// Returns an empty slice (not nil) if the store holds no runs.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]ir.RunRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		ORDER BY seq DESC
		LIMIT ?
	`, sqlLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	return collectRuns(rows)
}

// ListRunsByProgram is ListRuns restricted to one program hash.
func (s *Store) ListRunsByProgram(ctx context.Context, programHash string, limit int) ([]ir.RunRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		WHERE program_hash = ?
		ORDER BY seq DESC
		LIMIT ?
	`, programHash, sqlLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	return collectRuns(rows)
}

// sqlLimit maps "no limit" to SQLite's -1.
func sqlLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}

func collectRuns(rows *sql.Rows) ([]ir.RunRecord, error) {
	defer rows.Close()

	runs := []ir.RunRecord{}
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (ir.RunRecord, error) {
	var (
		rec    ir.RunRecord
		status string
	)
	err := row.Scan(
		&rec.Seq,
		&rec.ID,
		&rec.Source,
		&rec.ProgramHash,
		&status,
		&rec.Steps,
		&rec.InputBytes,
		&rec.Output,
		&rec.ErrorCode,
		&rec.ErrorMessage,
		&rec.IRVersion,
	)
	if err != nil {
		return ir.RunRecord{}, err
	}
	rec.Status = ir.RunStatus(status)
	return rec, nil
}
