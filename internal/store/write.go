package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/tape/internal/ir"
)

// WriteRun appends a run record.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - writing the same id twice
// keeps the first record. Returns the record's seq.
func (s *Store) WriteRun(ctx context.Context, rec ir.RunRecord) (int64, error) {
	if rec.ID == "" {
		return 0, errors.New("write run: empty id")
	}
	output := rec.Output
	if output == nil {
		output = []byte{}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, source, program_hash, status, steps, input_bytes, output, error_code, error_message, ir_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		rec.ID,
		rec.Source,
		rec.ProgramHash,
		string(rec.Status),
		rec.Steps,
		rec.InputBytes,
		output,
		rec.ErrorCode,
		rec.ErrorMessage,
		rec.IRVersion,
	)
	if err != nil {
		return 0, fmt.Errorf("write run: %w", err)
	}

	var seq int64
	if err := s.db.QueryRowContext(ctx, `SELECT seq FROM runs WHERE id = ?`, rec.ID).Scan(&seq); err != nil {
		return 0, fmt.Errorf("write run: read seq: %w", err)
	}

	s.logger.Debug("run recorded", "run_id", rec.ID, "seq", seq, "status", rec.Status)
	return seq, nil
}
