package ledger

import (
	"context"
	"fmt"
)

// WriteRun inserts a new run row with status running.
func (s *Store) WriteRun(ctx context.Context, run Run) error {
	status := run.Status
	if status == "" {
		status = StatusRunning
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, config_hash, config, status, error, pair_count)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.ConfigHash,
		run.Config,
		status,
		run.Error,
		run.PairCount,
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return nil
}

// WriteStep inserts a step. The (run_id, seq) pair must be unique and the run
// must exist.
func (s *Store) WriteStep(ctx context.Context, step Step) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO steps (run_id, seq, stage, pair_label, gene_a, gene_b, artifact, output)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		step.RunID,
		step.Seq,
		step.Stage,
		step.PairLabel,
		step.GeneA,
		step.GeneB,
		step.Artifact,
		step.Output,
	)
	if err != nil {
		return fmt.Errorf("write step: %w", err)
	}
	return nil
}

// FinishRun sets the final status, error text and pair count of a run.
func (s *Store) FinishRun(ctx context.Context, id, status, errText string, pairCount int) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE runs SET status = ?, error = ?, pair_count = ?
		WHERE id = ?
	`, status, errText, pairCount, id)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("finish run %s: %w", id, ErrRunNotFound)
	}
	return nil
}
