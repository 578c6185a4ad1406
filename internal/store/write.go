package store

import (
	"context"
	"fmt"
)

// WriteRun inserts a run and its groups in one transaction.
// Uses ON CONFLICT(id) DO NOTHING for idempotency: writing a run whose ID
// already exists returns inserted=false and leaves the stored run untouched.
func (s *Store) WriteRun(ctx context.Context, run Run) (inserted bool, err error) {
	if run.ID == "" {
		return false, fmt.Errorf("write run: empty id")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("write run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	result, err := tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, uuid, county_a, county_b, race, sex, steps, ax_supplied, baseline_e0, comparison_e0, total_difference)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.UUID,
		run.CountyA,
		run.CountyB,
		run.Race,
		run.Sex,
		run.Steps,
		run.AxSupplied,
		run.BaselineE0,
		run.ComparisonE0,
		run.TotalDifference,
	)
	if err != nil {
		return false, fmt.Errorf("write run: insert: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("write run: rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return false, nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO contributions
		(run_id, idx, age_lower, age_upper, baseline_mx, comparison_mx, ax, contribution)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return false, fmt.Errorf("write run: prepare groups: %w", err)
	}
	defer stmt.Close()

	for i, g := range run.Groups {
		if _, err := stmt.ExecContext(ctx,
			run.ID, i, g.AgeLower, g.AgeUpper, g.BaselineMx, g.ComparisonMx, g.Ax, g.Contribution,
		); err != nil {
			return false, fmt.Errorf("write run: group %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("write run: commit: %w", err)
	}
	return true, nil
}

// DeleteRun removes a run and its groups. Deleting a missing run returns
// ErrNotFound.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ? OR uuid = ?`, id, id)
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete run: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("delete run %s: %w", id, ErrNotFound)
	}
	return nil
}
