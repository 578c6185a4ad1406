package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("run not found")

// RunFilter narrows ListRuns. Empty fields match everything.
type RunFilter struct {
	County string // matches either side of the pair
	Race   string
	Sex    string
	Limit  int
}

const runColumns = `seq, id, uuid, county_a, county_b, race, sex, steps, ax_supplied, baseline_e0, comparison_e0, total_difference`

// ReadRun returns a run with its groups. id may be the content ID or the
// run UUID.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ? OR uuid = ?`, id, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("read run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("read run %s: %w", id, err)
	}

	run.Groups, err = s.readGroups(ctx, run.ID)
	if err != nil {
		return Run{}, err
	}
	return run, nil
}

// ListRuns returns run summaries (without groups) ordered by seq.
// Returns an empty slice (not nil) when nothing matches.
func (s *Store) ListRuns(ctx context.Context, f RunFilter) ([]Run, error) {
	var (
		where []string
		args  []any
	)
	if f.County != "" {
		where = append(where, "(county_a = ? OR county_b = ?)")
		args = append(args, f.County, f.County)
	}
	if f.Race != "" {
		where = append(where, "race = ?")
		args = append(args, f.Race)
	}
	if f.Sex != "" {
		where = append(where, "sex = ?")
		args = append(args, f.Sex)
	}

	query := `SELECT ` + runColumns + ` FROM runs`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY seq ASC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

func (s *Store) readGroups(ctx context.Context, runID string) ([]Group, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT age_lower, age_upper, baseline_mx, comparison_mx, ax, contribution
		FROM contributions
		WHERE run_id = ?
		ORDER BY idx ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query groups: %w", err)
	}
	defer rows.Close()

	groups := []Group{}
	for rows.Next() {
		var (
			g     Group
			upper sql.NullFloat64
			ax    sql.NullFloat64
		)
		if err := rows.Scan(&g.AgeLower, &upper, &g.BaselineMx, &g.ComparisonMx, &ax, &g.Contribution); err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		if upper.Valid {
			v := upper.Float64
			g.AgeUpper = &v
		}
		if ax.Valid {
			v := ax.Float64
			g.Ax = &v
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate groups: %w", err)
	}
	return groups, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var run Run
	err := sc.Scan(
		&run.Seq,
		&run.ID,
		&run.UUID,
		&run.CountyA,
		&run.CountyB,
		&run.Race,
		&run.Sex,
		&run.Steps,
		&run.AxSupplied,
		&run.BaselineE0,
		&run.ComparisonE0,
		&run.TotalDifference,
	)
	return run, err
}
