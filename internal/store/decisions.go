package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Signals are the three categorical assessments recorded with a decision.
type Signals struct {
	Financial  string
	Risk       string
	Complexity string
}

// Decision is an immutable decision record.
type Decision struct {
	ID                 string
	Objective          string
	Recommendation     string
	RecommendationType string // derived from Recommendation at creation
	Confidence         string // HIGH, MEDIUM or LOW
	Signals            Signals
	CreatedAt          time.Time
}

// RankedDecision is a decision together with the ledger weight it was ranked by.
type RankedDecision struct {
	Decision
	Weight float64
}

// DecisionFilter narrows ListDecisions.
type DecisionFilter struct {
	// ObjectiveSubstring matches case-insensitively anywhere in the objective.
	ObjectiveSubstring string
}

const decisionColumns = `d.id, d.objective, d.recommendation, d.recommendation_type, d.confidence,
	d.signal_financial, d.signal_risk, d.signal_complexity, d.created_at`

// CreateDecision inserts a decision. CreatedAt defaults to now.
// A duplicate id fails with ErrConflict.
func (db *DB) CreateDecision(ctx context.Context, d *Decision) error {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO decisions (id, objective, recommendation, recommendation_type, confidence,
			signal_financial, signal_risk, signal_complexity, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, d.ID, d.Objective, d.Recommendation, d.RecommendationType, d.Confidence,
		d.Signals.Financial, d.Signals.Risk, d.Signals.Complexity, toMillis(d.CreatedAt))
	return classify(ctx, "create decision", err)
}

// GetDecision returns a decision by id, or ErrNotFound.
func (db *DB) GetDecision(ctx context.Context, id string) (*Decision, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	row := db.QueryRowContext(ctx, `SELECT `+decisionColumns+` FROM decisions d WHERE d.id = ?`, id)
	d, err := scanDecision(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("decision %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, classify(ctx, "get decision", err)
	}
	return d, nil
}

// ListDecisions returns decisions ordered by the weight of their direct
// decision→recommendation edge (0 when the edge does not exist) descending,
// then newest first. total is the filtered count ignoring limit and offset.
func (db *DB) ListDecisions(ctx context.Context, f DecisionFilter, limit, offset int) ([]RankedDecision, int, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	where := ""
	var args []any
	if f.ObjectiveSubstring != "" {
		where = "WHERE instr(lower(d.objective), lower(?)) > 0"
		args = append(args, f.ObjectiveSubstring)
	}

	// One transaction so total and the page read the same WAL snapshot.
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, 0, classify(ctx, "list decisions", err)
	}
	defer tx.Rollback()

	var total int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM decisions d `+where, args...).Scan(&total); err != nil {
		return nil, 0, classify(ctx, "count decisions", err)
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT `+decisionColumns+`, COALESCE(lw.weight, 0) AS rank_weight
		FROM decisions d
		LEFT JOIN learning_weights lw
			ON lw.source_type = 'decision'
			AND lw.source_id = d.id
			AND lw.target_type = 'recommendation'
			AND lw.target_value = d.recommendation_type
		`+where+`
		ORDER BY rank_weight DESC, d.created_at DESC, d.rowid DESC
		LIMIT ? OFFSET ?
	`, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, classify(ctx, "list decisions", err)
	}
	defer rows.Close()

	var out []RankedDecision
	for rows.Next() {
		var r RankedDecision
		var createdAt int64
		if err := rows.Scan(&r.ID, &r.Objective, &r.Recommendation, &r.RecommendationType, &r.Confidence,
			&r.Signals.Financial, &r.Signals.Risk, &r.Signals.Complexity, &createdAt, &r.Weight); err != nil {
			return nil, 0, classify(ctx, "scan decision", err)
		}
		r.CreatedAt = fromMillis(createdAt)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, classify(ctx, "list decisions", err)
	}
	return out, total, nil
}

func scanDecision(row *sql.Row) (*Decision, error) {
	var d Decision
	var createdAt int64
	if err := row.Scan(&d.ID, &d.Objective, &d.Recommendation, &d.RecommendationType, &d.Confidence,
		&d.Signals.Financial, &d.Signals.Risk, &d.Signals.Complexity, &createdAt); err != nil {
		return nil, err
	}
	d.CreatedAt = fromMillis(createdAt)
	return &d, nil
}
