package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Approval is one append-only approval or rejection of a decision.
type Approval struct {
	ID                   string
	DecisionID           string
	Approved             bool
	ConfidenceAdjustment *float64
	Timestamp            time.Time
	Reward               float64
	CreatedAt            time.Time
}

const approvalColumns = `id, decision_id, approved, confidence_adjustment, timestamp, reward, created_at`

// CreateApproval appends an approval record. The referenced decision must
// exist; otherwise ErrNotFound.
func (db *DB) CreateApproval(ctx context.Context, a *Approval) error {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	now := time.Now().UTC()
	if a.Timestamp.IsZero() {
		a.Timestamp = now
	}
	a.CreatedAt = now

	var adj sql.NullFloat64
	if a.ConfidenceAdjustment != nil {
		adj = sql.NullFloat64{Float64: *a.ConfidenceAdjustment, Valid: true}
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO approvals (`+approvalColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, a.ID, a.DecisionID, boolToInt(a.Approved), adj, toMillis(a.Timestamp), a.Reward, toMillis(a.CreatedAt))
	return classify(ctx, "create approval", err)
}

// GetApproval returns an approval by id, or ErrNotFound.
func (db *DB) GetApproval(ctx context.Context, id string) (*Approval, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	rows, err := db.QueryContext(ctx, `SELECT `+approvalColumns+` FROM approvals WHERE id = ?`, id)
	if err != nil {
		return nil, classify(ctx, "get approval", err)
	}
	defer rows.Close()

	approvals, err := scanApprovals(rows)
	if err != nil {
		return nil, classify(ctx, "get approval", err)
	}
	if len(approvals) == 0 {
		return nil, fmt.Errorf("approval %s: %w", id, ErrNotFound)
	}
	return &approvals[0], nil
}

// ListApprovals returns all approvals for a decision, newest event first.
func (db *DB) ListApprovals(ctx context.Context, decisionID string) ([]Approval, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	rows, err := db.QueryContext(ctx, `
		SELECT `+approvalColumns+` FROM approvals
		WHERE decision_id = ?
		ORDER BY timestamp DESC, created_at DESC
	`, decisionID)
	if err != nil {
		return nil, classify(ctx, "list approvals", err)
	}
	defer rows.Close()

	approvals, err := scanApprovals(rows)
	if err != nil {
		return nil, classify(ctx, "list approvals", err)
	}
	return approvals, nil
}

func scanApprovals(rows *sql.Rows) ([]Approval, error) {
	var out []Approval
	for rows.Next() {
		var a Approval
		var approved int
		var adj sql.NullFloat64
		var ts, createdAt int64
		if err := rows.Scan(&a.ID, &a.DecisionID, &approved, &adj, &ts, &a.Reward, &createdAt); err != nil {
			return nil, fmt.Errorf("scan approval: %w", err)
		}
		a.Approved = approved != 0
		if adj.Valid {
			v := adj.Float64
			a.ConfidenceAdjustment = &v
		}
		a.Timestamp = fromMillis(ts)
		a.CreatedAt = fromMillis(createdAt)
		out = append(out, a)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
