package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// LearningWeight is one edge of the weight ledger.
type LearningWeight struct {
	ID          int64
	SourceType  string
	SourceID    string
	TargetType  string
	TargetValue string
	Weight      float64
	UpdateCount int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// WeightKey is the composite identity of a ledger edge.
type WeightKey struct {
	SourceType  string
	SourceID    string
	TargetType  string
	TargetValue string
}

// WeightFilter narrows ListWeights. Empty fields match everything.
type WeightFilter struct {
	SourceType string
	SourceID   string
}

const weightColumns = `id, source_type, source_id, target_type, target_value, weight, update_count, created_at, updated_at`

// ApplyReward folds reward into the edge identified by key using an
// exponential moving average with the given rate, and returns the row as
// committed. The first touch seeds weight = reward with update_count = 1.
//
// The blend is evaluated by SQLite inside the upsert, so concurrent callers
// on the same edge serialize on the row and each sees the last committed
// weight.
func (db *DB) ApplyReward(ctx context.Context, key WeightKey, reward, rate float64) (*LearningWeight, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	now := toMillis(time.Now())
	row := db.QueryRowContext(ctx, `
		INSERT INTO learning_weights (source_type, source_id, target_type, target_value, weight, update_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 1, ?, ?)
		ON CONFLICT (source_type, source_id, target_type, target_value) DO UPDATE SET
			weight       = learning_weights.weight + ? * (excluded.weight - learning_weights.weight),
			update_count = learning_weights.update_count + 1,
			updated_at   = excluded.updated_at
		RETURNING `+weightColumns,
		key.SourceType, key.SourceID, key.TargetType, key.TargetValue, reward, now, now,
		rate,
	)
	w, err := scanWeight(row)
	if err != nil {
		return nil, classify(ctx, fmt.Sprintf("apply reward (%s, %s, %s)", key.SourceType, key.SourceID, key.TargetValue), err)
	}
	return w, nil
}

// GetWeight returns a single edge, or ErrNotFound if it was never touched.
func (db *DB) GetWeight(ctx context.Context, key WeightKey) (*LearningWeight, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	row := db.QueryRowContext(ctx, `
		SELECT `+weightColumns+` FROM learning_weights
		WHERE source_type = ? AND source_id = ? AND target_type = ? AND target_value = ?
	`, key.SourceType, key.SourceID, key.TargetType, key.TargetValue)
	w, err := scanWeight(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("weight (%s, %s): %w", key.SourceType, key.SourceID, ErrNotFound)
	}
	if err != nil {
		return nil, classify(ctx, "get weight", err)
	}
	return w, nil
}

// ListWeights returns edges ordered by weight magnitude, strongest first.
func (db *DB) ListWeights(ctx context.Context, f WeightFilter, limit int) ([]LearningWeight, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	rows, err := db.QueryContext(ctx, `
		SELECT `+weightColumns+` FROM learning_weights
		WHERE (? = '' OR source_type = ?) AND (? = '' OR source_id = ?)
		ORDER BY abs(weight) DESC, updated_at DESC
		LIMIT ?
	`, f.SourceType, f.SourceType, f.SourceID, f.SourceID, limit)
	if err != nil {
		return nil, classify(ctx, "list weights", err)
	}
	defer rows.Close()

	var out []LearningWeight
	for rows.Next() {
		var w LearningWeight
		var createdAt, updatedAt int64
		if err := rows.Scan(&w.ID, &w.SourceType, &w.SourceID, &w.TargetType, &w.TargetValue,
			&w.Weight, &w.UpdateCount, &createdAt, &updatedAt); err != nil {
			return nil, classify(ctx, "scan weight", err)
		}
		w.CreatedAt = fromMillis(createdAt)
		w.UpdatedAt = fromMillis(updatedAt)
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(ctx, "list weights", err)
	}
	return out, nil
}

// CountWeights returns the number of ledger rows matching f.
func (db *DB) CountWeights(ctx context.Context, f WeightFilter) (int, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	var n int
	err := db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM learning_weights
		WHERE (? = '' OR source_type = ?) AND (? = '' OR source_id = ?)
	`, f.SourceType, f.SourceType, f.SourceID, f.SourceID).Scan(&n)
	if err != nil {
		return 0, classify(ctx, "count weights", err)
	}
	return n, nil
}

func scanWeight(row *sql.Row) (*LearningWeight, error) {
	var w LearningWeight
	var createdAt, updatedAt int64
	if err := row.Scan(&w.ID, &w.SourceType, &w.SourceID, &w.TargetType, &w.TargetValue,
		&w.Weight, &w.UpdateCount, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	w.CreatedAt = fromMillis(createdAt)
	w.UpdatedAt = fromMillis(updatedAt)
	return &w, nil
}
