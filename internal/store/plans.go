package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Plan is an execution plan, optionally derived from a decision.
type Plan struct {
	ID          string
	DecisionID  string // empty when the plan stands alone
	Name        string
	Description string
	CreatedAt   time.Time
}

// Deployment is one rollout of a plan into an environment.
type Deployment struct {
	ID          string
	PlanID      string
	Environment string
	Status      string // pending, running, succeeded, failed
	CreatedAt   time.Time
}

// CreatePlan inserts a plan. A non-empty DecisionID must reference an existing decision.
func (db *DB) CreatePlan(ctx context.Context, p *Plan) error {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO plans (id, decision_id, name, description, created_at)
		VALUES (?, NULLIF(?, ''), ?, ?, ?)
	`, p.ID, p.DecisionID, p.Name, p.Description, toMillis(p.CreatedAt))
	return classify(ctx, "create plan", err)
}

// GetPlan returns a plan by id, or ErrNotFound.
func (db *DB) GetPlan(ctx context.Context, id string) (*Plan, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	var p Plan
	var decisionID sql.NullString
	var createdAt int64
	err := db.QueryRowContext(ctx, `
		SELECT id, decision_id, name, description, created_at FROM plans WHERE id = ?
	`, id).Scan(&p.ID, &decisionID, &p.Name, &p.Description, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("plan %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, classify(ctx, "get plan", err)
	}
	p.DecisionID = decisionID.String
	p.CreatedAt = fromMillis(createdAt)
	return &p, nil
}

// ListPlans returns the most recent plans, newest first.
func (db *DB) ListPlans(ctx context.Context, limit int) ([]Plan, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	rows, err := db.QueryContext(ctx, `
		SELECT id, decision_id, name, description, created_at FROM plans
		ORDER BY created_at DESC, rowid DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, classify(ctx, "list plans", err)
	}
	defer rows.Close()

	var plans []Plan
	for rows.Next() {
		var p Plan
		var decisionID sql.NullString
		var createdAt int64
		if err := rows.Scan(&p.ID, &decisionID, &p.Name, &p.Description, &createdAt); err != nil {
			return nil, classify(ctx, "scan plan", err)
		}
		p.DecisionID = decisionID.String
		p.CreatedAt = fromMillis(createdAt)
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(ctx, "list plans", err)
	}
	return plans, nil
}

// DeletePlan removes a plan and, by cascade, its deployments.
func (db *DB) DeletePlan(ctx context.Context, id string) error {
	return db.deleteByID(ctx, "plans", "plan", id)
}

// CreateDeployment inserts a deployment. Status defaults to pending.
func (db *DB) CreateDeployment(ctx context.Context, d *Deployment) error {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	if d.Status == "" {
		d.Status = "pending"
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO deployments (id, plan_id, environment, status, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, d.ID, d.PlanID, d.Environment, d.Status, toMillis(d.CreatedAt))
	return classify(ctx, "create deployment", err)
}

// GetDeployment returns a deployment by id, or ErrNotFound.
func (db *DB) GetDeployment(ctx context.Context, id string) (*Deployment, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	var d Deployment
	var createdAt int64
	err := db.QueryRowContext(ctx, `
		SELECT id, plan_id, environment, status, created_at FROM deployments WHERE id = ?
	`, id).Scan(&d.ID, &d.PlanID, &d.Environment, &d.Status, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("deployment %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, classify(ctx, "get deployment", err)
	}
	d.CreatedAt = fromMillis(createdAt)
	return &d, nil
}

// ListDeployments returns recent deployments, newest first. A non-empty
// planID restricts the list to that plan.
func (db *DB) ListDeployments(ctx context.Context, planID string, limit int) ([]Deployment, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	rows, err := db.QueryContext(ctx, `
		SELECT id, plan_id, environment, status, created_at FROM deployments
		WHERE (? = '' OR plan_id = ?)
		ORDER BY created_at DESC, rowid DESC LIMIT ?
	`, planID, planID, limit)
	if err != nil {
		return nil, classify(ctx, "list deployments", err)
	}
	defer rows.Close()

	var out []Deployment
	for rows.Next() {
		var d Deployment
		var createdAt int64
		if err := rows.Scan(&d.ID, &d.PlanID, &d.Environment, &d.Status, &createdAt); err != nil {
			return nil, classify(ctx, "scan deployment", err)
		}
		d.CreatedAt = fromMillis(createdAt)
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(ctx, "list deployments", err)
	}
	return out, nil
}

// DeleteDeployment removes a deployment by id.
func (db *DB) DeleteDeployment(ctx context.Context, id string) error {
	return db.deleteByID(ctx, "deployments", "deployment", id)
}

// table is always a package constant, never caller input.
func (db *DB) deleteByID(ctx context.Context, table, noun, id string) error {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	result, err := db.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ?", id)
	if err != nil {
		return classify(ctx, "delete "+noun, err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%s %s: %w", noun, id, ErrNotFound)
	}
	return nil
}
