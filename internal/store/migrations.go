package store

import (
	"fmt"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "decisions: immutable decision records",
		SQL: `
CREATE TABLE decisions (
    id                  TEXT PRIMARY KEY,
    objective           TEXT NOT NULL,
    recommendation      TEXT NOT NULL,
    recommendation_type TEXT NOT NULL CHECK (recommendation_type IN ('PROCEED', 'DEFER', 'REJECT', 'REVIEW', 'HALT', 'UNKNOWN')),
    confidence          TEXT NOT NULL CHECK (confidence IN ('HIGH', 'MEDIUM', 'LOW')),
    signal_financial    TEXT NOT NULL DEFAULT '',
    signal_risk         TEXT NOT NULL DEFAULT '',
    signal_complexity   TEXT NOT NULL DEFAULT '',
    created_at          INTEGER NOT NULL
);

CREATE INDEX idx_decisions_created_at ON decisions(created_at DESC);
`,
	},
	{
		Version:     2,
		Description: "approvals: append-only approval events",
		SQL: `
CREATE TABLE approvals (
    id                    TEXT PRIMARY KEY,
    decision_id           TEXT NOT NULL,
    approved              INTEGER NOT NULL CHECK (approved IN (0, 1)),
    confidence_adjustment REAL CHECK (confidence_adjustment IS NULL OR confidence_adjustment BETWEEN -1 AND 1),
    timestamp             INTEGER NOT NULL,
    reward                REAL NOT NULL,
    created_at            INTEGER NOT NULL,

    FOREIGN KEY (decision_id) REFERENCES decisions(id)
);

CREATE INDEX idx_approvals_decision ON approvals(decision_id, timestamp DESC);
`,
	},
	{
		Version:     3,
		Description: "learning_weights: EMA weight ledger",
		SQL: `
CREATE TABLE learning_weights (
    id           INTEGER PRIMARY KEY,
    source_type  TEXT NOT NULL CHECK (source_type IN ('decision', 'signal', 'objective')),
    source_id    TEXT NOT NULL,
    target_type  TEXT NOT NULL,
    target_value TEXT NOT NULL,
    weight       REAL NOT NULL,
    update_count INTEGER NOT NULL DEFAULT 1,
    created_at   INTEGER NOT NULL,
    updated_at   INTEGER NOT NULL,

    UNIQUE (source_type, source_id, target_type, target_value)
);

CREATE INDEX idx_weights_source ON learning_weights(source_type, source_id);
`,
	},
	{
		Version:     4,
		Description: "plans and deployments",
		SQL: `
CREATE TABLE plans (
    id          TEXT PRIMARY KEY,
    decision_id TEXT,
    name        TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    created_at  INTEGER NOT NULL,

    FOREIGN KEY (decision_id) REFERENCES decisions(id)
);

CREATE TABLE deployments (
    id          TEXT PRIMARY KEY,
    plan_id     TEXT NOT NULL,
    environment TEXT NOT NULL,
    status      TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'running', 'succeeded', 'failed')),
    created_at  INTEGER NOT NULL,

    FOREIGN KEY (plan_id) REFERENCES plans(id) ON DELETE CASCADE
);

CREATE INDEX idx_plans_created_at       ON plans(created_at DESC);
CREATE INDEX idx_deployments_plan       ON deployments(plan_id);
CREATE INDEX idx_deployments_created_at ON deployments(created_at DESC);
`,
	},
}

func (db *DB) migrate() error {
	// Create schema_versions table if it doesn't exist
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_versions (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now') * 1000)
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	for _, m := range migrations {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM schema_versions WHERE version = ?", m.Version).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_versions (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}

// SchemaVersion returns the current schema version.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_versions").Scan(&version)
	return version, err
}
