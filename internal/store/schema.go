package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Timestamps are stored as integers so range queries stay numeric: session
// times in unix nanoseconds, event times in unix milliseconds.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS sessions (
		id               TEXT PRIMARY KEY,
		user_id          INTEGER NOT NULL,
		role             TEXT NOT NULL,
		experience       TEXT NOT NULL,
		status           TEXT NOT NULL,
		turns            TEXT NOT NULL DEFAULT '[]',
		analyses         TEXT NOT NULL DEFAULT '[]',
		total_score      INTEGER,
		current_question TEXT NOT NULL DEFAULT '',
		started_at       INTEGER NOT NULL,
		updated_at       INTEGER NOT NULL,
		completed_at     INTEGER
	)`,
	`CREATE INDEX IF NOT EXISTS sessions_user_status ON sessions (user_id, status)`,
	`CREATE INDEX IF NOT EXISTS sessions_role_status ON sessions (role, status)`,
	`CREATE INDEX IF NOT EXISTS sessions_status_updated ON sessions (status, updated_at)`,

	`CREATE TABLE IF NOT EXISTS llm_request_events (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		sequence      INTEGER NOT NULL UNIQUE,
		timestamp     INTEGER NOT NULL,
		provider      TEXT NOT NULL,
		model         TEXT NOT NULL,
		purpose       TEXT NOT NULL,
		input_tokens  INTEGER NOT NULL DEFAULT 0,
		output_tokens INTEGER NOT NULL DEFAULT 0,
		latency_ms    INTEGER NOT NULL DEFAULT 0,
		success       INTEGER NOT NULL,
		error_message TEXT NOT NULL DEFAULT '',
		request_body  TEXT NOT NULL DEFAULT '',
		response_body TEXT NOT NULL DEFAULT ''
	)`,

	`CREATE TABLE IF NOT EXISTS analysis_audits (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		sequence      INTEGER NOT NULL UNIQUE,
		timestamp     INTEGER NOT NULL,
		session_id    TEXT NOT NULL,
		turn          INTEGER NOT NULL,
		provenance    TEXT NOT NULL,
		coerced       TEXT NOT NULL DEFAULT '[]',
		raw_text      TEXT NOT NULL DEFAULT '',
		error_message TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS analysis_audits_session ON analysis_audits (session_id, turn)`,
}

func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec schema: %w", err)
		}
	}
	return nil
}
