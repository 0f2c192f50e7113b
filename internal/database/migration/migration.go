package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_table_conversations",
		SQL: `CREATE TABLE IF NOT EXISTS conversations (
  id           UUID        PRIMARY KEY,
  node_id      TEXT        NOT NULL,
  peer_id      TEXT        NOT NULL,
  subject      TEXT        NOT NULL,
  initiated    BOOLEAN     NOT NULL,
  turns        INTEGER     NOT NULL CHECK (turns >= 0),
  storage_path TEXT        NOT NULL UNIQUE,
  started_at   TIMESTAMPTZ NOT NULL,
  ended_at     TIMESTAMPTZ NOT NULL
);`,
	},
	{
		Name: "create_index_conversations_node_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_conversations_node_id ON conversations (node_id);`,
	},
	{
		Name: "create_index_conversations_ended_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_conversations_ended_at ON conversations (ended_at);`,
	},
}

// EnsureMigrated checks if the 'conversations' table exists and runs
// migrations if it doesn't.
func EnsureMigrated(ctx context.Context, db *sql.DB, log *logrus.Logger) error {
	start := time.Now()
	l := log.WithField("component", "database")

	var exists bool
	query := "SELECT to_regclass('public.conversations') IS NOT NULL"
	if err := db.QueryRowContext(ctx, query).Scan(&exists); err != nil {
		l.WithError(err).Error("failed to check sentinel table")
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		l.WithField("duration_ms", time.Since(start).Milliseconds()).
			Info("schema already exists, skipping migration")
		return nil
	}

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			l.WithError(err).WithField("migration_step", step.Name).Error("migration step failed")
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}
		l.WithFields(logrus.Fields{
			"migration_step":   step.Name,
			"step_duration_ms": time.Since(stepStart).Milliseconds(),
		}).Info("migration step applied")
	}

	l.WithField("duration_ms", time.Since(start).Milliseconds()).Info("migration complete")
	return nil
}
