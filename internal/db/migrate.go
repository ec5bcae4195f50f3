package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_table_users",
		SQL: `CREATE TABLE IF NOT EXISTS users (
  id         UUID        PRIMARY KEY,
  full_name  TEXT        NOT NULL,
  email      TEXT        NOT NULL,
  role       TEXT        NOT NULL,
  specialty  TEXT,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_appointments",
		SQL: `CREATE TABLE IF NOT EXISTS appointments (
  id               UUID        PRIMARY KEY,
  patient_id       UUID        NOT NULL,
  patient_name     TEXT        NOT NULL,
  doctor_id        UUID        NOT NULL,
  doctor_name      TEXT        NOT NULL,
  appointment_date TIMESTAMPTZ NOT NULL,
  specialty        TEXT        NOT NULL,
  notes            TEXT        NOT NULL DEFAULT '',
  status           TEXT        NOT NULL CHECK (status IN ('SCHEDULED', 'CONFIRMED', 'COMPLETED', 'CANCELLED')),
  created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
  CHECK (created_at <= updated_at)
);`,
	},
	{
		Name: "create_index_appointments_patient_date",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_appointments_patient_date ON appointments (patient_id, appointment_date);`,
	},
	{
		Name: "create_index_appointments_doctor",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_appointments_doctor ON appointments (doctor_id);`,
	},
}

// Migrate applies the schema. Every step is idempotent, so it is safe to run
// on each start.
func Migrate(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	start := time.Now()

	for _, step := range steps {
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			logger.Error("db migration failed", "step", step.Name, "err", err)
			return fmt.Errorf("migration %s: %w", step.Name, err)
		}
	}

	logger.Info("db migration complete", "steps", len(steps), "duration", time.Since(start))
	return nil
}
