package diagnostics

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jonboulle/clockwork"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// SQLRecorder logs failures and stores them in the fetch_failures table. It
// works with any database/sql driver sqlx knows the bind type of; pgx and
// modernc sqlite are the ones in use.
type SQLRecorder struct {
	db    *sqlx.DB
	clock clockwork.Clock
}

var _ Recorder = (*SQLRecorder)(nil)

func NewSQLRecorder(db *sql.DB, driverName string, clock clockwork.Clock) *SQLRecorder {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &SQLRecorder{db: sqlx.NewDb(db, driverName), clock: clock}
}

// Migrate applies the pending migrations. goose knows both "pgx" and
// "sqlite" as dialect names.
func (r *SQLRecorder) Migrate(ctx context.Context) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect(r.db.DriverName()); err != nil {
		return fmt.Errorf("setting dialect for migrations: %w", err)
	}

	if err := goose.UpContext(ctx, r.db.DB, "migrations"); err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}

	return nil
}

func (r *SQLRecorder) Record(ctx context.Context, flow string, err error) error {
	f := Failure{
		ID:         uuid.NewString(),
		Flow:       flow,
		Message:    err.Error(),
		OccurredAt: r.clock.Now().UTC(),
	}

	slog.ErrorContext(ctx, "flow failed", "flow", flow, "error", f.Message, "failure_id", f.ID)

	query := r.db.Rebind(`INSERT INTO fetch_failures (id, flow, message, occurred_at) VALUES (?, ?, ?, ?)`)
	if _, err := r.db.ExecContext(ctx, query, f.ID, f.Flow, f.Message, f.OccurredAt); err != nil {
		return fmt.Errorf("insert failure: %w", err)
	}

	return nil
}

// Recent returns up to limit failures, newest first.
func (r *SQLRecorder) Recent(ctx context.Context, limit int) ([]Failure, error) {
	failures := []Failure{}

	query := r.db.Rebind(`SELECT id, flow, message, occurred_at FROM fetch_failures ORDER BY occurred_at DESC LIMIT ?`)
	if err := r.db.SelectContext(ctx, &failures, query, limit); err != nil {
		return nil, fmt.Errorf("select failures: %w", err)
	}

	return failures, nil
}
