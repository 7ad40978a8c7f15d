// package diagnostics keeps a record of failures that are kept
// out of the user facing render path, such as a failed catalog fetch.
package diagnostics

import (
	"context"
	"log/slog"
	"time"
)

type Failure struct {
	ID         string    `db:"id" json:"id"`
	Flow       string    `db:"flow" json:"flow"`
	Message    string    `db:"message" json:"message"`
	OccurredAt time.Time `db:"occurred_at" json:"occurredAt"`
}

type Recorder interface {
	Record(ctx context.Context, flow string, err error) error
}

// LogRecorder only writes failures to the default logger.
type LogRecorder struct{}

func (LogRecorder) Record(ctx context.Context, flow string, err error) error {
	slog.ErrorContext(ctx, "flow failed", "flow", flow, "error", err.Error())
	return nil
}
