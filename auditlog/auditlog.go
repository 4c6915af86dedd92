// Package auditlog records per-room run outcomes into the audit_log table.
// Logging here is best-effort: a nil logger or a failed insert never affects
// the archival cycle itself.
package auditlog

import (
	"context"
	"database/sql"
	"log/slog"
)

const (
	KindInfo  = "INFO"
	KindError = "ERROR"
)

// Logger appends run-outcome rows. A nil *Logger is a valid no-op sink.
type Logger struct {
	DB *sql.DB
}

func (l *Logger) write(ctx context.Context, kind, roomID, sectionName, message, detail string) {
	if l == nil || l.DB == nil {
		return
	}
	if _, err := l.DB.ExecContext(ctx,
		`INSERT INTO audit_log (kind, room_id, section_name, message, detail) VALUES ($1,$2,$3,$4,$5)`,
		kind, roomID, sectionName, message, detail); err != nil {
		slog.Warn("audit log write failed", slog.Any("err", err), slog.String("component", "auditlog"))
	}
}

// Info records a successful room outcome.
func (l *Logger) Info(ctx context.Context, roomID, sectionName, message string) {
	l.write(ctx, KindInfo, roomID, sectionName, message, "")
}

// Error records a failed or skipped room outcome with error detail.
func (l *Logger) Error(ctx context.Context, roomID, sectionName, message, detail string) {
	l.write(ctx, KindError, roomID, sectionName, message, detail)
}
