package store

import (
	"context"
	"database/sql"
	"time"
)

type AuditStore interface {
	Log(ctx context.Context, actor, action, detail string)
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type auditStore struct {
	db *sql.DB
}

func NewAuditStore(db *sql.DB) AuditStore {
	return &auditStore{db: db}
}

// Log is best-effort; audit failures never fail the operation they record.
func (s *auditStore) Log(ctx context.Context, actor, action, detail string) {
	_, _ = s.db.ExecContext(ctx,
		"INSERT INTO audit_log(actor, action, detail, created_at) VALUES(?, ?, ?, ?)",
		actor, action, detail, time.Now().UTC())
}

func (s *auditStore) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM audit_log WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
