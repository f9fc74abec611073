package accounts

import (
	"context"
	"database/sql"
	"errors"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// LoginLogs is the append-only record of successful sign ins. Rows are never
// updated or deleted, an account's soft deletion leaves its history intact.
type LoginLogs interface {
	Record(ctx context.Context, userID int64, at time.Time) (*LoginLog, error)
	RecordTx(ctx context.Context, tx bun.IDB, userID int64, at time.Time) (*LoginLog, error)

	LastLogin(ctx context.Context, userID int64) (*time.Time, error)
	LastLoginTx(ctx context.Context, tx bun.IDB, userID int64) (*time.Time, error)

	ListForUser(ctx context.Context, userID int64, limit int) ([]*LoginLog, error)
}

type loginLogs struct {
	db *bun.DB
}

var _ LoginLogs = (*loginLogs)(nil)

func NewLoginLogsRepository(db *bun.DB) LoginLogs {
	return &loginLogs{db: db}
}

func (l *loginLogs) Record(ctx context.Context, userID int64, at time.Time) (*LoginLog, error) {
	return l.RecordTx(ctx, l.db, userID, at)
}

func (l *loginLogs) RecordTx(ctx context.Context, tx bun.IDB, userID int64, at time.Time) (*LoginLog, error) {
	if at.IsZero() {
		at = time.Now()
	}

	record := &LoginLog{
		UserID:    userID,
		LoginTime: at,
	}

	if _, err := tx.NewInsert().Model(record).Returning("*").Exec(ctx); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to record login")
	}

	return record, nil
}

func (l *loginLogs) LastLogin(ctx context.Context, userID int64) (*time.Time, error) {
	return l.LastLoginTx(ctx, l.db, userID)
}

// LastLoginTx returns (nil, nil) when the user has no recorded logins; the
// caller decides how to present an empty history.
func (l *loginLogs) LastLoginTx(ctx context.Context, tx bun.IDB, userID int64) (*time.Time, error) {
	record := &LoginLog{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.user_id = ?", userID).
		Order("login_time DESC").
		Limit(1).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load last login")
	}

	return &record.LoginTime, nil
}

func (l *loginLogs) ListForUser(ctx context.Context, userID int64, limit int) ([]*LoginLog, error) {
	if limit <= 0 {
		limit = 50
	}

	var records []*LoginLog
	err := l.db.NewSelect().
		Model(&records).
		Where("?TableAlias.user_id = ?", userID).
		Order("login_time DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to list logins")
	}

	return records, nil
}

// LoginAuditSink persists successful login events into the login_logs table.
// Auditing is best effort: a storage failure is logged and swallowed so a
// broken audit trail can never fail an otherwise valid login.
type LoginAuditSink struct {
	logs   LoginLogs
	logger Logger
}

var _ ActivitySink = (*LoginAuditSink)(nil)

func NewLoginAuditSink(logs LoginLogs, logger Logger) *LoginAuditSink {
	if logger == nil {
		logger = defLogger{}
	}
	return &LoginAuditSink{logs: logs, logger: logger}
}

func (s *LoginAuditSink) Record(ctx context.Context, event ActivityEvent) error {
	if event.EventType != ActivityEventLoginSuccess {
		return nil
	}

	at := event.OccurredAt
	if at.IsZero() {
		at = time.Now()
	}

	if _, err := s.logs.Record(ctx, event.UserID, at); err != nil {
		s.logger.Warn("login audit write failed user=%d: %v", event.UserID, err)
	}

	return nil
}
