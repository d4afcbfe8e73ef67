package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"shared-access-core/internal/domain/permissions"
	"shared-access-core/internal/domain/sessions"
	"shared-access-core/internal/ports/persistence"
)

type SessionsRepo struct {
	db *sql.DB
}

func NewSessionsRepo(db *sql.DB) *SessionsRepo {
	return &SessionsRepo{db: db}
}

const sessionColumns = `
	account_id, session_id, actor_id, role, access_type,
	started_at, last_activity, closed_at`

func (r *SessionsRepo) Create(ctx context.Context, s sessions.Session) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (`+sessionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		s.AccountID,
		s.SessionID,
		s.ActorID,
		string(s.Role),
		string(s.AccessType),
		toNanos(s.StartedAt),
		toNanos(s.LastActivity),
		toNullNanos(s.ClosedAt),
	)
	return err
}

func (r *SessionsRepo) Get(ctx context.Context, accountID, sessionID string) (sessions.Session, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE account_id = ? AND session_id = ?
	`, accountID, sessionID)

	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return sessions.Session{}, persistence.ErrNotFound
	}
	return s, err
}

func (r *SessionsRepo) Close(ctx context.Context, accountID, sessionID string, at time.Time) error {
	n := toNanos(at)
	_, err := r.db.ExecContext(ctx, `
		UPDATE sessions
		SET closed_at = ?, last_activity = MAX(last_activity, ?)
		WHERE account_id = ? AND session_id = ? AND closed_at IS NULL
	`, n, n, accountID, sessionID)
	return err
}

func (r *SessionsRepo) Touch(ctx context.Context, accountID, sessionID string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE sessions
		SET last_activity = MAX(last_activity, ?)
		WHERE account_id = ? AND session_id = ? AND closed_at IS NULL
	`, toNanos(at), accountID, sessionID)
	return err
}

func (r *SessionsRepo) ListActive(ctx context.Context, accountID string) ([]sessions.Session, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE account_id = ? AND closed_at IS NULL
		ORDER BY started_at ASC, session_id ASC
	`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]sessions.Session, 0)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanSession(sc scanner) (sessions.Session, error) {
	var s sessions.Session
	var role, accessType string
	var startedAt, lastActivity int64
	var closedAt sql.NullInt64

	if err := sc.Scan(
		&s.AccountID,
		&s.SessionID,
		&s.ActorID,
		&role,
		&accessType,
		&startedAt,
		&lastActivity,
		&closedAt,
	); err != nil {
		return sessions.Session{}, err
	}

	s.Role = permissions.Role(role)
	s.AccessType = sessions.AccessType(accessType)
	s.StartedAt = fromNanos(startedAt)
	s.LastActivity = fromNanos(lastActivity)
	s.ClosedAt = fromNullNanos(closedAt)
	return s, nil
}
