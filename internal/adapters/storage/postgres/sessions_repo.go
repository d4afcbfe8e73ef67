package postgres

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
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`,
		s.AccountID,
		s.SessionID,
		s.ActorID,
		string(s.Role),
		string(s.AccessType),
		s.StartedAt.UTC(),
		s.LastActivity.UTC(),
		toNullTime(s.ClosedAt),
	)
	return err
}

func (r *SessionsRepo) Get(ctx context.Context, accountID, sessionID string) (sessions.Session, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE account_id = $1 AND session_id = $2
	`, accountID, sessionID)

	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return sessions.Session{}, persistence.ErrNotFound
	}
	return s, err
}

func (r *SessionsRepo) Close(ctx context.Context, accountID, sessionID string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE sessions
		SET closed_at = $3, last_activity = GREATEST(last_activity, $3)
		WHERE account_id = $1 AND session_id = $2 AND closed_at IS NULL
	`, accountID, sessionID, at.UTC())
	return err
}

func (r *SessionsRepo) Touch(ctx context.Context, accountID, sessionID string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE sessions
		SET last_activity = GREATEST(last_activity, $3)
		WHERE account_id = $1 AND session_id = $2 AND closed_at IS NULL
	`, accountID, sessionID, at.UTC())
	return err
}

func (r *SessionsRepo) ListActive(ctx context.Context, accountID string) ([]sessions.Session, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE account_id = $1 AND closed_at IS NULL
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
	var closedAt sql.NullTime

	if err := sc.Scan(
		&s.AccountID,
		&s.SessionID,
		&s.ActorID,
		&role,
		&accessType,
		&s.StartedAt,
		&s.LastActivity,
		&closedAt,
	); err != nil {
		return sessions.Session{}, err
	}

	s.Role = permissions.Role(role)
	s.AccessType = sessions.AccessType(accessType)
	s.StartedAt = s.StartedAt.UTC()
	s.LastActivity = s.LastActivity.UTC()
	s.ClosedAt = fromNullTime(closedAt)
	return s, nil
}
