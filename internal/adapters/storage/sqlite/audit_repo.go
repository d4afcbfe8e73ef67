package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"shared-access-core/internal/domain/audit"
	"shared-access-core/internal/domain/permissions"
	"shared-access-core/internal/ports/persistence"
)

type AuditRepo struct {
	db *sql.DB
}

func NewAuditRepo(db *sql.DB) *AuditRepo {
	return &AuditRepo{db: db}
}

const auditColumns = `
	log_id, seq, ts, account_id, actor_id, role, action, details,
	record_id, record_type, reason, session_id,
	changes_before, changes_after, prev_hash, hash`

func (r *AuditRepo) Append(ctx context.Context, accountID string, retention int, build func(last *audit.Entry) (audit.Entry, error)) (audit.Entry, error) {
	var out audit.Entry

	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		var last *audit.Entry
		tail, err := scanEntry(tx.QueryRowContext(ctx, `
			SELECT `+auditColumns+`
			FROM audit_log
			WHERE account_id = ?
			ORDER BY seq DESC
			LIMIT 1
		`, accountID))
		switch {
		case err == nil:
			last = &tail
		case errors.Is(err, sql.ErrNoRows):
		default:
			return err
		}

		e, err := build(last)
		if err != nil {
			return err
		}
		if e.LogID == "" {
			return errors.New("log id required")
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO audit_log (`+auditColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			e.LogID,
			e.Seq,
			toNanos(e.Timestamp),
			e.AccountID,
			e.ActorID,
			string(e.Role),
			string(e.Action),
			nullText(e.Details),
			e.RecordID,
			e.RecordType,
			e.Reason,
			e.SessionID,
			nullText(e.ChangesBefore),
			nullText(e.ChangesAfter),
			e.PrevHash,
			e.Hash,
		)
		if err != nil {
			return err
		}

		if retention > 0 && e.Seq > int64(retention) {
			if _, err := tx.ExecContext(ctx, `
				DELETE FROM audit_log WHERE account_id = ? AND seq <= ?
			`, accountID, e.Seq-int64(retention)); err != nil {
				return err
			}
		}

		out = e
		return nil
	})
	if err != nil {
		return audit.Entry{}, err
	}
	return out, nil
}

func (r *AuditRepo) Get(ctx context.Context, accountID, logID string) (audit.Entry, error) {
	e, err := scanEntry(r.db.QueryRowContext(ctx, `
		SELECT `+auditColumns+`
		FROM audit_log
		WHERE account_id = ? AND log_id = ?
	`, accountID, logID))
	if errors.Is(err, sql.ErrNoRows) {
		return audit.Entry{}, persistence.ErrNotFound
	}
	return e, err
}

func (r *AuditRepo) List(ctx context.Context, accountID string, filter audit.ListFilter) ([]audit.Entry, error) {
	where := []string{"account_id = ?"}
	args := []any{accountID}

	if filter.Role != "" {
		where, args = append(where, "role = ?"), append(args, string(filter.Role))
	}
	if filter.Action != "" {
		where, args = append(where, "action = ?"), append(args, string(filter.Action))
	}
	if filter.RecordID != "" {
		where, args = append(where, "record_id = ?"), append(args, filter.RecordID)
	}
	if filter.ActorID != "" {
		where, args = append(where, "actor_id = ?"), append(args, filter.ActorID)
	}
	if filter.From != nil {
		where, args = append(where, "ts >= ?"), append(args, toNanos(*filter.From))
	}
	if filter.To != nil {
		where, args = append(where, "ts <= ?"), append(args, toNanos(*filter.To))
	}

	q := `SELECT ` + auditColumns + ` FROM audit_log WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY ts DESC, seq DESC`
	if filter.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]audit.Entry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanEntry(s scanner) (audit.Entry, error) {
	var e audit.Entry
	var ts int64
	var role, action string
	var details, before, after sql.NullString

	if err := s.Scan(
		&e.LogID,
		&e.Seq,
		&ts,
		&e.AccountID,
		&e.ActorID,
		&role,
		&action,
		&details,
		&e.RecordID,
		&e.RecordType,
		&e.Reason,
		&e.SessionID,
		&before,
		&after,
		&e.PrevHash,
		&e.Hash,
	); err != nil {
		return audit.Entry{}, err
	}

	e.Timestamp = fromNanos(ts)
	e.Role = permissions.Role(role)
	e.Action = audit.Action(action)
	e.Details = textBytes(details)
	e.ChangesBefore = textBytes(before)
	e.ChangesAfter = textBytes(after)
	return e, nil
}
