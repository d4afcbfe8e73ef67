package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
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

// Append lee la cola y escribe la entrada nueva bajo el advisory lock de la cuenta;
// el recorte por retención va en la misma transacción.
func (r *AuditRepo) Append(ctx context.Context, accountID string, retention int, build func(last *audit.Entry) (audit.Entry, error)) (audit.Entry, error) {
	var out audit.Entry

	err := inAccountTx(ctx, r.db, accountID, func(tx *sql.Tx) error {
		var last *audit.Entry
		row := tx.QueryRowContext(ctx, `
			SELECT `+auditColumns+`
			FROM audit_log
			WHERE account_id = $1
			ORDER BY seq DESC
			LIMIT 1
		`, accountID)
		tail, err := scanEntry(row)
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
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		`,
			e.LogID,
			e.Seq,
			e.Timestamp.UTC(),
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
				DELETE FROM audit_log WHERE account_id = $1 AND seq <= $2
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
	row := r.db.QueryRowContext(ctx, `
		SELECT `+auditColumns+`
		FROM audit_log
		WHERE account_id = $1 AND log_id = $2
	`, accountID, logID)

	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return audit.Entry{}, persistence.ErrNotFound
	}
	return e, err
}

func (r *AuditRepo) List(ctx context.Context, accountID string, filter audit.ListFilter) ([]audit.Entry, error) {
	where := []string{"account_id = $1"}
	args := []any{accountID}
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	if filter.Role != "" {
		add("role = $%d", string(filter.Role))
	}
	if filter.Action != "" {
		add("action = $%d", string(filter.Action))
	}
	if filter.RecordID != "" {
		add("record_id = $%d", filter.RecordID)
	}
	if filter.ActorID != "" {
		add("actor_id = $%d", filter.ActorID)
	}
	if filter.From != nil {
		add("ts >= $%d", filter.From.UTC())
	}
	if filter.To != nil {
		add("ts <= $%d", filter.To.UTC())
	}

	q := `SELECT ` + auditColumns + ` FROM audit_log WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY ts DESC, seq DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
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
	var role, action string
	var details, before, after sql.NullString

	if err := s.Scan(
		&e.LogID,
		&e.Seq,
		&e.Timestamp,
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

	e.Timestamp = e.Timestamp.UTC()
	e.Role = permissions.Role(role)
	e.Action = audit.Action(action)
	e.Details = textBytes(details)
	e.ChangesBefore = textBytes(before)
	e.ChangesAfter = textBytes(after)
	return e, nil
}
