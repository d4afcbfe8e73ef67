package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"shared-access-core/internal/domain/invitations"
	"shared-access-core/internal/domain/permissions"
	"shared-access-core/internal/ports/persistence"
)

type InvitationsRepo struct {
	db *sql.DB
}

func NewInvitationsRepo(db *sql.DB) *InvitationsRepo {
	return &InvitationsRepo{db: db}
}

const invitationColumns = `
	account_id, code, inviter_role, inviter_id, inviter_name, inviter_phone,
	status, created_at, expires_at, accepted_at, declined_at`

func (r *InvitationsRepo) Create(ctx context.Context, inv invitations.Invitation) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO invitations (`+invitationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		inv.AccountID,
		inv.Code,
		string(inv.InviterRole),
		inv.Inviter.ID,
		inv.Inviter.Name,
		inv.Inviter.Phone,
		string(inv.Status),
		toNanos(inv.CreatedAt),
		toNanos(inv.ExpiresAt),
		toNullNanos(inv.AcceptedAt),
		toNullNanos(inv.DeclinedAt),
	)
	return err
}

func (r *InvitationsRepo) Get(ctx context.Context, accountID, code string) (invitations.Invitation, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+invitationColumns+`
		FROM invitations
		WHERE account_id = ? AND code = ?
	`, accountID, code)

	inv, err := scanInvitation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return invitations.Invitation{}, persistence.ErrNotFound
	}
	return inv, err
}

func (r *InvitationsRepo) Transition(ctx context.Context, inv invitations.Invitation, from invitations.Status) error {
	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE invitations
			SET status = ?, accepted_at = ?, declined_at = ?
			WHERE account_id = ? AND code = ? AND status = ?
		`,
			string(inv.Status),
			toNullNanos(inv.AcceptedAt),
			toNullNanos(inv.DeclinedAt),
			inv.AccountID,
			inv.Code,
			string(from),
		)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}

		var one int
		err = tx.QueryRowContext(ctx, `
			SELECT 1 FROM invitations WHERE account_id = ? AND code = ?
		`, inv.AccountID, inv.Code).Scan(&one)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return persistence.ErrNotFound
		case err != nil:
			return err
		default:
			return persistence.ErrStale
		}
	})
}

func (r *InvitationsRepo) ListByAccount(ctx context.Context, accountID string) ([]invitations.Invitation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+invitationColumns+`
		FROM invitations
		WHERE account_id = ?
		ORDER BY created_at DESC, code ASC
	`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]invitations.Invitation, 0)
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func scanInvitation(s scanner) (invitations.Invitation, error) {
	var inv invitations.Invitation
	var role, status string
	var createdAt, expiresAt int64
	var acceptedAt, declinedAt sql.NullInt64

	if err := s.Scan(
		&inv.AccountID,
		&inv.Code,
		&role,
		&inv.Inviter.ID,
		&inv.Inviter.Name,
		&inv.Inviter.Phone,
		&status,
		&createdAt,
		&expiresAt,
		&acceptedAt,
		&declinedAt,
	); err != nil {
		return invitations.Invitation{}, err
	}

	inv.InviterRole = permissions.Role(role)
	inv.Status = invitations.Status(status)
	inv.CreatedAt = fromNanos(createdAt)
	inv.ExpiresAt = fromNanos(expiresAt)
	inv.AcceptedAt = fromNullNanos(acceptedAt)
	inv.DeclinedAt = fromNullNanos(declinedAt)
	return inv, nil
}
