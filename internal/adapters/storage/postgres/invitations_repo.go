package postgres

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
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		inv.AccountID,
		inv.Code,
		string(inv.InviterRole),
		inv.Inviter.ID,
		inv.Inviter.Name,
		inv.Inviter.Phone,
		string(inv.Status),
		inv.CreatedAt.UTC(),
		inv.ExpiresAt.UTC(),
		toNullTime(inv.AcceptedAt),
		toNullTime(inv.DeclinedAt),
	)
	return err
}

func (r *InvitationsRepo) Get(ctx context.Context, accountID, code string) (invitations.Invitation, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+invitationColumns+`
		FROM invitations
		WHERE account_id = $1 AND code = $2
	`, accountID, code)

	inv, err := scanInvitation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return invitations.Invitation{}, persistence.ErrNotFound
	}
	return inv, err
}

// Transition es un compare-and-set sobre status: el UPDATE solo pega si nadie la movió antes.
func (r *InvitationsRepo) Transition(ctx context.Context, inv invitations.Invitation, from invitations.Status) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE invitations
		SET
			status = $3,
			accepted_at = $4,
			declined_at = $5
		WHERE account_id = $1 AND code = $2 AND status = $6
	`,
		inv.AccountID,
		inv.Code,
		string(inv.Status),
		toNullTime(inv.AcceptedAt),
		toNullTime(inv.DeclinedAt),
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
	err = r.db.QueryRowContext(ctx, `
		SELECT 1 FROM invitations WHERE account_id = $1 AND code = $2
	`, inv.AccountID, inv.Code).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return persistence.ErrNotFound
	case err != nil:
		return err
	default:
		return persistence.ErrStale
	}
}

func (r *InvitationsRepo) ListByAccount(ctx context.Context, accountID string) ([]invitations.Invitation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+invitationColumns+`
		FROM invitations
		WHERE account_id = $1
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

type scanner interface {
	Scan(dest ...any) error
}

func scanInvitation(s scanner) (invitations.Invitation, error) {
	var inv invitations.Invitation
	var role, status string
	var acceptedAt, declinedAt sql.NullTime

	if err := s.Scan(
		&inv.AccountID,
		&inv.Code,
		&role,
		&inv.Inviter.ID,
		&inv.Inviter.Name,
		&inv.Inviter.Phone,
		&status,
		&inv.CreatedAt,
		&inv.ExpiresAt,
		&acceptedAt,
		&declinedAt,
	); err != nil {
		return invitations.Invitation{}, err
	}

	inv.InviterRole = permissions.Role(role)
	inv.Status = invitations.Status(status)
	inv.CreatedAt = inv.CreatedAt.UTC()
	inv.ExpiresAt = inv.ExpiresAt.UTC()
	inv.AcceptedAt = fromNullTime(acceptedAt)
	inv.DeclinedAt = fromNullTime(declinedAt)
	return inv, nil
}
