package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"shared-access-core/internal/adapters/storage/rowcodec"
	"shared-access-core/internal/domain/grants"
	"shared-access-core/internal/ports/persistence"
)

type GrantsRepo struct {
	db *sql.DB
}

func NewGrantsRepo(db *sql.DB) *GrantsRepo {
	return &GrantsRepo{db: db}
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *GrantsRepo) Get(ctx context.Context, accountID string) (grants.AccessGrant, error) {
	return getGrant(ctx, r.db, accountID)
}

func (r *GrantsRepo) Mutate(ctx context.Context, accountID string, fn func(g *grants.AccessGrant, exists bool) error) (grants.AccessGrant, error) {
	var out grants.AccessGrant

	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		current, err := getGrant(ctx, tx, accountID)
		exists := true
		switch {
		case errors.Is(err, persistence.ErrNotFound):
			exists = false
			current = grants.AccessGrant{AccountID: accountID}
		case err != nil:
			return err
		}

		if err := fn(&current, exists); err != nil {
			return err
		}
		current.AccountID = accountID

		support, err := rowcodec.EncodeSlot(current.Support)
		if err != nil {
			return err
		}
		delivery, err := rowcodec.EncodeSlot(current.Delivery)
		if err != nil {
			return err
		}
		household, err := rowcodec.EncodeHousehold(current.Household)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO access_grants (
				account_id, support, delivery, household, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (account_id) DO UPDATE SET
				support = excluded.support,
				delivery = excluded.delivery,
				household = excluded.household,
				updated_at = excluded.updated_at
		`,
			accountID,
			nullText(support),
			nullText(delivery),
			string(household),
			toNanos(current.CreatedAt),
			toNanos(current.UpdatedAt),
		)
		if err != nil {
			return err
		}

		out = current
		return nil
	})
	if err != nil {
		return grants.AccessGrant{}, err
	}
	return out, nil
}

func getGrant(ctx context.Context, q queryRower, accountID string) (grants.AccessGrant, error) {
	row := q.QueryRowContext(ctx, `
		SELECT support, delivery, household, created_at, updated_at
		FROM access_grants
		WHERE account_id = ?
	`, accountID)

	var support, delivery sql.NullString
	var household string
	var createdAt, updatedAt int64
	if err := row.Scan(&support, &delivery, &household, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return grants.AccessGrant{}, persistence.ErrNotFound
		}
		return grants.AccessGrant{}, err
	}

	g := grants.AccessGrant{
		AccountID: accountID,
		CreatedAt: fromNanos(createdAt),
		UpdatedAt: fromNanos(updatedAt),
	}
	var err error
	if g.Support, err = rowcodec.DecodeSlot(textBytes(support)); err != nil {
		return grants.AccessGrant{}, err
	}
	if g.Delivery, err = rowcodec.DecodeSlot(textBytes(delivery)); err != nil {
		return grants.AccessGrant{}, err
	}
	if g.Household, err = rowcodec.DecodeHousehold([]byte(household)); err != nil {
		return grants.AccessGrant{}, err
	}
	return g, nil
}
