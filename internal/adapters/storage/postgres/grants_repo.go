package postgres

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

	err := inAccountTx(ctx, r.db, accountID, func(tx *sql.Tx) error {
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
			) VALUES ($1,$2,$3,$4,$5,$6)
			ON CONFLICT (account_id) DO UPDATE SET
				support = EXCLUDED.support,
				delivery = EXCLUDED.delivery,
				household = EXCLUDED.household,
				updated_at = EXCLUDED.updated_at
		`,
			accountID,
			nullText(support),
			nullText(delivery),
			string(household),
			current.CreatedAt.UTC(),
			current.UpdatedAt.UTC(),
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
		WHERE account_id = $1
	`, accountID)

	var support, delivery, household []byte
	g := grants.AccessGrant{AccountID: accountID}
	if err := row.Scan(&support, &delivery, &household, &g.CreatedAt, &g.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return grants.AccessGrant{}, persistence.ErrNotFound
		}
		return grants.AccessGrant{}, err
	}

	var err error
	if g.Support, err = rowcodec.DecodeSlot(support); err != nil {
		return grants.AccessGrant{}, err
	}
	if g.Delivery, err = rowcodec.DecodeSlot(delivery); err != nil {
		return grants.AccessGrant{}, err
	}
	if g.Household, err = rowcodec.DecodeHousehold(household); err != nil {
		return grants.AccessGrant{}, err
	}
	g.CreatedAt = g.CreatedAt.UTC()
	g.UpdatedAt = g.UpdatedAt.UTC()
	return g, nil
}
