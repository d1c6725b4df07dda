package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"page-auth-service/internal/domain"
	"page-auth-service/internal/domain/model"
	"page-auth-service/internal/domain/ports/repository"
)

var _ repository.AccountRepository = (*accountRepo)(nil)

type accountRepo struct {
	pool *pgxpool.Pool
}

func NewAccountRepo(pool *pgxpool.Pool) repository.AccountRepository {
	return &accountRepo{pool: pool}
}

// EnsureByIdentity performs the insert-if-absent bootstrap. The conflict
// target is identity_id (the natural key), not the generated row id, so two
// racing first visits insert at most one row; both callers then read back
// whichever row won.
func (r *accountRepo) EnsureByIdentity(ctx context.Context, tx repository.Tx, a *model.Account) (*model.Account, error) {
	const ins = `
INSERT INTO accounts (id, identity_id, page_id, display_name, email, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (identity_id) DO NOTHING;
`
	if _, err := execSQL(ctx, r.pool, tx, ins,
		a.ID, a.IdentityID, a.PageID, a.DisplayName, a.Email, a.CreatedAt, a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return r.FindByIdentityID(ctx, tx, a.IdentityID)
}

func (r *accountRepo) FindByIdentityID(ctx context.Context, tx repository.Tx, identityID string) (*model.Account, error) {
	const q = `
SELECT id, identity_id, page_id, display_name, email, created_at, updated_at
  FROM accounts
 WHERE identity_id = $1;
`
	row, err := pickRow(ctx, r.pool, tx, q, identityID)
	if err != nil {
		return nil, err
	}
	var a model.Account
	err = row.Scan(&a.ID, &a.IdentityID, &a.PageID, &a.DisplayName, &a.Email, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// Save creates or updates the account keyed by identity.
func (r *accountRepo) Save(ctx context.Context, tx repository.Tx, a *model.Account) error {
	const q = `
INSERT INTO accounts (id, identity_id, page_id, display_name, email, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (identity_id) DO UPDATE SET
  page_id = EXCLUDED.page_id,
  display_name = EXCLUDED.display_name,
  email = EXCLUDED.email,
  updated_at = EXCLUDED.updated_at;
`
	_, err := execSQL(ctx, r.pool, tx, q,
		a.ID, a.IdentityID, a.PageID, a.DisplayName, a.Email, a.CreatedAt, a.UpdatedAt,
	)
	return err
}
