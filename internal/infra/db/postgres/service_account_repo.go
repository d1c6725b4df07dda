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

var _ repository.ServiceAccountRepository = (*serviceAccountRepo)(nil)

type serviceAccountRepo struct {
	pool *pgxpool.Pool
}

func NewServiceAccountRepo(pool *pgxpool.Pool) repository.ServiceAccountRepository {
	return &serviceAccountRepo{pool: pool}
}

func (r *serviceAccountRepo) Upsert(ctx context.Context, tx repository.Tx, sa *model.ServiceAccount) error {
	const q = `
INSERT INTO service_accounts (identity_id, page_id, owner_name, email, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (identity_id) DO UPDATE SET
  page_id = EXCLUDED.page_id,
  owner_name = EXCLUDED.owner_name,
  email = EXCLUDED.email,
  updated_at = EXCLUDED.updated_at;
`
	_, err := execSQL(ctx, r.pool, tx, q,
		sa.IdentityID, sa.PageID, sa.OwnerName, sa.Email, sa.CreatedAt, sa.UpdatedAt,
	)
	return err
}

func (r *serviceAccountRepo) FindByIdentityID(ctx context.Context, tx repository.Tx, identityID string) (*model.ServiceAccount, error) {
	const q = `
SELECT identity_id, page_id, owner_name, email, created_at, updated_at
  FROM service_accounts
 WHERE identity_id = $1;
`
	row, err := pickRow(ctx, r.pool, tx, q, identityID)
	if err != nil {
		return nil, err
	}
	var sa model.ServiceAccount
	err = row.Scan(&sa.IdentityID, &sa.PageID, &sa.OwnerName, &sa.Email, &sa.CreatedAt, &sa.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &sa, nil
}
