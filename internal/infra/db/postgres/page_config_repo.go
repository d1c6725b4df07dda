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

var _ repository.PageConfigRepository = (*pageConfigRepo)(nil)

type pageConfigRepo struct {
	pool *pgxpool.Pool
}

func NewPageConfigRepo(pool *pgxpool.Pool) repository.PageConfigRepository {
	return &pageConfigRepo{pool: pool}
}

// Upsert keeps exactly one settings row per page. On conflict the
// profile-derived fields are updated in place; created_at and theme keep
// their original values.
func (r *pageConfigRepo) Upsert(ctx context.Context, tx repository.Tx, pc *model.PageConfig) error {
	const q = `
INSERT INTO page_configs (page_id, title, owner_name, greeting, theme, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (page_id) DO UPDATE SET
  title = EXCLUDED.title,
  owner_name = EXCLUDED.owner_name,
  greeting = EXCLUDED.greeting,
  updated_at = EXCLUDED.updated_at;
`
	_, err := execSQL(ctx, r.pool, tx, q,
		pc.PageID, pc.Title, pc.OwnerName, pc.Greeting, pc.Theme, pc.CreatedAt, pc.UpdatedAt,
	)
	return err
}

func (r *pageConfigRepo) FindByPageID(ctx context.Context, tx repository.Tx, pageID string) (*model.PageConfig, error) {
	const q = `
SELECT page_id, title, owner_name, greeting, theme, created_at, updated_at
  FROM page_configs
 WHERE page_id = $1;
`
	row, err := pickRow(ctx, r.pool, tx, q, pageID)
	if err != nil {
		return nil, err
	}
	var pc model.PageConfig
	err = row.Scan(&pc.PageID, &pc.Title, &pc.OwnerName, &pc.Greeting, &pc.Theme, &pc.CreatedAt, &pc.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &pc, nil
}
