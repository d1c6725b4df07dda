package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/oklog/ulid/v2"

	"page-auth-service/internal/domain"
	"page-auth-service/internal/domain/model"
	"page-auth-service/internal/domain/ports/repository"
)

// Ensure implementation satisfies the interface.
var _ repository.RedeemCodeRepository = (*redeemCodeRepo)(nil)

type redeemCodeRepo struct {
	pool *pgxpool.Pool
}

func NewRedeemCodeRepo(pool *pgxpool.Pool) repository.RedeemCodeRepository {
	return &redeemCodeRepo{pool: pool}
}

// Save creates or updates a redeem code row. Page binding and expiry can be
// changed here; used_at deliberately cannot. Claim is the only writer of
// the consumption fields.
func (r *redeemCodeRepo) Save(ctx context.Context, tx repository.Tx, code *model.RedeemCode) error {
	if code.ID == "" {
		code.ID = ulid.Make().String()
	}
	const q = `
INSERT INTO redeem_codes (id, code, page_id, created_at, expires_at, used_at, used_by_identity_id)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (code) DO UPDATE SET
  page_id = EXCLUDED.page_id,
  expires_at = EXCLUDED.expires_at;
`
	_, err := execSQL(ctx, r.pool, tx, q,
		code.ID, code.Code, code.PageID, code.CreatedAt, code.ExpiresAt, code.UsedAt, code.UsedByIdentityID,
	)
	return err
}

func (r *redeemCodeRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.RedeemCode, error) {
	const q = `
SELECT id, code, page_id, created_at, expires_at, used_at, used_by_identity_id
  FROM redeem_codes
 WHERE code = $1;
`
	row, err := pickRow(ctx, r.pool, tx, q, code)
	if err != nil {
		return nil, err
	}

	var rc model.RedeemCode
	err = row.Scan(&rc.ID, &rc.Code, &rc.PageID, &rc.CreatedAt, &rc.ExpiresAt, &rc.UsedAt, &rc.UsedByIdentityID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &rc, nil
}

// Claim is the race-safety boundary for the whole redemption flow. The
// predicate `used_at IS NULL` is evaluated by the store at write time, so
// under N concurrent callers exactly one update affects a row; the rest see
// zero rows affected and report claimed=false.
func (r *redeemCodeRepo) Claim(ctx context.Context, tx repository.Tx, code, identityID string, at time.Time) (bool, error) {
	const q = `
UPDATE redeem_codes
   SET used_at = $1, used_by_identity_id = $2
 WHERE code = $3
   AND used_at IS NULL
   AND page_id IS NOT NULL
   AND (expires_at IS NULL OR expires_at > $1);
`
	tag, err := execSQL(ctx, r.pool, tx, q, at, identityID, code)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ListOrphanClaims finds consumed codes whose redeemer's account carries no
// matching page assignment. Covers both interrupted provisioning (account
// page still NULL) and a claim that diverges from a later assignment; the
// caller decides which of those to repair.
func (r *redeemCodeRepo) ListOrphanClaims(ctx context.Context, tx repository.Tx, limit int) ([]*model.RedeemCode, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `
SELECT rc.id, rc.code, rc.page_id, rc.created_at, rc.expires_at, rc.used_at, rc.used_by_identity_id
  FROM redeem_codes rc
  LEFT JOIN accounts a ON a.identity_id = rc.used_by_identity_id
 WHERE rc.used_at IS NOT NULL
   AND rc.used_by_identity_id IS NOT NULL
   AND (a.page_id IS NULL OR a.page_id <> rc.page_id)
 ORDER BY rc.used_at
 LIMIT $1;
`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.RedeemCode
	for rows.Next() {
		var rc model.RedeemCode
		if err := rows.Scan(&rc.ID, &rc.Code, &rc.PageID, &rc.CreatedAt, &rc.ExpiresAt, &rc.UsedAt, &rc.UsedByIdentityID); err != nil {
			return nil, err
		}
		out = append(out, &rc)
	}
	return out, rows.Err()
}
