package repository

import (
	"context"
	"time"

	"page-auth-service/internal/domain/model"
)

// RedeemCodeRepository is the port for managing single-use redeem codes.
type RedeemCodeRepository interface {
	// Save creates or updates a redeem code row.
	Save(ctx context.Context, tx Tx, code *model.RedeemCode) error
	// FindByCode returns the code row regardless of its state. Returns
	// domain.ErrNotFound when no such code exists.
	FindByCode(ctx context.Context, tx Tx, code string) (*model.RedeemCode, error)
	// Claim atomically marks the code as used by the given identity. The
	// update carries the predicate `used_at IS NULL`, so under concurrent
	// redemption exactly one caller observes claimed=true; everyone else
	// gets claimed=false and no row change.
	Claim(ctx context.Context, tx Tx, code, identityID string, at time.Time) (claimed bool, err error)
	// ListOrphanClaims returns claimed codes whose redeemer's account
	// carries no matching page assignment: either provisioning was
	// interrupted after the claim (account has no page) or the identity
	// was later provisioned under a different page. The reconciliation
	// worker repairs the former and only reports the latter; it must not
	// overwrite an existing assignment.
	ListOrphanClaims(ctx context.Context, tx Tx, limit int) ([]*model.RedeemCode, error)
}
