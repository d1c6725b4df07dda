package repository

import (
	"context"

	"page-auth-service/internal/domain/model"
)

// AccountRepository is the port for identity-keyed account rows.
type AccountRepository interface {
	// EnsureByIdentity inserts the given account if no row exists for its
	// identity ID and returns the row that ended up in the store. The insert
	// is keyed by identity_id (insert-if-absent), so two concurrent first
	// visits converge to a single row.
	EnsureByIdentity(ctx context.Context, tx Tx, a *model.Account) (*model.Account, error)
	FindByIdentityID(ctx context.Context, tx Tx, identityID string) (*model.Account, error)
	// Save creates or updates an account row keyed by identity.
	Save(ctx context.Context, tx Tx, a *model.Account) error
}
