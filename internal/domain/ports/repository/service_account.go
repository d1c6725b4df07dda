package repository

import (
	"context"

	"page-auth-service/internal/domain/model"
)

// ServiceAccountRepository is the port for downstream-facing records.
type ServiceAccountRepository interface {
	// Upsert inserts or replaces the record keyed by identity_id. Calling it
	// twice with the same identity never produces a second row.
	Upsert(ctx context.Context, tx Tx, sa *model.ServiceAccount) error
	FindByIdentityID(ctx context.Context, tx Tx, identityID string) (*model.ServiceAccount, error)
}
