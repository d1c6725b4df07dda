package repository

import (
	"context"

	"page-auth-service/internal/domain/model"
)

// PageConfigRepository is the port for per-page default settings.
type PageConfigRepository interface {
	// Upsert inserts the row if no config exists for the page, otherwise
	// updates the profile-derived fields in place. Never duplicates.
	Upsert(ctx context.Context, tx Tx, pc *model.PageConfig) error
	FindByPageID(ctx context.Context, tx Tx, pageID string) (*model.PageConfig, error)
}
