// File: internal/usecase/code_admin_uc.go
package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"page-auth-service/internal/domain"
	"page-auth-service/internal/domain/model"
	"page-auth-service/internal/domain/ports/repository"
)

// Compile-time check
var _ CodeAdminUseCase = (*codeAdminUC)(nil)

// CodeAdminUseCase mints batches of redeem codes and binds them to pages.
// Used by the seed tool; there is no public endpoint for this.
type CodeAdminUseCase interface {
	GenerateCodes(ctx context.Context, count int, expiresAt *time.Time) ([]string, error)
	ActivateCode(ctx context.Context, code, pageID string) error
}

type codeAdminUC struct {
	codes repository.RedeemCodeRepository
	log   *zerolog.Logger
}

func NewCodeAdminUseCase(codes repository.RedeemCodeRepository, logger *zerolog.Logger) *codeAdminUC {
	return &codeAdminUC{codes: codes, log: logger}
}

// GenerateCodes creates count unbound codes. The codes are inert until
// ActivateCode assigns a page.
func (u *codeAdminUC) GenerateCodes(ctx context.Context, count int, expiresAt *time.Time) ([]string, error) {
	if count <= 0 || count > 10000 {
		return nil, domain.ErrInvalidArgument
	}
	out := make([]string, 0, count)
	for i := 0; i < count; i++ {
		code, err := generateRedeemCode()
		if err != nil {
			return out, err
		}
		rc := &model.RedeemCode{
			Code:      code,
			CreatedAt: time.Now(),
			ExpiresAt: expiresAt,
		}
		if err := u.codes.Save(ctx, repository.NoTX, rc); err != nil {
			return out, err
		}
		out = append(out, code)
	}
	u.log.Info().Int("count", len(out)).Msg("generated redeem codes")
	return out, nil
}

// ActivateCode binds a page to an existing code. Used or unknown codes
// cannot be re-bound.
func (u *codeAdminUC) ActivateCode(ctx context.Context, code, pageID string) error {
	code = model.NormalizeCode(code)
	if code == "" || pageID == "" {
		return domain.ErrInvalidArgument
	}
	rc, err := u.codes.FindByCode(ctx, repository.NoTX, code)
	if err != nil {
		return err
	}
	if rc.UsedAt != nil {
		return domain.ErrCodeInvalid
	}
	rc.PageID = &pageID
	return u.codes.Save(ctx, repository.NoTX, rc)
}
