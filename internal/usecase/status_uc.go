// File: internal/usecase/status_uc.go
package usecase

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"page-auth-service/internal/domain"
	"page-auth-service/internal/domain/model"
	"page-auth-service/internal/domain/ports/repository"
	"page-auth-service/internal/infra/logging"
	"page-auth-service/internal/infra/token"
)

// Status states reported to the browser.
const (
	StateUnauthenticated = "unauthenticated"
	StateNeedsCode       = "needs_code"
	StateReady           = "ready"
)

// ProxyRole is the single role string carried by downstream tokens.
const ProxyRole = "owner"

// StatusResult is the outcome of a bootstrap/status check for an
// authenticated identity.
type StatusResult struct {
	State      string
	PageID     string
	ProxyToken string
	Account    *model.Account
}

// Compile-time check
var _ StatusUseCase = (*statusUC)(nil)

// StatusUseCase determines whether an identity has completed redemption,
// lazily creating the identity's account row on first contact.
type StatusUseCase interface {
	Check(ctx context.Context, identityID, displayName, email string) (*StatusResult, error)
}

type statusUC struct {
	accounts        repository.AccountRepository
	serviceAccounts repository.ServiceAccountRepository
	tm              repository.TransactionManager
	codec           *token.Codec
	log             *zerolog.Logger
}

func NewStatusUseCase(
	accounts repository.AccountRepository,
	serviceAccounts repository.ServiceAccountRepository,
	tm repository.TransactionManager,
	codec *token.Codec,
	logger *zerolog.Logger,
) *statusUC {
	return &statusUC{
		accounts:        accounts,
		serviceAccounts: serviceAccounts,
		tm:              tm,
		codec:           codec,
		log:             logger,
	}
}

// Check runs the bootstrap state machine. Repeated calls for the same
// identity are idempotent: the account insert is keyed by identity_id, so a
// second call (or a concurrent first visit) finds the existing row instead
// of creating another.
func (u *statusUC) Check(ctx context.Context, identityID, displayName, email string) (*StatusResult, error) {
	defer logging.TraceDuration(u.log, "StatusUC.Check")()

	if identityID == "" {
		return nil, domain.ErrUnauthenticated
	}

	account, err := u.ensureAccount(ctx, identityID, displayName, email)
	if err != nil {
		return nil, err
	}

	if !account.Provisioned() {
		return &StatusResult{State: StateNeedsCode, Account: account}, nil
	}

	// A page assignment without a downstream-ready record means provisioning
	// was interrupted; report needs_code rather than serving a half state.
	if _, err := u.serviceAccounts.FindByIdentityID(ctx, repository.NoTX, identityID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			u.log.Warn().Str("identity_id", identityID).Msg("page assigned but service account missing; forcing re-provisioning")
			return &StatusResult{State: StateNeedsCode, Account: account}, nil
		}
		return nil, err
	}

	proxy, err := u.codec.MintProxy(account.ID, ProxyRole, *account.PageID)
	if err != nil {
		return nil, err
	}
	return &StatusResult{
		State:      StateReady,
		PageID:     *account.PageID,
		ProxyToken: proxy,
		Account:    account,
	}, nil
}

// ensureAccount finds or creates the account row and refreshes stale
// profile fields. The read and conditional write run in one transaction so
// the profile refresh is not lost under interleaving.
func (u *statusUC) ensureAccount(ctx context.Context, identityID, displayName, email string) (*model.Account, error) {
	var account *model.Account
	txOpts := pgx.TxOptions{IsoLevel: pgx.ReadCommitted}
	err := u.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		candidate, err := model.NewAccount("", identityID, displayName, email)
		if err != nil {
			return err
		}
		stored, err := u.accounts.EnsureByIdentity(ctx, tx, candidate)
		if err != nil {
			return err
		}

		changed := false
		if displayName != "" && stored.DisplayName != displayName {
			stored.DisplayName = displayName
			changed = true
		}
		if email != "" && stored.Email != email {
			stored.Email = email
			changed = true
		}
		if changed {
			stored.Touch()
			if err := u.accounts.Save(ctx, tx, stored); err != nil {
				u.log.Error().Err(err).Msg("failed to refresh account profile")
				return err
			}
		}
		account = stored
		return nil
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}
