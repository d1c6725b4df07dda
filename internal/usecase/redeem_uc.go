// File: internal/usecase/redeem_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"page-auth-service/internal/domain"
	"page-auth-service/internal/domain/model"
	"page-auth-service/internal/domain/ports/repository"
	"page-auth-service/internal/infra/logging"
	"page-auth-service/internal/infra/token"
)

// RedeemInput carries the code and the profile fields submitted with it.
type RedeemInput struct {
	Code      string
	PageTitle string
	OwnerName string
	Greeting  string
}

// RedeemResult is returned on a successful redemption.
type RedeemResult struct {
	PageID     string
	ProxyToken string
	Account    *model.Account
}

// Compile-time check
var _ RedeemUseCase = (*redeemUC)(nil)

// RedeemUseCase claims a one-time code and provisions the dependent
// records. Reconcile re-runs provisioning for claims that were interrupted
// before completion.
type RedeemUseCase interface {
	Redeem(ctx context.Context, identityID, displayName, email string, in RedeemInput) (*RedeemResult, error)
	Reconcile(ctx context.Context) (repaired int, err error)
}

type redeemUC struct {
	codes           repository.RedeemCodeRepository
	accounts        repository.AccountRepository
	serviceAccounts repository.ServiceAccountRepository
	pageConfigs     repository.PageConfigRepository
	codec           *token.Codec
	log             *zerolog.Logger
}

func NewRedeemUseCase(
	codes repository.RedeemCodeRepository,
	accounts repository.AccountRepository,
	serviceAccounts repository.ServiceAccountRepository,
	pageConfigs repository.PageConfigRepository,
	codec *token.Codec,
	logger *zerolog.Logger,
) *redeemUC {
	return &redeemUC{
		codes:           codes,
		accounts:        accounts,
		serviceAccounts: serviceAccounts,
		pageConfigs:     pageConfigs,
		codec:           codec,
		log:             logger,
	}
}

// Redeem runs the redemption sequence. Steps are strictly ordered; the
// conditional claim is the single atomic operation, and every step after it
// is an idempotent upsert keyed by a natural key (identity or page), so a
// partially-run redemption converges when re-run.
//
// Rejection policy: every unusable-code condition (unknown, unactivated,
// used, expired, lost race) reports domain.ErrCodeInvalid with no further
// detail, so the endpoint cannot be used to probe code states.
func (u *redeemUC) Redeem(ctx context.Context, identityID, displayName, email string, in RedeemInput) (*RedeemResult, error) {
	defer logging.TraceDuration(u.log, "RedeemUC.Redeem")()

	if identityID == "" {
		return nil, domain.ErrUnauthenticated
	}
	code := model.NormalizeCode(in.Code)
	if code == "" {
		return nil, domain.ErrInvalidArgument
	}

	candidate, err := model.NewAccount("", identityID, displayName, email)
	if err != nil {
		return nil, err
	}
	account, err := u.accounts.EnsureByIdentity(ctx, repository.NoTX, candidate)
	if err != nil {
		return nil, err
	}
	// An identity that already holds a page must not burn a second code.
	if account.Provisioned() {
		return nil, domain.ErrAlreadyProvisioned
	}

	rc, err := u.codes.FindByCode(ctx, repository.NoTX, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrCodeInvalid
		}
		return nil, err
	}
	now := time.Now()
	if !rc.Redeemable(now) {
		return nil, domain.ErrCodeInvalid
	}

	// The store re-checks the predicate at write time; losing the race here
	// converges to the same reply an already-used code gets.
	claimed, err := u.codes.Claim(ctx, repository.NoTX, code, identityID, now)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, domain.ErrCodeInvalid
	}

	pageID := *rc.PageID
	u.log.Info().
		Str("identity_id", identityID).
		Str("page_id", pageID).
		Str("code", logging.Redact(code, false)).
		Msg("code claimed")

	if displayName != "" {
		account.DisplayName = displayName
	}
	if email != "" {
		account.Email = email
	}
	if err := u.provision(ctx, account, pageID, in); err != nil {
		// The code stays consumed; the reconciliation pass will converge
		// this claim using the same idempotent upserts.
		u.log.Error().Err(err).Str("page_id", pageID).Msg("provisioning failed after claim")
		return nil, err
	}

	proxy, err := u.codec.MintProxy(account.ID, ProxyRole, pageID)
	if err != nil {
		return nil, err
	}
	return &RedeemResult{PageID: pageID, ProxyToken: proxy, Account: account}, nil
}

// provision applies steps 5-7 of the redemption sequence: service account,
// page configuration, then the account's page assignment. Each write is an
// upsert by natural key.
func (u *redeemUC) provision(ctx context.Context, account *model.Account, pageID string, in RedeemInput) error {
	now := time.Now()

	ownerName := in.OwnerName
	if ownerName == "" {
		ownerName = account.DisplayName
	}

	sa := &model.ServiceAccount{
		IdentityID: account.IdentityID,
		PageID:     pageID,
		OwnerName:  ownerName,
		Email:      account.Email,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := u.serviceAccounts.Upsert(ctx, repository.NoTX, sa); err != nil {
		return err
	}

	pc := model.NewPageConfig(pageID, in.PageTitle, ownerName, in.Greeting)
	if err := u.pageConfigs.Upsert(ctx, repository.NoTX, pc); err != nil {
		return err
	}

	account.PageID = &pageID
	account.Touch()
	return u.accounts.Save(ctx, repository.NoTX, account)
}

// Reconcile scans for claimed codes whose redeemer never received the page
// assignment and re-runs the idempotent provisioning steps for them. Safe
// to run on a schedule or by an operator; converges regardless of how many
// times a claim partially provisioned.
func (u *redeemUC) Reconcile(ctx context.Context) (int, error) {
	defer logging.TraceDuration(u.log, "RedeemUC.Reconcile")()

	orphans, err := u.codes.ListOrphanClaims(ctx, repository.NoTX, 100)
	if err != nil {
		return 0, err
	}

	repaired := 0
	for _, rc := range orphans {
		if rc.PageID == nil || rc.UsedByIdentityID == nil {
			continue
		}
		identityID := *rc.UsedByIdentityID

		candidate, err := model.NewAccount("", identityID, "", "")
		if err != nil {
			continue
		}
		account, err := u.accounts.EnsureByIdentity(ctx, repository.NoTX, candidate)
		if err != nil {
			u.log.Error().Err(err).Str("identity_id", identityID).Msg("reconcile: ensure account failed")
			continue
		}
		// Never overwrite an existing assignment. An identity can hold two
		// used codes when a retry with a fresh code landed between the
		// failed provisioning and this pass; the live page wins and the
		// stale claim is only reported.
		if account.Provisioned() {
			if *account.PageID != *rc.PageID {
				u.log.Warn().
					Str("identity_id", identityID).
					Str("assigned_page_id", *account.PageID).
					Str("claimed_page_id", *rc.PageID).
					Msg("reconcile: used code diverges from existing assignment; left for operator")
			}
			continue
		}
		in := RedeemInput{OwnerName: account.DisplayName}
		if err := u.provision(ctx, account, *rc.PageID, in); err != nil {
			u.log.Error().Err(err).Str("identity_id", identityID).Str("page_id", *rc.PageID).Msg("reconcile: provisioning failed")
			continue
		}
		repaired++
		u.log.Info().Str("identity_id", identityID).Str("page_id", *rc.PageID).Msg("reconcile: repaired orphaned claim")
	}
	return repaired, nil
}
