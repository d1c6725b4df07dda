package model

import (
	"time"

	"page-auth-service/internal/domain"

	"github.com/google/uuid"
)

// Account is one row per external identity. PageID stays nil until the
// identity redeems a code; it is set exactly once by the redeem flow.
type Account struct {
	ID          string
	IdentityID  string
	PageID      *string
	DisplayName string
	Email       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func NewAccount(id, identityID, displayName, email string) (*Account, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if identityID == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &Account{
		ID:          id,
		IdentityID:  identityID,
		DisplayName: displayName,
		Email:       email,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (a *Account) IsZero() bool { return a == nil || a.ID == "" }
func (a *Account) Touch()       { a.UpdatedAt = time.Now() }

// Provisioned reports whether the account already has a page assigned.
func (a *Account) Provisioned() bool { return a != nil && a.PageID != nil && *a.PageID != "" }
