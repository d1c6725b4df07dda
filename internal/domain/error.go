package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidExecContext = errors.New("invalid executor context")

	// Authentication
	ErrUnauthenticated = errors.New("authentication required")
	ErrTokenInvalid    = errors.New("invalid token")
	ErrStateMismatch   = errors.New("oauth state mismatch")
	ErrProviderDenied  = errors.New("identity provider rejected the exchange")

	// Redemption. Every way a code can be unusable (unknown, inactive,
	// already used, expired, lost race) collapses into ErrCodeInvalid so the
	// endpoint cannot be used to enumerate code states.
	ErrCodeInvalid        = errors.New("invalid redeem code")
	ErrAlreadyProvisioned = errors.New("identity already has an assigned page")
)
