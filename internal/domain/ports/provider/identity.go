package provider

import "context"

// Profile is the subset of identity-provider profile data this service
// consumes. ID is the provider's stable subject identifier and is the only
// required field.
type Profile struct {
	ID    string
	Name  string
	Email string
}

// IdentityProvider drives the authorization-code flow against an external
// OAuth provider. Implementations live in infra; handlers and tests depend
// only on this port.
type IdentityProvider interface {
	// AuthorizeURL builds the browser redirect target carrying state and the
	// fixed callback URL.
	AuthorizeURL(state string) string
	// ExchangeCode trades the authorization code for an access token via a
	// server-to-server call. Returns domain.ErrProviderDenied when the
	// provider does not hand back a usable token.
	ExchangeCode(ctx context.Context, code, state string) (string, error)
	// FetchProfile loads the provider profile for an access token. Returns
	// domain.ErrProviderDenied when no stable subject identifier comes back.
	FetchProfile(ctx context.Context, accessToken string) (*Profile, error)
}
