package model

import "time"

// ServiceAccount is the downstream-facing record keyed by identity. It is
// what collaborator services see when they verify a proxy token; its
// lifecycle is tied 1:1 to Account but it is written first during
// provisioning, so it may briefly exist on its own.
type ServiceAccount struct {
	IdentityID string
	PageID     string
	OwnerName  string
	Email      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
