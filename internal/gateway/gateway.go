// Package gateway adapts the external payment provider. The core treats
// any non-success verify response uniformly as "not verified".
package gateway

import "context"

// AuthorizeResult carries the provider-issued authority token and the URL
// the buyer must be redirected to.
type AuthorizeResult struct {
	Authority   string
	RedirectURL string
}

// VerifyResult carries the provider's settlement reference.
type VerifyResult struct {
	RefID string
}

// Adapter is the contract the checkout and order services consume.
// Amounts are always in the gateway's minor currency unit.
type Adapter interface {
	Authorize(ctx context.Context, amountMinor int64, phone, description string) (AuthorizeResult, error)
	Verify(ctx context.Context, amountMinor int64, authority string) (VerifyResult, error)
}
