// Package payment defines the external payment gateway collaborator: a
// product catalog plus idempotent payment-link issuance.
package payment

import (
	"context"
	"time"

	"github.com/convodesk/convodesk/internal/models"
)

// EnsureLinkParams identifies a payment link request. The gateway treats the
// full parameter combination as the idempotency key: a repeat call with
// identical parameters returns the previously issued link.
type EnsureLinkParams struct {
	TenantID      string `json:"tenantId"`
	SessionID     string `json:"sessionId"`
	ProductID     string `json:"productId"`
	CustomerName  string `json:"customerName"`
	CustomerEmail string `json:"customerEmail"`
	AmountCents   int64  `json:"amountCents"`
	Currency      string `json:"currency"`
}

// Link is the identity of an issued payment link. Existing reports whether
// the gateway reused a previously minted link instead of creating one.
type Link struct {
	Token    string `json:"token"`
	Route    string `json:"route"`
	URL      string `json:"url"`
	Existing bool   `json:"existing"`
}

// IssuedLink is a history entry for the read-only payment history sub-mode.
type IssuedLink struct {
	Token       string    `json:"token"`
	ProductName string    `json:"productName"`
	AmountCents int64     `json:"amountCents"`
	Currency    string    `json:"currency"`
	URL         string    `json:"url"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Gateway is the external payment collaborator contract.
type Gateway interface {
	// ListActiveProducts returns the tenant's purchasable catalog.
	ListActiveProducts(ctx context.Context, tenantID string) ([]models.Product, error)

	// EnsurePaymentLink mints a link or returns the previously issued one
	// for an identical parameter combination (ensure semantics).
	EnsurePaymentLink(ctx context.Context, params EnsureLinkParams) (Link, error)

	// ResolveTenantBaseURL returns the tenant's public base URL used to
	// build absolute link URLs.
	ResolveTenantBaseURL(ctx context.Context, tenantID string) (string, error)

	// ListIssuedLinks pages through the links previously issued for a
	// session, newest first.
	ListIssuedLinks(ctx context.Context, tenantID, sessionID string, offset, limit int) ([]IssuedLink, error)
}
