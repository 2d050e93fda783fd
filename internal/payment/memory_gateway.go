package payment

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/convodesk/convodesk/internal/models"
)

// InMemoryGateway is a gateway backed by process-local maps. It honors the
// ensure contract: identical parameters return the same token with
// Existing=true. Used in tests and as a degraded default when no gateway URL
// is configured.
type InMemoryGateway struct {
	mu       sync.Mutex
	products map[string][]models.Product
	links    map[string]Link
	issued   map[string][]IssuedLink
	baseURL  string

	// FailEnsure makes EnsurePaymentLink return an error; used to exercise
	// the gateway failure path in tests.
	FailEnsure bool

	// EnsureCalls counts mint attempts, observed by idempotence tests.
	EnsureCalls int
}

// NewInMemoryGateway creates an empty in-memory gateway.
func NewInMemoryGateway(baseURL string) *InMemoryGateway {
	if baseURL == "" {
		baseURL = "https://pay.example.com"
	}
	return &InMemoryGateway{
		products: make(map[string][]models.Product),
		links:    make(map[string]Link),
		issued:   make(map[string][]IssuedLink),
		baseURL:  baseURL,
	}
}

// SetProducts replaces the active catalog for a tenant.
func (g *InMemoryGateway) SetProducts(tenantID string, products []models.Product) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.products[tenantID] = products
}

// ListActiveProducts returns the tenant's catalog.
func (g *InMemoryGateway) ListActiveProducts(ctx context.Context, tenantID string) ([]models.Product, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]models.Product, len(g.products[tenantID]))
	copy(out, g.products[tenantID])
	return out, nil
}

func ensureKey(p EnsureLinkParams) string {
	return fmt.Sprintf("%s|%s|%s|%s|%d|%s", p.TenantID, p.SessionID, p.ProductID, p.CustomerEmail, p.AmountCents, p.Currency)
}

// EnsurePaymentLink mints a link once per parameter combination and returns
// the stored one with Existing=true on repeats.
func (g *InMemoryGateway) EnsurePaymentLink(ctx context.Context, params EnsureLinkParams) (Link, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.EnsureCalls++

	if g.FailEnsure {
		return Link{}, fmt.Errorf("gateway unavailable")
	}

	key := ensureKey(params)
	if link, ok := g.links[key]; ok {
		link.Existing = true
		slog.Debug("InMemoryGateway.EnsurePaymentLink: reusing existing link", "token", link.Token)
		return link, nil
	}

	token := uuid.NewString()
	link := Link{
		Token: token,
		Route: "/pay/" + token,
		URL:   g.baseURL + "/pay/" + token,
	}
	g.links[key] = link

	sessionKey := params.TenantID + "|" + params.SessionID
	var productName string
	for _, p := range g.products[params.TenantID] {
		if p.ID == params.ProductID {
			productName = p.Name
			break
		}
	}
	g.issued[sessionKey] = append([]IssuedLink{{
		Token:       token,
		ProductName: productName,
		AmountCents: params.AmountCents,
		Currency:    params.Currency,
		URL:         link.URL,
		CreatedAt:   time.Now().UTC(),
	}}, g.issued[sessionKey]...)

	slog.Debug("InMemoryGateway.EnsurePaymentLink: minted link", "token", token)
	return link, nil
}

// ResolveTenantBaseURL returns the configured base URL for every tenant.
func (g *InMemoryGateway) ResolveTenantBaseURL(ctx context.Context, tenantID string) (string, error) {
	return g.baseURL, nil
}

// ListIssuedLinks pages through a session's links, newest first.
func (g *InMemoryGateway) ListIssuedLinks(ctx context.Context, tenantID, sessionID string, offset, limit int) ([]IssuedLink, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	all := g.issued[tenantID+"|"+sessionID]
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(all) {
		end = len(all)
	}
	out := make([]IssuedLink, end-offset)
	copy(out, all[offset:end])
	return out, nil
}
