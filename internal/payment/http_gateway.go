package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/convodesk/convodesk/internal/models"
)

// DefaultHTTPTimeout bounds every gateway call so a hung payments backend
// cannot block message processing indefinitely.
const DefaultHTTPTimeout = 10 * time.Second

// HTTPGateway talks JSON over HTTP to the payments backend.
type HTTPGateway struct {
	baseURL string
	client  *http.Client
}

// NewHTTPGateway creates a gateway client for the given backend base URL.
func NewHTTPGateway(baseURL string) *HTTPGateway {
	return &HTTPGateway{
		baseURL: baseURL,
		client:  &http.Client{Timeout: DefaultHTTPTimeout},
	}
}

// ListActiveProducts fetches the tenant's purchasable catalog.
func (g *HTTPGateway) ListActiveProducts(ctx context.Context, tenantID string) ([]models.Product, error) {
	var products []models.Product
	endpoint := fmt.Sprintf("%s/v1/tenants/%s/products?active=true", g.baseURL, url.PathEscape(tenantID))
	if err := g.getJSON(ctx, endpoint, &products); err != nil {
		return nil, fmt.Errorf("failed to list products for tenant %s: %w", tenantID, err)
	}
	return products, nil
}

// EnsurePaymentLink asks the backend to mint-or-reuse a payment link.
func (g *HTTPGateway) EnsurePaymentLink(ctx context.Context, params EnsureLinkParams) (Link, error) {
	body, err := json.Marshal(params)
	if err != nil {
		return Link{}, fmt.Errorf("failed to marshal ensure-link params: %w", err)
	}

	endpoint := g.baseURL + "/v1/payment-links/ensure"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return Link{}, fmt.Errorf("failed to build ensure-link request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return Link{}, fmt.Errorf("ensure-link call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return Link{}, fmt.Errorf("ensure-link returned status %d", resp.StatusCode)
	}

	var link Link
	if err := json.NewDecoder(resp.Body).Decode(&link); err != nil {
		return Link{}, fmt.Errorf("failed to decode ensure-link response: %w", err)
	}
	slog.Debug("HTTPGateway.EnsurePaymentLink: link ensured", "existing", link.Existing, "token_set", link.Token != "")
	return link, nil
}

// ResolveTenantBaseURL fetches the tenant's public base URL.
func (g *HTTPGateway) ResolveTenantBaseURL(ctx context.Context, tenantID string) (string, error) {
	var out struct {
		BaseURL string `json:"baseUrl"`
	}
	endpoint := fmt.Sprintf("%s/v1/tenants/%s", g.baseURL, url.PathEscape(tenantID))
	if err := g.getJSON(ctx, endpoint, &out); err != nil {
		return "", fmt.Errorf("failed to resolve base URL for tenant %s: %w", tenantID, err)
	}
	return out.BaseURL, nil
}

// ListIssuedLinks pages through the links previously issued for a session.
func (g *HTTPGateway) ListIssuedLinks(ctx context.Context, tenantID, sessionID string, offset, limit int) ([]IssuedLink, error) {
	var links []IssuedLink
	endpoint := fmt.Sprintf("%s/v1/tenants/%s/sessions/%s/links?offset=%s&limit=%s",
		g.baseURL, url.PathEscape(tenantID), url.PathEscape(sessionID),
		strconv.Itoa(offset), strconv.Itoa(limit))
	if err := g.getJSON(ctx, endpoint, &links); err != nil {
		return nil, fmt.Errorf("failed to list issued links for session %s: %w", sessionID, err)
	}
	return links, nil
}

func (g *HTTPGateway) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
