package payment

import (
	"context"
	"strings"
	"testing"

	"github.com/convodesk/convodesk/internal/models"
)

var testParams = EnsureLinkParams{
	TenantID:      "tenant-1",
	SessionID:     "sess-1",
	ProductID:     "prod-1",
	CustomerName:  "Jane Doe",
	CustomerEmail: "jane@example.com",
	AmountCents:   9900,
	Currency:      "USD",
}

func newTestGateway() *InMemoryGateway {
	g := NewInMemoryGateway("")
	g.SetProducts("tenant-1", []models.Product{
		{ID: "prod-1", Name: "Monthly Membership", ProductCode: "MM-01", AmountCents: 9900, Currency: "USD"},
	})
	return g
}

func TestEnsurePaymentLinkIdempotence(t *testing.T) {
	g := newTestGateway()
	ctx := context.Background()

	first, err := g.EnsurePaymentLink(ctx, testParams)
	if err != nil {
		t.Fatalf("EnsurePaymentLink failed: %v", err)
	}
	if first.Existing {
		t.Error("first mint should not report an existing link")
	}
	if first.Token == "" || !strings.HasPrefix(first.Route, "/pay/") {
		t.Errorf("malformed link: %+v", first)
	}
	if !strings.HasSuffix(first.URL, first.Route) {
		t.Errorf("URL should end with the route: %+v", first)
	}

	second, err := g.EnsurePaymentLink(ctx, testParams)
	if err != nil {
		t.Fatalf("EnsurePaymentLink failed: %v", err)
	}
	if second.Token != first.Token {
		t.Errorf("identical parameters must yield the same token: %s vs %s", first.Token, second.Token)
	}
	if !second.Existing {
		t.Error("repeat mint should report Existing")
	}
	if g.EnsureCalls != 2 {
		t.Errorf("expected 2 recorded calls, got %d", g.EnsureCalls)
	}
}

func TestEnsurePaymentLinkNewParamsNewLink(t *testing.T) {
	g := newTestGateway()
	ctx := context.Background()

	first, err := g.EnsurePaymentLink(ctx, testParams)
	if err != nil {
		t.Fatalf("EnsurePaymentLink failed: %v", err)
	}

	changed := testParams
	changed.CustomerEmail = "other@example.com"
	second, err := g.EnsurePaymentLink(ctx, changed)
	if err != nil {
		t.Fatalf("EnsurePaymentLink failed: %v", err)
	}
	if second.Token == first.Token {
		t.Error("different parameters must yield a different link")
	}
	if second.Existing {
		t.Error("a new parameter combination should not report Existing")
	}
}

func TestEnsurePaymentLinkFailure(t *testing.T) {
	g := newTestGateway()
	g.FailEnsure = true

	if _, err := g.EnsurePaymentLink(context.Background(), testParams); err == nil {
		t.Error("expected an error when the gateway is failing")
	}
	if g.EnsureCalls != 1 {
		t.Errorf("failed attempts still count, got %d", g.EnsureCalls)
	}
}

func TestListIssuedLinksNewestFirst(t *testing.T) {
	g := newTestGateway()
	ctx := context.Background()

	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		params := testParams
		params.CustomerEmail = email
		if _, err := g.EnsurePaymentLink(ctx, params); err != nil {
			t.Fatalf("EnsurePaymentLink failed: %v", err)
		}
	}

	links, err := g.ListIssuedLinks(ctx, "tenant-1", "sess-1", 0, 2)
	if err != nil {
		t.Fatalf("ListIssuedLinks failed: %v", err)
	}
	if len(links) != 2 {
		t.Fatalf("expected 2 links, got %d", len(links))
	}
	if links[0].ProductName != "Monthly Membership" {
		t.Errorf("product name not recorded: %+v", links[0])
	}

	rest, err := g.ListIssuedLinks(ctx, "tenant-1", "sess-1", 2, 2)
	if err != nil {
		t.Fatalf("ListIssuedLinks failed: %v", err)
	}
	if len(rest) != 1 {
		t.Errorf("expected the final link, got %d", len(rest))
	}
	if rest[0].Token == links[0].Token || rest[0].Token == links[1].Token {
		t.Error("pages overlap")
	}

	past, err := g.ListIssuedLinks(ctx, "tenant-1", "sess-1", 5, 2)
	if err != nil {
		t.Fatalf("ListIssuedLinks failed: %v", err)
	}
	if past != nil {
		t.Errorf("offset past the end should return nil, got %v", past)
	}
}
