// Package testutil provides common test helpers for ConvoDesk tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/convodesk/convodesk/internal/api"
	"github.com/convodesk/convodesk/internal/flow"
	"github.com/convodesk/convodesk/internal/i18n"
	"github.com/convodesk/convodesk/internal/intent"
	"github.com/convodesk/convodesk/internal/models"
	"github.com/convodesk/convodesk/internal/payment"
	"github.com/convodesk/convodesk/internal/session"
	"github.com/convodesk/convodesk/internal/store"
)

// FixedTime is the deterministic clock used by test engines: a Thursday, so
// generated slots land in the following calendar week.
var FixedTime = time.Date(2025, time.March, 6, 12, 0, 0, 0, time.UTC)

// Default identifiers used across tests.
const (
	TestTenant  = "tenant-1"
	TestSession = "sess-1"
)

// TestProducts is the catalog seeded into test gateways.
var TestProducts = []models.Product{
	{ID: "prod-1", Name: "Monthly Membership", ProductCode: "MM-01", AmountCents: 9900, Currency: "USD"},
	{ID: "prod-2", Name: "Day Pass", ProductCode: "DP-01", AmountCents: 1500, Currency: "USD"},
}

// NewTestEngine creates an engine with deterministic in-memory
// collaborators: keyword classifier, in-memory stores, seeded gateway, and
// a fixed clock.
func NewTestEngine() (*flow.Engine, *payment.InMemoryGateway, *session.Store) {
	gateway := payment.NewInMemoryGateway("")
	gateway.SetProducts(TestTenant, TestProducts)
	sessions := session.NewStore(store.NewInMemoryStore(), session.WithClock(func() time.Time { return FixedTime }))
	engine := flow.NewEngine(sessions, intent.NewKeywordClassifier(), gateway, i18n.NewLanguageDetector(nil),
		flow.WithClock(func() time.Time { return FixedTime }))
	return engine, gateway, sessions
}

// NewTestServer creates an API server backed by a deterministic test engine.
func NewTestServer() *api.Server {
	engine, _, _ := NewTestEngine()
	return api.NewServer(engine)
}

// AssertHTTPStatus checks the HTTP status code and fails the test if it
// doesn't match.
func AssertHTTPStatus(t *testing.T, expected, actual int, context string) {
	t.Helper()
	if actual != expected {
		t.Errorf("%s: expected status %d, got %d", context, expected, actual)
	}
}

// AssertJSONResponse decodes a JSON response and validates the status field.
func AssertJSONResponse(t *testing.T, rr *httptest.ResponseRecorder, expectedStatus string) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON response: %v", err)
	}

	if status, ok := response["status"].(string); ok {
		if status != expectedStatus {
			t.Errorf("expected status '%s', got '%s'", expectedStatus, status)
		}
	} else {
		t.Error("response missing or invalid 'status' field")
	}
	return response
}

// CreateHTTPRequest creates an HTTP request with optional JSON body for
// testing.
func CreateHTTPRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	t.Helper()
	var reqBody *bytes.Buffer
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		t.Fatalf("failed to create HTTP request: %v", err)
	}
	return req
}
