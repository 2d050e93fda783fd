package api_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/convodesk/convodesk/internal/api"
	"github.com/convodesk/convodesk/internal/models"
	"github.com/convodesk/convodesk/internal/testutil"
)

func serveRequest(server http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	server.ServeHTTP(rr, req)
	return rr
}

func TestMessageEndpoint(t *testing.T) {
	server := testutil.NewTestServer()

	req := testutil.CreateHTTPRequest(t, http.MethodPost, "/api/v1/messages", models.MessageRequest{
		SessionID: testutil.TestSession,
		TenantID:  testutil.TestTenant,
		Message:   "hi",
	})
	rr := serveRequest(server.Handler(), req)

	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "message endpoint")
	response := testutil.AssertJSONResponse(t, rr, models.APIStatusOK)

	result, ok := response["result"].(map[string]interface{})
	if !ok {
		t.Fatalf("missing result payload: %v", response)
	}
	if result["currentStep"] != string(models.StepAwaitingIntent) {
		t.Errorf("expected currentStep %s, got %v", models.StepAwaitingIntent, result["currentStep"])
	}
	if result["language"] != "en" {
		t.Errorf("expected language en, got %v", result["language"])
	}
	if text, _ := result["response"].(string); text == "" {
		t.Error("empty response text")
	}
}

func TestMessageEndpointRejectsInvalidJSON(t *testing.T) {
	server := testutil.NewTestServer()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/messages", strings.NewReader("{not json"))
	rr := serveRequest(server.Handler(), req)

	testutil.AssertHTTPStatus(t, http.StatusBadRequest, rr.Code, "invalid JSON")
	testutil.AssertJSONResponse(t, rr, models.APIStatusError)
}

func TestMessageEndpointRejectsMissingFields(t *testing.T) {
	server := testutil.NewTestServer()

	req := testutil.CreateHTTPRequest(t, http.MethodPost, "/api/v1/messages", models.MessageRequest{
		SessionID: testutil.TestSession,
	})
	rr := serveRequest(server.Handler(), req)

	testutil.AssertHTTPStatus(t, http.StatusBadRequest, rr.Code, "missing fields")
	testutil.AssertJSONResponse(t, rr, models.APIStatusError)
}

func TestMessageEndpointMethodNotAllowed(t *testing.T) {
	server := testutil.NewTestServer()

	req := testutil.CreateHTTPRequest(t, http.MethodGet, "/api/v1/messages", nil)
	rr := serveRequest(server.Handler(), req)

	testutil.AssertHTTPStatus(t, http.StatusMethodNotAllowed, rr.Code, "GET on messages")
	if allow := rr.Header().Get("Allow"); allow != http.MethodPost {
		t.Errorf("expected Allow: POST, got %q", allow)
	}
}

func TestSessionEndpoint(t *testing.T) {
	server := testutil.NewTestServer()

	// Prime the session with one message.
	req := testutil.CreateHTTPRequest(t, http.MethodPost, "/api/v1/messages", models.MessageRequest{
		SessionID: testutil.TestSession,
		TenantID:  testutil.TestTenant,
		Message:   "hi",
	})
	serveRequest(server.Handler(), req)

	req = testutil.CreateHTTPRequest(t, http.MethodGet,
		"/api/v1/sessions?sessionId="+testutil.TestSession+"&tenantId="+testutil.TestTenant, nil)
	rr := serveRequest(server.Handler(), req)

	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "session endpoint")
	response := testutil.AssertJSONResponse(t, rr, models.APIStatusOK)

	result, ok := response["result"].(map[string]interface{})
	if !ok {
		t.Fatalf("missing result payload: %v", response)
	}
	if result["currentStep"] != string(models.StepAwaitingIntent) {
		t.Errorf("expected currentStep %s, got %v", models.StepAwaitingIntent, result["currentStep"])
	}
	if _, ok := result["transitionLog"]; !ok {
		t.Error("session diagnostics should include the transition log")
	}
}

func TestSessionEndpointRequiresParams(t *testing.T) {
	server := testutil.NewTestServer()

	req := testutil.CreateHTTPRequest(t, http.MethodGet, "/api/v1/sessions", nil)
	rr := serveRequest(server.Handler(), req)

	testutil.AssertHTTPStatus(t, http.StatusBadRequest, rr.Code, "missing params")
}

func TestResetEndpoint(t *testing.T) {
	server := testutil.NewTestServer()

	req := testutil.CreateHTTPRequest(t, http.MethodPost, "/api/v1/messages", models.MessageRequest{
		SessionID: testutil.TestSession,
		TenantID:  testutil.TestTenant,
		Message:   "I want to book an appointment",
	})
	serveRequest(server.Handler(), req)

	req = testutil.CreateHTTPRequest(t, http.MethodPost, "/api/v1/sessions/reset", map[string]string{
		"sessionId": testutil.TestSession,
		"tenantId":  testutil.TestTenant,
	})
	rr := serveRequest(server.Handler(), req)

	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "reset endpoint")
	response := testutil.AssertJSONResponse(t, rr, models.APIStatusOK)

	result, ok := response["result"].(map[string]interface{})
	if !ok {
		t.Fatalf("missing result payload: %v", response)
	}
	if result["currentStep"] != string(models.StepGreeting) {
		t.Errorf("reset should return a fresh session, got %v", result["currentStep"])
	}
}

func TestHealthEndpoint(t *testing.T) {
	server := testutil.NewTestServer()

	req := testutil.CreateHTTPRequest(t, http.MethodGet, "/health", nil)
	rr := serveRequest(server.Handler(), req)

	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "health endpoint")
	testutil.AssertJSONResponse(t, rr, models.APIStatusOK)
}

func TestTwilioWebhookRejectsUnsignedRequests(t *testing.T) {
	engine, _, _ := testutil.NewTestEngine()
	server := api.NewServer(engine, api.WithTwilioWebhook("test-auth-token", "https://example.com"))

	form := url.Values{"From": {"whatsapp:+15551234567"}, "To": {"whatsapp:+15557654321"}, "Body": {"hi"}}
	req := httptest.NewRequest(http.MethodPost, "/webhooks/twilio", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := serveRequest(server.Handler(), req)

	testutil.AssertHTTPStatus(t, http.StatusForbidden, rr.Code, "unsigned webhook")
}

func TestTwilioWebhookDisabledByDefault(t *testing.T) {
	server := testutil.NewTestServer()

	form := url.Values{"From": {"whatsapp:+15551234567"}, "To": {"whatsapp:+15557654321"}, "Body": {"hi"}}
	req := httptest.NewRequest(http.MethodPost, "/webhooks/twilio", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := serveRequest(server.Handler(), req)

	testutil.AssertHTTPStatus(t, http.StatusNotFound, rr.Code, "webhook without a token")
}
