package testutil

import (
	"net/http/httptest"
	"testing"
)

func TestNewTestEngine(t *testing.T) {
	engine, gateway, sessions := NewTestEngine()
	if engine == nil || gateway == nil || sessions == nil {
		t.Fatal("NewTestEngine returned nil collaborator")
	}
}

func TestNewTestServer(t *testing.T) {
	if NewTestServer() == nil {
		t.Fatal("NewTestServer returned nil")
	}
}

func TestAssertJSONResponse(t *testing.T) {
	rr := httptest.NewRecorder()
	rr.Body.WriteString(`{"status":"ok","result":{"x":1}}`)

	response := AssertJSONResponse(t, rr, "ok")
	if response["result"] == nil {
		t.Error("expected result field in decoded response")
	}
}
