package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shinertx/jenni-shopify/internal/decision"
)

func postJSON(srv *Server, path string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)
	return rec
}

func TestResolveReturnsDecision(t *testing.T) {
	srv, _ := testServer(t)

	rec := postJSON(srv, "/edge/resolve", `{"zip":"10001","fingerprint":{"title":"Nike Dunk Low","brand":"Nike","price":100}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var got decision.Resolution
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Decision.CTA == "" || got.Decision.Reason == "" {
		t.Fatalf("expected populated decision, got %+v", got.Decision)
	}
	if got.NodeCount == 0 {
		t.Fatalf("expected fallback nodes even without a places key")
	}
}

func TestResolveInvalidZip(t *testing.T) {
	srv, _ := testServer(t)
	rec := postJSON(srv, "/edge/resolve", `{"zip":"!!","fingerprint":{}}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestResolveMalformedBody(t *testing.T) {
	srv, _ := testServer(t)
	rec := postJSON(srv, "/edge/resolve", `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestResolveDefaultsZip(t *testing.T) {
	srv, _ := testServer(t)
	rec := postJSON(srv, "/edge/resolve", `{"fingerprint":{"title":"Dunk"}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with defaulted zip, got %d", rec.Code)
	}
}

func TestPreviewRejectsBadURLs(t *testing.T) {
	srv, _ := testServer(t)
	for _, body := range []string{
		`{"url":"ftp://example.com/p","zip":"10001"}`,
		`{"url":"https://localhost/admin","zip":"10001"}`,
	} {
		if rec := postJSON(srv, "/edge/preview", body); rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", body, rec.Code)
		}
	}
}

func TestPreviewUnreachablePageAcksDegraded(t *testing.T) {
	srv, _ := testServer(t)

	rec := postJSON(srv, "/edge/preview", `{"url":"https://no-such-host.invalid/p","zip":"10001"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected degraded 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var got struct {
		Fetched bool   `json:"fetched"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Fetched {
		t.Fatalf("expected fetched=false")
	}
	if got.Error != "fetch_failed" {
		t.Fatalf("expected fetch_failed, got %q", got.Error)
	}
}

func TestPlacesEndpoint(t *testing.T) {
	srv, _ := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/edge/places?zip=10001&q=dunk&brand=Nike", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var got struct {
		NodeCount int               `json:"node_count"`
		Nodes     []json.RawMessage `json:"nodes"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.NodeCount == 0 || got.NodeCount > 5 {
		t.Fatalf("expected 1..5 nodes, got %d", got.NodeCount)
	}
}

func TestEligibilityEndpointRequiresParams(t *testing.T) {
	srv, _ := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/jenni/eligibility?zip=10001", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without gtin, got %d", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	srv, _ := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
