package server

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/sfxrentals/dossier/config"
	"github.com/sfxrentals/dossier/reader"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg, err := config.Load()
	if err != nil {
		t.Fatal(err)
	}
	return New(cfg, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp map[string]bool
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp["ok"] {
		t.Error("health not ok")
	}
}

func TestGeneratePDF(t *testing.T) {
	s := newTestServer(t)
	body := `{"preview": {"avm": {"name": "Testfeest"}}, "format": "pdf"}`
	rec := do(t, s, http.MethodPost, "/generate", body)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename="dossier.pdf"` {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing request id")
	}

	doc, err := reader.Parse(rec.Body.Bytes())
	if err != nil {
		t.Fatalf("response is not a parseable PDF: %v", err)
	}
	if doc.NumPages() < 11 {
		t.Errorf("got %d pages", doc.NumPages())
	}
}

func TestGeneratePDFWithUnreachableDocuments(t *testing.T) {
	s := newTestServer(t)
	body := `{
		"preview": {
			"avm": {"name": "Testfeest"},
			"documents": {"windplan": "http://127.0.0.1:1/wind.pdf"}
		}
	}`
	rec := do(t, s, http.MethodPost, "/generate", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("unreachable document must not fail the request, status = %d", rec.Code)
	}
	if _, err := reader.Parse(rec.Body.Bytes()); err != nil {
		t.Fatalf("response is not a parseable PDF: %v", err)
	}
}

func TestGenerateDOCX(t *testing.T) {
	s := newTestServer(t)
	body := `{"preview": {"avm": {"name": "Testfeest"}}, "format": "docx"}`
	rec := do(t, s, http.MethodPost, "/generate", body)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "officedocument.wordprocessingml") {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename="dossier.docx"` {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")) {
		t.Error("response is not a zip container")
	}
}

func TestGenerateAcceptsFreeTextQuantity(t *testing.T) {
	s := newTestServer(t)
	body := `{"preview": {"materials": {"dees": [{"displayname": "Cake", "quantity_total": "ca. 4 stuks"}]}}}`
	rec := do(t, s, http.MethodPost, "/generate", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}
	if _, err := reader.Parse(rec.Body.Bytes()); err != nil {
		t.Fatalf("response is not a parseable PDF: %v", err)
	}
}

func TestGenerateRejectsMalformedJSON(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/generate", `{"preview": `)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["error"] != "Invalid JSON" {
		t.Errorf("error = %q", resp["error"])
	}
	if resp["detail"] == "" {
		t.Error("missing detail")
	}
}

func TestGenerateUnknownFormatFallsBackToPDF(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/generate", `{"preview": {}, "format": "odt"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("Content-Type = %q", ct)
	}
}
