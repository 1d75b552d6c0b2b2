package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

func TestRedactQuery(t *testing.T) {
	q := url.Values{}
	q.Set("shop", "example.myshopify.com")
	q.Set("code", "secret-code")
	q.Set("hmac", "deadbeef")
	q.Set("state", "jwt")

	got := RedactQuery(q)
	for _, leaked := range []string{"secret-code", "deadbeef", "jwt"} {
		if strings.Contains(got, leaked) {
			t.Fatalf("%q leaked into %q", leaked, got)
		}
	}
	if !strings.Contains(got, "shop=example.myshopify.com") {
		t.Fatalf("expected shop to be kept: %q", got)
	}
	if q.Get("code") != "secret-code" {
		t.Fatalf("input values must not be modified")
	}
}

func TestRequestLogger_AttachesLoggerAndRedacts(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	var sawLogger bool
	h := middleware.RequestID(RequestLogger(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawLogger = LoggerFromContext(r.Context()).GetLevel() != zerolog.Disabled
		w.WriteHeader(http.StatusTeapot)
	})))

	req := httptest.NewRequest(http.MethodGet, "/install/api/callback?shop=a.myshopify.com&code=topsecret", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)

	if !sawLogger {
		t.Fatalf("expected request logger in context")
	}
	if strings.Contains(buf.String(), "topsecret") {
		t.Fatalf("code leaked into access log: %s", buf.String())
	}

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if line["status"] != float64(http.StatusTeapot) {
		t.Fatalf("status mismatch: %v", line["status"])
	}
	if line["request_id"] == "" || line["request_id"] == nil {
		t.Fatalf("expected request_id in log line")
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, http.StatusBadGateway, "UPSTREAM_UNAVAILABLE", "renderer unavailable")

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status mismatch: %d", rec.Code)
	}
	var env ErrorEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Error.Code != "UPSTREAM_UNAVAILABLE" {
		t.Fatalf("code mismatch: %q", env.Error.Code)
	}
}
