package httpapi

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"appserver/internal/auth"
	"appserver/pkg/config"
	"appserver/pkg/shopify"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func newTestServer(t *testing.T, rt roundTripFunc) *httptest.Server {
	t.Helper()
	cfg := config.Config{
		BaseURL: "https://app.example.com",
		Shopify: config.ShopifyConfig{
			APIKey:          "key123",
			APISecret:       "secret456",
			Scopes:          "read_products",
			ExchangeTimeout: time.Second,
		},
	}
	srv := httptest.NewServer(NewRouter(Dependencies{
		Cfg:       cfg,
		Logger:    zerolog.Nop(),
		Exchanger: shopify.OAuthExchanger{HTTPClient: &http.Client{Transport: rt}},
		Render: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, "rendered "+r.URL.Path)
		}),
	}))
	t.Cleanup(srv.Close)
	return srv
}

func noRedirectClient() *http.Client {
	return &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}
}

func TestRouter_Routes(t *testing.T) {
	srv := newTestServer(t, func(r *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusOK,
			Header:     http.Header{"Content-Type": []string{"application/json"}},
			Body:       io.NopCloser(strings.NewReader(`{"access_token":"tok123"}`)),
		}, nil
	})
	c := noRedirectClient()

	resp, err := c.Get(srv.URL + OpsPrefix + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status %d", resp.StatusCode)
	}

	resp, err = c.Get(srv.URL + "/install")
	if err != nil {
		t.Fatalf("install: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 without shop, got %d", resp.StatusCode)
	}

	resp, err = c.Get(srv.URL + "/install?shop=example.myshopify.com")
	if err != nil {
		t.Fatalf("install: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected 302, got %d", resp.StatusCode)
	}

	q := url.Values{}
	q.Set("shop", "example.myshopify.com")
	q.Set("code", "authcode")
	q.Set("timestamp", "1700000000")
	q.Set("hmac", auth.SignOAuthQuery(q, "secret456"))
	resp, err = c.Get(srv.URL + config.CallbackPath + "?" + q.Encode())
	if err != nil {
		t.Fatalf("callback: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected 302, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "https://example.myshopify.com/admin/apps/key123" {
		t.Fatalf("unexpected location %q", loc)
	}

	resp, err = c.Get(srv.URL + "/app/settings")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "rendered /app/settings" {
		t.Fatalf("expected render delegate, got %q", body)
	}

	resp, err = c.Get(srv.URL + OpsPrefix + "/metrics")
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), `oauth_callbacks_total{result="installed"} 1`) {
		t.Fatalf("expected installed callback counter, got:\n%s", body)
	}
}

func TestRouter_OpsPathsDoNotShadowFrontEnd(t *testing.T) {
	srv := newTestServer(t, func(*http.Request) (*http.Response, error) {
		t.Errorf("no outbound call expected")
		return nil, errors.New("unexpected call")
	})

	for _, path := range []string{"/healthz", "/metrics"} {
		resp, err := srv.Client().Get(srv.URL + path)
		if err != nil {
			t.Fatalf("%s: %v", path, err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if string(body) != "rendered "+path {
			t.Fatalf("expected %s to reach the render delegate, got %q", path, body)
		}
	}
}
