package render

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"appserver/pkg/config"
)

func writeAsset(t *testing.T, dir, name, body string) {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestDelegate_ServesAssetsAndProxiesTheRest(t *testing.T) {
	dir := t.TempDir()
	writeAsset(t, dir, "assets/app.js", "console.log('hi')")

	var proxiedPath, proxiedHost string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		proxiedPath = r.URL.RequestURI()
		proxiedHost = r.Host
		_, _ = io.WriteString(w, "<html>rendered</html>")
	}))
	defer upstream.Close()

	d, err := New(config.RenderConfig{StaticDir: dir, UpstreamURL: upstream.URL})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	rec := httptest.NewRecorder()
	d.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/assets/app.js", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "console.log") {
		t.Fatalf("expected asset, got %d %q", rec.Code, rec.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "http://app.example.com/app/products?page=2", nil)
	rec = httptest.NewRecorder()
	d.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "rendered") {
		t.Fatalf("expected rendered page, got %d %q", rec.Code, rec.Body.String())
	}
	if proxiedPath != "/app/products?page=2" {
		t.Fatalf("unexpected proxied path %q", proxiedPath)
	}
	if proxiedHost != "app.example.com" {
		t.Fatalf("expected original host to be forwarded, got %q", proxiedHost)
	}
}

func TestDelegate_DoesNotEscapeStaticDir(t *testing.T) {
	root := t.TempDir()
	static := filepath.Join(root, "client")
	writeAsset(t, static, "index.css", "body{}")
	writeAsset(t, root, "secret.txt", "nope")

	d, err := New(config.RenderConfig{StaticDir: static})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.URL.Path = "/../secret.txt"
	d.ServeHTTP(rec, req)
	if strings.Contains(rec.Body.String(), "nope") {
		t.Fatalf("served a file outside the static dir")
	}
}

func TestDelegate_UpstreamDown(t *testing.T) {
	upstream := httptest.NewServer(http.NotFoundHandler())
	url := upstream.URL
	upstream.Close()

	d, err := New(config.RenderConfig{UpstreamURL: url})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	rec := httptest.NewRecorder()
	d.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/app", nil))
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
}

func TestDelegate_NoUpstream(t *testing.T) {
	d, err := New(config.RenderConfig{StaticDir: filepath.Join(t.TempDir(), "missing")})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	rec := httptest.NewRecorder()
	d.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/anything", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestNew_RejectsRelativeUpstream(t *testing.T) {
	if _, err := New(config.RenderConfig{UpstreamURL: "localhost:3000"}); err == nil {
		t.Fatalf("expected error")
	}
}
