// Package render forwards everything that is not part of the install handshake to the
// front-end: built client assets are served from disk, the rest goes to the rendering server.
package render

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"appserver/internal/api"
	"appserver/pkg/config"
)

type Delegate struct {
	staticDir string
	files     http.Handler
	proxy     *httputil.ReverseProxy
}

func New(cfg config.RenderConfig) (*Delegate, error) {
	d := &Delegate{}

	if cfg.StaticDir != "" {
		if st, err := os.Stat(cfg.StaticDir); err == nil && st.IsDir() {
			d.staticDir = cfg.StaticDir
			d.files = http.FileServer(http.Dir(cfg.StaticDir))
		}
	}

	if cfg.UpstreamURL != "" {
		target, err := url.Parse(cfg.UpstreamURL)
		if err != nil {
			return nil, fmt.Errorf("parse render upstream: %w", err)
		}
		if target.Scheme == "" || target.Host == "" {
			return nil, fmt.Errorf("render upstream must be an absolute url: %q", cfg.UpstreamURL)
		}
		d.proxy = &httputil.ReverseProxy{
			Rewrite: func(pr *httputil.ProxyRequest) {
				pr.SetURL(target)
				pr.SetXForwarded()
				pr.Out.Host = pr.In.Host
			},
			ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
				api.LoggerFromContext(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("render upstream")
				api.WriteError(w, http.StatusBadGateway, api.CodeUpstreamUnavailable, "renderer unavailable")
			},
		}
	}

	return d, nil
}

func (d *Delegate) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if d.files != nil && (r.Method == http.MethodGet || r.Method == http.MethodHead) && d.isFile(r.URL.Path) {
		d.files.ServeHTTP(w, r)
		return
	}
	if d.proxy != nil {
		d.proxy.ServeHTTP(w, r)
		return
	}
	api.WriteError(w, http.StatusNotFound, api.CodeNotFound, "not found")
}

func (d *Delegate) isFile(urlPath string) bool {
	clean := path.Clean("/" + urlPath)
	if clean == "/" || strings.HasSuffix(urlPath, "/") {
		return false
	}
	st, err := os.Stat(filepath.Join(d.staticDir, filepath.FromSlash(clean)))
	return err == nil && !st.IsDir()
}
