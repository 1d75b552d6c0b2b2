package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"appserver/internal/api"
	"appserver/internal/events"
	"appserver/internal/metrics"
	"appserver/pkg/config"
	"appserver/pkg/shopify"
)

const (
	msgMissingShop    = `Missing "Shop Name" parameter!!`
	msgMissingParams  = "Required parameter missing"
	msgInvalidShop    = "invalid shop"
	msgInvalidHMAC    = "invalid hmac"
	msgInvalidState   = "invalid oauth state"
	msgExchangeFailed = "An error occurred"

	recordTimeout = 5 * time.Second
)

// Handlers implements the two steps of the Shopify install handshake. It keeps no state between
// requests: the OAuth state travels as a signed token and Events is write-only.
type Handlers struct {
	Cfg       config.Config
	Exchanger shopify.OAuthExchanger
	Events    events.Recorder
	Metrics   *metrics.Metrics

	// Now is overridable in tests.
	Now func() time.Time
}

func (h Handlers) Install(w http.ResponseWriter, r *http.Request) {
	log := api.LoggerFromContext(r.Context())

	raw := r.URL.Query().Get("shop")
	if strings.TrimSpace(raw) == "" {
		h.Metrics.InstallRedirects.WithLabelValues("missing_shop").Inc()
		http.Error(w, msgMissingShop, http.StatusBadRequest)
		return
	}
	shopDomain, ok := shopify.NormalizeShopDomain(raw)
	if !ok {
		h.Metrics.InstallRedirects.WithLabelValues("invalid_shop").Inc()
		log.Warn().Str("shop", raw).Msg("install rejected: invalid shop")
		http.Error(w, msgInvalidShop, http.StatusBadRequest)
		return
	}

	state, err := shopify.IssueState(shopDomain, h.Cfg.Shopify.APIKey, h.Cfg.Shopify.APISecret, h.now())
	if err != nil {
		h.Metrics.InstallRedirects.WithLabelValues("error").Inc()
		log.Error().Err(err).Str("shop", shopDomain).Msg("issue oauth state")
		http.Error(w, msgExchangeFailed, http.StatusInternalServerError)
		return
	}

	target := shopify.AuthorizeURL(shopDomain, h.Cfg.Shopify.APIKey, h.Cfg.Shopify.Scopes, h.Cfg.CallbackURL(), state)

	h.Metrics.InstallRedirects.WithLabelValues("redirected").Inc()
	h.record(r.Context(), events.Event{ShopDomain: shopDomain, Type: events.InstallRedirected})
	log.Info().Str("shop", shopDomain).Msg("redirecting to shopify authorize")

	http.Redirect(w, r, target, http.StatusFound)
}

func (h Handlers) Callback(w http.ResponseWriter, r *http.Request) {
	log := api.LoggerFromContext(r.Context())
	qs := r.URL.Query()

	raw := strings.TrimSpace(qs.Get("shop"))
	code := strings.TrimSpace(qs.Get("code"))
	timestamp := qs.Get("timestamp")
	if raw == "" || qs.Get("hmac") == "" || code == "" {
		h.Metrics.Callbacks.WithLabelValues("missing_params").Inc()
		http.Error(w, msgMissingParams, http.StatusBadRequest)
		return
	}

	shopDomain, ok := shopify.NormalizeShopDomain(raw)
	if !ok {
		h.Metrics.Callbacks.WithLabelValues("invalid_shop").Inc()
		log.Warn().Str("shop", raw).Msg("callback rejected: invalid shop")
		http.Error(w, msgInvalidShop, http.StatusBadRequest)
		return
	}

	if !VerifyOAuthHMAC(qs, h.Cfg.Shopify.APISecret) {
		h.reject(r.Context(), shopDomain, "bad_hmac")
		http.Error(w, msgInvalidHMAC, http.StatusUnauthorized)
		return
	}

	if state := qs.Get("state"); state != "" {
		if err := shopify.VerifyState(state, shopDomain, h.Cfg.Shopify.APIKey, h.Cfg.Shopify.APISecret, h.now()); err != nil {
			log.Warn().Err(err).Str("shop", shopDomain).Msg("callback rejected: state")
			h.reject(r.Context(), shopDomain, "bad_state")
			http.Error(w, msgInvalidState, http.StatusBadRequest)
			return
		}
	} else if h.Cfg.Shopify.RequireState {
		h.reject(r.Context(), shopDomain, "bad_state")
		http.Error(w, msgInvalidState, http.StatusBadRequest)
		return
	}

	ex := h.Exchanger
	ex.APIKey = h.Cfg.Shopify.APIKey
	ex.APISecret = h.Cfg.Shopify.APISecret
	ex.Timeout = h.Cfg.Shopify.ExchangeTimeout

	// The exchange outlives a disconnecting browser but never the configured timeout.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), h.exchangeTimeout())
	defer cancel()

	started := time.Now()
	token, err := ex.ExchangeCodeForToken(ctx, shopDomain, code)
	if err != nil {
		h.Metrics.ObserveExchange("error", started)
		h.Metrics.Callbacks.WithLabelValues("exchange_failed").Inc()

		detail := map[string]any{"reason": "transport"}
		var ee *shopify.ExchangeError
		if errors.As(err, &ee) {
			detail = map[string]any{"reason": "status", "status": ee.Status, "error": ee.Code, "description": ee.Description}
		}
		log.Error().Err(err).Str("shop", shopDomain).Msg("token exchange failed")
		h.record(r.Context(), events.Event{ShopDomain: shopDomain, Type: events.TokenExchangeFailed, Detail: detail})

		http.Error(w, msgExchangeFailed, http.StatusInternalServerError)
		return
	}
	h.Metrics.ObserveExchange("ok", started)
	h.Metrics.Callbacks.WithLabelValues("installed").Inc()

	scope, _ := token.Extra("scope").(string)
	log.Info().
		Str("shop", shopDomain).
		Str("timestamp", timestamp).
		Str("scope", scope).
		Msg("app installed")
	h.record(r.Context(), events.Event{ShopDomain: shopDomain, Type: events.TokenExchanged, Detail: map[string]any{"scope": scope}})

	http.Redirect(w, r, shopify.AdminAppURL(shopDomain, h.Cfg.Shopify.APIKey), http.StatusFound)
}

func (h Handlers) reject(ctx context.Context, shopDomain, reason string) {
	h.Metrics.Callbacks.WithLabelValues(reason).Inc()
	api.LoggerFromContext(ctx).Warn().Str("shop", shopDomain).Str("reason", reason).Msg("callback rejected")
	h.record(ctx, events.Event{ShopDomain: shopDomain, Type: events.CallbackRejected, Detail: map[string]any{"reason": reason}})
}

// record never fails the request; the event log is best effort. The write gets its own deadline
// so neither an expired exchange nor a disconnected browser drops the event.
func (h Handlers) record(ctx context.Context, e events.Event) {
	if h.Events == nil {
		return
	}
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	if err := h.Events.Record(wctx, e); err != nil {
		api.LoggerFromContext(ctx).Warn().Err(err).Str("event", string(e.Type)).Msg("record install event")
	}
}

func (h Handlers) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h Handlers) exchangeTimeout() time.Duration {
	if h.Cfg.Shopify.ExchangeTimeout > 0 {
		return h.Cfg.Shopify.ExchangeTimeout
	}
	return 15 * time.Second
}
