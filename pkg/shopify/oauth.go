package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
)

// AuthorizeURL builds https://{shop}/admin/oauth/authorize with client_id, scope, redirect_uri and state.
// scopes is passed through as Shopify's comma separated list.
func AuthorizeURL(shopDomain, apiKey, scopes, redirectURI, state string) string {
	c := oauth2.Config{
		ClientID: apiKey,
		Endpoint: oauth2.Endpoint{
			AuthURL: (&url.URL{Scheme: "https", Host: shopDomain, Path: "/admin/oauth/authorize"}).String(),
		},
		RedirectURL: redirectURI,
	}
	if scopes != "" {
		c.Scopes = []string{scopes}
	}
	return c.AuthCodeURL(state)
}

// AdminAppURL is where the merchant lands once the app is installed.
func AdminAppURL(shopDomain, apiKey string) string {
	return (&url.URL{Scheme: "https", Host: shopDomain, Path: "/admin/apps/" + apiKey}).String()
}

// ExchangeError is returned when Shopify answers the token request with a non-2xx status.
type ExchangeError struct {
	Status      int
	Code        string
	Description string
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("shopify token exchange failed: status=%d error=%q description=%q", e.Status, e.Code, e.Description)
}

type OAuthExchanger struct {
	HTTPClient *http.Client
	APIKey     string
	APISecret  string
	Timeout    time.Duration
}

type accessTokenRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	Code         string `json:"code"`
}

type accessTokenResponse struct {
	AccessToken string `json:"access_token"`
	Scope       string `json:"scope"`
}

type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// ExchangeCodeForToken makes a single POST to https://{shop}/admin/oauth/access_token.
// The granted scope is available as token.Extra("scope").
func (o OAuthExchanger) ExchangeCodeForToken(ctx context.Context, shopDomain, code string) (*oauth2.Token, error) {
	if o.HTTPClient == nil {
		timeout := o.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		o.HTTPClient = &http.Client{Timeout: timeout}
	}

	body, err := json.Marshal(accessTokenRequest{
		ClientID:     o.APIKey,
		ClientSecret: o.APISecret,
		Code:         code,
	})
	if err != nil {
		return nil, err
	}

	u := url.URL{Scheme: "https", Host: shopDomain, Path: "/admin/oauth/access_token"}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := o.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("shopify token exchange: %w", err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read token response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		ee := &ExchangeError{Status: resp.StatusCode, Description: "Unknown error"}
		var er errorResponse
		if json.Unmarshal(b, &er) == nil {
			ee.Code = er.Error
			if er.ErrorDescription != "" {
				ee.Description = er.ErrorDescription
			}
		}
		return nil, ee
	}

	var r accessTokenResponse
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	if r.AccessToken == "" {
		return nil, fmt.Errorf("shopify token exchange returned empty access_token")
	}

	tok := &oauth2.Token{AccessToken: r.AccessToken}
	return tok.WithExtra(map[string]any{"scope": r.Scope}), nil
}
