package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"appserver/internal/auth"
	"appserver/pkg/config"
	"appserver/pkg/shopify"
)

// simcallback prints (and optionally fires) a callback URL signed the way Shopify signs it.
func main() {
	cfg := config.Load()

	var (
		base      = flag.String("base", cfg.BaseURL, "server base url")
		shop      = flag.String("shop", "example.myshopify.com", "shop domain")
		code      = flag.String("code", "dev-code", "authorization code")
		secret    = flag.String("secret", cfg.Shopify.APISecret, "SHOPIFY_API_SECRET")
		withState = flag.Bool("state", true, "attach a signed state like /install would")
		send      = flag.Bool("send", false, "send the request and print the response")
	)
	flag.Parse()

	if *secret == "" {
		fmt.Fprintln(os.Stderr, "missing -secret (or SHOPIFY_API_SECRET in env/.env)")
		os.Exit(2)
	}
	shopDomain, ok := shopify.NormalizeShopDomain(*shop)
	if !ok {
		fmt.Fprintf(os.Stderr, "invalid shop %q\n", *shop)
		os.Exit(2)
	}

	q := url.Values{}
	q.Set("shop", shopDomain)
	q.Set("code", *code)
	q.Set("timestamp", strconv.FormatInt(time.Now().Unix(), 10))
	if *withState {
		state, err := shopify.IssueState(shopDomain, cfg.Shopify.APIKey, *secret, time.Now())
		if err != nil {
			fmt.Fprintf(os.Stderr, "issue state: %v\n", err)
			os.Exit(2)
		}
		q.Set("state", state)
	}
	q.Set("hmac", auth.SignOAuthQuery(q, *secret))

	target := strings.TrimRight(*base, "/") + config.CallbackPath + "?" + q.Encode()
	fmt.Println(target)
	if !*send {
		return
	}

	c := &http.Client{
		Timeout:       30 * time.Second,
		CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
	}
	resp, err := c.Get(target)
	if err != nil {
		fmt.Fprintf(os.Stderr, "get: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	fmt.Printf("status=%d location=%s\n%s\n", resp.StatusCode, resp.Header.Get("Location"), string(body))
}
