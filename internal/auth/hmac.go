package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

var (
	keyEscaper   = strings.NewReplacer("%", "%25", "&", "%26", "=", "%3D")
	valueEscaper = strings.NewReplacer("%", "%25", "&", "%26")
)

// VerifyOAuthHMAC verifies Shopify's OAuth callback HMAC.
// Shopify computes the HMAC over the querystring (excluding hmac and signature) in lexicographical order.
func VerifyOAuthHMAC(values url.Values, apiSecret string) bool {
	given := values.Get("hmac")
	if given == "" || apiSecret == "" {
		return false
	}
	// OAuth callbacks never repeat a parameter; a repeated one cannot be canonicalised safely.
	for _, vs := range values {
		if len(vs) > 1 {
			return false
		}
	}
	expected := SignOAuthQuery(values, apiSecret)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(given)))
}

// SignOAuthQuery returns the hex HMAC-SHA256 Shopify would attach to values.
func SignOAuthQuery(values url.Values, apiSecret string) string {
	mac := hmac.New(sha256.New, []byte(apiSecret))
	_, _ = mac.Write([]byte(hmacMessage(values)))
	return hex.EncodeToString(mac.Sum(nil))
}

func hmacMessage(values url.Values) string {
	var keys []string
	for k := range values {
		if k == "hmac" || k == "signature" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		parts = append(parts, keyEscaper.Replace(k)+"="+valueEscaper.Replace(values.Get(k)))
	}
	return strings.Join(parts, "&")
}
