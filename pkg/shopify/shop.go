package shopify

import (
	"regexp"
	"strings"
)

var shopDomainRe = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*\.myshopify\.com$`)

// NormalizeShopDomain lower-cases and trims the shop parameter and reports whether it is a
// *.myshopify.com hostname. Anything else (ports, paths, userinfo, other hosts) is rejected.
func NormalizeShopDomain(raw string) (string, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if !shopDomainRe.MatchString(s) {
		return "", false
	}
	return s, true
}
