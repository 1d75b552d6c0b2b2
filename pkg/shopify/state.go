package shopify

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// StateTTL bounds how long a merchant may sit on the authorize page.
const StateTTL = 10 * time.Minute

type StateClaims struct {
	jwt.RegisteredClaims

	Shop string `json:"shop"`
}

// IssueState signs an OAuth state value (JWT, HS256) bound to the shop with the app API secret.
// The callback verifies it without any server-side storage.
func IssueState(shopDomain, apiKey, apiSecret string, now time.Time) (string, error) {
	if apiSecret == "" {
		return "", fmt.Errorf("missing api secret")
	}
	claims := StateClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Audience:  jwt.ClaimStrings{apiKey},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(StateTTL)),
		},
		Shop: shopDomain,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(apiSecret))
}

// VerifyState checks the state signature, expiry and audience, and that it was issued for shopDomain.
func VerifyState(state, shopDomain, apiKey, apiSecret string, now time.Time) error {
	if state == "" {
		return fmt.Errorf("missing state")
	}
	if apiSecret == "" {
		return fmt.Errorf("missing api secret")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
	}
	if apiKey != "" {
		opts = append(opts, jwt.WithAudience(apiKey))
	}

	claims := &StateClaims{}
	tok, err := jwt.NewParser(opts...).ParseWithClaims(state, claims, func(t *jwt.Token) (any, error) {
		return []byte(apiSecret), nil
	})
	if err != nil {
		return err
	}
	if !tok.Valid {
		return fmt.Errorf("invalid state")
	}
	if claims.Shop != shopDomain {
		return fmt.Errorf("state issued for a different shop")
	}
	return nil
}
