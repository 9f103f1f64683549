package submission

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims identify the kiosk to the enrollment service.
type Claims struct {
	KioskID string `json:"kiosk_id"`
	jwt.RegisteredClaims
}

// TokenSigner issues short-lived HS256 bearer tokens, one per request.
type TokenSigner struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
}

func NewTokenSigner(signingKey, issuer string, ttl time.Duration) *TokenSigner {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &TokenSigner{signingKey: []byte(signingKey), issuer: issuer, ttl: ttl}
}

// Sign returns a token bound to the request id (jti) and kiosk.
func (s *TokenSigner) Sign(kioskID, requestID string, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		KioskID: kioskID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   kioskID,
			ID:        requestID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	})
	return token.SignedString(s.signingKey)
}

// Verify parses a token signed by s. The enrollment service does the same
// check; it lives here for tests and the local stub service.
func (s *TokenSigner) Verify(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	}, jwt.WithIssuer(s.issuer))
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
