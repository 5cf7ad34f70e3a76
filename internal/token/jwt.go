// Package token signs and verifies session tokens as HS256 JWTs.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/example/nutriagenda/internal/application"
)

// MinSecretLength is the shortest accepted signing secret in bytes.
const MinSecretLength = 16

// ErrWeakSecret is returned when the signing secret is too short.
var ErrWeakSecret = errors.New("session secret must be at least 16 bytes")

// Claims is the JWT payload of a session token.
type Claims struct {
	SessionID string `json:"sid"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

// Issuer implements application.TokenIssuer.
type Issuer struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewIssuer builds an issuer signing with secret. now may be nil.
func NewIssuer(secret, issuer string, now func() time.Time) (*Issuer, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrWeakSecret
	}
	if now == nil {
		now = time.Now
	}
	return &Issuer{secret: []byte(secret), issuer: issuer, now: now}, nil
}

// Issue signs claims into a compact token.
func (i *Issuer) Issue(claims application.SessionClaims) (string, error) {
	if claims.SessionID == "" || claims.UserID == "" {
		return "", fmt.Errorf("token claims require session and user ids")
	}
	issuedAt := claims.IssuedAt
	if issuedAt.IsZero() {
		issuedAt = i.now()
	}

	payload := Claims{
		SessionID: claims.SessionID,
		Role:      string(claims.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.UserID,
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, payload).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies the signature and expiry of token.
func (i *Issuer) Parse(token string) (application.SessionClaims, error) {
	claims, err := i.parse(token, jwt.WithTimeFunc(i.now), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return application.SessionClaims{}, application.ErrSessionExpired
		}
		return application.SessionClaims{}, application.ErrUnauthorized
	}
	return claims, nil
}

// Inspect verifies only the signature, so logout works with expired tokens.
func (i *Issuer) Inspect(token string) (application.SessionClaims, error) {
	claims, err := i.parse(token, jwt.WithoutClaimsValidation())
	if err != nil {
		return application.SessionClaims{}, application.ErrUnauthorized
	}
	return claims, nil
}

func (i *Issuer) parse(token string, opts ...jwt.ParserOption) (application.SessionClaims, error) {
	if token == "" {
		return application.SessionClaims{}, jwt.ErrTokenMalformed
	}

	opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	var payload Claims
	parsed, err := jwt.ParseWithClaims(token, &payload, func(*jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, opts...)
	if err != nil {
		return application.SessionClaims{}, err
	}
	if !parsed.Valid || payload.SessionID == "" || payload.Subject == "" {
		return application.SessionClaims{}, jwt.ErrTokenMalformed
	}
	// Checked here so Inspect, which skips claims validation, still enforces it.
	if i.issuer != "" && payload.Issuer != i.issuer {
		return application.SessionClaims{}, jwt.ErrTokenInvalidIssuer
	}

	claims := application.SessionClaims{
		SessionID: payload.SessionID,
		UserID:    payload.Subject,
		Role:      application.Role(payload.Role),
	}
	if payload.IssuedAt != nil {
		claims.IssuedAt = payload.IssuedAt.Time
	}
	if payload.ExpiresAt != nil {
		claims.ExpiresAt = payload.ExpiresAt.Time
	}
	return claims, nil
}
