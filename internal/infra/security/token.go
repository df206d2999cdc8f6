package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	domainuser "campuschat/internal/domain/user"
)

var (
	ErrInvalidToken = errors.New("security: invalid token")
	ErrNoSecret     = errors.New("security: signing secret is required")
)

// Claims carries the identity asserted by the campus identity provider.
type Claims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenVerifier validates HS256 bearer tokens and maps them to identities.
type TokenVerifier struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewTokenVerifier(secret, issuer string) (*TokenVerifier, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrNoSecret
	}
	return &TokenVerifier{secret: []byte(secret), issuer: strings.TrimSpace(issuer), now: time.Now}, nil
}

func (v *TokenVerifier) Verify(raw string) (domainuser.Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.now),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return domainuser.Identity{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid {
		return domainuser.Identity{}, ErrInvalidToken
	}
	identity := domainuser.Identity{
		ID:    domainuser.ID(strings.TrimSpace(claims.Subject)),
		Name:  strings.TrimSpace(claims.Name),
		Email: strings.TrimSpace(claims.Email),
	}
	if err := identity.Validate(); err != nil {
		return domainuser.Identity{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return identity, nil
}

// Issue signs a token for identity. It backs local tooling and tests; production
// tokens come from the identity provider.
func (v *TokenVerifier) Issue(identity domainuser.Identity, ttl time.Duration) (string, error) {
	now := v.now()
	claims := Claims{
		Name:  identity.Name,
		Email: identity.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(identity.ID),
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("security: sign token: %w", err)
	}
	return signed, nil
}
