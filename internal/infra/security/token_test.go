package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainuser "campuschat/internal/domain/user"
)

func TestTokenVerifier_RoundTrip(t *testing.T) {
	v, err := NewTokenVerifier("s3cret", "campus-idp")
	require.NoError(t, err)

	token, err := v.Issue(domainuser.Identity{ID: "u-1", Name: "Gus", Email: "gus@campus.edu"}, time.Hour)
	require.NoError(t, err)

	id, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, domainuser.ID("u-1"), id.ID)
	assert.Equal(t, "Gus", id.Name)
	assert.Equal(t, "gus@campus.edu", id.Email)
}

func TestTokenVerifier_Rejects(t *testing.T) {
	v, err := NewTokenVerifier("s3cret", "campus-idp")
	require.NoError(t, err)
	other, err := NewTokenVerifier("different", "campus-idp")
	require.NoError(t, err)
	wrongIssuer, err := NewTokenVerifier("s3cret", "elsewhere")
	require.NoError(t, err)

	alice := domainuser.Identity{ID: "u-1", Name: "Alice"}
	forged, err := other.Issue(alice, time.Hour)
	require.NoError(t, err)
	expired, err := v.Issue(alice, -time.Minute)
	require.NoError(t, err)
	foreign, err := wrongIssuer.Issue(alice, time.Hour)
	require.NoError(t, err)
	anonymous, err := v.Issue(domainuser.Identity{Name: "nobody"}, time.Hour)
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "u-1"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"forged":   forged,
		"expired":  expired,
		"issuer":   foreign,
		"no sub":   anonymous,
		"alg none": none,
		"garbage":  "not-a-token",
	} {
		_, err := v.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken, name)
	}
}

func TestNewTokenVerifier_RequiresSecret(t *testing.T) {
	_, err := NewTokenVerifier(" ", "")
	assert.ErrorIs(t, err, ErrNoSecret)
}
