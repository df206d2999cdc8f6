package ginserver

import (
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	domainuser "campuschat/internal/domain/user"
)

const identityContextKey = "campuschat.identity"

// accessTokenParam carries the bearer token on WebSocket upgrades, where
// browsers cannot set an Authorization header.
const accessTokenParam = "access_token"

type IdentityVerifier interface {
	Verify(raw string) (domainuser.Identity, error)
}

// AuthMiddleware attaches the verified caller to the request. Requests
// without a valid token continue anonymously and are rejected by handlers.
type AuthMiddleware struct {
	Verifier IdentityVerifier
	Logger   *slog.Logger
}

func (m AuthMiddleware) Handle(c *gin.Context) {
	token := extractBearerToken(c.GetHeader("Authorization"))
	if token == "" && websocketUpgrade(c.Request) {
		token = strings.TrimSpace(c.Query(accessTokenParam))
	}
	if token == "" || m.Verifier == nil {
		c.Next()
		return
	}
	identity, err := m.Verifier.Verify(token)
	if err != nil {
		if m.Logger != nil {
			m.Logger.Debug("token validation failed", "error", err)
		}
		c.Next()
		return
	}
	c.Set(identityContextKey, identity)
	c.Next()
}

func currentIdentity(c *gin.Context) (domainuser.Identity, bool) {
	val, exists := c.Get(identityContextKey)
	if !exists {
		return domainuser.Identity{}, false
	}
	identity, ok := val.(domainuser.Identity)
	return identity, ok && identity.Validate() == nil
}

func requireIdentity(c *gin.Context) (domainuser.Identity, bool) {
	identity, ok := currentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "auth required"})
		return domainuser.Identity{}, false
	}
	return identity, true
}

func extractBearerToken(header string) string {
	if header == "" {
		return ""
	}
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

func websocketUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}
