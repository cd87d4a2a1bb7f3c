package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/irisdrone/library/auth"
	"github.com/irisdrone/library/models"
	"github.com/irisdrone/library/services"
)

const identityKey = "identity"

// Require authenticates the bearer token and, when roles are given, checks
// the caller holds one of them. With no roles any valid token passes.
func (h *Handler) Require(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			h.abortWithError(c, errNotAuthenticated)
			return
		}

		id, err := h.issuer.Verify(token)
		if err != nil {
			h.log.Debug().Err(err).Str("path", c.Request.URL.Path).Msg("token rejected")
			h.abortWithError(c, errBadCredentials)
			return
		}

		if err := auth.Allow(id, roles...); err != nil {
			h.abortWithError(c, errNoPermission)
			return
		}

		c.Set(identityKey, id)
		c.Request = c.Request.WithContext(services.WithActor(c.Request.Context(), id.Username))
		c.Next()
	}
}

// IdentityFrom returns the caller stored by Require.
func IdentityFrom(c *gin.Context) (auth.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return auth.Identity{}, false
	}
	id, ok := v.(auth.Identity)
	return id, ok
}

// bearerToken reads "Authorization: Bearer <token>". Browsers cannot set
// headers on a WebSocket handshake, so upgrades may pass ?access_token= instead.
func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		if c.IsWebsocket() {
			if token := c.Query("access_token"); token != "" {
				return token, true
			}
		}
		return "", false
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
