package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/aircnc/aircnc-server/pkg/apperrors"
	"github.com/aircnc/aircnc-server/pkg/logger"
	"github.com/aircnc/aircnc-server/pkg/metrics"
)

// Context keys set by AuthMiddleware.
const (
	ClaimsKey = "claims"
	TokenKey  = "token"
)

// Token is minimal interface for a verified token that can expose claims
type Token interface {
	Claims(v interface{}) error
}

// Verifier is the minimal interface the middleware depends on
type Verifier interface {
	Verify(ctx context.Context, raw string) (Token, error)
}

// Denylist reports access tokens revoked before their expiry.
type Denylist interface {
	IsRevoked(ctx context.Context, raw string) (bool, error)
}

// AuthMiddleware returns a Gin middleware that verifies Bearer tokens using the provided verifier.
// deny may be nil when revocation is disabled.
func AuthMiddleware(ver Verifier, deny Denylist) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" {
			reject(c, "missing_header")
			return
		}
		scheme, raw, ok := strings.Cut(strings.TrimSpace(auth), " ")
		raw = strings.TrimSpace(raw)
		if !ok || !strings.EqualFold(scheme, "Bearer") || raw == "" {
			reject(c, "malformed_header")
			return
		}

		tok, err := ver.Verify(c.Request.Context(), raw)
		if err != nil {
			logger.Debugf("auth: token rejected: %v", err)
			reject(c, "invalid_token")
			return
		}

		if deny != nil {
			revoked, err := deny.IsRevoked(c.Request.Context(), raw)
			if err != nil {
				logger.Errorf("auth: revocation check failed: %v", err)
				ae := apperrors.Unavailable("token revocation check")
				c.AbortWithStatusJSON(ae.Status, ae.Body())
				return
			}
			if revoked {
				reject(c, "revoked")
				return
			}
		}

		var claims map[string]interface{}
		if err := tok.Claims(&claims); err != nil {
			reject(c, "claims")
			return
		}

		c.Set(ClaimsKey, claims)
		c.Set(TokenKey, raw)
		c.Next()
	}
}

func reject(c *gin.Context, reason string) {
	metrics.AuthRejected.WithLabelValues(reason).Inc()
	c.AbortWithStatusJSON(http.StatusUnauthorized, apperrors.Unauthorized().Body())
}

// Claims returns the verified claims, or nil on ungated routes.
func Claims(c *gin.Context) map[string]interface{} {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil
	}
	m, _ := v.(map[string]interface{})
	return m
}

// ClaimsEmail returns the email claim of the verified token.
func ClaimsEmail(c *gin.Context) string {
	email, _ := Claims(c)["email"].(string)
	return email
}

// RawToken returns the bearer token that passed the gate.
func RawToken(c *gin.Context) string {
	return c.GetString(TokenKey)
}
