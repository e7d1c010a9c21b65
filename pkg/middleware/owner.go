package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/aircnc/aircnc-server/pkg/apperrors"
	"github.com/aircnc/aircnc-server/pkg/metrics"
)

// EmailSource extracts the email a route is keyed by.
type EmailSource func(c *gin.Context) string

func PathEmail(param string) EmailSource {
	return func(c *gin.Context) string { return strings.TrimSpace(c.Param(param)) }
}

func QueryEmail(key string) EmailSource {
	return func(c *gin.Context) string { return strings.TrimSpace(c.Query(key)) }
}

// RequireOwner rejects with 403 unless the route's email equals the verified
// token's email claim exactly. It must run after AuthMiddleware.
func RequireOwner(src EmailSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		claimed := ClaimsEmail(c)
		if claimed == "" {
			metrics.AuthRejected.WithLabelValues("no_email_claim").Inc()
			c.AbortWithStatusJSON(http.StatusUnauthorized, apperrors.Unauthorized().Body())
			return
		}
		if claimed != src(c) {
			metrics.AuthRejected.WithLabelValues("owner_mismatch").Inc()
			c.AbortWithStatusJSON(http.StatusForbidden, apperrors.Forbidden().Body())
			return
		}
		c.Next()
	}
}

// When runs h only if cond holds; otherwise the chain continues untouched.
func When(cond func(c *gin.Context) bool, h gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cond(c) {
			return
		}
		h(c)
	}
}

// Present reports whether src yields a non-empty email.
func Present(src EmailSource) func(c *gin.Context) bool {
	return func(c *gin.Context) bool { return src(c) != "" }
}
