package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aircnc/aircnc-server/internal/tokens"
	"github.com/aircnc/aircnc-server/pkg/apperrors"
	"github.com/aircnc/aircnc-server/pkg/logger"
	"github.com/aircnc/aircnc-server/pkg/metrics"
	"github.com/aircnc/aircnc-server/pkg/middleware"
)

// idTokenField carries the identity-provider ID token in POST /jwt bodies.
const idTokenField = "idToken"

// IssueToken signs the posted claims into an access token.
// When an identity provider is configured the body must also carry an ID
// token for the same email.
func (h *Handler) IssueToken(c *gin.Context) {
	claims, err := bindObject(c)
	if err != nil {
		respondError(c, err)
		return
	}
	rawID, _ := claims[idTokenField].(string)
	delete(claims, idTokenField)

	if h.IDTokens != nil {
		email, _ := claims["email"].(string)
		if rawID == "" {
			respondError(c, apperrors.Unauthorized())
			return
		}
		if err := h.IDTokens.VerifyEmail(c.Request.Context(), rawID, email); err != nil {
			logger.Debugf("jwt: id token rejected: %v", err)
			metrics.AuthRejected.WithLabelValues("id_token").Inc()
			respondError(c, apperrors.Unauthorized())
			return
		}
	}

	token, err := h.Issuer.Issue(claims)
	if errors.Is(err, tokens.ErrInvalidEmail) {
		respondError(c, apperrors.ValidationWrap(err, "a valid email claim is required"))
		return
	}
	if err != nil {
		respondError(c, apperrors.Internal("could not sign token", err))
		return
	}
	metrics.TokensIssued.Inc()
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// Logout revokes the presented access token until it expires.
func (h *Handler) Logout(c *gin.Context) {
	if h.Revoker == nil || !h.Revoker.Enabled() {
		c.JSON(http.StatusOK, gin.H{"revoked": false})
		return
	}
	ttl := h.Issuer.TTL()
	if exp, ok := tokens.ExpiresAt(middleware.Claims(c)); ok {
		ttl = time.Until(exp)
	}
	if err := h.Revoker.Revoke(c.Request.Context(), middleware.RawToken(c), ttl); err != nil {
		respondError(c, apperrors.Upstream("token revocation", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"revoked": true})
}
