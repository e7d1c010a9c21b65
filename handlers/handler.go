package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aircnc/aircnc-server/internal/bookings"
	"github.com/aircnc/aircnc-server/internal/payments"
	"github.com/aircnc/aircnc-server/internal/rooms"
	"github.com/aircnc/aircnc-server/internal/storage"
	"github.com/aircnc/aircnc-server/internal/store"
	"github.com/aircnc/aircnc-server/internal/tokens"
	"github.com/aircnc/aircnc-server/internal/users"
	"github.com/aircnc/aircnc-server/pkg/apperrors"
	"github.com/aircnc/aircnc-server/pkg/logger"
	"github.com/aircnc/aircnc-server/pkg/middleware"
)

// EmailProver checks an identity-provider ID token against an email.
type EmailProver interface {
	VerifyEmail(ctx context.Context, rawIDToken, email string) error
}

// Revoker denies access tokens until they expire.
type Revoker interface {
	Enabled() bool
	Revoke(ctx context.Context, token string, ttl time.Duration) error
}

// Deps are the services the handlers call. IDTokens, Revoker and Images are
// optional.
type Deps struct {
	Users    *users.Service
	Rooms    *rooms.Service
	Bookings *bookings.Service
	Payments *payments.Service
	Issuer   *tokens.Issuer
	IDTokens EmailProver
	Revoker  Revoker
	Images   *storage.ImageService
}

// Handler serves the booking API.
type Handler struct {
	Deps
}

func New(d Deps) *Handler {
	return &Handler{Deps: d}
}

// respondError writes the JSON error body for err. 5xx errors are logged with
// the request id.
func respondError(c *gin.Context, err error) {
	ae := apperrors.From(err)
	if ae.Status >= http.StatusInternalServerError {
		logger.Log(logger.LevelError, "request failed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", ae.Status,
			"err", err,
			"request_id", c.GetString(middleware.RequestIDKey),
		)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(ae.Status, ae.Body())
}

// bindObject decodes a JSON object body.
func bindObject(c *gin.Context) (store.Document, error) {
	var doc store.Document
	if err := c.ShouldBindJSON(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, apperrors.Validation("request body is required")
		}
		return nil, apperrors.ValidationWrap(err, "invalid JSON body")
	}
	if doc == nil {
		return nil, apperrors.Validation("request body must be a JSON object")
	}
	return doc, nil
}

// parsePage reads ?limit= and ?offset=. Bounds are applied by store.Page.
func parsePage(c *gin.Context) (store.Page, error) {
	var p store.Page
	if v := c.Query("limit"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			return p, apperrors.Validation("limit must be a non-negative integer")
		}
		p.Limit = n
	}
	if v := c.Query("offset"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			return p, apperrors.Validation("offset must be a non-negative integer")
		}
		p.Offset = n
	}
	return p.Normalize(), nil
}

// NoRoute answers unknown paths with the standard error body.
func NoRoute(c *gin.Context) {
	c.JSON(http.StatusNotFound, apperrors.NotFound("route").Body())
}

// Banner is the plain-text liveness line served at /.
func Banner(c *gin.Context) {
	c.String(http.StatusOK, "Air CNC Home Guest Running....")
}
