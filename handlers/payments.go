package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CreatePaymentIntent accepts {"price": number|string} and returns the
// processor's client secret.
func (h *Handler) CreatePaymentIntent(c *gin.Context) {
	body, err := bindObject(c)
	if err != nil {
		respondError(c, err)
		return
	}
	intent, err := h.Payments.CreateIntent(c.Request.Context(), body["price"])
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, intent)
}
