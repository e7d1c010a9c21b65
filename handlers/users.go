package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// PutUser replaces or inserts the user keyed by the path email.
func (h *Handler) PutUser(c *gin.Context) {
	doc, err := bindObject(c)
	if err != nil {
		respondError(c, err)
		return
	}
	res, err := h.Users.Upsert(c.Request.Context(), c.Param("email"), doc)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GetUser returns the user document, or null.
func (h *Handler) GetUser(c *gin.Context) {
	doc, err := h.Users.Get(c.Request.Context(), c.Param("email"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}
