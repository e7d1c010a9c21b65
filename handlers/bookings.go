package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aircnc/aircnc-server/pkg/middleware"
)

// ListGuestBookings lists the bookings of ?email=, or [] without one.
func (h *Handler) ListGuestBookings(c *gin.Context) {
	page, err := parsePage(c)
	if err != nil {
		respondError(c, err)
		return
	}
	docs, err := h.Bookings.ListByGuest(c.Request.Context(), c.Query("email"), page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, docs)
}

// ListHostBookings lists the bookings whose host is ?email=, or [] without one.
func (h *Handler) ListHostBookings(c *gin.Context) {
	page, err := parsePage(c)
	if err != nil {
		respondError(c, err)
		return
	}
	docs, err := h.Bookings.ListByHost(c.Request.Context(), c.Query("email"), page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, docs)
}

func (h *Handler) CreateBooking(c *gin.Context) {
	doc, err := bindObject(c)
	if err != nil {
		respondError(c, err)
		return
	}
	res, err := h.Bookings.Create(c.Request.Context(), middleware.ClaimsEmail(c), doc)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) DeleteBooking(c *gin.Context) {
	res, err := h.Bookings.Delete(c.Request.Context(), middleware.ClaimsEmail(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
