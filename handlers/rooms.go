package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aircnc/aircnc-server/internal/storage"
	"github.com/aircnc/aircnc-server/pkg/apperrors"
	"github.com/aircnc/aircnc-server/pkg/middleware"
	"github.com/aircnc/aircnc-server/pkg/validation"
)

// multipart overhead on top of the image itself
const maxUploadBytes = storage.MaxImageBytes + 1<<20

func (h *Handler) ListRooms(c *gin.Context) {
	page, err := parsePage(c)
	if err != nil {
		respondError(c, err)
		return
	}
	docs, err := h.Rooms.List(c.Request.Context(), page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, docs)
}

// ListHostRooms lists the rooms whose host.email is the path email.
func (h *Handler) ListHostRooms(c *gin.Context) {
	page, err := parsePage(c)
	if err != nil {
		respondError(c, err)
		return
	}
	docs, err := h.Rooms.ListByHost(c.Request.Context(), c.Param("email"), page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, docs)
}

// GetRoom returns one room, or null.
func (h *Handler) GetRoom(c *gin.Context) {
	doc, err := h.Rooms.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (h *Handler) CreateRoom(c *gin.Context) {
	doc, err := bindObject(c)
	if err != nil {
		respondError(c, err)
		return
	}
	res, err := h.Rooms.Create(c.Request.Context(), middleware.ClaimsEmail(c), doc)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// SetRoomStatus accepts {"status": bool} and changes only the booked flag.
func (h *Handler) SetRoomStatus(c *gin.Context) {
	var req struct {
		Status *bool `json:"status" validate:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.ValidationWrap(err, "invalid JSON body"))
		return
	}
	if err := validation.Struct(req); err != nil {
		respondError(c, apperrors.ValidationWrap(err, "status is required"))
		return
	}
	res, err := h.Rooms.SetStatus(c.Request.Context(), middleware.ClaimsEmail(c), c.Param("id"), *req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) DeleteRoom(c *gin.Context) {
	res, err := h.Rooms.Delete(c.Request.Context(), middleware.ClaimsEmail(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// UploadRoomImage stores the multipart "image" file for the caller.
func (h *Handler) UploadRoomImage(c *gin.Context) {
	if h.Images == nil {
		respondError(c, apperrors.Unavailable("image storage"))
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)
	fh, err := c.FormFile("image")
	if err != nil {
		respondError(c, apperrors.ValidationWrap(err, "multipart field image is required"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		respondError(c, apperrors.ValidationWrap(err, "cannot read image"))
		return
	}
	defer f.Close()

	img, err := h.Images.Upload(c.Request.Context(), middleware.ClaimsEmail(c), fh.Header.Get("Content-Type"), f, fh.Size)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, img)
}
