package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"invoicer/internal/core/apperror"
	"invoicer/internal/domain/catalogs/item"
	"invoicer/internal/infrastructure/http/v1/dto"
	"invoicer/internal/infrastructure/media"
)

// ItemHandler handles the item catalog endpoints.
type ItemHandler struct {
	*BaseHandler
	service *item.Service
}

// NewItemHandler creates a new item handler.
func NewItemHandler(base *BaseHandler, service *item.Service) *ItemHandler {
	return &ItemHandler{
		BaseHandler: base,
		service:     service,
	}
}

// List handles GET /items
func (h *ItemHandler) List(c *gin.Context) {
	var q dto.ListQuery
	if !h.BindQuery(c, &q) {
		return
	}

	result, err := h.service.List(c.Request.Context(), q.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Get handles GET /items/:id
func (h *ItemHandler) Get(c *gin.Context) {
	itemID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	it, err := h.service.GetByID(c.Request.Context(), itemID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, it)
}

// Create handles POST /items (JSON, or multipart with an optional image part).
func (h *ItemHandler) Create(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, media.MaxUploadBytes+1<<20)

	var req dto.CreateItemRequest
	if !h.Bind(c, &req) {
		return
	}
	it, err := req.ToItem()
	if err != nil {
		h.Error(c, err)
		return
	}

	var img *item.Image
	if c.ContentType() == gin.MIMEMultipartPOSTForm {
		fh, err := c.FormFile("image")
		switch {
		case errors.Is(err, http.ErrMissingFile):
		case err != nil:
			h.Error(c, apperror.NewValidation("invalid multipart body").WithDetail("field", "image"))
			return
		default:
			file, err := fh.Open()
			if err != nil {
				h.Error(c, apperror.NewValidation("cannot read upload").WithDetail("field", "image"))
				return
			}
			defer closeFile(file)
			img = &item.Image{Filename: fh.Filename, Body: file}
		}
	}

	if err := h.service.Create(c.Request.Context(), it, img); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, it)
}

// Update handles PUT /items/:id
func (h *ItemHandler) Update(c *gin.Context) {
	itemID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateItemRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	it, err := h.service.Update(c.Request.Context(), itemID, in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, it)
}

// UpdateQuantity handles PATCH /items/:id/quantity
func (h *ItemHandler) UpdateQuantity(c *gin.Context) {
	itemID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateQuantityRequest
	if !h.BindJSON(c, &req) {
		return
	}

	it, err := h.service.UpdateQuantity(c.Request.Context(), itemID, *req.Quantity)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, it)
}

// Delete handles DELETE /items/:id
func (h *ItemHandler) Delete(c *gin.Context) {
	itemID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), itemID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// RegisterRoutes registers item routes.
func (h *ItemHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Update)
	rg.PATCH("/:id/quantity", h.UpdateQuantity)
	rg.DELETE("/:id", h.Delete)
}
