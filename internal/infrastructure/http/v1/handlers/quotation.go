package handlers

import (
	"github.com/gin-gonic/gin"

	"invoicer/internal/domain/documents/quotation"
	"invoicer/internal/infrastructure/http/v1/dto"
)

// QuotationHandler handles quotations.
type QuotationHandler struct {
	*BaseHandler
	service *quotation.Service
}

// NewQuotationHandler creates a new quotation handler.
func NewQuotationHandler(base *BaseHandler, service *quotation.Service) *QuotationHandler {
	return &QuotationHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Create handles POST /quotations
func (h *QuotationHandler) Create(c *gin.Context) {
	var req dto.CreateQuotationRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	q, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, q)
}

// List handles GET /quotations
func (h *QuotationHandler) List(c *gin.Context) {
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

// Get handles GET /quotations/:id
func (h *QuotationHandler) Get(c *gin.Context) {
	quotationID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	q, err := h.service.Get(c.Request.Context(), quotationID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, q)
}

// RegisterRoutes registers quotation routes.
func (h *QuotationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
}
