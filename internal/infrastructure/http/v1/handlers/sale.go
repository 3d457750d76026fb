package handlers

import (
	"github.com/gin-gonic/gin"

	"invoicer/internal/domain/documents/sale"
	"invoicer/internal/infrastructure/http/v1/dto"
)

// SaleHandler handles sales and their invoices.
type SaleHandler struct {
	*BaseHandler
	service *sale.Service
}

// NewSaleHandler creates a new sale handler.
func NewSaleHandler(base *BaseHandler, service *sale.Service) *SaleHandler {
	return &SaleHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Create handles POST /sales
func (h *SaleHandler) Create(c *gin.Context) {
	var req dto.CreateSaleRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	s, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, s)
}

// List handles GET /sales
func (h *SaleHandler) List(c *gin.Context) {
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

// Get handles GET /sales/:id
func (h *SaleHandler) Get(c *gin.Context) {
	saleID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	s, err := h.service.Get(c.Request.Context(), saleID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, s)
}

// Remove handles DELETE /sales/:id
func (h *SaleHandler) Remove(c *gin.Context) {
	saleID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Remove(c.Request.Context(), saleID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// ListInvoices handles GET /invoices
func (h *SaleHandler) ListInvoices(c *gin.Context) {
	var q dto.ListQuery
	if !h.BindQuery(c, &q) {
		return
	}

	result, err := h.service.ListInvoices(c.Request.Context(), q.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// GetInvoice handles GET /invoices/:id
func (h *SaleHandler) GetInvoice(c *gin.Context) {
	invoiceID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	inv, err := h.service.GetInvoice(c.Request.Context(), invoiceID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, inv)
}

// RegisterRoutes registers sale routes. The export route lives on ReportsHandler.
func (h *SaleHandler) RegisterRoutes(sales, invoices *gin.RouterGroup) {
	sales.POST("", h.Create)
	sales.GET("", h.List)
	sales.GET("/:id", h.Get)
	sales.DELETE("/:id", h.Remove)

	invoices.GET("", h.ListInvoices)
	invoices.GET("/:id", h.GetInvoice)
}
