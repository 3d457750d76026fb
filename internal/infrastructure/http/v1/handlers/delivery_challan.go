package handlers

import (
	"github.com/gin-gonic/gin"

	dc "invoicer/internal/domain/documents/delivery_challan"
	"invoicer/internal/infrastructure/http/v1/dto"
)

// DeliveryChallanHandler handles delivery challans.
type DeliveryChallanHandler struct {
	*BaseHandler
	service *dc.Service
}

// NewDeliveryChallanHandler creates a new delivery challan handler.
func NewDeliveryChallanHandler(base *BaseHandler, service *dc.Service) *DeliveryChallanHandler {
	return &DeliveryChallanHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Create handles POST /delivery-challans
func (h *DeliveryChallanHandler) Create(c *gin.Context) {
	var req dto.CreateDeliveryChallanRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	challan, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, challan)
}

// CreateFromQuotation handles POST /delivery-challans/from-quotation/:quotationId
func (h *DeliveryChallanHandler) CreateFromQuotation(c *gin.Context) {
	quotationID, ok := h.ParseID(c, "quotationId")
	if !ok {
		return
	}
	var req dto.DeliveryChallanFromQuotationRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput(quotationID)
	if err != nil {
		h.Error(c, err)
		return
	}

	challan, err := h.service.CreateFromQuotation(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, challan)
}

// List handles GET /delivery-challans
func (h *DeliveryChallanHandler) List(c *gin.Context) {
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

// Get handles GET /delivery-challans/:id
func (h *DeliveryChallanHandler) Get(c *gin.Context) {
	challanID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	challan, err := h.service.Get(c.Request.Context(), challanID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, challan)
}

// RegisterRoutes registers delivery challan routes.
func (h *DeliveryChallanHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.POST("/from-quotation/:quotationId", h.CreateFromQuotation)
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
}
