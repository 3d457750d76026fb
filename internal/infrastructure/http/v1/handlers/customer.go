package handlers

import (
	"github.com/gin-gonic/gin"

	"invoicer/internal/domain/catalogs/customer"
	"invoicer/internal/infrastructure/http/v1/dto"
)

// CustomerHandler serves the read side of the customer registry.
// Customers are written only by document creation.
type CustomerHandler struct {
	*BaseHandler
	service *customer.Service
}

// NewCustomerHandler creates a new customer handler.
func NewCustomerHandler(base *BaseHandler, service *customer.Service) *CustomerHandler {
	return &CustomerHandler{
		BaseHandler: base,
		service:     service,
	}
}

// List handles GET /customers
func (h *CustomerHandler) List(c *gin.Context) {
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

// Get handles GET /customers/:id
func (h *CustomerHandler) Get(c *gin.Context) {
	customerID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	cust, err := h.service.GetWithDocuments(c.Request.Context(), customerID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, cust)
}

// RegisterRoutes registers customer routes.
func (h *CustomerHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
}
