package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"invoicer/internal/core/apperror"
	"invoicer/internal/domain/reports"
	"invoicer/internal/infrastructure/http/v1/dto"
	xlsx "invoicer/internal/infrastructure/reports"
)

// ReportsHandler handles HTTP requests for reports.
type ReportsHandler struct {
	*BaseHandler
	service *reports.Service
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(base *BaseHandler, service *reports.Service) *ReportsHandler {
	return &ReportsHandler{
		BaseHandler: base,
		service:     service,
	}
}

// ExportSales handles GET /sales/export
func (h *ReportsHandler) ExportSales(c *gin.Context) {
	var q dto.ExportQuery
	if !h.BindQuery(c, &q) {
		return
	}
	filter, err := q.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	register, err := h.service.SalesRegister(c.Request.Context(), reports.SalesRegisterFilter{
		From: filter.From,
		To:   filter.To,
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	var buf bytes.Buffer
	if err := xlsx.WriteSalesRegister(&buf, register); err != nil {
		h.Error(c, apperror.NewInternal(err))
		return
	}

	filename := fmt.Sprintf("sales-%s.xlsx", register.GeneratedAt.Format(time.DateOnly))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsx.ContentTypeXLSX, buf.Bytes())
}

// RegisterRoutes registers report routes on the sales group.
func (h *ReportsHandler) RegisterRoutes(sales *gin.RouterGroup) {
	sales.GET("/export", h.ExportSales)
}
