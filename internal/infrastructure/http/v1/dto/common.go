// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"invoicer/internal/core/id"
	"invoicer/internal/domain"
)

// --- Pagination ---

// ListQuery contains the list parameters shared by every collection endpoint.
type ListQuery struct {
	Limit   int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Offset  int    `form:"offset" binding:"omitempty,min=0"`
	Search  string `form:"search" binding:"omitempty,max=100"`
	OrderBy string `form:"orderBy"`
}

// ToFilter converts the query to a domain filter. The owner is set by the service.
func (q ListQuery) ToFilter() domain.ListFilter {
	f := domain.DefaultListFilter()
	if q.Limit > 0 {
		f.Limit = q.Limit
	}
	f.Offset = q.Offset
	f.Search = q.Search
	if q.OrderBy != "" {
		f.OrderBy = q.OrderBy
	}
	f.Normalize()
	return f
}

// --- ID Response ---

// IDResponse for create operations.
type IDResponse struct {
	ID string `json:"id"`
}

// NewIDResponse creates ID response.
func NewIDResponse(i id.ID) IDResponse {
	return IDResponse{ID: i.String()}
}

// --- Success Response ---

// SuccessResponse for operations without data.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// --- Error Response ---

// ErrorResponse for error details.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}
