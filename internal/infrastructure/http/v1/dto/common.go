// Package dto contains request/response types for the HTTP API.
package dto

import (
	"time"

	"obraplan/internal/core/entity"
	"obraplan/internal/core/id"
)

// PaginationRequest is the common paging query.
type PaginationRequest struct {
	Limit  int    `form:"limit,default=50" binding:"omitempty,min=1,max=1000"`
	Offset int    `form:"offset,default=0" binding:"omitempty,min=0"`
	Page   int    `form:"page" binding:"omitempty,min=1"`
	Sort   string `form:"sort"`
}

// Normalize fills defaults and resolves page into offset.
func (p *PaginationRequest) Normalize() {
	if p.Limit <= 0 {
		p.Limit = 50
	}
	if p.Page > 0 {
		p.Offset = (p.Page - 1) * p.Limit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}

// ListResponse is a paginated list envelope.
type ListResponse struct {
	Items      any   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int `json:"limit"`
	Offset     int `json:"offset"`
}

// IDResponse returns the identifier of a created entity.
type IDResponse struct {
	ID id.ID `json:"id"`
}

func NewIDResponse(entityID id.ID) IDResponse {
	return IDResponse{ID: entityID}
}

// SuccessResponse is a minimal acknowledgment body.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse mirrors the error handler output, used for docs and tests.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// SetDeletionMarkRequest toggles the deletion mark on a catalog entity.
type SetDeletionMarkRequest struct {
	Marked bool `json:"marked"`
}

// BaseResponse carries the fields shared by every persisted entity.
type BaseResponse struct {
	ID           id.ID `json:"id"`
	DeletionMark bool  `json:"deletionMark"`
	Version      int   `json:"version"`
}

func newBaseResponse(e entity.BaseEntity) BaseResponse {
	return BaseResponse{
		ID:           e.ID,
		DeletionMark: e.DeletionMark,
		Version:      e.Version,
	}
}

// DocumentResponse carries the fields shared by every document.
type DocumentResponse struct {
	BaseResponse
	Number       string    `json:"number"`
	Date         time.Time `json:"date"`
	Observations string    `json:"observations,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	CreatedBy    string    `json:"createdBy,omitempty"`
	UpdatedBy    string    `json:"updatedBy,omitempty"`
}

func newDocumentResponse(d entity.Document) DocumentResponse {
	return DocumentResponse{
		BaseResponse: newBaseResponse(d.BaseEntity),
		Number:       d.Number,
		Date:         d.Date,
		Observations: d.Observations,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
		CreatedBy:    d.CreatedBy,
		UpdatedBy:    d.UpdatedBy,
	}
}
