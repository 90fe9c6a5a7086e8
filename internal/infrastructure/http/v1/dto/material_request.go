package dto

import (
	"time"

	"obraplan/internal/core/id"
	"obraplan/internal/core/types"
	"obraplan/internal/domain/documents/material_request"
)

// RequestItemInput is one requested material line as submitted by the caller.
// The unit price is snapshot from the material record, never taken from input.
type RequestItemInput struct {
	MaterialID   id.ID          `json:"materialId" binding:"required"`
	Quantity     types.Quantity `json:"quantity" binding:"required"`
	Observations *string        `json:"observations"`
}

// CreateMaterialRequestRequest creates a new material request document.
type CreateMaterialRequestRequest struct {
	ProjectID    id.ID              `json:"projectId" binding:"required"`
	NeededBy     *time.Time         `json:"neededBy"`
	Observations string             `json:"observations"`
	Items        []RequestItemInput `json:"items" binding:"required,min=1"`
}

// ToInput converts the request to the service input. The requester is taken
// from the authenticated user, not from the payload.
func (r *CreateMaterialRequestRequest) ToInput(requesterID id.ID) material_request.CreateInput {
	return material_request.CreateInput{
		ProjectID:    r.ProjectID,
		RequesterID:  requesterID,
		NeededBy:     r.NeededBy,
		Observations: r.Observations,
		Items:        itemInputs(r.Items),
	}
}

// UpdateMaterialRequestRequest replaces the mutable fields of a pending request.
type UpdateMaterialRequestRequest struct {
	NeededBy     *time.Time         `json:"neededBy"`
	Observations string             `json:"observations"`
	Items        []RequestItemInput `json:"items" binding:"required,min=1"`
}

func (r *UpdateMaterialRequestRequest) ToInput() material_request.UpdateInput {
	return material_request.UpdateInput{
		NeededBy:     r.NeededBy,
		Observations: r.Observations,
		Items:        itemInputs(r.Items),
	}
}

func itemInputs(in []RequestItemInput) []material_request.ItemInput {
	items := make([]material_request.ItemInput, len(in))
	for i, it := range in {
		items[i] = material_request.ItemInput{
			MaterialID:   it.MaterialID,
			Quantity:     it.Quantity.String(),
			Observations: it.Observations,
		}
	}
	return items
}

// RejectMaterialRequestRequest rejects a pending request.
type RejectMaterialRequestRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// ListMaterialRequestsQuery is the filter query for listing requests.
type ListMaterialRequestsQuery struct {
	PaginationRequest
	ProjectID   *id.ID  `form:"projectId"`
	RequesterID *id.ID  `form:"requesterId"`
	Status      *string `form:"status"`
	FromDate    *string `form:"fromDate"`
	ToDate      *string `form:"toDate"`
	Search      string  `form:"search"`
}

// RequestItemResponse is the API representation of a request item.
type RequestItemResponse struct {
	LineID       id.ID          `json:"lineId"`
	LineNo       int            `json:"lineNo"`
	MaterialID   id.ID          `json:"materialId"`
	Quantity     types.Quantity `json:"quantity"`
	UnitPrice    types.Money    `json:"unitPrice"`
	TotalPrice   types.Money    `json:"totalPrice"`
	Observations *string        `json:"observations,omitempty"`
}

// MaterialRequestResponse is the API representation of a material request.
type MaterialRequestResponse struct {
	DocumentResponse
	ProjectID       id.ID                 `json:"projectId"`
	RequesterID     id.ID                 `json:"requesterId"`
	NeededBy        *time.Time            `json:"neededBy,omitempty"`
	Status          string                `json:"status"`
	RejectionReason *string               `json:"rejectionReason,omitempty"`
	ApprovedBy      *id.ID                `json:"approvedBy,omitempty"`
	ApprovedAt      *time.Time            `json:"approvedAt,omitempty"`
	TotalAmount     types.Money           `json:"totalAmount"`
	Items           []RequestItemResponse `json:"items,omitempty"`
}

func FromMaterialRequest(r *material_request.MaterialRequest) MaterialRequestResponse {
	resp := MaterialRequestResponse{
		DocumentResponse: newDocumentResponse(r.Document),
		ProjectID:        r.ProjectID,
		RequesterID:      r.RequesterID,
		NeededBy:         r.NeededBy,
		Status:           string(r.Status),
		RejectionReason:  r.RejectionReason,
		ApprovedBy:       r.ApprovedBy,
		ApprovedAt:       r.ApprovedAt,
		TotalAmount:      r.TotalAmount,
	}
	if len(r.Items) > 0 {
		resp.Items = make([]RequestItemResponse, len(r.Items))
		for i := range r.Items {
			it := &r.Items[i]
			resp.Items[i] = RequestItemResponse{
				LineID:       it.LineID,
				LineNo:       it.LineNo,
				MaterialID:   it.MaterialID,
				Quantity:     it.Quantity,
				UnitPrice:    it.UnitPrice,
				TotalPrice:   it.TotalPrice(),
				Observations: it.Observations,
			}
		}
	}
	return resp
}

func FromMaterialRequests(items []*material_request.MaterialRequest) []MaterialRequestResponse {
	out := make([]MaterialRequestResponse, len(items))
	for i, r := range items {
		out[i] = FromMaterialRequest(r)
	}
	return out
}
