// Package material_request provides the MaterialRequest document.
// A request asks for materials to be issued to a project, moves through a
// single approval decision, and on approval posts an expense against the
// stock ledger.
package material_request

import (
	"context"
	"time"

	"obraplan/internal/core/apperror"
	"obraplan/internal/core/entity"
	"obraplan/internal/core/id"
	"obraplan/internal/core/types"
)

// Status defines the request lifecycle state.
// Persisted as-is; values match the historical data.
type Status string

const (
	StatusPending  Status = "PENDENTE"
	StatusApproved Status = "APROVADA"
	StatusRejected Status = "REJEITADA"
)

// MaterialRequest represents a material request document.
type MaterialRequest struct {
	entity.Document

	// ProjectID is the project the materials are requested for
	ProjectID id.ID `db:"project_id" json:"projectId"`

	// RequesterID is the user who created the request
	RequesterID id.ID `db:"requester_id" json:"requesterId"`

	// NeededBy is the optional date the materials are needed on site
	NeededBy *time.Time `db:"needed_by" json:"neededBy,omitempty"`

	Status Status `db:"status" json:"status"`

	// RejectionReason is set only when status is REJEITADA
	RejectionReason *string `db:"rejection_reason" json:"rejectionReason,omitempty"`

	// ApprovedBy / ApprovedAt record the decision (both approve and reject)
	ApprovedBy *id.ID     `db:"approved_by" json:"approvedBy,omitempty"`
	ApprovedAt *time.Time `db:"approved_at" json:"approvedAt,omitempty"`

	// TotalAmount is calculated from items
	TotalAmount types.Money `db:"total_amount" json:"totalAmount"`

	// Table part: requested materials
	Items []Item `db:"-" json:"items"`
}

// Item is one requested material line.
type Item struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	MaterialID id.ID          `db:"material_id" json:"materialId"`
	Quantity   types.Quantity `db:"quantity" json:"quantity"`

	// UnitPrice is snapshot from the material at creation time, not live-priced
	UnitPrice types.Money `db:"unit_price" json:"unitPrice"`

	Observations *string `db:"observations" json:"observations,omitempty"`
}

// TotalPrice returns quantity * unit price.
func (i *Item) TotalPrice() types.Money {
	return i.Quantity.Decimal().Mul(i.UnitPrice)
}

// NewMaterialRequest creates a new request in PENDENTE status.
func NewMaterialRequest(projectID, requesterID id.ID) *MaterialRequest {
	return &MaterialRequest{
		Document:    entity.NewDocument(),
		ProjectID:   projectID,
		RequesterID: requesterID,
		Status:      StatusPending,
		TotalAmount: types.Zero(),
		Items:       make([]Item, 0),
	}
}

// CanModify reports whether the request (including its items) may still
// change. Terminal states are immutable.
func (r *MaterialRequest) CanModify() bool {
	return r.Status == StatusPending
}

// AddItem appends an item with the given price snapshot and recalculates
// the total. Fails once the request left PENDENTE.
func (r *MaterialRequest) AddItem(materialID id.ID, quantity types.Quantity, unitPrice types.Money, observations *string) error {
	if !r.CanModify() {
		return apperror.NewInvalidRequestState(r.ID.String(), string(r.Status))
	}

	r.Items = append(r.Items, Item{
		LineID:       id.New(),
		LineNo:       len(r.Items) + 1,
		MaterialID:   materialID,
		Quantity:     quantity,
		UnitPrice:    unitPrice,
		Observations: observations,
	})
	r.recalculateTotal()
	return nil
}

// RemoveItem deletes the item with the given line ID and renumbers the rest.
func (r *MaterialRequest) RemoveItem(lineID id.ID) error {
	if !r.CanModify() {
		return apperror.NewInvalidRequestState(r.ID.String(), string(r.Status))
	}

	kept := r.Items[:0]
	for _, item := range r.Items {
		if item.LineID != lineID {
			kept = append(kept, item)
		}
	}
	r.Items = kept
	for i := range r.Items {
		r.Items[i].LineNo = i + 1
	}
	r.recalculateTotal()
	return nil
}

func (r *MaterialRequest) recalculateTotal() {
	total := types.Zero()
	for i := range r.Items {
		total = total.Add(r.Items[i].TotalPrice())
	}
	r.TotalAmount = total
}

// Approve moves the request to APROVADA. Valid only from PENDENTE; the
// decision is recorded exactly once.
func (r *MaterialRequest) Approve(approverID id.ID) error {
	if r.Status != StatusPending {
		return apperror.NewInvalidRequestState(r.ID.String(), string(r.Status))
	}

	now := time.Now().UTC()
	r.Status = StatusApproved
	r.ApprovedBy = &approverID
	r.ApprovedAt = &now
	r.RejectionReason = nil
	return nil
}

// Reject moves the request to REJEITADA with a mandatory reason.
func (r *MaterialRequest) Reject(approverID id.ID, reason string) error {
	if r.Status != StatusPending {
		return apperror.NewInvalidRequestState(r.ID.String(), string(r.Status))
	}
	if reason == "" {
		return apperror.NewValidation("rejection reason is required").
			WithDetail("field", "reason")
	}

	now := time.Now().UTC()
	r.Status = StatusRejected
	r.ApprovedBy = &approverID
	r.ApprovedAt = &now
	r.RejectionReason = &reason
	return nil
}

// Validate implements entity.Validatable.
func (r *MaterialRequest) Validate(ctx context.Context) error {
	if err := r.Document.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(r.ProjectID) {
		return apperror.NewValidation("project is required").
			WithDetail("field", "projectId")
	}

	if id.IsNil(r.RequesterID) {
		return apperror.NewValidation("requester is required").
			WithDetail("field", "requesterId")
	}

	if !isValidStatus(r.Status) {
		return apperror.NewValidation("invalid request status").
			WithDetail("field", "status").
			WithDetail("value", string(r.Status))
	}

	// State invariants: a rejection reason exists only on rejected requests;
	// the decision record exists only once the request left PENDENTE.
	if r.RejectionReason != nil && r.Status != StatusRejected {
		return apperror.NewValidation("rejection reason is only valid on rejected requests").
			WithDetail("field", "rejectionReason")
	}
	if r.Status == StatusPending && (r.ApprovedBy != nil || r.ApprovedAt != nil) {
		return apperror.NewValidation("pending request cannot carry a decision record").
			WithDetail("field", "approvedBy")
	}
	if r.Status != StatusPending && (r.ApprovedBy == nil || r.ApprovedAt == nil) {
		return apperror.NewValidation("decided request must carry a decision record").
			WithDetail("field", "approvedBy")
	}
	if r.Status == StatusRejected && (r.RejectionReason == nil || *r.RejectionReason == "") {
		return apperror.NewValidation("rejected request must carry a reason").
			WithDetail("field", "rejectionReason")
	}

	if len(r.Items) == 0 {
		return apperror.NewValidation("at least one item is required").
			WithDetail("field", "items")
	}

	for i, item := range r.Items {
		if id.IsNil(item.MaterialID) {
			return apperror.NewValidation("material is required").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
		if item.Quantity <= 0 {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
		if item.UnitPrice.IsNegative() {
			return apperror.NewValidation("unit price cannot be negative").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
	}

	return nil
}

func isValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}
