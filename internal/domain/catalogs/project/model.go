// Package project provides the Project catalog.
package project

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"obraplan/internal/core/apperror"
	"obraplan/internal/core/entity"
	"obraplan/internal/core/types"
)

// Status defines the project lifecycle status.
type Status string

const (
	StatusPlanning   Status = "PLANEJAMENTO"
	StatusInProgress Status = "EM_ANDAMENTO"
	StatusPaused     Status = "PAUSADA"
	StatusCompleted  Status = "CONCLUIDA"
	StatusCancelled  Status = "CANCELADA"
)

// Project represents a construction project.
type Project struct {
	entity.Catalog

	// Client is the contracting party name
	Client *string `db:"client" json:"client,omitempty"`

	// Address is the construction site address
	Address *string `db:"address" json:"address,omitempty"`

	Status Status `db:"status" json:"status"`

	StartDate       *time.Time `db:"start_date" json:"startDate,omitempty"`
	ExpectedEndDate *time.Time `db:"expected_end_date" json:"expectedEndDate,omitempty"`

	// TotalBudget is the approved budget
	TotalBudget types.Money `db:"total_budget" json:"totalBudget"`

	// RealizedCost is derived from completed tasks; written only by the
	// costing service.
	RealizedCost types.Money `db:"realized_cost" json:"realizedCost"`

	// ProgressPercentage is the mean of task progress, 0..100
	ProgressPercentage decimal.Decimal `db:"progress_percentage" json:"progressPercentage"`

	Description *string `db:"description" json:"description,omitempty"`
}

// NewProject creates a new Project in planning status.
func NewProject(code, name string, totalBudget types.Money) *Project {
	return &Project{
		Catalog:     entity.NewCatalog(code, name),
		Status:      StatusPlanning,
		TotalBudget: totalBudget,
	}
}

// Validate implements entity.Validatable interface.
func (p *Project) Validate(ctx context.Context) error {
	if err := p.Catalog.Validate(ctx); err != nil {
		return err
	}

	if !isValidStatus(p.Status) {
		return apperror.NewValidation("invalid project status").
			WithDetail("field", "status").
			WithDetail("value", string(p.Status))
	}

	if p.TotalBudget.IsNegative() {
		return apperror.NewValidation("total budget cannot be negative").
			WithDetail("field", "totalBudget")
	}

	if p.StartDate != nil && p.ExpectedEndDate != nil && p.ExpectedEndDate.Before(*p.StartDate) {
		return apperror.NewValidation("expected end date cannot precede start date").
			WithDetail("field", "expectedEndDate")
	}

	return nil
}

// BudgetVariance returns totalBudget - realizedCost.
// Negative variance means the project is over budget.
func (p *Project) BudgetVariance() types.Money {
	return p.TotalBudget.Sub(p.RealizedCost)
}

// IsOverBudget reports whether realized cost exceeds the budget.
func (p *Project) IsOverBudget() bool {
	return p.BudgetVariance().IsNegative()
}

// IsActive reports whether the project accepts new material requests.
func (p *Project) IsActive() bool {
	return p.Status == StatusPlanning || p.Status == StatusInProgress
}

func isValidStatus(s Status) bool {
	switch s {
	case StatusPlanning, StatusInProgress, StatusPaused, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}
