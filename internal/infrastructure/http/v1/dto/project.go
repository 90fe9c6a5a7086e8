package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"obraplan/internal/core/types"
	"obraplan/internal/domain/catalogs/project"
)

// CreateProjectRequest creates a new project.
type CreateProjectRequest struct {
	Code            string      `json:"code" binding:"omitempty,max=50"`
	Name            string      `json:"name" binding:"required,max=255"`
	Client          *string     `json:"client"`
	Address         *string     `json:"address"`
	StartDate       *time.Time  `json:"startDate"`
	ExpectedEndDate *time.Time  `json:"expectedEndDate"`
	TotalBudget     types.Money `json:"totalBudget"`
	Description     *string     `json:"description"`
}

func (r *CreateProjectRequest) ToEntity() *project.Project {
	p := project.NewProject(r.Code, r.Name, r.TotalBudget)
	p.Client = r.Client
	p.Address = r.Address
	p.StartDate = r.StartDate
	p.ExpectedEndDate = r.ExpectedEndDate
	p.Description = r.Description
	return p
}

// UpdateProjectRequest updates an existing project.
// Realized cost and progress are derived values and not writable.
type UpdateProjectRequest struct {
	Name            string      `json:"name" binding:"required,max=255"`
	Client          *string     `json:"client"`
	Address         *string     `json:"address"`
	Status          string      `json:"status" binding:"required"`
	StartDate       *time.Time  `json:"startDate"`
	ExpectedEndDate *time.Time  `json:"expectedEndDate"`
	TotalBudget     types.Money `json:"totalBudget"`
	Description     *string     `json:"description"`
	Version         *int        `json:"version" binding:"required"`
}

func (r *UpdateProjectRequest) ApplyTo(p *project.Project) {
	p.Name = r.Name
	p.Client = r.Client
	p.Address = r.Address
	p.Status = project.Status(r.Status)
	p.StartDate = r.StartDate
	p.ExpectedEndDate = r.ExpectedEndDate
	p.TotalBudget = r.TotalBudget
	p.Description = r.Description
	p.Version = *r.Version
}

// SetProjectStatusRequest changes only the lifecycle status.
type SetProjectStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ProjectResponse is the API representation of a project.
type ProjectResponse struct {
	BaseResponse
	Code               string          `json:"code"`
	Name               string          `json:"name"`
	Client             *string         `json:"client,omitempty"`
	Address            *string         `json:"address,omitempty"`
	Status             string          `json:"status"`
	StartDate          *time.Time      `json:"startDate,omitempty"`
	ExpectedEndDate    *time.Time      `json:"expectedEndDate,omitempty"`
	TotalBudget        types.Money     `json:"totalBudget"`
	RealizedCost       types.Money     `json:"realizedCost"`
	BudgetVariance     types.Money     `json:"budgetVariance"`
	IsOverBudget       bool            `json:"isOverBudget"`
	ProgressPercentage decimal.Decimal `json:"progressPercentage"`
	Description        *string         `json:"description,omitempty"`
}

func FromProject(p *project.Project) ProjectResponse {
	return ProjectResponse{
		BaseResponse:       newBaseResponse(p.BaseEntity),
		Code:               p.Code,
		Name:               p.Name,
		Client:             p.Client,
		Address:            p.Address,
		Status:             string(p.Status),
		StartDate:          p.StartDate,
		ExpectedEndDate:    p.ExpectedEndDate,
		TotalBudget:        p.TotalBudget,
		RealizedCost:       p.RealizedCost,
		BudgetVariance:     p.BudgetVariance(),
		IsOverBudget:       p.IsOverBudget(),
		ProgressPercentage: p.ProgressPercentage,
		Description:        p.Description,
	}
}

func FromProjects(items []*project.Project) []ProjectResponse {
	out := make([]ProjectResponse, len(items))
	for i, p := range items {
		out[i] = FromProject(p)
	}
	return out
}
