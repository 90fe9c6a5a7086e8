package dto

import (
	"time"

	"obraplan/internal/core/id"
	"obraplan/internal/core/types"
	"obraplan/internal/domain/catalogs/task"
)

// ServiceLineInput is one service line as submitted by the caller.
// Unit costs are snapshot from the service master, never taken from input;
// only the labor component may be overridden.
type ServiceLineInput struct {
	ServiceID         id.ID          `json:"serviceId" binding:"required"`
	Quantity          types.Quantity `json:"quantity" binding:"required"`
	LaborCostOverride *types.Money   `json:"laborCostOverride"`
	Notes             *string        `json:"notes"`
}

// CreateTaskRequest creates a new task with optional service lines.
type CreateTaskRequest struct {
	Code        string             `json:"code" binding:"omitempty,max=50"`
	Name        string             `json:"name" binding:"required,max=255"`
	ProjectID   id.ID              `json:"projectId" binding:"required"`
	StartDate   *time.Time         `json:"startDate"`
	EndDate     *time.Time         `json:"endDate"`
	Description *string            `json:"description"`
	Lines       []ServiceLineInput `json:"lines"`

	// Direct cost entry, used only when the task has no service lines
	LaborCost     types.Money `json:"laborCost"`
	MaterialCost  types.Money `json:"materialCost"`
	EquipmentCost types.Money `json:"equipmentCost"`
}

func (r *CreateTaskRequest) ToEntity() *task.Task {
	t := task.NewTask(r.Code, r.Name, r.ProjectID)
	t.StartDate = r.StartDate
	t.EndDate = r.EndDate
	t.Description = r.Description
	t.LaborCost = r.LaborCost
	t.MaterialCost = r.MaterialCost
	t.EquipmentCost = r.EquipmentCost
	t.Lines = linesFromInput(r.Lines)
	return t
}

// UpdateTaskRequest replaces the mutable fields and lines of a task.
type UpdateTaskRequest struct {
	Name        string             `json:"name" binding:"required,max=255"`
	Status      string             `json:"status" binding:"required"`
	Progress    int                `json:"progress" binding:"min=0,max=100"`
	StartDate   *time.Time         `json:"startDate"`
	EndDate     *time.Time         `json:"endDate"`
	Description *string            `json:"description"`
	Lines       []ServiceLineInput `json:"lines"`

	LaborCost     types.Money `json:"laborCost"`
	MaterialCost  types.Money `json:"materialCost"`
	EquipmentCost types.Money `json:"equipmentCost"`

	Version *int `json:"version" binding:"required"`
}

func (r *UpdateTaskRequest) ApplyTo(t *task.Task) {
	t.Name = r.Name
	t.Status = task.Status(r.Status)
	t.Progress = r.Progress
	t.StartDate = r.StartDate
	t.EndDate = r.EndDate
	t.Description = r.Description
	t.LaborCost = r.LaborCost
	t.MaterialCost = r.MaterialCost
	t.EquipmentCost = r.EquipmentCost
	t.Lines = linesFromInput(r.Lines)
	t.Version = *r.Version
}

func linesFromInput(in []ServiceLineInput) []task.ServiceLine {
	lines := make([]task.ServiceLine, len(in))
	for i, li := range in {
		lines[i] = task.ServiceLine{
			LineID:            id.New(),
			LineNo:            i + 1,
			ServiceID:         li.ServiceID,
			Quantity:          li.Quantity,
			LaborCostOverride: li.LaborCostOverride,
			Notes:             li.Notes,
		}
	}
	return lines
}

// SetTaskStatusRequest changes only the lifecycle status.
type SetTaskStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// SetTaskProgressRequest changes only the completion percentage.
type SetTaskProgressRequest struct {
	Progress *int `json:"progress" binding:"required,min=0,max=100"`
}

// ServiceLineResponse is the API representation of a task service line.
type ServiceLineResponse struct {
	LineID            id.ID          `json:"lineId"`
	LineNo            int            `json:"lineNo"`
	ServiceID         id.ID          `json:"serviceId"`
	Quantity          types.Quantity `json:"quantity"`
	LaborUnitCost     types.Money    `json:"laborUnitCost"`
	MaterialUnitCost  types.Money    `json:"materialUnitCost"`
	EquipmentUnitCost types.Money    `json:"equipmentUnitCost"`
	LaborCostOverride *types.Money   `json:"laborCostOverride,omitempty"`
	TotalCost         types.Money    `json:"totalCost"`
	Notes             *string        `json:"notes,omitempty"`
}

// TaskResponse is the API representation of a task.
type TaskResponse struct {
	BaseResponse
	Code          string                `json:"code"`
	Name          string                `json:"name"`
	ProjectID     id.ID                 `json:"projectId"`
	Status        string                `json:"status"`
	Progress      int                   `json:"progress"`
	StartDate     *time.Time            `json:"startDate,omitempty"`
	EndDate       *time.Time            `json:"endDate,omitempty"`
	LaborCost     types.Money           `json:"laborCost"`
	MaterialCost  types.Money           `json:"materialCost"`
	EquipmentCost types.Money           `json:"equipmentCost"`
	TotalCost     types.Money           `json:"totalCost"`
	Description   *string               `json:"description,omitempty"`
	Lines         []ServiceLineResponse `json:"lines,omitempty"`
}

func FromTask(t *task.Task) TaskResponse {
	resp := TaskResponse{
		BaseResponse:  newBaseResponse(t.BaseEntity),
		Code:          t.Code,
		Name:          t.Name,
		ProjectID:     t.ProjectID,
		Status:        string(t.Status),
		Progress:      t.Progress,
		StartDate:     t.StartDate,
		EndDate:       t.EndDate,
		LaborCost:     t.LaborCost,
		MaterialCost:  t.MaterialCost,
		EquipmentCost: t.EquipmentCost,
		TotalCost:     t.TotalCost(),
		Description:   t.Description,
	}
	if len(t.Lines) > 0 {
		resp.Lines = make([]ServiceLineResponse, len(t.Lines))
		for i := range t.Lines {
			l := &t.Lines[i]
			resp.Lines[i] = ServiceLineResponse{
				LineID:            l.LineID,
				LineNo:            l.LineNo,
				ServiceID:         l.ServiceID,
				Quantity:          l.Quantity,
				LaborUnitCost:     l.LaborUnitCost,
				MaterialUnitCost:  l.MaterialUnitCost,
				EquipmentUnitCost: l.EquipmentUnitCost,
				LaborCostOverride: l.LaborCostOverride,
				TotalCost:         l.TotalCost(),
				Notes:             l.Notes,
			}
		}
	}
	return resp
}

func FromTasks(items []*task.Task) []TaskResponse {
	out := make([]TaskResponse, len(items))
	for i, t := range items {
		out[i] = FromTask(t)
	}
	return out
}
