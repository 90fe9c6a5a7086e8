// Package task provides the Task catalog.
// A task belongs to a project and carries service lines that drive the
// labor/material/equipment cost buckets.
package task

import (
	"context"
	"time"

	"obraplan/internal/core/apperror"
	"obraplan/internal/core/entity"
	"obraplan/internal/core/id"
	"obraplan/internal/core/types"
)

// Status defines the task lifecycle status.
type Status string

const (
	StatusPending    Status = "PENDENTE"
	StatusInProgress Status = "EM_ANDAMENTO"
	StatusCompleted  Status = "CONCLUIDA"
	StatusCancelled  Status = "CANCELADA"
)

// Task represents a unit of work within a project.
type Task struct {
	entity.Catalog

	// ProjectID is the owning project
	ProjectID id.ID `db:"project_id" json:"projectId"`

	Status Status `db:"status" json:"status"`

	// Progress is the completion percentage, 0..100
	Progress int `db:"progress" json:"progress"`

	StartDate *time.Time `db:"start_date" json:"startDate,omitempty"`
	EndDate   *time.Time `db:"end_date" json:"endDate,omitempty"`

	// Cost buckets derived from service lines by the costing service.
	// Tasks without service lines may carry directly entered values.
	LaborCost     types.Money `db:"labor_cost" json:"laborCost"`
	MaterialCost  types.Money `db:"material_cost" json:"materialCost"`
	EquipmentCost types.Money `db:"equipment_cost" json:"equipmentCost"`

	Description *string `db:"description" json:"description,omitempty"`

	// Table part: service lines
	Lines []ServiceLine `db:"-" json:"lines"`
}

// ServiceLine prices a quantity of a catalog service against the task.
// Unit costs are snapshot from the service master when the line is saved;
// only the labor component may be overridden.
type ServiceLine struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	ServiceID id.ID          `db:"service_id" json:"serviceId"`
	Quantity  types.Quantity `db:"quantity" json:"quantity"`

	LaborUnitCost     types.Money `db:"labor_unit_cost" json:"laborUnitCost"`
	MaterialUnitCost  types.Money `db:"material_unit_cost" json:"materialUnitCost"`
	EquipmentUnitCost types.Money `db:"equipment_unit_cost" json:"equipmentUnitCost"`

	// LaborCostOverride replaces LaborUnitCost when set
	LaborCostOverride *types.Money `db:"labor_cost_override" json:"laborCostOverride,omitempty"`

	Notes *string `db:"notes" json:"notes,omitempty"`
}

// EffectiveLaborUnitCost returns the override when present, otherwise the
// snapshot labor unit cost.
func (l *ServiceLine) EffectiveLaborUnitCost() types.Money {
	if l.LaborCostOverride != nil {
		return *l.LaborCostOverride
	}
	return l.LaborUnitCost
}

// LaborTotal returns quantity * effective labor unit cost.
func (l *ServiceLine) LaborTotal() types.Money {
	return l.Quantity.Decimal().Mul(l.EffectiveLaborUnitCost())
}

// MaterialTotal returns quantity * material unit cost.
func (l *ServiceLine) MaterialTotal() types.Money {
	return l.Quantity.Decimal().Mul(l.MaterialUnitCost)
}

// EquipmentTotal returns quantity * equipment unit cost.
func (l *ServiceLine) EquipmentTotal() types.Money {
	return l.Quantity.Decimal().Mul(l.EquipmentUnitCost)
}

// TotalCost returns the full line cost across all three buckets.
func (l *ServiceLine) TotalCost() types.Money {
	return l.LaborTotal().Add(l.MaterialTotal()).Add(l.EquipmentTotal())
}

// NewTask creates a new Task in pending status.
func NewTask(code, name string, projectID id.ID) *Task {
	return &Task{
		Catalog:   entity.NewCatalog(code, name),
		ProjectID: projectID,
		Status:    StatusPending,
		Lines:     make([]ServiceLine, 0),
	}
}

// AddLine appends a service line with unit costs snapshot from the service
// master record.
func (t *Task) AddLine(serviceID id.ID, quantity types.Quantity, labor, material, equipment types.Money, laborOverride *types.Money) {
	t.Lines = append(t.Lines, ServiceLine{
		LineID:            id.New(),
		LineNo:            len(t.Lines) + 1,
		ServiceID:         serviceID,
		Quantity:          quantity,
		LaborUnitCost:     labor,
		MaterialUnitCost:  material,
		EquipmentUnitCost: equipment,
		LaborCostOverride: laborOverride,
	})
}

// Validate implements entity.Validatable interface.
func (t *Task) Validate(ctx context.Context) error {
	if err := t.Catalog.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(t.ProjectID) {
		return apperror.NewValidation("project is required").
			WithDetail("field", "projectId")
	}

	if !isValidStatus(t.Status) {
		return apperror.NewValidation("invalid task status").
			WithDetail("field", "status").
			WithDetail("value", string(t.Status))
	}

	if t.Progress < 0 || t.Progress > 100 {
		return apperror.NewValidation("progress must be between 0 and 100").
			WithDetail("field", "progress").
			WithDetail("value", t.Progress)
	}

	for field, cost := range map[string]types.Money{
		"laborCost":     t.LaborCost,
		"materialCost":  t.MaterialCost,
		"equipmentCost": t.EquipmentCost,
	} {
		if cost.IsNegative() {
			return apperror.NewValidation("cost cannot be negative").
				WithDetail("field", field)
		}
	}

	for i, line := range t.Lines {
		if id.IsNil(line.ServiceID) {
			return apperror.NewValidation("service is required").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if line.Quantity <= 0 {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if line.LaborCostOverride != nil && line.LaborCostOverride.IsNegative() {
			return apperror.NewValidation("labor cost override cannot be negative").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
	}

	return nil
}

// TotalCost returns the sum of the three cost buckets.
func (t *Task) TotalCost() types.Money {
	return t.LaborCost.Add(t.MaterialCost).Add(t.EquipmentCost)
}

// IsCompleted reports whether the task counts toward realized cost.
func (t *Task) IsCompleted() bool {
	return t.Status == StatusCompleted
}

func isValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}
