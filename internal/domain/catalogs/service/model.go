// Package service provides the construction Service catalog.
// A service defines the base unit costs (labor, material, equipment) used
// when pricing task service lines.
package service

import (
	"context"

	"obraplan/internal/core/apperror"
	"obraplan/internal/core/entity"
	"obraplan/internal/core/types"
)

// Service represents a construction service master record.
type Service struct {
	entity.Catalog

	// Unit is the unit of measure the service is quantified in (e.g. "M2", "H")
	Unit string `db:"unit" json:"unit"`

	// LaborUnitCost is the default labor cost per unit.
	// Task service lines may override it.
	LaborUnitCost types.Money `db:"labor_unit_cost" json:"laborUnitCost"`

	// MaterialUnitCost is the material cost per unit. Never overridable.
	MaterialUnitCost types.Money `db:"material_unit_cost" json:"materialUnitCost"`

	// EquipmentUnitCost is the equipment cost per unit. Never overridable.
	EquipmentUnitCost types.Money `db:"equipment_unit_cost" json:"equipmentUnitCost"`

	// Description is a detailed description
	Description *string `db:"description" json:"description,omitempty"`
}

// NewService creates a new Service with required fields.
func NewService(code, name, unit string) *Service {
	return &Service{
		Catalog: entity.NewCatalog(code, name),
		Unit:    unit,
	}
}

// Validate implements entity.Validatable interface.
func (s *Service) Validate(ctx context.Context) error {
	if err := s.Catalog.Validate(ctx); err != nil {
		return err
	}

	if s.Unit == "" {
		return apperror.NewValidation("unit is required").
			WithDetail("field", "unit")
	}

	for field, cost := range map[string]types.Money{
		"laborUnitCost":     s.LaborUnitCost,
		"materialUnitCost":  s.MaterialUnitCost,
		"equipmentUnitCost": s.EquipmentUnitCost,
	} {
		if cost.IsNegative() {
			return apperror.NewValidation("unit cost cannot be negative").
				WithDetail("field", field)
		}
	}

	return nil
}

// TotalUnitCost returns the combined default cost per unit.
func (s *Service) TotalUnitCost() types.Money {
	return s.LaborUnitCost.Add(s.MaterialUnitCost).Add(s.EquipmentUnitCost)
}
