// Package material provides the Material catalog.
// Materials are the consumable goods tracked in stock and issued to tasks
// through approved material requests.
package material

import (
	"context"
	"time"

	"obraplan/internal/core/apperror"
	"obraplan/internal/core/entity"
	"obraplan/internal/core/types"
)

// Unit defines the unit of measure a material is stocked in.
type Unit string

const (
	UnitUN Unit = "UN" // unit/piece
	UnitKG Unit = "KG" // kilogram
	UnitM  Unit = "M"  // meter
	UnitM2 Unit = "M2" // square meter
	UnitM3 Unit = "M3" // cubic meter
	UnitL  Unit = "L"  // liter
	UnitSC Unit = "SC" // sack
	UnitCX Unit = "CX" // box
)

// Material represents a stocked construction material.
type Material struct {
	entity.Catalog

	// Unit is the unit of measure
	Unit Unit `db:"unit" json:"unit"`

	// UnitPrice is the current purchase price per unit
	UnitPrice types.Money `db:"unit_price" json:"unitPrice"`

	// CurrentStock is the on-hand quantity. Mutated only by the stock
	// service inside a transaction; never written through catalog CRUD.
	CurrentStock types.Quantity `db:"current_stock" json:"currentStock"`

	// MinimumStock is the replenishment threshold
	MinimumStock types.Quantity `db:"minimum_stock" json:"minimumStock"`

	// StockUpdatedAt is the time of the last stock mutation
	StockUpdatedAt *time.Time `db:"stock_updated_at" json:"stockUpdatedAt,omitempty"`

	// Description is a detailed description
	Description *string `db:"description" json:"description,omitempty"`
}

// NewMaterial creates a new Material with required fields.
func NewMaterial(code, name string, unit Unit, unitPrice types.Money) *Material {
	return &Material{
		Catalog:   entity.NewCatalog(code, name),
		Unit:      unit,
		UnitPrice: unitPrice,
	}
}

// Validate implements entity.Validatable interface.
func (m *Material) Validate(ctx context.Context) error {
	if err := m.Catalog.Validate(ctx); err != nil {
		return err
	}

	if !isValidUnit(m.Unit) {
		return apperror.NewValidation("invalid unit of measure").
			WithDetail("field", "unit").
			WithDetail("value", string(m.Unit))
	}

	if m.UnitPrice.IsNegative() {
		return apperror.NewValidation("unit price cannot be negative").
			WithDetail("field", "unitPrice")
	}

	if m.CurrentStock < 0 {
		return apperror.NewValidation("current stock cannot be negative").
			WithDetail("field", "currentStock")
	}

	if m.MinimumStock < 0 {
		return apperror.NewValidation("minimum stock cannot be negative").
			WithDetail("field", "minimumStock")
	}

	return nil
}

// IsBelowMinimum reports whether on-hand stock is at or below the threshold.
func (m *Material) IsBelowMinimum() bool {
	return m.MinimumStock > 0 && m.CurrentStock <= m.MinimumStock
}

// HasSufficient reports whether on-hand stock covers the requested quantity.
func (m *Material) HasSufficient(requested types.Quantity) bool {
	return m.CurrentStock >= requested
}

func isValidUnit(u Unit) bool {
	switch u {
	case UnitUN, UnitKG, UnitM, UnitM2, UnitM3, UnitL, UnitSC, UnitCX:
		return true
	}
	return false
}
