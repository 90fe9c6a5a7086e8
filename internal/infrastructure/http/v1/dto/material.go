package dto

import (
	"time"

	"obraplan/internal/core/types"
	"obraplan/internal/domain/catalogs/material"
)

// CreateMaterialRequest creates a new material.
// Code is optional; a sequential one is generated when omitted.
type CreateMaterialRequest struct {
	Code         string         `json:"code" binding:"omitempty,max=50"`
	Name         string         `json:"name" binding:"required,max=255"`
	Unit         string         `json:"unit" binding:"required"`
	UnitPrice    types.Money    `json:"unitPrice"`
	MinimumStock types.Quantity `json:"minimumStock"`
	Description  *string        `json:"description"`
}

// ToEntity converts the request to a domain entity.
func (r *CreateMaterialRequest) ToEntity() *material.Material {
	m := material.NewMaterial(r.Code, r.Name, material.Unit(r.Unit), r.UnitPrice)
	m.MinimumStock = r.MinimumStock
	m.Description = r.Description
	return m
}

// UpdateMaterialRequest updates an existing material.
// Stock quantities are not writable here; the stock endpoints own them.
type UpdateMaterialRequest struct {
	Name         string         `json:"name" binding:"required,max=255"`
	Unit         string         `json:"unit" binding:"required"`
	UnitPrice    types.Money    `json:"unitPrice"`
	MinimumStock types.Quantity `json:"minimumStock"`
	Description  *string        `json:"description"`
	Version      *int           `json:"version" binding:"required"`
}

// ApplyTo applies the request fields to an existing entity.
func (r *UpdateMaterialRequest) ApplyTo(m *material.Material) {
	m.Name = r.Name
	m.Unit = material.Unit(r.Unit)
	m.UnitPrice = r.UnitPrice
	m.MinimumStock = r.MinimumStock
	m.Description = r.Description
	m.Version = *r.Version
}

// MaterialResponse is the API representation of a material.
type MaterialResponse struct {
	BaseResponse
	Code           string         `json:"code"`
	Name           string         `json:"name"`
	Unit           string         `json:"unit"`
	UnitPrice      types.Money    `json:"unitPrice"`
	CurrentStock   types.Quantity `json:"currentStock"`
	MinimumStock   types.Quantity `json:"minimumStock"`
	StockUpdatedAt *time.Time     `json:"stockUpdatedAt,omitempty"`
	Description    *string        `json:"description,omitempty"`
	BelowMinimum   bool           `json:"belowMinimum"`
}

// FromMaterial converts a domain entity to the response.
func FromMaterial(m *material.Material) MaterialResponse {
	return MaterialResponse{
		BaseResponse:   newBaseResponse(m.BaseEntity),
		Code:           m.Code,
		Name:           m.Name,
		Unit:           string(m.Unit),
		UnitPrice:      m.UnitPrice,
		CurrentStock:   m.CurrentStock,
		MinimumStock:   m.MinimumStock,
		StockUpdatedAt: m.StockUpdatedAt,
		Description:    m.Description,
		BelowMinimum:   m.IsBelowMinimum(),
	}
}

// FromMaterials converts a slice for list responses.
func FromMaterials(items []*material.Material) []MaterialResponse {
	out := make([]MaterialResponse, len(items))
	for i, m := range items {
		out[i] = FromMaterial(m)
	}
	return out
}
