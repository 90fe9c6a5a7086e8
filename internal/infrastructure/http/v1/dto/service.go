package dto

import (
	"obraplan/internal/core/types"
	svc "obraplan/internal/domain/catalogs/service"
)

// CreateServiceRequest creates a new construction service.
type CreateServiceRequest struct {
	Code              string      `json:"code" binding:"omitempty,max=50"`
	Name              string      `json:"name" binding:"required,max=255"`
	Unit              string      `json:"unit" binding:"required,max=10"`
	LaborUnitCost     types.Money `json:"laborUnitCost"`
	MaterialUnitCost  types.Money `json:"materialUnitCost"`
	EquipmentUnitCost types.Money `json:"equipmentUnitCost"`
	Description       *string     `json:"description"`
}

func (r *CreateServiceRequest) ToEntity() *svc.Service {
	s := svc.NewService(r.Code, r.Name, r.Unit)
	s.LaborUnitCost = r.LaborUnitCost
	s.MaterialUnitCost = r.MaterialUnitCost
	s.EquipmentUnitCost = r.EquipmentUnitCost
	s.Description = r.Description
	return s
}

// UpdateServiceRequest updates an existing service.
type UpdateServiceRequest struct {
	Name              string      `json:"name" binding:"required,max=255"`
	Unit              string      `json:"unit" binding:"required,max=10"`
	LaborUnitCost     types.Money `json:"laborUnitCost"`
	MaterialUnitCost  types.Money `json:"materialUnitCost"`
	EquipmentUnitCost types.Money `json:"equipmentUnitCost"`
	Description       *string     `json:"description"`
	Version           *int        `json:"version" binding:"required"`
}

func (r *UpdateServiceRequest) ApplyTo(s *svc.Service) {
	s.Name = r.Name
	s.Unit = r.Unit
	s.LaborUnitCost = r.LaborUnitCost
	s.MaterialUnitCost = r.MaterialUnitCost
	s.EquipmentUnitCost = r.EquipmentUnitCost
	s.Description = r.Description
	s.Version = *r.Version
}

// ServiceResponse is the API representation of a service.
type ServiceResponse struct {
	BaseResponse
	Code              string      `json:"code"`
	Name              string      `json:"name"`
	Unit              string      `json:"unit"`
	LaborUnitCost     types.Money `json:"laborUnitCost"`
	MaterialUnitCost  types.Money `json:"materialUnitCost"`
	EquipmentUnitCost types.Money `json:"equipmentUnitCost"`
	TotalUnitCost     types.Money `json:"totalUnitCost"`
	Description       *string     `json:"description,omitempty"`
}

func FromService(s *svc.Service) ServiceResponse {
	return ServiceResponse{
		BaseResponse:      newBaseResponse(s.BaseEntity),
		Code:              s.Code,
		Name:              s.Name,
		Unit:              s.Unit,
		LaborUnitCost:     s.LaborUnitCost,
		MaterialUnitCost:  s.MaterialUnitCost,
		EquipmentUnitCost: s.EquipmentUnitCost,
		TotalUnitCost:     s.TotalUnitCost(),
		Description:       s.Description,
	}
}

func FromServices(items []*svc.Service) []ServiceResponse {
	out := make([]ServiceResponse, len(items))
	for i, s := range items {
		out[i] = FromService(s)
	}
	return out
}
