package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"obraplan/internal/domain/catalogs/material"
	"obraplan/internal/infrastructure/http/v1/dto"
)

// MaterialHandler serves the material catalog plus stock-aware lookups.
type MaterialHandler struct {
	*CatalogHandler[*material.Material, dto.CreateMaterialRequest, dto.UpdateMaterialRequest]
	service *material.Service
}

// NewMaterialHandler creates a new material handler.
func NewMaterialHandler(base *BaseHandler, service *material.Service) *MaterialHandler {
	config := CatalogHandlerConfig[*material.Material, dto.CreateMaterialRequest, dto.UpdateMaterialRequest]{
		Service:    service.CatalogService,
		EntityName: "material",
		MapCreateDTO: func(req dto.CreateMaterialRequest) *material.Material {
			return req.ToEntity()
		},
		MapUpdateDTO: func(req dto.UpdateMaterialRequest, existing *material.Material) *material.Material {
			req.ApplyTo(existing)
			return existing
		},
		MapToDTO: func(m *material.Material) any {
			return dto.FromMaterial(m)
		},
	}

	return &MaterialHandler{
		CatalogHandler: NewCatalogHandler(base, config),
		service:        service,
	}
}

// LowStock handles GET /materials/low-stock - materials at or below minimum.
func (h *MaterialHandler) LowStock(c *gin.Context) {
	ctx := c.Request.Context()

	filter, ok := h.ParseListFilter(c)
	if !ok {
		return
	}

	result, err := h.service.FindLowStock(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      dto.FromMaterials(result.Items),
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}
