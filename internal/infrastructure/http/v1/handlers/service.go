package handlers

import (
	svc "obraplan/internal/domain/catalogs/service"
	"obraplan/internal/infrastructure/http/v1/dto"
)

// ServiceHTTPHandler serves the construction service catalog.
type ServiceHTTPHandler = CatalogHandler[
	*svc.Service,
	dto.CreateServiceRequest,
	dto.UpdateServiceRequest,
]

// NewServiceHandler creates a new construction service handler.
func NewServiceHandler(base *BaseHandler, service *svc.CatalogService) *ServiceHTTPHandler {
	config := CatalogHandlerConfig[
		*svc.Service,
		dto.CreateServiceRequest,
		dto.UpdateServiceRequest,
	]{
		Service:    service.CatalogService,
		EntityName: "service",
		MapCreateDTO: func(req dto.CreateServiceRequest) *svc.Service {
			return req.ToEntity()
		},
		MapUpdateDTO: func(req dto.UpdateServiceRequest, existing *svc.Service) *svc.Service {
			req.ApplyTo(existing)
			return existing
		},
		MapToDTO: func(s *svc.Service) any {
			return dto.FromService(s)
		},
	}

	return NewCatalogHandler(base, config)
}
