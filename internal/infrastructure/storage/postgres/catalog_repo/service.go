package catalog_repo

import (
	svc "obraplan/internal/domain/catalogs/service"
	"obraplan/internal/infrastructure/storage/postgres"
)

const serviceTable = "cat_services"

// ServiceRepo implements service.Repository.
type ServiceRepo struct {
	*BaseCatalogRepo[*svc.Service]
}

// NewServiceRepo creates a new service repository.
func NewServiceRepo(txm *postgres.TxManager) *ServiceRepo {
	return &ServiceRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[*svc.Service](
			txm,
			serviceTable,
			func() *svc.Service { return &svc.Service{} },
		),
	}
}
