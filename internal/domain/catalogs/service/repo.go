package service

import (
	"obraplan/internal/domain"
)

// Repository defines the interface for Service persistence.
type Repository interface {
	domain.CatalogRepository[*Service]
}
