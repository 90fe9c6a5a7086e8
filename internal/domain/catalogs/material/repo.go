package material

import (
	"context"

	"obraplan/internal/core/id"
	"obraplan/internal/domain"
)

// Repository defines the interface for Material persistence.
type Repository interface {
	domain.CatalogRepository[*Material]

	// GetForUpdate retrieves material with a row lock.
	GetForUpdate(ctx context.Context, id id.ID) (*Material, error)

	// FindLowStock retrieves materials with stock at or below minimum.
	FindLowStock(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Material], error)
}
