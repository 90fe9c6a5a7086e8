package project

import (
	"context"

	"github.com/shopspring/decimal"

	"obraplan/internal/core/id"
	"obraplan/internal/core/types"
	"obraplan/internal/domain"
)

// Repository defines the interface for Project persistence.
type Repository interface {
	domain.CatalogRepository[*Project]

	// UpdateCostSummary writes the derived realized cost and progress.
	// Bypasses optimistic locking: the values are recomputed from source
	// rows, so last-writer-wins is correct.
	UpdateCostSummary(ctx context.Context, id id.ID, realizedCost types.Money, progress decimal.Decimal) error
}
