package material_request

import (
	"context"
	"time"

	"obraplan/internal/core/id"
	"obraplan/internal/domain"
)

// Repository defines the interface for MaterialRequest persistence.
type Repository interface {
	// Create inserts the request header. Items are saved via SaveItems.
	Create(ctx context.Context, req *MaterialRequest) error

	// GetByID retrieves the request header (without items)
	GetByID(ctx context.Context, id id.ID) (*MaterialRequest, error)

	// GetForUpdate retrieves the request header with a row lock.
	// Must be called inside a transaction; serializes concurrent decisions
	// on the same request.
	GetForUpdate(ctx context.Context, id id.ID) (*MaterialRequest, error)

	// GetByNumber retrieves the request by document number
	GetByNumber(ctx context.Context, number string) (*MaterialRequest, error)

	// Update modifies the request header (with optimistic locking)
	Update(ctx context.Context, req *MaterialRequest) error

	// Delete removes the request and its items
	Delete(ctx context.Context, id id.ID) error

	// GetItems loads the items of a request ordered by line number
	GetItems(ctx context.Context, requestID id.ID) ([]Item, error)

	// SaveItems replaces the items of a request
	SaveItems(ctx context.Context, requestID id.ID, items []Item) error

	// List retrieves requests with filtering and pagination
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*MaterialRequest], error)
}

// ListFilter contains material request specific filters.
type ListFilter struct {
	ProjectID   *id.ID
	RequesterID *id.ID
	Status      *Status
	FromDate    *time.Time
	ToDate      *time.Time

	// Search matches number and observations
	Search string

	OrderBy string
	Limit   int
	Offset  int
}

// DefaultListFilter returns sensible defaults (newest first).
func DefaultListFilter() ListFilter {
	return ListFilter{
		Limit:   50,
		OrderBy: "-date",
	}
}
