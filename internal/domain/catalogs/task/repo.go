package task

import (
	"context"

	"obraplan/internal/core/id"
	"obraplan/internal/core/types"
	"obraplan/internal/domain"
)

// Repository defines the interface for Task persistence.
type Repository interface {
	domain.CatalogRepository[*Task]

	// GetLines loads the service lines of a task ordered by line number.
	GetLines(ctx context.Context, taskID id.ID) ([]ServiceLine, error)

	// SaveLines replaces the service lines of a task.
	SaveLines(ctx context.Context, taskID id.ID, lines []ServiceLine) error

	// ListByProject retrieves all tasks of a project (no pagination).
	ListByProject(ctx context.Context, projectID id.ID) ([]*Task, error)

	// UpdateCosts writes the derived cost buckets.
	// Bypasses optimistic locking: values are recomputed from lines.
	UpdateCosts(ctx context.Context, taskID id.ID, labor, material, equipment types.Money) error
}
