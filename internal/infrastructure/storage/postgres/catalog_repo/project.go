package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"

	"obraplan/internal/core/apperror"
	"obraplan/internal/core/id"
	"obraplan/internal/core/types"
	"obraplan/internal/domain/catalogs/project"
	"obraplan/internal/infrastructure/storage/postgres"
)

const projectTable = "cat_projects"

// ProjectRepo implements project.Repository.
type ProjectRepo struct {
	*BaseCatalogRepo[*project.Project]
}

// NewProjectRepo creates a new project repository.
func NewProjectRepo(txm *postgres.TxManager) *ProjectRepo {
	return &ProjectRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[*project.Project](
			txm,
			projectTable,
			func() *project.Project { return &project.Project{} },
		),
	}
}

// UpdateCostSummary writes the derived realized cost and progress without
// touching the version column. The values are recomputed from task rows, so
// concurrent writers always converge on the same result.
func (r *ProjectRepo) UpdateCostSummary(ctx context.Context, projectID id.ID, realizedCost types.Money, progress decimal.Decimal) error {
	query, args, err := r.Builder().
		Update(projectTable).
		Set("realized_cost", realizedCost).
		Set("progress_percentage", progress).
		Where(squirrel.Eq{"id": projectID}).
		ToSql()
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("build cost summary query: %w", err))
	}

	tag, err := r.querier(ctx).Exec(ctx, query, args...)
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("update cost summary: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("project", projectID)
	}
	return nil
}
