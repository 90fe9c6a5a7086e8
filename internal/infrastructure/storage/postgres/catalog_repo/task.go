package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"obraplan/internal/core/apperror"
	"obraplan/internal/core/id"
	"obraplan/internal/core/types"
	"obraplan/internal/domain/catalogs/task"
	"obraplan/internal/infrastructure/storage/postgres"
)

const (
	taskTable      = "cat_tasks"
	taskLinesTable = "cat_task_service_lines"
)

// TaskRepo implements task.Repository.
type TaskRepo struct {
	*BaseCatalogRepo[*task.Task]
}

// NewTaskRepo creates a new task repository.
func NewTaskRepo(txm *postgres.TxManager) *TaskRepo {
	return &TaskRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[*task.Task](
			txm,
			taskTable,
			func() *task.Task { return &task.Task{} },
		),
	}
}

func (r *TaskRepo) GetLines(ctx context.Context, taskID id.ID) ([]task.ServiceLine, error) {
	q := r.Builder().
		Select(
			"line_id", "line_no", "service_id", "quantity",
			"labor_unit_cost", "material_unit_cost", "equipment_unit_cost",
			"labor_cost_override", "notes",
		).
		From(taskLinesTable).
		Where(squirrel.Eq{"task_id": taskID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []task.ServiceLine
	if err := pgxscan.Select(ctx, r.querier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get task lines: %w", err)
	}

	return lines, nil
}

func (r *TaskRepo) SaveLines(ctx context.Context, taskID id.ID, lines []task.ServiceLine) error {
	querier := r.querier(ctx)

	deleteSQL := "DELETE FROM " + taskLinesTable + " WHERE task_id = $1"
	if _, err := querier.Exec(ctx, deleteSQL, taskID); err != nil {
		return fmt.Errorf("delete existing lines: %w", err)
	}

	if len(lines) == 0 {
		return nil
	}

	q := r.Builder().
		Insert(taskLinesTable).
		Columns(
			"line_id", "task_id", "line_no", "service_id", "quantity",
			"labor_unit_cost", "material_unit_cost", "equipment_unit_cost",
			"labor_cost_override", "notes",
		)

	for _, line := range lines {
		q = q.Values(
			line.LineID, taskID, line.LineNo, line.ServiceID, line.Quantity,
			line.LaborUnitCost, line.MaterialUnitCost, line.EquipmentUnitCost,
			line.LaborCostOverride, line.Notes,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert lines: %w", err)
	}

	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert lines: %w", err)
	}

	return nil
}

func (r *TaskRepo) ListByProject(ctx context.Context, projectID id.ID) ([]*task.Task, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"project_id": projectID, "deletion_mark": false}).
		OrderBy("code ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var tasks []*task.Task
	if err := pgxscan.Select(ctx, r.querier(ctx), &tasks, sql, args...); err != nil {
		return nil, fmt.Errorf("list tasks by project: %w", err)
	}

	return tasks, nil
}

// UpdateCosts writes the derived cost buckets without touching the version
// column. Recomputed from lines, so last-writer-wins is correct.
func (r *TaskRepo) UpdateCosts(ctx context.Context, taskID id.ID, labor, material, equipment types.Money) error {
	query, args, err := r.Builder().
		Update(taskTable).
		Set("labor_cost", labor).
		Set("material_cost", material).
		Set("equipment_cost", equipment).
		Where(squirrel.Eq{"id": taskID}).
		ToSql()
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("build update costs query: %w", err))
	}

	tag, err := r.querier(ctx).Exec(ctx, query, args...)
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("update task costs: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("task", taskID)
	}
	return nil
}
