// Package costing rolls task service-line costs up into task cost buckets
// and project realized cost, budget variance, and progress figures.
package costing

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"obraplan/internal/core/id"
	"obraplan/internal/core/tx"
	"obraplan/internal/core/types"
	"obraplan/internal/domain/catalogs/project"
	"obraplan/internal/domain/catalogs/task"
	"obraplan/pkg/logger"
)

// Service recomputes derived cost figures. All recomputations are full
// recalculations from source rows, so repeated calls with unchanged data
// yield identical results.
type Service struct {
	tasks     task.Repository
	projects  project.Repository
	txManager tx.Manager
	log       *logger.Logger
}

// NewService creates a new costing service.
func NewService(tasks task.Repository, projects project.Repository, txManager tx.Manager, log *logger.Logger) *Service {
	return &Service{
		tasks:     tasks,
		projects:  projects,
		txManager: txManager,
		log:       log,
	}
}

// RecalculateTaskCosts recomputes the labor/material/equipment buckets of a
// task from its service lines and then refreshes the owning project.
func (s *Service) RecalculateTaskCosts(ctx context.Context, taskID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		t, err := s.tasks.GetByID(ctx, taskID)
		if err != nil {
			return err
		}

		lines, err := s.tasks.GetLines(ctx, taskID)
		if err != nil {
			return fmt.Errorf("load task lines: %w", err)
		}

		// Tasks without service lines keep their directly entered costs.
		if len(lines) == 0 {
			return s.RecalculateProject(ctx, t.ProjectID)
		}

		labor, material, equipment := types.Zero(), types.Zero(), types.Zero()
		for i := range lines {
			labor = labor.Add(lines[i].LaborTotal())
			material = material.Add(lines[i].MaterialTotal())
			equipment = equipment.Add(lines[i].EquipmentTotal())
		}

		if err := s.tasks.UpdateCosts(ctx, taskID, labor, material, equipment); err != nil {
			return fmt.Errorf("update task costs: %w", err)
		}
		return s.RecalculateProject(ctx, t.ProjectID)
	})
}

// RecalculateProject refreshes realized cost and progress of a project.
// The two figures are independent; both derive from the project's tasks.
func (s *Service) RecalculateProject(ctx context.Context, projectID id.ID) error {
	tasks, err := s.tasks.ListByProject(ctx, projectID)
	if err != nil {
		return fmt.Errorf("list project tasks: %w", err)
	}

	realized := realizedCost(tasks)
	progress := projectProgress(tasks)

	if err := s.projects.UpdateCostSummary(ctx, projectID, realized, progress); err != nil {
		return fmt.Errorf("update project cost summary: %w", err)
	}

	s.log.WithContext(ctx).Debugw("project rollup recalculated",
		"project_id", projectID.String(),
		"realized_cost", realized.String(),
		"progress", progress.String(),
	)
	return nil
}

// realizedCost sums the costs of completed tasks. A task with service lines
// contributes its line-derived totals; a task without lines contributes its
// direct cost fields. A task never contributes both.
func realizedCost(tasks []*task.Task) types.Money {
	total := types.Zero()
	for _, t := range tasks {
		if !t.IsCompleted() {
			continue
		}
		total = total.Add(t.TotalCost())
	}
	return total
}

// projectProgress returns the arithmetic mean of task progress, 0 when the
// project has no tasks.
func projectProgress(tasks []*task.Task) decimal.Decimal {
	if len(tasks) == 0 {
		return decimal.Zero
	}

	sum := decimal.Zero
	for _, t := range tasks {
		sum = sum.Add(decimal.NewFromInt(int64(t.Progress)))
	}
	return sum.Div(decimal.NewFromInt(int64(len(tasks)))).Round(2)
}

var _ task.CostRecalculator = (*Service)(nil)
