package task

import (
	"context"
	"fmt"
	"time"

	"obraplan/internal/core/apperror"
	"obraplan/internal/core/id"
	"obraplan/internal/core/tx"
	"obraplan/internal/domain"
	svc "obraplan/internal/domain/catalogs/service"
	"obraplan/pkg/numerator"
)

// ServiceLookup resolves service master records for line cost snapshots.
type ServiceLookup interface {
	GetByID(ctx context.Context, id id.ID) (*svc.Service, error)
}

// CostRecalculator propagates cost and progress changes upward.
// Implemented by the costing service; injected to avoid an import cycle.
type CostRecalculator interface {
	RecalculateTaskCosts(ctx context.Context, taskID id.ID) error
	RecalculateProject(ctx context.Context, projectID id.ID) error
}

// Service provides business logic for the Task catalog.
type Service struct {
	*domain.CatalogService[*Task]
	repo      Repository
	services  ServiceLookup
	costing   CostRecalculator
	txManager tx.Manager
	numerator numerator.Generator
}

// NewService creates a new Task service.
func NewService(repo Repository, services ServiceLookup, txManager tx.Manager, num numerator.Generator) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Task]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "task",
	})

	s := &Service{
		CatalogService: base,
		repo:           repo,
		services:       services,
		txManager:      txManager,
		numerator:      num,
	}

	base.Hooks().On(domain.BeforeCreate, s.prepareForCreate)

	return s
}

// SetCostRecalculator wires the costing service after construction.
func (s *Service) SetCostRecalculator(c CostRecalculator) {
	s.costing = c
}

func (s *Service) prepareForCreate(ctx context.Context, t *Task) error {
	if t.Code == "" {
		code, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("TRF"), nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		t.Code = code
	}
	return nil
}

// GetWithLines retrieves a task with its service lines loaded.
func (s *Service) GetWithLines(ctx context.Context, taskID id.ID) (*Task, error) {
	t, err := s.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	lines, err := s.repo.GetLines(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("load task lines: %w", err)
	}
	t.Lines = lines

	return t, nil
}

// ListByProject retrieves all tasks of a project.
func (s *Service) ListByProject(ctx context.Context, projectID id.ID) ([]*Task, error) {
	return s.repo.ListByProject(ctx, projectID)
}

// snapshotLineCosts copies unit costs from the service master onto each line.
// Override values supplied by the caller are preserved.
func (s *Service) snapshotLineCosts(ctx context.Context, t *Task) error {
	for i := range t.Lines {
		line := &t.Lines[i]
		master, err := s.services.GetByID(ctx, line.ServiceID)
		if err != nil {
			return err
		}
		line.LaborUnitCost = master.LaborUnitCost
		line.MaterialUnitCost = master.MaterialUnitCost
		line.EquipmentUnitCost = master.EquipmentUnitCost
		if id.IsNil(line.LineID) {
			line.LineID = id.New()
		}
		line.LineNo = i + 1
	}
	return nil
}

// CreateWithLines creates a task together with its service lines and rolls
// costs up.
func (s *Service) CreateWithLines(ctx context.Context, t *Task) error {
	if err := s.snapshotLineCosts(ctx, t); err != nil {
		return err
	}
	if err := t.Validate(ctx); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.Create(ctx, t); err != nil {
			return err
		}
		if len(t.Lines) > 0 {
			if err := s.repo.SaveLines(ctx, t.ID, t.Lines); err != nil {
				return fmt.Errorf("save task lines: %w", err)
			}
		}
		if s.costing != nil {
			return s.costing.RecalculateTaskCosts(ctx, t.ID)
		}
		return nil
	})
	return err
}

// UpdateWithLines updates a task and replaces its service lines, then rolls
// costs up.
func (s *Service) UpdateWithLines(ctx context.Context, t *Task) error {
	if err := s.snapshotLineCosts(ctx, t); err != nil {
		return err
	}
	if err := t.Validate(ctx); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.Update(ctx, t); err != nil {
			return err
		}
		if err := s.repo.SaveLines(ctx, t.ID, t.Lines); err != nil {
			return fmt.Errorf("save task lines: %w", err)
		}
		if s.costing != nil {
			return s.costing.RecalculateTaskCosts(ctx, t.ID)
		}
		return nil
	})
	return err
}

// Recalculate forces a cost recompute for the task and its project.
func (s *Service) Recalculate(ctx context.Context, taskID id.ID) error {
	if s.costing == nil {
		return nil
	}
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.costing.RecalculateTaskCosts(ctx, taskID)
	})
}

// SetStatus transitions the task and propagates the change to the project
// rollups. Completing a task forces progress to 100.
func (s *Service) SetStatus(ctx context.Context, taskID id.ID, status Status) error {
	if !isValidStatus(status) {
		return apperror.NewValidation("invalid task status").
			WithDetail("field", "status").
			WithDetail("value", string(status))
	}

	t, err := s.GetByID(ctx, taskID)
	if err != nil {
		return err
	}

	t.Status = status
	if status == StatusCompleted {
		t.Progress = 100
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.Update(ctx, t); err != nil {
			return err
		}
		if s.costing != nil {
			return s.costing.RecalculateProject(ctx, t.ProjectID)
		}
		return nil
	})
}

// SetProgress updates the completion percentage and propagates it upward.
func (s *Service) SetProgress(ctx context.Context, taskID id.ID, progress int) error {
	if progress < 0 || progress > 100 {
		return apperror.NewValidation("progress must be between 0 and 100").
			WithDetail("field", "progress").
			WithDetail("value", progress)
	}

	t, err := s.GetByID(ctx, taskID)
	if err != nil {
		return err
	}

	t.Progress = progress

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.Update(ctx, t); err != nil {
			return err
		}
		if s.costing != nil {
			return s.costing.RecalculateProject(ctx, t.ProjectID)
		}
		return nil
	})
}
