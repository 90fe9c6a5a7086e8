package project

import (
	"context"
	"fmt"
	"time"

	"obraplan/internal/core/apperror"
	"obraplan/internal/core/id"
	"obraplan/internal/core/tx"
	"obraplan/internal/domain"
	"obraplan/pkg/numerator"
)

// Service provides business logic for the Project catalog.
type Service struct {
	*domain.CatalogService[*Project]
	repo      Repository
	numerator numerator.Generator
}

// NewService creates a new Project service.
func NewService(repo Repository, txManager tx.Manager, num numerator.Generator) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Project]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "project",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		numerator:      num,
	}

	base.Hooks().On(domain.BeforeCreate, svc.prepareForCreate)

	return svc
}

func (s *Service) prepareForCreate(ctx context.Context, p *Project) error {
	if p.Code == "" {
		code, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("OBR"), nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		p.Code = code
		return nil
	}

	if exists, _ := s.repo.ExistsByCode(ctx, p.Code); exists {
		return apperror.NewConflict("project with this code already exists").
			WithDetail("code", p.Code)
	}
	return nil
}

// SetStatus transitions the project to a new status.
func (s *Service) SetStatus(ctx context.Context, projectID id.ID, status Status) error {
	if !isValidStatus(status) {
		return apperror.NewValidation("invalid project status").
			WithDetail("field", "status").
			WithDetail("value", string(status))
	}

	p, err := s.GetByID(ctx, projectID)
	if err != nil {
		return err
	}

	p.Status = status
	return s.Update(ctx, p)
}
