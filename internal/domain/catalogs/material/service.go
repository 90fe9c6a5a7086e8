package material

import (
	"context"
	"fmt"
	"time"

	"obraplan/internal/core/apperror"
	"obraplan/internal/core/tx"
	"obraplan/internal/domain"
	"obraplan/pkg/numerator"
)

// Service provides business logic for the Material catalog.
// Uses composition with domain.CatalogService for common CRUD operations.
type Service struct {
	*domain.CatalogService[*Material]
	repo      Repository
	numerator numerator.Generator
}

// NewService creates a new Material service.
func NewService(repo Repository, txManager tx.Manager, num numerator.Generator) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Material]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "material",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		numerator:      num,
	}

	base.Hooks().On(domain.BeforeCreate, svc.prepareForCreate)

	return svc
}

// prepareForCreate handles code generation and uniqueness checks.
func (s *Service) prepareForCreate(ctx context.Context, m *Material) error {
	if m.Code == "" {
		code, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("MAT"), nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		m.Code = code
		return nil
	}

	if exists, _ := s.repo.ExistsByCode(ctx, m.Code); exists {
		return apperror.NewConflict("material with this code already exists").
			WithDetail("code", m.Code)
	}
	return nil
}

// FindLowStock retrieves materials with stock at or below minimum.
func (s *Service) FindLowStock(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Material], error) {
	return s.repo.FindLowStock(ctx, filter)
}
