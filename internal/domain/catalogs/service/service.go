package service

import (
	"context"
	"fmt"
	"time"

	"obraplan/internal/core/apperror"
	"obraplan/internal/core/tx"
	"obraplan/internal/domain"
	"obraplan/pkg/numerator"
)

// CatalogService provides business logic for the Service catalog.
type CatalogService struct {
	*domain.CatalogService[*Service]
	repo      Repository
	numerator numerator.Generator
}

// NewCatalogService creates a new Service catalog service.
func NewCatalogService(repo Repository, txManager tx.Manager, num numerator.Generator) *CatalogService {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Service]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "service",
	})

	svc := &CatalogService{
		CatalogService: base,
		repo:           repo,
		numerator:      num,
	}

	base.Hooks().On(domain.BeforeCreate, svc.prepareForCreate)

	return svc
}

func (s *CatalogService) prepareForCreate(ctx context.Context, item *Service) error {
	if item.Code == "" {
		code, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("SRV"), nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		item.Code = code
		return nil
	}

	if exists, _ := s.repo.ExistsByCode(ctx, item.Code); exists {
		return apperror.NewConflict("service with this code already exists").
			WithDetail("code", item.Code)
	}
	return nil
}
