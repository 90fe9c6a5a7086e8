// Package stock provides the stock ledger service.
package stock

import (
	"context"
	"fmt"
	"time"

	"obraplan/internal/core/apperror"
	"obraplan/internal/core/entity"
	"obraplan/internal/core/id"
	"obraplan/internal/core/types"
	"obraplan/pkg/logger"
)

// Requirement is one material demand to validate or post against the ledger.
type Requirement struct {
	MaterialID id.ID
	Quantity   types.Quantity
}

// Service provides business operations for the stock ledger.
// Transactions are managed by the caller: ValidateSufficiency and the
// mutation methods must run inside the same transaction.
type Service struct {
	repo Repository
}

// NewService creates a new stock ledger service.
func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
	}
}

// ValidateSufficiency checks stock availability with pessimistic locking.
// Locks every material row before reporting the first shortage, so the
// check holds until the caller's transaction commits. Requirements for the
// same material are summed before comparison.
func (s *Service) ValidateSufficiency(ctx context.Context, items []Requirement) error {
	required := make(map[id.ID]types.Quantity, len(items))
	order := make([]id.ID, 0, len(items))
	for _, item := range items {
		if !item.Quantity.IsPositive() {
			return apperror.NewValidation("required quantity must be positive").
				WithDetail("materialId", item.MaterialID.String())
		}
		if _, seen := required[item.MaterialID]; !seen {
			order = append(order, item.MaterialID)
		}
		required[item.MaterialID] += item.Quantity
	}

	for _, materialID := range order {
		balance, err := s.repo.GetBalanceForUpdate(ctx, materialID)
		if err != nil {
			return fmt.Errorf("get balance for %s: %w", materialID, err)
		}

		if balance.Quantity < required[materialID] {
			return apperror.NewInsufficientStock(
				materialID.String(),
				required[materialID].String(),
				balance.Quantity.String(),
			)
		}
	}

	return nil
}

// Decrease posts expense movements and decrements balances.
// Each decrement is guarded at the database level, so a shortage that
// appears after ValidateSufficiency still cannot drive a balance negative.
func (s *Service) Decrease(ctx context.Context, recorderID id.ID, recorderType string, period time.Time, items []Requirement) error {
	movements := make([]entity.StockMovement, 0, len(items))
	for _, item := range items {
		if !item.Quantity.IsPositive() {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("materialId", item.MaterialID.String())
		}
		if err := s.repo.DecreaseBalance(ctx, item.MaterialID, item.Quantity); err != nil {
			return fmt.Errorf("decrease balance for %s: %w", item.MaterialID, err)
		}
		movements = append(movements, entity.NewStockMovement(
			recorderID, recorderType, period,
			entity.RecordTypeExpense,
			item.MaterialID, item.Quantity,
		))
	}

	if err := s.repo.CreateMovements(ctx, movements); err != nil {
		return fmt.Errorf("create movements: %w", err)
	}

	logger.Info(ctx, "stock decreased",
		"recorder_id", recorderID.String(),
		"count", len(movements),
	)
	return nil
}

// Increase posts receipt movements and increments balances.
// Used for goods receipts and for reversing previously issued stock.
func (s *Service) Increase(ctx context.Context, recorderID id.ID, recorderType string, period time.Time, items []Requirement) error {
	movements := make([]entity.StockMovement, 0, len(items))
	for _, item := range items {
		if !item.Quantity.IsPositive() {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("materialId", item.MaterialID.String())
		}
		if err := s.repo.IncreaseBalance(ctx, item.MaterialID, item.Quantity); err != nil {
			return fmt.Errorf("increase balance for %s: %w", item.MaterialID, err)
		}
		movements = append(movements, entity.NewStockMovement(
			recorderID, recorderType, period,
			entity.RecordTypeReceipt,
			item.MaterialID, item.Quantity,
		))
	}

	if err := s.repo.CreateMovements(ctx, movements); err != nil {
		return fmt.Errorf("create movements: %w", err)
	}

	logger.Info(ctx, "stock increased",
		"recorder_id", recorderID.String(),
		"count", len(movements),
	)
	return nil
}

// GetBalance returns the current balance for a material.
func (s *Service) GetBalance(ctx context.Context, materialID id.ID) (entity.StockBalance, error) {
	return s.repo.GetBalance(ctx, materialID)
}

// GetBalances returns balances matching the filter.
func (s *Service) GetBalances(ctx context.Context, filter BalanceFilter) ([]entity.StockBalance, error) {
	return s.repo.GetBalances(ctx, filter)
}

// GetLowStock returns balances at or below the minimum threshold.
func (s *Service) GetLowStock(ctx context.Context) ([]entity.StockBalance, error) {
	return s.repo.GetBalances(ctx, BalanceFilter{BelowMinimum: true})
}

// GetMovementHistory returns the movement journal for a material.
func (s *Service) GetMovementHistory(ctx context.Context, materialID id.ID, filter MovementFilter) ([]entity.StockMovement, error) {
	return s.repo.GetMovementHistory(ctx, materialID, filter)
}
