// Package stock provides the stock ledger.
package stock

import (
	"context"
	"time"

	"obraplan/internal/core/entity"
	"obraplan/internal/core/id"
	"obraplan/internal/core/types"
)

// Repository defines operations for the stock ledger.
// Balances live on the material row; movements are the immutable journal.
type Repository interface {
	// Movement operations

	// CreateMovements batch inserts journal lines
	CreateMovements(ctx context.Context, movements []entity.StockMovement) error

	// GetMovementsByRecorder retrieves all movements caused by a document
	GetMovementsByRecorder(ctx context.Context, recorderID id.ID) ([]entity.StockMovement, error)

	// GetMovementHistory returns movement history for a material
	GetMovementHistory(ctx context.Context, materialID id.ID, filter MovementFilter) ([]entity.StockMovement, error)

	// Balance operations

	// GetBalance returns the current balance for a material
	GetBalance(ctx context.Context, materialID id.ID) (entity.StockBalance, error)

	// GetBalanceForUpdate returns the balance with a row lock.
	// Must be called inside a transaction.
	GetBalanceForUpdate(ctx context.Context, materialID id.ID) (entity.StockBalance, error)

	// GetBalances returns balances for the given filter
	GetBalances(ctx context.Context, filter BalanceFilter) ([]entity.StockBalance, error)

	// Mutations

	// DecreaseBalance atomically decrements the balance, guarded by a
	// current_stock >= quantity condition. Returns
	// apperror.CodeInsufficientStock when the guard fails.
	DecreaseBalance(ctx context.Context, materialID id.ID, quantity types.Quantity) error

	// IncreaseBalance atomically increments the balance.
	IncreaseBalance(ctx context.Context, materialID id.ID, quantity types.Quantity) error
}

// BalanceFilter for filtering balance queries.
type BalanceFilter struct {
	MaterialIDs  []id.ID
	ExcludeZero  bool
	BelowMinimum bool
}

// MovementFilter for filtering movement history.
type MovementFilter struct {
	RecordType *entity.RecordType
	FromDate   *time.Time
	ToDate     *time.Time
	Limit      int
	Offset     int
}
