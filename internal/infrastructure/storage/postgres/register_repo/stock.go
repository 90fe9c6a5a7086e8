// Package register_repo provides PostgreSQL implementations for register
// repositories.
package register_repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"obraplan/internal/core/apperror"
	"obraplan/internal/core/entity"
	"obraplan/internal/core/id"
	"obraplan/internal/core/types"
	"obraplan/internal/domain/registers/stock"
	"obraplan/internal/infrastructure/storage/postgres"
)

const (
	stockMovementsTable = "reg_stock_movements"
	materialsTable      = "cat_materials"
)

var movementColumns = []string{
	"line_id", "recorder_id", "recorder_type",
	"period", "record_type",
	"material_id", "quantity", "created_at",
}

// StockRepo implements stock.Repository. Balances live on the material row;
// reg_stock_movements is the append-only journal.
type StockRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewStockRepo creates a new stock register repository.
func NewStockRepo(txm *postgres.TxManager) *StockRepo {
	return &StockRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// CreateMovements batch inserts journal lines.
func (r *StockRepo) CreateMovements(ctx context.Context, movements []entity.StockMovement) error {
	if len(movements) == 0 {
		return nil
	}

	// Fast path: COPY when inside a transaction.
	if tx := r.txm.GetTx(ctx); tx != nil {
		inserter := postgres.NewBatchInserter(r.txm)
		rows := make([][]any, 0, len(movements))
		for _, m := range movements {
			rows = append(rows, []any{
				m.LineID, m.RecorderID, m.RecorderType,
				m.Period, m.RecordType,
				m.MaterialID, m.Quantity, m.CreatedAt,
			})
		}
		if _, err := inserter.CopyFromSlice(ctx, stockMovementsTable, movementColumns, rows); err != nil {
			return fmt.Errorf("copy movements: %w", err)
		}
		return nil
	}

	q := r.builder.Insert(stockMovementsTable).Columns(movementColumns...)
	for _, m := range movements {
		q = q.Values(
			m.LineID, m.RecorderID, m.RecorderType,
			m.Period, m.RecordType,
			m.MaterialID, m.Quantity, m.CreatedAt,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert movements: %w", err)
	}

	return nil
}

// GetMovementsByRecorder retrieves movements caused by a document.
func (r *StockRepo) GetMovementsByRecorder(ctx context.Context, recorderID id.ID) ([]entity.StockMovement, error) {
	q := r.builder.Select(movementColumns...).
		From(stockMovementsTable).
		Where(squirrel.Eq{"recorder_id": recorderID}).
		OrderBy("created_at")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var movements []entity.StockMovement
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("select movements: %w", err)
	}

	return movements, nil
}

// GetMovementHistory returns movement history for a material.
func (r *StockRepo) GetMovementHistory(ctx context.Context, materialID id.ID, filter stock.MovementFilter) ([]entity.StockMovement, error) {
	q := r.builder.Select(movementColumns...).
		From(stockMovementsTable).
		Where(squirrel.Eq{"material_id": materialID})

	if filter.RecordType != nil {
		q = q.Where(squirrel.Eq{"record_type": *filter.RecordType})
	}

	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"period": *filter.FromDate})
	}

	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"period": *filter.ToDate})
	}

	q = q.OrderBy("period DESC", "created_at DESC")

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var movements []entity.StockMovement
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("select history: %w", err)
	}

	return movements, nil
}

func (r *StockRepo) balanceSelect() squirrel.SelectBuilder {
	return r.builder.Select(
		"id AS material_id",
		"current_stock AS quantity",
		"minimum_stock AS minimum_quantity",
		"COALESCE(stock_updated_at, updated_at) AS stock_updated_at",
	).From(materialsTable)
}

// GetBalance returns the current balance for a material.
func (r *StockRepo) GetBalance(ctx context.Context, materialID id.ID) (entity.StockBalance, error) {
	return r.getBalance(ctx, materialID, false)
}

// GetBalanceForUpdate returns the balance with a row lock held for the rest
// of the transaction.
func (r *StockRepo) GetBalanceForUpdate(ctx context.Context, materialID id.ID) (entity.StockBalance, error) {
	return r.getBalance(ctx, materialID, true)
}

func (r *StockRepo) getBalance(ctx context.Context, materialID id.ID, forUpdate bool) (entity.StockBalance, error) {
	var balance entity.StockBalance

	q := r.balanceSelect().
		Where(squirrel.Eq{"id": materialID}).
		Limit(1)
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return balance, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &balance, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return balance, apperror.NewNotFound("material", materialID.String())
		}
		return balance, fmt.Errorf("get balance: %w", err)
	}

	return balance, nil
}

// GetBalances returns balances for the given filter.
func (r *StockRepo) GetBalances(ctx context.Context, filter stock.BalanceFilter) ([]entity.StockBalance, error) {
	q := r.balanceSelect().
		Where(squirrel.Eq{"deletion_mark": false})

	if len(filter.MaterialIDs) > 0 {
		q = q.Where(squirrel.Eq{"id": filter.MaterialIDs})
	}

	if filter.ExcludeZero {
		q = q.Where(squirrel.NotEq{"current_stock": int64(0)})
	}

	if filter.BelowMinimum {
		q = q.Where(squirrel.Expr("minimum_stock > 0")).
			Where(squirrel.Expr("current_stock <= minimum_stock"))
	}

	q = q.OrderBy("code")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var balances []entity.StockBalance
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &balances, sql, args...); err != nil {
		return nil, fmt.Errorf("select balances: %w", err)
	}

	return balances, nil
}

// DecreaseBalance decrements the balance guarded by the current level. The
// WHERE condition makes the check and the write a single atomic statement.
func (r *StockRepo) DecreaseBalance(ctx context.Context, materialID id.ID, quantity types.Quantity) error {
	sql := `
		UPDATE cat_materials
		SET current_stock = current_stock - $2,
		    stock_updated_at = NOW()
		WHERE id = $1 AND current_stock >= $2 AND $2 > 0
	`

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, materialID, quantity)
	if err != nil {
		return fmt.Errorf("decrease balance: %w", err)
	}

	if result.RowsAffected() == 0 {
		balance, balErr := r.GetBalance(ctx, materialID)
		if balErr != nil {
			return balErr
		}
		return apperror.NewInsufficientStock(
			materialID.String(), quantity.String(), balance.Quantity.String())
	}

	return nil
}

// IncreaseBalance increments the balance.
func (r *StockRepo) IncreaseBalance(ctx context.Context, materialID id.ID, quantity types.Quantity) error {
	sql := `
		UPDATE cat_materials
		SET current_stock = current_stock + $2,
		    stock_updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, materialID, quantity)
	if err != nil {
		return fmt.Errorf("increase balance: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("material", materialID.String())
	}

	return nil
}

// GetBalanceAtDate calculates the balance as of a date from the journal.
func (r *StockRepo) GetBalanceAtDate(ctx context.Context, materialID id.ID, date time.Time) (types.Quantity, error) {
	sql := `
		SELECT COALESCE(
			SUM(CASE WHEN record_type = 'receipt' THEN quantity ELSE -quantity END),
			0
		)
		FROM reg_stock_movements
		WHERE material_id = $1
		  AND period <= $2
	`

	var balanceScaled int64
	err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, materialID, date).Scan(&balanceScaled)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("calculate balance at date: %w", err)
	}

	return types.NewQuantityFromInt64Scaled(balanceScaled), nil
}

// Ensure interface compliance.
var _ stock.Repository = (*StockRepo)(nil)
