package stock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"obraplan/internal/core/apperror"
	"obraplan/internal/core/entity"
	"obraplan/internal/core/id"
	"obraplan/internal/core/types"
)

type memRepo struct {
	balances  map[id.ID]entity.StockBalance
	movements []entity.StockMovement
	locked    []id.ID
}

func newMemRepo() *memRepo {
	return &memRepo{balances: make(map[id.ID]entity.StockBalance)}
}

func (r *memRepo) setBalance(materialID id.ID, qty, minimum types.Quantity) {
	r.balances[materialID] = entity.StockBalance{
		MaterialID:      materialID,
		Quantity:        qty,
		MinimumQuantity: minimum,
	}
}

func (r *memRepo) CreateMovements(ctx context.Context, movements []entity.StockMovement) error {
	r.movements = append(r.movements, movements...)
	return nil
}

func (r *memRepo) GetMovementsByRecorder(ctx context.Context, recorderID id.ID) ([]entity.StockMovement, error) {
	var out []entity.StockMovement
	for _, m := range r.movements {
		if m.RecorderID == recorderID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memRepo) GetMovementHistory(ctx context.Context, materialID id.ID, filter MovementFilter) ([]entity.StockMovement, error) {
	var out []entity.StockMovement
	for _, m := range r.movements {
		if m.MaterialID == materialID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memRepo) GetBalance(ctx context.Context, materialID id.ID) (entity.StockBalance, error) {
	balance, ok := r.balances[materialID]
	if !ok {
		return entity.StockBalance{}, apperror.NewNotFound("material", materialID.String())
	}
	return balance, nil
}

func (r *memRepo) GetBalanceForUpdate(ctx context.Context, materialID id.ID) (entity.StockBalance, error) {
	r.locked = append(r.locked, materialID)
	return r.GetBalance(ctx, materialID)
}

func (r *memRepo) GetBalances(ctx context.Context, filter BalanceFilter) ([]entity.StockBalance, error) {
	var out []entity.StockBalance
	for _, balance := range r.balances {
		if filter.ExcludeZero && balance.Quantity == 0 {
			continue
		}
		if filter.BelowMinimum && !balance.IsBelowMinimum() {
			continue
		}
		out = append(out, balance)
	}
	return out, nil
}

func (r *memRepo) DecreaseBalance(ctx context.Context, materialID id.ID, quantity types.Quantity) error {
	balance, ok := r.balances[materialID]
	if !ok || balance.Quantity < quantity {
		return apperror.NewInsufficientStock(materialID.String(), quantity.String(), balance.Quantity.String())
	}
	balance.Quantity -= quantity
	r.balances[materialID] = balance
	return nil
}

func (r *memRepo) IncreaseBalance(ctx context.Context, materialID id.ID, quantity types.Quantity) error {
	balance := r.balances[materialID]
	balance.MaterialID = materialID
	balance.Quantity += quantity
	r.balances[materialID] = balance
	return nil
}

func qty(t *testing.T, s string) types.Quantity {
	t.Helper()
	q, err := types.NewQuantityFromString(s)
	require.NoError(t, err)
	return q
}

func TestValidateSufficiency(t *testing.T) {
	ctx := context.Background()
	matA := id.New()
	matB := id.New()

	tests := []struct {
		name    string
		items   []Requirement
		wantErr bool
	}{
		{
			name:  "sufficient single material",
			items: []Requirement{{MaterialID: matA, Quantity: 30_0000}},
		},
		{
			name:    "insufficient",
			items:   []Requirement{{MaterialID: matB, Quantity: 15_0000}},
			wantErr: true,
		},
		{
			name: "duplicate lines summed before comparison",
			items: []Requirement{
				{MaterialID: matA, Quantity: 60_0000},
				{MaterialID: matA, Quantity: 50_0000},
			},
			wantErr: true,
		},
		{
			name:  "exact balance passes",
			items: []Requirement{{MaterialID: matB, Quantity: 10_0000}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMemRepo()
			repo.setBalance(matA, qty(t, "100"), 0)
			repo.setBalance(matB, qty(t, "10"), 0)
			svc := NewService(repo)

			err := svc.ValidateSufficiency(ctx, tt.items)
			if tt.wantErr {
				assert.True(t, apperror.IsInsufficientStock(err), "got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateSufficiency_LocksEveryRow(t *testing.T) {
	ctx := context.Background()
	matA := id.New()
	matB := id.New()
	repo := newMemRepo()
	repo.setBalance(matA, qty(t, "100"), 0)
	repo.setBalance(matB, qty(t, "100"), 0)
	svc := NewService(repo)

	err := svc.ValidateSufficiency(ctx, []Requirement{
		{MaterialID: matA, Quantity: qty(t, "1")},
		{MaterialID: matB, Quantity: qty(t, "1")},
	})
	require.NoError(t, err)
	assert.Equal(t, []id.ID{matA, matB}, repo.locked)
}

func TestValidateSufficiency_RejectsNonPositive(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)

	err := svc.ValidateSufficiency(context.Background(), []Requirement{
		{MaterialID: id.New(), Quantity: 0},
	})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
	assert.Empty(t, repo.locked)
}

func TestDecrease_JournalsExpenseMovements(t *testing.T) {
	ctx := context.Background()
	matA := id.New()
	repo := newMemRepo()
	repo.setBalance(matA, qty(t, "100"), 0)
	svc := NewService(repo)

	recorder := id.New()
	period := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	err := svc.Decrease(ctx, recorder, "MaterialRequest", period, []Requirement{
		{MaterialID: matA, Quantity: qty(t, "30")},
	})
	require.NoError(t, err)

	balance, err := repo.GetBalance(ctx, matA)
	require.NoError(t, err)
	assert.Equal(t, qty(t, "70"), balance.Quantity)

	movements, err := repo.GetMovementsByRecorder(ctx, recorder)
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, entity.RecordTypeExpense, movements[0].RecordType)
	assert.Equal(t, "MaterialRequest", movements[0].RecorderType)
	assert.Equal(t, period, movements[0].Period)
	assert.Equal(t, qty(t, "-30"), movements[0].SignedQuantity())
}

func TestDecrease_GuardFailureLeavesNoMovements(t *testing.T) {
	ctx := context.Background()
	matA := id.New()
	repo := newMemRepo()
	repo.setBalance(matA, qty(t, "10"), 0)
	svc := NewService(repo)

	err := svc.Decrease(ctx, id.New(), "MaterialRequest", time.Now().UTC(), []Requirement{
		{MaterialID: matA, Quantity: qty(t, "15")},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))
	assert.Empty(t, repo.movements)
}

func TestDecrease_RejectsNonPositive(t *testing.T) {
	ctx := context.Background()
	matA := id.New()

	tests := []struct {
		name     string
		quantity types.Quantity
	}{
		{name: "zero", quantity: 0},
		{name: "negative", quantity: qty(t, "-5")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMemRepo()
			repo.setBalance(matA, qty(t, "100"), 0)
			svc := NewService(repo)

			err := svc.Decrease(ctx, id.New(), "MaterialRequest", time.Now().UTC(), []Requirement{
				{MaterialID: matA, Quantity: tt.quantity},
			})
			require.Error(t, err)
			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperror.CodeValidation, appErr.Code)

			balance, err := repo.GetBalance(ctx, matA)
			require.NoError(t, err)
			assert.Equal(t, qty(t, "100"), balance.Quantity)
			assert.Empty(t, repo.movements)
		})
	}
}

func TestIncrease_JournalsReceiptMovements(t *testing.T) {
	ctx := context.Background()
	matA := id.New()
	repo := newMemRepo()
	repo.setBalance(matA, qty(t, "5"), 0)
	svc := NewService(repo)

	recorder := id.New()
	err := svc.Increase(ctx, recorder, "Adjustment", time.Now().UTC(), []Requirement{
		{MaterialID: matA, Quantity: qty(t, "20")},
	})
	require.NoError(t, err)

	balance, err := repo.GetBalance(ctx, matA)
	require.NoError(t, err)
	assert.Equal(t, qty(t, "25"), balance.Quantity)

	movements, err := repo.GetMovementsByRecorder(ctx, recorder)
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, entity.RecordTypeReceipt, movements[0].RecordType)
}

func TestIncrease_RejectsNonPositive(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)

	err := svc.Increase(context.Background(), id.New(), "Adjustment", time.Now().UTC(), []Requirement{
		{MaterialID: id.New(), Quantity: 0},
	})
	require.Error(t, err)
	assert.Empty(t, repo.movements)
}

func TestGetLowStock(t *testing.T) {
	ctx := context.Background()
	low := id.New()
	ok := id.New()
	repo := newMemRepo()
	repo.setBalance(low, qty(t, "2"), qty(t, "10"))
	repo.setBalance(ok, qty(t, "50"), qty(t, "10"))
	svc := NewService(repo)

	balances, err := svc.GetLowStock(ctx)
	require.NoError(t, err)
	require.Len(t, balances, 1)
	assert.Equal(t, low, balances[0].MaterialID)
}
