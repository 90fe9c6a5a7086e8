package material_request

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"obraplan/internal/core/apperror"
	"obraplan/internal/core/id"
	"obraplan/internal/core/types"
)

func mustMoney(t *testing.T, s string) types.Money {
	t.Helper()
	m, err := types.NewMoneyFromString(s)
	require.NoError(t, err)
	return m
}

func mustQty(t *testing.T, s string) types.Quantity {
	t.Helper()
	q, err := types.NewQuantityFromString(s)
	require.NoError(t, err)
	return q
}

func TestNewMaterialRequest_StartsPending(t *testing.T) {
	req := NewMaterialRequest(id.New(), id.New())

	assert.Equal(t, StatusPending, req.Status)
	assert.True(t, req.CanModify())
	assert.True(t, req.TotalAmount.IsZero())
	assert.Empty(t, req.Items)
}

func TestAddItem_RecalculatesTotal(t *testing.T) {
	req := NewMaterialRequest(id.New(), id.New())

	require.NoError(t, req.AddItem(id.New(), mustQty(t, "30"), mustMoney(t, "32.90"), nil))
	require.NoError(t, req.AddItem(id.New(), mustQty(t, "2.5"), mustMoney(t, "120.00"), nil))

	// 30 * 32.90 + 2.5 * 120.00 = 987.00 + 300.00
	assert.True(t, req.TotalAmount.Equal(mustMoney(t, "1287.00")),
		"total = %s", req.TotalAmount)
	assert.Equal(t, 1, req.Items[0].LineNo)
	assert.Equal(t, 2, req.Items[1].LineNo)
}

func TestRemoveItem_RenumbersLines(t *testing.T) {
	req := NewMaterialRequest(id.New(), id.New())
	require.NoError(t, req.AddItem(id.New(), mustQty(t, "1"), mustMoney(t, "10"), nil))
	require.NoError(t, req.AddItem(id.New(), mustQty(t, "1"), mustMoney(t, "20"), nil))
	require.NoError(t, req.AddItem(id.New(), mustQty(t, "1"), mustMoney(t, "30"), nil))

	require.NoError(t, req.RemoveItem(req.Items[1].LineID))

	require.Len(t, req.Items, 2)
	assert.Equal(t, 1, req.Items[0].LineNo)
	assert.Equal(t, 2, req.Items[1].LineNo)
	assert.True(t, req.TotalAmount.Equal(mustMoney(t, "40")))
}

func TestApprove_RecordsDecision(t *testing.T) {
	req := NewMaterialRequest(id.New(), id.New())
	approver := id.New()

	require.NoError(t, req.Approve(approver))

	assert.Equal(t, StatusApproved, req.Status)
	require.NotNil(t, req.ApprovedBy)
	assert.Equal(t, approver, *req.ApprovedBy)
	assert.NotNil(t, req.ApprovedAt)
	assert.Nil(t, req.RejectionReason)
	assert.False(t, req.CanModify())
}

func TestReject_RequiresReason(t *testing.T) {
	req := NewMaterialRequest(id.New(), id.New())

	err := req.Reject(id.New(), "")
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
	assert.Equal(t, StatusPending, req.Status)
}

func TestReject_RecordsReason(t *testing.T) {
	req := NewMaterialRequest(id.New(), id.New())
	approver := id.New()

	require.NoError(t, req.Reject(approver, "budget exceeded"))

	assert.Equal(t, StatusRejected, req.Status)
	require.NotNil(t, req.RejectionReason)
	assert.Equal(t, "budget exceeded", *req.RejectionReason)
	require.NotNil(t, req.ApprovedBy)
	assert.Equal(t, approver, *req.ApprovedBy)
}

func TestDecision_TerminalStatesAreImmutable(t *testing.T) {
	t.Run("approve then approve", func(t *testing.T) {
		req := NewMaterialRequest(id.New(), id.New())
		require.NoError(t, req.Approve(id.New()))

		err := req.Approve(id.New())
		assert.True(t, apperror.IsInvalidRequestState(err))
	})

	t.Run("reject then reject", func(t *testing.T) {
		req := NewMaterialRequest(id.New(), id.New())
		require.NoError(t, req.Reject(id.New(), "first reason"))

		err := req.Reject(id.New(), "second reason")
		assert.True(t, apperror.IsInvalidRequestState(err))
		require.NotNil(t, req.RejectionReason)
		assert.Equal(t, "first reason", *req.RejectionReason)
	})

	t.Run("approve then reject", func(t *testing.T) {
		req := NewMaterialRequest(id.New(), id.New())
		require.NoError(t, req.Approve(id.New()))

		err := req.Reject(id.New(), "too late")
		assert.True(t, apperror.IsInvalidRequestState(err))
		assert.Equal(t, StatusApproved, req.Status)
	})

	t.Run("modify after approval", func(t *testing.T) {
		req := NewMaterialRequest(id.New(), id.New())
		require.NoError(t, req.Approve(id.New()))

		err := req.AddItem(id.New(), mustQty(t, "1"), mustMoney(t, "10"), nil)
		assert.True(t, apperror.IsInvalidRequestState(err))
	})
}

func TestValidate_StateInvariants(t *testing.T) {
	ctx := context.Background()

	req := NewMaterialRequest(id.New(), id.New())
	req.Number = "SM-2026-00001"
	require.NoError(t, req.AddItem(id.New(), mustQty(t, "1"), mustMoney(t, "10"), nil))
	require.NoError(t, req.Validate(ctx))

	// Rejection reason on a pending request is inconsistent.
	reason := "invalid"
	req.RejectionReason = &reason
	assert.Error(t, req.Validate(ctx))
}

func TestItemTotalPrice(t *testing.T) {
	item := Item{
		Quantity:  mustQty(t, "3.5"),
		UnitPrice: mustMoney(t, "7.80"),
	}
	assert.True(t, item.TotalPrice().Equal(mustMoney(t, "27.30")))
}
