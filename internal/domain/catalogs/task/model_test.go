package task

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"obraplan/internal/core/id"
	"obraplan/internal/core/types"
)

func money(t *testing.T, s string) types.Money {
	t.Helper()
	m, err := types.NewMoneyFromString(s)
	require.NoError(t, err)
	return m
}

func quantity(t *testing.T, s string) types.Quantity {
	t.Helper()
	q, err := types.NewQuantityFromString(s)
	require.NoError(t, err)
	return q
}

func TestServiceLine_EffectiveLaborUnitCost(t *testing.T) {
	line := ServiceLine{
		Quantity:          quantity(t, "10"),
		LaborUnitCost:     money(t, "4.00"),
		MaterialUnitCost:  money(t, "1.00"),
		EquipmentUnitCost: money(t, "0.20"),
	}

	assert.True(t, line.EffectiveLaborUnitCost().Equal(money(t, "4.00")))
	assert.True(t, line.LaborTotal().Equal(money(t, "40")))

	override := money(t, "5.50")
	line.LaborCostOverride = &override

	assert.True(t, line.EffectiveLaborUnitCost().Equal(override))
	assert.True(t, line.LaborTotal().Equal(money(t, "55")))
	// Override touches only the labor bucket.
	assert.True(t, line.MaterialTotal().Equal(money(t, "10")))
	assert.True(t, line.EquipmentTotal().Equal(money(t, "2")))
}

func TestServiceLine_TotalCost(t *testing.T) {
	line := ServiceLine{
		Quantity:          quantity(t, "10"),
		LaborUnitCost:     money(t, "4.00"),
		MaterialUnitCost:  money(t, "1.00"),
		EquipmentUnitCost: money(t, "0.20"),
	}

	assert.True(t, line.TotalCost().Equal(money(t, "52")), "total = %s", line.TotalCost())
}

func TestTask_AddLineNumbersSequentially(t *testing.T) {
	tk := NewTask("TRF-001", "Alvenaria", id.New())

	tk.AddLine(id.New(), quantity(t, "5"), money(t, "10"), money(t, "2"), money(t, "1"), nil)
	tk.AddLine(id.New(), quantity(t, "3"), money(t, "8"), money(t, "1"), money(t, "0.5"), nil)

	require.Len(t, tk.Lines, 2)
	assert.Equal(t, 1, tk.Lines[0].LineNo)
	assert.Equal(t, 2, tk.Lines[1].LineNo)
	assert.False(t, id.IsNil(tk.Lines[0].LineID))
}

func TestTask_TotalCost(t *testing.T) {
	tk := NewTask("TRF-001", "Fundação", id.New())
	tk.LaborCost = money(t, "40")
	tk.MaterialCost = money(t, "10")
	tk.EquipmentCost = money(t, "2")

	assert.True(t, tk.TotalCost().Equal(money(t, "52")))
}

func TestTask_Validate(t *testing.T) {
	ctx := context.Background()

	t.Run("valid", func(t *testing.T) {
		tk := NewTask("TRF-001", "Alvenaria", id.New())
		tk.Progress = 50
		assert.NoError(t, tk.Validate(ctx))
	})

	t.Run("progress out of range", func(t *testing.T) {
		tk := NewTask("TRF-001", "Alvenaria", id.New())
		tk.Progress = 101
		assert.Error(t, tk.Validate(ctx))
	})

	t.Run("missing project", func(t *testing.T) {
		tk := NewTask("TRF-001", "Alvenaria", id.ID{})
		assert.Error(t, tk.Validate(ctx))
	})

	t.Run("invalid status", func(t *testing.T) {
		tk := NewTask("TRF-001", "Alvenaria", id.New())
		tk.Status = Status("FINALIZADA")
		assert.Error(t, tk.Validate(ctx))
	})

	t.Run("negative line quantity", func(t *testing.T) {
		tk := NewTask("TRF-001", "Alvenaria", id.New())
		tk.AddLine(id.New(), quantity(t, "-1"), money(t, "10"), money(t, "2"), money(t, "1"), nil)
		assert.Error(t, tk.Validate(ctx))
	})
}

func TestTask_IsCompleted(t *testing.T) {
	tk := NewTask("TRF-001", "Alvenaria", id.New())
	assert.False(t, tk.IsCompleted())

	tk.Status = StatusCompleted
	assert.True(t, tk.IsCompleted())
}
