package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"obraplan/internal/core/entity"
	"obraplan/internal/core/types"
	"obraplan/internal/domain/catalogs/material"
)

type testOrder struct {
	entity.Catalog

	Amount   types.Money    `db:"amount" json:"amount"`
	Quantity types.Quantity `db:"quantity" json:"quantity"`
	Internal string         `db:"-" json:"-"`
	NoTag    string
}

func TestExtractDBColumns(t *testing.T) {
	t.Run("flattens embedded structs", func(t *testing.T) {
		cols := ExtractDBColumns[testOrder]()

		assert.Equal(t, []string{
			"id", "deletion_mark", "version",
			"code", "name",
			"amount", "quantity",
		}, cols)
	})

	t.Run("pointer type", func(t *testing.T) {
		cols := ExtractDBColumns[*testOrder]()
		assert.Contains(t, cols, "amount")
		assert.Contains(t, cols, "code")
	})

	t.Run("skips untagged and dashed fields", func(t *testing.T) {
		cols := ExtractDBColumns[testOrder]()
		assert.NotContains(t, cols, "-")
		assert.NotContains(t, cols, "Internal")
		assert.NotContains(t, cols, "NoTag")
	})

	t.Run("material catalog entity", func(t *testing.T) {
		cols := ExtractDBColumns[material.Material]()

		for _, want := range []string{"id", "deletion_mark", "version", "code", "name", "unit", "unit_price", "minimum_stock"} {
			assert.Contains(t, cols, want)
		}
	})

	t.Run("non-struct returns nil", func(t *testing.T) {
		assert.Nil(t, ExtractDBColumns[int]())
	})
}

func TestStructToMap(t *testing.T) {
	order := testOrder{
		Catalog:  entity.NewCatalog("ORD-001", "Test order"),
		Amount:   types.MustMoney("99.90"),
		Quantity: 50000,
		Internal: "hidden",
		NoTag:    "also hidden",
	}

	m := StructToMap(&order)

	assert.Equal(t, order.ID, m["id"])
	assert.Equal(t, "ORD-001", m["code"])
	assert.Equal(t, "Test order", m["name"])
	assert.Equal(t, false, m["deletion_mark"])
	assert.Equal(t, 1, m["version"])
	assert.Equal(t, order.Amount, m["amount"])
	assert.Equal(t, types.Quantity(50000), m["quantity"])

	_, hasInternal := m["Internal"]
	assert.False(t, hasInternal)
	assert.Len(t, m, 7)
}

func TestStructToMap_ValueAndPointerAgree(t *testing.T) {
	order := testOrder{
		Catalog: entity.NewCatalog("ORD-002", "Another order"),
		Amount:  types.MustMoney("10"),
	}

	assert.Equal(t, StructToMap(order), StructToMap(&order))
}

func TestStructToMap_NonStruct(t *testing.T) {
	assert.Nil(t, StructToMap(42))
	assert.Nil(t, StructToMap("not a struct"))
}
