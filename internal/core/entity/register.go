// Package entity provides core domain entities.
package entity

import (
	"time"

	"obraplan/internal/core/id"
	"obraplan/internal/core/types"
)

// RecordType defines movement direction for the stock ledger.
type RecordType string

const (
	// RecordTypeReceipt increases the material balance
	RecordTypeReceipt RecordType = "receipt"
	// RecordTypeExpense decreases the material balance
	RecordTypeExpense RecordType = "expense"
)

// StockMovement is one immutable journal line of the stock ledger.
// Movements are never updated; the balance on the material row is the
// authoritative quantity, the journal is its history.
type StockMovement struct {
	// LineID is unique identifier for this movement line (UUIDv7)
	LineID id.ID `db:"line_id" json:"lineId"`

	// RecorderID is the document that caused this movement
	// (material request on approval, manual adjustment otherwise)
	RecorderID id.ID `db:"recorder_id" json:"recorderId"`

	// RecorderType is the document type (e.g., "MaterialRequest", "Adjustment")
	RecorderType string `db:"recorder_type" json:"recorderType"`

	// Period is the business date for the movement (for period-based queries)
	Period time.Time `db:"period" json:"period"`

	// RecordType: receipt or expense
	RecordType RecordType `db:"record_type" json:"recordType"`

	// MaterialID is the ledger dimension
	MaterialID id.ID `db:"material_id" json:"materialId"`

	// Quantity moved (always positive; direction comes from RecordType)
	Quantity types.Quantity `db:"quantity" json:"quantity"`

	// CreatedAt is when the movement was recorded
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewStockMovement creates a new stock movement line.
func NewStockMovement(
	recorderID id.ID,
	recorderType string,
	period time.Time,
	recordType RecordType,
	materialID id.ID,
	quantity types.Quantity,
) StockMovement {
	return StockMovement{
		LineID:       id.New(),
		RecorderID:   recorderID,
		RecorderType: recorderType,
		Period:       period,
		RecordType:   recordType,
		MaterialID:   materialID,
		Quantity:     quantity,
		CreatedAt:    time.Now().UTC(),
	}
}

// SignedQuantity returns quantity with sign based on record type.
// Receipt = positive, Expense = negative.
func (m *StockMovement) SignedQuantity() types.Quantity {
	if m.RecordType == RecordTypeExpense {
		return m.Quantity.Neg()
	}
	return m.Quantity
}

// StockBalance is the current ledger position of one material.
// Backed by the current_stock / minimum_stock columns of the material row.
type StockBalance struct {
	MaterialID id.ID `db:"material_id" json:"materialId"`

	Quantity        types.Quantity `db:"quantity" json:"quantity"`
	MinimumQuantity types.Quantity `db:"minimum_quantity" json:"minimumQuantity"`

	// StockUpdatedAt is bumped by every successful ledger mutation
	StockUpdatedAt time.Time `db:"stock_updated_at" json:"stockUpdatedAt"`
}

// IsBelowMinimum reports whether the balance fell under the reorder threshold.
func (b *StockBalance) IsBelowMinimum() bool {
	return b.Quantity < b.MinimumQuantity
}
