package dto

import (
	"time"

	"obraplan/internal/core/entity"
	"obraplan/internal/core/id"
	"obraplan/internal/core/types"
)

// StockBalanceResponse is the API representation of a material balance.
type StockBalanceResponse struct {
	MaterialID      id.ID          `json:"materialId"`
	Quantity        types.Quantity `json:"quantity"`
	MinimumQuantity types.Quantity `json:"minimumQuantity"`
	BelowMinimum    bool           `json:"belowMinimum"`
	StockUpdatedAt  time.Time      `json:"stockUpdatedAt"`
}

func FromStockBalance(b entity.StockBalance) StockBalanceResponse {
	return StockBalanceResponse{
		MaterialID:      b.MaterialID,
		Quantity:        b.Quantity,
		MinimumQuantity: b.MinimumQuantity,
		BelowMinimum:    b.IsBelowMinimum(),
		StockUpdatedAt:  b.StockUpdatedAt,
	}
}

func FromStockBalances(items []entity.StockBalance) []StockBalanceResponse {
	out := make([]StockBalanceResponse, len(items))
	for i, b := range items {
		out[i] = FromStockBalance(b)
	}
	return out
}

// StockMovementResponse is the API representation of one ledger movement.
type StockMovementResponse struct {
	LineID       id.ID          `json:"lineId"`
	RecorderID   id.ID          `json:"recorderId"`
	RecorderType string         `json:"recorderType"`
	Period       time.Time      `json:"period"`
	RecordType   string         `json:"recordType"`
	MaterialID   id.ID          `json:"materialId"`
	Quantity     types.Quantity `json:"quantity"`
	CreatedAt    time.Time      `json:"createdAt"`
}

func FromStockMovements(items []entity.StockMovement) []StockMovementResponse {
	out := make([]StockMovementResponse, len(items))
	for i, m := range items {
		out[i] = StockMovementResponse{
			LineID:       m.LineID,
			RecorderID:   m.RecorderID,
			RecorderType: m.RecorderType,
			Period:       m.Period,
			RecordType:   string(m.RecordType),
			MaterialID:   m.MaterialID,
			Quantity:     m.Quantity,
			CreatedAt:    m.CreatedAt,
		}
	}
	return out
}

// StockAdjustmentRequest posts a manual receipt or expense movement.
type StockAdjustmentRequest struct {
	MaterialID id.ID          `json:"materialId" binding:"required"`
	Quantity   types.Quantity `json:"quantity" binding:"required"`
	// Direction is "receipt" or "expense"
	Direction string     `json:"direction" binding:"required,oneof=receipt expense"`
	Period    *time.Time `json:"period"`
}

// MovementHistoryQuery filters the per-material movement history.
type MovementHistoryQuery struct {
	PaginationRequest
	RecordType *string `form:"recordType" binding:"omitempty,oneof=receipt expense"`
	FromDate   *string `form:"fromDate"`
	ToDate     *string `form:"toDate"`
}
