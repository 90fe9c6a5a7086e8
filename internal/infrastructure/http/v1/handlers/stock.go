package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"obraplan/internal/core/apperror"
	"obraplan/internal/core/entity"
	"obraplan/internal/core/id"
	"obraplan/internal/core/tx"
	"obraplan/internal/domain/registers/stock"
	"obraplan/internal/infrastructure/http/v1/dto"
)

// StockHandler serves balances, movement history, and manual adjustments.
type StockHandler struct {
	*BaseHandler
	service   *stock.Service
	txManager tx.Manager
}

// NewStockHandler creates a new stock handler.
func NewStockHandler(base *BaseHandler, service *stock.Service, txManager tx.Manager) *StockHandler {
	return &StockHandler{
		BaseHandler: base,
		service:     service,
		txManager:   txManager,
	}
}

// ListBalances handles GET /stock/balances.
func (h *StockHandler) ListBalances(c *gin.Context) {
	ctx := c.Request.Context()

	filter := stock.BalanceFilter{
		ExcludeZero:  c.Query("excludeZero") == "true",
		BelowMinimum: c.Query("belowMinimum") == "true",
	}
	if raw := c.Query("materialIds"); raw != "" {
		for _, s := range c.QueryArray("materialIds") {
			parsed, err := id.Parse(s)
			if err != nil {
				h.Error(c, apperror.NewValidation("invalid materialIds format"))
				return
			}
			filter.MaterialIDs = append(filter.MaterialIDs, parsed)
		}
	}

	balances, err := h.service.GetBalances(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": dto.FromStockBalances(balances)})
}

// GetBalance handles GET /stock/balances/:materialId.
func (h *StockHandler) GetBalance(c *gin.Context) {
	ctx := c.Request.Context()

	materialID, ok := h.ParseID(c, "materialId")
	if !ok {
		return
	}

	balance, err := h.service.GetBalance(ctx, materialID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromStockBalance(balance))
}

// LowStock handles GET /stock/low - balances at or below minimum.
func (h *StockHandler) LowStock(c *gin.Context) {
	ctx := c.Request.Context()

	balances, err := h.service.GetLowStock(ctx)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": dto.FromStockBalances(balances)})
}

// MovementHistory handles GET /stock/movements/:materialId.
func (h *StockHandler) MovementHistory(c *gin.Context) {
	ctx := c.Request.Context()

	materialID, ok := h.ParseID(c, "materialId")
	if !ok {
		return
	}

	filter := stock.MovementFilter{
		Limit:  h.ParseIntQuery(c, "limit", 50),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}
	if raw := c.Query("recordType"); raw != "" {
		rt := entity.RecordType(raw)
		if rt != entity.RecordTypeReceipt && rt != entity.RecordTypeExpense {
			h.Error(c, apperror.NewValidation("invalid recordType, expected receipt or expense"))
			return
		}
		filter.RecordType = &rt
	}
	if from, ok := h.parseDateParam(c, "fromDate"); !ok {
		return
	} else if from != nil {
		filter.FromDate = from
	}
	if to, ok := h.parseDateParam(c, "toDate"); !ok {
		return
	} else if to != nil {
		filter.ToDate = to
	}

	movements, err := h.service.GetMovementHistory(ctx, materialID, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": dto.FromStockMovements(movements)})
}

func (h *StockHandler) parseDateParam(c *gin.Context, key string) (*time.Time, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid date format, expected YYYY-MM-DD").
			WithDetail("param", key).
			WithDetail("value", raw))
		return nil, false
	}
	return &parsed, true
}

// Adjust handles POST /stock/adjustments - manual receipt or expense.
// Expenses are guarded the same way as request approvals: the balance can
// never go negative.
func (h *StockHandler) Adjust(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.StockAdjustmentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if !req.Quantity.IsPositive() {
		h.Error(c, apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantity"))
		return
	}

	period := time.Now().UTC()
	if req.Period != nil {
		period = *req.Period
	}

	adjustmentID := id.New()
	items := []stock.Requirement{{MaterialID: req.MaterialID, Quantity: req.Quantity}}

	err := h.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if req.Direction == string(entity.RecordTypeReceipt) {
			return h.service.Increase(ctx, adjustmentID, "Adjustment", period, items)
		}
		return h.service.Decrease(ctx, adjustmentID, "Adjustment", period, items)
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	balance, err := h.service.GetBalance(ctx, req.MaterialID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.CompleteIdempotency(c, http.StatusOK, "application/json", dto.FromStockBalance(balance))
	c.JSON(http.StatusOK, dto.FromStockBalance(balance))
}
