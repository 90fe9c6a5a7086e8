package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"obraplan/internal/core/apperror"
	"obraplan/internal/core/id"
	"obraplan/internal/domain/documents/material_request"
	"obraplan/internal/infrastructure/http/v1/dto"
)

// MaterialRequestHandler serves the material request document, including
// the approval decision endpoints.
type MaterialRequestHandler struct {
	*BaseHandler
	service *material_request.Service
}

// NewMaterialRequestHandler creates a new material request handler.
func NewMaterialRequestHandler(base *BaseHandler, service *material_request.Service) *MaterialRequestHandler {
	return &MaterialRequestHandler{
		BaseHandler: base,
		service:     service,
	}
}

// List handles GET /material-requests.
func (h *MaterialRequestHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	filter := material_request.DefaultListFilter()
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	if orderBy := c.Query("orderBy"); orderBy != "" {
		filter.OrderBy = orderBy
	}

	if projectID := c.Query("projectId"); projectID != "" {
		parsed, err := id.Parse(projectID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid projectId format"))
			return
		}
		filter.ProjectID = &parsed
	}
	if requesterID := c.Query("requesterId"); requesterID != "" {
		parsed, err := id.Parse(requesterID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid requesterId format"))
			return
		}
		filter.RequesterID = &parsed
	}
	if status := c.Query("status"); status != "" {
		s := material_request.Status(status)
		filter.Status = &s
	}
	if fromDate, ok := h.parseDateQuery(c, "fromDate"); !ok {
		return
	} else if fromDate != nil {
		filter.FromDate = fromDate
	}
	if toDate, ok := h.parseDateQuery(c, "toDate"); !ok {
		return
	} else if toDate != nil {
		filter.ToDate = toDate
	}

	result, err := h.service.List(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      dto.FromMaterialRequests(result.Items),
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

func (h *MaterialRequestHandler) parseDateQuery(c *gin.Context, key string) (*time.Time, bool) {
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

// Get handles GET /material-requests/:id - request with its items.
func (h *MaterialRequestHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	requestID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	req, err := h.service.GetWithItems(ctx, requestID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromMaterialRequest(req))
}

// Create handles POST /material-requests. The requester is always the
// authenticated user.
func (h *MaterialRequestHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	requesterID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateMaterialRequestRequest
	if !h.BindJSON(c, &req) {
		return
	}

	created, err := h.service.Create(ctx, req.ToInput(requesterID))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.CompleteIdempotency(c, http.StatusCreated, "application/json", dto.FromMaterialRequest(created))
	c.JSON(http.StatusCreated, dto.FromMaterialRequest(created))
}

// Update handles PUT /material-requests/:id - only PENDENTE requests.
func (h *MaterialRequestHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	requestID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateMaterialRequestRequest
	if !h.BindJSON(c, &req) {
		return
	}

	updated, err := h.service.Update(ctx, requestID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.CompleteIdempotency(c, http.StatusOK, "application/json", dto.FromMaterialRequest(updated))
	c.JSON(http.StatusOK, dto.FromMaterialRequest(updated))
}

// Delete handles DELETE /material-requests/:id - only PENDENTE requests.
func (h *MaterialRequestHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()

	requestID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(ctx, requestID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// Approve handles POST /material-requests/:id/approve. On success the stock
// ledger has been decremented for every item.
func (h *MaterialRequestHandler) Approve(c *gin.Context) {
	ctx := c.Request.Context()

	requestID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	approverID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	approved, err := h.service.Approve(ctx, requestID, approverID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.CompleteIdempotency(c, http.StatusOK, "application/json", dto.FromMaterialRequest(approved))
	c.JSON(http.StatusOK, dto.FromMaterialRequest(approved))
}

// Reject handles POST /material-requests/:id/reject.
func (h *MaterialRequestHandler) Reject(c *gin.Context) {
	ctx := c.Request.Context()

	requestID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	approverID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	var req dto.RejectMaterialRequestRequest
	if !h.BindJSON(c, &req) {
		return
	}

	rejected, err := h.service.Reject(ctx, requestID, approverID, req.Reason)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.CompleteIdempotency(c, http.StatusOK, "application/json", dto.FromMaterialRequest(rejected))
	c.JSON(http.StatusOK, dto.FromMaterialRequest(rejected))
}
