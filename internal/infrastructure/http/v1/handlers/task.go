package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"obraplan/internal/domain/catalogs/task"
	"obraplan/internal/infrastructure/http/v1/dto"
)

// TaskHandler serves the task catalog. Create and update go through the
// line-aware service methods so unit costs are snapshot and rollups run.
type TaskHandler struct {
	*CatalogHandler[*task.Task, dto.CreateTaskRequest, dto.UpdateTaskRequest]
	service *task.Service
}

// NewTaskHandler creates a new task handler.
func NewTaskHandler(base *BaseHandler, service *task.Service) *TaskHandler {
	config := CatalogHandlerConfig[*task.Task, dto.CreateTaskRequest, dto.UpdateTaskRequest]{
		Service:    service.CatalogService,
		EntityName: "task",
		MapCreateDTO: func(req dto.CreateTaskRequest) *task.Task {
			return req.ToEntity()
		},
		MapUpdateDTO: func(req dto.UpdateTaskRequest, existing *task.Task) *task.Task {
			req.ApplyTo(existing)
			return existing
		},
		MapToDTO: func(t *task.Task) any {
			return dto.FromTask(t)
		},
	}

	return &TaskHandler{
		CatalogHandler: NewCatalogHandler(base, config),
		service:        service,
	}
}

// Create handles POST /tasks - create a task with its service lines.
func (h *TaskHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateTaskRequest
	if !h.BindJSON(c, &req) {
		return
	}

	t := req.ToEntity()
	if err := h.service.CreateWithLines(ctx, t); err != nil {
		h.Error(c, err)
		return
	}

	h.CompleteIdempotency(c, http.StatusCreated, "application/json", dto.FromTask(t))
	c.JSON(http.StatusCreated, dto.FromTask(t))
}

// Get handles GET /tasks/:id - task with its service lines.
func (h *TaskHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	taskID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	t, err := h.service.GetWithLines(ctx, taskID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromTask(t))
}

// Update handles PUT /tasks/:id - update a task and replace its lines.
func (h *TaskHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	taskID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateTaskRequest
	if !h.BindJSON(c, &req) {
		return
	}

	existing, err := h.service.GetByID(ctx, taskID)
	if err != nil {
		h.Error(c, err)
		return
	}

	req.ApplyTo(existing)
	if err := h.service.UpdateWithLines(ctx, existing); err != nil {
		h.Error(c, err)
		return
	}

	updated, err := h.service.GetWithLines(ctx, taskID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.CompleteIdempotency(c, http.StatusOK, "application/json", dto.FromTask(updated))
	c.JSON(http.StatusOK, dto.FromTask(updated))
}

// ListByProject handles GET /projects/:id/tasks.
func (h *TaskHandler) ListByProject(c *gin.Context) {
	ctx := c.Request.Context()

	projectID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	tasks, err := h.service.ListByProject(ctx, projectID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      dto.FromTasks(tasks),
		TotalCount: int64(len(tasks)),
		Limit:      len(tasks),
		Offset:     0,
	})
}

// Recalculate handles POST /tasks/:id/recalculate - force a cost recompute.
func (h *TaskHandler) Recalculate(c *gin.Context) {
	ctx := c.Request.Context()

	taskID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Recalculate(ctx, taskID); err != nil {
		h.Error(c, err)
		return
	}

	t, err := h.service.GetWithLines(ctx, taskID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromTask(t))
}

// SetStatus handles POST /tasks/:id/status.
func (h *TaskHandler) SetStatus(c *gin.Context) {
	ctx := c.Request.Context()

	taskID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.SetTaskStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.SetStatus(ctx, taskID, task.Status(req.Status)); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "task status updated")
}

// SetProgress handles POST /tasks/:id/progress.
func (h *TaskHandler) SetProgress(c *gin.Context) {
	ctx := c.Request.Context()

	taskID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.SetTaskProgressRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.SetProgress(ctx, taskID, *req.Progress); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "task progress updated")
}
