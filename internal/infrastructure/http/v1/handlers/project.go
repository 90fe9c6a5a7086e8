package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"obraplan/internal/domain/catalogs/project"
	"obraplan/internal/domain/costing"
	"obraplan/internal/infrastructure/http/v1/dto"
)

// ProjectHandler serves the project catalog plus status transitions and
// cost recalculation.
type ProjectHandler struct {
	*CatalogHandler[*project.Project, dto.CreateProjectRequest, dto.UpdateProjectRequest]
	service *project.Service
	costing *costing.Service
}

// NewProjectHandler creates a new project handler.
func NewProjectHandler(base *BaseHandler, service *project.Service, costingService *costing.Service) *ProjectHandler {
	config := CatalogHandlerConfig[*project.Project, dto.CreateProjectRequest, dto.UpdateProjectRequest]{
		Service:    service.CatalogService,
		EntityName: "project",
		MapCreateDTO: func(req dto.CreateProjectRequest) *project.Project {
			return req.ToEntity()
		},
		MapUpdateDTO: func(req dto.UpdateProjectRequest, existing *project.Project) *project.Project {
			req.ApplyTo(existing)
			return existing
		},
		MapToDTO: func(p *project.Project) any {
			return dto.FromProject(p)
		},
	}

	return &ProjectHandler{
		CatalogHandler: NewCatalogHandler(base, config),
		service:        service,
		costing:        costingService,
	}
}

// SetStatus handles POST /projects/:id/status.
func (h *ProjectHandler) SetStatus(c *gin.Context) {
	ctx := c.Request.Context()

	projectID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.SetProjectStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.SetStatus(ctx, projectID, project.Status(req.Status)); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "project status updated")
}

// Recalculate handles POST /projects/:id/recalculate - refresh realized cost
// and progress from the project's tasks.
func (h *ProjectHandler) Recalculate(c *gin.Context) {
	ctx := c.Request.Context()

	projectID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.costing.RecalculateProject(ctx, projectID); err != nil {
		h.Error(c, err)
		return
	}

	updated, err := h.service.GetByID(ctx, projectID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.CompleteIdempotency(c, http.StatusOK, "application/json", dto.FromProject(updated))
	c.JSON(http.StatusOK, dto.FromProject(updated))
}
