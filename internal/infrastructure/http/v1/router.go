// Package v1 provides HTTP API version 1.
package v1

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"obraplan/internal/core/id"
	"obraplan/internal/core/security"
	"obraplan/internal/domain/auth"
	"obraplan/internal/domain/catalogs/material"
	"obraplan/internal/domain/catalogs/project"
	svc "obraplan/internal/domain/catalogs/service"
	"obraplan/internal/domain/catalogs/task"
	"obraplan/internal/domain/costing"
	"obraplan/internal/domain/documents/material_request"
	"obraplan/internal/domain/registers/stock"
	"obraplan/internal/infrastructure/http/v1/handlers"
	"obraplan/internal/infrastructure/http/v1/middleware"
	"obraplan/internal/infrastructure/storage/postgres"
	"obraplan/internal/infrastructure/storage/postgres/auth_repo"
	"obraplan/internal/infrastructure/storage/postgres/catalog_repo"
	"obraplan/internal/infrastructure/storage/postgres/document_repo"
	"obraplan/internal/infrastructure/storage/postgres/register_repo"
	"obraplan/pkg/logger"
	"obraplan/pkg/numerator"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Pool is the database connection pool (for health checks)
	Pool *postgres.Pool

	// TxManager manages database transactions
	TxManager *postgres.TxManager

	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// AuthService for authentication endpoints
	AuthService *auth.Service

	// Numerator for code and document number generation
	Numerator numerator.Generator

	// ApprovalPolicy guards material request approvals; nil allows all
	ApprovalPolicy security.ApprovalPolicy

	// AuditService records entity change history; nil disables auditing
	AuditService *postgres.AuditService

	// IdempotencyEnabled enables idempotency middleware
	IdempotencyEnabled bool

	// IdempotencyTTL is how long stored responses replay
	IdempotencyTTL time.Duration
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth required)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	// API v1
	apiV1 := router.Group("/api/v1")
	{
		registerAuthRoutes(apiV1, cfg)

		protected := apiV1.Group("")
		protected.Use(middleware.Auth(cfg.JWTValidator))

		if cfg.IdempotencyEnabled {
			ttl := cfg.IdempotencyTTL
			if ttl <= 0 {
				ttl = 10 * time.Minute
			}
			store, err := postgres.NewIdempotencyStore(cfg.TxManager, ttl)
			if err != nil {
				return nil, err
			}
			protected.Use(middleware.Idempotency(store))
		}

		registerEntityRoutes(protected, cfg)
	}

	return router, nil
}

// registerAuthRoutes registers authentication endpoints.
func registerAuthRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	if cfg.AuthService == nil {
		return
	}

	baseHandler := handlers.NewBaseHandler()
	authHandler := handlers.NewAuthHandler(baseHandler, cfg.AuthService)

	publicAuth := rg.Group("/auth")

	protectedAuth := rg.Group("/auth")
	protectedAuth.Use(middleware.Auth(cfg.JWTValidator))

	authHandler.RegisterRoutes(publicAuth, protectedAuth)
}

// auditAdapter bridges the postgres audit service to the domain-level
// auditor interface.
type auditAdapter struct {
	svc *postgres.AuditService
}

func (a auditAdapter) LogChange(ctx context.Context, entityType string, entityID id.ID, action string, changes map[string]any) error {
	return a.svc.LogChange(ctx, entityType, entityID, postgres.AuditAction(action), changes)
}

// registerEntityRoutes wires catalogs, documents, and registers.
func registerEntityRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	baseHandler := handlers.NewBaseHandler()

	// Repositories
	materialRepo := catalog_repo.NewMaterialRepo(cfg.TxManager)
	serviceRepo := catalog_repo.NewServiceRepo(cfg.TxManager)
	projectRepo := catalog_repo.NewProjectRepo(cfg.TxManager)
	taskRepo := catalog_repo.NewTaskRepo(cfg.TxManager)
	requestRepo := document_repo.NewMaterialRequestRepo(cfg.TxManager)
	stockRepo := register_repo.NewStockRepo(cfg.TxManager)
	userRepo := auth_repo.NewUserRepo(cfg.TxManager)

	// Services
	materialService := material.NewService(materialRepo, cfg.TxManager, cfg.Numerator)
	serviceService := svc.NewCatalogService(serviceRepo, cfg.TxManager, cfg.Numerator)
	projectService := project.NewService(projectRepo, cfg.TxManager, cfg.Numerator)
	taskService := task.NewService(taskRepo, serviceRepo, cfg.TxManager, cfg.Numerator)
	costingService := costing.NewService(taskRepo, projectRepo, cfg.TxManager, cfg.Logger)
	taskService.SetCostRecalculator(costingService)
	stockService := stock.NewService(stockRepo)
	requestService := material_request.NewService(
		requestRepo,
		projectRepo,
		materialRepo,
		userRepo,
		stockService,
		cfg.ApprovalPolicy,
		cfg.TxManager,
		cfg.Numerator,
	)
	if cfg.AuditService != nil {
		requestService.SetAuditor(auditAdapter{svc: cfg.AuditService})
	}

	// --- CATALOGS ---
	catalogs := rg.Group("/catalog")
	{
		materialHandler := handlers.NewMaterialHandler(baseHandler, materialService)
		materials := catalogs.Group("/materials")
		materials.GET("/low-stock", middleware.RequirePermission("catalog:material:read"), materialHandler.LowStock)
		RegisterCatalogRoutes(materials, materialHandler, "catalog:material")

		serviceHandler := handlers.NewServiceHandler(baseHandler, serviceService)
		RegisterCatalogRoutes(catalogs.Group("/services"), serviceHandler, "catalog:service")

		projectHandler := handlers.NewProjectHandler(baseHandler, projectService, costingService)
		projects := catalogs.Group("/projects")
		projects.POST("/:id/status", middleware.RequirePermission("catalog:project:update"), projectHandler.SetStatus)
		projects.POST("/:id/recalculate", middleware.RequirePermission("catalog:project:update"), projectHandler.Recalculate)
		RegisterCatalogRoutes(projects, projectHandler, "catalog:project")

		taskHandler := handlers.NewTaskHandler(baseHandler, taskService)
		projects.GET("/:id/tasks", middleware.RequirePermission("catalog:task:read"), taskHandler.ListByProject)
		tasks := catalogs.Group("/tasks")
		tasks.POST("/:id/status", middleware.RequirePermission("catalog:task:update"), taskHandler.SetStatus)
		tasks.POST("/:id/progress", middleware.RequirePermission("catalog:task:update"), taskHandler.SetProgress)
		tasks.POST("/:id/recalculate", middleware.RequirePermission("catalog:task:update"), taskHandler.Recalculate)
		RegisterCatalogRoutes(tasks, taskHandler, "catalog:task")
	}

	// --- DOCUMENTS ---
	documents := rg.Group("/document")
	{
		requestHandler := handlers.NewMaterialRequestHandler(baseHandler, requestService)
		requests := documents.Group("/material-requests")
		requests.GET("", middleware.RequirePermission("document:material_request:read"), requestHandler.List)
		requests.POST("", middleware.RequirePermission("document:material_request:create"), requestHandler.Create)
		requests.GET("/:id", middleware.RequirePermission("document:material_request:read"), requestHandler.Get)
		requests.PUT("/:id", middleware.RequirePermission("document:material_request:update"), requestHandler.Update)
		requests.DELETE("/:id", middleware.RequirePermission("document:material_request:delete"), requestHandler.Delete)
		requests.POST("/:id/approve", middleware.RequirePermission("document:material_request:approve"), requestHandler.Approve)
		requests.POST("/:id/reject", middleware.RequirePermission("document:material_request:approve"), requestHandler.Reject)
	}

	// --- REGISTERS ---
	registers := rg.Group("/registers")
	{
		stockHandler := handlers.NewStockHandler(baseHandler, stockService, cfg.TxManager)
		stockGroup := registers.Group("/stock")
		stockGroup.GET("/balances", middleware.RequirePermission("register:stock:read"), stockHandler.ListBalances)
		stockGroup.GET("/balances/:materialId", middleware.RequirePermission("register:stock:read"), stockHandler.GetBalance)
		stockGroup.GET("/low", middleware.RequirePermission("register:stock:read"), stockHandler.LowStock)
		stockGroup.GET("/movements/:materialId", middleware.RequirePermission("register:stock:read"), stockHandler.MovementHistory)
		stockGroup.POST("/adjustments", middleware.RequirePermission("register:stock:adjust"), stockHandler.Adjust)
	}
}
