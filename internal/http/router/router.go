package router

import (
	"github.com/gin-gonic/gin"

	"github.com/avkuzmin/backoffice/internal/config"
	"github.com/avkuzmin/backoffice/internal/http/handlers"
	"github.com/avkuzmin/backoffice/internal/http/middleware"
	"github.com/avkuzmin/backoffice/internal/service"
)

func SetupRouter(
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	customerHandler *handlers.CustomerHandler,
	projectHandler *handlers.ProjectHandler,
	orderHandler *handlers.OrderHandler,
	stageHandler *handlers.StageHandler,
	taxonomyHandler *handlers.TaxonomyHandler,
	wsHandler *handlers.WSHandler,
	healthHandler *handlers.HealthHandler,
	seedHandler *handlers.SeedHandler,
	tokenManager *service.TokenManager,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)

	api := r.Group("/api")

	if seedHandler != nil && cfg.Env == "development" {
		api.POST("/seed", seedHandler.Seed)
		api.GET("/seed", seedHandler.Seed)
	}

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod))
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
	}

	api.GET("/ws", wsHandler.Handle)

	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	{
		protected.GET("/customers", customerHandler.List)
		protected.POST("/customers", customerHandler.Create)
		protected.GET("/customers/:id", middleware.UUIDValidator("id"), customerHandler.Get)
		protected.PUT("/customers/:id", middleware.UUIDValidator("id"), customerHandler.Update)
		protected.DELETE("/customers/:id", middleware.UUIDValidator("id"), customerHandler.Delete)
		protected.GET("/customers/:id/projects", middleware.UUIDValidator("id"), customerHandler.ListProjects)

		protected.GET("/projects", projectHandler.List)
		protected.POST("/projects", projectHandler.Create)
		protected.GET("/projects/:id", middleware.UUIDValidator("id"), projectHandler.Get)
		protected.PUT("/projects/:id", middleware.UUIDValidator("id"), projectHandler.Update)
		protected.DELETE("/projects/:id", middleware.UUIDValidator("id"), projectHandler.Delete)
		protected.GET("/projects/:id/orders", middleware.UUIDValidator("id"), projectHandler.ListOrders)

		protected.GET("/orders", orderHandler.List)
		protected.POST("/orders", orderHandler.Create)
		protected.GET("/orders/:id", middleware.UUIDValidator("id"), orderHandler.Get)
		protected.PUT("/orders/:id", middleware.UUIDValidator("id"), orderHandler.Update)
		protected.DELETE("/orders/:id", middleware.UUIDValidator("id"), orderHandler.Delete)
		protected.GET("/orders/:id/price", middleware.UUIDValidator("id"), orderHandler.Price)

		protected.GET("/orders/:id/stages", middleware.UUIDValidator("id"), stageHandler.ListByOrder)
		protected.POST("/orders/:id/stages", middleware.UUIDValidator("id"), stageHandler.Create)
		protected.GET("/orders/:id/stages/next-sequence", middleware.UUIDValidator("id"), stageHandler.NextSequence)

		protected.GET("/stages/:id", middleware.UUIDValidator("id"), stageHandler.Get)
		protected.PUT("/stages/:id", middleware.UUIDValidator("id"), stageHandler.Update)
		protected.DELETE("/stages/:id", middleware.UUIDValidator("id"), stageHandler.Delete)
		protected.POST("/stages/:id/reorder", middleware.UUIDValidator("id"), stageHandler.Reorder)
		protected.PATCH("/stages/:id/status", middleware.UUIDValidator("id"), stageHandler.UpdateStatus)
		protected.GET("/stages/:id/eligibility", middleware.UUIDValidator("id"), stageHandler.Eligibility)
		protected.GET("/stages/:id/price", middleware.UUIDValidator("id"), stageHandler.Price)
		protected.GET("/stages/:id/options", middleware.UUIDValidator("id"), stageHandler.ListOptions)
		protected.POST("/stages/:id/options", middleware.UUIDValidator("id"), stageHandler.CreateOption)
		protected.PUT("/options/:id", middleware.UUIDValidator("id"), stageHandler.UpdateOption)
		protected.DELETE("/options/:id", middleware.UUIDValidator("id"), stageHandler.DeleteOption)

		protected.GET("/units", taxonomyHandler.ListUnits)
		protected.POST("/units", taxonomyHandler.CreateUnit)
		protected.PUT("/units/:id", middleware.UUIDValidator("id"), taxonomyHandler.UpdateUnit)
		protected.DELETE("/units/:id", middleware.UUIDValidator("id"), taxonomyHandler.DeleteUnit)

		protected.GET("/pricing-types", taxonomyHandler.ListPricingTypes)

		protected.GET("/currencies", taxonomyHandler.ListCurrencies)
		protected.POST("/currencies", taxonomyHandler.CreateCurrency)
		protected.PUT("/currencies/:id", middleware.UUIDValidator("id"), taxonomyHandler.UpdateCurrency)
		protected.DELETE("/currencies/:id", middleware.UUIDValidator("id"), taxonomyHandler.DeleteCurrency)

		protected.GET("/order-statuses", taxonomyHandler.ListOrderStatuses)
		protected.POST("/order-statuses", taxonomyHandler.CreateOrderStatus)
		protected.PUT("/order-statuses/:id", middleware.UUIDValidator("id"), taxonomyHandler.UpdateStatus)
		protected.DELETE("/order-statuses/:id", middleware.UUIDValidator("id"), taxonomyHandler.DeleteStatus)

		protected.GET("/project-statuses", taxonomyHandler.ListProjectStatuses)
		protected.POST("/project-statuses", taxonomyHandler.CreateProjectStatus)
		protected.PUT("/project-statuses/:id", middleware.UUIDValidator("id"), taxonomyHandler.UpdateStatus)
		protected.DELETE("/project-statuses/:id", middleware.UUIDValidator("id"), taxonomyHandler.DeleteStatus)
	}

	return r
}
