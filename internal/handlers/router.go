package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/career-assessment-service/internal/services"
	"github.com/SAP-F-2025/career-assessment-service/internal/utils"
	"github.com/gin-gonic/gin"
)

// Services bundles what the HTTP layer calls into
type Services struct {
	Catalog    services.CatalogService
	Sessions   services.SessionService
	ToolAccess services.ToolAccessService
	Tools      services.ToolService
	Reports    services.ReportService
}

// RouteMiddleware carries the middleware applied to specific route groups
type RouteMiddleware struct {
	Admin     gin.HandlerFunc
	RateLimit gin.HandlerFunc
	Metrics   gin.HandlerFunc
}

type HandlerManager struct {
	catalogHandler *CatalogHandler
	sessionHandler *SessionHandler
	toolHandler    *ToolHandler
	adminHandler   *AdminHandler
	middleware     RouteMiddleware
}

func NewHandlerManager(svc Services, middleware RouteMiddleware, logger utils.Logger) *HandlerManager {
	passThrough := func(c *gin.Context) { c.Next() }
	if middleware.Admin == nil {
		middleware.Admin = func(c *gin.Context) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Message: "Authentication required"})
		}
	}
	if middleware.RateLimit == nil {
		middleware.RateLimit = passThrough
	}

	return &HandlerManager{
		catalogHandler: NewCatalogHandler(svc.Catalog, logger),
		sessionHandler: NewSessionHandler(svc.Sessions, logger),
		toolHandler:    NewToolHandler(svc.ToolAccess, svc.Tools, logger),
		adminHandler:   NewAdminHandler(svc.ToolAccess, svc.Catalog, svc.Reports, logger),
		middleware:     middleware,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", HealthCheck)
	if hm.middleware.Metrics != nil {
		router.GET("/metrics", hm.middleware.Metrics)
	}

	v1 := router.Group("/api/v1")
	{
		v1.GET("/catalog/modules", hm.catalogHandler.ListModules)

		sessions := v1.Group("/sessions")
		{
			sessions.POST("", hm.sessionHandler.BootstrapSession)
			sessions.GET("/:token", hm.sessionHandler.GetSessionState)
			sessions.PUT("/:token/responses", hm.sessionHandler.SaveResponse)
			sessions.PUT("/:token/position", hm.sessionHandler.UpdatePosition)
			sessions.PUT("/:token/email", hm.sessionHandler.SaveEmail)
			sessions.PUT("/:token/level", hm.sessionHandler.SetInferredLevel)
			sessions.POST("/:token/submit", hm.sessionHandler.SubmitSession)
		}

		// every tool route spends or checks a paid entitlement
		tools := v1.Group("/tools", hm.middleware.RateLimit)
		{
			tools.POST("/access/verify", hm.toolHandler.VerifyAccess)
			tools.POST("/access/claim", hm.toolHandler.ClaimAccess)
			tools.POST("/resume_parse/upload", hm.toolHandler.UploadResume)
			tools.POST("/:operation", hm.toolHandler.RunTool)
		}

		admin := v1.Group("/admin", hm.middleware.Admin)
		{
			admin.POST("/tool-purchases", hm.adminHandler.GrantPurchase)
			admin.POST("/catalog/invalidate", hm.adminHandler.InvalidateCatalog)
			admin.GET("/sessions/:token/report", hm.adminHandler.ExportSessionReport)
			admin.GET("/leads/export", hm.adminHandler.ExportLeads)
		}
	}
}

// HealthCheck reports liveness
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "career-assessment-service",
	})
}
