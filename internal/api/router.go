package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nebari-dev/wabastudio/internal/api/handlers"
	"github.com/nebari-dev/wabastudio/internal/api/middleware"
	"github.com/nebari-dev/wabastudio/internal/auth"
	"github.com/nebari-dev/wabastudio/internal/config"
	"github.com/nebari-dev/wabastudio/internal/rbac"
	"github.com/nebari-dev/wabastudio/internal/service"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// Services bundles what the handlers need.
type Services struct {
	Workspaces  *service.WorkspaceService
	Connections *service.ConnectionService
	Drafts      *service.DraftService
	Templates   *service.TemplateService
	Jobs        *service.JobService
}

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, db *gorm.DB, svc Services, logger *slog.Logger) *gin.Engine {
	if cfg.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(logger))
	router.Use(corsMiddleware())

	authenticator := auth.NewBasicAuthenticator(db, cfg.Auth.JWTSecret)

	infoHandler := handlers.NewInfoHandler(db, cfg.Graph.APIVersion, cfg.Events.AMQPURL != "", cfg.Server.RunMode)
	public := router.Group("/api/v1")
	{
		public.GET("/health", handlers.HealthCheck)
		public.GET("/version", handlers.GetVersion)
		public.GET("/info", infoHandler.GetInfo)
		public.POST("/auth/login", handlers.Login(authenticator))
	}

	wsHandler := handlers.NewWorkspaceHandler(svc.Workspaces)
	connHandler := handlers.NewConnectionHandler(svc.Connections)
	draftHandler := handlers.NewDraftHandler(svc.Drafts, svc.Jobs)
	tmplHandler := handlers.NewTemplateHandler(svc.Templates)
	jobHandler := handlers.NewJobHandler(svc.Jobs)
	adminHandler := handlers.NewAdminHandler(db)

	protected := router.Group("/api/v1")
	protected.Use(authenticator.Middleware())
	{
		protected.GET("/auth/me", handlers.GetCurrentUser(authenticator))

		protected.GET("/workspaces", wsHandler.ListWorkspaces)
		protected.POST("/workspaces", wsHandler.CreateWorkspace)
		protected.GET("/jobs/:id", jobHandler.GetJob)

		read := protected.Group("/workspaces/:id", middleware.RequireWorkspaceAccess(rbac.ActionRead))
		{
			read.GET("", wsHandler.GetWorkspace)
			read.GET("/members", wsHandler.ListMembers)
			read.GET("/connections", connHandler.ListConnections)
			read.GET("/connections/:cid/templates", tmplHandler.ListTemplates)
			read.GET("/connections/:cid/templates/:tid", tmplHandler.GetTemplate)
			read.GET("/templates", tmplHandler.ListWorkspaceTemplates)
			read.GET("/submitted", tmplHandler.ListSubmitted)
			read.GET("/drafts", draftHandler.ListDrafts)
			read.GET("/drafts/:did", draftHandler.GetDraft)
			read.GET("/drafts/:did/preview", draftHandler.PreviewDraft)
			read.GET("/drafts/:did/jobs", draftHandler.ListDraftJobs)
		}

		write := protected.Group("/workspaces/:id", middleware.RequireWorkspaceAccess(rbac.ActionWrite))
		{
			write.POST("/drafts", draftHandler.CreateDraft)
			write.DELETE("/drafts/:did", draftHandler.DeleteDraft)
			write.POST("/drafts/:did/actions", draftHandler.ApplyAction)
			write.POST("/drafts/:did/submit", draftHandler.SubmitDraft)
		}

		manage := protected.Group("/workspaces/:id", middleware.RequireWorkspaceAccess(rbac.ActionManage))
		{
			manage.DELETE("", wsHandler.DeleteWorkspace)
			manage.POST("/members", wsHandler.AddMember)
			manage.DELETE("/members/:user_id", wsHandler.RemoveMember)
			manage.POST("/connections", connHandler.CreateConnection)
			manage.DELETE("/connections/:cid", connHandler.DeleteConnection)
		}

		admin := protected.Group("/admin", middleware.RequireAdmin())
		{
			admin.GET("/users", adminHandler.ListUsers)
			admin.POST("/users", adminHandler.CreateUser)
			admin.POST("/users/:id/toggle-admin", adminHandler.ToggleAdmin)
			admin.DELETE("/users/:id", adminHandler.DeleteUser)
			admin.GET("/audit-logs", adminHandler.ListAuditLogs)
		}
	}

	router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	logger.Info("API router initialized", "mode", cfg.Server.Mode)
	return router
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"ip", c.ClientIP(),
		)
	}
}

// corsMiddleware adds CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
