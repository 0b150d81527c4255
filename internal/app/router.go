package app

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/veltahq/backoffice-backend/internal/handlers"
)

func wireRouter(h Handlers, mw Middleware) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("backoffice-api"))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
	}))

	router.GET("/healthz", handlers.HealthCheck)
	router.POST("/auth/login", h.Auth.Login)

	api := router.Group("/api/v1")
	api.Use(mw.Auth.RequireAuth(), mw.Activity.TrackActivity())
	{
		status := api.Group("/agent-status")
		{
			status.POST("/connect", h.AgentStatus.Connect)
			status.POST("/disconnect", h.AgentStatus.Disconnect)
			status.POST("/breaks/start", h.AgentStatus.StartBreak)
			status.POST("/breaks/end", h.AgentStatus.EndBreak)
			status.POST("/breaks/end-and-connect", h.AgentStatus.EndBreakAndConnect)
			status.GET("/me", h.AgentStatus.Me)
		}

		api.GET("/break-settings", h.Settings.ListBreakSettings)
		api.GET("/general-break-settings", h.Settings.GetGeneralSettings)
		api.GET("/events/stream", h.SSE.Stream)

		// Agents on break cannot self-service reporting.
		reports := api.Group("/analytics", mw.BreakGuard.RejectOnBreak())
		{
			reports.GET("/working-time", h.Analytics.WorkingTimeTotals)
			reports.GET("/active", h.Analytics.ActiveRecords)
		}

		admin := api.Group("/admin", mw.Auth.RequireAdmin())
		{
			admin.POST("/agent-status/bulk", h.AgentStatus.BulkBreakChange)
			admin.POST("/agent-status/events/dispatch", h.AgentStatus.DispatchEvent)
			admin.POST("/break-settings", h.Settings.CreateBreakSetting)
			admin.PATCH("/break-settings/:id", h.Settings.UpdateBreakSetting)
			admin.PUT("/general-break-settings", h.Settings.UpdateGeneralSettings)
		}
	}

	return router
}
