package app

import (
	"github.com/veltahq/backoffice-backend/internal/handlers"
	"github.com/veltahq/backoffice-backend/internal/platform/logger"
	"github.com/veltahq/backoffice-backend/internal/realtime"
)

type Handlers struct {
	Auth        *handlers.AuthHandler
	AgentStatus *handlers.AgentStatusHandler
	Settings    *handlers.SettingsHandler
	Analytics   *handlers.AnalyticsHandler
	SSE         *handlers.SSEHandler
}

func wireHandlers(log *logger.Logger, repos Repos, services Services, hub *realtime.Hub) Handlers {
	return Handlers{
		Auth:        handlers.NewAuthHandler(log, services.Auth),
		AgentStatus: handlers.NewAgentStatusHandler(log, services.AgentStatus, services.Consumer),
		Settings:    handlers.NewSettingsHandler(log, repos.BreakSettings, repos.GeneralSettings, services.Settings),
		Analytics:   handlers.NewAnalyticsHandler(log, repos.WorkingTime),
		SSE:         handlers.NewSSEHandler(log, hub),
	}
}
