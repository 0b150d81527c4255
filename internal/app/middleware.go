package app

import (
	"github.com/veltahq/backoffice-backend/internal/middleware"
	"github.com/veltahq/backoffice-backend/internal/platform/logger"
)

type Middleware struct {
	Auth       *middleware.AuthMiddleware
	Activity   *middleware.AgentActivityMiddleware
	BreakGuard *middleware.VerifyBreakGuard
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	return Middleware{
		Auth:       middleware.NewAuthMiddleware(log, services.Auth),
		Activity:   middleware.NewAgentActivityMiddleware(log, services.AgentStatus),
		BreakGuard: middleware.NewVerifyBreakGuard(log, services.AgentStatus),
	}
}
