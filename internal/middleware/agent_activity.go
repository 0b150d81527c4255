package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/veltahq/backoffice-backend/internal/modules/agentstatus"
	"github.com/veltahq/backoffice-backend/internal/platform/logger"
	"github.com/veltahq/backoffice-backend/internal/platform/requestdata"
)

// AgentActivityMiddleware implements passive inactivity detection: every
// authenticated request rearms the agent's last-access timer. The work runs
// after the response has been written and never delays or fails the request
// itself.
type AgentActivityMiddleware struct {
	log    *logger.Logger
	status agentstatus.Usecases
}

func NewAgentActivityMiddleware(log *logger.Logger, status agentstatus.Usecases) *AgentActivityMiddleware {
	return &AgentActivityMiddleware{
		log:    log.With("middleware", "AgentActivityMiddleware"),
		status: status,
	}
}

func (am *AgentActivityMiddleware) TrackActivity() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		rd := requestdata.Get(c.Request.Context())
		if rd == nil {
			return
		}
		// The request context dies with the response; the refresh gets
		// its own deadline and error boundary.
		go func() {
			defer func() {
				if r := recover(); r != nil {
					am.log.Error("activity refresh panic", "panic", r)
				}
			}()
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := am.status.RefreshLastAccess(ctx, rd.WorkspaceID, rd.UserID); err != nil {
				am.log.Warn("activity refresh failed", "workspace_id", rd.WorkspaceID, "user_id", rd.UserID, "error", err)
			}
		}()
	}
}
