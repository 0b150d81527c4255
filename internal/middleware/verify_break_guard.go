package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/veltahq/backoffice-backend/internal/domain/presence"
	"github.com/veltahq/backoffice-backend/internal/platform/apierr"
	"github.com/veltahq/backoffice-backend/internal/platform/logger"
	"github.com/veltahq/backoffice-backend/internal/platform/requestdata"
)

// ActiveRecordFinder is the slice of the state machine the guard needs.
type ActiveRecordFinder interface {
	FindActiveByUserAndWorkspace(ctx context.Context, workspaceID, userID uuid.UUID) (*presence.WorkingTimeRecord, error)
}

// VerifyBreakGuard rejects restricted actions for non-admin agents who are
// currently on a break or inactive.
type VerifyBreakGuard struct {
	log    *logger.Logger
	finder ActiveRecordFinder
}

func NewVerifyBreakGuard(log *logger.Logger, finder ActiveRecordFinder) *VerifyBreakGuard {
	return &VerifyBreakGuard{
		log:    log.With("middleware", "VerifyBreakGuard"),
		finder: finder,
	}
}

func (g *VerifyBreakGuard) RejectOnBreak() gin.HandlerFunc {
	return func(c *gin.Context) {
		rd := requestdata.Get(c.Request.Context())
		if rd == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
			return
		}
		if rd.IsAdmin() {
			c.Next()
			return
		}
		rec, err := g.finder.FindActiveByUserAndWorkspace(c.Request.Context(), rd.WorkspaceID, rd.UserID)
		if err != nil {
			// Fail open: a lookup outage must not lock agents out of
			// their own tooling.
			g.log.Warn("break guard lookup failed", "workspace_id", rd.WorkspaceID, "user_id", rd.UserID, "error", err)
			c.Next()
			return
		}
		if rec != nil && rec.Type != presence.RecordOnline {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": apierr.CodeBreakActive})
			return
		}
		c.Next()
	}
}
