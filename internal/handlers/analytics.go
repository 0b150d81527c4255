package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	presrepos "github.com/veltahq/backoffice-backend/internal/data/repos/presence"
	"github.com/veltahq/backoffice-backend/internal/platform/apierr"
	"github.com/veltahq/backoffice-backend/internal/platform/logger"
	"github.com/veltahq/backoffice-backend/internal/platform/requestdata"
)

// AnalyticsHandler exposes the read contract over historical presence
// records: aggregate time and overtime per user over a window.
type AnalyticsHandler struct {
	log         *logger.Logger
	workingTime presrepos.WorkingTimeRepo
}

func NewAnalyticsHandler(log *logger.Logger, workingTime presrepos.WorkingTimeRepo) *AnalyticsHandler {
	return &AnalyticsHandler{
		log:         log.With("handler", "AnalyticsHandler"),
		workingTime: workingTime,
	}
}

func (h *AnalyticsHandler) WorkingTimeTotals(c *gin.Context) {
	from, err := strconv.ParseInt(c.Query("from"), 10, 64)
	if err != nil {
		RespondError(c, apierr.New(http.StatusBadRequest, apierr.CodeInvalidRequest, err))
		return
	}
	to, _ := strconv.ParseInt(c.Query("to"), 10, 64)

	rd := requestdata.Get(c.Request.Context())
	totals, err := h.workingTime.TotalsByWorkspace(c.Request.Context(), nil, rd.WorkspaceID, from, to)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"totals": totals})
}

func (h *AnalyticsHandler) ActiveRecords(c *gin.Context) {
	rd := requestdata.Get(c.Request.Context())
	rows, err := h.workingTime.FindActiveByWorkspace(c.Request.Context(), nil, rd.WorkspaceID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"records": rows})
}
