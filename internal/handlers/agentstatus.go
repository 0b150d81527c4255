package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	redisclients "github.com/veltahq/backoffice-backend/internal/clients/redis"
	"github.com/veltahq/backoffice-backend/internal/modules/agentstatus"
	"github.com/veltahq/backoffice-backend/internal/platform/apierr"
	"github.com/veltahq/backoffice-backend/internal/platform/logger"
	"github.com/veltahq/backoffice-backend/internal/platform/requestdata"
)

type AgentStatusHandler struct {
	log      *logger.Logger
	status   agentstatus.Usecases
	consumer *agentstatus.Consumer
}

func NewAgentStatusHandler(log *logger.Logger, status agentstatus.Usecases, consumer *agentstatus.Consumer) *AgentStatusHandler {
	return &AgentStatusHandler{
		log:      log.With("handler", "AgentStatusHandler"),
		status:   status,
		consumer: consumer,
	}
}

func (h *AgentStatusHandler) Connect(c *gin.Context) {
	rd := requestdata.Get(c.Request.Context())
	rec, err := h.status.Connect(c.Request.Context(), rd.WorkspaceID, rd.UserID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, rec)
}

func (h *AgentStatusHandler) Disconnect(c *gin.Context) {
	rd := requestdata.Get(c.Request.Context())
	rec, err := h.status.Disconnect(c.Request.Context(), rd.WorkspaceID, rd.UserID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"closed": rec})
}

type startBreakRequest struct {
	BreakSettingID uuid.UUID `json:"break_setting_id" binding:"required"`
}

func (h *AgentStatusHandler) StartBreak(c *gin.Context) {
	var req startBreakRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apierr.New(http.StatusBadRequest, apierr.CodeInvalidRequest, err))
		return
	}
	rd := requestdata.Get(c.Request.Context())
	rec, err := h.status.StartBreak(c.Request.Context(), rd.WorkspaceID, rd.UserID, req.BreakSettingID, nil)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, rec)
}

type endBreakRequest struct {
	Justification *string `json:"justification,omitempty"`
}

func (h *AgentStatusHandler) EndBreak(c *gin.Context) {
	var req endBreakRequest
	_ = c.ShouldBindJSON(&req)
	rd := requestdata.Get(c.Request.Context())
	rec, err := h.status.EndBreak(c.Request.Context(), rd.WorkspaceID, rd.UserID, adminChange(rd, req.Justification))
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"closed": rec})
}

func (h *AgentStatusHandler) EndBreakAndConnect(c *gin.Context) {
	rd := requestdata.Get(c.Request.Context())
	rec, err := h.status.EndBreakAndConnect(c.Request.Context(), rd.WorkspaceID, rd.UserID, nil)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, rec)
}

func (h *AgentStatusHandler) Me(c *gin.Context) {
	rd := requestdata.Get(c.Request.Context())
	rec, err := h.status.FindActiveByUserAndWorkspace(c.Request.Context(), rd.WorkspaceID, rd.UserID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"record": rec})
}

type bulkBreakChangeRequest struct {
	UserIDs         []string   `json:"user_ids" binding:"required"`
	BreakSettingID  *uuid.UUID `json:"break_setting_id,omitempty"`
	ChangeToOffline bool       `json:"change_to_offline"`
	Justification   *string    `json:"justification,omitempty"`
}

func (h *AgentStatusHandler) BulkBreakChange(c *gin.Context) {
	var req bulkBreakChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apierr.New(http.StatusBadRequest, apierr.CodeInvalidRequest, err))
		return
	}
	rd := requestdata.Get(c.Request.Context())
	result, err := h.status.BulkBreakChangeByAdmin(c.Request.Context(), rd.WorkspaceID, agentstatus.BulkBreakChange{
		UserIDs:         req.UserIDs,
		BreakSettingID:  req.BreakSettingID,
		ChangeToOffline: req.ChangeToOffline,
		Justification:   req.Justification,
	}, rd.UserID, rd.Name)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, result)
}

type dispatchEventRequest struct {
	Type   string    `json:"type" binding:"required"`
	UserID uuid.UUID `json:"user_id" binding:"required"`
}

// DispatchEvent manually pushes one scheduled event through the consumer,
// outside the polling cadence. Operational tooling only.
func (h *AgentStatusHandler) DispatchEvent(c *gin.Context) {
	var req dispatchEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apierr.New(http.StatusBadRequest, apierr.CodeInvalidRequest, err))
		return
	}
	rd := requestdata.Get(c.Request.Context())
	ev := redisclients.ScheduledEvent{
		Type:        redisclients.EventType(strings.ToUpper(strings.TrimSpace(req.Type))),
		WorkspaceID: rd.WorkspaceID,
		UserID:      req.UserID,
		Timestamp:   time.Now().UnixMilli(),
	}
	if err := h.consumer.DispatchEvent(c.Request.Context(), ev); err != nil {
		RespondError(c, apierr.New(http.StatusBadRequest, apierr.CodeInvalidRequest, err))
		return
	}
	RespondOK(c, gin.H{"dispatched": true})
}

func adminChange(rd *requestdata.RequestData, justification *string) *agentstatus.AdminChange {
	if justification == nil || !rd.IsAdmin() {
		return nil
	}
	return &agentstatus.AdminChange{
		Justification: justification,
		ChangedByID:   rd.UserID,
		ChangedByName: rd.Name,
	}
}
