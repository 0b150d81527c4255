package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	presrepos "github.com/veltahq/backoffice-backend/internal/data/repos/presence"
	"github.com/veltahq/backoffice-backend/internal/domain/presence"
	"github.com/veltahq/backoffice-backend/internal/modules/agentstatus"
	"github.com/veltahq/backoffice-backend/internal/platform/apierr"
	"github.com/veltahq/backoffice-backend/internal/platform/logger"
	"github.com/veltahq/backoffice-backend/internal/platform/requestdata"
)

type SettingsHandler struct {
	log           *logger.Logger
	breakSettings presrepos.BreakSettingRepo
	general       presrepos.GeneralBreakSettingRepo
	cache         agentstatus.GeneralSettingsProvider
}

func NewSettingsHandler(log *logger.Logger, breakSettings presrepos.BreakSettingRepo, general presrepos.GeneralBreakSettingRepo, cache agentstatus.GeneralSettingsProvider) *SettingsHandler {
	return &SettingsHandler{
		log:           log.With("handler", "SettingsHandler"),
		breakSettings: breakSettings,
		general:       general,
		cache:         cache,
	}
}

func (h *SettingsHandler) ListBreakSettings(c *gin.Context) {
	rd := requestdata.Get(c.Request.Context())
	includeDisabled := c.Query("include_disabled") == "true" && rd.IsAdmin()
	rows, err := h.breakSettings.ListByWorkspace(c.Request.Context(), nil, rd.WorkspaceID, includeDisabled)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"break_settings": rows})
}

type createBreakSettingRequest struct {
	Name            string `json:"name" binding:"required"`
	DurationSeconds int64  `json:"duration_seconds" binding:"required,gt=0"`
}

func (h *SettingsHandler) CreateBreakSetting(c *gin.Context) {
	var req createBreakSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apierr.New(http.StatusBadRequest, apierr.CodeInvalidRequest, err))
		return
	}
	rd := requestdata.Get(c.Request.Context())
	setting, err := h.breakSettings.Create(c.Request.Context(), nil, &presence.BreakSetting{
		WorkspaceID:     rd.WorkspaceID,
		Name:            req.Name,
		DurationSeconds: req.DurationSeconds,
		Enabled:         true,
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, setting)
}

type updateBreakSettingRequest struct {
	Name            *string `json:"name,omitempty"`
	DurationSeconds *int64  `json:"duration_seconds,omitempty"`
	Enabled         *bool   `json:"enabled,omitempty"`
}

func (h *SettingsHandler) UpdateBreakSetting(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, apierr.New(http.StatusBadRequest, apierr.CodeInvalidRequest, err))
		return
	}
	var req updateBreakSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apierr.New(http.StatusBadRequest, apierr.CodeInvalidRequest, err))
		return
	}
	updates := map[string]any{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.DurationSeconds != nil {
		updates["duration_seconds"] = *req.DurationSeconds
	}
	if req.Enabled != nil {
		updates["enabled"] = *req.Enabled
	}
	if len(updates) == 0 {
		RespondOK(c, gin.H{"updated": false})
		return
	}
	rd := requestdata.Get(c.Request.Context())
	updated, err := h.breakSettings.UpdateFields(c.Request.Context(), nil, rd.WorkspaceID, id, updates)
	if err != nil {
		RespondError(c, err)
		return
	}
	if !updated {
		RespondError(c, apierr.NotFoundBreakSetting(nil))
		return
	}
	RespondOK(c, gin.H{"updated": true})
}

func (h *SettingsHandler) GetGeneralSettings(c *gin.Context) {
	rd := requestdata.Get(c.Request.Context())
	settings, err := h.cache.Get(c.Request.Context(), rd.WorkspaceID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, settings)
}

type updateGeneralSettingsRequest struct {
	Enabled                     bool        `json:"enabled"`
	NotificationIntervalSeconds int64       `json:"notification_interval_seconds" binding:"gte=0"`
	BreakStartDelaySeconds      int64       `json:"break_start_delay_seconds" binding:"gte=0"`
	MaxInactiveDurationSeconds  int64       `json:"max_inactive_duration_seconds" binding:"gte=0"`
	ExcludedUserIDs             []uuid.UUID `json:"excluded_user_ids"`
}

// UpdateGeneralSettings upserts the workspace policy and invalidates the
// settings cache so running instances pick the change up immediately.
func (h *SettingsHandler) UpdateGeneralSettings(c *gin.Context) {
	var req updateGeneralSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apierr.New(http.StatusBadRequest, apierr.CodeInvalidRequest, err))
		return
	}
	rd := requestdata.Get(c.Request.Context())
	excluded, err := presence.EncodeUUIDs(req.ExcludedUserIDs)
	if err != nil {
		RespondError(c, err)
		return
	}
	settings, err := h.general.Upsert(c.Request.Context(), nil, &presence.GeneralBreakSetting{
		WorkspaceID:                 rd.WorkspaceID,
		Enabled:                     req.Enabled,
		NotificationIntervalSeconds: req.NotificationIntervalSeconds,
		BreakStartDelaySeconds:      req.BreakStartDelaySeconds,
		MaxInactiveDurationSeconds:  req.MaxInactiveDurationSeconds,
		ExcludedUserIDs:             excluded,
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	h.cache.Invalidate(rd.WorkspaceID)
	RespondOK(c, settings)
}
