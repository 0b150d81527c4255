package agentstatus

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	presrepos "github.com/veltahq/backoffice-backend/internal/data/repos/presence"
	"github.com/veltahq/backoffice-backend/internal/domain/presence"
	"github.com/veltahq/backoffice-backend/internal/platform/logger"
)

// GeneralSettingsProvider hands out the workspace inactivity policy. Reads
// are served from a long-lived cache; updates must call Invalidate.
type GeneralSettingsProvider interface {
	Get(ctx context.Context, workspaceID uuid.UUID) (*presence.GeneralBreakSetting, error)
	Invalidate(workspaceID uuid.UUID)
}

type SettingsCacheConfig struct {
	// TTL bounds staleness for workspaces updated by another instance.
	TTL time.Duration
	// DefaultMaxInactiveSeconds fills the safety-expiration math for
	// workspaces without a settings row.
	DefaultMaxInactiveSeconds int64
}

type settingsEntry struct {
	value     *presence.GeneralBreakSetting
	expiresAt time.Time
}

type generalSettingsCache struct {
	log  *logger.Logger
	repo presrepos.GeneralBreakSettingRepo
	cfg  SettingsCacheConfig

	mu      sync.RWMutex
	entries map[uuid.UUID]settingsEntry
	group   singleflight.Group

	now func() time.Time
}

func NewGeneralSettingsCache(log *logger.Logger, repo presrepos.GeneralBreakSettingRepo, cfg SettingsCacheConfig) GeneralSettingsProvider {
	if cfg.TTL <= 0 {
		cfg.TTL = 4 * time.Hour
	}
	return &generalSettingsCache{
		log:     log.With("component", "GeneralSettingsCache"),
		repo:    repo,
		cfg:     cfg,
		entries: make(map[uuid.UUID]settingsEntry),
		now:     time.Now,
	}
}

func (c *generalSettingsCache) Get(ctx context.Context, workspaceID uuid.UUID) (*presence.GeneralBreakSetting, error) {
	c.mu.RLock()
	entry, ok := c.entries[workspaceID]
	c.mu.RUnlock()
	if ok && c.now().Before(entry.expiresAt) {
		return entry.value, nil
	}

	// singleflight collapses concurrent fills for the same workspace into
	// one repo query.
	v, err, _ := c.group.Do(workspaceID.String(), func() (any, error) {
		row, err := c.repo.FindByWorkspaceID(ctx, nil, workspaceID)
		if err != nil {
			return nil, err
		}
		if row == nil {
			// No row means detection off; the default max-inactive
			// still feeds break safety timers.
			row = &presence.GeneralBreakSetting{
				WorkspaceID:                workspaceID,
				Enabled:                    false,
				MaxInactiveDurationSeconds: c.cfg.DefaultMaxInactiveSeconds,
			}
		}
		c.mu.Lock()
		c.entries[workspaceID] = settingsEntry{
			value:     row,
			expiresAt: c.now().Add(c.cfg.TTL),
		}
		c.mu.Unlock()
		return row, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*presence.GeneralBreakSetting), nil
}

func (c *generalSettingsCache) Invalidate(workspaceID uuid.UUID) {
	c.mu.Lock()
	delete(c.entries, workspaceID)
	c.mu.Unlock()
	c.log.Debug("general settings cache invalidated", "workspace_id", workspaceID)
}
