package agentstatus

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	redisclients "github.com/veltahq/backoffice-backend/internal/clients/redis"
	presrepos "github.com/veltahq/backoffice-backend/internal/data/repos/presence"
	"github.com/veltahq/backoffice-backend/internal/domain/account"
	"github.com/veltahq/backoffice-backend/internal/domain/presence"
	"github.com/veltahq/backoffice-backend/internal/events"
	"github.com/veltahq/backoffice-backend/internal/platform/logger"
	"github.com/veltahq/backoffice-backend/internal/realtime"
)

func testLogger(t interface{ Fatalf(string, ...any) }) *logger.Logger {
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init test logger: %v", err)
	}
	return log
}

// fakeWorkingTimeRepo mirrors the conditional-close contract of the real
// repo: Close only succeeds while ended_at is still nil.
type fakeWorkingTimeRepo struct {
	mu      sync.Mutex
	nextID  int64
	records []*presence.WorkingTimeRecord

	findErr  error
	closeErr error
}

func (f *fakeWorkingTimeRepo) Create(ctx context.Context, tx *gorm.DB, rec *presence.WorkingTimeRecord) (*presence.WorkingTimeRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	rec.ID = f.nextID
	clone := *rec
	f.records = append(f.records, &clone)
	return rec, nil
}

func (f *fakeWorkingTimeRepo) GetByID(ctx context.Context, tx *gorm.DB, id int64) (*presence.WorkingTimeRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if r.ID == id {
			clone := *r
			return &clone, nil
		}
	}
	return nil, nil
}

func (f *fakeWorkingTimeRepo) FindActiveByWorkspaceAndUser(ctx context.Context, tx *gorm.DB, workspaceID, userID uuid.UUID) (*presence.WorkingTimeRecord, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.records) - 1; i >= 0; i-- {
		r := f.records[i]
		if r.WorkspaceID == workspaceID && r.UserID == userID && r.EndedAt == nil {
			clone := *r
			return &clone, nil
		}
	}
	return nil, nil
}

func (f *fakeWorkingTimeRepo) FindActiveByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*presence.WorkingTimeRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.records) - 1; i >= 0; i-- {
		r := f.records[i]
		if r.UserID == userID && r.EndedAt == nil {
			clone := *r
			return &clone, nil
		}
	}
	return nil, nil
}

func (f *fakeWorkingTimeRepo) FindActiveByWorkspace(ctx context.Context, tx *gorm.DB, workspaceID uuid.UUID) ([]*presence.WorkingTimeRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*presence.WorkingTimeRecord
	for _, r := range f.records {
		if r.WorkspaceID == workspaceID && r.EndedAt == nil {
			clone := *r
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (f *fakeWorkingTimeRepo) Close(ctx context.Context, tx *gorm.DB, id int64, upd presrepos.CloseUpdate) (bool, error) {
	if f.closeErr != nil {
		return false, f.closeErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if r.ID != id || r.EndedAt != nil {
			continue
		}
		endedAt := upd.EndedAt
		duration := upd.DurationInSeconds
		overtime := upd.BreakOvertimeSeconds
		r.EndedAt = &endedAt
		r.DurationInSeconds = &duration
		r.BreakOvertimeSeconds = &overtime
		r.Justification = upd.Justification
		r.BreakChangedByUserID = upd.ChangedByUserID
		r.BreakChangedByName = upd.ChangedByName
		return true, nil
	}
	return false, nil
}

func (f *fakeWorkingTimeRepo) TotalsByWorkspace(ctx context.Context, tx *gorm.DB, workspaceID uuid.UUID, fromMs, toMs int64) ([]presence.UserPresenceTotals, error) {
	return nil, nil
}

func (f *fakeWorkingTimeRepo) stored(id int64) *presence.WorkingTimeRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if r.ID == id {
			return r
		}
	}
	return nil
}

type fakeBreakSettingRepo struct {
	settings map[uuid.UUID]*presence.BreakSetting
	findErr  error
}

func (f *fakeBreakSettingRepo) Create(ctx context.Context, tx *gorm.DB, setting *presence.BreakSetting) (*presence.BreakSetting, error) {
	if f.settings == nil {
		f.settings = make(map[uuid.UUID]*presence.BreakSetting)
	}
	if setting.ID == uuid.Nil {
		setting.ID = uuid.New()
	}
	f.settings[setting.ID] = setting
	return setting, nil
}

func (f *fakeBreakSettingRepo) FindByIDAndWorkspace(ctx context.Context, tx *gorm.DB, workspaceID, id uuid.UUID) (*presence.BreakSetting, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	s, ok := f.settings[id]
	if !ok || s.WorkspaceID != workspaceID {
		return nil, nil
	}
	return s, nil
}

func (f *fakeBreakSettingRepo) ListByWorkspace(ctx context.Context, tx *gorm.DB, workspaceID uuid.UUID, includeDisabled bool) ([]*presence.BreakSetting, error) {
	var out []*presence.BreakSetting
	for _, s := range f.settings {
		if s.WorkspaceID == workspaceID && (includeDisabled || s.Enabled) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeBreakSettingRepo) UpdateFields(ctx context.Context, tx *gorm.DB, workspaceID, id uuid.UUID, updates map[string]any) (bool, error) {
	_, ok := f.settings[id]
	return ok, nil
}

type fakeUserRepo struct {
	teamIDs []uuid.UUID
}

func (f *fakeUserRepo) Create(ctx context.Context, tx *gorm.DB, user *account.User) (*account.User, error) {
	return user, nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*account.User, error) {
	return nil, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*account.User, error) {
	return nil, nil
}

func (f *fakeUserRepo) GetTeamIDsByWorkspaceAndUser(ctx context.Context, tx *gorm.DB, workspaceID, userID uuid.UUID) ([]uuid.UUID, error) {
	return f.teamIDs, nil
}

type fakeSettingsProvider struct {
	byWorkspace map[uuid.UUID]*presence.GeneralBreakSetting
	err         error
}

func (f *fakeSettingsProvider) Get(ctx context.Context, workspaceID uuid.UUID) (*presence.GeneralBreakSetting, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byWorkspace[workspaceID], nil
}

func (f *fakeSettingsProvider) Invalidate(workspaceID uuid.UUID) {}

// fakeEventStore keeps one pending event per (type, workspace, user), the
// same last-write-wins contract as the sorted-set store.
type fakeEventStore struct {
	mu     sync.Mutex
	events map[string]redisclients.ScheduledEvent
	addErr error
}

func eventKey(typ redisclients.EventType, workspaceID, userID uuid.UUID) string {
	return fmt.Sprintf("%s:%s:%s", typ, workspaceID, userID)
}

func (f *fakeEventStore) AddEvent(ctx context.Context, typ redisclients.EventType, workspaceID, userID uuid.UUID, fireAt int64, payload map[string]any) error {
	if f.addErr != nil {
		return f.addErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.events == nil {
		f.events = make(map[string]redisclients.ScheduledEvent)
	}
	key := eventKey(typ, workspaceID, userID)
	f.events[key] = redisclients.ScheduledEvent{
		Type:        typ,
		WorkspaceID: workspaceID,
		UserID:      userID,
		Timestamp:   fireAt,
		Payload:     payload,
		Member:      key,
	}
	return nil
}

func (f *fakeEventStore) RemoveEvent(ctx context.Context, typ redisclients.EventType, workspaceID, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.events, eventKey(typ, workspaceID, userID))
	return nil
}

func (f *fakeEventStore) Event(ctx context.Context, typ redisclients.EventType, workspaceID, userID uuid.UUID) (*redisclients.ScheduledEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ev, ok := f.events[eventKey(typ, workspaceID, userID)]
	if !ok {
		return nil, nil
	}
	return &ev, nil
}

func (f *fakeEventStore) ExpiredEvents(ctx context.Context, until int64) []redisclients.ScheduledEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []redisclients.ScheduledEvent
	for _, ev := range f.events {
		if ev.Timestamp <= until {
			out = append(out, ev)
		}
	}
	return out
}

func (f *fakeEventStore) RemoveMember(ctx context.Context, member string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.events, member)
	return nil
}

func (f *fakeEventStore) pending(typ redisclients.EventType, workspaceID, userID uuid.UUID) *redisclients.ScheduledEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	ev, ok := f.events[eventKey(typ, workspaceID, userID)]
	if !ok {
		return nil
	}
	return &ev
}

type fakeNotifier struct {
	mu    sync.Mutex
	fired []realtime.PresenceEvent
}

func (f *fakeNotifier) PresenceChanged(workspaceID uuid.UUID, event realtime.PresenceEvent, rec *presence.WorkingTimeRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fired = append(f.fired, event)
}

func (f *fakeNotifier) saw(event realtime.PresenceEvent) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.fired {
		if e == event {
			return true
		}
	}
	return false
}

type fakePublisher struct {
	mu     sync.Mutex
	sent   []events.Event
	errFor events.Type
}

func (f *fakePublisher) Send(ctx context.Context, ev events.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.errFor != "" && ev.Type == f.errFor {
		return fmt.Errorf("publish %s refused", ev.Type)
	}
	f.sent = append(f.sent, ev)
	return nil
}

func (f *fakePublisher) types() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var parts []string
	for _, ev := range f.sent {
		parts = append(parts, string(ev.Type))
	}
	return strings.Join(parts, ",")
}
