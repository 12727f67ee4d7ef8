package fleet

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/ukydev/fleet-maintenance/internal/cache"
	"github.com/ukydev/fleet-maintenance/internal/db"
	"github.com/ukydev/fleet-maintenance/internal/maintenance"
	"github.com/ukydev/fleet-maintenance/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memStore is an in-memory stand-in for the Mongo collections.
type memStore struct {
	mu        sync.Mutex
	equipment map[string]models.Equipment
	events    map[string]models.MaintenanceEvent
	schedules map[string]models.MaintenanceSchedule
}

func newMemStore() *memStore {
	return &memStore{
		equipment: make(map[string]models.Equipment),
		events:    make(map[string]models.MaintenanceEvent),
		schedules: make(map[string]models.MaintenanceSchedule),
	}
}

func (m *memStore) InsertEquipment(_ context.Context, e models.Equipment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.equipment[e.ID.Hex()] = e
	return nil
}

func (m *memStore) FindEquipment(_ context.Context, ownerID string) ([]models.Equipment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Equipment{}
	for _, e := range m.equipment {
		if e.OwnerID == ownerID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) FindEquipmentByID(_ context.Context, id string) (*models.Equipment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.equipment[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &e, nil
}

func (m *memStore) UpdateEquipment(_ context.Context, e models.Equipment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.equipment[e.ID.Hex()]; !ok {
		return db.ErrNotFound
	}
	m.equipment[e.ID.Hex()] = e
	return nil
}

func (m *memStore) RaiseReadings(_ context.Context, id string, distance, hours *float64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.equipment[id]
	if !ok {
		return false, db.ErrNotFound
	}
	changed := false
	if distance != nil && (e.CurrentDistance == nil || *distance > *e.CurrentDistance) {
		e.CurrentDistance = models.Float(*distance)
		changed = true
	}
	if hours != nil && (e.CurrentHours == nil || *hours > *e.CurrentHours) {
		e.CurrentHours = models.Float(*hours)
		changed = true
	}
	m.equipment[id] = e
	return changed, nil
}

func (m *memStore) DeleteEquipment(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.equipment[id]; !ok {
		return db.ErrNotFound
	}
	delete(m.equipment, id)
	return nil
}

func (m *memStore) InsertEvent(_ context.Context, e models.MaintenanceEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[e.ID.Hex()] = e
	return nil
}

func (m *memStore) FindEvents(_ context.Context, equipmentIDs ...string) ([]models.MaintenanceEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	wanted := make(map[string]bool, len(equipmentIDs))
	for _, id := range equipmentIDs {
		wanted[id] = true
	}
	out := []models.MaintenanceEvent{}
	for _, e := range m.events {
		if wanted[e.EquipmentID] {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *memStore) FindEventByID(_ context.Context, id string) (*models.MaintenanceEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &e, nil
}

func (m *memStore) UpdateEvent(_ context.Context, e models.MaintenanceEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[e.ID.Hex()]; !ok {
		return db.ErrNotFound
	}
	m.events[e.ID.Hex()] = e
	return nil
}

func (m *memStore) DeleteEvent(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[id]; !ok {
		return db.ErrNotFound
	}
	delete(m.events, id)
	return nil
}

func (m *memStore) DeleteEventsForEquipment(_ context.Context, equipmentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, e := range m.events {
		if e.EquipmentID == equipmentID {
			delete(m.events, id)
		}
	}
	return nil
}

func (m *memStore) UpsertSchedule(_ context.Context, s models.MaintenanceSchedule) (*models.MaintenanceSchedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, existing := range m.schedules {
		if existing.EquipmentID == s.EquipmentID && existing.Type == s.Type {
			s.ID = existing.ID
			s.CreatedAt = existing.CreatedAt
			m.schedules[id] = s
			return &s, nil
		}
	}
	s.ID = primitive.NewObjectID()
	s.CreatedAt = time.Now()
	m.schedules[s.ID.Hex()] = s
	return &s, nil
}

func (m *memStore) FindSchedules(_ context.Context, equipmentIDs ...string) ([]models.MaintenanceSchedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	wanted := make(map[string]bool, len(equipmentIDs))
	for _, id := range equipmentIDs {
		wanted[id] = true
	}
	out := []models.MaintenanceSchedule{}
	for _, s := range m.schedules {
		if wanted[s.EquipmentID] {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out, nil
}

func (m *memStore) FindScheduleByID(_ context.Context, id string) (*models.MaintenanceSchedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.schedules[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &s, nil
}

func (m *memStore) DeleteSchedule(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.schedules[id]; !ok {
		return db.ErrNotFound
	}
	delete(m.schedules, id)
	return nil
}

func (m *memStore) DeleteSchedulesForEquipment(_ context.Context, equipmentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.schedules {
		if s.EquipmentID == equipmentID {
			delete(m.schedules, id)
		}
	}
	return nil
}

func (m *memStore) schedule(equipmentID, scheduleType string) *models.MaintenanceSchedule {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.schedules {
		if s.EquipmentID == equipmentID && s.Type == scheduleType {
			return &s
		}
	}
	return nil
}

// MockSummaryCache is a mock implementation of cache.SummaryCache
type MockSummaryCache struct {
	mock.Mock
}

func (m *MockSummaryCache) GetSummary(ctx context.Context, ownerID string, at time.Time) (*maintenance.FleetSummary, int64, error) {
	args := m.Called(ctx, ownerID, at)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).(*maintenance.FleetSummary), args.Get(1).(int64), args.Error(2)
}

func (m *MockSummaryCache) SetSummary(ctx context.Context, ownerID string, generation int64, entry cache.Entry) error {
	args := m.Called(ctx, ownerID, generation, entry)
	return args.Error(0)
}

func (m *MockSummaryCache) Invalidate(ctx context.Context, ownerID string) error {
	args := m.Called(ctx, ownerID)
	return args.Error(0)
}

// memCache is an in-memory SummaryCache with the same generation scheme as Redis.
// beforeSet, when set, runs at the start of SetSummary.
type memCache struct {
	mu          sync.Mutex
	generations map[string]int64
	entries     map[string]cache.Entry
	beforeSet   func()
}

func newMemCache() *memCache {
	return &memCache{generations: map[string]int64{}, entries: map[string]cache.Entry{}}
}

func memCacheKey(ownerID string, generation int64, at time.Time) string {
	return fmt.Sprintf("%s/%d/%s", ownerID, generation, at.UTC().Format(time.DateOnly))
}

func (c *memCache) GetSummary(_ context.Context, ownerID string, at time.Time) (*maintenance.FleetSummary, int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	gen := c.generations[ownerID]
	entry, ok := c.entries[memCacheKey(ownerID, gen, at)]
	if !ok || !entry.Covers(at) {
		return nil, gen, nil
	}
	return &entry.Summary, gen, nil
}

func (c *memCache) SetSummary(_ context.Context, ownerID string, generation int64, entry cache.Entry) error {
	if hook := c.beforeSet; hook != nil {
		c.beforeSet = nil
		hook()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[memCacheKey(ownerID, generation, entry.ValidFrom)] = entry
	return nil
}

func (c *memCache) Invalidate(_ context.Context, ownerID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generations[ownerID]++
	return nil
}

// failingReadings makes every meter update fail.
type failingReadings struct {
	*memStore
}

func (failingReadings) RaiseReadings(context.Context, string, *float64, *float64) (bool, error) {
	return false, errors.New("write conflict")
}

// recorder captures metrics calls.
type recorder struct {
	mu       sync.Mutex
	fleets   map[string]maintenance.FleetSummary
	readings map[string]int
	hits     int
	misses   int
}

func newRecorder() *recorder {
	return &recorder{fleets: map[string]maintenance.FleetSummary{}, readings: map[string]int{}}
}

func (r *recorder) RecordFleet(ownerID string, summary maintenance.FleetSummary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fleets[ownerID] = summary
}

func (r *recorder) RecordReading(result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.readings[result]++
}

func (r *recorder) RecordSummaryLookup(hit bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if hit {
		r.hits++
	} else {
		r.misses++
	}
}
