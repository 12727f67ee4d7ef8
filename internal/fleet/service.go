// Package fleet runs the equipment, maintenance log and schedule workflows on top of
// storage, and feeds them through the forecasting engine.
package fleet

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-maintenance/internal/cache"
	"github.com/ukydev/fleet-maintenance/internal/db"
	"github.com/ukydev/fleet-maintenance/internal/maintenance"
	"github.com/ukydev/fleet-maintenance/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrEquipmentNotFound = errors.New("equipment not found")
	ErrEventNotFound     = errors.New("maintenance event not found")
	ErrScheduleNotFound  = errors.New("schedule not found")
	// ErrInvalidInput wraps every validation failure; the message says what was wrong.
	ErrInvalidInput = errors.New("invalid input")
)

// Recorder receives the service's metrics. *metrics.Collector implements it.
type Recorder interface {
	RecordFleet(ownerID string, summary maintenance.FleetSummary)
	RecordReading(result string)
	RecordSummaryLookup(hit bool)
}

type noopRecorder struct{}

func (noopRecorder) RecordFleet(string, maintenance.FleetSummary) {}
func (noopRecorder) RecordReading(string)                         {}
func (noopRecorder) RecordSummaryLookup(bool)                     {}

// Service coordinates equipment, maintenance events and schedules for fleet owners.
// Writes touching one piece of equipment are serialized; reads take a snapshot and
// evaluate it without locks.
type Service struct {
	equipment db.EquipmentCollection
	events    db.MaintenanceEventCollection
	schedules db.ScheduleCollection
	cache     cache.SummaryCache
	recorder  Recorder
	locks     keyedMutex
	clock     func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithCache caches fleet summaries.
func WithCache(c cache.SummaryCache) Option {
	return func(s *Service) { s.cache = c }
}

// WithRecorder reports metrics to r.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithClock sets the time source used for record timestamps.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) { s.clock = clock }
}

// NewService creates a fleet service over the given collections.
func NewService(equipment db.EquipmentCollection, events db.MaintenanceEventCollection, schedules db.ScheduleCollection, opts ...Option) *Service {
	s := &Service{
		equipment: equipment,
		events:    events,
		schedules: schedules,
		cache:     cache.Noop{},
		recorder:  noopRecorder{},
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EquipmentView is one row of the equipment list.
type EquipmentView struct {
	Equipment models.Equipment            `json:"equipment"`
	Status    maintenance.Status          `json:"status"`
	Usage     maintenance.UsagePattern    `json:"usage"`
	NextDue   *maintenance.ScheduleReport `json:"next_due,omitempty"`
}

// ListEquipment returns the owner's equipment with the roll-up status of each, as seen at now.
func (s *Service) ListEquipment(ctx context.Context, ownerID string, now time.Time) ([]EquipmentView, error) {
	equipment, schedules, history, err := s.snapshot(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	schedulesByID := groupSchedules(schedules)
	historyByID := groupEvents(history)

	views := make([]EquipmentView, 0, len(equipment))
	for _, eq := range equipment {
		id := eq.ID.Hex()
		report := maintenance.Evaluate(eq, schedulesByID[id], historyByID[id], now)
		views = append(views, EquipmentView{
			Equipment: eq,
			Status:    report.Status,
			Usage:     report.Usage,
			NextDue:   soonest(report.Schedules),
		})
	}
	return views, nil
}

// soonest picks the projected schedule that falls due first.
func soonest(reports []maintenance.ScheduleReport) *maintenance.ScheduleReport {
	var next *maintenance.ScheduleReport
	for i := range reports {
		r := &reports[i]
		if r.Projection == nil {
			continue
		}
		if next == nil || r.Projection.NextDueDate.Before(next.Projection.NextDueDate) {
			next = r
		}
	}
	return next
}

// GetEquipment returns one piece of the owner's equipment.
func (s *Service) GetEquipment(ctx context.Context, ownerID, id string) (*models.Equipment, error) {
	eq, err := s.equipment.FindEquipmentByID(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrEquipmentNotFound
		}
		return nil, fmt.Errorf("find equipment: %w", err)
	}
	if eq.OwnerID != ownerID {
		return nil, ErrEquipmentNotFound
	}
	return eq, nil
}

// EquipmentReport evaluates one piece of equipment at now and returns the report with
// the maintenance history it was built from, newest first.
func (s *Service) EquipmentReport(ctx context.Context, ownerID, id string, now time.Time) (*maintenance.Report, []models.MaintenanceEvent, error) {
	eq, err := s.GetEquipment(ctx, ownerID, id)
	if err != nil {
		return nil, nil, err
	}
	schedules, err := s.schedules.FindSchedules(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("find schedules: %w", err)
	}
	history, err := s.events.FindEvents(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("find events: %w", err)
	}
	report := maintenance.Evaluate(*eq, schedules, history, now)
	return &report, history, nil
}

// CreateEquipment adds equipment to the owner's fleet.
func (s *Service) CreateEquipment(ctx context.Context, ownerID string, req models.EquipmentRequest) (*models.Equipment, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}
	now := s.clock()
	eq := models.Equipment{
		ID:        primitive.NewObjectID(),
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	req.Apply(&eq)

	if err := s.equipment.InsertEquipment(ctx, eq); err != nil {
		return nil, fmt.Errorf("insert equipment: %w", err)
	}
	s.invalidate(ctx, ownerID)

	log.WithFields(log.Fields{
		"equipment_id": eq.ID.Hex(),
		"owner_id":     ownerID,
		"type":         eq.Type,
	}).Info("Created equipment")
	return &eq, nil
}

// UpdateEquipment replaces the editable fields of one piece of equipment.
func (s *Service) UpdateEquipment(ctx context.Context, ownerID, id string, req models.EquipmentRequest) (*models.Equipment, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}
	unlock := s.locks.Lock(id)
	defer unlock()

	eq, err := s.GetEquipment(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	req.Apply(eq)
	eq.UpdatedAt = s.clock()

	if err := s.equipment.UpdateEquipment(ctx, *eq); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrEquipmentNotFound
		}
		return nil, fmt.Errorf("update equipment: %w", err)
	}
	s.invalidate(ctx, ownerID)
	return eq, nil
}

// DeleteEquipment removes equipment together with its maintenance log and schedules.
func (s *Service) DeleteEquipment(ctx context.Context, ownerID, id string) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	if _, err := s.GetEquipment(ctx, ownerID, id); err != nil {
		return err
	}
	if err := s.schedules.DeleteSchedulesForEquipment(ctx, id); err != nil {
		return fmt.Errorf("delete schedules: %w", err)
	}
	if err := s.events.DeleteEventsForEquipment(ctx, id); err != nil {
		return fmt.Errorf("delete events: %w", err)
	}
	if err := s.equipment.DeleteEquipment(ctx, id); err != nil && !errors.Is(err, db.ErrNotFound) {
		return fmt.Errorf("delete equipment: %w", err)
	}
	s.invalidate(ctx, ownerID)

	log.WithFields(log.Fields{"equipment_id": id, "owner_id": ownerID}).Info("Deleted equipment")
	return nil
}

// LogMaintenance records a completed service. Readings on the event move the
// equipment's meters forward, and a schedule of the same type takes the event as its
// new baseline when it is the most recent service of that type.
func (s *Service) LogMaintenance(ctx context.Context, ownerID, equipmentID string, req models.MaintenanceRequest, now time.Time) (*models.MaintenanceEvent, error) {
	if err := req.Validate(now); err != nil {
		return nil, invalid(err)
	}
	unlock := s.locks.Lock(equipmentID)
	defer unlock()

	if _, err := s.GetEquipment(ctx, ownerID, equipmentID); err != nil {
		return nil, err
	}

	stamp := s.clock()
	event := req.Event(equipmentID)
	event.ID = primitive.NewObjectID()
	event.CreatedAt = stamp
	event.UpdatedAt = stamp

	if err := s.events.InsertEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	if err := s.raiseReadings(ctx, equipmentID, event.DistanceAtService, event.HoursAtService); err != nil {
		return nil, s.partialWrite(ctx, ownerID, event, err)
	}
	if err := s.syncBaseline(ctx, equipmentID, event.MaintenanceType, event.ID); err != nil {
		return nil, s.partialWrite(ctx, ownerID, event, err)
	}
	s.invalidate(ctx, ownerID)

	log.WithFields(log.Fields{
		"equipment_id":     equipmentID,
		"event_id":         event.ID.Hex(),
		"maintenance_type": event.MaintenanceType,
	}).Info("Logged maintenance")
	return &event, nil
}

// UpdateMaintenance edits a logged event and resyncs the affected schedule baselines.
func (s *Service) UpdateMaintenance(ctx context.Context, ownerID, eventID string, req models.MaintenanceRequest, now time.Time) (*models.MaintenanceEvent, error) {
	if err := req.Validate(now); err != nil {
		return nil, invalid(err)
	}
	event, err := s.ownedEvent(ctx, ownerID, eventID)
	if err != nil {
		return nil, err
	}
	unlock := s.locks.Lock(event.EquipmentID)
	defer unlock()

	previousType := event.MaintenanceType
	updated := req.Event(event.EquipmentID)
	updated.ID = event.ID
	updated.CreatedAt = event.CreatedAt
	updated.UpdatedAt = s.clock()

	if err := s.events.UpdateEvent(ctx, updated); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("update event: %w", err)
	}
	if err := s.raiseReadings(ctx, updated.EquipmentID, updated.DistanceAtService, updated.HoursAtService); err != nil {
		return nil, s.partialWrite(ctx, ownerID, updated, err)
	}
	for _, t := range distinct(previousType, updated.MaintenanceType) {
		if err := s.syncBaseline(ctx, updated.EquipmentID, t, primitive.NilObjectID); err != nil {
			return nil, s.partialWrite(ctx, ownerID, updated, err)
		}
	}
	s.invalidate(ctx, ownerID)
	return &updated, nil
}

// DeleteMaintenance removes a logged event. A schedule that used it as its baseline
// falls back to the previous service of the same type, if there is one.
func (s *Service) DeleteMaintenance(ctx context.Context, ownerID, eventID string) error {
	event, err := s.ownedEvent(ctx, ownerID, eventID)
	if err != nil {
		return err
	}
	unlock := s.locks.Lock(event.EquipmentID)
	defer unlock()

	if err := s.events.DeleteEvent(ctx, eventID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return ErrEventNotFound
		}
		return fmt.Errorf("delete event: %w", err)
	}
	if err := s.syncBaseline(ctx, event.EquipmentID, event.MaintenanceType, primitive.NilObjectID); err != nil {
		return s.partialWrite(ctx, ownerID, *event, err)
	}
	s.invalidate(ctx, ownerID)
	return nil
}

// History returns the maintenance log of one piece of equipment, newest first.
func (s *Service) History(ctx context.Context, ownerID, equipmentID string) ([]models.MaintenanceEvent, error) {
	if _, err := s.GetEquipment(ctx, ownerID, equipmentID); err != nil {
		return nil, err
	}
	history, err := s.events.FindEvents(ctx, equipmentID)
	if err != nil {
		return nil, fmt.Errorf("find events: %w", err)
	}
	return history, nil
}

// SaveSchedule enables or edits the schedule of req.Type on the equipment. A request
// without an interval takes the catalog template of that type. Without an explicit
// baseline the latest logged service of that type is used, then whatever baseline the
// existing schedule had.
func (s *Service) SaveSchedule(ctx context.Context, ownerID, equipmentID string, req models.ScheduleRequest) (*models.MaintenanceSchedule, error) {
	unlock := s.locks.Lock(equipmentID)
	defer unlock()

	equipment, err := s.GetEquipment(ctx, ownerID, equipmentID)
	if err != nil {
		return nil, err
	}
	if req.IntervalUnit == "" && req.IntervalValue == 0 {
		if t, ok := maintenance.FindTemplate(equipment.Type, req.Type); ok {
			req.IntervalUnit = t.DefaultIntervalUnit
			req.IntervalValue = t.DefaultInterval
		}
	}
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}

	schedule := req.Schedule(equipmentID)
	existing, err := s.findSchedule(ctx, equipmentID, schedule.Type)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		// types match case-insensitively; the stored spelling keys the upsert
		schedule.Type = existing.Type
	}
	if !req.HasBaseline() {
		history, err := s.events.FindEvents(ctx, equipmentID)
		if err != nil {
			return nil, fmt.Errorf("find events: %w", err)
		}
		if last := lastServiceFolded(history, schedule.Type); last != nil {
			schedule = maintenance.RefreshBaseline(schedule, *last)
		} else if existing != nil {
			schedule.LastServiceDate = existing.LastServiceDate
			schedule.LastServiceDistance = existing.LastServiceDistance
			schedule.LastServiceHours = existing.LastServiceHours
		}
	}

	stored, err := s.schedules.UpsertSchedule(ctx, schedule)
	if err != nil {
		return nil, fmt.Errorf("save schedule: %w", err)
	}
	s.invalidate(ctx, ownerID)
	return stored, nil
}

// DeleteSchedule disables a schedule.
func (s *Service) DeleteSchedule(ctx context.Context, ownerID, scheduleID string) error {
	schedule, err := s.schedules.FindScheduleByID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return ErrScheduleNotFound
		}
		return fmt.Errorf("find schedule: %w", err)
	}
	if _, err := s.GetEquipment(ctx, ownerID, schedule.EquipmentID); err != nil {
		if errors.Is(err, ErrEquipmentNotFound) {
			return ErrScheduleNotFound
		}
		return err
	}
	unlock := s.locks.Lock(schedule.EquipmentID)
	defer unlock()

	if err := s.schedules.DeleteSchedule(ctx, scheduleID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return ErrScheduleNotFound
		}
		return fmt.Errorf("delete schedule: %w", err)
	}
	s.invalidate(ctx, ownerID)
	return nil
}

// Schedules returns the equipment's schedules with their projections at now.
func (s *Service) Schedules(ctx context.Context, ownerID, equipmentID string, now time.Time) ([]maintenance.ScheduleReport, error) {
	report, _, err := s.EquipmentReport(ctx, ownerID, equipmentID, now)
	if err != nil {
		return nil, err
	}
	return report.Schedules, nil
}

// Templates returns the suggested schedules for the equipment's type.
func (s *Service) Templates(ctx context.Context, ownerID, equipmentID string) ([]maintenance.Template, error) {
	eq, err := s.GetEquipment(ctx, ownerID, equipmentID)
	if err != nil {
		return nil, err
	}
	return maintenance.TemplatesForType(eq.Type), nil
}

// FleetSummary counts the owner's equipment by status at now. A cached summary is
// reused only for reference times inside the span where no status can change, and
// only until the next write to the owner's fleet.
func (s *Service) FleetSummary(ctx context.Context, ownerID string, now time.Time) (maintenance.FleetSummary, error) {
	at := now.UTC()
	cached, generation, err := s.cache.GetSummary(ctx, ownerID, at)
	cacheable := err == nil
	if err != nil {
		log.WithError(err).WithField("owner_id", ownerID).Warn("Fleet summary cache read failed")
	}
	if cached != nil {
		s.recorder.RecordSummaryLookup(true)
		return *cached, nil
	}
	s.recorder.RecordSummaryLookup(false)

	equipment, schedules, history, err := s.snapshot(ctx, ownerID)
	if err != nil {
		return maintenance.FleetSummary{}, err
	}
	summary := maintenance.Fleet(equipment, schedules, history, now)

	if cacheable {
		from, until := maintenance.StatusWindow(schedules, at)
		entry := cache.Entry{Summary: summary, ValidFrom: from, ValidUntil: until}
		if err := s.cache.SetSummary(ctx, ownerID, generation, entry); err != nil {
			log.WithError(err).WithField("owner_id", ownerID).Warn("Fleet summary cache write failed")
		}
	}
	s.recorder.RecordFleet(ownerID, summary)
	return summary, nil
}

// Reading outcomes reported to the Recorder.
const (
	ReadingApplied  = "applied"
	ReadingIgnored  = "ignored"
	ReadingRejected = "rejected"
)

// ApplyReading moves an equipment's meters forward to a reported reading. Readings lower
// than the stored values are ignored. It reports whether anything changed.
func (s *Service) ApplyReading(ctx context.Context, equipmentID string, reading models.Reading) (bool, error) {
	if err := validateReading(reading); err != nil {
		s.recorder.RecordReading(ReadingRejected)
		return false, invalid(err)
	}
	unlock := s.locks.Lock(equipmentID)
	defer unlock()

	eq, err := s.equipment.FindEquipmentByID(ctx, equipmentID)
	if err != nil {
		s.recorder.RecordReading(ReadingRejected)
		if errors.Is(err, db.ErrNotFound) {
			return false, ErrEquipmentNotFound
		}
		return false, fmt.Errorf("find equipment: %w", err)
	}

	changed, err := s.equipment.RaiseReadings(ctx, equipmentID, reading.Distance, reading.Hours)
	if err != nil {
		return false, fmt.Errorf("raise readings: %w", err)
	}
	if !changed {
		s.recorder.RecordReading(ReadingIgnored)
		log.WithFields(log.Fields{
			"equipment_id": equipmentID,
			"distance":     valueOrNil(reading.Distance),
			"hours":        valueOrNil(reading.Hours),
		}).Debug("Reading not ahead of stored meters, ignored")
		return false, nil
	}
	s.recorder.RecordReading(ReadingApplied)
	s.invalidate(ctx, eq.OwnerID)
	return true, nil
}

func validateReading(r models.Reading) error {
	if r.Distance == nil && r.Hours == nil {
		return errors.New("reading carries neither distance nor hours")
	}
	if r.Distance != nil && *r.Distance < 0 {
		return errors.New("distance must be a non-negative number")
	}
	if r.Hours != nil && *r.Hours < 0 {
		return errors.New("hours must be a non-negative number")
	}
	return nil
}

// snapshot loads everything needed to evaluate the owner's whole fleet.
func (s *Service) snapshot(ctx context.Context, ownerID string) ([]models.Equipment, []models.MaintenanceSchedule, []models.MaintenanceEvent, error) {
	equipment, err := s.equipment.FindEquipment(ctx, ownerID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("find equipment: %w", err)
	}
	ids := make([]string, 0, len(equipment))
	for _, eq := range equipment {
		ids = append(ids, eq.ID.Hex())
	}
	schedules, err := s.schedules.FindSchedules(ctx, ids...)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("find schedules: %w", err)
	}
	history, err := s.events.FindEvents(ctx, ids...)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("find events: %w", err)
	}
	return equipment, schedules, history, nil
}

func (s *Service) ownedEvent(ctx context.Context, ownerID, eventID string) (*models.MaintenanceEvent, error) {
	event, err := s.events.FindEventByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("find event: %w", err)
	}
	if _, err := s.GetEquipment(ctx, ownerID, event.EquipmentID); err != nil {
		if errors.Is(err, ErrEquipmentNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return event, nil
}

func (s *Service) findSchedule(ctx context.Context, equipmentID, scheduleType string) (*models.MaintenanceSchedule, error) {
	schedules, err := s.schedules.FindSchedules(ctx, equipmentID)
	if err != nil {
		return nil, fmt.Errorf("find schedules: %w", err)
	}
	for i := range schedules {
		if strings.EqualFold(schedules[i].Type, scheduleType) {
			return &schedules[i], nil
		}
	}
	return nil, nil
}

// syncBaseline points the schedule of maintenanceType at the latest logged service of
// that type. When trigger is set the baseline only moves if trigger is that latest
// service. With no such service left the schedule keeps its baseline.
func (s *Service) syncBaseline(ctx context.Context, equipmentID, maintenanceType string, trigger primitive.ObjectID) error {
	schedule, err := s.findSchedule(ctx, equipmentID, maintenanceType)
	if err != nil || schedule == nil {
		return err
	}
	history, err := s.events.FindEvents(ctx, equipmentID)
	if err != nil {
		return fmt.Errorf("find events: %w", err)
	}
	last := lastServiceFolded(history, schedule.Type)
	if last == nil || (!trigger.IsZero() && last.ID != trigger) {
		return nil
	}
	if _, err := s.schedules.UpsertSchedule(ctx, maintenance.RefreshBaseline(*schedule, *last)); err != nil {
		return fmt.Errorf("refresh schedule baseline: %w", err)
	}
	return nil
}

// lastServiceFolded is LastServiceOfType with case-insensitive type matching.
func lastServiceFolded(history []models.MaintenanceEvent, maintenanceType string) *models.MaintenanceEvent {
	matching := make([]models.MaintenanceEvent, 0, len(history))
	for _, e := range history {
		if strings.EqualFold(e.MaintenanceType, maintenanceType) {
			e.MaintenanceType = maintenanceType
			matching = append(matching, e)
		}
	}
	return maintenance.LastServiceOfType(matching, maintenanceType)
}

// partialWrite reports an event write that went through while the meter or baseline
// update after it failed. The event stays; the log line names it for repair.
func (s *Service) partialWrite(ctx context.Context, ownerID string, event models.MaintenanceEvent, err error) error {
	s.invalidate(ctx, ownerID)
	log.WithError(err).WithFields(log.Fields{
		"equipment_id":     event.EquipmentID,
		"event_id":         event.ID.Hex(),
		"maintenance_type": event.MaintenanceType,
	}).Error("Maintenance event saved but follow-up update failed")
	return err
}

func (s *Service) raiseReadings(ctx context.Context, equipmentID string, distance, hours *float64) error {
	if distance == nil && hours == nil {
		return nil
	}
	if _, err := s.equipment.RaiseReadings(ctx, equipmentID, distance, hours); err != nil {
		return fmt.Errorf("raise readings: %w", err)
	}
	return nil
}

func (s *Service) invalidate(ctx context.Context, ownerID string) {
	if err := s.cache.Invalidate(ctx, ownerID); err != nil {
		log.WithError(err).WithField("owner_id", ownerID).Warn("Fleet summary cache invalidation failed")
	}
}

func invalid(err error) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
}

func distinct(a, b string) []string {
	if strings.EqualFold(a, b) {
		return []string{a}
	}
	return []string{a, b}
}

func valueOrNil(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func groupSchedules(schedules []models.MaintenanceSchedule) map[string][]models.MaintenanceSchedule {
	out := make(map[string][]models.MaintenanceSchedule)
	for _, sc := range schedules {
		out[sc.EquipmentID] = append(out[sc.EquipmentID], sc)
	}
	return out
}

func groupEvents(events []models.MaintenanceEvent) map[string][]models.MaintenanceEvent {
	out := make(map[string][]models.MaintenanceEvent)
	for _, e := range events {
		out[e.EquipmentID] = append(out[e.EquipmentID], e)
	}
	for id := range out {
		sort.SliceStable(out[id], func(i, j int) bool {
			return out[id][i].Date.After(out[id][j].Date)
		})
	}
	return out
}
