package maintenance

import (
	"github.com/ukydev/fleet-maintenance/internal/models"
)

// LastServiceOfType returns the most recent event of the given maintenance type, or nil.
// Ties on date go to the event listed first.
func LastServiceOfType(history []models.MaintenanceEvent, maintenanceType string) *models.MaintenanceEvent {
	var last *models.MaintenanceEvent
	for i := range history {
		e := &history[i]
		if e.MaintenanceType != maintenanceType {
			continue
		}
		if last == nil || e.Date.After(last.Date) {
			last = e
		}
	}
	if last == nil {
		return nil
	}
	out := *last
	return &out
}

// RefreshBaseline returns schedule with its last-service baseline taken from event.
// The date always moves; distance and hours move only when the event recorded them.
func RefreshBaseline(schedule models.MaintenanceSchedule, event models.MaintenanceEvent) models.MaintenanceSchedule {
	date := event.Date
	schedule.LastServiceDate = &date
	if event.DistanceAtService != nil {
		v := *event.DistanceAtService
		schedule.LastServiceDistance = &v
	}
	if event.HoursAtService != nil {
		v := *event.HoursAtService
		schedule.LastServiceHours = &v
	}
	return schedule
}
