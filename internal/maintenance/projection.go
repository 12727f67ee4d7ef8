package maintenance

import (
	"math"
	"time"

	"github.com/ukydev/fleet-maintenance/internal/models"
)

// DueSoonWindowDays is how far ahead a due date counts as due soon.
const DueSoonWindowDays = 14

// Projection is the projected next due date of one schedule.
//
// DaysUntilDue never goes below zero. For distance and hours schedules an exhausted
// interval reports zero days ("due now") with IsOverdue set; how far past the interval
// the equipment is can be read from Remaining. For day schedules DaysOverdue carries the
// magnitude and NextDueDate stays in the past.
type Projection struct {
	NextDueDate  time.Time           `json:"next_due_date"`
	DaysUntilDue int                 `json:"days_until_due"`
	DaysOverdue  int                 `json:"days_overdue"`
	Remaining    float64             `json:"remaining"`
	Unit         models.IntervalUnit `json:"unit"`
	IsOverdue    bool                `json:"is_overdue"`
	IsDueSoon    bool                `json:"is_due_soon"`
}

// ProjectNextDue projects when schedule will next be due on equipment, given its usage
// pattern, as seen at now. It returns nil when the reading or baseline the schedule's
// unit needs has not been recorded.
//
// Days are fixed 24 hour spans; no calendar or DST adjustment is made.
func ProjectNextDue(schedule models.MaintenanceSchedule, equipment models.Equipment, usage UsagePattern, now time.Time) *Projection {
	switch schedule.IntervalUnit {
	case models.IntervalDistance:
		if equipment.CurrentDistance == nil || schedule.LastServiceDistance == nil {
			return nil
		}
		rate := usage.DistancePerDay
		if rate <= 0 {
			rate = DefaultDistancePerDay
		}
		return projectByUsage(schedule, *equipment.CurrentDistance, *schedule.LastServiceDistance, rate, now)

	case models.IntervalHours:
		if equipment.CurrentHours == nil || schedule.LastServiceHours == nil {
			return nil
		}
		perWeek := usage.HoursPerWeek
		if perWeek <= 0 {
			perWeek = DefaultHoursPerWeek
		}
		return projectByUsage(schedule, *equipment.CurrentHours, *schedule.LastServiceHours, perWeek/7, now)

	case models.IntervalDays:
		if schedule.LastServiceDate == nil {
			return nil
		}
		return projectByCalendar(schedule, *schedule.LastServiceDate, now)
	}
	return nil
}

// projectByUsage converts the interval left on a metered schedule into days at
// perDay units a day.
func projectByUsage(schedule models.MaintenanceSchedule, current, baseline, perDay float64, now time.Time) *Projection {
	consumed := current - baseline
	remaining := schedule.IntervalValue - consumed

	daysUntilDue := 0
	if remaining > 0 {
		daysUntilDue = int(math.Ceil(remaining / perDay))
	}

	return &Projection{
		NextDueDate:  now.Add(time.Duration(daysUntilDue) * day),
		DaysUntilDue: daysUntilDue,
		Remaining:    remaining,
		Unit:         schedule.IntervalUnit,
		IsOverdue:    remaining <= 0,
		IsDueSoon:    dueSoon(daysUntilDue),
	}
}

func projectByCalendar(schedule models.MaintenanceSchedule, lastService, now time.Time) *Projection {
	daysSince := int(math.Floor(float64(now.Sub(lastService)) / float64(day)))
	// fractional intervals round up to whole days for both the count and the date
	intervalDays := int(math.Ceil(schedule.IntervalValue))
	untilDue := intervalDays - daysSince

	p := &Projection{
		NextDueDate:  lastService.Add(time.Duration(intervalDays) * day),
		DaysUntilDue: untilDue,
		Remaining:    float64(untilDue),
		Unit:         schedule.IntervalUnit,
		IsOverdue:    untilDue < 0,
		IsDueSoon:    dueSoon(untilDue),
	}
	if untilDue < 0 {
		p.DaysUntilDue = 0
		p.DaysOverdue = -untilDue
	}
	return p
}

func dueSoon(days int) bool {
	return days >= 0 && days <= DueSoonWindowDays
}
