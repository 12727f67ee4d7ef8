package maintenance

import (
	"math"
	"time"

	"github.com/ukydev/fleet-maintenance/internal/models"
)

// Status is the urgency of a schedule, or the worst urgency across a machine's schedules.
type Status string

const (
	StatusGood    Status = "good"
	StatusDueSoon Status = "due_soon"
	StatusOverdue Status = "overdue"
)

func (s Status) severity() int {
	switch s {
	case StatusOverdue:
		return 2
	case StatusDueSoon:
		return 1
	default:
		return 0
	}
}

// Classify maps a projection to an urgency. A nil projection is good: nothing to
// project from is not a risk signal.
func Classify(p *Projection) Status {
	switch {
	case p == nil:
		return StatusGood
	case p.IsOverdue:
		return StatusOverdue
	case p.IsDueSoon:
		return StatusDueSoon
	default:
		return StatusGood
	}
}

// ScheduleStatus projects and classifies a single schedule.
func ScheduleStatus(schedule models.MaintenanceSchedule, equipment models.Equipment, usage UsagePattern, now time.Time) Status {
	return Classify(ProjectNextDue(schedule, equipment, usage, now))
}

// Worst returns the most urgent of the given statuses, or good when there are none.
func Worst(statuses ...Status) Status {
	worst := StatusGood
	for _, s := range statuses {
		if s.severity() > worst.severity() {
			worst = s
		}
	}
	return worst
}

// EquipmentStatus rolls the schedules attached to equipment up into one status.
// Schedules that belong to other equipment are skipped.
func EquipmentStatus(equipment models.Equipment, schedules []models.MaintenanceSchedule, usage UsagePattern, now time.Time) Status {
	id := equipment.ID.Hex()
	worst := StatusGood
	for _, s := range schedules {
		if s.EquipmentID != id {
			continue
		}
		if status := ScheduleStatus(s, equipment, usage, now); status.severity() > worst.severity() {
			worst = status
			if worst == StatusOverdue {
				break
			}
		}
	}
	return worst
}

// FleetSummary counts equipment by roll-up status.
type FleetSummary struct {
	Total   int `json:"total"`
	Good    int `json:"good"`
	DueSoon int `json:"due_soon"`
	Overdue int `json:"overdue"`
}

// Add tallies one equipment status.
func (f *FleetSummary) Add(s Status) {
	f.Total++
	switch s {
	case StatusOverdue:
		f.Overdue++
	case StatusDueSoon:
		f.DueSoon++
	default:
		f.Good++
	}
}

// Summarize tallies per-equipment statuses.
func Summarize(statuses []Status) FleetSummary {
	var f FleetSummary
	for _, s := range statuses {
		f.Add(s)
	}
	return f
}

// Fleet evaluates every piece of equipment against its own schedules and history and
// tallies the results. Schedules and history may cover the whole fleet; they are
// grouped by equipment id.
func Fleet(equipment []models.Equipment, schedules []models.MaintenanceSchedule, history []models.MaintenanceEvent, now time.Time) FleetSummary {
	schedulesByEquipment := make(map[string][]models.MaintenanceSchedule)
	for _, s := range schedules {
		schedulesByEquipment[s.EquipmentID] = append(schedulesByEquipment[s.EquipmentID], s)
	}
	historyByEquipment := make(map[string][]models.MaintenanceEvent)
	for _, e := range history {
		historyByEquipment[e.EquipmentID] = append(historyByEquipment[e.EquipmentID], e)
	}

	var summary FleetSummary
	for _, eq := range equipment {
		id := eq.ID.Hex()
		usage := EstimateUsage(historyByEquipment[id])
		summary.Add(EquipmentStatus(eq, schedulesByEquipment[id], usage, now))
	}
	return summary
}

// StatusWindow returns the span [from, until) around now, inside now's UTC day, in
// which no schedule can change status. Only calendar schedules move with the clock:
// their elapsed day count steps every 24h after the last service.
func StatusWindow(schedules []models.MaintenanceSchedule, now time.Time) (from, until time.Time) {
	now = now.UTC()
	from = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	until = from.Add(day)
	for _, s := range schedules {
		if s.IntervalUnit != models.IntervalDays || s.LastServiceDate == nil {
			continue
		}
		elapsed := math.Floor(float64(now.Sub(*s.LastServiceDate)) / float64(day))
		step := s.LastServiceDate.Add(time.Duration(elapsed) * day).UTC()
		if step.After(from) {
			from = step
		}
		if next := step.Add(day); next.Before(until) {
			until = next
		}
	}
	return from, until
}

// ScheduleReport is one schedule with its projection and urgency.
type ScheduleReport struct {
	Schedule   models.MaintenanceSchedule `json:"schedule"`
	Projection *Projection                `json:"projection,omitempty"`
	Status     Status                     `json:"status"`
}

// Report is the full maintenance picture of one piece of equipment.
type Report struct {
	Equipment   models.Equipment `json:"equipment"`
	Usage       UsagePattern     `json:"usage"`
	Status      Status           `json:"status"`
	Schedules   []ScheduleReport `json:"schedules"`
	ReferenceAt time.Time        `json:"reference_at"`
}

// Evaluate builds the report for one piece of equipment.
func Evaluate(equipment models.Equipment, schedules []models.MaintenanceSchedule, history []models.MaintenanceEvent, now time.Time) Report {
	id := equipment.ID.Hex()
	usage := EstimateUsage(history)

	report := Report{
		Equipment:   equipment,
		Usage:       usage,
		Status:      StatusGood,
		Schedules:   make([]ScheduleReport, 0, len(schedules)),
		ReferenceAt: now,
	}
	for _, s := range schedules {
		if s.EquipmentID != id {
			continue
		}
		p := ProjectNextDue(s, equipment, usage, now)
		status := Classify(p)
		report.Schedules = append(report.Schedules, ScheduleReport{Schedule: s, Projection: p, Status: status})
		report.Status = Worst(report.Status, status)
	}
	return report
}
