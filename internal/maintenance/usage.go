package maintenance

import (
	"math"
	"sort"
	"time"

	"github.com/ukydev/fleet-maintenance/internal/models"
)

// Conservative usage assumed when history cannot support an estimate.
const (
	DefaultDistancePerDay = 50.0
	DefaultHoursPerWeek   = 5.0

	MinDistancePerDay = 1.0
	MinHoursPerWeek   = 0.1
)

const (
	day  = 24 * time.Hour
	week = 7 * day
)

// Confidence grades how much history backs a usage estimate.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// UsagePattern is the inferred average usage of one piece of equipment.
type UsagePattern struct {
	DistancePerDay float64    `json:"distance_per_day"`
	HoursPerWeek   float64    `json:"hours_per_week"`
	Confidence     Confidence `json:"confidence"`
	DistancePairs  int        `json:"distance_pairs"`
	HoursPairs     int        `json:"hours_pairs"`
}

// DefaultUsage is the pattern used when there is not enough history.
func DefaultUsage() UsagePattern {
	return UsagePattern{
		DistancePerDay: DefaultDistancePerDay,
		HoursPerWeek:   DefaultHoursPerWeek,
		Confidence:     ConfidenceLow,
	}
}

// EstimateUsage infers average distance per day and hours per week from the readings
// recorded on consecutive maintenance events. The input is not modified.
func EstimateUsage(history []models.MaintenanceEvent) UsagePattern {
	if len(history) < 2 {
		return DefaultUsage()
	}

	sorted := make([]models.MaintenanceEvent, len(history))
	copy(sorted, history)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	var (
		totalDistance, totalDays float64
		totalHours, totalWeeks   float64
		distancePairs            int
		hoursPairs               int
	)

	for i := 1; i < len(sorted); i++ {
		prev, curr := sorted[i-1], sorted[i]
		elapsed := curr.Date.Sub(prev.Date)

		if increased(prev.DistanceAtService, curr.DistanceAtService) {
			if days := float64(elapsed) / float64(day); days > 0 {
				totalDistance += *curr.DistanceAtService - *prev.DistanceAtService
				totalDays += days
				distancePairs++
			}
		}

		if increased(prev.HoursAtService, curr.HoursAtService) {
			if weeks := float64(elapsed) / float64(week); weeks > 0 {
				totalHours += *curr.HoursAtService - *prev.HoursAtService
				totalWeeks += weeks
				hoursPairs++
			}
		}
	}

	distancePerDay := DefaultDistancePerDay
	if totalDays > 0 {
		distancePerDay = totalDistance / totalDays
	}
	hoursPerWeek := DefaultHoursPerWeek
	if totalWeeks > 0 {
		hoursPerWeek = totalHours / totalWeeks
	}

	confidence := ConfidenceLow
	switch {
	case distancePairs >= 3 || hoursPairs >= 3:
		confidence = ConfidenceHigh
	case distancePairs >= 1 || hoursPairs >= 1:
		confidence = ConfidenceMedium
	}

	return UsagePattern{
		DistancePerDay: math.Max(MinDistancePerDay, roundTenth(distancePerDay)),
		HoursPerWeek:   math.Max(MinHoursPerWeek, roundTenth(hoursPerWeek)),
		Confidence:     confidence,
		DistancePairs:  distancePairs,
		HoursPairs:     hoursPairs,
	}
}

func increased(prev, curr *float64) bool {
	return prev != nil && curr != nil && *prev < *curr
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
