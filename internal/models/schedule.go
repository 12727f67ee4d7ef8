package models

import (
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IntervalUnit is the measurement a maintenance interval is counted in.
type IntervalUnit string

const (
	IntervalDistance IntervalUnit = "distance"
	IntervalHours    IntervalUnit = "hours"
	IntervalDays     IntervalUnit = "days"
)

// IsValidIntervalUnit checks if a unit is one of the supported interval units
func IsValidIntervalUnit(unit IntervalUnit) bool {
	switch unit {
	case IntervalDistance, IntervalHours, IntervalDays:
		return true
	default:
		return false
	}
}

// MaintenanceSchedule is a recurring maintenance requirement on one piece of equipment.
// There is at most one schedule per (EquipmentID, Type).
type MaintenanceSchedule struct {
	ID                  primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	EquipmentID         string             `json:"equipment_id" bson:"equipment_id"`
	Type                string             `json:"type" bson:"type"`
	IntervalUnit        IntervalUnit       `json:"interval_unit" bson:"interval_unit"`
	IntervalValue       float64            `json:"interval_value" bson:"interval_value"`
	LastServiceDate     *time.Time         `json:"last_service_date,omitempty" bson:"last_service_date,omitempty"`
	LastServiceDistance *float64           `json:"last_service_distance,omitempty" bson:"last_service_distance,omitempty"`
	LastServiceHours    *float64           `json:"last_service_hours,omitempty" bson:"last_service_hours,omitempty"`
	CreatedAt           time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at" bson:"updated_at"`
}

// ScheduleRequest is the body accepted when enabling or editing a schedule.
type ScheduleRequest struct {
	Type                string       `json:"type"`
	IntervalUnit        IntervalUnit `json:"interval_unit"`
	IntervalValue       float64      `json:"interval_value"`
	LastServiceDate     *time.Time   `json:"last_service_date,omitempty"`
	LastServiceDistance *float64     `json:"last_service_distance,omitempty"`
	LastServiceHours    *float64     `json:"last_service_hours,omitempty"`
}

// Validate checks the request.
func (r ScheduleRequest) Validate() error {
	if strings.TrimSpace(r.Type) == "" {
		return errors.New("schedule type is required")
	}
	if !IsValidIntervalUnit(r.IntervalUnit) {
		return errors.New("interval unit must be one of distance, hours, days")
	}
	if r.IntervalValue <= 0 {
		return errors.New("interval value must be positive")
	}
	return nil
}

// HasBaseline reports whether the request carries any last-service value.
func (r ScheduleRequest) HasBaseline() bool {
	return r.LastServiceDate != nil || r.LastServiceDistance != nil || r.LastServiceHours != nil
}

// Schedule builds the schedule described by the request.
func (r ScheduleRequest) Schedule(equipmentID string) MaintenanceSchedule {
	return MaintenanceSchedule{
		EquipmentID:         equipmentID,
		Type:                strings.TrimSpace(r.Type),
		IntervalUnit:        r.IntervalUnit,
		IntervalValue:       r.IntervalValue,
		LastServiceDate:     r.LastServiceDate,
		LastServiceDistance: r.LastServiceDistance,
		LastServiceHours:    r.LastServiceHours,
	}
}
