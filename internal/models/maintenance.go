package models

import (
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxNotesLength is the longest notes text accepted on a maintenance event.
const MaxNotesLength = 500

// MaintenanceTypes is the catalog offered when logging maintenance. It is not enforced.
var MaintenanceTypes = []string{
	"Oil Change",
	"Tire Rotation",
	"Brake Service",
	"Filter Replacement",
	"Repair",
	"Inspection",
	"Other",
}

// MaintenanceEvent represents one logged service on a piece of equipment.
type MaintenanceEvent struct {
	ID                primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	EquipmentID       string             `json:"equipment_id" bson:"equipment_id"`
	MaintenanceType   string             `json:"maintenance_type" bson:"maintenance_type"`
	Date              time.Time          `json:"date" bson:"date"`
	Cost              *float64           `json:"cost,omitempty" bson:"cost,omitempty"` // in USD
	DistanceAtService *float64           `json:"distance_at_service,omitempty" bson:"distance_at_service,omitempty"`
	HoursAtService    *float64           `json:"hours_at_service,omitempty" bson:"hours_at_service,omitempty"`
	Notes             string             `json:"notes" bson:"notes"`
	CreatedAt         time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at" bson:"updated_at"`
}

// MaintenanceRequest is the body accepted when logging or editing a maintenance event.
type MaintenanceRequest struct {
	MaintenanceType string    `json:"maintenance_type"`
	Date            time.Time `json:"date"`
	Cost            *float64  `json:"cost,omitempty"`
	Distance        *float64  `json:"distance,omitempty"`
	Hours           *float64  `json:"hours,omitempty"`
	Notes           string    `json:"notes"`
}

// Validate checks the request against the reference time now. The date may fall
// anywhere on the reference day but not after it.
func (r MaintenanceRequest) Validate(now time.Time) error {
	if strings.TrimSpace(r.MaintenanceType) == "" {
		return errors.New("maintenance type is required")
	}
	if r.Date.IsZero() {
		return errors.New("date is required")
	}
	endOfDay := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), now.Location())
	if r.Date.After(endOfDay) {
		return errors.New("date cannot be in the future")
	}
	if r.Cost != nil && *r.Cost < 0 {
		return errors.New("cost must be a non-negative number")
	}
	if r.Distance != nil && *r.Distance < 0 {
		return errors.New("distance must be a non-negative number")
	}
	if r.Hours != nil && *r.Hours < 0 {
		return errors.New("hours must be a non-negative number")
	}
	if len([]rune(r.Notes)) > MaxNotesLength {
		return errors.New("notes must be 500 characters or less")
	}
	return nil
}

// Event builds the maintenance event described by the request.
func (r MaintenanceRequest) Event(equipmentID string) MaintenanceEvent {
	return MaintenanceEvent{
		EquipmentID:       equipmentID,
		MaintenanceType:   strings.TrimSpace(r.MaintenanceType),
		Date:              r.Date,
		Cost:              r.Cost,
		DistanceAtService: r.Distance,
		HoursAtService:    r.Hours,
		Notes:             strings.TrimSpace(r.Notes),
	}
}
