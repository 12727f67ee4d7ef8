package models

import (
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Equipment represents a tracked machine: a vehicle, tractor, excavator, trailer and so on.
type Equipment struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID         string             `bson:"owner_id" json:"owner_id"`
	Name            string             `bson:"name" json:"name"`
	Type            string             `bson:"type" json:"type"`                                             // free text, e.g. "Truck", "Excavator"
	CurrentDistance *float64           `bson:"current_distance,omitempty" json:"current_distance,omitempty"` // odometer, miles
	CurrentHours    *float64           `bson:"current_hours,omitempty" json:"current_hours,omitempty"`       // hour meter
	PurchaseDate    *time.Time         `bson:"purchase_date,omitempty" json:"purchase_date,omitempty"`
	Notes           string             `bson:"notes" json:"notes"`
	CreatedAt       time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time          `bson:"updated_at" json:"updated_at"`
}

// EquipmentRequest is the body accepted when creating or updating equipment.
type EquipmentRequest struct {
	Name            string     `json:"name"`
	Type            string     `json:"type"`
	CurrentDistance *float64   `json:"current_distance,omitempty"`
	CurrentHours    *float64   `json:"current_hours,omitempty"`
	PurchaseDate    *time.Time `json:"purchase_date,omitempty"`
	Notes           string     `json:"notes"`
}

// Validate checks the request the way the equipment form does.
func (r EquipmentRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("equipment name is required")
	}
	if strings.TrimSpace(r.Type) == "" {
		return errors.New("equipment type is required")
	}
	if r.CurrentDistance != nil && *r.CurrentDistance < 0 {
		return errors.New("distance must be a non-negative number")
	}
	if r.CurrentHours != nil && *r.CurrentHours < 0 {
		return errors.New("hours must be a non-negative number")
	}
	return nil
}

// Apply copies the request fields onto e.
func (r EquipmentRequest) Apply(e *Equipment) {
	e.Name = strings.TrimSpace(r.Name)
	e.Type = strings.TrimSpace(r.Type)
	e.CurrentDistance = r.CurrentDistance
	e.CurrentHours = r.CurrentHours
	e.PurchaseDate = r.PurchaseDate
	e.Notes = strings.TrimSpace(r.Notes)
}

// Reading is a point-in-time odometer and/or hour meter sample.
type Reading struct {
	Distance  *float64  `json:"distance,omitempty"`
	Hours     *float64  `json:"hours,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Float returns a pointer to v. Handy for the nullable reading fields.
func Float(v float64) *float64 {
	return &v
}
