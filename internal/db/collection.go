package db

import (
	"context"

	"github.com/ukydev/fleet-maintenance/internal/models"
)

// EquipmentCollection defines the interface for equipment data operations.
type EquipmentCollection interface {
	InsertEquipment(ctx context.Context, equipment models.Equipment) error
	FindEquipment(ctx context.Context, ownerID string) ([]models.Equipment, error)
	FindEquipmentByID(ctx context.Context, id string) (*models.Equipment, error)
	UpdateEquipment(ctx context.Context, equipment models.Equipment) error
	RaiseReadings(ctx context.Context, id string, distance, hours *float64) (bool, error)
	DeleteEquipment(ctx context.Context, id string) error
}

// MaintenanceEventCollection defines the interface for maintenance log operations.
// Finds return events newest first.
type MaintenanceEventCollection interface {
	InsertEvent(ctx context.Context, event models.MaintenanceEvent) error
	FindEvents(ctx context.Context, equipmentIDs ...string) ([]models.MaintenanceEvent, error)
	FindEventByID(ctx context.Context, id string) (*models.MaintenanceEvent, error)
	UpdateEvent(ctx context.Context, event models.MaintenanceEvent) error
	DeleteEvent(ctx context.Context, id string) error
	DeleteEventsForEquipment(ctx context.Context, equipmentID string) error
}

// ScheduleCollection defines the interface for maintenance schedule operations.
type ScheduleCollection interface {
	UpsertSchedule(ctx context.Context, schedule models.MaintenanceSchedule) (*models.MaintenanceSchedule, error)
	FindSchedules(ctx context.Context, equipmentIDs ...string) ([]models.MaintenanceSchedule, error)
	FindScheduleByID(ctx context.Context, id string) (*models.MaintenanceSchedule, error)
	DeleteSchedule(ctx context.Context, id string) error
	DeleteSchedulesForEquipment(ctx context.Context, equipmentID string) error
}

// UserCollection defines the interface for user database operations.
type UserCollection interface {
	InsertUser(ctx context.Context, user models.User) error
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, id string, user models.User) error
	UpdateLastLogin(ctx context.Context, id string) error
}
