package handlers

import (
	"context"
	"time"

	"github.com/ukydev/fleet-maintenance/internal/fleet"
	"github.com/ukydev/fleet-maintenance/internal/maintenance"
	"github.com/ukydev/fleet-maintenance/internal/models"
)

// FleetService is the part of *fleet.Service the HTTP API uses.
type FleetService interface {
	ListEquipment(ctx context.Context, ownerID string, now time.Time) ([]fleet.EquipmentView, error)
	EquipmentReport(ctx context.Context, ownerID, id string, now time.Time) (*maintenance.Report, []models.MaintenanceEvent, error)
	CreateEquipment(ctx context.Context, ownerID string, req models.EquipmentRequest) (*models.Equipment, error)
	UpdateEquipment(ctx context.Context, ownerID, id string, req models.EquipmentRequest) (*models.Equipment, error)
	DeleteEquipment(ctx context.Context, ownerID, id string) error

	History(ctx context.Context, ownerID, equipmentID string) ([]models.MaintenanceEvent, error)
	LogMaintenance(ctx context.Context, ownerID, equipmentID string, req models.MaintenanceRequest, now time.Time) (*models.MaintenanceEvent, error)
	UpdateMaintenance(ctx context.Context, ownerID, eventID string, req models.MaintenanceRequest, now time.Time) (*models.MaintenanceEvent, error)
	DeleteMaintenance(ctx context.Context, ownerID, eventID string) error

	Schedules(ctx context.Context, ownerID, equipmentID string, now time.Time) ([]maintenance.ScheduleReport, error)
	SaveSchedule(ctx context.Context, ownerID, equipmentID string, req models.ScheduleRequest) (*models.MaintenanceSchedule, error)
	DeleteSchedule(ctx context.Context, ownerID, scheduleID string) error
	Templates(ctx context.Context, ownerID, equipmentID string) ([]maintenance.Template, error)

	FleetSummary(ctx context.Context, ownerID string, now time.Time) (maintenance.FleetSummary, error)
}

// FleetHandler serves the equipment, maintenance, schedule and dashboard endpoints.
type FleetHandler struct {
	fleet FleetService
	now   func() time.Time
}

// NewFleetHandler creates a handler over svc.
func NewFleetHandler(svc FleetService) *FleetHandler {
	return &FleetHandler{fleet: svc, now: time.Now}
}
