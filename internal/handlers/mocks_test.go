package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/ukydev/fleet-maintenance/internal/fleet"
	"github.com/ukydev/fleet-maintenance/internal/maintenance"
	"github.com/ukydev/fleet-maintenance/internal/middleware"
	"github.com/ukydev/fleet-maintenance/internal/models"
)

const testOwner = "507f1f77bcf86cd799439011"

// asUser attaches the claims of testOwner to req.
func asUser(req *http.Request) *http.Request {
	claims := &models.Claims{UserID: testOwner, Username: "testuser", Role: models.RoleManager}
	return req.WithContext(middleware.WithUser(req.Context(), claims))
}

// MockUserCollection is a mock implementation of UserCollection
type MockUserCollection struct {
	mock.Mock
}

func (m *MockUserCollection) InsertUser(ctx context.Context, user models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserCollection) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) UpdateUser(ctx context.Context, id string, user models.User) error {
	args := m.Called(ctx, id, user)
	return args.Error(0)
}

func (m *MockUserCollection) UpdateLastLogin(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockFleetService is a mock implementation of FleetService
type MockFleetService struct {
	mock.Mock
}

func (m *MockFleetService) ListEquipment(ctx context.Context, ownerID string, now time.Time) ([]fleet.EquipmentView, error) {
	args := m.Called(ctx, ownerID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]fleet.EquipmentView), args.Error(1)
}

func (m *MockFleetService) EquipmentReport(ctx context.Context, ownerID, id string, now time.Time) (*maintenance.Report, []models.MaintenanceEvent, error) {
	args := m.Called(ctx, ownerID, id, now)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*maintenance.Report), args.Get(1).([]models.MaintenanceEvent), args.Error(2)
}

func (m *MockFleetService) CreateEquipment(ctx context.Context, ownerID string, req models.EquipmentRequest) (*models.Equipment, error) {
	args := m.Called(ctx, ownerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Equipment), args.Error(1)
}

func (m *MockFleetService) UpdateEquipment(ctx context.Context, ownerID, id string, req models.EquipmentRequest) (*models.Equipment, error) {
	args := m.Called(ctx, ownerID, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Equipment), args.Error(1)
}

func (m *MockFleetService) DeleteEquipment(ctx context.Context, ownerID, id string) error {
	args := m.Called(ctx, ownerID, id)
	return args.Error(0)
}

func (m *MockFleetService) History(ctx context.Context, ownerID, equipmentID string) ([]models.MaintenanceEvent, error) {
	args := m.Called(ctx, ownerID, equipmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MaintenanceEvent), args.Error(1)
}

func (m *MockFleetService) LogMaintenance(ctx context.Context, ownerID, equipmentID string, req models.MaintenanceRequest, now time.Time) (*models.MaintenanceEvent, error) {
	args := m.Called(ctx, ownerID, equipmentID, req, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MaintenanceEvent), args.Error(1)
}

func (m *MockFleetService) UpdateMaintenance(ctx context.Context, ownerID, eventID string, req models.MaintenanceRequest, now time.Time) (*models.MaintenanceEvent, error) {
	args := m.Called(ctx, ownerID, eventID, req, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MaintenanceEvent), args.Error(1)
}

func (m *MockFleetService) DeleteMaintenance(ctx context.Context, ownerID, eventID string) error {
	args := m.Called(ctx, ownerID, eventID)
	return args.Error(0)
}

func (m *MockFleetService) Schedules(ctx context.Context, ownerID, equipmentID string, now time.Time) ([]maintenance.ScheduleReport, error) {
	args := m.Called(ctx, ownerID, equipmentID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]maintenance.ScheduleReport), args.Error(1)
}

func (m *MockFleetService) SaveSchedule(ctx context.Context, ownerID, equipmentID string, req models.ScheduleRequest) (*models.MaintenanceSchedule, error) {
	args := m.Called(ctx, ownerID, equipmentID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MaintenanceSchedule), args.Error(1)
}

func (m *MockFleetService) DeleteSchedule(ctx context.Context, ownerID, scheduleID string) error {
	args := m.Called(ctx, ownerID, scheduleID)
	return args.Error(0)
}

func (m *MockFleetService) Templates(ctx context.Context, ownerID, equipmentID string) ([]maintenance.Template, error) {
	args := m.Called(ctx, ownerID, equipmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]maintenance.Template), args.Error(1)
}

func (m *MockFleetService) FleetSummary(ctx context.Context, ownerID string, now time.Time) (maintenance.FleetSummary, error) {
	args := m.Called(ctx, ownerID, now)
	return args.Get(0).(maintenance.FleetSummary), args.Error(1)
}
