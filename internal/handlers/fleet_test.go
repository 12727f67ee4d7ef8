package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fleet-maintenance/internal/fleet"
	"github.com/ukydev/fleet-maintenance/internal/maintenance"
	"github.com/ukydev/fleet-maintenance/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var fixedNow = time.Date(2025, time.June, 15, 9, 30, 0, 0, time.UTC)

func newTestFleetHandler() (*FleetHandler, *MockFleetService) {
	svc := new(MockFleetService)
	h := NewFleetHandler(svc)
	h.now = func() time.Time { return fixedNow }
	return h, svc
}

func TestReferenceTime(t *testing.T) {
	clock := func() time.Time { return fixedNow }

	now, err := referenceTime(httptest.NewRequest("GET", "/api/equipment", nil), clock)
	require.NoError(t, err)
	assert.Equal(t, fixedNow, now)

	now, err = referenceTime(httptest.NewRequest("GET", "/api/equipment?at=2025-01-31", nil), clock)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC), now)

	_, err = referenceTime(httptest.NewRequest("GET", "/api/equipment?at=31/01/2025", nil), clock)
	assert.Error(t, err)
}

func TestWriteServiceError(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("%w: name is required", fleet.ErrInvalidInput), http.StatusBadRequest},
		{fleet.ErrEquipmentNotFound, http.StatusNotFound},
		{fleet.ErrEventNotFound, http.StatusNotFound},
		{fleet.ErrScheduleNotFound, http.StatusNotFound},
		{assert.AnError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			w := httptest.NewRecorder()
			writeServiceError(w, httptest.NewRequest("GET", "/", nil), tt.err)
			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusInternalServerError {
				assert.NotContains(t, w.Body.String(), assert.AnError.Error())
			}
		})
	}
}

func TestFleetHandler_RequiresUser(t *testing.T) {
	h, svc := newTestFleetHandler()

	w := httptest.NewRecorder()
	h.ListEquipment(w, httptest.NewRequest("GET", "/api/equipment", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	svc.AssertNotCalled(t, "ListEquipment", mock.Anything, mock.Anything, mock.Anything)
}

func TestFleetHandler_ListEquipment(t *testing.T) {
	h, svc := newTestFleetHandler()
	at := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	views := []fleet.EquipmentView{{
		Equipment: models.Equipment{ID: primitive.NewObjectID(), Name: "Ford F-150", Type: "Truck"},
		Status:    maintenance.StatusDueSoon,
		Usage:     maintenance.DefaultUsage(),
	}}
	svc.On("ListEquipment", mock.Anything, testOwner, at).Return(views, nil)

	w := httptest.NewRecorder()
	h.ListEquipment(w, asUser(httptest.NewRequest("GET", "/api/equipment?at=2025-03-01", nil)))

	assert.Equal(t, http.StatusOK, w.Code)
	var got []fleet.EquipmentView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, maintenance.StatusDueSoon, got[0].Status)

	w = httptest.NewRecorder()
	h.ListEquipment(w, asUser(httptest.NewRequest("GET", "/api/equipment?at=yesterday", nil)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFleetHandler_CreateEquipment(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		h, svc := newTestFleetHandler()
		reqBody := models.EquipmentRequest{Name: "Deere 5075E", Type: "Tractor", CurrentHours: models.Float(1195)}
		created := &models.Equipment{ID: primitive.NewObjectID(), OwnerID: testOwner, Name: "Deere 5075E", Type: "Tractor"}
		svc.On("CreateEquipment", mock.Anything, testOwner, reqBody).Return(created, nil)

		w := httptest.NewRecorder()
		h.CreateEquipment(w, asUser(httptest.NewRequest("POST", "/api/equipment", jsonBody(t, reqBody))))

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), created.ID.Hex())
	})

	t.Run("validation error", func(t *testing.T) {
		h, svc := newTestFleetHandler()
		svc.On("CreateEquipment", mock.Anything, testOwner, mock.Anything).
			Return(nil, fmt.Errorf("%w: equipment name is required", fleet.ErrInvalidInput))

		w := httptest.NewRecorder()
		h.CreateEquipment(w, asUser(httptest.NewRequest("POST", "/api/equipment", bytes.NewBufferString(`{"type":"Truck"}`))))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "equipment name is required")
	})

	t.Run("invalid json", func(t *testing.T) {
		h, svc := newTestFleetHandler()

		w := httptest.NewRecorder()
		h.CreateEquipment(w, asUser(httptest.NewRequest("POST", "/api/equipment", bytes.NewBufferString("{bad json"))))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "CreateEquipment", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestFleetHandler_GetEquipment(t *testing.T) {
	h, svc := newTestFleetHandler()
	id := primitive.NewObjectID()
	report := &maintenance.Report{
		Equipment:   models.Equipment{ID: id, Name: "Ford F-150", Type: "Truck"},
		Usage:       maintenance.DefaultUsage(),
		Status:      maintenance.StatusOverdue,
		ReferenceAt: fixedNow,
	}
	history := []models.MaintenanceEvent{{ID: primitive.NewObjectID(), EquipmentID: id.Hex(), MaintenanceType: "Oil Change", Date: fixedNow}}
	svc.On("EquipmentReport", mock.Anything, testOwner, id.Hex(), fixedNow).Return(report, history, nil)
	svc.On("EquipmentReport", mock.Anything, testOwner, "missing", fixedNow).Return(nil, nil, fleet.ErrEquipmentNotFound)

	req := httptest.NewRequest("GET", "/api/equipment/"+id.Hex(), nil)
	req.SetPathValue("id", id.Hex())
	w := httptest.NewRecorder()
	h.GetEquipment(w, asUser(req))

	assert.Equal(t, http.StatusOK, w.Code)
	var detail EquipmentDetail
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	assert.Equal(t, maintenance.StatusOverdue, detail.Status)
	assert.Equal(t, "Ford F-150", detail.Equipment.Name)
	assert.Len(t, detail.History, 1)

	req = httptest.NewRequest("GET", "/api/equipment/missing", nil)
	req.SetPathValue("id", "missing")
	w = httptest.NewRecorder()
	h.GetEquipment(w, asUser(req))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFleetHandler_UpdateAndDeleteEquipment(t *testing.T) {
	h, svc := newTestFleetHandler()
	reqBody := models.EquipmentRequest{Name: "Work Truck", Type: "Truck"}
	svc.On("UpdateEquipment", mock.Anything, testOwner, "eq1", reqBody).Return(&models.Equipment{Name: "Work Truck"}, nil)
	svc.On("DeleteEquipment", mock.Anything, testOwner, "eq1").Return(nil)

	req := httptest.NewRequest("PUT", "/api/equipment/eq1", jsonBody(t, reqBody))
	req.SetPathValue("id", "eq1")
	w := httptest.NewRecorder()
	h.UpdateEquipment(w, asUser(req))
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest("DELETE", "/api/equipment/eq1", nil)
	req.SetPathValue("id", "eq1")
	w = httptest.NewRecorder()
	h.DeleteEquipment(w, asUser(req))
	assert.Equal(t, http.StatusNoContent, w.Code)

	svc.AssertExpectations(t)
}

func TestFleetHandler_Maintenance(t *testing.T) {
	h, svc := newTestFleetHandler()
	date := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	reqBody := models.MaintenanceRequest{MaintenanceType: "Oil Change", Date: date, Distance: models.Float(45000)}
	event := &models.MaintenanceEvent{ID: primitive.NewObjectID(), EquipmentID: "eq1", MaintenanceType: "Oil Change", Date: date}

	svc.On("LogMaintenance", mock.Anything, testOwner, "eq1", reqBody, fixedNow).Return(event, nil)
	svc.On("History", mock.Anything, testOwner, "eq1").Return([]models.MaintenanceEvent{*event}, nil)
	svc.On("UpdateMaintenance", mock.Anything, testOwner, event.ID.Hex(), reqBody, fixedNow).Return(event, nil)
	svc.On("DeleteMaintenance", mock.Anything, testOwner, event.ID.Hex()).Return(fleet.ErrEventNotFound)

	req := httptest.NewRequest("POST", "/api/equipment/eq1/maintenance", jsonBody(t, reqBody))
	req.SetPathValue("id", "eq1")
	w := httptest.NewRecorder()
	h.LogMaintenance(w, asUser(req))
	assert.Equal(t, http.StatusCreated, w.Code)

	req = httptest.NewRequest("GET", "/api/equipment/eq1/maintenance", nil)
	req.SetPathValue("id", "eq1")
	w = httptest.NewRecorder()
	h.ListMaintenance(w, asUser(req))
	assert.Equal(t, http.StatusOK, w.Code)
	var history []models.MaintenanceEvent
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
	assert.Len(t, history, 1)

	req = httptest.NewRequest("PUT", "/api/maintenance/"+event.ID.Hex(), jsonBody(t, reqBody))
	req.SetPathValue("id", event.ID.Hex())
	w = httptest.NewRecorder()
	h.UpdateMaintenance(w, asUser(req))
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest("DELETE", "/api/maintenance/"+event.ID.Hex(), nil)
	req.SetPathValue("id", event.ID.Hex())
	w = httptest.NewRecorder()
	h.DeleteMaintenance(w, asUser(req))
	assert.Equal(t, http.StatusNotFound, w.Code)

	svc.AssertExpectations(t)
}

func TestFleetHandler_SaveSchedules(t *testing.T) {
	oil := models.ScheduleRequest{Type: "Oil Change", IntervalUnit: models.IntervalDistance, IntervalValue: 3000}
	inspection := models.ScheduleRequest{Type: "Annual Inspection", IntervalUnit: models.IntervalDays, IntervalValue: 365}

	t.Run("saves every schedule", func(t *testing.T) {
		h, svc := newTestFleetHandler()
		svc.On("SaveSchedule", mock.Anything, testOwner, "eq1", oil).Return(&models.MaintenanceSchedule{Type: "Oil Change"}, nil).Once()
		svc.On("SaveSchedule", mock.Anything, testOwner, "eq1", inspection).Return(&models.MaintenanceSchedule{Type: "Annual Inspection"}, nil).Once()

		req := httptest.NewRequest("PUT", "/api/equipment/eq1/schedules", jsonBody(t, []models.ScheduleRequest{oil, inspection}))
		req.SetPathValue("id", "eq1")
		w := httptest.NewRecorder()
		h.SaveSchedules(w, asUser(req))

		assert.Equal(t, http.StatusOK, w.Code)
		var saved []models.MaintenanceSchedule
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &saved))
		assert.Len(t, saved, 2)
		svc.AssertExpectations(t)
	})

	t.Run("first failure stops", func(t *testing.T) {
		h, svc := newTestFleetHandler()
		svc.On("SaveSchedule", mock.Anything, testOwner, "eq1", oil).
			Return(nil, fmt.Errorf("%w: interval value must be positive", fleet.ErrInvalidInput)).Once()

		req := httptest.NewRequest("PUT", "/api/equipment/eq1/schedules", jsonBody(t, []models.ScheduleRequest{oil, inspection}))
		req.SetPathValue("id", "eq1")
		w := httptest.NewRecorder()
		h.SaveSchedules(w, asUser(req))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNumberOfCalls(t, "SaveSchedule", 1)
	})

	t.Run("empty list", func(t *testing.T) {
		h, _ := newTestFleetHandler()

		req := httptest.NewRequest("PUT", "/api/equipment/eq1/schedules", bytes.NewBufferString("[]"))
		req.SetPathValue("id", "eq1")
		w := httptest.NewRecorder()
		h.SaveSchedules(w, asUser(req))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestFleetHandler_ListAndDeleteSchedules(t *testing.T) {
	h, svc := newTestFleetHandler()
	reports := []maintenance.ScheduleReport{{
		Schedule: models.MaintenanceSchedule{Type: "Oil Change"},
		Status:   maintenance.StatusGood,
	}}
	svc.On("Schedules", mock.Anything, testOwner, "eq1", fixedNow).Return(reports, nil)
	svc.On("DeleteSchedule", mock.Anything, testOwner, "sc1").Return(nil)

	req := httptest.NewRequest("GET", "/api/equipment/eq1/schedules", nil)
	req.SetPathValue("id", "eq1")
	w := httptest.NewRecorder()
	h.ListSchedules(w, asUser(req))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Oil Change")

	req = httptest.NewRequest("DELETE", "/api/schedules/sc1", nil)
	req.SetPathValue("id", "sc1")
	w = httptest.NewRecorder()
	h.DeleteSchedule(w, asUser(req))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestFleetHandler_Templates(t *testing.T) {
	h, svc := newTestFleetHandler()
	svc.On("Templates", mock.Anything, testOwner, "eq1").Return(maintenance.TemplatesForType("Excavator"), nil)

	req := httptest.NewRequest("GET", "/api/equipment/eq1/templates", nil)
	req.SetPathValue("id", "eq1")
	w := httptest.NewRecorder()
	h.EquipmentTemplates(w, asUser(req))
	assert.Equal(t, http.StatusOK, w.Code)
	var templates []maintenance.Template
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &templates))
	assert.NotEmpty(t, templates)

	w = httptest.NewRecorder()
	h.TemplatesForType(w, httptest.NewRequest("GET", "/api/templates?type=Pickup", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Type      string                 `json:"type"`
		Family    maintenance.Family     `json:"family"`
		Templates []maintenance.Template `json:"templates"`
		Types     []string               `json:"maintenance_types"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Pickup", body.Type)
	assert.Equal(t, maintenance.FamilyForType("Pickup"), body.Family)
	assert.Equal(t, maintenance.TemplatesForType("Pickup"), body.Templates)
	assert.Contains(t, body.Types, "Oil Change")
}

func TestFleetHandler_Summary(t *testing.T) {
	h, svc := newTestFleetHandler()
	summary := maintenance.FleetSummary{Total: 5, Good: 2, DueSoon: 2, Overdue: 1}
	svc.On("FleetSummary", mock.Anything, testOwner, fixedNow).Return(summary, nil)

	w := httptest.NewRecorder()
	h.Summary(w, asUser(httptest.NewRequest("GET", "/api/dashboard/summary", nil)))

	assert.Equal(t, http.StatusOK, w.Code)
	var got DashboardSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, summary, got.FleetSummary)
	assert.Equal(t, fixedNow, got.ReferenceAt)
}
