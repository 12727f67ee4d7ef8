package handlers

import (
	"net/http"

	"github.com/ukydev/fleet-maintenance/internal/models"
)

// ListSchedules handles GET /api/equipment/{id}/schedules
func (h *FleetHandler) ListSchedules(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	now, err := referenceTime(r, h.now)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	reports, err := h.fleet.Schedules(r.Context(), owner, r.PathValue("id"), now)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

// SaveSchedules handles PUT /api/equipment/{id}/schedules. The body is the list of
// schedules to enable or edit; schedules not listed are left alone. Each one is saved
// in order and the first failure stops the rest.
func (h *FleetHandler) SaveSchedules(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	var reqs []models.ScheduleRequest
	if err := decodeJSON(w, r, &reqs); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(reqs) == 0 {
		http.Error(w, "At least one schedule is required", http.StatusBadRequest)
		return
	}

	saved := make([]models.MaintenanceSchedule, 0, len(reqs))
	for _, req := range reqs {
		schedule, err := h.fleet.SaveSchedule(r.Context(), owner, r.PathValue("id"), req)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		saved = append(saved, *schedule)
	}
	writeJSON(w, http.StatusOK, saved)
}

// DeleteSchedule handles DELETE /api/schedules/{id}
func (h *FleetHandler) DeleteSchedule(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	if err := h.fleet.DeleteSchedule(r.Context(), owner, r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
