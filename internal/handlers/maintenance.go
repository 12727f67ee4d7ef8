package handlers

import (
	"net/http"

	"github.com/ukydev/fleet-maintenance/internal/models"
)

// ListMaintenance handles GET /api/equipment/{id}/maintenance
func (h *FleetHandler) ListMaintenance(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	history, err := h.fleet.History(r.Context(), owner, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

// LogMaintenance handles POST /api/equipment/{id}/maintenance. The event date may not
// fall after the reference day.
func (h *FleetHandler) LogMaintenance(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	now, err := referenceTime(r, h.now)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var req models.MaintenanceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	event, err := h.fleet.LogMaintenance(r.Context(), owner, r.PathValue("id"), req, now)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

// UpdateMaintenance handles PUT /api/maintenance/{id}
func (h *FleetHandler) UpdateMaintenance(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	now, err := referenceTime(r, h.now)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var req models.MaintenanceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	event, err := h.fleet.UpdateMaintenance(r.Context(), owner, r.PathValue("id"), req, now)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// DeleteMaintenance handles DELETE /api/maintenance/{id}
func (h *FleetHandler) DeleteMaintenance(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	if err := h.fleet.DeleteMaintenance(r.Context(), owner, r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
