package handlers

import (
	"net/http"

	"github.com/ukydev/fleet-maintenance/internal/maintenance"
	"github.com/ukydev/fleet-maintenance/internal/models"
)

// EquipmentDetail is the body of GET /api/equipment/{id}.
type EquipmentDetail struct {
	maintenance.Report
	History []models.MaintenanceEvent `json:"history"`
}

// ListEquipment handles GET /api/equipment
func (h *FleetHandler) ListEquipment(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	now, err := referenceTime(r, h.now)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	views, err := h.fleet.ListEquipment(r.Context(), owner, now)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// CreateEquipment handles POST /api/equipment
func (h *FleetHandler) CreateEquipment(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	var req models.EquipmentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	eq, err := h.fleet.CreateEquipment(r.Context(), owner, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, eq)
}

// GetEquipment handles GET /api/equipment/{id}: the full report plus history.
func (h *FleetHandler) GetEquipment(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	now, err := referenceTime(r, h.now)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	report, history, err := h.fleet.EquipmentReport(r.Context(), owner, r.PathValue("id"), now)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, EquipmentDetail{Report: *report, History: history})
}

// UpdateEquipment handles PUT /api/equipment/{id}
func (h *FleetHandler) UpdateEquipment(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	var req models.EquipmentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	eq, err := h.fleet.UpdateEquipment(r.Context(), owner, r.PathValue("id"), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, eq)
}

// DeleteEquipment handles DELETE /api/equipment/{id}
func (h *FleetHandler) DeleteEquipment(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	if err := h.fleet.DeleteEquipment(r.Context(), owner, r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// EquipmentTemplates handles GET /api/equipment/{id}/templates
func (h *FleetHandler) EquipmentTemplates(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	templates, err := h.fleet.Templates(r.Context(), owner, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, templates)
}

// TemplatesForType handles GET /api/templates?type=...
func (h *FleetHandler) TemplatesForType(w http.ResponseWriter, r *http.Request) {
	equipmentType := r.URL.Query().Get("type")
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"type":              equipmentType,
		"family":            maintenance.FamilyForType(equipmentType),
		"templates":         maintenance.TemplatesForType(equipmentType),
		"maintenance_types": models.MaintenanceTypes,
	})
}
