package handlers

import (
	"net/http"
	"time"

	"github.com/ukydev/fleet-maintenance/internal/maintenance"
)

// DashboardSummary is the body of GET /api/dashboard/summary.
type DashboardSummary struct {
	maintenance.FleetSummary
	ReferenceAt time.Time `json:"reference_at"`
}

// Summary handles GET /api/dashboard/summary
func (h *FleetHandler) Summary(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	now, err := referenceTime(r, h.now)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	summary, err := h.fleet.FleetSummary(r.Context(), owner, now)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DashboardSummary{FleetSummary: summary, ReferenceAt: now})
}
