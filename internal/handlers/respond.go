package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-maintenance/internal/fleet"
	"github.com/ukydev/fleet-maintenance/internal/middleware"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// dateLayout is the format of the "at" query parameter.
const dateLayout = "2006-01-02"

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Warn("Failed to encode response")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return errors.New("failed to read request body")
	}
	if err := json.Unmarshal(body, v); err != nil {
		return errors.New("invalid JSON")
	}
	return nil
}

// writeServiceError maps fleet errors onto status codes.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, fleet.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, fleet.ErrEquipmentNotFound),
		errors.Is(err, fleet.ErrEventNotFound),
		errors.Is(err, fleet.ErrScheduleNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		log.WithError(err).WithFields(log.Fields{
			"request_id": middleware.RequestID(r.Context()),
			"path":       r.URL.Path,
		}).Error("Request failed")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// ownerID returns the id of the authenticated caller, writing a 401 when there is none.
func ownerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return "", false
	}
	return claims.UserID, true
}

// referenceTime is the moment reads are evaluated at: now, or midnight UTC of the
// date given in the "at" query parameter.
func referenceTime(r *http.Request, now func() time.Time) (time.Time, error) {
	at := r.URL.Query().Get("at")
	if at == "" {
		return now(), nil
	}
	t, err := time.Parse(dateLayout, at)
	if err != nil {
		return time.Time{}, errors.New("at must be a date in YYYY-MM-DD format")
	}
	return t, nil
}
