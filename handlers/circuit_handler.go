package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"coverage-route-server/models"
	"coverage-route-server/storage"
)

// CircuitHandler serves stored circuits read-only
type CircuitHandler struct {
	circuits storage.CircuitStore
}

func NewCircuitHandler(circuits storage.CircuitStore) *CircuitHandler {
	return &CircuitHandler{circuits: circuits}
}

func (h *CircuitHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/circuits", h.ListCircuits).Methods("GET")
	router.HandleFunc("/api/circuits/{id}", h.GetCircuit).Methods("GET")
	router.HandleFunc("/api/circuits/{id}/geojson", h.GetCircuitGeoJSON).Methods("GET")
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, start time.Time, err error) {
	status, apiErr := apiError(err)
	writeJSON(w, status, models.ApiResponse{Success: false, Error: apiErr, Meta: meta(start, nil)})
}

// ListCircuits lists circuit summaries, optionally filtered by ?graph=
func (h *CircuitHandler) ListCircuits(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	records, err := h.circuits.ListCircuits(r.Context(), r.URL.Query().Get("graph"))
	if err != nil {
		writeError(w, start, err)
		return
	}
	count := len(records)
	writeJSON(w, http.StatusOK, models.ApiResponse{Success: true, Data: records, Meta: meta(start, &count)})
}

func (h *CircuitHandler) record(w http.ResponseWriter, r *http.Request, start time.Time) (*storage.CircuitRecord, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ApiResponse{
			Success: false,
			Error:   &models.ApiError{Code: "invalid_request", Message: "Invalid circuit id", Details: err.Error()},
			Meta:    meta(start, nil),
		})
		return nil, false
	}

	rec, err := h.circuits.GetCircuit(r.Context(), id)
	if err != nil {
		writeError(w, start, err)
		return nil, false
	}
	return rec, true
}

func (h *CircuitHandler) GetCircuit(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec, ok := h.record(w, r, start)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, models.ApiResponse{Success: true, Data: rec, Meta: meta(start, nil)})
}

func (h *CircuitHandler) GetCircuitGeoJSON(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec, ok := h.record(w, r, start)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rec.GeoJSON())
}
