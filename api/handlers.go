package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

type startRequest struct {
	UserID    string `json:"user_id"`
	VehicleID string `json:"vehicle_id"`
}

type endRequest struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":   true,
		"time": time.Now().UTC().Format(time.RFC3339),
	})
}

// configJS serves the map-provider key as a script the UI can include.
func (s *Server) configJS(w http.ResponseWriter, _ *http.Request) {
	key, _ := json.Marshal(s.mapsKey)
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	fmt.Fprintf(w, "window.CONFIG = { \"GOOGLE_MAPS_KEY\": %s };", key)
}

func (s *Server) listVehicles(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.mgr.Vehicles())
}

func (s *Server) startRental(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	snap, err := s.mgr.Start(req.UserID, req.VehicleID)
	if err != nil {
		s.writeCoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

func (s *Server) getRental(w http.ResponseWriter, r *http.Request) {
	snap, err := s.mgr.Get(chi.URLParam(r, "rentalID"))
	if err != nil {
		s.writeCoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) endRental(w http.ResponseWriter, r *http.Request) {
	// A missing or malformed body only means no dropoff coordinates;
	// settlement itself must not fail on bad optional input.
	var req endRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	snap, err := s.mgr.End(chi.URLParam(r, "rentalID"), req.Lat, req.Lng)
	if err != nil {
		s.writeCoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) activeRental(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.mgr.ActiveForUser(chi.URLParam(r, "userID"))
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"active": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"active": true, "rental": snap})
}

func (s *Server) reset(w http.ResponseWriter, _ *http.Request) {
	s.mgr.Reset()
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "message": "state reset"})
}
