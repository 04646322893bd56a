// Package api exposes the rental core over HTTP. All business rules
// live in core/rental; this layer only parses requests and maps typed
// failures to status codes.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/veloway/rentd/core/monitoring"
	"github.com/veloway/rentd/core/rental"
	"github.com/veloway/rentd/infra/logger"
)

// Server is the HTTP front of the rental service.
type Server struct {
	httpSrv *http.Server
	mgr     *rental.Manager
	log     logger.Logger
	mapsKey string
}

// NewServer builds the router and listener. staticDir is served at the
// root for the map UI.
func NewServer(addr, staticDir, mapsKey string, mgr *rental.Manager) *Server {
	s := &Server{
		mgr:     mgr,
		log:     logger.New("api"),
		mapsKey: mapsKey,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", s.health)
	r.Get("/config.js", s.configJS)
	r.Get("/bikes", s.listVehicles)
	r.Post("/rentals/start", s.startRental)
	r.Get("/rentals/{rentalID}", s.getRental)
	r.Post("/rentals/{rentalID}/end", s.endRental)
	r.Get("/users/{userID}/active_rental", s.activeRental)
	r.Post("/debug/reset", s.reset)
	if staticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(staticDir)))
	}

	s.httpSrv = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.httpSrv.Handler }

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.log.Infof("listening on %s", s.httpSrv.Addr)
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeCoreError maps a core failure to its status, reporting internal
// inconsistencies to the error tracker.
func (s *Server) writeCoreError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.log.Errorf("%s %s: %v", r.Method, r.URL.Path, err)
		monitoring.CaptureException(err, map[string]string{"path": r.URL.Path})
	}
	writeError(w, status, err.Error())
}

// statusFor maps the core's typed failures to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, rental.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, rental.ErrVehicleNotFound), errors.Is(err, rental.ErrRentalNotFound):
		return http.StatusNotFound
	case errors.Is(err, rental.ErrVehicleNotAvailable), errors.Is(err, rental.ErrUserAlreadyRenting):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
