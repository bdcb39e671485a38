// Package httpapi exposes the weather gateway over HTTP: the three weather
// operations for app clients plus health, readiness, and metrics endpoints
// for the platform.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/avinashlng1080/travel-planner-sub002/internal/config"
	"github.com/avinashlng1080/travel-planner-sub002/internal/domain"
	"github.com/avinashlng1080/travel-planner-sub002/internal/weather"
)

// Server exposes the gateway's HTTP surface.
type Server struct {
	httpServer *http.Server
	svc        *weather.Service
	logger     *slog.Logger
}

// NewServer builds the router and middleware chain. Weather routes are POST
// because clients send a JSON body with coordinates; preflight OPTIONS is
// answered by the CORS middleware with 204.
func NewServer(cfg *config.Config, svc *weather.Service, logger *slog.Logger) *Server {
	s := &Server{svc: svc, logger: logger}

	r := mux.NewRouter()
	r.HandleFunc("/forecast", s.handleForecast).Methods(http.MethodPost)
	r.HandleFunc("/currentConditions", s.handleCurrent).Methods(http.MethodPost)
	r.HandleFunc("/publicAlerts", s.handleAlerts).Methods(http.MethodPost)
	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReadyz).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	var h http.Handler = r
	h = handlers.RecoveryHandler(handlers.RecoveryLogger(&recoveryLogger{logger}))(h)
	h = handlers.CORS(
		handlers.AllowedOrigins([]string{cfg.CORSAllowedOrigin}),
		handlers.AllowedMethods([]string{http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
		handlers.OptionStatusCode(http.StatusNoContent),
	)(h)

	s.httpServer = &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      h,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// locationRequest is the shared body for all weather routes. Lat and Lng are
// pointers so that "missing" and "zero" are distinguishable.
type locationRequest struct {
	Lat  *float64 `json:"lat"`
	Lng  *float64 `json:"lng"`
	Name string   `json:"name,omitempty"`
	Days int      `json:"days,omitempty"`
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	loc, days, ok := s.decodeLocation(w, r)
	if !ok {
		return
	}

	result, err := s.svc.Forecast(r.Context(), loc, days)
	if err != nil {
		s.writeError(w, err, result.Days)
		return
	}
	// data is the forecast array itself; the derived aggregate alert rides
	// alongside it rather than nested inside.
	writeJSON(w, http.StatusOK, map[string]any{
		"data":           result.Days,
		"aggregateAlert": result.Alert,
		"cached":         result.Cached,
	})
}

func (s *Server) handleCurrent(w http.ResponseWriter, r *http.Request) {
	loc, _, ok := s.decodeLocation(w, r)
	if !ok {
		return
	}

	result, err := s.svc.Current(r.Context(), loc)
	if err != nil {
		s.writeError(w, err, result.Conditions)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data":   result.Conditions,
		"cached": result.Cached,
	})
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	loc, _, ok := s.decodeLocation(w, r)
	if !ok {
		return
	}

	result, err := s.svc.Alerts(r.Context(), loc)
	if err != nil {
		s.writeError(w, err, result.Bundle)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data":   result.Bundle,
		"cached": result.Cached,
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.CheckReadiness(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready", "reason": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// decodeLocation parses and validates the request body. On failure it writes
// a 400 and returns ok=false.
func (s *Server) decodeLocation(w http.ResponseWriter, r *http.Request) (domain.Location, int, bool) {
	var req locationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return domain.Location{}, 0, false
	}
	if req.Lat == nil || req.Lng == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "lat and lng are required"})
		return domain.Location{}, 0, false
	}

	loc := domain.Location{Lat: *req.Lat, Lng: *req.Lng, Name: req.Name}
	if err := loc.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return domain.Location{}, 0, false
	}
	return loc, req.Days, true
}

// writeError maps service errors onto the wire: validation problems are the
// caller's fault (400), anything else is a degraded 500 that still carries a
// renderable fallback payload.
func (s *Server) writeError(w http.ResponseWriter, err error, fallback any) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": verr.Error()})
		return
	}
	if errors.Is(err, context.Canceled) {
		// Client went away; nothing useful to write.
		return
	}
	writeJSON(w, http.StatusInternalServerError, map[string]any{
		"error":    err.Error(),
		"fallback": fallback,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// recoveryLogger adapts slog to the recovery middleware's printf interface.
type recoveryLogger struct {
	logger *slog.Logger
}

func (l *recoveryLogger) Println(v ...any) {
	l.logger.Error("panic recovered in http handler", "panic", v)
}
