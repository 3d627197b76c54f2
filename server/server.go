// Package server exposes the scheduling core as a JSON HTTP API. Handlers
// are thin: they decode the request, establish the admin capability, call
// the core engines, and encode the result. No scheduling policy lives here.
package server

import (
	"crypto/subtle"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"helpline-scheduler/config"
	scherr "helpline-scheduler/errors"
	"helpline-scheduler/metrics"
	"helpline-scheduler/models"
	"helpline-scheduler/store"
)

// adminHeader carries the admin credential on gated requests. The server
// derives a fresh capability from it per request; nothing is ambient.
const adminHeader = "X-Admin-Password"

type Server struct {
	store *store.Store
	cfg   *config.Config
	log   *log.Logger
}

func New(st *store.Store, cfg *config.Config, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{store: st, cfg: cfg, log: logger}
}

// Handler builds the full route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/employees", s.instrument("employees", s.handleListEmployees))
	mux.HandleFunc("POST /api/employees", s.instrument("employees", s.handleCreateEmployee))
	mux.HandleFunc("DELETE /api/employees/{id}", s.instrument("employees", s.handleDeleteEmployee))
	mux.HandleFunc("GET /api/employees/available", s.instrument("availability", s.handleAvailability))
	mux.HandleFunc("GET /api/employees/by-position/{position}", s.instrument("employees", s.handleEmployeesByPosition))
	mux.HandleFunc("GET /api/employees/by-department/{department}", s.instrument("employees", s.handleEmployeesByDepartment))
	mux.HandleFunc("GET /api/positions", s.instrument("positions", s.handlePositions))
	mux.HandleFunc("GET /api/departments", s.instrument("departments", s.handleDepartments))

	mux.HandleFunc("GET /api/schedule", s.instrument("schedule", s.handleSchedule))
	mux.HandleFunc("PATCH /api/employee/{id}/schedule/{day}", s.instrument("shift_edit", s.handleShiftEdit))

	mux.HandleFunc("GET /api/tasks", s.instrument("tasks", s.handleListTasks))
	mux.HandleFunc("POST /api/tasks", s.instrument("tasks", s.handleCreateTask))
	mux.HandleFunc("DELETE /api/tasks/{id}", s.instrument("tasks", s.handleDeleteTask))

	mux.HandleFunc("GET /api/columns", s.instrument("columns", s.handleListColumns))
	mux.HandleFunc("PATCH /api/columns", s.instrument("columns", s.handlePatchColumns))
	mux.HandleFunc("POST /api/columns/{key}/clear", s.instrument("columns", s.handleClearColumn))
	mux.HandleFunc("POST /api/columns/{key}/restore", s.instrument("columns", s.handleRestoreColumn))

	mux.HandleFunc("GET /api/timeoff", s.instrument("timeoff", s.handleListTimeOff))
	mux.HandleFunc("POST /api/timeoff", s.instrument("timeoff", s.handleCreateTimeOff))
	mux.HandleFunc("PATCH /api/timeoff/{id}", s.instrument("timeoff", s.handleResolveTimeOff))
	mux.HandleFunc("GET /api/timeoff/conflicts", s.instrument("timeoff", s.handleTimeOffConflicts))

	mux.HandleFunc("GET /api/coverage", s.instrument("coverage", s.handleCoverageSnapshot))
	mux.HandleFunc("GET /api/coverage/detail", s.instrument("coverage", s.handleCoverageDetail))
	mux.HandleFunc("GET /api/insights", s.instrument("insights", s.handleInsights))

	mux.HandleFunc("GET /api/announcements", s.instrument("announcements", s.handleListAnnouncements))
	mux.HandleFunc("POST /api/announcements", s.instrument("announcements", s.handleCreateAnnouncement))
	mux.HandleFunc("DELETE /api/announcements/{id}", s.instrument("announcements", s.handleDeleteAnnouncement))
	mux.HandleFunc("POST /api/announcements/update", s.instrument("announcements", s.handleReplaceAnnouncements))

	mux.HandleFunc("POST /api/admin/verify", s.instrument("admin", s.handleVerifyAdmin))

	return mux
}

func (s *Server) instrument(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		h(w, r)
		metrics.RequestDurationSeconds.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

// capability derives the per-request admin capability from the credential
// header. A blank configured password disables admin entirely.
func (s *Server) capability(r *http.Request) models.Capability {
	return models.Capability{Admin: s.checkCredential(r.Header.Get(adminHeader))}
}

func (s *Server) checkCredential(password string) bool {
	if s.cfg.AdminPassword == "" || password == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(s.cfg.AdminPassword)) == 1
}

func (s *Server) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	if !s.capability(r).Admin {
		s.writeError(w, scherr.ErrUnauthorized)
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("failed to encode response", "err", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case stderrors.Is(err, scherr.ErrUnauthorized):
		status = http.StatusUnauthorized
	case stderrors.Is(err, scherr.ErrNotFound):
		status = http.StatusNotFound
	case stderrors.Is(err, scherr.ErrTerminalState):
		status = http.StatusConflict
	case stderrors.Is(err, scherr.ErrInvalidRange),
		stderrors.Is(err, scherr.ErrUnknownColumn),
		stderrors.Is(err, scherr.ErrUnknownDay):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", "err", err)
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func decode[T any](r *http.Request) (T, error) {
	var v T
	err := json.NewDecoder(r.Body).Decode(&v)
	return v, err
}

// weekStart returns the most recent Saturday, anchoring the Saturday-first
// grid to calendar dates for time-off badges.
func weekStart(now time.Time) time.Time {
	d := models.DateOnly(now)
	for d.Weekday() != time.Saturday {
		d = d.AddDate(0, 0, -1)
	}
	return d
}
