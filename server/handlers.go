package server

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"helpline-scheduler/availability"
	"helpline-scheduler/columns"
	"helpline-scheduler/coverage"
	"helpline-scheduler/editor"
	scherr "helpline-scheduler/errors"
	"helpline-scheduler/grid"
	"helpline-scheduler/metrics"
	"helpline-scheduler/models"
	"helpline-scheduler/risk"
)

func (s *Server) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := s.store.Employees(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, employees)
}

func (s *Server) handleCreateEmployee(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w, r) {
		return
	}
	emp, err := decode[models.Employee](r)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	created, err := s.store.CreateEmployee(r.Context(), emp)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleDeleteEmployee(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w, r) {
		return
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid employee id"})
		return
	}
	if err := s.store.DeleteEmployee(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "employee deleted"})
}

func (s *Server) handleAvailability(w http.ResponseWriter, r *http.Request) {
	q := availability.Query{
		Day:      r.URL.Query().Get("day"),
		Start:    r.URL.Query().Get("start_time"),
		End:      r.URL.Query().Get("end_time"),
		Position: r.URL.Query().Get("position"),
	}
	if q.Day == "" || q.Start == "" || q.End == "" {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "day, start_time and end_time are required"})
		return
	}

	employees, cells, err := s.store.Schedule(r.Context(), "")
	if err != nil {
		s.writeError(w, err)
		return
	}
	results, err := availability.FindAvailable(employees, cells, q)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleEmployeesByPosition(w http.ResponseWriter, r *http.Request) {
	s.writeFilteredEmployees(w, r, r.PathValue("position"),
		func(e models.Employee) string { return e.Position })
}

func (s *Server) handleEmployeesByDepartment(w http.ResponseWriter, r *http.Request) {
	s.writeFilteredEmployees(w, r, r.PathValue("department"),
		func(e models.Employee) string { return e.Department })
}

func (s *Server) writeFilteredEmployees(w http.ResponseWriter, r *http.Request, want string, field func(models.Employee) string) {
	employees, err := s.store.Employees(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	matched := make([]models.Employee, 0)
	for _, e := range employees {
		if strings.EqualFold(strings.TrimSpace(field(e)), want) {
			matched = append(matched, e)
		}
	}
	s.writeJSON(w, http.StatusOK, matched)
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	employees, err := s.store.Employees(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, distinct(employees, func(e models.Employee) string { return e.Position }))
}

func (s *Server) handleDepartments(w http.ResponseWriter, r *http.Request) {
	employees, err := s.store.Employees(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, distinct(employees, func(e models.Employee) string { return e.Department }))
}

func distinct(employees []models.Employee, field func(models.Employee) string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range employees {
		v := strings.TrimSpace(field(e))
		// Legacy imports leave literal "nan" in blank columns.
		if v == "" || strings.EqualFold(v, "nan") || seen[strings.ToLower(v)] {
			continue
		}
		seen[strings.ToLower(v)] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	employees, cells, err := s.store.Schedule(ctx, r.URL.Query().Get("department"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	tasks, err := s.store.Tasks(ctx)
	if err != nil {
		s.writeError(w, err)
		return
	}
	cols, err := s.store.DayColumns(ctx)
	if err != nil {
		s.writeError(w, err)
		return
	}
	timeOff, err := s.store.TimeOffRequests(ctx)
	if err != nil {
		s.writeError(w, err)
		return
	}

	view := grid.Build(grid.Input{
		Employees:       employees,
		Cells:           cells,
		Tasks:           tasks,
		Columns:         cols,
		TimeOff:         timeOff,
		DepartmentOrder: s.cfg.DepartmentOrder,
		WeekStart:       weekStart(time.Now()),
	})
	s.writeJSON(w, http.StatusOK, view)
}

type shiftEditRequest struct {
	ShiftTime string `json:"shift_time"`
}

// handleShiftEdit runs the full edit protocol for one cell: open with the
// caller's capability, stage the requested value, save with rollback on
// collaborator failure.
func (s *Server) handleShiftEdit(w http.ResponseWriter, r *http.Request) {
	employeeID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid employee id"})
		return
	}
	day := strings.ToLower(r.PathValue("day"))

	body, err := decode[shiftEditRequest](r)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	cells, err := s.store.ShiftCells(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	current := ""
	for _, c := range cells {
		if c.EmployeeID == employeeID && strings.EqualFold(c.ColumnKey, day) {
			current = c.Value
			break
		}
	}

	session := editor.NewSession(s.store)
	if err := session.Open(s.capability(r), employeeID, day, current); err != nil {
		s.writeError(w, err)
		return
	}
	if err := stageDraft(session, body.ShiftTime); err != nil {
		s.writeError(w, err)
		return
	}

	ack, err := session.Save(r.Context())
	if err != nil {
		outcome := "invalid"
		var collab *scherr.CollaboratorError
		if errors.As(err, &collab) {
			outcome = "rollback"
			metrics.EditRollbacksTotal.Inc()
		}
		metrics.EditSavesTotal.WithLabelValues(outcome).Inc()
		s.writeError(w, err)
		return
	}

	metrics.EditSavesTotal.WithLabelValues("success").Inc()
	s.writeJSON(w, http.StatusOK, map[string]any{
		"message":     "schedule updated",
		"value":       ack.Raw,
		"invalidates": ack.Invalidates,
	})
}

// stageDraft translates the raw requested value into editor inputs so the
// protocol's own validation decides what is acceptable.
func stageDraft(session *editor.Session, raw string) error {
	raw = strings.TrimSpace(raw)
	switch strings.ToLower(raw) {
	case "":
		return session.Clear()
	case "off":
		return session.SetOff(true)
	case "vacation":
		return session.SetVacation(true)
	}

	if err := session.Clear(); err != nil {
		return err
	}
	parts := strings.SplitN(raw, "-", 2)
	if err := session.SetStart(strings.TrimSpace(parts[0])); err != nil {
		return err
	}
	if len(parts) == 2 {
		return session.SetEnd(strings.TrimSpace(parts[1]))
	}
	return nil
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.store.Tasks(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, tasks)
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w, r) {
		return
	}
	task, err := decode[models.Task](r)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if task.Name == "" || task.DayOfWeek == "" || task.StartTime == "" || task.EndTime == "" {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "task_name, day_of_week, start_time and end_time are required"})
		return
	}
	created, err := s.store.CreateTask(r.Context(), task)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w, r) {
		return
	}
	if err := s.store.DeleteTask(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "task deleted"})
}

func (s *Server) handleListColumns(w http.ResponseWriter, r *http.Request) {
	cols, err := s.store.DayColumns(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, cols)
}

func (s *Server) handlePatchColumns(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w, r) {
		return
	}
	patches, err := decode[[]columns.Patch](r)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	updated, err := s.store.PatchColumns(r.Context(), patches)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleClearColumn(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w, r) {
		return
	}
	if err := s.store.ClearColumn(r.Context(), r.PathValue("key")); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "column cleared"})
}

func (s *Server) handleRestoreColumn(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w, r) {
		return
	}
	if err := s.store.RestoreColumn(r.Context(), r.PathValue("key")); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "column restored"})
}

func (s *Server) handleListTimeOff(w http.ResponseWriter, r *http.Request) {
	requests, err := s.store.TimeOffRequests(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, requests)
}

type timeOffCreateRequest struct {
	EmployeeID int64  `json:"employee_id"`
	Type       string `json:"type"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	Reason     string `json:"reason"`
}

func (s *Server) handleCreateTimeOff(w http.ResponseWriter, r *http.Request) {
	body, err := decode[timeOffCreateRequest](r)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	start, okStart := parseDate(body.StartDate)
	end, okEnd := parseDate(body.EndDate)
	if body.Type == "" || !okStart || !okEnd {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "type, start_date and end_date are required"})
		return
	}
	created, err := s.store.CreateTimeOff(r.Context(), models.TimeOffRequest{
		EmployeeID: body.EmployeeID,
		Type:       body.Type,
		StartDate:  start,
		EndDate:    end,
		Reason:     body.Reason,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, created)
}

type timeOffResolveRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleResolveTimeOff(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w, r) {
		return
	}
	body, err := decode[timeOffResolveRequest](r)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	updated, err := s.store.UpdateTimeOffStatus(r.Context(), r.PathValue("id"), models.TimeOffStatus(body.Status))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleTimeOffConflicts(w http.ResponseWriter, r *http.Request) {
	employeeID, err := strconv.ParseInt(r.URL.Query().Get("employee_id"), 10, 64)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid employee id"})
		return
	}
	start, okStart := parseDate(r.URL.Query().Get("start_date"))
	end, okEnd := parseDate(r.URL.Query().Get("end_date"))
	if !okStart || !okEnd {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "start_date and end_date are required"})
		return
	}

	cells, err := s.store.ShiftCells(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	requests, err := s.store.TimeOffRequests(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	conflicts := availability.TimeOffConflicts(cells, requests, employeeID, start, end)
	dates := make([]string, 0, len(conflicts))
	for _, d := range conflicts {
		dates = append(dates, d.Format("2006-01-02"))
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"conflicts": dates})
}

func (s *Server) handleCoverageSnapshot(w http.ResponseWriter, r *http.Request) {
	employees, cells, err := s.store.Schedule(r.Context(), "")
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, coverage.Snapshot(employees, cells, s.cfg.Coverage))
}

func (s *Server) handleCoverageDetail(w http.ResponseWriter, r *http.Request) {
	employees, cells, err := s.store.Schedule(r.Context(), "")
	if err != nil {
		s.writeError(w, err)
		return
	}
	gaps := coverage.Check(employees, cells, s.cfg.Coverage)
	s.recordCoverageMetrics(gaps)
	s.writeJSON(w, http.StatusOK, gaps)
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	ctx := r.Context()

	employees, cells, err := s.store.Schedule(ctx, "")
	if err != nil {
		s.writeError(w, err)
		return
	}
	timeOff, err := s.store.TimeOffRequests(ctx)
	if err != nil {
		s.writeError(w, err)
		return
	}

	assessments := risk.Evaluate(employees, cells, timeOff, time.Now(), s.cfg.Risk)
	gaps := coverage.Check(employees, cells, s.cfg.Coverage)

	metrics.ResetAnalyticsGauges()
	s.recordCoverageMetrics(gaps)
	for _, a := range assessments {
		metrics.EmployeesAtRisk.WithLabelValues(a.Level).Inc()
	}
	metrics.InsightsDurationSeconds.Observe(time.Since(started).Seconds())

	s.writeJSON(w, http.StatusOK, map[string]any{
		"risk":     assessments,
		"coverage": gaps,
	})
}

func (s *Server) recordCoverageMetrics(gaps []coverage.Gap) {
	critical, warning, shortfallMinutes := 0, 0, 0
	for _, g := range gaps {
		if g.Severity == coverage.SeverityCritical {
			critical++
			shortfallMinutes += g.EndMinutes - g.StartMinutes
		} else {
			warning++
		}
	}
	metrics.CoverageGapsTotal.WithLabelValues(coverage.SeverityCritical).Set(float64(critical))
	metrics.CoverageGapsTotal.WithLabelValues(coverage.SeverityWarning).Set(float64(warning))
	metrics.CoverageShortfallMinutes.Set(float64(shortfallMinutes))
}

func (s *Server) handleListAnnouncements(w http.ResponseWriter, r *http.Request) {
	announcements, err := s.store.Announcements(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, announcements)
}

type announcementRequest struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Type    string `json:"type"`
	Date    string `json:"date"`
}

func (a announcementRequest) model() models.Announcement {
	date, ok := parseDate(a.Date)
	if !ok {
		date = time.Now()
	}
	return models.Announcement{ID: a.ID, Title: a.Title, Content: a.Content, Type: a.Type, Date: date}
}

func (s *Server) handleCreateAnnouncement(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w, r) {
		return
	}
	body, err := decode[announcementRequest](r)
	if err != nil || body.Title == "" || body.Content == "" {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "title and content are required"})
		return
	}
	created, err := s.store.CreateAnnouncement(r.Context(), body.model())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleDeleteAnnouncement(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w, r) {
		return
	}
	if err := s.store.DeleteAnnouncement(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "announcement deleted"})
}

type announcementsUpdateRequest struct {
	Announcements []announcementRequest `json:"announcements"`
}

func (s *Server) handleReplaceAnnouncements(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w, r) {
		return
	}
	body, err := decode[announcementsUpdateRequest](r)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	replace := make([]models.Announcement, 0, len(body.Announcements))
	for _, a := range body.Announcements {
		replace = append(replace, a.model())
	}
	updated, err := s.store.ReplaceAnnouncements(r.Context(), replace)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"message": "announcements updated", "announcements": updated})
}

type verifyRequest struct {
	Password string `json:"password"`
}

func (s *Server) handleVerifyAdmin(w http.ResponseWriter, r *http.Request) {
	body, err := decode[verifyRequest](r)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if s.checkCredential(body.Password) {
		s.writeJSON(w, http.StatusOK, map[string]bool{"authenticated": true})
		return
	}
	s.writeJSON(w, http.StatusUnauthorized, map[string]bool{"authenticated": false})
}

// parseDate accepts ISO and US-style dates; legacy clients send both.
func parseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{"2006-01-02", "1/2/2006"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
