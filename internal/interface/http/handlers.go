package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/studydeck/studydeck/internal/application/dashboard"
	"github.com/studydeck/studydeck/internal/domain/academics"
	"github.com/studydeck/studydeck/internal/domain/planner"
	"github.com/studydeck/studydeck/internal/domain/record"
	"github.com/studydeck/studydeck/internal/infrastructure/session"
)

// writeServiceError maps domain and service errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	var parseErr *time.ParseError
	switch {
	case errors.As(err, &parseErr):
		writeError(w, http.StatusBadRequest, "validation_failed", "dates must use YYYY-MM-DD")
	case errors.Is(err, dashboard.ErrTaskNotFound),
		errors.Is(err, dashboard.ErrSubjectNotFound),
		errors.Is(err, dashboard.ErrEventNotFound),
		errors.Is(err, dashboard.ErrExamNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, academics.ErrEntryOutOfRange),
		errors.Is(err, record.ErrClassOutOfRange):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, planner.ErrUnknownFrequency),
		errors.Is(err, planner.ErrRuleShape),
		errors.Is(err, planner.ErrWeekdayRange),
		errors.Is(err, planner.ErrEmptyTaskName),
		errors.Is(err, academics.ErrEmptySubjectName),
		errors.Is(err, academics.ErrUnknownSlot),
		errors.Is(err, academics.ErrNegativeScore),
		errors.Is(err, academics.ErrUnknownStatus),
		errors.Is(err, record.ErrEmptyEventName),
		errors.Is(err, record.ErrEmptyExamSubject),
		errors.Is(err, record.ErrEmptyClassFields),
		errors.Is(err, record.ErrUnknownWeekday):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	default:
		writeError(w, http.StatusBadGateway, "store_error", err.Error())
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "request body must be valid JSON")
		return false
	}
	return true
}

// ─── Health and root ───

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": s.Uptime().String(),
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "not_found", "unknown endpoint")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "studydeck",
		"version": s.deps.Version,
	})
}

// ─── Auth ───

type credentialsRequest struct {
	Username   string `json:"username"`
	Passphrase string `json:"passphrase"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	err := s.deps.Sessions.Register(r.Context(), req.Username, req.Passphrase)
	switch {
	case errors.Is(err, session.ErrUserExists):
		writeError(w, http.StatusConflict, "user_exists", "username already taken")
	case errors.Is(err, session.ErrInvalidCredentials):
		writeError(w, http.StatusBadRequest, "validation_failed", "username and passphrase required")
	case err != nil:
		writeError(w, http.StatusInternalServerError, "session_error", err.Error())
	default:
		writeJSON(w, http.StatusCreated, map[string]string{"username": req.Username})
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	token, err := s.deps.Sessions.Login(r.Context(), req.Username, req.Passphrase)
	switch {
	case errors.Is(err, session.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "wrong username or passphrase")
	case err != nil:
		writeError(w, http.StatusInternalServerError, "session_error", err.Error())
	default:
		writeJSON(w, http.StatusOK, map[string]string{"token": token})
	}
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "missing_token", "authorization required")
		return
	}
	if err := s.deps.Sessions.Logout(r.Context(), token); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid_token", "session invalid or expired")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// ─── Overview ───

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request, svc *dashboard.Service) {
	overview, err := svc.Overview(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

// ─── Tasks ───

type addTaskRequest struct {
	Name     string   `json:"name"`
	Freq     string   `json:"freq"`
	Date     string   `json:"date,omitempty"`
	Weekdays []int    `json:"weekdays,omitempty"`
	Dates    []string `json:"dates,omitempty"`
}

func (r addTaskRequest) rule() planner.RecurrenceRule {
	return planner.RecurrenceRule{
		Freq:     planner.Frequency(r.Freq),
		Date:     r.Date,
		Weekdays: r.Weekdays,
		Dates:    r.Dates,
	}
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request, svc *dashboard.Service) {
	views, err := svc.ListTasks(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleAddTask(w http.ResponseWriter, r *http.Request, svc *dashboard.Service) {
	var req addTaskRequest
	if !decodeBody(w, r, &req) {
		return
	}
	task, err := svc.AddTask(r.Context(), req.Name, req.rule())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (s *Server) handleRenameTask(w http.ResponseWriter, r *http.Request, svc *dashboard.Service) {
	var req struct {
		Name string `json:"name"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if err := svc.RenameTask(r.Context(), r.PathValue("id"), req.Name); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "renamed"})
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request, svc *dashboard.Service) {
	if err := svc.DeleteTask(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleMarkDone(w http.ResponseWriter, r *http.Request, svc *dashboard.Service) {
	if err := svc.MarkDone(r.Context(), r.PathValue("id"), r.URL.Query().Get("date")); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "done"})
}

func (s *Server) handleUnmarkDone(w http.ResponseWriter, r *http.Request, svc *dashboard.Service) {
	if err := svc.UnmarkDone(r.Context(), r.PathValue("id"), r.URL.Query().Get("date")); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "undone"})
}

func (s *Server) handleTasksToday(w http.ResponseWriter, r *http.Request, svc *dashboard.Service) {
	views, err := svc.TasksForToday(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleUpcoming(w http.ResponseWriter, r *http.Request, svc *dashboard.Service) {
	days, err := svc.Upcoming(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, days)
}

func (s *Server) handleConsistency(w http.ResponseWriter, r *http.Request, svc *dashboard.Service) {
	g := planner.Granularity(r.URL.Query().Get("granularity"))
	if g == "" {
		g = planner.GranularityDaily
	}
	points, err := svc.Consistency(r.Context(), g)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, points)
}

// ─── Academics ───

func (s *Server) handleListSubjects(w http.ResponseWriter, r *http.Request, svc *dashboard.Service) {
	views, err := svc.ListSubjects(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleAddSubject(w http.ResponseWriter, r *http.Request, svc *dashboard.Service) {
	var req struct {
		Name string `json:"name"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	subject, err := svc.AddSubject(r.Context(), req.Name)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, subject)
}

func (s *Server) handleDeleteSubject(w http.ResponseWriter, r *http.Request, svc *dashboard.Service) {
	if err := svc.DeleteSubject(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleSetScore(w http.ResponseWriter, r *http.Request, svc *dashboard.Service) {
	var req struct {
		Obtained float64 `json:"m"`
		Total    float64 `json:"t"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	slot := academics.SlotKey(r.PathValue("slot"))
	if err := svc.SetScore(r.Context(), r.PathValue("id"), slot, req.Obtained, req.Total); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// ─── Attendance ───

func (s *Server) handleAttendanceStats(w http.ResponseWriter, r *http.Request, svc *dashboard.Service) {
	report, err := svc.AttendanceStats(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleAddAttendance(w http.ResponseWriter, r *http.Request, svc *dashboard.Service) {
	var req struct {
		Date   string `json:"date,omitempty"`
		Status string `json:"status"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	status, err := academics.ParseStatus(req.Status)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if err := svc.AddAttendance(r.Context(), r.PathValue("subject"), req.Date, status); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "recorded"})
}

func attendanceEntryParams(w http.ResponseWriter, r *http.Request) (subject, date string, index int, ok bool) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "entry index must be an integer")
		return "", "", 0, false
	}
	return r.PathValue("subject"), r.PathValue("date"), index, true
}

func (s *Server) handleUpdateAttendance(w http.ResponseWriter, r *http.Request, svc *dashboard.Service) {
	subject, date, index, ok := attendanceEntryParams(w, r)
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	status, err := academics.ParseStatus(req.Status)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if err := svc.UpdateAttendance(r.Context(), subject, date, index, status); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleDeleteAttendance(w http.ResponseWriter, r *http.Request, svc *dashboard.Service) {
	subject, date, index, ok := attendanceEntryParams(w, r)
	if !ok {
		return
	}
	if err := svc.DeleteAttendance(r.Context(), subject, date, index); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleAttendanceMonth(w http.ResponseWriter, r *http.Request, svc *dashboard.Service) {
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "year must be an integer")
		return
	}
	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil || month < 1 || month > 12 {
		writeError(w, http.StatusBadRequest, "validation_failed", "month must be 1..12")
		return
	}
	days, err := svc.AttendanceMonth(r.Context(), r.PathValue("subject"), year, month)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, days)
}

// ─── Timetable ───

func (s *Server) handleTimetable(w http.ResponseWriter, r *http.Request, svc *dashboard.Service) {
	tt, err := svc.Timetable(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tt)
}

func (s *Server) handleAddClass(w http.ResponseWriter, r *http.Request, svc *dashboard.Service) {
	var class record.Class
	if !decodeBody(w, r, &class) {
		return
	}
	if err := svc.AddClass(r.Context(), r.PathValue("weekday"), class); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "added"})
}

func (s *Server) handleRemoveClass(w http.ResponseWriter, r *http.Request, svc *dashboard.Service) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "class index must be an integer")
		return
	}
	if err := svc.RemoveClass(r.Context(), r.PathValue("weekday"), index); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

// ─── Events and exams ───

func (s *Server) handleAddEvent(w http.ResponseWriter, r *http.Request, svc *dashboard.Service) {
	var req struct {
		Name string `json:"name"`
		Date string `json:"date"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	event, err := svc.AddEvent(r.Context(), req.Name, req.Date)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request, svc *dashboard.Service) {
	if err := svc.DeleteEvent(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleAddExam(w http.ResponseWriter, r *http.Request, svc *dashboard.Service) {
	var req struct {
		Subject string `json:"subject"`
		Date    string `json:"date"`
		Time    string `json:"time,omitempty"`
		Venue   string `json:"venue,omitempty"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	exam, err := svc.AddExam(r.Context(), req.Subject, req.Date, req.Time, req.Venue)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, exam)
}

func (s *Server) handleDeleteExam(w http.ResponseWriter, r *http.Request, svc *dashboard.Service) {
	if err := svc.DeleteExam(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
