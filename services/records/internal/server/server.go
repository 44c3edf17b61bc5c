package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"deptrecords/internal/ratelimit"
	"deptrecords/internal/util"
	"deptrecords/services/records/internal/app"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App          *app.App
	LoginLimiter *ratelimit.FixedWindowLimiter
}

// Server exposes HTTP endpoints for the records service.
type Server struct {
	app          *app.App
	loginLimiter *ratelimit.FixedWindowLimiter
	mux          *http.ServeMux
	validate     *validator.Validate
}

// New constructs the server with routes configured.
func New(cfg Config) *Server {
	s := &Server{
		app:          cfg.App,
		loginLimiter: cfg.LoginLimiter,
		mux:          http.NewServeMux(),
		validate:     validator.New(),
	}
	s.routes()
	return s
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog("records", util.WithSecurityHeaders(util.WithCORS(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	s.mux.HandleFunc("/auth/login/teacher", s.handleTeacherLogin)
	s.mux.HandleFunc("/auth/login/student", s.handleStudentLogin)
	s.mux.HandleFunc("/auth/logout", s.handleLogout)

	s.mux.Handle("/teachers", s.withAuth(s.handleTeachers))
	s.mux.Handle("/teachers/", s.withAuth(s.handleTeacherSubtree))
	s.mux.Handle("/students", s.withAuth(s.handleStudents))
	s.mux.Handle("/students/", s.withAuth(s.handleStudentByID))
	s.mux.Handle("/papers", s.withAuth(s.handlePapers))
	s.mux.Handle("/papers/", s.withAuth(s.handlePaperSubtree))
	s.mux.Handle("/notes", s.withAuth(s.handleNotes))
	s.mux.Handle("/notes/", s.withAuth(s.handleNoteSubtree))
	s.mux.Handle("/time-schedules", s.withAuth(s.handleTimeSchedules))
	s.mux.Handle("/time-schedules/", s.withAuth(s.handleTimeScheduleSubtree))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type authedHandler func(http.ResponseWriter, *http.Request, app.Subject)

func (s *Server) withAuth(next authedHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		subject, err := s.app.Authenticate(r.Context(), token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r, subject)
	})
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (s *Server) handleTeacherLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowLogin(r) {
		writeError(w, http.StatusTooManyRequests, "too many login attempts")
		return
	}
	var req loginRequest
	if !s.decode(w, r, &req) {
		return
	}
	result, err := s.app.TeacherLogin(r.Context(), req.Username, req.Password)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleStudentLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowLogin(r) {
		writeError(w, http.StatusTooManyRequests, "too many login attempts")
		return
	}
	var req loginRequest
	if !s.decode(w, r, &req) {
		return
	}
	result, err := s.app.StudentLogin(r.Context(), req.Username, req.Password)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	token, ok := bearerToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := s.app.Logout(r.Context(), token); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func (s *Server) allowLogin(r *http.Request) bool {
	if s.loginLimiter == nil {
		return true
	}
	return s.loginLimiter.Allow(util.ClientIP(r))
}

// decode reads the JSON body into dst and validates it. It writes the
// error response itself and reports whether decoding succeeded.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "incomplete request: fields missing")
		return false
	}
	return true
}

func writeAppError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrInvalidCredentials), errors.Is(err, app.ErrPendingApproval):
		writeError(w, http.StatusUnauthorized, err.Error())
	case app.IsBadRequest(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case app.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error())
	case app.IsConflict(err):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, app.ErrAttachmentsDisabled):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{
		Error:     msg,
		RequestID: strings.TrimSpace(w.Header().Get("X-Request-Id")),
	})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func notFound(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusNotFound, msg)
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", false
	}
	return token, true
}
