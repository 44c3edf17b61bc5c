package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"deptrecords/services/records/internal/app"
)

const maxAttachmentBytes = 25 * 1024 * 1024

type createTeacherRequest struct {
	Name          string   `json:"name" validate:"required"`
	Email         string   `json:"email" validate:"required,email"`
	Username      string   `json:"username" validate:"required"`
	Password      string   `json:"password" validate:"required"`
	Department    string   `json:"department" validate:"required"`
	Qualification string   `json:"qualification" validate:"required"`
	Roles         []string `json:"roles"`
}

func (s *Server) handleTeachers(w http.ResponseWriter, r *http.Request, _ app.Subject) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req createTeacherRequest
	if !s.decode(w, r, &req) {
		return
	}
	teacher, err := s.app.CreateTeacher(r.Context(), app.CreateTeacherInput{
		Name:          req.Name,
		Email:         req.Email,
		Username:      req.Username,
		Password:      req.Password,
		Department:    req.Department,
		Qualification: req.Qualification,
		Roles:         req.Roles,
	})
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, teacher)
}

type approveTeacherRequest struct {
	Roles []string `json:"roles" validate:"required,min=1"`
}

// /teachers/{id}, /teachers/department/{department},
// /teachers/pending/{department}
func (s *Server) handleTeacherSubtree(w http.ResponseWriter, r *http.Request, _ app.Subject) {
	path := strings.TrimPrefix(r.URL.Path, "/teachers/")
	parts := strings.SplitN(path, "/", 2)
	head := parts[0]
	if head == "" {
		notFound(w, "not found")
		return
	}

	if len(parts) == 2 {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		switch head {
		case "department":
			teachers, err := s.app.TeacherList(parts[1])
			if err != nil {
				writeAppError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, teachers)
		case "pending":
			teachers, err := s.app.PendingTeachers(parts[1])
			if err != nil {
				writeAppError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, teachers)
		default:
			notFound(w, "not found")
		}
		return
	}

	switch r.Method {
	case http.MethodGet:
		teacher, err := s.app.GetTeacher(head)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, teacher)
	case http.MethodPatch:
		var req approveTeacherRequest
		if !s.decode(w, r, &req) {
			return
		}
		teacher, err := s.app.ApproveTeacher(r.Context(), head, req.Roles)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, teacher)
	case http.MethodDelete:
		if err := s.app.DeleteTeacher(r.Context(), head); err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "teacher deleted"})
	default:
		methodNotAllowed(w)
	}
}

type createStudentRequest struct {
	Name     string `json:"name" validate:"required"`
	Course   string `json:"course" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (s *Server) handleStudents(w http.ResponseWriter, r *http.Request, _ app.Subject) {
	switch r.Method {
	case http.MethodPost:
		var req createStudentRequest
		if !s.decode(w, r, &req) {
			return
		}
		student, err := s.app.CreateStudent(r.Context(), app.CreateStudentInput{
			Name:     req.Name,
			Course:   req.Course,
			Email:    req.Email,
			Username: req.Username,
			Password: req.Password,
		})
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, student)
	case http.MethodGet:
		students, err := s.app.ListStudents()
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, students)
	default:
		methodNotAllowed(w)
	}
}

type updateStudentRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required"`
	Password string `json:"password"`
}

func (s *Server) handleStudentByID(w http.ResponseWriter, r *http.Request, _ app.Subject) {
	id := strings.TrimPrefix(r.URL.Path, "/students/")
	if id == "" || strings.Contains(id, "/") {
		notFound(w, "not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		student, err := s.app.GetStudent(id)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, student)
	case http.MethodPatch:
		var req updateStudentRequest
		if !s.decode(w, r, &req) {
			return
		}
		student, err := s.app.UpdateStudent(r.Context(), id, app.UpdateStudentInput{
			Name:     req.Name,
			Email:    req.Email,
			Username: req.Username,
			Password: req.Password,
		})
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, student)
	case http.MethodDelete:
		if err := s.app.DeleteStudent(r.Context(), id); err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "student deleted"})
	default:
		methodNotAllowed(w)
	}
}

type createNoteRequest struct {
	Paper string `json:"paper" validate:"required"`
	Title string `json:"title" validate:"required"`
	Body  string `json:"body" validate:"required"`
}

func (s *Server) handleNotes(w http.ResponseWriter, r *http.Request, _ app.Subject) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req createNoteRequest
	if !s.decode(w, r, &req) {
		return
	}
	note, err := s.app.CreateNote(r.Context(), app.CreateNoteInput{
		PaperID: req.Paper,
		Title:   req.Title,
		Body:    req.Body,
	})
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

type updateNoteRequest struct {
	Title string `json:"title" validate:"required"`
	Body  string `json:"body" validate:"required"`
}

// /notes/{id}, /notes/{id}/attachment, /notes/paper/{paperId}
func (s *Server) handleNoteSubtree(w http.ResponseWriter, r *http.Request, _ app.Subject) {
	path := strings.TrimPrefix(r.URL.Path, "/notes/")
	parts := strings.SplitN(path, "/", 2)
	head := parts[0]
	if head == "" {
		notFound(w, "not found")
		return
	}

	if len(parts) == 2 {
		if head == "paper" {
			if r.Method != http.MethodGet {
				methodNotAllowed(w)
				return
			}
			notes, err := s.app.NotesByPaper(parts[1])
			if err != nil {
				writeAppError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, notes)
			return
		}
		if parts[1] == "attachment" {
			s.handleNoteAttachment(w, r, head)
			return
		}
		notFound(w, "not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		note, err := s.app.GetNote(head)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, note)
	case http.MethodPatch:
		var req updateNoteRequest
		if !s.decode(w, r, &req) {
			return
		}
		note, err := s.app.UpdateNote(r.Context(), head, req.Title, req.Body)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, note)
	case http.MethodDelete:
		if err := s.app.DeleteNote(r.Context(), head); err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "note deleted"})
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleNoteAttachment(w http.ResponseWriter, r *http.Request, noteID string) {
	switch r.Method {
	case http.MethodPut:
		body := http.MaxBytesReader(w, r.Body, maxAttachmentBytes)
		defer body.Close()
		contentType := r.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		note, err := s.app.AttachNoteFile(r.Context(), noteID, body, r.ContentLength, contentType)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, note)
	case http.MethodGet:
		url, err := s.app.NoteAttachmentURL(r.Context(), noteID)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"url": url})
	default:
		methodNotAllowed(w)
	}
}

type createTimeScheduleRequest struct {
	Teacher  string          `json:"teacher" validate:"required"`
	Schedule json.RawMessage `json:"schedule" validate:"required"`
}

func (s *Server) handleTimeSchedules(w http.ResponseWriter, r *http.Request, _ app.Subject) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req createTimeScheduleRequest
	if !s.decode(w, r, &req) {
		return
	}
	schedule, err := s.app.CreateTimeSchedule(r.Context(), app.CreateTimeScheduleInput{
		TeacherID: req.Teacher,
		Schedule:  req.Schedule,
	})
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, schedule)
}

type updateTimeScheduleRequest struct {
	Schedule json.RawMessage `json:"schedule" validate:"required"`
}

// /time-schedules/teacher/{teacherId}, /time-schedules/{id}
func (s *Server) handleTimeScheduleSubtree(w http.ResponseWriter, r *http.Request, _ app.Subject) {
	path := strings.TrimPrefix(r.URL.Path, "/time-schedules/")
	parts := strings.SplitN(path, "/", 2)
	head := parts[0]
	if head == "" {
		notFound(w, "not found")
		return
	}

	if len(parts) == 2 {
		if head != "teacher" {
			notFound(w, "not found")
			return
		}
		teacherID := parts[1]
		switch r.Method {
		case http.MethodGet:
			schedule, err := s.app.TimeScheduleByTeacher(teacherID)
			if err != nil {
				writeAppError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, schedule)
		case http.MethodPatch:
			var req updateTimeScheduleRequest
			if !s.decode(w, r, &req) {
				return
			}
			schedule, err := s.app.UpdateTimeSchedule(r.Context(), teacherID, req.Schedule)
			if err != nil {
				writeAppError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, schedule)
		default:
			methodNotAllowed(w)
		}
		return
	}

	switch r.Method {
	case http.MethodDelete:
		if err := s.app.DeleteTimeSchedule(r.Context(), head); err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "time schedule deleted"})
	default:
		methodNotAllowed(w)
	}
}
