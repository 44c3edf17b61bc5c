package server

import (
	"net/http"
	"strings"

	"deptrecords/services/records/internal/app"
)

func (s *Server) handlePapers(w http.ResponseWriter, r *http.Request, _ app.Subject) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreatePaper(w, r)
	default:
		methodNotAllowed(w)
	}
}

// /papers/{id}, /papers/{id}/students, /papers/teacher/{teacherId},
// /papers/student/{studentId}, /papers/all/{studentId}
func (s *Server) handlePaperSubtree(w http.ResponseWriter, r *http.Request, _ app.Subject) {
	path := strings.TrimPrefix(r.URL.Path, "/papers/")
	parts := strings.SplitN(path, "/", 2)
	head := parts[0]
	if head == "" {
		notFound(w, "not found")
		return
	}

	if len(parts) == 2 {
		switch head {
		case "teacher":
			s.handleTeacherPapers(w, r, parts[1])
			return
		case "student":
			s.handleEnrolledPapers(w, r, parts[1])
			return
		case "all":
			s.handleAllPapers(w, r, parts[1])
			return
		}
		if parts[1] == "students" {
			s.handlePaperStudents(w, r, head)
			return
		}
		notFound(w, "not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		detail, err := s.app.PaperDetail(r.Context(), head)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, detail)
	case http.MethodDelete:
		if err := s.app.DeletePaper(r.Context(), head); err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "paper deleted"})
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleTeacherPapers(w http.ResponseWriter, r *http.Request, teacherID string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	papers, err := s.app.TeacherPapers(teacherID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, papers)
}

func (s *Server) handleEnrolledPapers(w http.ResponseWriter, r *http.Request, studentID string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	papers, err := s.app.EnrolledPapers(studentID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, papers)
}

func (s *Server) handleAllPapers(w http.ResponseWriter, r *http.Request, studentID string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	papers, err := s.app.AllPapersWithMembership(studentID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, papers)
}

type replaceStudentsRequest struct {
	Students []string `json:"students" validate:"required,min=1"`
}

// GET returns the roster, PATCH replaces the enrollment set wholesale.
func (s *Server) handlePaperStudents(w http.ResponseWriter, r *http.Request, paperID string) {
	switch r.Method {
	case http.MethodGet:
		roster, err := s.app.Roster(paperID)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, roster)
	case http.MethodPatch:
		var req replaceStudentsRequest
		if !s.decode(w, r, &req) {
			return
		}
		if err := s.app.ReplaceEnrollment(r.Context(), paperID, req.Students); err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "students updated"})
	default:
		methodNotAllowed(w)
	}
}

type createPaperRequest struct {
	Department string   `json:"department" validate:"required"`
	Semester   string   `json:"semester" validate:"required"`
	Year       string   `json:"year" validate:"required"`
	Paper      string   `json:"paper" validate:"required"`
	Teacher    string   `json:"teacher" validate:"required"`
	Students   []string `json:"students" validate:"required,min=1"`
}

func (s *Server) handleCreatePaper(w http.ResponseWriter, r *http.Request) {
	var req createPaperRequest
	if !s.decode(w, r, &req) {
		return
	}
	paper, err := s.app.CreatePaper(r.Context(), app.CreatePaperInput{
		Department: req.Department,
		Semester:   req.Semester,
		Year:       req.Year,
		Paper:      req.Paper,
		TeacherID:  req.Teacher,
		Students:   req.Students,
	})
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, paper)
}
