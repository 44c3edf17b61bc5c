package store

import (
	"errors"

	"deptrecords/pkg/domain"
)

// ErrDuplicateKey is returned when an insert or update violates a
// store-level uniqueness constraint (username, one schedule per teacher).
var ErrDuplicateKey = errors.New("duplicate key")

// Store defines persistence operations for department records. Lookups
// follow a (value, found, error) convention; a missing record is not an
// error. List operations return records in insertion order.
type Store interface {
	// teachers
	SaveTeacher(domain.Teacher) error
	GetTeacherByID(id string) (domain.Teacher, bool, error)
	GetTeacherByUsername(username string) (domain.Teacher, bool, error)
	ListTeachersByDepartment(department string) ([]domain.Teacher, error)
	ListPendingTeachers(department string) ([]domain.Teacher, error)
	DeleteTeacher(id string) error

	// students
	SaveStudent(domain.Student) error
	GetStudentByID(id string) (domain.Student, bool, error)
	GetStudentByUsername(username string) (domain.Student, bool, error)
	ListStudents() ([]domain.Student, error)
	DeleteStudent(id string) error

	// papers
	SavePaper(domain.Paper) error
	GetPaperByID(id string) (domain.Paper, bool, error)
	ListPapers() ([]domain.Paper, error)
	ListPapersByTeacher(teacherID string) ([]domain.Paper, error)
	FindPaperByKey(department, paper, teacherID string, studentIDs []string) (domain.Paper, bool, error)
	// ReplaceStudents overwrites a paper's enrollment set iff the stored
	// version still matches. It reports false when no row matched, which
	// covers both a missing paper and a stale version.
	ReplaceStudents(paperID string, version int64, studentIDs []string) (bool, error)
	DeletePaper(id string) error

	// notes
	SaveNote(domain.Note) error
	GetNoteByID(id string) (domain.Note, bool, error)
	ListNotesByPaper(paperID string) ([]domain.Note, error)
	FindNoteByContent(paperID, title, body string) (domain.Note, bool, error)
	DeleteNote(id string) error

	// time schedules
	SaveTimeSchedule(domain.TimeSchedule) error
	GetTimeScheduleByID(id string) (domain.TimeSchedule, bool, error)
	GetTimeScheduleByTeacher(teacherID string) (domain.TimeSchedule, bool, error)
	DeleteTimeSchedule(id string) error
}

// Session identifies an authenticated caller.
type Session struct {
	SubjectID string
	Role      string
}

// SessionStore issues and resolves session tokens.
type SessionStore interface {
	NewSession(subjectID, role string) (string, error)
	GetSession(token string) (Session, bool, error)
	DeleteSession(token string) error
}
