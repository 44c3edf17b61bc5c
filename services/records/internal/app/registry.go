package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"deptrecords/internal/util"
	"deptrecords/pkg/auth"
	"deptrecords/pkg/domain"
	"deptrecords/pkg/events"
	"deptrecords/pkg/store"
)

// Every creation runs the duplicate guard: an exact-match lookup on the
// entity's uniqueness key before insert. The guard is a precondition,
// not a transaction; where the key fits a single column (usernames, one
// schedule per teacher) the store's unique index closes the remaining
// race and the resulting ErrDuplicateKey maps to the same conflict.

type CreateTeacherInput struct {
	Name          string
	Email         string
	Username      string
	Password      string
	Department    string
	Qualification string
	Roles         []string
}

// CreateTeacher registers a teacher. Roles may be empty, which leaves
// the account pending approval.
func (a *App) CreateTeacher(ctx context.Context, in CreateTeacherInput) (domain.Teacher, error) {
	if anyBlank(in.Name, in.Email, in.Username, in.Password, in.Department, in.Qualification) {
		return domain.Teacher{}, ErrFieldsMissing
	}
	if err := auth.ValidatePassword(in.Password); err != nil {
		return domain.Teacher{}, err
	}
	if _, exists, err := a.store.GetTeacherByUsername(in.Username); err != nil {
		return domain.Teacher{}, fmt.Errorf("check username: %w", err)
	} else if exists {
		return domain.Teacher{}, ErrDuplicateUsername
	}
	passwordHash, err := auth.HashPassword(in.Password)
	if err != nil {
		return domain.Teacher{}, fmt.Errorf("hash password: %w", err)
	}
	now := time.Now().UTC()
	teacher := domain.Teacher{
		ID:            util.NewID(),
		Name:          in.Name,
		Email:         in.Email,
		Username:      in.Username,
		PasswordHash:  passwordHash,
		Department:    in.Department,
		Qualification: in.Qualification,
		Roles:         in.Roles,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := a.store.SaveTeacher(teacher); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return domain.Teacher{}, ErrDuplicateUsername
		}
		return domain.Teacher{}, fmt.Errorf("save teacher: %w", err)
	}
	a.publish(ctx, "teacher", events.ActionCreated, teacher.ID)
	return teacher, nil
}

// GetTeacher returns one teacher by id.
func (a *App) GetTeacher(id string) (domain.Teacher, error) {
	teacher, ok, err := a.store.GetTeacherByID(strings.TrimSpace(id))
	if err != nil {
		return domain.Teacher{}, fmt.Errorf("fetch teacher: %w", err)
	}
	if !ok {
		return domain.Teacher{}, ErrTeacherNotFound
	}
	return teacher, nil
}

// PendingTeachers lists a department's teachers still awaiting approval.
func (a *App) PendingTeachers(department string) ([]domain.Teacher, error) {
	return a.store.ListPendingTeachers(strings.TrimSpace(department))
}

// TeacherList lists a department's teachers.
func (a *App) TeacherList(department string) ([]domain.Teacher, error) {
	return a.store.ListTeachersByDepartment(strings.TrimSpace(department))
}

// ApproveTeacher assigns roles to a pending teacher.
func (a *App) ApproveTeacher(ctx context.Context, id string, roles []string) (domain.Teacher, error) {
	if len(roles) == 0 {
		return domain.Teacher{}, ErrFieldsMissing
	}
	teacher, ok, err := a.store.GetTeacherByID(strings.TrimSpace(id))
	if err != nil {
		return domain.Teacher{}, fmt.Errorf("fetch teacher: %w", err)
	}
	if !ok {
		return domain.Teacher{}, ErrTeacherNotFound
	}
	teacher.Roles = roles
	teacher.UpdatedAt = time.Now().UTC()
	if err := a.store.SaveTeacher(teacher); err != nil {
		return domain.Teacher{}, fmt.Errorf("save teacher: %w", err)
	}
	a.publish(ctx, "teacher", events.ActionUpdated, teacher.ID)
	return teacher, nil
}

// DeleteTeacher removes a teacher. Papers referencing it keep their
// dangling teacher id; the view engine drops those rows on read.
func (a *App) DeleteTeacher(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	_, ok, err := a.store.GetTeacherByID(id)
	if err != nil {
		return fmt.Errorf("fetch teacher: %w", err)
	}
	if !ok {
		return ErrTeacherNotFound
	}
	if err := a.store.DeleteTeacher(id); err != nil {
		return fmt.Errorf("delete teacher: %w", err)
	}
	a.publish(ctx, "teacher", events.ActionDeleted, id)
	return nil
}

type CreateStudentInput struct {
	Name     string
	Course   string
	Email    string
	Username string
	Password string
}

// CreateStudent registers a student.
func (a *App) CreateStudent(ctx context.Context, in CreateStudentInput) (domain.Student, error) {
	if anyBlank(in.Name, in.Course, in.Email, in.Username, in.Password) {
		return domain.Student{}, ErrFieldsMissing
	}
	if err := auth.ValidatePassword(in.Password); err != nil {
		return domain.Student{}, err
	}
	if _, exists, err := a.store.GetStudentByUsername(in.Username); err != nil {
		return domain.Student{}, fmt.Errorf("check username: %w", err)
	} else if exists {
		return domain.Student{}, ErrDuplicateUsername
	}
	passwordHash, err := auth.HashPassword(in.Password)
	if err != nil {
		return domain.Student{}, fmt.Errorf("hash password: %w", err)
	}
	now := time.Now().UTC()
	student := domain.Student{
		ID:           util.NewID(),
		Name:         in.Name,
		Course:       in.Course,
		Email:        in.Email,
		Username:     in.Username,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := a.store.SaveStudent(student); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return domain.Student{}, ErrDuplicateUsername
		}
		return domain.Student{}, fmt.Errorf("save student: %w", err)
	}
	a.publish(ctx, "student", events.ActionCreated, student.ID)
	return student, nil
}

// GetStudent returns one student by id.
func (a *App) GetStudent(id string) (domain.Student, error) {
	student, ok, err := a.store.GetStudentByID(strings.TrimSpace(id))
	if err != nil {
		return domain.Student{}, fmt.Errorf("fetch student: %w", err)
	}
	if !ok {
		return domain.Student{}, ErrStudentNotFound
	}
	return student, nil
}

// ListStudents returns all students.
func (a *App) ListStudents() ([]domain.Student, error) {
	return a.store.ListStudents()
}

type UpdateStudentInput struct {
	Name     string
	Email    string
	Username string
	Password string // optional; empty keeps the current password
}

// UpdateStudent replaces a student's profile fields. A username change
// colliding with another student is a conflict.
func (a *App) UpdateStudent(ctx context.Context, id string, in UpdateStudentInput) (domain.Student, error) {
	if anyBlank(in.Name, in.Email, in.Username) {
		return domain.Student{}, ErrFieldsMissing
	}
	student, ok, err := a.store.GetStudentByID(strings.TrimSpace(id))
	if err != nil {
		return domain.Student{}, fmt.Errorf("fetch student: %w", err)
	}
	if !ok {
		return domain.Student{}, ErrStudentNotFound
	}
	if other, exists, err := a.store.GetStudentByUsername(in.Username); err != nil {
		return domain.Student{}, fmt.Errorf("check username: %w", err)
	} else if exists && other.ID != student.ID {
		return domain.Student{}, ErrDuplicateUsername
	}
	student.Name = in.Name
	student.Email = in.Email
	student.Username = in.Username
	if in.Password != "" {
		if err := auth.ValidatePassword(in.Password); err != nil {
			return domain.Student{}, err
		}
		passwordHash, err := auth.HashPassword(in.Password)
		if err != nil {
			return domain.Student{}, fmt.Errorf("hash password: %w", err)
		}
		student.PasswordHash = passwordHash
	}
	student.UpdatedAt = time.Now().UTC()
	if err := a.store.SaveStudent(student); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return domain.Student{}, ErrDuplicateUsername
		}
		return domain.Student{}, fmt.Errorf("save student: %w", err)
	}
	a.publish(ctx, "student", events.ActionUpdated, student.ID)
	return student, nil
}

// DeleteStudent removes a student without touching enrollment sets.
func (a *App) DeleteStudent(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	_, ok, err := a.store.GetStudentByID(id)
	if err != nil {
		return fmt.Errorf("fetch student: %w", err)
	}
	if !ok {
		return ErrStudentNotFound
	}
	if err := a.store.DeleteStudent(id); err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	a.publish(ctx, "student", events.ActionDeleted, id)
	return nil
}

type CreatePaperInput struct {
	Department string
	Semester   string
	Year       string
	Paper      string
	TeacherID  string
	Students   []string
}

// CreatePaper adds a course offering. The duplicate guard key is the
// (department, paper, students, teacher) tuple, matching arrays
// element-for-element in order.
func (a *App) CreatePaper(ctx context.Context, in CreatePaperInput) (domain.Paper, error) {
	if anyBlank(in.Department, in.Semester, in.Year, in.Paper, in.TeacherID) || len(in.Students) == 0 {
		return domain.Paper{}, ErrFieldsMissing
	}
	students := dedupeIDs(in.Students)
	if len(students) == 0 {
		return domain.Paper{}, ErrFieldsMissing
	}
	if _, exists, err := a.store.FindPaperByKey(in.Department, in.Paper, in.TeacherID, students); err != nil {
		return domain.Paper{}, fmt.Errorf("check paper: %w", err)
	} else if exists {
		return domain.Paper{}, ErrDuplicatePaper
	}
	now := time.Now().UTC()
	paper := domain.Paper{
		ID:         util.NewID(),
		Department: in.Department,
		Semester:   in.Semester,
		Year:       in.Year,
		Paper:      in.Paper,
		TeacherID:  in.TeacherID,
		Students:   students,
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := a.store.SavePaper(paper); err != nil {
		return domain.Paper{}, fmt.Errorf("save paper: %w", err)
	}
	a.publish(ctx, "paper", events.ActionCreated, paper.ID)
	return paper, nil
}

// DeletePaper removes a paper. Its notes keep a dangling paper id.
func (a *App) DeletePaper(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	_, ok, err := a.store.GetPaperByID(id)
	if err != nil {
		return fmt.Errorf("fetch paper: %w", err)
	}
	if !ok {
		return ErrPaperNotFound
	}
	if err := a.store.DeletePaper(id); err != nil {
		return fmt.Errorf("delete paper: %w", err)
	}
	a.publish(ctx, "paper", events.ActionDeleted, id)
	return nil
}

type CreateNoteInput struct {
	PaperID string
	Title   string
	Body    string
}

// CreateNote adds a note to a paper. The duplicate guard key is the full
// (paper, title, body) content.
func (a *App) CreateNote(ctx context.Context, in CreateNoteInput) (domain.Note, error) {
	if anyBlank(in.PaperID, in.Title, in.Body) {
		return domain.Note{}, ErrFieldsMissing
	}
	if _, exists, err := a.store.FindNoteByContent(in.PaperID, in.Title, in.Body); err != nil {
		return domain.Note{}, fmt.Errorf("check note: %w", err)
	} else if exists {
		return domain.Note{}, ErrDuplicateNote
	}
	now := time.Now().UTC()
	note := domain.Note{
		ID:        util.NewID(),
		PaperID:   in.PaperID,
		Title:     in.Title,
		Body:      in.Body,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := a.store.SaveNote(note); err != nil {
		return domain.Note{}, fmt.Errorf("save note: %w", err)
	}
	a.publish(ctx, "note", events.ActionCreated, note.ID)
	return note, nil
}

// GetNote returns one note by id.
func (a *App) GetNote(id string) (domain.Note, error) {
	note, ok, err := a.store.GetNoteByID(strings.TrimSpace(id))
	if err != nil {
		return domain.Note{}, fmt.Errorf("fetch note: %w", err)
	}
	if !ok {
		return domain.Note{}, ErrNoteNotFound
	}
	return note, nil
}

// NotesByPaper lists a paper's notes.
func (a *App) NotesByPaper(paperID string) ([]domain.Note, error) {
	return a.store.ListNotesByPaper(strings.TrimSpace(paperID))
}

// UpdateNote replaces a note's title and body.
func (a *App) UpdateNote(ctx context.Context, id, title, body string) (domain.Note, error) {
	if anyBlank(title, body) {
		return domain.Note{}, ErrFieldsMissing
	}
	note, ok, err := a.store.GetNoteByID(strings.TrimSpace(id))
	if err != nil {
		return domain.Note{}, fmt.Errorf("fetch note: %w", err)
	}
	if !ok {
		return domain.Note{}, ErrNoteNotFound
	}
	note.Title = title
	note.Body = body
	note.UpdatedAt = time.Now().UTC()
	if err := a.store.SaveNote(note); err != nil {
		return domain.Note{}, fmt.Errorf("save note: %w", err)
	}
	a.publish(ctx, "note", events.ActionUpdated, note.ID)
	return note, nil
}

// DeleteNote removes a note and its attachment object, if any.
func (a *App) DeleteNote(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	note, ok, err := a.store.GetNoteByID(id)
	if err != nil {
		return fmt.Errorf("fetch note: %w", err)
	}
	if !ok {
		return ErrNoteNotFound
	}
	if err := a.store.DeleteNote(id); err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	if note.AttachmentKey != "" && a.objects != nil {
		if err := a.objects.Delete(ctx, note.AttachmentKey); err != nil {
			util.LoggerFromContext(ctx).Warn("delete attachment failed", "note", id, "err", err)
		}
	}
	a.publish(ctx, "note", events.ActionDeleted, id)
	return nil
}

type CreateTimeScheduleInput struct {
	TeacherID string
	Schedule  json.RawMessage
}

// CreateTimeSchedule stores a teacher's schedule. At most one schedule
// may exist per teacher; the guard is backed by a unique index.
func (a *App) CreateTimeSchedule(ctx context.Context, in CreateTimeScheduleInput) (domain.TimeSchedule, error) {
	if strings.TrimSpace(in.TeacherID) == "" || len(in.Schedule) == 0 {
		return domain.TimeSchedule{}, ErrFieldsMissing
	}
	if _, exists, err := a.store.GetTimeScheduleByTeacher(in.TeacherID); err != nil {
		return domain.TimeSchedule{}, fmt.Errorf("check schedule: %w", err)
	} else if exists {
		return domain.TimeSchedule{}, ErrDuplicateSchedule
	}
	now := time.Now().UTC()
	schedule := domain.TimeSchedule{
		ID:        util.NewID(),
		TeacherID: in.TeacherID,
		Schedule:  in.Schedule,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := a.store.SaveTimeSchedule(schedule); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return domain.TimeSchedule{}, ErrDuplicateSchedule
		}
		return domain.TimeSchedule{}, fmt.Errorf("save schedule: %w", err)
	}
	a.publish(ctx, "time_schedule", events.ActionCreated, schedule.ID)
	return schedule, nil
}

// TimeScheduleByTeacher returns the schedule owned by a teacher.
func (a *App) TimeScheduleByTeacher(teacherID string) (domain.TimeSchedule, error) {
	schedule, ok, err := a.store.GetTimeScheduleByTeacher(strings.TrimSpace(teacherID))
	if err != nil {
		return domain.TimeSchedule{}, fmt.Errorf("fetch schedule: %w", err)
	}
	if !ok {
		return domain.TimeSchedule{}, ErrScheduleNotFound
	}
	return schedule, nil
}

// UpdateTimeSchedule replaces the schedule payload for a teacher.
func (a *App) UpdateTimeSchedule(ctx context.Context, teacherID string, payload json.RawMessage) (domain.TimeSchedule, error) {
	if strings.TrimSpace(teacherID) == "" || len(payload) == 0 {
		return domain.TimeSchedule{}, ErrFieldsMissing
	}
	schedule, ok, err := a.store.GetTimeScheduleByTeacher(teacherID)
	if err != nil {
		return domain.TimeSchedule{}, fmt.Errorf("fetch schedule: %w", err)
	}
	if !ok {
		return domain.TimeSchedule{}, ErrScheduleNotFound
	}
	schedule.Schedule = payload
	schedule.UpdatedAt = time.Now().UTC()
	if err := a.store.SaveTimeSchedule(schedule); err != nil {
		return domain.TimeSchedule{}, fmt.Errorf("save schedule: %w", err)
	}
	a.publish(ctx, "time_schedule", events.ActionUpdated, schedule.ID)
	return schedule, nil
}

// DeleteTimeSchedule removes a schedule by id.
func (a *App) DeleteTimeSchedule(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	_, ok, err := a.store.GetTimeScheduleByID(id)
	if err != nil {
		return fmt.Errorf("fetch schedule: %w", err)
	}
	if !ok {
		return ErrScheduleNotFound
	}
	if err := a.store.DeleteTimeSchedule(id); err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	a.publish(ctx, "time_schedule", events.ActionDeleted, id)
	return nil
}

func anyBlank(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return true
		}
	}
	return false
}
