package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"deptrecords/pkg/domain"
)

const migrateLockID int64 = 52175217

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations. Unique indexes on
// teacher/student usernames and on time_schedules.teacher_id back the
// application-level duplicate guard with a real constraint.
func NewGormStore(dsn string) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormLog,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := withMigrationLock(db, func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(
			&TeacherModel{},
			&StudentModel{},
			&PaperModel{},
			&NoteModel{},
			&TimeScheduleModel{},
		); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

func withMigrationLock(db *gorm.DB, fn func(*gorm.DB) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("open sql conn: %w", err)
	}
	defer conn.Close()
	if err := execAdvisory(ctx, conn, "SELECT pg_advisory_lock($1)", migrateLockID); err != nil {
		return fmt.Errorf("acquire migrate lock: %w", err)
	}
	defer func() {
		_ = execAdvisory(ctx, conn, "SELECT pg_advisory_unlock($1)", migrateLockID)
	}()
	return fn(db)
}

func execAdvisory(ctx context.Context, conn *sql.Conn, query string, lockID int64) error {
	_, err := conn.ExecContext(ctx, query, lockID)
	return err
}

func translateErr(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateKey
	}
	return err
}

// SaveTeacher inserts or updates a teacher.
func (s *GormStore) SaveTeacher(t domain.Teacher) error {
	model := teacherToModel(t)
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "email", "username", "password_hash", "department", "qualification", "roles", "updated_at"}),
	}).Create(&model).Error
	return translateErr(err)
}

// GetTeacherByID returns a teacher by id.
func (s *GormStore) GetTeacherByID(id string) (domain.Teacher, bool, error) {
	var model TeacherModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Teacher{}, false, nil
		}
		return domain.Teacher{}, false, err
	}
	return teacherFromModel(model), true, nil
}

// GetTeacherByUsername looks up a teacher by username.
func (s *GormStore) GetTeacherByUsername(username string) (domain.Teacher, bool, error) {
	var model TeacherModel
	if err := s.db.First(&model, "username = ?", username).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Teacher{}, false, nil
		}
		return domain.Teacher{}, false, err
	}
	return teacherFromModel(model), true, nil
}

// ListTeachersByDepartment returns a department's teachers in creation order.
func (s *GormStore) ListTeachersByDepartment(department string) ([]domain.Teacher, error) {
	var models []TeacherModel
	if err := s.db.Where("department = ?", department).Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Teacher, 0, len(models))
	for _, m := range models {
		res = append(res, teacherFromModel(m))
	}
	return res, nil
}

// ListPendingTeachers returns teachers of a department with no roles yet.
func (s *GormStore) ListPendingTeachers(department string) ([]domain.Teacher, error) {
	var models []TeacherModel
	// A nil slice serializes to the jsonb null literal, so cover SQL NULL,
	// jsonb null, and the empty array.
	err := s.db.
		Where("department = ?", department).
		Where("roles IS NULL OR roles = 'null'::jsonb OR roles = '[]'::jsonb").
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	res := make([]domain.Teacher, 0, len(models))
	for _, m := range models {
		res = append(res, teacherFromModel(m))
	}
	return res, nil
}

// DeleteTeacher removes a teacher. References from papers are left behind.
func (s *GormStore) DeleteTeacher(id string) error {
	return s.db.Delete(&TeacherModel{}, "id = ?", id).Error
}

// SaveStudent inserts or updates a student.
func (s *GormStore) SaveStudent(st domain.Student) error {
	model := studentToModel(st)
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "course", "email", "username", "password_hash", "updated_at"}),
	}).Create(&model).Error
	return translateErr(err)
}

// GetStudentByID returns a student by id.
func (s *GormStore) GetStudentByID(id string) (domain.Student, bool, error) {
	var model StudentModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Student{}, false, nil
		}
		return domain.Student{}, false, err
	}
	return studentFromModel(model), true, nil
}

// GetStudentByUsername looks up a student by username.
func (s *GormStore) GetStudentByUsername(username string) (domain.Student, bool, error) {
	var model StudentModel
	if err := s.db.First(&model, "username = ?", username).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Student{}, false, nil
		}
		return domain.Student{}, false, err
	}
	return studentFromModel(model), true, nil
}

// ListStudents returns all students in creation order.
func (s *GormStore) ListStudents() ([]domain.Student, error) {
	var models []StudentModel
	if err := s.db.Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Student, 0, len(models))
	for _, m := range models {
		res = append(res, studentFromModel(m))
	}
	return res, nil
}

// DeleteStudent removes a student. Enrollment sets are not touched.
func (s *GormStore) DeleteStudent(id string) error {
	return s.db.Delete(&StudentModel{}, "id = ?", id).Error
}

// SavePaper inserts or updates a paper.
func (s *GormStore) SavePaper(p domain.Paper) error {
	model := paperToModel(p)
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"department", "semester", "year", "paper", "teacher_id", "students", "updated_at"}),
	}).Create(&model).Error
	return translateErr(err)
}

// GetPaperByID retrieves a paper.
func (s *GormStore) GetPaperByID(id string) (domain.Paper, bool, error) {
	var model PaperModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Paper{}, false, nil
		}
		return domain.Paper{}, false, err
	}
	return paperFromModel(model), true, nil
}

// ListPapers returns all papers in creation order.
func (s *GormStore) ListPapers() ([]domain.Paper, error) {
	return s.listPapers()
}

// ListPapersByTeacher returns papers taught by one teacher.
func (s *GormStore) ListPapersByTeacher(teacherID string) ([]domain.Paper, error) {
	return s.listPapers("teacher_id = ?", teacherID)
}

func (s *GormStore) listPapers(conds ...any) ([]domain.Paper, error) {
	var models []PaperModel
	tx := s.db.Order("created_at ASC")
	if len(conds) > 0 {
		tx = tx.Where(conds[0], conds[1:]...)
	}
	if err := tx.Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Paper, 0, len(models))
	for _, m := range models {
		res = append(res, paperFromModel(m))
	}
	return res, nil
}

// FindPaperByKey performs the exact-match duplicate lookup on the paper
// uniqueness tuple. The students comparison is order-sensitive, matching
// the embedded-array semantics of the enrollment set.
func (s *GormStore) FindPaperByKey(department, paper, teacherID string, studentIDs []string) (domain.Paper, bool, error) {
	var model PaperModel
	err := s.db.
		Where("department = ? AND paper = ? AND teacher_id = ?", department, paper, teacherID).
		Where("students = ?", datatypes.JSONSlice[string](studentIDs)).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Paper{}, false, nil
		}
		return domain.Paper{}, false, err
	}
	return paperFromModel(model), true, nil
}

// ReplaceStudents overwrites the enrollment set guarded by the version
// counter. A zero row count means the paper is gone or the version is
// stale; the caller decides which by re-reading.
func (s *GormStore) ReplaceStudents(paperID string, version int64, studentIDs []string) (bool, error) {
	res := s.db.Model(&PaperModel{}).
		Where("id = ? AND version = ?", paperID, version).
		Updates(map[string]any{
			"students":   datatypes.JSONSlice[string](studentIDs),
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DeletePaper removes a paper. Notes pointing at it are left behind.
func (s *GormStore) DeletePaper(id string) error {
	return s.db.Delete(&PaperModel{}, "id = ?", id).Error
}

// SaveNote inserts or updates a note.
func (s *GormStore) SaveNote(n domain.Note) error {
	model := noteToModel(n)
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "body", "attachment_key", "updated_at"}),
	}).Create(&model).Error
	return translateErr(err)
}

// GetNoteByID returns a note by id.
func (s *GormStore) GetNoteByID(id string) (domain.Note, bool, error) {
	var model NoteModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Note{}, false, nil
		}
		return domain.Note{}, false, err
	}
	return noteFromModel(model), true, nil
}

// ListNotesByPaper returns a paper's notes in creation order.
func (s *GormStore) ListNotesByPaper(paperID string) ([]domain.Note, error) {
	var models []NoteModel
	if err := s.db.Where("paper_id = ?", paperID).Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Note, 0, len(models))
	for _, m := range models {
		res = append(res, noteFromModel(m))
	}
	return res, nil
}

// FindNoteByContent performs the duplicate lookup on (paper, title, body).
func (s *GormStore) FindNoteByContent(paperID, title, body string) (domain.Note, bool, error) {
	var model NoteModel
	err := s.db.Where("paper_id = ? AND title = ? AND body = ?", paperID, title, body).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Note{}, false, nil
		}
		return domain.Note{}, false, err
	}
	return noteFromModel(model), true, nil
}

// DeleteNote removes a note.
func (s *GormStore) DeleteNote(id string) error {
	return s.db.Delete(&NoteModel{}, "id = ?", id).Error
}

// SaveTimeSchedule inserts or updates a schedule. The unique index on
// teacher_id rejects a second schedule for the same teacher.
func (s *GormStore) SaveTimeSchedule(ts domain.TimeSchedule) error {
	model := timeScheduleToModel(ts)
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"schedule", "updated_at"}),
	}).Create(&model).Error
	return translateErr(err)
}

// GetTimeScheduleByID returns a schedule by id.
func (s *GormStore) GetTimeScheduleByID(id string) (domain.TimeSchedule, bool, error) {
	var model TimeScheduleModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.TimeSchedule{}, false, nil
		}
		return domain.TimeSchedule{}, false, err
	}
	return timeScheduleFromModel(model), true, nil
}

// GetTimeScheduleByTeacher returns the schedule owned by a teacher.
func (s *GormStore) GetTimeScheduleByTeacher(teacherID string) (domain.TimeSchedule, bool, error) {
	var model TimeScheduleModel
	if err := s.db.First(&model, "teacher_id = ?", teacherID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.TimeSchedule{}, false, nil
		}
		return domain.TimeSchedule{}, false, err
	}
	return timeScheduleFromModel(model), true, nil
}

// DeleteTimeSchedule removes a schedule.
func (s *GormStore) DeleteTimeSchedule(id string) error {
	return s.db.Delete(&TimeScheduleModel{}, "id = ?", id).Error
}

func teacherToModel(t domain.Teacher) TeacherModel {
	return TeacherModel{
		ID:            t.ID,
		Name:          t.Name,
		Email:         t.Email,
		Username:      t.Username,
		PasswordHash:  t.PasswordHash,
		Department:    t.Department,
		Qualification: t.Qualification,
		Roles:         datatypes.JSONSlice[string](t.Roles),
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

func teacherFromModel(m TeacherModel) domain.Teacher {
	return domain.Teacher{
		ID:            m.ID,
		Name:          m.Name,
		Email:         m.Email,
		Username:      m.Username,
		PasswordHash:  m.PasswordHash,
		Department:    m.Department,
		Qualification: m.Qualification,
		Roles:         []string(m.Roles),
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func studentToModel(st domain.Student) StudentModel {
	return StudentModel{
		ID:           st.ID,
		Name:         st.Name,
		Course:       st.Course,
		Email:        st.Email,
		Username:     st.Username,
		PasswordHash: st.PasswordHash,
		CreatedAt:    st.CreatedAt,
		UpdatedAt:    st.UpdatedAt,
	}
}

func studentFromModel(m StudentModel) domain.Student {
	return domain.Student{
		ID:           m.ID,
		Name:         m.Name,
		Course:       m.Course,
		Email:        m.Email,
		Username:     m.Username,
		PasswordHash: m.PasswordHash,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func paperToModel(p domain.Paper) PaperModel {
	version := p.Version
	if version <= 0 {
		version = 1
	}
	return PaperModel{
		ID:         p.ID,
		Department: p.Department,
		Semester:   p.Semester,
		Year:       p.Year,
		Paper:      p.Paper,
		TeacherID:  p.TeacherID,
		Students:   datatypes.JSONSlice[string](p.Students),
		Version:    version,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

func paperFromModel(m PaperModel) domain.Paper {
	return domain.Paper{
		ID:         m.ID,
		Department: m.Department,
		Semester:   m.Semester,
		Year:       m.Year,
		Paper:      m.Paper,
		TeacherID:  m.TeacherID,
		Students:   []string(m.Students),
		Version:    m.Version,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func noteToModel(n domain.Note) NoteModel {
	return NoteModel{
		ID:            n.ID,
		PaperID:       n.PaperID,
		Title:         n.Title,
		Body:          n.Body,
		AttachmentKey: n.AttachmentKey,
		CreatedAt:     n.CreatedAt,
		UpdatedAt:     n.UpdatedAt,
	}
}

func noteFromModel(m NoteModel) domain.Note {
	return domain.Note{
		ID:            m.ID,
		PaperID:       m.PaperID,
		Title:         m.Title,
		Body:          m.Body,
		AttachmentKey: m.AttachmentKey,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func timeScheduleToModel(ts domain.TimeSchedule) TimeScheduleModel {
	return TimeScheduleModel{
		ID:        ts.ID,
		TeacherID: ts.TeacherID,
		Schedule:  datatypes.JSON(ts.Schedule),
		CreatedAt: ts.CreatedAt,
		UpdatedAt: ts.UpdatedAt,
	}
}

func timeScheduleFromModel(m TimeScheduleModel) domain.TimeSchedule {
	return domain.TimeSchedule{
		ID:        m.ID,
		TeacherID: m.TeacherID,
		Schedule:  json.RawMessage(m.Schedule),
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
