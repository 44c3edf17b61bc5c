package store

import (
	"sync"
	"time"

	"deptrecords/pkg/domain"
)

// MemoryStore keeps all records in-process. It mirrors the GormStore
// contract, including insertion order, username uniqueness, and the
// version check on ReplaceStudents, so tests exercise the same behavior
// the database enforces.
type MemoryStore struct {
	mu sync.RWMutex

	teachers     map[string]domain.Teacher
	teacherOrder []string

	students     map[string]domain.Student
	studentOrder []string

	papers     map[string]domain.Paper
	paperOrder []string

	notes     map[string]domain.Note
	noteOrder []string

	schedules     map[string]domain.TimeSchedule
	scheduleOrder []string
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		teachers:  make(map[string]domain.Teacher),
		students:  make(map[string]domain.Student),
		papers:    make(map[string]domain.Paper),
		notes:     make(map[string]domain.Note),
		schedules: make(map[string]domain.TimeSchedule),
	}
}

// SaveTeacher stores or replaces a teacher, rejecting username collisions.
func (m *MemoryStore) SaveTeacher(t domain.Teacher) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.teachers {
		if other.Username == t.Username && other.ID != t.ID {
			return ErrDuplicateKey
		}
	}
	if _, exists := m.teachers[t.ID]; !exists {
		m.teacherOrder = append(m.teacherOrder, t.ID)
	}
	m.teachers[t.ID] = t
	return nil
}

func (m *MemoryStore) GetTeacherByID(id string) (domain.Teacher, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.teachers[id]
	return t, ok, nil
}

func (m *MemoryStore) GetTeacherByUsername(username string) (domain.Teacher, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, id := range m.teacherOrder {
		if t, ok := m.teachers[id]; ok && t.Username == username {
			return t, true, nil
		}
	}
	return domain.Teacher{}, false, nil
}

func (m *MemoryStore) ListTeachersByDepartment(department string) ([]domain.Teacher, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Teacher, 0, len(m.teacherOrder))
	for _, id := range m.teacherOrder {
		if t, ok := m.teachers[id]; ok && t.Department == department {
			res = append(res, t)
		}
	}
	return res, nil
}

func (m *MemoryStore) ListPendingTeachers(department string) ([]domain.Teacher, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Teacher, 0)
	for _, id := range m.teacherOrder {
		if t, ok := m.teachers[id]; ok && t.Department == department && len(t.Roles) == 0 {
			res = append(res, t)
		}
	}
	return res, nil
}

func (m *MemoryStore) DeleteTeacher(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.teachers, id)
	m.teacherOrder = removeID(m.teacherOrder, id)
	return nil
}

// SaveStudent stores or replaces a student, rejecting username collisions.
func (m *MemoryStore) SaveStudent(st domain.Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.students {
		if other.Username == st.Username && other.ID != st.ID {
			return ErrDuplicateKey
		}
	}
	if _, exists := m.students[st.ID]; !exists {
		m.studentOrder = append(m.studentOrder, st.ID)
	}
	m.students[st.ID] = st
	return nil
}

func (m *MemoryStore) GetStudentByID(id string) (domain.Student, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.students[id]
	return st, ok, nil
}

func (m *MemoryStore) GetStudentByUsername(username string) (domain.Student, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, id := range m.studentOrder {
		if st, ok := m.students[id]; ok && st.Username == username {
			return st, true, nil
		}
	}
	return domain.Student{}, false, nil
}

func (m *MemoryStore) ListStudents() ([]domain.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Student, 0, len(m.studentOrder))
	for _, id := range m.studentOrder {
		if st, ok := m.students[id]; ok {
			res = append(res, st)
		}
	}
	return res, nil
}

func (m *MemoryStore) DeleteStudent(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.students, id)
	m.studentOrder = removeID(m.studentOrder, id)
	return nil
}

// SavePaper stores or replaces a paper, normalizing a zero version to 1.
func (m *MemoryStore) SavePaper(p domain.Paper) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.Version <= 0 {
		p.Version = 1
	}
	if _, exists := m.papers[p.ID]; !exists {
		m.paperOrder = append(m.paperOrder, p.ID)
	}
	m.papers[p.ID] = p
	return nil
}

func (m *MemoryStore) GetPaperByID(id string) (domain.Paper, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.papers[id]
	return p, ok, nil
}

func (m *MemoryStore) ListPapers() ([]domain.Paper, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Paper, 0, len(m.paperOrder))
	for _, id := range m.paperOrder {
		if p, ok := m.papers[id]; ok {
			res = append(res, p)
		}
	}
	return res, nil
}

func (m *MemoryStore) ListPapersByTeacher(teacherID string) ([]domain.Paper, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Paper, 0)
	for _, id := range m.paperOrder {
		if p, ok := m.papers[id]; ok && p.TeacherID == teacherID {
			res = append(res, p)
		}
	}
	return res, nil
}

func (m *MemoryStore) FindPaperByKey(department, paper, teacherID string, studentIDs []string) (domain.Paper, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, id := range m.paperOrder {
		p, ok := m.papers[id]
		if !ok {
			continue
		}
		if p.Department == department && p.Paper == paper && p.TeacherID == teacherID && equalIDs(p.Students, studentIDs) {
			return p, true, nil
		}
	}
	return domain.Paper{}, false, nil
}

func (m *MemoryStore) ReplaceStudents(paperID string, version int64, studentIDs []string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.papers[paperID]
	if !ok || p.Version != version {
		return false, nil
	}
	p.Students = append([]string(nil), studentIDs...)
	p.Version++
	p.UpdatedAt = time.Now().UTC()
	m.papers[paperID] = p
	return true, nil
}

func (m *MemoryStore) DeletePaper(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.papers, id)
	m.paperOrder = removeID(m.paperOrder, id)
	return nil
}

func (m *MemoryStore) SaveNote(n domain.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.notes[n.ID]; !exists {
		m.noteOrder = append(m.noteOrder, n.ID)
	}
	m.notes[n.ID] = n
	return nil
}

func (m *MemoryStore) GetNoteByID(id string) (domain.Note, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.notes[id]
	return n, ok, nil
}

func (m *MemoryStore) ListNotesByPaper(paperID string) ([]domain.Note, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Note, 0)
	for _, id := range m.noteOrder {
		if n, ok := m.notes[id]; ok && n.PaperID == paperID {
			res = append(res, n)
		}
	}
	return res, nil
}

func (m *MemoryStore) FindNoteByContent(paperID, title, body string) (domain.Note, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, id := range m.noteOrder {
		n, ok := m.notes[id]
		if !ok {
			continue
		}
		if n.PaperID == paperID && n.Title == title && n.Body == body {
			return n, true, nil
		}
	}
	return domain.Note{}, false, nil
}

func (m *MemoryStore) DeleteNote(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.notes, id)
	m.noteOrder = removeID(m.noteOrder, id)
	return nil
}

// SaveTimeSchedule stores a schedule, rejecting a second one for the
// same teacher.
func (m *MemoryStore) SaveTimeSchedule(ts domain.TimeSchedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.schedules {
		if other.TeacherID == ts.TeacherID && other.ID != ts.ID {
			return ErrDuplicateKey
		}
	}
	if _, exists := m.schedules[ts.ID]; !exists {
		m.scheduleOrder = append(m.scheduleOrder, ts.ID)
	}
	m.schedules[ts.ID] = ts
	return nil
}

func (m *MemoryStore) GetTimeScheduleByID(id string) (domain.TimeSchedule, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ts, ok := m.schedules[id]
	return ts, ok, nil
}

func (m *MemoryStore) GetTimeScheduleByTeacher(teacherID string) (domain.TimeSchedule, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, id := range m.scheduleOrder {
		if ts, ok := m.schedules[id]; ok && ts.TeacherID == teacherID {
			return ts, true, nil
		}
	}
	return domain.TimeSchedule{}, false, nil
}

func (m *MemoryStore) DeleteTimeSchedule(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.schedules, id)
	m.scheduleOrder = removeID(m.scheduleOrder, id)
	return nil
}

func removeID(ids []string, id string) []string {
	filtered := ids[:0]
	for _, item := range ids {
		if item != id {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
