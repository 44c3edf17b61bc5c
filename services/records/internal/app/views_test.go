package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"deptrecords/pkg/domain"
	"deptrecords/pkg/events"
	"deptrecords/pkg/storage"
	"deptrecords/pkg/store"
)

func newTestApp(t *testing.T) (*App, *store.MemoryStore, *events.MemoryPublisher, *storage.MemoryObjectStore) {
	t.Helper()
	mem := store.NewMemoryStore()
	sessions, err := store.NewJWTSessionStore("test-secret", time.Hour, nil, store.JWTOptions{})
	if err != nil {
		t.Fatalf("new session store: %v", err)
	}
	publisher := events.NewMemoryPublisher()
	objects := storage.NewMemoryObjectStore()
	a, err := New(Config{
		Store:    mem,
		Sessions: sessions,
		Events:   publisher,
		Objects:  objects,
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	return a, mem, publisher, objects
}

// seedDepartment loads one teacher, three students, and one paper with
// the first two students enrolled.
func seedDepartment(t *testing.T, mem *store.MemoryStore) {
	t.Helper()
	if err := mem.SaveTeacher(domain.Teacher{ID: "t1", Name: "Dr. A", Username: "dra", Department: "CS", Roles: []string{"teacher"}}); err != nil {
		t.Fatalf("seed teacher: %v", err)
	}
	for _, s := range []domain.Student{
		{ID: "s1", Name: "Alice", Username: "alice"},
		{ID: "s2", Name: "Bob", Username: "bob"},
		{ID: "s3", Name: "Cara", Username: "cara"},
	} {
		if err := mem.SaveStudent(s); err != nil {
			t.Fatalf("seed student %s: %v", s.ID, err)
		}
	}
	if err := mem.SavePaper(domain.Paper{
		ID: "p1", Department: "CS", Semester: "3", Year: "2026",
		Paper: "Algorithms", TeacherID: "t1", Students: []string{"s1", "s2"}, Version: 1,
	}); err != nil {
		t.Fatalf("seed paper: %v", err)
	}
}

func TestTeacherPapers(t *testing.T) {
	a, mem, _, _ := newTestApp(t)
	seedDepartment(t, mem)

	papers, err := a.TeacherPapers("t1")
	if err != nil {
		t.Fatalf("teacher papers: %v", err)
	}
	if len(papers) != 1 {
		t.Fatalf("expected 1 paper, got %d", len(papers))
	}
	if papers[0].Paper != "Algorithms" || papers[0].TeacherID != "t1" {
		t.Fatalf("unexpected row: %+v", papers[0])
	}
}

func TestTeacherPapersEmptyIsNotFound(t *testing.T) {
	a, mem, _, _ := newTestApp(t)
	seedDepartment(t, mem)

	if _, err := a.TeacherPapers("t-none"); !errors.Is(err, ErrNoPapers) {
		t.Fatalf("expected ErrNoPapers, got %v", err)
	}
}

func TestEnrolledPapers(t *testing.T) {
	a, mem, _, _ := newTestApp(t)
	seedDepartment(t, mem)

	papers, err := a.EnrolledPapers("s1")
	if err != nil {
		t.Fatalf("enrolled papers: %v", err)
	}
	if len(papers) != 1 {
		t.Fatalf("expected 1 paper, got %d", len(papers))
	}
	if papers[0].Paper != "Algorithms" || papers[0].Teacher.Name != "Dr. A" {
		t.Fatalf("unexpected row: %+v", papers[0])
	}
}

func TestEnrolledPapersNotEnrolled(t *testing.T) {
	a, mem, _, _ := newTestApp(t)
	seedDepartment(t, mem)

	papers, err := a.EnrolledPapers("s3")
	if err != nil {
		t.Fatalf("enrolled papers: %v", err)
	}
	if papers == nil || len(papers) != 0 {
		t.Fatalf("expected empty non-nil result, got %#v", papers)
	}
}

func TestEnrolledPapersDropsDanglingTeacher(t *testing.T) {
	a, mem, _, _ := newTestApp(t)
	seedDepartment(t, mem)
	if err := mem.SavePaper(domain.Paper{
		ID: "p2", Department: "CS", Semester: "3", Year: "2026",
		Paper: "Orphaned", TeacherID: "ghost", Students: []string{"s1"}, Version: 1,
	}); err != nil {
		t.Fatalf("seed paper: %v", err)
	}

	papers, err := a.EnrolledPapers("s1")
	if err != nil {
		t.Fatalf("enrolled papers: %v", err)
	}
	if len(papers) != 1 || papers[0].ID != "p1" {
		t.Fatalf("expected only p1, got %+v", papers)
	}
}

func TestAllPapersWithMembership(t *testing.T) {
	a, mem, _, _ := newTestApp(t)
	seedDepartment(t, mem)

	for _, tc := range []struct {
		student string
		joined  bool
	}{
		{"s1", true},
		{"s2", true},
		{"s3", false},
	} {
		rows, err := a.AllPapersWithMembership(tc.student)
		if err != nil {
			t.Fatalf("all papers for %s: %v", tc.student, err)
		}
		if len(rows) != 1 {
			t.Fatalf("expected 1 row for %s, got %d", tc.student, len(rows))
		}
		if rows[0].Joined != tc.joined {
			t.Fatalf("student %s joined = %v, want %v", tc.student, rows[0].Joined, tc.joined)
		}
		if rows[0].Teacher.Name != "Dr. A" {
			t.Fatalf("unexpected teacher join: %+v", rows[0])
		}
		if len(rows[0].Students) != 2 {
			t.Fatalf("expected full enrollment set, got %v", rows[0].Students)
		}
	}
}

func TestRosterPreservesOrder(t *testing.T) {
	a, mem, _, _ := newTestApp(t)
	seedDepartment(t, mem)
	if err := mem.SavePaper(domain.Paper{
		ID: "p2", Department: "CS", Semester: "4", Year: "2026",
		Paper: "Databases", TeacherID: "t1", Students: []string{"s3", "s1"}, Version: 1,
	}); err != nil {
		t.Fatalf("seed paper: %v", err)
	}

	roster, err := a.Roster("p2")
	if err != nil {
		t.Fatalf("roster: %v", err)
	}
	if len(roster) != 2 || roster[0].Name != "Cara" || roster[1].Name != "Alice" {
		t.Fatalf("expected [Cara Alice], got %+v", roster)
	}
}

func TestRosterMissingPaper(t *testing.T) {
	a, mem, _, _ := newTestApp(t)
	seedDepartment(t, mem)

	if _, err := a.Roster("p-none"); !errors.Is(err, ErrPaperNotFound) {
		t.Fatalf("expected ErrPaperNotFound, got %v", err)
	}
}

func TestRosterEmptyEnrollment(t *testing.T) {
	a, mem, _, _ := newTestApp(t)
	if err := mem.SaveTeacher(domain.Teacher{ID: "t1", Name: "Dr. A", Username: "dra", Department: "CS"}); err != nil {
		t.Fatalf("seed teacher: %v", err)
	}
	if err := mem.SavePaper(domain.Paper{
		ID: "p1", Department: "CS", Semester: "3", Year: "2026",
		Paper: "Algorithms", TeacherID: "t1", Version: 1,
	}); err != nil {
		t.Fatalf("seed paper: %v", err)
	}

	if _, err := a.Roster("p1"); !errors.Is(err, ErrEmptyRoster) {
		t.Fatalf("expected ErrEmptyRoster, got %v", err)
	}
}

func TestRosterDropsDanglingStudent(t *testing.T) {
	a, mem, _, _ := newTestApp(t)
	seedDepartment(t, mem)
	if err := mem.DeleteStudent("s1"); err != nil {
		t.Fatalf("delete student: %v", err)
	}

	roster, err := a.Roster("p1")
	if err != nil {
		t.Fatalf("roster: %v", err)
	}
	if len(roster) != 1 || roster[0].ID != "s2" {
		t.Fatalf("expected only s2, got %+v", roster)
	}
}

func TestPaperDetail(t *testing.T) {
	a, mem, _, _ := newTestApp(t)
	seedDepartment(t, mem)

	detail, err := a.PaperDetail(context.Background(), "p1")
	if err != nil {
		t.Fatalf("paper detail: %v", err)
	}
	if detail.Teacher.Name != "Dr. A" {
		t.Fatalf("unexpected teacher: %+v", detail.Teacher)
	}
	if len(detail.Students) != 2 || detail.Students[0].Name != "Alice" || detail.Students[1].Name != "Bob" {
		t.Fatalf("unexpected students: %+v", detail.Students)
	}
}

func TestPaperDetailMissingPaper(t *testing.T) {
	a, mem, _, _ := newTestApp(t)
	seedDepartment(t, mem)

	if _, err := a.PaperDetail(context.Background(), "p-none"); !errors.Is(err, ErrPaperNotFound) {
		t.Fatalf("expected ErrPaperNotFound, got %v", err)
	}
}

func TestViewsRejectBlankID(t *testing.T) {
	a, _, _, _ := newTestApp(t)

	if _, err := a.TeacherPapers(" "); !errors.Is(err, ErrIDMissing) {
		t.Fatalf("teacher papers: expected ErrIDMissing, got %v", err)
	}
	if _, err := a.EnrolledPapers(""); !errors.Is(err, ErrIDMissing) {
		t.Fatalf("enrolled papers: expected ErrIDMissing, got %v", err)
	}
	if _, err := a.Roster(""); !errors.Is(err, ErrIDMissing) {
		t.Fatalf("roster: expected ErrIDMissing, got %v", err)
	}
}
