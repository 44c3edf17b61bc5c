package store

import (
	"errors"
	"testing"

	"deptrecords/pkg/domain"
)

func TestMemoryStoreUsernameUniqueness(t *testing.T) {
	m := NewMemoryStore()

	if err := m.SaveTeacher(domain.Teacher{ID: "t1", Name: "Dr. A", Username: "dra"}); err != nil {
		t.Fatalf("save teacher: %v", err)
	}
	err := m.SaveTeacher(domain.Teacher{ID: "t2", Name: "Dr. B", Username: "dra"})
	if !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}

	// Re-saving the same record is an update, not a collision.
	if err := m.SaveTeacher(domain.Teacher{ID: "t1", Name: "Dr. A.", Username: "dra"}); err != nil {
		t.Fatalf("update teacher: %v", err)
	}
	got, ok, err := m.GetTeacherByUsername("dra")
	if err != nil || !ok || got.Name != "Dr. A." {
		t.Fatalf("unexpected teacher: %+v ok=%v err=%v", got, ok, err)
	}
}

func TestMemoryStorePendingTeachers(t *testing.T) {
	m := NewMemoryStore()
	seed := []domain.Teacher{
		{ID: "t1", Username: "a", Department: "CS"},
		{ID: "t2", Username: "b", Department: "CS", Roles: []string{"teacher"}},
		{ID: "t3", Username: "c", Department: "Math"},
	}
	for _, teacher := range seed {
		if err := m.SaveTeacher(teacher); err != nil {
			t.Fatalf("save teacher %s: %v", teacher.ID, err)
		}
	}

	pending, err := m.ListPendingTeachers("CS")
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != "t1" {
		t.Fatalf("expected [t1], got %+v", pending)
	}

	all, err := m.ListTeachersByDepartment("CS")
	if err != nil || len(all) != 2 {
		t.Fatalf("expected 2 CS teachers, got %+v %v", all, err)
	}
}

func TestMemoryStoreListOrder(t *testing.T) {
	m := NewMemoryStore()
	for _, id := range []string{"s3", "s1", "s2"} {
		if err := m.SaveStudent(domain.Student{ID: id, Username: "u-" + id}); err != nil {
			t.Fatalf("save student: %v", err)
		}
	}

	students, err := m.ListStudents()
	if err != nil {
		t.Fatalf("list students: %v", err)
	}
	if len(students) != 3 || students[0].ID != "s3" || students[1].ID != "s1" || students[2].ID != "s2" {
		t.Fatalf("insertion order not preserved: %+v", students)
	}
}

func TestMemoryStoreFindPaperByKey(t *testing.T) {
	m := NewMemoryStore()
	if err := m.SavePaper(domain.Paper{
		ID: "p1", Department: "CS", Paper: "Algorithms",
		TeacherID: "t1", Students: []string{"s1", "s2"}, Version: 1,
	}); err != nil {
		t.Fatalf("save paper: %v", err)
	}

	if _, ok, _ := m.FindPaperByKey("CS", "Algorithms", "t1", []string{"s1", "s2"}); !ok {
		t.Fatal("exact tuple should match")
	}
	// Element order is part of the key.
	if _, ok, _ := m.FindPaperByKey("CS", "Algorithms", "t1", []string{"s2", "s1"}); ok {
		t.Fatal("reordered students must not match")
	}
	if _, ok, _ := m.FindPaperByKey("CS", "Algorithms", "t2", []string{"s1", "s2"}); ok {
		t.Fatal("different teacher must not match")
	}
}

func TestMemoryStoreReplaceStudents(t *testing.T) {
	m := NewMemoryStore()
	if err := m.SavePaper(domain.Paper{ID: "p1", Paper: "Algorithms", TeacherID: "t1", Students: []string{"s1"}, Version: 1}); err != nil {
		t.Fatalf("save paper: %v", err)
	}

	updated, err := m.ReplaceStudents("p1", 1, []string{"s2", "s3"})
	if err != nil || !updated {
		t.Fatalf("replace students: updated=%v err=%v", updated, err)
	}
	paper, _, _ := m.GetPaperByID("p1")
	if paper.Version != 2 || len(paper.Students) != 2 {
		t.Fatalf("unexpected paper after replace: %+v", paper)
	}

	// Stale version leaves the paper untouched.
	updated, err = m.ReplaceStudents("p1", 1, []string{"s4"})
	if err != nil || updated {
		t.Fatalf("stale replace: updated=%v err=%v", updated, err)
	}

	updated, err = m.ReplaceStudents("p-none", 1, []string{"s4"})
	if err != nil || updated {
		t.Fatalf("missing paper replace: updated=%v err=%v", updated, err)
	}
}

func TestMemoryStoreFindNoteByContent(t *testing.T) {
	m := NewMemoryStore()
	if err := m.SaveNote(domain.Note{ID: "n1", PaperID: "p1", Title: "Week 1", Body: "Sorting."}); err != nil {
		t.Fatalf("save note: %v", err)
	}

	if _, ok, _ := m.FindNoteByContent("p1", "Week 1", "Sorting."); !ok {
		t.Fatal("exact content should match")
	}
	if _, ok, _ := m.FindNoteByContent("p1", "Week 1", "Sorting"); ok {
		t.Fatal("different body must not match")
	}
}

func TestMemoryStoreScheduleUniquePerTeacher(t *testing.T) {
	m := NewMemoryStore()
	if err := m.SaveTimeSchedule(domain.TimeSchedule{ID: "ts1", TeacherID: "t1"}); err != nil {
		t.Fatalf("save schedule: %v", err)
	}
	if err := m.SaveTimeSchedule(domain.TimeSchedule{ID: "ts2", TeacherID: "t1"}); !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}
	// Updating the existing schedule is allowed.
	if err := m.SaveTimeSchedule(domain.TimeSchedule{ID: "ts1", TeacherID: "t1"}); err != nil {
		t.Fatalf("update schedule: %v", err)
	}

	if err := m.DeleteTimeSchedule("ts1"); err != nil {
		t.Fatalf("delete schedule: %v", err)
	}
	if _, ok, _ := m.GetTimeScheduleByTeacher("t1"); ok {
		t.Fatal("schedule should be gone")
	}
}

func TestMemoryStoreDeleteIsIdempotentOnLists(t *testing.T) {
	m := NewMemoryStore()
	if err := m.SavePaper(domain.Paper{ID: "p1", TeacherID: "t1", Version: 1}); err != nil {
		t.Fatalf("save paper: %v", err)
	}
	if err := m.DeletePaper("p1"); err != nil {
		t.Fatalf("delete paper: %v", err)
	}
	papers, err := m.ListPapersByTeacher("t1")
	if err != nil || len(papers) != 0 {
		t.Fatalf("expected no papers, got %+v %v", papers, err)
	}
}
