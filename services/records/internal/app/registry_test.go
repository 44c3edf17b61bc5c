package app

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"deptrecords/pkg/auth"
)

func validTeacherInput() CreateTeacherInput {
	return CreateTeacherInput{
		Name:          "Dr. A",
		Email:         "dra@college.edu",
		Username:      "dra",
		Password:      "correct horse",
		Department:    "CS",
		Qualification: "PhD",
	}
}

func TestCreateTeacher(t *testing.T) {
	a, _, _, _ := newTestApp(t)
	ctx := context.Background()

	teacher, err := a.CreateTeacher(ctx, validTeacherInput())
	if err != nil {
		t.Fatalf("create teacher: %v", err)
	}
	if teacher.ID == "" {
		t.Fatal("expected generated id")
	}
	if teacher.PasswordHash == "" || teacher.PasswordHash == "correct horse" {
		t.Fatal("password must be stored hashed")
	}

	got, err := a.GetTeacher(teacher.ID)
	if err != nil {
		t.Fatalf("get teacher: %v", err)
	}
	if got.Username != "dra" {
		t.Fatalf("unexpected teacher: %+v", got)
	}
}

func TestCreateTeacherDuplicateUsername(t *testing.T) {
	a, _, _, _ := newTestApp(t)
	ctx := context.Background()

	if _, err := a.CreateTeacher(ctx, validTeacherInput()); err != nil {
		t.Fatalf("create teacher: %v", err)
	}
	in := validTeacherInput()
	in.Name = "Dr. B"
	if _, err := a.CreateTeacher(ctx, in); !errors.Is(err, ErrDuplicateUsername) {
		t.Fatalf("expected ErrDuplicateUsername, got %v", err)
	}
}

func TestCreateTeacherValidation(t *testing.T) {
	a, _, _, _ := newTestApp(t)
	ctx := context.Background()

	in := validTeacherInput()
	in.Department = " "
	if _, err := a.CreateTeacher(ctx, in); !errors.Is(err, ErrFieldsMissing) {
		t.Fatalf("expected ErrFieldsMissing, got %v", err)
	}

	in = validTeacherInput()
	in.Password = "short"
	if _, err := a.CreateTeacher(ctx, in); !errors.Is(err, auth.ErrPasswordTooShort) {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}
}

func TestApproveTeacher(t *testing.T) {
	a, _, _, _ := newTestApp(t)
	ctx := context.Background()

	created, err := a.CreateTeacher(ctx, validTeacherInput())
	if err != nil {
		t.Fatalf("create teacher: %v", err)
	}
	pending, err := a.PendingTeachers("CS")
	if err != nil || len(pending) != 1 {
		t.Fatalf("expected 1 pending teacher, got %v %v", pending, err)
	}

	approved, err := a.ApproveTeacher(ctx, created.ID, []string{"teacher"})
	if err != nil {
		t.Fatalf("approve teacher: %v", err)
	}
	if len(approved.Roles) != 1 || approved.Roles[0] != "teacher" {
		t.Fatalf("unexpected roles: %v", approved.Roles)
	}
	pending, err = a.PendingTeachers("CS")
	if err != nil || len(pending) != 0 {
		t.Fatalf("expected no pending teachers, got %v %v", pending, err)
	}
}

func TestCreateStudentDuplicateUsername(t *testing.T) {
	a, _, _, _ := newTestApp(t)
	ctx := context.Background()

	in := CreateStudentInput{Name: "Alice", Course: "BSc CS", Email: "alice@college.edu", Username: "alice", Password: "long enough"}
	if _, err := a.CreateStudent(ctx, in); err != nil {
		t.Fatalf("create student: %v", err)
	}
	in.Name = "Other Alice"
	if _, err := a.CreateStudent(ctx, in); !errors.Is(err, ErrDuplicateUsername) {
		t.Fatalf("expected ErrDuplicateUsername, got %v", err)
	}
}

func TestUpdateStudentUsernameCollision(t *testing.T) {
	a, _, _, _ := newTestApp(t)
	ctx := context.Background()

	alice, err := a.CreateStudent(ctx, CreateStudentInput{Name: "Alice", Course: "BSc CS", Email: "alice@college.edu", Username: "alice", Password: "long enough"})
	if err != nil {
		t.Fatalf("create alice: %v", err)
	}
	if _, err := a.CreateStudent(ctx, CreateStudentInput{Name: "Bob", Course: "BSc CS", Email: "bob@college.edu", Username: "bob", Password: "long enough"}); err != nil {
		t.Fatalf("create bob: %v", err)
	}

	// Renaming to a taken username conflicts.
	if _, err := a.UpdateStudent(ctx, alice.ID, UpdateStudentInput{Name: "Alice", Email: "alice@college.edu", Username: "bob"}); !errors.Is(err, ErrDuplicateUsername) {
		t.Fatalf("expected ErrDuplicateUsername, got %v", err)
	}

	// Keeping your own username is fine.
	updated, err := a.UpdateStudent(ctx, alice.ID, UpdateStudentInput{Name: "Alice B.", Email: "alice@college.edu", Username: "alice"})
	if err != nil {
		t.Fatalf("update student: %v", err)
	}
	if updated.Name != "Alice B." {
		t.Fatalf("unexpected student: %+v", updated)
	}
}

func TestCreatePaperDuplicateTuple(t *testing.T) {
	a, mem, _, _ := newTestApp(t)
	seedDepartment(t, mem)
	ctx := context.Background()

	in := CreatePaperInput{Department: "CS", Semester: "3", Year: "2026", Paper: "Algorithms", TeacherID: "t1", Students: []string{"s1", "s2"}}
	if _, err := a.CreatePaper(ctx, in); !errors.Is(err, ErrDuplicatePaper) {
		t.Fatalf("expected ErrDuplicatePaper, got %v", err)
	}

	// A different enrollment set is a different offering.
	in.Students = []string{"s3"}
	if _, err := a.CreatePaper(ctx, in); err != nil {
		t.Fatalf("create paper: %v", err)
	}
}

func TestCreateNoteDuplicateContent(t *testing.T) {
	a, mem, _, _ := newTestApp(t)
	seedDepartment(t, mem)
	ctx := context.Background()

	in := CreateNoteInput{PaperID: "p1", Title: "Week 1", Body: "Sorting."}
	if _, err := a.CreateNote(ctx, in); err != nil {
		t.Fatalf("create note: %v", err)
	}
	if _, err := a.CreateNote(ctx, in); !errors.Is(err, ErrDuplicateNote) {
		t.Fatalf("expected ErrDuplicateNote, got %v", err)
	}

	in.Body = "Sorting and searching."
	if _, err := a.CreateNote(ctx, in); err != nil {
		t.Fatalf("create note with new body: %v", err)
	}

	notes, err := a.NotesByPaper("p1")
	if err != nil || len(notes) != 2 {
		t.Fatalf("expected 2 notes, got %v %v", notes, err)
	}
}

func TestTimeScheduleOnePerTeacher(t *testing.T) {
	a, mem, _, _ := newTestApp(t)
	seedDepartment(t, mem)
	ctx := context.Background()

	payload := json.RawMessage(`{"monday":["Algorithms"]}`)
	created, err := a.CreateTimeSchedule(ctx, CreateTimeScheduleInput{TeacherID: "t1", Schedule: payload})
	if err != nil {
		t.Fatalf("create schedule: %v", err)
	}
	if _, err := a.CreateTimeSchedule(ctx, CreateTimeScheduleInput{TeacherID: "t1", Schedule: payload}); !errors.Is(err, ErrDuplicateSchedule) {
		t.Fatalf("expected ErrDuplicateSchedule, got %v", err)
	}

	updatedPayload := json.RawMessage(`{"monday":["Databases"]}`)
	updated, err := a.UpdateTimeSchedule(ctx, "t1", updatedPayload)
	if err != nil {
		t.Fatalf("update schedule: %v", err)
	}
	if updated.ID != created.ID {
		t.Fatalf("update must keep the same schedule, got %s want %s", updated.ID, created.ID)
	}

	if err := a.DeleteTimeSchedule(ctx, created.ID); err != nil {
		t.Fatalf("delete schedule: %v", err)
	}
	if _, err := a.TimeScheduleByTeacher("t1"); !errors.Is(err, ErrScheduleNotFound) {
		t.Fatalf("expected ErrScheduleNotFound, got %v", err)
	}
}

func TestDeleteTeacherLeavesDanglingReference(t *testing.T) {
	a, mem, _, _ := newTestApp(t)
	seedDepartment(t, mem)
	ctx := context.Background()

	if err := a.DeleteTeacher(ctx, "t1"); err != nil {
		t.Fatalf("delete teacher: %v", err)
	}

	// The paper survives but falls out of the joined views.
	if _, ok, _ := mem.GetPaperByID("p1"); !ok {
		t.Fatal("paper should survive teacher deletion")
	}
	rows, err := a.AllPapersWithMembership("s1")
	if err != nil {
		t.Fatalf("all papers: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected dangling paper dropped, got %+v", rows)
	}
}
