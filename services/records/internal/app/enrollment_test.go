package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"deptrecords/pkg/store"
)

func TestReplaceEnrollment(t *testing.T) {
	a, mem, publisher, _ := newTestApp(t)
	seedDepartment(t, mem)

	if err := a.ReplaceEnrollment(context.Background(), "p1", []string{"s3"}); err != nil {
		t.Fatalf("replace enrollment: %v", err)
	}

	paper, ok, err := mem.GetPaperByID("p1")
	if err != nil || !ok {
		t.Fatalf("fetch paper: ok=%v err=%v", ok, err)
	}
	if len(paper.Students) != 1 || paper.Students[0] != "s3" {
		t.Fatalf("expected [s3], got %v", paper.Students)
	}
	if paper.Version != 2 {
		t.Fatalf("expected version 2, got %d", paper.Version)
	}

	// The membership views flip accordingly.
	if papers, err := a.EnrolledPapers("s1"); err != nil || len(papers) != 0 {
		t.Fatalf("s1 still enrolled: %v %v", papers, err)
	}
	if papers, err := a.EnrolledPapers("s3"); err != nil || len(papers) != 1 {
		t.Fatalf("s3 not enrolled: %v %v", papers, err)
	}

	found := false
	for _, ev := range publisher.Events() {
		if ev.Entity == "paper" && string(ev.Action) == "updated" && ev.ID == "p1" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected paper updated event, got %+v", publisher.Events())
	}
}

func TestReplaceEnrollmentCleansInput(t *testing.T) {
	a, mem, _, _ := newTestApp(t)
	seedDepartment(t, mem)

	if err := a.ReplaceEnrollment(context.Background(), "p1", []string{" s1 ", "s1", "", "s2"}); err != nil {
		t.Fatalf("replace enrollment: %v", err)
	}
	paper, _, _ := mem.GetPaperByID("p1")
	if len(paper.Students) != 2 || paper.Students[0] != "s1" || paper.Students[1] != "s2" {
		t.Fatalf("expected [s1 s2], got %v", paper.Students)
	}
}

func TestReplaceEnrollmentValidation(t *testing.T) {
	a, mem, _, _ := newTestApp(t)
	seedDepartment(t, mem)

	if err := a.ReplaceEnrollment(context.Background(), "", []string{"s1"}); !errors.Is(err, ErrIDMissing) {
		t.Fatalf("expected ErrIDMissing, got %v", err)
	}
	if err := a.ReplaceEnrollment(context.Background(), "p1", nil); !errors.Is(err, ErrFieldsMissing) {
		t.Fatalf("expected ErrFieldsMissing, got %v", err)
	}
	if err := a.ReplaceEnrollment(context.Background(), "p-none", []string{"s1"}); !errors.Is(err, ErrPaperNotFound) {
		t.Fatalf("expected ErrPaperNotFound, got %v", err)
	}
}

// contendedStore forces every version check to lose, as if a concurrent
// writer always got there first.
type contendedStore struct {
	store.Store
}

func (c contendedStore) ReplaceStudents(paperID string, version int64, studentIDs []string) (bool, error) {
	return false, nil
}

func TestReplaceEnrollmentConflict(t *testing.T) {
	mem := store.NewMemoryStore()
	seedDepartment(t, mem)
	sessions, err := store.NewJWTSessionStore("test-secret", time.Hour, nil, store.JWTOptions{})
	if err != nil {
		t.Fatalf("new session store: %v", err)
	}
	a, err := New(Config{Store: contendedStore{mem}, Sessions: sessions})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}

	if err := a.ReplaceEnrollment(context.Background(), "p1", []string{"s3"}); !errors.Is(err, ErrEnrollmentConflict) {
		t.Fatalf("expected ErrEnrollmentConflict, got %v", err)
	}
}

func TestReplaceStudentsStaleVersion(t *testing.T) {
	mem := store.NewMemoryStore()
	seedDepartment(t, mem)

	updated, err := mem.ReplaceStudents("p1", 99, []string{"s3"})
	if err != nil {
		t.Fatalf("replace students: %v", err)
	}
	if updated {
		t.Fatal("stale version should not match")
	}
	paper, _, _ := mem.GetPaperByID("p1")
	if len(paper.Students) != 2 {
		t.Fatalf("enrollment changed on stale write: %v", paper.Students)
	}
}
