package app

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"deptrecords/pkg/domain"
)

// The view engine joins papers to their owning teacher and enrolled
// students by store lookups on unique identifiers. References are weak:
// a row whose reference fails to resolve is excluded from the result,
// never an error. The exception is the primary subject of the query
// itself, whose absence is a hard not-found.

// TeacherPapers returns the papers taught by one teacher, with the
// enrollment set omitted from each row. An empty result is reported as
// ErrNoPapers. Rows keep store insertion order.
func (a *App) TeacherPapers(teacherID string) ([]domain.PaperSummary, error) {
	teacherID = strings.TrimSpace(teacherID)
	if teacherID == "" {
		return nil, ErrIDMissing
	}
	papers, err := a.store.ListPapersByTeacher(teacherID)
	if err != nil {
		return nil, fmt.Errorf("list papers: %w", err)
	}
	if len(papers) == 0 {
		return nil, ErrNoPapers
	}
	res := make([]domain.PaperSummary, 0, len(papers))
	for _, p := range papers {
		res = append(res, domain.PaperSummary{
			ID:         p.ID,
			Department: p.Department,
			Semester:   p.Semester,
			Year:       p.Year,
			Paper:      p.Paper,
			TeacherID:  p.TeacherID,
		})
	}
	return res, nil
}

// EnrolledPapers returns the papers a student is enrolled in, each joined
// to its teacher's name. A paper whose teacher reference does not resolve
// is dropped. A student enrolled in nothing gets an empty sequence.
func (a *App) EnrolledPapers(studentID string) ([]domain.EnrolledPaper, error) {
	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return nil, ErrIDMissing
	}
	papers, err := a.store.ListPapers()
	if err != nil {
		return nil, fmt.Errorf("list papers: %w", err)
	}
	teacherNames := newTeacherNameCache(a)
	res := make([]domain.EnrolledPaper, 0)
	for _, p := range papers {
		if !containsID(p.Students, studentID) {
			continue
		}
		name, ok, err := teacherNames.lookup(p.TeacherID)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		res = append(res, domain.EnrolledPaper{
			ID:       p.ID,
			Semester: p.Semester,
			Year:     p.Year,
			Paper:    p.Paper,
			Teacher:  domain.TeacherName{Name: name},
		})
	}
	return res, nil
}

// AllPapersWithMembership returns every paper with a resolvable teacher,
// annotated with whether the given student is in its enrollment set. One
// query answers both "joined" and "available to join".
func (a *App) AllPapersWithMembership(studentID string) ([]domain.PaperMembership, error) {
	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return nil, ErrIDMissing
	}
	papers, err := a.store.ListPapers()
	if err != nil {
		return nil, fmt.Errorf("list papers: %w", err)
	}
	teacherNames := newTeacherNameCache(a)
	res := make([]domain.PaperMembership, 0, len(papers))
	for _, p := range papers {
		name, ok, err := teacherNames.lookup(p.TeacherID)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		res = append(res, domain.PaperMembership{
			ID:         p.ID,
			Department: p.Department,
			Semester:   p.Semester,
			Year:       p.Year,
			Paper:      p.Paper,
			Students:   append([]string(nil), p.Students...),
			Teacher:    domain.TeacherName{Name: name},
			Joined:     containsID(p.Students, studentID),
		})
	}
	return res, nil
}

// Roster resolves a paper's enrollment set to student names, preserving
// the stored order. A missing paper is not-found; an existing paper with
// an empty enrollment set is ErrEmptyRoster. Ids that no longer resolve
// to a student are dropped.
func (a *App) Roster(paperID string) ([]domain.RosterEntry, error) {
	paperID = strings.TrimSpace(paperID)
	if paperID == "" {
		return nil, ErrIDMissing
	}
	paper, ok, err := a.store.GetPaperByID(paperID)
	if err != nil {
		return nil, fmt.Errorf("fetch paper: %w", err)
	}
	if !ok {
		return nil, ErrPaperNotFound
	}
	if len(paper.Students) == 0 {
		return nil, ErrEmptyRoster
	}
	res := make([]domain.RosterEntry, 0, len(paper.Students))
	for _, id := range paper.Students {
		student, ok, err := a.store.GetStudentByID(id)
		if err != nil {
			return nil, fmt.Errorf("resolve student: %w", err)
		}
		if !ok {
			continue
		}
		res = append(res, domain.RosterEntry{ID: student.ID, Name: student.Name})
	}
	return res, nil
}

// PaperDetail returns one paper with its teacher and students resolved
// to names. The teacher and the students are fetched concurrently.
func (a *App) PaperDetail(ctx context.Context, paperID string) (domain.PaperDetail, error) {
	paperID = strings.TrimSpace(paperID)
	if paperID == "" {
		return domain.PaperDetail{}, ErrIDMissing
	}
	paper, ok, err := a.store.GetPaperByID(paperID)
	if err != nil {
		return domain.PaperDetail{}, fmt.Errorf("fetch paper: %w", err)
	}
	if !ok {
		return domain.PaperDetail{}, ErrPaperNotFound
	}

	detail := domain.PaperDetail{
		ID:         paper.ID,
		Department: paper.Department,
		Semester:   paper.Semester,
		Year:       paper.Year,
		Paper:      paper.Paper,
		CreatedAt:  paper.CreatedAt,
		UpdatedAt:  paper.UpdatedAt,
	}

	students := make([]*domain.RosterEntry, len(paper.Students))
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		teacher, ok, err := a.store.GetTeacherByID(paper.TeacherID)
		if err != nil {
			return fmt.Errorf("resolve teacher: %w", err)
		}
		if ok {
			detail.Teacher = domain.RosterEntry{ID: teacher.ID, Name: teacher.Name}
		}
		return nil
	})
	for i, id := range paper.Students {
		i, id := i, id
		g.Go(func() error {
			student, ok, err := a.store.GetStudentByID(id)
			if err != nil {
				return fmt.Errorf("resolve student: %w", err)
			}
			if ok {
				students[i] = &domain.RosterEntry{ID: student.ID, Name: student.Name}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.PaperDetail{}, err
	}

	detail.Students = make([]domain.RosterEntry, 0, len(students))
	for _, entry := range students {
		if entry != nil {
			detail.Students = append(detail.Students, *entry)
		}
	}
	return detail, nil
}

func containsID(ids []string, id string) bool {
	for _, item := range ids {
		if item == id {
			return true
		}
	}
	return false
}

// teacherNameCache memoizes teacher lookups within one view computation,
// so joining N papers taught by the same teacher costs one fetch.
type teacherNameCache struct {
	app   *App
	names map[string]string
	found map[string]bool
}

func newTeacherNameCache(a *App) *teacherNameCache {
	return &teacherNameCache{
		app:   a,
		names: make(map[string]string),
		found: make(map[string]bool),
	}
}

func (c *teacherNameCache) lookup(teacherID string) (string, bool, error) {
	if ok, seen := c.found[teacherID]; seen {
		return c.names[teacherID], ok, nil
	}
	teacher, ok, err := c.app.store.GetTeacherByID(teacherID)
	if err != nil {
		return "", false, fmt.Errorf("resolve teacher: %w", err)
	}
	c.found[teacherID] = ok
	if ok {
		c.names[teacherID] = teacher.Name
	}
	return c.names[teacherID], ok, nil
}
