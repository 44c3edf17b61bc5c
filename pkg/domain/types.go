package domain

import (
	"encoding/json"
	"time"
)

// Teacher is a member of staff. An empty Roles set means the account is
// registered but not yet approved by the department.
type Teacher struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Username      string    `json:"username"`
	PasswordHash  string    `json:"-"`
	Department    string    `json:"department"`
	Qualification string    `json:"qualification"`
	Roles         []string  `json:"roles"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type Student struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Course       string    `json:"course"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Paper is a course offering. TeacherID and Students are weak references:
// deleting a Teacher or Student leaves the ids behind, and readers must
// treat an unresolvable reference as a join miss.
type Paper struct {
	ID         string    `json:"id"`
	Department string    `json:"department"`
	Semester   string    `json:"semester"`
	Year       string    `json:"year"`
	Paper      string    `json:"paper"`
	TeacherID  string    `json:"teacher"`
	Students   []string  `json:"students"`
	Version    int64     `json:"-"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type Note struct {
	ID            string    `json:"id"`
	PaperID       string    `json:"paper"`
	Title         string    `json:"title"`
	Body          string    `json:"body"`
	AttachmentKey string    `json:"-"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// TimeSchedule holds one teacher's weekly schedule as an opaque payload.
// At most one schedule exists per teacher.
type TimeSchedule struct {
	ID        string          `json:"id"`
	TeacherID string          `json:"teacher"`
	Schedule  json.RawMessage `json:"schedule"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// TeacherName is the projection of a Teacher used inside joined views.
type TeacherName struct {
	Name string `json:"name"`
}

// PaperSummary is a Paper with the enrollment set omitted.
type PaperSummary struct {
	ID         string `json:"id"`
	Department string `json:"department"`
	Semester   string `json:"semester"`
	Year       string `json:"year"`
	Paper      string `json:"paper"`
	TeacherID  string `json:"teacher"`
}

// EnrolledPaper is one row of the papers-for-student view.
type EnrolledPaper struct {
	ID       string      `json:"id"`
	Semester string      `json:"semester"`
	Year     string      `json:"year"`
	Paper    string      `json:"paper"`
	Teacher  TeacherName `json:"teacher"`
}

// PaperMembership is one row of the all-papers view: every paper annotated
// with whether the queried student is enrolled, so callers can present
// "available to join" and "already joined" from a single query.
type PaperMembership struct {
	ID         string      `json:"id"`
	Department string      `json:"department"`
	Semester   string      `json:"semester"`
	Year       string      `json:"year"`
	Paper      string      `json:"paper"`
	Students   []string    `json:"students"`
	Teacher    TeacherName `json:"teacher"`
	Joined     bool        `json:"joined"`
}

// RosterEntry is one enrolled student projected to id and name.
type RosterEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PaperDetail is a Paper with both ends of its references resolved.
type PaperDetail struct {
	ID         string        `json:"id"`
	Department string        `json:"department"`
	Semester   string        `json:"semester"`
	Year       string        `json:"year"`
	Paper      string        `json:"paper"`
	Teacher    RosterEntry   `json:"teacher"`
	Students   []RosterEntry `json:"students"`
	CreatedAt  time.Time     `json:"createdAt"`
	UpdatedAt  time.Time     `json:"updatedAt"`
}
