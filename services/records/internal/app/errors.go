package app

import (
	"errors"

	"deptrecords/pkg/auth"
)

var (
	// Missing or empty input surfaced by the core itself.
	ErrFieldsMissing = errors.New("incomplete request: fields missing")
	ErrIDMissing     = errors.New("id missing")

	// Absent records and empty derived results that are reported as
	// failures by policy.
	ErrTeacherNotFound  = errors.New("no teacher found")
	ErrStudentNotFound  = errors.New("student not found")
	ErrPaperNotFound    = errors.New("paper not found")
	ErrNoteNotFound     = errors.New("note not found")
	ErrScheduleNotFound = errors.New("time schedule not found")
	ErrNoPapers         = errors.New("no papers found")
	// ErrEmptyRoster mirrors the reference behavior: a paper that exists
	// but has nobody enrolled is reported as a bad request, unlike the
	// other views which return empty sequences.
	ErrEmptyRoster = errors.New("no students found")

	// Duplicate-guard violations.
	ErrDuplicateUsername = errors.New("duplicate username")
	ErrDuplicatePaper    = errors.New("paper already exists")
	ErrDuplicateNote     = errors.New("note already exists")
	ErrDuplicateSchedule = errors.New("time schedule already exists")

	// Auth failures. The credentials message is shown to end users and
	// must not distinguish a bad username from a bad password.
	ErrInvalidCredentials = errors.New("incorrect username or password")
	ErrPendingApproval    = errors.New("account awaiting approval")

	// ErrEnrollmentConflict is returned when the optimistic retry loop
	// around ReplaceEnrollment exhausts its attempts.
	ErrEnrollmentConflict = errors.New("enrollment update conflicted, try again")

	// Attachment handling.
	ErrAttachmentsDisabled = errors.New("attachments are not configured")
	ErrNoAttachment        = errors.New("note has no attachment")
)

// IsNotFound reports whether err maps to a 404 for transport purposes.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrTeacherNotFound) ||
		errors.Is(err, ErrStudentNotFound) ||
		errors.Is(err, ErrPaperNotFound) ||
		errors.Is(err, ErrNoteNotFound) ||
		errors.Is(err, ErrScheduleNotFound) ||
		errors.Is(err, ErrNoPapers) ||
		errors.Is(err, ErrNoAttachment)
}

// IsConflict reports whether err is a duplicate-guard violation.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicateUsername) ||
		errors.Is(err, ErrDuplicatePaper) ||
		errors.Is(err, ErrDuplicateNote) ||
		errors.Is(err, ErrDuplicateSchedule) ||
		errors.Is(err, ErrEnrollmentConflict)
}

// IsBadRequest reports whether err maps to a 400.
func IsBadRequest(err error) bool {
	return errors.Is(err, ErrFieldsMissing) ||
		errors.Is(err, ErrIDMissing) ||
		errors.Is(err, ErrEmptyRoster) ||
		errors.Is(err, auth.ErrPasswordTooShort)
}
