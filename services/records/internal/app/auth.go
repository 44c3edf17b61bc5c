package app

import (
	"context"
	"fmt"
	"strings"

	"deptrecords/pkg/auth"
)

// LoginResult carries a fresh session token and the authenticated
// subject's public profile fields.
type LoginResult struct {
	Token string `json:"token"`
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// TeacherLogin authenticates a teacher by username and password.
// Accounts with no roles assigned are still pending approval and
// cannot log in.
func (a *App) TeacherLogin(ctx context.Context, username, password string) (LoginResult, error) {
	if anyBlank(username, password) {
		return LoginResult{}, ErrFieldsMissing
	}
	teacher, ok, err := a.store.GetTeacherByUsername(strings.TrimSpace(username))
	if err != nil {
		return LoginResult{}, fmt.Errorf("fetch teacher: %w", err)
	}
	if !ok || !auth.CheckPassword(teacher.PasswordHash, password) {
		return LoginResult{}, ErrInvalidCredentials
	}
	if len(teacher.Roles) == 0 {
		return LoginResult{}, ErrPendingApproval
	}
	token, err := a.sessions.NewSession(teacher.ID, "teacher")
	if err != nil {
		return LoginResult{}, fmt.Errorf("new session: %w", err)
	}
	return LoginResult{Token: token, ID: teacher.ID, Name: teacher.Name, Role: "teacher"}, nil
}

// StudentLogin authenticates a student by username and password.
func (a *App) StudentLogin(ctx context.Context, username, password string) (LoginResult, error) {
	if anyBlank(username, password) {
		return LoginResult{}, ErrFieldsMissing
	}
	student, ok, err := a.store.GetStudentByUsername(strings.TrimSpace(username))
	if err != nil {
		return LoginResult{}, fmt.Errorf("fetch student: %w", err)
	}
	if !ok || !auth.CheckPassword(student.PasswordHash, password) {
		return LoginResult{}, ErrInvalidCredentials
	}
	token, err := a.sessions.NewSession(student.ID, "student")
	if err != nil {
		return LoginResult{}, fmt.Errorf("new session: %w", err)
	}
	return LoginResult{Token: token, ID: student.ID, Name: student.Name, Role: "student"}, nil
}

// Logout revokes the session token. Revoking an already-invalid token
// is a no-op.
func (a *App) Logout(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return ErrFieldsMissing
	}
	return a.sessions.DeleteSession(token)
}

// Authenticate resolves a bearer token to the subject it was issued
// for. Unknown or revoked tokens report invalid credentials.
func (a *App) Authenticate(ctx context.Context, token string) (Subject, error) {
	session, ok, err := a.sessions.GetSession(token)
	if err != nil {
		return Subject{}, fmt.Errorf("get session: %w", err)
	}
	if !ok {
		return Subject{}, ErrInvalidCredentials
	}
	return Subject{ID: session.SubjectID, Role: session.Role}, nil
}

// Subject identifies an authenticated caller.
type Subject struct {
	ID   string
	Role string
}
