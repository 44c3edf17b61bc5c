package store

import (
	"time"

	"gorm.io/datatypes"
)

// GORM models used for persistence.
type TeacherModel struct {
	ID            string `gorm:"primaryKey"`
	Name          string `gorm:"not null"`
	Email         string `gorm:"not null"`
	Username      string `gorm:"uniqueIndex;not null"`
	PasswordHash  string `gorm:"not null"`
	Department    string `gorm:"not null;index"`
	Qualification string
	Roles         datatypes.JSONSlice[string]
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time
}

type StudentModel struct {
	ID           string `gorm:"primaryKey"`
	Name         string `gorm:"not null"`
	Course       string `gorm:"not null"`
	Email        string `gorm:"not null"`
	Username     string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time
}

type PaperModel struct {
	ID         string `gorm:"primaryKey"`
	Department string `gorm:"not null;index"`
	Semester   string `gorm:"not null"`
	Year       string `gorm:"not null"`
	Paper      string `gorm:"not null"`
	TeacherID  string `gorm:"not null;index"`
	Students   datatypes.JSONSlice[string]
	Version    int64     `gorm:"not null;default:1"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

type NoteModel struct {
	ID            string `gorm:"primaryKey"`
	PaperID       string `gorm:"not null;index"`
	Title         string `gorm:"not null"`
	Body          string `gorm:"type:text;not null"`
	AttachmentKey string
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null"`
}

type TimeScheduleModel struct {
	ID        string         `gorm:"primaryKey"`
	TeacherID string         `gorm:"uniqueIndex;not null"`
	Schedule  datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt time.Time      `gorm:"not null"`
	UpdatedAt time.Time      `gorm:"not null"`
}
