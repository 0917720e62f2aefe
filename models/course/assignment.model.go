package course

import (
	"time"

	"gorm.io/gorm"
)

// Assignment backs an ASSIGNMENT lecture, auto-provisioned alongside it
type Assignment struct {
	gorm.Model
	LectureID   uint       `json:"lecture_id" gorm:"uniqueIndex;not null"`
	Title       string     `json:"title"`
	Description string     `json:"description" gorm:"type:text"`
	DueDate     *time.Time `json:"due_date"`
	IsDeleted   bool       `gorm:"default:false"`
}

// Submission is append-only per (user, lecture); the newest one is "the
// latest" for display. Grade and Feedback are filled out-of-band by an
// admin and are not written by the student path.
type Submission struct {
	gorm.Model
	UserID       uint      `json:"user_id" gorm:"index;not null"`
	LectureID    uint      `json:"lecture_id" gorm:"index;not null"`
	AssignmentID uint      `json:"assignment_id" gorm:"index;not null"`
	Content      string    `json:"content" gorm:"type:text"`
	Grade        *float64  `json:"grade"`
	Feedback     string    `json:"feedback"`
	SubmittedAt  time.Time `json:"submitted_at"`
	IsDeleted    bool      `gorm:"default:false"`
}
