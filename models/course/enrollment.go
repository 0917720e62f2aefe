package course

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Payment status values for an enrollment. COMPLETED and FAILED are
// terminal: a later contradictory gateway outcome must never overwrite them.
const (
	PaymentStatusPending   = "PENDING"
	PaymentStatusCompleted = "COMPLETED"
	PaymentStatusFailed    = "FAILED"
)

// Enrollment is the ledger row binding one user to one course: payment
// state, individually purchased sections, and progress/score accumulators.
// Unique per (user, course).
type Enrollment struct {
	gorm.Model
	UserID           uint                      `json:"user_id" gorm:"uniqueIndex:idx_user_course;not null"`
	CourseID         uint                      `json:"course_id" gorm:"uniqueIndex:idx_user_course;not null"`
	PaymentStatus    string                    `json:"payment_status" gorm:"default:'PENDING'"`
	PaymentReference string                    `json:"payment_reference" gorm:"index"`
	PaidSections     datatypes.JSONSlice[uint] `json:"paid_sections"`
	ProgressPercent  float64                   `json:"progress_percent" gorm:"default:0"`
	TotalScore       int                       `json:"total_score" gorm:"default:0"`
	MaxPossibleScore int                       `json:"max_possible_score" gorm:"default:0"`
	EnrolledAt       time.Time                 `json:"enrolled_at"`
	CompletedAt      *time.Time                `json:"completed_at"`
	IsDeleted        bool                      `gorm:"default:false"`
}

// HasPaidSection reports whether sectionID was individually unlocked
func (e *Enrollment) HasPaidSection(sectionID uint) bool {
	for _, id := range e.PaidSections {
		if id == sectionID {
			return true
		}
	}
	return false
}

// LectureCompletion marks a single lecture as completed by a user. Feeds the
// progress percent recomputation.
type LectureCompletion struct {
	gorm.Model
	UserID    uint `json:"user_id" gorm:"uniqueIndex:idx_user_lecture;not null"`
	CourseID  uint `json:"course_id" gorm:"index;not null"`
	LectureID uint `json:"lecture_id" gorm:"uniqueIndex:idx_user_lecture;not null"`
	IsDeleted bool `gorm:"default:false"`
}

// Certificate is issued at most once per (user, course) and never
// regenerated. ImageURL points at the rendered artifact in the object store.
type Certificate struct {
	gorm.Model
	UserID    uint      `json:"user_id" gorm:"uniqueIndex:idx_user_course_cert;not null"`
	CourseID  uint      `json:"course_id" gorm:"uniqueIndex:idx_user_course_cert;not null"`
	ImageURL  string    `json:"image_url"`
	IssuedAt  time.Time `json:"issued_at"`
	IsDeleted bool      `gorm:"default:false"`
}
