package course

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Quiz backs a QUIZ or PRACTICE_TEST lecture, auto-provisioned when the
// lecture is created or its type changes
type Quiz struct {
	gorm.Model
	LectureID uint   `json:"lecture_id" gorm:"uniqueIndex;not null"`
	Title     string `json:"title"`
	IsDeleted bool   `gorm:"default:false"`

	Questions []QuizQuestion `json:"questions,omitempty" gorm:"foreignKey:QuizID"`
}

// QuizQuestion holds the option list and the index of the correct option
type QuizQuestion struct {
	gorm.Model
	QuizID       uint                        `json:"quiz_id" gorm:"index;not null"`
	OrderIndex   int                         `json:"order_index" gorm:"default:0"`
	Question     string                      `json:"question"`
	Options      datatypes.JSONSlice[string] `json:"options"`
	CorrectIndex int                         `json:"-"` // never serialized to students
	IsDeleted    bool                        `gorm:"default:false"`
}

// QuizAttempt is an append-only record of one graded submission. Attempts
// are never mutated; enrollment score accumulators are bumped additively
// each time one is recorded.
type QuizAttempt struct {
	gorm.Model
	UserID      uint                     `json:"user_id" gorm:"index;not null"`
	QuizID      uint                     `json:"quiz_id" gorm:"index;not null"`
	Answers     datatypes.JSONSlice[int] `json:"answers"`
	Score       int                      `json:"score"`
	MaxScore    int                      `json:"max_score"`
	SubmittedAt time.Time                `json:"submitted_at"`
	IsDeleted   bool                     `gorm:"default:false"`
}
