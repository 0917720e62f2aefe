package course

import "gorm.io/gorm"

// Course represents a learning course
type Course struct {
	gorm.Model
	Title        string `json:"title"`
	Description  string `json:"description"`
	ThumbnailURL string `json:"thumbnail_url"`
	IsPaid       bool   `json:"is_paid" gorm:"default:false"`
	Price        int64  `json:"price" gorm:"default:0"` // minor currency units, required when IsPaid
	IsActive     bool   `json:"is_active" gorm:"default:true"`

	CertificateEnabled           bool    `json:"certificate_enabled" gorm:"default:false"`
	CertificateRequireCompletion bool    `json:"certificate_require_completion" gorm:"default:true"`
	CertificateRequireMinScore   bool    `json:"certificate_require_min_score" gorm:"default:false"`
	CertificateMinScore          float64 `json:"certificate_min_score" gorm:"default:0"` // percent

	IsDeleted bool `gorm:"default:false"`

	Sections []Section `json:"sections,omitempty" gorm:"foreignKey:CourseID"`
}

// Section is an ordered group of lectures; it can carry its own price
// independent of the course purchase
type Section struct {
	gorm.Model
	CourseID    uint   `json:"course_id" gorm:"index;not null"`
	Title       string `json:"title"`
	Description string `json:"description"`
	OrderIndex  int    `json:"order_index" gorm:"default:0"`
	IsPaid      bool   `json:"is_paid" gorm:"default:false"`
	Price       int64  `json:"price" gorm:"default:0"`
	IsDeleted   bool   `gorm:"default:false"`

	Lectures []Lecture `json:"lectures,omitempty" gorm:"foreignKey:SectionID"`
}

// Lecture content types
const (
	LectureTypeVideo        = "VIDEO"
	LectureTypeText         = "TEXT"
	LectureTypeQuiz         = "QUIZ"
	LectureTypePracticeTest = "PRACTICE_TEST"
	LectureTypeAssignment   = "ASSIGNMENT"
	LectureTypePDF          = "PDF"
)

// Lecture belongs to exactly one section. The payload columns are sparse:
// which of them is meaningful depends on Type.
type Lecture struct {
	gorm.Model
	SectionID   uint   `json:"section_id" gorm:"index;not null"`
	Title       string `json:"title"`
	Type        string `json:"type" gorm:"default:'TEXT'"`
	OrderIndex  int    `json:"order_index" gorm:"default:0"`
	VideoURL    string `json:"video_url"`
	TextContent string `json:"text_content" gorm:"type:text"`
	PdfURL      string `json:"pdf_url"`
	IsDeleted   bool   `gorm:"default:false"`
}

// HasQuiz reports whether the lecture type owns a backing Quiz record
func (l *Lecture) HasQuiz() bool {
	return l.Type == LectureTypeQuiz || l.Type == LectureTypePracticeTest
}

// HasAssignment reports whether the lecture type owns a backing Assignment record
func (l *Lecture) HasAssignment() bool {
	return l.Type == LectureTypeAssignment
}
