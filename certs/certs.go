// Package certs evaluates a course's certificate policy after progress
// updates and issues the certificate artifact exactly once.
package certs

import (
	"errors"
	"fmt"
	"math"
	"time"

	courseModels "lms/models/course"

	"gorm.io/gorm"
)

// ObjectStore persists rendered certificate artifacts. A successful Put
// returns a stable, publicly fetchable URL.
type ObjectStore interface {
	Put(data []byte, contentType string) (string, error)
}

// ErrStoreUnavailable marks an artifact upload failure. The progress
// update that triggered issuance is not rolled back; with no Certificate
// row created, the next evaluation retries the upload.
var ErrStoreUnavailable = errors.New("certificate store unavailable")

// Engine checks policy and issues certificates
type Engine struct {
	db    *gorm.DB
	store ObjectStore
}

func NewEngine(db *gorm.DB, store ObjectStore) *Engine {
	return &Engine{db: db, store: store}
}

// ScorePercent is the rounded accumulated score ratio, 0 when nothing has
// been graded yet
func ScorePercent(totalScore, maxPossibleScore int) int {
	if maxPossibleScore <= 0 {
		return 0
	}
	return int(math.Round(float64(totalScore) / float64(maxPossibleScore) * 100))
}

// Evaluate runs the certificate policy for one enrollment and issues a
// certificate when every gate passes. Safe to call after every progress or
// scoring event: issuance is exactly-once, keyed on Certificate existence.
// Returns the certificate when one exists afterwards (old or new), nil when
// policy was not met.
func (e *Engine) Evaluate(course *courseModels.Course, enrollment *courseModels.Enrollment, studentName string) (*courseModels.Certificate, error) {
	if !course.CertificateEnabled {
		return nil, nil
	}
	if course.CertificateRequireCompletion && enrollment.ProgressPercent < 100 {
		return nil, nil
	}

	scorePercent := ScorePercent(enrollment.TotalScore, enrollment.MaxPossibleScore)
	if course.CertificateRequireMinScore {
		if scorePercent < int(math.Round(course.CertificateMinScore)) {
			return nil, nil
		}
	}

	var existing courseModels.Certificate
	err := e.db.Where("user_id = ? AND course_id = ? AND is_deleted = ?",
		enrollment.UserID, course.ID, false).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	issuedAt := time.Now()
	scoreText := ""
	if course.CertificateRequireMinScore {
		scoreText = fmt.Sprintf("Final Score: %d%%", scorePercent)
	}
	svg := RenderSVG(ArtifactData{
		Student:   studentName,
		Course:    course.Title,
		Date:      issuedAt.Format("January 2, 2006"),
		ScoreText: scoreText,
	})

	// upload first: a Certificate row must never point at a missing asset
	url, err := e.store.Put([]byte(svg), "image/svg+xml")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	certificate := courseModels.Certificate{
		UserID:   enrollment.UserID,
		CourseID: course.ID,
		ImageURL: url,
		IssuedAt: issuedAt,
	}
	if err := e.db.Create(&certificate).Error; err != nil {
		// unique index on (user, course): a concurrent evaluation won the
		// race, return its row
		var winner courseModels.Certificate
		if ferr := e.db.Where("user_id = ? AND course_id = ? AND is_deleted = ?",
			enrollment.UserID, course.ID, false).First(&winner).Error; ferr == nil {
			return &winner, nil
		}
		return nil, err
	}
	return &certificate, nil
}
