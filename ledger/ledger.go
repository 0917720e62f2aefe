// Package ledger is the authoritative enrollment state machine: payment
// state per (user, course), individually purchased sections, and the
// progress/score accumulators. Every mutation is a conditional single-row
// update so two requests racing on the same enrollment (a webhook and a
// client verify, typically) cannot interleave.
package ledger

import (
	"errors"
	"log"
	"time"

	courseModels "lms/models/course"
	"lms/payment"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrAlreadyEnrolled  = errors.New("already enrolled in this course")
	ErrCourseIsPaid     = errors.New("course requires payment")
	ErrCourseNotFound   = errors.New("course not found or inactive")
	ErrNotEnrolled      = errors.New("no enrollment for this course")
	ErrAlreadyPurchased = errors.New("section already purchased")
	// ErrStaleOutcome marks a gateway outcome contradicting a terminal
	// payment status. It is logged and never applied.
	ErrStaleOutcome = errors.New("stale or contradictory payment outcome")
	// ErrOutcomeUnmatched marks an outcome that matched no enrollment by
	// reference or metadata. Logged and dropped; support recovers manually.
	ErrOutcomeUnmatched = errors.New("payment outcome matched no enrollment")
)

// Ledger wraps the database handle. Construct one per process and inject
// it where enrollment state is read or written.
type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// Find fetches the enrollment row for (user, course), nil if none exists
func (l *Ledger) Find(userID, courseID uint) (*courseModels.Enrollment, error) {
	var enrollment courseModels.Enrollment
	err := l.db.Where("user_id = ? AND course_id = ? AND is_deleted = ?", userID, courseID, false).
		First(&enrollment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// FindByID fetches an enrollment by primary key
func (l *Ledger) FindByID(enrollmentID uint) (*courseModels.Enrollment, error) {
	var enrollment courseModels.Enrollment
	err := l.db.Where("id = ? AND is_deleted = ?", enrollmentID, false).First(&enrollment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// FindByReference fetches the enrollment correlated to a payment reference
func (l *Ledger) FindByReference(reference string) (*courseModels.Enrollment, error) {
	var enrollment courseModels.Enrollment
	err := l.db.Where("payment_reference = ? AND is_deleted = ?", reference, false).
		First(&enrollment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// EnrollFree creates a COMPLETED enrollment directly for a free course
func (l *Ledger) EnrollFree(userID, courseID uint) (*courseModels.Enrollment, error) {
	var course courseModels.Course
	if err := l.db.Where("id = ? AND is_deleted = ? AND is_active = ?", courseID, false, true).
		First(&course).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	if course.IsPaid {
		return nil, ErrCourseIsPaid
	}

	existing, err := l.Find(userID, courseID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyEnrolled
	}

	enrollment := courseModels.Enrollment{
		UserID:        userID,
		CourseID:      courseID,
		PaymentStatus: courseModels.PaymentStatusCompleted,
		EnrolledAt:    time.Now(),
	}
	if err := l.db.Create(&enrollment).Error; err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// BeginPaidEnrollment creates or refreshes the PENDING row for a paid
// checkout. A new initialize while one is already PENDING overwrites the
// reference, abandoning the old transaction: single-flight per course.
// A COMPLETED enrollment rejects with ErrAlreadyEnrolled.
func (l *Ledger) BeginPaidEnrollment(userID, courseID uint, reference string) (*courseModels.Enrollment, error) {
	existing, err := l.Find(userID, courseID)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		if existing.PaymentStatus == courseModels.PaymentStatusCompleted {
			return nil, ErrAlreadyEnrolled
		}
		if err := l.db.Model(existing).Updates(map[string]interface{}{
			"payment_reference": reference,
			"payment_status":    courseModels.PaymentStatusPending,
		}).Error; err != nil {
			return nil, err
		}
		existing.PaymentReference = reference
		existing.PaymentStatus = courseModels.PaymentStatusPending
		return existing, nil
	}

	enrollment := courseModels.Enrollment{
		UserID:           userID,
		CourseID:         courseID,
		PaymentStatus:    courseModels.PaymentStatusPending,
		PaymentReference: reference,
		EnrolledAt:       time.Now(),
	}
	if err := l.db.Create(&enrollment).Error; err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// ApplyPaymentOutcome reconciles one gateway outcome onto the ledger,
// exactly once per reference. Both delivery channels (webhook push and
// client-triggered verify) converge here, so duplicate and out-of-order
// arrival collapse into the terminal-state idempotency rules:
//   - PENDING -> COMPLETED/FAILED applies once
//   - re-delivery of the same terminal outcome is a no-op
//   - a contradictory terminal outcome is rejected with ErrStaleOutcome
//   - a reference miss falls back to the PENDING (user, course) row from
//     metadata and adopts the reference onto it
//   - an outcome matching nothing is logged with full metadata and dropped
func (l *Ledger) ApplyPaymentOutcome(reference string, succeeded bool, meta payment.Metadata) (*courseModels.Enrollment, error) {
	if meta.IsSectionPurchase() {
		return l.applySectionOutcome(reference, succeeded, meta)
	}
	return l.applyCourseOutcome(reference, succeeded, meta)
}

func (l *Ledger) applyCourseOutcome(reference string, succeeded bool, meta payment.Metadata) (*courseModels.Enrollment, error) {
	target := courseModels.PaymentStatusFailed
	if succeeded {
		target = courseModels.PaymentStatusCompleted
	}

	updates := map[string]interface{}{"payment_status": target}
	if succeeded && meta.IncludeAllSections && len(meta.PaidSectionIDs) > 0 {
		// full access: granted section set is fixed at this moment, never
		// recomputed for sections added later
		updates["paid_sections"] = datatypes.NewJSONSlice(meta.PaidSectionIDs)
	}

	// happy path: the PENDING row still carries our reference
	res := l.db.Model(&courseModels.Enrollment{}).
		Where("payment_reference = ? AND payment_status = ? AND is_deleted = ?",
			reference, courseModels.PaymentStatusPending, false).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected > 0 {
		return l.FindByReference(reference)
	}

	// no live row under this reference: either it already reached a
	// terminal state, or the reference was lost
	existing, err := l.FindByReference(reference)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.PaymentStatus == target {
			return existing, nil // duplicate delivery of the same outcome
		}
		log.Printf("ledger: dropping contradictory outcome for reference=%s have=%s got=%s",
			reference, existing.PaymentStatus, target)
		return existing, ErrStaleOutcome
	}

	// fall back to the pending (user, course) row named in metadata and
	// adopt the reference onto it
	updates["payment_reference"] = reference
	res = l.db.Model(&courseModels.Enrollment{}).
		Where("user_id = ? AND course_id = ? AND payment_status = ? AND is_deleted = ?",
			meta.UserID, meta.CourseID, courseModels.PaymentStatusPending, false).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected > 0 {
		return l.FindByReference(reference)
	}

	log.Printf("ledger: unmatched payment outcome reference=%s succeeded=%t userId=%d courseId=%d type=%s",
		reference, succeeded, meta.UserID, meta.CourseID, meta.PurchaseType)
	return nil, ErrOutcomeUnmatched
}

func (l *Ledger) applySectionOutcome(reference string, succeeded bool, meta payment.Metadata) (*courseModels.Enrollment, error) {
	if !succeeded {
		// nothing to unwind: section money only ever adds to PaidSections
		log.Printf("ledger: section payment failed reference=%s sectionId=%d userId=%d",
			reference, meta.SectionID, meta.UserID)
		return l.FindByID(meta.EnrollmentID)
	}

	enrollment, err := l.FindByID(meta.EnrollmentID)
	if err != nil {
		return nil, err
	}
	if enrollment == nil {
		// enrollment id from metadata can go stale; fall back to the
		// (user, course) pair
		enrollment, err = l.Find(meta.UserID, meta.CourseID)
		if err != nil {
			return nil, err
		}
	}
	if enrollment == nil {
		log.Printf("ledger: unmatched section outcome reference=%s sectionId=%d userId=%d courseId=%d",
			reference, meta.SectionID, meta.UserID, meta.CourseID)
		return nil, ErrOutcomeUnmatched
	}

	if _, err := l.addPaidSection(enrollment, meta.SectionID); err != nil {
		return nil, err
	}
	return l.FindByID(enrollment.ID)
}

// PurchaseSection appends sectionID to the enrollment's paid set. Rejects
// with ErrAlreadyPurchased when the section was already unlocked.
func (l *Ledger) PurchaseSection(enrollmentID, sectionID uint) (*courseModels.Enrollment, error) {
	enrollment, err := l.FindByID(enrollmentID)
	if err != nil {
		return nil, err
	}
	if enrollment == nil {
		return nil, ErrNotEnrolled
	}

	added, err := l.addPaidSection(enrollment, sectionID)
	if err != nil {
		return nil, err
	}
	if !added {
		return nil, ErrAlreadyPurchased
	}
	return l.FindByID(enrollmentID)
}

// addPaidSection does a compare-and-swap on the paid_sections column:
// membership is checked against the value the update predicates on, so two
// concurrent appends cannot drop each other's section. Returns false when
// the section was already present.
func (l *Ledger) addPaidSection(enrollment *courseModels.Enrollment, sectionID uint) (bool, error) {
	const maxRetries = 3

	current := enrollment
	for attempt := 0; attempt < maxRetries; attempt++ {
		if current.HasPaidSection(sectionID) {
			return false, nil
		}

		oldSections := current.PaidSections
		newSections := make([]uint, 0, len(oldSections)+1)
		newSections = append(newSections, oldSections...)
		newSections = append(newSections, sectionID)

		res := l.db.Model(&courseModels.Enrollment{}).
			Where("id = ? AND paid_sections = ? AND is_deleted = ?",
				current.ID, oldSections, false).
			Update("paid_sections", datatypes.NewJSONSlice(newSections))
		if res.Error != nil {
			return false, res.Error
		}
		if res.RowsAffected > 0 {
			return true, nil
		}

		// lost the race: reload and re-check membership
		reloaded, err := l.FindByID(current.ID)
		if err != nil {
			return false, err
		}
		if reloaded == nil {
			return false, ErrNotEnrolled
		}
		current = reloaded
	}
	return false, errors.New("paid sections update contention")
}

// RecordProgress writes the progress percent and stamps CompletedAt
// exactly once when the course first reaches 100. Returns whether this
// call performed that transition, which is what triggers certificate
// evaluation.
func (l *Ledger) RecordProgress(enrollmentID uint, percent float64) (*courseModels.Enrollment, bool, error) {
	enrollment, err := l.FindByID(enrollmentID)
	if err != nil {
		return nil, false, err
	}
	if enrollment == nil {
		return nil, false, ErrNotEnrolled
	}

	if err := l.db.Model(enrollment).Update("progress_percent", percent).Error; err != nil {
		return nil, false, err
	}

	completedNow := false
	if percent >= 100 {
		// guarded by completed_at IS NULL so replays never restamp
		res := l.db.Model(&courseModels.Enrollment{}).
			Where("id = ? AND completed_at IS NULL", enrollmentID).
			Update("completed_at", time.Now())
		if res.Error != nil {
			return nil, false, res.Error
		}
		completedNow = res.RowsAffected > 0
	}

	updated, err := l.FindByID(enrollmentID)
	if err != nil {
		return nil, false, err
	}
	return updated, completedNow, nil
}

// AccumulateScore additively bumps the enrollment's score accumulators.
// Repeated attempts on the same quiz accumulate rather than replace; a
// best-attempt or latest-attempt policy would replace this one call.
func (l *Ledger) AccumulateScore(enrollmentID uint, score, maxScore int) error {
	res := l.db.Model(&courseModels.Enrollment{}).
		Where("id = ? AND is_deleted = ?", enrollmentID, false).
		Updates(map[string]interface{}{
			"total_score":        gorm.Expr("total_score + ?", score),
			"max_possible_score": gorm.Expr("max_possible_score + ?", maxScore),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotEnrolled
	}
	return nil
}
