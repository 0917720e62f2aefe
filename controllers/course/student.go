package courseController

import (
	"errors"
	"log"
	"time"

	"lms/access"
	"lms/certs"
	"lms/ledger"
	"lms/middleware"
	"lms/models"
	courseModels "lms/models/course"
	"lms/scoring"
	courseValidator "lms/validators/course"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Controller serves the learner-facing course surface: enrollment,
// content access, progress, quizzes, assignments, certificates.
type Controller struct {
	DB      *gorm.DB
	Ledger  *ledger.Ledger
	Scoring *scoring.Engine
	Certs   *certs.Engine
}

func NewController(db *gorm.DB, l *ledger.Ledger, s *scoring.Engine, ce *certs.Engine) *Controller {
	return &Controller{DB: db, Ledger: l, Scoring: s, Certs: ce}
}

func (ctrl *Controller) currentUser(c *fiber.Ctx) (*models.User, error) {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return nil, errors.New("unauthorized")
	}
	var user models.User
	if err := ctrl.DB.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// loadCourseTree fetches a course with its live sections and lectures in
// display order
func (ctrl *Controller) loadCourseTree(courseID uint) (*courseModels.Course, error) {
	var course courseModels.Course
	err := ctrl.DB.
		Preload("Sections", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_deleted = ?", false).Order("order_index asc")
		}).
		Preload("Sections.Lectures", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_deleted = ?", false).Order("order_index asc")
		}).
		Where("id = ? AND is_deleted = ?", courseID, false).
		First(&course).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

// EnrollFree enrolls the learner into a free course directly as COMPLETED
func (ctrl *Controller) EnrollFree(c *fiber.Ctx) error {
	user, err := ctrl.currentUser(c)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	courseID := c.Locals("courseID").(uint)

	enrollment, err := ctrl.Ledger.EnrollFree(user.ID, courseID)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrCourseNotFound):
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found or inactive!", nil)
		case errors.Is(err, ledger.ErrCourseIsPaid):
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "This is a paid course!", nil)
		case errors.Is(err, ledger.ErrAlreadyEnrolled):
			return middleware.JsonResponse(c, fiber.StatusConflict, false, "Already enrolled in this course!", nil)
		default:
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to enroll in course!", nil)
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrolled in course successfully!", enrollment)
}

// GetCourses lists active courses with the learner's enrollment flag
func (ctrl *Controller) GetCourses(c *fiber.Ctx) error {
	user, err := ctrl.currentUser(c)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var courses []courseModels.Course
	if err := ctrl.DB.Where("is_active = ? AND is_deleted = ?", true, false).
		Order("created_at desc").Find(&courses).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch courses!", nil)
	}

	var enrollments []courseModels.Enrollment
	ctrl.DB.Where("user_id = ? AND payment_status = ? AND is_deleted = ?",
		user.ID, courseModels.PaymentStatusCompleted, false).Find(&enrollments)

	enrolled := make(map[uint]bool, len(enrollments))
	for _, e := range enrollments {
		enrolled[e.CourseID] = true
	}

	type courseWithFlag struct {
		courseModels.Course
		IsEnrolled bool `json:"is_enrolled"`
	}
	result := make([]courseWithFlag, len(courses))
	for i, course := range courses {
		result[i] = courseWithFlag{Course: course, IsEnrolled: enrolled[course.ID]}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Courses fetched successfully!", result)
}

// GetCourseContent returns the content tree with per-section lock state.
// Requires a COMPLETED enrollment; locked sections keep their metadata but
// drop the lecture payloads.
func (ctrl *Controller) GetCourseContent(c *fiber.Ctx) error {
	user, err := ctrl.currentUser(c)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	courseID := c.Locals("courseID").(uint)

	enrollment, err := ctrl.Ledger.Find(user.ID, courseID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to check enrollment!", nil)
	}
	if enrollment == nil || enrollment.PaymentStatus != courseModels.PaymentStatusCompleted {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Not enrolled in this course!", nil)
	}

	course, err := ctrl.loadCourseTree(courseID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	type sectionView struct {
		courseModels.Section
		IsAccessible bool `json:"is_accessible"`
	}
	sections := make([]sectionView, len(course.Sections))
	for i := range course.Sections {
		section := course.Sections[i]
		accessible := access.IsSectionAccessible(&section, enrollment)
		if !accessible {
			// locked content stays listed but its payload is withheld
			for j := range section.Lectures {
				section.Lectures[j].VideoURL = ""
				section.Lectures[j].TextContent = ""
				section.Lectures[j].PdfURL = ""
			}
		}
		sections[i] = sectionView{Section: section, IsAccessible: accessible}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course content fetched successfully!", fiber.Map{
		"course":     course,
		"sections":   sections,
		"enrollment": enrollment,
	})
}

// MarkLectureComplete records one lecture completion and recomputes the
// enrollment's progress percent over accessible lectures only
func (ctrl *Controller) MarkLectureComplete(c *fiber.Ctx) error {
	user, err := ctrl.currentUser(c)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	courseID := c.Locals("courseID").(uint)
	lectureID := c.Locals("lectureID").(uint)

	enrollment, course, _, _, err := ctrl.requireAccessibleLecture(user.ID, courseID, lectureID)
	if err != nil {
		return lectureAccessResponse(c, err)
	}

	// idempotent: completing twice is a no-op
	var existing courseModels.LectureCompletion
	err = ctrl.DB.Where("user_id = ? AND lecture_id = ? AND is_deleted = ?", user.ID, lectureID, false).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		completion := courseModels.LectureCompletion{
			UserID:    user.ID,
			CourseID:  courseID,
			LectureID: lectureID,
		}
		if err := ctrl.DB.Create(&completion).Error; err != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to record completion!", nil)
		}
	} else if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to record completion!", nil)
	}

	percent := ctrl.computeProgress(user.ID, course, enrollment)
	updated, _, err := ctrl.Ledger.RecordProgress(enrollment.ID, percent)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update progress!", nil)
	}

	certificate := ctrl.evaluateCertificate(course, updated, user)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lecture marked as complete!", fiber.Map{
		"progress_percent":   updated.ProgressPercent,
		"completed_at":       updated.CompletedAt,
		"certificate_issued": certificate != nil,
	})
}

// GetProgress returns the enrollment's progress and score state
func (ctrl *Controller) GetProgress(c *fiber.Ctx) error {
	user, err := ctrl.currentUser(c)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	courseID := c.Locals("courseID").(uint)

	enrollment, err := ctrl.Ledger.Find(user.ID, courseID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch progress!", nil)
	}
	if enrollment == nil {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Not enrolled in this course!", nil)
	}

	var completions []courseModels.LectureCompletion
	ctrl.DB.Where("user_id = ? AND course_id = ? AND is_deleted = ?", user.ID, courseID, false).
		Find(&completions)
	completedIDs := make([]uint, len(completions))
	for i, completion := range completions {
		completedIDs[i] = completion.LectureID
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Progress fetched successfully!", fiber.Map{
		"enrollment":    enrollment,
		"completed_ids": completedIDs,
		"score_percent": certs.ScorePercent(enrollment.TotalScore, enrollment.MaxPossibleScore),
	})
}

// SubmitQuiz grades a quiz submission, appends the attempt, accumulates
// the score, and re-evaluates the certificate policy
func (ctrl *Controller) SubmitQuiz(c *fiber.Ctx) error {
	user, err := ctrl.currentUser(c)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	courseID := c.Locals("courseID").(uint)
	lectureID := c.Locals("lectureID").(uint)

	reqData, ok := c.Locals("validatedQuizSubmit").(*courseValidator.QuizSubmitRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	enrollment, course, _, lecture, err := ctrl.requireAccessibleLecture(user.ID, courseID, lectureID)
	if err != nil {
		return lectureAccessResponse(c, err)
	}
	if !lecture.HasQuiz() {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Lecture has no quiz!", nil)
	}

	var quiz courseModels.Quiz
	err = ctrl.DB.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Where("is_deleted = ?", false).Order("order_index asc")
	}).Where("lecture_id = ? AND is_deleted = ?", lectureID, false).First(&quiz).Error
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Quiz not found for this lecture!", nil)
	}

	result, err := ctrl.Scoring.SubmitAttempt(user.ID, &quiz, enrollment.ID, reqData.Answers)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to submit quiz!", nil)
	}

	// an improved score can satisfy a min-score gate on an already
	// completed course, so the policy is re-checked here too
	updated, err := ctrl.Ledger.FindByID(enrollment.ID)
	if err != nil || updated == nil {
		updated = enrollment
	}
	certificate := ctrl.evaluateCertificate(course, updated, user)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Quiz submitted!", fiber.Map{
		"score":              result.Score,
		"max_score":          result.MaxScore,
		"total_score":        updated.TotalScore,
		"max_possible_score": updated.MaxPossibleScore,
		"certificate_issued": certificate != nil,
	})
}

// SubmitAssignment appends an assignment submission; earlier submissions
// are kept, the newest is the one shown
func (ctrl *Controller) SubmitAssignment(c *fiber.Ctx) error {
	user, err := ctrl.currentUser(c)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	courseID := c.Locals("courseID").(uint)
	lectureID := c.Locals("lectureID").(uint)

	reqData, ok := c.Locals("validatedAssignmentSubmit").(*courseValidator.AssignmentSubmitRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	if _, _, _, lecture, err := ctrl.requireAccessibleLecture(user.ID, courseID, lectureID); err != nil {
		return lectureAccessResponse(c, err)
	} else if !lecture.HasAssignment() {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Lecture has no assignment!", nil)
	}

	var assignment courseModels.Assignment
	if err := ctrl.DB.Where("lecture_id = ? AND is_deleted = ?", lectureID, false).
		First(&assignment).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Assignment not found for this lecture!", nil)
	}

	submission := courseModels.Submission{
		UserID:       user.ID,
		LectureID:    lectureID,
		AssignmentID: assignment.ID,
		Content:      reqData.Content,
		SubmittedAt:  time.Now(),
	}
	if err := ctrl.DB.Create(&submission).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to submit assignment!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Assignment submitted!", submission)
}

// GetUserEnrollments lists the learner's paid-up enrollments
func (ctrl *Controller) GetUserEnrollments(c *fiber.Ctx) error {
	user, err := ctrl.currentUser(c)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var enrollments []courseModels.Enrollment
	if err := ctrl.DB.Where("user_id = ? AND payment_status = ? AND is_deleted = ?",
		user.ID, courseModels.PaymentStatusCompleted, false).
		Order("enrolled_at desc").Find(&enrollments).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch enrollments!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollments fetched successfully!", enrollments)
}

// GetUserCertificates lists the learner's issued certificates
func (ctrl *Controller) GetUserCertificates(c *fiber.Ctx) error {
	user, err := ctrl.currentUser(c)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	type certificateWithCourse struct {
		courseModels.Certificate
		CourseTitle string `json:"course_title"`
	}

	var certificates []courseModels.Certificate
	if err := ctrl.DB.Where("user_id = ? AND is_deleted = ?", user.ID, false).
		Order("issued_at desc").Find(&certificates).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch certificates!", nil)
	}

	result := make([]certificateWithCourse, len(certificates))
	for i, certificate := range certificates {
		var course courseModels.Course
		ctrl.DB.Where("id = ?", certificate.CourseID).First(&course)
		result[i] = certificateWithCourse{Certificate: certificate, CourseTitle: course.Title}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificates fetched successfully!", result)
}

var (
	errNotEnrolled     = errors.New("not enrolled")
	errSectionLocked   = errors.New("section locked")
	errCourseMissing   = errors.New("course missing")
	errLectureMissing  = errors.New("lecture missing")
	errEnrollmentCheck = errors.New("enrollment check failed")
)

// requireAccessibleLecture loads the enrollment, course tree, and lecture,
// enforcing COMPLETED payment and section accessibility
func (ctrl *Controller) requireAccessibleLecture(userID, courseID, lectureID uint) (*courseModels.Enrollment, *courseModels.Course, *courseModels.Section, *courseModels.Lecture, error) {
	enrollment, err := ctrl.Ledger.Find(userID, courseID)
	if err != nil {
		return nil, nil, nil, nil, errEnrollmentCheck
	}
	if enrollment == nil || enrollment.PaymentStatus != courseModels.PaymentStatusCompleted {
		return nil, nil, nil, nil, errNotEnrolled
	}

	course, err := ctrl.loadCourseTree(courseID)
	if err != nil {
		return nil, nil, nil, nil, errCourseMissing
	}

	for i := range course.Sections {
		section := &course.Sections[i]
		for j := range section.Lectures {
			if section.Lectures[j].ID != lectureID {
				continue
			}
			if !access.IsSectionAccessible(section, enrollment) {
				return nil, nil, nil, nil, errSectionLocked
			}
			return enrollment, course, section, &section.Lectures[j], nil
		}
	}
	return nil, nil, nil, nil, errLectureMissing
}

func lectureAccessResponse(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, errNotEnrolled):
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Not enrolled in this course!", nil)
	case errors.Is(err, errSectionLocked):
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Section is locked!", nil)
	case errors.Is(err, errCourseMissing):
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	case errors.Is(err, errLectureMissing):
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Lecture not found in this course!", nil)
	default:
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to check enrollment!", nil)
	}
}

// computeProgress recomputes the completion ratio over accessible lectures
func (ctrl *Controller) computeProgress(userID uint, course *courseModels.Course, enrollment *courseModels.Enrollment) float64 {
	accessible := access.AccessibleLectureIDs(course, enrollment)

	var completions []courseModels.LectureCompletion
	ctrl.DB.Where("user_id = ? AND course_id = ? AND is_deleted = ?", userID, course.ID, false).
		Find(&completions)

	completed := 0
	for _, completion := range completions {
		if accessible[completion.LectureID] {
			completed++
		}
	}
	return access.ProgressPercent(completed, access.AccessibleLectureCount(course, enrollment))
}

func (ctrl *Controller) evaluateCertificate(course *courseModels.Course, enrollment *courseModels.Enrollment, user *models.User) *courseModels.Certificate {
	certificate, err := ctrl.Certs.Evaluate(course, enrollment, user.FullName())
	if err != nil {
		// completion state matters more than certificate availability;
		// issuance retries on the next evaluation since no row exists yet
		log.Printf("certs: issuance failed user=%d course=%d: %v", user.ID, course.ID, err)
		return nil
	}
	return certificate
}
