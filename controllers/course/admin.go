package courseController

import (
	"errors"

	"lms/middleware"
	courseModels "lms/models/course"
	courseValidator "lms/validators/course"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CreateCourse creates a course with its certificate policy
func (ctrl *Controller) CreateCourse(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedCreateCourse").(*courseValidator.CreateCourseRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	course := courseModels.Course{
		Title:                        reqData.Title,
		Description:                  reqData.Description,
		IsPaid:                       reqData.IsPaid,
		Price:                        reqData.Price,
		IsActive:                     true,
		CertificateEnabled:           reqData.CertificateEnabled,
		CertificateRequireCompletion: reqData.CertificateRequireCompletion,
		CertificateRequireMinScore:   reqData.CertificateRequireMinScore,
		CertificateMinScore:          reqData.CertificateMinScore,
	}

	if err := ctrl.DB.Create(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create course!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Course created successfully!", course)
}

// CreateSection adds a section to a course; a section can carry its own
// price independent of the course purchase
func (ctrl *Controller) CreateSection(c *fiber.Ctx) error {
	courseID := c.Locals("courseID").(uint)

	reqData, ok := c.Locals("validatedCreateSection").(*courseValidator.CreateSectionRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	var course courseModels.Course
	if err := ctrl.DB.Where("id = ? AND is_deleted = ?", courseID, false).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	section := courseModels.Section{
		CourseID:    courseID,
		Title:       reqData.Title,
		Description: reqData.Description,
		OrderIndex:  reqData.OrderIndex,
		IsPaid:      reqData.IsPaid,
		Price:       reqData.Price,
	}

	if err := ctrl.DB.Create(&section).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create section!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Section created successfully!", section)
}

// CreateLecture adds a lecture and auto-provisions the backing Quiz or
// Assignment record its type requires
func (ctrl *Controller) CreateLecture(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedCreateLecture").(*courseValidator.CreateLectureRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	var section courseModels.Section
	if err := ctrl.DB.Where("id = ? AND is_deleted = ?", reqData.SectionID, false).First(&section).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Section not found!", nil)
	}

	lecture := courseModels.Lecture{
		SectionID:   reqData.SectionID,
		Title:       reqData.Title,
		Type:        reqData.Type,
		OrderIndex:  reqData.OrderIndex,
		VideoURL:    reqData.VideoURL,
		TextContent: reqData.TextContent,
		PdfURL:      reqData.PdfURL,
	}

	if err := ctrl.DB.Create(&lecture).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create lecture!", nil)
	}

	if err := ctrl.provisionLectureBacking(&lecture); err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to provision lecture content!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Lecture created successfully!", lecture)
}

// SetQuizQuestions replaces the question list of a lecture's quiz
func (ctrl *Controller) SetQuizQuestions(c *fiber.Ctx) error {
	lectureID := c.Locals("lectureID").(uint)

	reqData, ok := c.Locals("validatedSetQuizQuestions").(*courseValidator.SetQuizQuestionsRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	var lecture courseModels.Lecture
	if err := ctrl.DB.Where("id = ? AND is_deleted = ?", lectureID, false).First(&lecture).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Lecture not found!", nil)
	}
	if !lecture.HasQuiz() {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Lecture has no quiz!", nil)
	}

	if err := ctrl.provisionLectureBacking(&lecture); err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to provision quiz!", nil)
	}

	var quiz courseModels.Quiz
	if err := ctrl.DB.Where("lecture_id = ? AND is_deleted = ?", lectureID, false).First(&quiz).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Quiz not found!", nil)
	}

	err := ctrl.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quiz_id = ?", quiz.ID).Delete(&courseModels.QuizQuestion{}).Error; err != nil {
			return err
		}
		for i, q := range reqData.Questions {
			question := courseModels.QuizQuestion{
				QuizID:       quiz.ID,
				OrderIndex:   i,
				Question:     q.Question,
				Options:      datatypes.NewJSONSlice(q.Options),
				CorrectIndex: q.CorrectIndex,
			}
			if err := tx.Create(&question).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to save questions!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Quiz questions saved!", fiber.Map{
		"quizId":    quiz.ID,
		"questions": len(reqData.Questions),
	})
}

// provisionLectureBacking ensures the Quiz/Assignment row a lecture type
// requires exists, so the student runner never hits "not configured"
func (ctrl *Controller) provisionLectureBacking(lecture *courseModels.Lecture) error {
	if lecture.HasQuiz() {
		var quiz courseModels.Quiz
		err := ctrl.DB.Where("lecture_id = ?", lecture.ID).First(&quiz).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ctrl.DB.Create(&courseModels.Quiz{
				LectureID: lecture.ID,
				Title:     lecture.Title,
			}).Error
		}
		return err
	}

	if lecture.HasAssignment() {
		var assignment courseModels.Assignment
		err := ctrl.DB.Where("lecture_id = ?", lecture.ID).First(&assignment).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ctrl.DB.Create(&courseModels.Assignment{
				LectureID: lecture.ID,
				Title:     lecture.Title,
			}).Error
		}
		return err
	}

	return nil
}
