package courseValidator

import (
	"strings"

	"lms/middleware"
	courseModels "lms/models/course"

	"github.com/gofiber/fiber/v2"
)

type CreateCourseRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	IsPaid      bool   `json:"isPaid"`
	Price       int64  `json:"price"`

	CertificateEnabled           bool    `json:"certificateEnabled"`
	CertificateRequireCompletion bool    `json:"certificateRequireCompletion"`
	CertificateRequireMinScore   bool    `json:"certificateRequireMinScore"`
	CertificateMinScore          float64 `json:"certificateMinScore"`
}

type CreateSectionRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	OrderIndex  int    `json:"orderIndex"`
	IsPaid      bool   `json:"isPaid"`
	Price       int64  `json:"price"`
}

type CreateLectureRequest struct {
	SectionID   uint   `json:"sectionId"`
	Title       string `json:"title"`
	Type        string `json:"type"`
	OrderIndex  int    `json:"orderIndex"`
	VideoURL    string `json:"videoUrl"`
	TextContent string `json:"textContent"`
	PdfURL      string `json:"pdfUrl"`
}

type QuizQuestionInput struct {
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
}

type SetQuizQuestionsRequest struct {
	Questions []QuizQuestionInput `json:"questions"`
}

var validLectureTypes = map[string]bool{
	courseModels.LectureTypeVideo:        true,
	courseModels.LectureTypeText:         true,
	courseModels.LectureTypeQuiz:         true,
	courseModels.LectureTypePracticeTest: true,
	courseModels.LectureTypeAssignment:   true,
	courseModels.LectureTypePDF:          true,
}

func CreateCourse() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(CreateCourseRequest)

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if strings.TrimSpace(reqData.Title) == "" {
			errors["title"] = "Title is required!"
		}
		// price is required and non-negative iff the course is paid
		if reqData.IsPaid && reqData.Price < 0 {
			errors["price"] = "Price must not be negative for a paid course!"
		}
		if !reqData.IsPaid && reqData.Price != 0 {
			errors["price"] = "Free courses cannot carry a price!"
		}
		if reqData.CertificateRequireMinScore && (reqData.CertificateMinScore < 0 || reqData.CertificateMinScore > 100) {
			errors["certificateMinScore"] = "Minimum score must be between 0 and 100!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedCreateCourse", reqData)
		return c.Next()
	}
}

func CreateSection() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(CreateSectionRequest)

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if strings.TrimSpace(reqData.Title) == "" {
			errors["title"] = "Title is required!"
		}
		if reqData.IsPaid && reqData.Price < 0 {
			errors["price"] = "Price must not be negative for a paid section!"
		}
		if !reqData.IsPaid && reqData.Price != 0 {
			errors["price"] = "Free sections cannot carry a price!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedCreateSection", reqData)
		return c.Next()
	}
}

func CreateLecture() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(CreateLectureRequest)

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if reqData.SectionID == 0 {
			errors["sectionId"] = "Section ID is required!"
		}
		if strings.TrimSpace(reqData.Title) == "" {
			errors["title"] = "Title is required!"
		}
		if !validLectureTypes[reqData.Type] {
			errors["type"] = "Invalid lecture type!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedCreateLecture", reqData)
		return c.Next()
	}
}

func SetQuizQuestions() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(SetQuizQuestionsRequest)

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		for _, q := range reqData.Questions {
			if strings.TrimSpace(q.Question) == "" {
				errors["question"] = "Question text is required!"
			}
			if len(q.Options) < 2 {
				errors["options"] = "Each question needs at least two options!"
			}
			if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
				errors["correctIndex"] = "Correct index out of range!"
			}
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedSetQuizQuestions", reqData)
		return c.Next()
	}
}
