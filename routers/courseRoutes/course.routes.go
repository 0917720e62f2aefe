package courseRoutes

import (
	controllers "lms/controllers/course"
	"lms/middleware"
	validators "lms/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SetupCourseRoutes sets up all learner-facing course routes
func SetupCourseRoutes(app *fiber.App, ctrl *controllers.Controller) {
	userGroup := app.Group("/course")

	// Catalog and content
	userGroup.Get("/list", middleware.JWTMiddleware, ctrl.GetCourses)
	userGroup.Get("/:id/content", middleware.JWTMiddleware, validators.CourseID(), ctrl.GetCourseContent)

	// Enrollment (free courses only; paid courses go through /payment)
	userGroup.Post("/:id/enroll", middleware.JWTMiddleware, validators.CourseID(), ctrl.EnrollFree)

	// Progress
	userGroup.Post("/:course_id/lecture/:lecture_id/complete", middleware.JWTMiddleware, validators.LectureParams(), ctrl.MarkLectureComplete)
	userGroup.Get("/:id/progress", middleware.JWTMiddleware, validators.CourseID(), ctrl.GetProgress)

	// Graded work
	userGroup.Post("/:course_id/lecture/:lecture_id/quiz/submit", middleware.JWTMiddleware, validators.LectureParams(), validators.SubmitQuiz(), ctrl.SubmitQuiz)
	userGroup.Post("/:course_id/lecture/:lecture_id/assignment/submit", middleware.JWTMiddleware, validators.LectureParams(), validators.SubmitAssignment(), ctrl.SubmitAssignment)

	// Per-user dashboards
	userDashGroup := app.Group("/user")
	userDashGroup.Get("/enrollments", middleware.JWTMiddleware, ctrl.GetUserEnrollments)
	userDashGroup.Get("/certificates", middleware.JWTMiddleware, ctrl.GetUserCertificates)
}
