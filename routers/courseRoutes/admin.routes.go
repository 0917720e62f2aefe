package courseRoutes

import (
	controllers "lms/controllers/course"
	"lms/middleware"
	validators "lms/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SetupAdminCourseRoutes sets up the authoring routes
func SetupAdminCourseRoutes(app *fiber.App, ctrl *controllers.Controller) {
	adminGroup := app.Group("/admin/course")

	adminGroup.Post("/create", middleware.JWTMiddleware, middleware.AdminOnly, validators.CreateCourse(), ctrl.CreateCourse)
	adminGroup.Post("/:id/section", middleware.JWTMiddleware, middleware.AdminOnly, validators.CourseID(), validators.CreateSection(), ctrl.CreateSection)
	adminGroup.Post("/lecture", middleware.JWTMiddleware, middleware.AdminOnly, validators.CreateLecture(), ctrl.CreateLecture)

	quizGroup := app.Group("/admin/lecture")
	quizGroup.Put("/:lecture_id/quiz/questions", middleware.JWTMiddleware, middleware.AdminOnly, validators.LectureID(), validators.SetQuizQuestions(), ctrl.SetQuizQuestions)
}
