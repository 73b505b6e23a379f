package routes

import (
	"context"

	"learnify/backend/config"
	"learnify/backend/controllers"
	"learnify/backend/middleware"
	"learnify/backend/notify"
	"learnify/backend/services"
	"learnify/backend/storage"
	"learnify/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Deps is everything the HTTP layer needs.
type Deps struct {
	DB           *gorm.DB
	Cfg          *config.Config
	Log          *utils.Logger
	Store        storage.Store
	Hub          *notify.Hub
	Certificates *services.CertificateRenderer
	// Shutdown is cancelled when the server stops; open streams end with it.
	Shutdown context.Context
}

func SetupRoutes(app *fiber.App, d Deps) {
	if d.Shutdown == nil {
		d.Shutdown = context.Background()
	}

	// Local media
	if local, ok := d.Store.(*storage.LocalStore); ok {
		app.Static(storage.MediaRoute, local.Dir())
	}

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Middleware
	authMiddleware := middleware.AuthMiddleware(d.Cfg)
	adminMiddleware := middleware.AdminMiddleware()
	learnerMiddleware := middleware.LearnerMiddleware()

	// Auth routes
	authController := controllers.NewAuthController(d.DB, d.Cfg, d.Log)
	auth := app.Group("/api/auth")
	auth.Post("/register", authController.Register)
	auth.Post("/login", authController.Login)
	auth.Get("/me", authMiddleware, authController.Me)

	// User routes
	userController := controllers.NewUserController(d.DB, d.Cfg, d.Store, d.Log)
	user := app.Group("/api/user", authMiddleware)
	user.Get("/profile", userController.GetProfile)
	user.Put("/profile", userController.UpdateProfile)
	user.Put("/password", userController.ChangePassword)
	user.Post("/profile/picture", userController.UploadProfilePicture)

	// Notification routes
	notificationsController := controllers.NewNotificationsController(d.DB, d.Cfg, d.Hub, d.Shutdown, d.Log)
	notifications := app.Group("/api/notifications", authMiddleware)
	notifications.Get("/", notificationsController.List)
	notifications.Post("/", notificationsController.Create)
	notifications.Get("/stream", notificationsController.Stream)
	notifications.Put("/:id", notificationsController.Update)
	notifications.Delete("/:id", notificationsController.Delete)

	// Learner routes
	coursesController := controllers.NewCoursesController(d.DB, d.Cfg, d.Store, d.Log)
	progressController := controllers.NewProgressController(d.DB, d.Cfg, d.Log)
	quizController := controllers.NewQuizController(d.DB, d.Cfg, d.Log)
	certificatesController := controllers.NewCertificatesController(d.DB, d.Cfg, d.Certificates, d.Log)
	analyticsController := controllers.NewAnalyticsController(d.DB, d.Cfg, d.Log)

	courses := app.Group("/api/courses", authMiddleware, learnerMiddleware)
	courses.Get("/", coursesController.ListCourses)
	courses.Get("/enrolled", coursesController.GetEnrolledCourses)
	courses.Get("/:id", coursesController.GetCourse)
	courses.Post("/:id/enroll", coursesController.Enroll)
	courses.Get("/:id/lectures", coursesController.GetLectures)
	courses.Post("/:id/lectures/:number/toggle", progressController.ToggleLecture)
	courses.Get("/:id/quiz", quizController.GetQuiz)
	courses.Post("/:id/quiz/submit", quizController.SubmitQuiz)

	progress := app.Group("/api/progress", authMiddleware, learnerMiddleware)
	progress.Get("/", progressController.GetProgress)
	progress.Get("/completion-map", progressController.GetCompletionMap)

	usage := app.Group("/api/usage", authMiddleware, learnerMiddleware)
	usage.Get("/", progressController.GetUsage)
	usage.Post("/sessions", progressController.RecordSession)

	app.Get("/api/quiz/submissions", authMiddleware, learnerMiddleware, quizController.GetSubmissions)

	certificates := app.Group("/api/certificates", authMiddleware, learnerMiddleware)
	certificates.Get("/", certificatesController.ListCertificates)
	certificates.Get("/:courseId", certificatesController.DownloadCertificate)

	app.Get("/api/dashboard", authMiddleware, learnerMiddleware, analyticsController.UserDashboard)

	// Admin routes
	admin := app.Group("/api/admin", authMiddleware, adminMiddleware)
	admin.Get("/dashboard", analyticsController.AdminDashboard)

	adminCourses := admin.Group("/courses")
	adminCourses.Post("/", coursesController.CreateCourse)
	adminCourses.Get("/", coursesController.AdminListCourses)
	adminCourses.Get("/:id", coursesController.AdminGetCourse)
	adminCourses.Put("/:id", coursesController.UpdateCourse)
	adminCourses.Delete("/:id", coursesController.DeleteCourse)
	adminCourses.Post("/:id/lectures", coursesController.UploadLectures)
	adminCourses.Get("/:id/lectures", coursesController.GetLectureSlots)
	adminCourses.Put("/:id/quiz", quizController.SaveQuiz)
	adminCourses.Get("/:id/quiz", quizController.AdminGetQuiz)
}
