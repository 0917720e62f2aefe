package main

import (
	"log"
	"time"

	"lms/certs"
	"lms/config"
	courseControllers "lms/controllers/course"
	paymentControllers "lms/controllers/payment"
	"lms/database"
	"lms/ledger"
	"lms/payment"
	authRoutes "lms/routers/authRoutes"
	courseRoutes "lms/routers/courseRoutes"
	paymentRoutes "lms/routers/paymentRoutes"
	"lms/scoring"
	"lms/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func main() {
	config.LoadConfig()
	database.ConnectDb()

	gateway := payment.NewPaystackClient(
		config.AppConfig.PaystackBaseURL,
		config.AppConfig.PaystackSecretKey,
		time.Duration(config.AppConfig.GatewayTimeoutSec)*time.Second,
	)

	enrollmentLedger := ledger.NewLedger(database.Database.Db)
	scoringEngine := scoring.NewEngine(database.Database.Db, enrollmentLedger)
	certStore := utils.NewLocalObjectStore(config.AppConfig.UploadDir, config.AppConfig.AppURL+"/uploads")
	certEngine := certs.NewEngine(database.Database.Db, certStore)

	paymentCtrl := paymentControllers.NewController(
		database.Database.Db,
		gateway,
		enrollmentLedger,
		config.AppConfig.PaystackSecretKey,
		config.AppConfig.AppURL,
	)
	courseCtrl := courseControllers.NewController(
		database.Database.Db,
		enrollmentLedger,
		scoringEngine,
		certEngine,
	)

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE",
		AllowHeaders: "Content-Type,Authorization",
	}))

	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
	}))

	// Certificate artifacts are written to UploadDir and served from here
	app.Static("/uploads", config.AppConfig.UploadDir)

	authRoutes.SetupAuthRoutes(app)
	paymentRoutes.SetupPaymentRoutes(app, paymentCtrl)
	courseRoutes.SetupCourseRoutes(app, courseCtrl)
	courseRoutes.SetupAdminCourseRoutes(app, courseCtrl)

	log.Printf("Server is running on port %s", config.AppConfig.Port)
	log.Fatal(app.Listen(":" + config.AppConfig.Port))
}
