package server

import (
	"log"

	"talkzilla/internal/bootstrap"
	"talkzilla/internal/config"
	"talkzilla/internal/pkg/serverutils"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

type Server struct {
	app       *fiber.App
	cfg       *config.Config
	container *bootstrap.Container
}

func New(cfg *config.Config, container *bootstrap.Container) *Server {
	// Multipart overhead on top of the largest accepted file
	bodyLimit := cfg.Upload.MaxBytes + 1024*1024

	app := fiber.New(fiber.Config{
		AppName:   "Talkzilla",
		BodyLimit: bodyLimit,
	})

	// Middleware
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.App.CorsAllowedOrigins,
		AllowCredentials: cfg.App.CorsAllowedOrigins != "*", // fiber refuses credentials with a wildcard
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Api-Key",
		AllowMethods:     "GET, POST, PUT, DELETE, OPTIONS",
		ExposeHeaders:    "Content-Length, Content-Type",
	}))

	// OpenTelemetry tracing middleware (traces all HTTP requests)
	if cfg.Tracing.Enabled {
		app.Use(otelfiber.Middleware())
	}

	app.Use(serverutils.ErrorHandlerMiddleware())

	// Panics become errors for the handler above
	app.Use(recover.New())

	// Routes
	registerRoutes(app, container)

	return &Server{
		app:       app,
		cfg:       cfg,
		container: container,
	}
}

func (s *Server) GetApp() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	log.Printf("✅ Server is running on http://localhost:%s", s.cfg.App.Port)
	return s.app.Listen(":" + s.cfg.App.Port)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func registerRoutes(app *fiber.App, c *bootstrap.Container) {
	c.PageController.RegisterRoutes(app)

	api := app.Group("/api", serverutils.SessionMiddleware(c.Session))

	c.ChatController.RegisterRoutes(api)
	c.UsageController.RegisterRoutes(api)
}
