// Package server contains the HTTP handlers and middleware wiring for the API.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	_ "huddle/docs" // swagger docs
	"huddle/internal/cache"
	"huddle/internal/config"
	"huddle/internal/database"
	"huddle/internal/middleware"
	"huddle/internal/models"
	"huddle/internal/observability"
	"huddle/internal/repository"
	"huddle/internal/service"
	"huddle/internal/upload"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
)

// Per-user quotas on write routes.
var (
	createPostLimit = middleware.Limit{Name: "create_post", Requests: 10, Window: 5 * time.Minute}
	commentLimit    = middleware.Limit{Name: "create_comment", Requests: 10, Window: time.Minute}
	flagPostLimit   = middleware.Limit{Name: "flag_post", Requests: 5, Window: 10 * time.Minute, Policy: middleware.FailClosed}
)

// Server holds all dependencies and provides handlers
type Server struct {
	config             *config.Config
	store              *repository.Store
	redis              *redis.Client
	uploader           upload.Uploader
	app                *fiber.App
	promMiddleware     *fiberprometheus.FiberPrometheus
	postService        *service.PostService
	flaggedPostService *service.FlaggedPostService
	userService        *service.UserService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := database.OpenStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)

	server, err := NewServerWithDeps(cfg, store, cache.GetClient(), upload.NewDiskUploader(cfg))
	if err != nil {
		return nil, err
	}
	server.promMiddleware = middleware.InitMetrics("huddle-api")
	return server, nil
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Tests use it with an in-memory or sqlite store and no metrics.
func NewServerWithDeps(cfg *config.Config, store *repository.Store, redisClient *redis.Client, uploader upload.Uploader) (*Server, error) {
	if cfg == nil || store == nil {
		return nil, fmt.Errorf("server requires a config and a store")
	}

	server := &Server{
		config:   cfg,
		store:    store,
		redis:    redisClient,
		uploader: uploader,
	}

	opts := service.Options{EmptyListNotFound: cfg.EmptyListNotFound}
	server.userService = service.NewUserService(store.Users)
	server.postService = service.NewPostService(store.Posts, store.Users, uploader, server.userService.IsAdmin, opts)
	server.flaggedPostService = service.NewFlaggedPostService(store.FlaggedPosts, store.Posts, store.Users,
		server.userService.IsAdmin, opts)

	return server, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())

	app.Use(requestid.New(requestid.Config{
		Generator: observability.NewCorrelationID,
	}))

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	app.Use(middleware.TracingMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))

	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET,POST,PATCH,DELETE,OPTIONS",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return models.Respond(c, fiber.StatusTooManyRequests, "Too many requests, please try again later.", nil)
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/", s.Welcome)

	app.Static(s.uploadBaseURL(), s.uploadDir())

	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	app.Get("/swagger/*", swagger.HandlerDefault)

	posts := app.Group("/posts", s.AuthRequired())
	posts.Get("/all", s.AdminRequired(), s.GetPosts)
	posts.Get("/find/:id", s.GetPost)
	posts.Post("/add", middleware.RateLimit(s.redis, createPostLimit), s.CreatePost)
	posts.Patch("/update-content/:id", s.UpdatePostContent)
	posts.Patch("/update-privacy/:id", s.UpdatePostPrivacy)
	posts.Patch("/update-likes/:id", s.UpdatePostLikes)
	posts.Patch("/update-comments/:id", middleware.RateLimit(s.redis, commentLimit), s.UpdatePostComments)
	posts.Delete("/delete/:id", s.DeletePost)

	flagged := app.Group("/flagged-posts", s.AuthRequired())
	flagged.Get("/all", s.AdminRequired(), s.GetFlaggedPosts)
	flagged.Post("/add", middleware.RateLimit(s.redis, flagPostLimit), s.FlagPost)

	users := app.Group("/users", s.AuthRequired())
	users.Get("/find/:id", s.GetUser)

	app.Use(s.NotFound)
}

// Welcome handles GET /
func (s *Server) Welcome(c *fiber.Ctx) error {
	return models.Respond(c, fiber.StatusOK, "Welcome to the server!", nil)
}

// NotFound answers every unmatched route.
func (s *Server) NotFound(c *fiber.Ctx) error {
	return models.Respond(c, fiber.StatusNotFound, "Route not found", nil)
}

// NewApp builds a Fiber app with middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	maxSizeMB := s.config.UploadMaxSizeMB
	if maxSizeMB <= 0 {
		maxSizeMB = upload.DefaultMaxSizeMB
	}

	app := fiber.New(fiber.Config{
		AppName:      "Huddle API",
		BodyLimit:    (maxSizeMB + 1) * 1024 * 1024,
		ErrorHandler: s.errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	if models.StatusCode(err) >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "unhandled request error",
			slog.String("path", c.Path()),
			slog.String("error", err.Error()),
		)
	}
	return models.RespondWithError(c, err)
}

// Start starts the server
func (s *Server) Start() error {
	s.app = s.NewApp()

	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if err := s.store.Close(ctx); err != nil {
		middleware.Logger.Error("error closing store", slog.String("error", err.Error()))
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", err.Error()))
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}

func (s *Server) uploadDir() string {
	if s.config.UploadDir != "" {
		return s.config.UploadDir
	}
	return upload.DefaultDir
}

func (s *Server) uploadBaseURL() string {
	if s.config.UploadBaseURL != "" {
		return s.config.UploadBaseURL
	}
	return upload.DefaultBaseURL
}
