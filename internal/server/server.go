// Package server contains the HTTP and WebSocket handlers of the paddock feed.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "paddock/docs" // swagger docs
	"paddock/internal/cache"
	"paddock/internal/config"
	"paddock/internal/database"
	"paddock/internal/middleware"
	"paddock/internal/models"
	"paddock/internal/notifications"
	"paddock/internal/repository"
	"paddock/internal/service"
	"paddock/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc
	notifier       *notifications.Notifier
	feedHub        *notifications.FeedHub
	photoStore     storage.PhotoStore

	authService     *service.AuthService
	catalogService  *service.CatalogService
	postService     *service.PostService
	reactionService *service.ReactionService
	pollService     *service.PollService
	profileService  *service.ProfileService
}

// NewServer connects to the database, Redis and the photo store described by
// cfg and builds a server on top of them.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)

	store, err := storage.New(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("photo storage setup failed: %w", err)
	}

	return NewServerWithDeps(cfg, db, cache.GetClient(), store)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis and optionally
// performs explicit seeding. redisClient may be nil.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, store storage.PhotoStore) (*Server, error) {
	if db == nil {
		return nil, errors.New("database is required")
	}
	if store == nil {
		return nil, errors.New("photo store is required")
	}

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	reactionRepo := repository.NewReactionRepository(db)
	pollRepo := repository.NewPollRepository(db)

	notifier := notifications.NewNotifier(redisClient)
	photos := service.NewPhotoService(store, cfg.PhotoMaxUploadSizeMB)
	catalog := service.NewCatalogService(
		repository.NewCatalogRepository(db),
		repository.NewRaceWeekendRepository(db),
		notifier,
	)
	posts := service.NewPostService(postRepo, reactionRepo, pollRepo, catalog, photos, notifier)

	middleware.RateLimitEnabled = cfg.RateLimitEnabled

	return &Server{
		config:          cfg,
		db:              db,
		redis:           redisClient,
		promMiddleware:  middleware.InitMetrics("paddock-api"),
		notifier:        notifier,
		feedHub:         notifications.NewFeedHub(),
		photoStore:      store,
		authService:     service.NewAuthService(userRepo, cfg, redisClient),
		catalogService:  catalog,
		postService:     posts,
		reactionService: service.NewReactionService(postRepo, reactionRepo, notifier),
		pollService:     service.NewPollService(pollRepo, notifier),
		profileService:  service.NewProfileService(userRepo, postRepo, posts),
	}, nil
}

// NewApp builds the fiber application with middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Paddock",
		BodyLimit:    (s.maxUploadMB() + 1) * 1024 * 1024,
		ErrorHandler: s.errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

func (s *Server) maxUploadMB() int {
	if s.config.PhotoMaxUploadSizeMB > 0 {
		return s.config.PhotoMaxUploadSizeMB
	}
	return 10
}

// errorHandler reports errors that escaped a handler.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
	}
	middleware.Logger.ErrorContext(c.UserContext(), "unhandled request error",
		slog.String("path", c.Path()),
		slog.String("error", err.Error()),
	)
	return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(s.promMiddleware.Middleware)
	}

	app.Use(helmet.New(helmet.Config{
		CrossOriginEmbedderPolicy: "unsafe-none",
	}))
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:8000,http://127.0.0.1:8000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || !s.config.RateLimitEnabled
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))

	// Resolve the session once so every handler and the rate limiter see the viewer.
	app.Use(s.LoadSession())
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")
	api.Get("/monitor", monitor.New(monitor.Config{Title: "Paddock Metrics Dashboard"}))
	api.Get("/swagger/*", swagger.HandlerDefault)
	api.Get("/drivers/", s.DriversByTeam)

	if local, ok := s.photoStore.(*storage.LocalStore); ok && strings.HasPrefix(s.config.PhotoPublicBase, "/") {
		app.Static(s.config.PhotoPublicBase, local.Dir, fiber.Static{MaxAge: 3600})
	}

	app.Get("/ws/feed", s.requireUpgrade, s.FeedWebSocket())

	app.Get("/", s.Feed)

	app.Get("/register/", s.AnonymousOnly(), s.RegisterForm)
	app.Post("/register/", s.AnonymousOnly(), middleware.RateLimit(
		s.redis, 5, 10*time.Minute, "register"), s.Register)
	app.Get("/login/", s.AnonymousOnly(), s.LoginForm)
	app.Post("/login/", s.AnonymousOnly(), middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)
	app.Post("/logout/", s.LoginRequired(), s.Logout)

	app.Get("/profile/:username/", s.Profile)

	app.Get("/create/", s.LoginRequired(), s.CreatePostForm)
	app.Post("/create/", s.LoginRequired(), middleware.RateLimit(
		s.redis, 5, time.Minute, "create_post"), s.CreatePost)

	// GET on a mutation endpoint only bounces back to the feed.
	app.Get("/react/:id/:type/", s.LoginRequired(), s.redirectToFeed)
	app.Post("/react/:id/:type/", s.LoginRequired(), middleware.RateLimit(
		s.redis, 60, time.Minute, "react"), s.React)
	app.Get("/poll/vote/:option_id/", s.LoginRequired(), s.redirectToFeed)
	app.Post("/poll/vote/:option_id/", s.LoginRequired(), middleware.RateLimit(
		s.redis, 30, time.Minute, "vote"), s.VotePoll)

	// Generic /:id routes last
	app.Get("/:id/edit/", s.LoginRequired(), s.EditPostForm)
	app.Post("/:id/edit/", s.LoginRequired(), s.EditPost)
	app.Get("/:id/delete/", s.LoginRequired(), s.DeletePostConfirm)
	app.Post("/:id/delete/", s.LoginRequired(), s.DeletePost)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis is optional: the feed
// keeps working without cache, rate limits and live events.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	} else if redisStatus != "healthy" {
		overallStatus = "degraded"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"feed_sockets": s.feedHub.Count(),
		"time":         time.Now(),
	})
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	s.app = s.NewApp()

	if s.redis != nil {
		go func() {
			if err := s.feedHub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
				middleware.Logger.Error("failed to start feed wiring", slog.String("error", err.Error()))
			}
		}()
	}

	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if err := s.feedHub.Shutdown(ctx); err != nil {
		middleware.Logger.Error("error shutting down feed hub", slog.String("error", err.Error()))
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
