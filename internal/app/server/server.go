package server

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/sifan077/PulseTrack/config"
	"github.com/sifan077/PulseTrack/internal/app/repository"
	"github.com/sifan077/PulseTrack/internal/app/service"
	inthandler "github.com/sifan077/PulseTrack/internal/http/handler"
	"github.com/sifan077/PulseTrack/internal/http/middleware"
	"go.uber.org/zap"
)

// Dependencies bundles infrastructure dependencies required by the HTTP server.
type Dependencies struct {
	Logger    *zap.Logger
	Config    config.AppConfig
	Events    repository.EventRepository
	Summaries repository.SummaryRepository
	Redis     *redis.Client           // optional: shared rate-limit counters
	JetStream nats.JetStreamContext   // optional: event fan-out
}

// Server wraps the Fiber application and its dependencies.
type Server struct {
	app      *fiber.App
	deps     Dependencies
	limiters []*middleware.MemoryLimiter
}

// New creates a new HTTP server instance with all routes registered.
func New(deps Dependencies) *Server {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	s := &Server{
		app:  fiber.New(),
		deps: deps,
	}

	s.registerRoutes()
	return s
}

// Listen starts the Fiber server on the given address.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the Fiber server and limiter sweeps.
func (s *Server) Shutdown(ctx context.Context) error {
	for _, l := range s.limiters {
		l.Stop()
	}
	return s.app.ShutdownWithContext(ctx)
}

// App exposes the underlying Fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) registerRoutes() {
	log := s.deps.Logger
	origins := s.deps.Config.Origins()

	s.app.Use(middleware.RequestID())
	s.app.Use(middleware.Logger(log))
	s.app.Use(middleware.Recovery(log))
	s.app.Use(middleware.SecurityHeaders())
	s.app.Use(middleware.CORS(origins))

	var publisher *service.EventPublisher
	if s.deps.JetStream != nil {
		publisher = service.NewEventPublisher(s.deps.JetStream)
	}

	trackHandler := inthandler.NewTrackHandler(inthandler.TrackDeps{
		Logger:  log,
		Tracker: service.NewTrackService(s.deps.Events, publisher, log),
	})
	adminHandler := inthandler.NewAdminHandler(inthandler.AdminDeps{
		Logger:            log,
		Summaries:         service.NewSummaryService(s.deps.Summaries),
		AdminToken:        s.deps.Config.AdminToken,
		AdminPassword:     s.deps.Config.AdminPassword,
		AdminPasswordHash: s.deps.Config.AdminPasswordHash,
	})

	ipHeader := s.deps.Config.ClientIPHeader
	trackCfg := middleware.TrackRateLimitConfig()
	authCfg := middleware.AuthRateLimitConfig()
	trackLimit := middleware.RateLimit(s.newLimiter(trackCfg), trackCfg, ipHeader, log)
	authLimit := middleware.RateLimit(s.newLimiter(authCfg), authCfg, ipHeader, log)

	requireOrigin := middleware.RequireOrigin(origins)
	requireBearer := middleware.RequireBearer(s.deps.Config.AdminToken)

	s.app.Get("/health", trackHandler.Health)
	s.app.Post("/track", trackLimit, trackHandler.Track)

	auth := s.app.Group("/auth")
	{
		auth.Post("/login", requireOrigin, authLimit, adminHandler.Login)
		auth.Get("/verify", adminHandler.Verify)
		auth.Post("/logout", requireOrigin, adminHandler.Logout)
	}

	s.app.Get("/summary", requireBearer, adminHandler.Summary)
	s.app.Get("/links", requireBearer, adminHandler.Links)

	s.app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Not found"})
	})
}

// newLimiter prefers the Redis-backed counter so horizontally scaled
// deployments share state; without Redis it falls back to the process-local
// fixed-window counter.
func (s *Server) newLimiter(cfg middleware.RateLimitConfig) middleware.Limiter {
	if s.deps.Redis != nil {
		return middleware.NewRedisLimiter(s.deps.Redis, cfg.MaxRequests, cfg.Window)
	}
	mem := middleware.NewMemoryLimiter(cfg.MaxRequests, cfg.Window)
	s.limiters = append(s.limiters, mem)
	return mem
}
