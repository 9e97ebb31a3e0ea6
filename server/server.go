package server

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/goliatone/go-blogify/auth"
	"github.com/goliatone/go-blogify/blog"
	"github.com/goliatone/go-blogify/config"
	"github.com/goliatone/go-blogify/logging"
	"github.com/goliatone/go-blogify/persistence"
	"github.com/goliatone/go-router"
	"github.com/uptrace/bun"
)

const accessLogFormat = "${time} ${locals:requestid} ${status} ${method} ${path} ${latency}\n"

// ShutdownTimeout is the grace period used by the serve command
const ShutdownTimeout = 10 * time.Second

// Server owns the HTTP adapter and the services mounted on it
type Server struct {
	srv      router.Server[*fiber.App]
	config   *config.Config
	db       *bun.DB
	logger   logging.Logger
	workflow *auth.Workflow
	blogs    *blog.Service

	accessLog    io.Writer
	workflowOpts []auth.WorkflowOption
}

type Option func(*Server)

// WithAccessLog sets the destination of the request log, nil disables it
func WithAccessLog(w io.Writer) Option {
	return func(s *Server) {
		s.accessLog = w
	}
}

// WithWorkflowOptions are appended when the auth workflow is built
func WithWorkflowOptions(opts ...auth.WorkflowOption) Option {
	return func(s *Server) {
		s.workflowOpts = append(s.workflowOpts, opts...)
	}
}

// New wires repositories, services and controllers into a fiber app
func New(cfg *config.Config, db *bun.DB, notifier auth.Notifier, logger logging.Logger, opts ...Option) (*Server, error) {
	if logger == nil {
		logger = logging.Default("server")
	}

	s := &Server{
		config:    cfg,
		db:        db,
		logger:    logger,
		accessLog: os.Stdout,
	}
	for _, opt := range opts {
		opt(s)
	}

	tokens, err := auth.NewTokenService(auth.TokenConfig{
		SigningKey: []byte(cfg.Auth.JWTSecret),
		Issuer:     cfg.Auth.Issuer,
		AccessTTL:  cfg.Auth.AccessTTL,
		RefreshTTL: cfg.Auth.RefreshTTL,
	}, logger)
	if err != nil {
		return nil, err
	}

	repo := auth.NewRepositoryManager(db)
	if err := repo.Validate(); err != nil {
		return nil, err
	}

	workflowOpts := append([]auth.WorkflowOption{
		auth.WithLogger(logger),
		auth.WithPasswordHasher(auth.NewBcryptHasher(cfg.Auth.BcryptCost)),
		auth.WithOperationTimeout(cfg.Auth.OperationTimeout),
		auth.WithCodeTTLs(cfg.Auth.VerificationTTL, cfg.Auth.ResendTTL, cfg.Auth.ResetTTL),
		auth.WithHashid(cfg.Auth.UseHashid),
	}, s.workflowOpts...)
	s.workflow = auth.NewWorkflow(repo, tokens, notifier, workflowOpts...)

	s.blogs = blog.NewService(blog.NewBlogsRepository(db),
		blog.WithLogger(logger),
		blog.WithTimeout(cfg.Auth.OperationTimeout),
	)

	authCtrl := auth.NewController(s.workflow, auth.CookieConfig{
		Secure: s.config.IsProduction(),
		Domain: s.config.Auth.CookieDomain,
	}, s.logger)
	authCtrl.Debug = s.config.Debug

	s.srv = router.NewFiberAdapter(func(_ *fiber.App) *fiber.App {
		app := fiber.New(fiber.Config{
			AppName:               "blogify",
			ErrorHandler:          auth.ErrorHandler(logger),
			ReadTimeout:           cfg.Server.ReadTimeout,
			WriteTimeout:          cfg.Server.WriteTimeout,
			DisableStartupMessage: !cfg.Debug,
		})
		s.middleware(app, s.limitedPaths(authCtrl))
		return app
	})

	s.routes(s.srv.Router(), authCtrl, tokens)

	return s, nil
}

func (s *Server) middleware(app *fiber.App, limited map[string]bool) {
	app.Use(recover.New(recover.Config{EnableStackTrace: s.config.Debug}))
	app.Use(requestid.New())

	if s.accessLog != nil {
		app.Use(fiberlogger.New(fiberlogger.Config{
			Format: accessLogFormat,
			Output: s.accessLog,
		}))
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(s.config.Origins(), ","),
		AllowMethods:     "GET,POST,PATCH,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization",
		AllowCredentials: true,
	}))

	if rl := s.rateLimiter(limited); rl != nil {
		app.Use(rl)
	}
}

func (s *Server) routes(r router.Router[*fiber.App], authCtrl *auth.Controller, tokens auth.TokenService) {
	r.Get("/healthz", s.health).SetName("health")

	api := r.Group(s.config.Server.Prefix)

	auth.RegisterAuthRoutes(api.Group("/auth"), authCtrl)

	blogCtrl := blog.NewController(s.blogs, s.logger)
	blog.RegisterBlogRoutes(api.Group("/blogs"), blogCtrl, auth.ProtectedRoute(tokens))
}

// limitedPaths are the full paths of the rate limited auth endpoints
func (s *Server) limitedPaths(authCtrl *auth.Controller) map[string]bool {
	base := strings.TrimRight(s.config.Server.Prefix, "/") + "/auth"
	out := map[string]bool{}
	for _, route := range authCtrl.RateLimitedRoutes() {
		out[base+route] = true
	}
	return out
}

// rateLimiter limits POSTs to the limited paths, nil when disabled.
// Buckets are keyed by client IP and path so each endpoint is limited
// on its own.
func (s *Server) rateLimiter(limited map[string]bool) fiber.Handler {
	rl := s.config.Server.RateLimit
	if rl.Max <= 0 || len(limited) == 0 {
		return nil
	}

	return limiter.New(limiter.Config{
		Max:        rl.Max,
		Expiration: rl.Window,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() != fiber.MethodPost || !limited[strings.TrimRight(c.Path(), "/")]
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|" + strings.TrimRight(c.Path(), "/")
		},
		LimitReached: func(c *fiber.Ctx) error {
			return auth.RateLimited("Too many requests, please try again later")
		},
	})
}

func (s *Server) health(c router.Context) error {
	if err := persistence.Ping(c.Context(), s.db); err != nil {
		s.logger.Error("health check: %v", err)
		return c.JSON(router.StatusServiceUnavailable, router.ViewContext{
			"success": false,
			"status":  "unavailable",
		})
	}
	return c.JSON(router.StatusOK, router.ViewContext{"success": true, "status": "ok"})
}

// App exposes the fiber app, tests drive it with app.Test
func (s *Server) App() *fiber.App {
	return s.srv.WrappedRouter()
}

// Listen blocks serving on the configured address
func (s *Server) Listen() error {
	s.logger.Info("listening on %s (env=%s)", s.config.Addr(), s.config.Env)
	return s.srv.Serve(s.config.Addr())
}

// Shutdown waits for in flight requests until ctx expires
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
