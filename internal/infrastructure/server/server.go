package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	api "github.com/GriffinCanCode/menuterm/backend/internal/api/http"
	"github.com/GriffinCanCode/menuterm/backend/internal/api/middleware"
	"github.com/GriffinCanCode/menuterm/backend/internal/api/ws"
	"github.com/GriffinCanCode/menuterm/backend/internal/domain/orchestrator"
	"github.com/GriffinCanCode/menuterm/backend/internal/domain/ptysession"
	"github.com/GriffinCanCode/menuterm/backend/internal/domain/surface"
	"github.com/GriffinCanCode/menuterm/backend/internal/domain/workspace"
	"github.com/GriffinCanCode/menuterm/backend/internal/infrastructure/config"
	"github.com/GriffinCanCode/menuterm/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/menuterm/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/menuterm/backend/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/menuterm/backend/internal/providers/commands"
	"github.com/GriffinCanCode/menuterm/backend/internal/providers/settings"
	"github.com/GriffinCanCode/menuterm/backend/internal/providers/terminal"
	"github.com/GriffinCanCode/menuterm/backend/internal/shared/paths"
)

// Version is reported by /health
var Version = "0.1.0"

const shutdownTimeout = 5 * time.Second

// Server wraps the HTTP server and dependencies
type Server struct {
	config    *config.Config
	logger    *logging.Logger
	metrics   *monitoring.Metrics
	tracer    *tracing.Tracer
	terminals *terminal.Manager
	backend   ptysession.Backend
	events    *ptysession.Router
	workspace *workspace.Manager
	settings  *settings.Store
	stream    *ws.Handler
	router    *gin.Engine
}

// Option customizes a Server
type Option func(*serverOptions)

type serverOptions struct {
	backend  ptysession.Backend
	registry *prometheus.Registry
}

// WithBackend replaces the native PTY backend
func WithBackend(backend ptysession.Backend) Option {
	return func(o *serverOptions) { o.backend = backend }
}

// WithRegistry registers metrics with reg instead of a fresh registry
func WithRegistry(reg *prometheus.Registry) Option {
	return func(o *serverOptions) { o.registry = reg }
}

// New creates a new server instance
func New(cfg *config.Config, logger *logging.Logger, opts ...Option) (*Server, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	var o serverOptions
	for _, opt := range opts {
		opt(&o)
	}

	settingsPath, err := resolveSettingsPath(cfg.Settings.Path)
	if err != nil {
		return nil, err
	}
	workDir, err := paths.Expand(cfg.PTY.WorkingDir)
	if err != nil {
		return nil, err
	}
	if workDir != "" {
		if err := paths.ValidateDir(workDir); err != nil {
			return nil, fmt.Errorf("PTY_WORKDIR: %w", err)
		}
	}

	logger.Info("Initializing menuterm server",
		zap.String("host", cfg.Server.Host),
		zap.String("port", cfg.Server.Port))

	// Metrics first, everything below records into them
	reg := o.registry
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	metrics := monitoring.NewMetrics(reg)
	tracer := tracing.New("menuterm", logger.Logger)

	store := settings.NewStore(settingsPath, logger.Named("settings"))
	logger.Info("Loaded settings", zap.String("path", settingsPath), zap.Bool("pinned", store.Pinned()))

	var terminals *terminal.Manager
	backend := o.backend
	if backend == nil {
		terminals = terminal.NewManager(terminal.Options{
			Shell:       cfg.PTY.Shell,
			WorkingDir:  workDir,
			EventBuffer: cfg.PTY.EventBuffer,
			Logger:      logger.Named("terminal"),
		})
		backend = terminals
	}

	surfaces := surface.NewRegistry(surface.Options{
		Scrollback: cfg.PTY.ScrollbackBytes,
		Logger:     logger.Named("surface"),
	})
	layout := orchestrator.New(orchestrator.Options{
		Freezer:     surfaces,
		SettleDelay: cfg.Layout.SettleDelay,
		Logger:      logger.Named("layout"),
		Metrics:     metrics,
	})
	events := ptysession.NewRouter(logger.Named("events"))
	panes := workspace.New(layout, surfaces, backend, events, ptysession.Options{
		MaxRetries:    cfg.PTY.MaxRetries,
		RetryDelay:    cfg.PTY.RetryDelay,
		RestartDelay:  cfg.PTY.RestartDelay,
		FlushInterval: cfg.PTY.FlushInterval,
		Logger:        logger.Named("pty"),
		Metrics:       metrics,
	})

	corsConfig := middleware.DefaultCORSConfig()
	stream := ws.NewHandler(ws.Options{
		Workspace:   panes,
		Settings:    store,
		AllowOrigin: corsConfig.Allows,
		Tracer:      tracer,
		Metrics:     metrics,
		Logger:      logger.Named("stream"),
	})

	runner := commands.NewRunner(commands.Options{
		WorkingDir: workDir,
		Timeout:    cfg.Commands.Timeout,
		MaxTimeout: cfg.Commands.MaxTimeout,
		Logger:     logger.Named("commands"),
	})

	var sessions api.SessionLister
	if terminals != nil {
		sessions = terminals
	}
	handlers := api.NewHandlers(api.Options{
		Workspace: panes,
		Sessions:  sessions,
		Settings:  store,
		Commands:  runner,
		Completer: commands.NewCompleter(cfg.Commands.CompletionTTL, logger.Named("commands")),
		Ratio:     api.RatioBand{Min: cfg.Layout.MinRatio, Max: cfg.Layout.MaxRatio},
		Version:   Version,
		Logger:    logger.Named("api"),
	})

	// Create router
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(corsConfig))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst))
		limits := middleware.DefaultRateLimitConfig()
		limits.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		limits.Burst = cfg.RateLimit.Burst
		router.Use(middleware.RateLimit(limits))
	}

	router.GET("/health", handlers.Health)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	router.GET("/stream", stream.HandleConnection)
	router.Any("/debug/log-level", gin.WrapH(logger.LevelHandler()))
	handlers.Register(router.Group("/api/v1"))

	logger.Info("Server initialized successfully")

	return &Server{
		config:    cfg,
		logger:    logger,
		metrics:   metrics,
		tracer:    tracer,
		terminals: terminals,
		backend:   backend,
		events:    events,
		workspace: panes,
		settings:  store,
		stream:    stream,
		router:    router,
	}, nil
}

// Handler returns the HTTP handler serving the API and stream
func (s *Server) Handler() http.Handler {
	return s.router
}

// Workspace returns the pane workspace
func (s *Server) Workspace() *workspace.Manager {
	return s.workspace
}

// Run serves until ctx is cancelled, then shuts down gracefully. It also
// runs the PTY event router and the settings watcher.
func (s *Server) Run(ctx context.Context) error {
	addr := net.JoinHostPort(s.config.Server.Host, s.config.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := s.events.Run(ctx, s.backend.Events())
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if s.config.Settings.Watch && s.settings.Path() != "" {
		g.Go(func() error {
			if err := s.settings.Watch(ctx, settings.DefaultDebounce); err != nil {
				// Settings still work without hot reload
				s.logger.Warn("Settings watcher stopped", zap.Error(err))
			}
			return nil
		})
	}

	g.Go(func() error {
		s.logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		s.logger.Info("Shutting down HTTP server")
		// Hijacked stream connections are not tracked by Shutdown
		s.stream.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Close releases every session and background worker
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")

	s.stream.Close()
	s.workspace.Shutdown()
	if s.terminals != nil {
		s.terminals.Shutdown()
		s.logger.Info("Closed terminal sessions")
	}
	s.tracer.Close()
	s.metrics.Close()

	// Sync logger before exit
	_ = s.logger.Sync()
	return nil
}

func resolveSettingsPath(path string) (string, error) {
	switch path {
	case config.InMemorySettings:
		return "", nil
	case "":
		return paths.SettingsFile(), nil
	}
	return paths.Expand(path)
}
