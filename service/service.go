package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageGeneration/config"
	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageGeneration/pkg/db"
	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageGeneration/pkg/events"
	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageGeneration/pkg/imagegen"
	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageGeneration/pkg/metrics"
)

// Archiver stores generated images and returns a public URL.
type Archiver interface {
	StorePNG(ctx context.Context, correlationID string, png []byte) (string, error)
}

// EventPublisher announces generation outcomes.
type EventPublisher interface {
	Publish(ctx context.Context, ev events.GenerationEvent) error
}

// Notifier tells the requester where the archived image lives.
type Notifier interface {
	ImageReady(ctx context.Context, to, correlationID, imageURL string) error
}

type Service struct {
	cfg    *config.Config
	e      *echo.Echo
	logger *zap.Logger

	generator *imagegen.Generator
	prompts   *imagegen.PromptBuilder
	limits    imagegen.Limits
	metrics   *metrics.Collector
	registry  *prometheus.Registry

	RequestDatabase db.RequestDatabase
	archive         Archiver
	publisher       EventPublisher
	notifier        Notifier

	newCorrelationID func() string
	closers          []func() error
	background       sync.WaitGroup
}

type Option func(*Service)

func WithRequestDatabase(d db.RequestDatabase) Option {
	return func(s *Service) { s.RequestDatabase = d }
}

func WithArchive(a Archiver) Option {
	return func(s *Service) { s.archive = a }
}

func WithPublisher(p EventPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithPromptChooser replaces the random pick of the default prompt catalog.
func WithPromptChooser(choose imagegen.Chooser) Option {
	return func(s *Service) { s.prompts = imagegen.NewPromptBuilder(choose) }
}

func WithCorrelationIDGenerator(gen func() string) Option {
	return func(s *Service) { s.newCorrelationID = gen }
}

func NewCorrelationID() string {
	return "corr_" + uuid.NewString()
}

// NewService wires the HTTP surface around a single process-lifetime model client.
func NewService(cfg *config.Config, model imagegen.Model, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector("imagegen", registry, logger)

	s := &Service{
		cfg:      cfg,
		e:        echo.New(),
		logger:   logger.With(zap.String("component", "service")),
		metrics:  collector,
		registry: registry,
		prompts:  imagegen.NewPromptBuilder(nil),
		generator: imagegen.NewGenerator(model, logger,
			imagegen.WithObserver(collector)),
		newCorrelationID: NewCorrelationID,
	}
	if cfg.Upload.EnforceLimits {
		s.limits = imagegen.Limits{
			MaxFiles:     cfg.Upload.MaxFiles,
			MaxFileBytes: cfg.Upload.MaxFileBytes(),
		}
	}
	for _, opt := range opts {
		opt(s)
	}

	s.e.HideBanner = true
	s.e.HidePort = true
	s.routes()
	return s
}

func (s *Service) routes() {
	s.e.Use(ResponseTime())
	s.e.Use(RequestLogger(s.logger))
	s.e.Use(middleware.Recover())
	s.e.Use(Metrics(s.metrics))
	s.e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:  s.cfg.Server.CORSAllowOrigins,
		AllowHeaders:  []string{echo.HeaderContentType, HeaderAPIVersion, HeaderCorrelationID},
		ExposeHeaders: []string{HeaderAPIVersion, HeaderCorrelationID, HeaderResponseTime},
	}))

	s.e.GET("/", s.Info)
	s.e.GET("/healthz", s.Health)
	s.e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))
	s.e.POST("/images-gen", s.GenerateImage)
	s.e.GET("/images-gen/:correlationId", s.GetRequestStatus)
}

// Handler exposes the router, mainly for tests.
func (s *Service) Handler() http.Handler {
	return s.e
}

// StartService connects the configured infrastructure and serves until ctx
// is cancelled.
func (s *Service) StartService(ctx context.Context) error {
	defer s.close()
	if err := s.connectInfrastructure(ctx); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", zap.String("addr", s.cfg.Server.Port))
		if err := s.e.Start(s.cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("failed to start server: %w", err)
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := s.e.Shutdown(shutdownCtx)
	s.waitPostProcessing()
	return err
}

func (s *Service) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			s.logger.Warn("close failed", zap.Error(err))
		}
	}
}
