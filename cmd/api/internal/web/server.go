package web

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/sleeqtechnologies/rechef/cmd/api/handlers/content_api"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Webserver struct {
	*echo.Echo
	jobs    content_api.Jobs
	metrics http.Handler
	db      Pinger
	events  content_api.EventsOptions
}

// Options configures optional parts of the server.
type Options struct {
	// Metrics serves GET /metrics when set.
	Metrics http.Handler
	// DB backs the readiness probe when set.
	DB     Pinger
	Events content_api.EventsOptions
}

func NewWebserver(jobs content_api.Jobs, opts Options) (*Webserver, error) {
	e := echo.New()

	webserver := &Webserver{
		Echo:    e,
		jobs:    jobs,
		metrics: opts.Metrics,
		db:      opts.DB,
		events:  opts.Events,
	}

	if err := webserver.registerRoutes(); err != nil {
		return nil, err
	}

	if err := webserver.setupMiddleware(); err != nil {
		return nil, err
	}

	return webserver, nil
}

func (s *Webserver) setupMiddleware() error {
	s.HideBanner = true
	s.HidePort = true
	// Uploaded pictures arrive base64 encoded in the JSON body.
	s.Use(middleware.BodyLimit("25M"))
	s.Use(middleware.Recover())
	s.Use(middleware.RequestID())
	s.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/api/content/jobs/:id/events"
		},
	}))
	s.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			switch c.Path() {
			case "/healthz", "/readyz", "/metrics":
				return true
			default:
				return false
			}
		},
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  false,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"remote_ip", v.RemoteIP,
				"request_id", v.RequestID,
			}
			if v.Error != nil {
				fields = append(fields, "error", v.Error)
			}
			slog.Info("request", fields...)
			return nil
		},
	}))

	return nil
}

func (s *Webserver) registerRoutes() error {
	apiGroup := s.Group("/api/content")
	apiGroup.POST("/parse", content_api.HandleParse(s.jobs))
	apiGroup.GET("/jobs", content_api.HandleList(s.jobs))
	apiGroup.GET("/jobs/:id", content_api.HandleStatus(s.jobs))
	apiGroup.GET("/jobs/:id/events", content_api.HandleEvents(s.jobs, s.events))

	// Health check
	s.GET("/healthz", func(c echo.Context) error {
		return c.String(200, "ok")
	})

	s.GET("/readyz", func(c echo.Context) error {
		if s.db == nil {
			return c.String(200, "ok")
		}
		if err := s.db.Ping(c.Request().Context()); err != nil {
			slog.Warn("readiness check failed", "error", err)
			return c.String(503, "database unavailable")
		}
		return c.String(200, "ok")
	})

	if s.metrics != nil {
		s.GET("/metrics", echo.WrapHandler(s.metrics))
	}

	return nil
}
