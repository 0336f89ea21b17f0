package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"chart-relay-bot/internal/interfaces"
	"chart-relay-bot/internal/logger"
	"chart-relay-bot/internal/metrics"
	"chart-relay-bot/internal/store"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// Server exposes the single-pass webhook plus health and metrics endpoints.
type Server struct {
	echo    *echo.Echo
	engine  interfaces.Engine
	addr    string
	path    string
	timeout time.Duration
}

func New(cfg *store.Config, eng interfaces.Engine, rec *metrics.Recorder) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.WebhookWriteTimeout()

	e.Use(Recover())
	e.Use(RequestLogging())

	s := &Server{
		echo:    e,
		engine:  eng,
		addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		path:    cfg.Server.Path,
		timeout: cfg.Server.ShutdownTimeout,
	}

	h := &webhookHandler{engine: eng}
	var mw []echo.MiddlewareFunc
	if cfg.Server.RateLimit > 0 {
		mw = append(mw, rateLimiter(cfg.Server.RateLimit, cfg.Server.RateBurst))
	}
	e.POST(s.path, h.Analyze, mw...)
	e.GET("/healthz", healthz)
	e.GET("/metrics", echo.WrapHandler(rec.Handler()))
	return s
}

// Handler returns the HTTP handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "Webhook server listening", "addr", s.addr, "path", s.path)
		if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	logger.Info(ctx, "Shutting down webhook server")
	return s.echo.Shutdown(shutdownCtx)
}

// rateLimiter limits webhook calls per client IP. Chart platforms retry
// aggressively and every accepted call drives a browser.
func rateLimiter(perSecond float64, burst int) echo.MiddlewareFunc {
	if burst < 1 {
		burst = 1
	}
	return echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
		Store: echomw.NewRateLimiterMemoryStoreWithConfig(echomw.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(perSecond),
			Burst:     burst,
			ExpiresIn: 10 * time.Minute,
		}),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusForbidden, webhookResponse{Status: "error", Message: "client not identified"})
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			logger.Warn(c.Request().Context(), "Webhook rate limited", "client", identifier)
			return c.JSON(http.StatusTooManyRequests, webhookResponse{Status: "error", Message: "rate limited"})
		},
	})
}

func healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
