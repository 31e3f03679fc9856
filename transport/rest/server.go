package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type Server struct {
	logger *slog.Logger
	echo   *echo.Echo
}

// New - builds the HTTP server with every game route registered.
func New(logger *slog.Logger, games gameService) *Server {
	log := logger.With("component", "rest")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 10 * time.Second
	e.Server.IdleTimeout = 30 * time.Second

	e.Use(middleware.Recover())
	e.Use(requestLogger(log))

	ping := NewPingHandler()
	e.GET("/ping", ping.PingHandler)

	handlers := NewGameHandlers(log, games)

	api := e.Group("/api")
	api.POST("/new", handlers.CreateGame)
	api.GET("/list", handlers.ListGames)
	api.GET("/game/:id", handlers.GetGame)
	api.PUT("/game/:id", handlers.ApplyMove)
	api.PATCH("/game/:id", handlers.ApplyMove)
	api.DELETE("/game/:id", handlers.DeleteGame)

	return &Server{
		logger: log,
		echo:   e,
	}
}

// Handler - exposes the router, mostly for tests.
func (that *Server) Handler() http.Handler {
	return that.echo
}

// Start - listens on port until Shutdown is called.
func (that *Server) Start(port string) error {
	if err := that.echo.Start(":" + port); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown - stops accepting connections and waits for in-flight requests.
func (that *Server) Shutdown(ctx context.Context) error {
	if err := that.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	return nil
}

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, values middleware.RequestLoggerValues) error {
			level := slog.LevelInfo
			if values.Status >= http.StatusInternalServerError {
				level = slog.LevelError
			}

			logger.LogAttrs(c.Request().Context(), level, "request",
				slog.String("method", values.Method),
				slog.String("uri", values.URI),
				slog.Int("status", values.Status),
				slog.Duration("latency", values.Latency),
			)

			return nil
		},
	})
}
