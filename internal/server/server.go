package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/pscheid92/notifly/internal/config"
	"github.com/pscheid92/notifly/internal/domain"
)

type appService interface {
	CreateAndDispatch(ctx context.Context, userID, notificationType, message string) (*domain.Notification, error)
	GetPage(ctx context.Context, userID string, page, limit int) (*domain.NotificationPage, error)
}

type connectionHub interface {
	Connect(conn *websocket.Conn) uuid.UUID
	Join(connectionID uuid.UUID, userID string) error
	Disconnect(connectionID uuid.UUID)
}

type Server struct {
	echo   *echo.Echo
	config *config.Config

	app appService
	hub connectionHub

	upgrader     websocket.Upgrader
	healthChecks []HealthCheck
	startTime    time.Time
}

func NewServer(cfg *config.Config, app appService, hub connectionHub, healthChecks []HealthCheck) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:   e,
		config: cfg,
		app:    app,
		hub:    hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     NewCheckOrigin(cfg.Origins(), cfg.IsDevelopment()),
		},
		healthChecks: healthChecks,
		startTime:    time.Now(),
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	if err := s.echo.Start(":" + s.config.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}
