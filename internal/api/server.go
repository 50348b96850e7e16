package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/rapport/internal/session"
	"github.com/rapport/internal/templates"
)

// Server represents the API server
type Server struct {
	echo    *echo.Echo
	port    int
	svc     *Service
	catalog *templates.Catalog
}

// NewServer creates a new API server
func NewServer(port int, svc *Service, catalog *templates.Catalog) *Server {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	server := &Server{
		echo:    e,
		port:    port,
		svc:     svc,
		catalog: catalog,
	}

	server.setupRoutes()

	return server
}

// setupRoutes configures all API endpoints
func (s *Server) setupRoutes() {
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status": "healthy",
		})
	})

	v1 := s.echo.Group("/api/v1")

	v1.GET("/sessions", s.listSessions)
	v1.POST("/sessions", s.createSession)
	v1.GET("/sessions/:id", s.getSnapshot)
	v1.GET("/sessions/:id/history", s.getHistory)
	v1.GET("/sessions/:id/suggestion", s.getSuggestion)
	v1.PUT("/sessions/:id/flags/:name", s.setFlag)

	// Message ingestion is the hot path; keep it behind the rate limiter.
	ingest := v1.Group("/sessions/:id/messages", s.rateLimit())
	ingest.POST("/incoming", s.recordIncoming)
	ingest.POST("/outgoing", s.recordOutgoing)
}

// Start begins the API server and blocks until interrupted.
func (s *Server) Start() error {
	go func() {
		if err := s.echo.Start(fmt.Sprintf(":%d", s.port)); err != nil && err != http.ErrServerClosed {
			s.echo.Logger.Fatal("shutting down the server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return s.echo.Shutdown(ctx)
}

// Echo exposes the router for tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

func httpError(c echo.Context, err error) error {
	if err == session.ErrNotFound {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "session not found"})
	}
	return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
}
