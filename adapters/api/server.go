package api

import (
	"github.com/gin-gonic/gin"

	"invoicegen/internal"
	"invoicegen/internal/container"
)

// Server is the JSON generation API. It fronts the container's services
// for backend integrations; the human-facing ops console lives in ui.
type Server struct {
	router    *gin.Engine
	container *container.Container
	logger    *internal.Logger
}

// NewServer builds the API server over an initialized container.
func NewServer(c *container.Container) *Server {
	if c.Config.Server.GinMode != "" {
		gin.SetMode(c.Config.Server.GinMode)
	}

	s := &Server{
		router:    gin.Default(),
		container: c,
		logger:    internal.DefaultLogger,
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures the application routes
func (s *Server) setupRoutes() {
	api := s.router.Group("/api")
	{
		api.GET("/health", s.handleHealth)
		api.POST("/generate", s.handleGenerate)
		api.POST("/generate/batch", s.handleGenerateBatch)
		api.GET("/sessions", s.handleListSessions)
		api.GET("/sessions/:id", s.handleGetSession)
	}
}

// Run starts the server on the configured port.
func (s *Server) Run() error {
	addr := ":" + s.container.Config.Server.Port
	s.logger.Info("API server listening on %s", addr)
	return s.router.Run(addr)
}

// Handler exposes the router for tests.
func (s *Server) Handler() *gin.Engine {
	return s.router
}
