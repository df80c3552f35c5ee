package status

import (
	"context"
	"errors"
	"net/http"
	"time"

	"alvin-bot/internal/voice"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SessionLister exposes the active voice sessions
type SessionLister interface {
	Sessions() []voice.SessionInfo
}

// Server is a small HTTP status surface for the running bot
type Server struct {
	http   *http.Server
	logger *zap.Logger
}

// NewServer builds the status server on the given port
func NewServer(port string, sessions SessionLister, production bool, logger *zap.Logger) *Server {
	if production {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(ginLogger(logger))
	router.Use(gin.Recovery())

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		api.GET("/sessions", func(c *gin.Context) {
			infos := sessions.Sessions()
			c.JSON(http.StatusOK, gin.H{
				"count":    len(infos),
				"sessions": infos,
			})
		})
	}

	return &Server{
		http: &http.Server{
			Addr:    ":" + port,
			Handler: router,
		},
		logger: logger,
	}
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Run serves until Stop is called
func (s *Server) Run() error {
	s.logger.Info("status server listening", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop shuts the server down gracefully
func (s *Server) Stop(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// ginLogger is a custom logger middleware for Gin
func ginLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		if raw != "" {
			path = path + "?" + raw
		}

		log.Info("HTTP Request",
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
		)
	}
}
