// Package api exposes the task operations over HTTP.
package api

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"taskdash/internal/logging"
	"taskdash/internal/schema"
	"taskdash/internal/service"
	"taskdash/internal/tasks"
)

// maxBodySize bounds request bodies on mutating routes.
const maxBodySize = 64 << 10

// Options configures a Server.
type Options struct {
	Tasks    *tasks.Manager
	Verifier service.Verifier

	// Validator is compiled on demand when nil.
	Validator *schema.Validator

	// Logger defaults to a discarding logger.
	Logger *log.Logger

	// StrictValidation rejects bodies that do not match the task schema.
	// When false any JSON object is accepted.
	StrictValidation bool

	// CORSOrigins lists allowed origins. Empty or "*" reflects any origin.
	CORSOrigins []string
}

// Server is the task API server.
type Server struct {
	tasks     *tasks.Manager
	verifier  service.Verifier
	validator *schema.Validator
	log       *log.Logger
	strict    bool
	router    *gin.Engine
}

// NewServer creates a server and registers its routes.
func NewServer(opts Options) (*Server, error) {
	validator := opts.Validator
	if validator == nil {
		v, err := schema.New()
		if err != nil {
			return nil, err
		}
		validator = v
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	router := gin.New()

	s := &Server{
		tasks:     opts.Tasks,
		verifier:  opts.Verifier,
		validator: validator,
		log:       logger,
		strict:    opts.StrictValidation,
		router:    router,
	}

	router.Use(gin.Recovery(), s.requestLogger(), corsMiddleware(opts.CORSOrigins))
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})

	router.GET("/healthz", s.handleHealth)

	api := router.Group("/tasks", s.requireIdentity())
	{
		api.GET("", s.handleList)
		api.POST("", s.handleCreate)
		api.PUT("/:id", s.handleUpdate)
		api.DELETE("/:id", s.handleDelete)
	}

	return s, nil
}

// Handler returns the server's http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}
