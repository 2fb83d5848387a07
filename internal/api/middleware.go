package api

import (
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"taskdash/internal/auth"
	"taskdash/internal/service"
)

const identityKey = "taskdash.identity"

// requireIdentity verifies the bearer token and stores the identity in the
// request context. Rejected tokens stop the chain with 401; provider
// failures stop it with 500.
func (s *Server) requireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.BearerToken(c.GetHeader("Authorization"))
		if err == nil {
			var id service.Identity
			id, err = s.verifier.Verify(c.Request.Context(), token)
			if err == nil {
				c.Set(identityKey, id)
				c.Next()
				return
			}
		}
		kind := service.KindOf(err)
		if kind == service.KindInternal {
			s.log.Error("identity check failed", "path", c.Request.URL.Path, "err", err)
			c.AbortWithStatusJSON(statusFor(kind), gin.H{"error": service.MessageOf(err, "Internal server error")})
			return
		}
		s.log.Debug("token rejected", "path", c.Request.URL.Path, "err", err)
		c.AbortWithStatusJSON(statusFor(service.KindUnauthorized), gin.H{"error": service.ErrUnauthorized.Message})
	}
}

// identityFrom returns the identity set by requireIdentity.
func identityFrom(c *gin.Context) (service.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return service.Identity{}, false
	}
	id, ok := v.(service.Identity)
	return id, ok
}

func callerID(c *gin.Context) string {
	id, _ := identityFrom(c)
	return id.UID
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []interface{}{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", time.Since(start),
		}
		if id, ok := identityFrom(c); ok {
			fields = append(fields, "uid", id.UID)
		}

		level := log.InfoLevel
		if status >= 500 {
			level = log.ErrorLevel
		}
		s.log.Log(level, "request", fields...)
	}
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowOriginFunc = func(string) bool { return true }
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}
