package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"taskdash/internal/schema"
	"taskdash/internal/service"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleList(c *gin.Context) {
	list, err := s.tasks.List(c.Request.Context(), callerID(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) handleCreate(c *gin.Context) {
	in, err := s.decodeInput(c, schema.CreateTask)
	if err != nil {
		s.writeError(c, err)
		return
	}

	task, err := s.tasks.Create(c.Request.Context(), callerID(c), in)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (s *Server) handleUpdate(c *gin.Context) {
	in, err := s.decodeInput(c, schema.UpdateTask)
	if err != nil {
		s.writeError(c, err)
		return
	}

	task, err := s.tasks.Update(c.Request.Context(), callerID(c), c.Param("id"), in)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (s *Server) handleDelete(c *gin.Context) {
	id, err := s.tasks.Delete(c.Request.Context(), callerID(c), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id})
}

// decodeInput reads the body and decodes it into a TaskInput. Strict mode
// checks the schema and field rules; lenient mode accepts any JSON object.
func (s *Server) decodeInput(c *gin.Context, op schema.Operation) (service.TaskInput, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodySize)
	body, err := c.GetRawData()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return service.TaskInput{}, service.Validation("request body too large")
		}
		return service.TaskInput{}, service.Validation("could not read request body")
	}

	if !s.strict {
		if err := schema.ValidateObject(body); err != nil {
			return service.TaskInput{}, err
		}
		return lenientInput(body), nil
	}

	if err := s.validator.Validate(op, body); err != nil {
		return service.TaskInput{}, err
	}
	var in service.TaskInput
	if err := json.Unmarshal(body, &in); err != nil {
		return service.TaskInput{}, service.Validation("request body does not match the task format")
	}
	if err := in.Validate(); err != nil {
		return service.TaskInput{}, err
	}
	return in, nil
}

// lenientInput takes the task fields that are strings from a JSON object.
// Absent fields and values of any other type are left empty.
func lenientInput(body []byte) service.TaskInput {
	var raw map[string]interface{}
	json.Unmarshal(body, &raw)
	str := func(key string) string {
		v, _ := raw[key].(string)
		return v
	}
	return service.TaskInput{
		Title:       str("title"),
		Description: str("description"),
		Status:      service.Status(str("status")),
		DueDate:     str("dueDate"),
	}
}

func statusFor(k service.Kind) int {
	switch k {
	case service.KindUnauthorized:
		return http.StatusUnauthorized
	case service.KindForbidden:
		return http.StatusForbidden
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps err to a status and an {"error": msg} body. Causes of
// internal errors are logged and never written to the response.
func (s *Server) writeError(c *gin.Context, err error) {
	kind := service.KindOf(err)
	msg := service.MessageOf(err, "Internal server error")
	switch kind {
	case service.KindInternal:
		s.log.Error("request failed", "method", c.Request.Method, "path", c.Request.URL.Path, "err", err)
	case service.KindValidation:
		// field details are part of the message
		msg = err.Error()
	}
	c.JSON(statusFor(kind), gin.H{"error": msg})
}
