package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/accelrix/intern-service/internal/contact"
	"github.com/accelrix/intern-service/internal/interns"
	"github.com/accelrix/intern-service/internal/models"
)

const genericFailure = "Something went wrong."

type bulkUpsertRequest struct {
	Documents json.RawMessage `json:"documents"`
}

type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

func (s *Server) handleRoot(c *gin.Context) {
	c.String(http.StatusOK, "Accelrix contact API is running 🚀")
}

func (s *Server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	now := time.Now().UTC().Format(time.RFC3339)
	if err := s.storage.Ping(ctx); err != nil {
		s.logger.Error("health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"message": "Service unavailable",
			"status":  "unhealthy",
			"store":   "unreachable",
			"time":    now,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Service is healthy",
		"status":  "healthy",
		"store":   "ok",
		"time":    now,
	})
}

func (s *Server) handleBulkUpsert(c *gin.Context) {
	var req bulkUpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	var documents []json.RawMessage
	if len(req.Documents) > 0 {
		if err := json.Unmarshal(req.Documents, &documents); err != nil {
			fail(c, http.StatusBadRequest, "documents must be a non-empty array")
			return
		}
	}

	result, err := s.interns.Reconcile(c.Request.Context(), documents)
	switch {
	case errors.Is(err, interns.ErrEmptyBatch):
		fail(c, http.StatusBadRequest, "documents must be a non-empty array")
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, genericFailure)
		return
	}

	body := gin.H{
		"success":       true,
		"matchedCount":  result.MatchedCount,
		"modifiedCount": result.ModifiedCount,
		"upsertedCount": result.UpsertedCount,
	}
	if len(result.Errors) > 0 {
		body["failedCount"] = len(result.Errors)
		body["errors"] = result.Errors
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) handleVerify(c *gin.Context) {
	view, err := s.interns.Verify(c.Request.Context(), c.Query("id"))
	switch {
	case errors.Is(err, interns.ErrMissingID):
		fail(c, http.StatusBadRequest, "Intern ID is required")
	case errors.Is(err, interns.ErrNotFound):
		fail(c, http.StatusNotFound, "Intern not found")
	case err != nil:
		fail(c, http.StatusInternalServerError, genericFailure)
	default:
		c.JSON(http.StatusOK, gin.H{"success": true, "intern": view})
	}
}

func (s *Server) handleContact(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Missing required fields")
		return
	}

	err := s.contacts.Submit(c.Request.Context(), models.ContactMessage{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Subject: req.Subject,
		Message: req.Message,
	})
	switch {
	case errors.Is(err, contact.ErrMissingFields):
		fail(c, http.StatusBadRequest, "Missing required fields")
	case errors.Is(err, contact.ErrInvalidEmail):
		fail(c, http.StatusBadRequest, "Invalid email address")
	case err != nil:
		fail(c, http.StatusInternalServerError, genericFailure)
	default:
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Message sent and saved!"})
	}
}
