package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"assistant-portal/internal/models"
	"assistant-portal/internal/service"
	"assistant-portal/pkg/logger"
)

type ChatHandler struct {
	service *service.ChatService
}

func NewChatHandler(service *service.ChatService) *ChatHandler {
	return &ChatHandler{service: service}
}

func (h *ChatHandler) Status(c *gin.Context) {
	if h.service == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Service not configured"})
		return
	}

	status, err := h.service.Status(c.Request.Context())
	if err != nil {
		logger.Error(err, "Failed to load chat status", nil)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, status)
}

func (h *ChatHandler) Health(c *gin.Context) {
	if h.service == nil {
		c.JSON(http.StatusOK, models.HealthStatus{Status: "unhealthy", Error: "Service not configured"})
		return
	}

	c.JSON(http.StatusOK, h.service.Health(c.Request.Context()))
}

// Stream answers a chat message with the assistant reply written as raw
// text chunks on a text/event-stream response.
func (h *ChatHandler) Stream(c *gin.Context) {
	if h.service == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Service not configured"})
		return
	}

	var req models.ChatRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := logger.ContextWithFields(c.Request.Context(), map[string]interface{}{"session_id": req.SessionID})

	prompt, err := h.service.Prepare(ctx, req.SessionID, req.Message)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrEmptyMessage) || errors.Is(err, service.ErrEmptySession) {
			status = http.StatusBadRequest
		}
		logger.Error(err, "Failed to prepare chat request", map[string]interface{}{"session_id": req.SessionID})
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	err = h.service.Generate(ctx, req.SessionID, prompt, func(chunk string) error {
		if _, err := io.WriteString(c.Writer, chunk); err != nil {
			return err
		}
		c.Writer.Flush()
		return nil
	})
	if err != nil {
		logger.Warn("Chat stream ended early", map[string]interface{}{"session_id": req.SessionID, "error": err.Error()})
	}
}
