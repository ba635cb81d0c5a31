package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/LabasniDAM/Labasni-Backend/internal/infrastructure/auth"
	queueport "github.com/LabasniDAM/Labasni-Backend/internal/infrastructure/queue/port"
	"github.com/LabasniDAM/Labasni-Backend/internal/pkg/chat/application/task"
)

// QueueMessageController accepts a message and enqueues it for background
// persistence instead of writing it inline. Validation against the
// conversation happens in the worker, so a 202 only acknowledges receipt.
type QueueMessageController struct {
	Q queueport.Client
}

func NewQueueMessageController(client queueport.Client) *QueueMessageController {
	return &QueueMessageController{Q: client}
}

func (h *QueueMessageController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := auth.PrincipalFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		var req sendMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		payload, err := json.Marshal(task.SendMessageTaskPayload{
			ConversationID: req.ConversationID,
			SenderID:       principal.UserID,
			Content:        req.Content,
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to encode task payload"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		opts := queueport.EnqueueOption{Queue: "chat", MaxRetry: 20}
		id, err := h.Q.Enqueue(ctx, queueport.Task{Type: task.SendMessageTaskType, Payload: payload}, opts)
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to enqueue message"})
			return
		}

		c.JSON(http.StatusAccepted, gin.H{
			"status":         "queued",
			"taskId":         id,
			"conversationId": req.ConversationID,
		})
	}
}
