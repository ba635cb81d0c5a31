package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/LabasniDAM/Labasni-Backend/internal/infrastructure/auth"
	"github.com/LabasniDAM/Labasni-Backend/internal/pkg/chat/application/usecase"
	repository "github.com/LabasniDAM/Labasni-Backend/internal/pkg/chat/persistence/repository/port"
)

// SendMessageController handles the synchronous send-message endpoint
// (one controller per endpoint). The message is persisted and broadcast
// before the response is written, so a 201 means delivery was attempted
// to every connected participant.
type SendMessageController struct {
	UC          *usecase.SendMessageUseCase
	Broadcaster *Broadcaster
}

func NewSendMessageController(repo repository.ChatRepository, users repository.UserDirectory, b *Broadcaster) *SendMessageController {
	return &SendMessageController{UC: usecase.NewSendMessageUseCase(repo, users), Broadcaster: b}
}

type sendMessageRequest struct {
	ConversationID string `json:"conversationId" binding:"required"`
	Content        string `json:"content" binding:"required"`
}

func (h *SendMessageController) Handle() gin.HandlerFunc {
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

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		msg, err := h.UC.Execute(ctx, usecase.SendMessageInput{
			ConversationID: req.ConversationID,
			SenderID:       principal.UserID,
			Content:        req.Content,
		})
		if err != nil {
			respondError(c, err)
			return
		}

		if h.Broadcaster != nil {
			h.Broadcaster.BroadcastMessage(ctx, msg)
		}

		c.JSON(http.StatusCreated, msg)
	}
}
