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

// CreateConversationController handles the conversation creation endpoint
// (one controller per endpoint). Creation is idempotent by pair: repeated
// calls return the existing conversation.
type CreateConversationController struct {
	UC *usecase.EnsureConversationUseCase
}

func NewCreateConversationController(repo repository.ChatRepository) *CreateConversationController {
	return &CreateConversationController{UC: usecase.NewEnsureConversationUseCase(repo)}
}

type createConversationRequest struct {
	ParticipantID string `json:"participantId" binding:"required"`
}

func (h *CreateConversationController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := auth.PrincipalFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		var req createConversationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		conv, err := h.UC.Execute(ctx, usecase.EnsureConversationInput{
			CurrentUserID: principal.UserID,
			PartnerID:     req.ParticipantID,
		})
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, conv)
	}
}
