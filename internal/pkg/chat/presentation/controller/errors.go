package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	chat "github.com/LabasniDAM/Labasni-Backend/internal/pkg/chat/application/domain"
	"github.com/LabasniDAM/Labasni-Backend/internal/pkg/chat/application/usecase"
)

// statusForError maps the error taxonomy onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, usecase.ErrPersistence):
		return http.StatusInternalServerError
	case errors.Is(err, chat.ErrConversationNotFound):
		return http.StatusNotFound
	case errors.Is(err, chat.ErrNotParticipant):
		return http.StatusForbidden
	default:
		return http.StatusBadRequest
	}
}

// respondError writes the mapped status. Persistence failures are redacted
// so raw storage errors never reach a client.
func respondError(c *gin.Context, err error) {
	status := statusForError(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "unexpected persistence error"
	}
	c.JSON(status, gin.H{"error": msg})
}
