package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/LabasniDAM/Labasni-Backend/internal/infrastructure/auth"
	"github.com/LabasniDAM/Labasni-Backend/internal/infrastructure/logger"
	"github.com/LabasniDAM/Labasni-Backend/internal/infrastructure/realtime"
	chat "github.com/LabasniDAM/Labasni-Backend/internal/pkg/chat/application/domain"
	"github.com/LabasniDAM/Labasni-Backend/internal/pkg/chat/application/usecase"
	repository "github.com/LabasniDAM/Labasni-Backend/internal/pkg/chat/persistence/repository/port"
)

// ChatSocketController handles the websocket endpoint for realtime chat
// traffic. The endpoint authenticates itself during the handshake rather
// than through the HTTP middleware, since browser websocket clients cannot
// set arbitrary headers.
type ChatSocketController struct {
	registry        *realtime.Registry
	verifier        *auth.Verifier
	broadcaster     *Broadcaster
	sendMessageUC   *usecase.SendMessageUseCase
	getMessagesUC   *usecase.GetMessageUseCase
	getConvUC       *usecase.GetConversationUseCase
	listConvsUC     *usecase.ListConversationsUseCase
	inflightTimeout time.Duration
}

func NewChatSocketController(repo repository.ChatRepository, users repository.UserDirectory, registry *realtime.Registry, verifier *auth.Verifier, b *Broadcaster) *ChatSocketController {
	return &ChatSocketController{
		registry:        registry,
		verifier:        verifier,
		broadcaster:     b,
		sendMessageUC:   usecase.NewSendMessageUseCase(repo, users),
		getMessagesUC:   usecase.NewGetMessageUseCase(repo, users),
		getConvUC:       usecase.NewGetConversationUseCase(repo),
		listConvsUC:     usecase.NewListConversationsUseCase(repo, users),
		inflightTimeout: 5 * time.Second,
	}
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins for now; plug a proper checker when the
		// frontend domains are pinned down.
		return true
	},
}

const (
	defaultReadTimeout = 60 * time.Second

	// bearerSubprotocol carries the token for browser clients that cannot
	// set an Authorization header on the handshake request.
	bearerSubprotocol = "bearer."
)

// handshakeToken extracts the credential from the handshake request,
// checking the token query parameter, then the websocket subprotocol,
// then the Authorization header. The chosen subprotocol, if any, is
// returned so the upgrade response can echo it.
func handshakeToken(r *http.Request) (token string, subprotocol string) {
	if t := r.URL.Query().Get("token"); t != "" {
		return t, ""
	}
	for _, proto := range websocket.Subprotocols(r) {
		if strings.HasPrefix(proto, bearerSubprotocol) {
			return strings.TrimPrefix(proto, bearerSubprotocol), proto
		}
	}
	return auth.BearerToken(r.Header.Get("Authorization")), ""
}

// Handle upgrades HTTP connections to websocket and processes frames until
// the client disconnects.
func (ctl *ChatSocketController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, subprotocol := handshakeToken(c.Request)

		var responseHeader http.Header
		if subprotocol != "" {
			responseHeader = http.Header{"Sec-WebSocket-Protocol": {subprotocol}}
		}

		ws, err := wsUpgrader.Upgrade(c.Writer, c.Request, responseHeader)
		if err != nil {
			// Upgrade already wrote the response; nothing more to do.
			return
		}

		principal, err := ctl.verifier.Verify(token)
		if err != nil {
			// The socket was never attached, so it is not in any room and
			// receives nothing before the close.
			payload := mustMarshal(errorEvent{Type: eventError, Message: "authentication required"})
			_ = ws.SetWriteDeadline(time.Now().Add(5 * time.Second))
			_ = ws.WriteMessage(websocket.TextMessage, payload)
			_ = ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "authentication required"))
			_ = ws.Close()
			return
		}

		conn := realtime.NewConnection(principal.UserID, ws)
		ctl.registry.Attach(conn)
		defer func() {
			ctl.registry.Detach(conn)
			conn.Close(websocket.CloseNormalClosure, "session closed")
		}()

		ws.SetReadLimit(1 << 20)
		_ = ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		})

		ctl.registry.Join(realtime.UserRoom(conn.UserID), conn)
		ctl.joinExistingConversations(c.Request.Context(), conn)

		_ = conn.Send(mustMarshal(connectedEvent{
			Type:     eventConnected,
			UserID:   conn.UserID,
			SocketID: conn.ID,
		}))

		logger.Info("websocket session opened",
			zap.String("userId", conn.UserID),
			zap.String("socketId", conn.ID))

		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) ||
					errors.Is(err, websocket.ErrCloseSent) {
					return
				}
				logger.Debug("websocket read failed",
					zap.String("userId", conn.UserID), zap.Error(err))
				return
			}

			var frame inboundEvent
			if err := json.Unmarshal(data, &frame); err != nil {
				ctl.replyError(conn, "invalid payload")
				continue
			}

			switch frame.Type {
			case eventJoinConversation:
				ctl.handleJoin(c.Request.Context(), conn, frame)
			case eventSendMessage:
				ctl.handleSendMessage(c.Request.Context(), conn, frame)
			case eventTyping:
				ctl.handleTyping(c.Request.Context(), conn, frame)
			default:
				ctl.replyError(conn, "unknown event type")
			}
		}
	}
}

// joinExistingConversations subscribes the session to the rooms of every
// conversation the user already participates in, so messages arrive without
// an explicit join. Conversations created later still need a
// join-conversation event from this session.
func (ctl *ChatSocketController) joinExistingConversations(parent context.Context, conn *realtime.Connection) {
	ctx, cancel := context.WithTimeout(parent, ctl.inflightTimeout)
	defer cancel()

	conversations, err := ctl.listConvsUC.Execute(ctx, conn.UserID)
	if err != nil {
		logger.Warn("conversation snapshot failed on connect",
			zap.String("userId", conn.UserID), zap.Error(err))
		return
	}
	for _, conv := range conversations {
		ctl.registry.Join(realtime.ConversationRoom(conv.ID), conn)
	}
}

func (ctl *ChatSocketController) handleJoin(parent context.Context, conn *realtime.Connection, frame inboundEvent) {
	ctx, cancel := context.WithTimeout(parent, ctl.inflightTimeout)
	defer cancel()

	conv, err := ctl.getConvUC.Execute(ctx, frame.ConversationID)
	if err != nil {
		ctl.replyUseCaseError(conn, err)
		return
	}
	if !conv.HasParticipant(conn.UserID) {
		ctl.replyUseCaseError(conn, chat.ErrNotParticipant)
		return
	}

	ctl.registry.Join(realtime.ConversationRoom(conv.ID), conn)

	msgs, err := ctl.getMessagesUC.Execute(ctx, usecase.GetMessageInput{ConversationID: conv.ID})
	if err != nil {
		ctl.replyUseCaseError(conn, err)
		return
	}

	_ = conn.Send(mustMarshal(historyEvent{
		Type:           eventConversationHistory,
		ConversationID: conv.ID,
		Messages:       msgs,
	}))
}

func (ctl *ChatSocketController) handleSendMessage(parent context.Context, conn *realtime.Connection, frame inboundEvent) {
	ctx, cancel := context.WithTimeout(parent, ctl.inflightTimeout)
	defer cancel()

	msg, err := ctl.sendMessageUC.Execute(ctx, usecase.SendMessageInput{
		ConversationID: frame.ConversationID,
		SenderID:       conn.UserID,
		Content:        frame.Content,
	})
	if err != nil {
		// The session stays open; only the sender learns of the failure.
		ctl.replyUseCaseError(conn, err)
		return
	}

	ctl.broadcaster.BroadcastMessage(ctx, msg)
}

func (ctl *ChatSocketController) handleTyping(parent context.Context, conn *realtime.Connection, frame inboundEvent) {
	ctx, cancel := context.WithTimeout(parent, ctl.inflightTimeout)
	defer cancel()

	conv, err := ctl.getConvUC.Execute(ctx, frame.ConversationID)
	if err != nil {
		ctl.replyUseCaseError(conn, err)
		return
	}
	if !conv.HasParticipant(conn.UserID) {
		ctl.replyUseCaseError(conn, chat.ErrNotParticipant)
		return
	}

	payload := mustMarshal(userTypingEvent{
		Type:     eventUserTyping,
		UserID:   conn.UserID,
		IsTyping: frame.IsTyping,
	})
	ctl.registry.Broadcast(realtime.ConversationRoom(conv.ID), payload, conn.UserID)
}

func (ctl *ChatSocketController) replyUseCaseError(conn *realtime.Connection, err error) {
	msg := err.Error()
	if errors.Is(err, usecase.ErrPersistence) {
		msg = "unexpected persistence error"
	}
	ctl.replyError(conn, msg)
}

func (ctl *ChatSocketController) replyError(conn *realtime.Connection, message string) {
	_ = conn.Send(mustMarshal(errorEvent{Type: eventError, Message: message}))
}
