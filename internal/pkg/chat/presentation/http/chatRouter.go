package http

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/LabasniDAM/Labasni-Backend/internal/infrastructure/auth"
	cacheport "github.com/LabasniDAM/Labasni-Backend/internal/infrastructure/cache/port"
	qport "github.com/LabasniDAM/Labasni-Backend/internal/infrastructure/queue/port"
	"github.com/LabasniDAM/Labasni-Backend/internal/infrastructure/realtime"
	"github.com/LabasniDAM/Labasni-Backend/internal/pkg/chat/application/task"
	repoAdapter "github.com/LabasniDAM/Labasni-Backend/internal/pkg/chat/persistence/repository/adapter"
	repository "github.com/LabasniDAM/Labasni-Backend/internal/pkg/chat/persistence/repository/port"
	"github.com/LabasniDAM/Labasni-Backend/internal/pkg/chat/presentation/controller"
)

// Deps carries the infrastructure the chat endpoints are wired with.
// Cache is optional; when present, sender profile lookups are read-through
// cached.
type Deps struct {
	Pool     *pgxpool.Pool
	Cache    cacheport.Cache
	Queue    qport.Client
	Worker   qport.Server
	Registry *realtime.Registry
	Verifier *auth.Verifier
}

// RegisterRoutes registers chat endpoints under the given router group.
// It constructs per-endpoint controllers and binds them directly to routes.
// The websocket endpoint authenticates during its own handshake and is bound
// outside the auth middleware.
func RegisterRoutes(g *gin.RouterGroup, d Deps) {
	repo := repoAdapter.NewPgChatRepository(d.Pool)

	var users repository.UserDirectory = repoAdapter.NewPgUserDirectory(d.Pool)
	if d.Cache != nil {
		users = repoAdapter.NewCachedUserDirectory(users, d.Cache)
	}

	broadcaster := controller.NewBroadcaster(d.Registry, repo)

	if d.Worker != nil {
		task.RegisterSendMessageTask(d.Worker, repo, users, broadcaster)
	}

	createCtl := controller.NewCreateConversationController(repo)
	listCtl := controller.NewListConversationsController(repo, users)
	getMsgCtl := controller.NewGetMessageController(repo, users)
	sendMsgCtl := controller.NewSendMessageController(repo, users, broadcaster)
	socketCtl := controller.NewChatSocketController(repo, users, d.Registry, d.Verifier, broadcaster)

	authed := g.Group("/chat", auth.Middleware(d.Verifier))
	authed.POST("/conversations", createCtl.Handle())
	authed.GET("/conversations", listCtl.Handle())
	authed.GET("/conversations/:id/messages", getMsgCtl.Handle())
	authed.POST("/messages", sendMsgCtl.Handle())

	if d.Queue != nil {
		queueCtl := controller.NewQueueMessageController(d.Queue)
		authed.POST("/messages/queue", queueCtl.Handle())
	}

	g.GET("/chat/ws", socketCtl.Handle())
}
