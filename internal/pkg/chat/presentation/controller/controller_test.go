package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/LabasniDAM/Labasni-Backend/internal/infrastructure/auth"
	"github.com/LabasniDAM/Labasni-Backend/internal/infrastructure/realtime"
	chat "github.com/LabasniDAM/Labasni-Backend/internal/pkg/chat/application/domain"
)

// fakeRepo is an in-memory ChatRepository with the same upsert and ordering
// semantics as the postgres adapter.
type fakeRepo struct {
	mu            sync.Mutex
	conversations map[string]*chat.Conversation
	messages      map[string][]chat.Message
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		conversations: make(map[string]*chat.Conversation),
		messages:      make(map[string][]chat.Message),
	}
}

func (r *fakeRepo) InsertConversation(_ context.Context, c chat.Conversation) (*chat.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.conversations {
		if existing.Participants == c.Participants {
			cp := *existing
			return &cp, nil
		}
	}
	c.ID = uuid.NewString()
	stored := c
	r.conversations[c.ID] = &stored
	cp := stored
	return &cp, nil
}

func (r *fakeRepo) FindConversationByParticipants(_ context.Context, pair [2]string) (*chat.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.conversations {
		if c.Participants == pair {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeRepo) FindConversationByID(_ context.Context, id string) (*chat.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conversations[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *fakeRepo) UpdateLastMessage(_ context.Context, conversationID, messageID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.conversations[conversationID]; ok {
		c.LastMessageID = &messageID
		c.UpdatedAt = at
	}
	return nil
}

func (r *fakeRepo) InsertMessage(_ context.Context, m chat.Message) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m.ID = uuid.NewString()
	r.messages[m.ConversationID] = append(r.messages[m.ConversationID], m)
	return m.ID, nil
}

func (r *fakeRepo) ListMessages(_ context.Context, conversationID string, limit, offset int) ([]chat.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	msgs := r.messages[conversationID]
	if offset > len(msgs) {
		offset = len(msgs)
	}
	msgs = msgs[offset:]
	if limit > 0 && limit < len(msgs) {
		msgs = msgs[:limit]
	}
	out := make([]chat.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (r *fakeRepo) ListConversationsByParticipant(_ context.Context, userID string) ([]chat.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []chat.Conversation
	for _, c := range r.conversations {
		if c.HasParticipant(userID) {
			out = append(out, *c)
		}
	}
	return out, nil
}

type fakeDirectory struct{}

func (fakeDirectory) GetProfile(_ context.Context, userID string) (*chat.SenderProfile, error) {
	return &chat.SenderProfile{ID: userID, FullName: "User " + userID[:8]}, nil
}

type testEnv struct {
	engine   *gin.Engine
	repo     *fakeRepo
	registry *realtime.Registry
	verifier *auth.Verifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := newFakeRepo()
	registry := realtime.NewRegistry()
	t.Cleanup(registry.Close)
	verifier := auth.NewVerifier([]byte("test-secret"))

	broadcaster := NewBroadcaster(registry, repo)
	users := fakeDirectory{}

	r := gin.New()
	authed := r.Group("/api/v1/chat", auth.Middleware(verifier))
	authed.POST("/conversations", NewCreateConversationController(repo).Handle())
	authed.GET("/conversations", NewListConversationsController(repo, users).Handle())
	authed.GET("/conversations/:id/messages", NewGetMessageController(repo, users).Handle())
	authed.POST("/messages", NewSendMessageController(repo, users, broadcaster).Handle())
	r.GET("/api/v1/chat/ws", NewChatSocketController(repo, users, registry, verifier, broadcaster).Handle())

	return &testEnv{engine: r, repo: repo, registry: registry, verifier: verifier}
}

func (e *testEnv) token(t *testing.T, userID string) string {
	t.Helper()
	tok, err := e.verifier.Sign(userID, time.Minute)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

func (e *testEnv) request(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func TestCreateConversationIdempotent(t *testing.T) {
	env := newTestEnv(t)
	alice := uuid.NewString()
	bob := uuid.NewString()

	w1 := env.request(t, http.MethodPost, "/api/v1/chat/conversations", env.token(t, alice),
		gin.H{"participantId": bob})
	if w1.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w1.Code, w1.Body.String())
	}
	var first chat.Conversation
	if err := json.Unmarshal(w1.Body.Bytes(), &first); err != nil {
		t.Fatalf("decode: %v", err)
	}

	// Same pair from the other side resolves to the same conversation.
	w2 := env.request(t, http.MethodPost, "/api/v1/chat/conversations", env.token(t, bob),
		gin.H{"participantId": alice})
	if w2.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w2.Code)
	}
	var second chat.Conversation
	if err := json.Unmarshal(w2.Body.Bytes(), &second); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected one conversation, got %s and %s", first.ID, second.ID)
	}
}

func TestCreateConversationRejectsSelf(t *testing.T) {
	env := newTestEnv(t)
	alice := uuid.NewString()

	w := env.request(t, http.MethodPost, "/api/v1/chat/conversations", env.token(t, alice),
		gin.H{"participantId": alice})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestEndpointsRequireAuth(t *testing.T) {
	env := newTestEnv(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/api/v1/chat/conversations"},
		{http.MethodGet, "/api/v1/chat/conversations"},
		{http.MethodGet, "/api/v1/chat/conversations/x/messages"},
		{http.MethodPost, "/api/v1/chat/messages"},
	} {
		w := env.request(t, tc.method, tc.path, "", nil)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: expected 401, got %d", tc.method, tc.path, w.Code)
		}
	}
}

func TestSendMessageStatusMapping(t *testing.T) {
	env := newTestEnv(t)
	alice := uuid.NewString()
	bob := uuid.NewString()
	carol := uuid.NewString()

	w := env.request(t, http.MethodPost, "/api/v1/chat/conversations", env.token(t, alice),
		gin.H{"participantId": bob})
	var conv chat.Conversation
	if err := json.Unmarshal(w.Body.Bytes(), &conv); err != nil {
		t.Fatalf("decode: %v", err)
	}

	// Non-participant is rejected and nothing is stored.
	w = env.request(t, http.MethodPost, "/api/v1/chat/messages", env.token(t, carol),
		gin.H{"conversationId": conv.ID, "content": "hi"})
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
	if msgs, _ := env.repo.ListMessages(context.Background(), conv.ID, 0, 0); len(msgs) != 0 {
		t.Fatalf("expected no stored messages, got %d", len(msgs))
	}

	// Unknown conversation.
	w = env.request(t, http.MethodPost, "/api/v1/chat/messages", env.token(t, alice),
		gin.H{"conversationId": uuid.NewString(), "content": "hi"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}

	// Malformed conversation id.
	w = env.request(t, http.MethodPost, "/api/v1/chat/messages", env.token(t, alice),
		gin.H{"conversationId": "not-a-uuid", "content": "hi"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}

	// Whitespace-only content.
	w = env.request(t, http.MethodPost, "/api/v1/chat/messages", env.token(t, alice),
		gin.H{"conversationId": conv.ID, "content": "   "})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}

	// Valid send from a participant.
	w = env.request(t, http.MethodPost, "/api/v1/chat/messages", env.token(t, alice),
		gin.H{"conversationId": conv.ID, "content": "hello bob"})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var msg chat.Message
	if err := json.Unmarshal(w.Body.Bytes(), &msg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.SenderID != alice || msg.Content != "hello bob" {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if msg.Sender == nil || msg.Sender.ID != alice {
		t.Fatalf("expected resolved sender profile, got %+v", msg.Sender)
	}
}

func TestGetMessagesAscending(t *testing.T) {
	env := newTestEnv(t)
	alice := uuid.NewString()
	bob := uuid.NewString()

	w := env.request(t, http.MethodPost, "/api/v1/chat/conversations", env.token(t, alice),
		gin.H{"participantId": bob})
	var conv chat.Conversation
	if err := json.Unmarshal(w.Body.Bytes(), &conv); err != nil {
		t.Fatalf("decode: %v", err)
	}

	for _, content := range []string{"one", "two", "three"} {
		w = env.request(t, http.MethodPost, "/api/v1/chat/messages", env.token(t, alice),
			gin.H{"conversationId": conv.ID, "content": content})
		if w.Code != http.StatusCreated {
			t.Fatalf("send %q: expected 201, got %d", content, w.Code)
		}
	}

	w = env.request(t, http.MethodGet, "/api/v1/chat/conversations/"+conv.ID+"/messages", env.token(t, bob), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var msgs []chat.Message
	if err := json.Unmarshal(w.Body.Bytes(), &msgs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	for i, want := range []string{"one", "two", "three"} {
		if msgs[i].Content != want {
			t.Fatalf("position %d: expected %q, got %q", i, want, msgs[i].Content)
		}
	}

	// Pagination window.
	w = env.request(t, http.MethodGet, "/api/v1/chat/conversations/"+conv.ID+"/messages?limit=1&offset=1", env.token(t, bob), nil)
	if err := json.Unmarshal(w.Body.Bytes(), &msgs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Content != "two" {
		t.Fatalf("expected window [two], got %+v", msgs)
	}
}

func TestHandshakeTokenPrecedence(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/ws?token=from-query", nil)
	req.Header.Set("Sec-WebSocket-Protocol", "bearer.from-proto")
	req.Header.Set("Authorization", "Bearer from-header")

	token, proto := handshakeToken(req)
	if token != "from-query" || proto != "" {
		t.Fatalf("query should win, got token=%q proto=%q", token, proto)
	}

	req = httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Sec-WebSocket-Protocol", "bearer.from-proto")
	req.Header.Set("Authorization", "Bearer from-header")
	token, proto = handshakeToken(req)
	if token != "from-proto" || proto != "bearer.from-proto" {
		t.Fatalf("subprotocol should win over header, got token=%q proto=%q", token, proto)
	}

	req = httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Authorization", "Bearer from-header")
	token, proto = handshakeToken(req)
	if token != "from-header" || proto != "" {
		t.Fatalf("header fallback, got token=%q proto=%q", token, proto)
	}
}

// wsClient wraps a dialed websocket for event-level reads in tests.
type wsClient struct {
	t    *testing.T
	conn *websocket.Conn
}

func dialWS(t *testing.T, srv *httptest.Server, token string) *wsClient {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/chat/ws"
	if token != "" {
		url += "?token=" + token
	}
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return &wsClient{t: t, conn: conn}
}

func (c *wsClient) send(v interface{}) {
	c.t.Helper()
	if err := c.conn.WriteJSON(v); err != nil {
		c.t.Fatalf("write: %v", err)
	}
}

// readEvent reads frames until one matches eventType, failing on timeout.
func (c *wsClient) readEvent(eventType string) map[string]json.RawMessage {
	c.t.Helper()
	_ = c.conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		var raw map[string]json.RawMessage
		if err := c.conn.ReadJSON(&raw); err != nil {
			c.t.Fatalf("read while waiting for %q: %v", eventType, err)
		}
		var typ string
		_ = json.Unmarshal(raw["type"], &typ)
		if typ == eventType {
			return raw
		}
	}
}

func TestWebSocketRejectsInvalidToken(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.engine)
	defer srv.Close()

	client := dialWS(t, srv, "not-a-token")
	frame := client.readEvent(eventError)

	var msg string
	_ = json.Unmarshal(frame["message"], &msg)
	if msg != "authentication required" {
		t.Fatalf("unexpected error message: %q", msg)
	}

	// The server closes right after the error frame.
	_ = client.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := client.conn.ReadMessage(); err == nil {
		t.Fatal("expected connection to be closed")
	}
}

func TestWebSocketMessageDelivery(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.engine)
	defer srv.Close()

	alice := uuid.NewString()
	bob := uuid.NewString()

	w := env.request(t, http.MethodPost, "/api/v1/chat/conversations", env.token(t, alice),
		gin.H{"participantId": bob})
	var conv chat.Conversation
	if err := json.Unmarshal(w.Body.Bytes(), &conv); err != nil {
		t.Fatalf("decode: %v", err)
	}

	aliceWS := dialWS(t, srv, env.token(t, alice))
	bobWS := dialWS(t, srv, env.token(t, bob))
	aliceWS.readEvent(eventConnected)
	bobWS.readEvent(eventConnected)

	// Both sessions were subscribed to the existing conversation on connect,
	// so no explicit join is needed before sending.
	aliceWS.send(inboundEvent{Type: eventSendMessage, ConversationID: conv.ID, Content: "hi bob"})

	frame := bobWS.readEvent(eventNewMessage)
	var got chat.Message
	if err := json.Unmarshal(frame["message"], &got); err != nil {
		t.Fatalf("decode message: %v", err)
	}
	if got.Content != "hi bob" || got.SenderID != alice {
		t.Fatalf("unexpected delivery: %+v", got)
	}

	// The recipient also gets a conversation-updated on their user room.
	updated := bobWS.readEvent(eventConversationUpdated)
	var convID string
	_ = json.Unmarshal(updated["conversationId"], &convID)
	if convID != conv.ID {
		t.Fatalf("expected update for %s, got %s", conv.ID, convID)
	}

	// The sender's own session sees the new message too.
	senderFrame := aliceWS.readEvent(eventNewMessage)
	if err := json.Unmarshal(senderFrame["message"], &got); err != nil {
		t.Fatalf("decode sender echo: %v", err)
	}
	if got.Content != "hi bob" {
		t.Fatalf("unexpected sender echo: %+v", got)
	}
}

func TestWebSocketJoinReplaysHistory(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.engine)
	defer srv.Close()

	alice := uuid.NewString()
	bob := uuid.NewString()

	w := env.request(t, http.MethodPost, "/api/v1/chat/conversations", env.token(t, alice),
		gin.H{"participantId": bob})
	var conv chat.Conversation
	if err := json.Unmarshal(w.Body.Bytes(), &conv); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, content := range []string{"first", "second"} {
		env.request(t, http.MethodPost, "/api/v1/chat/messages", env.token(t, alice),
			gin.H{"conversationId": conv.ID, "content": content})
	}

	bobWS := dialWS(t, srv, env.token(t, bob))
	bobWS.readEvent(eventConnected)

	bobWS.send(inboundEvent{Type: eventJoinConversation, ConversationID: conv.ID})
	frame := bobWS.readEvent(eventConversationHistory)

	var msgs []chat.Message
	if err := json.Unmarshal(frame["messages"], &msgs); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(msgs) != 2 || msgs[0].Content != "first" || msgs[1].Content != "second" {
		t.Fatalf("unexpected history: %+v", msgs)
	}
}

func TestWebSocketTypingRelayExcludesSender(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.engine)
	defer srv.Close()

	alice := uuid.NewString()
	bob := uuid.NewString()

	w := env.request(t, http.MethodPost, "/api/v1/chat/conversations", env.token(t, alice),
		gin.H{"participantId": bob})
	var conv chat.Conversation
	if err := json.Unmarshal(w.Body.Bytes(), &conv); err != nil {
		t.Fatalf("decode: %v", err)
	}

	aliceWS := dialWS(t, srv, env.token(t, alice))
	bobWS := dialWS(t, srv, env.token(t, bob))
	aliceWS.readEvent(eventConnected)
	bobWS.readEvent(eventConnected)

	aliceWS.send(inboundEvent{Type: eventTyping, ConversationID: conv.ID, IsTyping: true})

	frame := bobWS.readEvent(eventUserTyping)
	var userID string
	var isTyping bool
	_ = json.Unmarshal(frame["userId"], &userID)
	_ = json.Unmarshal(frame["isTyping"], &isTyping)
	if userID != alice || !isTyping {
		t.Fatalf("unexpected typing event: userId=%q isTyping=%v", userID, isTyping)
	}

	// The sender must not receive their own typing echo.
	_ = aliceWS.conn.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	var raw map[string]json.RawMessage
	if err := aliceWS.conn.ReadJSON(&raw); err == nil {
		var typ string
		_ = json.Unmarshal(raw["type"], &typ)
		if typ == eventUserTyping {
			t.Fatal("sender received their own typing event")
		}
	}
}

func TestWebSocketSendErrorsStaySenderLocal(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.engine)
	defer srv.Close()

	alice := uuid.NewString()
	aliceWS := dialWS(t, srv, env.token(t, alice))
	aliceWS.readEvent(eventConnected)

	aliceWS.send(inboundEvent{Type: eventSendMessage, ConversationID: uuid.NewString(), Content: "hi"})
	aliceWS.readEvent(eventError)

	// The session survives the failure.
	aliceWS.send(inboundEvent{Type: "bogus"})
	aliceWS.readEvent(eventError)
}
