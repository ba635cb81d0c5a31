package realtime

import (
	"sync"
)

// Room naming. A session sits in its personal room plus one room per
// conversation it has joined.
func UserRoom(userID string) string             { return "user:" + userID }
func ConversationRoom(conversationID string) string { return "conversation:" + conversationID }

// Registry tracks authenticated realtime sessions and their room membership.
// Membership is mutated only by the owning connection's handler goroutine
// (handshake, join events); broadcasts from any other handler take the read
// lock, so the maps stay safe under concurrent fan-out.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Connection            // connection ID -> connection
	rooms    map[string]map[string]*Connection // room name -> connection ID -> connection
	joined   map[string]map[string]struct{}    // connection ID -> set of room names
}

// NewRegistry constructs an initialized Registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Connection),
		rooms:    make(map[string]map[string]*Connection),
		joined:   make(map[string]map[string]struct{}),
	}
}

// Attach registers a connection and starts its write loop. A user may hold
// several live sessions at once (multiple devices).
func (r *Registry) Attach(conn *Connection) {
	r.mu.Lock()
	r.sessions[conn.ID] = conn
	r.joined[conn.ID] = make(map[string]struct{})
	r.mu.Unlock()

	conn.Start()
}

// Detach removes a connection from the registry and every room it joined.
// It does not close the connection; the owning handler does that.
func (r *Registry) Detach(conn *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[conn.ID]; !ok {
		return
	}
	delete(r.sessions, conn.ID)
	for room := range r.joined[conn.ID] {
		r.leaveLocked(room, conn.ID)
	}
	delete(r.joined, conn.ID)
}

// Join idempotently adds the connection to the named room. Connections that
// were never attached (or already detached) are ignored.
func (r *Registry) Join(room string, conn *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[conn.ID]; !ok {
		return
	}

	members := r.rooms[room]
	if members == nil {
		members = make(map[string]*Connection)
		r.rooms[room] = members
	}
	members[conn.ID] = conn
	r.joined[conn.ID][room] = struct{}{}
}

// Leave removes the connection from the named room.
func (r *Registry) Leave(room string, conn *Connection) {
	r.mu.Lock()
	r.leaveLocked(room, conn.ID)
	if memberships, ok := r.joined[conn.ID]; ok {
		delete(memberships, room)
	}
	r.mu.Unlock()
}

// Broadcast writes payload to every session in the room. excludeUserID, when
// non-empty, skips all of that user's sessions. Returns the delivery count.
func (r *Registry) Broadcast(room string, payload []byte, excludeUserID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	delivered := 0
	for _, conn := range r.rooms[room] {
		if excludeUserID != "" && conn.UserID == excludeUserID {
			continue
		}
		if err := conn.Send(payload); err == nil {
			delivered++
		}
	}
	return delivered
}

// InRoom reports whether the connection is currently a member of the room.
func (r *Registry) InRoom(room string, conn *Connection) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rooms[room][conn.ID]
	return ok
}

// Close terminates every tracked connection and clears registry state.
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := make([]*Connection, 0, len(r.sessions))
	for _, conn := range r.sessions {
		sessions = append(sessions, conn)
	}
	r.sessions = make(map[string]*Connection)
	r.rooms = make(map[string]map[string]*Connection)
	r.joined = make(map[string]map[string]struct{})
	r.mu.Unlock()

	for _, conn := range sessions {
		conn.Close(1001, "registry shutdown")
	}
}

func (r *Registry) leaveLocked(room string, connID string) {
	members := r.rooms[room]
	if members == nil {
		return
	}
	delete(members, connID)
	if len(members) == 0 {
		delete(r.rooms, room)
	}
}
