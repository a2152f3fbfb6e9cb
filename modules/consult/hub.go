package consult

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"neue-studio-server/modules/studio"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// 브라우저 클라이언트는 다른 오리진에서 접속
		return true
	},
}

// 이벤트 타입
const (
	EventMessage = "message" // client → server: 사용자 메시지
	EventUpload  = "upload"  // client → server: 레퍼런스 업로드 수
	EventSession = "session" // server → client: 현재 메시지 로그
	EventTyping  = "typing"  // server → client: 응답 대기 중
	EventReply   = "reply"   // server → client: 모델 응답
	EventBusy    = "busy"    // server → client: 이전 전송 진행 중
	EventError   = "error"
)

// sendTimeout - 웹소켓 경유 전송 1회의 상한
const sendTimeout = 30 * time.Second

// Event - 웹소켓 메시지
type Event struct {
	Type      string               `json:"type"`
	SessionID string               `json:"sessionId,omitempty"`
	Content   string               `json:"content,omitempty"`
	Count     int                  `json:"count,omitempty"`
	Messages  []studio.ChatMessage `json:"messages,omitempty"`
	Error     string               `json:"error,omitempty"`
}

// Client - 연결된 브라우저 탭
type Client struct {
	conn      *websocket.Conn
	sessionID string
	clientID  string
	send      chan []byte
}

// Hub - 세션별 연결 목록. 같은 세션을 연 탭들이 응답을 함께 받음
type Hub struct {
	service *Service
	rooms   map[string]map[*Client]struct{}
	mutex   sync.RWMutex
}

func NewHub(service *Service) *Hub {
	return &Hub{
		service: service,
		rooms:   make(map[string]map[*Client]struct{}),
	}
}

// HandleWebSocket - /ws/consult?session={id}
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session is required", http.StatusBadRequest)
		return
	}

	session, err := h.service.Get(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, studio.ErrSessionNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("❌ [Consult] WebSocket upgrade failed: %v", err)
		return
	}

	clientID := r.URL.Query().Get("client")
	if clientID == "" {
		clientID = r.Header.Get(studio.ClientIDHeader)
	}

	client := &Client{
		conn:      conn,
		sessionID: sessionID,
		clientID:  clientID,
		send:      make(chan []byte, 64),
	}
	count := h.add(client)
	log.Printf("🔍 [Consult] WebSocket connected - Session: %s (connections: %d)", sessionID, count)

	client.enqueue(Event{Type: EventSession, SessionID: sessionID, Messages: session.Messages})

	go client.writePump()
	go h.readPump(client)
}

func (h *Hub) add(c *Client) int {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	room, ok := h.rooms[c.sessionID]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[c.sessionID] = room
	}
	room[c] = struct{}{}
	return len(room)
}

// remove - send 채널은 여기서만 닫음
func (h *Hub) remove(c *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	room, ok := h.rooms[c.sessionID]
	if !ok {
		return
	}
	if _, ok := room[c]; ok {
		delete(room, c)
		close(c.send)
	}
	if len(room) == 0 {
		delete(h.rooms, c.sessionID)
	}
}

// Broadcast - 세션의 모든 연결로 전송. 버퍼가 가득 찬 연결은 건너뜀
func (h *Hub) Broadcast(sessionID string, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("❌ [Consult] Failed to marshal event: %v", err)
		return
	}

	h.mutex.RLock()
	defer h.mutex.RUnlock()

	for c := range h.rooms[sessionID] {
		select {
		case c.send <- data:
		default:
			log.Printf("⚠️ [Consult] Dropping %s event for slow client in session %s", event.Type, sessionID)
		}
	}
}

// Connections - 세션의 현재 연결 수
func (h *Hub) Connections(sessionID string) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.rooms[sessionID])
}

// readPump - 클라이언트 이벤트 처리
func (h *Hub) readPump(c *Client) {
	defer func() {
		h.remove(c)
		c.conn.Close()
	}()

	for {
		var event Event
		if err := c.conn.ReadJSON(&event); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("❌ [Consult] WebSocket error: %v", err)
			}
			return
		}

		switch event.Type {
		case EventMessage:
			h.handleMessage(c, event.Content)
		case EventUpload:
			ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
			session, err := h.service.NoteUpload(ctx, c.sessionID, event.Count)
			cancel()
			if err != nil {
				h.sendError(c, err)
				continue
			}
			h.Broadcast(c.sessionID, Event{Type: EventSession, SessionID: c.sessionID, Messages: session.Messages})
		default:
			log.Printf("⚠️ [Consult] Unknown event type: %q", event.Type)
		}
	}
}

func (h *Hub) handleMessage(c *Client, content string) {
	h.Broadcast(c.sessionID, Event{Type: EventTyping, SessionID: c.sessionID})

	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	session, reply, err := h.service.Send(ctx, c.clientID, c.sessionID, content)
	if err != nil {
		h.sendError(c, err)
		return
	}
	h.Broadcast(c.sessionID, Event{Type: EventReply, SessionID: c.sessionID, Content: reply, Messages: session.Messages})
}

func (h *Hub) sendError(c *Client, err error) {
	if errors.Is(err, ErrBusy) {
		h.enqueueLocked(c, Event{Type: EventBusy, SessionID: c.sessionID, Error: err.Error()})
		return
	}
	h.enqueueLocked(c, Event{Type: EventError, SessionID: c.sessionID, Error: err.Error()})
}

// enqueueLocked - remove 와 경합하지 않도록 허브 잠금 하에서 전송
func (h *Hub) enqueueLocked(c *Client, event Event) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	if _, ok := h.rooms[c.sessionID][c]; ok {
		c.enqueue(event)
	}
}

func (c *Client) enqueue(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// writePump - send 채널이 닫히면 종료
func (c *Client) writePump() {
	defer c.conn.Close()

	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			log.Printf("❌ [Consult] WebSocket write error: %v", err)
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
