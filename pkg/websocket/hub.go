package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/backsoul/quizcatalog/pkg/logger"
	"github.com/fasthttp/websocket"
	"go.uber.org/zap"
)

// Conn lo que el hub necesita de una conexión
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// ClientMessage mensaje enviado por la página; hoy solo "resize"
type ClientMessage struct {
	Type  string `json:"type"`
	Width int    `json:"width"`
}

const (
	MessageScreen = "screen"
	MessageResize = "resize"
)

type subscription struct {
	sessionID string
	conn      Conn
}

type outbound struct {
	sessionID string
	data      []byte
}

// Hub agrupa las conexiones abiertas por sesión
type Hub struct {
	clients    map[string]map[Conn]bool
	send       chan outbound
	register   chan subscription
	unregister chan subscription
	done       chan struct{}
	mutex      sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[Conn]bool),
		send:       make(chan outbound, 64),
		register:   make(chan subscription),
		unregister: make(chan subscription),
		done:       make(chan struct{}),
	}
}

// Run atiende registros y envíos hasta que ctx termine; al salir cierra todas las conexiones
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case sub := <-h.register:
			h.mutex.Lock()
			conns, ok := h.clients[sub.sessionID]
			if !ok {
				conns = make(map[Conn]bool)
				h.clients[sub.sessionID] = conns
			}
			conns[sub.conn] = true
			h.mutex.Unlock()
			logger.Log.Debug("Cliente WebSocket conectado",
				zap.String("session", sub.sessionID), zap.Int("total", h.Count()))

		case sub := <-h.unregister:
			h.remove(sub.sessionID, sub.conn)
			logger.Log.Debug("Cliente WebSocket desconectado",
				zap.String("session", sub.sessionID), zap.Int("total", h.Count()))

		case msg := <-h.send:
			h.mutex.RLock()
			conns := make([]Conn, 0, len(h.clients[msg.sessionID]))
			for c := range h.clients[msg.sessionID] {
				conns = append(conns, c)
			}
			h.mutex.RUnlock()

			for _, c := range conns {
				if err := c.WriteMessage(websocket.TextMessage, msg.data); err != nil {
					logger.Log.Warn("Error enviando mensaje WebSocket",
						zap.String("session", msg.sessionID), zap.Error(err))
					h.remove(msg.sessionID, c)
				}
			}
		}
	}
}

func (h *Hub) remove(sessionID string, conn Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	conns, ok := h.clients[sessionID]
	if !ok {
		return
	}
	if _, ok := conns[conn]; ok {
		delete(conns, conn)
		conn.Close()
	}
	if len(conns) == 0 {
		delete(h.clients, sessionID)
	}
}

func (h *Hub) closeAll() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for id, conns := range h.clients {
		for c := range conns {
			c.Close()
		}
		delete(h.clients, id)
	}
}

func (h *Hub) Register(sessionID string, conn Conn) {
	select {
	case h.register <- subscription{sessionID: sessionID, conn: conn}:
	case <-h.done:
		conn.Close()
	}
}

func (h *Hub) Unregister(sessionID string, conn Conn) {
	select {
	case h.unregister <- subscription{sessionID: sessionID, conn: conn}:
	case <-h.done:
	}
}

// Count número total de conexiones abiertas
func (h *Hub) Count() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	n := 0
	for _, conns := range h.clients {
		n += len(conns)
	}
	return n
}

// SendToSession encola un mensaje para todas las conexiones de la sesión
func (h *Hub) SendToSession(sessionID, msgType string, data interface{}) {
	msgData, err := json.Marshal(Message{Type: msgType, Data: data})
	if err != nil {
		logger.Log.Error("Error serializando mensaje", zap.Error(err))
		return
	}

	select {
	case h.send <- outbound{sessionID: sessionID, data: msgData}:
	case <-h.done:
	}
}
