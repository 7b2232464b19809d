package chats

import (
	"sync"

	"github.com/gorilla/websocket"
)

type Client struct {
	Conn   *websocket.Conn
	Send   chan []byte
	ChatID string
	UserID string

	mu     sync.Mutex
	closed bool
}

// trySend queues data for the client unless it has been torn down or its
// buffer is full. Reports whether the frame was accepted. The lock keeps a
// queue attempt from racing closeSend, which would panic on a closed channel.
func (c *Client) trySend(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

// closeSend closes the send channel exactly once. Safe to call from the hub
// and from connection teardown concurrently.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

type broadcastMsg struct {
	ChatID string
	Data   []byte
}

// Hub fans messages out to every client connected to a chat.
type Hub struct {
	rooms      map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan broadcastMsg
	done       chan struct{}
	mu         sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan broadcastMsg),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			return

		case c := <-h.register:
			h.mu.Lock()
			if h.rooms[c.ChatID] == nil {
				h.rooms[c.ChatID] = make(map[*Client]bool)
			}
			h.rooms[c.ChatID][c] = true
			h.mu.Unlock()

		case c := <-h.unregister:
			h.mu.Lock()
			if conns := h.rooms[c.ChatID]; conns != nil && conns[c] {
				delete(conns, c)
				c.closeSend()
			}
			h.mu.Unlock()

		case m := <-h.broadcast:
			h.mu.Lock()
			for c := range h.rooms[m.ChatID] {
				if !c.trySend(m.Data) {
					c.closeSend()
					delete(h.rooms[m.ChatID], c)
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) Stop() {
	close(h.done)
}

// Broadcast queues data for every client in the chat.
func (h *Hub) Broadcast(chatID string, data []byte) {
	h.broadcast <- broadcastMsg{ChatID: chatID, Data: data}
}
