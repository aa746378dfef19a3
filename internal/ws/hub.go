package ws

import "sync"

// Subscriber abstracts a streaming client.
type Subscriber interface {
	Send([]byte) error
	Close()
}

// Hub fans announcement payloads out to subscribers keyed by course.
type Hub struct {
	mu        sync.RWMutex
	clients   map[string]map[Subscriber]struct{}
	register  chan subscription
	unreg     chan subscription
	broadcast chan message
}

type message struct {
	course  string
	payload []byte
}

type subscription struct {
	course string
	client Subscriber
}

// NewHub creates an initialized Hub and starts its dispatch loop.
func NewHub() *Hub {
	h := &Hub{
		clients:   make(map[string]map[Subscriber]struct{}),
		register:  make(chan subscription),
		unreg:     make(chan subscription),
		broadcast: make(chan message),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case sub := <-h.register:
			if _, ok := h.clients[sub.course]; !ok {
				h.clients[sub.course] = make(map[Subscriber]struct{})
			}
			h.clients[sub.course][sub.client] = struct{}{}
		case sub := <-h.unreg:
			if clients, ok := h.clients[sub.course]; ok {
				delete(clients, sub.client)
				if len(clients) == 0 {
					delete(h.clients, sub.course)
				}
			}
		case msg := <-h.broadcast:
			if clients, ok := h.clients[msg.course]; ok {
				for c := range clients {
					if err := c.Send(msg.payload); err != nil {
						c.Close()
						delete(clients, c)
					}
				}
				if len(clients) == 0 {
					delete(h.clients, msg.course)
				}
			}
		}
	}
}

// Register subscribes a client to a course feed.
func (h *Hub) Register(course string, client Subscriber) {
	h.register <- subscription{course: course, client: client}
}

// Unregister removes a client from a course feed.
func (h *Hub) Unregister(course string, client Subscriber) {
	h.unreg <- subscription{course: course, client: client}
}

// Broadcast sends payload to every subscriber of the course.
func (h *Hub) Broadcast(course string, payload []byte) {
	h.broadcast <- message{course: course, payload: payload}
}
