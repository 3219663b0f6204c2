package ws

import (
	"encoding/json"
	"sync"
	"sync/atomic"

	"skid-commons/internal/domain"
	"skid-commons/internal/event"
	"skid-commons/internal/metrics"
)

// Hub administra los sub-hubs por chat con creacion perezosa y acceso
// concurrente seguro. Implementa event.Sink: es el unico receptor del bus
// de eventos de dominio.
type Hub struct {
	mu    sync.RWMutex
	chats map[string]*ChatHub
}

func NewHub() *Hub { return &Hub{chats: make(map[string]*ChatHub)} }

// GetChat inicializa el ChatHub si aun no existe.
func (h *Hub) GetChat(chatID string) *ChatHub {
	h.mu.RLock()
	hub := h.chats[chatID]
	h.mu.RUnlock()
	if hub != nil {
		return hub
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	hub = h.chats[chatID]
	if hub != nil {
		return hub
	}
	hub = NewChatHub(chatID)
	h.chats[chatID] = hub
	go hub.run()
	return hub
}

func (h *Hub) lookup(chatID string) *ChatHub {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.chats[chatID]
}

// frame es el mensaje JSON entregado a los clientes suscritos.
type frame struct {
	Type    string              `json:"type"`
	ChatID  string              `json:"chatId"`
	Message *domain.MessageView `json:"message,omitempty"`
	User    *domain.UserView    `json:"user,omitempty"`
}

// MessageCreated entrega el evento solo a las conexiones unidas al chat.
// Sin hub no hay suscriptores: el evento se descarta, la base es la
// fuente de verdad al reconectar.
func (h *Hub) MessageCreated(evt event.MessageCreated) {
	hub := h.lookup(evt.ChatID)
	if hub == nil {
		return
	}
	msg := evt.Message
	if b, err := json.Marshal(frame{Type: "chat:messageCreated", ChatID: evt.ChatID, Message: &msg}); err == nil {
		hub.broadcast <- b
	}
}

// ParticipantAdded entrega el evento solo a las conexiones unidas al chat.
func (h *Hub) ParticipantAdded(evt event.ParticipantAdded) {
	hub := h.lookup(evt.ChatID)
	if hub == nil {
		return
	}
	user := evt.User
	if b, err := json.Marshal(frame{Type: "chat:participantAdded", ChatID: evt.ChatID, User: &user}); err == nil {
		hub.broadcast <- b
	}
}

// ChatHub agrupa las conexiones unidas a un chat y serializa el fan-out
// en una sola goroutine.
type ChatHub struct {
	chatID     string
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	online     int32
}

func NewChatHub(chatID string) *ChatHub {
	return &ChatHub{
		chatID:     chatID,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
	}
}

func (ch *ChatHub) run() {
	for {
		select {
		case c := <-ch.register:
			ch.clients[c] = true
			atomic.StoreInt32(&ch.online, int32(len(ch.clients)))
		case c := <-ch.unregister:
			if _, ok := ch.clients[c]; ok {
				delete(ch.clients, c)
				atomic.StoreInt32(&ch.online, int32(len(ch.clients)))
			}
		case msg := <-ch.broadcast:
			for c := range ch.clients {
				select {
				case c.send <- msg:
				default:
					// Consumidor lento: se desconecta del chat, no se
					// cierra su canal aca; el duenio del canal es readPump.
					delete(ch.clients, c)
					atomic.StoreInt32(&ch.online, int32(len(ch.clients)))
				}
			}
		}
	}
}

// Online devuelve cuantas conexiones estan unidas al chat.
func (ch *ChatHub) Online() int { return int(atomic.LoadInt32(&ch.online)) }

// Metrics wiring mantenido fuera del run loop para poder testearlo sin registry.
func trackConnect()    { metrics.WsConnections.Inc() }
func trackDisconnect() { metrics.WsConnections.Dec() }
