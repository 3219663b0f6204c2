package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"skid-commons/internal/service"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	maxMsgSize = 4096
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Client es una conexion websocket autenticada que puede unirse a varios
// chats a la vez. El canal send es propiedad del readPump: solo el lo cierra.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID string
	joined map[string]*ChatHub
}

// clientFrame es lo que el cliente puede mandar: unirse o salir de un chat.
type clientFrame struct {
	Type   string `json:"type"`
	ChatID string `json:"chatId"`
}

type errorFrame struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewWSHandler devuelve el handler de GET /ws. El middleware JWT ya corrio:
// una conexion sin claims no llega aca.
func NewWSHandler(logger *zap.Logger, hub *Hub, policy *service.ChatPolicyService, claimsFrom func(*gin.Context) (service.Claims, bool)) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := claimsFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing claims"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("ws upgrade failed", zap.Error(err))
			return
		}

		client := &Client{
			hub:    hub,
			conn:   conn,
			send:   make(chan []byte, 64),
			userID: claims.UserID,
			joined: make(map[string]*ChatHub),
		}
		trackConnect()

		go client.writePump()
		client.readPump(policy)
	}
}

func (c *Client) readPump(policy *service.ChatPolicyService) {
	defer func() {
		for _, hub := range c.joined {
			hub.unregister <- c
		}
		close(c.send)
		c.conn.Close()
		trackDisconnect()
	}()

	c.conn.SetReadLimit(maxMsgSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var f clientFrame
		if err := json.Unmarshal(raw, &f); err != nil || f.ChatID == "" {
			c.sendError("BAD_FRAME", "expected {type, chatId}")
			continue
		}

		switch f.Type {
		case "join":
			// La membresia se re-verifica en cada join; un token valido
			// no alcanza para entrar a un chat ajeno.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err := policy.EnsureParticipant(ctx, f.ChatID, c.userID)
			cancel()
			if err != nil {
				c.sendError("FORBIDDEN", "cannot join this chat")
				continue
			}
			if _, ok := c.joined[f.ChatID]; !ok {
				hub := c.hub.GetChat(f.ChatID)
				hub.register <- c
				c.joined[f.ChatID] = hub
			}
		case "leave":
			if hub, ok := c.joined[f.ChatID]; ok {
				hub.unregister <- c
				delete(c.joined, f.ChatID)
			}
		default:
			c.sendError("BAD_FRAME", "unknown frame type")
		}
	}
}

func (c *Client) sendError(code, msg string) {
	if b, err := json.Marshal(errorFrame{Type: "error", Code: code, Message: msg}); err == nil {
		select {
		case c.send <- b:
		default:
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
