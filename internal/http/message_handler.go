package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"skid-commons/internal/service"
)

const maxMessageLength = 5000

// MessageHandler mantiene dependencias para endpoints de mensajes.
type MessageHandler struct {
	logger      *zap.Logger
	messageServ *service.MessageService
}

func NewMessageHandler(logger *zap.Logger, messageServ *service.MessageService) *MessageHandler {
	return &MessageHandler{
		logger:      logger,
		messageServ: messageServ,
	}
}

// ListMessages maneja GET /api/chats/:chatId/messages.
func (h *MessageHandler) ListMessages(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing claims"})
		return
	}

	messages, err := h.messageServ.ListMessages(c.Request.Context(), c.Param("chatId"), claims.UserID)
	if err != nil {
		respondError(c, h.logger, err, "could not list messages")
		return
	}

	c.JSON(http.StatusOK, messages)
}

// SendMessage maneja POST /api/chats/:chatId/messages. Devuelve el mensaje
// humano recien creado; la respuesta del asistente llega despues por el
// canal realtime.
func (h *MessageHandler) SendMessage(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing claims"})
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid send message request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if len(req.Content) > maxMessageLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content too long"})
		return
	}

	view, err := h.messageServ.SendHumanMessage(c.Request.Context(), c.Param("chatId"), claims.UserID, req.Content)
	if err != nil {
		respondError(c, h.logger, err, "could not send message")
		return
	}

	c.JSON(http.StatusCreated, view)
}
