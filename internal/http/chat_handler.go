package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"skid-commons/internal/service"
)

// ChatHandler mantiene dependencias para endpoints de chats.
type ChatHandler struct {
	logger   *zap.Logger
	chatServ *service.ChatService
}

func NewChatHandler(logger *zap.Logger, chatServ *service.ChatService) *ChatHandler {
	return &ChatHandler{
		logger:   logger,
		chatServ: chatServ,
	}
}

// ListChats maneja GET /api/chats.
func (h *ChatHandler) ListChats(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing claims"})
		return
	}

	owned, shared, err := h.chatServ.ListChats(c.Request.Context(), claims.UserID)
	if err != nil {
		respondError(c, h.logger, err, "could not list chats")
		return
	}

	c.JSON(http.StatusOK, gin.H{"owned": owned, "shared": shared})
}

// CreateChat maneja POST /api/chats. Title es opcional: ausente o en blanco
// crea un chat sin titulo.
func (h *ChatHandler) CreateChat(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing claims"})
		return
	}

	var req struct {
		Title string `json:"title"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid create chat request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	var title *string
	if trimmed := strings.TrimSpace(req.Title); trimmed != "" {
		if len(trimmed) > 120 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "title too long"})
			return
		}
		title = &trimmed
	}

	summary, err := h.chatServ.CreateChat(c.Request.Context(), claims.UserID, title)
	if err != nil {
		respondError(c, h.logger, err, "could not create chat")
		return
	}

	c.JSON(http.StatusCreated, summary)
}

// ShareChat maneja POST /api/chats/:chatId/share.
func (h *ChatHandler) ShareChat(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing claims"})
		return
	}

	var req struct {
		TargetAccountID string `json:"targetAccountId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid share chat request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	err := h.chatServ.ShareChat(c.Request.Context(), c.Param("chatId"), claims.UserID, req.TargetAccountID)
	if err != nil {
		respondError(c, h.logger, err, "could not share chat")
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// ListParticipants maneja GET /api/chats/:chatId/participants.
func (h *ChatHandler) ListParticipants(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing claims"})
		return
	}

	participants, err := h.chatServ.ListParticipants(c.Request.Context(), c.Param("chatId"), claims.UserID)
	if err != nil {
		respondError(c, h.logger, err, "could not list participants")
		return
	}

	c.JSON(http.StatusOK, participants)
}
