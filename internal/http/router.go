package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"skid-commons/internal/metrics"
	"skid-commons/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(
	logger *zap.Logger,
	jwtSvc *service.JWTService,
	authH *AuthHandler,
	chatH *ChatHandler,
	messageH *MessageHandler,
	wsHandler gin.HandlerFunc,
	webOrigin string,
) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: logging, recovery, CORS y metricas.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), corsMiddleware(webOrigin), metrics.GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	auth := r.Group("/api/auth")
	auth.POST("/register", authH.Register)
	auth.POST("/login", authH.Login)
	auth.POST("/refresh", authH.Refresh)
	auth.POST("/logout", authH.Logout)

	protected := r.Group("/api")
	protected.Use(JWTAuthMiddleware(jwtSvc))
	protected.GET("/chats", chatH.ListChats)
	protected.POST("/chats", chatH.CreateChat)
	protected.POST("/chats/:chatId/share", chatH.ShareChat)
	protected.GET("/chats/:chatId/participants", chatH.ListParticipants)
	protected.GET("/chats/:chatId/messages", messageH.ListMessages)
	protected.POST("/chats/:chatId/messages", messageH.SendMessage)

	if wsHandler != nil {
		ws := r.Group("/ws")
		ws.Use(JWTAuthMiddleware(jwtSvc))
		ws.GET("", wsHandler)
	}

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// corsMiddleware permite el origen del front configurado.
func corsMiddleware(webOrigin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" {
			c.Next()
			return
		}

		if webOrigin == "*" || strings.EqualFold(origin, webOrigin) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Max-Age", "86400")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
