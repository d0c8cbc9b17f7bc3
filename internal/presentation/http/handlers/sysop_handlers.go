package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/withseismic/leadpulse-go/internal/application/container"
	"github.com/withseismic/leadpulse-go/internal/application/services"
	"github.com/withseismic/leadpulse-go/internal/infrastructure/messaging"
	"github.com/withseismic/leadpulse-go/internal/infrastructure/observability/logging"
	"github.com/withseismic/leadpulse-go/internal/infrastructure/security"
	"github.com/withseismic/leadpulse-go/pkg/config"
)

// SysOpHandlers handles SysOp dashboard authentication and data streaming
type SysOpHandlers struct {
	container *container.Container
}

// NewSysOpHandlers creates new SysOp handlers
func NewSysOpHandlers(container *container.Container) *SysOpHandlers {
	return &SysOpHandlers{
		container: container,
	}
}

// AuthCheck reports whether sysop access is configured and whether the
// caller holds a valid token.
func (h *SysOpHandlers) AuthCheck(c *gin.Context) {
	response := gin.H{
		"passwordRequired": config.SysOpPasswordHash != "",
		"authenticated":    false,
	}
	if config.SysOpPasswordHash == "" {
		response["message"] = "Set SYSOP_PASSWORD_HASH to enable the dashboard"
	}

	if token := bearerToken(c); token != "" {
		claims, err := security.ValidateJWT(token, config.JWTSecret)
		if err == nil && security.IsSysOpToken(claims) {
			response["authenticated"] = true
		}
	}

	c.JSON(http.StatusOK, response)
}

// Login handles SysOp authentication
func (h *SysOpHandlers) Login(c *gin.Context) {
	var request struct {
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	token, err := h.container.SysOpService.Login(request.Password)
	if err != nil {
		if errors.Is(err, services.ErrSysOpDisabled) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid password"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "token": token})
}

// SysOpAuthMiddleware protects SysOp-specific endpoints.
func (h *SysOpHandlers) SysOpAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			token = c.Query("token") // websocket clients cannot set headers
		}

		claims, err := security.ValidateJWT(token, config.JWTSecret)
		if err != nil || !security.IsSysOpToken(claims) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return authHeader[7:]
	}
	return ""
}

// GetLogLevels handles GET /api/sysop/logs/levels.
func (h *SysOpHandlers) GetLogLevels(c *gin.Context) {
	c.JSON(http.StatusOK, h.container.SysOpService.GetLogLevels())
}

// SetLogLevel handles POST /api/sysop/logs/levels.
func (h *SysOpHandlers) SetLogLevel(c *gin.Context) {
	var req struct {
		Channel string `json:"channel" binding:"required"`
		Level   string `json:"level" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := h.container.SysOpService.SetLogLevel(req.Channel, req.Level); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": fmt.Sprintf("Log level for channel '%s' set to '%s'", req.Channel, req.Level)})
}

// GetPerformanceStats handles GET /api/sysop/performance.
func (h *SysOpHandlers) GetPerformanceStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.container.SysOpService.GetPerformanceStats())
}

// ForceToast handles POST /api/sysop/force/toast - debug affordance for
// poking a toast at a live visitor.
func (h *SysOpHandlers) ForceToast(c *gin.Context) {
	var req struct {
		VisitorID string `json:"visitorId" binding:"required"`
		Message   string `json:"message" binding:"required"`
		Level     string `json:"level"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	h.container.SysOpService.ForceToast(req.VisitorID, req.Message, req.Level)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ForceAchievement handles POST /api/sysop/force/achievement.
func (h *SysOpHandlers) ForceAchievement(c *gin.Context) {
	var req struct {
		VisitorID     string `json:"visitorId" binding:"required"`
		AchievementID string `json:"achievementId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.container.SysOpService.ForceAchievement(req.VisitorID, req.AchievementID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ForceQualifiedWidget handles POST /api/sysop/force/widget.
func (h *SysOpHandlers) ForceQualifiedWidget(c *gin.Context) {
	var req struct {
		VisitorID string `json:"visitorId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	h.container.SysOpService.ForceQualifiedWidget(req.VisitorID)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

var sessionMapUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // dashboard is served from a different origin in dev
	},
}

// SessionMapWS handles GET /api/sysop/session-map - upgrades to a websocket
// that receives the engagement-level distribution on every tick.
func (h *SysOpHandlers) SessionMapWS(c *gin.Context) {
	conn, err := sessionMapUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.container.Logger.SSE().Error("Session map upgrade failed", "error", err.Error())
		return
	}

	client := &messaging.SysOpClient{
		Conn: conn,
		Send: make(chan []byte, 8),
	}
	h.container.SysOpBroadcaster.Register(client)

	go func() {
		defer func() {
			h.container.SysOpBroadcaster.Unregister(client)
			conn.Close()
		}()
		for message := range client.Send {
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		}
	}()

	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.container.SysOpBroadcaster.Unregister(client)
				return
			}
		}
	}()
}

// StreamLogs handles the SSE connection for live log streaming.
func (h *SysOpHandlers) StreamLogs(c *gin.Context) {
	broadcaster := logging.GetBroadcaster()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	channelFilter := c.DefaultQuery("channel", "all")
	levelFilter := c.DefaultQuery("level", "INFO")
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(levelFilter)); err != nil {
		logLevel = slog.LevelInfo
	}

	filters := logging.AppliedFilters{
		Channel: logging.Channel(channelFilter),
		Level:   logLevel,
	}

	client := broadcaster.NewClient(filters)
	broadcaster.RegisterClient(client)
	defer broadcaster.UnregisterClient(client)

	fmt.Fprintf(c.Writer, ": connection established\n\n")
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case message, ok := <-client.Channel:
			if !ok {
				return false
			}
			fmt.Fprintf(w, "data: %s\n\n", message)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
