package handlers

import (
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/withseismic/leadpulse-go/internal/application/services"
	"github.com/withseismic/leadpulse-go/internal/infrastructure/messaging"
	"github.com/withseismic/leadpulse-go/internal/infrastructure/observability/logging"
	"github.com/withseismic/leadpulse-go/internal/presentation/http/middleware"
	"github.com/withseismic/leadpulse-go/pkg/config"
)

// NotificationHandlers serves the visitor-facing SSE stream that carries
// toasts, achievement unlocks, and the qualified-lead widget.
type NotificationHandlers struct {
	broadcaster    *messaging.SSEBroadcaster
	profileService *services.ProfileService
	logger         *logging.ChanneledLogger
}

// NewNotificationHandlers creates notification handlers with injected dependencies
func NewNotificationHandlers(broadcaster *messaging.SSEBroadcaster, profileService *services.ProfileService, logger *logging.ChanneledLogger) *NotificationHandlers {
	return &NotificationHandlers{
		broadcaster:    broadcaster,
		profileService: profileService,
		logger:         logger,
	}
}

// safeSSEConnection wraps an SSE channel with safe closing
type safeSSEConnection struct {
	ch     chan string
	closed int32
}

func (sc *safeSSEConnection) SafeClose() bool {
	if atomic.CompareAndSwapInt32(&sc.closed, 0, 1) {
		close(sc.ch)
		return true
	}
	return false
}

// GetStream handles GET /api/v1/notifications/stream. Each visitor may hold
// a limited number of concurrent connections; extra tabs are refused.
func (h *NotificationHandlers) GetStream(c *gin.Context) {
	visitorID, _ := middleware.GetVisitorID(c)

	if h.broadcaster.GetConnectionCount(visitorID) >= config.MaxNotificationConnections {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many open notification streams"})
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	ch := h.broadcaster.AddClient(visitorID)
	conn := &safeSSEConnection{ch: ch}
	defer func() {
		h.broadcaster.RemoveClient(ch, visitorID)
		conn.SafeClose()
	}()

	fmt.Fprintf(c.Writer, ": connected\n\n")
	c.Writer.Flush()

	heartbeat := time.NewTicker(time.Duration(config.SSEHeartbeatIntervalSeconds) * time.Second)
	defer heartbeat.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case message, ok := <-ch:
			if !ok {
				return false
			}
			fmt.Fprint(w, message)
			return true
		case <-heartbeat.C:
			fmt.Fprintf(w, ": heartbeat\n\n")
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
