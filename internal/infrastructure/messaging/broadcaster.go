package messaging

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/withseismic/leadpulse-go/internal/infrastructure/observability/logging"
)

// SSEBroadcaster manages visitor-scoped SSE connections and delivers
// notification events to every open tab of a visitor.
type SSEBroadcaster struct {
	visitorClients map[string][]chan string // visitorId -> channels, one per tab
	mu             sync.Mutex
	logger         *logging.ChanneledLogger
}

// NewSSEBroadcaster creates an SSE broadcaster.
func NewSSEBroadcaster(logger *logging.ChanneledLogger) *SSEBroadcaster {
	return &SSEBroadcaster{
		visitorClients: make(map[string][]chan string),
		logger:         logger,
	}
}

// AddClient registers a new SSE client for a visitor and returns its
// message channel.
func (b *SSEBroadcaster) AddClient(visitorID string) chan string {
	ch := make(chan string, 10)

	b.mu.Lock()
	defer b.mu.Unlock()

	b.visitorClients[visitorID] = append(b.visitorClients[visitorID], ch)

	b.logger.SSE().Debug("SSE client registered", "visitorId", visitorID)
	return ch
}

// RemoveClient removes an SSE client for a visitor.
func (b *SSEBroadcaster) RemoveClient(ch chan string, visitorID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if clients, exists := b.visitorClients[visitorID]; exists {
		newClients := make([]chan string, 0, len(clients))
		for _, client := range clients {
			if client != ch {
				newClients = append(newClients, client)
			}
		}
		b.visitorClients[visitorID] = newClients

		if len(newClients) == 0 {
			delete(b.visitorClients, visitorID)
		}
	}
	b.logger.SSE().Debug("SSE client unregistered", "visitorId", visitorID)
}

// GetConnectionCount returns the connection count for a visitor.
func (b *SSEBroadcaster) GetConnectionCount(visitorID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.visitorClients[visitorID])
}

// ShowToast delivers a level-up toast to all of a visitor's connections.
func (b *SSEBroadcaster) ShowToast(visitorID string, toast Toast) {
	b.broadcastEvent(visitorID, "toast", toast)
}

// ShowAchievement delivers an achievement unlock notification.
func (b *SSEBroadcaster) ShowAchievement(visitorID string, unlock AchievementUnlock) {
	b.broadcastEvent(visitorID, "achievement_unlocked", unlock)
}

// ShowQualifiedLeadWidget tells the page to surface the get-in-touch widget.
func (b *SSEBroadcaster) ShowQualifiedLeadWidget(visitorID string) {
	b.broadcastEvent(visitorID, "qualified_lead_widget", map[string]bool{"show": true})
}

// broadcastEvent formats and fans an SSE event out to every connection of
// one visitor. Full channels drop the message rather than block.
func (b *SSEBroadcaster) broadcastEvent(visitorID, event string, payload any) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.SSE().Error("Panic recovered in broadcastEvent", "error", r, "visitorId", visitorID)
		}
	}()

	data, err := json.Marshal(payload)
	if err != nil {
		b.logger.SSE().Error("Failed to marshal SSE payload", "event", event, "error", err.Error())
		return
	}
	message := fmt.Sprintf("event: %s\ndata: %s\n\n", event, data)

	b.logger.SSE().Debug("Broadcasting to visitor", "message", strings.ReplaceAll(message, "\n", "\\n"), "visitorId", visitorID)

	b.mu.Lock()
	defer b.mu.Unlock()

	clients := b.visitorClients[visitorID]
	for _, ch := range clients {
		select {
		case ch <- message:
		default:
			b.logger.SSE().Warn("SSE channel full, message dropped", "visitorId", visitorID)
		}
	}

	b.logger.LogSSEEvent(event, visitorID, len(clients))
}
