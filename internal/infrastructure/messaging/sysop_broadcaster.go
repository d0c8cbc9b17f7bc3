package messaging

import (
	"encoding/json"
	"log"
	"math"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/withseismic/leadpulse-go/internal/domain/entities/profile"
	"github.com/withseismic/leadpulse-go/internal/domain/events"
	"github.com/withseismic/leadpulse-go/internal/infrastructure/caching/stores"
)

// SysOpClient represents a single connected sysop dashboard client.
type SysOpClient struct {
	Conn *websocket.Conn
	Send chan []byte
}

// VisitorState represents the state of one tracked visitor for visualization.
type VisitorState struct {
	Level        string    `json:"level"`
	Score        int       `json:"score"`
	LastActivity time.Time `json:"lastActivity"`
}

// SessionMapPayload is the complete data structure sent to the dashboard on
// each tick.
type SessionMapPayload struct {
	VisitorStates  []VisitorState `json:"visitorStates"`
	DisplayMode    string         `json:"displayMode"` // "1:1" or "PROPORTIONAL"
	TotalCount     int            `json:"totalCount"`
	ColdCount      int            `json:"coldCount"`
	WarmCount      int            `json:"warmCount"`
	HotCount       int            `json:"hotCount"`
	QualifiedCount int            `json:"qualifiedCount"`
	ActiveCount    int            `json:"activeCount"`
	DormantCount   int            `json:"dormantCount"`
}

// maxDisplayStates caps the number of blocks the dashboard renders.
const maxDisplayStates = 200

// SysOpBroadcaster manages all connected sysop clients and broadcasts the
// engagement-level distribution of tracked visitors.
type SysOpBroadcaster struct {
	clients      map[*SysOpClient]bool
	register     chan *SysOpClient
	unregister   chan *SysOpClient
	profileStore *stores.ProfileStore
	tick         time.Duration
	mu           sync.RWMutex
}

// NewSysOpBroadcaster creates a new broadcaster instance.
func NewSysOpBroadcaster(profileStore *stores.ProfileStore, tick time.Duration) *SysOpBroadcaster {
	if tick <= 0 {
		tick = 20 * time.Second
	}
	return &SysOpBroadcaster{
		clients:      make(map[*SysOpClient]bool),
		register:     make(chan *SysOpClient),
		unregister:   make(chan *SysOpClient),
		profileStore: profileStore,
		tick:         tick,
	}
}

// Run starts the broadcaster's main loop. This should be run as a goroutine.
func (b *SysOpBroadcaster) Run() {
	ticker := time.NewTicker(b.tick)
	defer ticker.Stop()

	for {
		select {
		case client := <-b.register:
			b.mu.Lock()
			b.clients[client] = true
			log.Printf("SysOp client registered")
			b.mu.Unlock()

		case client := <-b.unregister:
			b.mu.Lock()
			if _, ok := b.clients[client]; ok {
				delete(b.clients, client)
				close(client.Send)
			}
			log.Printf("SysOp client unregistered")
			b.mu.Unlock()

		case <-ticker.C:
			b.broadcastSessionMap()
		}
	}
}

// Register queues a client for registration.
func (b *SysOpBroadcaster) Register(client *SysOpClient) {
	b.register <- client
}

// Unregister queues a client for unregistration.
func (b *SysOpBroadcaster) Unregister(client *SysOpClient) {
	b.unregister <- client
}

// broadcastSessionMap gathers and sends visitor states to all clients.
func (b *SysOpBroadcaster) broadcastSessionMap() {
	b.mu.RLock()
	hasClients := len(b.clients) > 0
	b.mu.RUnlock()
	if !hasClients {
		return
	}

	payload := b.preparePayload(b.collectVisitorStates())

	message, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Error marshaling session map: %v", err)
		return
	}

	b.mu.RLock()
	for client := range b.clients {
		select {
		case client.Send <- message:
		default:
		}
	}
	b.mu.RUnlock()
}

// collectVisitorStates snapshots the cached profiles into display states.
func (b *SysOpBroadcaster) collectVisitorStates() []VisitorState {
	ids := b.profileStore.VisitorIDs()
	states := make([]VisitorState, 0, len(ids))
	for _, id := range ids {
		p, ok := b.profileStore.Get(id)
		if !ok {
			continue
		}
		states = append(states, visitorState(p))
	}
	return states
}

func visitorState(p *profile.VisitorProfile) VisitorState {
	lastActivity := p.LastVisit
	if p.Engagement.LastEngagement != nil && p.Engagement.LastEngagement.After(lastActivity) {
		lastActivity = *p.Engagement.LastEngagement
	}
	return VisitorState{
		Level:        p.Engagement.Level,
		Score:        p.Engagement.Score,
		LastActivity: lastActivity,
	}
}

// preparePayload switches to proportional scaling when the visitor count
// exceeds the display cap.
func (b *SysOpBroadcaster) preparePayload(fullStateList []VisitorState) SessionMapPayload {
	payload := SessionMapPayload{DisplayMode: "1:1", TotalCount: len(fullStateList)}

	now := time.Now()
	for _, s := range fullStateList {
		switch s.Level {
		case events.LevelQualified:
			payload.QualifiedCount++
		case events.LevelHot:
			payload.HotCount++
		case events.LevelWarm:
			payload.WarmCount++
		default:
			payload.ColdCount++
		}
		if now.Sub(s.LastActivity).Minutes() <= 45 {
			payload.ActiveCount++
		} else {
			payload.DormantCount++
		}
	}

	if payload.TotalCount > maxDisplayStates {
		payload.DisplayMode = "PROPORTIONAL"
		payload.VisitorStates = proportionalStates(fullStateList, maxDisplayStates)
	} else {
		payload.VisitorStates = fullStateList
	}

	return payload
}

// proportionalStates shrinks the full list to displayCount blocks while
// preserving the level distribution.
func proportionalStates(fullStateList []VisitorState, displayCount int) []VisitorState {
	total := len(fullStateList)
	if total == 0 {
		return []VisitorState{}
	}

	counts := make(map[string]int)
	for _, s := range fullStateList {
		counts[s.Level]++
	}

	now := time.Now()
	states := make([]VisitorState, 0, displayCount)
	for _, level := range []string{events.LevelQualified, events.LevelHot, events.LevelWarm, events.LevelCold} {
		n := int(math.Round(float64(counts[level]) / float64(total) * float64(displayCount)))
		for i := 0; i < n; i++ {
			states = append(states, VisitorState{Level: level, LastActivity: now})
		}
	}

	// Adjust for rounding drift to hit the exact display count.
	if len(states) > displayCount {
		return states[:displayCount]
	}
	for len(states) < displayCount {
		states = append(states, VisitorState{Level: events.LevelCold, LastActivity: now})
	}
	return states
}
