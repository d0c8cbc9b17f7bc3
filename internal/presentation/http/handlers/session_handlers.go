package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/withseismic/leadpulse-go/internal/application/services"
	"github.com/withseismic/leadpulse-go/internal/infrastructure/observability/logging"
	"github.com/withseismic/leadpulse-go/internal/infrastructure/observability/performance"
	"github.com/withseismic/leadpulse-go/internal/presentation/http/middleware"
)

// SessionHandlers drives the per-page tracking lifecycle: init, scroll,
// visibility, and flush.
type SessionHandlers struct {
	sessionService *services.SessionService
	logger         *logging.ChanneledLogger
	perfTracker    *performance.Tracker
}

// NewSessionHandlers creates session handlers with injected dependencies
func NewSessionHandlers(sessionService *services.SessionService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *SessionHandlers {
	return &SessionHandlers{
		sessionService: sessionService,
		logger:         logger,
		perfTracker:    perfTracker,
	}
}

// InitRequest starts tracking for one page load.
type InitRequest struct {
	Path  string `json:"path" binding:"required"`
	Title string `json:"title"`
}

// PostInit handles POST /api/v1/session/init. Re-initializing while a page
// is already tracked flushes the previous page first.
func (h *SessionHandlers) PostInit(c *gin.Context) {
	visitorID, _ := middleware.GetVisitorID(c)

	var req InitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	h.sessionService.InitializePage(visitorID, req.Path, req.Title)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ScrollRequest reports the current scroll position as a 0-100 percentage.
type ScrollRequest struct {
	Depth int `json:"depth"`
}

// PostScroll handles POST /api/v1/session/scroll.
func (h *SessionHandlers) PostScroll(c *gin.Context) {
	visitorID, _ := middleware.GetVisitorID(c)

	var req ScrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	tracker, ok := h.sessionService.Tracker(visitorID)
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"error": "no active page session"})
		return
	}
	tracker.UpdateScroll(req.Depth)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// PostTick handles POST /api/v1/session/tick - a client heartbeat that
// applies the elapsed time delta immediately instead of waiting for the
// server-side repeating tick.
func (h *SessionHandlers) PostTick(c *gin.Context) {
	visitorID, _ := middleware.GetVisitorID(c)

	tracker, ok := h.sessionService.Tracker(visitorID)
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"error": "no active page session"})
		return
	}
	tracker.Tick()
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// PostHidden handles POST /api/v1/session/hidden - the page went to the
// background.
func (h *SessionHandlers) PostHidden(c *gin.Context) {
	visitorID, _ := middleware.GetVisitorID(c)

	tracker, ok := h.sessionService.Tracker(visitorID)
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"error": "no active page session"})
		return
	}
	tracker.Hidden()
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// PostVisible handles POST /api/v1/session/visible - the page returned to
// the foreground.
func (h *SessionHandlers) PostVisible(c *gin.Context) {
	visitorID, _ := middleware.GetVisitorID(c)

	tracker, ok := h.sessionService.Tracker(visitorID)
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"error": "no active page session"})
		return
	}
	tracker.Visible()
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// PostFlush handles POST /api/v1/session/flush - ends the page session and
// writes its snapshot. Safe to call more than once.
func (h *SessionHandlers) PostFlush(c *gin.Context) {
	visitorID, _ := middleware.GetVisitorID(c)

	tracker, ok := h.sessionService.Tracker(visitorID)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"success": true, "flushed": false})
		return
	}
	tracker.Flush()
	c.JSON(http.StatusOK, gin.H{"success": true, "flushed": true})
}
