package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/withseismic/leadpulse-go/internal/application/services"
	"github.com/withseismic/leadpulse-go/internal/infrastructure/observability/logging"
	"github.com/withseismic/leadpulse-go/internal/presentation/http/middleware"
)

// TrackHandlers covers the explicit tracking calls embedded in site pages:
// custom events, link clicks, tool usage, calculations, and the capture
// endpoints for interests, company, and contact details.
type TrackHandlers struct {
	sessionService *services.SessionService
	logger         *logging.ChanneledLogger
}

// NewTrackHandlers creates track handlers with injected dependencies
func NewTrackHandlers(sessionService *services.SessionService, logger *logging.ChanneledLogger) *TrackHandlers {
	return &TrackHandlers{
		sessionService: sessionService,
		logger:         logger,
	}
}

// PostEvent handles POST /api/v1/track/event.
func (h *TrackHandlers) PostEvent(c *gin.Context) {
	visitorID, _ := middleware.GetVisitorID(c)

	var req struct {
		Name string         `json:"name" binding:"required"`
		Data map[string]any `json:"data"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	h.sessionService.TrackEvent(visitorID, req.Name, req.Data)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// PostLinkClick handles POST /api/v1/track/link.
func (h *TrackHandlers) PostLinkClick(c *gin.Context) {
	visitorID, _ := middleware.GetVisitorID(c)

	var req struct {
		Href string `json:"href" binding:"required"`
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if !h.sessionService.TrackLink(visitorID, req.Href, req.Text) {
		c.JSON(http.StatusConflict, gin.H{"error": "no active page session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// PostTool handles POST /api/v1/track/tool.
func (h *TrackHandlers) PostTool(c *gin.Context) {
	visitorID, _ := middleware.GetVisitorID(c)

	var req struct {
		Name string         `json:"name" binding:"required"`
		Data map[string]any `json:"data"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	h.sessionService.TrackTool(visitorID, req.Name, req.Data)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// PostCalculation handles POST /api/v1/track/calculation.
func (h *TrackHandlers) PostCalculation(c *gin.Context) {
	visitorID, _ := middleware.GetVisitorID(c)

	var req struct {
		Data map[string]any `json:"data" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	h.sessionService.TrackCalculation(visitorID, req.Data)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// PostInterest handles POST /api/v1/capture/interest. Repeat topics are
// deduplicated and carry no engagement weight.
func (h *TrackHandlers) PostInterest(c *gin.Context) {
	visitorID, _ := middleware.GetVisitorID(c)

	var req struct {
		Topic string `json:"topic" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	h.sessionService.CaptureInterest(visitorID, req.Topic)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// PostCompany handles POST /api/v1/capture/company.
func (h *TrackHandlers) PostCompany(c *gin.Context) {
	visitorID, _ := middleware.GetVisitorID(c)

	var req map[string]any
	if err := c.ShouldBindJSON(&req); err != nil || len(req) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	h.sessionService.CaptureCompany(visitorID, req)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// PostContact handles POST /api/v1/capture/contact.
func (h *TrackHandlers) PostContact(c *gin.Context) {
	visitorID, _ := middleware.GetVisitorID(c)

	var req map[string]any
	if err := c.ShouldBindJSON(&req); err != nil || len(req) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	h.sessionService.CaptureContact(visitorID, req)
	c.JSON(http.StatusOK, gin.H{"success": true})
}
