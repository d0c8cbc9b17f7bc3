// Package handlers provides HTTP request handlers for the presentation layer.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/withseismic/leadpulse-go/internal/application/services"
	"github.com/withseismic/leadpulse-go/internal/domain/entities/profile"
	"github.com/withseismic/leadpulse-go/internal/infrastructure/observability/logging"
	"github.com/withseismic/leadpulse-go/internal/infrastructure/observability/performance"
	"github.com/withseismic/leadpulse-go/internal/presentation/http/middleware"
)

// VisitHandlers bootstraps visitor identity at the start of a browsing
// session.
type VisitHandlers struct {
	identityService *services.IdentityService
	profileService  *services.ProfileService
	logger          *logging.ChanneledLogger
	perfTracker     *performance.Tracker
}

// NewVisitHandlers creates visit handlers with injected dependencies
func NewVisitHandlers(identityService *services.IdentityService, profileService *services.ProfileService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *VisitHandlers {
	return &VisitHandlers{
		identityService: identityService,
		profileService:  profileService,
		logger:          logger,
		perfTracker:     perfTracker,
	}
}

// VisitRequest is the bootstrap payload sent on page load.
type VisitRequest struct {
	VisitorID        string `json:"visitorId,omitempty"`
	PageURL          string `json:"pageUrl"`
	Referrer         string `json:"referrer,omitempty"`
	UserAgent        string `json:"userAgent,omitempty"`
	Language         string `json:"language,omitempty"`
	Timezone         string `json:"timezone,omitempty"`
	ScreenResolution string `json:"screenResolution,omitempty"`
	DeviceType       string `json:"deviceType,omitempty"`
}

// VisitResponse returns the (possibly freshly minted) identifiers plus the
// current engagement snapshot.
type VisitResponse struct {
	VisitorID  string `json:"visitorId"`
	SessionID  string `json:"sessionId"`
	NewVisitor bool   `json:"newVisitor"`
	Score      int    `json:"score"`
	Level      string `json:"level"`
	Degraded   bool   `json:"degraded"`
}

// PostVisit handles POST /api/v1/visit. It mints a visitor ID when the
// client has none, classifies the traffic source, and ensures a profile
// exists.
func (h *VisitHandlers) PostVisit(c *gin.Context) {
	var req VisitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	visitorID := req.VisitorID
	if visitorID == "" {
		visitorID = c.GetHeader(middleware.VisitorIDHeader)
	}
	newVisitor := visitorID == ""
	if newVisitor {
		visitorID = h.identityService.GenerateVisitorID()
	}

	marker := h.perfTracker.StartOperation("visit:post", visitorID)
	defer marker.Complete()

	sessionID := h.identityService.GenerateSessionID()
	source := h.identityService.DetectSource(req.PageURL, req.Referrer)
	meta := profile.Metadata{
		UserAgent:        req.UserAgent,
		Language:         req.Language,
		Timezone:         req.Timezone,
		ScreenResolution: req.ScreenResolution,
		DeviceType:       req.DeviceType,
	}

	p := h.profileService.LoadOrCreate(visitorID, sessionID, source, meta)
	h.profileService.Save(p)

	h.logger.WithVisitor(logging.ChannelProfile, visitorID).Info("Visit registered",
		"new", newVisitor, "source", p.Source.Type)

	c.JSON(http.StatusOK, VisitResponse{
		VisitorID:  visitorID,
		SessionID:  p.CurrentSession.SessionID,
		NewVisitor: newVisitor,
		Score:      p.Engagement.Score,
		Level:      p.Engagement.Level,
		Degraded:   h.profileService.IsDegraded(visitorID),
	})
}
