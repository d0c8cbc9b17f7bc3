package handlers

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/withseismic/leadpulse-go/internal/application/services"
	"github.com/withseismic/leadpulse-go/internal/domain/entities/profile"
	"github.com/withseismic/leadpulse-go/internal/infrastructure/observability/logging"
	"github.com/withseismic/leadpulse-go/internal/infrastructure/observability/performance"
	"github.com/withseismic/leadpulse-go/internal/presentation/http/middleware"
)

// ProfileHandlers exposes the visitor profile read/patch/reset surface.
type ProfileHandlers struct {
	profileService    *services.ProfileService
	suggestionService *services.SuggestionService
	logger            *logging.ChanneledLogger
	perfTracker       *performance.Tracker
}

// NewProfileHandlers creates profile handlers with injected dependencies
func NewProfileHandlers(profileService *services.ProfileService, suggestionService *services.SuggestionService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *ProfileHandlers {
	return &ProfileHandlers{
		profileService:    profileService,
		suggestionService: suggestionService,
		logger:            logger,
		perfTracker:       perfTracker,
	}
}

// GetProfile handles GET /api/v1/profile - returns the full profile document.
func (h *ProfileHandlers) GetProfile(c *gin.Context) {
	visitorID, _ := middleware.GetVisitorID(c)
	p := h.profileService.Load(visitorID)
	c.JSON(http.StatusOK, p)
}

// GetPageData handles GET /api/v1/profile/pages?path= - returns one page's
// aggregate record.
func (h *ProfileHandlers) GetPageData(c *gin.Context) {
	visitorID, _ := middleware.GetVisitorID(c)
	path := c.Query("path")
	if path == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing path query parameter"})
		return
	}

	p := h.profileService.Load(visitorID)
	page := p.Page(path)
	if page == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "page not tracked"})
		return
	}
	c.JSON(http.StatusOK, page)
}

// TopPage is a page record summarized for ranking responses.
type TopPage struct {
	Path           string `json:"path"`
	Title          string `json:"title"`
	Category       string `json:"category"`
	VisitCount     int    `json:"visitCount"`
	TotalTimeSpent int    `json:"totalTimeSpent"`
	MaxScrollDepth int    `json:"maxScrollDepth"`
}

// GetTopPages handles GET /api/v1/profile/pages/top - pages ranked by total
// time spent, most engaging first.
func (h *ProfileHandlers) GetTopPages(c *gin.Context) {
	visitorID, _ := middleware.GetVisitorID(c)
	p := h.profileService.Load(visitorID)

	records := make([]*profile.PageRecord, 0, len(p.Behavior.Pages))
	for _, pr := range p.Behavior.Pages {
		records = append(records, pr)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].TotalTimeSpent > records[j].TotalTimeSpent
	})

	limit := 10
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	if len(records) < limit {
		limit = len(records)
	}
	top := make([]TopPage, 0, limit)
	for _, pr := range records[:limit] {
		top = append(top, TopPage{
			Path:           pr.Path,
			Title:          pr.Title,
			Category:       pr.Category,
			VisitCount:     pr.VisitCount,
			TotalTimeSpent: pr.TotalTimeSpent,
			MaxScrollDepth: pr.MaxScrollDepth,
		})
	}
	c.JSON(http.StatusOK, gin.H{"pages": top})
}

// GetSuggestion handles GET /api/v1/profile/suggestion - the next unvisited
// content suggestion for this visitor's engagement level.
func (h *ProfileHandlers) GetSuggestion(c *gin.Context) {
	visitorID, _ := middleware.GetVisitorID(c)
	p := h.profileService.Load(visitorID)

	suggestion := h.suggestionService.NextSuggestion(p)
	if suggestion == nil {
		c.JSON(http.StatusOK, gin.H{"suggestion": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestion": suggestion})
}

// PatchProfile handles PATCH /api/v1/profile - shallow top-level merge of a
// partial profile document.
func (h *ProfileHandlers) PatchProfile(c *gin.Context) {
	visitorID, _ := middleware.GetVisitorID(c)

	var patch map[string]any
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	marker := h.perfTracker.StartOperation("profile:patch", visitorID)
	defer marker.Complete()

	p := h.profileService.Update(visitorID, patch)
	c.JSON(http.StatusOK, p)
}

// Reset handles POST /api/v1/profile/reset - wipes the visitor's stored
// profile entirely.
func (h *ProfileHandlers) Reset(c *gin.Context) {
	visitorID, _ := middleware.GetVisitorID(c)
	h.profileService.Reset(visitorID)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ResetTimeData handles POST /api/v1/profile/reset-time - clears time
// accumulators and session history, keeping visit counts.
func (h *ProfileHandlers) ResetTimeData(c *gin.Context) {
	visitorID, _ := middleware.GetVisitorID(c)
	p := h.profileService.ResetTimeData(visitorID)
	c.JSON(http.StatusOK, p)
}

// ResetAchievements handles POST /api/v1/profile/reset-achievements.
func (h *ProfileHandlers) ResetAchievements(c *gin.Context) {
	visitorID, _ := middleware.GetVisitorID(c)
	p := h.profileService.ResetAchievements(visitorID)
	c.JSON(http.StatusOK, p)
}
