package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/withseismic/leadpulse-go/internal/application/services"
	"github.com/withseismic/leadpulse-go/internal/domain/entities/profile"
	"github.com/withseismic/leadpulse-go/internal/presentation/http/middleware"
)

// AchievementHandlers exposes the achievement catalog joined with a
// visitor's unlock state.
type AchievementHandlers struct {
	profileService     *services.ProfileService
	achievementService *services.AchievementService
}

// NewAchievementHandlers creates achievement handlers with injected dependencies
func NewAchievementHandlers(profileService *services.ProfileService, achievementService *services.AchievementService) *AchievementHandlers {
	return &AchievementHandlers{
		profileService:     profileService,
		achievementService: achievementService,
	}
}

// GetAchievements handles GET /api/v1/achievements - the full catalog with
// unlock state.
func (h *AchievementHandlers) GetAchievements(c *gin.Context) {
	visitorID, _ := middleware.GetVisitorID(c)
	p := h.profileService.Load(visitorID)
	c.JSON(http.StatusOK, gin.H{"achievements": h.achievementService.GetAll(p)})
}

// GetUnlocked handles GET /api/v1/achievements/unlocked.
func (h *AchievementHandlers) GetUnlocked(c *gin.Context) {
	visitorID, _ := middleware.GetVisitorID(c)
	p := h.profileService.Load(visitorID)
	unlocked := h.achievementService.GetUnlocked(p)
	if unlocked == nil {
		unlocked = []services.AchievementStatus{}
	}
	c.JSON(http.StatusOK, gin.H{"achievements": unlocked})
}

// PostCheck handles POST /api/v1/achievements/check - forces an evaluation
// pass and returns anything newly unlocked.
func (h *AchievementHandlers) PostCheck(c *gin.Context) {
	visitorID, _ := middleware.GetVisitorID(c)

	newlyUnlocked := []string{}
	h.profileService.Mutate(visitorID, func(p *profile.VisitorProfile) {
		for _, a := range h.achievementService.Evaluate(p) {
			newlyUnlocked = append(newlyUnlocked, a.ID)
		}
	})

	c.JSON(http.StatusOK, gin.H{"unlocked": newlyUnlocked})
}
