package services

import (
	"time"

	"github.com/withseismic/leadpulse-go/internal/domain/achievements"
	"github.com/withseismic/leadpulse-go/internal/domain/entities/profile"
	"github.com/withseismic/leadpulse-go/internal/infrastructure/messaging"
	"github.com/withseismic/leadpulse-go/internal/infrastructure/observability/logging"
	"github.com/withseismic/leadpulse-go/internal/infrastructure/scheduling"
	"github.com/withseismic/leadpulse-go/pkg/config"
)

// AchievementService evaluates the catalog against profiles and notifies
// unlocks. Evaluation runs on every profile save.
type AchievementService struct {
	notifier  messaging.Notifier
	clock     scheduling.Clock
	scheduler scheduling.Scheduler
	logger    *logging.ChanneledLogger
}

// NewAchievementService creates a new achievement service with injected dependencies
func NewAchievementService(
	notifier messaging.Notifier,
	clock scheduling.Clock,
	scheduler scheduling.Scheduler,
	logger *logging.ChanneledLogger,
) *AchievementService {
	return &AchievementService{
		notifier:  notifier,
		clock:     clock,
		scheduler: scheduler,
		logger:    logger,
	}
}

// Evaluate checks every not-yet-unlocked achievement against the profile,
// records new unlocks permanently, and schedules their notifications with
// a stagger so simultaneous unlocks do not overlap. Returns the newly
// unlocked entries in catalog order.
func (s *AchievementService) Evaluate(p *profile.VisitorProfile) []achievements.Achievement {
	now := s.clock.Now()
	var unlocked []achievements.Achievement

	for _, a := range achievements.Catalog {
		if p.Achievements.IsUnlocked(a.ID) {
			continue
		}
		if !a.Qualifier(p, now) {
			continue
		}
		p.Achievements.Unlock(a.ID, now)
		unlocked = append(unlocked, a)

		s.logger.WithVisitor(logging.ChannelAchievement, p.VisitorID).Info("Achievement unlocked",
			"achievement", a.ID, "name", a.Name)
	}

	for i, a := range unlocked {
		unlock := messaging.AchievementUnlock{
			ID:          a.ID,
			Name:        a.Name,
			Icon:        a.Icon,
			Description: a.Description,
		}
		visitorID := p.VisitorID
		delay := time.Duration(i) * config.ToastStagger
		if delay == 0 {
			s.notifier.ShowAchievement(visitorID, unlock)
			continue
		}
		s.scheduler.Once(delay, func() {
			s.notifier.ShowAchievement(visitorID, unlock)
		})
	}

	return unlocked
}

// AchievementStatus is a catalog entry joined with a profile's unlock state.
type AchievementStatus struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Icon        string     `json:"icon"`
	Description string     `json:"description"`
	Unlocked    bool       `json:"unlocked"`
	UnlockedAt  *time.Time `json:"unlockedAt,omitempty"`
}

// GetAll returns the full catalog annotated with the profile's unlocks.
func (s *AchievementService) GetAll(p *profile.VisitorProfile) []AchievementStatus {
	statuses := make([]AchievementStatus, 0, len(achievements.Catalog))
	for _, a := range achievements.Catalog {
		status := AchievementStatus{
			ID:          a.ID,
			Name:        a.Name,
			Icon:        a.Icon,
			Description: a.Description,
			Unlocked:    p.Achievements.IsUnlocked(a.ID),
		}
		if at, ok := p.Achievements.UnlockedAt[a.ID]; ok {
			t := at
			status.UnlockedAt = &t
		}
		statuses = append(statuses, status)
	}
	return statuses
}

// GetUnlocked returns only the unlocked entries.
func (s *AchievementService) GetUnlocked(p *profile.VisitorProfile) []AchievementStatus {
	var statuses []AchievementStatus
	for _, status := range s.GetAll(p) {
		if status.Unlocked {
			statuses = append(statuses, status)
		}
	}
	return statuses
}
