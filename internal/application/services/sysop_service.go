package services

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/withseismic/leadpulse-go/internal/domain/achievements"
	"github.com/withseismic/leadpulse-go/internal/infrastructure/messaging"
	"github.com/withseismic/leadpulse-go/internal/infrastructure/observability/logging"
	"github.com/withseismic/leadpulse-go/internal/infrastructure/observability/performance"
	"github.com/withseismic/leadpulse-go/internal/infrastructure/security"
	"github.com/withseismic/leadpulse-go/pkg/config"
)

var (
	// ErrSysOpDisabled is returned when no sysop password hash is configured.
	ErrSysOpDisabled = errors.New("sysop access is not configured")

	// ErrInvalidCredentials is returned on a failed login attempt.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// SysOpService backs the operator dashboard: login, log level control,
// and debug affordances for poking notifications at live visitors.
type SysOpService struct {
	notifier    messaging.Notifier
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewSysOpService creates a new sysop service with injected dependencies
func NewSysOpService(
	notifier messaging.Notifier,
	logger *logging.ChanneledLogger,
	perfTracker *performance.Tracker,
) *SysOpService {
	return &SysOpService{
		notifier:    notifier,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// Login verifies the operator password and issues a session token.
func (s *SysOpService) Login(password string) (string, error) {
	if config.SysOpPasswordHash == "" {
		return "", ErrSysOpDisabled
	}
	if !security.VerifyPassword(password, config.SysOpPasswordHash) {
		s.logger.LogAuthOperation("sysop_login", false, nil)
		return "", ErrInvalidCredentials
	}

	token, err := security.GenerateSysOpToken(config.JWTSecret)
	if err != nil {
		return "", fmt.Errorf("generating sysop token: %w", err)
	}

	s.logger.LogAuthOperation("sysop_login", true, nil)
	return token, nil
}

// GetLogLevels returns the current level per log channel.
func (s *SysOpService) GetLogLevels() map[string]string {
	return s.logger.GetChannelLevels()
}

// SetLogLevel changes one channel's level at runtime. Level names follow
// slog ("DEBUG", "INFO", "WARN", "ERROR").
func (s *SysOpService) SetLogLevel(channel, level string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return s.logger.SetChannelLevel(logging.Channel(channel), lvl)
}

// GetPerformanceStats returns aggregated operation timings.
func (s *SysOpService) GetPerformanceStats() performance.Stats {
	return s.perfTracker.GetStats()
}

// ForceToast pushes a test toast at a visitor, bypassing engagement state.
func (s *SysOpService) ForceToast(visitorID, message, level string) {
	s.notifier.ShowToast(visitorID, messaging.Toast{Message: message, Level: level})
	s.logger.Debug().Info("Forced toast", "visitorId", visitorID, "level", level)
}

// ForceAchievement pushes a test achievement notification at a visitor
// without unlocking it. Unknown IDs error.
func (s *SysOpService) ForceAchievement(visitorID, achievementID string) error {
	a := achievements.ByID(achievementID)
	if a == nil {
		return fmt.Errorf("unknown achievement %q", achievementID)
	}
	s.notifier.ShowAchievement(visitorID, messaging.AchievementUnlock{
		ID:          a.ID,
		Name:        a.Name,
		Icon:        a.Icon,
		Description: a.Description,
	})
	s.logger.Debug().Info("Forced achievement", "visitorId", visitorID, "achievement", achievementID)
	return nil
}

// ForceQualifiedWidget pushes the qualified-lead widget at a visitor.
func (s *SysOpService) ForceQualifiedWidget(visitorID string) {
	s.notifier.ShowQualifiedLeadWidget(visitorID)
	s.logger.Debug().Info("Forced qualified lead widget", "visitorId", visitorID)
}
