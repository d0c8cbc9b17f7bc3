package services

import (
	"github.com/withseismic/leadpulse-go/internal/domain/entities/profile"
	"github.com/withseismic/leadpulse-go/internal/domain/suggestions"
	"github.com/withseismic/leadpulse-go/internal/infrastructure/observability/logging"
)

// SuggestionService picks the next content suggestion for a visitor.
type SuggestionService struct {
	logger *logging.ChanneledLogger
}

// NewSuggestionService creates a new suggestion service with injected dependencies
func NewSuggestionService(logger *logging.ChanneledLogger) *SuggestionService {
	return &SuggestionService{logger: logger}
}

// NextSuggestion returns an unvisited suggestion matched to the visitor's
// engagement level, or nil when everything on offer has been seen.
func (s *SuggestionService) NextSuggestion(p *profile.VisitorProfile) *suggestions.Suggestion {
	suggestion := suggestions.ForProfile(p, p.Engagement.Level)
	if suggestion != nil {
		s.logger.WithVisitor(logging.ChannelEngagement, p.VisitorID).Debug("Suggestion picked",
			"path", suggestion.Path, "level", p.Engagement.Level)
	}
	return suggestion
}
