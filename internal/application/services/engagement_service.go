package services

import (
	"sort"

	"github.com/withseismic/leadpulse-go/internal/domain/entities/profile"
	"github.com/withseismic/leadpulse-go/internal/domain/events"
	"github.com/withseismic/leadpulse-go/internal/infrastructure/email"
	"github.com/withseismic/leadpulse-go/internal/infrastructure/messaging"
	"github.com/withseismic/leadpulse-go/internal/infrastructure/observability/logging"
	"github.com/withseismic/leadpulse-go/internal/infrastructure/scheduling"
	"github.com/withseismic/leadpulse-go/pkg/config"
)

// EngagementService applies weighted events to a profile's engagement
// state: score, level, write-once level toasts, the one-shot
// qualified-lead signal, and durable signal recomputation. It mutates the
// profile in hand; persistence belongs to the caller.
type EngagementService struct {
	notifier  messaging.Notifier
	emailSvc  email.Service // nil when lead alerts are disabled
	clock     scheduling.Clock
	scheduler scheduling.Scheduler
	logger    *logging.ChanneledLogger
}

// NewEngagementService creates a new engagement service with injected dependencies
func NewEngagementService(
	notifier messaging.Notifier,
	emailSvc email.Service,
	clock scheduling.Clock,
	scheduler scheduling.Scheduler,
	logger *logging.ChanneledLogger,
) *EngagementService {
	return &EngagementService{
		notifier:  notifier,
		emailSvc:  emailSvc,
		clock:     clock,
		scheduler: scheduler,
		logger:    logger,
	}
}

// ApplyEvent scores one event against the profile. Unknown event types
// weigh zero and still refresh lastEngagement.
func (s *EngagementService) ApplyEvent(p *profile.VisitorProfile, eventType string) {
	weight := events.Weight(eventType)
	p.Engagement.Score += weight
	now := s.clock.Now()
	p.Engagement.LastEngagement = &now

	previousLevel := p.Engagement.Level
	if previousLevel == "" {
		previousLevel = events.LevelCold
	}
	p.Engagement.Level = events.LevelForScore(p.Engagement.Score)

	s.logger.WithVisitor(logging.ChannelEngagement, p.VisitorID).Debug("Engagement event applied",
		"eventType", eventType, "weight", weight, "score", p.Engagement.Score, "level", p.Engagement.Level)

	if p.Engagement.Level == events.LevelQualified && !p.Engagement.HasSignal("qualified_lead") {
		p.Engagement.AddSignal("qualified_lead")
		s.notifyHighValueLead(p)

		visitorID := p.VisitorID
		s.scheduler.Once(config.QualifiedDelay, func() {
			s.notifier.ShowQualifiedLeadWidget(visitorID)
		})
	}

	if previousLevel != p.Engagement.Level {
		if p.Engagement.ToastShown == nil {
			p.Engagement.ToastShown = make(map[string]bool)
		}
		toast, hasToast := events.LevelToasts[p.Engagement.Level]
		if hasToast && !p.Engagement.ToastShown[p.Engagement.Level] {
			s.notifier.ShowToast(p.VisitorID, messaging.Toast{
				Message: toast.Message,
				Level:   p.Engagement.Level,
				Link:    toast.Link,
			})
			p.Engagement.ToastShown[p.Engagement.Level] = true
		}
	}

	s.detectSignals(p)
}

// detectSignals recomputes the durable engagement signals from current
// aggregates and merges them in. Signals are never removed.
func (s *EngagementService) detectSignals(p *profile.VisitorProfile) {
	b := &p.Behavior

	if b.UniquePagesViewed >= 3 {
		p.Engagement.AddSignal("multi_page_visitor")
	}
	if b.UniquePagesViewed >= 5 {
		p.Engagement.AddSignal("deep_explorer")
	}
	if b.AverageTimePerPage >= 60 {
		p.Engagement.AddSignal("engaged_reader")
	}
	if b.TotalTimeSpent >= 300 {
		p.Engagement.AddSignal("high_time_investment")
	}
	if p.PagesWithScrollDepthAtLeast(75) >= 3 {
		p.Engagement.AddSignal("deep_content_consumer")
	}
	if len(b.ToolsUsed) >= 1 {
		p.Engagement.AddSignal("tool_user")
	}
	if p.HasContentCategory("case-studies") {
		p.Engagement.AddSignal("case_study_reader")
	}
	if p.HasContentCategory("contact") {
		p.Engagement.AddSignal("contact_visitor")
	}
}

// notifyHighValueLead logs the qualification summary and sends the alert
// email best-effort.
func (s *EngagementService) notifyHighValueLead(p *profile.VisitorProfile) {
	alert := email.LeadAlert{
		VisitorID: p.VisitorID,
		Score:     p.Engagement.Score,
		Level:     p.Engagement.Level,
		Signals:   append([]string{}, p.Engagement.Signals...),
		TopPages:  topPagesByTime(p, 3),
	}

	s.logger.Notify().Info("High-value lead qualified",
		"visitorId", p.VisitorID, "score", alert.Score, "signals", alert.Signals)

	if s.emailSvc == nil {
		return
	}
	go func() {
		if err := s.emailSvc.SendLeadAlertEmail(alert); err != nil {
			s.logger.Notify().Warn("Lead alert email failed", "error", err.Error())
		}
	}()
}

func topPagesByTime(p *profile.VisitorProfile, limit int) []email.PageSummary {
	pages := make([]*profile.PageRecord, 0, len(p.Behavior.Pages))
	for _, pr := range p.Behavior.Pages {
		pages = append(pages, pr)
	}
	sort.Slice(pages, func(i, j int) bool {
		return pages[i].TotalTimeSpent > pages[j].TotalTimeSpent
	})
	if len(pages) > limit {
		pages = pages[:limit]
	}

	summaries := make([]email.PageSummary, 0, len(pages))
	for _, pr := range pages {
		summaries = append(summaries, email.PageSummary{
			Path:      pr.Path,
			Title:     pr.Title,
			TimeSpent: pr.TotalTimeSpent,
		})
	}
	return summaries
}
