package services

import (
	"strings"
	"sync"
	"time"

	"github.com/withseismic/leadpulse-go/internal/domain/entities/profile"
	"github.com/withseismic/leadpulse-go/internal/domain/events"
	"github.com/withseismic/leadpulse-go/internal/infrastructure/observability/logging"
	"github.com/withseismic/leadpulse-go/internal/infrastructure/observability/performance"
	"github.com/withseismic/leadpulse-go/internal/infrastructure/scheduling"
	"github.com/withseismic/leadpulse-go/pkg/config"
)

// trackerState is the page tracker lifecycle.
type trackerState int

const (
	trackerCreated trackerState = iota
	trackerActive
	trackerFlushed
)

var scrollMilestones = []int{25, 50, 75, 100}

// categoryPrefixes maps path fragments to the fixed content taxonomy.
// First match wins; unmatched paths are "general".
var categoryPrefixes = []struct{ fragment, category string }{
	{"/services", "services"},
	{"/case-studies", "case-studies"},
	{"/tool-ideas", "tool-ideas"},
	{"/resources", "resources"},
	{"/contact", "contact"},
	{"/approach", "approach"},
	{"/build", "build"},
}

func detectCategory(path string) string {
	for _, cp := range categoryPrefixes {
		if strings.Contains(path, cp.fragment) {
			return cp.category
		}
	}
	return "general"
}

// PageTracker tracks one page load for one visitor: elapsed time, scroll
// high-water mark with milestone events, session-local link clicks and
// actions. A tracker is single-use; once flushed it never mutates the
// profile again.
type PageTracker struct {
	mu sync.Mutex

	visitorID string
	pagePath  string
	pageTitle string
	category  string
	sessionID string

	state            trackerState
	hidden           bool
	lastUpdateTime   time.Time
	totalTrackedTime int

	scrollDepth     int
	pendingScroll   int
	frameScheduled  bool
	firedMilestones map[int]bool

	linksClicked []profile.LinkClick
	actions      []profile.ActionRecord

	tasks scheduling.TaskSet

	service *SessionService
}

// SessionService owns page trackers and the tracking entry points. At most
// one live tracker exists per visitor; starting a new page flushes its
// predecessor first.
type SessionService struct {
	profiles    *ProfileService
	engagement  *EngagementService
	clock       scheduling.Clock
	scheduler   scheduling.Scheduler
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker

	mu       sync.Mutex
	trackers map[string]*PageTracker
}

// NewSessionService creates a new session service with injected dependencies
func NewSessionService(
	profiles *ProfileService,
	engagement *EngagementService,
	clock scheduling.Clock,
	scheduler scheduling.Scheduler,
	logger *logging.ChanneledLogger,
	perfTracker *performance.Tracker,
) *SessionService {
	return &SessionService{
		profiles:    profiles,
		engagement:  engagement,
		clock:       clock,
		scheduler:   scheduler,
		logger:      logger,
		perfTracker: perfTracker,
		trackers:    make(map[string]*PageTracker),
	}
}

// Tracker returns the live tracker for a visitor, if any.
func (s *SessionService) Tracker(visitorID string) (*PageTracker, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.trackers[visitorID]
	return t, ok
}

// InitializePage starts tracking a new page view. Any predecessor tracker
// for the visitor is flushed before the new one registers. Returns the
// new tracker.
func (s *SessionService) InitializePage(visitorID, pagePath, pageTitle string) *PageTracker {
	marker := s.perfTracker.StartOperation("session:init", visitorID)
	defer marker.Complete()

	s.mu.Lock()
	previous := s.trackers[visitorID]
	s.mu.Unlock()
	if previous != nil {
		previous.Flush()
	}

	now := s.clock.Now()
	tracker := &PageTracker{
		visitorID:       visitorID,
		pagePath:        pagePath,
		pageTitle:       pageTitle,
		category:        detectCategory(pagePath),
		state:           trackerCreated,
		lastUpdateTime:  now,
		firedMilestones: make(map[int]bool),
		linksClicked:    []profile.LinkClick{},
		actions:         []profile.ActionRecord{},
		service:         s,
	}

	s.profiles.Mutate(visitorID, func(p *profile.VisitorProfile) {
		p.RecordVisitCadence(now)

		page := p.Page(pagePath)
		if page == nil {
			p.Behavior.Pages[pagePath] = &profile.PageRecord{
				Path:       pagePath,
				Title:      pageTitle,
				Category:   tracker.category,
				FirstVisit: now,
				LastVisit:  now,
				VisitCount: 1,
				Sessions:   []profile.SessionSnapshot{},
			}
			p.Behavior.UniquePagesViewed++
		} else {
			page.VisitCount++
			page.LastVisit = now
			page.Title = pageTitle
		}

		start := now
		p.CurrentSession.CurrentPage = pagePath
		p.CurrentSession.PageStartTime = &start
		if p.CurrentSession.SessionID == "" {
			p.CurrentSession.SessionID = "session_" + visitorID
		}
		tracker.sessionID = p.CurrentSession.SessionID

		p.Behavior.TotalPageViews++
		p.AddContentCategory(tracker.category)

		s.engagement.ApplyEvent(p, events.PageView)
	})

	tracker.state = trackerActive
	tracker.scheduleTimers()

	s.mu.Lock()
	s.trackers[visitorID] = tracker
	s.mu.Unlock()

	s.logger.WithVisitor(logging.ChannelSession, visitorID).Info("Page initialized",
		"path", pagePath, "category", tracker.category)
	return tracker
}

// scheduleTimers arms the one-shot time milestones and the repeating
// elapsed-time tick. All tasks land in the tracker's task set so flush
// cancels them together.
func (t *PageTracker) scheduleTimers() {
	for _, seconds := range []int{30, 60, 120} {
		sec := seconds
		task := t.service.scheduler.Once(time.Duration(sec)*time.Second, func() {
			t.fireTimeMilestone(sec)
		})
		t.tasks.Add(task)
	}

	tick := t.service.scheduler.Repeat(config.TimeTickInterval, func() {
		t.Tick()
	})
	t.tasks.Add(tick)
}

func (t *PageTracker) fireTimeMilestone(seconds int) {
	t.mu.Lock()
	if t.state != trackerActive {
		t.mu.Unlock()
		return
	}
	eventType, actionType := events.TimeOnPage30s, "time_30s"
	switch seconds {
	case 60:
		eventType, actionType = events.TimeOnPage60s, "time_60s"
	case 120:
		eventType, actionType = events.TimeOnPage120s, "time_120s"
	}
	t.actions = append(t.actions, profile.ActionRecord{
		Type:      actionType,
		Timestamp: t.service.clock.Now(),
	})
	t.mu.Unlock()

	t.service.profiles.Mutate(t.visitorID, func(p *profile.VisitorProfile) {
		t.service.engagement.ApplyEvent(p, eventType)
	})

	t.service.logger.WithVisitor(logging.ChannelSession, t.visitorID).Debug("Time milestone reached",
		"path", t.pagePath, "seconds", seconds)
}

// UpdateScroll reports a new scroll position (0-100). Evaluation is
// coalesced to the next frame so bursts of scroll reports cost one pass.
func (t *PageTracker) UpdateScroll(depth int) {
	if depth < 0 {
		return
	}
	if depth > 100 {
		depth = 100
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != trackerActive {
		return
	}
	if depth > t.pendingScroll {
		t.pendingScroll = depth
	}
	if t.frameScheduled {
		return
	}
	t.frameScheduled = true
	task := t.service.scheduler.NextFrame(func() {
		t.evaluateScroll()
	})
	t.tasks.Add(task)
}

// evaluateScroll advances the scroll high-water mark and fires every
// milestone the new mark has crossed, each at most once per session.
func (t *PageTracker) evaluateScroll() {
	t.mu.Lock()
	t.frameScheduled = false
	if t.state != trackerActive || t.pendingScroll <= t.scrollDepth {
		t.mu.Unlock()
		return
	}
	t.scrollDepth = t.pendingScroll

	var fired []int
	for _, milestone := range scrollMilestones {
		if t.scrollDepth >= milestone && !t.firedMilestones[milestone] {
			t.firedMilestones[milestone] = true
			fired = append(fired, milestone)
		}
	}
	now := t.service.clock.Now()
	for _, milestone := range fired {
		t.actions = append(t.actions, profile.ActionRecord{
			Type:      scrollActionName(milestone),
			Timestamp: now,
		})
	}
	t.mu.Unlock()

	if len(fired) == 0 {
		return
	}

	t.service.profiles.Mutate(t.visitorID, func(p *profile.VisitorProfile) {
		for _, milestone := range fired {
			t.service.engagement.ApplyEvent(p, scrollEventName(milestone))
		}
	})

	for _, milestone := range fired {
		t.service.logger.WithVisitor(logging.ChannelSession, t.visitorID).Debug("Scroll milestone reached",
			"path", t.pagePath, "milestone", milestone)
	}
}

func scrollEventName(milestone int) string {
	switch milestone {
	case 25:
		return events.Scroll25
	case 50:
		return events.Scroll50
	case 75:
		return events.Scroll75
	default:
		return events.Scroll100
	}
}

func scrollActionName(milestone int) string {
	switch milestone {
	case 25:
		return "scroll_25"
	case 50:
		return "scroll_50"
	case 75:
		return "scroll_75"
	default:
		return "scroll_100"
	}
}

// Tick applies the elapsed time since the previous tick to the page and
// profile totals. Deltas above the clamp are discarded outright (not
// carried over); zero or negative deltas are no-ops. Hidden pages skip
// the tick entirely.
func (t *PageTracker) Tick() {
	t.mu.Lock()
	if t.state != trackerActive || t.hidden {
		t.mu.Unlock()
		return
	}
	delta := t.consumeDeltaLocked()
	t.mu.Unlock()

	t.applyDelta(delta)
}

// consumeDeltaLocked computes whole elapsed seconds since the last update
// and advances the baseline. Caller holds t.mu.
func (t *PageTracker) consumeDeltaLocked() int {
	now := t.service.clock.Now()
	delta := int(now.Sub(t.lastUpdateTime).Seconds())

	if delta > config.MaxTimeDeltaSeconds {
		t.service.logger.Session().Debug("Skipping excessive time delta",
			"path", t.pagePath, "delta", delta)
		t.lastUpdateTime = now
		return 0
	}
	if delta <= 0 {
		return 0
	}

	t.lastUpdateTime = now
	t.totalTrackedTime += delta
	return delta
}

func (t *PageTracker) applyDelta(delta int) {
	if delta <= 0 {
		return
	}

	t.service.profiles.Mutate(t.visitorID, func(p *profile.VisitorProfile) {
		page := p.Page(t.pagePath)
		if page == nil {
			return
		}
		page.TotalTimeSpent += delta
		if page.VisitCount > 0 {
			page.AverageTimeSpent = page.TotalTimeSpent / page.VisitCount
		}

		p.Behavior.TotalTimeSpent += delta
		if p.Behavior.TotalPageViews > 0 {
			p.Behavior.AverageTimePerPage = p.Behavior.TotalTimeSpent / p.Behavior.TotalPageViews
		}
	})
}

// Hidden flushes the pending time delta and pauses the tick while the
// page is backgrounded.
func (t *PageTracker) Hidden() {
	t.mu.Lock()
	if t.state != trackerActive {
		t.mu.Unlock()
		return
	}
	delta := t.consumeDeltaLocked()
	t.hidden = true
	t.mu.Unlock()

	t.applyDelta(delta)
}

// Visible resets the delta baseline so the hidden interval is never
// counted, and resumes ticking.
func (t *PageTracker) Visible() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != trackerActive {
		return
	}
	t.hidden = false
	t.lastUpdateTime = t.service.clock.Now()
}

// TrackLinkClick records a click on the session and the profile's global
// list. Link text is truncated to 50 characters. Recording alone carries
// no engagement weight; scoring happens in SessionService.TrackLink.
func (t *PageTracker) TrackLinkClick(href, text string) {
	if runes := []rune(text); len(runes) > 50 {
		text = string(runes[:50])
	}
	now := t.service.clock.Now()

	t.mu.Lock()
	if t.state != trackerActive {
		t.mu.Unlock()
		return
	}
	t.linksClicked = append(t.linksClicked, profile.LinkClick{
		Href:      href,
		Text:      text,
		Timestamp: now,
	})
	t.mu.Unlock()

	t.service.profiles.Mutate(t.visitorID, func(p *profile.VisitorProfile) {
		p.Behavior.GlobalLinksClicked = append(p.Behavior.GlobalLinksClicked, profile.LinkClick{
			Href:      href,
			Text:      text,
			FromPage:  t.pagePath,
			Timestamp: now,
		})
	})
}

// TrackAction appends a free-form action to the session record.
func (t *PageTracker) TrackAction(actionType string, data map[string]any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != trackerActive {
		return
	}
	t.actions = append(t.actions, profile.ActionRecord{
		Type:      actionType,
		Data:      data,
		Timestamp: t.service.clock.Now(),
	})
}

// Flush ends the page session: applies the pending time delta, snapshots
// the session into the page record's ring buffer, raises the scroll
// high-water mark, and cancels all scheduled tasks. Idempotent; the
// tracker is dead afterwards.
func (t *PageTracker) Flush() {
	t.mu.Lock()
	if t.state == trackerFlushed {
		t.mu.Unlock()
		return
	}
	delta := 0
	if t.state == trackerActive && !t.hidden {
		delta = t.consumeDeltaLocked()
	}
	t.state = trackerFlushed

	snapshot := profile.SessionSnapshot{
		SessionID:    t.sessionID,
		Timestamp:    t.service.clock.Now(),
		TimeSpent:    t.totalTrackedTime,
		ScrollDepth:  t.scrollDepth,
		LinksClicked: t.linksClicked,
		Actions:      t.actions,
	}
	scrollDepth := t.scrollDepth
	t.mu.Unlock()

	t.tasks.CancelAll()
	t.applyDelta(delta)

	t.service.profiles.Mutate(t.visitorID, func(p *profile.VisitorProfile) {
		page := p.Page(t.pagePath)
		if page == nil {
			return
		}
		page.AppendSession(snapshot, config.MaxSessionSnapshots)
		page.RaiseScrollDepth(scrollDepth)
	})

	t.service.unregister(t)

	t.service.logger.WithVisitor(logging.ChannelSession, t.visitorID).Info("Session flushed",
		"path", t.pagePath, "timeSpent", snapshot.TimeSpent, "scrollDepth", snapshot.ScrollDepth)
}

func (s *SessionService) unregister(t *PageTracker) {
	s.mu.Lock()
	if s.trackers[t.visitorID] == t {
		delete(s.trackers, t.visitorID)
	}
	s.mu.Unlock()
}

// TrackLink records a link click and scores it the way the browser click
// listener did: contact/booking/consultation links count as booking
// initiation, everything else as a plain link click. Returns false when no
// page session is active.
func (s *SessionService) TrackLink(visitorID, href, text string) bool {
	tracker, ok := s.Tracker(visitorID)
	if !ok {
		return false
	}
	tracker.TrackLinkClick(href, text)

	eventType := events.LinkClick
	if events.IsBookingLink(href) {
		eventType = events.BookingInitiated
		tracker.TrackAction("booking_intent", map[string]any{"href": href})
	}
	s.profiles.Mutate(visitorID, func(p *profile.VisitorProfile) {
		s.engagement.ApplyEvent(p, eventType)
	})
	return true
}

// TrackEvent records a custom event on the current session and scores it.
// Unknown event names weigh zero but are still recorded.
func (s *SessionService) TrackEvent(visitorID, eventName string, data map[string]any) {
	if tracker, ok := s.Tracker(visitorID); ok {
		tracker.TrackAction(eventName, data)
	}
	s.profiles.Mutate(visitorID, func(p *profile.VisitorProfile) {
		s.engagement.ApplyEvent(p, eventName)
	})
}

// TrackTool records tool usage, deduplicating the tool list while still
// scoring every use.
func (s *SessionService) TrackTool(visitorID, toolName string, data map[string]any) {
	s.profiles.Mutate(visitorID, func(p *profile.VisitorProfile) {
		p.AddTool(toolName)
		s.engagement.ApplyEvent(p, events.ToolUsed)
	})
	if tracker, ok := s.Tracker(visitorID); ok {
		action := map[string]any{"toolName": toolName}
		for k, v := range data {
			action[k] = v
		}
		tracker.TrackAction("tool_used", action)
	}
}

// TrackCalculation appends a calculation record and scores it.
func (s *SessionService) TrackCalculation(visitorID string, data map[string]any) {
	now := s.clock.Now()
	s.profiles.Mutate(visitorID, func(p *profile.VisitorProfile) {
		p.Behavior.CalculationsPerformed = append(p.Behavior.CalculationsPerformed, profile.CalculationRecord{
			Data:      data,
			Timestamp: now,
		})
		s.engagement.ApplyEvent(p, events.CalculationPerformed)
	})
	if tracker, ok := s.Tracker(visitorID); ok {
		tracker.TrackAction("calculation_performed", data)
	}
}

// CaptureInterest records an interest topic once; repeats are no-ops.
func (s *SessionService) CaptureInterest(visitorID, topic string) {
	added := false
	s.profiles.Mutate(visitorID, func(p *profile.VisitorProfile) {
		added = p.AddInterest(topic)
	})
	if !added {
		return
	}
	if tracker, ok := s.Tracker(visitorID); ok {
		tracker.TrackAction("interest_captured", map[string]any{"topic": topic})
	}
}

// CaptureCompany merges company fields into the profile and scores the
// disclosure.
func (s *SessionService) CaptureCompany(visitorID string, data map[string]any) {
	s.profiles.Update(visitorID, map[string]any{"company": data})
	s.profiles.Mutate(visitorID, func(p *profile.VisitorProfile) {
		s.engagement.ApplyEvent(p, events.CompanyInfoProvided)
	})
	if tracker, ok := s.Tracker(visitorID); ok {
		tracker.TrackAction("company_captured", data)
	}
}

// CaptureContact merges contact fields into the profile and scores the
// disclosure.
func (s *SessionService) CaptureContact(visitorID string, data map[string]any) {
	s.profiles.Update(visitorID, map[string]any{"contact": data})
	s.profiles.Mutate(visitorID, func(p *profile.VisitorProfile) {
		s.engagement.ApplyEvent(p, events.EmailProvided)
	})
	if tracker, ok := s.Tracker(visitorID); ok {
		tracker.TrackAction("contact_captured", data)
	}
}

// FlushAll flushes every live tracker, used at shutdown.
func (s *SessionService) FlushAll() {
	s.mu.Lock()
	trackers := make([]*PageTracker, 0, len(s.trackers))
	for _, t := range s.trackers {
		trackers = append(trackers, t)
	}
	s.mu.Unlock()

	for _, t := range trackers {
		t.Flush()
	}
}
