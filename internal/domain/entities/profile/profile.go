// Package profile provides domain entities for visitor profiles and
// page-centric behavior tracking. It defines the persisted per-visitor
// document, its per-page aggregates, and the engagement and achievement
// state carried across visits.
package profile

import (
	"strings"
	"time"
)

// SchemaVersion is the current profile document schema. Documents with a
// lower (or missing) version are upgraded by Migrate on load.
const SchemaVersion = 2

// SourceInfo classifies how a visitor first arrived.
type SourceInfo struct {
	Type  string  `json:"type"` // "utm", "referral", "external", "direct"
	Value *string `json:"value"`
}

// Source type constants.
const (
	SourceUTM      = "utm"
	SourceReferral = "referral"
	SourceExternal = "external"
	SourceDirect   = "direct"
)

// Metadata is the device/locale snapshot captured once at profile creation.
type Metadata struct {
	UserAgent        string `json:"userAgent"`
	Language         string `json:"language"`
	Timezone         string `json:"timezone"`
	ScreenResolution string `json:"screenResolution"`
	DeviceType       string `json:"deviceType"`
}

// LinkClick records a single anchor click, session-local or global.
type LinkClick struct {
	Href      string    `json:"href"`
	Text      string    `json:"text"`
	FromPage  string    `json:"fromPage,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ActionRecord is a timestamped free-form action within a page session.
type ActionRecord struct {
	Type      string         `json:"type"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// CalculationRecord captures one calculator/tool computation event.
type CalculationRecord struct {
	Data      map[string]any `json:"data"`
	Timestamp time.Time      `json:"timestamp"`
}

// SessionSnapshot is the immutable record of one page visit, appended to a
// PageRecord's session history at flush time.
type SessionSnapshot struct {
	SessionID    string         `json:"sessionId"`
	Timestamp    time.Time      `json:"timestamp"`
	TimeSpent    int            `json:"timeSpent"` // seconds
	ScrollDepth  int            `json:"scrollDepth"`
	LinksClicked []LinkClick    `json:"linksClicked"`
	Actions      []ActionRecord `json:"actions"`
}

// PageRecord aggregates all visits to one unique page path.
type PageRecord struct {
	Path             string            `json:"path"`
	Title            string            `json:"title"`
	Category         string            `json:"category"`
	FirstVisit       time.Time         `json:"firstVisit"`
	LastVisit        time.Time         `json:"lastVisit"`
	VisitCount       int               `json:"visitCount"`
	TotalTimeSpent   int               `json:"totalTimeSpent"` // seconds
	AverageTimeSpent int               `json:"averageTimeSpent"`
	MaxScrollDepth   int               `json:"maxScrollDepth"` // 0-100 high-water mark
	Sessions         []SessionSnapshot `json:"sessions"`
}

// AppendSession adds a session snapshot, keeping only the most recent limit
// entries. Older sessions are silently dropped.
func (pr *PageRecord) AppendSession(snapshot SessionSnapshot, limit int) {
	pr.Sessions = append(pr.Sessions, snapshot)
	if limit > 0 && len(pr.Sessions) > limit {
		pr.Sessions = pr.Sessions[len(pr.Sessions)-limit:]
	}
}

// RaiseScrollDepth updates the high-water scroll mark if depth exceeds it.
func (pr *PageRecord) RaiseScrollDepth(depth int) {
	if depth > pr.MaxScrollDepth {
		pr.MaxScrollDepth = depth
	}
}

// Behavior holds the page-centric aggregates of a visitor.
type Behavior struct {
	Pages map[string]*PageRecord `json:"pages"`

	TotalPageViews     int `json:"totalPageViews"`
	UniquePagesViewed  int `json:"uniquePagesViewed"`
	TotalTimeSpent     int `json:"totalTimeSpent"` // seconds
	AverageTimePerPage int `json:"averageTimePerPage"`

	ToolsUsed             []string            `json:"toolsUsed"`
	CalculationsPerformed []CalculationRecord `json:"calculationsPerformed"`
	Interests             []string            `json:"interests"`
	ContentCategories     []string            `json:"contentCategories"`
	GlobalLinksClicked    []LinkClick         `json:"globalLinksClicked"`
}

// CurrentSession is the ephemeral pointer to the visitor's active page.
// It is replaced on navigation and never persisted as history.
type CurrentSession struct {
	SessionID     string     `json:"sessionId"`
	StartTime     time.Time  `json:"startTime"`
	CurrentPage   string     `json:"currentPage,omitempty"`
	PageStartTime *time.Time `json:"pageStartTime,omitempty"`
}

// EngagementState carries the cumulative score, derived level, durable
// signals, and the write-once toast flags per level.
type EngagementState struct {
	Score          int             `json:"score"`
	Level          string          `json:"level"`
	Signals        []string        `json:"signals"`
	LastEngagement *time.Time      `json:"lastEngagement"`
	ToastShown     map[string]bool `json:"toastShown"`
}

// HasSignal reports whether a durable signal has been recorded.
func (es *EngagementState) HasSignal(name string) bool {
	for _, s := range es.Signals {
		if s == name {
			return true
		}
	}
	return false
}

// AddSignal appends a signal if not already present.
func (es *EngagementState) AddSignal(name string) {
	if !es.HasSignal(name) {
		es.Signals = append(es.Signals, name)
	}
}

// AchievementState tracks permanent one-time unlocks.
type AchievementState struct {
	Unlocked   []string             `json:"unlocked"`
	UnlockedAt map[string]time.Time `json:"unlockedAt"`
}

// IsUnlocked reports whether an achievement id has been unlocked.
func (as *AchievementState) IsUnlocked(id string) bool {
	for _, u := range as.Unlocked {
		if u == id {
			return true
		}
	}
	return false
}

// Unlock records a permanent unlock at the given moment. Unlocking an
// already-unlocked id is a no-op.
func (as *AchievementState) Unlock(id string, at time.Time) {
	if as.IsUnlocked(id) {
		return
	}
	as.Unlocked = append(as.Unlocked, id)
	if as.UnlockedAt == nil {
		as.UnlockedAt = make(map[string]time.Time)
	}
	as.UnlockedAt[id] = at
}

// VisitorProfile is the complete persisted per-visitor state document.
type VisitorProfile struct {
	SchemaVersion int       `json:"schemaVersion"`
	VisitorID     string    `json:"visitorId"`
	FirstVisit    time.Time `json:"firstVisit"`
	LastVisit     time.Time `json:"lastVisit"`

	Source SourceInfo `json:"source"`

	Company map[string]any `json:"company"`
	Contact map[string]any `json:"contact"`

	Behavior       Behavior         `json:"behavior"`
	CurrentSession CurrentSession   `json:"currentSession"`
	Engagement     EngagementState  `json:"engagement"`
	Metadata       Metadata         `json:"metadata"`
	Achievements   AchievementState `json:"achievements"`

	// Long-horizon cadence counters. dailyVisits keys are calendar dates,
	// weekendDates/vampireDates are dedup guards so the counters increment
	// at most once per ISO-week weekend / calendar day respectively.
	DailyVisits   map[string]bool `json:"dailyVisits"`
	WeekendVisits int             `json:"weekendVisits"`
	VampireVisits int             `json:"vampireVisits"`
	WeeklyStreak  int             `json:"weeklyStreak"`
	LastWeekVisit *int            `json:"lastWeekVisit"`
	WeekendDates  map[string]bool `json:"weekendDates"`
	VampireDates  map[string]bool `json:"vampireDates"`
}

// NewVisitorProfile creates a fresh profile with all counters zeroed.
func NewVisitorProfile(visitorID, sessionID string, source SourceInfo, meta Metadata, now time.Time) *VisitorProfile {
	return &VisitorProfile{
		SchemaVersion: SchemaVersion,
		VisitorID:     visitorID,
		FirstVisit:    now,
		LastVisit:     now,
		Source:        source,
		Company:       make(map[string]any),
		Contact:       make(map[string]any),
		Behavior: Behavior{
			Pages:                 make(map[string]*PageRecord),
			ToolsUsed:             []string{},
			CalculationsPerformed: []CalculationRecord{},
			Interests:             []string{},
			ContentCategories:     []string{},
			GlobalLinksClicked:    []LinkClick{},
		},
		CurrentSession: CurrentSession{
			SessionID: sessionID,
			StartTime: now,
		},
		Engagement: EngagementState{
			Level:      "cold",
			Signals:    []string{},
			ToastShown: make(map[string]bool),
		},
		Metadata: meta,
		Achievements: AchievementState{
			Unlocked:   []string{},
			UnlockedAt: make(map[string]time.Time),
		},
		DailyVisits:  make(map[string]bool),
		WeekendDates: make(map[string]bool),
		VampireDates: make(map[string]bool),
	}
}

// Page returns the record for a path, or nil if the path was never visited.
func (p *VisitorProfile) Page(path string) *PageRecord {
	return p.Behavior.Pages[path]
}

// HasVisited reports whether a path exists in the page map.
func (p *VisitorProfile) HasVisited(path string) bool {
	_, ok := p.Behavior.Pages[path]
	return ok
}

// HasUsedTool reports whether a tool name was recorded.
func (p *VisitorProfile) HasUsedTool(name string) bool {
	for _, t := range p.Behavior.ToolsUsed {
		if t == name {
			return true
		}
	}
	return false
}

// AddTool appends a tool name if not already present. The dedup applies to
// the list only; engagement scoring for repeat uses is the caller's call.
func (p *VisitorProfile) AddTool(name string) {
	if !p.HasUsedTool(name) {
		p.Behavior.ToolsUsed = append(p.Behavior.ToolsUsed, name)
	}
}

// AddInterest appends an interest topic if not already present. Returns
// true when the topic was newly added.
func (p *VisitorProfile) AddInterest(topic string) bool {
	for _, t := range p.Behavior.Interests {
		if t == topic {
			return false
		}
	}
	p.Behavior.Interests = append(p.Behavior.Interests, topic)
	return true
}

// AddContentCategory appends a category if not already present.
func (p *VisitorProfile) AddContentCategory(category string) {
	for _, c := range p.Behavior.ContentCategories {
		if c == category {
			return
		}
	}
	p.Behavior.ContentCategories = append(p.Behavior.ContentCategories, category)
}

// HasContentCategory reports whether a category was ever visited.
func (p *VisitorProfile) HasContentCategory(category string) bool {
	for _, c := range p.Behavior.ContentCategories {
		if c == category {
			return true
		}
	}
	return false
}

// PagesWithScrollDepthAtLeast counts pages whose high-water scroll mark
// reached the given depth.
func (p *VisitorProfile) PagesWithScrollDepthAtLeast(depth int) int {
	n := 0
	for _, pr := range p.Behavior.Pages {
		if pr.MaxScrollDepth >= depth {
			n++
		}
	}
	return n
}

// PagesWithPathFragment counts visited paths containing the given fragment.
func (p *VisitorProfile) PagesWithPathFragment(fragment string) int {
	n := 0
	for path := range p.Behavior.Pages {
		if strings.Contains(path, fragment) {
			n++
		}
	}
	return n
}
