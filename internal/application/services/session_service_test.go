package services

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectCategory(t *testing.T) {
	cases := map[string]string{
		"/services/why-productize":    "services",
		"/case-studies/lead-qualifier": "case-studies",
		"/tool-ideas/roi-calculator":  "tool-ideas",
		"/resources/guides":           "resources",
		"/contact/book-consultation":  "contact",
		"/approach/discovery-process": "approach",
		"/build":                      "build",
		"/articles/some-post":         "general",
		"/":                           "general",
	}
	for path, want := range cases {
		assert.Equal(t, want, detectCategory(path), "path %s", path)
	}
}

func TestInitializePageCountsViews(t *testing.T) {
	env := newTestEnv(t)

	env.sessions.InitializePage("v1", "/a", "Page A")
	env.sessions.InitializePage("v1", "/b", "Page B")
	env.sessions.InitializePage("v1", "/a", "Page A")

	p := env.profiles.Load("v1")
	assert.Equal(t, 3, p.Behavior.TotalPageViews)
	assert.Equal(t, 2, p.Behavior.UniquePagesViewed)

	pageA := p.Page("/a")
	require.NotNil(t, pageA)
	assert.Equal(t, 2, pageA.VisitCount)
	assert.Equal(t, "general", pageA.Category)

	// Re-initializing flushed the earlier pages into their session rings.
	assert.Len(t, pageA.Sessions, 1)
	assert.Len(t, p.Page("/b").Sessions, 1)
}

func TestInitializePageReplacesTracker(t *testing.T) {
	env := newTestEnv(t)

	first := env.sessions.InitializePage("v1", "/a", "A")
	second := env.sessions.InitializePage("v1", "/b", "B")

	current, ok := env.sessions.Tracker("v1")
	require.True(t, ok)
	assert.Same(t, second, current)

	// The flushed tracker is inert.
	first.UpdateScroll(90)
	env.scheduler.FireFrames()
	p := env.profiles.Load("v1")
	assert.Equal(t, 0, p.Page("/a").MaxScrollDepth)
}

func TestScrollMilestonesFireOncePerSession(t *testing.T) {
	env := newTestEnv(t)
	tracker := env.sessions.InitializePage("v1", "/a", "A")

	baseScore := env.profiles.Load("v1").Engagement.Score

	tracker.UpdateScroll(60)
	env.scheduler.FireFrames()

	p := env.profiles.Load("v1")
	// 25 and 50 both crossed: 2 + 3.
	assert.Equal(t, baseScore+5, p.Engagement.Score)

	// Scrolling back up changes nothing.
	tracker.UpdateScroll(30)
	env.scheduler.FireFrames()
	assert.Equal(t, baseScore+5, env.profiles.Load("v1").Engagement.Score)

	// 80 crosses 75 only, and 100 never fires.
	tracker.UpdateScroll(80)
	env.scheduler.FireFrames()
	assert.Equal(t, baseScore+10, env.profiles.Load("v1").Engagement.Score)

	// Repeating the same depth is a no-op.
	tracker.UpdateScroll(80)
	env.scheduler.FireFrames()
	assert.Equal(t, baseScore+10, env.profiles.Load("v1").Engagement.Score)

	tracker.Flush()
	assert.Equal(t, 80, env.profiles.Load("v1").Page("/a").MaxScrollDepth)
}

func TestTimeDeltaClamp(t *testing.T) {
	env := newTestEnv(t)
	tracker := env.sessions.InitializePage("v1", "/a", "A")

	// A delta above the clamp is discarded outright, not carried over.
	env.clock.Advance(301 * time.Second)
	tracker.Tick()
	p := env.profiles.Load("v1")
	assert.Equal(t, 0, p.Behavior.TotalTimeSpent)

	// The baseline was reset, so the next in-range delta applies cleanly.
	env.clock.Advance(300 * time.Second)
	tracker.Tick()
	p = env.profiles.Load("v1")
	assert.Equal(t, 300, p.Behavior.TotalTimeSpent)
	assert.Equal(t, 300, p.Page("/a").TotalTimeSpent)

	// Zero elapsed time is a no-op.
	tracker.Tick()
	assert.Equal(t, 300, env.profiles.Load("v1").Behavior.TotalTimeSpent)

	env.clock.Advance(50 * time.Second)
	tracker.Tick()
	env.clock.Advance(50 * time.Second)
	tracker.Tick()
	p = env.profiles.Load("v1")
	assert.Equal(t, 400, p.Behavior.TotalTimeSpent)
	assert.Equal(t, 400, p.Behavior.AverageTimePerPage)
	assert.Equal(t, 400, p.Page("/a").AverageTimeSpent)
}

func TestHiddenPausesTimeTracking(t *testing.T) {
	env := newTestEnv(t)
	tracker := env.sessions.InitializePage("v1", "/a", "A")

	env.clock.Advance(30 * time.Second)
	tracker.Hidden()
	assert.Equal(t, 30, env.profiles.Load("v1").Behavior.TotalTimeSpent)

	// Background time never counts.
	env.clock.Advance(100 * time.Second)
	tracker.Tick()
	assert.Equal(t, 30, env.profiles.Load("v1").Behavior.TotalTimeSpent)

	tracker.Visible()
	env.clock.Advance(20 * time.Second)
	tracker.Tick()
	assert.Equal(t, 50, env.profiles.Load("v1").Behavior.TotalTimeSpent)
}

func TestTimeMilestoneEvents(t *testing.T) {
	env := newTestEnv(t)
	env.sessions.InitializePage("v1", "/a", "A")

	baseScore := env.profiles.Load("v1").Engagement.Score
	env.scheduler.FireOnces()

	// 30s (3) + 60s (5) + 120s (10).
	assert.Equal(t, baseScore+18, env.profiles.Load("v1").Engagement.Score)
}

func TestFlushIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	tracker := env.sessions.InitializePage("v1", "/a", "A")

	env.clock.Advance(40 * time.Second)
	tracker.Flush()
	tracker.Flush()

	p := env.profiles.Load("v1")
	require.Len(t, p.Page("/a").Sessions, 1)
	assert.Equal(t, 40, p.Page("/a").Sessions[0].TimeSpent)

	_, ok := env.sessions.Tracker("v1")
	assert.False(t, ok)
}

func TestSessionRingKeepsMostRecent(t *testing.T) {
	env := newTestEnv(t)

	for i := 0; i < 12; i++ {
		tracker := env.sessions.InitializePage("v1", "/a", "A")
		tracker.Flush()
	}

	p := env.profiles.Load("v1")
	assert.Len(t, p.Page("/a").Sessions, 10)
	assert.Equal(t, 12, p.Page("/a").VisitCount)
}

func TestTrackLinkClickTruncatesTextOnRuneBoundary(t *testing.T) {
	env := newTestEnv(t)
	tracker := env.sessions.InitializePage("v1", "/a", "A")

	longText := strings.Repeat("é", 60)
	tracker.TrackLinkClick("/b", longText)

	p := env.profiles.Load("v1")
	require.Len(t, p.Behavior.GlobalLinksClicked, 1)
	text := p.Behavior.GlobalLinksClicked[0].Text
	assert.Equal(t, 50, utf8.RuneCountInString(text))
	assert.True(t, utf8.ValidString(text), "truncation must not split a rune")
	assert.Equal(t, "/a", p.Behavior.GlobalLinksClicked[0].FromPage)
}

func TestTrackLinkClickRecordsWithoutScoring(t *testing.T) {
	env := newTestEnv(t)
	tracker := env.sessions.InitializePage("v1", "/a", "A")

	baseScore := env.profiles.Load("v1").Engagement.Score
	tracker.TrackLinkClick("/contact/book-consultation", "Book now")

	p := env.profiles.Load("v1")
	require.Len(t, p.Behavior.GlobalLinksClicked, 1)
	assert.Equal(t, baseScore, p.Engagement.Score, "recording a click carries no weight")

	// The booking event is a separate call and scores exactly its weight.
	env.sessions.TrackEvent("v1", "bookingInitiated", nil)
	assert.Equal(t, baseScore+50, env.profiles.Load("v1").Engagement.Score)
}

func TestTrackLinkClassifiesBookingIntent(t *testing.T) {
	env := newTestEnv(t)
	tracker := env.sessions.InitializePage("v1", "/a", "A")

	baseScore := env.profiles.Load("v1").Engagement.Score

	require.True(t, env.sessions.TrackLink("v1", "/articles/go-tips", "tips"))
	assert.Equal(t, baseScore+2, env.profiles.Load("v1").Engagement.Score)

	require.True(t, env.sessions.TrackLink("v1", "/contact/book-consultation", "Book now"))
	p := env.profiles.Load("v1")
	assert.Equal(t, baseScore+52, p.Engagement.Score)
	assert.Len(t, p.Behavior.GlobalLinksClicked, 2)

	tracker.Flush()
	sessions := env.profiles.Load("v1").Page("/a").Sessions
	require.Len(t, sessions, 1)
	var bookingActions int
	for _, a := range sessions[0].Actions {
		if a.Type == "booking_intent" {
			bookingActions++
		}
	}
	assert.Equal(t, 1, bookingActions, "only the booking link leaves a booking_intent action")
}

func TestTrackLinkWithoutSessionIsRejected(t *testing.T) {
	env := newTestEnv(t)
	assert.False(t, env.sessions.TrackLink("v1", "/b", "link"))
}

func TestTrackToolDeduplicates(t *testing.T) {
	env := newTestEnv(t)
	env.sessions.InitializePage("v1", "/a", "A")

	baseScore := env.profiles.Load("v1").Engagement.Score
	env.sessions.TrackTool("v1", "pricing_calculator", nil)
	env.sessions.TrackTool("v1", "pricing_calculator", nil)

	p := env.profiles.Load("v1")
	assert.Equal(t, []string{"pricing_calculator"}, p.Behavior.ToolsUsed)
	// Every use still scores.
	assert.Equal(t, baseScore+30, p.Engagement.Score)
}

func TestCaptureInterestDeduplicatesSilently(t *testing.T) {
	env := newTestEnv(t)
	env.sessions.InitializePage("v1", "/a", "A")

	baseScore := env.profiles.Load("v1").Engagement.Score
	env.sessions.CaptureInterest("v1", "automation")
	env.sessions.CaptureInterest("v1", "automation")

	p := env.profiles.Load("v1")
	assert.Equal(t, []string{"automation"}, p.Behavior.Interests)
	// Interests carry no engagement weight.
	assert.Equal(t, baseScore, p.Engagement.Score)
}

func TestCaptureCompanyAndContactScore(t *testing.T) {
	env := newTestEnv(t)
	env.sessions.InitializePage("v1", "/a", "A")

	baseScore := env.profiles.Load("v1").Engagement.Score
	env.sessions.CaptureCompany("v1", map[string]any{"name": "Acme"})
	env.sessions.CaptureContact("v1", map[string]any{"email": "jo@acme.test"})

	p := env.profiles.Load("v1")
	assert.Equal(t, "Acme", p.Company["name"])
	assert.Equal(t, "jo@acme.test", p.Contact["email"])
	assert.Equal(t, baseScore+55, p.Engagement.Score)
}

func TestTrackCalculation(t *testing.T) {
	env := newTestEnv(t)
	env.sessions.InitializePage("v1", "/a", "A")

	baseScore := env.profiles.Load("v1").Engagement.Score
	env.sessions.TrackCalculation("v1", map[string]any{"roi": 3.5})

	p := env.profiles.Load("v1")
	require.Len(t, p.Behavior.CalculationsPerformed, 1)
	assert.Equal(t, baseScore+20, p.Engagement.Score)
}
