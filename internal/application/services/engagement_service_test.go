package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/withseismic/leadpulse-go/internal/domain/entities/profile"
	"github.com/withseismic/leadpulse-go/internal/domain/events"
)

func newTestProfile(env *testEnv, visitorID string) *profile.VisitorProfile {
	return profile.NewVisitorProfile(visitorID, "session_test", profile.SourceInfo{Type: profile.SourceDirect}, profile.Metadata{}, env.clock.Now())
}

func TestApplyEventAccumulatesScore(t *testing.T) {
	env := newTestEnv(t)
	p := newTestProfile(env, "visitor_score")

	env.engagement.ApplyEvent(p, events.PageView)
	assert.Equal(t, 5, p.Engagement.Score)

	env.engagement.ApplyEvent(p, events.CodeBlockCopy)
	assert.Equal(t, 15, p.Engagement.Score)

	env.engagement.ApplyEvent(p, "some_custom_event")
	assert.Equal(t, 15, p.Engagement.Score, "unknown events weigh zero")
	assert.NotNil(t, p.Engagement.LastEngagement, "unknown events still refresh lastEngagement")
}

func TestLevelTransitionShowsToastOnce(t *testing.T) {
	env := newTestEnv(t)
	p := newTestProfile(env, "visitor_toast")

	p.Engagement.Score = 995
	env.engagement.ApplyEvent(p, events.PageView)

	require.Equal(t, events.LevelWarm, p.Engagement.Level)
	require.Equal(t, 1, env.notifier.toastCount())
	assert.True(t, p.Engagement.ToastShown[events.LevelWarm])

	// Dropping back below and re-crossing must not repeat the toast.
	p.Engagement.Score = 995
	p.Engagement.Level = events.LevelCold
	env.engagement.ApplyEvent(p, events.PageView)
	assert.Equal(t, 1, env.notifier.toastCount())
}

func TestLevelJumpAcrossMultipleThresholds(t *testing.T) {
	env := newTestEnv(t)
	p := newTestProfile(env, "visitor_jump")

	p.Engagement.Score = 4990
	env.engagement.ApplyEvent(p, events.BookingInitiated)

	assert.Equal(t, events.LevelQualified, p.Engagement.Level)

	// Only the landing level's toast fires; intermediate levels are skipped.
	require.Equal(t, 1, env.notifier.toastCount())
	assert.Equal(t, events.LevelQualified, env.notifier.toasts[0].Level)
	assert.False(t, p.Engagement.ToastShown[events.LevelWarm])
	assert.False(t, p.Engagement.ToastShown[events.LevelHot])
}

func TestQualifiedLeadFiresExactlyOnce(t *testing.T) {
	env := newTestEnv(t)
	p := newTestProfile(env, "visitor_qualified")

	p.Engagement.Score = 4995
	env.engagement.ApplyEvent(p, events.PageView)

	require.Equal(t, 5000, p.Engagement.Score)
	require.Equal(t, events.LevelQualified, p.Engagement.Level)
	assert.True(t, p.Engagement.HasSignal("qualified_lead"))

	// Widget appears only after the scheduled delay elapses.
	assert.Equal(t, 0, env.notifier.widgetShows)
	env.scheduler.FireOnces()
	assert.Equal(t, 1, env.notifier.widgetShows)

	// Further qualified events never re-trigger the signal or widget.
	env.engagement.ApplyEvent(p, events.PageView)
	env.engagement.ApplyEvent(p, events.BookingInitiated)
	env.scheduler.FireOnces()
	assert.Equal(t, 1, env.notifier.widgetShows)

	count := 0
	for _, s := range p.Engagement.Signals {
		if s == "qualified_lead" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestDurableSignalDetection(t *testing.T) {
	env := newTestEnv(t)
	p := newTestProfile(env, "visitor_signals")

	p.Behavior.UniquePagesViewed = 3
	env.engagement.ApplyEvent(p, events.PageView)
	assert.True(t, p.Engagement.HasSignal("multi_page_visitor"))
	assert.False(t, p.Engagement.HasSignal("deep_explorer"))

	p.Behavior.UniquePagesViewed = 5
	p.Behavior.TotalTimeSpent = 400
	p.Behavior.AverageTimePerPage = 80
	env.engagement.ApplyEvent(p, events.PageView)
	assert.True(t, p.Engagement.HasSignal("deep_explorer"))
	assert.True(t, p.Engagement.HasSignal("engaged_reader"))
	assert.True(t, p.Engagement.HasSignal("high_time_investment"))

	// Signals persist even when the aggregates later fall below threshold.
	p.Behavior.AverageTimePerPage = 10
	env.engagement.ApplyEvent(p, events.PageView)
	assert.True(t, p.Engagement.HasSignal("engaged_reader"))
}

func TestCategorySignals(t *testing.T) {
	env := newTestEnv(t)
	p := newTestProfile(env, "visitor_categories")

	p.AddContentCategory("case-studies")
	p.AddContentCategory("contact")
	env.engagement.ApplyEvent(p, events.PageView)

	assert.True(t, p.Engagement.HasSignal("case_study_reader"))
	assert.True(t, p.Engagement.HasSignal("contact_visitor"))
}
