package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAchievementEnv(t *testing.T) (*testEnv, *AchievementService) {
	env := newTestEnv(t)
	svc := NewAchievementService(env.notifier, env.clock, env.scheduler, newTestLogger(t))
	return env, svc
}

func TestEvaluateUnlocksAndNotifies(t *testing.T) {
	env, svc := newAchievementEnv(t)
	p := newTestProfile(env, "v1")
	p.Behavior.TotalPageViews = 1

	unlocked := svc.Evaluate(p)

	require.Len(t, unlocked, 1)
	assert.Equal(t, "first_steps", unlocked[0].ID)
	assert.True(t, p.Achievements.IsUnlocked("first_steps"))

	// The first notification goes out immediately.
	env.notifier.mu.Lock()
	count := len(env.notifier.achievements)
	env.notifier.mu.Unlock()
	assert.Equal(t, 1, count)
}

func TestEvaluateIsMonotonic(t *testing.T) {
	env, svc := newAchievementEnv(t)
	p := newTestProfile(env, "v1")
	p.Behavior.TotalPageViews = 1

	first := svc.Evaluate(p)
	require.Len(t, first, 1)
	unlockedAt := p.Achievements.UnlockedAt["first_steps"]

	env.clock.Advance(time.Hour)
	second := svc.Evaluate(p)
	assert.Empty(t, second)
	assert.Equal(t, unlockedAt, p.Achievements.UnlockedAt["first_steps"], "unlock timestamp never moves")
}

func TestSimultaneousUnlocksAreStaggered(t *testing.T) {
	env, svc := newAchievementEnv(t)
	p := newTestProfile(env, "v1")

	// Qualifies first_steps, explorer (5 unique), and tool_tester at once.
	p.Behavior.TotalPageViews = 5
	p.Behavior.UniquePagesViewed = 5
	p.Behavior.ToolsUsed = []string{"roi_calculator"}

	unlocked := svc.Evaluate(p)
	require.Len(t, unlocked, 3)

	env.notifier.mu.Lock()
	immediate := len(env.notifier.achievements)
	env.notifier.mu.Unlock()
	assert.Equal(t, 1, immediate, "only the first notification is immediate")

	env.scheduler.FireOnces()

	env.notifier.mu.Lock()
	total := len(env.notifier.achievements)
	env.notifier.mu.Unlock()
	assert.Equal(t, 3, total)
}

func TestGetAllReportsUnlockState(t *testing.T) {
	env, svc := newAchievementEnv(t)
	p := newTestProfile(env, "v1")
	p.Behavior.TotalPageViews = 1
	svc.Evaluate(p)

	statuses := svc.GetAll(p)
	require.NotEmpty(t, statuses)

	byID := make(map[string]AchievementStatus, len(statuses))
	for _, s := range statuses {
		byID[s.ID] = s
	}

	assert.True(t, byID["first_steps"].Unlocked)
	require.NotNil(t, byID["first_steps"].UnlockedAt)
	assert.False(t, byID["explorer"].Unlocked)
	assert.Nil(t, byID["explorer"].UnlockedAt)

	unlocked := svc.GetUnlocked(p)
	require.Len(t, unlocked, 1)
	assert.Equal(t, "first_steps", unlocked[0].ID)
}
