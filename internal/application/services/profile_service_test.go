package services

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/withseismic/leadpulse-go/internal/domain/entities/profile"
)

func TestLoadCreatesFreshProfile(t *testing.T) {
	env := newTestEnv(t)

	p := env.profiles.Load("visitor_new")
	require.NotNil(t, p)
	assert.Equal(t, "visitor_new", p.VisitorID)
	assert.Equal(t, "cold", p.Engagement.Level)
	assert.Equal(t, 0, p.Engagement.Score)
}

func TestFreshProfileIsWrittenThrough(t *testing.T) {
	env := newTestEnv(t)

	p := env.profiles.Load("v1")

	// The document exists in storage before any mutation.
	_, found, err := env.store.Get("leadpulse_visitor:v1")
	require.NoError(t, err)
	assert.True(t, found)

	// firstVisit survives a cache drop (a stand-in for a restart).
	env.cache.Remove("v1")
	reloaded := env.profiles.Load("v1")
	assert.True(t, p.FirstVisit.Equal(reloaded.FirstVisit))
}

func TestSavePersistsAndReloads(t *testing.T) {
	env := newTestEnv(t)

	env.profiles.Mutate("v1", func(p *profile.VisitorProfile) {
		p.Engagement.Score = 42
	})

	// Drop the cache so the next load hits storage.
	env.cache.Remove("v1")

	p := env.profiles.Load("v1")
	assert.Equal(t, 42, p.Engagement.Score)
}

func TestUpdateMergesObjectKeys(t *testing.T) {
	env := newTestEnv(t)

	env.profiles.Mutate("v1", func(p *profile.VisitorProfile) {
		p.Contact["email"] = "jo@acme.test"
		p.Contact["name"] = "Jo"
	})

	p := env.profiles.Update("v1", map[string]any{
		"contact": map[string]any{"phone": "555-0100"},
	})

	// Partial object patches merge key by key.
	assert.Equal(t, "jo@acme.test", p.Contact["email"])
	assert.Equal(t, "Jo", p.Contact["name"])
	assert.Equal(t, "555-0100", p.Contact["phone"])
}

func TestUpdateReplacesScalarsAndArrays(t *testing.T) {
	env := newTestEnv(t)

	env.profiles.Mutate("v1", func(p *profile.VisitorProfile) {
		p.Behavior.Interests = []string{"a", "b"}
	})

	p := env.profiles.Update("v1", map[string]any{
		"behavior": map[string]any{"interests": []string{"c"}},
	})

	assert.Equal(t, []string{"c"}, p.Behavior.Interests)
}

func TestUpdatePreservesVisitorID(t *testing.T) {
	env := newTestEnv(t)

	env.profiles.Load("v1")
	p := env.profiles.Update("v1", map[string]any{"visitorId": "spoofed"})
	assert.Equal(t, "v1", p.VisitorID)
}

func TestResetClearsStorage(t *testing.T) {
	env := newTestEnv(t)

	env.profiles.Mutate("v1", func(p *profile.VisitorProfile) {
		p.Engagement.Score = 1234
	})
	env.store.Set("leadpulse_session:v1", "{}")

	env.profiles.Reset("v1")

	_, found, err := env.store.Get("leadpulse_visitor:v1")
	require.NoError(t, err)
	assert.False(t, found)
	_, found, _ = env.store.Get("leadpulse_session:v1")
	assert.False(t, found)

	p := env.profiles.Load("v1")
	assert.Equal(t, 0, p.Engagement.Score)
}

func TestResetTimeDataPreservesVisitCounts(t *testing.T) {
	env := newTestEnv(t)

	tracker := env.sessions.InitializePage("v1", "/a", "A")
	env.clock.Advance(60 * time.Second)
	tracker.Flush()

	p := env.profiles.ResetTimeData("v1")

	assert.Equal(t, 0, p.Behavior.TotalTimeSpent)
	assert.Equal(t, 0, p.Behavior.AverageTimePerPage)
	pageA := p.Page("/a")
	require.NotNil(t, pageA)
	assert.Equal(t, 0, pageA.TotalTimeSpent)
	assert.Empty(t, pageA.Sessions)
	assert.Equal(t, 1, pageA.VisitCount)
	assert.Equal(t, 1, p.Behavior.TotalPageViews)
}

func TestResetAchievements(t *testing.T) {
	env := newTestEnv(t)

	env.profiles.Mutate("v1", func(p *profile.VisitorProfile) {
		p.Achievements.Unlock("first_steps", env.clock.Now())
	})

	p := env.profiles.ResetAchievements("v1")
	assert.Empty(t, p.Achievements.Unlocked)
	assert.Empty(t, p.Achievements.UnlockedAt)
}

func TestCorruptDocumentFallsBackToFresh(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.store.Set("leadpulse_visitor:v1", "{not json"))

	p := env.profiles.Load("v1")
	require.NotNil(t, p)
	assert.Equal(t, "v1", p.VisitorID)
	assert.Equal(t, 0, p.Engagement.Score)
}

// failingStore errors on every operation.
type failingStore struct{}

func (failingStore) Get(string) (string, bool, error) { return "", false, errors.New("boom") }
func (failingStore) Set(string, string) error         { return errors.New("boom") }
func (failingStore) Remove(string) error              { return errors.New("boom") }

func TestStorageFailureDegradesToMemory(t *testing.T) {
	env := newTestEnv(t)
	env.profiles.store = failingStore{}

	p := env.profiles.Load("v1")
	require.NotNil(t, p)
	assert.True(t, env.profiles.IsDegraded("v1"))

	// Mutations keep working against the cached copy.
	env.profiles.Mutate("v1", func(p *profile.VisitorProfile) {
		p.Engagement.Score = 7
	})
	assert.Equal(t, 7, env.profiles.Load("v1").Engagement.Score)
}

func TestSaveStampsLastVisit(t *testing.T) {
	env := newTestEnv(t)

	p := env.profiles.Load("v1")
	env.clock.Advance(time.Hour)
	env.profiles.Save(p)

	assert.Equal(t, env.clock.Now(), p.LastVisit)

	// Persisted document carries the stamp too.
	raw, found, err := env.store.Get("leadpulse_visitor:v1")
	require.NoError(t, err)
	require.True(t, found)
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	assert.NotEmpty(t, doc["lastVisit"])
}
