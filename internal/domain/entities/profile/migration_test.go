package profile

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var migrationNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func TestMigrateEmptyDocumentGetsDefaults(t *testing.T) {
	p, err := Migrate(map[string]any{"visitorId": "v1"}, migrationNow)
	require.NoError(t, err)

	assert.Equal(t, SchemaVersion, p.SchemaVersion)
	assert.Equal(t, "v1", p.VisitorID)
	assert.Equal(t, "cold", p.Engagement.Level)
	assert.NotNil(t, p.Behavior.Pages)
	assert.Empty(t, p.Behavior.ToolsUsed)
	assert.NotNil(t, p.Achievements.UnlockedAt)
	assert.NotNil(t, p.DailyVisits)
	assert.Equal(t, 0, p.WeeklyStreak)
}

func TestMigrateFoldsLegacyPageList(t *testing.T) {
	raw := map[string]any{
		"visitorId": "v1",
		"behavior": map[string]any{
			"pagesViewed": []any{
				map[string]any{
					"path":      "/a",
					"title":     "Page A",
					"viewCount": float64(3),
					"totalTime": float64(120),
					"timestamp": "2024-06-01T10:00:00Z",
				},
				map[string]any{
					"path":     "/case-studies/x",
					"title":    "X",
					"category": "case-studies",
				},
			},
		},
	}

	p, err := Migrate(raw, migrationNow)
	require.NoError(t, err)

	pageA := p.Page("/a")
	require.NotNil(t, pageA)
	assert.Equal(t, 3, pageA.VisitCount)
	assert.Equal(t, 120, pageA.TotalTimeSpent)
	assert.Equal(t, "general", pageA.Category, "legacy entries without a category default to general")
	assert.Equal(t, 2024, pageA.FirstVisit.Year())

	pageX := p.Page("/case-studies/x")
	require.NotNil(t, pageX)
	assert.Equal(t, 1, pageX.VisitCount, "missing view count defaults to one")
	assert.Equal(t, "case-studies", pageX.Category)

	assert.Equal(t, 2, p.Behavior.UniquePagesViewed)
}

func TestMigrateNormalizesEpochMillis(t *testing.T) {
	raw := map[string]any{
		"visitorId": "v1",
		"currentSession": map[string]any{
			"sessionId": "s1",
			"startTime": float64(1717236000000), // 2024-06-01T10:00:00Z
		},
	}

	p, err := Migrate(raw, migrationNow)
	require.NoError(t, err)
	assert.Equal(t, 2024, p.CurrentSession.StartTime.Year())
	assert.Equal(t, "s1", p.CurrentSession.SessionID)
}

func TestMigrateIsIdempotent(t *testing.T) {
	raw := map[string]any{
		"visitorId": "v1",
		"behavior": map[string]any{
			"pagesViewed": []any{
				map[string]any{"path": "/a", "viewCount": float64(2)},
			},
			"totalPageViews": float64(2),
		},
		"engagement": map[string]any{"score": float64(150), "level": "cold"},
	}

	first, err := Migrate(raw, migrationNow)
	require.NoError(t, err)

	// Round-trip the migrated profile back through JSON and migrate again.
	data, err := json.Marshal(first)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))

	second, err := Migrate(doc, migrationNow.Add(time.Hour))
	require.NoError(t, err)

	firstJSON, _ := json.Marshal(first)
	secondJSON, _ := json.Marshal(second)
	assert.JSONEq(t, string(firstJSON), string(secondJSON))
}

func TestMigratePreservesUnknownEngagementState(t *testing.T) {
	raw := map[string]any{
		"visitorId": "v1",
		"engagement": map[string]any{
			"score":   float64(3000),
			"level":   "hot",
			"signals": []any{"tool_user"},
			"toastShown": map[string]any{
				"warm": true,
				"hot":  true,
			},
		},
	}

	p, err := Migrate(raw, migrationNow)
	require.NoError(t, err)
	assert.Equal(t, 3000, p.Engagement.Score)
	assert.Equal(t, "hot", p.Engagement.Level)
	assert.True(t, p.Engagement.HasSignal("tool_user"))
	assert.True(t, p.Engagement.ToastShown["warm"])
	assert.True(t, p.Engagement.ToastShown["hot"])
}
