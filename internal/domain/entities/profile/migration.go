package profile

import (
	"encoding/json"
	"time"
)

// Migrate upgrades a raw persisted document of any historical schema to the
// current shape. It is additive and idempotent: running it on an
// already-current document changes nothing, and no field is ever dropped
// except the legacy flat page list once it has been folded into the keyed
// page map. Missing structural fields get their zero-state defaults.
func Migrate(raw map[string]any, now time.Time) (*VisitorProfile, error) {
	behavior := ensureMap(raw, "behavior")
	pages := ensureMap(behavior, "pages")

	// Legacy schema stored a flat "pagesViewed" list instead of the keyed
	// page map. Fold each entry in, preserving counts and timestamps, and
	// drop the list so a second migration pass is a no-op.
	if viewed, ok := behavior["pagesViewed"].([]any); ok {
		for _, entry := range viewed {
			page, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			path, _ := page["path"].(string)
			if path == "" {
				continue
			}
			if _, exists := pages[path]; exists {
				continue
			}
			title, _ := page["title"].(string)
			category, _ := page["category"].(string)
			if category == "" {
				category = "general"
			}
			first := firstNonEmpty(page, "firstVisit", "timestamp")
			last := firstNonEmpty(page, "lastVisit", "timestamp")
			pages[path] = map[string]any{
				"path":             path,
				"title":            title,
				"category":         category,
				"firstVisit":       first,
				"lastVisit":        last,
				"visitCount":       numberOr(page["viewCount"], 1),
				"totalTimeSpent":   numberOr(page["totalTime"], 0),
				"averageTimeSpent": 0,
				"maxScrollDepth":   0,
				"sessions":         []any{},
			}
		}
		delete(behavior, "pagesViewed")
	}

	if _, ok := behavior["totalPageViews"]; !ok {
		behavior["totalPageViews"] = 0
	}
	if _, ok := behavior["uniquePagesViewed"]; !ok {
		behavior["uniquePagesViewed"] = len(pages)
	}
	ensureArray(behavior, "toolsUsed")
	ensureArray(behavior, "calculationsPerformed")
	ensureArray(behavior, "interests")
	ensureArray(behavior, "contentCategories")
	ensureArray(behavior, "globalLinksClicked")

	engagement := ensureMap(raw, "engagement")
	if _, ok := engagement["level"]; !ok {
		engagement["level"] = "cold"
	}
	ensureArray(engagement, "signals")
	ensureMap(engagement, "toastShown")

	achievements := ensureMap(raw, "achievements")
	ensureArray(achievements, "unlocked")
	ensureMap(achievements, "unlockedAt")

	session := ensureMap(raw, "currentSession")
	normalizeEpochMillis(session, "startTime")
	normalizeEpochMillis(session, "pageStartTime")
	if _, ok := session["startTime"]; !ok {
		session["startTime"] = now.Format(time.RFC3339Nano)
	}

	ensureMap(raw, "company")
	ensureMap(raw, "contact")
	ensureMap(raw, "metadata")
	ensureMap(raw, "dailyVisits")
	ensureMap(raw, "weekendDates")
	ensureMap(raw, "vampireDates")
	if _, ok := raw["weekendVisits"]; !ok {
		raw["weekendVisits"] = 0
	}
	if _, ok := raw["vampireVisits"]; !ok {
		raw["vampireVisits"] = 0
	}
	if _, ok := raw["weeklyStreak"]; !ok {
		raw["weeklyStreak"] = 0
	}
	raw["schemaVersion"] = SchemaVersion

	data, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var p VisitorProfile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func ensureMap(parent map[string]any, key string) map[string]any {
	if m, ok := parent[key].(map[string]any); ok {
		return m
	}
	m := make(map[string]any)
	parent[key] = m
	return m
}

func ensureArray(parent map[string]any, key string) {
	if _, ok := parent[key].([]any); !ok {
		parent[key] = []any{}
	}
}

func firstNonEmpty(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func numberOr(v any, fallback float64) float64 {
	if f, ok := v.(float64); ok && f > 0 {
		return f
	}
	return fallback
}

// normalizeEpochMillis rewrites legacy numeric epoch-millisecond timestamps
// into RFC 3339 strings so they unmarshal into time.Time.
func normalizeEpochMillis(m map[string]any, key string) {
	if ms, ok := m[key].(float64); ok {
		m[key] = time.UnixMilli(int64(ms)).UTC().Format(time.RFC3339Nano)
	}
}
