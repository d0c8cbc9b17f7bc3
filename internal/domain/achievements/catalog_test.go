package achievements

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/withseismic/leadpulse-go/internal/domain/entities/profile"
)

var noon = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func qualify(t *testing.T, id string, p *profile.VisitorProfile, now time.Time) bool {
	t.Helper()
	a := ByID(id)
	require.NotNil(t, a, "unknown achievement %s", id)
	return a.Qualifier(p, now)
}

func TestCatalogHasUniqueIDs(t *testing.T) {
	seen := make(map[string]bool)
	for _, a := range Catalog {
		assert.False(t, seen[a.ID], "duplicate id %s", a.ID)
		assert.NotNil(t, a.Qualifier, "%s has no qualifier", a.ID)
		seen[a.ID] = true
	}
}

func TestSpeedReaderNeedsFastViews(t *testing.T) {
	p := profile.NewVisitorProfile("v", "", profile.SourceInfo{}, profile.Metadata{}, noon)
	p.Behavior.TotalPageViews = 10
	p.Behavior.TotalTimeSpent = 299
	assert.True(t, qualify(t, "speed_reader", p, noon))

	p.Behavior.TotalTimeSpent = 300
	assert.False(t, qualify(t, "speed_reader", p, noon))
}

func TestNightOwlAndEarlyBirdWindows(t *testing.T) {
	p := profile.NewVisitorProfile("v", "", profile.SourceInfo{}, profile.Metadata{}, noon)

	at := func(hour int) time.Time {
		return time.Date(2025, 3, 10, hour, 30, 0, 0, time.UTC)
	}

	assert.True(t, qualify(t, "night_owl", p, at(0)))
	assert.True(t, qualify(t, "night_owl", p, at(5)))
	assert.False(t, qualify(t, "night_owl", p, at(6)))

	assert.False(t, qualify(t, "early_bird", p, at(4)))
	assert.True(t, qualify(t, "early_bird", p, at(5)))
	assert.True(t, qualify(t, "early_bird", p, at(6)))
	assert.False(t, qualify(t, "early_bird", p, at(7)))
}

func TestSeriousBuyerNeedsBothPages(t *testing.T) {
	p := profile.NewVisitorProfile("v", "", profile.SourceInfo{}, profile.Metadata{}, noon)
	p.Behavior.Pages["/pricing"] = &profile.PageRecord{Path: "/pricing"}
	assert.False(t, qualify(t, "serious_buyer", p, noon))

	p.Behavior.Pages["/contact/book-consultation"] = &profile.PageRecord{Path: "/contact/book-consultation"}
	assert.True(t, qualify(t, "serious_buyer", p, noon))
}

func TestInsiderTradingNeedsFullScroll(t *testing.T) {
	p := profile.NewVisitorProfile("v", "", profile.SourceInfo{}, profile.Metadata{}, noon)
	p.Behavior.Pages["/case-studies/lead-qualifier"] = &profile.PageRecord{
		Path:           "/case-studies/lead-qualifier",
		MaxScrollDepth: 99,
	}
	assert.True(t, qualify(t, "tracker_detective", p, noon))
	assert.False(t, qualify(t, "insider_trading", p, noon))

	p.Behavior.Pages["/case-studies/lead-qualifier"].MaxScrollDepth = 100
	assert.True(t, qualify(t, "insider_trading", p, noon))
}

func TestWeekWarriorCountsConsecutiveDays(t *testing.T) {
	p := profile.NewVisitorProfile("v", "", profile.SourceInfo{}, profile.Metadata{}, noon)

	// Six consecutive days, then a gap, then one more.
	for _, d := range []string{"2025-03-01", "2025-03-02", "2025-03-03", "2025-03-04", "2025-03-05", "2025-03-06", "2025-03-08"} {
		p.DailyVisits[d] = true
	}
	assert.False(t, qualify(t, "week_warrior", p, noon))

	p.DailyVisits["2025-03-07"] = true
	assert.True(t, qualify(t, "week_warrior", p, noon))
}

func TestAnniversaryAchievements(t *testing.T) {
	p := profile.NewVisitorProfile("v", "", profile.SourceInfo{}, profile.Metadata{}, noon)

	assert.False(t, qualify(t, "month_milestone", p, noon.AddDate(0, 0, 29)))
	assert.True(t, qualify(t, "month_milestone", p, noon.AddDate(0, 0, 30)))
	assert.True(t, qualify(t, "year_anniversary", p, noon.AddDate(0, 0, 365)))
	assert.True(t, qualify(t, "number_of_beast", p, noon.AddDate(0, 0, 666)))
}

func TestCodeCopierScansSessionActions(t *testing.T) {
	p := profile.NewVisitorProfile("v", "", profile.SourceInfo{}, profile.Metadata{}, noon)
	p.Behavior.Pages["/articles/go-tips"] = &profile.PageRecord{
		Path: "/articles/go-tips",
		Sessions: []profile.SessionSnapshot{
			{Actions: []profile.ActionRecord{{Type: "scroll_50"}}},
		},
	}
	assert.False(t, qualify(t, "code_copier", p, noon))

	p.Behavior.Pages["/articles/go-tips"].Sessions = append(p.Behavior.Pages["/articles/go-tips"].Sessions,
		profile.SessionSnapshot{Actions: []profile.ActionRecord{{Type: "code_copied"}}})
	assert.True(t, qualify(t, "code_copier", p, noon))
}

func TestPriceSavvyNeedsTheTool(t *testing.T) {
	p := profile.NewVisitorProfile("v", "", profile.SourceInfo{}, profile.Metadata{}, noon)
	p.Behavior.ToolsUsed = []string{"roi_calculator"}
	assert.True(t, qualify(t, "tool_tester", p, noon))
	assert.False(t, qualify(t, "price_savvy", p, noon))

	p.AddTool("pricing_calculator")
	assert.True(t, qualify(t, "price_savvy", p, noon))
}
