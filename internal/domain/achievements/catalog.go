// Package achievements defines the fixed achievement catalog. Every
// qualifier is a pure predicate over the profile and the evaluation moment;
// nothing here reads ambient state.
package achievements

import (
	"sort"
	"time"

	"github.com/withseismic/leadpulse-go/internal/domain/entities/profile"
)

// Achievement is one catalog entry. Qualifier reports whether the profile
// earns the unlock at the given moment; it is never consulted again once
// the unlock is recorded.
type Achievement struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	Description string `json:"description"`

	Qualifier func(p *profile.VisitorProfile, now time.Time) bool `json:"-"`
}

// Catalog is the full ordered achievement list. Order is presentation
// order and the order simultaneous unlocks are notified in.
var Catalog = []Achievement{
	{
		ID:          "first_steps",
		Name:        "First Steps",
		Icon:        "👣",
		Description: "Visit your first page",
		Qualifier: func(p *profile.VisitorProfile, _ time.Time) bool {
			return p.Behavior.TotalPageViews >= 1
		},
	},
	{
		ID:          "explorer",
		Name:        "Explorer",
		Icon:        "🗺️",
		Description: "Visit 5 different pages",
		Qualifier: func(p *profile.VisitorProfile, _ time.Time) bool {
			return p.Behavior.UniquePagesViewed >= 5
		},
	},
	{
		ID:          "deep_diver",
		Name:        "Deep Diver",
		Icon:        "🤿",
		Description: "Scroll to 100% on 3 pages",
		Qualifier: func(p *profile.VisitorProfile, _ time.Time) bool {
			return p.PagesWithScrollDepthAtLeast(100) >= 3
		},
	},
	{
		ID:          "speed_reader",
		Name:        "Speed Reader",
		Icon:        "⚡",
		Description: "Visit 10 pages in under 5 minutes",
		Qualifier: func(p *profile.VisitorProfile, _ time.Time) bool {
			return p.Behavior.TotalPageViews >= 10 && p.Behavior.TotalTimeSpent < 300
		},
	},
	{
		ID:          "dedicated_reader",
		Name:        "Dedicated Reader",
		Icon:        "📚",
		Description: "Spend over 10 minutes reading",
		Qualifier: func(p *profile.VisitorProfile, _ time.Time) bool {
			return p.Behavior.TotalTimeSpent >= 600
		},
	},
	{
		ID:          "case_study_enthusiast",
		Name:        "Case Study Enthusiast",
		Icon:        "📊",
		Description: "Read 3 case studies",
		Qualifier: func(p *profile.VisitorProfile, _ time.Time) bool {
			return p.PagesWithPathFragment("/case-studies/") >= 3
		},
	},
	{
		ID:          "tool_tester",
		Name:        "Tool Tester",
		Icon:        "🔧",
		Description: "Try at least one tool",
		Qualifier: func(p *profile.VisitorProfile, _ time.Time) bool {
			return len(p.Behavior.ToolsUsed) >= 1
		},
	},
	{
		ID:          "night_owl",
		Name:        "Night Owl",
		Icon:        "🦉",
		Description: "Browse after midnight",
		Qualifier: func(_ *profile.VisitorProfile, now time.Time) bool {
			return now.Hour() >= 0 && now.Hour() < 6
		},
	},
	{
		ID:          "early_bird",
		Name:        "Early Bird",
		Icon:        "🐦",
		Description: "Browse before 7 AM",
		Qualifier: func(_ *profile.VisitorProfile, now time.Time) bool {
			return now.Hour() >= 5 && now.Hour() < 7
		},
	},
	{
		ID:          "return_visitor",
		Name:        "Return Visitor",
		Icon:        "🔄",
		Description: "Come back for a second visit",
		Qualifier: func(p *profile.VisitorProfile, now time.Time) bool {
			if p.FirstVisit.IsZero() {
				return false
			}
			return now.Sub(p.FirstVisit) > time.Hour && p.Behavior.TotalPageViews > 5
		},
	},
	{
		ID:          "serious_buyer",
		Name:        "Serious Buyer",
		Icon:        "💼",
		Description: "Visit pricing and contact pages",
		Qualifier: func(p *profile.VisitorProfile, _ time.Time) bool {
			return p.HasVisited("/pricing") && p.PagesWithPathFragment("/contact") >= 1
		},
	},
	{
		ID:          "code_copier",
		Name:        "Code Copier",
		Icon:        "📋",
		Description: "Copy a code block",
		Qualifier: func(p *profile.VisitorProfile, _ time.Time) bool {
			for _, pr := range p.Behavior.Pages {
				for _, s := range pr.Sessions {
					for _, a := range s.Actions {
						if a.Type == "code_copied" {
							return true
						}
					}
				}
			}
			return false
		},
	},
	{
		ID:          "tracker_detective",
		Name:        "Tracker Detective",
		Icon:        "🕵️",
		Description: "Discover the lead qualifier case study",
		Qualifier: func(p *profile.VisitorProfile, _ time.Time) bool {
			return p.HasVisited("/case-studies/lead-qualifier")
		},
	},
	{
		ID:          "insider_trading",
		Name:        "Insider Trading",
		Icon:        "📈",
		Description: "Read 100% of how I'm tracking you",
		Qualifier: func(p *profile.VisitorProfile, _ time.Time) bool {
			pr := p.Page("/case-studies/lead-qualifier")
			return pr != nil && pr.MaxScrollDepth >= 100
		},
	},
	{
		ID:          "engagement_champion",
		Name:        "Engagement Champion",
		Icon:        "🏆",
		Description: "Reach 'Hot' engagement level",
		Qualifier: func(p *profile.VisitorProfile, _ time.Time) bool {
			return p.Engagement.Score >= 2500
		},
	},
	{
		ID:          "qualified_legend",
		Name:        "Qualified Legend",
		Icon:        "👑",
		Description: "Become a qualified lead (5000 points)",
		Qualifier: func(p *profile.VisitorProfile, _ time.Time) bool {
			return p.Engagement.Score >= 5000
		},
	},
	{
		ID:          "week_warrior",
		Name:        "Week Warrior",
		Icon:        "⚔️",
		Description: "Visit 7 days in a row",
		Qualifier: func(p *profile.VisitorProfile, _ time.Time) bool {
			return longestDailyRun(p.DailyVisits) >= 7
		},
	},
	{
		ID:          "month_milestone",
		Name:        "Month Milestone",
		Icon:        "📅",
		Description: "One month anniversary of first visit",
		Qualifier: func(p *profile.VisitorProfile, now time.Time) bool {
			return daysSinceFirstVisit(p, now) >= 30
		},
	},
	{
		ID:          "year_anniversary",
		Name:        "Year Anniversary",
		Icon:        "🎂",
		Description: "One year anniversary of first visit",
		Qualifier: func(p *profile.VisitorProfile, now time.Time) bool {
			return daysSinceFirstVisit(p, now) >= 365
		},
	},
	{
		ID:          "number_of_beast",
		Name:        "Number of the Beast",
		Icon:        "😈",
		Description: "Visit on day 666",
		Qualifier: func(p *profile.VisitorProfile, now time.Time) bool {
			return daysSinceFirstVisit(p, now) >= 666
		},
	},
	{
		ID:          "fortnight_fanatic",
		Name:        "Fortnight Fanatic",
		Icon:        "🏰",
		Description: "Visit 14 different days",
		Qualifier: func(p *profile.VisitorProfile, _ time.Time) bool {
			return len(p.DailyVisits) >= 14
		},
	},
	{
		ID:          "habit_former",
		Name:        "Habit Former",
		Icon:        "🔥",
		Description: "Visit 30 different days",
		Qualifier: func(p *profile.VisitorProfile, _ time.Time) bool {
			return len(p.DailyVisits) >= 30
		},
	},
	{
		ID:          "weekend_warrior",
		Name:        "Weekend Warrior",
		Icon:        "🏖️",
		Description: "Visit on 5 different weekends",
		Qualifier: func(p *profile.VisitorProfile, _ time.Time) bool {
			return p.WeekendVisits >= 5
		},
	},
	{
		ID:          "century_club",
		Name:        "Century Club",
		Icon:        "💯",
		Description: "Reach 100 total page views",
		Qualifier: func(p *profile.VisitorProfile, _ time.Time) bool {
			return p.Behavior.TotalPageViews >= 100
		},
	},
	{
		ID:          "vampire_hours",
		Name:        "Vampire Hours",
		Icon:        "🧛",
		Description: "Visit between midnight and 6 AM on 3 different nights",
		Qualifier: func(p *profile.VisitorProfile, _ time.Time) bool {
			return p.VampireVisits >= 3
		},
	},
	{
		ID:          "loyal_follower",
		Name:        "Loyal Follower",
		Icon:        "💎",
		Description: "Visit at least once a week for 4 weeks",
		Qualifier: func(p *profile.VisitorProfile, _ time.Time) bool {
			return p.WeeklyStreak >= 4
		},
	},
	{
		ID:          "article_appetizer",
		Name:        "Article Appetizer",
		Icon:        "📖",
		Description: "Read 5 articles",
		Qualifier: func(p *profile.VisitorProfile, _ time.Time) bool {
			return p.PagesWithPathFragment("/articles/") >= 5
		},
	},
	{
		ID:          "article_enthusiast",
		Name:        "Article Enthusiast",
		Icon:        "📚",
		Description: "Read 10 articles",
		Qualifier: func(p *profile.VisitorProfile, _ time.Time) bool {
			return p.PagesWithPathFragment("/articles/") >= 10
		},
	},
	{
		ID:          "article_scholar",
		Name:        "Article Scholar",
		Icon:        "🎓",
		Description: "Read 20 articles",
		Qualifier: func(p *profile.VisitorProfile, _ time.Time) bool {
			return p.PagesWithPathFragment("/articles/") >= 20
		},
	},
	{
		ID:          "article_professor",
		Name:        "Article Professor",
		Icon:        "🏛️",
		Description: "Read 50 articles",
		Qualifier: func(p *profile.VisitorProfile, _ time.Time) bool {
			return p.PagesWithPathFragment("/articles/") >= 50
		},
	},
	{
		ID:          "price_savvy",
		Name:        "Price Savvy",
		Icon:        "💰",
		Description: "Compare project costs using the pricing calculator",
		Qualifier: func(p *profile.VisitorProfile, _ time.Time) bool {
			return p.HasUsedTool("pricing_calculator")
		},
	},
}

// ByID returns the catalog entry for an id, or nil if unknown.
func ByID(id string) *Achievement {
	for i := range Catalog {
		if Catalog[i].ID == id {
			return &Catalog[i]
		}
	}
	return nil
}

func daysSinceFirstVisit(p *profile.VisitorProfile, now time.Time) int {
	if p.FirstVisit.IsZero() {
		return -1
	}
	return int(now.Sub(p.FirstVisit).Hours() / 24)
}

// longestDailyRun finds the longest streak of consecutive calendar days in
// the daily-visit set. Keys that do not parse as dates are skipped.
func longestDailyRun(dailyVisits map[string]bool) int {
	days := make([]time.Time, 0, len(dailyVisits))
	for key := range dailyVisits {
		if d, err := time.Parse("2006-01-02", key); err == nil {
			days = append(days, d)
		}
	}
	if len(days) == 0 {
		return 0
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	longest, run := 1, 1
	for i := 1; i < len(days); i++ {
		if days[i].Sub(days[i-1]) == 24*time.Hour {
			run++
			if run > longest {
				longest = run
			}
		} else {
			run = 1
		}
	}
	return longest
}
