// Package events defines the engagement event vocabulary, the static weight
// table, and the score-to-level mapping.
package events

import "strings"

// Event type identifiers. These are the only event types that score; any
// other type is accepted and weighted zero.
const (
	PageView             = "pageView"
	Scroll25             = "scroll25"
	Scroll50             = "scroll50"
	Scroll75             = "scroll75"
	Scroll100            = "scroll100"
	TimeOnPage30s        = "timeOnPage30s"
	TimeOnPage60s        = "timeOnPage60s"
	TimeOnPage120s       = "timeOnPage120s"
	LinkClick            = "linkClick"
	CodeBlockCopy        = "codeBlockCopy"
	ToolUsed             = "toolUsed"
	CalculationPerformed = "calculationPerformed"
	EmailProvided        = "emailProvided"
	CompanyInfoProvided  = "companyInfoProvided"
	BookingInitiated     = "bookingInitiated"
)

// Weights is the static engagement value per event type.
var Weights = map[string]int{
	PageView:             5,
	Scroll25:             2,
	Scroll50:             3,
	Scroll75:             5,
	Scroll100:            7,
	TimeOnPage30s:        3,
	TimeOnPage60s:        5,
	TimeOnPage120s:       10,
	LinkClick:            2,
	CodeBlockCopy:        10,
	ToolUsed:             15,
	CalculationPerformed: 20,
	EmailProvided:        30,
	CompanyInfoProvided:  25,
	BookingInitiated:     50,
}

// Weight returns the score contribution of an event type, zero for unknown.
func Weight(eventType string) int {
	return Weights[eventType]
}

// IsBookingLink reports whether a link href signals booking intent.
// Clicks on these links score as bookingInitiated instead of linkClick.
func IsBookingLink(href string) bool {
	return strings.Contains(href, "/contact") ||
		strings.Contains(href, "book") ||
		strings.Contains(href, "consultation")
}

// Engagement levels in ascending order.
const (
	LevelCold      = "cold"
	LevelWarm      = "warm"
	LevelHot       = "hot"
	LevelQualified = "qualified"
)

// Level thresholds. ColdFloor marks where a score becomes meaningful but
// does not produce its own level transition; 0-99 is still cold.
const (
	ColdFloor               = 100
	LevelWarmThreshold      = 1000
	LevelHotThreshold       = 2500
	LevelQualifiedThreshold = 5000
)

// LevelForScore maps a cumulative score to its engagement level.
func LevelForScore(score int) string {
	switch {
	case score >= LevelQualifiedThreshold:
		return LevelQualified
	case score >= LevelHotThreshold:
		return LevelHot
	case score >= LevelWarmThreshold:
		return LevelWarm
	default:
		return LevelCold
	}
}

// LevelRank orders levels for comparisons; unknown levels rank lowest.
func LevelRank(level string) int {
	switch level {
	case LevelQualified:
		return 3
	case LevelHot:
		return 2
	case LevelWarm:
		return 1
	default:
		return 0
	}
}

// LevelToast is the celebration surfaced once when a level is first reached.
type LevelToast struct {
	Message string `json:"message"`
	Link    string `json:"link,omitempty"`
}

// LevelToasts maps each level to its one-time transition toast. The cold
// entry is unreachable through normal transitions (cold never differs from
// a previous cold level) but is kept in the table for parity with the
// suggestion surface.
var LevelToasts = map[string]LevelToast{
	LevelCold: {
		Message: "Getting warmer! Check out: Why Productize Your Services",
		Link:    "/services/why-productize",
	},
	LevelWarm: {
		Message: "Curious about these toasts? See How I'm Tracking You Right Now",
		Link:    "/case-studies/lead-qualifier",
	},
	LevelHot: {
		Message: "Things are heating up! Ready for: Our Discovery Process?",
		Link:    "/approach/discovery-process",
	},
	LevelQualified: {
		Message: "You're qualified! Let's talk: Book Your Consultation",
		Link:    "/contact/book-consultation",
	},
}
