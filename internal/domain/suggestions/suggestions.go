// Package suggestions maps an engagement level to the next piece of content
// worth surfacing, preferring pages the visitor has not seen yet.
package suggestions

import (
	"math/rand"

	"github.com/withseismic/leadpulse-go/internal/domain/entities/profile"
	"github.com/withseismic/leadpulse-go/internal/domain/events"
)

// Suggestion is one recommendable page.
type Suggestion struct {
	Path  string `json:"path"`
	Title string `json:"title"`
}

// leadQualifier is surfaced with priority to warm visitors who have not
// found it yet.
var leadQualifier = Suggestion{
	Path:  "/case-studies/lead-qualifier",
	Title: "How I'm Scoring Your Engagement Right Now",
}

var byLevel = map[string][]Suggestion{
	events.LevelCold: {
		{Path: "/services/why-productize", Title: "Why Productize Your Services"},
		{Path: "/tool-ideas/outbound-teams", Title: "Tools for Outbound Teams"},
		{Path: "/resources/productization-guide", Title: "Productization Guide"},
		{Path: "/build/internal-tools", Title: "What We Build"},
	},
	events.LevelWarm: {
		leadQualifier,
		{Path: "/case-studies/contra-linkedin-automation", Title: "Contra's LinkedIn Automation"},
		{Path: "/case-studies/vouchernaut-programmatic-ppc", Title: "Vouchernaut's PPC System"},
	},
	events.LevelHot: {
		{Path: "/approach/discovery-process", Title: "Our Discovery Process"},
		{Path: "/pricing", Title: "Pricing & Packages"},
		{Path: "/articles/from-lovable-to-production", Title: "From Lovable to Production"},
		{Path: "/resources/assessment-framework", Title: "Assessment Framework"},
	},
	events.LevelQualified: {
		{Path: "/contact/book-consultation", Title: "Book Your Consultation"},
		{Path: "/contact/project-requirements", Title: "Project Requirements"},
		{Path: "/contact/faq", Title: "Frequently Asked Questions"},
	},
}

// broadCatalog is the fallback pool once every level suggestion is visited.
var broadCatalog = []Suggestion{
	{Path: "/articles/corner-cutters-guide-building-future", Title: "Corner Cutter's Guide to Building the Future"},
	{Path: "/articles/great-job-search-delusion", Title: "The Great Job Search Delusion"},
	{Path: "/tool-ideas/seo-teams", Title: "Tools for SEO Teams"},
	{Path: "/tool-ideas/content-teams", Title: "Tools for Content Teams"},
	{Path: "/case-studies/growthrunner-devtools", Title: "GrowthRunner's DevTools"},
	{Path: "/case-studies/snacker-ai-video-platform", Title: "Snacker's AI Video Platform"},
}

// ForProfile picks the next suggestion for a visitor at the given level.
// Unknown levels fall back to the cold table. Warm visitors who have not
// seen the lead-qualifier case study always get it first. Returns nil when
// every candidate has been visited.
func ForProfile(p *profile.VisitorProfile, level string) *Suggestion {
	pool, ok := byLevel[level]
	if !ok {
		pool = byLevel[events.LevelCold]
	}

	if level == events.LevelWarm && !p.HasVisited(leadQualifier.Path) {
		s := leadQualifier
		return &s
	}

	if s := pickUnvisited(p, pool); s != nil {
		return s
	}
	return pickUnvisited(p, broadCatalog)
}

func pickUnvisited(p *profile.VisitorProfile, pool []Suggestion) *Suggestion {
	unvisited := make([]Suggestion, 0, len(pool))
	for _, s := range pool {
		if !p.HasVisited(s.Path) {
			unvisited = append(unvisited, s)
		}
	}
	if len(unvisited) == 0 {
		return nil
	}
	s := unvisited[rand.Intn(len(unvisited))]
	return &s
}
