package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelForScoreBoundaries(t *testing.T) {
	cases := []struct {
		score int
		level string
	}{
		{0, LevelCold},
		{999, LevelCold},
		{1000, LevelWarm},
		{2499, LevelWarm},
		{2500, LevelHot},
		{4999, LevelHot},
		{5000, LevelQualified},
		{100000, LevelQualified},
	}
	for _, c := range cases {
		assert.Equal(t, c.level, LevelForScore(c.score), "score %d", c.score)
	}
}

func TestWeightUnknownEventIsZero(t *testing.T) {
	assert.Equal(t, 0, Weight("never_heard_of_it"))
	assert.Equal(t, 5, Weight(PageView))
	assert.Equal(t, 50, Weight(BookingInitiated))
}

func TestIsBookingLink(t *testing.T) {
	booking := []string{
		"/contact/book-consultation",
		"/contact",
		"https://cal.example.com/book-a-call",
		"/services/free-consultation",
	}
	for _, href := range booking {
		assert.True(t, IsBookingLink(href), "href %s", href)
	}

	plain := []string{
		"/articles/go-tips",
		"/pricing",
		"https://example.com/docs",
	}
	for _, href := range plain {
		assert.False(t, IsBookingLink(href), "href %s", href)
	}
}

func TestLevelRankOrdering(t *testing.T) {
	assert.Less(t, LevelRank(LevelCold), LevelRank(LevelWarm))
	assert.Less(t, LevelRank(LevelWarm), LevelRank(LevelHot))
	assert.Less(t, LevelRank(LevelHot), LevelRank(LevelQualified))
}

func TestEveryLevelHasAToast(t *testing.T) {
	for _, level := range []string{LevelCold, LevelWarm, LevelHot, LevelQualified} {
		toast, ok := LevelToasts[level]
		assert.True(t, ok, "missing toast for %s", level)
		assert.NotEmpty(t, toast.Message)
		assert.NotEmpty(t, toast.Link)
	}
}
