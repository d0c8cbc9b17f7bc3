package profile

import (
	"fmt"
	"time"
)

// DateKey formats a moment as the calendar-day key used by the cadence maps.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// WeekIndex returns a continuous week counter anchored at the Monday of the
// Unix epoch week. Consecutive calendar weeks differ by exactly one even
// across year boundaries, which keeps streak arithmetic a plain subtraction.
func WeekIndex(t time.Time) int {
	epochMonday := time.Date(1970, 1, 5, 0, 0, 0, 0, time.UTC)
	days := int(t.Sub(epochMonday).Hours() / 24)
	if days < 0 {
		return days/7 - 1
	}
	return days / 7
}

// WeekendKey identifies one ISO-week weekend, so Saturday and Sunday of the
// same week share a dedup key.
func WeekendKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d-weekend", year, week)
}

// IsWeekend reports whether the moment falls on Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// IsVampireHour reports whether the moment falls between midnight and 6am.
func IsVampireHour(t time.Time) bool {
	return t.Hour() < 6
}

// RecordVisitCadence updates the long-horizon visit counters for a page
// load at the given moment: the per-day visit set, the weekly streak, the
// once-per-weekend counter, and the once-per-day vampire-hours counter.
func (p *VisitorProfile) RecordVisitCadence(now time.Time) {
	if p.DailyVisits == nil {
		p.DailyVisits = make(map[string]bool)
	}
	p.DailyVisits[DateKey(now)] = true

	week := WeekIndex(now)
	switch {
	case p.LastWeekVisit == nil:
		p.WeeklyStreak = 1
	case *p.LastWeekVisit == week:
		// Same week, streak unchanged.
	case *p.LastWeekVisit == week-1:
		p.WeeklyStreak++
	default:
		p.WeeklyStreak = 1
	}
	w := week
	p.LastWeekVisit = &w

	if IsWeekend(now) {
		if p.WeekendDates == nil {
			p.WeekendDates = make(map[string]bool)
		}
		key := WeekendKey(now)
		if !p.WeekendDates[key] {
			p.WeekendDates[key] = true
			p.WeekendVisits++
		}
	}

	if IsVampireHour(now) {
		if p.VampireDates == nil {
			p.VampireDates = make(map[string]bool)
		}
		key := DateKey(now)
		if !p.VampireDates[key] {
			p.VampireDates[key] = true
			p.VampireVisits++
		}
	}
}
