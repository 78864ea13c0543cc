// Package streak computes consecutive-day streaks and comebacks from checkins.
package streak

import (
	"slices"
	"time"

	"github.com/radurbae/onepercent/internal/model"
	"github.com/radurbae/onepercent/internal/pkg/clock"
)

// Current counts consecutive calendar days with a done checkin, ending today
// or yesterday. Several checkins on one day count once. Dates must be
// calendar days as produced by clock.Day.
func Current(checkins []model.Checkin, today time.Time) int {
	var days []time.Time
	for _, c := range checkins {
		if c.Status == model.CheckinDone {
			days = append(days, c.Date)
		}
	}
	if len(days) == 0 {
		return 0
	}

	slices.SortFunc(days, func(a, b time.Time) int { return b.Compare(a) })
	days = slices.CompactFunc(days, func(a, b time.Time) bool { return a.Equal(b) })

	if gap := clock.DaysBetween(days[0], today); gap > 1 || gap < 0 {
		return 0
	}

	streak := 1
	for i := 1; i < len(days); i++ {
		if clock.DaysBetween(days[i], days[i-1]) > 1 {
			break
		}
		streak++
	}
	return streak
}

// Comebacks counts transitions from a skipped checkin to a done checkin in
// date order.
func Comebacks(checkins []model.Checkin) int {
	sorted := slices.Clone(checkins)
	slices.SortStableFunc(sorted, func(a, b model.Checkin) int { return a.Date.Compare(b.Date) })

	count := 0
	for i := 1; i < len(sorted); i++ {
		if sorted[i-1].Status == model.CheckinSkipped && sorted[i].Status == model.CheckinDone {
			count++
		}
	}
	return count
}
