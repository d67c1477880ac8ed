package window

import (
	"fmt"
	"time"
)

// Schedule describes the recurring weekly boundary contest windows are
// anchored to: the same weekday and hour every week, expressed in a
// reference timezone and converted to UTC before storage so state
// comparisons never depend on the caller's timezone.
type Schedule struct {
	weekday time.Weekday
	hour    int
	loc     *time.Location
}

func NewSchedule(weekday time.Weekday, hour int, loc *time.Location) (Schedule, error) {
	if hour < 0 || hour > 23 {
		return Schedule{}, fmt.Errorf("anchor hour %d out of range [0,23]", hour)
	}
	if loc == nil {
		loc = time.UTC
	}
	return Schedule{weekday: weekday, hour: hour, loc: loc}, nil
}

func DefaultSchedule() Schedule {
	// Monday 08:00 UTC.
	return Schedule{weekday: time.Monday, hour: 8, loc: time.UTC}
}

// PeriodStart returns the UTC start of the period containing now: the most
// recent anchor instant at or before now. The current period is always
// included, even when now is past its start, so a generator running
// mid-period never skips the week in progress.
func (s Schedule) PeriodStart(now time.Time) time.Time {
	local := now.In(s.loc)
	anchor := time.Date(local.Year(), local.Month(), local.Day(), s.hour, 0, 0, 0, s.loc)
	daysBack := (int(local.Weekday()) - int(s.weekday) + 7) % 7
	anchor = anchor.AddDate(0, 0, -daysBack)
	if anchor.After(local) {
		anchor = anchor.AddDate(0, 0, -7)
	}
	return anchor.UTC()
}

// PeriodEnd returns the UTC end of the period starting at startUTC. The
// arithmetic runs in the reference timezone so a DST shift inside the week
// still lands the end on the next anchor instant.
func (s Schedule) PeriodEnd(startUTC time.Time) time.Time {
	return startUTC.In(s.loc).AddDate(0, 0, 7).UTC()
}

// PeriodKey derives the canonical identifier of the period starting at
// startUTC: the ISO year and ISO week number of the start, e.g. "2024-W01".
func PeriodKey(startUTC time.Time) string {
	year, week := startUTC.UTC().ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// Horizon computes the next n periods starting with the one containing now.
// All returned windows are Upcoming; callers decide what state they should
// really be in.
func (s Schedule) Horizon(now time.Time, n int) []ContestWindow {
	if n <= 0 {
		return nil
	}
	out := make([]ContestWindow, 0, n)
	start := s.PeriodStart(now)
	for i := 0; i < n; i++ {
		end := s.PeriodEnd(start)
		out = append(out, ContestWindow{
			PeriodKey: PeriodKey(start),
			StartsAt:  start,
			EndsAt:    end,
			State:     StateUpcoming,
		})
		start = end
	}
	return out
}
