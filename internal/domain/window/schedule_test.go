package window

import (
	"testing"
	"time"
)

func TestPeriodStart_MidWeek(t *testing.T) {
	t.Parallel()

	s := DefaultSchedule()
	now := time.Date(2024, 1, 3, 15, 30, 0, 0, time.UTC)

	got := s.PeriodStart(now)
	want := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("unexpected period start: got=%s want=%s", got, want)
	}
}

func TestPeriodStart_ExactAnchorIsIncluded(t *testing.T) {
	t.Parallel()

	s := DefaultSchedule()
	anchor := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)

	got := s.PeriodStart(anchor)
	if !got.Equal(anchor) {
		t.Fatalf("anchor instant must start its own period: got=%s", got)
	}
}

func TestPeriodStart_BeforeAnchorFallsIntoPreviousWeek(t *testing.T) {
	t.Parallel()

	s := DefaultSchedule()
	now := time.Date(2024, 1, 1, 7, 59, 0, 0, time.UTC)

	got := s.PeriodStart(now)
	want := time.Date(2023, 12, 25, 8, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("unexpected period start: got=%s want=%s", got, want)
	}
}

func TestPeriodEnd_DSTShiftLandsOnLocalAnchor(t *testing.T) {
	t.Parallel()

	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	s, err := NewSchedule(time.Monday, 8, loc)
	if err != nil {
		t.Fatalf("new schedule: %v", err)
	}

	// The week of 2024-03-04 contains the US spring-forward shift, so the
	// period is an hour shorter in absolute terms but still ends on the
	// local Monday 08:00 anchor.
	start := s.PeriodStart(time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC))
	wantStart := time.Date(2024, 3, 4, 13, 0, 0, 0, time.UTC)
	if !start.Equal(wantStart) {
		t.Fatalf("unexpected period start: got=%s want=%s", start, wantStart)
	}

	end := s.PeriodEnd(start)
	wantEnd := time.Date(2024, 3, 11, 12, 0, 0, 0, time.UTC)
	if !end.Equal(wantEnd) {
		t.Fatalf("unexpected period end: got=%s want=%s", end, wantEnd)
	}
}

func TestPeriodKey_ISOWeek(t *testing.T) {
	t.Parallel()

	tests := []struct {
		start time.Time
		want  string
	}{
		{time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC), "2024-W01"},
		{time.Date(2024, 1, 8, 8, 0, 0, 0, time.UTC), "2024-W02"},
		{time.Date(2023, 12, 25, 8, 0, 0, 0, time.UTC), "2023-W52"},
		// ISO week 1 of 2025 starts on 2024-12-30.
		{time.Date(2024, 12, 30, 8, 0, 0, 0, time.UTC), "2025-W01"},
	}
	for _, tt := range tests {
		if got := PeriodKey(tt.start); got != tt.want {
			t.Fatalf("PeriodKey(%s)=%s want=%s", tt.start, got, tt.want)
		}
	}
}

func TestHorizon_ContiguousWindows(t *testing.T) {
	t.Parallel()

	s := DefaultSchedule()
	now := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)

	windows := s.Horizon(now, 4)
	if len(windows) != 4 {
		t.Fatalf("expected 4 windows, got %d", len(windows))
	}
	if windows[0].PeriodKey != "2024-W01" {
		t.Fatalf("first window must cover the period in progress, got %s", windows[0].PeriodKey)
	}
	for i, w := range windows {
		if err := w.Validate(); err != nil {
			t.Fatalf("window %d invalid: %v", i, err)
		}
		if w.State != StateUpcoming {
			t.Fatalf("generated windows must be upcoming, got %s", w.State)
		}
		if i > 0 && !w.StartsAt.Equal(windows[i-1].EndsAt) {
			t.Fatalf("gap between windows %d and %d: %s != %s", i-1, i, windows[i-1].EndsAt, w.StartsAt)
		}
	}
}

func TestCanTransitionTo_ForwardOnly(t *testing.T) {
	t.Parallel()

	upcoming := ContestWindow{State: StateUpcoming}
	active := ContestWindow{State: StateActive}
	completed := ContestWindow{State: StateCompleted}

	if !upcoming.CanTransitionTo(StateActive) {
		t.Fatalf("upcoming -> active must be allowed")
	}
	if upcoming.CanTransitionTo(StateCompleted) {
		t.Fatalf("upcoming -> completed must be rejected")
	}
	if !active.CanTransitionTo(StateCompleted) {
		t.Fatalf("active -> completed must be allowed")
	}
	if active.CanTransitionTo(StateUpcoming) {
		t.Fatalf("active -> upcoming must be rejected")
	}
	if completed.CanTransitionTo(StateActive) || completed.CanTransitionTo(StateUpcoming) {
		t.Fatalf("completed is terminal")
	}
}

func TestContains_HalfOpenInterval(t *testing.T) {
	t.Parallel()

	w := ContestWindow{
		StartsAt: time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC),
		EndsAt:   time.Date(2024, 1, 8, 8, 0, 0, 0, time.UTC),
	}

	if !w.Contains(w.StartsAt) {
		t.Fatalf("start boundary belongs to the window")
	}
	if w.Contains(w.EndsAt) {
		t.Fatalf("end boundary belongs to the next window")
	}
}
