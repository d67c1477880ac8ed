package window

import (
	"fmt"
	"time"
)

// State is the lifecycle state of a contest window. Transitions only move
// forward: upcoming -> active -> completed.
type State string

const (
	StateUpcoming  State = "upcoming"
	StateActive    State = "active"
	StateCompleted State = "completed"
)

// MaxWinners is the largest winner list a window may carry.
const MaxWinners = 3

// ContestWindow is one recurring weekly competition period. Timestamps are
// stored in UTC and the interval is half-open: [StartsAt, EndsAt).
type ContestWindow struct {
	PeriodKey string
	StartsAt  time.Time
	EndsAt    time.Time
	State     State

	StandardSubmissions int
	PremiumSubmissions  int

	TotalVotes        int
	TotalParticipants int

	// WinnerEntryIDs is ordered by rank and written exactly once, at
	// completion. Empty until then.
	WinnerEntryIDs []string
}

func (w ContestWindow) Validate() error {
	if w.PeriodKey == "" {
		return fmt.Errorf("window period key is required")
	}
	if w.StartsAt.IsZero() || w.EndsAt.IsZero() {
		return fmt.Errorf("window boundaries are required")
	}
	if !w.StartsAt.Before(w.EndsAt) {
		return fmt.Errorf("window start must be before end")
	}
	switch w.State {
	case StateUpcoming, StateActive, StateCompleted:
	default:
		return fmt.Errorf("invalid window state %q", w.State)
	}
	if len(w.WinnerEntryIDs) > MaxWinners {
		return fmt.Errorf("window carries %d winners, max is %d", len(w.WinnerEntryIDs), MaxWinners)
	}
	return nil
}

// Contains reports whether t falls inside the half-open window interval.
func (w ContestWindow) Contains(t time.Time) bool {
	return !t.Before(w.StartsAt) && t.Before(w.EndsAt)
}

// Terminal reports whether the window can no longer transition.
func (w ContestWindow) Terminal() bool {
	return w.State == StateCompleted
}

// CanTransitionTo enforces forward-only state movement.
func (w ContestWindow) CanTransitionTo(next State) bool {
	switch w.State {
	case StateUpcoming:
		return next == StateActive
	case StateActive:
		return next == StateCompleted
	default:
		return false
	}
}
