package vote

import (
	"fmt"
	"time"
)

// Vote is one row of the vote ledger. At most one vote exists per
// (voter, entry) pair at any time; votes are created and deleted, never
// updated in place.
type Vote struct {
	VoterID   string
	EntryID   string
	WindowKey string
	CreatedAt time.Time
}

func (v Vote) Validate() error {
	if v.VoterID == "" {
		return fmt.Errorf("vote voter id is required")
	}
	if v.EntryID == "" {
		return fmt.Errorf("vote entry id is required")
	}
	if v.WindowKey == "" {
		return fmt.Errorf("vote window key is required")
	}
	return nil
}

// Action is the direction of a vote request. Both directions are idempotent:
// repeating an upvote or a remove is a no-op, never a reversal.
type Action string

const (
	ActionUpvote Action = "upvote"
	ActionRemove Action = "remove"
)

func ParseAction(v string) (Action, error) {
	switch Action(v) {
	case ActionUpvote, ActionRemove:
		return Action(v), nil
	default:
		return "", fmt.Errorf("invalid vote action %q", v)
	}
}

// Result reports the state after a ledger operation: whether the voter now
// has a vote on the entry, and the entry's vote count after the operation.
type Result struct {
	Voted    bool
	NewCount int
}
