package entry

import (
	"fmt"
	"time"
)

// Status is the moderation/lifecycle status of a submitted app. Moderation
// owns most transitions; this subsystem only performs the scheduled -> live
// edge at window activation.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPending   Status = "pending"
	StatusScheduled Status = "scheduled"
	StatusLive      Status = "live"
	StatusRejected  Status = "rejected"
	StatusArchived  Status = "archived"
)

type PlanTier string

const (
	TierStandard PlanTier = "standard"
	TierPremium  PlanTier = "premium"
)

// LinkPolicy controls whether the entry's outbound link is search-indexable.
type LinkPolicy string

const (
	PolicyIndexable    LinkPolicy = "indexable"
	PolicyNonIndexable LinkPolicy = "nonindexable"
)

// WinnerReasonContest tags rank awards made by window completion.
const WinnerReasonContest = "contest_winner"

// Entry is a submitted app competing in a contest window.
type Entry struct {
	ID       string
	OwnerID  string
	Name     string
	Status   Status
	PlanTier PlanTier

	// VoteCount is a derived cache of the vote ledger; the ledger is the
	// source of truth.
	VoteCount int

	LinkPolicy LinkPolicy
	// LinkPolicyOverride is set by operators; nil means no override.
	LinkPolicyOverride *LinkPolicy

	// WinnerRank is 1..3, written at most once per window and never cleared
	// by automated processes.
	WinnerRank      *int
	WinnerReason    string
	WinnerAwardedAt *time.Time

	Featured bool

	WindowKey   string
	SubmittedAt time.Time
	PublishedAt *time.Time
}

func (e Entry) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("entry id is required")
	}
	if e.OwnerID == "" {
		return fmt.Errorf("entry owner is required")
	}
	if e.Name == "" {
		return fmt.Errorf("entry name is required")
	}
	switch e.Status {
	case StatusDraft, StatusPending, StatusScheduled, StatusLive, StatusRejected, StatusArchived:
	default:
		return fmt.Errorf("invalid entry status %q", e.Status)
	}
	switch e.PlanTier {
	case TierStandard, TierPremium:
	default:
		return fmt.Errorf("invalid entry plan tier %q", e.PlanTier)
	}
	if e.WinnerRank != nil && (*e.WinnerRank < 1 || *e.WinnerRank > 3) {
		return fmt.Errorf("winner rank %d out of range [1,3]", *e.WinnerRank)
	}
	return nil
}

// IsPremium reports whether the entry is on the premium plan tier.
func (e Entry) IsPremium() bool {
	return e.PlanTier == TierPremium
}

// EverWon reports whether the entry has ever been awarded a contest rank.
func (e Entry) EverWon() bool {
	return e.WinnerRank != nil
}
