package entry

import (
	"context"
	"time"
)

// Repository describes entry persistence needs from use cases. Bulk writes
// are conditional on prior status so they stay safe to re-run under
// overlapping scheduler invocations.
type Repository interface {
	GetByID(ctx context.Context, entryID string) (Entry, bool, error)

	// ListLiveByWindow returns live entries competing in the window,
	// ordered by vote count desc, premium tier first, submission time asc.
	ListLiveByWindow(ctx context.Context, windowKey string) ([]Entry, error)

	// PublishScheduled flips scheduled entries of the window to live with
	// the given publish timestamp. The status predicate excludes entries
	// that are already live, so re-running is a no-op. Returns the number
	// of entries published.
	PublishScheduled(ctx context.Context, windowKey string, at time.Time) (int, error)

	// AwardWinner records the rank, the award timestamp, the qualifying
	// reason, and the indexable link policy for a winner. Guarded on the
	// rank not being set yet; returns false when the entry was already
	// ranked.
	AwardWinner(ctx context.Context, entryID string, rank int, at time.Time) (bool, error)

	// ClearFeatured drops the featured display flag for entries of the
	// window not present in keepIDs. Link policy is left untouched.
	ClearFeatured(ctx context.Context, windowKey string, keepIDs []string) (int, error)

	// SetLinkPolicy writes a recomputed link policy.
	SetLinkPolicy(ctx context.Context, entryID string, policy LinkPolicy) error

	// SetVoteCount repairs the derived vote counter after a recount.
	SetVoteCount(ctx context.Context, entryID string, count int) error
}
