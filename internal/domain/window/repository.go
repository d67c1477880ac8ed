package window

import "context"

// Repository describes contest-window persistence needs from use cases.
// Every write is conditional on current state so overlapping scheduler
// invocations cannot duplicate windows or move state backwards.
type Repository interface {
	// CreateIfAbsent inserts the window unless one with the same period key
	// already exists. Returns true when a row was created.
	CreateIfAbsent(ctx context.Context, w ContestWindow) (bool, error)

	GetByKey(ctx context.Context, periodKey string) (ContestWindow, bool, error)

	// ListNonTerminal returns upcoming and active windows ordered by start.
	ListNonTerminal(ctx context.Context) ([]ContestWindow, error)

	// MarkActive transitions upcoming -> active. Returns false when the
	// window was not in the upcoming state (already advanced by a
	// concurrent invocation).
	MarkActive(ctx context.Context, periodKey string) (bool, error)

	// CompleteWithWinners transitions the window to completed and records
	// the ordered winner list and denormalized totals in one conditional
	// write guarded on the window not yet being completed. Returns false
	// when the guard failed.
	CompleteWithWinners(ctx context.Context, periodKey string, winnerEntryIDs []string, totalVotes, totalParticipants int) (bool, error)
}
