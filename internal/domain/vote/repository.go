package vote

import "context"

// Repository describes vote-ledger persistence needs from use cases.
//
// Cast and Retract are the serialization points for concurrent votes:
// implementations must rely on the datastore's (voter, entry) uniqueness
// constraint or an equivalent conditional write rather than in-process
// locking, because multiple API instances may run concurrently. A lost race
// re-reads current state instead of corrupting the derived counter.
type Repository interface {
	// Cast creates the vote and increments the entry's counter as one
	// atomic unit. When a vote already exists for (voterID, entryID) the
	// call is a no-op and reports the current state.
	Cast(ctx context.Context, voterID, entryID, windowKey string) (Result, error)

	// Retract deletes the vote and decrements the entry's counter as one
	// atomic unit. When no vote exists the call is a no-op and reports the
	// current state.
	Retract(ctx context.Context, voterID, entryID string) (Result, error)

	// CountByEntry recounts ledger rows for the entry (drift detection).
	CountByEntry(ctx context.Context, entryID string) (int, error)

	// CountByWindow returns the total ledger rows for a window.
	CountByWindow(ctx context.Context, windowKey string) (int, error)

	// CountVotersByWindow returns the number of distinct voters in a window.
	CountVotersByWindow(ctx context.Context, windowKey string) (int, error)
}
