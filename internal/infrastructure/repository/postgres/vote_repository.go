package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/SashaDiz/directoryhunt-sub001/internal/domain/vote"
)

// VoteRepository persists the vote ledger. The UNIQUE (voter_id,
// entry_public_id) constraint on the votes table is what serializes
// concurrent votes across API instances.
type VoteRepository struct {
	db *sqlx.DB
}

func NewVoteRepository(db *sqlx.DB) *VoteRepository {
	return &VoteRepository{db: db}
}

func (r *VoteRepository) Cast(ctx context.Context, voterID, entryID, windowKey string) (vote.Result, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return vote.Result{}, fmt.Errorf("begin tx for vote cast: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const insertQuery = `
INSERT INTO votes (voter_id, entry_public_id, window_period_key)
VALUES ($1, $2, $3)
ON CONFLICT (voter_id, entry_public_id) DO NOTHING`

	insertResult, err := tx.ExecContext(ctx, insertQuery, voterID, entryID, windowKey)
	if err != nil {
		if isUniqueViolation(err) {
			// Lost an insert race outside the ON CONFLICT arbiter; the vote
			// is present, so this cast is a no-op.
			return r.currentState(ctx, tx, entryID, true)
		}
		return vote.Result{}, fmt.Errorf("insert vote: %w", err)
	}
	inserted, err := insertResult.RowsAffected()
	if err != nil {
		return vote.Result{}, fmt.Errorf("read insert vote result: %w", err)
	}

	if inserted == 0 {
		// Already cast, repeated request. Report state without touching
		// the counter.
		return r.currentState(ctx, tx, entryID, true)
	}

	const incrementQuery = `
UPDATE entries
SET vote_count = vote_count + 1, updated_at = NOW()
WHERE public_id = $1
RETURNING vote_count`

	var newCount int
	if err := tx.GetContext(ctx, &newCount, incrementQuery, entryID); err != nil {
		return vote.Result{}, fmt.Errorf("increment vote count: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return vote.Result{}, fmt.Errorf("commit vote cast tx: %w", err)
	}
	return vote.Result{Voted: true, NewCount: newCount}, nil
}

func (r *VoteRepository) Retract(ctx context.Context, voterID, entryID string) (vote.Result, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return vote.Result{}, fmt.Errorf("begin tx for vote retract: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const deleteQuery = `
DELETE FROM votes
WHERE voter_id = $1
  AND entry_public_id = $2`

	deleteResult, err := tx.ExecContext(ctx, deleteQuery, voterID, entryID)
	if err != nil {
		return vote.Result{}, fmt.Errorf("delete vote: %w", err)
	}
	deleted, err := deleteResult.RowsAffected()
	if err != nil {
		return vote.Result{}, fmt.Errorf("read delete vote result: %w", err)
	}

	if deleted == 0 {
		// No vote to remove, repeated request. Report state without
		// touching the counter.
		return r.currentState(ctx, tx, entryID, false)
	}

	const decrementQuery = `
UPDATE entries
SET vote_count = GREATEST(vote_count - 1, 0), updated_at = NOW()
WHERE public_id = $1
RETURNING vote_count`

	var newCount int
	if err := tx.GetContext(ctx, &newCount, decrementQuery, entryID); err != nil {
		return vote.Result{}, fmt.Errorf("decrement vote count: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return vote.Result{}, fmt.Errorf("commit vote retract tx: %w", err)
	}
	return vote.Result{Voted: false, NewCount: newCount}, nil
}

func (r *VoteRepository) currentState(ctx context.Context, tx *sqlx.Tx, entryID string, voted bool) (vote.Result, error) {
	var current int
	if err := tx.GetContext(ctx, &current, `SELECT vote_count FROM entries WHERE public_id = $1`, entryID); err != nil {
		return vote.Result{}, fmt.Errorf("read current vote count: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return vote.Result{}, fmt.Errorf("commit vote tx: %w", err)
	}
	return vote.Result{Voted: voted, NewCount: current}, nil
}

func (r *VoteRepository) CountByEntry(ctx context.Context, entryID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM votes WHERE entry_public_id = $1`, entryID); err != nil {
		return 0, fmt.Errorf("count votes by entry: %w", err)
	}
	return count, nil
}

func (r *VoteRepository) CountByWindow(ctx context.Context, windowKey string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM votes WHERE window_period_key = $1`, windowKey); err != nil {
		return 0, fmt.Errorf("count votes by window: %w", err)
	}
	return count, nil
}

func (r *VoteRepository) CountVotersByWindow(ctx context.Context, windowKey string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(DISTINCT voter_id) FROM votes WHERE window_period_key = $1`, windowKey); err != nil {
		return 0, fmt.Errorf("count voters by window: %w", err)
	}
	return count, nil
}
