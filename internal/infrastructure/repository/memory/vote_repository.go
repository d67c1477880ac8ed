package memory

import (
	"context"
	"sync"
	"time"

	"github.com/SashaDiz/directoryhunt-sub001/internal/domain/vote"
)

type voteKey struct {
	voterID string
	entryID string
}

// VoteRepository keeps the ledger in memory. A single mutex plays the role
// the datastore uniqueness constraint plays in the postgres implementation.
type VoteRepository struct {
	mu      sync.Mutex
	items   map[voteKey]vote.Vote
	entries *EntryRepository
	now     func() time.Time
}

func NewVoteRepository(entries *EntryRepository) *VoteRepository {
	return &VoteRepository{
		items:   make(map[voteKey]vote.Vote),
		entries: entries,
		now:     time.Now,
	}
}

func (r *VoteRepository) Cast(ctx context.Context, voterID, entryID, windowKey string) (vote.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count, err := r.entryCount(ctx, entryID)
	if err != nil {
		return vote.Result{}, err
	}

	key := voteKey{voterID: voterID, entryID: entryID}
	if _, exists := r.items[key]; exists {
		return vote.Result{Voted: true, NewCount: count}, nil
	}

	r.items[key] = vote.Vote{
		VoterID:   voterID,
		EntryID:   entryID,
		WindowKey: windowKey,
		CreatedAt: r.now().UTC(),
	}
	count++
	if err := r.entries.SetVoteCount(ctx, entryID, count); err != nil {
		return vote.Result{}, err
	}
	return vote.Result{Voted: true, NewCount: count}, nil
}

func (r *VoteRepository) Retract(ctx context.Context, voterID, entryID string) (vote.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count, err := r.entryCount(ctx, entryID)
	if err != nil {
		return vote.Result{}, err
	}

	key := voteKey{voterID: voterID, entryID: entryID}
	if _, exists := r.items[key]; !exists {
		return vote.Result{Voted: false, NewCount: count}, nil
	}

	delete(r.items, key)
	if count > 0 {
		count--
	}
	if err := r.entries.SetVoteCount(ctx, entryID, count); err != nil {
		return vote.Result{}, err
	}
	return vote.Result{Voted: false, NewCount: count}, nil
}

func (r *VoteRepository) entryCount(ctx context.Context, entryID string) (int, error) {
	e, ok, err := r.entries.GetByID(ctx, entryID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return e.VoteCount, nil
}

func (r *VoteRepository) CountByEntry(_ context.Context, entryID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for key := range r.items {
		if key.entryID == entryID {
			count++
		}
	}
	return count, nil
}

func (r *VoteRepository) CountByWindow(_ context.Context, windowKey string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, v := range r.items {
		if v.WindowKey == windowKey {
			count++
		}
	}
	return count, nil
}

func (r *VoteRepository) CountVotersByWindow(_ context.Context, windowKey string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	voters := make(map[string]struct{})
	for _, v := range r.items {
		if v.WindowKey == windowKey {
			voters[v.VoterID] = struct{}{}
		}
	}
	return len(voters), nil
}
