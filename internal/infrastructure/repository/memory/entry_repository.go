package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/SashaDiz/directoryhunt-sub001/internal/domain/entry"
)

type EntryRepository struct {
	mu    sync.RWMutex
	items map[string]entry.Entry
}

func NewEntryRepository(entries []entry.Entry) *EntryRepository {
	items := make(map[string]entry.Entry, len(entries))
	for _, e := range entries {
		items[e.ID] = e
	}
	return &EntryRepository{items: items}
}

func (r *EntryRepository) GetByID(_ context.Context, entryID string) (entry.Entry, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.items[entryID]
	if !ok {
		return entry.Entry{}, false, nil
	}
	return e, true, nil
}

func (r *EntryRepository) ListLiveByWindow(_ context.Context, windowKey string) ([]entry.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]entry.Entry, 0)
	for _, e := range r.items {
		if e.WindowKey != windowKey || e.Status != entry.StatusLive {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].VoteCount != out[j].VoteCount {
			return out[i].VoteCount > out[j].VoteCount
		}
		if out[i].IsPremium() != out[j].IsPremium() {
			return out[i].IsPremium()
		}
		return out[i].SubmittedAt.Before(out[j].SubmittedAt)
	})
	return out, nil
}

func (r *EntryRepository) PublishScheduled(_ context.Context, windowKey string, at time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for id, e := range r.items {
		if e.WindowKey != windowKey || e.Status != entry.StatusScheduled {
			continue
		}
		e.Status = entry.StatusLive
		publishedAt := at.UTC()
		e.PublishedAt = &publishedAt
		r.items[id] = e
		count++
	}
	return count, nil
}

func (r *EntryRepository) AwardWinner(_ context.Context, entryID string, rank int, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.items[entryID]
	if !ok || e.WinnerRank != nil {
		return false, nil
	}
	awardedAt := at.UTC()
	e.WinnerRank = &rank
	e.WinnerReason = entry.WinnerReasonContest
	e.WinnerAwardedAt = &awardedAt
	e.LinkPolicy = entry.PolicyIndexable
	e.Featured = true
	r.items[entryID] = e
	return true, nil
}

func (r *EntryRepository) ClearFeatured(_ context.Context, windowKey string, keepIDs []string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for id, e := range r.items {
		if e.WindowKey != windowKey || !e.Featured {
			continue
		}
		if slices.Contains(keepIDs, id) {
			continue
		}
		e.Featured = false
		r.items[id] = e
		count++
	}
	return count, nil
}

func (r *EntryRepository) SetLinkPolicy(_ context.Context, entryID string, policy entry.LinkPolicy) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.items[entryID]
	if !ok {
		return nil
	}
	e.LinkPolicy = policy
	r.items[entryID] = e
	return nil
}

func (r *EntryRepository) SetVoteCount(_ context.Context, entryID string, count int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.items[entryID]
	if !ok {
		return nil
	}
	e.VoteCount = count
	r.items[entryID] = e
	return nil
}
