package cache

import (
	"context"
	"time"

	"github.com/SashaDiz/directoryhunt-sub001/internal/domain/entry"
	"github.com/SashaDiz/directoryhunt-sub001/internal/domain/window"
	basecache "github.com/SashaDiz/directoryhunt-sub001/internal/platform/cache"
)

// WindowRepository is a read-through cache over window persistence. Reads
// dominate on the public window endpoints; every lifecycle write invalidates
// the affected keys so state transitions are visible immediately.
type WindowRepository struct {
	next  window.Repository
	cache *basecache.Store
}

func NewWindowRepository(next window.Repository, cache *basecache.Store) *WindowRepository {
	return &WindowRepository{next: next, cache: cache}
}

func (r *WindowRepository) CreateIfAbsent(ctx context.Context, w window.ContestWindow) (bool, error) {
	created, err := r.next.CreateIfAbsent(ctx, w)
	if err != nil {
		return false, err
	}
	if created {
		r.cache.Delete(ctx, windowKey(w.PeriodKey))
		r.cache.Delete(ctx, windowNonTerminalKey)
	}
	return created, nil
}

func (r *WindowRepository) GetByKey(ctx context.Context, periodKey string) (window.ContestWindow, bool, error) {
	v, err := r.cache.GetOrLoad(ctx, windowKey(periodKey), func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetByKey(ctx, periodKey)
		if err != nil {
			return nil, err
		}
		return cachedWindowByKey{value: item, exists: exists}, nil
	})
	if err != nil {
		return window.ContestWindow{}, false, err
	}

	cached, _ := v.(cachedWindowByKey)
	return cached.value, cached.exists, nil
}

func (r *WindowRepository) ListNonTerminal(ctx context.Context) ([]window.ContestWindow, error) {
	v, err := r.cache.GetOrLoad(ctx, windowNonTerminalKey, func(ctx context.Context) (any, error) {
		items, err := r.next.ListNonTerminal(ctx)
		if err != nil {
			return nil, err
		}
		return append([]window.ContestWindow(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]window.ContestWindow)
	return append([]window.ContestWindow(nil), items...), nil
}

func (r *WindowRepository) MarkActive(ctx context.Context, periodKey string) (bool, error) {
	moved, err := r.next.MarkActive(ctx, periodKey)
	if err != nil {
		return false, err
	}
	r.cache.Delete(ctx, windowKey(periodKey))
	r.cache.Delete(ctx, windowNonTerminalKey)
	return moved, nil
}

func (r *WindowRepository) CompleteWithWinners(ctx context.Context, periodKey string, winnerEntryIDs []string, totalVotes, totalParticipants int) (bool, error) {
	moved, err := r.next.CompleteWithWinners(ctx, periodKey, winnerEntryIDs, totalVotes, totalParticipants)
	if err != nil {
		return false, err
	}
	r.cache.Delete(ctx, windowKey(periodKey))
	r.cache.Delete(ctx, windowNonTerminalKey)
	return moved, nil
}

type cachedWindowByKey struct {
	value  window.ContestWindow
	exists bool
}

const windowNonTerminalKey = "window:non-terminal"

func windowKey(periodKey string) string {
	return "window:key:" + periodKey
}

// EntryRepository caches the leaderboard read only. Single-entry reads back
// the vote path and must stay fresh, and the write methods carry lifecycle
// semantics, so they all pass through with targeted invalidation.
type EntryRepository struct {
	next  entry.Repository
	cache *basecache.Store
}

func NewEntryRepository(next entry.Repository, cache *basecache.Store) *EntryRepository {
	return &EntryRepository{next: next, cache: cache}
}

func (r *EntryRepository) GetByID(ctx context.Context, entryID string) (entry.Entry, bool, error) {
	return r.next.GetByID(ctx, entryID)
}

func (r *EntryRepository) ListLiveByWindow(ctx context.Context, windowKey string) ([]entry.Entry, error) {
	v, err := r.cache.GetOrLoad(ctx, leaderboardKey(windowKey), func(ctx context.Context) (any, error) {
		items, err := r.next.ListLiveByWindow(ctx, windowKey)
		if err != nil {
			return nil, err
		}
		return append([]entry.Entry(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]entry.Entry)
	return append([]entry.Entry(nil), items...), nil
}

func (r *EntryRepository) PublishScheduled(ctx context.Context, windowKey string, at time.Time) (int, error) {
	count, err := r.next.PublishScheduled(ctx, windowKey, at)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		r.cache.Delete(ctx, leaderboardKey(windowKey))
	}
	return count, nil
}

func (r *EntryRepository) AwardWinner(ctx context.Context, entryID string, rank int, at time.Time) (bool, error) {
	awarded, err := r.next.AwardWinner(ctx, entryID, rank, at)
	if err != nil {
		return false, err
	}
	if awarded {
		r.cache.DeletePrefix(ctx, leaderboardPrefix)
	}
	return awarded, nil
}

func (r *EntryRepository) ClearFeatured(ctx context.Context, windowKey string, keepIDs []string) (int, error) {
	count, err := r.next.ClearFeatured(ctx, windowKey, keepIDs)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		r.cache.Delete(ctx, leaderboardKey(windowKey))
	}
	return count, nil
}

func (r *EntryRepository) SetLinkPolicy(ctx context.Context, entryID string, policy entry.LinkPolicy) error {
	if err := r.next.SetLinkPolicy(ctx, entryID, policy); err != nil {
		return err
	}
	r.cache.DeletePrefix(ctx, leaderboardPrefix)
	return nil
}

func (r *EntryRepository) SetVoteCount(ctx context.Context, entryID string, count int) error {
	if err := r.next.SetVoteCount(ctx, entryID, count); err != nil {
		return err
	}
	r.cache.DeletePrefix(ctx, leaderboardPrefix)
	return nil
}

const leaderboardPrefix = "entry:leaderboard:"

func leaderboardKey(windowKey string) string {
	return leaderboardPrefix + windowKey
}
