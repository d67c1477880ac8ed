package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/SashaDiz/directoryhunt-sub001/internal/domain/window"
)

type WindowRepository struct {
	mu    sync.RWMutex
	items map[string]window.ContestWindow
}

func NewWindowRepository(windows []window.ContestWindow) *WindowRepository {
	items := make(map[string]window.ContestWindow, len(windows))
	for _, w := range windows {
		items[w.PeriodKey] = w
	}
	return &WindowRepository{items: items}
}

func (r *WindowRepository) CreateIfAbsent(_ context.Context, w window.ContestWindow) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[w.PeriodKey]; exists {
		return false, nil
	}
	r.items[w.PeriodKey] = w
	return true, nil
}

func (r *WindowRepository) GetByKey(_ context.Context, periodKey string) (window.ContestWindow, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	w, ok := r.items[periodKey]
	if !ok {
		return window.ContestWindow{}, false, nil
	}
	return w, true, nil
}

func (r *WindowRepository) ListNonTerminal(_ context.Context) ([]window.ContestWindow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]window.ContestWindow, 0, len(r.items))
	for _, w := range r.items {
		if w.Terminal() {
			continue
		}
		out = append(out, w)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartsAt.Before(out[j].StartsAt)
	})
	return out, nil
}

func (r *WindowRepository) MarkActive(_ context.Context, periodKey string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.items[periodKey]
	if !ok || w.State != window.StateUpcoming {
		return false, nil
	}
	w.State = window.StateActive
	r.items[periodKey] = w
	return true, nil
}

func (r *WindowRepository) CompleteWithWinners(_ context.Context, periodKey string, winnerEntryIDs []string, totalVotes, totalParticipants int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.items[periodKey]
	if !ok || w.State == window.StateCompleted {
		return false, nil
	}
	w.State = window.StateCompleted
	w.WinnerEntryIDs = append([]string(nil), winnerEntryIDs...)
	w.TotalVotes = totalVotes
	w.TotalParticipants = totalParticipants
	r.items[periodKey] = w
	return true, nil
}
