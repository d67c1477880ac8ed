package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/SashaDiz/directoryhunt-sub001/internal/domain/entry"
	"github.com/SashaDiz/directoryhunt-sub001/internal/domain/window"
	"github.com/SashaDiz/directoryhunt-sub001/internal/platform/logging"
)

// WinnerService ranks a completed window's live entries and awards the top
// N. It is idempotent while the window is not yet marked completed: rank
// writes are guarded on the rank not being set, and the ordering is fully
// deterministic, so a retried completion pass re-derives the same winners.
type WinnerService struct {
	entryRepo   entry.Repository
	winnerCount int
	logger      *logging.Logger
	now         func() time.Time
}

func NewWinnerService(entryRepo entry.Repository, winnerCount int, logger *logging.Logger) *WinnerService {
	if winnerCount <= 0 || winnerCount > window.MaxWinners {
		winnerCount = window.MaxWinners
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &WinnerService{
		entryRepo:   entryRepo,
		winnerCount: winnerCount,
		logger:      logger,
		now:         time.Now,
	}
}

// ComputeWinners returns the window's live entries in winning order,
// truncated to the configured winner count. Fewer qualifying entries mean
// fewer winners; the list is never padded.
func (s *WinnerService) ComputeWinners(ctx context.Context, w window.ContestWindow) ([]entry.Entry, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.WinnerService.ComputeWinners")
	defer span.End()

	if w.State == window.StateCompleted {
		// Expected under overlapping invocations; the idempotency guard
		// upstream makes this a no-op, not a bug.
		s.logger.WarnContext(ctx, "winner computation requested for completed window", "period_key", w.PeriodKey)
		return nil, fmt.Errorf("%w: window %s is already completed", ErrInvalidInput, w.PeriodKey)
	}

	candidates, err := s.entryRepo.ListLiveByWindow(ctx, w.PeriodKey)
	if err != nil {
		return nil, fmt.Errorf("list live entries for window %s: %w", w.PeriodKey, err)
	}

	RankEntries(candidates)
	if len(candidates) > s.winnerCount {
		candidates = candidates[:s.winnerCount]
	}
	return candidates, nil
}

// AwardWinners durably records rank, award metadata, and the indexable link
// policy for each winner, and clears the featured flag of qualifying
// non-winners. Awards commit before any notification is attempted, so a
// notification failure can never leave a winner unranked on retry.
func (s *WinnerService) AwardWinners(ctx context.Context, w window.ContestWindow, winners []entry.Entry) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.WinnerService.AwardWinners")
	defer span.End()

	awardedAt := s.now().UTC()
	keepIDs := make([]string, 0, len(winners))
	for i, item := range winners {
		rank := i + 1
		keepIDs = append(keepIDs, item.ID)

		awarded, err := s.entryRepo.AwardWinner(ctx, item.ID, rank, awardedAt)
		if err != nil {
			return fmt.Errorf("award rank %d to entry %s in window %s: %w", rank, item.ID, w.PeriodKey, err)
		}
		if !awarded {
			// Already ranked by an earlier (possibly interrupted) pass.
			s.logger.WarnContext(ctx, "entry already ranked, keeping existing award",
				"entry_id", item.ID,
				"period_key", w.PeriodKey,
				"rank", rank,
			)
			continue
		}

		item.WinnerRank = &rank
		if policy := entry.DeriveLinkPolicy(item); policy != item.LinkPolicy {
			if err := s.entryRepo.SetLinkPolicy(ctx, item.ID, policy); err != nil {
				return fmt.Errorf("set link policy for winner %s: %w", item.ID, err)
			}
		}
	}

	if _, err := s.entryRepo.ClearFeatured(ctx, w.PeriodKey, keepIDs); err != nil {
		return fmt.Errorf("clear featured flags for window %s: %w", w.PeriodKey, err)
	}
	return nil
}

// RankEntries sorts entries into winning order: vote count descending, then
// premium tier first, then earlier submission. The submission timestamp is
// the final tie break so no two full orderings are ever equal.
func RankEntries(items []entry.Entry) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].VoteCount != items[j].VoteCount {
			return items[i].VoteCount > items[j].VoteCount
		}
		if items[i].IsPremium() != items[j].IsPremium() {
			return items[i].IsPremium()
		}
		return items[i].SubmittedAt.Before(items[j].SubmittedAt)
	})
}
