package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/SashaDiz/directoryhunt-sub001/internal/domain/entry"
	"github.com/SashaDiz/directoryhunt-sub001/internal/domain/user"
	"github.com/SashaDiz/directoryhunt-sub001/internal/domain/vote"
	"github.com/SashaDiz/directoryhunt-sub001/internal/domain/window"
	"github.com/SashaDiz/directoryhunt-sub001/internal/platform/logging"
)

// VoteService applies directional vote operations against the ledger.
// Preconditions are checked here; the atomicity of the ledger write itself
// lives in the repository, backed by the datastore uniqueness constraint on
// (voter, entry).
type VoteService struct {
	voteRepo   vote.Repository
	entryRepo  entry.Repository
	windowRepo window.Repository
	logger     *logging.Logger
	now        func() time.Time
}

func NewVoteService(voteRepo vote.Repository, entryRepo entry.Repository, windowRepo window.Repository, logger *logging.Logger) *VoteService {
	if logger == nil {
		logger = logging.Default()
	}
	return &VoteService{
		voteRepo:   voteRepo,
		entryRepo:  entryRepo,
		windowRepo: windowRepo,
		logger:     logger,
		now:        time.Now,
	}
}

// Apply records or removes the caller's vote for an entry. Both directions
// are idempotent: a repeated upvote or remove reports the current state and
// never reverses it. The result carries the entry's counter value after the
// operation. Rejections carry stable reason codes via RejectionReason.
func (s *VoteService) Apply(ctx context.Context, principal user.Principal, entryID string, action vote.Action) (vote.Result, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.VoteService.Apply")
	defer span.End()

	if principal.UserID == "" {
		return vote.Result{}, fmt.Errorf("%w: missing authenticated user", ErrUnauthorized)
	}
	if entryID == "" {
		return vote.Result{}, fmt.Errorf("%w: entry id is required", ErrInvalidInput)
	}
	if action != vote.ActionUpvote && action != vote.ActionRemove {
		return vote.Result{}, fmt.Errorf("%w: invalid vote action %q", ErrInvalidInput, action)
	}

	item, found, err := s.entryRepo.GetByID(ctx, entryID)
	if err != nil {
		return vote.Result{}, fmt.Errorf("load entry %s: %w", entryID, err)
	}
	if !found {
		return vote.Result{}, fmt.Errorf("%w: entry %s", ErrNotFound, entryID)
	}
	if item.Status != entry.StatusLive {
		return vote.Result{}, fmt.Errorf("%w: entry %s has status %s", ErrEntryNotLive, entryID, item.Status)
	}
	if item.WindowKey == "" {
		return vote.Result{}, fmt.Errorf("%w: entry %s", ErrNoWindow, entryID)
	}

	w, found, err := s.windowRepo.GetByKey(ctx, item.WindowKey)
	if err != nil {
		return vote.Result{}, fmt.Errorf("load window %s: %w", item.WindowKey, err)
	}
	if !found {
		return vote.Result{}, fmt.Errorf("%w: window %s does not exist", ErrNoWindow, item.WindowKey)
	}
	if w.State != window.StateActive {
		return vote.Result{}, fmt.Errorf("%w: window %s is %s", ErrWindowNotActive, w.PeriodKey, w.State)
	}

	var result vote.Result
	if action == vote.ActionUpvote {
		result, err = s.voteRepo.Cast(ctx, principal.UserID, entryID, item.WindowKey)
	} else {
		result, err = s.voteRepo.Retract(ctx, principal.UserID, entryID)
	}
	if err != nil {
		return vote.Result{}, fmt.Errorf("%s vote by %s on entry %s: %w", action, principal.UserID, entryID, err)
	}

	s.logger.InfoContext(ctx, "vote applied",
		"voter_id", principal.UserID,
		"entry_id", entryID,
		"period_key", item.WindowKey,
		"action", string(action),
		"voted", result.Voted,
		"vote_count", result.NewCount,
	)
	return result, nil
}

// Recount re-derives the entry's vote counter from the ledger and repairs it
// when drifted. Returns the authoritative count.
func (s *VoteService) Recount(ctx context.Context, entryID string) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.VoteService.Recount")
	defer span.End()

	item, found, err := s.entryRepo.GetByID(ctx, entryID)
	if err != nil {
		return 0, fmt.Errorf("load entry %s: %w", entryID, err)
	}
	if !found {
		return 0, fmt.Errorf("%w: entry %s", ErrNotFound, entryID)
	}

	actual, err := s.voteRepo.CountByEntry(ctx, entryID)
	if err != nil {
		return 0, fmt.Errorf("recount entry %s: %w", entryID, err)
	}
	if actual != item.VoteCount {
		s.logger.WarnContext(ctx, "vote counter drift repaired",
			"entry_id", entryID,
			"cached", item.VoteCount,
			"actual", actual,
		)
		if err := s.entryRepo.SetVoteCount(ctx, entryID, actual); err != nil {
			return 0, fmt.Errorf("repair vote count for entry %s: %w", entryID, err)
		}
	}
	return actual, nil
}
