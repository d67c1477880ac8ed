package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/SashaDiz/directoryhunt-sub001/internal/domain/entry"
	"github.com/SashaDiz/directoryhunt-sub001/internal/domain/window"
	"github.com/SashaDiz/directoryhunt-sub001/internal/platform/logging"
)

// WindowService generates contest windows ahead of need on a rolling
// horizon and answers window read queries. Generation is idempotent: the
// conditional insert on the period key means any number of invocations with
// the same horizon produce no duplicate windows.
type WindowService struct {
	windowRepo window.Repository
	entryRepo  entry.Repository
	schedule   window.Schedule
	logger     *logging.Logger
	now        func() time.Time
}

func NewWindowService(windowRepo window.Repository, entryRepo entry.Repository, schedule window.Schedule, logger *logging.Logger) *WindowService {
	if logger == nil {
		logger = logging.Default()
	}
	return &WindowService{
		windowRepo: windowRepo,
		entryRepo:  entryRepo,
		schedule:   schedule,
		logger:     logger,
		now:        time.Now,
	}
}

// EnsureWindows creates a record for each of the next horizon periods,
// including the period in progress, and returns the windows actually
// created this call.
func (s *WindowService) EnsureWindows(ctx context.Context, horizon int) ([]window.ContestWindow, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.WindowService.EnsureWindows")
	defer span.End()

	if horizon <= 0 {
		return nil, fmt.Errorf("%w: horizon must be > 0", ErrInvalidInput)
	}

	now := s.now().UTC()
	created := make([]window.ContestWindow, 0, horizon)
	for _, w := range s.schedule.Horizon(now, horizon) {
		if err := w.Validate(); err != nil {
			return created, fmt.Errorf("validate generated window %s: %w", w.PeriodKey, err)
		}
		inserted, err := s.windowRepo.CreateIfAbsent(ctx, w)
		if err != nil {
			return created, fmt.Errorf("ensure window %s: %w", w.PeriodKey, err)
		}
		if inserted {
			s.logger.InfoContext(ctx, "contest window created",
				"period_key", w.PeriodKey,
				"starts_at", w.StartsAt,
				"ends_at", w.EndsAt,
			)
			created = append(created, w)
		}
	}

	return created, nil
}

// Current returns the window whose period covers the present instant.
func (s *WindowService) Current(ctx context.Context) (window.ContestWindow, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.WindowService.Current")
	defer span.End()

	now := s.now().UTC()
	key := window.PeriodKey(s.schedule.PeriodStart(now))
	w, found, err := s.windowRepo.GetByKey(ctx, key)
	if err != nil {
		return window.ContestWindow{}, fmt.Errorf("load current window %s: %w", key, err)
	}
	if !found {
		return window.ContestWindow{}, fmt.Errorf("%w: window %s", ErrNotFound, key)
	}
	return w, nil
}

// GetByKey returns the window with the given period key.
func (s *WindowService) GetByKey(ctx context.Context, periodKey string) (window.ContestWindow, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.WindowService.GetByKey")
	defer span.End()

	if periodKey == "" {
		return window.ContestWindow{}, fmt.Errorf("%w: period key is required", ErrInvalidInput)
	}
	w, found, err := s.windowRepo.GetByKey(ctx, periodKey)
	if err != nil {
		return window.ContestWindow{}, fmt.Errorf("load window %s: %w", periodKey, err)
	}
	if !found {
		return window.ContestWindow{}, fmt.Errorf("%w: window %s", ErrNotFound, periodKey)
	}
	return w, nil
}

// Leaderboard returns the window's live entries in current standing order.
// For a completed window this is the final standing; winner ranks are
// already materialized on the entries.
func (s *WindowService) Leaderboard(ctx context.Context, periodKey string) (window.ContestWindow, []entry.Entry, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.WindowService.Leaderboard")
	defer span.End()

	w, err := s.GetByKey(ctx, periodKey)
	if err != nil {
		return window.ContestWindow{}, nil, err
	}
	items, err := s.entryRepo.ListLiveByWindow(ctx, periodKey)
	if err != nil {
		return window.ContestWindow{}, nil, fmt.Errorf("load leaderboard for window %s: %w", periodKey, err)
	}
	RankEntries(items)
	return w, items, nil
}
