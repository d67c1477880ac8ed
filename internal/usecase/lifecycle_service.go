package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/sourcegraph/conc/pool"

	"github.com/SashaDiz/directoryhunt-sub001/internal/domain/entry"
	"github.com/SashaDiz/directoryhunt-sub001/internal/domain/vote"
	"github.com/SashaDiz/directoryhunt-sub001/internal/domain/window"
	"github.com/SashaDiz/directoryhunt-sub001/internal/platform/id"
	"github.com/SashaDiz/directoryhunt-sub001/internal/platform/logging"
)

// Notifier delivers winner announcements to an external channel. Failures
// are isolated per winner and never roll back an award.
type Notifier interface {
	NotifyWinner(ctx context.Context, w window.ContestWindow, e entry.Entry, rank int) error
}

type noopNotifier struct{}

func (noopNotifier) NotifyWinner(_ context.Context, _ window.ContestWindow, _ entry.Entry, _ int) error {
	return nil
}

func NewNoopNotifier() Notifier {
	return noopNotifier{}
}

type LifecycleConfig struct {
	// Horizon is how many periods ahead (current included) window
	// generation covers per run.
	Horizon int
	// MaxWorkers caps concurrent per-window processing. Transitions for a
	// single window always run sequentially inside one worker.
	MaxWorkers int
	// NotifyTimeout bounds the whole winner notification fan-out.
	NotifyTimeout time.Duration
}

type RunResult struct {
	RunID       string            `json:"run_id"`
	Created     int               `json:"created"`
	CreatedKeys []string          `json:"created_period_keys,omitempty"`
	Activated   int               `json:"activated"`
	Completed   int               `json:"completed"`
	Published   int               `json:"published"`
	WorkerCount int               `json:"worker_count"`
	Windows     []WindowRunResult `json:"windows"`
}

type WindowRunResult struct {
	PeriodKey  string `json:"period_key"`
	FromState  string `json:"from_state"`
	ToState    string `json:"to_state"`
	Published  int    `json:"published,omitempty"`
	Winners    int    `json:"winners,omitempty"`
	DurationMs int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// LifecycleService drives the whole contest cycle on each trigger: generate
// missing windows, activate windows whose start has passed, complete windows
// whose end has passed. Every step is idempotent so the trigger can fire on
// any cadence, overlap itself, or replay after a crash.
type LifecycleService struct {
	windowRepo window.Repository
	entryRepo  entry.Repository
	voteRepo   vote.Repository
	windowSvc  *WindowService
	winnerSvc  *WinnerService
	notifier   Notifier
	cfg        LifecycleConfig
	logger     *logging.Logger
	ids        id.Generator
	now        func() time.Time
}

func NewLifecycleService(
	windowRepo window.Repository,
	entryRepo entry.Repository,
	voteRepo vote.Repository,
	windowSvc *WindowService,
	winnerSvc *WinnerService,
	notifier Notifier,
	cfg LifecycleConfig,
	logger *logging.Logger,
) *LifecycleService {
	if notifier == nil {
		notifier = NewNoopNotifier()
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Horizon <= 0 {
		cfg.Horizon = 4
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 4
	}
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = 10 * time.Second
	}

	return &LifecycleService{
		windowRepo: windowRepo,
		entryRepo:  entryRepo,
		voteRepo:   voteRepo,
		windowSvc:  windowSvc,
		winnerSvc:  winnerSvc,
		notifier:   notifier,
		cfg:        cfg,
		logger:     logger,
		ids:        id.NewRandomGenerator(),
		now:        time.Now,
	}
}

// Run executes one full lifecycle pass. Per-window failures are recorded in
// the result rather than aborting the pass, so one broken window cannot
// stall the others.
func (s *LifecycleService) Run(ctx context.Context) (RunResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LifecycleService.Run")
	defer span.End()

	runID, err := s.ids.NewID()
	if err != nil {
		// A missing run id only hurts log correlation; the pass proceeds.
		s.logger.WarnContext(ctx, "generate lifecycle run id", "error", err)
	}
	s.logger.InfoContext(ctx, "lifecycle run started", "run_id", runID, "horizon", s.cfg.Horizon)

	created, err := s.windowSvc.EnsureWindows(ctx, s.cfg.Horizon)
	if err != nil {
		return RunResult{}, fmt.Errorf("ensure windows: %w", err)
	}
	createdKeys := make([]string, 0, len(created))
	for _, w := range created {
		createdKeys = append(createdKeys, w.PeriodKey)
	}

	pending, err := s.windowRepo.ListNonTerminal(ctx)
	if err != nil {
		return RunResult{}, fmt.Errorf("list non-terminal windows: %w", err)
	}

	workerCount := s.cfg.MaxWorkers
	if workerCount > len(pending) {
		workerCount = len(pending)
	}
	if workerCount < 1 {
		workerCount = 1
	}

	result := RunResult{
		RunID:       runID,
		Created:     len(created),
		CreatedKeys: createdKeys,
		WorkerCount: workerCount,
		Windows:     make([]WindowRunResult, 0, len(pending)),
	}
	if len(pending) == 0 {
		return result, nil
	}

	now := s.now().UTC()
	rows := make(chan WindowRunResult, len(pending))

	var activated atomic.Int32
	var completed atomic.Int32
	var published atomic.Int32

	workerPool, err := ants.NewPool(workerCount)
	if err != nil {
		return RunResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer workerPool.Release()

	var workers sync.WaitGroup
	for _, w := range pending {
		w := w
		workers.Add(1)
		if err := workerPool.Submit(func() {
			defer workers.Done()

			start := time.Now()
			row := s.processWindow(ctx, w, now)
			row.DurationMs = time.Since(start).Milliseconds()

			activated.Add(int32(boolToInt(row.FromState == string(window.StateUpcoming) && row.ToState != string(window.StateUpcoming) && row.Error == "")))
			completed.Add(int32(boolToInt(row.ToState == string(window.StateCompleted) && row.Error == "")))
			published.Add(int32(row.Published))

			rows <- row
		}); err != nil {
			workers.Done()
			return RunResult{}, fmt.Errorf("submit window to worker pool: %w", err)
		}
	}

	workers.Wait()
	close(rows)

	for row := range rows {
		result.Windows = append(result.Windows, row)
	}
	sort.SliceStable(result.Windows, func(i, j int) bool {
		return result.Windows[i].PeriodKey < result.Windows[j].PeriodKey
	})

	result.Activated = int(activated.Load())
	result.Completed = int(completed.Load())
	result.Published = int(published.Load())
	return result, nil
}

// processWindow advances one window as far as the clock allows in strict
// order. A window created after its own end still passes through activation,
// so the scheduled -> live publish side effect is never skipped.
func (s *LifecycleService) processWindow(ctx context.Context, w window.ContestWindow, now time.Time) WindowRunResult {
	row := WindowRunResult{
		PeriodKey: w.PeriodKey,
		FromState: string(w.State),
		ToState:   string(w.State),
	}

	if w.State == window.StateUpcoming && !now.Before(w.StartsAt) {
		count, err := s.activate(ctx, w)
		if err != nil {
			row.Error = err.Error()
			return row
		}
		row.Published = count
		row.ToState = string(window.StateActive)
		w.State = window.StateActive
	}

	if w.State == window.StateActive && !now.Before(w.EndsAt) {
		winners, err := s.complete(ctx, w)
		if err != nil {
			row.Error = err.Error()
			return row
		}
		row.Winners = winners
		row.ToState = string(window.StateCompleted)
	}

	return row
}

func (s *LifecycleService) activate(ctx context.Context, w window.ContestWindow) (int, error) {
	moved, err := s.windowRepo.MarkActive(ctx, w.PeriodKey)
	if err != nil {
		return 0, fmt.Errorf("activate window %s: %w", w.PeriodKey, err)
	}
	if !moved {
		// A concurrent run already advanced it. Publishing below is still
		// safe because the status predicate makes it a no-op when repeated.
		s.logger.InfoContext(ctx, "window already activated by concurrent run", "period_key", w.PeriodKey)
	}

	count, err := s.entryRepo.PublishScheduled(ctx, w.PeriodKey, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("publish scheduled entries for window %s: %w", w.PeriodKey, err)
	}
	if count > 0 {
		s.logger.InfoContext(ctx, "scheduled entries published",
			"period_key", w.PeriodKey,
			"count", count,
		)
	}
	return count, nil
}

func (s *LifecycleService) complete(ctx context.Context, w window.ContestWindow) (int, error) {
	winners, err := s.winnerSvc.ComputeWinners(ctx, w)
	if err != nil {
		return 0, fmt.Errorf("compute winners for window %s: %w", w.PeriodKey, err)
	}
	if err := s.winnerSvc.AwardWinners(ctx, w, winners); err != nil {
		return 0, fmt.Errorf("award winners for window %s: %w", w.PeriodKey, err)
	}

	totalVotes, err := s.voteRepo.CountByWindow(ctx, w.PeriodKey)
	if err != nil {
		return 0, fmt.Errorf("count votes for window %s: %w", w.PeriodKey, err)
	}
	totalParticipants, err := s.voteRepo.CountVotersByWindow(ctx, w.PeriodKey)
	if err != nil {
		return 0, fmt.Errorf("count voters for window %s: %w", w.PeriodKey, err)
	}

	winnerIDs := make([]string, 0, len(winners))
	for _, item := range winners {
		winnerIDs = append(winnerIDs, item.ID)
	}

	moved, err := s.windowRepo.CompleteWithWinners(ctx, w.PeriodKey, winnerIDs, totalVotes, totalParticipants)
	if err != nil {
		return 0, fmt.Errorf("complete window %s: %w", w.PeriodKey, err)
	}
	if !moved {
		s.logger.InfoContext(ctx, "window already completed by concurrent run", "period_key", w.PeriodKey)
		return len(winners), nil
	}

	s.logger.InfoContext(ctx, "contest window completed",
		"period_key", w.PeriodKey,
		"winners", len(winnerIDs),
		"total_votes", totalVotes,
		"total_participants", totalParticipants,
	)

	s.notifyWinners(ctx, w, winners)
	return len(winners), nil
}

// notifyWinners fans out announcements after the completion commit. Errors
// are logged and dropped: the award is already durable and a missed
// announcement is recoverable out of band.
func (s *LifecycleService) notifyWinners(ctx context.Context, w window.ContestWindow, winners []entry.Entry) {
	if len(winners) == 0 {
		return
	}

	notifyCtx, cancel := context.WithTimeout(ctx, s.cfg.NotifyTimeout)
	defer cancel()

	fanout := pool.New().WithContext(notifyCtx).WithMaxGoroutines(len(winners))
	for i, item := range winners {
		rank := i + 1
		item := item
		fanout.Go(func(ctx context.Context) error {
			if err := s.notifier.NotifyWinner(ctx, w, item, rank); err != nil {
				s.logger.WarnContext(ctx, "winner notification failed",
					"period_key", w.PeriodKey,
					"entry_id", item.ID,
					"rank", rank,
					"error", err,
				)
			}
			return nil
		})
	}
	if err := fanout.Wait(); err != nil {
		s.logger.WarnContext(ctx, "winner notification fan-out interrupted", "period_key", w.PeriodKey, "error", err)
	}
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
