package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/SashaDiz/directoryhunt-sub001/internal/domain/entry"
	"github.com/SashaDiz/directoryhunt-sub001/internal/domain/user"
	"github.com/SashaDiz/directoryhunt-sub001/internal/domain/vote"
	"github.com/SashaDiz/directoryhunt-sub001/internal/domain/window"
	"github.com/SashaDiz/directoryhunt-sub001/internal/infrastructure/repository/memory"
)

type voteFixture struct {
	entryRepo *memory.EntryRepository
	voteRepo  *memory.VoteRepository
	svc       *VoteService
}

func newVoteFixture(t *testing.T, windows []window.ContestWindow, entries []entry.Entry) *voteFixture {
	t.Helper()

	windowRepo := memory.NewWindowRepository(windows)
	entryRepo := memory.NewEntryRepository(entries)
	voteRepo := memory.NewVoteRepository(entryRepo)
	return &voteFixture{
		entryRepo: entryRepo,
		voteRepo:  voteRepo,
		svc:       NewVoteService(voteRepo, entryRepo, windowRepo, nil),
	}
}

func liveEntry(id, windowKey string) entry.Entry {
	return entry.Entry{
		ID: id, OwnerID: "usr-1", Name: "App",
		Status: entry.StatusLive, PlanTier: entry.TierStandard,
		WindowKey:   windowKey,
		SubmittedAt: time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC),
	}
}

func TestVoteService_Apply_UpvoteThenRemove(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newVoteFixture(t,
		[]window.ContestWindow{week1Window(window.StateActive)},
		[]entry.Entry{liveEntry("ent-a", "2024-W01")},
	)
	principal := user.Principal{UserID: "usr-100"}

	result, err := f.svc.Apply(ctx, principal, "ent-a", vote.ActionUpvote)
	require.NoError(t, err)
	require.True(t, result.Voted)
	require.Equal(t, 1, result.NewCount)

	result, err = f.svc.Apply(ctx, principal, "ent-a", vote.ActionRemove)
	require.NoError(t, err)
	require.False(t, result.Voted)
	require.Equal(t, 0, result.NewCount)

	// Voting again after a remove works as a fresh cast.
	result, err = f.svc.Apply(ctx, principal, "ent-a", vote.ActionUpvote)
	require.NoError(t, err)
	require.True(t, result.Voted)
	require.Equal(t, 1, result.NewCount)
}

func TestVoteService_Apply_RepeatedActionsAreNoOps(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newVoteFixture(t,
		[]window.ContestWindow{week1Window(window.StateActive)},
		[]entry.Entry{liveEntry("ent-a", "2024-W01")},
	)
	principal := user.Principal{UserID: "usr-100"}

	// A retried upvote never retracts and never double-counts.
	for i := 0; i < 3; i++ {
		result, err := f.svc.Apply(ctx, principal, "ent-a", vote.ActionUpvote)
		require.NoError(t, err)
		require.True(t, result.Voted)
		require.Equal(t, 1, result.NewCount)
	}

	// A retried remove stays removed.
	for i := 0; i < 3; i++ {
		result, err := f.svc.Apply(ctx, principal, "ent-a", vote.ActionRemove)
		require.NoError(t, err)
		require.False(t, result.Voted)
		require.Equal(t, 0, result.NewCount)
	}
}

func TestVoteService_Apply_RemoveWithoutVoteIsNoOp(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newVoteFixture(t,
		[]window.ContestWindow{week1Window(window.StateActive)},
		[]entry.Entry{liveEntry("ent-a", "2024-W01")},
	)

	result, err := f.svc.Apply(ctx, user.Principal{UserID: "usr-100"}, "ent-a", vote.ActionRemove)
	require.NoError(t, err)
	require.False(t, result.Voted)
	require.Equal(t, 0, result.NewCount)
}

func TestVoteService_Apply_DistinctVotersAccumulate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newVoteFixture(t,
		[]window.ContestWindow{week1Window(window.StateActive)},
		[]entry.Entry{liveEntry("ent-a", "2024-W01")},
	)

	for i, voter := range []string{"usr-1", "usr-2", "usr-3"} {
		result, err := f.svc.Apply(ctx, user.Principal{UserID: voter}, "ent-a", vote.ActionUpvote)
		require.NoError(t, err)
		require.True(t, result.Voted)
		require.Equal(t, i+1, result.NewCount)
	}

	// One voter leaving does not disturb the others.
	result, err := f.svc.Apply(ctx, user.Principal{UserID: "usr-2"}, "ent-a", vote.ActionRemove)
	require.NoError(t, err)
	require.False(t, result.Voted)
	require.Equal(t, 2, result.NewCount)
}

func TestVoteService_Apply_Rejections(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	windows := []window.ContestWindow{
		week1Window(window.StateActive),
		{
			PeriodKey: "2024-W02",
			StartsAt:  time.Date(2024, 1, 8, 8, 0, 0, 0, time.UTC),
			EndsAt:    time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC),
			State:     window.StateUpcoming,
		},
	}
	scheduled := liveEntry("ent-scheduled", "2024-W01")
	scheduled.Status = entry.StatusScheduled
	orphan := liveEntry("ent-orphan", "")
	ghost := liveEntry("ent-ghost", "2099-W01")
	inactive := liveEntry("ent-early", "2024-W02")

	f := newVoteFixture(t, windows, []entry.Entry{scheduled, orphan, ghost, inactive})
	principal := user.Principal{UserID: "usr-100"}

	tests := []struct {
		name      string
		principal user.Principal
		entryID   string
		action    vote.Action
		wantErr   error
		reason    string
	}{
		{"missing principal", user.Principal{}, "ent-scheduled", vote.ActionUpvote, ErrUnauthorized, ""},
		{"empty entry id", principal, "", vote.ActionUpvote, ErrInvalidInput, ""},
		{"invalid action", principal, "ent-scheduled", vote.Action("toggle"), ErrInvalidInput, ""},
		{"unknown entry", principal, "ent-nope", vote.ActionUpvote, ErrNotFound, ""},
		{"entry not live", principal, "ent-scheduled", vote.ActionUpvote, ErrEntryNotLive, "ENTRY_NOT_LIVE"},
		{"entry without window", principal, "ent-orphan", vote.ActionUpvote, ErrNoWindow, "NO_WINDOW"},
		{"entry window missing", principal, "ent-ghost", vote.ActionUpvote, ErrNoWindow, "NO_WINDOW"},
		{"window not active", principal, "ent-early", vote.ActionUpvote, ErrWindowNotActive, "WINDOW_NOT_ACTIVE"},
		{"remove outside active window", principal, "ent-early", vote.ActionRemove, ErrWindowNotActive, "WINDOW_NOT_ACTIVE"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := f.svc.Apply(ctx, tt.principal, tt.entryID, tt.action)
			require.ErrorIs(t, err, tt.wantErr)
			reason, ok := RejectionReason(err)
			require.Equal(t, tt.reason != "", ok)
			require.Equal(t, tt.reason, reason)
		})
	}
}

func TestVoteService_Recount_RepairsDrift(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newVoteFixture(t,
		[]window.ContestWindow{week1Window(window.StateActive)},
		[]entry.Entry{liveEntry("ent-a", "2024-W01")},
	)

	for _, voter := range []string{"usr-1", "usr-2"} {
		_, err := f.svc.Apply(ctx, user.Principal{UserID: voter}, "ent-a", vote.ActionUpvote)
		require.NoError(t, err)
	}

	// Simulate counter drift: the cache disagrees with the ledger.
	require.NoError(t, f.entryRepo.SetVoteCount(ctx, "ent-a", 7))

	count, err := f.svc.Recount(ctx, "ent-a")
	require.NoError(t, err)
	require.Equal(t, 2, count)

	e, found, err := f.entryRepo.GetByID(ctx, "ent-a")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, 2, e.VoteCount)
}

func TestVoteService_Recount_UnknownEntry(t *testing.T) {
	t.Parallel()

	f := newVoteFixture(t, nil, nil)
	_, err := f.svc.Recount(context.Background(), "ent-nope")
	require.ErrorIs(t, err, ErrNotFound)
}
