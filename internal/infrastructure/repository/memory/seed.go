package memory

import (
	"time"

	"github.com/SashaDiz/directoryhunt-sub001/internal/domain/entry"
	"github.com/SashaDiz/directoryhunt-sub001/internal/domain/window"
)

const SeedWindowKey = "2026-W36"

// SeedWindows returns one active window covering the first week of
// September 2026, plus the following upcoming week.
func SeedWindows() []window.ContestWindow {
	return []window.ContestWindow{
		{
			PeriodKey: SeedWindowKey,
			StartsAt:  time.Date(2026, 8, 31, 8, 0, 0, 0, time.UTC),
			EndsAt:    time.Date(2026, 9, 7, 8, 0, 0, 0, time.UTC),
			State:     window.StateActive,
		},
		{
			PeriodKey: "2026-W37",
			StartsAt:  time.Date(2026, 9, 7, 8, 0, 0, 0, time.UTC),
			EndsAt:    time.Date(2026, 9, 14, 8, 0, 0, 0, time.UTC),
			State:     window.StateUpcoming,
		},
	}
}

func SeedEntries() []entry.Entry {
	submitted := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	return []entry.Entry{
		{
			ID:          "ent-notesly",
			OwnerID:     "usr-001",
			Name:        "Notesly",
			Status:      entry.StatusLive,
			PlanTier:    entry.TierPremium,
			LinkPolicy:  entry.PolicyIndexable,
			WindowKey:   SeedWindowKey,
			SubmittedAt: submitted,
		},
		{
			ID:          "ent-shipcheck",
			OwnerID:     "usr-002",
			Name:        "ShipCheck",
			Status:      entry.StatusLive,
			PlanTier:    entry.TierStandard,
			LinkPolicy:  entry.PolicyNonIndexable,
			WindowKey:   SeedWindowKey,
			SubmittedAt: submitted.Add(30 * time.Minute),
		},
		{
			ID:          "ent-quantleaf",
			OwnerID:     "usr-003",
			Name:        "QuantLeaf",
			Status:      entry.StatusLive,
			PlanTier:    entry.TierStandard,
			LinkPolicy:  entry.PolicyNonIndexable,
			WindowKey:   SeedWindowKey,
			SubmittedAt: submitted.Add(time.Hour),
		},
		{
			ID:          "ent-pixelbay",
			OwnerID:     "usr-004",
			Name:        "PixelBay",
			Status:      entry.StatusScheduled,
			PlanTier:    entry.TierStandard,
			LinkPolicy:  entry.PolicyNonIndexable,
			WindowKey:   "2026-W37",
			SubmittedAt: submitted.Add(2 * time.Hour),
		},
	}
}
