package postgres

import (
	"time"

	"github.com/lib/pq"

	"github.com/SashaDiz/directoryhunt-sub001/internal/domain/window"
)

type contestWindowTableModel struct {
	ID                  int64          `db:"id"`
	PeriodKey           string         `db:"period_key"`
	StartsAt            time.Time      `db:"starts_at"`
	EndsAt              time.Time      `db:"ends_at"`
	State               string         `db:"state"`
	StandardSubmissions int            `db:"standard_submissions"`
	PremiumSubmissions  int            `db:"premium_submissions"`
	TotalVotes          int            `db:"total_votes"`
	TotalParticipants   int            `db:"total_participants"`
	WinnerEntryIDs      pq.StringArray `db:"winner_entry_ids"`
	CreatedAt           time.Time      `db:"created_at"`
	UpdatedAt           time.Time      `db:"updated_at"`
}

func (m contestWindowTableModel) toDomain() window.ContestWindow {
	return window.ContestWindow{
		PeriodKey:           m.PeriodKey,
		StartsAt:            m.StartsAt.UTC(),
		EndsAt:              m.EndsAt.UTC(),
		State:               window.State(m.State),
		StandardSubmissions: m.StandardSubmissions,
		PremiumSubmissions:  m.PremiumSubmissions,
		TotalVotes:          m.TotalVotes,
		TotalParticipants:   m.TotalParticipants,
		WinnerEntryIDs:      []string(m.WinnerEntryIDs),
	}
}
