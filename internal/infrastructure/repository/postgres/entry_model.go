package postgres

import (
	"database/sql"
	"time"

	"github.com/SashaDiz/directoryhunt-sub001/internal/domain/entry"
)

type entryTableModel struct {
	ID                 int64          `db:"id"`
	PublicID           string         `db:"public_id"`
	OwnerID            string         `db:"owner_id"`
	Name               string         `db:"name"`
	Status             string         `db:"status"`
	PlanTier           string         `db:"plan_tier"`
	VoteCount          int            `db:"vote_count"`
	LinkPolicy         string         `db:"link_policy"`
	LinkPolicyOverride sql.NullString `db:"link_policy_override"`
	WinnerRank         sql.NullInt64  `db:"winner_rank"`
	WinnerReason       sql.NullString `db:"winner_reason"`
	WinnerAwardedAt    *time.Time     `db:"winner_awarded_at"`
	Featured           bool           `db:"featured"`
	WindowKey          string         `db:"window_period_key"`
	SubmittedAt        time.Time      `db:"submitted_at"`
	PublishedAt        *time.Time     `db:"published_at"`
	CreatedAt          time.Time      `db:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at"`
}

func (m entryTableModel) toDomain() entry.Entry {
	out := entry.Entry{
		ID:          m.PublicID,
		OwnerID:     m.OwnerID,
		Name:        m.Name,
		Status:      entry.Status(m.Status),
		PlanTier:    entry.PlanTier(m.PlanTier),
		VoteCount:   m.VoteCount,
		LinkPolicy:  entry.LinkPolicy(m.LinkPolicy),
		Featured:    m.Featured,
		WindowKey:   m.WindowKey,
		SubmittedAt: m.SubmittedAt.UTC(),
	}
	if m.LinkPolicyOverride.Valid {
		override := entry.LinkPolicy(m.LinkPolicyOverride.String)
		out.LinkPolicyOverride = &override
	}
	if m.WinnerRank.Valid {
		rank := int(m.WinnerRank.Int64)
		out.WinnerRank = &rank
	}
	if m.WinnerReason.Valid {
		out.WinnerReason = m.WinnerReason.String
	}
	if m.WinnerAwardedAt != nil {
		at := m.WinnerAwardedAt.UTC()
		out.WinnerAwardedAt = &at
	}
	if m.PublishedAt != nil {
		at := m.PublishedAt.UTC()
		out.PublishedAt = &at
	}
	return out
}
