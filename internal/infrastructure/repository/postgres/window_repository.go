package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/SashaDiz/directoryhunt-sub001/internal/domain/window"
	qb "github.com/SashaDiz/directoryhunt-sub001/internal/platform/querybuilder"
)

type ContestWindowRepository struct {
	db *sqlx.DB
}

func NewContestWindowRepository(db *sqlx.DB) *ContestWindowRepository {
	return &ContestWindowRepository{db: db}
}

func (r *ContestWindowRepository) CreateIfAbsent(ctx context.Context, w window.ContestWindow) (bool, error) {
	const query = `
INSERT INTO contest_windows (period_key, starts_at, ends_at, state)
VALUES (:period_key, :starts_at, :ends_at, :state)
ON CONFLICT (period_key) DO NOTHING`

	sql, args, err := sqlx.Named(query, map[string]any{
		"period_key": w.PeriodKey,
		"starts_at":  w.StartsAt.UTC(),
		"ends_at":    w.EndsAt.UTC(),
		"state":      string(w.State),
	})
	if err != nil {
		return false, fmt.Errorf("bind insert contest window query: %w", err)
	}
	sql = r.db.Rebind(sql)

	result, err := r.db.ExecContext(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("insert contest window: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("read insert contest window result: %w", err)
	}
	return affected == 1, nil
}

func (r *ContestWindowRepository) GetByKey(ctx context.Context, periodKey string) (window.ContestWindow, bool, error) {
	query, args, err := qb.Select("*").From("contest_windows").
		Where(qb.Eq("period_key", periodKey)).
		ToSQL()
	if err != nil {
		return window.ContestWindow{}, false, fmt.Errorf("build get contest window query: %w", err)
	}

	var row contestWindowTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return window.ContestWindow{}, false, nil
		}
		return window.ContestWindow{}, false, fmt.Errorf("get contest window: %w", err)
	}
	return row.toDomain(), true, nil
}

func (r *ContestWindowRepository) ListNonTerminal(ctx context.Context) ([]window.ContestWindow, error) {
	query, args, err := qb.Select("*").From("contest_windows").
		Where(qb.Expr("state <> ?", string(window.StateCompleted))).
		OrderBy("starts_at").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list non-terminal windows query: %w", err)
	}

	var rows []contestWindowTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list non-terminal windows: %w", err)
	}

	out := make([]window.ContestWindow, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *ContestWindowRepository) MarkActive(ctx context.Context, periodKey string) (bool, error) {
	const query = `
UPDATE contest_windows
SET state = $1, updated_at = NOW()
WHERE period_key = $2
  AND state = $3`

	result, err := r.db.ExecContext(ctx, query, string(window.StateActive), periodKey, string(window.StateUpcoming))
	if err != nil {
		return false, fmt.Errorf("mark contest window active: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("read mark active result: %w", err)
	}
	return affected == 1, nil
}

func (r *ContestWindowRepository) CompleteWithWinners(ctx context.Context, periodKey string, winnerEntryIDs []string, totalVotes, totalParticipants int) (bool, error) {
	const query = `
UPDATE contest_windows
SET state = $1,
    winner_entry_ids = $2,
    total_votes = $3,
    total_participants = $4,
    updated_at = NOW()
WHERE period_key = $5
  AND state <> $1`

	result, err := r.db.ExecContext(ctx, query,
		string(window.StateCompleted),
		pq.StringArray(winnerEntryIDs),
		totalVotes,
		totalParticipants,
		periodKey,
	)
	if err != nil {
		return false, fmt.Errorf("complete contest window: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("read complete window result: %w", err)
	}
	return affected == 1, nil
}
