package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/SashaDiz/directoryhunt-sub001/internal/domain/entry"
	qb "github.com/SashaDiz/directoryhunt-sub001/internal/platform/querybuilder"
)

type EntryRepository struct {
	db *sqlx.DB
}

func NewEntryRepository(db *sqlx.DB) *EntryRepository {
	return &EntryRepository{db: db}
}

func (r *EntryRepository) GetByID(ctx context.Context, entryID string) (entry.Entry, bool, error) {
	query, args, err := qb.Select("*").From("entries").
		Where(qb.Eq("public_id", entryID)).
		ToSQL()
	if err != nil {
		return entry.Entry{}, false, fmt.Errorf("build get entry by id query: %w", err)
	}

	var row entryTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return entry.Entry{}, false, nil
		}
		return entry.Entry{}, false, fmt.Errorf("get entry by id: %w", err)
	}
	return row.toDomain(), true, nil
}

func (r *EntryRepository) ListLiveByWindow(ctx context.Context, windowKey string) ([]entry.Entry, error) {
	query, args, err := qb.Select("*").From("entries").
		Where(
			qb.Eq("window_period_key", windowKey),
			qb.Eq("status", string(entry.StatusLive)),
		).
		OrderBy("vote_count DESC", "(plan_tier = 'premium') DESC", "submitted_at ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list live entries query: %w", err)
	}

	var rows []entryTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list live entries: %w", err)
	}

	out := make([]entry.Entry, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *EntryRepository) PublishScheduled(ctx context.Context, windowKey string, at time.Time) (int, error) {
	const query = `
UPDATE entries
SET status = $1, published_at = $2, updated_at = NOW()
WHERE window_period_key = $3
  AND status = $4`

	result, err := r.db.ExecContext(ctx, query,
		string(entry.StatusLive),
		at.UTC(),
		windowKey,
		string(entry.StatusScheduled),
	)
	if err != nil {
		return 0, fmt.Errorf("publish scheduled entries: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("read publish scheduled result: %w", err)
	}
	return int(affected), nil
}

func (r *EntryRepository) AwardWinner(ctx context.Context, entryID string, rank int, at time.Time) (bool, error) {
	const query = `
UPDATE entries
SET winner_rank = $1,
    winner_reason = $2,
    winner_awarded_at = $3,
    link_policy = $4,
    featured = TRUE,
    updated_at = NOW()
WHERE public_id = $5
  AND winner_rank IS NULL`

	result, err := r.db.ExecContext(ctx, query,
		rank,
		entry.WinnerReasonContest,
		at.UTC(),
		string(entry.PolicyIndexable),
		entryID,
	)
	if err != nil {
		return false, fmt.Errorf("award winner rank: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("read award winner result: %w", err)
	}
	return affected == 1, nil
}

func (r *EntryRepository) ClearFeatured(ctx context.Context, windowKey string, keepIDs []string) (int, error) {
	const query = `
UPDATE entries
SET featured = FALSE, updated_at = NOW()
WHERE window_period_key = $1
  AND featured = TRUE
  AND public_id <> ALL($2)`

	result, err := r.db.ExecContext(ctx, query, windowKey, pq.StringArray(keepIDs))
	if err != nil {
		return 0, fmt.Errorf("clear featured flags: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("read clear featured result: %w", err)
	}
	return int(affected), nil
}

func (r *EntryRepository) SetLinkPolicy(ctx context.Context, entryID string, policy entry.LinkPolicy) error {
	const query = `
UPDATE entries
SET link_policy = $1, updated_at = NOW()
WHERE public_id = $2`

	if _, err := r.db.ExecContext(ctx, query, string(policy), entryID); err != nil {
		return fmt.Errorf("set entry link policy: %w", err)
	}
	return nil
}

func (r *EntryRepository) SetVoteCount(ctx context.Context, entryID string, count int) error {
	const query = `
UPDATE entries
SET vote_count = $1, updated_at = NOW()
WHERE public_id = $2`

	if _, err := r.db.ExecContext(ctx, query, count, entryID); err != nil {
		return fmt.Errorf("set entry vote count: %w", err)
	}
	return nil
}
