package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ad-tracker/youtube-opportunity-finder/internal/db"
	"github.com/ad-tracker/youtube-opportunity-finder/internal/model"
)

const (
	// OperationOther is recorded for calls without an operation name.
	OperationOther = "other"

	// MaxQuotaHistoryDays bounds GetQuotaHistory.
	MaxQuotaHistoryDays = 90
)

// QuotaRepository persists daily API quota usage.
type QuotaRepository interface {
	// GetTodaysQuota returns today's totals; a day without calls reads as zero usage.
	GetTodaysQuota(ctx context.Context) (*model.QuotaInfo, error)

	// IncrementQuota adds cost units for one call of operationType.
	IncrementQuota(ctx context.Context, quotaCost int, operationType string) error

	// GetQuotaHistory returns per-day usage for the last days days, newest first.
	GetQuotaHistory(ctx context.Context, days int) ([]*model.APIQuotaUsage, error)
}

type quotaRepository struct {
	pool *pgxpool.Pool
}

// NewQuotaRepository creates a new QuotaRepository.
func NewQuotaRepository(pool *pgxpool.Pool) QuotaRepository {
	return &quotaRepository{pool: pool}
}

func (r *quotaRepository) GetTodaysQuota(ctx context.Context) (*model.QuotaInfo, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT quota_used, quota_limit, quota_remaining, operations_count FROM get_todays_quota_usage()`)
	if err != nil {
		return nil, db.WrapError(err, "get todays quota")
	}

	info, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[model.QuotaInfo])
	if err != nil {
		return nil, db.WrapError(err, "get todays quota")
	}

	return info, nil
}

func (r *quotaRepository) IncrementQuota(ctx context.Context, quotaCost int, operationType string) error {
	if operationType == "" {
		operationType = OperationOther
	}

	if _, err := r.pool.Exec(ctx, `SELECT increment_quota_usage($1, $2)`, quotaCost, operationType); err != nil {
		return db.WrapError(err, "increment quota")
	}

	return nil
}

func (r *quotaRepository) GetQuotaHistory(ctx context.Context, days int) ([]*model.APIQuotaUsage, error) {
	if days <= 0 {
		days = 7
	}
	if days > MaxQuotaHistoryDays {
		days = MaxQuotaHistoryDays
	}

	query := `
		SELECT id, date, quota_used, quota_limit, operations_count,
		       search_list_calls, videos_list_calls, channels_list_calls, other_calls,
		       created_at, updated_at
		FROM api_quota_usage
		WHERE date > CURRENT_DATE - $1::int
		ORDER BY date DESC
	`

	rows, err := r.pool.Query(ctx, query, days)
	if err != nil {
		return nil, db.WrapError(err, "get quota history")
	}

	history, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[model.APIQuotaUsage])
	if err != nil {
		return nil, db.WrapError(err, "scan quota history")
	}

	return history, nil
}
