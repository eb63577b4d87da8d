package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ad-tracker/youtube-opportunity-finder/internal/db"
	"github.com/ad-tracker/youtube-opportunity-finder/internal/db/models"
)

// SearchHistoryRepository defines operations for the search history log.
type SearchHistoryRepository interface {
	// Create appends an entry.
	Create(ctx context.Context, entry *models.SearchHistory) error

	// GetByID retrieves a single entry.
	GetByID(ctx context.Context, id uuid.UUID) (*models.SearchHistory, error)

	// List returns entries newest first, with the total count.
	List(ctx context.Context, limit, offset int) ([]*models.SearchHistory, int, error)
}

type searchHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewSearchHistoryRepository creates a new SearchHistoryRepository.
func NewSearchHistoryRepository(pool *pgxpool.Pool) SearchHistoryRepository {
	return &searchHistoryRepository{pool: pool}
}

func (r *searchHistoryRepository) Create(ctx context.Context, entry *models.SearchHistory) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}

	query := `
		INSERT INTO search_history (id, query, criteria, criteria_hash, result_count, error_count, searched_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		entry.ID,
		entry.Query,
		entry.Criteria,
		entry.CriteriaHash,
		entry.ResultCount,
		entry.ErrorCount,
		entry.SearchedAt,
	)
	if err != nil {
		return db.WrapError(err, "create search history")
	}

	return nil
}

func (r *searchHistoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.SearchHistory, error) {
	query := `
		SELECT id, query, criteria, criteria_hash, result_count, error_count, searched_at
		FROM search_history
		WHERE id = $1
	`

	entry, err := scanSearchHistory(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, db.WrapError(err, "get search history")
	}

	return entry, nil
}

func (r *searchHistoryRepository) List(ctx context.Context, limit, offset int) ([]*models.SearchHistory, int, error) {
	if limit <= 0 {
		limit = 50
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM search_history`).Scan(&total); err != nil {
		return nil, 0, db.WrapError(err, "count search history")
	}

	query := `
		SELECT id, query, criteria, criteria_hash, result_count, error_count, searched_at
		FROM search_history
		ORDER BY searched_at DESC, id
		LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, db.WrapError(err, "list search history")
	}
	defer rows.Close()

	var entries []*models.SearchHistory
	for rows.Next() {
		entry, err := scanSearchHistory(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan search history: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate search history: %w", err)
	}

	return entries, total, nil
}

func scanSearchHistory(row pgx.Row) (*models.SearchHistory, error) {
	entry := &models.SearchHistory{}
	err := row.Scan(
		&entry.ID,
		&entry.Query,
		&entry.Criteria,
		&entry.CriteriaHash,
		&entry.ResultCount,
		&entry.ErrorCount,
		&entry.SearchedAt,
	)
	if err != nil {
		return nil, err
	}
	return entry, nil
}
