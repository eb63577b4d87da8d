package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ad-tracker/youtube-opportunity-finder/internal/db"
	"github.com/ad-tracker/youtube-opportunity-finder/internal/db/models"
	"github.com/ad-tracker/youtube-opportunity-finder/internal/discovery"
	"github.com/ad-tracker/youtube-opportunity-finder/internal/model"
)

// ChannelRepository defines operations for managing channel snapshots.
type ChannelRepository interface {
	discovery.ChannelSink

	// Upsert stores the channel unless a newer snapshot is already stored.
	// It reports whether the row was written.
	Upsert(ctx context.Context, channel *models.Channel) (bool, error)

	// Refresh overwrites the statistics and tier of a stored channel, keeping
	// its best score. Unknown channels and older records are ignored.
	Refresh(ctx context.Context, record *model.ChannelRecord, tier model.OpportunityTier) (bool, error)

	// GetChannelByID retrieves a single channel by ID.
	GetChannelByID(ctx context.Context, channelID string) (*models.Channel, error)

	// List retrieves channels with filters and pagination.
	List(ctx context.Context, filters *ChannelFilters) ([]*models.Channel, int, error)

	// ListStale returns the ids of channels fetched before olderThan, oldest first.
	ListStale(ctx context.Context, olderThan time.Time, limit int) ([]string, error)

	// Delete deletes a channel by ID.
	Delete(ctx context.Context, channelID string) error
}

// ChannelFilters contains filter options for listing channels.
type ChannelFilters struct {
	Limit          int
	Offset         int
	Title          string
	Tiers          []model.OpportunityTier
	MinSubscribers int64
	MaxSubscribers *int64
	OrderBy        string
	OrderDir       string
}

var channelOrderColumns = map[string]string{
	"best_score":       "best_score",
	"subscriber_count": "subscriber_count",
	"view_count":       "view_count",
	"fetched_at":       "fetched_at",
	"last_updated_at":  "last_updated_at",
	"first_seen_at":    "first_seen_at",
}

const channelColumns = `channel_id, title, thumbnail_url, subscriber_count, video_count, view_count,
		channel_created_at, best_score, opportunity_tier, fetched_at, first_seen_at, last_updated_at`

type channelRepository struct {
	pool *pgxpool.Pool
}

// NewChannelRepository creates a new ChannelRepository.
func NewChannelRepository(pool *pgxpool.Pool) ChannelRepository {
	return &channelRepository{pool: pool}
}

// UpsertChannel implements discovery.ChannelSink.
func (r *channelRepository) UpsertChannel(ctx context.Context, snapshot *model.ChannelSnapshot) error {
	if snapshot == nil || snapshot.Channel.ID == "" {
		return fmt.Errorf("upsert channel: %w", discovery.ErrMalformedResponse)
	}
	_, err := r.Upsert(ctx, models.NewChannelFromSnapshot(snapshot))
	return err
}

func (r *channelRepository) Upsert(ctx context.Context, channel *models.Channel) (bool, error) {
	query := `
		INSERT INTO channels (` + channelColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (channel_id) DO UPDATE
		SET title = EXCLUDED.title,
		    thumbnail_url = EXCLUDED.thumbnail_url,
		    subscriber_count = EXCLUDED.subscriber_count,
		    video_count = EXCLUDED.video_count,
		    view_count = EXCLUDED.view_count,
		    channel_created_at = COALESCE(EXCLUDED.channel_created_at, channels.channel_created_at),
		    best_score = EXCLUDED.best_score,
		    opportunity_tier = EXCLUDED.opportunity_tier,
		    fetched_at = EXCLUDED.fetched_at,
		    last_updated_at = EXCLUDED.last_updated_at
		WHERE channels.fetched_at <= EXCLUDED.fetched_at
		RETURNING first_seen_at, last_updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		channel.ChannelID,
		channel.Title,
		channel.ThumbnailURL,
		channel.SubscriberCount,
		channel.VideoCount,
		channel.ViewCount,
		channel.ChannelCreatedAt,
		channel.BestScore,
		string(channel.OpportunityTier),
		channel.FetchedAt,
		channel.FirstSeenAt,
		channel.LastUpdatedAt,
	).Scan(
		&channel.FirstSeenAt,
		&channel.LastUpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		// A newer snapshot is already stored.
		return false, nil
	}
	if err != nil {
		return false, db.WrapError(err, "upsert channel")
	}

	return true, nil
}

func (r *channelRepository) Refresh(ctx context.Context, record *model.ChannelRecord, tier model.OpportunityTier) (bool, error) {
	if record == nil || record.ID == "" {
		return false, fmt.Errorf("refresh channel: %w", discovery.ErrMalformedResponse)
	}
	fetchedAt := record.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now().UTC()
	}

	query := `
		UPDATE channels
		SET title = $2,
		    thumbnail_url = $3,
		    subscriber_count = $4,
		    video_count = $5,
		    view_count = $6,
		    channel_created_at = COALESCE($7, channel_created_at),
		    opportunity_tier = $8,
		    fetched_at = $9,
		    last_updated_at = NOW()
		WHERE channel_id = $1 AND fetched_at <= $9
	`

	result, err := r.pool.Exec(ctx, query,
		record.ID,
		record.Title,
		record.ThumbnailURL,
		record.SubscriberCount,
		record.VideoCount,
		record.ViewCount,
		record.CreatedAt,
		string(tier),
		fetchedAt,
	)
	if err != nil {
		return false, db.WrapError(err, "refresh channel")
	}

	return result.RowsAffected() == 1, nil
}

func (r *channelRepository) GetChannelByID(ctx context.Context, channelID string) (*models.Channel, error) {
	query := `SELECT ` + channelColumns + ` FROM channels WHERE channel_id = $1`

	channel, err := scanChannel(r.pool.QueryRow(ctx, query, channelID))
	if err != nil {
		return nil, db.WrapError(err, "get channel by id")
	}

	return channel, nil
}

func (r *channelRepository) List(ctx context.Context, filters *ChannelFilters) ([]*models.Channel, int, error) {
	if filters == nil {
		filters = &ChannelFilters{}
	}

	args := []interface{}{}
	argPos := 1
	whereClause := ""
	and := func(cond string, arg interface{}) {
		if whereClause == "" {
			whereClause = "WHERE "
		} else {
			whereClause += " AND "
		}
		whereClause += fmt.Sprintf(cond, argPos)
		args = append(args, arg)
		argPos++
	}

	if filters.Title != "" {
		and("title ILIKE $%d", "%"+filters.Title+"%")
	}
	if len(filters.Tiers) > 0 {
		tiers := make([]string, 0, len(filters.Tiers))
		for _, t := range filters.Tiers {
			tiers = append(tiers, string(t))
		}
		and("opportunity_tier = ANY($%d)", tiers)
	}
	if filters.MinSubscribers > 0 {
		and("subscriber_count >= $%d", filters.MinSubscribers)
	}
	if filters.MaxSubscribers != nil {
		and("subscriber_count <= $%d", *filters.MaxSubscribers)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM channels %s", whereClause)
	var total int
	err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total)
	if err != nil {
		return nil, 0, db.WrapError(err, "count channels")
	}

	orderBy := "best_score"
	if col, ok := channelOrderColumns[filters.OrderBy]; ok {
		orderBy = col
	}

	orderDir := "DESC"
	if filters.OrderDir == "asc" || filters.OrderDir == "ASC" {
		orderDir = "ASC"
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = 50
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM channels
		%s
		ORDER BY %s %s, channel_id ASC
		LIMIT $%d OFFSET $%d
	`, channelColumns, whereClause, orderBy, orderDir, argPos, argPos+1)

	args = append(args, limit, filters.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, db.WrapError(err, "list channels")
	}
	defer rows.Close()

	channels, err := scanChannels(rows)
	if err != nil {
		return nil, 0, err
	}

	return channels, total, nil
}

func (r *channelRepository) ListStale(ctx context.Context, olderThan time.Time, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 500
	}

	query := `
		SELECT channel_id
		FROM channels
		WHERE fetched_at < $1
		ORDER BY fetched_at ASC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, olderThan, limit)
	if err != nil {
		return nil, db.WrapError(err, "list stale channels")
	}
	defer rows.Close()

	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, db.WrapError(err, "scan stale channels")
	}

	return ids, nil
}

func (r *channelRepository) Delete(ctx context.Context, channelID string) error {
	query := `DELETE FROM channels WHERE channel_id = $1`

	result, err := r.pool.Exec(ctx, query, channelID)
	if err != nil {
		return db.WrapError(err, "delete channel")
	}

	if result.RowsAffected() == 0 {
		return db.WrapError(pgx.ErrNoRows, "delete channel")
	}

	return nil
}

func scanChannel(row pgx.Row) (*models.Channel, error) {
	channel := &models.Channel{}
	var tier string
	err := row.Scan(
		&channel.ChannelID,
		&channel.Title,
		&channel.ThumbnailURL,
		&channel.SubscriberCount,
		&channel.VideoCount,
		&channel.ViewCount,
		&channel.ChannelCreatedAt,
		&channel.BestScore,
		&tier,
		&channel.FetchedAt,
		&channel.FirstSeenAt,
		&channel.LastUpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	channel.OpportunityTier = model.OpportunityTier(tier)
	return channel, nil
}

// Helper function to scan multiple channels from query results
func scanChannels(rows pgx.Rows) ([]*models.Channel, error) {
	var channels []*models.Channel

	for rows.Next() {
		channel, err := scanChannel(rows)
		if err != nil {
			return nil, fmt.Errorf("scan channel: %w", err)
		}
		channels = append(channels, channel)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate channels: %w", err)
	}

	return channels, nil
}
