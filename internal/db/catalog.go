package db

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/XavierBriggs/fortuna/services/replay-api/pkg/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

//go:embed schema.sql
var schemaSQL string

// ErrDuplicateTag is returned when the owner already has a tag with that name.
var ErrDuplicateTag = errors.New("tag already exists")

// Catalog defines the interface for replay catalog operations
type Catalog interface {
	CountReplays(ctx context.Context) (int64, error)
	GetReplay(ctx context.Context, id string) (*models.Replay, error)
	SearchReplays(ctx context.Context, filters models.ReplayFilters) ([]models.Replay, error)
	GetTag(ctx context.Context, ownerID, name string) (*models.Tag, error)
	GetTagByPrivateKey(ctx context.Context, key string) (*models.Tag, error)
	CreateTag(ctx context.Context, ownerID, name string) (*models.Tag, error)
	AddTagToReplay(ctx context.Context, tagID int64, replayID string) error
	RemoveTagFromReplay(ctx context.Context, tagID int64, replayID string) (bool, error)
	Close() error
	Ping(ctx context.Context) error
}

// Client implements Catalog on Postgres
type Client struct {
	db *sql.DB
}

// NewClient creates a new catalog client
func NewClient(dsn string) (*Client, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Client{db: db}, nil
}

// EnsureSchema creates the catalog tables when they do not exist.
func (c *Client) EnsureSchema(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// CountReplays returns the number of replays in the catalog
func (c *Client) CountReplays(ctx context.Context) (int64, error) {
	var count int64
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM replays`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count replays: %w", err)
	}
	return count, nil
}

const replayColumns = `
	r.id, r.name, r.map, r.playlist, r.team_size, r.uploader_id, r.match_date, r.uploaded_at,
	ARRAY(SELECT rp.player_name FROM replay_players rp WHERE rp.replay_id = r.id ORDER BY rp.slot) AS players
`

// GetReplay retrieves a single replay, or nil when it does not exist
func (c *Client) GetReplay(ctx context.Context, id string) (*models.Replay, error) {
	query := `SELECT ` + replayColumns + `,
		ARRAY(SELECT t.name FROM replay_tags rt JOIN tags t ON t.id = rt.tag_id WHERE rt.replay_id = r.id ORDER BY t.name) AS tags
		FROM replays r
		WHERE r.id = $1`

	var replay models.Replay
	var uploader sql.NullString
	err := c.db.QueryRowContext(ctx, query, id).Scan(
		&replay.ID, &replay.Name, &replay.Map, &replay.Playlist, &replay.TeamSize,
		&uploader, &replay.MatchDate, &replay.UploadedAt,
		pq.Array(&replay.Players), pq.Array(&replay.Tags),
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get replay: %w", err)
	}
	if uploader.Valid {
		replay.UploaderID = &uploader.String
	}

	return &replay, nil
}

// SearchReplays retrieves replays matching every filter, newest match first
func (c *Client) SearchReplays(ctx context.Context, filters models.ReplayFilters) ([]models.Replay, error) {
	query, args := buildSearchQuery(filters)

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query replays: %w", err)
	}
	defer rows.Close()

	replays := []models.Replay{}
	for rows.Next() {
		var replay models.Replay
		var uploader sql.NullString
		if err := rows.Scan(
			&replay.ID, &replay.Name, &replay.Map, &replay.Playlist, &replay.TeamSize,
			&uploader, &replay.MatchDate, &replay.UploadedAt,
			pq.Array(&replay.Players),
		); err != nil {
			return nil, fmt.Errorf("scan replay: %w", err)
		}
		if uploader.Valid {
			replay.UploaderID = &uploader.String
		}
		replays = append(replays, replay)
	}

	return replays, rows.Err()
}

func buildSearchQuery(filters models.ReplayFilters) (string, []interface{}) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + replayColumns + ` FROM replays r WHERE 1=1`)

	args := []interface{}{}
	argIdx := 1

	if filters.Playlist != nil {
		sb.WriteString(fmt.Sprintf(" AND r.playlist = $%d", argIdx))
		args = append(args, int32(*filters.Playlist))
		argIdx++
	}

	if filters.PlayerID != "" {
		sb.WriteString(fmt.Sprintf(" AND EXISTS (SELECT 1 FROM replay_players rp WHERE rp.replay_id = r.id AND rp.player_id = $%d)", argIdx))
		args = append(args, filters.PlayerID)
		argIdx++
	}

	if len(filters.TagIDs) > 0 {
		sb.WriteString(fmt.Sprintf(
			" AND r.id IN (SELECT rt.replay_id FROM replay_tags rt WHERE rt.tag_id = ANY($%d) GROUP BY rt.replay_id HAVING COUNT(DISTINCT rt.tag_id) = $%d)",
			argIdx, argIdx+1))
		args = append(args, pq.Array(filters.TagIDs), len(uniqueIDs(filters.TagIDs)))
		argIdx += 2
	}

	if filters.Since != nil {
		sb.WriteString(fmt.Sprintf(" AND r.match_date >= $%d", argIdx))
		args = append(args, *filters.Since)
		argIdx++
	}

	if filters.Until != nil {
		sb.WriteString(fmt.Sprintf(" AND r.match_date < $%d", argIdx))
		args = append(args, *filters.Until)
		argIdx++
	}

	sb.WriteString(" ORDER BY r.match_date DESC, r.id")

	if filters.Limit > 0 {
		sb.WriteString(fmt.Sprintf(" LIMIT $%d", argIdx))
		args = append(args, filters.Limit)
		argIdx++
	}

	if filters.Offset > 0 {
		sb.WriteString(fmt.Sprintf(" OFFSET $%d", argIdx))
		args = append(args, filters.Offset)
	}

	return sb.String(), args
}

// GetTag retrieves an owner's tag by name, or nil when it does not exist
func (c *Client) GetTag(ctx context.Context, ownerID, name string) (*models.Tag, error) {
	return c.scanTag(c.db.QueryRowContext(ctx, `
		SELECT id, owner_id, name, private_key, created_at
		FROM tags
		WHERE owner_id = $1 AND name = $2
	`, ownerID, name))
}

// GetTagByPrivateKey retrieves a tag by its shareable key, or nil when none matches
func (c *Client) GetTagByPrivateKey(ctx context.Context, key string) (*models.Tag, error) {
	return c.scanTag(c.db.QueryRowContext(ctx, `
		SELECT id, owner_id, name, private_key, created_at
		FROM tags
		WHERE private_key = $1
	`, key))
}

// CreateTag creates a tag with a fresh private key
func (c *Client) CreateTag(ctx context.Context, ownerID, name string) (*models.Tag, error) {
	tag, err := c.scanTag(c.db.QueryRowContext(ctx, `
		INSERT INTO tags (owner_id, name, private_key, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, owner_id, name, private_key, created_at
	`, ownerID, name, uuid.NewString()))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrDuplicateTag
		}
		return nil, err
	}
	return tag, nil
}

// AddTagToReplay links a tag to a replay. Adding an existing link is a no-op
func (c *Client) AddTagToReplay(ctx context.Context, tagID int64, replayID string) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO replay_tags (tag_id, replay_id)
		VALUES ($1, $2)
		ON CONFLICT (tag_id, replay_id) DO NOTHING
	`, tagID, replayID)
	if err != nil {
		return fmt.Errorf("add tag to replay: %w", err)
	}
	return nil
}

// RemoveTagFromReplay unlinks a tag, reporting whether a link existed
func (c *Client) RemoveTagFromReplay(ctx context.Context, tagID int64, replayID string) (bool, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM replay_tags WHERE tag_id = $1 AND replay_id = $2`, tagID, replayID)
	if err != nil {
		return false, fmt.Errorf("remove tag from replay: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// Close closes the database connection
func (c *Client) Close() error {
	return c.db.Close()
}

// Ping checks database connectivity
func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *Client) scanTag(row *sql.Row) (*models.Tag, error) {
	var tag models.Tag
	err := row.Scan(&tag.ID, &tag.OwnerID, &tag.Name, &tag.PrivateKey, &tag.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan tag: %w", err)
	}
	return &tag, nil
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
