package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// Expected table layout:
//
//	CREATE TABLE sticky_messages (
//	    channel_id TEXT PRIMARY KEY,
//	    message_id TEXT NOT NULL,
//	    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
//	);

// StickyStateRow is one persisted channel-to-message binding.
type StickyStateRow struct {
	ChannelID string    `db:"channel_id"`
	MessageID string    `db:"message_id"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Column names for sticky_messages table
var stickyStateColumns = []string{
	"channel_id",
	"message_id",
	"updated_at",
}

type PostgresStickyStateRepository struct {
	db     *sqlx.DB
	schema string
}

func NewPostgresStickyStateRepository(db *sqlx.DB, schema string) *PostgresStickyStateRepository {
	return &PostgresStickyStateRepository{db: db, schema: schema}
}

// LoadMapping returns the full channel-to-message-id mapping. An empty table
// is not an error; all channels simply start without a sticky.
func (r *PostgresStickyStateRepository) LoadMapping(ctx context.Context) (map[string]string, error) {
	columnsStr := strings.Join(stickyStateColumns, ", ")
	query := fmt.Sprintf(`SELECT %s FROM %s.sticky_messages`, columnsStr, r.schema)

	var rows []StickyStateRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to load sticky state: %w", err)
	}

	mapping := make(map[string]string, len(rows))
	for _, row := range rows {
		mapping[row.ChannelID] = row.MessageID
	}
	return mapping, nil
}

// SaveMapping rewrites the stored mapping in full, inside one transaction.
// Channels absent from the mapping lose their rows, matching the file store's
// full-document rewrite semantics.
func (r *PostgresStickyStateRepository) SaveMapping(ctx context.Context, mapping map[string]string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin sticky state transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	deleteQuery := fmt.Sprintf(`DELETE FROM %s.sticky_messages`, r.schema)
	if _, err := tx.ExecContext(ctx, deleteQuery); err != nil {
		return fmt.Errorf("failed to clear sticky state: %w", err)
	}

	insertQuery := fmt.Sprintf(`
		INSERT INTO %s.sticky_messages (channel_id, message_id, updated_at)
		VALUES ($1, $2, NOW())
	`, r.schema)

	for channelID, messageID := range mapping {
		if _, err := tx.ExecContext(ctx, insertQuery, channelID, messageID); err != nil {
			return fmt.Errorf("failed to insert sticky state for channel %s: %w", channelID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit sticky state: %w", err)
	}
	return nil
}
