package database

import (
	"fmt"
	"log/slog"

	"gorm.io/gorm"
)

type index struct {
	table   string
	name    string
	columns string
}

// secondaryIndexes are lookups not covered by primary keys or struct tags.
var secondaryIndexes = []index{
	// Trips a user belongs to
	{"trip_members", "idx_trip_members_user_id", "user_id"},

	// Voter sets per option
	{"poll_votes", "idx_poll_votes_poll_option", "poll_id, option_index"},

	// Newest-first listings
	{"polls", "idx_polls_trip_created", "trip_id, created_at"},
	{"gallery_items", "idx_gallery_items_trip_created", "trip_id, created_at"},
}

// AddIndexes creates the secondary indexes that do not exist yet.
func AddIndexes(db *gorm.DB) error {
	migrator := db.Migrator()

	for _, idx := range secondaryIndexes {
		if migrator.HasIndex(idx.table, idx.name) {
			slog.Debug("index already exists, skipping", "index", idx.name)
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		slog.Info("created index", "index", idx.name, "table", idx.table, "columns", idx.columns)
	}

	return nil
}
