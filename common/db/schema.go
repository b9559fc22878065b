package db

import (
	"context"
	"fmt"
)

// Schema statements are idempotent so the init hook can run on every boot.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS shows (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS episodes (
		id UUID PRIMARY KEY,
		show_id UUID NOT NULL REFERENCES shows(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS rundown_segments (
		id UUID PRIMARY KEY,
		episode_id UUID NOT NULL REFERENCES episodes(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		position INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS rundown_groups (
		id UUID PRIMARY KEY,
		segment_id UUID NOT NULL REFERENCES rundown_segments(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		position INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS rundown_items (
		id UUID PRIMARY KEY,
		group_id UUID REFERENCES rundown_groups(id) ON DELETE CASCADE,
		parent_item_id UUID REFERENCES rundown_items(id),
		type TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		data JSONB NOT NULL DEFAULT '{}',
		position INTEGER NOT NULL DEFAULT 0,
		automation_mode TEXT NOT NULL DEFAULT 'manual',
		automation_duration DOUBLE PRECISION,
		use_media_duration BOOLEAN NOT NULL DEFAULT false,
		overlay_type TEXT,
		overlay_in_point DOUBLE PRECISION,
		overlay_duration DOUBLE PRECISION,
		overlay_automation TEXT,
		overlay_color_index INTEGER,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_rundown_items_group ON rundown_items(group_id)`,
	`CREATE INDEX IF NOT EXISTS idx_rundown_items_parent ON rundown_items(parent_item_id)`,
	`CREATE TABLE IF NOT EXISTS execution_state (
		id BIGSERIAL PRIMARY KEY,
		episode_id UUID NOT NULL UNIQUE,
		live_item_id UUID,
		preview_item_id UUID,
		next_item_id UUID,
		is_paused BOOLEAN NOT NULL DEFAULT false,
		paused_at TIMESTAMPTZ,
		remaining_time DOUBLE PRECISION,
		armed_transition TEXT,
		armed_manual_item_id UUID,
		current_manual_block_id UUID,
		active_overlays JSONB NOT NULL DEFAULT '[]',
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// InitSchema creates the showrunner tables if they do not exist.
// Intended to run through the bootstrap DB init hook.
func InitSchema(database *DB) error {
	ctx := context.Background()

	for _, stmt := range schemaStatements {
		if _, err := database.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement: %w", err)
		}
	}

	database.log.Info("database schema ready")
	return nil
}
