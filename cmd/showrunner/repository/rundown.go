package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/lumacast/showrunner/common/apperr"
	"github.com/lumacast/showrunner/common/db"
	"github.com/lumacast/showrunner/common/models"
)

// RundownRepository handles database operations for the rundown tree
type RundownRepository struct {
	db *db.DB
}

// NewRundownRepository creates a new rundown repository
func NewRundownRepository(database *db.DB) *RundownRepository {
	return &RundownRepository{db: database}
}

// CreateShow inserts a new show
func (r *RundownRepository) CreateShow(ctx context.Context, show *models.Show) error {
	query := `INSERT INTO shows (id, name, created_at) VALUES ($1, $2, $3)`

	_, err := r.db.Exec(ctx, query, show.ID, show.Name, show.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create show: %w", err)
	}
	return nil
}

// ListShows retrieves all shows
func (r *RundownRepository) ListShows(ctx context.Context) ([]*models.Show, error) {
	query := `SELECT id, name, created_at FROM shows ORDER BY created_at`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list shows: %w", err)
	}
	defer rows.Close()

	var shows []*models.Show
	for rows.Next() {
		show := &models.Show{}
		if err := rows.Scan(&show.ID, &show.Name, &show.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan show: %w", err)
		}
		shows = append(shows, show)
	}
	return shows, rows.Err()
}

// DeleteShow removes a show. The schema cascades through episodes,
// segments, groups and items unconditionally.
func (r *RundownRepository) DeleteShow(ctx context.Context, showID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM shows WHERE id = $1`, showID)
	if err != nil {
		return fmt.Errorf("failed to delete show: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("show", showID.String())
	}
	return nil
}

// CreateEpisode inserts a new episode
func (r *RundownRepository) CreateEpisode(ctx context.Context, episode *models.Episode) error {
	query := `INSERT INTO episodes (id, show_id, name, created_at) VALUES ($1, $2, $3, $4)`

	_, err := r.db.Exec(ctx, query, episode.ID, episode.ShowID, episode.Name, episode.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create episode: %w", err)
	}
	return nil
}

// ListEpisodes retrieves episodes for a show
func (r *RundownRepository) ListEpisodes(ctx context.Context, showID uuid.UUID) ([]*models.Episode, error) {
	query := `SELECT id, show_id, name, created_at FROM episodes WHERE show_id = $1 ORDER BY created_at`

	rows, err := r.db.Query(ctx, query, showID)
	if err != nil {
		return nil, fmt.Errorf("failed to list episodes: %w", err)
	}
	defer rows.Close()

	var episodes []*models.Episode
	for rows.Next() {
		episode := &models.Episode{}
		if err := rows.Scan(&episode.ID, &episode.ShowID, &episode.Name, &episode.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan episode: %w", err)
		}
		episodes = append(episodes, episode)
	}
	return episodes, rows.Err()
}

// DeleteEpisode removes an episode and its rundown subtree
func (r *RundownRepository) DeleteEpisode(ctx context.Context, episodeID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM episodes WHERE id = $1`, episodeID)
	if err != nil {
		return fmt.Errorf("failed to delete episode: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("episode", episodeID.String())
	}
	return nil
}

// CreateSegment appends a segment at position max+1 within the episode
func (r *RundownRepository) CreateSegment(ctx context.Context, episodeID uuid.UUID, name string) (*models.Segment, error) {
	query := `
		INSERT INTO rundown_segments (id, episode_id, name, position)
		VALUES ($1, $2, $3,
			(SELECT COALESCE(MAX(position), 0) + 1 FROM rundown_segments WHERE episode_id = $2))
		RETURNING position
	`

	segment := &models.Segment{
		ID:        uuid.New(),
		EpisodeID: episodeID,
		Name:      name,
	}
	if err := r.db.QueryRow(ctx, query, segment.ID, episodeID, name).Scan(&segment.Position); err != nil {
		return nil, fmt.Errorf("failed to create segment: %w", err)
	}
	return segment, nil
}

// CreateGroup appends a group at position max+1 within the segment
func (r *RundownRepository) CreateGroup(ctx context.Context, segmentID uuid.UUID, name string) (*models.Group, error) {
	query := `
		INSERT INTO rundown_groups (id, segment_id, name, position)
		VALUES ($1, $2, $3,
			(SELECT COALESCE(MAX(position), 0) + 1 FROM rundown_groups WHERE segment_id = $2))
		RETURNING position
	`

	group := &models.Group{
		ID:        uuid.New(),
		SegmentID: segmentID,
		Name:      name,
	}
	if err := r.db.QueryRow(ctx, query, group.ID, segmentID, name).Scan(&group.Position); err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}
	return group, nil
}

const itemColumns = `id, group_id, parent_item_id, type, title, data, position,
	automation_mode, automation_duration, use_media_duration,
	overlay_type, overlay_in_point, overlay_duration, overlay_automation, overlay_color_index,
	created_at, updated_at`

func scanItem(row pgx.Row) (*models.Item, error) {
	item := &models.Item{}
	err := row.Scan(
		&item.ID,
		&item.GroupID,
		&item.ParentItemID,
		&item.Type,
		&item.Title,
		&item.Data,
		&item.Position,
		&item.AutomationMode,
		&item.AutomationDuration,
		&item.UseMediaDuration,
		&item.OverlayType,
		&item.OverlayInPoint,
		&item.OverlayDuration,
		&item.OverlayAutomation,
		&item.OverlayColorIndex,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if item.Data == nil {
		item.Data = map[string]any{}
	}
	return item, nil
}

// CreateItem inserts a rundown item with the given (caller-assigned)
// position. Position appending is decided by the service layer.
func (r *RundownRepository) CreateItem(ctx context.Context, item *models.Item) error {
	query := `
		INSERT INTO rundown_items (
			id, group_id, parent_item_id, type, title, data, position,
			automation_mode, automation_duration, use_media_duration,
			overlay_type, overlay_in_point, overlay_duration, overlay_automation, overlay_color_index,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	_, err := r.db.Exec(ctx, query,
		item.ID,
		item.GroupID,
		item.ParentItemID,
		item.Type,
		item.Title,
		item.Data,
		item.Position,
		item.AutomationMode,
		item.AutomationDuration,
		item.UseMediaDuration,
		item.OverlayType,
		item.OverlayInPoint,
		item.OverlayDuration,
		item.OverlayAutomation,
		item.OverlayColorIndex,
		item.CreatedAt,
		item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}
	return nil
}

// GetItem retrieves one item by id
func (r *RundownRepository) GetItem(ctx context.Context, itemID uuid.UUID) (*models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM rundown_items WHERE id = $1`

	item, err := scanItem(r.db.QueryRow(ctx, query, itemID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("item", itemID.String())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return item, nil
}

// MaxItemPosition returns the highest position among items in a group
// (overlays excluded), or 0 when the group has none.
func (r *RundownRepository) MaxItemPosition(ctx context.Context, groupID uuid.UUID) (int, error) {
	var max int
	query := `SELECT COALESCE(MAX(position), 0) FROM rundown_items WHERE group_id = $1 AND parent_item_id IS NULL`
	if err := r.db.QueryRow(ctx, query, groupID).Scan(&max); err != nil {
		return 0, fmt.Errorf("failed to read max item position: %w", err)
	}
	return max, nil
}

// MaxOverlayPosition returns the highest position among a host item's
// overlay children, or 0 when it has none.
func (r *RundownRepository) MaxOverlayPosition(ctx context.Context, parentItemID uuid.UUID) (int, error) {
	var max int
	query := `SELECT COALESCE(MAX(position), 0) FROM rundown_items WHERE parent_item_id = $1`
	if err := r.db.QueryRow(ctx, query, parentItemID).Scan(&max); err != nil {
		return 0, fmt.Errorf("failed to read max overlay position: %w", err)
	}
	return max, nil
}

// CountChildren returns the number of overlay children on a host item
func (r *RundownRepository) CountChildren(ctx context.Context, itemID uuid.UUID) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM rundown_items WHERE parent_item_id = $1`
	if err := r.db.QueryRow(ctx, query, itemID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count children: %w", err)
	}
	return count, nil
}

// ListItems retrieves a group's items ordered by position. Overlay
// children are excluded unless includeChildren is set, in which case
// they are attached to their host items.
func (r *RundownRepository) ListItems(ctx context.Context, groupID uuid.UUID, includeChildren bool) ([]*models.Item, error) {
	query := `SELECT ` + itemColumns + `
		FROM rundown_items
		WHERE group_id = $1 AND parent_item_id IS NULL
		ORDER BY position`

	rows, err := r.db.Query(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	var items []*models.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating items: %w", err)
	}

	if includeChildren {
		if err := r.attachOverlays(ctx, items); err != nil {
			return nil, err
		}
	}

	return items, nil
}

// attachOverlays loads overlay children for the given host items
func (r *RundownRepository) attachOverlays(ctx context.Context, hosts []*models.Item) error {
	if len(hosts) == 0 {
		return nil
	}

	hostIDs := make([]uuid.UUID, 0, len(hosts))
	byID := make(map[uuid.UUID]*models.Item, len(hosts))
	for _, host := range hosts {
		hostIDs = append(hostIDs, host.ID)
		byID[host.ID] = host
	}

	query := `SELECT ` + itemColumns + `
		FROM rundown_items
		WHERE parent_item_id = ANY($1)
		ORDER BY position`

	rows, err := r.db.Query(ctx, query, hostIDs)
	if err != nil {
		return fmt.Errorf("failed to list overlays: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		overlay, err := scanItem(rows)
		if err != nil {
			return fmt.Errorf("failed to scan overlay: %w", err)
		}
		if host, ok := byID[*overlay.ParentItemID]; ok {
			host.Overlays = append(host.Overlays, overlay)
		}
	}
	return rows.Err()
}

// UpdatePosition sets the position of a segment, group or item
// directly. Positions are caller-trusted ordering keys; no compaction
// or uniqueness is enforced.
func (r *RundownRepository) UpdatePosition(ctx context.Context, table string, id uuid.UUID, position int) error {
	var query string
	switch table {
	case "segment":
		query = `UPDATE rundown_segments SET position = $2 WHERE id = $1`
	case "group":
		query = `UPDATE rundown_groups SET position = $2 WHERE id = $1`
	case "item":
		query = `UPDATE rundown_items SET position = $2, updated_at = now() WHERE id = $1`
	default:
		return &apperr.ValidationError{Field: "kind", Message: fmt.Sprintf("unknown entity kind %q", table)}
	}

	tag, err := r.db.Exec(ctx, query, id, position)
	if err != nil {
		return fmt.Errorf("failed to update position: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(table, id.String())
	}
	return nil
}

// Patchable rundown_items columns
var itemPatchColumns = map[string]bool{
	"title":               true,
	"data":                true,
	"position":            true,
	"automation_mode":     true,
	"automation_duration": true,
	"use_media_duration":  true,
	"overlay_type":        true,
	"overlay_in_point":    true,
	"overlay_duration":    true,
	"overlay_automation":  true,
	"overlay_color_index": true,
}

// PatchItem merges the supplied fields into an item. The data payload,
// when supplied, is merged shallowly with the existing payload: top
// level keys overlay, everything else is preserved.
func (r *RundownRepository) PatchItem(ctx context.Context, itemID uuid.UUID, fields map[string]any) (*models.Item, error) {
	for key := range fields {
		if !itemPatchColumns[key] {
			return nil, &apperr.ValidationError{Field: key, Message: "unknown item field"}
		}
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin patch: %w", err)
	}
	defer tx.Rollback(ctx)

	current, err := scanItem(tx.QueryRow(ctx, `SELECT `+itemColumns+` FROM rundown_items WHERE id = $1 FOR UPDATE`, itemID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("item", itemID.String())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load item for patch: %w", err)
	}

	setClauses := make([]string, 0, len(fields)+1)
	args := []any{itemID}

	for key, value := range fields {
		if key == "data" {
			patch, ok := value.(map[string]any)
			if !ok {
				return nil, &apperr.ValidationError{Field: "data", Message: "data must be an object"}
			}
			merged := current.Data
			if merged == nil {
				merged = map[string]any{}
			}
			for k, v := range patch {
				merged[k] = v
			}
			value = merged
		}
		args = append(args, value)
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", key, len(args)))
	}

	args = append(args, time.Now())
	setClauses = append(setClauses, fmt.Sprintf("updated_at = $%d", len(args)))

	query := `UPDATE rundown_items SET ` + strings.Join(setClauses, ", ") + ` WHERE id = $1`
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("failed to patch item: %w", err)
	}

	updated, err := scanItem(tx.QueryRow(ctx, `SELECT `+itemColumns+` FROM rundown_items WHERE id = $1`, itemID))
	if err != nil {
		return nil, fmt.Errorf("failed to reload patched item: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit patch: %w", err)
	}
	return updated, nil
}

// DeleteItem removes an item. Deleting a host with overlay children
// fails with a conflict (reporting the child count) unless cascade is
// set, in which case the children go in the same transaction.
func (r *RundownRepository) DeleteItem(ctx context.Context, itemID uuid.UUID, cascade bool) error {
	count, err := r.CountChildren(ctx, itemID)
	if err != nil {
		return err
	}
	if count > 0 && !cascade {
		return apperr.HasChildren("item", count)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin delete: %w", err)
	}
	defer tx.Rollback(ctx)

	if count > 0 {
		if _, err := tx.Exec(ctx, `DELETE FROM rundown_items WHERE parent_item_id = $1`, itemID); err != nil {
			return fmt.Errorf("failed to delete overlay children: %w", err)
		}
	}

	tag, err := tx.Exec(ctx, `DELETE FROM rundown_items WHERE id = $1`, itemID)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("item", itemID.String())
	}

	return tx.Commit(ctx)
}

// DeleteSegment removes a segment; the schema cascades the subtree
func (r *RundownRepository) DeleteSegment(ctx context.Context, segmentID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM rundown_segments WHERE id = $1`, segmentID)
	if err != nil {
		return fmt.Errorf("failed to delete segment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("segment", segmentID.String())
	}
	return nil
}

// DeleteGroup removes a group; the schema cascades its items
func (r *RundownRepository) DeleteGroup(ctx context.Context, groupID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM rundown_groups WHERE id = $1`, groupID)
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("group", groupID.String())
	}
	return nil
}

// FetchTree returns the full ordered rundown for an episode: segments
// by position, nested groups by position, nested items by position
// with overlay children attached to their hosts.
func (r *RundownRepository) FetchTree(ctx context.Context, episodeID uuid.UUID) ([]*models.Segment, error) {
	segRows, err := r.db.Query(ctx,
		`SELECT id, episode_id, name, position FROM rundown_segments WHERE episode_id = $1 ORDER BY position`,
		episodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch segments: %w", err)
	}
	defer segRows.Close()

	segments := []*models.Segment{}
	segByID := map[uuid.UUID]*models.Segment{}
	for segRows.Next() {
		segment := &models.Segment{}
		if err := segRows.Scan(&segment.ID, &segment.EpisodeID, &segment.Name, &segment.Position); err != nil {
			return nil, fmt.Errorf("failed to scan segment: %w", err)
		}
		segment.Groups = []*models.Group{}
		segments = append(segments, segment)
		segByID[segment.ID] = segment
	}
	if err := segRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating segments: %w", err)
	}
	if len(segments) == 0 {
		return segments, nil
	}

	groupRows, err := r.db.Query(ctx, `
		SELECT g.id, g.segment_id, g.name, g.position
		FROM rundown_groups g
		JOIN rundown_segments s ON s.id = g.segment_id
		WHERE s.episode_id = $1
		ORDER BY g.position`,
		episodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch groups: %w", err)
	}
	defer groupRows.Close()

	groupByID := map[uuid.UUID]*models.Group{}
	for groupRows.Next() {
		group := &models.Group{}
		if err := groupRows.Scan(&group.ID, &group.SegmentID, &group.Name, &group.Position); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		group.Items = []*models.Item{}
		groupByID[group.ID] = group
		if segment, ok := segByID[group.SegmentID]; ok {
			segment.Groups = append(segment.Groups, group)
		}
	}
	if err := groupRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating groups: %w", err)
	}

	itemRows, err := r.db.Query(ctx, `
		SELECT `+qualifyItemColumns("i")+`
		FROM rundown_items i
		JOIN rundown_groups g ON g.id = i.group_id
		JOIN rundown_segments s ON s.id = g.segment_id
		WHERE s.episode_id = $1
		ORDER BY i.position`,
		episodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch items: %w", err)
	}
	defer itemRows.Close()

	itemByID := map[uuid.UUID]*models.Item{}
	overlays := []*models.Item{}
	for itemRows.Next() {
		item, err := scanItem(itemRows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		if item.IsOverlay() {
			overlays = append(overlays, item)
			continue
		}
		itemByID[item.ID] = item
		if group, ok := groupByID[*item.GroupID]; ok {
			group.Items = append(group.Items, item)
		}
	}
	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating items: %w", err)
	}

	for _, overlay := range overlays {
		if host, ok := itemByID[*overlay.ParentItemID]; ok {
			host.Overlays = append(host.Overlays, overlay)
		}
	}

	return segments, nil
}

func qualifyItemColumns(alias string) string {
	return alias + `.id, ` + alias + `.group_id, ` + alias + `.parent_item_id, ` +
		alias + `.type, ` + alias + `.title, ` + alias + `.data, ` + alias + `.position, ` +
		alias + `.automation_mode, ` + alias + `.automation_duration, ` + alias + `.use_media_duration, ` +
		alias + `.overlay_type, ` + alias + `.overlay_in_point, ` + alias + `.overlay_duration, ` +
		alias + `.overlay_automation, ` + alias + `.overlay_color_index, ` +
		alias + `.created_at, ` + alias + `.updated_at`
}
