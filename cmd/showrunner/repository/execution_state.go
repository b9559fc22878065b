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

// ExecutionStateRepository handles database operations for per-episode
// execution state
type ExecutionStateRepository struct {
	db *db.DB
}

// NewExecutionStateRepository creates a new execution state repository
func NewExecutionStateRepository(database *db.DB) *ExecutionStateRepository {
	return &ExecutionStateRepository{db: database}
}

const stateColumns = `id, episode_id, live_item_id, preview_item_id, next_item_id,
	is_paused, paused_at, remaining_time,
	armed_transition, armed_manual_item_id, current_manual_block_id,
	active_overlays, updated_at`

func scanState(row pgx.Row) (*models.ExecutionState, error) {
	state := &models.ExecutionState{}
	err := row.Scan(
		&state.ID,
		&state.EpisodeID,
		&state.LiveItemID,
		&state.PreviewItemID,
		&state.NextItemID,
		&state.IsPaused,
		&state.PausedAt,
		&state.RemainingTime,
		&state.ArmedTransition,
		&state.ArmedManualItemID,
		&state.CurrentManualBlockID,
		&state.ActiveOverlays,
		&state.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if state.ActiveOverlays == nil {
		state.ActiveOverlays = []models.ActiveOverlay{}
	}
	return state, nil
}

// Get retrieves the state row for an episode, newest first
func (r *ExecutionStateRepository) Get(ctx context.Context, episodeID uuid.UUID) (*models.ExecutionState, error) {
	query := `SELECT ` + stateColumns + ` FROM execution_state WHERE episode_id = $1 ORDER BY id DESC LIMIT 1`

	state, err := scanState(r.db.QueryRow(ctx, query, episodeID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("execution state", episodeID.String())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get execution state: %w", err)
	}
	return state, nil
}

// GetOrCreate returns the state row for an episode, synthesizing and
// persisting the default (not paused, empty overlay set) when no row
// exists yet.
func (r *ExecutionStateRepository) GetOrCreate(ctx context.Context, episodeID uuid.UUID) (*models.ExecutionState, error) {
	state, err := r.Get(ctx, episodeID)
	if err == nil {
		return state, nil
	}
	if !apperr.IsNotFound(err) {
		return nil, err
	}

	fresh := models.NewExecutionState(episodeID)
	query := `
		INSERT INTO execution_state (episode_id, is_paused, active_overlays, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (episode_id) DO NOTHING
	`
	if _, err := r.db.Exec(ctx, query, episodeID, fresh.IsPaused, fresh.ActiveOverlays, fresh.UpdatedAt); err != nil {
		return nil, fmt.Errorf("failed to create execution state: %w", err)
	}

	// Re-read: a concurrent creator may have won the insert
	return r.Get(ctx, episodeID)
}

// Patch writes only the supplied fields, stamping updated_at, and
// returns the resulting state. Fails with NotFound when no row exists.
func (r *ExecutionStateRepository) Patch(ctx context.Context, episodeID uuid.UUID, patch models.StatePatch) (*models.ExecutionState, error) {
	normalized, err := patch.Normalize()
	if err != nil {
		return nil, &apperr.ValidationError{Message: err.Error()}
	}

	setClauses := make([]string, 0, len(normalized)+1)
	args := []any{episodeID}

	for _, field := range normalized.Fields() {
		args = append(args, normalized[field])
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", field, len(args)))
	}

	args = append(args, time.Now())
	setClauses = append(setClauses, fmt.Sprintf("updated_at = $%d", len(args)))

	query := `UPDATE execution_state SET ` + strings.Join(setClauses, ", ") + ` WHERE episode_id = $1`
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to patch execution state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, apperr.NotFound("execution state", episodeID.String())
	}

	return r.Get(ctx, episodeID)
}

// Delete removes the state row, reporting how many rows went (0 or 1).
// A subsequent read re-creates defaults.
func (r *ExecutionStateRepository) Delete(ctx context.Context, episodeID uuid.UUID) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM execution_state WHERE episode_id = $1`, episodeID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete execution state: %w", err)
	}
	return tag.RowsAffected(), nil
}
