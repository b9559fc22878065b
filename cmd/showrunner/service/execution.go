package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/lumacast/showrunner/common/apperr"
	"github.com/lumacast/showrunner/common/logger"
	"github.com/lumacast/showrunner/common/models"
	"github.com/lumacast/showrunner/common/queue"
)

// TopicExecutionUpdated carries execution state change events to
// in-process subscribers
const TopicExecutionUpdated = "execution.updated"

// ExecutionStore is the persistence surface for execution state
type ExecutionStore interface {
	Get(ctx context.Context, episodeID uuid.UUID) (*models.ExecutionState, error)
	GetOrCreate(ctx context.Context, episodeID uuid.UUID) (*models.ExecutionState, error)
	Patch(ctx context.Context, episodeID uuid.UUID, patch models.StatePatch) (*models.ExecutionState, error)
	Delete(ctx context.Context, episodeID uuid.UUID) (int64, error)
}

// ExecutionService owns the per-episode on-air state machine. All
// writes for an episode are serialized through a keyed mutex so
// concurrent patches cannot interleave their read-modify-write cycles.
type ExecutionService struct {
	store ExecutionStore
	queue queue.Queue
	log   *logger.Logger
	locks *keyedMutex
}

// NewExecutionService creates an execution service. q may be nil when
// no subscriber cares about state events.
func NewExecutionService(store ExecutionStore, q queue.Queue, log *logger.Logger) *ExecutionService {
	return &ExecutionService{
		store: store,
		queue: q,
		log:   log,
		locks: newKeyedMutex(),
	}
}

// Read returns the episode's execution state, creating the default
// row on first access
func (s *ExecutionService) Read(ctx context.Context, episodeID uuid.UUID) (*models.ExecutionState, error) {
	return s.store.GetOrCreate(ctx, episodeID)
}

// Update applies a partial state patch. Only keys present in the patch
// are written; explicit nulls clear their columns.
func (s *ExecutionService) Update(ctx context.Context, episodeID uuid.UUID, patch models.StatePatch) (*models.ExecutionState, error) {
	if len(patch) == 0 {
		return s.store.GetOrCreate(ctx, episodeID)
	}
	if err := patch.Validate(); err != nil {
		return nil, &apperr.ValidationError{Field: "patch", Message: err.Error()}
	}

	unlock := s.locks.lock(episodeID.String())
	defer unlock()

	if _, err := s.store.GetOrCreate(ctx, episodeID); err != nil {
		return nil, err
	}
	state, err := s.store.Patch(ctx, episodeID, patch)
	if err != nil {
		return nil, err
	}

	s.publishUpdated(ctx, state)
	return state, nil
}

// Pause freezes the live countdown, recording when and how much time
// was left. Fails with NotFound when the episode has no state row yet.
func (s *ExecutionService) Pause(ctx context.Context, episodeID uuid.UUID, remaining *float64) (*models.ExecutionState, error) {
	now := time.Now()
	return s.patchExisting(ctx, episodeID, models.StatePatch{
		"is_paused":      true,
		"paused_at":      &now,
		"remaining_time": remaining,
	})
}

// Resume clears the paused state. Fails with NotFound when the episode
// has no state row yet.
func (s *ExecutionService) Resume(ctx context.Context, episodeID uuid.UUID) (*models.ExecutionState, error) {
	return s.patchExisting(ctx, episodeID, models.StatePatch{
		"is_paused":      false,
		"paused_at":      nil,
		"remaining_time": nil,
	})
}

// patchExisting applies a patch only when a state row already exists;
// an episode that was never read gets NotFound instead of a synthesized
// row.
func (s *ExecutionService) patchExisting(ctx context.Context, episodeID uuid.UUID, patch models.StatePatch) (*models.ExecutionState, error) {
	unlock := s.locks.lock(episodeID.String())
	defer unlock()

	if _, err := s.store.Get(ctx, episodeID); err != nil {
		return nil, err
	}
	state, err := s.store.Patch(ctx, episodeID, patch)
	if err != nil {
		return nil, err
	}

	s.publishUpdated(ctx, state)
	return state, nil
}

// AddOverlay appends an overlay to the on-air set with its start time
// stamped server-side. Fails with NotFound when the episode has no
// state row yet.
func (s *ExecutionService) AddOverlay(ctx context.Context, episodeID uuid.UUID, overlay models.ActiveOverlay) (*models.ExecutionState, error) {
	if overlay.ID == "" {
		return nil, apperr.MissingField("id")
	}
	overlay.StartTime = time.Now()

	unlock := s.locks.lock(episodeID.String())
	defer unlock()

	state, err := s.store.Get(ctx, episodeID)
	if err != nil {
		return nil, err
	}

	overlays := append(append([]models.ActiveOverlay{}, state.ActiveOverlays...), overlay)
	state, err = s.store.Patch(ctx, episodeID, models.StatePatch{
		"active_overlays": overlays,
	})
	if err != nil {
		return nil, err
	}

	s.publishUpdated(ctx, state)
	return state, nil
}

// RemoveOverlay drops the overlay with the given id from the on-air
// set. Removing an absent id is a no-op.
func (s *ExecutionService) RemoveOverlay(ctx context.Context, episodeID uuid.UUID, overlayID string) (*models.ExecutionState, error) {
	if overlayID == "" {
		return nil, apperr.MissingField("id")
	}

	unlock := s.locks.lock(episodeID.String())
	defer unlock()

	state, err := s.store.GetOrCreate(ctx, episodeID)
	if err != nil {
		return nil, err
	}

	remaining := make([]models.ActiveOverlay, 0, len(state.ActiveOverlays))
	for _, overlay := range state.ActiveOverlays {
		if overlay.ID != overlayID {
			remaining = append(remaining, overlay)
		}
	}
	if len(remaining) == len(state.ActiveOverlays) {
		return state, nil
	}

	state, err = s.store.Patch(ctx, episodeID, models.StatePatch{
		"active_overlays": remaining,
	})
	if err != nil {
		return nil, err
	}

	s.publishUpdated(ctx, state)
	return state, nil
}

// ClearOverlays empties the on-air overlay set
func (s *ExecutionService) ClearOverlays(ctx context.Context, episodeID uuid.UUID) (*models.ExecutionState, error) {
	unlock := s.locks.lock(episodeID.String())
	defer unlock()

	if _, err := s.store.GetOrCreate(ctx, episodeID); err != nil {
		return nil, err
	}
	state, err := s.store.Patch(ctx, episodeID, models.StatePatch{
		"active_overlays": []models.ActiveOverlay{},
	})
	if err != nil {
		return nil, err
	}

	s.publishUpdated(ctx, state)
	return state, nil
}

// Reset deletes the episode's execution state so the next read
// synthesizes a fresh default. Returns the number of rows removed.
func (s *ExecutionService) Reset(ctx context.Context, episodeID uuid.UUID) (int64, error) {
	unlock := s.locks.lock(episodeID.String())
	defer unlock()

	deleted, err := s.store.Delete(ctx, episodeID)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.log.Info("execution state reset", "episode_id", episodeID, "deleted", deleted)
	}
	return deleted, nil
}

func (s *ExecutionService) publishUpdated(ctx context.Context, state *models.ExecutionState) {
	if s.queue == nil {
		return
	}
	payload, err := json.Marshal(state)
	if err != nil {
		s.log.Error("failed to marshal execution event", "error", err)
		return
	}
	if err := s.queue.Publish(ctx, TopicExecutionUpdated, state.EpisodeID.String(), payload); err != nil {
		s.log.Warn("failed to publish execution event", "error", err)
	}
}
