package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lumacast/showrunner/common/apperr"
	"github.com/lumacast/showrunner/common/logger"
	"github.com/lumacast/showrunner/common/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeExecutionStore keeps execution state in memory, applying patches
// with the same column semantics as the SQL path
type fakeExecutionStore struct {
	mu     sync.Mutex
	states map[uuid.UUID]*models.ExecutionState
}

func newFakeExecutionStore() *fakeExecutionStore {
	return &fakeExecutionStore{states: make(map[uuid.UUID]*models.ExecutionState)}
}

func (f *fakeExecutionStore) Get(ctx context.Context, episodeID uuid.UUID) (*models.ExecutionState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	state, ok := f.states[episodeID]
	if !ok {
		return nil, apperr.NotFound("execution state", episodeID.String())
	}
	copied := *state
	return &copied, nil
}

func (f *fakeExecutionStore) GetOrCreate(ctx context.Context, episodeID uuid.UUID) (*models.ExecutionState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	state, ok := f.states[episodeID]
	if !ok {
		state = models.NewExecutionState(episodeID)
		f.states[episodeID] = state
	}
	copied := *state
	return &copied, nil
}

func (f *fakeExecutionStore) Patch(ctx context.Context, episodeID uuid.UUID, patch models.StatePatch) (*models.ExecutionState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	state, ok := f.states[episodeID]
	if !ok {
		return nil, apperr.NotFound("execution state", episodeID.String())
	}
	if err := state.Apply(patch); err != nil {
		return nil, err
	}
	copied := *state
	return &copied, nil
}

func (f *fakeExecutionStore) Delete(ctx context.Context, episodeID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.states[episodeID]; !ok {
		return 0, nil
	}
	delete(f.states, episodeID)
	return 1, nil
}

func newTestExecution() (*ExecutionService, *fakeExecutionStore) {
	store := newFakeExecutionStore()
	return NewExecutionService(store, nil, logger.New("error", "text")), store
}

func TestExecutionRead_CreatesDefaultState(t *testing.T) {
	svc, _ := newTestExecution()
	episodeID := uuid.New()

	state, err := svc.Read(context.Background(), episodeID)
	require.NoError(t, err)

	assert.Equal(t, episodeID, state.EpisodeID)
	assert.False(t, state.IsPaused)
	assert.Nil(t, state.LiveItemID)
	assert.NotNil(t, state.ActiveOverlays)
	assert.Empty(t, state.ActiveOverlays)
}

func TestExecutionUpdate_PartialPatch(t *testing.T) {
	svc, _ := newTestExecution()
	episodeID := uuid.New()
	liveID := uuid.New()
	nextID := uuid.New()

	state, err := svc.Update(context.Background(), episodeID, models.StatePatch{
		"live_item_id": liveID,
		"next_item_id": nextID,
	})
	require.NoError(t, err)
	require.NotNil(t, state.LiveItemID)
	assert.Equal(t, liveID, *state.LiveItemID)

	// Patching one field leaves the others alone
	state, err = svc.Update(context.Background(), episodeID, models.StatePatch{
		"next_item_id": nil,
	})
	require.NoError(t, err)
	assert.Nil(t, state.NextItemID)
	require.NotNil(t, state.LiveItemID)
	assert.Equal(t, liveID, *state.LiveItemID)
}

func TestExecutionUpdate_RejectsUnknownField(t *testing.T) {
	svc, _ := newTestExecution()

	_, err := svc.Update(context.Background(), uuid.New(), models.StatePatch{
		"no_such_column": 1,
	})
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
}

func TestExecutionPauseResume(t *testing.T) {
	svc, _ := newTestExecution()
	episodeID := uuid.New()
	remaining := 42.5

	_, err := svc.Read(context.Background(), episodeID)
	require.NoError(t, err)

	state, err := svc.Pause(context.Background(), episodeID, &remaining)
	require.NoError(t, err)
	assert.True(t, state.IsPaused)
	require.NotNil(t, state.PausedAt)
	assert.WithinDuration(t, time.Now(), *state.PausedAt, 5*time.Second)
	require.NotNil(t, state.RemainingTime)
	assert.Equal(t, 42.5, *state.RemainingTime)

	state, err = svc.Resume(context.Background(), episodeID)
	require.NoError(t, err)
	assert.False(t, state.IsPaused)
	assert.Nil(t, state.PausedAt)
	assert.Nil(t, state.RemainingTime)
}

func TestExecutionPauseResume_RequireExistingState(t *testing.T) {
	svc, store := newTestExecution()
	episodeID := uuid.New()
	remaining := 30.0

	// No state row yet: pause, resume and overlay add all refuse to
	// synthesize one
	_, err := svc.Pause(context.Background(), episodeID, &remaining)
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))

	_, err = svc.Resume(context.Background(), episodeID)
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))

	_, err = svc.AddOverlay(context.Background(), episodeID, models.ActiveOverlay{ID: "bug-1"})
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))

	_, err = store.Get(context.Background(), episodeID)
	assert.True(t, apperr.IsNotFound(err), "failed calls must not create a row")

	// After the first read the same calls succeed
	_, err = svc.Read(context.Background(), episodeID)
	require.NoError(t, err)

	state, err := svc.Pause(context.Background(), episodeID, &remaining)
	require.NoError(t, err)
	assert.True(t, state.IsPaused)
}

func TestExecutionOverlays_AddRemoveClear(t *testing.T) {
	svc, _ := newTestExecution()
	episodeID := uuid.New()

	_, err := svc.Read(context.Background(), episodeID)
	require.NoError(t, err)

	state, err := svc.AddOverlay(context.Background(), episodeID, models.ActiveOverlay{
		ID:      "lower-third-1",
		Type:    "lowerthird",
		Payload: map[string]any{"name": "Jane Doe"},
	})
	require.NoError(t, err)
	require.Len(t, state.ActiveOverlays, 1)
	assert.False(t, state.ActiveOverlays[0].StartTime.IsZero(), "start time is stamped server-side")

	state, err = svc.AddOverlay(context.Background(), episodeID, models.ActiveOverlay{ID: "bug-1"})
	require.NoError(t, err)
	require.Len(t, state.ActiveOverlays, 2)

	// Removing an absent id is a no-op
	state, err = svc.RemoveOverlay(context.Background(), episodeID, "ghost")
	require.NoError(t, err)
	assert.Len(t, state.ActiveOverlays, 2)

	state, err = svc.RemoveOverlay(context.Background(), episodeID, "lower-third-1")
	require.NoError(t, err)
	require.Len(t, state.ActiveOverlays, 1)
	assert.Equal(t, "bug-1", state.ActiveOverlays[0].ID)

	state, err = svc.ClearOverlays(context.Background(), episodeID)
	require.NoError(t, err)
	assert.Empty(t, state.ActiveOverlays)
}

func TestExecutionAddOverlay_RequiresID(t *testing.T) {
	svc, _ := newTestExecution()

	_, err := svc.AddOverlay(context.Background(), uuid.New(), models.ActiveOverlay{})
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
}

func TestExecutionReset(t *testing.T) {
	svc, _ := newTestExecution()
	episodeID := uuid.New()
	liveID := uuid.New()

	_, err := svc.Update(context.Background(), episodeID, models.StatePatch{"live_item_id": liveID})
	require.NoError(t, err)

	deleted, err := svc.Reset(context.Background(), episodeID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	// Resetting again removes nothing
	deleted, err = svc.Reset(context.Background(), episodeID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), deleted)

	// Next read synthesizes a fresh default
	state, err := svc.Read(context.Background(), episodeID)
	require.NoError(t, err)
	assert.Nil(t, state.LiveItemID)
}

func TestExecutionUpdate_ConcurrentWritesSerialize(t *testing.T) {
	svc, store := newTestExecution()
	episodeID := uuid.New()

	_, err := svc.Read(context.Background(), episodeID)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := svc.AddOverlay(context.Background(), episodeID, models.ActiveOverlay{
				ID: uuid.NewString(),
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	state, err := store.Get(context.Background(), episodeID)
	require.NoError(t, err)
	assert.Len(t, state.ActiveOverlays, 20, "every concurrent append must land")
}
