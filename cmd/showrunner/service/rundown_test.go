package service

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/lumacast/showrunner/common/apperr"
	"github.com/lumacast/showrunner/common/logger"
	"github.com/lumacast/showrunner/common/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRundownStore backs the rundown service with in-memory maps. Only
// the behavior the service depends on is modeled: position queries,
// overlay filtering and child counting.
type fakeRundownStore struct {
	mu       sync.Mutex
	shows    map[uuid.UUID]*models.Show
	episodes map[uuid.UUID]*models.Episode
	segments map[uuid.UUID]*models.Segment
	groups   map[uuid.UUID]*models.Group
	items    map[uuid.UUID]*models.Item
}

func newFakeRundownStore() *fakeRundownStore {
	return &fakeRundownStore{
		shows:    map[uuid.UUID]*models.Show{},
		episodes: map[uuid.UUID]*models.Episode{},
		segments: map[uuid.UUID]*models.Segment{},
		groups:   map[uuid.UUID]*models.Group{},
		items:    map[uuid.UUID]*models.Item{},
	}
}

func (f *fakeRundownStore) CreateShow(ctx context.Context, show *models.Show) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shows[show.ID] = show
	return nil
}

func (f *fakeRundownStore) ListShows(ctx context.Context) ([]*models.Show, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	shows := []*models.Show{}
	for _, show := range f.shows {
		shows = append(shows, show)
	}
	return shows, nil
}

func (f *fakeRundownStore) DeleteShow(ctx context.Context, showID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.shows, showID)
	return nil
}

func (f *fakeRundownStore) CreateEpisode(ctx context.Context, episode *models.Episode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.episodes[episode.ID] = episode
	return nil
}

func (f *fakeRundownStore) ListEpisodes(ctx context.Context, showID uuid.UUID) ([]*models.Episode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	episodes := []*models.Episode{}
	for _, episode := range f.episodes {
		if episode.ShowID == showID {
			episodes = append(episodes, episode)
		}
	}
	return episodes, nil
}

func (f *fakeRundownStore) DeleteEpisode(ctx context.Context, episodeID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.episodes, episodeID)
	return nil
}

func (f *fakeRundownStore) CreateSegment(ctx context.Context, episodeID uuid.UUID, name string) (*models.Segment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	position := 0
	for _, segment := range f.segments {
		if segment.EpisodeID == episodeID && segment.Position > position {
			position = segment.Position
		}
	}
	segment := &models.Segment{ID: uuid.New(), EpisodeID: episodeID, Name: name, Position: position + 1}
	f.segments[segment.ID] = segment
	return segment, nil
}

func (f *fakeRundownStore) CreateGroup(ctx context.Context, segmentID uuid.UUID, name string) (*models.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	position := 0
	for _, group := range f.groups {
		if group.SegmentID == segmentID && group.Position > position {
			position = group.Position
		}
	}
	group := &models.Group{ID: uuid.New(), SegmentID: segmentID, Name: name, Position: position + 1}
	f.groups[group.ID] = group
	return group, nil
}

func (f *fakeRundownStore) DeleteSegment(ctx context.Context, segmentID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.segments, segmentID)
	return nil
}

func (f *fakeRundownStore) DeleteGroup(ctx context.Context, groupID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.groups, groupID)
	return nil
}

func (f *fakeRundownStore) CreateItem(ctx context.Context, item *models.Item) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[item.ID] = item
	return nil
}

func (f *fakeRundownStore) GetItem(ctx context.Context, itemID uuid.UUID) (*models.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[itemID]
	if !ok {
		return nil, apperr.NotFound("item", itemID.String())
	}
	return item, nil
}

func (f *fakeRundownStore) ListItems(ctx context.Context, groupID uuid.UUID, includeChildren bool) ([]*models.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := []*models.Item{}
	for _, item := range f.items {
		if item.GroupID == nil || *item.GroupID != groupID {
			continue
		}
		if item.IsOverlay() && !includeChildren {
			continue
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Position < items[j].Position })
	return items, nil
}

func (f *fakeRundownStore) MaxItemPosition(ctx context.Context, groupID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	max := 0
	for _, item := range f.items {
		if item.GroupID != nil && *item.GroupID == groupID && !item.IsOverlay() && item.Position > max {
			max = item.Position
		}
	}
	return max, nil
}

func (f *fakeRundownStore) MaxOverlayPosition(ctx context.Context, parentItemID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	max := 0
	for _, item := range f.items {
		if item.ParentItemID != nil && *item.ParentItemID == parentItemID && item.Position > max {
			max = item.Position
		}
	}
	return max, nil
}

func (f *fakeRundownStore) CountChildren(ctx context.Context, itemID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, item := range f.items {
		if item.ParentItemID != nil && *item.ParentItemID == itemID {
			count++
		}
	}
	return count, nil
}

func (f *fakeRundownStore) PatchItem(ctx context.Context, itemID uuid.UUID, fields map[string]any) (*models.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[itemID]
	if !ok {
		return nil, apperr.NotFound("item", itemID.String())
	}
	if title, ok := fields["title"].(string); ok {
		item.Title = title
	}
	if data, ok := fields["data"].(map[string]any); ok {
		if item.Data == nil {
			item.Data = map[string]any{}
		}
		for k, v := range data {
			item.Data[k] = v
		}
	}
	return item, nil
}

func (f *fakeRundownStore) DeleteItem(ctx context.Context, itemID uuid.UUID, cascade bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[itemID]; !ok {
		return apperr.NotFound("item", itemID.String())
	}
	children := []uuid.UUID{}
	for id, item := range f.items {
		if item.ParentItemID != nil && *item.ParentItemID == itemID {
			children = append(children, id)
		}
	}
	if len(children) > 0 && !cascade {
		return apperr.HasChildren("item", len(children))
	}
	for _, id := range children {
		delete(f.items, id)
	}
	delete(f.items, itemID)
	return nil
}

func (f *fakeRundownStore) UpdatePosition(ctx context.Context, table string, id uuid.UUID, position int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch table {
	case "segment":
		if segment, ok := f.segments[id]; ok {
			segment.Position = position
			return nil
		}
	case "group":
		if group, ok := f.groups[id]; ok {
			group.Position = position
			return nil
		}
	case "item":
		if item, ok := f.items[id]; ok {
			item.Position = position
			return nil
		}
	}
	return apperr.NotFound(table, id.String())
}

func (f *fakeRundownStore) FetchTree(ctx context.Context, episodeID uuid.UUID) ([]*models.Segment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	segments := []*models.Segment{}
	for _, segment := range f.segments {
		if segment.EpisodeID == episodeID {
			segments = append(segments, segment)
		}
	}
	sort.Slice(segments, func(i, j int) bool { return segments[i].Position < segments[j].Position })
	return segments, nil
}

func newTestRundown() (*RundownService, *fakeRundownStore) {
	store := newFakeRundownStore()
	return NewRundownService(store, logger.New("error", "text")), store
}

func TestCreateItem_RequiresType(t *testing.T) {
	svc, _ := newTestRundown()
	groupID := uuid.New()

	_, err := svc.CreateItem(context.Background(), &CreateItemRequest{GroupID: &groupID})
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
}

func TestCreateItem_RequiresExactlyOneAnchor(t *testing.T) {
	svc, _ := newTestRundown()
	groupID := uuid.New()
	parentID := uuid.New()

	_, err := svc.CreateItem(context.Background(), &CreateItemRequest{Type: models.ItemTypeGraphics})
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))

	_, err = svc.CreateItem(context.Background(), &CreateItemRequest{
		Type:         models.ItemTypeGraphics,
		GroupID:      &groupID,
		ParentItemID: &parentID,
	})
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
}

func TestCreateItem_AppendsPosition(t *testing.T) {
	svc, _ := newTestRundown()
	groupID := uuid.New()

	first, err := svc.CreateItem(context.Background(), &CreateItemRequest{
		GroupID: &groupID,
		Type:    models.ItemTypeVideo,
		Title:   "Opening package",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Position)

	second, err := svc.CreateItem(context.Background(), &CreateItemRequest{
		GroupID: &groupID,
		Type:    models.ItemTypeGraphics,
		Title:   "Headline",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, second.Position)

	// Explicit position wins over append
	pinned := 10
	third, err := svc.CreateItem(context.Background(), &CreateItemRequest{
		GroupID:  &groupID,
		Type:     models.ItemTypeAudio,
		Position: &pinned,
	})
	require.NoError(t, err)
	assert.Equal(t, 10, third.Position)
}

func TestAttachOverlay_InheritsParentGroup(t *testing.T) {
	svc, _ := newTestRundown()
	groupID := uuid.New()

	host, err := svc.CreateItem(context.Background(), &CreateItemRequest{
		GroupID: &groupID,
		Type:    models.ItemTypeVideo,
	})
	require.NoError(t, err)

	overlayType := "lowerthird"
	overlay, err := svc.AttachOverlay(context.Background(), host.ID, &CreateItemRequest{
		Type:        models.ItemTypeGraphics,
		OverlayType: &overlayType,
	})
	require.NoError(t, err)

	require.NotNil(t, overlay.ParentItemID)
	assert.Equal(t, host.ID, *overlay.ParentItemID)
	require.NotNil(t, overlay.GroupID)
	assert.Equal(t, groupID, *overlay.GroupID, "overlay inherits the host's group")
	assert.True(t, overlay.IsOverlay())
	assert.Equal(t, 1, overlay.Position, "overlay positions count separately per host")
}

func TestAttachOverlay_MissingParent(t *testing.T) {
	svc, _ := newTestRundown()

	_, err := svc.AttachOverlay(context.Background(), uuid.New(), &CreateItemRequest{
		Type: models.ItemTypeGraphics,
	})
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))
}

func TestListItems_ExcludesOverlaysByDefault(t *testing.T) {
	svc, _ := newTestRundown()
	groupID := uuid.New()

	host, err := svc.CreateItem(context.Background(), &CreateItemRequest{
		GroupID: &groupID,
		Type:    models.ItemTypeVideo,
	})
	require.NoError(t, err)
	_, err = svc.AttachOverlay(context.Background(), host.ID, &CreateItemRequest{Type: models.ItemTypeGraphics})
	require.NoError(t, err)

	items, err := svc.ListItems(context.Background(), groupID, false)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	items, err = svc.ListItems(context.Background(), groupID, true)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestDeleteItem_BlockedWithoutCascade(t *testing.T) {
	svc, store := newTestRundown()
	groupID := uuid.New()

	host, err := svc.CreateItem(context.Background(), &CreateItemRequest{
		GroupID: &groupID,
		Type:    models.ItemTypeVideo,
	})
	require.NoError(t, err)
	_, err = svc.AttachOverlay(context.Background(), host.ID, &CreateItemRequest{Type: models.ItemTypeGraphics})
	require.NoError(t, err)

	err = svc.Delete(context.Background(), "item", host.ID, false)
	require.Error(t, err)
	var conflict *apperr.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, 1, conflict.ChildCount)

	require.NoError(t, svc.Delete(context.Background(), "item", host.ID, true))
	assert.Empty(t, store.items, "cascade removes the host and its overlays")
}

func TestReorder_UnknownKind(t *testing.T) {
	svc, _ := newTestRundown()

	err := svc.Reorder(context.Background(), "episode", uuid.New(), 1)
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
}

func TestCreateShow_RequiresName(t *testing.T) {
	svc, _ := newTestRundown()

	_, err := svc.CreateShow(context.Background(), "")
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
}
