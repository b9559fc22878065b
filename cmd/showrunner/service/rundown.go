package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lumacast/showrunner/common/apperr"
	"github.com/lumacast/showrunner/common/logger"
	"github.com/lumacast/showrunner/common/models"
)

// RundownStore is the persistence surface the rundown service needs
type RundownStore interface {
	CreateShow(ctx context.Context, show *models.Show) error
	ListShows(ctx context.Context) ([]*models.Show, error)
	DeleteShow(ctx context.Context, showID uuid.UUID) error

	CreateEpisode(ctx context.Context, episode *models.Episode) error
	ListEpisodes(ctx context.Context, showID uuid.UUID) ([]*models.Episode, error)
	DeleteEpisode(ctx context.Context, episodeID uuid.UUID) error

	CreateSegment(ctx context.Context, episodeID uuid.UUID, name string) (*models.Segment, error)
	CreateGroup(ctx context.Context, segmentID uuid.UUID, name string) (*models.Group, error)
	DeleteSegment(ctx context.Context, segmentID uuid.UUID) error
	DeleteGroup(ctx context.Context, groupID uuid.UUID) error

	CreateItem(ctx context.Context, item *models.Item) error
	GetItem(ctx context.Context, itemID uuid.UUID) (*models.Item, error)
	ListItems(ctx context.Context, groupID uuid.UUID, includeChildren bool) ([]*models.Item, error)
	MaxItemPosition(ctx context.Context, groupID uuid.UUID) (int, error)
	MaxOverlayPosition(ctx context.Context, parentItemID uuid.UUID) (int, error)
	CountChildren(ctx context.Context, itemID uuid.UUID) (int, error)
	PatchItem(ctx context.Context, itemID uuid.UUID, fields map[string]any) (*models.Item, error)
	DeleteItem(ctx context.Context, itemID uuid.UUID, cascade bool) error
	UpdatePosition(ctx context.Context, table string, id uuid.UUID, position int) error

	FetchTree(ctx context.Context, episodeID uuid.UUID) ([]*models.Segment, error)
}

// RundownService handles business logic for the rundown tree
type RundownService struct {
	store RundownStore
	log   *logger.Logger
}

// NewRundownService creates a new rundown service
func NewRundownService(store RundownStore, log *logger.Logger) *RundownService {
	return &RundownService{
		store: store,
		log:   log,
	}
}

// CreateShow creates a show
func (s *RundownService) CreateShow(ctx context.Context, name string) (*models.Show, error) {
	if name == "" {
		return nil, apperr.MissingField("name")
	}

	show := &models.Show{
		ID:        uuid.New(),
		Name:      name,
		CreatedAt: time.Now(),
	}
	if err := s.store.CreateShow(ctx, show); err != nil {
		return nil, err
	}
	return show, nil
}

// ListShows lists all shows
func (s *RundownService) ListShows(ctx context.Context) ([]*models.Show, error) {
	return s.store.ListShows(ctx)
}

// DeleteShow removes a show and cascades through its full subtree
func (s *RundownService) DeleteShow(ctx context.Context, showID uuid.UUID) error {
	return s.store.DeleteShow(ctx, showID)
}

// CreateEpisode creates an episode under a show
func (s *RundownService) CreateEpisode(ctx context.Context, showID uuid.UUID, name string) (*models.Episode, error) {
	if name == "" {
		return nil, apperr.MissingField("name")
	}

	episode := &models.Episode{
		ID:        uuid.New(),
		ShowID:    showID,
		Name:      name,
		CreatedAt: time.Now(),
	}
	if err := s.store.CreateEpisode(ctx, episode); err != nil {
		return nil, err
	}
	return episode, nil
}

// ListEpisodes lists a show's episodes
func (s *RundownService) ListEpisodes(ctx context.Context, showID uuid.UUID) ([]*models.Episode, error) {
	return s.store.ListEpisodes(ctx, showID)
}

// DeleteEpisode removes an episode and its rundown
func (s *RundownService) DeleteEpisode(ctx context.Context, episodeID uuid.UUID) error {
	return s.store.DeleteEpisode(ctx, episodeID)
}

// CreateSegment appends a segment to an episode's rundown
func (s *RundownService) CreateSegment(ctx context.Context, episodeID uuid.UUID, name string) (*models.Segment, error) {
	if name == "" {
		return nil, apperr.MissingField("name")
	}
	return s.store.CreateSegment(ctx, episodeID, name)
}

// CreateGroup appends a cue group to a segment
func (s *RundownService) CreateGroup(ctx context.Context, segmentID uuid.UUID, name string) (*models.Group, error) {
	if name == "" {
		return nil, apperr.MissingField("name")
	}
	return s.store.CreateGroup(ctx, segmentID, name)
}

// CreateItemRequest carries the fields for a new rundown item.
// Exactly one of GroupID/ParentItemID must be set; a nil Position
// means append.
type CreateItemRequest struct {
	GroupID      *uuid.UUID      `json:"group_id,omitempty"`
	ParentItemID *uuid.UUID      `json:"parent_item_id,omitempty"`
	Type         models.ItemType `json:"type"`
	Title        string          `json:"title"`
	Data         map[string]any  `json:"data"`
	Position     *int            `json:"position,omitempty"`

	AutomationMode     models.AutomationMode `json:"automation_mode,omitempty"`
	AutomationDuration *float64              `json:"automation_duration,omitempty"`
	UseMediaDuration   bool                  `json:"use_media_duration,omitempty"`

	OverlayType       *string                   `json:"overlay_type,omitempty"`
	OverlayInPoint    *float64                  `json:"overlay_in_point,omitempty"`
	OverlayDuration   *float64                  `json:"overlay_duration,omitempty"`
	OverlayAutomation *models.OverlayAutomation `json:"overlay_automation,omitempty"`
	OverlayColorIndex *int                      `json:"overlay_color_index,omitempty"`
}

// CreateItem creates a rundown item. An item anchored to a parent is
// an overlay: it inherits the host's group and appends after the
// host's existing overlays.
func (s *RundownService) CreateItem(ctx context.Context, req *CreateItemRequest) (*models.Item, error) {
	if req.Type == "" {
		return nil, apperr.MissingField("type")
	}
	if req.GroupID == nil && req.ParentItemID == nil {
		return nil, apperr.MissingField("group_id or parent_item_id")
	}
	if req.GroupID != nil && req.ParentItemID != nil {
		return nil, &apperr.ValidationError{
			Field:   "group_id",
			Message: "an item is anchored to a group or a parent item, not both",
		}
	}

	now := time.Now()
	item := &models.Item{
		ID:                 uuid.New(),
		GroupID:            req.GroupID,
		ParentItemID:       req.ParentItemID,
		Type:               req.Type,
		Title:              req.Title,
		Data:               req.Data,
		AutomationMode:     req.AutomationMode,
		AutomationDuration: req.AutomationDuration,
		UseMediaDuration:   req.UseMediaDuration,
		OverlayType:        req.OverlayType,
		OverlayInPoint:     req.OverlayInPoint,
		OverlayDuration:    req.OverlayDuration,
		OverlayAutomation:  req.OverlayAutomation,
		OverlayColorIndex:  req.OverlayColorIndex,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if item.Data == nil {
		item.Data = map[string]any{}
	}
	if item.AutomationMode == "" {
		item.AutomationMode = models.AutomationManual
	}

	if req.ParentItemID != nil {
		parent, err := s.store.GetItem(ctx, *req.ParentItemID)
		if err != nil {
			return nil, err
		}
		item.GroupID = parent.GroupID
	}

	if req.Position != nil {
		item.Position = *req.Position
	} else {
		var max int
		var err error
		if req.ParentItemID != nil {
			max, err = s.store.MaxOverlayPosition(ctx, *req.ParentItemID)
		} else {
			max, err = s.store.MaxItemPosition(ctx, *req.GroupID)
		}
		if err != nil {
			return nil, err
		}
		item.Position = max + 1
	}

	if err := s.store.CreateItem(ctx, item); err != nil {
		return nil, err
	}

	s.log.Info("rundown item created",
		"item_id", item.ID,
		"type", item.Type,
		"overlay", item.IsOverlay(),
	)
	return item, nil
}

// AttachOverlay creates an overlay item on a host item
func (s *RundownService) AttachOverlay(ctx context.Context, parentItemID uuid.UUID, req *CreateItemRequest) (*models.Item, error) {
	req.ParentItemID = &parentItemID
	req.GroupID = nil
	return s.CreateItem(ctx, req)
}

// GetItem retrieves one item
func (s *RundownService) GetItem(ctx context.Context, itemID uuid.UUID) (*models.Item, error) {
	return s.store.GetItem(ctx, itemID)
}

// ListItems lists a group's items in position order
func (s *RundownService) ListItems(ctx context.Context, groupID uuid.UUID, includeChildren bool) ([]*models.Item, error) {
	return s.store.ListItems(ctx, groupID, includeChildren)
}

// Reorder sets an entity's position directly. Positions are
// caller-trusted ordering keys; duplicates are permitted.
func (s *RundownService) Reorder(ctx context.Context, kind string, id uuid.UUID, position int) error {
	switch kind {
	case "segment", "group", "item":
	default:
		return &apperr.ValidationError{Field: "kind", Message: fmt.Sprintf("unknown entity kind %q", kind)}
	}
	return s.store.UpdatePosition(ctx, kind, id, position)
}

// PatchItem merges the supplied fields into an item; the data payload
// is merged shallowly rather than replaced
func (s *RundownService) PatchItem(ctx context.Context, itemID uuid.UUID, fields map[string]any) (*models.Item, error) {
	if len(fields) == 0 {
		return s.store.GetItem(ctx, itemID)
	}
	return s.store.PatchItem(ctx, itemID, fields)
}

// Delete removes a rundown entity. Items with overlay children need
// cascade; segment and group deletes cascade unconditionally.
func (s *RundownService) Delete(ctx context.Context, kind string, id uuid.UUID, cascade bool) error {
	switch kind {
	case "item":
		return s.store.DeleteItem(ctx, id, cascade)
	case "group":
		return s.store.DeleteGroup(ctx, id)
	case "segment":
		return s.store.DeleteSegment(ctx, id)
	case "episode":
		return s.store.DeleteEpisode(ctx, id)
	case "show":
		return s.store.DeleteShow(ctx, id)
	default:
		return &apperr.ValidationError{Field: "kind", Message: fmt.Sprintf("unknown entity kind %q", kind)}
	}
}

// FetchTree returns the episode's full ordered rundown
func (s *RundownService) FetchTree(ctx context.Context, episodeID uuid.UUID) ([]*models.Segment, error) {
	return s.store.FetchTree(ctx, episodeID)
}
