package models

import (
	"time"

	"github.com/google/uuid"
)

// ItemType discriminates what a rundown item represents
type ItemType string

const (
	ItemTypeGraphics      ItemType = "graphics"
	ItemTypeOBSCommand    ItemType = "obscommand"
	ItemTypePresenterNote ItemType = "presenternote"
	ItemTypeVideo         ItemType = "video"
	ItemTypeAudio         ItemType = "audio"
)

// AutomationMode controls whether an item advances by itself
type AutomationMode string

const (
	AutomationManual AutomationMode = "manual"
	AutomationAuto   AutomationMode = "auto"
)

// OverlayAutomation controls how an overlay leaves the screen
type OverlayAutomation string

const (
	OverlayAutoOut    OverlayAutomation = "auto_out"
	OverlayManualOut  OverlayAutomation = "manual"
)

// Show is the top-level container for episodes
// Maps to: shows table
type Show struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Episode is one broadcast of a show
// Maps to: episodes table
type Episode struct {
	ID        uuid.UUID `db:"id" json:"id"`
	ShowID    uuid.UUID `db:"show_id" json:"show_id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Segment is an ordered top-level rundown block
// Maps to: rundown_segments table
type Segment struct {
	ID        uuid.UUID `db:"id" json:"id"`
	EpisodeID uuid.UUID `db:"episode_id" json:"episode_id"`
	Name      string    `db:"name" json:"name"`
	Position  int       `db:"position" json:"position"`

	// Populated by tree fetches, ordered by position
	Groups []*Group `db:"-" json:"groups,omitempty"`
}

// Group is an ordered cue block inside a segment
// Maps to: rundown_groups table
type Group struct {
	ID        uuid.UUID `db:"id" json:"id"`
	SegmentID uuid.UUID `db:"segment_id" json:"segment_id"`
	Name      string    `db:"name" json:"name"`
	Position  int       `db:"position" json:"position"`

	// Populated by tree fetches, ordered by position
	Items []*Item `db:"-" json:"items,omitempty"`
}

// Item is a rundown entry. Exactly one of GroupID/ParentItemID is the
// primary anchor; an item with ParentItemID is an overlay attached to a
// host item and inherits the host's group.
// Maps to: rundown_items table
type Item struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	GroupID      *uuid.UUID `db:"group_id" json:"group_id,omitempty"`
	ParentItemID *uuid.UUID `db:"parent_item_id" json:"parent_item_id,omitempty"`

	Type     ItemType       `db:"type" json:"type"`
	Title    string         `db:"title" json:"title"`
	Data     map[string]any `db:"data" json:"data"`
	Position int            `db:"position" json:"position"`

	AutomationMode     AutomationMode `db:"automation_mode" json:"automation_mode"`
	AutomationDuration *float64       `db:"automation_duration" json:"automation_duration,omitempty"`
	UseMediaDuration   bool           `db:"use_media_duration" json:"use_media_duration"`

	OverlayType       *string            `db:"overlay_type" json:"overlay_type,omitempty"`
	OverlayInPoint    *float64           `db:"overlay_in_point" json:"overlay_in_point,omitempty"`
	OverlayDuration   *float64           `db:"overlay_duration" json:"overlay_duration,omitempty"`
	OverlayAutomation *OverlayAutomation `db:"overlay_automation" json:"overlay_automation,omitempty"`
	OverlayColorIndex *int               `db:"overlay_color_index" json:"overlay_color_index,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`

	// Populated when child overlays are requested, ordered by position
	Overlays []*Item `db:"-" json:"overlays,omitempty"`
}

// IsOverlay reports whether the item is anchored to a host item
func (i *Item) IsOverlay() bool {
	return i.ParentItemID != nil
}
