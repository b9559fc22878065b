package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ActiveOverlay is one entry in the on-air overlay set.
// Payload carries the type-dependent fields supplied by the caller.
type ActiveOverlay struct {
	ID        string         `json:"id"`
	Type      string         `json:"type,omitempty"`
	StartTime time.Time      `json:"startTime"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// ExecutionState is the single source of truth for what is on air in an
// episode. One logical row per episode; created lazily on first read.
// Maps to: execution_state table
type ExecutionState struct {
	ID        int64     `db:"id" json:"-"`
	EpisodeID uuid.UUID `db:"episode_id" json:"episode_id"`

	LiveItemID    *uuid.UUID `db:"live_item_id" json:"live_item_id"`
	PreviewItemID *uuid.UUID `db:"preview_item_id" json:"preview_item_id"`
	NextItemID    *uuid.UUID `db:"next_item_id" json:"next_item_id"`

	IsPaused      bool       `db:"is_paused" json:"is_paused"`
	PausedAt      *time.Time `db:"paused_at" json:"paused_at"`
	RemainingTime *float64   `db:"remaining_time" json:"remaining_time"`

	ArmedTransition      *string    `db:"armed_transition" json:"armed_transition"`
	ArmedManualItemID    *uuid.UUID `db:"armed_manual_item_id" json:"armed_manual_item_id"`
	CurrentManualBlockID *uuid.UUID `db:"current_manual_block_id" json:"current_manual_block_id"`

	ActiveOverlays []ActiveOverlay `db:"active_overlays" json:"active_overlays"`

	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// NewExecutionState returns the default state synthesized on first read.
func NewExecutionState(episodeID uuid.UUID) *ExecutionState {
	return &ExecutionState{
		EpisodeID:      episodeID,
		IsPaused:       false,
		ActiveOverlays: []ActiveOverlay{},
		UpdatedAt:      time.Now(),
	}
}

// StatePatch is a partial update: only keys present in the map are
// written, including keys explicitly set to null.
type StatePatch map[string]any

// Patchable execution_state columns, in stable write order.
var statePatchFields = []string{
	"live_item_id",
	"preview_item_id",
	"next_item_id",
	"is_paused",
	"paused_at",
	"remaining_time",
	"armed_transition",
	"armed_manual_item_id",
	"current_manual_block_id",
	"active_overlays",
}

// Fields returns the patchable columns present in the patch, in a
// stable order suitable for building an UPDATE statement.
func (p StatePatch) Fields() []string {
	fields := make([]string, 0, len(p))
	for _, f := range statePatchFields {
		if _, ok := p[f]; ok {
			fields = append(fields, f)
		}
	}
	return fields
}

// Validate rejects keys that are not patchable columns.
func (p StatePatch) Validate() error {
	allowed := make(map[string]bool, len(statePatchFields))
	for _, f := range statePatchFields {
		allowed[f] = true
	}
	for k := range p {
		if !allowed[k] {
			return fmt.Errorf("unknown execution state field: %s", k)
		}
	}
	return nil
}

// Normalize returns a copy of the patch with every value converted to
// its column's Go type, so storage code can bind them directly.
func (p StatePatch) Normalize() (StatePatch, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	out := make(StatePatch, len(p))
	for _, field := range p.Fields() {
		value := p[field]
		switch field {
		case "live_item_id", "preview_item_id", "next_item_id", "armed_manual_item_id", "current_manual_block_id":
			id, err := toUUIDPtr(value)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", field, err)
			}
			out[field] = id
		case "is_paused":
			paused, ok := value.(bool)
			if !ok {
				return nil, fmt.Errorf("is_paused: expected bool, got %T", value)
			}
			out[field] = paused
		case "paused_at":
			t, err := toTimePtr(value)
			if err != nil {
				return nil, fmt.Errorf("paused_at: %w", err)
			}
			out[field] = t
		case "remaining_time":
			f, err := toFloatPtr(value)
			if err != nil {
				return nil, fmt.Errorf("remaining_time: %w", err)
			}
			out[field] = f
		case "armed_transition":
			str, err := toStringPtr(value)
			if err != nil {
				return nil, fmt.Errorf("armed_transition: %w", err)
			}
			out[field] = str
		case "active_overlays":
			overlays, err := toOverlays(value)
			if err != nil {
				return nil, fmt.Errorf("active_overlays: %w", err)
			}
			out[field] = overlays
		}
	}
	return out, nil
}

// Apply merges the patch into the state in memory, mirroring the
// column-level semantics of the UPDATE path. Only keys present in the
// patch change; everything else is preserved.
func (s *ExecutionState) Apply(patch StatePatch) error {
	if err := patch.Validate(); err != nil {
		return err
	}

	for _, field := range patch.Fields() {
		value := patch[field]
		switch field {
		case "live_item_id":
			id, err := toUUIDPtr(value)
			if err != nil {
				return fmt.Errorf("live_item_id: %w", err)
			}
			s.LiveItemID = id
		case "preview_item_id":
			id, err := toUUIDPtr(value)
			if err != nil {
				return fmt.Errorf("preview_item_id: %w", err)
			}
			s.PreviewItemID = id
		case "next_item_id":
			id, err := toUUIDPtr(value)
			if err != nil {
				return fmt.Errorf("next_item_id: %w", err)
			}
			s.NextItemID = id
		case "is_paused":
			paused, ok := value.(bool)
			if !ok {
				return fmt.Errorf("is_paused: expected bool, got %T", value)
			}
			s.IsPaused = paused
		case "paused_at":
			t, err := toTimePtr(value)
			if err != nil {
				return fmt.Errorf("paused_at: %w", err)
			}
			s.PausedAt = t
		case "remaining_time":
			f, err := toFloatPtr(value)
			if err != nil {
				return fmt.Errorf("remaining_time: %w", err)
			}
			s.RemainingTime = f
		case "armed_transition":
			str, err := toStringPtr(value)
			if err != nil {
				return fmt.Errorf("armed_transition: %w", err)
			}
			s.ArmedTransition = str
		case "armed_manual_item_id":
			id, err := toUUIDPtr(value)
			if err != nil {
				return fmt.Errorf("armed_manual_item_id: %w", err)
			}
			s.ArmedManualItemID = id
		case "current_manual_block_id":
			id, err := toUUIDPtr(value)
			if err != nil {
				return fmt.Errorf("current_manual_block_id: %w", err)
			}
			s.CurrentManualBlockID = id
		case "active_overlays":
			overlays, err := toOverlays(value)
			if err != nil {
				return fmt.Errorf("active_overlays: %w", err)
			}
			s.ActiveOverlays = overlays
		}
	}

	s.UpdatedAt = time.Now()
	return nil
}

func toUUIDPtr(value any) (*uuid.UUID, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case uuid.UUID:
		return &v, nil
	case *uuid.UUID:
		return v, nil
	case string:
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, err
		}
		return &id, nil
	default:
		return nil, fmt.Errorf("expected uuid or null, got %T", value)
	}
}

func toTimePtr(value any) (*time.Time, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return &v, nil
	case *time.Time:
		return v, nil
	case string:
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, err
		}
		return &t, nil
	default:
		return nil, fmt.Errorf("expected timestamp or null, got %T", value)
	}
}

func toFloatPtr(value any) (*float64, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case float64:
		return &v, nil
	case *float64:
		return v, nil
	case int:
		f := float64(v)
		return &f, nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return nil, err
		}
		return &f, nil
	default:
		return nil, fmt.Errorf("expected number or null, got %T", value)
	}
}

func toStringPtr(value any) (*string, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		return &v, nil
	case *string:
		return v, nil
	default:
		return nil, fmt.Errorf("expected string or null, got %T", value)
	}
}

func toOverlays(value any) ([]ActiveOverlay, error) {
	switch v := value.(type) {
	case nil:
		return []ActiveOverlay{}, nil
	case []ActiveOverlay:
		return v, nil
	default:
		// Accept anything JSON-shaped, e.g. []any from a decoded request body
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		var overlays []ActiveOverlay
		if err := json.Unmarshal(raw, &overlays); err != nil {
			return nil, err
		}
		if overlays == nil {
			overlays = []ActiveOverlay{}
		}
		return overlays, nil
	}
}
