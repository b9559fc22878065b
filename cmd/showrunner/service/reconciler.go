package service

import (
	"context"
	"encoding/json"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/lumacast/showrunner/common/apperr"
	"github.com/lumacast/showrunner/common/config"
	"github.com/lumacast/showrunner/common/logger"
	"github.com/lumacast/showrunner/common/models"
	"github.com/lumacast/showrunner/common/switcher"
)

// OverlaySceneName is the utility scene owned by this system that
// hosts channel-addressable overlay inputs
const OverlaySceneName = "Showrunner Overlays"

// ReconcilerService makes the switcher's scene graph match the
// declared utility layout, idempotently, without disturbing
// operator-created content. Reconciliation is serialized per scene
// name so two callers cannot double-create inputs.
type ReconcilerService struct {
	gateway switcher.Gateway
	cfg     config.SwitcherConfig
	log     *logger.Logger
	locks   *keyedMutex
}

// NewReconcilerService creates a reconciler service
func NewReconcilerService(gateway switcher.Gateway, cfg config.SwitcherConfig, log *logger.Logger) *ReconcilerService {
	return &ReconcilerService{
		gateway: gateway,
		cfg:     cfg,
		log:     log,
		locks:   newKeyedMutex(),
	}
}

// EnsureUtilityScene creates the named scene and its channel inputs if
// missing, re-applies declared input settings, and pins every channel
// item to a full-canvas transform at the bottom of the visual stack.
// Safe to call repeatedly; per-channel failures after scene creation
// are logged and do not abort the remaining channels.
func (s *ReconcilerService) EnsureUtilityScene(ctx context.Context, sceneName string, channels []models.ChannelSpec) error {
	if sceneName == "" {
		return apperr.MissingField("scene")
	}

	unlock := s.locks.lock(sceneName)
	defer unlock()

	canvasW, canvasH := getVideoSettings(ctx, s.gateway, s.cfg)

	exists, err := sceneExists(ctx, s.gateway, sceneName)
	if err != nil {
		return err
	}
	if !exists {
		if _, err := s.gateway.Call(ctx, "CreateScene", map[string]any{"sceneName": sceneName}); err != nil {
			return apperr.External("switcher", "CreateScene", err)
		}
		s.log.Info("utility scene created", "scene", sceneName)
	}

	var inputs inputListResponse
	if err := switcher.CallInto(ctx, s.gateway, "GetInputList", nil, &inputs); err != nil {
		return apperr.External("switcher", "GetInputList", err)
	}
	knownInputs := make(map[string]bool, len(inputs.Inputs))
	for _, input := range inputs.Inputs {
		knownInputs[input.InputName] = true
	}

	for _, channel := range channels {
		if err := s.ensureChannelInput(ctx, sceneName, channel, knownInputs[channel.Name]); err != nil {
			s.log.Error("channel input reconciliation failed",
				"scene", sceneName, "channel", channel.Name, "error", err)
			continue
		}
	}

	// Re-read after creation so freshly added items get pinned too
	items, err := getSceneItemList(ctx, s.gateway, sceneName)
	if err != nil {
		return err
	}

	for _, channel := range channels {
		item, ok := findSceneItem(items, channel.Name)
		if !ok {
			continue
		}
		if err := s.pinChannelItem(ctx, sceneName, item.SceneItemID, canvasW, canvasH); err != nil {
			s.log.Error("channel transform pin failed",
				"scene", sceneName, "channel", channel.Name, "error", err)
		}
	}

	return nil
}

// ensureChannelInput creates the input inside the scene when it exists
// nowhere on the switcher, adds it as a scene item when it exists but
// is not a member, and re-applies the declared settings either way.
func (s *ReconcilerService) ensureChannelInput(ctx context.Context, sceneName string, channel models.ChannelSpec, inputExists bool) error {
	if !inputExists {
		_, err := s.gateway.Call(ctx, "CreateInput", map[string]any{
			"sceneName":     sceneName,
			"inputName":     channel.Name,
			"inputKind":     channel.InputKind,
			"inputSettings": channel.InputSettings,
		})
		if err != nil {
			return apperr.External("switcher", "CreateInput", err)
		}
		s.log.Info("channel input created", "scene", sceneName, "input", channel.Name)
		return nil
	}

	items, err := getSceneItemList(ctx, s.gateway, sceneName)
	if err != nil {
		return err
	}
	if _, member := findSceneItem(items, channel.Name); !member {
		_, err := s.gateway.Call(ctx, "CreateSceneItem", map[string]any{
			"sceneName":  sceneName,
			"sourceName": channel.Name,
		})
		if err != nil {
			return apperr.External("switcher", "CreateSceneItem", err)
		}
	}

	// Best effort: a settings merge failure must not abort the loop
	if err := s.mergeInputSettings(ctx, channel); err != nil {
		s.log.Warn("input settings update failed",
			"input", channel.Name, "error", err)
	}
	return nil
}

// mergeInputSettings overlays the declared settings onto the input's
// current settings (RFC 7386 merge) rather than replacing them.
func (s *ReconcilerService) mergeInputSettings(ctx context.Context, channel models.ChannelSpec) error {
	if len(channel.InputSettings) == 0 {
		return nil
	}

	var current struct {
		InputSettings json.RawMessage `json:"inputSettings"`
	}
	err := switcher.CallInto(ctx, s.gateway, "GetInputSettings", map[string]any{
		"inputName": channel.Name,
	}, &current)
	if err != nil {
		return apperr.External("switcher", "GetInputSettings", err)
	}
	if len(current.InputSettings) == 0 {
		current.InputSettings = json.RawMessage(`{}`)
	}

	declared, err := json.Marshal(channel.InputSettings)
	if err != nil {
		return err
	}

	merged, err := jsonpatch.MergePatch(current.InputSettings, declared)
	if err != nil {
		return err
	}

	var mergedSettings map[string]any
	if err := json.Unmarshal(merged, &mergedSettings); err != nil {
		return err
	}

	_, err = s.gateway.Call(ctx, "SetInputSettings", map[string]any{
		"inputName":     channel.Name,
		"inputSettings": mergedSettings,
	})
	if err != nil {
		return apperr.External("switcher", "SetInputSettings", err)
	}
	return nil
}

// pinChannelItem forces a utility item to cover the full canvas from
// the top-left and sit at the bottom of the stack so it never occludes
// operator content.
func (s *ReconcilerService) pinChannelItem(ctx context.Context, sceneName string, sceneItemID, canvasW, canvasH int) error {
	_, err := s.gateway.Call(ctx, "SetSceneItemTransform", map[string]any{
		"sceneName":   sceneName,
		"sceneItemId": sceneItemID,
		"sceneItemTransform": map[string]any{
			"positionX":  0,
			"positionY":  0,
			"scaleX":     1,
			"scaleY":     1,
			"width":      canvasW,
			"height":     canvasH,
			"rotation":   0,
			"alignment":  models.AlignTopLeft,
			"boundsType": models.BoundsNone,
		},
	})
	if err != nil {
		return apperr.External("switcher", "SetSceneItemTransform", err)
	}

	_, err = s.gateway.Call(ctx, "SetSceneItemIndex", map[string]any{
		"sceneName":      sceneName,
		"sceneItemId":    sceneItemID,
		"sceneItemIndex": 0,
	})
	if err != nil {
		return apperr.External("switcher", "SetSceneItemIndex", err)
	}
	return nil
}

// EnsureOverlayAttachment guarantees the utility overlay scene exists,
// then attaches it to (or detaches it from) the target scene. Already
// attached/detached states are left alone.
func (s *ReconcilerService) EnsureOverlayAttachment(ctx context.Context, targetScene string, attach bool) error {
	if targetScene == "" {
		return apperr.MissingField("scene")
	}

	unlock := s.locks.lock(targetScene)
	defer unlock()

	exists, err := sceneExists(ctx, s.gateway, OverlaySceneName)
	if err != nil {
		return err
	}
	if !exists {
		if _, err := s.gateway.Call(ctx, "CreateScene", map[string]any{"sceneName": OverlaySceneName}); err != nil {
			return apperr.External("switcher", "CreateScene", err)
		}
	}

	items, err := getSceneItemList(ctx, s.gateway, targetScene)
	if err != nil {
		return err
	}
	attached, isAttached := findSceneItem(items, OverlaySceneName)

	if attach {
		if isAttached {
			return nil
		}
		var created sceneItemIDResponse
		err := switcher.CallInto(ctx, s.gateway, "CreateSceneItem", map[string]any{
			"sceneName":  targetScene,
			"sourceName": OverlaySceneName,
		}, &created)
		if err != nil {
			return apperr.External("switcher", "CreateSceneItem", err)
		}
		return raiseToTop(ctx, s.gateway, targetScene, created.SceneItemID)
	}

	if !isAttached {
		return nil
	}
	_, err = s.gateway.Call(ctx, "RemoveSceneItem", map[string]any{
		"sceneName":   targetScene,
		"sceneItemId": attached.SceneItemID,
	})
	if err != nil {
		return apperr.External("switcher", "RemoveSceneItem", err)
	}
	return nil
}
