package service

import (
	"context"
	"sync"

	"github.com/lumacast/showrunner/common/apperr"
	"github.com/lumacast/showrunner/common/config"
	"github.com/lumacast/showrunner/common/models"
	"github.com/lumacast/showrunner/common/switcher"
)

// Request/response shapes for the switcher calls shared across the
// reconciler, composer and catalog services.

type sceneListResponse struct {
	Scenes []models.Scene `json:"scenes"`
}

type inputListResponse struct {
	Inputs []struct {
		InputName string `json:"inputName"`
		InputKind string `json:"inputKind"`
	} `json:"inputs"`
}

type sceneItemEntry struct {
	SceneItemID int                       `json:"sceneItemId"`
	SourceName  string                    `json:"sourceName"`
	InputKind   string                    `json:"inputKind"`
	IsGroup     bool                      `json:"isGroup"`
	Index       int                       `json:"sceneItemIndex"`
	Transform   models.SceneItemTransform `json:"sceneItemTransform"`
}

type sceneItemListResponse struct {
	SceneItems []sceneItemEntry `json:"sceneItems"`
}

type sceneItemIDResponse struct {
	SceneItemID int `json:"sceneItemId"`
}

// getVideoSettings resolves the canvas size, falling back to the
// configured default when the switcher cannot report it.
func getVideoSettings(ctx context.Context, gw switcher.Gateway, cfg config.SwitcherConfig) (int, int) {
	var settings models.VideoSettings
	err := switcher.CallInto(ctx, gw, "GetVideoSettings", nil, &settings)
	if err != nil || settings.BaseWidth <= 0 || settings.BaseHeight <= 0 {
		return cfg.FallbackCanvasWidth, cfg.FallbackCanvasHeight
	}
	return settings.BaseWidth, settings.BaseHeight
}

// getSceneItemList returns the scene's current items
func getSceneItemList(ctx context.Context, gw switcher.Gateway, scene string) ([]sceneItemEntry, error) {
	var resp sceneItemListResponse
	err := switcher.CallInto(ctx, gw, "GetSceneItemList", map[string]any{"sceneName": scene}, &resp)
	if err != nil {
		return nil, apperr.External("switcher", "GetSceneItemList", err)
	}
	return resp.SceneItems, nil
}

// sceneExists reports whether the named scene is present
func sceneExists(ctx context.Context, gw switcher.Gateway, scene string) (bool, error) {
	var resp sceneListResponse
	if err := switcher.CallInto(ctx, gw, "GetSceneList", nil, &resp); err != nil {
		return false, apperr.External("switcher", "GetSceneList", err)
	}
	for _, s := range resp.Scenes {
		if s.Name == scene {
			return true, nil
		}
	}
	return false, nil
}

// findSceneItem locates a source within a scene by name
func findSceneItem(items []sceneItemEntry, sourceName string) (sceneItemEntry, bool) {
	for _, item := range items {
		if item.SourceName == sourceName {
			return item, true
		}
	}
	return sceneItemEntry{}, false
}

// raiseToTop moves a scene item to the top of the visual stack
func raiseToTop(ctx context.Context, gw switcher.Gateway, scene string, sceneItemID int) error {
	items, err := getSceneItemList(ctx, gw, scene)
	if err != nil {
		return err
	}

	top := len(items) - 1
	if top < 0 {
		top = 0
	}

	_, err = gw.Call(ctx, "SetSceneItemIndex", map[string]any{
		"sceneName":      scene,
		"sceneItemId":    sceneItemID,
		"sceneItemIndex": top,
	})
	if err != nil {
		return apperr.External("switcher", "SetSceneItemIndex", err)
	}
	return nil
}

// placeholderBox derives the placeholder's box from its transform:
// explicit width/height when present, else source size times scale.
func placeholderBox(t models.SceneItemTransform) Box {
	w := t.Width
	h := t.Height
	if w <= 0 {
		w = t.SourceWidth * t.ScaleX
	}
	if h <= 0 {
		h = t.SourceHeight * t.ScaleY
	}
	return Box{
		X:        t.PositionX,
		Y:        t.PositionY,
		W:        w,
		H:        h,
		Rotation: t.Rotation,
	}
}

// keyedMutex serializes work per string key. Used to single-writer
// execution state per episode and reconciliation per scene name.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*sync.Mutex)}
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	lock, ok := k.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		k.locks[key] = lock
	}
	k.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
