package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/lumacast/showrunner/common/apperr"
	"github.com/lumacast/showrunner/common/cache"
	"github.com/lumacast/showrunner/common/config"
	"github.com/lumacast/showrunner/common/logger"
	"github.com/lumacast/showrunner/common/models"
	"github.com/lumacast/showrunner/common/switcher"
)

// Input kinds treated as audio sources. An explicit set rather than a
// name heuristic, so new kinds must be added deliberately.
var audioInputKinds = map[string]bool{
	"wasapi_input_capture":     true,
	"wasapi_output_capture":    true,
	"coreaudio_input_capture":  true,
	"coreaudio_output_capture": true,
	"pulse_input_capture":      true,
	"pulse_output_capture":     true,
	"alsa_input_capture":       true,
	"ffmpeg_source":            true,
}

// CatalogService answers read-oriented discovery questions about the
// switcher: scenes, sources, transitions, audio sources, screenshots.
type CatalogService struct {
	gateway  switcher.Gateway
	cfg      config.SwitcherConfig
	cache    cache.Cache
	cacheTTL time.Duration
	log      *logger.Logger
}

// NewCatalogService creates a catalog service. cache may be nil; a
// non-positive cacheTTL falls back to one minute.
func NewCatalogService(gateway switcher.Gateway, cfg config.SwitcherConfig, c cache.Cache, cacheTTL time.Duration, log *logger.Logger) *CatalogService {
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}
	return &CatalogService{
		gateway:  gateway,
		cfg:      cfg,
		cache:    c,
		cacheTTL: cacheTTL,
		log:      log,
	}
}

// ListScenes returns the switcher's scenes
func (s *CatalogService) ListScenes(ctx context.Context) ([]models.Scene, error) {
	var resp sceneListResponse
	if err := switcher.CallInto(ctx, s.gateway, "GetSceneList", nil, &resp); err != nil {
		return nil, apperr.External("switcher", "GetSceneList", err)
	}
	if resp.Scenes == nil {
		resp.Scenes = []models.Scene{}
	}
	return resp.Scenes, nil
}

// ListSources builds the all-sources catalog by enumerating every
// scene's items. A scene that fails to enumerate is skipped so one bad
// scene cannot empty the catalog.
func (s *CatalogService) ListSources(ctx context.Context) ([]models.Source, error) {
	scenes, err := s.ListScenes(ctx)
	if err != nil {
		return nil, err
	}

	sources := []models.Source{}
	seen := map[string]bool{}
	for _, scene := range scenes {
		items, err := getSceneItemList(ctx, s.gateway, scene.Name)
		if err != nil {
			s.log.Warn("skipping scene during source enumeration",
				"scene", scene.Name, "error", err)
			continue
		}
		for _, item := range items {
			if item.IsGroup || seen[item.SourceName] {
				continue
			}
			seen[item.SourceName] = true
			sources = append(sources, models.Source{
				Name:      item.SourceName,
				InputKind: item.InputKind,
				Scene:     scene.Name,
			})
		}
	}
	return sources, nil
}

// ListTransitions returns the switcher's scene transitions. The list
// is session-static, so it is served from cache when possible.
func (s *CatalogService) ListTransitions(ctx context.Context) ([]models.Transition, error) {
	const cacheKey = "switcher:transitions"

	if cached, ok := s.cacheGet(ctx, cacheKey); ok {
		var transitions []models.Transition
		if err := json.Unmarshal(cached, &transitions); err == nil {
			return transitions, nil
		}
	}

	var resp struct {
		Transitions []models.Transition `json:"transitions"`
	}
	if err := switcher.CallInto(ctx, s.gateway, "GetSceneTransitionList", nil, &resp); err != nil {
		return nil, apperr.External("switcher", "GetSceneTransitionList", err)
	}
	if resp.Transitions == nil {
		resp.Transitions = []models.Transition{}
	}

	s.cacheSet(ctx, cacheKey, resp.Transitions)
	return resp.Transitions, nil
}

// ListAudioSources returns sources whose input kind is a recognized
// audio kind
func (s *CatalogService) ListAudioSources(ctx context.Context) ([]models.Source, error) {
	sources, err := s.ListSources(ctx)
	if err != nil {
		return nil, err
	}

	audio := []models.Source{}
	for _, source := range sources {
		if audioInputKinds[strings.ToLower(source.InputKind)] {
			audio = append(audio, source)
		}
	}
	return audio, nil
}

// Screenshot captures a scene as a base64 PNG data string. Width and
// height are optional; zero values leave the switcher's default.
func (s *CatalogService) Screenshot(ctx context.Context, scene string, width, height int) (string, error) {
	if scene == "" {
		return "", apperr.MissingField("scene")
	}

	params := map[string]any{
		"sourceName":  scene,
		"imageFormat": "png",
	}
	if width > 0 {
		params["imageWidth"] = width
	}
	if height > 0 {
		params["imageHeight"] = height
	}

	var resp struct {
		ImageData string `json:"imageData"`
	}
	if err := switcher.CallInto(ctx, s.gateway, "GetSourceScreenshot", params, &resp); err != nil {
		return "", apperr.External("switcher", "GetSourceScreenshot", err)
	}
	return resp.ImageData, nil
}

func (s *CatalogService) cacheGet(ctx context.Context, key string) ([]byte, bool) {
	if s.cache == nil {
		return nil, false
	}
	value, found, err := s.cache.Get(ctx, key)
	if err != nil || !found {
		return nil, false
	}
	return value, true
}

func (s *CatalogService) cacheSet(ctx context.Context, key string, value any) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.cacheTTL); err != nil {
		s.log.Debug("cache set failed", "key", key, "error", err)
	}
}
