package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/lumacast/showrunner/common/apperr"
	"github.com/lumacast/showrunner/common/config"
	"github.com/lumacast/showrunner/common/logger"
	"github.com/lumacast/showrunner/common/models"
	"github.com/lumacast/showrunner/common/switcher"
)

// Color-source kinds recognized as placeholders. Both the legacy and
// current variants count.
var placeholderKinds = map[string]bool{
	"color_source":    true,
	"color_source_v3": true,
}

// keepToken opts a decorative color source out of placeholder
// discovery when it appears in the source name (case-insensitive).
const keepToken = "#keep"

// ComposerService discovers placeholder regions and computes source
// placements on the switcher
type ComposerService struct {
	gateway switcher.Gateway
	cfg     config.SwitcherConfig
	log     *logger.Logger
}

// NewComposerService creates a composer service
func NewComposerService(gateway switcher.Gateway, cfg config.SwitcherConfig, log *logger.Logger) *ComposerService {
	return &ComposerService{
		gateway: gateway,
		cfg:     cfg,
		log:     log,
	}
}

// PlaceholderRef identifies a placeholder by 1-based display index or
// by source name; index wins when both are set.
type PlaceholderRef struct {
	DisplayIndex int    `json:"displayIndex,omitempty"`
	SourceName   string `json:"sourceName,omitempty"`
}

// ListPlaceholders discovers placeholder regions in a scene, ordered
// top-to-bottom then left-to-right with 1-based display indexes.
// Individual unreadable items are skipped rather than failing the
// whole listing.
func (s *ComposerService) ListPlaceholders(ctx context.Context, scene string) ([]models.PlaceholderRegion, error) {
	items, err := getSceneItemList(ctx, s.gateway, scene)
	if err != nil {
		return nil, err
	}

	regions := make([]models.PlaceholderRegion, 0, len(items))
	for _, item := range items {
		if !placeholderKinds[item.InputKind] {
			continue
		}
		if strings.Contains(strings.ToLower(item.SourceName), keepToken) {
			continue
		}

		box := placeholderBox(item.Transform)
		if box.W <= 0 || box.H <= 0 {
			s.log.Warn("skipping placeholder with unreadable geometry",
				"scene", scene, "source", item.SourceName)
			continue
		}

		regions = append(regions, models.PlaceholderRegion{
			SceneItemID: item.SceneItemID,
			SourceName:  item.SourceName,
			X:           box.X,
			Y:           box.Y,
			Width:       box.W,
			Height:      box.H,
			Rotation:    box.Rotation,
			Aspect:      box.W / box.H,
		})
	}

	sort.SliceStable(regions, func(i, j int) bool {
		if regions[i].Y != regions[j].Y {
			return regions[i].Y < regions[j].Y
		}
		return regions[i].X < regions[j].X
	})

	canvasW, canvasH := getVideoSettings(ctx, s.gateway, s.cfg)
	for i := range regions {
		regions[i].DisplayIndex = i + 1
		if canvasW > 0 && canvasH > 0 {
			nx := regions[i].X / float64(canvasW)
			ny := regions[i].Y / float64(canvasH)
			nw := regions[i].Width / float64(canvasW)
			nh := regions[i].Height / float64(canvasH)
			regions[i].NormX = &nx
			regions[i].NormY = &ny
			regions[i].NormW = &nw
			regions[i].NormH = &nh
		}
	}

	return regions, nil
}

// resolvePlaceholder finds the referenced placeholder in a scene
func (s *ComposerService) resolvePlaceholder(ctx context.Context, scene string, ref PlaceholderRef) (models.PlaceholderRegion, error) {
	regions, err := s.ListPlaceholders(ctx, scene)
	if err != nil {
		return models.PlaceholderRegion{}, err
	}

	if ref.DisplayIndex > 0 {
		for _, region := range regions {
			if region.DisplayIndex == ref.DisplayIndex {
				return region, nil
			}
		}
		return models.PlaceholderRegion{}, apperr.NotFound("placeholder", fmt.Sprintf("index %d", ref.DisplayIndex))
	}

	if ref.SourceName != "" {
		for _, region := range regions {
			if region.SourceName == ref.SourceName {
				return region, nil
			}
		}
		return models.PlaceholderRegion{}, apperr.NotFound("placeholder", ref.SourceName)
	}

	return models.PlaceholderRegion{}, apperr.MissingField("placeholder")
}

// PasteTransform fits the target source into the referenced
// placeholder's box and raises it to the top of the visual stack.
func (s *ComposerService) PasteTransform(ctx context.Context, scene string, ref PlaceholderRef, targetSource string) error {
	if targetSource == "" {
		return apperr.MissingField("target")
	}

	region, err := s.resolvePlaceholder(ctx, scene, ref)
	if err != nil {
		return err
	}

	items, err := getSceneItemList(ctx, s.gateway, scene)
	if err != nil {
		return err
	}
	target, ok := findSceneItem(items, targetSource)
	if !ok {
		return apperr.NotFound("scene item", targetSource)
	}

	return s.applyFit(ctx, scene, region, target)
}

// ReplaceSource swaps the occupant of a placeholder: the removed
// source (if given) leaves the scene, the new source is ensured as a
// scene member, fitted into the placeholder box and raised to the top.
func (s *ComposerService) ReplaceSource(ctx context.Context, scene string, ref PlaceholderRef, removeSource, addSource string) error {
	if addSource == "" {
		return apperr.MissingField("add")
	}

	region, err := s.resolvePlaceholder(ctx, scene, ref)
	if err != nil {
		return err
	}

	items, err := getSceneItemList(ctx, s.gateway, scene)
	if err != nil {
		return err
	}

	if removeSource != "" {
		if occupant, ok := findSceneItem(items, removeSource); ok {
			_, err := s.gateway.Call(ctx, "RemoveSceneItem", map[string]any{
				"sceneName":   scene,
				"sceneItemId": occupant.SceneItemID,
			})
			if err != nil {
				return apperr.External("switcher", "RemoveSceneItem", err)
			}
		}
	}

	target, ok := findSceneItem(items, addSource)
	if !ok {
		var created sceneItemIDResponse
		err := switcher.CallInto(ctx, s.gateway, "CreateSceneItem", map[string]any{
			"sceneName":  scene,
			"sourceName": addSource,
		}, &created)
		if err != nil {
			return apperr.External("switcher", "CreateSceneItem", err)
		}
		target = sceneItemEntry{SceneItemID: created.SceneItemID, SourceName: addSource}
	}

	return s.applyFit(ctx, scene, region, target)
}

// applyFit reads the target's intrinsic size, computes the placement
// and writes the transform, then raises the target above any remaining
// placeholder or background layers.
func (s *ComposerService) applyFit(ctx context.Context, scene string, region models.PlaceholderRegion, target sceneItemEntry) error {
	box := Box{
		X:        region.X,
		Y:        region.Y,
		W:        region.Width,
		H:        region.Height,
		Rotation: region.Rotation,
	}

	// Intrinsic size comes from the target's own transform block; a
	// freshly created scene item is re-read to obtain it
	var mediaW, mediaH float64
	var current struct {
		Transform models.SceneItemTransform `json:"sceneItemTransform"`
	}
	err := switcher.CallInto(ctx, s.gateway, "GetSceneItemTransform", map[string]any{
		"sceneName":   scene,
		"sceneItemId": target.SceneItemID,
	}, &current)
	if err == nil {
		mediaW = current.Transform.SourceWidth
		mediaH = current.Transform.SourceHeight
	} else {
		s.log.Warn("target intrinsic size unavailable, forcing placeholder box",
			"scene", scene, "source", target.SourceName, "error", err)
	}

	fit := FitToPlaceholder(box, mediaW, mediaH)

	transform := map[string]any{
		"positionX":  fit.PositionX,
		"positionY":  fit.PositionY,
		"scaleX":     fit.ScaleX,
		"scaleY":     fit.ScaleY,
		"rotation":   fit.Rotation,
		"cropLeft":   fit.CropLeft,
		"cropRight":  fit.CropRight,
		"cropTop":    fit.CropTop,
		"cropBottom": fit.CropBottom,
		"alignment":  models.AlignTopLeft,
		"boundsType": models.BoundsNone,
	}
	if fit.Stretched {
		transform["boundsType"] = "OBS_BOUNDS_STRETCH"
		transform["boundsWidth"] = fit.BoundsWidth
		transform["boundsHeight"] = fit.BoundsHeight
	}

	_, err = s.gateway.Call(ctx, "SetSceneItemTransform", map[string]any{
		"sceneName":          scene,
		"sceneItemId":        target.SceneItemID,
		"sceneItemTransform": transform,
	})
	if err != nil {
		return apperr.External("switcher", "SetSceneItemTransform", err)
	}

	if err := raiseToTop(ctx, s.gateway, scene, target.SceneItemID); err != nil {
		return err
	}

	s.log.Info("source fitted to placeholder",
		"scene", scene,
		"placeholder", region.SourceName,
		"target", target.SourceName,
		"stretched", fit.Stretched,
	)
	return nil
}
