package service

import (
	"context"
	"testing"

	"github.com/lumacast/showrunner/common/config"
	"github.com/lumacast/showrunner/common/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSwitcherConfig() config.SwitcherConfig {
	return config.SwitcherConfig{
		FallbackCanvasWidth:  1920,
		FallbackCanvasHeight: 1080,
	}
}

func newTestComposer(sw *fakeSwitcher) *ComposerService {
	return NewComposerService(sw, testSwitcherConfig(), logger.New("error", "text"))
}

func TestListPlaceholders_OrderAndIndexing(t *testing.T) {
	sw := newFakeSwitcher()
	sw.addScene("Interview")
	sw.addInput("ph-bottom-left", "color_source_v3", 0, 0)
	sw.addInput("ph-top-right", "color_source", 0, 0)
	sw.addInput("ph-top-left", "color_source_v3", 0, 0)
	sw.addInput("Camera 1", "dshow_input", 1920, 1080)

	// Insertion order deliberately scrambled; discovery must sort by
	// Y then X
	sw.addItem("Interview", "ph-bottom-left", map[string]any{
		"positionX": 100.0, "positionY": 700.0, "width": 400.0, "height": 300.0,
	})
	sw.addItem("Interview", "ph-top-right", map[string]any{
		"positionX": 1200.0, "positionY": 100.0, "width": 400.0, "height": 300.0,
	})
	sw.addItem("Interview", "ph-top-left", map[string]any{
		"positionX": 100.0, "positionY": 100.0, "width": 400.0, "height": 300.0,
	})
	sw.addItem("Interview", "Camera 1", map[string]any{
		"positionX": 0.0, "positionY": 0.0, "width": 1920.0, "height": 1080.0,
	})

	regions, err := newTestComposer(sw).ListPlaceholders(context.Background(), "Interview")
	require.NoError(t, err)
	require.Len(t, regions, 3, "camera source must not be discovered")

	assert.Equal(t, "ph-top-left", regions[0].SourceName)
	assert.Equal(t, "ph-top-right", regions[1].SourceName)
	assert.Equal(t, "ph-bottom-left", regions[2].SourceName)

	for i, region := range regions {
		assert.Equal(t, i+1, region.DisplayIndex)
	}

	// Normalized coordinates derive from the canvas size
	require.NotNil(t, regions[0].NormX)
	assert.InDelta(t, 100.0/1920.0, *regions[0].NormX, 1e-9)
	assert.InDelta(t, 300.0/1080.0, *regions[0].NormH, 1e-9)
}

func TestListPlaceholders_KeepTokenOptsOut(t *testing.T) {
	sw := newFakeSwitcher()
	sw.addScene("Main")
	sw.addInput("Background #KEEP", "color_source_v3", 0, 0)
	sw.addInput("ph-1", "color_source_v3", 0, 0)

	sw.addItem("Main", "Background #KEEP", map[string]any{
		"positionX": 0.0, "positionY": 0.0, "width": 1920.0, "height": 1080.0,
	})
	sw.addItem("Main", "ph-1", map[string]any{
		"positionX": 50.0, "positionY": 50.0, "width": 200.0, "height": 200.0,
	})

	regions, err := newTestComposer(sw).ListPlaceholders(context.Background(), "Main")
	require.NoError(t, err)
	require.Len(t, regions, 1)
	assert.Equal(t, "ph-1", regions[0].SourceName)
}

func TestListPlaceholders_SkipsUnreadableGeometry(t *testing.T) {
	sw := newFakeSwitcher()
	sw.addScene("Main")
	sw.addInput("ph-broken", "color_source_v3", 0, 0)
	sw.addInput("ph-good", "color_source_v3", 0, 0)

	// No width/height and no intrinsic size: box resolves to zero
	sw.addItem("Main", "ph-broken", map[string]any{
		"positionX": 0.0, "positionY": 0.0,
	})
	sw.addItem("Main", "ph-good", map[string]any{
		"positionX": 10.0, "positionY": 10.0, "width": 100.0, "height": 100.0,
	})

	regions, err := newTestComposer(sw).ListPlaceholders(context.Background(), "Main")
	require.NoError(t, err)
	require.Len(t, regions, 1)
	assert.Equal(t, "ph-good", regions[0].SourceName)
}

func TestPasteTransform_FitsAndRaises(t *testing.T) {
	sw := newFakeSwitcher()
	sw.addScene("Main")
	sw.addInput("ph-1", "color_source_v3", 0, 0)
	sw.addInput("Camera 1", "dshow_input", 1920, 1080)

	sw.addItem("Main", "ph-1", map[string]any{
		"positionX": 100.0, "positionY": 100.0, "width": 640.0, "height": 360.0,
	})
	camera := sw.addItem("Main", "Camera 1", map[string]any{})
	sw.addItem("Main", "Lower Third", map[string]any{})
	sw.addInput("Lower Third", "browser_source", 1920, 1080)

	err := newTestComposer(sw).PasteTransform(context.Background(), "Main",
		PlaceholderRef{SourceName: "ph-1"}, "Camera 1")
	require.NoError(t, err)

	// Equal aspect: exact fill, no crop, no stretch
	transform := camera.transform
	assert.InDelta(t, 100.0, transform["positionX"].(float64), 1e-9)
	assert.InDelta(t, 360.0/1080.0, transform["scaleX"].(float64), 1e-9)
	assert.InDelta(t, 0.0, transform["cropLeft"].(float64), 1e-9)
	_, hasBounds := transform["boundsWidth"]
	assert.False(t, hasBounds)

	// Raised to the top of the stack
	items := sw.scenes["Main"]
	assert.Equal(t, "Camera 1", items[len(items)-1].sourceName)
}

func TestPasteTransform_ByDisplayIndex(t *testing.T) {
	sw := newFakeSwitcher()
	sw.addScene("Main")
	sw.addInput("ph-a", "color_source_v3", 0, 0)
	sw.addInput("ph-b", "color_source_v3", 0, 0)
	sw.addInput("Camera 1", "dshow_input", 1920, 1080)

	sw.addItem("Main", "ph-a", map[string]any{
		"positionX": 0.0, "positionY": 0.0, "width": 640.0, "height": 360.0,
	})
	sw.addItem("Main", "ph-b", map[string]any{
		"positionX": 1000.0, "positionY": 0.0, "width": 640.0, "height": 360.0,
	})
	camera := sw.addItem("Main", "Camera 1", map[string]any{})

	err := newTestComposer(sw).PasteTransform(context.Background(), "Main",
		PlaceholderRef{DisplayIndex: 2}, "Camera 1")
	require.NoError(t, err)

	assert.InDelta(t, 1000.0, camera.transform["positionX"].(float64), 1e-9)
}

func TestPasteTransform_MissingPlaceholder(t *testing.T) {
	sw := newFakeSwitcher()
	sw.addScene("Main")

	err := newTestComposer(sw).PasteTransform(context.Background(), "Main",
		PlaceholderRef{SourceName: "nope"}, "Camera 1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestReplaceSource_SwapsOccupant(t *testing.T) {
	sw := newFakeSwitcher()
	sw.addScene("Main")
	sw.addInput("ph-1", "color_source_v3", 0, 0)
	sw.addInput("Old Video", "ffmpeg_source", 1280, 720)
	sw.addInput("New Video", "ffmpeg_source", 1280, 720)

	sw.addItem("Main", "ph-1", map[string]any{
		"positionX": 200.0, "positionY": 200.0, "width": 640.0, "height": 360.0,
	})
	sw.addItem("Main", "Old Video", map[string]any{})

	err := newTestComposer(sw).ReplaceSource(context.Background(), "Main",
		PlaceholderRef{SourceName: "ph-1"}, "Old Video", "New Video")
	require.NoError(t, err)

	assert.Nil(t, sw.findItem("Main", "Old Video"), "old occupant must leave the scene")

	added := sw.findItem("Main", "New Video")
	require.NotNil(t, added, "new source must join the scene")
	assert.InDelta(t, 200.0, added.transform["positionX"].(float64), 1e-9)
}

func TestReplaceSource_UnknownIntrinsicSizeStretches(t *testing.T) {
	sw := newFakeSwitcher()
	sw.addScene("Main")
	sw.addInput("ph-1", "color_source_v3", 0, 0)
	sw.addInput("Browser", "browser_source", 0, 0)

	sw.addItem("Main", "ph-1", map[string]any{
		"positionX": 0.0, "positionY": 0.0, "width": 500.0, "height": 400.0,
	})

	err := newTestComposer(sw).ReplaceSource(context.Background(), "Main",
		PlaceholderRef{DisplayIndex: 1}, "", "Browser")
	require.NoError(t, err)

	added := sw.findItem("Main", "Browser")
	require.NotNil(t, added)
	assert.Equal(t, "OBS_BOUNDS_STRETCH", added.transform["boundsType"])
	assert.InDelta(t, 500.0, added.transform["boundsWidth"].(float64), 1e-9)
	assert.InDelta(t, 400.0, added.transform["boundsHeight"].(float64), 1e-9)
}
