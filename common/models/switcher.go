package models

// Alignment bit flags used by the switcher for scene item transforms
const (
	AlignCenter  = 0
	AlignLeft    = 1
	AlignTop     = 4
	AlignTopLeft = AlignLeft | AlignTop
)

// BoundsNone disables bounding-box scaling so manual scale and crop
// values on a scene item are authoritative.
const BoundsNone = "OBS_BOUNDS_NONE"

// VideoSettings is the switcher's canvas configuration
type VideoSettings struct {
	BaseWidth    int `json:"baseWidth"`
	BaseHeight   int `json:"baseHeight"`
	OutputWidth  int `json:"outputWidth"`
	OutputHeight int `json:"outputHeight"`
}

// SceneItem is an instance of a source placed within a scene
type SceneItem struct {
	SceneItemID int    `json:"sceneItemId"`
	SourceName  string `json:"sourceName"`
	InputKind   string `json:"inputKind"`
	IsGroup     bool   `json:"isGroup"`
	Index       int    `json:"sceneItemIndex"`
}

// SceneItemTransform mirrors the switcher's per-item transform block
type SceneItemTransform struct {
	PositionX float64 `json:"positionX"`
	PositionY float64 `json:"positionY"`
	ScaleX    float64 `json:"scaleX"`
	ScaleY    float64 `json:"scaleY"`
	Rotation  float64 `json:"rotation"`

	// Width/Height are the post-transform visual size. SourceWidth and
	// SourceHeight are the intrinsic, unscaled dimensions.
	Width        float64 `json:"width"`
	Height       float64 `json:"height"`
	SourceWidth  float64 `json:"sourceWidth"`
	SourceHeight float64 `json:"sourceHeight"`

	CropLeft   float64 `json:"cropLeft"`
	CropRight  float64 `json:"cropRight"`
	CropTop    float64 `json:"cropTop"`
	CropBottom float64 `json:"cropBottom"`

	BoundsType   string  `json:"boundsType,omitempty"`
	BoundsWidth  float64 `json:"boundsWidth,omitempty"`
	BoundsHeight float64 `json:"boundsHeight,omitempty"`

	Alignment int `json:"alignment"`
}

// PlaceholderRegion is a discovered placeholder box within a scene.
// Derived from the live scene-item list, never persisted or cached.
type PlaceholderRegion struct {
	SceneItemID  int     `json:"sceneItemId"`
	SourceName   string  `json:"sourceName"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	Width        float64 `json:"width"`
	Height       float64 `json:"height"`
	Rotation     float64 `json:"rotation"`
	Aspect       float64 `json:"aspect"`
	DisplayIndex int     `json:"displayIndex"`

	// Canvas-normalized (0-1) coordinates, present when the canvas
	// size is known
	NormX *float64 `json:"normX,omitempty"`
	NormY *float64 `json:"normY,omitempty"`
	NormW *float64 `json:"normW,omitempty"`
	NormH *float64 `json:"normH,omitempty"`
}

// ChannelSpec declares one utility-scene channel input
type ChannelSpec struct {
	Name          string         `json:"name"`
	InputKind     string         `json:"inputKind"`
	InputSettings map[string]any `json:"inputSettings,omitempty"`
}

// Scene is a switcher scene summary
type Scene struct {
	Name  string `json:"sceneName"`
	Index int    `json:"sceneIndex"`
}

// Source is one entry in the all-sources catalog
type Source struct {
	Name      string `json:"sourceName"`
	InputKind string `json:"inputKind"`
	Scene     string `json:"scene"`
}

// Transition is a switcher scene transition summary
type Transition struct {
	Name  string `json:"transitionName"`
	Kind  string `json:"transitionKind"`
	Fixed bool   `json:"transitionFixed"`
}
