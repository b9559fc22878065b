package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// fakeSwitcher is an in-memory switcher that answers the RPC methods
// the services use. Scenes hold ordered item slices; slice order is
// stacking order.
type fakeSwitcher struct {
	mu sync.Mutex

	canvasW int
	canvasH int

	sceneOrder  []string
	scenes      map[string][]*fakeItem
	inputs      map[string]*fakeInput
	transitions []string

	nextItemID int
	calls      []string
	failOn     map[string]error
}

type fakeInput struct {
	kind     string
	settings map[string]any
	width    float64
	height   float64
}

type fakeItem struct {
	id         int
	sourceName string
	transform  map[string]any
}

func newFakeSwitcher() *fakeSwitcher {
	return &fakeSwitcher{
		canvasW:    1920,
		canvasH:    1080,
		scenes:     map[string][]*fakeItem{},
		inputs:     map[string]*fakeInput{},
		nextItemID: 1,
		failOn:     map[string]error{},
	}
}

func (f *fakeSwitcher) Connect(ctx context.Context) error { return nil }
func (f *fakeSwitcher) IsConnected() bool                 { return true }

func (f *fakeSwitcher) addScene(name string) {
	if _, ok := f.scenes[name]; !ok {
		f.scenes[name] = []*fakeItem{}
		f.sceneOrder = append(f.sceneOrder, name)
	}
}

func (f *fakeSwitcher) addInput(name, kind string, w, h float64) {
	f.inputs[name] = &fakeInput{kind: kind, settings: map[string]any{}, width: w, height: h}
}

func (f *fakeSwitcher) addItem(scene, source string, transform map[string]any) *fakeItem {
	item := &fakeItem{id: f.nextItemID, sourceName: source, transform: transform}
	f.nextItemID++
	f.scenes[scene] = append(f.scenes[scene], item)
	return item
}

func (f *fakeSwitcher) findItem(scene, source string) *fakeItem {
	for _, item := range f.scenes[scene] {
		if item.sourceName == source {
			return item
		}
	}
	return nil
}

func (f *fakeSwitcher) countCalls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, call := range f.calls {
		if call == method {
			count++
		}
	}
	return count
}

func (f *fakeSwitcher) itemTransform(item *fakeItem) map[string]any {
	out := map[string]any{
		"positionX": 0.0, "positionY": 0.0,
		"scaleX": 1.0, "scaleY": 1.0,
		"rotation": 0.0,
	}
	for k, v := range item.transform {
		out[k] = v
	}
	if input, ok := f.inputs[item.sourceName]; ok {
		out["sourceWidth"] = input.width
		out["sourceHeight"] = input.height
	}
	return out
}

func (f *fakeSwitcher) Call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, method)
	if err, ok := f.failOn[method]; ok {
		return nil, err
	}

	var p map[string]any
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
	}

	str := func(key string) string {
		s, _ := p[key].(string)
		return s
	}
	itemID := func() int {
		id, _ := p["sceneItemId"].(float64)
		return int(id)
	}

	switch method {
	case "GetVideoSettings":
		return marshal(map[string]any{"baseWidth": f.canvasW, "baseHeight": f.canvasH})

	case "GetSceneList":
		scenes := []map[string]any{}
		for i, name := range f.sceneOrder {
			scenes = append(scenes, map[string]any{"sceneName": name, "sceneIndex": i})
		}
		return marshal(map[string]any{"scenes": scenes})

	case "CreateScene":
		f.addScene(str("sceneName"))
		return marshal(map[string]any{})

	case "GetInputList":
		inputs := []map[string]any{}
		for name, input := range f.inputs {
			inputs = append(inputs, map[string]any{"inputName": name, "inputKind": input.kind})
		}
		return marshal(map[string]any{"inputs": inputs})

	case "CreateInput":
		name := str("inputName")
		settings, _ := p["inputSettings"].(map[string]any)
		if settings == nil {
			settings = map[string]any{}
		}
		f.inputs[name] = &fakeInput{kind: str("inputKind"), settings: settings}
		item := f.addItem(str("sceneName"), name, map[string]any{})
		return marshal(map[string]any{"sceneItemId": item.id})

	case "GetInputSettings":
		input, ok := f.inputs[str("inputName")]
		if !ok {
			return nil, fmt.Errorf("no such input: %s", str("inputName"))
		}
		return marshal(map[string]any{"inputSettings": input.settings})

	case "SetInputSettings":
		input, ok := f.inputs[str("inputName")]
		if !ok {
			return nil, fmt.Errorf("no such input: %s", str("inputName"))
		}
		settings, _ := p["inputSettings"].(map[string]any)
		input.settings = settings
		return marshal(map[string]any{})

	case "GetSceneItemList":
		items, ok := f.scenes[str("sceneName")]
		if !ok {
			return nil, fmt.Errorf("no such scene: %s", str("sceneName"))
		}
		entries := []map[string]any{}
		for i, item := range items {
			kind := ""
			if input, ok := f.inputs[item.sourceName]; ok {
				kind = input.kind
			}
			entries = append(entries, map[string]any{
				"sceneItemId":        item.id,
				"sourceName":         item.sourceName,
				"inputKind":          kind,
				"sceneItemIndex":     i,
				"sceneItemTransform": f.itemTransform(item),
			})
		}
		return marshal(map[string]any{"sceneItems": entries})

	case "CreateSceneItem":
		scene := str("sceneName")
		if _, ok := f.scenes[scene]; !ok {
			return nil, fmt.Errorf("no such scene: %s", scene)
		}
		item := f.addItem(scene, str("sourceName"), map[string]any{})
		return marshal(map[string]any{"sceneItemId": item.id})

	case "RemoveSceneItem":
		scene := str("sceneName")
		for i, item := range f.scenes[scene] {
			if item.id == itemID() {
				f.scenes[scene] = append(f.scenes[scene][:i], f.scenes[scene][i+1:]...)
				return marshal(map[string]any{})
			}
		}
		return nil, fmt.Errorf("no such scene item: %d", itemID())

	case "GetSceneItemTransform":
		for _, items := range f.scenes {
			for _, item := range items {
				if item.id == itemID() {
					return marshal(map[string]any{"sceneItemTransform": f.itemTransform(item)})
				}
			}
		}
		return nil, fmt.Errorf("no such scene item: %d", itemID())

	case "SetSceneItemTransform":
		transform, _ := p["sceneItemTransform"].(map[string]any)
		for _, items := range f.scenes {
			for _, item := range items {
				if item.id == itemID() {
					item.transform = transform
					return marshal(map[string]any{})
				}
			}
		}
		return nil, fmt.Errorf("no such scene item: %d", itemID())

	case "SetSceneItemIndex":
		scene := str("sceneName")
		target, _ := p["sceneItemIndex"].(float64)
		items := f.scenes[scene]
		for i, item := range items {
			if item.id == itemID() {
				moved := item
				items = append(items[:i], items[i+1:]...)
				idx := int(target)
				if idx > len(items) {
					idx = len(items)
				}
				items = append(items[:idx], append([]*fakeItem{moved}, items[idx:]...)...)
				f.scenes[scene] = items
				return marshal(map[string]any{})
			}
		}
		return nil, fmt.Errorf("no such scene item: %d", itemID())

	case "GetSceneTransitionList":
		transitions := []map[string]any{}
		for _, name := range f.transitions {
			transitions = append(transitions, map[string]any{"transitionName": name})
		}
		return marshal(map[string]any{"transitions": transitions})

	case "GetSourceScreenshot":
		return marshal(map[string]any{"imageData": "data:image/png;base64,iVBORw0KGgo="})

	default:
		return nil, fmt.Errorf("unhandled method: %s", method)
	}
}

func marshal(v any) (json.RawMessage, error) {
	raw, err := json.Marshal(v)
	return json.RawMessage(raw), err
}
