//go:build js && wasm

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"syscall/js"

	"github.com/robmcdonald5/vec2art-sub012/vectorize"
)

// main registers the vectorizer on the Javascript global object and blocks
// so exported functions stay callable for the page lifetime.
func main() {
	js.Global().Set("vectorize", js.FuncOf(vectorizeImage))
	js.Global().Set("vectorizeDefaults", js.FuncOf(defaults))
	select {}
}

// vectorizeImage converts canvas pixel data to SVG.
//
//	vectorize(pixels, width, height, configJSON) -> {svg, stats} | {error}
//
// pixels is the Uint8ClampedArray of an ImageData object. configJSON may be
// empty, in which case the edge backend defaults apply.
func vectorizeImage(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return errValue(fmt.Errorf("expected (pixels, width, height[, config])"))
	}
	width := args[1].Int()
	height := args[2].Int()
	if width <= 0 || height <= 0 || args[0].Length() != width*height*4 {
		return errValue(fmt.Errorf("pixel buffer does not match %dx%d", width, height))
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	js.CopyBytesToGo(img.Pix, args[0])

	cfg, err := parseConfig(args)
	if err != nil {
		return errValue(err)
	}

	res, err := vectorize.Vectorize(context.Background(), img, cfg)
	if err != nil {
		return errValue(err)
	}

	stats, err := json.Marshal(res.Stats)
	if err != nil {
		return errValue(err)
	}
	return js.ValueOf(map[string]interface{}{
		"svg":   string(res.SVG),
		"stats": string(stats),
	})
}

// defaults returns the default configuration of a backend as JSON, so the
// page can render its tuning controls from the same source of truth.
func defaults(this js.Value, args []js.Value) interface{} {
	name := "edge"
	if len(args) > 0 {
		name = args[0].String()
	}
	b, err := vectorize.ParseBackend(name)
	if err != nil {
		return errValue(err)
	}
	buf, err := json.Marshal(vectorize.DefaultConfig(b))
	if err != nil {
		return errValue(err)
	}
	return js.ValueOf(map[string]interface{}{"config": string(buf)})
}

func parseConfig(args []js.Value) (*vectorize.Config, error) {
	backend := vectorize.BackendEdge
	var raw map[string]json.RawMessage

	if len(args) > 3 && args[3].Type() == js.TypeString && args[3].String() != "" {
		if err := json.Unmarshal([]byte(args[3].String()), &raw); err != nil {
			return nil, fmt.Errorf("config is not valid json: %w", err)
		}
		if v, ok := raw["backend"]; ok {
			var name string
			if err := json.Unmarshal(v, &name); err != nil {
				return nil, err
			}
			b, err := vectorize.ParseBackend(name)
			if err != nil {
				return nil, err
			}
			backend = b
		}
	}

	cfg := vectorize.DefaultConfig(backend)
	if len(args) > 3 && args[3].Type() == js.TypeString && args[3].String() != "" {
		if err := json.Unmarshal([]byte(args[3].String()), cfg); err != nil {
			return nil, fmt.Errorf("config is not valid json: %w", err)
		}
	}
	return cfg, nil
}

func errValue(err error) js.Value {
	return js.ValueOf(map[string]interface{}{"error": err.Error()})
}
