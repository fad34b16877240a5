package vectorize

import (
	"image"
	"image/color"
	"math"
	"testing"
)

// drawImage builds a synthetic NRGBA test image from a per-pixel function.
func drawImage(w, h int, at func(x, y int) color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, at(x, y))
		}
	}
	return img
}

func uniformImage(w, h int, c color.NRGBA) *image.NRGBA {
	return drawImage(w, h, func(x, y int) color.NRGBA { return c })
}

func whiteNRGBA() color.NRGBA {
	return color.NRGBA{R: 255, G: 255, B: 255, A: 255}
}

// ringImage draws a dark circle outline of the given thickness on white.
func ringImage(w, h int, cx, cy, r, thickness float64) *image.NRGBA {
	return drawImage(w, h, func(x, y int) color.NRGBA {
		d := math.Hypot(float64(x)-cx, float64(y)-cy)
		if math.Abs(d-r) <= thickness/2 {
			return color.NRGBA{A: 255}
		}
		return color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	})
}

// diskImage draws a filled dark circle on white.
func diskImage(w, h int, cx, cy, r float64) *image.NRGBA {
	return drawImage(w, h, func(x, y int) color.NRGBA {
		if math.Hypot(float64(x)-cx, float64(y)-cy) <= r {
			return color.NRGBA{A: 255}
		}
		return color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	})
}

// barImage draws a dark horizontal bar of the given thickness on white.
func barImage(w, h, thickness int) *image.NRGBA {
	y0 := h/2 - thickness/2
	y1 := y0 + thickness
	return drawImage(w, h, func(x, y int) color.NRGBA {
		if y >= y0 && y < y1 && x >= 4 && x < w-4 {
			return color.NRGBA{A: 255}
		}
		return color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	})
}

// quadrantImage splits the canvas into four flat-colored quadrants.
func quadrantImage(w, h int) *image.NRGBA {
	colors := [4]color.NRGBA{
		{R: 220, G: 40, B: 40, A: 255},
		{R: 40, G: 220, B: 40, A: 255},
		{R: 40, G: 40, B: 220, A: 255},
		{R: 220, G: 220, B: 40, A: 255},
	}
	return drawImage(w, h, func(x, y int) color.NRGBA {
		i := 0
		if x >= w/2 {
			i++
		}
		if y >= h/2 {
			i += 2
		}
		return colors[i]
	})
}

// mustRaster preprocesses img with the backend's default configuration.
func mustRaster(t *testing.T, img image.Image, cfg *Config) *RasterBuffer {
	t.Helper()
	rb, err := NewRasterBuffer(img, cfg)
	if err != nil {
		t.Fatalf("building raster buffer: %v", err)
	}
	return rb
}
