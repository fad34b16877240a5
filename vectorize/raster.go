package vectorize

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math"
	"os"

	"github.com/disintegration/imaging"
)

// maxInputPixels is the hard memory cap on the decoded input: images above
// it are rejected with ErrResourceExceeded before any allocation of working
// buffers. The configured MaxImageSize downscale cap applies below it.
const maxInputPixels = 1 << 26

// RasterBuffer is the decoded, normalized pixel grid every backend reads.
// Dimensions are immutable after creation; Scale records the downscale
// factor applied during preprocessing so callers can map coordinates back
// to source space.
type RasterBuffer struct {
	Width, Height int
	// Pix is tightly packed RGBA, 4 bytes per pixel.
	Pix []uint8
	// Gray is the luminance plane normalized to [0,1].
	Gray []float32
	// Scale is working-size / source-size, 1 when no downscale happened.
	Scale float64
}

// NewRasterBuffer decodes, optionally downscales and denoises img, and
// derives the grayscale plane. It fails with ErrInvalidInput for zero-area
// images and ErrResourceExceeded for images above the memory cap.
func NewRasterBuffer(img image.Image, cfg *Config) (*RasterBuffer, error) {
	if img == nil {
		return nil, fmt.Errorf("nil image: %w", ErrInvalidInput)
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("zero-area image %dx%d: %w", w, h, ErrInvalidInput)
	}
	if w*h > maxInputPixels {
		return nil, fmt.Errorf("image %dx%d exceeds %d pixel cap: %w", w, h, maxInputPixels, ErrResourceExceeded)
	}

	scale := 1.0
	maxSize := cfg.Performance.MaxImageSize
	if maxSize > 0 && (w > maxSize || h > maxSize) {
		if w >= h {
			scale = float64(maxSize) / float64(w)
			img = imaging.Resize(img, maxSize, 0, imaging.Lanczos)
		} else {
			scale = float64(maxSize) / float64(h)
			img = imaging.Resize(img, 0, maxSize, imaging.Lanczos)
		}
		b = img.Bounds()
		w, h = b.Dx(), b.Dy()
	}

	if cfg.NoiseFiltering {
		img = imaging.Blur(img, 1.2)
	}

	nrgba := imaging.Clone(img)

	rb := &RasterBuffer{
		Width:  w,
		Height: h,
		Pix:    nrgba.Pix,
		Scale:  scale,
	}
	rb.Gray = rgbToGrayscale(nrgba.Pix, w, h, cfg.Performance.ThreadCount)
	return rb, nil
}

// rgbToGrayscale converts packed RGBA into a normalized luminance plane.
func rgbToGrayscale(pix []uint8, w, h, workers int) []float32 {
	gray := make([]float32, w*h)
	parallelFor(workers, w*h, func(start, end int) {
		for i := start; i < end; i++ {
			r := float32(pix[i*4+0])
			g := float32(pix[i*4+1])
			b := float32(pix[i*4+2])
			gray[i] = (0.299*r + 0.587*g + 0.114*b) / 255.0
		}
	})
	return gray
}

// GrayAt returns the normalized luminance at (x,y), clamping out-of-range
// coordinates to the border.
func (rb *RasterBuffer) GrayAt(x, y int) float32 {
	if x < 0 {
		x = 0
	} else if x >= rb.Width {
		x = rb.Width - 1
	}
	if y < 0 {
		y = 0
	} else if y >= rb.Height {
		y = rb.Height - 1
	}
	return rb.Gray[y*rb.Width+x]
}

// ColorAt returns the RGBA color at (x,y), clamping to the border.
func (rb *RasterBuffer) ColorAt(x, y int) color.NRGBA {
	if x < 0 {
		x = 0
	} else if x >= rb.Width {
		x = rb.Width - 1
	}
	if y < 0 {
		y = 0
	} else if y >= rb.Height {
		y = rb.Height - 1
	}
	i := (y*rb.Width + x) * 4
	return color.NRGBA{R: rb.Pix[i], G: rb.Pix[i+1], B: rb.Pix[i+2], A: rb.Pix[i+3]}
}

// DecodeImage decodes a registered image format from r.
func DecodeImage(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return img, nil
}

// GetImage reads and decodes the image file at path.
func GetImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeImage(f)
}

// otsuThreshold computes a global binarization threshold on the grayscale
// plane by maximizing inter-class variance.
func otsuThreshold(gray []float32) float32 {
	var hist [256]int
	for _, v := range gray {
		i := int(v * 255)
		if i < 0 {
			i = 0
		} else if i > 255 {
			i = 255
		}
		hist[i]++
	}
	total := len(gray)

	var sum float64
	for i, c := range hist {
		sum += float64(i) * float64(c)
	}

	var sumB, wB float64
	var maxVar float64
	best := 127
	for i := 0; i < 256; i++ {
		wB += float64(hist[i])
		if wB == 0 {
			continue
		}
		wF := float64(total) - wB
		if wF == 0 {
			break
		}
		sumB += float64(i) * float64(hist[i])
		mB := sumB / wB
		mF := (sum - sumB) / wF
		v := wB * wF * (mB - mF) * (mB - mF)
		if v > maxVar {
			maxVar = v
			best = i
		}
	}
	return float32(best) / 255.0
}

// binarize thresholds the grayscale plane into a foreground mask, where
// foreground is the dark side. Adaptive mode uses Sauvola's sliding-window
// formula over integral images; fixed mode uses a global Otsu threshold.
func binarize(rb *RasterBuffer, adaptive bool, window int, k float64, workers int) []bool {
	w, h := rb.Width, rb.Height
	mask := make([]bool, w*h)

	if !adaptive {
		t := otsuThreshold(rb.Gray)
		parallelFor(workers, w*h, func(start, end int) {
			for i := start; i < end; i++ {
				mask[i] = rb.Gray[i] < t
			}
		})
		return mask
	}

	// Integral images of value and squared value, one row/column of
	// padding so window sums need no boundary special cases.
	iw := w + 1
	integral := make([]float64, iw*(h+1))
	integralSq := make([]float64, iw*(h+1))
	for y := 0; y < h; y++ {
		var rowSum, rowSumSq float64
		for x := 0; x < w; x++ {
			v := float64(rb.Gray[y*w+x])
			rowSum += v
			rowSumSq += v * v
			integral[(y+1)*iw+x+1] = integral[y*iw+x+1] + rowSum
			integralSq[(y+1)*iw+x+1] = integralSq[y*iw+x+1] + rowSumSq
		}
	}

	if window < 3 {
		window = 3
	}
	r := window / 2
	parallelFor(workers, h, func(startRow, endRow int) {
		for y := startRow; y < endRow; y++ {
			for x := 0; x < w; x++ {
				x0, y0 := x-r, y-r
				x1, y1 := x+r+1, y+r+1
				if x0 < 0 {
					x0 = 0
				}
				if y0 < 0 {
					y0 = 0
				}
				if x1 > w {
					x1 = w
				}
				if y1 > h {
					y1 = h
				}
				area := float64((x1 - x0) * (y1 - y0))
				s := integral[y1*iw+x1] - integral[y0*iw+x1] - integral[y1*iw+x0] + integral[y0*iw+x0]
				sq := integralSq[y1*iw+x1] - integralSq[y0*iw+x1] - integralSq[y1*iw+x0] + integralSq[y0*iw+x0]
				mean := s / area
				variance := sq/area - mean*mean
				if variance < 0 {
					variance = 0
				}
				stddev := math.Sqrt(variance)
				// Sauvola: t = m * (1 + k*(s/R - 1)) with R = 0.5
				// for normalized intensities.
				t := mean * (1 + k*(stddev/0.5-1))
				mask[y*w+x] = float64(rb.Gray[y*w+x]) < t
			}
		}
	})
	return mask
}
