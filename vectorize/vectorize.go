// Package vectorize converts raster images into stylized SVG line art.
//
// Four tracing backends cover different source material: edge tracing for
// detailed line work, centerline tracing for bold shapes and logotypes,
// superpixel segmentation for flat stylized regions and stippling for
// texture. A shared pipeline handles preprocessing, polyline cleanup,
// optional hand-drawn enhancement and SVG serialization.
package vectorize

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math/rand"
	"time"
)

// StageTiming records the elapsed time of one pipeline phase.
type StageTiming struct {
	Stage    string
	Duration time.Duration
}

// Statistics summarizes one conversion for display or logging.
type Statistics struct {
	// InputWidth and InputHeight are the source dimensions before any
	// preprocessing downscale.
	InputWidth, InputHeight int
	// Width and Height are the working (and output viewBox) dimensions.
	Width, Height int

	// Strokes, Fills and Dots count emitted document elements by kind.
	// A variable-width stroke contributes one element per width run, so
	// the counts always agree with the document itself.
	Strokes, Fills, Dots int
	// SVGBytes is the size of the serialized document.
	SVGBytes int
	// CompressionRatio is SVGBytes over the raw RGBA size of the working
	// image; below 1 means the vector form is smaller.
	CompressionRatio float64

	Stages   []StageTiming
	Duration time.Duration
}

// Result is the output of one conversion.
type Result struct {
	SVG   []byte
	Stats Statistics

	// prims backs RenderPNG.
	prims []PathPrimitive
}

// Vectorize converts img to SVG according to cfg. The configuration is
// validated first and every violation reported together. Cancelling ctx
// stops the job at the next phase boundary with ErrCancelled; partial
// output is never returned.
func Vectorize(ctx context.Context, img image.Image, cfg *Config) (*Result, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config: %w", ErrInvalidInput)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	log := logger()

	var stats Statistics
	phaseStart := start
	mark := func(stage string) {
		now := time.Now()
		stats.Stages = append(stats.Stages, StageTiming{Stage: stage, Duration: now.Sub(phaseStart)})
		phaseStart = now
	}

	report := func(stage string, fraction float64) error {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%s: %w", stage, ErrCancelled)
		}
		if cfg.Progress != nil {
			cfg.Progress(ProgressUpdate{
				Stage:    stage,
				Fraction: fraction,
				Elapsed:  time.Since(start),
			})
		}
		return nil
	}

	if err := report("preprocess", 0); err != nil {
		return nil, err
	}

	if img != nil {
		b := img.Bounds()
		stats.InputWidth, stats.InputHeight = b.Dx(), b.Dy()
	}

	rb, err := NewRasterBuffer(img, cfg)
	if err != nil {
		return nil, err
	}
	stats.Width, stats.Height = rb.Width, rb.Height
	log.Debug("preprocessed image",
		"width", rb.Width, "height", rb.Height, "scale", rb.Scale)
	mark("preprocess")

	if err := report("trace", 0.15); err != nil {
		return nil, err
	}

	th := DetailThresholds(cfg.Detail, rb.Width, rb.Height)
	rng := rand.New(rand.NewSource(cfg.Seed))

	traceStart := time.Now()
	var prims []PathPrimitive
	switch cfg.Backend {
	case BackendEdge:
		prims = strokePrimitives(traceEdge(rb, cfg, th), nil, cfg.StrokeWidth)
	case BackendCenterline:
		lines, widths := traceCenterline(rb, cfg, th)
		prims = strokePrimitives(lines, widths, cfg.StrokeWidth)
	case BackendSuperpixel:
		prims = traceSuperpixel(rb, cfg, th)
	case BackendDots:
		prims = traceDots(rb, cfg, rng)
	default:
		return nil, fmt.Errorf("backend %q: %w", cfg.Backend, ErrInvalidInput)
	}
	log.Debug("traced primitives",
		"backend", cfg.Backend, "count", len(prims),
		"took", time.Since(traceStart))
	mark("trace")

	if err := report("enhance", 0.7); err != nil {
		return nil, err
	}

	prims = applyArtistic(prims, cfg.Artistic, cfg.StrokeWidth, rng)
	mark("enhance")

	if cfg.Backend == BackendEdge && cfg.Edge.EnableBezierFitting {
		if err := report("fit", 0.8); err != nil {
			return nil, err
		}
		fitCurves(prims, cfg.Edge)
		mark("fit")
	}

	if err := report("emit", 0.9); err != nil {
		return nil, err
	}

	svg, counts := encodeSVG(prims, rb.Width, rb.Height, cfg)
	mark("emit")

	stats.Strokes = counts.strokes
	stats.Fills = counts.fills
	stats.Dots = counts.dots
	stats.SVGBytes = len(svg)
	if raw := rb.Width * rb.Height * 4; raw > 0 {
		stats.CompressionRatio = float64(stats.SVGBytes) / float64(raw)
	}
	stats.Duration = time.Since(start)

	if err := report("done", 1); err != nil {
		return nil, err
	}
	log.Info("vectorized image",
		"backend", cfg.Backend,
		"strokes", stats.Strokes, "fills", stats.Fills, "dots", stats.Dots,
		"bytes", stats.SVGBytes, "took", stats.Duration)

	return &Result{SVG: svg, Stats: stats, prims: prims}, nil
}

// strokePrimitives wraps traced polylines as black stroke primitives.
// widths, when present, carries the per-vertex widths parallel to lines.
func strokePrimitives(lines []Polyline, widths [][]float64, baseWidth float64) []PathPrimitive {
	prims := make([]PathPrimitive, 0, len(lines))
	black := color.NRGBA{A: 255}
	for i, pl := range lines {
		p := PathPrimitive{
			Kind:    KindStroke,
			Line:    pl,
			Width:   baseWidth,
			Color:   black,
			Opacity: 1,
		}
		if widths != nil && len(widths[i]) == len(pl.Points) {
			p.Widths = widths[i]
		}
		prims = append(prims, p)
	}
	return prims
}

// fitCurves replaces each stroke polyline with fitted cubic Bezier
// segments. Strokes carrying per-vertex widths keep their polyline form,
// as the width runs are tied to the original vertices.
func fitCurves(prims []PathPrimitive, ec *EdgeConfig) {
	opt := FitOptions{
		MaxError:        ec.FitMaxError,
		LambdaCurvature: ec.FitLambdaCurvature,
		SplitAngleDeg:   ec.FitSplitAngle,
	}
	for i := range prims {
		p := &prims[i]
		if p.Kind != KindStroke || len(p.Widths) > 0 || len(p.Line.Points) < 3 {
			continue
		}
		pts := p.Line.Points
		if p.Line.Closed {
			pts = append(append([]Point{}, pts...), pts[0])
		}
		if curves := FitCubicBeziers(pts, opt); len(curves) > 0 {
			p.Curves = curves
		}
	}
}
