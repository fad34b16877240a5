package vectorize

import (
	"fmt"
	"io"

	"github.com/fogleman/gg"
)

// RenderPNG rasterizes the vectorized result into a PNG preview so the
// output can be inspected without an SVG viewer. The raster is drawn at
// the working resolution multiplied by scale.
func (r *Result) RenderPNG(w io.Writer, scale float64) error {
	if scale <= 0 {
		scale = 1
	}
	width := int(float64(r.Stats.Width) * scale)
	height := int(float64(r.Stats.Height) * scale)
	if width < 1 || height < 1 {
		return fmt.Errorf("empty result: %w", ErrInvalidInput)
	}

	dc := gg.NewContext(width, height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.Scale(scale, scale)

	for i := range r.prims {
		p := &r.prims[i]
		switch p.Kind {
		case KindFill:
			tracePath(dc, p)
			dc.SetColor(p.Color)
			dc.Fill()
		case KindStroke:
			drawStroke(dc, p)
		case KindDot:
			dc.DrawCircle(p.Center.X, p.Center.Y, p.Radius)
			dc.SetColor(p.Color)
			dc.Fill()
		}
	}
	return dc.EncodePNG(w)
}

func tracePath(dc *gg.Context, p *PathPrimitive) {
	if len(p.Curves) > 0 {
		dc.MoveTo(p.Curves[0].P0.X, p.Curves[0].P0.Y)
		for _, c := range p.Curves {
			dc.CubicTo(c.P1.X, c.P1.Y, c.P2.X, c.P2.Y, c.P3.X, c.P3.Y)
		}
	} else {
		pts := p.Line.Points
		if len(pts) == 0 {
			return
		}
		dc.MoveTo(pts[0].X, pts[0].Y)
		for _, pt := range pts[1:] {
			dc.LineTo(pt.X, pt.Y)
		}
	}
	if p.Line.Closed {
		dc.ClosePath()
	}
}

// drawStroke renders a stroke, splitting variable-width lines into the
// same quantized runs the SVG encoder emits.
func drawStroke(dc *gg.Context, p *PathPrimitive) {
	dc.SetColor(p.Color)
	dc.SetLineCapRound()
	dc.SetLineJoinRound()

	if len(p.Widths) == len(p.Line.Points) && len(p.Widths) > 1 {
		for _, run := range widthRuns(p.Line, p.Widths) {
			if len(run.pts) < 2 {
				continue
			}
			dc.MoveTo(run.pts[0].X, run.pts[0].Y)
			for _, pt := range run.pts[1:] {
				dc.LineTo(pt.X, pt.Y)
			}
			dc.SetLineWidth(run.width)
			dc.Stroke()
		}
		return
	}

	tracePath(dc, p)
	dc.SetLineWidth(p.Width)
	dc.Stroke()
}
