package vectorize

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"
)

// svgEncoder serializes primitives to an SVG document. Numbers are
// rounded to the configured precision and trailing zeros trimmed, which
// both shrinks the output and makes it byte-stable across runs.
type svgEncoder struct {
	buf       strings.Builder
	precision int

	// Elements emitted per kind. Variable-width strokes split into one
	// path per width run, so these can exceed the primitive counts.
	strokes, fills, dots int
}

func (e *svgEncoder) num(v float64) string {
	s := strconv.FormatFloat(v, 'f', e.precision, 64)
	if e.precision > 0 && strings.ContainsRune(s, '.') {
		s = strings.TrimRight(s, "0")
		s = strings.TrimRight(s, ".")
	}
	if s == "-0" {
		s = "0"
	}
	return s
}

func (e *svgEncoder) colorAttr(c color.NRGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// pathData builds the d attribute for a polyline, or for fitted cubic
// Bezier curves when present.
func (e *svgEncoder) pathData(p *PathPrimitive) string {
	var d strings.Builder
	if len(p.Curves) > 0 {
		start := p.Curves[0].P0
		d.WriteString("M")
		d.WriteString(e.num(start.X))
		d.WriteString(" ")
		d.WriteString(e.num(start.Y))
		for _, c := range p.Curves {
			d.WriteString("C")
			for i, pt := range [3]Point{c.P1, c.P2, c.P3} {
				if i > 0 {
					d.WriteString(" ")
				}
				d.WriteString(e.num(pt.X))
				d.WriteString(",")
				d.WriteString(e.num(pt.Y))
			}
		}
		if p.Line.Closed {
			d.WriteString("Z")
		}
		return d.String()
	}

	pts := p.Line.Points
	if len(pts) == 0 {
		return ""
	}
	d.WriteString("M")
	d.WriteString(e.num(pts[0].X))
	d.WriteString(" ")
	d.WriteString(e.num(pts[0].Y))
	for _, pt := range pts[1:] {
		d.WriteString("L")
		d.WriteString(e.num(pt.X))
		d.WriteString(" ")
		d.WriteString(e.num(pt.Y))
	}
	if p.Line.Closed {
		d.WriteString("Z")
	}
	return d.String()
}

// widthRuns splits a variable-width stroke into maximal runs of equal
// quantized width so each run can be emitted as one path element. Widths
// are quantized to quarter-pixel steps to keep the run count small.
func widthRuns(pl Polyline, widths []float64) []struct {
	pts   []Point
	width float64
} {
	quant := func(w float64) float64 {
		return math.Round(w*4) / 4
	}
	var runs []struct {
		pts   []Point
		width float64
	}
	start := 0
	cur := quant(widths[0])
	for i := 1; i < len(widths); i++ {
		q := quant(widths[i])
		if q != cur {
			// Runs share the boundary vertex so strokes stay joined.
			runs = append(runs, struct {
				pts   []Point
				width float64
			}{pl.Points[start : i+1], cur})
			start = i
			cur = q
		}
	}
	runs = append(runs, struct {
		pts   []Point
		width float64
	}{pl.Points[start:], cur})
	return runs
}

func (e *svgEncoder) writeStroke(p *PathPrimitive, baseWidth float64) {
	col := e.colorAttr(p.Color)
	opacity := ""
	if p.Opacity < 1 {
		opacity = ` stroke-opacity="` + e.num(p.Opacity) + `"`
	}

	if len(p.Widths) == len(p.Line.Points) && len(p.Widths) > 1 {
		for _, run := range widthRuns(p.Line, p.Widths) {
			if len(run.pts) < 2 {
				continue
			}
			sub := PathPrimitive{Line: Polyline{Points: run.pts}}
			e.strokes++
			fmt.Fprintf(&e.buf,
				"<path d=\"%s\" fill=\"none\" stroke=\"%s\" stroke-width=\"%s\" stroke-linecap=\"round\" stroke-linejoin=\"round\"%s/>\n",
				e.pathData(&sub), col, e.num(run.width), opacity)
		}
		return
	}

	w := p.Width
	if w <= 0 {
		w = baseWidth
	}
	e.strokes++
	fmt.Fprintf(&e.buf,
		"<path d=\"%s\" fill=\"none\" stroke=\"%s\" stroke-width=\"%s\" stroke-linecap=\"round\" stroke-linejoin=\"round\"%s/>\n",
		e.pathData(p), col, e.num(w), opacity)
}

func (e *svgEncoder) writeFill(p *PathPrimitive) {
	opacity := ""
	if p.Opacity < 1 {
		opacity = ` fill-opacity="` + e.num(p.Opacity) + `"`
	}
	e.fills++
	fmt.Fprintf(&e.buf, "<path d=\"%s\" fill=\"%s\"%s/>\n",
		e.pathData(p), e.colorAttr(p.Color), opacity)
}

func (e *svgEncoder) writeDot(p *PathPrimitive) {
	opacity := ""
	if p.Opacity < 1 {
		opacity = ` fill-opacity="` + e.num(p.Opacity) + `"`
	}
	e.dots++
	fmt.Fprintf(&e.buf, "<circle cx=\"%s\" cy=\"%s\" r=\"%s\" fill=\"%s\"%s/>\n",
		e.num(p.Center.X), e.num(p.Center.Y), e.num(p.Radius), e.colorAttr(p.Color), opacity)
}

// svgCounts reports how many elements of each kind a document carries.
// They match what a parser counting path and circle elements would see.
type svgCounts struct {
	strokes, fills, dots int
}

// encodeSVG renders the primitive list into a standalone SVG document.
// Paint order is fills, then strokes, then dots, so region fills never
// cover line work. Coordinates refer to the working image; the viewBox
// carries the original dimensions through any preprocessing downscale.
func encodeSVG(prims []PathPrimitive, width, height int, cfg *Config) ([]byte, svgCounts) {
	e := &svgEncoder{precision: cfg.Output.Precision}

	fmt.Fprintf(&e.buf,
		"<svg xmlns=\"http://www.w3.org/2000/svg\" width=\"%d\" height=\"%d\" viewBox=\"0 0 %d %d\">\n",
		width, height, width, height)

	if cfg.Output.IncludeMetadata {
		fmt.Fprintf(&e.buf, "<!-- backend=%s detail=%g seed=%d -->\n",
			cfg.Backend, cfg.Detail, cfg.Seed)
	}

	grouped := cfg.Output.OptimizeSVG

	writeKind := func(kind PrimitiveKind) {
		count := 0
		for i := range prims {
			if prims[i].Kind == kind {
				count++
			}
		}
		if count == 0 {
			return
		}
		if grouped {
			switch kind {
			case KindFill:
				e.buf.WriteString("<g data-layer=\"fills\">\n")
			case KindStroke:
				e.buf.WriteString("<g data-layer=\"strokes\">\n")
			case KindDot:
				e.buf.WriteString("<g data-layer=\"dots\">\n")
			}
		}
		for i := range prims {
			p := &prims[i]
			if p.Kind != kind {
				continue
			}
			switch kind {
			case KindFill:
				e.writeFill(p)
			case KindStroke:
				e.writeStroke(p, cfg.StrokeWidth)
			case KindDot:
				e.writeDot(p)
			}
		}
		if grouped {
			e.buf.WriteString("</g>\n")
		}
	}

	writeKind(KindFill)
	writeKind(KindStroke)
	writeKind(KindDot)

	e.buf.WriteString("</svg>\n")
	return []byte(e.buf.String()), svgCounts{strokes: e.strokes, fills: e.fills, dots: e.dots}
}
