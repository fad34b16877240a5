package vectorize

import (
	"image/color"
	"math"
)

// Point is a point on the 2D source-pixel plane.
type Point struct {
	X, Y float64
}

// Add returns the sum of two points treated as vectors.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns the difference of two points treated as vectors.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Scale returns the point scaled by s.
func (p Point) Scale(s float64) Point { return Point{p.X * s, p.Y * s} }

// Dot returns the dot product of two points treated as vectors.
func (p Point) Dot(q Point) float64 { return p.X*q.X + p.Y*q.Y }

// Dist returns the Euclidean distance between two points.
func (p Point) Dist(q Point) float64 {
	dx, dy := p.X-q.X, p.Y-q.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// DistSq returns the squared distance between two points.
func (p Point) DistSq(q Point) float64 {
	dx, dy := p.X-q.X, p.Y-q.Y
	return dx*dx + dy*dy
}

// Norm returns the vector length of the point.
func (p Point) Norm() float64 { return math.Sqrt(p.X*p.X + p.Y*p.Y) }

// Normalize returns a unit vector in the same direction, or the zero
// point when the vector has no length.
func (p Point) Normalize() Point {
	n := p.Norm()
	if n == 0 {
		return Point{}
	}
	return Point{p.X / n, p.Y / n}
}

// Polyline is an ordered sequence of points describing one traced feature.
// A polyline with fewer than two points carries no geometry and is dropped
// by every consumer.
type Polyline struct {
	Points []Point
	Closed bool
	// Region is the source region id for boundaries produced by the
	// superpixel backend. Other backends leave it meaningless.
	Region int
}

// Length returns the total arc length of the polyline, including the
// closing segment for closed polylines.
func (pl *Polyline) Length() float64 {
	if len(pl.Points) < 2 {
		return 0
	}
	var sum float64
	for i := 1; i < len(pl.Points); i++ {
		sum += pl.Points[i].Dist(pl.Points[i-1])
	}
	if pl.Closed {
		sum += pl.Points[0].Dist(pl.Points[len(pl.Points)-1])
	}
	return sum
}

// CubicBezier is a single cubic Bézier segment.
type CubicBezier struct {
	P0, P1, P2, P3 Point
}

// Eval evaluates the curve at parameter t in [0,1].
func (c CubicBezier) Eval(t float64) Point {
	u := 1 - t
	b0 := u * u * u
	b1 := 3 * u * u * t
	b2 := 3 * u * t * t
	b3 := t * t * t
	return Point{
		X: b0*c.P0.X + b1*c.P1.X + b2*c.P2.X + b3*c.P3.X,
		Y: b0*c.P0.Y + b1*c.P1.Y + b2*c.P2.Y + b3*c.P3.Y,
	}
}

// PrimitiveKind discriminates the drawable unit a PathPrimitive carries.
type PrimitiveKind int

const (
	// KindStroke is a stroked polyline or fitted curve sequence.
	KindStroke PrimitiveKind = iota
	// KindFill is a filled region boundary.
	KindFill
	// KindDot is a filled circle.
	KindDot
)

// PathPrimitive is the final drawable unit handed to SVG emission.
// Exactly one geometry representation is populated depending on Kind:
// Line (and optionally Curves) for strokes and fills, Center/Radius for dots.
type PathPrimitive struct {
	Kind PrimitiveKind

	Line   Polyline
	Curves []CubicBezier

	// Widths holds optional per-vertex stroke widths produced by width
	// modulation or tapering. When nil the scalar Width applies uniformly.
	Widths []float64
	Width  float64

	Center Point
	Radius float64

	Color   color.NRGBA
	Opacity float64
}

// perpendicularDistance returns the distance of p from the infinite line
// through a and b, or the distance to a when the segment is degenerate.
func perpendicularDistance(p, a, b Point) float64 {
	d := b.Sub(a)
	l := d.Norm()
	if l == 0 {
		return p.Dist(a)
	}
	return math.Abs(d.Y*p.X-d.X*p.Y+b.X*a.Y-b.Y*a.X) / l
}

// segmentPointDistance returns the distance of p from the segment a-b.
func segmentPointDistance(p, a, b Point) float64 {
	d := b.Sub(a)
	ls := d.Dot(d)
	if ls == 0 {
		return p.Dist(a)
	}
	t := p.Sub(a).Dot(d) / ls
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return p.Dist(a.Add(d.Scale(t)))
}

// turnAngle returns the absolute exterior angle at b for the corner a-b-c,
// in radians. Straight continuation returns 0.
func turnAngle(a, b, c Point) float64 {
	u := b.Sub(a).Normalize()
	v := c.Sub(b).Normalize()
	dot := u.Dot(v)
	if dot > 1 {
		dot = 1
	} else if dot < -1 {
		dot = -1
	}
	return math.Acos(dot)
}
