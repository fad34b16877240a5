package vectorize

import "math"

// FitOptions tunes cubic Bézier fitting.
type FitOptions struct {
	// MaxError is the maximum allowed perpendicular deviation of the
	// curve from the original polyline, in pixels.
	MaxError float64
	// LambdaCurvature penalizes long control arms, trading smoothness
	// against fidelity. Zero disables the regularization.
	LambdaCurvature float64
	// SplitAngleDeg pre-splits the polyline at corners sharper than this
	// angle so a single smooth curve never has to bend around them.
	SplitAngleDeg float64
}

// FitCubicBeziers fits a sequence of cubic Bézier segments to an open
// polyline. Every returned segment stays within MaxError of the source
// points; spans where no fit converges degrade to straight segments, so
// the result is always usable.
func FitCubicBeziers(points []Point, opt FitOptions) []CubicBezier {
	if len(points) < 2 {
		return nil
	}
	if opt.MaxError <= 0 {
		opt.MaxError = 1.0
	}

	splitRad := opt.SplitAngleDeg * math.Pi / 180
	if splitRad <= 0 {
		splitRad = math.Pi // never split
	}

	var curves []CubicBezier
	start := 0
	for i := 1; i < len(points)-1; i++ {
		if turnAngle(points[i-1], points[i], points[i+1]) > splitRad {
			curves = append(curves, fitSpan(points[start:i+1], opt)...)
			start = i
		}
	}
	curves = append(curves, fitSpan(points[start:], opt)...)
	return curves
}

// fitSpan fits one corner-free span, subdividing at the worst point until
// every piece meets the error bound.
func fitSpan(points []Point, opt FitOptions) []CubicBezier {
	n := len(points)
	if n < 2 {
		return nil
	}
	if n == 2 {
		return []CubicBezier{lineSegment(points[0], points[1])}
	}

	leftTan := points[1].Sub(points[0]).Normalize()
	rightTan := points[n-2].Sub(points[n-1]).Normalize()
	return fitRecursive(points, leftTan, rightTan, opt, 0)
}

func fitRecursive(points []Point, leftTan, rightTan Point, opt FitOptions, depth int) []CubicBezier {
	n := len(points)
	if n == 2 {
		return []CubicBezier{lineSegment(points[0], points[1])}
	}

	params := chordLengthParams(points)
	curve := fitLeastSquares(points, params, leftTan, rightTan, opt.LambdaCurvature)
	worst, maxDist := maxDeviation(points, params, curve)

	if maxDist <= opt.MaxError {
		return []CubicBezier{curve}
	}

	// One reparameterization pass often rescues a near-miss fit.
	if maxDist <= opt.MaxError*4 {
		params = reparameterize(points, params, curve)
		curve = fitLeastSquares(points, params, leftTan, rightTan, opt.LambdaCurvature)
		worst, maxDist = maxDeviation(points, params, curve)
		if maxDist <= opt.MaxError {
			return []CubicBezier{curve}
		}
	}

	const maxDepth = 24
	if depth >= maxDepth || worst <= 0 || worst >= n-1 {
		// Cannot subdivide further: fall back to straight segments,
		// which trivially satisfy the deviation bound.
		out := make([]CubicBezier, 0, n-1)
		for i := 1; i < n; i++ {
			out = append(out, lineSegment(points[i-1], points[i]))
		}
		return out
	}

	centerTan := points[worst-1].Sub(points[worst+1]).Normalize()
	left := fitRecursive(points[:worst+1], leftTan, centerTan, opt, depth+1)
	right := fitRecursive(points[worst:], centerTan.Scale(-1), rightTan, opt, depth+1)
	return append(left, right...)
}

func lineSegment(a, b Point) CubicBezier {
	third := b.Sub(a).Scale(1.0 / 3.0)
	return CubicBezier{P0: a, P1: a.Add(third), P2: a.Add(third.Scale(2)), P3: b}
}

func chordLengthParams(points []Point) []float64 {
	params := make([]float64, len(points))
	for i := 1; i < len(points); i++ {
		params[i] = params[i-1] + points[i].Dist(points[i-1])
	}
	total := params[len(params)-1]
	if total == 0 {
		return params
	}
	for i := range params {
		params[i] /= total
	}
	return params
}

// fitLeastSquares solves for the two inner control points given fixed
// endpoints and tangent directions (the classic Schneider formulation),
// with an optional Tikhonov term shrinking the control arms.
func fitLeastSquares(points []Point, params []float64, leftTan, rightTan Point, lambda float64) CubicBezier {
	n := len(points)
	first, last := points[0], points[n-1]

	var c00, c01, c11, x0, x1 float64
	for i := 0; i < n; i++ {
		u := params[i]
		b0 := cub(1 - u)
		b1 := 3 * u * sq(1-u)
		b2 := 3 * sq(u) * (1 - u)
		b3 := cub(u)

		a0 := leftTan.Scale(b1)
		a1 := rightTan.Scale(b2)

		c00 += a0.Dot(a0)
		c01 += a0.Dot(a1)
		c11 += a1.Dot(a1)

		base := Point{
			X: first.X*(b0+b1) + last.X*(b2+b3),
			Y: first.Y*(b0+b1) + last.Y*(b2+b3),
		}
		diff := points[i].Sub(base)
		x0 += a0.Dot(diff)
		x1 += a1.Dot(diff)
	}

	c00 += lambda
	c11 += lambda

	det := c00*c11 - c01*c01
	var alphaL, alphaR float64
	if math.Abs(det) > 1e-12 {
		alphaL = (x0*c11 - x1*c01) / det
		alphaR = (c00*x1 - c01*x0) / det
	}

	// Wu/Barsky heuristic when the solution is degenerate or reversed.
	segLen := first.Dist(last)
	if alphaL <= 1e-6 || alphaR <= 1e-6 {
		alphaL = segLen / 3
		alphaR = segLen / 3
	}

	return CubicBezier{
		P0: first,
		P1: first.Add(leftTan.Scale(alphaL)),
		P2: last.Add(rightTan.Scale(alphaR)),
		P3: last,
	}
}

// maxDeviation returns the index and distance of the source point farthest
// from the curve.
func maxDeviation(points []Point, params []float64, curve CubicBezier) (int, float64) {
	worst, maxDist := -1, 0.0
	for i := 1; i < len(points)-1; i++ {
		d := points[i].Dist(curve.Eval(params[i]))
		if d > maxDist {
			maxDist = d
			worst = i
		}
	}
	return worst, maxDist
}

// reparameterize refines each parameter with one Newton-Raphson step.
func reparameterize(points []Point, params []float64, curve CubicBezier) []float64 {
	out := make([]float64, len(params))
	for i, u := range params {
		out[i] = newtonStep(points[i], u, curve)
	}
	return out
}

func newtonStep(p Point, u float64, c CubicBezier) float64 {
	q := c.Eval(u)
	d1 := bezierDeriv1(c, u)
	d2 := bezierDeriv2(c, u)

	diff := q.Sub(p)
	num := diff.Dot(d1)
	den := d1.Dot(d1) + diff.Dot(d2)
	if math.Abs(den) < 1e-12 {
		return u
	}
	next := u - num/den
	return clamp(next, 0, 1)
}

func bezierDeriv1(c CubicBezier, t float64) Point {
	u := 1 - t
	p := c.P1.Sub(c.P0).Scale(3 * u * u)
	p = p.Add(c.P2.Sub(c.P1).Scale(6 * u * t))
	return p.Add(c.P3.Sub(c.P2).Scale(3 * t * t))
}

func bezierDeriv2(c CubicBezier, t float64) Point {
	u := 1 - t
	a := c.P2.Sub(c.P1.Scale(2)).Add(c.P0)
	b := c.P3.Sub(c.P2.Scale(2)).Add(c.P1)
	return a.Scale(6 * u).Add(b.Scale(6 * t))
}

func sq(v float64) float64  { return v * v }
func cub(v float64) float64 { return v * v * v }
