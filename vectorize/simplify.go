package vectorize

import "math"

// SimplifyPolyline reduces a polyline with the Douglas-Peucker algorithm.
// Epsilon is the maximum perpendicular deviation in source-pixel units.
// The first and last point of an open polyline are always kept, a closed
// polyline never collapses below 3 points, and running the function twice
// with the same epsilon removes nothing further.
func SimplifyPolyline(pl Polyline, epsilon float64) Polyline {
	n := len(pl.Points)
	if n < 3 || epsilon <= 0 {
		return pl
	}

	if pl.Closed {
		// Anchor the split at the two mutually farthest points so the
		// result does not depend on where the boundary walk started.
		a, b := farthestPair(pl.Points)
		if a > b {
			a, b = b, a
		}
		first := douglasPeucker(pl.Points[a:b+1], epsilon)
		wrapped := append(append([]Point{}, pl.Points[b:]...), pl.Points[:a+1]...)
		second := douglasPeucker(wrapped, epsilon)

		out := append([]Point{}, first...)
		if len(second) > 2 {
			out = append(out, second[1:len(second)-1]...)
		}
		if len(out) < 3 {
			return pl
		}
		return Polyline{Points: out, Closed: true, Region: pl.Region}
	}

	return Polyline{Points: douglasPeucker(pl.Points, epsilon), Region: pl.Region}
}

// farthestPair returns the indices of an approximately farthest point pair:
// the point farthest from points[0], then the point farthest from it.
func farthestPair(points []Point) (int, int) {
	a := 0
	var best float64
	for i, p := range points {
		if d := p.DistSq(points[0]); d > best {
			best, a = d, i
		}
	}
	b := 0
	best = 0
	for i, p := range points {
		if d := p.DistSq(points[a]); d > best {
			best, b = d, i
		}
	}
	return a, b
}

func douglasPeucker(points []Point, epsilon float64) []Point {
	n := len(points)
	if n < 3 {
		return append([]Point{}, points...)
	}

	keep := make([]bool, n)
	keep[0], keep[n-1] = true, true

	// Explicit stack instead of recursion: skeleton walks can produce
	// polylines thousands of points long.
	type span struct{ lo, hi int }
	stack := []span{{0, n - 1}}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		var maxDist float64
		split := -1
		for i := s.lo + 1; i < s.hi; i++ {
			d := perpendicularDistance(points[i], points[s.lo], points[s.hi])
			if d > maxDist {
				maxDist = d
				split = i
			}
		}
		if split >= 0 && maxDist > epsilon {
			keep[split] = true
			stack = append(stack, span{s.lo, split}, span{split, s.hi})
		}
	}

	out := make([]Point, 0, n)
	for i, k := range keep {
		if k {
			out = append(out, points[i])
		}
	}
	return out
}

// adaptiveSimplify runs Douglas-Peucker with a tighter tolerance inside
// high-curvature spans so corners survive aggressive simplification.
// The polyline is cut at sharp corners, each piece simplified with an
// epsilon scaled by its mean turn angle, and the pieces rejoined.
func adaptiveSimplify(pl Polyline, epsilon float64) Polyline {
	n := len(pl.Points)
	if n < 5 {
		return SimplifyPolyline(pl, epsilon)
	}

	const cornerRad = 1.0 // ~57 degrees
	cuts := []int{0}
	for i := 1; i < n-1; i++ {
		if turnAngle(pl.Points[i-1], pl.Points[i], pl.Points[i+1]) > cornerRad {
			cuts = append(cuts, i)
		}
	}
	cuts = append(cuts, n-1)

	out := []Point{pl.Points[0]}
	for c := 0; c+1 < len(cuts); c++ {
		seg := pl.Points[cuts[c] : cuts[c+1]+1]
		eps := epsilon
		if meanCurvature(seg) > 0.3 {
			eps = epsilon * 0.5
		}
		simplified := douglasPeucker(seg, eps)
		out = append(out, simplified[1:]...)
	}
	if len(out) < 2 {
		return pl
	}
	return Polyline{Points: out, Closed: pl.Closed, Region: pl.Region}
}

// meanCurvature returns the average turn angle per interior vertex.
func meanCurvature(points []Point) float64 {
	if len(points) < 3 {
		return 0
	}
	var sum float64
	for i := 1; i < len(points)-1; i++ {
		sum += turnAngle(points[i-1], points[i], points[i+1])
	}
	return sum / float64(len(points)-2)
}

// SmoothPolyline applies corner-preserving Chaikin smoothing: vertices
// whose turn angle exceeds cornerAngle radians are kept fixed while the
// rest are replaced by the usual quarter-point pair.
func SmoothPolyline(pl Polyline, iterations int, cornerAngle float64) Polyline {
	if len(pl.Points) < 3 || iterations <= 0 {
		return pl
	}
	points := pl.Points
	for it := 0; it < iterations; it++ {
		out := make([]Point, 0, len(points)*2)
		if !pl.Closed {
			out = append(out, points[0])
		}
		for i := 0; i < len(points)-1; i++ {
			p, q := points[i], points[i+1]
			corner := false
			if i > 0 && i < len(points)-1 {
				corner = turnAngle(points[i-1], p, q) > cornerAngle
			}
			if corner {
				out = append(out, p)
				continue
			}
			out = append(out,
				Point{0.75*p.X + 0.25*q.X, 0.75*p.Y + 0.25*q.Y},
				Point{0.25*p.X + 0.75*q.X, 0.25*p.Y + 0.75*q.Y},
			)
		}
		if !pl.Closed {
			out = append(out, points[len(points)-1])
		}
		points = out
	}
	return Polyline{Points: points, Closed: pl.Closed, Region: pl.Region}
}

// resamplePolyline redistributes vertices at a fixed arc-length step.
// Used before curve fitting so parameterization is close to uniform.
func resamplePolyline(points []Point, step float64) []Point {
	if len(points) < 2 || step <= 0 {
		return points
	}
	out := []Point{points[0]}
	carry := 0.0
	for i := 1; i < len(points); i++ {
		a, b := points[i-1], points[i]
		segLen := a.Dist(b)
		if segLen == 0 {
			continue
		}
		pos := step - carry
		for pos < segLen {
			t := pos / segLen
			out = append(out, Point{a.X + (b.X-a.X)*t, a.Y + (b.Y-a.Y)*t})
			pos += step
		}
		carry = math.Mod(carry+segLen, step)
	}
	last := points[len(points)-1]
	if out[len(out)-1].Dist(last) > step*0.25 {
		out = append(out, last)
	} else {
		out[len(out)-1] = last
	}
	return out
}
