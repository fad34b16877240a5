package vectorize_test

import (
	"math"
	"testing"

	"github.com/robmcdonald5/vec2art-sub012/vectorize"
)

func line(pts ...float64) vectorize.Polyline {
	pl := vectorize.Polyline{}
	for i := 0; i+1 < len(pts); i += 2 {
		pl.Points = append(pl.Points, vectorize.Point{X: pts[i], Y: pts[i+1]})
	}
	return pl
}

func TestSimplify_CollinearPointsCollapseToEndpoints(t *testing.T) {
	pl := line(0, 0, 1, 0.001, 2, 0, 3, -0.001, 4, 0)
	got := vectorize.SimplifyPolyline(pl, 0.5)
	if len(got.Points) != 2 {
		t.Fatalf("near-collinear line should collapse to 2 points, got %d", len(got.Points))
	}
	if got.Points[0] != pl.Points[0] || got.Points[1] != pl.Points[len(pl.Points)-1] {
		t.Errorf("endpoints must be preserved: %v", got.Points)
	}
}

func TestSimplify_KeepsSignificantCorner(t *testing.T) {
	pl := line(0, 0, 5, 0, 5, 5)
	got := vectorize.SimplifyPolyline(pl, 0.5)
	if len(got.Points) != 3 {
		t.Fatalf("right-angle corner must survive, got %d points", len(got.Points))
	}
}

func TestSimplify_ResultWithinEpsilon(t *testing.T) {
	// A noisy sine wave: every original point must stay within epsilon of
	// the simplified polyline.
	const eps = 0.8
	var pl vectorize.Polyline
	for i := 0; i <= 100; i++ {
		x := float64(i)
		pl.Points = append(pl.Points, vectorize.Point{X: x, Y: 10 * math.Sin(x/8)})
	}
	got := vectorize.SimplifyPolyline(pl, eps)
	if len(got.Points) >= len(pl.Points) {
		t.Fatalf("simplification removed nothing: %d points", len(got.Points))
	}
	for _, p := range pl.Points {
		if d := distToPolyline(p, got); d > eps+1e-9 {
			t.Fatalf("point %v deviates %g > epsilon %g", p, d, eps)
		}
	}
}

func TestSimplify_ClosedPolylineStaysClosedWithAtLeastThreePoints(t *testing.T) {
	var pl vectorize.Polyline
	pl.Closed = true
	for i := 0; i < 64; i++ {
		a := 2 * math.Pi * float64(i) / 64
		pl.Points = append(pl.Points, vectorize.Point{X: 20 * math.Cos(a), Y: 20 * math.Sin(a)})
	}
	got := vectorize.SimplifyPolyline(pl, 100) // absurd epsilon
	if !got.Closed {
		t.Fatal("closed input must stay closed")
	}
	if len(got.Points) < 3 {
		t.Fatalf("closed polyline degenerated to %d points", len(got.Points))
	}
}

func TestSimplify_IsIdempotent(t *testing.T) {
	var pl vectorize.Polyline
	for i := 0; i <= 50; i++ {
		x := float64(i)
		pl.Points = append(pl.Points, vectorize.Point{X: x, Y: math.Sin(x / 3)})
	}
	once := vectorize.SimplifyPolyline(pl, 0.4)
	twice := vectorize.SimplifyPolyline(once, 0.4)
	if len(once.Points) != len(twice.Points) {
		t.Fatalf("second pass changed the result: %d -> %d points",
			len(once.Points), len(twice.Points))
	}
}

func TestSmooth_PreservesEndpoints(t *testing.T) {
	pl := line(0, 0, 3, 4, 6, 0, 9, 4)
	got := vectorize.SmoothPolyline(pl, 2, 2.5)
	if got.Points[0] != pl.Points[0] {
		t.Errorf("first endpoint moved: %v", got.Points[0])
	}
	if got.Points[len(got.Points)-1] != pl.Points[len(pl.Points)-1] {
		t.Errorf("last endpoint moved: %v", got.Points[len(got.Points)-1])
	}
	if len(got.Points) <= len(pl.Points) {
		t.Errorf("smoothing should add vertices, got %d", len(got.Points))
	}
}

// distToPolyline is the distance from p to the nearest segment of pl.
func distToPolyline(p vectorize.Point, pl vectorize.Polyline) float64 {
	best := math.Inf(1)
	for i := 0; i+1 < len(pl.Points); i++ {
		a, b := pl.Points[i], pl.Points[i+1]
		ab := b.Sub(a)
		t := 0.0
		if l2 := ab.Dot(ab); l2 > 0 {
			t = math.Max(0, math.Min(1, p.Sub(a).Dot(ab)/l2))
		}
		proj := a.Add(ab.Scale(t))
		if d := p.Dist(proj); d < best {
			best = d
		}
	}
	return best
}
