package vectorize_test

import (
	"math"
	"testing"

	"github.com/robmcdonald5/vec2art-sub012/vectorize"
)

func TestFitCubicBeziers_StaysWithinMaxError(t *testing.T) {
	const maxErr = 0.75
	var pts []vectorize.Point
	for i := 0; i <= 80; i++ {
		x := float64(i)
		pts = append(pts, vectorize.Point{X: x, Y: 15 * math.Sin(x/12)})
	}

	curves := vectorize.FitCubicBeziers(pts, vectorize.FitOptions{MaxError: maxErr})
	if len(curves) == 0 {
		t.Fatal("expected at least one fitted curve")
	}

	// Sample every curve densely and check each sample lies near the
	// source polyline.
	src := vectorize.Polyline{Points: pts}
	for ci, c := range curves {
		for s := 0; s <= 32; s++ {
			p := c.Eval(float64(s) / 32)
			if d := distToPolyline(p, src); d > maxErr+0.25 {
				t.Fatalf("curve %d sample %v deviates %g from source", ci, p, d)
			}
		}
	}
}

func TestFitCubicBeziers_ContinuousThroughJoins(t *testing.T) {
	var pts []vectorize.Point
	for i := 0; i <= 60; i++ {
		x := float64(i)
		pts = append(pts, vectorize.Point{X: x, Y: x * x / 40})
	}
	curves := vectorize.FitCubicBeziers(pts, vectorize.FitOptions{MaxError: 0.5})
	for i := 1; i < len(curves); i++ {
		if d := curves[i-1].P3.Dist(curves[i].P0); d > 1e-9 {
			t.Fatalf("gap of %g between segments %d and %d", d, i-1, i)
		}
	}
	if curves[0].P0 != pts[0] {
		t.Errorf("first curve must start at the first point")
	}
	if curves[len(curves)-1].P3 != pts[len(pts)-1] {
		t.Errorf("last curve must end at the last point")
	}
}

func TestFitCubicBeziers_SplitsAtSharpCorner(t *testing.T) {
	// An L shape: one smooth curve cannot represent it, so the corner
	// must force a split with the corner point as a join.
	var pts []vectorize.Point
	for i := 0; i <= 20; i++ {
		pts = append(pts, vectorize.Point{X: float64(i), Y: 0})
	}
	for i := 1; i <= 20; i++ {
		pts = append(pts, vectorize.Point{X: 20, Y: float64(i)})
	}
	curves := vectorize.FitCubicBeziers(pts, vectorize.FitOptions{
		MaxError:      0.5,
		SplitAngleDeg: 32,
	})
	if len(curves) < 2 {
		t.Fatalf("corner should force at least 2 curves, got %d", len(curves))
	}
	corner := vectorize.Point{X: 20, Y: 0}
	found := false
	for _, c := range curves {
		if c.P0.Dist(corner) < 1e-9 || c.P3.Dist(corner) < 1e-9 {
			found = true
		}
	}
	if !found {
		t.Error("corner point should be a segment boundary")
	}
}

func TestFitCubicBeziers_TooFewPointsReturnsNil(t *testing.T) {
	if got := vectorize.FitCubicBeziers([]vectorize.Point{{X: 1, Y: 1}}, vectorize.FitOptions{}); got != nil {
		t.Fatalf("single point should fit nothing, got %d curves", len(got))
	}
}
