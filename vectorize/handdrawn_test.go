package vectorize

import (
	"math"
	"math/rand"
	"testing"
)

func straightStroke(n int) PathPrimitive {
	pts := make([]Point, n)
	for i := range pts {
		pts[i] = Point{X: float64(i), Y: 10}
	}
	return PathPrimitive{Kind: KindStroke, Line: Polyline{Points: pts}, Width: 1.5, Opacity: 1}
}

func TestApplyArtistic_NoneLeavesGeometryUntouched(t *testing.T) {
	prim := straightStroke(20)
	orig := append([]Point{}, prim.Line.Points...)

	out := applyArtistic([]PathPrimitive{prim}, DefaultArtisticConfig(), 1.5, rand.New(rand.NewSource(1)))
	for i, p := range out[0].Line.Points {
		if p != orig[i] {
			t.Fatalf("vertex %d moved with no preset active: %v -> %v", i, orig[i], p)
		}
	}
	if out[0].Widths != nil {
		t.Error("no preset should not synthesize width arrays")
	}
}

func TestApplyArtistic_TremorIsBoundedAndPinsEndpoints(t *testing.T) {
	prim := straightStroke(40)
	art := ArtisticConfig{Preset: PresetNone, VariableWeights: -1, TremorStrength: 0.4, Tapering: -1}

	out := applyArtistic([]PathPrimitive{prim}, art, 1.5, rand.New(rand.NewSource(7)))
	pts := out[0].Line.Points

	if pts[0] != (Point{0, 10}) || pts[len(pts)-1] != (Point{39, 10}) {
		t.Fatal("tremor must not move open endpoints")
	}
	moved := false
	for _, p := range pts[1 : len(pts)-1] {
		dev := math.Abs(p.Y - 10)
		if dev > 2.0+1e-9 {
			t.Fatalf("tremor displaced a vertex by %g, beyond the bound", dev)
		}
		if dev > 0 {
			moved = true
		}
	}
	if !moved {
		t.Fatal("tremor strength 0.4 should displace interior vertices")
	}
}

func TestApplyArtistic_TaperThinsOpenEndpoints(t *testing.T) {
	prim := straightStroke(30)
	art := ArtisticConfig{Preset: PresetNone, VariableWeights: -1, TremorStrength: -1, Tapering: 0.6}

	out := applyArtistic([]PathPrimitive{prim}, art, 1.5, rand.New(rand.NewSource(1)))
	ws := out[0].Widths
	if len(ws) != 30 {
		t.Fatalf("tapering should produce per-vertex widths, got %d", len(ws))
	}
	mid := ws[15]
	if ws[0] >= mid || ws[29] >= mid {
		t.Fatalf("endpoints (%g, %g) should be thinner than the middle (%g)", ws[0], ws[29], mid)
	}
}

func TestApplyArtistic_ClosedStrokesAreNotTapered(t *testing.T) {
	prim := straightStroke(30)
	prim.Line.Closed = true
	art := ArtisticConfig{Preset: PresetNone, VariableWeights: -1, TremorStrength: -1, Tapering: 0.6}

	out := applyArtistic([]PathPrimitive{prim}, art, 1.5, rand.New(rand.NewSource(1)))
	ws := out[0].Widths
	for i := 1; i < len(ws); i++ {
		if ws[i] != ws[0] {
			t.Fatal("closed strokes have no endpoints to taper")
		}
	}
}

func TestApplyArtistic_FillsAndDotsPassThrough(t *testing.T) {
	fill := PathPrimitive{Kind: KindFill, Line: Polyline{Points: []Point{{0, 0}, {4, 0}, {4, 4}}, Closed: true}, Opacity: 1}
	dot := PathPrimitive{Kind: KindDot, Center: Point{2, 2}, Radius: 1, Opacity: 1}
	art := ArtisticConfig{Preset: PresetSketchy, VariableWeights: -1, TremorStrength: -1, Tapering: -1}

	out := applyArtistic([]PathPrimitive{fill, dot}, art, 1.5, rand.New(rand.NewSource(1)))
	if out[0].Line.Points[1] != (Point{4, 0}) {
		t.Error("fill geometry must pass through unchanged")
	}
	if out[1].Center != (Point{2, 2}) || out[1].Radius != 1 {
		t.Error("dot geometry must pass through unchanged")
	}
}

func TestPresetTriples_ScaleMonotonically(t *testing.T) {
	prev := [3]float64{-1, -1, -1}
	for _, preset := range []Preset{PresetSubtle, PresetMedium, PresetStrong, PresetSketchy} {
		a := ArtisticConfig{Preset: preset, VariableWeights: -1, TremorStrength: -1, Tapering: -1}
		w, tr, tp := a.resolve()
		if w <= prev[0] || tr <= prev[1] || tp <= prev[2] {
			t.Fatalf("%s triple (%g,%g,%g) does not increase over the previous", preset, w, tr, tp)
		}
		prev = [3]float64{w, tr, tp}
	}
}

func TestArtisticOverrides_TakePrecedenceOverPreset(t *testing.T) {
	a := ArtisticConfig{Preset: PresetSketchy, VariableWeights: 0.1, TremorStrength: -1, Tapering: -1}
	w, tr, _ := a.resolve()
	if w != 0.1 {
		t.Fatalf("explicit variable_weights should win over the preset, got %g", w)
	}
	if tr != 0.4 {
		t.Fatalf("unset override should keep the preset tremor, got %g", tr)
	}
}
