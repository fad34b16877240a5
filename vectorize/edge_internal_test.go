package vectorize

import (
	"image/color"
	"math"
	"testing"
)

func TestTraceEdge_UniformImageProducesNoPaths(t *testing.T) {
	cfg := DefaultConfig(BackendEdge)
	rb := mustRaster(t, uniformImage(64, 64, color.NRGBA{R: 128, G: 128, B: 128, A: 255}), cfg)
	th := DetailThresholds(cfg.Detail, rb.Width, rb.Height)

	if lines := traceEdge(rb, cfg, th); len(lines) != 0 {
		t.Fatalf("uniform image should trace no edges, got %d", len(lines))
	}
}

func TestTraceEdge_CircleOutlineStaysNearRadius(t *testing.T) {
	const cx, cy, r = 50, 50, 30
	cfg := DefaultConfig(BackendEdge)
	rb := mustRaster(t, ringImage(100, 100, cx, cy, r, 3), cfg)
	th := DetailThresholds(cfg.Detail, rb.Width, rb.Height)

	lines := traceEdge(rb, cfg, th)
	if len(lines) == 0 {
		t.Fatal("circle outline should produce at least one path")
	}

	// The longest traced path should follow the ring: every vertex near
	// radius r from the center, and it should cover most of the circle.
	longest := lines[0]
	for _, pl := range lines[1:] {
		if pl.Length() > longest.Length() {
			longest = pl
		}
	}
	for _, p := range longest.Points {
		d := math.Hypot(p.X-cx, p.Y-cy)
		if math.Abs(d-r) > 4 {
			t.Fatalf("vertex %v sits %g pixels off the ring", p, math.Abs(d-r))
		}
	}
	if c := longest.Length(); c < 2*math.Pi*r*0.6 {
		t.Errorf("longest path covers only %g of circumference %g", c, 2*math.Pi*r)
	}
}

func TestTraceEdge_FilledDiskYieldsOneClosedLoop(t *testing.T) {
	cfg := DefaultConfig(BackendEdge)
	rb := mustRaster(t, diskImage(100, 100, 50, 50, 30), cfg)
	th := DetailThresholds(cfg.Detail, rb.Width, rb.Height)

	lines := traceEdge(rb, cfg, th)
	if len(lines) != 1 {
		t.Fatalf("filled disk should trace exactly one outline, got %d", len(lines))
	}
	if !lines[0].Closed {
		pts := lines[0].Points
		t.Fatalf("outline is open, endpoint gap %g", pts[0].Dist(pts[len(pts)-1]))
	}
}

func TestTraceEdge_FlowTracingFallsBackOnDegenerateField(t *testing.T) {
	cfg := DefaultConfig(BackendEdge)
	cfg.Edge.EnableFlowTracing = true

	// Uniform gradient in one direction gives a coherent field, but a
	// flat image gives no gradient at all, exercising the fallback path.
	rb := mustRaster(t, uniformImage(64, 64, color.NRGBA{R: 200, G: 200, B: 200, A: 255}), cfg)
	th := DetailThresholds(cfg.Detail, rb.Width, rb.Height)

	if lines := traceEdge(rb, cfg, th); len(lines) != 0 {
		t.Fatalf("flat image should trace nothing even with flow tracing, got %d", len(lines))
	}
}

func TestTraceFlowGuided_EmptyYieldIsNotDegenerate(t *testing.T) {
	cfg := DefaultConfig(BackendEdge)
	cfg.Edge.EnableFlowTracing = true
	rb := mustRaster(t, ringImage(100, 100, 50, 50, 30, 3), cfg)
	field := sobelField(rb, cfg.Performance.ThreadCount)
	th := DetailThresholds(cfg.Detail, rb.Width, rb.Height)
	th.EdgeHigh, th.EdgeLow = 2, 2 // no hysteresis seeds anywhere

	lines := traceFlowGuided(rb, field, cfg, th)
	if lines == nil {
		t.Fatal("a coherent field with no seeds must not report degeneracy")
	}
	if len(lines) != 0 {
		t.Fatalf("expected no flow lines without seeds, got %d", len(lines))
	}
}

func TestTraceEdge_MultipassNeverLosesConservativePaths(t *testing.T) {
	cfg := DefaultConfig(BackendEdge)
	cfg.Edge.Multipass = false
	rb := mustRaster(t, ringImage(100, 100, 50, 50, 30, 3), cfg)
	th := DetailThresholds(cfg.Detail, rb.Width, rb.Height)
	single := traceEdge(rb, cfg, th)

	cfg.Edge.Multipass = true
	cfg.Edge.ReversePass = true
	multi := traceEdge(rb, cfg, th)

	if len(multi) < len(single) {
		t.Fatalf("multipass returned fewer paths (%d) than single pass (%d)",
			len(multi), len(single))
	}
}

func TestHysteresis_WeakEdgesNeedStrongAnchor(t *testing.T) {
	// A 1-pixel magnitude grid: one strong pixel chained to weak ones,
	// and an isolated weak pixel elsewhere. Only the chain survives.
	w, h := 8, 1
	f := &edgeField{w: w, h: h, mag: make([]float32, w*h)}
	f.mag[1] = 0.9 // strong anchor
	f.mag[2] = 0.3 // weak, connected
	f.mag[3] = 0.3 // weak, connected
	f.mag[6] = 0.3 // weak, isolated

	edges := hysteresis(f.mag, w, h, 0.5, 0.2)
	for i, want := range []bool{false, true, true, true, false, false, false, false} {
		if edges[i] != want {
			t.Errorf("pixel %d: got %v, want %v", i, edges[i], want)
		}
	}
}
