package vectorize

import (
	"math"
	"testing"
)

func TestTraceCenterline_BlankImageProducesNothing(t *testing.T) {
	cfg := DefaultConfig(BackendCenterline)
	rb := mustRaster(t, uniformImage(64, 64, whiteNRGBA()), cfg)
	th := DetailThresholds(cfg.Detail, rb.Width, rb.Height)

	lines, widths := traceCenterline(rb, cfg, th)
	if len(lines) != 0 || len(widths) != 0 {
		t.Fatalf("blank image should yield no centerlines, got %d", len(lines))
	}
}

func TestTraceCenterline_BarSkeletonRunsAlongCenter(t *testing.T) {
	const thickness = 9
	cfg := DefaultConfig(BackendCenterline)
	rb := mustRaster(t, barImage(120, 60, thickness), cfg)
	th := DetailThresholds(cfg.Detail, rb.Width, rb.Height)

	lines, _ := traceCenterline(rb, cfg, th)
	if len(lines) == 0 {
		t.Fatal("bar should produce a centerline")
	}

	longest := lines[0]
	for _, pl := range lines[1:] {
		if pl.Length() > longest.Length() {
			longest = pl
		}
	}
	midY := float64(rb.Height) / 2
	for _, p := range longest.Points {
		if math.Abs(p.Y-midY) > float64(thickness) {
			t.Fatalf("skeleton vertex %v strays from the bar center %g", p, midY)
		}
	}
	if longest.Length() < 60 {
		t.Errorf("skeleton covers only %g of a 112-pixel bar", longest.Length())
	}
}

func TestTraceCenterline_PrunesShortBranches(t *testing.T) {
	cfg := DefaultConfig(BackendCenterline)
	cfg.Centerline.MinBranchLength = 12
	rb := mustRaster(t, barImage(120, 60, 9), cfg)
	th := DetailThresholds(cfg.Detail, rb.Width, rb.Height)

	check := func(lines []Polyline) {
		t.Helper()
		for i, pl := range lines {
			if pl.Length() < cfg.Centerline.MinBranchLength {
				t.Errorf("line %d has length %g below the branch minimum %g",
					i, pl.Length(), cfg.Centerline.MinBranchLength)
			}
		}
	}
	lines, _ := traceCenterline(rb, cfg, th)
	check(lines)

	// Aggressive simplification shortens lines; the floor must hold on
	// what simplification leaves behind, not on the raw skeleton.
	cfg.Centerline.SimplifyEpsilon = 8
	lines, _ = traceCenterline(rb, cfg, th)
	check(lines)
}

func TestTraceCenterline_FilledDiskThinsToAlmostNothing(t *testing.T) {
	// A filled disk has no stroke to follow: thinning collapses it to a
	// residue near the center, all below the branch length floor.
	cfg := DefaultConfig(BackendCenterline)
	cfg.Centerline.AdaptiveThreshold = false
	rb := mustRaster(t, diskImage(100, 100, 50, 50, 30), cfg)
	th := DetailThresholds(cfg.Detail, rb.Width, rb.Height)

	lines, _ := traceCenterline(rb, cfg, th)
	var total float64
	for _, pl := range lines {
		total += pl.Length()
	}
	if total > 15 {
		t.Fatalf("filled disk left %d centerlines of total length %g", len(lines), total)
	}
}

func TestTraceCenterline_WidthModulationStaysInRange(t *testing.T) {
	cfg := DefaultConfig(BackendCenterline)
	cfg.Centerline.WidthModulation = true
	cfg.Centerline.WidthMin = 0.5
	cfg.Centerline.WidthMax = 3.0
	rb := mustRaster(t, barImage(120, 60, 9), cfg)
	th := DetailThresholds(cfg.Detail, rb.Width, rb.Height)

	lines, widths := traceCenterline(rb, cfg, th)
	if len(widths) != len(lines) {
		t.Fatalf("widths (%d) must parallel lines (%d)", len(widths), len(lines))
	}
	for i, ws := range widths {
		if len(ws) != len(lines[i].Points) {
			t.Fatalf("line %d: %d widths for %d points", i, len(ws), len(lines[i].Points))
		}
		for _, w := range ws {
			if w < cfg.Centerline.WidthMin-1e-9 || w > cfg.Centerline.WidthMax+1e-9 {
				t.Fatalf("width %g outside [%g,%g]", w, cfg.Centerline.WidthMin, cfg.Centerline.WidthMax)
			}
		}
	}
}

func TestZhangSuen_PreservesConnectivityOfABar(t *testing.T) {
	// A 5-pixel thick bar must thin to a connected 1-pixel chain, not
	// fragments.
	w, h := 40, 20
	mask := make([]bool, w*h)
	for y := 8; y < 13; y++ {
		for x := 3; x < 37; x++ {
			mask[y*w+x] = true
		}
	}
	skel := zhangSuen(mask, w, h, 0)

	on := 0
	for _, v := range skel {
		if v {
			on++
		}
	}
	if on == 0 {
		t.Fatal("thinning erased the bar entirely")
	}
	// Every skeleton pixel has at most 2 neighbors in a clean chain.
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !skel[y*w+x] {
				continue
			}
			if nc := neighborCount(skel, w, h, x, y); nc > 2 {
				t.Fatalf("skeleton pixel (%d,%d) has %d neighbors", x, y, nc)
			}
		}
	}
}

func TestDistanceTransform_PeaksAtBarCenter(t *testing.T) {
	w, h := 30, 30
	mask := make([]bool, w*h)
	for y := 10; y < 21; y++ {
		for x := 0; x < w; x++ {
			mask[y*w+x] = true
		}
	}
	dt := distanceTransform(mask, w, h)

	// Center row of an 11-row bar is 6 pixels from the nearest background.
	center := dt[15*w+15]
	edge := dt[10*w+15]
	if center <= edge {
		t.Fatalf("distance at center (%g) should exceed the boundary row (%g)", center, edge)
	}
	if math.Abs(float64(center)-6) > 1.5 {
		t.Errorf("center distance %g, expected about 6", center)
	}
}
