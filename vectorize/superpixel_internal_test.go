package vectorize

import (
	"testing"
)

func TestSLIC_LabelsAreDenseAndCoverEveryPixel(t *testing.T) {
	cfg := DefaultConfig(BackendSuperpixel)
	rb := mustRaster(t, quadrantImage(80, 80), cfg)

	sp := slic(rb, 16, 10, 10, 1)
	if sp.k < 1 {
		t.Fatalf("expected at least one region, got %d", sp.k)
	}

	seen := make([]bool, sp.k)
	for i, l := range sp.labels {
		if l < 0 || int(l) >= sp.k {
			t.Fatalf("pixel %d has out-of-range label %d (k=%d)", i, l, sp.k)
		}
		seen[l] = true
	}
	for l, ok := range seen {
		if !ok {
			t.Errorf("label %d is unused; labels must be dense", l)
		}
	}
}

func TestSLIC_QuadrantsSeparateCleanly(t *testing.T) {
	cfg := DefaultConfig(BackendSuperpixel)
	rb := mustRaster(t, quadrantImage(80, 80), cfg)

	sp := slic(rb, 16, 10, 10, 1)

	// No region should straddle a color boundary: check that the labels
	// at quadrant centers are pairwise distinct.
	w := rb.Width
	centers := []int{20*w + 20, 20*w + 60, 60*w + 20, 60*w + 60}
	for i := 0; i < len(centers); i++ {
		for j := i + 1; j < len(centers); j++ {
			if sp.labels[centers[i]] == sp.labels[centers[j]] {
				t.Errorf("quadrants %d and %d share label %d", i, j, sp.labels[centers[i]])
			}
		}
	}
}

func TestMergeSmallRegions_NeverIncreasesRegionCount(t *testing.T) {
	cfg := DefaultConfig(BackendSuperpixel)
	rb := mustRaster(t, quadrantImage(80, 80), cfg)

	sp := slic(rb, 64, 10, 10, 1)
	before := sp.k
	sp.mergeSmallRegions(50)

	if sp.k > before {
		t.Fatalf("merge increased region count: %d -> %d", before, sp.k)
	}

	sizes := make([]int, sp.k)
	for i, l := range sp.labels {
		if l < 0 || int(l) >= sp.k {
			t.Fatalf("pixel %d has stale label %d after merge (k=%d)", i, l, sp.k)
		}
		sizes[l]++
	}
	for l, s := range sizes {
		if s == 0 {
			t.Errorf("label %d became empty after merge", l)
		}
		if s < 50 && sp.k > 1 {
			t.Errorf("region %d still has %d pixels below the merge floor", l, s)
		}
	}
}

func TestRegionBoundary_IsClosedAndOnRegionPixels(t *testing.T) {
	cfg := DefaultConfig(BackendSuperpixel)
	rb := mustRaster(t, quadrantImage(80, 80), cfg)

	sp := slic(rb, 4, 10, 10, 1)
	for l := 0; l < sp.k; l++ {
		pl := sp.regionBoundary(int32(l))
		if !pl.Closed {
			t.Fatalf("region %d boundary must be closed", l)
		}
		for _, p := range pl.Points {
			x, y := int(p.X), int(p.Y)
			if sp.labels[y*sp.w+x] != int32(l) {
				t.Fatalf("boundary vertex (%d,%d) is not inside region %d", x, y, l)
			}
		}
	}
}

func TestTraceSuperpixel_FillsPrecedeStrokes(t *testing.T) {
	cfg := DefaultConfig(BackendSuperpixel)
	cfg.Superpixel.FillRegions = true
	cfg.Superpixel.StrokeRegions = true
	rb := mustRaster(t, quadrantImage(80, 80), cfg)
	th := DetailThresholds(cfg.Detail, rb.Width, rb.Height)

	prims := traceSuperpixel(rb, cfg, th)
	if len(prims) == 0 {
		t.Fatal("expected primitives from a four-color image")
	}
	sawStroke := false
	for _, p := range prims {
		switch p.Kind {
		case KindStroke:
			sawStroke = true
		case KindFill:
			if sawStroke {
				t.Fatal("fill primitive emitted after a stroke; paint order broken")
			}
		}
	}
	if !sawStroke {
		t.Error("stroke_regions should emit stroke primitives")
	}
}
