package vectorize

import (
	"image/color"
	"math/rand"
	"testing"
)

func TestPoissonDisk_RespectsMinimumDistance(t *testing.T) {
	const minDist = 6.0
	rng := rand.New(rand.NewSource(7))
	pts := poissonDisk(100, 100, minDist, rng)
	if len(pts) < 50 {
		t.Fatalf("expected a dense sample set, got %d points", len(pts))
	}
	for i := 0; i < len(pts); i++ {
		for j := i + 1; j < len(pts); j++ {
			if d := pts[i].Dist(pts[j]); d < minDist-1e-9 {
				t.Fatalf("points %d and %d are %g apart, below minimum %g", i, j, d, minDist)
			}
		}
	}
}

func TestPoissonDisk_IsDeterministicForASeed(t *testing.T) {
	a := poissonDisk(80, 80, 5, rand.New(rand.NewSource(3)))
	b := poissonDisk(80, 80, 5, rand.New(rand.NewSource(3)))
	if len(a) != len(b) {
		t.Fatalf("same seed produced %d vs %d samples", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("sample %d differs: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestTraceDots_RadiiStayInConfiguredRange(t *testing.T) {
	cfg := DefaultConfig(BackendDots)
	cfg.Dots.DensityThreshold = 0.05
	cfg.Dots.SizeVariation = 0.5
	rb := mustRaster(t, quadrantImage(80, 80), cfg)
	rng := rand.New(rand.NewSource(cfg.Seed))

	prims := traceDots(rb, cfg, rng)
	if len(prims) == 0 {
		t.Fatal("quadrant boundaries should attract dots")
	}
	for _, p := range prims {
		if p.Kind != KindDot {
			t.Fatalf("dots backend emitted a %v primitive", p.Kind)
		}
		if p.Radius < cfg.Dots.MinRadius-1e-9 || p.Radius > cfg.Dots.MaxRadius+1e-9 {
			t.Fatalf("radius %g outside [%g,%g]", p.Radius, cfg.Dots.MinRadius, cfg.Dots.MaxRadius)
		}
	}
}

func TestTraceDots_SkipsBackgroundRegions(t *testing.T) {
	// A dark square on white: tolerant background matching must keep all
	// dots on or around the square, none in the far corners.
	img := drawImage(100, 100, func(x, y int) color.NRGBA {
		if x >= 35 && x < 65 && y >= 35 && y < 65 {
			return color.NRGBA{A: 255}
		}
		return color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	})
	cfg := DefaultConfig(BackendDots)
	cfg.Dots.BackgroundTolerance = 0.15
	cfg.Dots.DensityThreshold = 0.05
	rb := mustRaster(t, img, cfg)
	rng := rand.New(rand.NewSource(cfg.Seed))

	prims := traceDots(rb, cfg, rng)
	for _, p := range prims {
		if p.Center.X < 20 && p.Center.Y < 20 {
			t.Fatalf("dot at %v landed in flat background", p.Center)
		}
	}
}

func TestTraceDots_PreserveColorsSamplesTheSource(t *testing.T) {
	cfg := DefaultConfig(BackendDots)
	cfg.Dots.PreserveColors = true
	cfg.Dots.DensityThreshold = 0.05
	cfg.Dots.BackgroundTolerance = 0
	rb := mustRaster(t, quadrantImage(80, 80), cfg)
	rng := rand.New(rand.NewSource(cfg.Seed))

	prims := traceDots(rb, cfg, rng)
	if len(prims) == 0 {
		t.Fatal("expected dots")
	}
	sawColor := false
	for _, p := range prims {
		if p.Color != cfg.Dots.DefaultColor {
			sawColor = true
			break
		}
	}
	if !sawColor {
		t.Error("preserve_colors should sample source colors, all dots came out default")
	}
}

func TestImportanceMap_PeaksAtContrastBoundary(t *testing.T) {
	img := drawImage(60, 60, func(x, y int) color.NRGBA {
		if x < 30 {
			return color.NRGBA{A: 255}
		}
		return color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	})
	cfg := DefaultConfig(BackendDots)
	rb := mustRaster(t, img, cfg)

	imp := importanceMap(rb, 1)
	boundary := imp[30*rb.Width+30]
	flat := imp[30*rb.Width+10]
	if boundary <= flat {
		t.Fatalf("importance at boundary (%g) should exceed flat area (%g)", boundary, flat)
	}
}

func TestJitteredGrid_HexOffsetsAlternateRows(t *testing.T) {
	const spacing = 10.0
	rect := jitteredGrid(100, 100, spacing, false, rand.New(rand.NewSource(1)))
	hex := jitteredGrid(100, 100, spacing, true, rand.New(rand.NewSource(1)))
	if len(hex) <= len(rect) {
		t.Fatalf("hex packing should fit more rows: %d vs %d samples", len(hex), len(rect))
	}
	// Rows pack at spacing*sqrt(3)/2, so the second row starts shifted by
	// half the spacing; its first sample cannot land left of that shift.
	rowStep := spacing * 0.8660254
	for _, p := range hex {
		row := int(p.Y / rowStep)
		if row == 1 && p.X < spacing/2 {
			t.Fatalf("odd row sample at x=%g, expected shift of %g", p.X, spacing/2)
		}
	}
}
