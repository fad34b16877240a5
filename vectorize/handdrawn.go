package vectorize

import (
	"math"
	"math/rand"
)

// applyArtistic perturbs stroke primitives to look hand-drawn: bounded
// tremor jitter, curvature-driven width variation and endpoint tapering.
// Fills and dots pass through untouched. All randomness comes from the
// caller's seeded source, so a fixed seed reproduces the exact output.
func applyArtistic(prims []PathPrimitive, art ArtisticConfig, baseWidth float64, rng *rand.Rand) []PathPrimitive {
	weights, tremor, taper := art.resolve()
	if weights == 0 && tremor == 0 && taper == 0 {
		return prims
	}

	for i := range prims {
		p := &prims[i]
		if p.Kind != KindStroke || len(p.Line.Points) < 2 {
			continue
		}
		if tremor > 0 {
			jitterLine(&p.Line, tremor, rng)
		}
		if weights > 0 || taper > 0 {
			applyWidthProfile(p, weights, taper, baseWidth)
		}
	}
	return prims
}

// jitterLine displaces interior vertices perpendicular to the local
// stroke direction. Displacement is bounded by strength*maxTremorPx and
// smoothed along the line so neighboring vertices drift together instead
// of producing sawtooth noise. Endpoints stay fixed to preserve joins.
func jitterLine(pl *Polyline, strength float64, rng *rand.Rand) {
	const maxTremorPx = 2.0
	n := len(pl.Points)
	if n < 3 {
		return
	}

	// Low-frequency noise: a random walk pulled back toward zero.
	amp := strength * maxTremorPx
	noise := make([]float64, n)
	v := 0.0
	for i := range noise {
		v = v*0.7 + (rng.Float64()*2-1)*amp*0.5
		noise[i] = clamp(v, -amp, amp)
	}

	lo, hi := 1, n-1
	if pl.Closed {
		lo, hi = 0, n
	}
	for i := lo; i < hi; i++ {
		prev := pl.Points[(i-1+n)%n]
		next := pl.Points[(i+1)%n]
		dir := next.Sub(prev)
		l := dir.Norm()
		if l < 1e-9 {
			continue
		}
		normal := Point{-dir.Y / l, dir.X / l}
		pl.Points[i] = pl.Points[i].Add(normal.Scale(noise[i]))
	}
}

// applyWidthProfile fills in per-vertex widths: thicker through curved
// sections when weights is set, and thinned toward open endpoints when
// taper is set. Existing width arrays (centerline EDT widths) are scaled
// rather than replaced.
func applyWidthProfile(p *PathPrimitive, weights, taper, baseWidth float64) {
	n := len(p.Line.Points)
	if n < 2 {
		return
	}

	widths := p.Widths
	if len(widths) != n {
		widths = make([]float64, n)
		w := p.Width
		if w <= 0 {
			w = baseWidth
		}
		for i := range widths {
			widths[i] = w
		}
	}

	if weights > 0 && n >= 3 {
		for i := 1; i < n-1; i++ {
			ang := math.Abs(turnAngle(p.Line.Points[i-1], p.Line.Points[i], p.Line.Points[i+1]))
			// Up to +weights fraction extra width where the stroke
			// bends hard, full effect from 45 degrees on.
			boost := 1 + weights*math.Min(1, ang/(math.Pi/4))
			widths[i] *= boost
		}
	}

	if taper > 0 && !p.Line.Closed {
		// Taper length grows with the setting, capped at a third of
		// the stroke on each end.
		span := int(float64(n) * taper / 3)
		if span < 1 {
			span = 1
		}
		for i := 0; i < span && i < n; i++ {
			t := float64(i) / float64(span)
			scale := 1 - taper*(1-t)
			widths[i] *= scale
			widths[n-1-i] *= scale
		}
	}

	p.Widths = widths
}
