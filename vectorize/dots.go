package vectorize

import (
	"image/color"
	"math"
	"math/rand"
)

// importanceMap scores each pixel by how much visual detail surrounds it,
// combining normalized gradient magnitude with local intensity variance.
// Dots land where the score exceeds the density threshold.
func importanceMap(rb *RasterBuffer, workers int) []float64 {
	w, h := rb.Width, rb.Height
	field := sobelField(rb, workers)

	const win = 3 // variance window half-size
	imp := make([]float64, w*h)
	parallelFor(workers, h, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < w; x++ {
				var sum, sumSq float64
				n := 0
				for dy := -win; dy <= win; dy++ {
					for dx := -win; dx <= win; dx++ {
						v := float64(rb.GrayAt(x+dx, y+dy))
						sum += v
						sumSq += v * v
						n++
					}
				}
				mean := sum / float64(n)
				variance := sumSq/float64(n) - mean*mean
				if variance < 0 {
					variance = 0
				}
				// Variance of an 8-bit patch tops out at 0.25; scale
				// so a hard black/white boundary saturates the term.
				g := float64(field.mag[y*w+x])
				imp[y*w+x] = 0.6*g + 0.4*math.Min(1, variance*4)
			}
		}
	})
	return imp
}

// estimateBackground samples the four image corners and returns their mean
// color, the reference against which background pixels are skipped.
func estimateBackground(rb *RasterBuffer) color.NRGBA {
	w, h := rb.Width, rb.Height
	corners := [4][2]int{{0, 0}, {w - 1, 0}, {0, h - 1}, {w - 1, h - 1}}
	var r, g, b int
	for _, c := range corners {
		px := rb.ColorAt(c[0], c[1])
		r += int(px.R)
		g += int(px.G)
		b += int(px.B)
	}
	return color.NRGBA{R: uint8(r / 4), G: uint8(g / 4), B: uint8(b / 4), A: 255}
}

// colorDistance is the normalized euclidean RGB distance in [0,1].
func colorDistance(a, b color.NRGBA) float64 {
	dr := float64(a.R) - float64(b.R)
	dg := float64(a.G) - float64(b.G)
	db := float64(a.B) - float64(b.B)
	return math.Sqrt(dr*dr+dg*dg+db*db) / 441.67295593
}

// poissonDisk generates blue-noise sample positions with Bridson's
// algorithm: each accepted sample spawns up to 30 candidates in its
// annulus, rejected when closer than minDist to any existing sample.
// The background grid makes each rejection test O(1).
func poissonDisk(w, h int, minDist float64, rng *rand.Rand) []Point {
	const attempts = 30
	cell := minDist / math.Sqrt2
	gw := int(float64(w)/cell) + 1
	gh := int(float64(h)/cell) + 1
	grid := make([]int, gw*gh)
	for i := range grid {
		grid[i] = -1
	}

	var samples []Point
	var active []int

	place := func(p Point) {
		gx, gy := int(p.X/cell), int(p.Y/cell)
		grid[gy*gw+gx] = len(samples)
		samples = append(samples, p)
		active = append(active, len(samples)-1)
	}

	fits := func(p Point) bool {
		if p.X < 0 || p.Y < 0 || p.X >= float64(w) || p.Y >= float64(h) {
			return false
		}
		gx, gy := int(p.X/cell), int(p.Y/cell)
		for dy := -2; dy <= 2; dy++ {
			for dx := -2; dx <= 2; dx++ {
				nx, ny := gx+dx, gy+dy
				if nx < 0 || ny < 0 || nx >= gw || ny >= gh {
					continue
				}
				if si := grid[ny*gw+nx]; si >= 0 {
					if p.DistSq(samples[si]) < minDist*minDist {
						return false
					}
				}
			}
		}
		return true
	}

	place(Point{rng.Float64() * float64(w), rng.Float64() * float64(h)})

	for len(active) > 0 {
		ai := rng.Intn(len(active))
		base := samples[active[ai]]
		placed := false
		for a := 0; a < attempts; a++ {
			ang := rng.Float64() * 2 * math.Pi
			r := minDist * (1 + rng.Float64())
			cand := Point{base.X + r*math.Cos(ang), base.Y + r*math.Sin(ang)}
			if fits(cand) {
				place(cand)
				placed = true
				break
			}
		}
		if !placed {
			active[ai] = active[len(active)-1]
			active = active[:len(active)-1]
		}
	}
	return samples
}

// jitteredGrid generates one randomly offset sample per spacing-sized
// cell. With hex set, alternate rows shift by half the spacing and rows
// pack at spacing*sqrt(3)/2, giving a honeycomb arrangement.
func jitteredGrid(w, h int, spacing float64, hex bool, rng *rand.Rand) []Point {
	rowStep := spacing
	if hex {
		rowStep = spacing * math.Sqrt(3) / 2
	}
	var samples []Point
	row := 0
	for y := 0.0; y < float64(h); y += rowStep {
		shift := 0.0
		if hex && row%2 == 1 {
			shift = spacing / 2
		}
		for x := shift; x < float64(w); x += spacing {
			px := x + rng.Float64()*spacing
			py := y + rng.Float64()*rowStep
			if px < float64(w) && py < float64(h) {
				samples = append(samples, Point{px, py})
			}
		}
		row++
	}
	return samples
}

// traceDots runs the stipple backend: candidate positions from a seeded
// Poisson-disk or jittered-grid distribution, kept where the local
// importance clears the density threshold and the pixel is not
// background, with radius scaled by importance.
func traceDots(rb *RasterBuffer, cfg *Config, rng *rand.Rand) []PathPrimitive {
	dc := cfg.Dots
	w, h := rb.Width, rb.Height
	workers := cfg.Performance.ThreadCount

	imp := importanceMap(rb, workers)

	// Denser detail settings space candidates closer together.
	spacing := dc.MaxRadius * 2 * (1.5 - cfg.Detail)
	if spacing < dc.MinRadius*2 {
		spacing = dc.MinRadius * 2
	}

	var candidates []Point
	if dc.PoissonDisk {
		candidates = poissonDisk(w, h, spacing, rng)
	} else {
		candidates = jitteredGrid(w, h, spacing, dc.HexGrid, rng)
	}

	var bg color.NRGBA
	checkBG := dc.BackgroundTolerance > 0
	if checkBG {
		bg = estimateBackground(rb)
	}

	var prims []PathPrimitive
	for _, p := range candidates {
		x, y := int(p.X), int(p.Y)
		score := imp[y*w+x]
		if score < dc.DensityThreshold {
			continue
		}

		c := dc.DefaultColor
		if dc.PreserveColors || checkBG {
			sampled := rb.ColorAt(x, y)
			if checkBG && colorDistance(sampled, bg) <= dc.BackgroundTolerance {
				continue
			}
			if dc.PreserveColors {
				c = sampled
			}
		}

		r := (dc.MinRadius + dc.MaxRadius) / 2
		if dc.AdaptiveSizing {
			// Importance above the threshold maps linearly onto the
			// radius range.
			t := (score - dc.DensityThreshold) / math.Max(1e-9, 1-dc.DensityThreshold)
			r = dc.MinRadius + (dc.MaxRadius-dc.MinRadius)*clamp(t, 0, 1)
		}
		if dc.SizeVariation > 0 {
			r *= 1 + (rng.Float64()*2-1)*dc.SizeVariation
			r = clamp(r, dc.MinRadius, dc.MaxRadius)
		}

		prims = append(prims, PathPrimitive{
			Kind:    KindDot,
			Center:  p,
			Radius:  r,
			Color:   c,
			Opacity: 1,
		})
	}
	return prims
}
