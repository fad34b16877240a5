package vectorize

import "math"

// edgeField carries the per-pixel gradient data shared by the edge
// detection stages.
type edgeField struct {
	w, h   int
	gx, gy []float32
	mag    []float32 // normalized to [0,1]
}

// sobelField computes Sobel gradients and the normalized magnitude plane.
func sobelField(rb *RasterBuffer, workers int) *edgeField {
	w, h := rb.Width, rb.Height
	f := &edgeField{
		w: w, h: h,
		gx:  make([]float32, w*h),
		gy:  make([]float32, w*h),
		mag: make([]float32, w*h),
	}

	parallelFor(workers, h, func(startRow, endRow int) {
		for y := startRow; y < endRow; y++ {
			for x := 0; x < w; x++ {
				tl := rb.GrayAt(x-1, y-1)
				tc := rb.GrayAt(x, y-1)
				tr := rb.GrayAt(x+1, y-1)
				ml := rb.GrayAt(x-1, y)
				mr := rb.GrayAt(x+1, y)
				bl := rb.GrayAt(x-1, y+1)
				bc := rb.GrayAt(x, y+1)
				br := rb.GrayAt(x+1, y+1)

				gx := (tr + 2*mr + br) - (tl + 2*ml + bl)
				gy := (bl + 2*bc + br) - (tl + 2*tc + tr)

				i := y*w + x
				f.gx[i] = gx
				f.gy[i] = gy
				f.mag[i] = float32(math.Hypot(float64(gx), float64(gy)))
			}
		}
	})

	var maxMag float32
	for _, m := range f.mag {
		if m > maxMag {
			maxMag = m
		}
	}
	if maxMag > 0 {
		inv := 1 / maxMag
		parallelFor(workers, w*h, func(start, end int) {
			for i := start; i < end; i++ {
				f.mag[i] *= inv
			}
		})
	}
	return f
}

// meanMagnitude reports the average normalized gradient, used to detect
// degenerate (near-uniform) images.
func (f *edgeField) meanMagnitude() float64 {
	var sum float64
	for _, m := range f.mag {
		sum += float64(m)
	}
	return sum / float64(len(f.mag))
}

// nonMaxSuppress thins the magnitude plane to local maxima along the
// gradient direction, quantized to four orientations.
func nonMaxSuppress(f *edgeField, workers int) []float32 {
	w, h := f.w, f.h
	out := make([]float32, w*h)
	parallelFor(workers, h, func(startRow, endRow int) {
		for y := startRow; y < endRow; y++ {
			if y == 0 || y == h-1 {
				continue
			}
			for x := 1; x < w-1; x++ {
				i := y*w + x
				m := f.mag[i]
				if m == 0 {
					continue
				}
				angle := math.Atan2(float64(f.gy[i]), float64(f.gx[i]))
				var a, b float32
				switch quantizeAngle(angle) {
				case 0: // horizontal gradient: compare left/right
					a, b = f.mag[i-1], f.mag[i+1]
				case 1: // 45°
					a, b = f.mag[i-w+1], f.mag[i+w-1]
				case 2: // vertical
					a, b = f.mag[i-w], f.mag[i+w]
				default: // 135°
					a, b = f.mag[i-w-1], f.mag[i+w+1]
				}
				if m >= a && m >= b {
					out[i] = m
				}
			}
		}
	})
	return out
}

// quantizeAngle buckets an angle in radians into one of four edge
// orientations (0, 45, 90, 135 degrees).
func quantizeAngle(angle float64) int {
	deg := angle * 180 / math.Pi
	if deg < 0 {
		deg += 180
	}
	switch {
	case deg < 22.5 || deg >= 157.5:
		return 0
	case deg < 67.5:
		return 1
	case deg < 112.5:
		return 2
	default:
		return 3
	}
}

// hysteresis grows edges from strong seeds (>= high) through weak pixels
// (>= low) using 8-connectivity.
func hysteresis(nms []float32, w, h int, high, low float64) []bool {
	edges := make([]bool, w*h)
	var stack []int

	for i, m := range nms {
		if float64(m) >= high && !edges[i] {
			edges[i] = true
			stack = append(stack, i)
			for len(stack) > 0 {
				j := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				x, y := j%w, j/w
				for dy := -1; dy <= 1; dy++ {
					for dx := -1; dx <= 1; dx++ {
						if dx == 0 && dy == 0 {
							continue
						}
						nx, ny := x+dx, y+dy
						if nx < 0 || ny < 0 || nx >= w || ny >= h {
							continue
						}
						k := ny*w + nx
						if !edges[k] && float64(nms[k]) >= low {
							edges[k] = true
							stack = append(stack, k)
						}
					}
				}
			}
		}
	}
	return edges
}

// scanOrder enumerates pixel start indices for a linking pass.
type scanOrder int

const (
	scanStandard scanOrder = iota
	scanReverse
	scanDiagonal
)

// linkEdges walks the binary edge map into polylines. The scan order only
// affects which pixel seeds each walk, which is exactly what lets extra
// passes recover chains the standard order fragments.
func linkEdges(edges []bool, w, h int, order scanOrder) []Polyline {
	visited := make([]bool, len(edges))
	var lines []Polyline

	seed := func(i int) {
		if !edges[i] || visited[i] {
			return
		}
		chain := walkChain(edges, visited, w, h, i)
		if len(chain) >= 2 {
			// The two walk termini of a loop meet on the far side of the
			// seed but can stop a few pixels short of each other, so the
			// closure tolerance grows with the chain.
			tol := clamp(0.05*float64(len(chain)), 2.0, 8.0)
			closed := len(chain) >= 8 && chain[0].Dist(chain[len(chain)-1]) <= tol
			lines = append(lines, Polyline{Points: chain, Closed: closed, Region: -1})
		}
	}

	switch order {
	case scanReverse:
		for i := len(edges) - 1; i >= 0; i-- {
			seed(i)
		}
	case scanDiagonal:
		// Anti-diagonal sweep: x+y constant per wave.
		for s := 0; s <= w+h-2; s++ {
			for y := 0; y <= s; y++ {
				x := s - y
				if x < w && y < h {
					seed(y*w + x)
				}
			}
		}
	default:
		for i := range edges {
			seed(i)
		}
	}
	return lines
}

// walkChain extends a chain from the seed in both directions, preferring
// the neighbor that best continues the current heading.
func walkChain(edges, visited []bool, w, h, seed int) []Point {
	forward := walkDirection(edges, visited, w, h, seed)
	visited[seed] = false // allow the backward walk to leave the seed
	backward := walkDirection(edges, visited, w, h, seed)
	visited[seed] = true

	// backward starts at the seed too; reverse it and drop the duplicate.
	for i, j := 0, len(backward)-1; i < j; i, j = i+1, j-1 {
		backward[i], backward[j] = backward[j], backward[i]
	}
	if len(backward) > 0 {
		backward = backward[:len(backward)-1]
	}
	return append(backward, forward...)
}

func walkDirection(edges, visited []bool, w, h, start int) []Point {
	var chain []Point
	cur := start
	var px, py = -2, -2 // previous step direction, invalid at start

	for {
		visited[cur] = true
		x, y := cur%w, cur/w
		chain = append(chain, Point{float64(x), float64(y)})

		best, bestScore := -1, math.Inf(-1)
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				nx, ny := x+dx, y+dy
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				k := ny*w + nx
				if !edges[k] || visited[k] {
					continue
				}
				score := 0.0
				if px != -2 {
					// Prefer continuing in the same direction.
					score = float64(dx*px + dy*py)
				}
				// Prefer 4-connected steps over diagonals on ties.
				if dx == 0 || dy == 0 {
					score += 0.25
				}
				if score > bestScore {
					bestScore = score
					best = k
				}
			}
		}
		if best < 0 {
			return chain
		}
		px, py = best%w-x, best/w-y
		cur = best
	}
}

// mergePasses unions polylines from extra passes into base, dropping any
// candidate whose pixels mostly coincide with already-covered cells.
func mergePasses(base, extra []Polyline, w, h int) []Polyline {
	covered := make([]bool, w*h)
	mark := func(pl Polyline) {
		for _, p := range pl.Points {
			x, y := int(p.X), int(p.Y)
			if x >= 0 && y >= 0 && x < w && y < h {
				covered[y*w+x] = true
			}
		}
	}
	for _, pl := range base {
		mark(pl)
	}

	out := base
	for _, pl := range extra {
		dup := 0
		for _, p := range pl.Points {
			x, y := int(p.X), int(p.Y)
			if x >= 0 && y >= 0 && x < w && y < h && covered[y*w+x] {
				dup++
			}
		}
		if float64(dup) >= 0.6*float64(len(pl.Points)) {
			continue
		}
		mark(pl)
		out = append(out, pl)
	}
	return out
}

// traceEdge runs the edge backend: gradient detection, optional multipass
// and flow-guided tracing, pruning and simplification.
func traceEdge(rb *RasterBuffer, cfg *Config, th Thresholds) []Polyline {
	e := cfg.Edge
	workers := cfg.Performance.ThreadCount

	field := sobelField(rb, workers)

	// A uniform image has no edges; report an empty set, not an error.
	if field.meanMagnitude() < 1e-5 {
		return nil
	}

	var lines []Polyline
	if e.EnableFlowTracing {
		lines = traceFlowGuided(rb, field, cfg, th)
		if lines == nil {
			// Degenerate flow field: silently fall back to standard
			// edge linking.
			logger().Debug("flow field degenerate, falling back to standard linking")
			lines = traceStandard(field, cfg, th, workers)
		}
	} else {
		lines = traceStandard(field, cfg, th, workers)
	}

	out := lines[:0]
	for _, pl := range lines {
		if pl.Length() < th.MinStrokeLength {
			continue
		}
		pl = SimplifyPolyline(pl, th.DPEpsilon)
		if len(pl.Points) >= 2 {
			out = append(out, pl)
		}
	}
	return out
}

// traceStandard is gradient thresholding plus scan-order edge linking,
// with optional conservative/aggressive dual detail and extra directional
// passes merged by union.
func traceStandard(field *edgeField, cfg *Config, th Thresholds, workers int) []Polyline {
	e := cfg.Edge
	nms := nonMaxSuppress(field, workers)

	high, low := th.EdgeHigh, th.EdgeLow
	if e.Multipass {
		conservative, aggressive := multipassDetails(cfg)
		ct := DetailThresholds(conservative, field.w, field.h)
		lines := linkEdges(hysteresis(nms, field.w, field.h, ct.EdgeHigh, ct.EdgeLow), field.w, field.h, scanStandard)

		at := DetailThresholds(aggressive, field.w, field.h)
		edges := hysteresis(nms, field.w, field.h, at.EdgeHigh, at.EdgeLow)
		lines = mergePasses(lines, linkEdges(edges, field.w, field.h, scanStandard), field.w, field.h)
		if e.ReversePass {
			lines = mergePasses(lines, linkEdges(edges, field.w, field.h, scanReverse), field.w, field.h)
		}
		if e.DiagonalPass {
			lines = mergePasses(lines, linkEdges(edges, field.w, field.h, scanDiagonal), field.w, field.h)
		}
		return lines
	}

	edges := hysteresis(nms, field.w, field.h, high, low)
	return linkEdges(edges, field.w, field.h, scanStandard)
}

// multipassDetails returns the conservative and aggressive detail levels
// for dual-pass processing, derived from the shared knob unless overridden.
func multipassDetails(cfg *Config) (float64, float64) {
	e := cfg.Edge
	conservative := clamp(cfg.Detail-0.2, 0, 1)
	aggressive := clamp(cfg.Detail+0.2, 0, 1)
	if e.ConservativeDetail > 0 {
		conservative = e.ConservativeDetail
	}
	if e.AggressiveDetail > 0 {
		aggressive = e.AggressiveDetail
	}
	return conservative, aggressive
}
