package vectorize

import "math"

// distanceTransform computes a 3-4 chamfer distance to the background for
// every foreground pixel, in approximate pixel units.
func distanceTransform(mask []bool, w, h int) []float32 {
	const inf = float32(1e9)
	dt := make([]float32, w*h)
	for i, fg := range mask {
		if fg {
			dt[i] = inf
		}
	}

	// Forward pass.
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			if dt[i] == 0 {
				continue
			}
			d := dt[i]
			if x > 0 && dt[i-1]+3 < d {
				d = dt[i-1] + 3
			}
			if y > 0 {
				if dt[i-w]+3 < d {
					d = dt[i-w] + 3
				}
				if x > 0 && dt[i-w-1]+4 < d {
					d = dt[i-w-1] + 4
				}
				if x < w-1 && dt[i-w+1]+4 < d {
					d = dt[i-w+1] + 4
				}
			}
			dt[i] = d
		}
	}
	// Backward pass.
	for y := h - 1; y >= 0; y-- {
		for x := w - 1; x >= 0; x-- {
			i := y*w + x
			if dt[i] == 0 {
				continue
			}
			d := dt[i]
			if x < w-1 && dt[i+1]+3 < d {
				d = dt[i+1] + 3
			}
			if y < h-1 {
				if dt[i+w]+3 < d {
					d = dt[i+w] + 3
				}
				if x < w-1 && dt[i+w+1]+4 < d {
					d = dt[i+w+1] + 4
				}
				if x > 0 && dt[i+w-1]+4 < d {
					d = dt[i+w-1] + 4
				}
			}
			dt[i] = d
		}
	}
	for i := range dt {
		dt[i] /= 3
	}
	return dt
}

// zhangSuen thins a binary mask to a 1-pixel-wide skeleton using the
// classic two-subiteration parallel boundary-removal algorithm, which
// preserves 8-connectivity and topology. maxIter caps the passes so the
// processing-time hint can bound worst-case work; 0 means unbounded.
func zhangSuen(mask []bool, w, h, maxIter int) []bool {
	skel := make([]bool, len(mask))
	copy(skel, mask)

	at := func(x, y int) bool {
		if x < 0 || y < 0 || x >= w || y >= h {
			return false
		}
		return skel[y*w+x]
	}

	var toClear []int
	for iter := 0; maxIter == 0 || iter < maxIter; iter++ {
		changed := false
		for sub := 0; sub < 2; sub++ {
			toClear = toClear[:0]
			for y := 0; y < h; y++ {
				for x := 0; x < w; x++ {
					if !skel[y*w+x] {
						continue
					}
					// Neighbors p2..p9 clockwise from north.
					p2 := at(x, y-1)
					p3 := at(x+1, y-1)
					p4 := at(x+1, y)
					p5 := at(x+1, y+1)
					p6 := at(x, y+1)
					p7 := at(x-1, y+1)
					p8 := at(x-1, y)
					p9 := at(x-1, y-1)

					b := count(p2) + count(p3) + count(p4) + count(p5) +
						count(p6) + count(p7) + count(p8) + count(p9)
					if b < 2 || b > 6 {
						continue
					}
					a := transitions(p2, p3, p4, p5, p6, p7, p8, p9)
					if a != 1 {
						continue
					}
					if sub == 0 {
						if (p2 && p4 && p6) || (p4 && p6 && p8) {
							continue
						}
					} else {
						if (p2 && p4 && p8) || (p2 && p6 && p8) {
							continue
						}
					}
					toClear = append(toClear, y*w+x)
				}
			}
			for _, i := range toClear {
				skel[i] = false
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	return skel
}

func count(b bool) int {
	if b {
		return 1
	}
	return 0
}

// transitions counts 0->1 transitions in the circular neighbor sequence.
func transitions(ps ...bool) int {
	n := 0
	for i := range ps {
		if !ps[i] && ps[(i+1)%len(ps)] {
			n++
		}
	}
	return n
}

// neighborCount returns the number of 8-connected skeleton neighbors.
func neighborCount(skel []bool, w, h, x, y int) int {
	n := 0
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			nx, ny := x+dx, y+dy
			if nx >= 0 && ny >= 0 && nx < w && ny < h && skel[ny*w+nx] {
				n++
			}
		}
	}
	return n
}

// extractSkeleton walks the thinned mask into branch polylines. Walks start
// at endpoints and junction-adjacent pixels so every branch is traversed
// exactly once; an isolated loop with neither is walked from its first
// unvisited pixel and closed.
func extractSkeleton(skel []bool, w, h int) []Polyline {
	visited := make([]bool, len(skel))
	var lines []Polyline

	walk := func(sx, sy int) {
		branch := []Point{{float64(sx), float64(sy)}}
		visited[sy*w+sx] = true
		x, y := sx, sy
		for {
			nextX, nextY, found := -1, -1, false
			// Prefer 4-connected continuation for stable walks.
			for _, d := range [8][2]int{{0, -1}, {1, 0}, {0, 1}, {-1, 0}, {1, -1}, {1, 1}, {-1, 1}, {-1, -1}} {
				nx, ny := x+d[0], y+d[1]
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				if skel[ny*w+nx] && !visited[ny*w+nx] {
					nextX, nextY, found = nx, ny, true
					break
				}
			}
			if !found {
				break
			}
			x, y = nextX, nextY
			visited[y*w+x] = true
			branch = append(branch, Point{float64(x), float64(y)})
			// Stop the walk at junctions so branches stay simple.
			if neighborCount(skel, w, h, x, y) > 2 {
				break
			}
		}
		if len(branch) >= 2 {
			lines = append(lines, Polyline{Points: branch, Region: -1})
		}
	}

	// Endpoints first, then junction spokes, then leftover loops.
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if skel[y*w+x] && !visited[y*w+x] && neighborCount(skel, w, h, x, y) == 1 {
				walk(x, y)
			}
		}
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if skel[y*w+x] && !visited[y*w+x] && neighborCount(skel, w, h, x, y) > 2 {
				visited[y*w+x] = true
				for _, d := range [8][2]int{{0, -1}, {1, 0}, {0, 1}, {-1, 0}, {1, -1}, {1, 1}, {-1, 1}, {-1, -1}} {
					nx, ny := x+d[0], y+d[1]
					if nx >= 0 && ny >= 0 && nx < w && ny < h && skel[ny*w+nx] && !visited[ny*w+nx] {
						walk(nx, ny)
					}
				}
			}
		}
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if skel[y*w+x] && !visited[y*w+x] {
				walk(x, y)
				if n := len(lines); n > 0 {
					last := &lines[n-1]
					if len(last.Points) >= 8 &&
						last.Points[0].Dist(last.Points[len(last.Points)-1]) <= 1.5 {
						last.Closed = true
					}
				}
			}
		}
	}
	return lines
}

// joinSkeletonLines bridges pairs of open endpoints that lie within
// maxDist pixels of each other and whose heading difference is below
// maxAngle degrees, but only when the midpoint of the bridge lies inside
// the original stroke (distance transform above zero), which confirms the
// gap came from thinning rather than genuinely separate strokes.
func joinSkeletonLines(lines []Polyline, dt []float32, w, h int, maxDist, maxAngle float64) []Polyline {
	maxRad := maxAngle * math.Pi / 180

	type endpoint struct {
		line int
		tail bool // endpoint at the end of Points
		pos  Point
		dir  Point // heading pointing out of the line
	}
	var eps []endpoint
	for i := range lines {
		if lines[i].Closed || len(lines[i].Points) < 2 {
			continue
		}
		pts := lines[i].Points
		eps = append(eps,
			endpoint{i, false, pts[0], pts[0].Sub(pts[1]).Normalize()},
			endpoint{i, true, pts[len(pts)-1], pts[len(pts)-1].Sub(pts[len(pts)-2]).Normalize()},
		)
	}

	merged := make([]bool, len(lines))
	for a := 0; a < len(eps); a++ {
		for b := a + 1; b < len(eps); b++ {
			ea, eb := eps[a], eps[b]
			if ea.line == eb.line || merged[ea.line] || merged[eb.line] {
				continue
			}
			if ea.pos.Dist(eb.pos) > maxDist {
				continue
			}
			// The two outward headings must be roughly opposed.
			dot := ea.dir.Dot(eb.dir)
			if math.Acos(clamp(-dot, -1, 1)) > maxRad {
				continue
			}
			if !bridgeInsideStroke(ea.pos, eb.pos, dt, w, h) {
				continue
			}

			lines[ea.line] = spliceLines(lines[ea.line], ea.tail, lines[eb.line], eb.tail)
			merged[eb.line] = true
			// Endpoint metadata for ea.line is now stale; a single
			// join per line pair is enough for thinning artifacts.
			break
		}
	}

	out := lines[:0]
	for i := range lines {
		if !merged[i] {
			out = append(out, lines[i])
		}
	}
	return out
}

// bridgeInsideStroke samples the segment between two endpoints and accepts
// it when every sample still lies on foreground of the original mask.
func bridgeInsideStroke(a, b Point, dt []float32, w, h int) bool {
	steps := int(a.Dist(b)) + 1
	for s := 0; s <= steps; s++ {
		t := float64(s) / float64(steps)
		x := int(a.X + (b.X-a.X)*t + 0.5)
		y := int(a.Y + (b.Y-a.Y)*t + 0.5)
		if x < 0 || y < 0 || x >= w || y >= h {
			return false
		}
		if dt[y*w+x] <= 0 {
			return false
		}
	}
	return true
}

// spliceLines concatenates b onto a so the joined endpoints meet.
func spliceLines(a Polyline, aTail bool, b Polyline, bTail bool) Polyline {
	ap, bp := a.Points, b.Points
	if !aTail {
		reversePoints(ap)
	}
	if bTail {
		reversePoints(bp)
	}
	return Polyline{Points: append(ap, bp...), Region: -1}
}

func reversePoints(p []Point) {
	for i, j := 0, len(p)-1; i < j; i, j = i+1, j-1 {
		p[i], p[j] = p[j], p[i]
	}
}

// traceCenterline runs the centerline backend: binarize, thin, extract and
// prune branches, optionally modulate widths from the distance transform,
// join endpoints and simplify. The returned widths slice is parallel to
// the polylines; entries are nil when width modulation is off.
func traceCenterline(rb *RasterBuffer, cfg *Config, th Thresholds) ([]Polyline, [][]float64) {
	cl := cfg.Centerline
	workers := cfg.Performance.ThreadCount

	mask := binarize(rb, cl.AdaptiveThreshold, cl.WindowSize, cl.SensitivityK, workers)

	fg := 0
	for _, b := range mask {
		if b {
			fg++
		}
	}
	// No foreground after binarization: zero polylines, not an error.
	if fg == 0 {
		return nil, nil
	}

	maxIter := 0
	if budget := cfg.Performance.MaxProcessingTimeMs; budget > 0 && budget < 500 {
		maxIter = 64
	}
	skel := zhangSuen(mask, rb.Width, rb.Height, maxIter)
	dt := distanceTransform(mask, rb.Width, rb.Height)

	lines := extractSkeleton(skel, rb.Width, rb.Height)

	minBranch := cl.MinBranchLength
	if minBranch <= 0 {
		minBranch = th.MinBranchLength
	}
	pruned := lines[:0]
	for _, pl := range lines {
		if pl.Length() >= minBranch {
			pruned = append(pruned, pl)
		}
	}
	lines = pruned

	if cl.JoinEndpoints {
		lines = joinSkeletonLines(lines, dt, rb.Width, rb.Height, cl.JoinMaxDistance, cl.JoinMaxAngle)
	}

	var widths [][]float64
	if cl.WidthModulation {
		widths = make([][]float64, len(lines))
		// Largest stroke radius normalizes the modulation ratio.
		var maxR float64
		for _, pl := range lines {
			for _, p := range pl.Points {
				if r := sampleDT(dt, rb.Width, rb.Height, p); r > maxR {
					maxR = r
				}
			}
		}
		if maxR <= 0 {
			maxR = 1
		}
		for i, pl := range lines {
			ws := make([]float64, len(pl.Points))
			for j, p := range pl.Points {
				ratio := sampleDT(dt, rb.Width, rb.Height, p) / maxR
				ws[j] = cl.WidthMin + (cl.WidthMax-cl.WidthMin)*ratio
			}
			widths[i] = ws
		}
	}

	eps := cl.SimplifyEpsilon
	if eps <= 0 {
		eps = th.DPEpsilon
	}
	// Simplification can shave a borderline branch back under the length
	// floor, so the floor is re-checked afterwards.
	kept := lines[:0]
	var keptWidths [][]float64
	for i := range lines {
		var simplified Polyline
		if cl.AdaptiveSimplify {
			simplified = adaptiveSimplify(lines[i], eps)
		} else {
			simplified = SimplifyPolyline(lines[i], eps)
		}
		if simplified.Length() < minBranch {
			continue
		}
		if widths != nil && widths[i] != nil {
			keptWidths = append(keptWidths, remapWidths(lines[i].Points, widths[i], simplified.Points))
		} else if widths != nil {
			keptWidths = append(keptWidths, nil)
		}
		kept = append(kept, simplified)
	}
	if widths == nil {
		return kept, nil
	}
	return kept, keptWidths
}

func sampleDT(dt []float32, w, h int, p Point) float64 {
	x, y := clampInt(int(p.X+0.5), 0, w-1), clampInt(int(p.Y+0.5), 0, h-1)
	return float64(dt[y*w+x])
}

// remapWidths carries per-vertex widths from the original vertices onto
// the simplified ones by nearest original point.
func remapWidths(orig []Point, widths []float64, simplified []Point) []float64 {
	out := make([]float64, len(simplified))
	for i, p := range simplified {
		best, bestD := 0, math.Inf(1)
		for j, q := range orig {
			if d := p.DistSq(q); d < bestD {
				bestD = d
				best = j
			}
		}
		out[i] = widths[best]
	}
	return out
}
