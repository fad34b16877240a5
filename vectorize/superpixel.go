package vectorize

import (
	"image/color"
	"math"
	"sort"
)

// labColor is a CIELAB triple, the clustering space of the region backend.
type labColor struct {
	l, a, b float64
}

// rgbToLab converts an sRGB byte triple to CIELAB (D65 white point).
func rgbToLab(r, g, b uint8) labColor {
	lin := func(c float64) float64 {
		if c <= 0.04045 {
			return c / 12.92
		}
		return math.Pow((c+0.055)/1.055, 2.4)
	}
	rf := lin(float64(r) / 255)
	gf := lin(float64(g) / 255)
	bf := lin(float64(b) / 255)

	x := (0.4124*rf + 0.3576*gf + 0.1805*bf) / 0.95047
	y := 0.2126*rf + 0.7152*gf + 0.0722*bf
	z := (0.0193*rf + 0.1192*gf + 0.9505*bf) / 1.08883

	f := func(t float64) float64 {
		if t > 0.008856 {
			return math.Cbrt(t)
		}
		return 7.787*t + 16.0/116.0
	}
	fx, fy, fz := f(x), f(y), f(z)
	return labColor{
		l: 116*fy - 16,
		a: 500 * (fx - fy),
		b: 200 * (fy - fz),
	}
}

// slicCluster is one SLIC cluster center in combined Lab+spatial space.
type slicCluster struct {
	labColor
	x, y  float64
	count int
}

// superpixelLabels is the dense label grid produced by SLIC. Labels are
// consecutive integers [0,k) after post-filtering.
type superpixelLabels struct {
	w, h   int
	labels []int32
	k      int
}

// slic runs simplified linear iterative clustering: centers seeded on a
// regular grid and nudged off local gradient maxima, pixels reassigned by
// a weighted Lab+spatial distance within a 2S window, centers recomputed
// a fixed number of iterations. Equidistant pixels keep the lower cluster
// index for determinism.
func slic(rb *RasterBuffer, k, iterations int, compactness float64, workers int) *superpixelLabels {
	w, h := rb.Width, rb.Height
	n := w * h
	if k < 1 {
		k = 1
	}
	if k > n {
		k = n
	}

	lab := make([]labColor, n)
	parallelFor(workers, n, func(start, end int) {
		for i := start; i < end; i++ {
			lab[i] = rgbToLab(rb.Pix[i*4], rb.Pix[i*4+1], rb.Pix[i*4+2])
		}
	})

	step := int(math.Sqrt(float64(n)/float64(k)) + 0.5)
	if step < 1 {
		step = 1
	}

	var clusters []slicCluster
	for y := step / 2; y < h; y += step {
		for x := step / 2; x < w; x += step {
			// Perturb the seed to the lowest-gradient pixel in its
			// 3x3 neighborhood so no center starts on an edge.
			bx, by := x, y
			bestGrad := math.Inf(1)
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := clampInt(x+dx, 1, w-2), clampInt(y+dy, 1, h-2)
					gx := float64(rb.Gray[ny*w+nx+1]) - float64(rb.Gray[ny*w+nx-1])
					gy := float64(rb.Gray[(ny+1)*w+nx]) - float64(rb.Gray[(ny-1)*w+nx])
					if g := gx*gx + gy*gy; g < bestGrad {
						bestGrad = g
						bx, by = nx, ny
					}
				}
			}
			c := slicCluster{x: float64(bx), y: float64(by)}
			c.labColor = lab[by*w+bx]
			clusters = append(clusters, c)
		}
	}

	labels := make([]int32, n)
	dists := make([]float64, n)
	invS := compactness / float64(step)

	for it := 0; it < iterations; it++ {
		for i := range dists {
			dists[i] = math.Inf(1)
			labels[i] = -1
		}

		// Pixels are only contested between clusters whose windows
		// overlap; iterating clusters sequentially with the < compare
		// keeps the lower index on exact ties.
		for ci := range clusters {
			c := &clusters[ci]
			x0 := clampInt(int(c.x)-step, 0, w-1)
			x1 := clampInt(int(c.x)+step, 0, w-1)
			y0 := clampInt(int(c.y)-step, 0, h-1)
			y1 := clampInt(int(c.y)+step, 0, h-1)
			for y := y0; y <= y1; y++ {
				for x := x0; x <= x1; x++ {
					i := y*w + x
					p := lab[i]
					dc := math.Sqrt(sq(p.l-c.l) + sq(p.a-c.a) + sq(p.b-c.b))
					ds := math.Sqrt(sq(float64(x)-c.x) + sq(float64(y)-c.y))
					d := dc + ds*invS
					if d < dists[i] {
						dists[i] = d
						labels[i] = int32(ci)
					}
				}
			}
		}

		// Recompute centers.
		for ci := range clusters {
			clusters[ci] = slicCluster{}
		}
		for i, li := range labels {
			if li < 0 {
				continue
			}
			c := &clusters[li]
			c.l += lab[i].l
			c.a += lab[i].a
			c.b += lab[i].b
			c.x += float64(i % w)
			c.y += float64(i / w)
			c.count++
		}
		for ci := range clusters {
			c := &clusters[ci]
			if c.count > 0 {
				inv := 1 / float64(c.count)
				c.l *= inv
				c.a *= inv
				c.b *= inv
				c.x *= inv
				c.y *= inv
			}
		}
	}

	// Claim any pixel outside every search window for its nearest seeded
	// cluster by spatial distance.
	for i, li := range labels {
		if li >= 0 {
			continue
		}
		x, y := float64(i%w), float64(i/w)
		best, bestD := 0, math.Inf(1)
		for ci := range clusters {
			if d := sq(clusters[ci].x-x) + sq(clusters[ci].y-y); d < bestD {
				bestD = d
				best = ci
			}
		}
		labels[i] = int32(best)
	}

	sp := &superpixelLabels{w: w, h: h, labels: labels, k: len(clusters)}
	sp.enforceConnectivity()
	return sp
}

// enforceConnectivity relabels disjoint fragments of each cluster: every
// connected component keeps its own dense label, with fragments below a
// quarter of the expected cell size absorbed by their preceding neighbor.
func (sp *superpixelLabels) enforceConnectivity() {
	w, h := sp.w, sp.h
	n := w * h
	minSize := n / (sp.k * 4)
	if minSize < 1 {
		minSize = 1
	}

	newLabels := make([]int32, n)
	for i := range newLabels {
		newLabels[i] = -1
	}
	next := int32(0)
	var queue []int

	for i := 0; i < n; i++ {
		if newLabels[i] >= 0 {
			continue
		}
		// Flood-fill this component with 4-connectivity.
		old := sp.labels[i]
		queue = append(queue[:0], i)
		newLabels[i] = next
		component := []int{i}
		for len(queue) > 0 {
			j := queue[len(queue)-1]
			queue = queue[:len(queue)-1]
			x, y := j%w, j/w
			for _, d := range [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
				nx, ny := x+d[0], y+d[1]
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				k := ny*w + nx
				if newLabels[k] < 0 && sp.labels[k] == old {
					newLabels[k] = next
					queue = append(queue, k)
					component = append(component, k)
				}
			}
		}

		if len(component) < minSize && i > 0 {
			// Absorb the fragment into the component before it.
			adopt := newLabels[i-1]
			for _, j := range component {
				newLabels[j] = adopt
			}
		} else {
			next++
		}
	}
	sp.labels = newLabels
	sp.k = int(next)
}

// mergeSmallRegions merges every region smaller than minSize pixels into
// its largest adjacent neighbor, then re-densifies labels. The region
// count never increases.
func (sp *superpixelLabels) mergeSmallRegions(minSize int) {
	if minSize <= 1 {
		return
	}
	w, h := sp.w, sp.h

	for {
		sizes := make([]int, sp.k)
		for _, l := range sp.labels {
			sizes[l]++
		}

		smallest := -1
		for l, s := range sizes {
			if s < minSize && (smallest < 0 || s < sizes[smallest]) {
				smallest = l
			}
		}
		if smallest < 0 {
			break
		}

		// Find the largest neighbor along the region border.
		neighborSize := make(map[int32]int)
		for i, l := range sp.labels {
			if int(l) != smallest {
				continue
			}
			x, y := i%w, i/w
			for _, d := range [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
				nx, ny := x+d[0], y+d[1]
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				nl := sp.labels[ny*w+nx]
				if int(nl) != smallest {
					neighborSize[nl] = sizes[nl]
				}
			}
		}
		if len(neighborSize) == 0 {
			break // the whole image is one undersized region
		}
		var target int32 = -1
		for nl, s := range neighborSize {
			if target < 0 || s > neighborSize[target] || (s == neighborSize[target] && nl < target) {
				target = nl
			}
		}

		for i, l := range sp.labels {
			if int(l) == smallest {
				sp.labels[i] = target
			}
		}
		sp.relabelDense()
	}
}

// relabelDense compacts labels to consecutive integers [0,k).
func (sp *superpixelLabels) relabelDense() {
	remap := make(map[int32]int32)
	var next int32
	for i, l := range sp.labels {
		nl, ok := remap[l]
		if !ok {
			nl = next
			remap[l] = nl
			next++
		}
		sp.labels[i] = nl
	}
	sp.k = int(next)
}

// regionMeanColors averages the source color over each region.
func (sp *superpixelLabels) regionMeanColors(rb *RasterBuffer) []color.NRGBA {
	type acc struct{ r, g, b, n uint64 }
	accs := make([]acc, sp.k)
	for i, l := range sp.labels {
		a := &accs[l]
		a.r += uint64(rb.Pix[i*4])
		a.g += uint64(rb.Pix[i*4+1])
		a.b += uint64(rb.Pix[i*4+2])
		a.n++
	}
	colors := make([]color.NRGBA, sp.k)
	for l, a := range accs {
		if a.n == 0 {
			colors[l] = color.NRGBA{A: 255}
			continue
		}
		colors[l] = color.NRGBA{
			R: uint8(a.r / a.n),
			G: uint8(a.g / a.n),
			B: uint8(a.b / a.n),
			A: 255,
		}
	}
	return colors
}

// regionBoundary traces the outer contour of one region with the Moore
// neighbor algorithm, returning a closed polyline in pixel coordinates.
func (sp *superpixelLabels) regionBoundary(label int32) Polyline {
	w, h := sp.w, sp.h
	in := func(x, y int) bool {
		return x >= 0 && y >= 0 && x < w && y < h && sp.labels[y*w+x] == label
	}

	// Topmost-leftmost region pixel is the deterministic start.
	startX, startY := -1, -1
	for i, l := range sp.labels {
		if l == label {
			startX, startY = i%w, i/w
			break
		}
	}
	if startX < 0 {
		return Polyline{}
	}

	// Moore neighborhood, clockwise from west.
	dirs := [8][2]int{{-1, 0}, {-1, -1}, {0, -1}, {1, -1}, {1, 0}, {1, 1}, {0, 1}, {-1, 1}}

	pts := []Point{{float64(startX), float64(startY)}}
	cx, cy := startX, startY
	// Backtrack starts pointing west (came from outside the scan).
	back := 0
	for {
		found := false
		for s := 1; s <= 8; s++ {
			d := (back + s) % 8
			nx, ny := cx+dirs[d][0], cy+dirs[d][1]
			if in(nx, ny) {
				// The new backtrack points at the pixel we came from,
				// so the clockwise scan resumes just past it.
				back = (d + 4) % 8
				cx, cy = nx, ny
				found = true
				break
			}
		}
		if !found {
			break // single-pixel region
		}
		if cx == startX && cy == startY {
			break
		}
		pts = append(pts, Point{float64(cx), float64(cy)})
		if len(pts) > 4*(w+h)+8 {
			break // safety bound against pathological contours
		}
	}

	return Polyline{Points: pts, Closed: true, Region: int(label)}
}

// traceSuperpixel runs the region backend and emits filled and/or stroked
// primitives directly; its geometry skips the shared polyline pipeline
// except for optional boundary simplification.
func traceSuperpixel(rb *RasterBuffer, cfg *Config, th Thresholds) []PathPrimitive {
	sp := cfg.Superpixel
	workers := cfg.Performance.ThreadCount

	k := sp.NumSuperpixels
	if k == 0 {
		k = SuperpixelCountForDetail(cfg.Detail)
	}

	labels := slic(rb, k, sp.Iterations, sp.Compactness, workers)
	if sp.MinRegionSize > 0 {
		labels.mergeSmallRegions(sp.MinRegionSize)
	}

	colors := labels.regionMeanColors(rb)

	boundaries := make([]Polyline, labels.k)
	eps := sp.BoundaryEpsilon
	if eps <= 0 {
		eps = th.DPEpsilon
	}
	for i := 0; i < labels.k; i++ {
		pl := labels.regionBoundary(int32(i))
		if sp.SimplifyBoundaries && len(pl.Points) >= 4 {
			pl = SimplifyPolyline(pl, eps)
		}
		boundaries[i] = pl
	}

	var prims []PathPrimitive
	// Paint order: all fills first, then strokes on top.
	if sp.FillRegions {
		for i, pl := range boundaries {
			if len(pl.Points) < 3 {
				continue
			}
			prims = append(prims, PathPrimitive{
				Kind:    KindFill,
				Line:    pl,
				Color:   colors[i],
				Opacity: 1,
			})
		}
	}
	if sp.StrokeRegions {
		strokeColor := color.NRGBA{A: 255}
		for _, pl := range boundaries {
			if len(pl.Points) < 3 {
				continue
			}
			prims = append(prims, PathPrimitive{
				Kind:    KindStroke,
				Line:    pl,
				Width:   cfg.StrokeWidth,
				Color:   strokeColor,
				Opacity: 1,
			})
		}
	}

	// Deterministic paint order inside each group: by region id.
	sort.SliceStable(prims, func(i, j int) bool {
		if prims[i].Kind != prims[j].Kind {
			return prims[i].Kind == KindFill
		}
		return prims[i].Line.Region < prims[j].Line.Region
	})
	return prims
}
