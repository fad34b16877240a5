package vectorize

import "math"

// flowField is an edge tangent flow field: a smoothed per-pixel tangent
// direction plus a coherency measure (0 incoherent texture, 1 coherent
// structure).
type flowField struct {
	w, h      int
	tx, ty    []float32
	coherency []float32
}

func (f *flowField) tangentAt(x, y float64) (float64, float64) {
	xi, yi := int(x), int(y)
	if xi < 0 || yi < 0 || xi >= f.w || yi >= f.h {
		return 0, 0
	}
	i := yi*f.w + xi
	return float64(f.tx[i]), float64(f.ty[i])
}

func (f *flowField) coherencyAt(x, y float64) float64 {
	xi, yi := int(x), int(y)
	if xi < 0 || yi < 0 || xi >= f.w || yi >= f.h {
		return 0
	}
	return float64(f.coherency[yi*f.w+xi])
}

// computeETF builds the edge tangent flow field from the gradient field:
// initial tangents perpendicular to the gradient, coherency from the
// smoothed structure tensor, then iterative radius-weighted neighborhood
// averaging that aligns tangents along coherent structures.
func computeETF(field *edgeField, radius, iters int, tau float64, workers int) *flowField {
	w, h := field.w, field.h
	f := &flowField{
		w: w, h: h,
		tx:        make([]float32, w*h),
		ty:        make([]float32, w*h),
		coherency: make([]float32, w*h),
	}

	// Structure tensor, box-smoothed over a 3x3 window.
	parallelFor(workers, h, func(startRow, endRow int) {
		for y := startRow; y < endRow; y++ {
			for x := 0; x < w; x++ {
				var jxx, jxy, jyy float64
				for dy := -1; dy <= 1; dy++ {
					for dx := -1; dx <= 1; dx++ {
						nx, ny := clampInt(x+dx, 0, w-1), clampInt(y+dy, 0, h-1)
						gx := float64(field.gx[ny*w+nx])
						gy := float64(field.gy[ny*w+nx])
						jxx += gx * gx
						jxy += gx * gy
						jyy += gy * gy
					}
				}
				// Eigenvalues of the 2x2 tensor.
				tr := jxx + jyy
				d := math.Sqrt(sq(jxx-jyy) + 4*sq(jxy))
				l1 := (tr + d) / 2
				l2 := (tr - d) / 2

				i := y*w + x
				if l1+l2 > 1e-12 {
					f.coherency[i] = float32((l1 - l2) / (l1 + l2))
				}

				// Initial tangent: perpendicular to the gradient.
				gx := float64(field.gx[i])
				gy := float64(field.gy[i])
				n := math.Hypot(gx, gy)
				if n > 1e-12 {
					f.tx[i] = float32(-gy / n)
					f.ty[i] = float32(gx / n)
				}
			}
		}
	})

	// Iterative refinement: each tangent becomes the magnitude- and
	// alignment-weighted average of its neighborhood, flipping neighbors
	// that point backwards so anti-parallel tangents reinforce.
	for it := 0; it < iters; it++ {
		ntx := make([]float32, w*h)
		nty := make([]float32, w*h)
		parallelFor(workers, h, func(startRow, endRow int) {
			for y := startRow; y < endRow; y++ {
				for x := 0; x < w; x++ {
					i := y*w + x
					cx, cy := float64(f.tx[i]), float64(f.ty[i])
					cm := float64(field.mag[i])
					var sx, sy float64
					for dy := -radius; dy <= radius; dy++ {
						for dx := -radius; dx <= radius; dx++ {
							nx, ny := x+dx, y+dy
							if nx < 0 || ny < 0 || nx >= w || ny >= h {
								continue
							}
							j := ny*w + nx
							txj, tyj := float64(f.tx[j]), float64(f.ty[j])
							dot := cx*txj + cy*tyj
							sign := 1.0
							if dot < 0 {
								sign = -1.0
								dot = -dot
							}
							// Magnitude weight favors stronger edges.
							wm := (float64(field.mag[j]) - cm + 1) / 2
							wgt := wm * dot
							sx += txj * sign * wgt
							sy += tyj * sign * wgt
						}
					}
					n := math.Hypot(sx, sy)
					if n > 1e-12 {
						ntx[i] = float32(sx / n)
						nty[i] = float32(sy / n)
					} else {
						ntx[i] = f.tx[i]
						nty[i] = f.ty[i]
					}
				}
			}
		})
		f.tx, f.ty = ntx, nty
	}

	// Suppress incoherent texture below tau so tracing never follows it.
	for i := range f.coherency {
		if float64(f.coherency[i]) < tau {
			f.coherency[i] *= f.coherency[i] // soft rolloff
		}
	}
	return f
}

// fdogResponse computes a flow-based difference-of-Gaussians edge response:
// a DoG across the flow normal at each pixel, then averaged along the
// tangent streamline. The result is a binary edge map thresholded by tau.
func fdogResponse(rb *RasterBuffer, flow *flowField, sigmaS, sigmaC, tau float64, workers int) []bool {
	w, h := flow.w, flow.h
	dog := make([]float32, w*h)

	halfT := int(math.Ceil(sigmaC * 2))
	parallelFor(workers, h, func(startRow, endRow int) {
		for y := startRow; y < endRow; y++ {
			for x := 0; x < w; x++ {
				i := y*w + x
				nx, ny := -float64(flow.ty[i]), float64(flow.tx[i]) // flow normal
				var sumS, sumC, wS, wC float64
				for t := -halfT; t <= halfT; t++ {
					sx := float64(x) + nx*float64(t)
					sy := float64(y) + ny*float64(t)
					v := float64(rb.GrayAt(int(sx+0.5), int(sy+0.5)))
					gS := gauss(float64(t), sigmaS)
					gC := gauss(float64(t), sigmaC)
					sumS += v * gS
					sumC += v * gC
					wS += gS
					wC += gC
				}
				if wS > 0 && wC > 0 {
					dog[i] = float32(sumS/wS - 0.99*sumC/wC)
				}
			}
		}
	})

	// Average along the streamline to suppress isolated responses.
	const steps = 3
	edges := make([]bool, w*h)
	parallelFor(workers, h, func(startRow, endRow int) {
		for y := startRow; y < endRow; y++ {
			for x := 0; x < w; x++ {
				i := y*w + x
				var sum float64
				var count int
				for dir := -1.0; dir <= 1.0; dir += 2 {
					px, py := float64(x), float64(y)
					for s := 0; s < steps; s++ {
						tx, ty := flow.tangentAt(px, py)
						px += tx * dir
						py += ty * dir
						xi, yi := int(px+0.5), int(py+0.5)
						if xi < 0 || yi < 0 || xi >= w || yi >= h {
							break
						}
						sum += float64(dog[yi*w+xi])
						count++
					}
				}
				v := float64(dog[i])
				if count > 0 {
					v = (v + sum) / float64(count+1)
				}
				// Negative DoG valleys mark dark lines; tanh soft
				// threshold as in FDoG.
				if v < 0 && 1+math.Tanh(v*40) < tau {
					edges[i] = true
				}
			}
		}
	})
	return edges
}

// traceFlowGuided follows flow lines through the tangent field instead of
// linking raw edge pixels. Returns nil when the field is degenerate so the
// caller can fall back to standard linking.
func traceFlowGuided(rb *RasterBuffer, field *edgeField, cfg *Config, th Thresholds) []Polyline {
	e := cfg.Edge
	workers := cfg.Performance.ThreadCount

	iters := e.ETFIterations
	if budget := cfg.Performance.MaxProcessingTimeMs; budget > 0 && budget < 500 && iters > 2 {
		iters = 2
	}
	flow := computeETF(field, e.ETFRadius, iters, e.ETFCoherencyTau, workers)

	// Degenerate field: nothing coherent to follow.
	var cohSum float64
	for _, c := range flow.coherency {
		cohSum += float64(c)
	}
	if cohSum/float64(len(flow.coherency)) < 1e-4 {
		return nil
	}

	var seeds []bool
	if e.EnableETFFDoG {
		seeds = fdogResponse(rb, flow, e.FDoGSigmaS, e.FDoGSigmaC, e.FDoGTau, workers)
	} else {
		nms := nonMaxSuppress(field, workers)
		seeds = hysteresis(nms, field.w, field.h, th.EdgeHigh, th.EdgeLow)
	}

	// Non-nil even when nothing traces: only a degenerate field returns
	// nil, so the caller falls back on field quality, not on yield.
	covered := make([]bool, field.w*field.h)
	lines := []Polyline{}
	for i, isSeed := range seeds {
		if !isSeed || covered[i] {
			continue
		}
		x, y := i%field.w, i/field.w
		pl := followFlow(Point{float64(x), float64(y)}, field, flow, covered, e)
		if len(pl) >= 2 {
			lines = append(lines, Polyline{Points: pl, Region: -1})
		}
	}
	return lines
}

// followFlow traces a single flow line in both directions from the seed,
// subject to the minimum-gradient, minimum-coherency, maximum-gap and
// maximum-length limits.
func followFlow(seed Point, field *edgeField, flow *flowField, covered []bool, e *EdgeConfig) []Point {
	forward := followFlowDirection(seed, 1, field, flow, covered, e)
	backward := followFlowDirection(seed, -1, field, flow, covered, e)

	for i, j := 0, len(backward)-1; i < j; i, j = i+1, j-1 {
		backward[i], backward[j] = backward[j], backward[i]
	}
	if len(backward) > 0 {
		backward = backward[:len(backward)-1] // seed appears in both halves
	}
	return append(backward, forward...)
}

func followFlowDirection(seed Point, dir float64, field *edgeField, flow *flowField, covered []bool, e *EdgeConfig) []Point {
	const step = 0.75
	pts := []Point{seed}
	pos := seed
	prevTx, prevTy := 0.0, 0.0
	gap := 0

	for len(pts) < e.TraceMaxLength {
		tx, ty := flow.tangentAt(pos.X, pos.Y)
		if tx == 0 && ty == 0 {
			break
		}
		// Keep heading consistent with the previous step; the ETF field
		// is orientation-ambiguous.
		if prevTx*tx+prevTy*ty < 0 {
			tx, ty = -tx, -ty
		}
		next := Point{pos.X + tx*step*dir, pos.Y + ty*step*dir}
		xi, yi := int(next.X+0.5), int(next.Y+0.5)
		if xi < 0 || yi < 0 || xi >= field.w || yi >= field.h {
			break
		}
		i := yi*field.w + xi

		weak := float64(field.mag[i]) < e.TraceMinGradient ||
			flow.coherencyAt(next.X, next.Y) < e.TraceMinCoherency
		if weak {
			gap++
			if gap > e.TraceMaxGap {
				break
			}
		} else {
			gap = 0
		}

		covered[i] = true
		pts = append(pts, next)
		prevTx, prevTy = tx, ty
		pos = next
	}
	return pts
}

func gauss(x, sigma float64) float64 {
	return math.Exp(-(x * x) / (2 * sigma * sigma))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
