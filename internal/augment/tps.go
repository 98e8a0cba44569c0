package augment

import (
	"math"
	"math/rand"

	"augforge/internal/tensor"
)

// warpGridSize is the side of the control-point lattice. A 3x3 grid
// gives smooth low-frequency deformations on 32x32 inputs.
const warpGridSize = 3

type point struct{ x, y float64 }

// thinPlateSpline maps normalized output coordinates to normalized
// source coordinates through a TPS interpolant fitted to a jittered
// control lattice. Fitting happens once per batch; evaluation is cheap.
type thinPlateSpline struct {
	ctrl []point
	// wx and wy hold len(ctrl) kernel weights followed by the affine
	// terms (a0, ax, ay) for each output axis.
	wx, wy []float64
}

// newThinPlateSpline fits the inverse mapping: control points live on a
// regular lattice in the output image and their jittered positions say
// where each output point samples from in the input.
func newThinPlateSpline(rng *rand.Rand, grid int, scale float64) *thinPlateSpline {
	n := grid * grid
	ctrl := make([]point, 0, n)
	srcX := make([]float64, 0, n)
	srcY := make([]float64, 0, n)
	for gy := 0; gy < grid; gy++ {
		for gx := 0; gx < grid; gx++ {
			p := point{
				x: float64(gx) / float64(grid-1),
				y: float64(gy) / float64(grid-1),
			}
			ctrl = append(ctrl, p)
			srcX = append(srcX, p.x+(rng.Float64()*2-1)*scale)
			srcY = append(srcY, p.y+(rng.Float64()*2-1)*scale)
		}
	}

	s := &thinPlateSpline{ctrl: ctrl}
	s.wx = fitTPS(ctrl, srcX)
	s.wy = fitTPS(ctrl, srcY)
	return s
}

// mapPoint evaluates the fitted spline at normalized (x, y).
func (s *thinPlateSpline) mapPoint(x, y float64) (float64, float64) {
	n := len(s.ctrl)
	sx := s.wx[n] + s.wx[n+1]*x + s.wx[n+2]*y
	sy := s.wy[n] + s.wy[n+1]*x + s.wy[n+2]*y
	for i, c := range s.ctrl {
		u := tpsKernel(sq(x-c.x) + sq(y-c.y))
		sx += s.wx[i] * u
		sy += s.wy[i] * u
	}
	return sx, sy
}

// fitTPS solves the standard TPS system
//
//	| K  P | |w|   |v|
//	| Pᵀ 0 | |a| = |0|
//
// where K holds pairwise kernel values and P rows are (1, x, y).
func fitTPS(ctrl []point, v []float64) []float64 {
	n := len(ctrl)
	dim := n + 3
	a := make([][]float64, dim)
	for i := range a {
		a[i] = make([]float64, dim)
	}
	rhs := make([]float64, dim)

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			a[i][j] = tpsKernel(sq(ctrl[i].x-ctrl[j].x) + sq(ctrl[i].y-ctrl[j].y))
		}
		a[i][n] = 1
		a[i][n+1] = ctrl[i].x
		a[i][n+2] = ctrl[i].y
		a[n][i] = 1
		a[n+1][i] = ctrl[i].x
		a[n+2][i] = ctrl[i].y
		rhs[i] = v[i]
	}
	return solveLinear(a, rhs)
}

// tpsKernel is U(r) = r^2 log r, expressed on the squared radius.
func tpsKernel(r2 float64) float64 {
	if r2 < 1e-12 {
		return 0
	}
	return 0.5 * r2 * math.Log(r2)
}

func sq(v float64) float64 { return v * v }

// solveLinear runs Gaussian elimination with partial pivoting. The TPS
// system is small (n+3 unknowns) and well conditioned for lattice
// control points, so this is sufficient.
func solveLinear(a [][]float64, b []float64) []float64 {
	n := len(b)
	for col := 0; col < n; col++ {
		pivot := col
		for row := col + 1; row < n; row++ {
			if math.Abs(a[row][col]) > math.Abs(a[pivot][col]) {
				pivot = row
			}
		}
		a[col], a[pivot] = a[pivot], a[col]
		b[col], b[pivot] = b[pivot], b[col]

		p := a[col][col]
		if math.Abs(p) < 1e-14 {
			continue
		}
		for row := col + 1; row < n; row++ {
			f := a[row][col] / p
			if f == 0 {
				continue
			}
			for k := col; k < n; k++ {
				a[row][k] -= f * a[col][k]
			}
			b[row] -= f * b[col]
		}
	}

	x := make([]float64, n)
	for row := n - 1; row >= 0; row-- {
		sum := b[row]
		for k := row + 1; k < n; k++ {
			sum -= a[row][k] * x[k]
		}
		if math.Abs(a[row][row]) < 1e-14 {
			x[row] = 0
			continue
		}
		x[row] = sum / a[row][row]
	}
	return x
}

// warp resamples every sample of b through the spline with bilinear
// interpolation and border clamping. The same spline applies batch-wide.
func warp(b *tensor.Batch, s *thinPlateSpline) {
	src := b.Clone()
	for y := 0; y < b.H; y++ {
		for x := 0; x < b.W; x++ {
			u := (float64(x) + 0.5) / float64(b.W)
			v := (float64(y) + 0.5) / float64(b.H)
			su, sv := s.mapPoint(u, v)
			sx := su*float64(b.W) - 0.5
			sy := sv*float64(b.H) - 0.5
			for n := 0; n < b.N; n++ {
				for c := 0; c < b.C; c++ {
					b.Set(n, c, y, x, bilinear(src, n, c, sx, sy))
				}
			}
		}
	}
}

// bilinear samples (x, y) in pixel coordinates, clamping to the border.
func bilinear(b *tensor.Batch, n, c int, x, y float64) float32 {
	x0 := int(math.Floor(x))
	y0 := int(math.Floor(y))
	fx := float32(x - float64(x0))
	fy := float32(y - float64(y0))

	at := func(px, py int) float32 {
		if px < 0 {
			px = 0
		}
		if px >= b.W {
			px = b.W - 1
		}
		if py < 0 {
			py = 0
		}
		if py >= b.H {
			py = b.H - 1
		}
		return b.At(n, c, py, px)
	}

	top := at(x0, y0)*(1-fx) + at(x0+1, y0)*fx
	bottom := at(x0, y0+1)*(1-fx) + at(x0+1, y0+1)*fx
	return top*(1-fy) + bottom*fy
}
