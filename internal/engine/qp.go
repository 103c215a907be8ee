package engine

import (
	"math"
)

// =============================================================================
// Quadratic Programming (projected gradient)
// =============================================================================
// Minimizes f(w) = wᵀ Σ w - λ cᵀw over the capped simplex
// { w : Σw = 1, 0 <= w_i <= cap }. The feasible set is the intersection of
// the probability simplex with a box, and projection onto it reduces to a
// one-dimensional root find, so projected gradient descent converges without
// any external solver.

const (
	qpMaxIterations = 5000
	qpTolerance     = 1e-12
)

// solveQP minimizes wᵀ Σ w - λ·linᵀw subject to Σw = 1, 0 <= w <= cap.
// lin may be nil (pure minimum-variance). sigma is n × n, assumed symmetric
// PSD. Returns the optimal weights as a plain slice aligned to sigma's order.
func solveQP(sigma [][]float64, lin []float64, lambda float64, cap float64) []float64 {
	n := len(sigma)

	// Lipschitz constant of the gradient: 2·||Σ||∞ bounds 2·λmax(Σ)
	var norm float64
	for i := 0; i < n; i++ {
		var row float64
		for j := 0; j < n; j++ {
			row += math.Abs(sigma[i][j])
		}
		if row > norm {
			norm = row
		}
	}
	step := 1.0
	if norm > 0 {
		step = 1.0 / (2.0 * norm)
	}

	// Start from the equal-weight portfolio projected into the feasible set
	w := make([]float64, n)
	for i := range w {
		w[i] = 1.0 / float64(n)
	}
	w = projectCappedSimplex(w, cap)

	grad := make([]float64, n)
	next := make([]float64, n)
	for iter := 0; iter < qpMaxIterations; iter++ {
		// ∇f = 2Σw - λ·lin
		for i := 0; i < n; i++ {
			var g float64
			for j := 0; j < n; j++ {
				g += sigma[i][j] * w[j]
			}
			g *= 2
			if lin != nil {
				g -= lambda * lin[i]
			}
			grad[i] = g
		}

		for i := 0; i < n; i++ {
			next[i] = w[i] - step*grad[i]
		}
		next = projectCappedSimplex(next, cap)

		var delta float64
		for i := 0; i < n; i++ {
			if d := math.Abs(next[i] - w[i]); d > delta {
				delta = d
			}
		}
		copy(w, next)
		if delta < qpTolerance {
			break
		}
	}

	return w
}

// projectCappedSimplex returns the Euclidean projection of v onto
// { w : Σw = 1, 0 <= w_i <= cap }. The projection has the form
// w_i = clamp(v_i - τ, 0, cap) where g(τ) = Σ clamp(v_i - τ, 0, cap) is
// non-increasing in τ, so τ is found by bisection.
// Requires cap·n >= 1 (the set is empty otherwise).
func projectCappedSimplex(v []float64, cap float64) []float64 {
	n := len(v)
	lo, hi := v[0], v[0]
	for _, x := range v {
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
	}
	// g(lo - cap - 1) = n·cap >= 1, g(hi) = 0 <= 1
	lo = lo - cap - 1

	mass := func(tau float64) float64 {
		var sum float64
		for _, x := range v {
			w := x - tau
			if w < 0 {
				w = 0
			} else if w > cap {
				w = cap
			}
			sum += w
		}
		return sum
	}

	for iter := 0; iter < 100; iter++ {
		mid := (lo + hi) / 2
		if mass(mid) > 1 {
			lo = mid
		} else {
			hi = mid
		}
	}

	tau := (lo + hi) / 2
	out := make([]float64, n)
	var sum float64
	for i, x := range v {
		w := x - tau
		if w < 0 {
			w = 0
		} else if w > cap {
			w = cap
		}
		out[i] = w
		sum += w
	}
	// Absorb residual bisection error into the interior coordinates
	if sum > 0 && math.Abs(sum-1) > 1e-15 {
		for i := range out {
			out[i] /= sum
		}
	}
	return out
}

// portfolioVariance computes wᵀ Σ w
func portfolioVariance(sigma [][]float64, w []float64) float64 {
	var total float64
	for i := range w {
		var row float64
		for j := range w {
			row += sigma[i][j] * w[j]
		}
		total += w[i] * row
	}
	return total
}

// dot computes aᵀb
func dot(a, b []float64) float64 {
	var total float64
	for i := range a {
		total += a[i] * b[i]
	}
	return total
}
