package engine

import (
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sync"
)

// =============================================================================
// Monte Carlo Frontier Sampler
// =============================================================================

// samples are generated in fixed-size chunks so the output is deterministic
// for a given seed regardless of how many workers run.
const samplerChunkSize = 512

// Sampler draws random feasible portfolios and evaluates their
// (return, volatility, sharpe) to visualize the attainable region around
// the efficient frontier.
type Sampler struct {
	workers int
}

// NewSampler creates a frontier sampler spreading work across the
// available CPUs.
func NewSampler() *Sampler {
	return &Sampler{workers: runtime.GOMAXPROCS(0)}
}

// Simulate draws n random portfolios. Weights come from normalized Exp(1)
// draws (uniform on the simplex in direction); when a cap is active, weights
// are clipped to the cap and renormalized until feasible. Each chunk derives
// its own rand.Rand from the seed, so results are reproducible.
//
// Sharpe here is return/volatility (no risk-free adjustment), matching the
// scatter convention.
func (s *Sampler) Simulate(mu ReturnVector, sigma *CovarianceMatrix, n int,
	constraints Constraints, seed int64) ([]SimulatedPortfolio, error) {

	dim := sigma.Dim()
	if dim < 2 {
		return nil, fmt.Errorf("%w: need at least 2 assets, got %d", ErrInfeasibleConstraint, dim)
	}
	cap := constraints.MaxWeight
	if cap <= 0 || cap > 1 {
		return nil, fmt.Errorf("%w: max_weight %v outside (0, 1]", ErrInfeasibleConstraint, cap)
	}
	if cap*float64(dim) < 1-1e-12 {
		return nil, fmt.Errorf("%w: max_weight %v cannot sum to 1 across %d assets", ErrInfeasibleConstraint, cap, dim)
	}
	if n <= 0 {
		return nil, fmt.Errorf("sample count must be positive, got %d", n)
	}

	muVec := make([]float64, dim)
	for i, ticker := range sigma.Tickers {
		muVec[i] = mu[ticker]
	}

	out := make([]SimulatedPortfolio, n)
	chunks := (n + samplerChunkSize - 1) / samplerChunkSize

	var wg sync.WaitGroup
	sem := make(chan struct{}, s.workers)
	for c := 0; c < chunks; c++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(chunk int) {
			defer wg.Done()
			defer func() { <-sem }()

			rng := rand.New(rand.NewSource(seed + int64(chunk)))
			start := chunk * samplerChunkSize
			end := start + samplerChunkSize
			if end > n {
				end = n
			}
			w := make([]float64, dim)
			for i := start; i < end; i++ {
				drawWeights(rng, w, cap)
				out[i] = evaluate(muVec, sigma.Data, w)
			}
		}(c)
	}
	wg.Wait()

	return out, nil
}

// drawWeights fills w with a random feasible portfolio: Exp(1) draws
// normalized to the simplex, then clipped to the cap and renormalized.
// A handful of clip-renormalize passes always lands inside the feasible
// set when cap·n >= 1.
func drawWeights(rng *rand.Rand, w []float64, cap float64) {
	var sum float64
	for i := range w {
		w[i] = rng.ExpFloat64()
		sum += w[i]
	}
	for i := range w {
		w[i] /= sum
	}

	for pass := 0; pass < 16; pass++ {
		var excess, headroom float64
		for _, v := range w {
			if v > cap {
				excess += v - cap
			} else {
				headroom += cap - v
			}
		}
		if excess < 1e-12 {
			return
		}
		// Clip and redistribute the excess proportionally to remaining headroom
		for i := range w {
			if w[i] > cap {
				w[i] = cap
			} else if headroom > 0 {
				w[i] += excess * (cap - w[i]) / headroom
			}
		}
	}
}

func evaluate(mu []float64, sigma [][]float64, w []float64) SimulatedPortfolio {
	ret := dot(mu, w)
	vol := math.Sqrt(portfolioVariance(sigma, w))
	var sharpe float64
	if vol > 0 {
		sharpe = ret / vol
	}
	return SimulatedPortfolio{Return: ret, Volatility: vol, Sharpe: sharpe}
}
