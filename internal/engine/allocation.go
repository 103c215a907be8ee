package engine

import (
	"fmt"
	"math"
)

// =============================================================================
// Dollar Allocation
// =============================================================================

// Allocate converts portfolio weights into dollar amounts for a given
// investment, rounded to cents. Zero-weight tickers are omitted.
func Allocate(weights WeightVector, amount float64) (map[string]float64, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("investment amount must be positive, got %v", amount)
	}

	out := make(map[string]float64, len(weights))
	for ticker, w := range weights {
		if w <= 0 {
			continue
		}
		out[ticker] = math.Round(w*amount*100) / 100
	}
	return out, nil
}
