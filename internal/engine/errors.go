package engine

import (
	"errors"
	"fmt"
)

// =============================================================================
// Error Taxonomy
// =============================================================================
// Callers classify failures with errors.Is; the API layer maps each class to
// an HTTP status.

var (
	// ErrEstimation: statistical estimation failed (degenerate inputs,
	// zero-variance market, too few observations for a beta).
	ErrEstimation = errors.New("estimation failed")

	// ErrNumerical: linear algebra broke down (non-PSD covariance,
	// eigendecomposition failure, NaN propagation).
	ErrNumerical = errors.New("numerical failure")

	// ErrInfeasibleConstraint: the constraint set admits no valid portfolio
	// (e.g. max_weight * num_assets < 1).
	ErrInfeasibleConstraint = errors.New("infeasible constraints")

	// ErrInfeasibleTarget: the requested target volatility lies below the
	// minimum-volatility floor of the frontier. A specialization of
	// ErrInfeasibleConstraint so both match under errors.Is.
	ErrInfeasibleTarget = fmt.Errorf("%w: target volatility below minimum attainable", ErrInfeasibleConstraint)

	// ErrInsufficientHistory: fewer than 2 return observations
	ErrInsufficientHistory = errors.New("insufficient price history")
)
