// Package progress holds the goal progress derivation shared by the API
// and any client that mirrors goal state optimistically.
package progress

import (
	"errors"
	"math"
)

// ErrInvalidTarget is returned when target is not a positive number.
// Request validation rejects such targets, so seeing it means a record
// reached the computation through an internal path.
var ErrInvalidTarget = errors.New("goal target must be greater than zero")

// Complete is the progress percentage at which a goal counts as completed.
const Complete = 100.0

type Result struct {
	Progress  float64 `json:"progress"`
	Completed bool    `json:"completed"`
}

// Compute returns min(current/target*100, 100) and whether that reached 100.
// For a non-positive target it returns a zero Result and ErrInvalidTarget.
func Compute(current, target float64) (Result, error) {
	if target <= 0 || math.IsNaN(target) {
		return Result{}, ErrInvalidTarget
	}

	p := math.Min((current/target)*100, Complete)
	return Result{
		Progress:  p,
		Completed: p >= Complete,
	}, nil
}
