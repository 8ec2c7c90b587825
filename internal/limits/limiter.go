// Package limits enforces per-wager stake bounds and per-pool exposure
// caps for the wager engine.
//
// A single oversized wager distorts pari-mutuel odds for everyone else
// in the pool, and an account stacking many wagers into one contest
// carries concentrated risk. This package validates both before a wager
// is accepted into a pool.
package limits

import "errors"

var (
	// ErrBelowMinimum is returned when a wager is smaller than the
	// configured minimum stake.
	ErrBelowMinimum = errors.New("limits: wager below minimum stake")

	// ErrAboveMaximum is returned when a wager exceeds the configured
	// maximum stake.
	ErrAboveMaximum = errors.New("limits: wager above maximum stake")

	// ErrExposureExceeded is returned when a wager would push an
	// account's total stake in one pool beyond the exposure cap.
	ErrExposureExceeded = errors.New("limits: pool exposure limit exceeded")
)

// WagerLimiter validates wager amounts against configured bounds.
type WagerLimiter struct {
	// MinWager is the smallest acceptable single wager.
	MinWager int64

	// MaxWager is the largest acceptable single wager.
	MaxWager int64

	// MaxPoolExposure caps an account's cumulative stake across all
	// outcomes of a single pool. Zero disables the cap.
	MaxPoolExposure int64
}

// NewWagerLimiter creates a limiter with the given bounds.
func NewWagerLimiter(minWager, maxWager, maxPoolExposure int64) *WagerLimiter {
	if minWager < 1 {
		minWager = 1
	}
	return &WagerLimiter{
		MinWager:        minWager,
		MaxWager:        maxWager,
		MaxPoolExposure: maxPoolExposure,
	}
}

// Check validates whether a wager respects the configured limits.
//
// Parameters:
//   - amount: the stake of the wager being placed
//   - existingPoolStake: the account's current total stake in the target
//     pool, summed across every outcome bucket
//
// Returns nil if the wager is within limits, or an error describing the
// violation.
func (l *WagerLimiter) Check(amount, existingPoolStake int64) error {
	if amount < l.MinWager {
		return ErrBelowMinimum
	}
	if l.MaxWager > 0 && amount > l.MaxWager {
		return ErrAboveMaximum
	}
	if l.MaxPoolExposure > 0 && existingPoolStake+amount > l.MaxPoolExposure {
		return ErrExposureExceeded
	}
	return nil
}
