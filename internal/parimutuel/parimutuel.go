// Package parimutuel implements the proportional-share settlement math
// for pari-mutuel wagering pools.
//
// In a pari-mutuel scheme winners split the shared pool proportionally
// to their stake, rather than at fixed pre-agreed odds:
//   - houseTake = floor(totalPool × houseEdgeRate)
//   - distributable = totalPool − houseTake
//   - payout(w) = floor(distributable × stake(w) / winningBucketTotal)
//
// Floor division leaves a residual remainder; it accrues to the house,
// never to a participant, and is reported explicitly for auditability.
//
// All stakes and payouts are int64 amounts in the smallest currency
// unit. Odds and rates use shopspring/decimal — never float64 for money.
// The package is stateless: pool quantities are passed as arguments.
package parimutuel

import (
	"errors"
	"math/big"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidEdge is returned when the house edge rate is outside [0, 1).
	ErrInvalidEdge = errors.New("parimutuel: house edge rate must be in [0, 1)")
)

// OddsScale is the number of decimal places displayed odds are rounded to.
const OddsScale int32 = 2

// Odds returns the proportional odds of a bucket: poolTotal / bucketTotal,
// rounded to OddsScale places. It is a pure function of current totals and
// carries no guarantee across subsequent wagers — display only, never an
// input to settlement.
func Odds(poolTotal, bucketTotal int64) decimal.Decimal {
	if bucketTotal <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(poolTotal).
		DivRound(decimal.NewFromInt(bucketTotal), OddsScale)
}

// HouseTake returns floor(totalPool × edge). Edge must be in [0, 1).
func HouseTake(totalPool int64, edge decimal.Decimal) (int64, error) {
	if edge.IsNegative() || edge.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return 0, ErrInvalidEdge
	}
	return decimal.NewFromInt(totalPool).Mul(edge).Floor().IntPart(), nil
}

// Split divides distributable across the winning stakes proportionally,
// flooring each share. The returned remainder is the dust the floors
// left behind (distributable − Σ payouts).
//
// An empty winning bucket yields no payouts and the full distributable
// as remainder.
func Split(distributable int64, stakes map[string]int64, bucketTotal int64) (map[string]int64, int64) {
	payouts := make(map[string]int64, len(stakes))
	if bucketTotal <= 0 || distributable <= 0 {
		return payouts, distributable
	}

	var paid int64
	dist := big.NewInt(distributable)
	total := big.NewInt(bucketTotal)
	for id, stake := range stakes {
		if stake <= 0 {
			continue
		}
		// floor(distributable × stake / bucketTotal) in big.Int to
		// avoid int64 overflow on the intermediate product.
		share := new(big.Int).Mul(dist, big.NewInt(stake))
		share.Quo(share, total)
		p := share.Int64()
		payouts[id] = p
		paid += p
	}
	return payouts, distributable - paid
}

// WinRate returns totalWon / (totalWon + totalLost) rounded to four
// places, or zero when there is no settled history.
func WinRate(totalWon, totalLost int64) decimal.Decimal {
	denom := totalWon + totalLost
	if denom <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(totalWon).
		DivRound(decimal.NewFromInt(denom), 4)
}
