// Package model defines the core domain types shared across the wager engine.
// All balances and stakes are int64 amounts in the smallest currency unit;
// ratios (odds, rates) use shopspring/decimal — never float64 for money.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies a ledger transaction.
type TransactionType string

const (
	TxContribution TransactionType = "contribution"
	TxWager        TransactionType = "wager"
	TxPayout       TransactionType = "payout"
	TxRefund       TransactionType = "refund"
)

// Transaction is an immutable record of one balance change. Amount is
// always the unsigned magnitude; the sign for replay is implied by Type
// (wager debits, everything else credits).
type Transaction struct {
	ID        string          `json:"id"`
	AccountID string          `json:"account_id"`
	Type      TransactionType `json:"type"`
	Amount    int64           `json:"amount"`
	PoolID    string          `json:"pool_id,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Signed returns the amount with the sign the transaction applies to a
// balance: negative for wagers, positive otherwise.
func (t Transaction) Signed() int64 {
	if t.Type == TxWager {
		return -t.Amount
	}
	return t.Amount
}

// Account holds one participant's balance, lifetime stats, and an
// append-only transaction history. Accounts are never deleted.
type Account struct {
	ID            string          `json:"id"`
	Balance       int64           `json:"balance"`
	TotalWagered  int64           `json:"total_wagered"`
	TotalWon      int64           `json:"total_won"`
	TotalLost     int64           `json:"total_lost"`
	CurrentStreak int             `json:"current_streak"`
	BestStreak    int             `json:"best_streak"`
	WinRate       decimal.Decimal `json:"win_rate"` // totalWon / (totalWon + totalLost)
	CreatedAt     time.Time       `json:"created_at"`
	Transactions  []Transaction   `json:"transactions"`
}

// PoolStatus is the pool state machine: open → closed → {resolved | cancelled}.
// No transition ever reopens a pool.
type PoolStatus string

const (
	StatusOpen      PoolStatus = "open"
	StatusClosed    PoolStatus = "closed"
	StatusResolved  PoolStatus = "resolved"
	StatusCancelled PoolStatus = "cancelled"
)

// transitions is the validated transition table. Absent entries are invalid.
var transitions = map[PoolStatus][]PoolStatus{
	StatusOpen:   {StatusClosed},
	StatusClosed: {StatusResolved, StatusCancelled},
}

// CanTransition reports whether the state machine permits from → to.
func (s PoolStatus) CanTransition(to PoolStatus) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether the pool can never change state again.
func (s PoolStatus) Terminal() bool {
	return s == StatusResolved || s == StatusCancelled
}

// Outcome is one named bucket of a pool: the stakes placed on that
// outcome keyed by account, plus the running bucket total.
type Outcome struct {
	ID     string           `json:"id"`
	Stakes map[string]int64 `json:"stakes"`
	Total  int64            `json:"total"`
}

// Bet is an immutable record of one accepted wager. DisplayOdds is the
// pool's proportional odds at placement time — informational only,
// never used for settlement.
type Bet struct {
	ID          string          `json:"id"`
	AccountID   string          `json:"account_id"`
	PoolID      string          `json:"pool_id"`
	OutcomeID   string          `json:"outcome_id"`
	Amount      int64           `json:"amount"`
	DisplayOdds decimal.Decimal `json:"display_odds"`
	Timestamp   time.Time       `json:"timestamp"`
}

// Pool aggregates the stakes for one contest, subdivided by outcome.
// TotalPool always equals the sum of all accepted wager amounts;
// HouseTake is recorded at resolution (rounding remainder included).
type Pool struct {
	ID             string     `json:"id"`
	Outcomes       []Outcome  `json:"outcomes"`
	Status         PoolStatus `json:"status"`
	TotalPool      int64      `json:"total_pool"`
	HouseTake      int64      `json:"house_take,omitempty"`
	WinningOutcome string     `json:"winning_outcome,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	SettledAt      *time.Time `json:"settled_at,omitempty"`
	Bets           []Bet      `json:"bets"`
}

// Outcome returns the bucket with the given id, or nil.
func (p *Pool) Outcome(id string) *Outcome {
	for i := range p.Outcomes {
		if p.Outcomes[i].ID == id {
			return &p.Outcomes[i]
		}
	}
	return nil
}

// SettlementResult summarizes one terminal settlement call.
type SettlementResult struct {
	PoolID         string           `json:"pool_id"`
	Status         PoolStatus       `json:"status"`
	WinningOutcome string           `json:"winning_outcome,omitempty"`
	TotalPool      int64            `json:"total_pool"`
	HouseTake      int64            `json:"house_take"`
	Payouts        map[string]int64 `json:"payouts"` // accountID → amount credited
}

// LeaderboardEntry is a read-only projection row; never written back
// into authoritative state.
type LeaderboardEntry struct {
	Rank       int             `json:"rank"`
	AccountID  string          `json:"account_id"`
	Balance    int64           `json:"balance"`
	WinRate    decimal.Decimal `json:"win_rate"`
	BestStreak int             `json:"best_streak"`
}

// Snapshot is the stable persistence export. Unknown fields are ignored
// on load so older engines can read newer snapshots.
type Snapshot struct {
	Accounts []Account `json:"accounts"`
	Pools    []Pool    `json:"pools"`
	SavedAt  time.Time `json:"saved_at"`
}
