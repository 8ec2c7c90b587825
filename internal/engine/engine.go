// Package engine implements the wagering ledger and settlement engine:
// participant balances with an append-only transaction history,
// pari-mutuel pools keyed to a contest, and the settlement that resolves
// a closed pool into payouts or refunds.
//
// Authoritative state is in-memory, guarded by per-account and per-pool
// exclusive sections with a bounded wait. Lock order is fixed: account
// before pool on the wager path; settlement takes the pool first, then
// participant accounts in lexicographic id order. Every operation either
// applies fully or leaves no observable side effect.
//
// Balances and stakes are int64 in the smallest currency unit; odds and
// rates use shopspring/decimal — never float64 for money.
package engine

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ringside/wager-engine/internal/limits"
	"github.com/ringside/wager-engine/internal/model"
)

// Config holds the engine's economic and concurrency parameters.
type Config struct {
	// StartingBalance is granted to every account on creation,
	// recorded as a contribution transaction.
	StartingBalance int64

	// HouseEdgeRate is the fraction of a resolved pool retained by the
	// house before winners split the remainder. Must be in [0, 1).
	HouseEdgeRate decimal.Decimal

	// MinWager / MaxWager bound a single stake. MaxWager 0 disables
	// the upper bound.
	MinWager int64
	MaxWager int64

	// MaxPoolExposure caps an account's cumulative stake in one pool.
	// Zero disables the cap.
	MaxPoolExposure int64

	// LockWait bounds how long any operation waits for an exclusive
	// section before failing with ErrContendedResource.
	LockWait time.Duration
}

// DefaultConfig returns the engine defaults used when no configuration
// is supplied.
func DefaultConfig() Config {
	return Config{
		StartingBalance: 1000,
		HouseEdgeRate:   decimal.NewFromFloat(0.02),
		MinWager:        1,
		MaxWager:        0,
		MaxPoolExposure: 0,
		LockWait:        250 * time.Millisecond,
	}
}

// account pairs the ledger record with its exclusive section.
type account struct {
	lk   *slot
	data model.Account
}

// pool pairs the pool record with its exclusive section.
type pool struct {
	lk   *slot
	data model.Pool
}

// Engine owns all accounts and pools. The table mutex guards map
// membership only; entity state is guarded by the per-entity slots.
type Engine struct {
	cfg     Config
	limiter *limits.WagerLimiter

	mu       sync.RWMutex
	accounts map[string]*account
	pools    map[string]*pool
}

// New creates an engine with the given configuration.
func New(cfg Config) *Engine {
	if cfg.LockWait <= 0 {
		cfg.LockWait = DefaultConfig().LockWait
	}
	return &Engine{
		cfg:      cfg,
		limiter:  limits.NewWagerLimiter(cfg.MinWager, cfg.MaxWager, cfg.MaxPoolExposure),
		accounts: make(map[string]*account),
		pools:    make(map[string]*pool),
	}
}

// lookupAccount returns the live account entry, if present.
func (e *Engine) lookupAccount(id string) (*account, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	a, ok := e.accounts[id]
	return a, ok
}

// getOrCreateAccount returns the live account entry, creating it with
// the configured starting balance on first reference.
func (e *Engine) getOrCreateAccount(id string) *account {
	if a, ok := e.lookupAccount(id); ok {
		return a
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if a, ok := e.accounts[id]; ok {
		return a
	}
	a := newAccount(id, e.cfg.StartingBalance)
	e.accounts[id] = a
	return a
}

// lookupPool returns the live pool entry, if present.
func (e *Engine) lookupPool(id string) (*pool, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	p, ok := e.pools[id]
	return p, ok
}

// --- Deep-copy helpers ---
// Every read returns a copy so callers can never mutate engine state
// through a returned value.

func copyAccount(a model.Account) model.Account {
	out := a
	out.Transactions = append([]model.Transaction(nil), a.Transactions...)
	return out
}

func copyPool(p model.Pool) model.Pool {
	out := p
	out.Outcomes = make([]model.Outcome, len(p.Outcomes))
	for i, o := range p.Outcomes {
		stakes := make(map[string]int64, len(o.Stakes))
		for id, amt := range o.Stakes {
			stakes[id] = amt
		}
		out.Outcomes[i] = model.Outcome{ID: o.ID, Stakes: stakes, Total: o.Total}
	}
	out.Bets = append([]model.Bet(nil), p.Bets...)
	if p.SettledAt != nil {
		ts := *p.SettledAt
		out.SettledAt = &ts
	}
	return out
}
