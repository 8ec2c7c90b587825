package engine

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ringside/wager-engine/internal/model"
	"github.com/ringside/wager-engine/internal/parimutuel"
)

// OpenPool creates an open pool for a contest with the given outcome
// set. Outcome ids must be at least two, non-blank, and unique.
func (e *Engine) OpenPool(poolID string, outcomeIDs []string) (model.Pool, error) {
	if len(outcomeIDs) < 2 {
		return model.Pool{}, fmt.Errorf("%w: pool %s needs at least two outcomes, got %d",
			ErrInvalidOutcomeSet, poolID, len(outcomeIDs))
	}
	seen := make(map[string]bool, len(outcomeIDs))
	outcomes := make([]model.Outcome, 0, len(outcomeIDs))
	for _, id := range outcomeIDs {
		if id == "" || seen[id] {
			return model.Pool{}, fmt.Errorf("%w: pool %s has blank or duplicate outcome %q",
				ErrInvalidOutcomeSet, poolID, id)
		}
		seen[id] = true
		outcomes = append(outcomes, model.Outcome{ID: id, Stakes: make(map[string]int64)})
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.pools[poolID]; ok {
		return model.Pool{}, fmt.Errorf("%w: %s", ErrDuplicatePool, poolID)
	}
	p := &pool{
		lk: newSlot(),
		data: model.Pool{
			ID:        poolID,
			Outcomes:  outcomes,
			Status:    model.StatusOpen,
			CreatedAt: time.Now().UTC(),
		},
	}
	e.pools[poolID] = p
	return copyPool(p.data), nil
}

// ClosePool stops a pool from accepting wagers. Only an open pool can
// close; the transition table rejects everything else.
func (e *Engine) ClosePool(poolID string) (model.Pool, error) {
	p, ok := e.lookupPool(poolID)
	if !ok {
		return model.Pool{}, fmt.Errorf("%w: %s", ErrPoolNotFound, poolID)
	}

	if err := p.lk.acquire(e.cfg.LockWait, "pool "+poolID); err != nil {
		return model.Pool{}, err
	}
	defer p.lk.release()

	if !p.data.Status.CanTransition(model.StatusClosed) {
		return model.Pool{}, fmt.Errorf("%w: pool %s is %s, cannot close",
			ErrInvalidTransition, poolID, p.data.Status)
	}
	p.data.Status = model.StatusClosed
	return copyPool(p.data), nil
}

// PlaceWager atomically debits the account and credits the named
// outcome bucket. The debited balance and the bucket increment are
// never observable separately: both entity locks are held across the
// mutation, and every validation runs before the first write.
//
// Lock order is account then pool, the same for all wager-path callers.
func (e *Engine) PlaceWager(accountID, poolID, outcomeID string, amount int64) (model.Bet, int64, error) {
	if amount <= 0 {
		return model.Bet{}, 0, fmt.Errorf("%w: wager of %d by account %s",
			ErrInvalidAmount, amount, accountID)
	}

	p, ok := e.lookupPool(poolID)
	if !ok {
		return model.Bet{}, 0, fmt.Errorf("%w: %s", ErrPoolNotFound, poolID)
	}

	// Precheck the pool before the account exists, so a doomed wager
	// does not mint an account as a side effect. The pool lock is
	// released again before the account lock to keep the account-then-
	// pool order; every check reruns under both locks below.
	if err := e.precheckPool(p, outcomeID); err != nil {
		return model.Bet{}, 0, err
	}

	a := e.getOrCreateAccount(accountID)
	if err := a.lk.acquire(e.cfg.LockWait, "account "+accountID); err != nil {
		return model.Bet{}, 0, err
	}
	defer a.lk.release()

	if err := p.lk.acquire(e.cfg.LockWait, "pool "+poolID); err != nil {
		return model.Bet{}, 0, err
	}
	defer p.lk.release()

	// --- Validation, all before any mutation ---

	if p.data.Status != model.StatusOpen {
		return model.Bet{}, 0, fmt.Errorf("%w: pool %s is %s",
			ErrPoolNotOpen, poolID, p.data.Status)
	}

	bucket := p.data.Outcome(outcomeID)
	if bucket == nil {
		return model.Bet{}, 0, fmt.Errorf("%w: pool %s has no outcome %q",
			ErrInvalidOutcome, poolID, outcomeID)
	}

	var existingStake int64
	for i := range p.data.Outcomes {
		existingStake += p.data.Outcomes[i].Stakes[accountID]
	}
	if err := e.limiter.Check(amount, existingStake); err != nil {
		return model.Bet{}, 0, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}

	if a.data.Balance < amount {
		return model.Bet{}, 0, fmt.Errorf("%w: account %s has %d, needs %d",
			ErrInsufficientFunds, accountID, a.data.Balance, amount)
	}

	// --- Mutation, applied as one unit under both locks ---

	appendTx(&a.data, amount, model.TxWager, poolID)
	a.data.TotalWagered += amount

	bucket.Stakes[accountID] += amount
	bucket.Total += amount
	p.data.TotalPool += amount

	bet := model.Bet{
		ID:          uuid.New().String(),
		AccountID:   accountID,
		PoolID:      poolID,
		OutcomeID:   outcomeID,
		Amount:      amount,
		DisplayOdds: parimutuel.Odds(p.data.TotalPool, bucket.Total),
		Timestamp:   time.Now().UTC(),
	}
	p.data.Bets = append(p.data.Bets, bet)

	return bet, a.data.Balance, nil
}

// precheckPool verifies a wager's pool is open and carries the named
// outcome, without touching any account state.
func (e *Engine) precheckPool(p *pool, outcomeID string) error {
	if err := p.lk.acquire(e.cfg.LockWait, "pool "+p.data.ID); err != nil {
		return err
	}
	defer p.lk.release()

	if p.data.Status != model.StatusOpen {
		return fmt.Errorf("%w: pool %s is %s", ErrPoolNotOpen, p.data.ID, p.data.Status)
	}
	if p.data.Outcome(outcomeID) == nil {
		return fmt.Errorf("%w: pool %s has no outcome %q", ErrInvalidOutcome, p.data.ID, outcomeID)
	}
	return nil
}

// Pool returns a copy of the pool record.
func (e *Engine) Pool(poolID string) (model.Pool, error) {
	p, ok := e.lookupPool(poolID)
	if !ok {
		return model.Pool{}, fmt.Errorf("%w: %s", ErrPoolNotFound, poolID)
	}

	if err := p.lk.acquire(e.cfg.LockWait, "pool "+poolID); err != nil {
		return model.Pool{}, err
	}
	defer p.lk.release()
	return copyPool(p.data), nil
}

// Pools returns all pools ordered by creation time, newest first.
func (e *Engine) Pools() ([]model.Pool, error) {
	e.mu.RLock()
	entries := make([]*pool, 0, len(e.pools))
	for _, p := range e.pools {
		entries = append(entries, p)
	}
	e.mu.RUnlock()

	pools := make([]model.Pool, 0, len(entries))
	for _, p := range entries {
		if err := p.lk.acquire(e.cfg.LockWait, "pool "+p.data.ID); err != nil {
			return nil, err
		}
		pools = append(pools, copyPool(p.data))
		p.lk.release()
	}
	sort.Slice(pools, func(i, j int) bool {
		return pools[i].CreatedAt.After(pools[j].CreatedAt)
	})
	return pools, nil
}

// Odds returns the current proportional odds per outcome. A pure
// function of the bucket totals at call time; no guarantee survives the
// next wager, and settlement never consults it.
func (e *Engine) Odds(poolID string) (map[string]decimal.Decimal, error) {
	p, err := e.Pool(poolID)
	if err != nil {
		return nil, err
	}
	odds := make(map[string]decimal.Decimal, len(p.Outcomes))
	for _, o := range p.Outcomes {
		odds[o.ID] = parimutuel.Odds(p.TotalPool, o.Total)
	}
	return odds, nil
}

// Bets returns the pool's append-only bet log.
func (e *Engine) Bets(poolID string) ([]model.Bet, error) {
	p, err := e.Pool(poolID)
	if err != nil {
		return nil, err
	}
	return p.Bets, nil
}
