package engine

import (
	"fmt"
	"sort"
	"time"

	"github.com/ringside/wager-engine/internal/model"
	"github.com/ringside/wager-engine/internal/parimutuel"
)

// Resolve settles a closed pool against the winning outcome.
//
// The house retains floor(totalPool × houseEdgeRate); winners split the
// remainder proportionally to their stake, each payout floored. The dust
// the floors leave behind accrues to the house and is folded into the
// recorded HouseTake so the audit identity Σpayouts + houseTake ==
// totalPool holds exactly.
//
// Resolve is terminal: a second resolve or cancel on the same pool
// returns ErrAlreadySettled and mutates nothing.
func (e *Engine) Resolve(poolID, winningOutcomeID string) (model.SettlementResult, error) {
	p, ok := e.lookupPool(poolID)
	if !ok {
		return model.SettlementResult{}, fmt.Errorf("%w: %s", ErrPoolNotFound, poolID)
	}

	if err := p.lk.acquire(e.cfg.LockWait, "pool "+poolID); err != nil {
		return model.SettlementResult{}, err
	}
	defer p.lk.release()

	if p.data.Status.Terminal() {
		return model.SettlementResult{}, fmt.Errorf("%w: pool %s is %s",
			ErrAlreadySettled, poolID, p.data.Status)
	}
	if p.data.Status != model.StatusClosed {
		return model.SettlementResult{}, fmt.Errorf("%w: pool %s is %s",
			ErrPoolNotClosed, poolID, p.data.Status)
	}

	winning := p.data.Outcome(winningOutcomeID)
	if winning == nil {
		return model.SettlementResult{}, fmt.Errorf("%w: pool %s has no outcome %q",
			ErrUnknownOutcome, poolID, winningOutcomeID)
	}

	houseTake, err := parimutuel.HouseTake(p.data.TotalPool, e.cfg.HouseEdgeRate)
	if err != nil {
		return model.SettlementResult{}, fmt.Errorf("pool %s: %w", poolID, err)
	}
	distributable := p.data.TotalPool - houseTake
	payouts, remainder := parimutuel.Split(distributable, winning.Stakes, winning.Total)
	houseTake += remainder

	// Lock every participant account in lexicographic order while still
	// holding the pool. Nothing has been mutated yet, so any lock
	// failure backs out cleanly.
	participants, held, err := e.lockParticipants(&p.data)
	if err != nil {
		return model.SettlementResult{}, err
	}
	defer releaseAll(held)

	for _, a := range participants {
		id := a.data.ID
		winStake := winning.Stakes[id]
		var loseStake int64
		for i := range p.data.Outcomes {
			if p.data.Outcomes[i].ID != winningOutcomeID {
				loseStake += p.data.Outcomes[i].Stakes[id]
			}
		}

		if winStake > 0 {
			if payout := payouts[id]; payout > 0 {
				appendTx(&a.data, payout, model.TxPayout, poolID)
			}
			a.data.TotalWon += payouts[id] - winStake
			a.data.CurrentStreak++
			if a.data.CurrentStreak > a.data.BestStreak {
				a.data.BestStreak = a.data.CurrentStreak
			}
		}
		if loseStake > 0 {
			a.data.TotalLost += loseStake
			if winStake == 0 {
				a.data.CurrentStreak = 0
			}
		}
		a.data.WinRate = parimutuel.WinRate(a.data.TotalWon, a.data.TotalLost)
	}

	now := time.Now().UTC()
	p.data.Status = model.StatusResolved
	p.data.WinningOutcome = winningOutcomeID
	p.data.HouseTake = houseTake
	p.data.SettledAt = &now

	return model.SettlementResult{
		PoolID:         poolID,
		Status:         model.StatusResolved,
		WinningOutcome: winningOutcomeID,
		TotalPool:      p.data.TotalPool,
		HouseTake:      houseTake,
		Payouts:        payouts,
	}, nil
}

// Cancel voids a closed pool (draw or abandoned contest): every staked
// amount in every bucket is refunded in full, with zero house take.
// Terminal like Resolve.
func (e *Engine) Cancel(poolID string) (model.SettlementResult, error) {
	p, ok := e.lookupPool(poolID)
	if !ok {
		return model.SettlementResult{}, fmt.Errorf("%w: %s", ErrPoolNotFound, poolID)
	}

	if err := p.lk.acquire(e.cfg.LockWait, "pool "+poolID); err != nil {
		return model.SettlementResult{}, err
	}
	defer p.lk.release()

	if p.data.Status.Terminal() {
		return model.SettlementResult{}, fmt.Errorf("%w: pool %s is %s",
			ErrAlreadySettled, poolID, p.data.Status)
	}
	if p.data.Status != model.StatusClosed {
		return model.SettlementResult{}, fmt.Errorf("%w: pool %s is %s",
			ErrPoolNotClosed, poolID, p.data.Status)
	}

	participants, held, err := e.lockParticipants(&p.data)
	if err != nil {
		return model.SettlementResult{}, err
	}
	defer releaseAll(held)

	refunds := make(map[string]int64, len(participants))
	for _, a := range participants {
		id := a.data.ID
		var staked int64
		for i := range p.data.Outcomes {
			staked += p.data.Outcomes[i].Stakes[id]
		}
		if staked > 0 {
			appendTx(&a.data, staked, model.TxRefund, poolID)
			refunds[id] = staked
		}
	}

	now := time.Now().UTC()
	p.data.Status = model.StatusCancelled
	p.data.SettledAt = &now

	return model.SettlementResult{
		PoolID:    poolID,
		Status:    model.StatusCancelled,
		TotalPool: p.data.TotalPool,
		Payouts:   refunds,
	}, nil
}

// lockParticipants acquires the exclusive section of every account with
// a stake in the pool, in lexicographic id order so overlapping
// settlements on different pools cannot deadlock. On any failure all
// acquired sections are released and nothing has been mutated.
//
// Callers must hold the pool's exclusive section and the returned slots
// until their mutation completes.
func (e *Engine) lockParticipants(p *model.Pool) ([]*account, []*slot, error) {
	seen := make(map[string]bool)
	var ids []string
	for i := range p.Outcomes {
		for id := range p.Outcomes[i].Stakes {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	sort.Strings(ids)

	accounts := make([]*account, 0, len(ids))
	held := make([]*slot, 0, len(ids))
	for _, id := range ids {
		a, ok := e.lookupAccount(id)
		if !ok {
			releaseAll(held)
			return nil, nil, fmt.Errorf("%w: participant %s in pool %s",
				ErrAccountNotFound, id, p.ID)
		}
		if err := a.lk.acquire(e.cfg.LockWait, "account "+id); err != nil {
			releaseAll(held)
			return nil, nil, err
		}
		accounts = append(accounts, a)
		held = append(held, a.lk)
	}
	return accounts, held, nil
}
