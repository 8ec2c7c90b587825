package engine

import (
	"sort"
	"time"

	"github.com/ringside/wager-engine/internal/model"
)

// Export returns a consistent copy of all accounts and pools for the
// persistence gateway. Each entity is copied under its own exclusive
// section, held only for the duration of the copy, so the snapshot
// never blocks the wager path for longer than one entity copy.
func (e *Engine) Export() (*model.Snapshot, error) {
	e.mu.RLock()
	accounts := make([]*account, 0, len(e.accounts))
	for _, a := range e.accounts {
		accounts = append(accounts, a)
	}
	pools := make([]*pool, 0, len(e.pools))
	for _, p := range e.pools {
		pools = append(pools, p)
	}
	e.mu.RUnlock()

	snap := &model.Snapshot{
		Accounts: make([]model.Account, 0, len(accounts)),
		Pools:    make([]model.Pool, 0, len(pools)),
		SavedAt:  time.Now().UTC(),
	}

	for _, a := range accounts {
		if err := a.lk.acquire(e.cfg.LockWait, "account "+a.data.ID); err != nil {
			return nil, err
		}
		snap.Accounts = append(snap.Accounts, copyAccount(a.data))
		a.lk.release()
	}
	for _, p := range pools {
		if err := p.lk.acquire(e.cfg.LockWait, "pool "+p.data.ID); err != nil {
			return nil, err
		}
		snap.Pools = append(snap.Pools, copyPool(p.data))
		p.lk.release()
	}

	sort.Slice(snap.Accounts, func(i, j int) bool {
		return snap.Accounts[i].ID < snap.Accounts[j].ID
	})
	sort.Slice(snap.Pools, func(i, j int) bool {
		return snap.Pools[i].ID < snap.Pools[j].ID
	})
	return snap, nil
}

// Import rehydrates engine state from a snapshot. Intended for startup,
// before the engine accepts calls; it replaces all tables wholesale.
func (e *Engine) Import(snap *model.Snapshot) error {
	accounts := make(map[string]*account, len(snap.Accounts))
	for _, data := range snap.Accounts {
		accounts[data.ID] = &account{lk: newSlot(), data: copyAccount(data)}
	}
	pools := make(map[string]*pool, len(snap.Pools))
	for _, data := range snap.Pools {
		p := &pool{lk: newSlot(), data: copyPool(data)}
		// Older snapshots may predate the stake maps; never leave them nil.
		for i := range p.data.Outcomes {
			if p.data.Outcomes[i].Stakes == nil {
				p.data.Outcomes[i].Stakes = make(map[string]int64)
			}
		}
		pools[data.ID] = p
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.accounts = accounts
	e.pools = pools
	return nil
}

// Leaderboard is a read-only projection over the accounts, ordered by
// balance descending. It is computed from copies and never written back
// into authoritative state.
func (e *Engine) Leaderboard(limit int) ([]model.LeaderboardEntry, error) {
	snap, err := e.Export()
	if err != nil {
		return nil, err
	}

	sort.Slice(snap.Accounts, func(i, j int) bool {
		if snap.Accounts[i].Balance != snap.Accounts[j].Balance {
			return snap.Accounts[i].Balance > snap.Accounts[j].Balance
		}
		return snap.Accounts[i].ID < snap.Accounts[j].ID
	})

	if limit <= 0 || limit > len(snap.Accounts) {
		limit = len(snap.Accounts)
	}
	entries := make([]model.LeaderboardEntry, 0, limit)
	for i, a := range snap.Accounts[:limit] {
		entries = append(entries, model.LeaderboardEntry{
			Rank:       i + 1,
			AccountID:  a.ID,
			Balance:    a.Balance,
			WinRate:    a.WinRate,
			BestStreak: a.BestStreak,
		})
	}
	return entries, nil
}
