package engine_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ringside/wager-engine/internal/engine"
	"github.com/ringside/wager-engine/internal/model"
)

// newTestEngine creates an engine with the canonical test economics:
// every account starts at 1000 and the house keeps 2%.
func newTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	return engine.New(engine.Config{
		StartingBalance: 1000,
		HouseEdgeRate:   decimal.NewFromFloat(0.02),
		MinWager:        1,
		LockWait:        time.Second,
	})
}

// openFight opens the standard two-outcome pool used across tests.
func openFight(t *testing.T, e *engine.Engine) {
	t.Helper()
	if _, err := e.OpenPool("fight1", []string{"X", "Y"}); err != nil {
		t.Fatalf("failed to open pool: %v", err)
	}
}

// replayBalance reconstructs a balance purely from the transaction log.
func replayBalance(txs []model.Transaction) int64 {
	var balance int64
	for _, tx := range txs {
		balance += tx.Signed()
	}
	return balance
}

// --- Account ledger tests ---

func TestOpenAccount_Idempotent(t *testing.T) {
	e := newTestEngine(t)

	first := e.OpenAccount("alice", 500)
	if first.Balance != 500 {
		t.Fatalf("expected balance 500, got %d", first.Balance)
	}

	// Re-opening with a different starting balance changes nothing.
	second := e.OpenAccount("alice", 9999)
	if second.Balance != 500 {
		t.Errorf("re-open should return existing account unchanged, got %d", second.Balance)
	}
	if len(second.Transactions) != 1 {
		t.Errorf("expected single contribution transaction, got %d", len(second.Transactions))
	}
}

func TestCreditDebit_AppendTransactions(t *testing.T) {
	e := newTestEngine(t)
	e.OpenAccount("alice", 1000)

	bal, err := e.Credit("alice", 250, model.TxContribution, "")
	if err != nil {
		t.Fatalf("credit failed: %v", err)
	}
	if bal != 1250 {
		t.Errorf("expected 1250, got %d", bal)
	}

	bal, err = e.Debit("alice", 50, model.TxWager, "fight1")
	if err != nil {
		t.Fatalf("debit failed: %v", err)
	}
	if bal != 1200 {
		t.Errorf("expected 1200, got %d", bal)
	}

	acc, _ := e.Account("alice")
	if len(acc.Transactions) != 3 {
		t.Fatalf("expected 3 transactions, got %d", len(acc.Transactions))
	}
	if got := replayBalance(acc.Transactions); got != acc.Balance {
		t.Errorf("replayed balance %d != live balance %d", got, acc.Balance)
	}
}

func TestDebit_InsufficientFunds(t *testing.T) {
	e := newTestEngine(t)
	e.OpenAccount("alice", 100)

	_, err := e.Debit("alice", 101, model.TxWager, "")
	if !errors.Is(err, engine.ErrInsufficientFunds) {
		t.Errorf("expected ErrInsufficientFunds, got %v", err)
	}

	// Failed debit leaves no trace.
	acc, _ := e.Account("alice")
	if acc.Balance != 100 || len(acc.Transactions) != 1 {
		t.Errorf("failed debit must not mutate: balance=%d txs=%d",
			acc.Balance, len(acc.Transactions))
	}
}

func TestCreditDebit_InvalidAmount(t *testing.T) {
	e := newTestEngine(t)
	e.OpenAccount("alice", 100)

	for _, amount := range []int64{0, -5} {
		if _, err := e.Credit("alice", amount, model.TxContribution, ""); !errors.Is(err, engine.ErrInvalidAmount) {
			t.Errorf("credit %d: expected ErrInvalidAmount, got %v", amount, err)
		}
		if _, err := e.Debit("alice", amount, model.TxWager, ""); !errors.Is(err, engine.ErrInvalidAmount) {
			t.Errorf("debit %d: expected ErrInvalidAmount, got %v", amount, err)
		}
	}
}

func TestCreditDebit_DirectionMatchesType(t *testing.T) {
	e := newTestEngine(t)
	e.OpenAccount("alice", 1000)

	// A debit with a crediting type would increase the balance on
	// replay; both mismatches are rejected outright.
	if _, err := e.Debit("alice", 100, model.TxPayout, ""); !errors.Is(err, engine.ErrInvalidAmount) {
		t.Errorf("debit with payout type: expected ErrInvalidAmount, got %v", err)
	}
	if _, err := e.Credit("alice", 100, model.TxWager, "fight1"); !errors.Is(err, engine.ErrInvalidAmount) {
		t.Errorf("credit with wager type: expected ErrInvalidAmount, got %v", err)
	}

	acc, _ := e.Account("alice")
	if acc.Balance != 1000 || len(acc.Transactions) != 1 {
		t.Errorf("mismatched type must not mutate: balance=%d txs=%d",
			acc.Balance, len(acc.Transactions))
	}
}

func TestBalanceOf_UnknownAccount(t *testing.T) {
	e := newTestEngine(t)
	if _, err := e.BalanceOf("ghost"); !errors.Is(err, engine.ErrAccountNotFound) {
		t.Errorf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestDeposit_CreatesAccount(t *testing.T) {
	e := newTestEngine(t)

	acc, err := e.Deposit("bob", 300)
	if err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
	// Starting balance plus the deposit.
	if acc.Balance != 1300 {
		t.Errorf("expected 1300, got %d", acc.Balance)
	}
	if len(acc.Transactions) != 2 {
		t.Errorf("expected 2 contribution transactions, got %d", len(acc.Transactions))
	}
}

// --- Pool tests ---

func TestOpenPool_Validation(t *testing.T) {
	e := newTestEngine(t)

	if _, err := e.OpenPool("p1", []string{"only"}); !errors.Is(err, engine.ErrInvalidOutcomeSet) {
		t.Errorf("single outcome: expected ErrInvalidOutcomeSet, got %v", err)
	}
	if _, err := e.OpenPool("p1", []string{"X", "X"}); !errors.Is(err, engine.ErrInvalidOutcomeSet) {
		t.Errorf("duplicate outcome: expected ErrInvalidOutcomeSet, got %v", err)
	}
	if _, err := e.OpenPool("p1", []string{"X", ""}); !errors.Is(err, engine.ErrInvalidOutcomeSet) {
		t.Errorf("blank outcome: expected ErrInvalidOutcomeSet, got %v", err)
	}

	if _, err := e.OpenPool("p1", []string{"X", "Y"}); err != nil {
		t.Fatalf("valid open failed: %v", err)
	}
	if _, err := e.OpenPool("p1", []string{"A", "B"}); !errors.Is(err, engine.ErrDuplicatePool) {
		t.Errorf("expected ErrDuplicatePool, got %v", err)
	}
}

func TestPlaceWager_ScenarioA(t *testing.T) {
	e := newTestEngine(t)
	openFight(t, e)

	bet, balance, err := e.PlaceWager("A", "fight1", "X", 200)
	if err != nil {
		t.Fatalf("wager failed: %v", err)
	}
	if balance != 800 {
		t.Errorf("expected balance 800, got %d", balance)
	}
	if bet.DisplayOdds.IsZero() {
		t.Error("expected non-zero display odds")
	}

	p, _ := e.Pool("fight1")
	if p.TotalPool != 200 {
		t.Errorf("expected totalPool 200, got %d", p.TotalPool)
	}
	if p.Outcome("X").Total != 200 {
		t.Errorf("expected bucket X total 200, got %d", p.Outcome("X").Total)
	}
	if len(p.Bets) != 1 {
		t.Errorf("expected one bet record, got %d", len(p.Bets))
	}
}

func TestPlaceWager_StakesAccumulate(t *testing.T) {
	e := newTestEngine(t)
	openFight(t, e)

	e.PlaceWager("A", "fight1", "X", 100)
	e.PlaceWager("A", "fight1", "X", 150)

	p, _ := e.Pool("fight1")
	if got := p.Outcome("X").Stakes["A"]; got != 250 {
		t.Errorf("stakes should accumulate, expected 250, got %d", got)
	}
	if p.TotalPool != 250 {
		t.Errorf("expected totalPool 250, got %d", p.TotalPool)
	}
	if len(p.Bets) != 2 {
		t.Errorf("expected two bet records, got %d", len(p.Bets))
	}
}

func TestPlaceWager_InvalidOutcome(t *testing.T) {
	e := newTestEngine(t)
	openFight(t, e)

	_, _, err := e.PlaceWager("A", "fight1", "Z", 100)
	if !errors.Is(err, engine.ErrInvalidOutcome) {
		t.Errorf("expected ErrInvalidOutcome, got %v", err)
	}

	// No side effects: the rejected wager does not even create the account.
	if _, err := e.BalanceOf("A"); !errors.Is(err, engine.ErrAccountNotFound) {
		t.Errorf("failed wager must not create the account, got %v", err)
	}
}

func TestPlaceWager_RejectionMintsNoAccount(t *testing.T) {
	e := newTestEngine(t)
	openFight(t, e)

	if _, _, err := e.PlaceWager("ghost", "nope", "X", 100); !errors.Is(err, engine.ErrPoolNotFound) {
		t.Errorf("unknown pool: expected ErrPoolNotFound, got %v", err)
	}
	if _, _, err := e.PlaceWager("ghost", "fight1", "Z", 100); !errors.Is(err, engine.ErrInvalidOutcome) {
		t.Errorf("unknown outcome: expected ErrInvalidOutcome, got %v", err)
	}
	e.ClosePool("fight1")
	if _, _, err := e.PlaceWager("ghost", "fight1", "X", 100); !errors.Is(err, engine.ErrPoolNotOpen) {
		t.Errorf("closed pool: expected ErrPoolNotOpen, got %v", err)
	}

	if _, err := e.Account("ghost"); !errors.Is(err, engine.ErrAccountNotFound) {
		t.Errorf("rejected wagers must not create the account, got %v", err)
	}
}

func TestPlaceWager_InsufficientFunds(t *testing.T) {
	e := newTestEngine(t)
	openFight(t, e)

	_, _, err := e.PlaceWager("A", "fight1", "X", 1001)
	if !errors.Is(err, engine.ErrInsufficientFunds) {
		t.Errorf("expected ErrInsufficientFunds, got %v", err)
	}
	p, _ := e.Pool("fight1")
	if p.TotalPool != 0 {
		t.Errorf("failed wager must not reach the pool, totalPool=%d", p.TotalPool)
	}
}

func TestPlaceWager_StakeLimits(t *testing.T) {
	e := engine.New(engine.Config{
		StartingBalance: 10000,
		HouseEdgeRate:   decimal.NewFromFloat(0.02),
		MinWager:        50,
		MaxWager:        500,
		LockWait:        time.Second,
	})
	openFight(t, e)

	if _, _, err := e.PlaceWager("A", "fight1", "X", 49); !errors.Is(err, engine.ErrInvalidAmount) {
		t.Errorf("below minimum: expected ErrInvalidAmount, got %v", err)
	}
	if _, _, err := e.PlaceWager("A", "fight1", "X", 501); !errors.Is(err, engine.ErrInvalidAmount) {
		t.Errorf("above maximum: expected ErrInvalidAmount, got %v", err)
	}
	if _, _, err := e.PlaceWager("A", "fight1", "X", 500); err != nil {
		t.Errorf("at maximum should pass, got %v", err)
	}
}

func TestPlaceWager_ScenarioD_ClosedPool(t *testing.T) {
	e := newTestEngine(t)
	openFight(t, e)
	e.PlaceWager("A", "fight1", "X", 200)
	if _, err := e.ClosePool("fight1"); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	_, _, err := e.PlaceWager("A", "fight1", "X", 100)
	if !errors.Is(err, engine.ErrPoolNotOpen) {
		t.Errorf("expected ErrPoolNotOpen, got %v", err)
	}

	// Both account and pool state are unchanged.
	if bal, _ := e.BalanceOf("A"); bal != 800 {
		t.Errorf("expected balance 800, got %d", bal)
	}
	p, _ := e.Pool("fight1")
	if p.TotalPool != 200 {
		t.Errorf("expected totalPool 200, got %d", p.TotalPool)
	}
}

func TestClosePool_Transitions(t *testing.T) {
	e := newTestEngine(t)
	openFight(t, e)

	if _, err := e.ClosePool("fight1"); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if _, err := e.ClosePool("fight1"); !errors.Is(err, engine.ErrInvalidTransition) {
		t.Errorf("double close: expected ErrInvalidTransition, got %v", err)
	}
	if _, err := e.ClosePool("nope"); !errors.Is(err, engine.ErrPoolNotFound) {
		t.Errorf("expected ErrPoolNotFound, got %v", err)
	}
}

func TestOdds_TrackBucketTotals(t *testing.T) {
	e := newTestEngine(t)
	openFight(t, e)
	e.PlaceWager("A", "fight1", "X", 200)
	e.PlaceWager("B", "fight1", "Y", 300)

	odds, err := e.Odds("fight1")
	if err != nil {
		t.Fatalf("odds failed: %v", err)
	}
	if !odds["X"].Equal(decimal.NewFromFloat(2.5)) {
		t.Errorf("expected X odds 2.5, got %s", odds["X"])
	}
	if !odds["Y"].Equal(decimal.NewFromFloat(1.67)) {
		t.Errorf("expected Y odds 1.67, got %s", odds["Y"])
	}
}

// --- Settlement tests ---

func TestResolve_ScenarioB(t *testing.T) {
	e := newTestEngine(t)
	openFight(t, e)
	e.PlaceWager("A", "fight1", "X", 200)
	e.PlaceWager("B", "fight1", "Y", 300)
	e.ClosePool("fight1")

	result, err := e.Resolve("fight1", "X")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	if result.HouseTake != 10 {
		t.Errorf("expected houseTake 10, got %d", result.HouseTake)
	}
	if result.Payouts["A"] != 490 {
		t.Errorf("expected A payout 490, got %d", result.Payouts["A"])
	}

	accA, _ := e.Account("A")
	if accA.Balance != 1290 {
		t.Errorf("expected A balance 1290, got %d", accA.Balance)
	}
	if accA.TotalWon != 290 {
		t.Errorf("expected A totalWon 290, got %d", accA.TotalWon)
	}
	if accA.CurrentStreak != 1 || accA.BestStreak != 1 {
		t.Errorf("expected A streak 1/1, got %d/%d", accA.CurrentStreak, accA.BestStreak)
	}

	accB, _ := e.Account("B")
	if accB.Balance != 700 {
		t.Errorf("expected B balance 700, got %d", accB.Balance)
	}
	if accB.TotalLost != 300 {
		t.Errorf("expected B totalLost 300, got %d", accB.TotalLost)
	}
	if !accB.WinRate.IsZero() {
		t.Errorf("expected B winRate 0, got %s", accB.WinRate)
	}

	p, _ := e.Pool("fight1")
	if p.Status != model.StatusResolved {
		t.Errorf("expected status resolved, got %s", p.Status)
	}
	if p.WinningOutcome != "X" {
		t.Errorf("expected winning outcome X, got %s", p.WinningOutcome)
	}
	if p.HouseTake != 10 {
		t.Errorf("expected pool houseTake 10, got %d", p.HouseTake)
	}
}

func TestResolve_SettlementConservation(t *testing.T) {
	e := newTestEngine(t)
	openFight(t, e)
	e.PlaceWager("A", "fight1", "X", 137)
	e.PlaceWager("B", "fight1", "X", 263)
	e.PlaceWager("C", "fight1", "X", 11)
	e.PlaceWager("D", "fight1", "Y", 589)
	e.ClosePool("fight1")

	result, err := e.Resolve("fight1", "X")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	var paid int64
	for _, p := range result.Payouts {
		paid += p
	}
	if paid+result.HouseTake != result.TotalPool {
		t.Errorf("conservation violated: paid=%d take=%d total=%d",
			paid, result.HouseTake, result.TotalPool)
	}
}

func TestResolve_Guards(t *testing.T) {
	e := newTestEngine(t)
	openFight(t, e)
	e.PlaceWager("A", "fight1", "X", 200)

	// Open pool cannot resolve.
	if _, err := e.Resolve("fight1", "X"); !errors.Is(err, engine.ErrPoolNotClosed) {
		t.Errorf("expected ErrPoolNotClosed, got %v", err)
	}

	e.ClosePool("fight1")

	if _, err := e.Resolve("fight1", "Z"); !errors.Is(err, engine.ErrUnknownOutcome) {
		t.Errorf("expected ErrUnknownOutcome, got %v", err)
	}
	if _, err := e.Resolve("nope", "X"); !errors.Is(err, engine.ErrPoolNotFound) {
		t.Errorf("expected ErrPoolNotFound, got %v", err)
	}
}

func TestResolve_NoDoubleSettlement(t *testing.T) {
	e := newTestEngine(t)
	openFight(t, e)
	e.PlaceWager("A", "fight1", "X", 200)
	e.PlaceWager("B", "fight1", "Y", 300)
	e.ClosePool("fight1")

	if _, err := e.Resolve("fight1", "X"); err != nil {
		t.Fatalf("first resolve failed: %v", err)
	}
	balA, _ := e.BalanceOf("A")
	balB, _ := e.BalanceOf("B")

	if _, err := e.Resolve("fight1", "X"); !errors.Is(err, engine.ErrAlreadySettled) {
		t.Errorf("second resolve: expected ErrAlreadySettled, got %v", err)
	}
	if _, err := e.Cancel("fight1"); !errors.Is(err, engine.ErrAlreadySettled) {
		t.Errorf("cancel after resolve: expected ErrAlreadySettled, got %v", err)
	}

	// Balances are untouched by the rejected calls.
	if bal, _ := e.BalanceOf("A"); bal != balA {
		t.Errorf("A balance changed by rejected settlement: %d != %d", bal, balA)
	}
	if bal, _ := e.BalanceOf("B"); bal != balB {
		t.Errorf("B balance changed by rejected settlement: %d != %d", bal, balB)
	}
}

func TestCancel_ScenarioC(t *testing.T) {
	e := newTestEngine(t)
	openFight(t, e)
	e.PlaceWager("A", "fight1", "X", 200)
	e.PlaceWager("B", "fight1", "Y", 300)
	e.ClosePool("fight1")

	result, err := e.Cancel("fight1")
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if result.HouseTake != 0 {
		t.Errorf("cancellation must take nothing, got %d", result.HouseTake)
	}
	if result.Payouts["A"] != 200 || result.Payouts["B"] != 300 {
		t.Errorf("expected exact refunds, got %v", result.Payouts)
	}

	// Every participant is back to the pre-wager balance.
	for _, id := range []string{"A", "B"} {
		if bal, _ := e.BalanceOf(id); bal != 1000 {
			t.Errorf("expected %s balance 1000 after cancel, got %d", id, bal)
		}
	}

	// Refunds do not touch win/loss stats.
	accA, _ := e.Account("A")
	if accA.TotalWon != 0 || accA.TotalLost != 0 || accA.CurrentStreak != 0 {
		t.Errorf("cancel must not change stats: %+v", accA)
	}

	p, _ := e.Pool("fight1")
	if p.Status != model.StatusCancelled {
		t.Errorf("expected status cancelled, got %s", p.Status)
	}
}

func TestResolve_StreaksAcrossPools(t *testing.T) {
	e := newTestEngine(t)

	// A wins twice, then loses: streak 1 → 2 → 0, best stays 2.
	for i, winner := range []string{"X", "X", "Y"} {
		poolID := string(rune('a' + i))
		e.OpenPool(poolID, []string{"X", "Y"})
		e.PlaceWager("A", poolID, "X", 10)
		e.PlaceWager("B", poolID, "Y", 10)
		e.ClosePool(poolID)
		if _, err := e.Resolve(poolID, winner); err != nil {
			t.Fatalf("resolve %s failed: %v", poolID, err)
		}
	}

	accA, _ := e.Account("A")
	if accA.CurrentStreak != 0 {
		t.Errorf("expected current streak 0, got %d", accA.CurrentStreak)
	}
	if accA.BestStreak != 2 {
		t.Errorf("expected best streak 2, got %d", accA.BestStreak)
	}

	accB, _ := e.Account("B")
	if accB.CurrentStreak != 1 {
		t.Errorf("expected B current streak 1, got %d", accB.CurrentStreak)
	}
}

func TestResolve_EmptyWinningBucket(t *testing.T) {
	e := newTestEngine(t)
	openFight(t, e)
	e.PlaceWager("A", "fight1", "X", 200)
	e.ClosePool("fight1")

	// Nobody staked Y; the whole pool accrues to the house.
	result, err := e.Resolve("fight1", "Y")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if len(result.Payouts) != 0 {
		t.Errorf("expected no payouts, got %v", result.Payouts)
	}
	if result.HouseTake != 200 {
		t.Errorf("expected full pool as house take, got %d", result.HouseTake)
	}

	accA, _ := e.Account("A")
	if accA.TotalLost != 200 {
		t.Errorf("expected A totalLost 200, got %d", accA.TotalLost)
	}
}

// --- Conservation under concurrency ---

func TestPlaceWager_ConcurrentConservation(t *testing.T) {
	e := newTestEngine(t)
	openFight(t, e)

	const workers = 8
	const wagersEach = 25

	var wg sync.WaitGroup
	var rejected sync.Map
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			id := string(rune('a' + w))
			outcome := "X"
			if w%2 == 1 {
				outcome = "Y"
			}
			var failed int64
			for i := 0; i < wagersEach; i++ {
				if _, _, err := e.PlaceWager(id, "fight1", outcome, 4); err != nil {
					failed += 4
				}
			}
			rejected.Store(id, failed)
		}(w)
	}
	wg.Wait()

	p, _ := e.Pool("fight1")

	// Pool conservation: totalPool equals the bucket sums and the sum of
	// all accepted wager amounts.
	var bucketSum int64
	for _, o := range p.Outcomes {
		bucketSum += o.Total
	}
	if bucketSum != p.TotalPool {
		t.Errorf("bucket sum %d != totalPool %d", bucketSum, p.TotalPool)
	}
	var betSum int64
	for _, b := range p.Bets {
		betSum += b.Amount
	}
	if betSum != p.TotalPool {
		t.Errorf("bet log sum %d != totalPool %d", betSum, p.TotalPool)
	}

	// Account conservation: every balance replays from its log, and the
	// debited total matches the pool.
	var debited int64
	for w := 0; w < workers; w++ {
		id := string(rune('a' + w))
		acc, err := e.Account(id)
		if err != nil {
			t.Fatalf("account %s: %v", id, err)
		}
		if got := replayBalance(acc.Transactions); got != acc.Balance {
			t.Errorf("account %s: replayed %d != balance %d", id, got, acc.Balance)
		}
		debited += 1000 - acc.Balance
	}
	if debited != p.TotalPool {
		t.Errorf("total debited %d != totalPool %d", debited, p.TotalPool)
	}
}

// --- Snapshot round trip ---

func TestExportImport_RoundTrip(t *testing.T) {
	e := newTestEngine(t)
	openFight(t, e)
	e.PlaceWager("A", "fight1", "X", 200)
	e.PlaceWager("B", "fight1", "Y", 300)
	e.ClosePool("fight1")
	e.Resolve("fight1", "X")

	snap, err := e.Export()
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}

	restored := newTestEngine(t)
	if err := restored.Import(snap); err != nil {
		t.Fatalf("import failed: %v", err)
	}

	for _, id := range []string{"A", "B"} {
		want, _ := e.Account(id)
		got, err := restored.Account(id)
		if err != nil {
			t.Fatalf("restored account %s: %v", id, err)
		}
		if got.Balance != want.Balance {
			t.Errorf("account %s: balance %d != %d", id, got.Balance, want.Balance)
		}
		if len(got.Transactions) != len(want.Transactions) {
			t.Errorf("account %s: %d txs != %d", id, len(got.Transactions), len(want.Transactions))
		}
	}

	p, err := restored.Pool("fight1")
	if err != nil {
		t.Fatalf("restored pool: %v", err)
	}
	if p.Status != model.StatusResolved || p.HouseTake != 10 {
		t.Errorf("restored pool lost settlement state: status=%s take=%d",
			p.Status, p.HouseTake)
	}

	// A terminal pool stays terminal after restore.
	if _, err := restored.Resolve("fight1", "X"); !errors.Is(err, engine.ErrAlreadySettled) {
		t.Errorf("expected ErrAlreadySettled after restore, got %v", err)
	}
}

func TestLeaderboard_OrderedByBalance(t *testing.T) {
	e := newTestEngine(t)
	openFight(t, e)
	e.PlaceWager("A", "fight1", "X", 200)
	e.PlaceWager("B", "fight1", "Y", 300)
	e.ClosePool("fight1")
	e.Resolve("fight1", "X")

	entries, err := e.Leaderboard(10)
	if err != nil {
		t.Fatalf("leaderboard failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].AccountID != "A" || entries[0].Rank != 1 {
		t.Errorf("expected A first, got %+v", entries[0])
	}
	if entries[0].Balance != 1290 || entries[1].Balance != 700 {
		t.Errorf("unexpected balances: %d, %d", entries[0].Balance, entries[1].Balance)
	}
}
