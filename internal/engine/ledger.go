package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ringside/wager-engine/internal/model"
)

// newAccount builds a fresh ledger record. A non-zero starting balance
// is recorded as a contribution transaction so the balance stays
// reconstructible purely from the transaction log.
func newAccount(id string, startingBalance int64) *account {
	a := &account{
		lk: newSlot(),
		data: model.Account{
			ID:        id,
			CreatedAt: time.Now().UTC(),
		},
	}
	if startingBalance > 0 {
		appendTx(&a.data, startingBalance, model.TxContribution, "")
	}
	return a
}

// appendTx applies one balance change and its transaction record as a
// single unit. Callers must hold the account's exclusive section (or
// own the account exclusively, as newAccount does).
func appendTx(a *model.Account, amount int64, typ model.TransactionType, poolID string) model.Transaction {
	tx := model.Transaction{
		ID:        uuid.New().String(),
		AccountID: a.ID,
		Type:      typ,
		Amount:    amount,
		PoolID:    poolID,
		Timestamp: time.Now().UTC(),
	}
	a.Balance += tx.Signed()
	a.Transactions = append(a.Transactions, tx)
	return tx
}

// OpenAccount creates an account with the given starting balance if it
// does not exist, and returns the account either way. Idempotent: an
// existing account is returned unchanged. Never errors.
func (e *Engine) OpenAccount(id string, startingBalance int64) model.Account {
	if a, ok := e.lookupAccount(id); ok {
		// Open never errors, so wait unbounded for the copy.
		a.lk.lock()
		defer a.lk.release()
		return copyAccount(a.data)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if a, ok := e.accounts[id]; ok {
		return copyAccount(a.data)
	}
	a := newAccount(id, startingBalance)
	e.accounts[id] = a
	return copyAccount(a.data)
}

// Credit increases an account's balance and appends the transaction.
// The type must replay as a credit: TxWager is rejected so the recorded
// log and the balance change can never disagree. Returns the new balance.
func (e *Engine) Credit(accountID string, amount int64, typ model.TransactionType, poolID string) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("%w: credit of %d to account %s", ErrInvalidAmount, amount, accountID)
	}
	if typ == model.TxWager {
		return 0, fmt.Errorf("%w: type %s debits, cannot credit account %s",
			ErrInvalidAmount, typ, accountID)
	}
	a, ok := e.lookupAccount(accountID)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrAccountNotFound, accountID)
	}

	if err := a.lk.acquire(e.cfg.LockWait, "account "+accountID); err != nil {
		return 0, err
	}
	defer a.lk.release()

	appendTx(&a.data, amount, typ, poolID)
	return a.data.Balance, nil
}

// Debit decreases an account's balance and appends the transaction.
// The type must replay as a debit: only TxWager qualifies. Returns the
// new balance.
func (e *Engine) Debit(accountID string, amount int64, typ model.TransactionType, poolID string) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("%w: debit of %d from account %s", ErrInvalidAmount, amount, accountID)
	}
	if typ != model.TxWager {
		return 0, fmt.Errorf("%w: type %s credits, cannot debit account %s",
			ErrInvalidAmount, typ, accountID)
	}
	a, ok := e.lookupAccount(accountID)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrAccountNotFound, accountID)
	}

	if err := a.lk.acquire(e.cfg.LockWait, "account "+accountID); err != nil {
		return 0, err
	}
	defer a.lk.release()

	if a.data.Balance < amount {
		return 0, fmt.Errorf("%w: account %s has %d, needs %d",
			ErrInsufficientFunds, accountID, a.data.Balance, amount)
	}
	appendTx(&a.data, amount, typ, poolID)
	return a.data.Balance, nil
}

// Deposit credits a contribution, creating the account on first use.
// Returns the updated account.
func (e *Engine) Deposit(accountID string, amount int64) (model.Account, error) {
	if amount <= 0 {
		return model.Account{}, fmt.Errorf("%w: deposit of %d to account %s",
			ErrInvalidAmount, amount, accountID)
	}
	a := e.getOrCreateAccount(accountID)

	if err := a.lk.acquire(e.cfg.LockWait, "account "+accountID); err != nil {
		return model.Account{}, err
	}
	defer a.lk.release()

	appendTx(&a.data, amount, model.TxContribution, "")
	return copyAccount(a.data), nil
}

// BalanceOf returns the current balance.
func (e *Engine) BalanceOf(accountID string) (int64, error) {
	a, ok := e.lookupAccount(accountID)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrAccountNotFound, accountID)
	}

	if err := a.lk.acquire(e.cfg.LockWait, "account "+accountID); err != nil {
		return 0, err
	}
	defer a.lk.release()
	return a.data.Balance, nil
}

// Account returns a copy of the full account record, stats and
// transaction history included.
func (e *Engine) Account(accountID string) (model.Account, error) {
	a, ok := e.lookupAccount(accountID)
	if !ok {
		return model.Account{}, fmt.Errorf("%w: %s", ErrAccountNotFound, accountID)
	}

	if err := a.lk.acquire(e.cfg.LockWait, "account "+accountID); err != nil {
		return model.Account{}, err
	}
	defer a.lk.release()
	return copyAccount(a.data), nil
}

// Transactions returns the account's append-only transaction history.
func (e *Engine) Transactions(accountID string) ([]model.Transaction, error) {
	acc, err := e.Account(accountID)
	if err != nil {
		return nil, err
	}
	return acc.Transactions, nil
}
