package engine

import "errors"

// Domain errors returned by the engine. Callers classify with errors.Is;
// wrapped messages carry the ids involved. ErrContendedResource is the
// only kind safe to retry unchanged — every other kind signals a
// caller-side logic or data error.
var (
	// ErrInvalidAmount is returned for non-positive amounts and for
	// wagers outside the configured stake limits.
	ErrInvalidAmount = errors.New("engine: invalid amount")

	// ErrInsufficientFunds is returned when a debit exceeds the balance.
	ErrInsufficientFunds = errors.New("engine: insufficient funds")

	// ErrAccountNotFound is returned when a read references an account
	// that was never opened.
	ErrAccountNotFound = errors.New("engine: account not found")

	// ErrDuplicatePool is returned when opening a pool whose id exists.
	ErrDuplicatePool = errors.New("engine: pool already exists")

	// ErrPoolNotFound is returned when an operation references an
	// unknown pool.
	ErrPoolNotFound = errors.New("engine: pool not found")

	// ErrInvalidOutcomeSet is returned when a pool is opened with fewer
	// than two outcomes, or with blank or duplicate outcome ids.
	ErrInvalidOutcomeSet = errors.New("engine: invalid outcome set")

	// ErrPoolNotOpen is returned when a wager targets a pool that is no
	// longer accepting stakes.
	ErrPoolNotOpen = errors.New("engine: pool not open")

	// ErrInvalidOutcome is returned when a wager names an outcome the
	// pool does not have.
	ErrInvalidOutcome = errors.New("engine: invalid outcome")

	// ErrInvalidTransition is returned for a status change the pool
	// state machine does not permit.
	ErrInvalidTransition = errors.New("engine: invalid pool transition")

	// ErrPoolNotClosed is returned when settlement is attempted on a
	// pool that is still open.
	ErrPoolNotClosed = errors.New("engine: pool not closed")

	// ErrUnknownOutcome is returned when resolution names a winning
	// outcome the pool does not have.
	ErrUnknownOutcome = errors.New("engine: unknown winning outcome")

	// ErrAlreadySettled is returned when resolve or cancel is repeated
	// on a terminal pool. The repeat call mutates nothing.
	ErrAlreadySettled = errors.New("engine: pool already settled")

	// ErrContendedResource is returned when an exclusive section could
	// not be entered within the bounded wait. Transient; retryable.
	ErrContendedResource = errors.New("engine: contended resource")
)
