package engine

import (
	"fmt"
	"time"
)

// slot is an exclusive section with a bounded-wait acquire. A plain
// sync.Mutex cannot time out; a 1-buffered channel can, which lets lock
// contention surface as a transient ErrContendedResource instead of an
// indefinite block.
type slot struct {
	ch chan struct{}
}

func newSlot() *slot {
	return &slot{ch: make(chan struct{}, 1)}
}

// acquire enters the exclusive section, waiting at most wait. The fast
// path avoids a timer allocation when the slot is free.
func (s *slot) acquire(wait time.Duration, resource string) error {
	select {
	case s.ch <- struct{}{}:
		return nil
	default:
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case s.ch <- struct{}{}:
		return nil
	case <-timer.C:
		return fmt.Errorf("%w: %s", ErrContendedResource, resource)
	}
}

// lock enters the exclusive section with no bound. Only for operations
// whose contract forbids a ContendedResource failure.
func (s *slot) lock() {
	s.ch <- struct{}{}
}

// release leaves the exclusive section. Must pair with a successful acquire.
func (s *slot) release() {
	<-s.ch
}

// releaseAll releases a batch of held slots in reverse acquisition order.
func releaseAll(held []*slot) {
	for i := len(held) - 1; i >= 0; i-- {
		held[i].release()
	}
}
