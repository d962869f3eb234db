package clinicapi

import (
	"context"
	"sync"
)

// refreshCoordinator serializes token refreshes: the first caller runs the
// refresh, everyone arriving while it is in flight waits for that single
// outcome instead of re-triggering one. All waiters are resolved or
// rejected together.
type refreshCoordinator struct {
	mu       sync.Mutex
	inFlight bool
	waiters  []chan error
}

func newRefreshCoordinator() *refreshCoordinator {
	return &refreshCoordinator{}
}

// RunExclusive runs fn at most once concurrently. The caller that finds no
// refresh in flight becomes the leader and executes fn; every other caller
// blocks until the leader finishes and receives the leader's error.
func (rc *refreshCoordinator) RunExclusive(ctx context.Context, fn func() error) error {
	rc.mu.Lock()
	if rc.inFlight {
		ch := make(chan error, 1)
		rc.waiters = append(rc.waiters, ch)
		rc.mu.Unlock()

		select {
		case err := <-ch:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	rc.inFlight = true
	rc.mu.Unlock()

	err := fn()

	rc.mu.Lock()
	waiters := rc.waiters
	rc.waiters = nil
	rc.inFlight = false
	rc.mu.Unlock()

	for _, ch := range waiters {
		ch <- err
	}

	return err
}
