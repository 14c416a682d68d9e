/*
Package mutex provides BlockingMutex, a cooperative lock built from a flag
guarded by an internal sync.Mutex and a sync.Cond.

# Semantics

  - Acquire blocks in cond.Wait until the flag is clear, then sets it.
  - Release clears the flag and broadcasts, waking every waiter. Each woken
    waiter re-checks the flag; only one of them wins, the rest wait again.
  - AcquireContext additionally gives up when its context is done, returning
    an error that matches types.ErrInterrupted. A cancelled caller never
    observes itself as the holder.

Fairness is not guaranteed. Any woken waiter may win the flag, so a single
waiter can starve under heavy contention.

# Usage

	m := mutex.New()

	if err := m.AcquireContext(ctx); err != nil {
		return err // stop requested while waiting
	}
	defer m.Release()
*/
package mutex
