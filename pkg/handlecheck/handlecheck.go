// Package handlecheck debounces the backend uniqueness check for VCard handles.
package handlecheck

import (
	"context"
	"sync"
	"time"

	"github.com/giftwise/giftwise/pkg/validation"
)

// DefaultDelay is how long the checker waits after the last keystroke.
const DefaultDelay = 800 * time.Millisecond

const (
	takenMessage       = "This handle is already taken"
	unavailableMessage = "Could not verify handle availability"
)

// AvailabilityFunc asks the backend whether handle is free.
type AvailabilityFunc func(ctx context.Context, handle string) (bool, error)

// Result is delivered once per accepted submission.
type Result struct {
	Handle string
	// Checked is true when the backend was consulted.
	Checked   bool
	Available bool
	// Message is empty when the handle can be used.
	Message string
	Err     error
}

// Checker runs at most one pending check at a time. Each Submit replaces the
// pending check; Cancel drops it and aborts a request already in flight.
type Checker struct {
	Delay     time.Duration
	Available AvailabilityFunc

	mu     sync.Mutex
	gen    uint64
	timer  *time.Timer
	cancel context.CancelFunc
}

func New(fn AvailabilityFunc) *Checker {
	return &Checker{Delay: DefaultDelay, Available: fn}
}

// Submit validates handle synchronously; on failure fn is called right away
// and no request is made. Otherwise the backend check is scheduled after
// Delay. fn is not called for checks superseded by a later Submit or Cancel.
func (c *Checker) Submit(ctx context.Context, handle string, fn func(Result)) {
	c.mu.Lock()
	c.stopLocked()
	c.gen++
	gen := c.gen

	if msg := validation.Handle(handle); msg != "" {
		c.mu.Unlock()
		fn(Result{Handle: handle, Message: msg})
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.timer = time.AfterFunc(c.delay(), func() {
		res := c.check(ctx, handle)
		c.mu.Lock()
		current := gen == c.gen
		if current {
			c.timer = nil
			c.cancel = nil
		}
		c.mu.Unlock()
		cancel()
		if current {
			fn(res)
		}
	})
	c.mu.Unlock()
}

// Cancel drops any pending or in-flight check.
func (c *Checker) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
	c.gen++
}

// Pending reports whether a check is scheduled or running.
func (c *Checker) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancel != nil
}

// Check runs the synchronous and backend checks without debouncing.
func (c *Checker) Check(ctx context.Context, handle string) Result {
	if msg := validation.Handle(handle); msg != "" {
		return Result{Handle: handle, Message: msg}
	}
	return c.check(ctx, handle)
}

func (c *Checker) check(ctx context.Context, handle string) Result {
	res := Result{Handle: handle, Checked: true}
	ok, err := c.Available(ctx, handle)
	if err != nil {
		res.Err = err
		res.Message = unavailableMessage
		return res
	}
	res.Available = ok
	if !ok {
		res.Message = takenMessage
	}
	return res
}

func (c *Checker) stopLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Checker) delay() time.Duration {
	if c.Delay <= 0 {
		return DefaultDelay
	}
	return c.Delay
}
