package export

// limiter.go bounds how many exports are serialized at once. A workbook is
// built entirely in memory, so parallel XLSX requests are held to a small
// number of slots. Callers that cannot get a slot within maxWait receive
// ErrTooManyExports.

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/JonMunkholm/form1099/internal/core"
)

// ErrTooManyExports is returned when every export slot stays occupied
// for the whole wait. Clients should retry after a short delay.
var ErrTooManyExports = errors.New("too many concurrent exports, please try again later")

const (
	DefaultMaxConcurrent = 4
	DefaultMaxWait       = 10 * time.Second
)

// Limiter is a counting semaphore over export slots.
type Limiter struct {
	slots   chan struct{}
	maxWait time.Duration

	mu     sync.RWMutex
	active int
}

// NewLimiter allows at most maxConcurrent exports at a time. Non-positive
// arguments fall back to the defaults.
func NewLimiter(maxConcurrent int, maxWait time.Duration) *Limiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWait
	}
	return &Limiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire waits for a slot. The caller must Release it when done.
func (l *Limiter) Acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	select {
	case l.slots <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return nil
	case <-waitCtx.Done():
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrTooManyExports
	}
}

// Release frees a slot taken by Acquire.
func (l *Limiter) Release() {
	l.mu.Lock()
	l.active--
	l.mu.Unlock()
	<-l.slots
}

// Active returns the number of exports in progress.
func (l *Limiter) Active() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.active
}

// Available returns the number of free slots.
func (l *Limiter) Available() int {
	return cap(l.slots) - len(l.slots)
}

// Run serializes s into w while holding a slot.
func (l *Limiter) Run(ctx context.Context, w io.Writer, f Format, s core.Summary) error {
	if err := l.Acquire(ctx); err != nil {
		return err
	}
	defer l.Release()
	return Write(w, f, s)
}
