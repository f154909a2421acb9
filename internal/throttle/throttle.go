// Package throttle paces outbound display updates with a trailing edge: at
// most one send per window, and the most recent content is always sent
// eventually.
package throttle

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/verte-zerg/tabprompt/internal/clock"
)

// DefaultWindow is the minimum spacing between sends.
const DefaultWindow = 100 * time.Millisecond

// SendFunc delivers content to the display.
type SendFunc func(ctx context.Context, content string) error

// Throttle coalesces rapid pushes into paced sends.
type Throttle struct {
	clock  clock.Clock
	window time.Duration
	send   SendFunc
	log    *slog.Logger

	// spawn runs a send; sends never block the caller of Push.
	spawn func(func())

	mu       sync.Mutex
	lastSent time.Time
	sentAny  bool
	pending  clock.Timer
	closed   bool
}

// New returns a Throttle that spaces calls to send at least window apart.
func New(clk clock.Clock, window time.Duration, send SendFunc, logger *slog.Logger) *Throttle {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Throttle{
		clock:  clk,
		window: window,
		send:   send,
		log:    logger,
		spawn:  func(f func()) { go f() },
	}
}

// Push requests that content be shown. A pending deferred send is replaced.
func (t *Throttle) Push(content string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	if t.pending != nil {
		t.pending.Stop()
		t.pending = nil
	}

	now := t.clock.Now()
	elapsed := now.Sub(t.lastSent)
	if !t.sentAny || elapsed >= t.window {
		t.markSentLocked(now)
		t.dispatch(content)
		return
	}

	var timer clock.Timer
	timer = t.clock.AfterFunc(t.window-elapsed, func() {
		t.mu.Lock()
		if t.pending != timer || t.closed {
			t.mu.Unlock()
			return
		}
		t.pending = nil
		t.markSentLocked(t.clock.Now())
		t.mu.Unlock()
		t.dispatch(content)
	})
	t.pending = timer
}

// Close cancels any pending send and drops later pushes. It is safe to call
// more than once.
func (t *Throttle) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	if t.pending != nil {
		t.pending.Stop()
		t.pending = nil
	}
}

func (t *Throttle) markSentLocked(now time.Time) {
	t.lastSent = now
	t.sentAny = true
}

func (t *Throttle) dispatch(content string) {
	t.spawn(func() {
		if err := t.send(context.Background(), content); err != nil {
			t.log.Warn("display update failed", "error", err, "bytes", len(content))
		}
	})
}
