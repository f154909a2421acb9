// Package scheduler auto-advances windows on a beat clock while playback is
// on.
package scheduler

import (
	"log/slog"
	"sync"
	"time"

	"github.com/verte-zerg/tabprompt/internal/clock"
	"github.com/verte-zerg/tabprompt/internal/model"
	"github.com/verte-zerg/tabprompt/internal/session"
)

// Pusher accepts display content.
type Pusher interface {
	Push(content string)
}

// Scheduler runs at most one beat timer, restarting it whenever playback or
// tempo changes.
type Scheduler struct {
	store *session.Store
	out   Pusher
	clock clock.Clock
	log   *slog.Logger

	mu       sync.Mutex
	timer    clock.Timer
	gen      uint64
	interval time.Duration
	next     time.Time
	closed   bool

	unsub model.Disposer
}

// Interval returns the beat period for tempo.
func Interval(tempo int) time.Duration {
	return time.Minute / time.Duration(model.ClampTempo(tempo))
}

// Start subscribes to the store and starts the beat clock if playback is
// already on.
func Start(store *session.Store, out Pusher, clk clock.Clock, logger *slog.Logger) *Scheduler {
	s := &Scheduler{store: store, out: out, clock: clk, log: logger}
	s.unsub = store.Subscribe(s.onChange)
	s.Reconcile(store.Snapshot())
	return s
}

func (s *Scheduler) onChange(c session.Change) {
	if !c.Has(session.FieldPlaying | session.FieldTempo) {
		return
	}
	s.Reconcile(c.Snapshot)
}

// Reconcile stops any running beat clock and starts a new one if snap is
// playing.
func (s *Scheduler) Reconcile(snap session.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	wasRunning := s.timer != nil
	s.stopLocked()
	if !snap.IsPlaying {
		if wasRunning {
			s.log.Info("playback stopped")
		}
		return
	}
	s.interval = Interval(snap.Tempo)
	s.next = s.clock.Now().Add(s.interval)
	s.armLocked()
	s.log.Info("playback started",
		"tempo", snap.Tempo,
		"beat_ms", s.interval.Milliseconds(),
		"measure_ms", (s.interval * model.BeatsPerMeasure).Milliseconds(),
	)
}

// Running reports whether a beat timer is live.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

// Stop cancels the store subscription and the beat timer. It is safe to call
// more than once.
func (s *Scheduler) Stop() {
	s.unsub.Release()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.stopLocked()
}

func (s *Scheduler) stopLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
}

func (s *Scheduler) armLocked() {
	gen := s.gen
	delay := s.next.Sub(s.clock.Now())
	if delay < 0 {
		delay = 0
	}
	s.timer = s.clock.AfterFunc(delay, func() { s.tick(gen) })
}

// tick runs one beat. The lock is not held across the store call, since the
// store notifies onChange synchronously when the beat ends playback.
func (s *Scheduler) tick(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || s.closed {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	res := s.store.Beat()
	if res.Advanced {
		s.out.Push(res.Window)
	}
	if res.Stopped {
		s.log.Info("reached end of content")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen || s.closed {
		return
	}
	s.next = s.next.Add(s.interval)
	s.armLocked()
}
