package scheduler

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/tabprompt/internal/clock"
	"github.com/verte-zerg/tabprompt/internal/model"
	"github.com/verte-zerg/tabprompt/internal/session"
)

type pushRecorder struct{ pushes []string }

func (p *pushRecorder) Push(content string) { p.pushes = append(p.pushes, content) }

// setup selects a document of the given number of one-line windows.
func setup(t *testing.T, windows int) (*session.Store, *Scheduler, *clock.Manual, *pushRecorder) {
	t.Helper()
	lines := make([]string, windows)
	for i := range lines {
		lines[i] = fmt.Sprintf("w%d", i)
	}
	st := session.New(session.Options{LinesPerWindow: 1, Tempo: 120})
	st.AddDocument(model.Document{ID: "doc", Content: strings.Join(lines, "\n")})
	st.SelectDocument("doc")
	clk := clock.NewManual(time.Unix(0, 0))
	rec := &pushRecorder{}
	s := Start(st, rec, clk, slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(s.Stop)
	return st, s, clk, rec
}

func TestInterval(t *testing.T) {
	if got := Interval(120); got != 500*time.Millisecond {
		t.Fatalf("expected 500ms at 120 BPM, got %v", got)
	}
	if got := Interval(1000); got != 200*time.Millisecond {
		t.Fatalf("expected tempo clamp to 300 BPM, got %v", got)
	}
}

func TestIdleUntilPlaying(t *testing.T) {
	st, s, clk, rec := setup(t, 10)
	clk.Advance(10 * time.Second)
	if s.Running() || len(rec.pushes) != 0 || st.Snapshot().WindowIndex != 0 {
		t.Fatalf("expected idle scheduler")
	}
}

func TestAdvancesOneWindowPerMeasure(t *testing.T) {
	st, s, clk, rec := setup(t, 10)
	st.TogglePlayback()
	if !s.Running() {
		t.Fatalf("expected running scheduler")
	}

	clk.Advance(1500 * time.Millisecond)
	snap := st.Snapshot()
	if snap.WindowIndex != 0 || snap.BeatCount != 3 {
		t.Fatalf("expected 3 beats without advance, got index %d count %d", snap.WindowIndex, snap.BeatCount)
	}
	clk.Advance(500 * time.Millisecond)
	snap = st.Snapshot()
	if snap.WindowIndex != 1 || snap.BeatCount != 0 {
		t.Fatalf("expected advance on 4th beat, got index %d count %d", snap.WindowIndex, snap.BeatCount)
	}
	if len(rec.pushes) != 1 || rec.pushes[0] != "w1" {
		t.Fatalf("expected push of w1, got %q", rec.pushes)
	}
}

func TestNoDoubleTimers(t *testing.T) {
	st, s, clk, _ := setup(t, 50)
	st.TogglePlayback()
	s.Reconcile(st.Snapshot())
	s.Reconcile(st.Snapshot())
	if clk.Pending() != 1 {
		t.Fatalf("expected a single live timer, got %d", clk.Pending())
	}

	clk.Advance(10 * time.Second)
	if got := st.Snapshot().WindowIndex; got != 5 {
		t.Fatalf("expected 20 beats (5 measures) in 10s, got window %d", got)
	}
}

func TestTempoChangeRestartsClock(t *testing.T) {
	st, _, clk, _ := setup(t, 50)
	st.TogglePlayback()
	clk.Advance(250 * time.Millisecond)
	st.SetTempo(240)
	if clk.Pending() != 1 {
		t.Fatalf("expected a single live timer after tempo change, got %d", clk.Pending())
	}
	clk.Advance(1000 * time.Millisecond)
	if got := st.Snapshot().WindowIndex; got != 1 {
		t.Fatalf("expected one measure at 240 BPM in 1s, got window %d", got)
	}
}

func TestPauseStopsClock(t *testing.T) {
	st, s, clk, _ := setup(t, 10)
	st.TogglePlayback()
	clk.Advance(600 * time.Millisecond)
	st.TogglePlayback()
	if s.Running() || clk.Pending() != 0 {
		t.Fatalf("expected no timer after pause")
	}
	before := st.Snapshot()
	clk.Advance(10 * time.Second)
	after := st.Snapshot()
	if before.BeatCount != after.BeatCount || before.WindowIndex != after.WindowIndex {
		t.Fatalf("expected paused state to hold")
	}
}

func TestEndOfContentStops(t *testing.T) {
	st, s, clk, rec := setup(t, 3)
	st.TogglePlayback()
	clk.Advance(4 * time.Second)
	if got := st.Snapshot().WindowIndex; got != 2 {
		t.Fatalf("expected last window after two measures, got %d", got)
	}
	clk.Advance(2 * time.Second)
	snap := st.Snapshot()
	if snap.IsPlaying {
		t.Fatalf("expected playback to stop at end of content")
	}
	if s.Running() || clk.Pending() != 0 {
		t.Fatalf("expected scheduler idle after end of content")
	}
	if len(rec.pushes) != 2 || rec.pushes[0] != "w1" || rec.pushes[1] != "w2" {
		t.Fatalf("unexpected pushes %q", rec.pushes)
	}
	clk.Advance(10 * time.Second)
	if len(rec.pushes) != 2 {
		t.Fatalf("expected no pushes after stop, got %q", rec.pushes)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	st, s, clk, _ := setup(t, 10)
	st.TogglePlayback()
	s.Stop()
	s.Stop()
	if clk.Pending() != 0 {
		t.Fatalf("expected timer cancelled")
	}
	st.TogglePlayback()
	st.TogglePlayback()
	if s.Running() {
		t.Fatalf("expected stopped scheduler to ignore store changes")
	}
}
