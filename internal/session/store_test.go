package session

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/tabprompt/internal/model"
)

func testDoc(id string, lines, tempo int) model.Document {
	body := make([]string, lines)
	for i := range body {
		body[i] = fmt.Sprintf("%s line %d", id, i)
	}
	return model.Document{
		ID:        id,
		Title:     strings.ToUpper(id),
		Artist:    "Unknown",
		Tuning:    "Standard",
		Tempo:     tempo,
		Content:   strings.Join(body, "\n"),
		CreatedAt: time.Unix(0, 0),
	}
}

// newTestStore uses two lines per window so small documents span several
// windows.
func newTestStore(docs ...model.Document) *Store {
	st := New(Options{LinesPerWindow: 2})
	for _, d := range docs {
		st.AddDocument(d)
	}
	return st
}

func TestNewDefaults(t *testing.T) {
	st := New(Options{})
	snap := st.Snapshot()
	if snap.Tempo != model.DefaultTempo {
		t.Fatalf("expected default tempo, got %d", snap.Tempo)
	}
	if snap.HasSelection() || snap.TotalWindows() != 0 || snap.CurrentWindow() != "" {
		t.Fatalf("expected empty session, got %+v", snap)
	}
	if snap.Progress() != 0 {
		t.Fatalf("expected 0 progress, got %d", snap.Progress())
	}
}

func TestSelectDocument(t *testing.T) {
	st := newTestStore(testDoc("a", 6, 0), testDoc("b", 3, 90))
	st.TogglePlayback()
	st.SelectDocument("b")
	snap := st.Snapshot()
	if snap.SelectedID != "b" {
		t.Fatalf("expected b selected, got %q", snap.SelectedID)
	}
	if snap.IsPlaying {
		t.Fatalf("expected selection to stop playback")
	}
	if snap.TotalWindows() != 2 || snap.WindowIndex != 0 {
		t.Fatalf("unexpected windows: %d at %d", snap.TotalWindows(), snap.WindowIndex)
	}
	if snap.Tempo != 90 {
		t.Fatalf("expected tempo hint 90, got %d", snap.Tempo)
	}
	doc, ok := snap.CurrentDocument()
	if !ok || doc.Title != "B" {
		t.Fatalf("expected current document B, got %+v", doc)
	}
	if snap.CurrentWindow() != "b line 0\nb line 1" {
		t.Fatalf("unexpected current window %q", snap.CurrentWindow())
	}

	st.SelectDocument("a")
	if got := st.Snapshot().Tempo; got != 90 {
		t.Fatalf("expected tempo unchanged without hint, got %d", got)
	}

	st.SelectDocument("missing")
	if got := st.Snapshot().SelectedID; got != "a" {
		t.Fatalf("expected unknown id to be ignored, got %q", got)
	}
}

func TestSetTempoClamps(t *testing.T) {
	st := newTestStore()
	cases := map[int]int{500: 300, 10: 40, 120: 120}
	for in, want := range cases {
		st.SetTempo(in)
		if got := st.Snapshot().Tempo; got != want {
			t.Fatalf("SetTempo(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestWindowNavigationClamps(t *testing.T) {
	st := newTestStore(testDoc("a", 6, 0))
	st.SelectDocument("a")
	st.PrevWindow()
	if got := st.Snapshot().WindowIndex; got != 0 {
		t.Fatalf("expected prev at start to be a no-op, got %d", got)
	}
	for i := 0; i < 5; i++ {
		st.NextWindow()
	}
	snap := st.Snapshot()
	if snap.WindowIndex != 2 {
		t.Fatalf("expected index clamped to last window, got %d", snap.WindowIndex)
	}
	if snap.Progress() != 100 {
		t.Fatalf("expected 100%% progress, got %d", snap.Progress())
	}
	st.PrevWindow()
	if got := st.Snapshot().Progress(); got != 67 {
		t.Fatalf("expected 67%% progress, got %d", got)
	}
}

func TestNavigationWithoutSelection(t *testing.T) {
	st := newTestStore()
	st.NextWindow()
	st.PrevWindow()
	st.CatalogNext()
	st.CatalogPrev()
	st.CatalogSelect()
	snap := st.Snapshot()
	if snap.WindowIndex != 0 || snap.CatalogCursor != 0 || snap.HasSelection() {
		t.Fatalf("expected untouched session, got %+v", snap)
	}
}

func TestCatalogCursor(t *testing.T) {
	st := newTestStore(testDoc("a", 1, 0), testDoc("b", 1, 0), testDoc("c", 1, 0))
	st.CatalogPrev()
	if got := st.Snapshot().CatalogCursor; got != 0 {
		t.Fatalf("expected cursor clamped at 0, got %d", got)
	}
	for i := 0; i < 5; i++ {
		st.CatalogNext()
	}
	if got := st.Snapshot().CatalogCursor; got != 2 {
		t.Fatalf("expected cursor clamped at 2, got %d", got)
	}
	st.CatalogSelect()
	if got := st.Snapshot().SelectedID; got != "c" {
		t.Fatalf("expected c selected, got %q", got)
	}
}

func TestJumpToStart(t *testing.T) {
	st := newTestStore(testDoc("a", 6, 0))
	st.SelectDocument("a")
	st.NextWindow()
	st.TogglePlayback()
	st.JumpToStart()
	snap := st.Snapshot()
	if snap.IsPlaying || snap.WindowIndex != 0 {
		t.Fatalf("expected stopped at start, got %+v", snap)
	}
}

func TestDeselectDocument(t *testing.T) {
	st := newTestStore(testDoc("a", 6, 0))
	st.SelectDocument("a")
	st.NextWindow()
	st.TogglePlayback()
	st.DeselectDocument()
	snap := st.Snapshot()
	if snap.HasSelection() || snap.IsPlaying || snap.WindowIndex != 0 || len(snap.Windows) != 0 {
		t.Fatalf("expected cleared session, got %+v", snap)
	}
}

func TestDoubleTapStateMachine(t *testing.T) {
	st := newTestStore(testDoc("a", 10, 0))
	st.SelectDocument("a")
	for i := 0; i < 3; i++ {
		st.NextWindow()
	}
	st.TogglePlayback()

	if got := st.DoubleTap(); got != DoubleTapJump {
		t.Fatalf("expected jump, got %q", got)
	}
	snap := st.Snapshot()
	if snap.WindowIndex != 0 || snap.IsPlaying {
		t.Fatalf("expected rewind and stop, got %+v", snap)
	}

	if got := st.DoubleTap(); got != DoubleTapDeselect {
		t.Fatalf("expected deselect, got %q", got)
	}
	snap = st.Snapshot()
	if snap.HasSelection() || len(snap.Windows) != 0 {
		t.Fatalf("expected deselection, got %+v", snap)
	}

	if got := st.DoubleTap(); got != DoubleTapClose {
		t.Fatalf("expected close, got %q", got)
	}
	if !st.Snapshot().ClosePromptActive {
		t.Fatalf("expected close prompt active")
	}

	if got := st.DoubleTap(); got != DoubleTapNone {
		t.Fatalf("expected no-op while prompt open, got %q", got)
	}
	st.EndClosePrompt()
	if st.Snapshot().ClosePromptActive {
		t.Fatalf("expected close prompt cleared")
	}
}

func TestBeginClosePromptOnce(t *testing.T) {
	st := newTestStore()
	if !st.BeginClosePrompt() {
		t.Fatalf("expected prompt to open")
	}
	if st.BeginClosePrompt() {
		t.Fatalf("expected second open to be rejected")
	}
}

func TestBeatAdvancesPerMeasure(t *testing.T) {
	st := newTestStore(testDoc("a", 6, 0))
	st.SelectDocument("a")
	if res := st.Beat(); res.Advanced || res.Stopped {
		t.Fatalf("expected beat while paused to be ignored")
	}
	st.TogglePlayback()

	ticks := []bool{}
	for i := 0; i < 3; i++ {
		res := st.Beat()
		if res.Advanced || res.Stopped {
			t.Fatalf("unexpected advance on beat %d", i+1)
		}
		ticks = append(ticks, st.Snapshot().BeatTick)
	}
	if ticks[0] == ticks[1] || ticks[1] == ticks[2] {
		t.Fatalf("expected beat tick to toggle, got %v", ticks)
	}
	res := st.Beat()
	if !res.Advanced || res.Window != "a line 2\na line 3" {
		t.Fatalf("expected advance to window 1, got %+v", res)
	}
	snap := st.Snapshot()
	if snap.WindowIndex != 1 || snap.BeatCount != 0 {
		t.Fatalf("unexpected state after measure: %+v", snap)
	}
}

func TestBeatStopsAtEnd(t *testing.T) {
	st := newTestStore(testDoc("a", 6, 0))
	st.SelectDocument("a")
	st.TogglePlayback()
	var advanced []string
	stopped := 0
	for i := 0; i < 4*5; i++ {
		res := st.Beat()
		if res.Advanced {
			advanced = append(advanced, res.Window)
		}
		if res.Stopped {
			stopped++
		}
	}
	if len(advanced) != 2 {
		t.Fatalf("expected 2 advances, got %d", len(advanced))
	}
	if stopped != 1 {
		t.Fatalf("expected a single stop, got %d", stopped)
	}
	snap := st.Snapshot()
	if snap.IsPlaying || snap.WindowIndex != 2 {
		t.Fatalf("expected stopped on last window, got %+v", snap)
	}
}

func TestSubscribeReportsChanges(t *testing.T) {
	st := newTestStore(testDoc("a", 6, 0))
	var changes []Change
	dispose := st.Subscribe(func(c Change) {
		changes = append(changes, c)
	})

	st.SelectDocument("a")
	if len(changes) != 1 {
		t.Fatalf("expected one change, got %d", len(changes))
	}
	c := changes[0]
	if !c.Has(FieldSelection) || !c.Has(FieldWindows) {
		t.Fatalf("expected selection and windows change, got %b", c.Fields)
	}
	if c.Snapshot.CurrentWindow() != "a line 0\na line 1" {
		t.Fatalf("expected snapshot to carry derived window, got %q", c.Snapshot.CurrentWindow())
	}

	st.PrevWindow()
	if len(changes) != 1 {
		t.Fatalf("expected no-op mutation to stay silent")
	}

	st.SetTempo(200)
	if !changes[1].Has(FieldTempo) || changes[1].Has(FieldPlaying) {
		t.Fatalf("expected tempo-only change, got %b", changes[1].Fields)
	}

	dispose.Release()
	dispose.Release()
	st.TogglePlayback()
	if len(changes) != 2 {
		t.Fatalf("expected no delivery after release, got %d", len(changes))
	}
}

func TestSubscriberSeesConsistentWindow(t *testing.T) {
	st := newTestStore(testDoc("a", 6, 0), testDoc("b", 2, 0))
	st.SelectDocument("a")
	st.NextWindow()
	st.NextWindow()
	st.Subscribe(func(c Change) {
		snap := st.Snapshot()
		if snap.WindowIndex >= len(snap.Windows) && len(snap.Windows) > 0 {
			t.Fatalf("observed out-of-range index %d of %d", snap.WindowIndex, len(snap.Windows))
		}
	})
	st.SelectDocument("b")
	if got := st.Snapshot().CurrentWindow(); got != "b line 0\nb line 1" {
		t.Fatalf("unexpected window %q", got)
	}
}

func TestAddAndRemoveDocument(t *testing.T) {
	st := newTestStore(testDoc("a", 1, 0), testDoc("b", 1, 0))
	st.AddDocument(testDoc("a", 3, 0))
	if got := len(st.Snapshot().Catalog); got != 2 {
		t.Fatalf("expected duplicate id to be ignored, got %d docs", got)
	}
	before := st.Snapshot()

	st.CatalogNext()
	st.SelectDocument("b")
	st.RemoveDocument("b")
	snap := st.Snapshot()
	if snap.HasSelection() {
		t.Fatalf("expected removal to deselect")
	}
	if len(snap.Catalog) != 1 || snap.Catalog[0].ID != "a" {
		t.Fatalf("unexpected catalog %+v", snap.Catalog)
	}
	if snap.CatalogCursor != 0 {
		t.Fatalf("expected cursor clamped, got %d", snap.CatalogCursor)
	}
	if len(before.Catalog) != 2 || before.Catalog[1].ID != "b" {
		t.Fatalf("expected earlier snapshot to stay intact")
	}
}
