// Package session holds the document catalog and the playback session, and
// derives what is currently visible from them.
//
// All writes go through the Store's mutators. Each mutator applies its change
// and recomputes dependent state under one lock, then notifies subscribers
// with a consistent Snapshot, so no reader ever observes a half-updated
// session.
package session

import (
	"math"
	"slices"
	"sync"

	"github.com/verte-zerg/tabprompt/internal/fragment"
	"github.com/verte-zerg/tabprompt/internal/model"
)

// Field identifies a group of session state in a Change.
type Field uint32

// Fields reported in Change.Fields.
const (
	FieldCatalog Field = 1 << iota
	FieldSelection
	FieldWindows
	FieldWindowIndex
	FieldTempo
	FieldPlaying
	FieldBeat
	FieldCatalogCursor
	FieldClosePrompt
)

// Change is delivered to subscribers after a mutation that changed state.
type Change struct {
	Fields   Field
	Snapshot Snapshot
}

// Has reports whether any of the given fields changed.
func (c Change) Has(f Field) bool {
	return c.Fields&f != 0
}

// DoubleTapResult reports which branch a double tap took.
type DoubleTapResult string

// Double tap outcomes.
const (
	DoubleTapNone     DoubleTapResult = ""
	DoubleTapJump     DoubleTapResult = "jump"
	DoubleTapDeselect DoubleTapResult = "deselect"
	DoubleTapClose    DoubleTapResult = "close"
)

// BeatResult reports what a single beat did.
type BeatResult struct {
	// Advanced is set when the beat closed a measure and moved to the next
	// window; Window then holds the new window text.
	Advanced bool
	Window   string
	// Stopped is set when the beat closed a measure on the last window and
	// playback ended.
	Stopped bool
}

// Options configures a Store.
type Options struct {
	LinesPerWindow int
	Tempo          int
}

type state struct {
	selectedID  string
	windows     []string
	windowIndex int
	tempo       int
	playing     bool
	beatTick    bool
	beatCount   int
	cursor      int
	closePrompt bool
}

type subscriber struct {
	id int
	fn func(Change)
}

// Store is the single owner of the catalog and the session.
//
// Subscribers run synchronously after the mutation that triggered them and
// must not call Store mutators from inside the callback.
type Store struct {
	linesPerWindow int

	notifyMu sync.Mutex

	mu      sync.Mutex
	catalog []model.Document
	st      state
	subs    []subscriber
	nextSub int
}

// New returns a Store with an empty catalog and no document selected.
func New(opts Options) *Store {
	lines := opts.LinesPerWindow
	if lines <= 0 {
		lines = fragment.DefaultLinesPerWindow
	}
	tempo := opts.Tempo
	if tempo == 0 {
		tempo = model.DefaultTempo
	}
	return &Store{
		linesPerWindow: lines,
		st:             state{tempo: model.ClampTempo(tempo)},
	}
}

// Subscribe registers fn to receive every subsequent Change.
func (s *Store) Subscribe(fn func(Change)) model.Disposer {
	s.mu.Lock()
	s.nextSub++
	id := s.nextSub
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	s.mu.Unlock()
	return model.NewDisposer(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.subs = slices.DeleteFunc(s.subs, func(sub subscriber) bool { return sub.id == id })
	})
}

// Snapshot returns the current state together with its derived values.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// CurrentWindow returns the text of the visible window, or "".
func (s *Store) CurrentWindow() string {
	return s.Snapshot().CurrentWindow()
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Catalog:           s.catalog,
		SelectedID:        s.st.selectedID,
		Windows:           s.st.windows,
		WindowIndex:       s.st.windowIndex,
		Tempo:             s.st.tempo,
		IsPlaying:         s.st.playing,
		BeatTick:          s.st.beatTick,
		BeatCount:         s.st.beatCount,
		CatalogCursor:     s.st.cursor,
		ClosePromptActive: s.st.closePrompt,
	}
}

// mutate applies fn under the state lock and then notifies subscribers of
// whatever changed.
func (s *Store) mutate(fn func()) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	before := s.st
	catalogLen := len(s.catalog)
	catalogPtr := firstDoc(s.catalog)
	fn()
	changed := diff(before, s.st)
	if len(s.catalog) != catalogLen || firstDoc(s.catalog) != catalogPtr {
		changed |= FieldCatalog
	}
	snap := s.snapshotLocked()
	subs := slices.Clone(s.subs)
	s.mu.Unlock()

	if changed == 0 {
		return
	}
	change := Change{Fields: changed, Snapshot: snap}
	for _, sub := range subs {
		sub.fn(change)
	}
}

func firstDoc(docs []model.Document) *model.Document {
	if len(docs) == 0 {
		return nil
	}
	return &docs[0]
}

func diff(a, b state) Field {
	var f Field
	if a.selectedID != b.selectedID {
		f |= FieldSelection
	}
	if !sameWindows(a.windows, b.windows) {
		f |= FieldWindows
	}
	if a.windowIndex != b.windowIndex {
		f |= FieldWindowIndex
	}
	if a.tempo != b.tempo {
		f |= FieldTempo
	}
	if a.playing != b.playing {
		f |= FieldPlaying
	}
	if a.beatTick != b.beatTick || a.beatCount != b.beatCount {
		f |= FieldBeat
	}
	if a.cursor != b.cursor {
		f |= FieldCatalogCursor
	}
	if a.closePrompt != b.closePrompt {
		f |= FieldClosePrompt
	}
	return f
}

// Windows are replaced wholesale and never edited in place, so identity of
// the backing array is enough.
func sameWindows(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	return len(a) == 0 || &a[0] == &b[0]
}

func (s *Store) findLocked(id string) (model.Document, bool) {
	for _, doc := range s.catalog {
		if doc.ID == id {
			return doc, true
		}
	}
	return model.Document{}, false
}

func (s *Store) resetBeatLocked() {
	s.st.beatTick = false
	s.st.beatCount = 0
}

func (s *Store) selectLocked(id string) {
	doc, ok := s.findLocked(id)
	if !ok {
		return
	}
	s.st.playing = false
	s.st.selectedID = id
	s.st.windowIndex = 0
	s.st.windows = fragment.Windows(doc.Content, s.linesPerWindow)
	s.resetBeatLocked()
	if doc.HasTempo() {
		s.st.tempo = model.ClampTempo(doc.Tempo)
	}
}

func (s *Store) deselectLocked() {
	s.st.playing = false
	s.st.selectedID = ""
	s.st.windowIndex = 0
	s.st.windows = nil
	s.resetBeatLocked()
}

// AddDocument appends doc to the catalog. A document whose ID is already in
// the catalog is ignored.
func (s *Store) AddDocument(doc model.Document) {
	s.mutate(func() {
		if _, exists := s.findLocked(doc.ID); exists {
			return
		}
		next := make([]model.Document, len(s.catalog), len(s.catalog)+1)
		copy(next, s.catalog)
		s.catalog = append(next, doc)
	})
}

// RemoveDocument drops a document from the catalog, deselecting it first if
// it is the current one.
func (s *Store) RemoveDocument(id string) {
	s.mutate(func() {
		if _, ok := s.findLocked(id); !ok {
			return
		}
		if s.st.selectedID == id {
			s.deselectLocked()
		}
		s.catalog = slices.DeleteFunc(slices.Clone(s.catalog), func(d model.Document) bool { return d.ID == id })
		s.st.cursor = clampIndex(s.st.cursor, len(s.catalog))
	})
}

// SelectDocument makes id the current document, stops playback and rewinds.
// The document's tempo hint, if any, replaces the current tempo. Unknown ids
// are ignored.
func (s *Store) SelectDocument(id string) {
	s.mutate(func() {
		s.selectLocked(id)
	})
}

// DeselectDocument returns to the catalog.
func (s *Store) DeselectDocument() {
	s.mutate(s.deselectLocked)
}

// SetTempo sets the tempo, clamped to the supported range.
func (s *Store) SetTempo(v int) {
	s.mutate(func() {
		s.st.tempo = model.ClampTempo(v)
	})
}

// TogglePlayback flips between playing and paused.
func (s *Store) TogglePlayback() {
	s.mutate(func() {
		s.st.playing = !s.st.playing
	})
}

// NextWindow moves one window forward unless already at the last one.
func (s *Store) NextWindow() {
	s.mutate(func() {
		if s.st.windowIndex < len(s.st.windows)-1 {
			s.st.windowIndex++
		}
	})
}

// PrevWindow moves one window back unless already at the first one.
func (s *Store) PrevWindow() {
	s.mutate(func() {
		if s.st.windowIndex > 0 {
			s.st.windowIndex--
		}
	})
}

// JumpToStart stops playback and rewinds to the first window.
func (s *Store) JumpToStart() {
	s.mutate(func() {
		s.st.playing = false
		s.st.windowIndex = 0
		s.resetBeatLocked()
	})
}

// CatalogNext moves the catalog cursor down.
func (s *Store) CatalogNext() {
	s.mutate(func() {
		if len(s.catalog) == 0 {
			return
		}
		s.st.cursor = clampIndex(s.st.cursor+1, len(s.catalog))
	})
}

// CatalogPrev moves the catalog cursor up.
func (s *Store) CatalogPrev() {
	s.mutate(func() {
		if len(s.catalog) == 0 {
			return
		}
		s.st.cursor = clampIndex(s.st.cursor-1, len(s.catalog))
	})
}

// CatalogSelect selects the document under the catalog cursor.
func (s *Store) CatalogSelect() {
	s.mutate(func() {
		if s.st.cursor < 0 || s.st.cursor >= len(s.catalog) {
			return
		}
		s.selectLocked(s.catalog[s.st.cursor].ID)
	})
}

// DoubleTap resolves a double tap against the session: rewind when inside a
// document past its first window, leave the document when at its start, and
// open the close prompt when browsing. It does nothing while the close
// prompt is open.
func (s *Store) DoubleTap() DoubleTapResult {
	result := DoubleTapNone
	s.mutate(func() {
		switch {
		case s.st.closePrompt:
		case s.st.selectedID != "" && s.st.windowIndex > 0:
			s.st.playing = false
			s.st.windowIndex = 0
			s.resetBeatLocked()
			result = DoubleTapJump
		case s.st.selectedID != "":
			s.deselectLocked()
			result = DoubleTapDeselect
		default:
			s.st.closePrompt = true
			result = DoubleTapClose
		}
	})
	return result
}

// BeginClosePrompt opens the close prompt. It reports false if the prompt
// was already open.
func (s *Store) BeginClosePrompt() bool {
	opened := false
	s.mutate(func() {
		if s.st.closePrompt {
			return
		}
		s.st.closePrompt = true
		opened = true
	})
	return opened
}

// EndClosePrompt closes the close prompt.
func (s *Store) EndClosePrompt() {
	s.mutate(func() {
		s.st.closePrompt = false
	})
}

// Beat advances the beat clock by one beat. On the last beat of a measure it
// moves to the next window, or stops playback when already on the last one.
// Beats arriving while paused are ignored.
func (s *Store) Beat() BeatResult {
	var res BeatResult
	s.mutate(func() {
		if !s.st.playing {
			return
		}
		s.st.beatTick = !s.st.beatTick
		s.st.beatCount = (s.st.beatCount + 1) % model.BeatsPerMeasure
		if s.st.beatCount != 0 {
			return
		}
		if s.st.windowIndex < len(s.st.windows)-1 {
			s.st.windowIndex++
			res.Advanced = true
			res.Window = s.st.windows[s.st.windowIndex]
			return
		}
		s.st.playing = false
		res.Stopped = true
	})
	return res
}

func clampIndex(i, n int) int {
	if n <= 0 {
		return 0
	}
	return max(0, min(n-1, i))
}

// Snapshot is an immutable view of the catalog and session.
type Snapshot struct {
	Catalog           []model.Document
	SelectedID        string
	Windows           []string
	WindowIndex       int
	Tempo             int
	IsPlaying         bool
	BeatTick          bool
	BeatCount         int
	CatalogCursor     int
	ClosePromptActive bool
}

// HasSelection reports whether a document is selected.
func (sn Snapshot) HasSelection() bool {
	return sn.SelectedID != ""
}

// CurrentDocument looks up the selected document in the catalog.
func (sn Snapshot) CurrentDocument() (model.Document, bool) {
	if sn.SelectedID == "" {
		return model.Document{}, false
	}
	for _, doc := range sn.Catalog {
		if doc.ID == sn.SelectedID {
			return doc, true
		}
	}
	return model.Document{}, false
}

// CurrentWindow returns the visible window text, or "" when out of range.
func (sn Snapshot) CurrentWindow() string {
	if sn.WindowIndex < 0 || sn.WindowIndex >= len(sn.Windows) {
		return ""
	}
	return sn.Windows[sn.WindowIndex]
}

// TotalWindows returns the number of windows of the selected document.
func (sn Snapshot) TotalWindows() int {
	return len(sn.Windows)
}

// Progress returns how far through the document the current window is, as a
// rounded percentage.
func (sn Snapshot) Progress() int {
	total := sn.TotalWindows()
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(sn.WindowIndex+1) / float64(total) * 100))
}
