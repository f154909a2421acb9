// Package gesture routes ring gestures to session changes according to the
// current mode: browsing the catalog, playing a document, or confirming
// close.
package gesture

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/verte-zerg/tabprompt/internal/glasses"
	"github.com/verte-zerg/tabprompt/internal/model"
	"github.com/verte-zerg/tabprompt/internal/session"
)

const shutdownTimeout = 5 * time.Second

// Display is where the router sends what the device should show.
type Display interface {
	Push(content string)
	Shutdown(ctx context.Context) error
}

// Source delivers device gestures.
type Source interface {
	OnGesture(fn func(model.Gesture)) model.Disposer
}

// Mode is the routing mode derived from the session.
type Mode int

// Routing modes.
const (
	ModeBrowsing Mode = iota
	ModePlayback
	ModeClosePrompt
)

func (m Mode) String() string {
	switch m {
	case ModeBrowsing:
		return "browsing"
	case ModePlayback:
		return "playback"
	case ModeClosePrompt:
		return "close-prompt"
	default:
		return "unknown"
	}
}

// ModeOf derives the routing mode from a snapshot.
func ModeOf(snap session.Snapshot) Mode {
	switch {
	case snap.ClosePromptActive:
		return ModeClosePrompt
	case snap.HasSelection():
		return ModePlayback
	default:
		return ModeBrowsing
	}
}

// Options sizes the catalog view sent to the device.
type Options struct {
	WidthCols int
	Rows      int
}

// Router interprets gestures against the session.
type Router struct {
	store   *session.Store
	display Display
	source  Source
	log     *slog.Logger
	opts    Options

	// spawn runs device shutdown; the router never waits on it.
	spawn func(func())

	mu     sync.Mutex
	normal model.Disposer
	prompt *model.Disposer
}

// New returns a Router. Call Attach to start receiving gestures.
func New(store *session.Store, display Display, source Source, logger *slog.Logger, opts Options) *Router {
	return &Router{
		store:   store,
		display: display,
		source:  source,
		log:     logger,
		opts:    opts,
		spawn:   func(f func()) { go f() },
	}
}

// Attach subscribes the normal dispatch to the gesture source. Releasing the
// returned disposer also tears down an open close prompt.
func (r *Router) Attach() model.Disposer {
	r.mu.Lock()
	r.normal = r.source.OnGesture(r.Handle)
	r.mu.Unlock()
	return model.NewDisposer(func() {
		r.mu.Lock()
		normal := r.normal
		prompt := r.prompt
		r.prompt = nil
		r.mu.Unlock()
		normal.Release()
		if prompt != nil {
			prompt.Release()
			r.store.EndClosePrompt()
		}
	})
}

// Handle dispatches one gesture. It does nothing while the close prompt owns
// the gesture stream.
func (r *Router) Handle(g model.Gesture) {
	snap := r.store.Snapshot()
	mode := ModeOf(snap)
	if mode == ModeClosePrompt {
		return
	}
	playing := mode == ModePlayback

	switch g {
	case model.GestureScrollDown:
		if playing {
			r.log.Debug("gesture", "gesture", g.String(), "action", "next window")
			r.store.NextWindow()
			return
		}
		r.log.Debug("gesture", "gesture", g.String(), "action", "catalog next")
		r.store.CatalogNext()
		r.pushCatalog()
	case model.GestureScrollUp:
		if playing {
			r.log.Debug("gesture", "gesture", g.String(), "action", "prev window")
			r.store.PrevWindow()
			return
		}
		r.log.Debug("gesture", "gesture", g.String(), "action", "catalog prev")
		r.store.CatalogPrev()
		r.pushCatalog()
	case model.GestureTap:
		r.handleTap(playing)
	case model.GestureDoubleTap:
		r.handleDoubleTap()
	case model.GestureForegroundEnter, model.GestureForegroundExit:
		r.log.Debug("gesture", "gesture", g.String())
	default:
		r.log.Debug("unknown gesture", "gesture", g.String())
	}
}

func (r *Router) handleTap(playing bool) {
	if playing {
		r.log.Debug("gesture", "gesture", "tap", "action", "toggle playback")
		r.store.TogglePlayback()
		return
	}
	r.log.Debug("gesture", "gesture", "tap", "action", "select document")
	r.store.CatalogSelect()
	if w := r.store.CurrentWindow(); w != "" {
		r.display.Push(w)
	}
}

func (r *Router) handleDoubleTap() {
	res := r.store.DoubleTap()
	r.log.Info("double tap", "result", string(res))
	switch res {
	case session.DoubleTapJump:
		r.display.Push(glasses.JumpNotice)
	case session.DoubleTapDeselect:
		r.pushCatalog()
	case session.DoubleTapClose:
		r.openClosePrompt()
	}
}

func (r *Router) pushCatalog() {
	r.display.Push(glasses.CatalogView(r.store.Snapshot(), r.opts.WidthCols, r.opts.Rows))
}

// openClosePrompt hands the gesture stream to the prompt handler until the
// user confirms or cancels.
func (r *Router) openClosePrompt() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.prompt != nil {
		return
	}
	r.display.Push(glasses.ClosePromptView)
	d := r.source.OnGesture(r.handlePrompt)
	r.prompt = &d
}

func (r *Router) releasePrompt() bool {
	r.mu.Lock()
	prompt := r.prompt
	r.prompt = nil
	r.mu.Unlock()
	if prompt == nil {
		return false
	}
	prompt.Release()
	r.store.EndClosePrompt()
	return true
}

func (r *Router) handlePrompt(g model.Gesture) {
	switch g {
	case model.GestureTap, model.GestureDoubleTap:
		if !r.releasePrompt() {
			return
		}
		r.log.Info("close confirmed; shutting down display")
		r.spawn(func() {
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := r.display.Shutdown(ctx); err != nil {
				r.log.Warn("shutdown failed", "error", err)
			}
		})
	case model.GestureScrollDown, model.GestureScrollUp:
		if !r.releasePrompt() {
			return
		}
		r.log.Info("close cancelled")
		r.pushCatalog()
	}
}

// PromptOpen reports whether the close prompt currently owns gestures.
func (r *Router) PromptOpen() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.prompt != nil
}
