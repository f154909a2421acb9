package glasses

import (
	"github.com/verte-zerg/tabprompt/internal/model"
	"github.com/verte-zerg/tabprompt/internal/session"
)

// Pusher accepts display content.
type Pusher interface {
	Push(content string)
}

// Mirror keeps the display on the current window: whenever the selection or
// window index changes and there is something to show, the window text is
// pushed.
func Mirror(store *session.Store, out Pusher) model.Disposer {
	return store.Subscribe(func(c session.Change) {
		if !c.Has(session.FieldSelection | session.FieldWindows | session.FieldWindowIndex) {
			return
		}
		if w := c.Snapshot.CurrentWindow(); w != "" {
			out.Push(w)
		}
	})
}
