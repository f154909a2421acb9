package model

import "sync"

// Disposer releases a subscription or other owned resource. Release may be
// called any number of times; the underlying release runs once.
type Disposer struct {
	once    *sync.Once
	release func()
}

// NewDisposer wraps release so that it runs at most once.
func NewDisposer(release func()) Disposer {
	return Disposer{once: &sync.Once{}, release: release}
}

// Release runs the release function on first call and does nothing after.
func (d Disposer) Release() {
	if d.once == nil || d.release == nil {
		return
	}
	d.once.Do(d.release)
}
