package bridge

import (
	"context"
	"fmt"
	"sync"

	"github.com/verte-zerg/tabprompt/internal/model"
)

// DeviceState is what the simulated device currently shows.
type DeviceState struct {
	Created     bool
	ContainerID int
	Name        string
	Content     string
	Pushes      int
	Shutdown    bool
	ExitMode    int
}

// Loopback is an in-process device. It records what would be on the
// display and lets callers inject gestures with Emit.
type Loopback struct {
	hub Hub

	mu      sync.Mutex
	state   DeviceState
	changes chan struct{}
	done    chan struct{}
}

// NewLoopback returns a ready simulated device.
func NewLoopback() *Loopback {
	return &Loopback{
		changes: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

// CreateDisplay implements Bridge.
func (l *Loopback) CreateDisplay(_ context.Context, containers []TextContainer) (CreateResult, error) {
	if len(containers) == 0 {
		return CreateInvalid, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state.Shutdown {
		return CreateInvalid, ErrShutdown
	}
	c := containers[0]
	l.state.Created = true
	l.state.ContainerID = c.ID
	l.state.Name = c.Name
	l.state.Content = c.Content
	l.notifyLocked()
	return CreateSuccess, nil
}

// PushText implements Bridge.
func (l *Loopback) PushText(_ context.Context, containerID int, containerName, content string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state.Shutdown {
		return false, ErrShutdown
	}
	if !l.state.Created {
		return false, fmt.Errorf("push to container %d: %w", containerID, ErrNotReady)
	}
	if containerID != l.state.ContainerID || containerName != l.state.Name {
		return false, nil
	}
	l.state.Content = content
	l.state.Pushes++
	l.notifyLocked()
	return true, nil
}

// Shutdown implements Bridge.
func (l *Loopback) Shutdown(_ context.Context, exitMode int) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state.Shutdown {
		return false, nil
	}
	l.state.Shutdown = true
	l.state.ExitMode = exitMode
	close(l.done)
	l.notifyLocked()
	return true, nil
}

// OnGesture implements Bridge.
func (l *Loopback) OnGesture(fn func(model.Gesture)) model.Disposer {
	return l.hub.Subscribe(fn)
}

// Ready implements Bridge.
func (l *Loopback) Ready() bool {
	return true
}

// Emit delivers a gesture to subscribers as if the device reported it.
func (l *Loopback) Emit(g model.Gesture) error {
	l.mu.Lock()
	shut := l.state.Shutdown
	l.mu.Unlock()
	if shut {
		return ErrShutdown
	}
	l.hub.Publish(g)
	return nil
}

// State returns a copy of the device state.
func (l *Loopback) State() DeviceState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Changes signals, without blocking the device, that the state changed.
func (l *Loopback) Changes() <-chan struct{} {
	return l.changes
}

// Done is closed when the display is shut down.
func (l *Loopback) Done() <-chan struct{} {
	return l.done
}

func (l *Loopback) notifyLocked() {
	select {
	case l.changes <- struct{}{}:
	default:
	}
}
