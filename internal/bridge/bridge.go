// Package bridge defines the contract with the head-worn display and
// provides an in-process simulated device.
package bridge

import (
	"context"
	"errors"

	"github.com/verte-zerg/tabprompt/internal/model"
)

var (
	// ErrNotReady is returned by calls made before the bridge is available.
	ErrNotReady = errors.New("device bridge not ready")
	// ErrShutdown is returned by calls made after the display was shut down.
	ErrShutdown = errors.New("device display shut down")
)

// TextContainer describes a full-screen text surface on the device.
type TextContainer struct {
	ID           int
	Name         string
	X, Y         int
	Width        int
	Height       int
	Padding      int
	EventCapture bool
	Content      string
}

// CreateResult reports the outcome of creating the display page.
type CreateResult int

// Create results.
const (
	CreateSuccess CreateResult = iota
	CreateInvalid
	CreateOversize
	CreateOutOfMemory
)

func (r CreateResult) String() string {
	switch r {
	case CreateSuccess:
		return "success"
	case CreateInvalid:
		return "invalid"
	case CreateOversize:
		return "oversize"
	case CreateOutOfMemory:
		return "out-of-memory"
	default:
		return "unknown"
	}
}

// Bridge is the device side of the system.
type Bridge interface {
	// CreateDisplay creates the page holding the text containers.
	CreateDisplay(ctx context.Context, containers []TextContainer) (CreateResult, error)
	// PushText replaces the content of an existing container.
	PushText(ctx context.Context, containerID int, containerName, content string) (bool, error)
	// Shutdown closes the display page.
	Shutdown(ctx context.Context, exitMode int) (bool, error)
	// OnGesture registers fn for every gesture the device reports.
	OnGesture(fn func(model.Gesture)) model.Disposer
	// Ready reports whether the bridge is usable.
	Ready() bool
}
