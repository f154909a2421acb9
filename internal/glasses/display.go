// Package glasses drives the single full-screen text container on the
// head-worn display.
package glasses

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/verte-zerg/tabprompt/internal/bridge"
	"github.com/verte-zerg/tabprompt/internal/clock"
	"github.com/verte-zerg/tabprompt/internal/throttle"
)

// Container geometry.
const (
	ContainerID   = 1
	ContainerName = "tab_content"
	CanvasWidth   = 576
	CanvasHeight  = 288
	Padding       = 8
)

// Display owns the text container and paces updates to it.
type Display struct {
	bridge   bridge.Bridge
	throttle *throttle.Throttle
	log      *slog.Logger
	ready    atomic.Bool
}

// NewDisplay returns a Display whose updates are spaced at least window
// apart.
func NewDisplay(b bridge.Bridge, clk clock.Clock, window time.Duration, logger *slog.Logger) *Display {
	d := &Display{bridge: b, log: logger}
	d.throttle = throttle.New(clk, window, d.send, logger)
	return d
}

// Init creates the container showing initial. When the bridge is missing or
// rejects the page the Display stays not ready: later updates fail quietly
// and local state is unaffected.
func (d *Display) Init(ctx context.Context, initial string) error {
	if !d.bridge.Ready() {
		d.log.Warn("device bridge not available; running without display")
		return bridge.ErrNotReady
	}
	res, err := d.bridge.CreateDisplay(ctx, []bridge.TextContainer{{
		ID:           ContainerID,
		Name:         ContainerName,
		Width:        CanvasWidth,
		Height:       CanvasHeight,
		Padding:      Padding,
		EventCapture: true,
		Content:      initial,
	}})
	if err != nil {
		d.log.Warn("create display failed", "error", err)
		return fmt.Errorf("create display: %w", err)
	}
	if res != bridge.CreateSuccess {
		d.log.Warn("create display rejected", "result", res.String())
		return fmt.Errorf("create display: %s", res)
	}
	d.ready.Store(true)
	d.log.Info("display initialized")
	return nil
}

// Ready reports whether the container exists.
func (d *Display) Ready() bool {
	return d.ready.Load()
}

// Push queues content for the container.
func (d *Display) Push(content string) {
	d.throttle.Push(content)
}

// Shutdown closes the display page on the device.
func (d *Display) Shutdown(ctx context.Context) error {
	d.throttle.Close()
	if _, err := d.bridge.Shutdown(ctx, 0); err != nil {
		return fmt.Errorf("shutdown display: %w", err)
	}
	return nil
}

// Close stops pending updates without touching the device.
func (d *Display) Close() {
	d.throttle.Close()
}

func (d *Display) send(ctx context.Context, content string) error {
	if !d.Ready() {
		return bridge.ErrNotReady
	}
	ok, err := d.bridge.PushText(ctx, ContainerID, ContainerName, content)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("container %d rejected update", ContainerID)
	}
	return nil
}
