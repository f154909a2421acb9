package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/tabprompt/internal/bridge"
	"github.com/verte-zerg/tabprompt/internal/clock"
	"github.com/verte-zerg/tabprompt/internal/glasses"
	"github.com/verte-zerg/tabprompt/internal/logs"
	"github.com/verte-zerg/tabprompt/internal/model"
)

func waitContent(t *testing.T, l *bridge.Loopback, want string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if l.State().Content == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("device content = %q, want %q", l.State().Content, want)
}

func writeTab(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write tab: %v", err)
	}
	return path
}

func testConfig(dir string) model.Config {
	return model.Config{
		LinesPerWindow: 2,
		ThrottleWindow: 100 * time.Millisecond,
		WidthCols:      48,
		Tempo:          model.DefaultTempo,
		LibraryDB:      filepath.Join(dir, "library.db"),
		LogLevel:       "info",
	}
}

func TestAppRingSession(t *testing.T) {
	dir := t.TempDir()
	path := writeTab(t, dir, "song.txt", "Title: Song\nArtist: Band\ne|--0--|\nB|--1--|")
	clk := clock.NewManual(time.Unix(0, 0))

	a, err := startApp(context.Background(), testConfig(dir), []string{path}, logs.Discard(), clk)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	defer a.Close()

	if got := a.device.State().Content; got != glasses.SplashView {
		t.Fatalf("expected splash on start, got %q", got)
	}

	if err := a.device.Emit(model.GestureTap); err != nil {
		t.Fatalf("tap: %v", err)
	}
	snap := a.session.Snapshot()
	if !snap.HasSelection() || snap.TotalWindows() != 2 {
		t.Fatalf("expected document selected with 2 windows, got %+v", snap)
	}
	waitContent(t, a.device, "Title: Song\nArtist: Band")

	if err := a.device.Emit(model.GestureDoubleTap); err != nil {
		t.Fatalf("double tap: %v", err)
	}
	if a.session.Snapshot().HasSelection() {
		t.Fatalf("expected double tap at start to leave the document")
	}
	clk.Advance(100 * time.Millisecond)
	waitContent(t, a.device, "Tabs (1)\n\n> Song - Band")

	if err := a.device.Emit(model.GestureDoubleTap); err != nil {
		t.Fatalf("double tap: %v", err)
	}
	if !a.session.Snapshot().ClosePromptActive {
		t.Fatalf("expected close prompt")
	}
	if err := a.device.Emit(model.GestureTap); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	select {
	case <-a.device.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("expected display shutdown after confirming close")
	}
}

func TestAppCatalogIncludesLibrary(t *testing.T) {
	dir := t.TempDir()
	tabs := filepath.Join(dir, "tabs")
	if err := os.MkdirAll(tabs, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeTab(t, tabs, "a.tab", "Title: From Dir\ne|--0--|")
	file := writeTab(t, dir, "b.txt", "Title: From Arg\ne|--2--|")

	cfg := testConfig(dir)
	cfg.LibraryDirs = []string{tabs, filepath.Join(dir, "missing")}
	a, err := startApp(context.Background(), cfg, []string{file, filepath.Join(dir, "nope.txt")}, logs.Discard(), clock.NewManual(time.Unix(0, 0)))
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	defer a.Close()

	var titles []string
	for _, doc := range a.session.Snapshot().Catalog {
		titles = append(titles, doc.Title)
	}
	if strings.Join(titles, ",") != "From Dir,From Arg" {
		t.Fatalf("unexpected catalog %v", titles)
	}
}
