package glasses

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/tabprompt/internal/bridge"
	"github.com/verte-zerg/tabprompt/internal/clock"
	"github.com/verte-zerg/tabprompt/internal/model"
	"github.com/verte-zerg/tabprompt/internal/session"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

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

func catalogSnapshot(n, cursor int) session.Snapshot {
	docs := make([]model.Document, n)
	for i := range docs {
		docs[i] = model.Document{ID: fmt.Sprint(i), Title: fmt.Sprintf("Song %d", i), Artist: "Band"}
	}
	return session.Snapshot{Catalog: docs, CatalogCursor: cursor}
}

func TestCatalogViewMarksCursor(t *testing.T) {
	out := CatalogView(catalogSnapshot(3, 1), 40, 18)
	lines := strings.Split(out, "\n")
	if lines[0] != "Tabs (3)" {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if lines[3] != "> Song 1 - Band" || lines[2] != "  Song 0 - Band" {
		t.Fatalf("unexpected rows: %q", lines)
	}
}

func TestCatalogViewScrollsToCursor(t *testing.T) {
	out := CatalogView(catalogSnapshot(40, 39), 40, 10)
	lines := strings.Split(out, "\n")
	if len(lines) != 10 {
		t.Fatalf("expected 10 lines, got %d", len(lines))
	}
	if lines[len(lines)-1] != "> Song 39 - Band" {
		t.Fatalf("expected cursor row visible at bottom, got %q", lines[len(lines)-1])
	}
}

func TestCatalogViewClipsWidth(t *testing.T) {
	snap := session.Snapshot{Catalog: []model.Document{{ID: "x", Title: strings.Repeat("長", 30)}}}
	out := CatalogView(snap, 20, 18)
	for _, line := range strings.Split(out, "\n") {
		if w := displayWidth(line); w > 20 {
			t.Fatalf("line %q wider than 20 cells (%d)", line, w)
		}
	}
}

func TestCatalogViewEmpty(t *testing.T) {
	if got := CatalogView(session.Snapshot{}, 0, 0); got != EmptyCatalog {
		t.Fatalf("expected empty catalog view, got %q", got)
	}
}

func TestDisplayPushesThroughBridge(t *testing.T) {
	l := bridge.NewLoopback()
	d := NewDisplay(l, clock.Real{}, 10*time.Millisecond, discardLogger())
	if err := d.Init(context.Background(), SplashView); err != nil {
		t.Fatalf("init: %v", err)
	}
	if !d.Ready() || l.State().Content != SplashView {
		t.Fatalf("expected splash on device, got %+v", l.State())
	}
	d.Push("one")
	d.Push("two")
	waitContent(t, l, "two")

	if err := d.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if !l.State().Shutdown {
		t.Fatalf("expected device shut down")
	}
}

type offlineBridge struct{ *bridge.Loopback }

func (*offlineBridge) Ready() bool { return false }

func TestDisplayWithoutBridge(t *testing.T) {
	b := &offlineBridge{Loopback: bridge.NewLoopback()}
	d := NewDisplay(b, clock.Real{}, 10*time.Millisecond, discardLogger())
	if err := d.Init(context.Background(), SplashView); !errors.Is(err, bridge.ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
	if d.Ready() {
		t.Fatalf("expected display not ready")
	}
	d.Push("ignored")
	d.Close()
}

type pushRecorder struct{ pushes []string }

func (p *pushRecorder) Push(content string) { p.pushes = append(p.pushes, content) }

func TestMirrorFollowsCurrentWindow(t *testing.T) {
	st := session.New(session.Options{LinesPerWindow: 1})
	st.AddDocument(model.Document{ID: "a", Content: "one\ntwo"})
	rec := &pushRecorder{}
	dispose := Mirror(st, rec)
	defer dispose.Release()

	st.SelectDocument("a")
	st.NextWindow()
	st.SetTempo(90)
	st.DeselectDocument()
	if len(rec.pushes) != 2 || rec.pushes[0] != "one" || rec.pushes[1] != "two" {
		t.Fatalf("unexpected pushes %q", rec.pushes)
	}
}
