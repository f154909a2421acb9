package model

import "testing"

func TestClampTempo(t *testing.T) {
	cases := map[int]int{500: 300, 10: 40, 120: 120, 40: 40, 300: 300}
	for in, want := range cases {
		if got := ClampTempo(in); got != want {
			t.Fatalf("ClampTempo(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestDisposerIdempotent(t *testing.T) {
	calls := 0
	d := NewDisposer(func() { calls++ })
	d.Release()
	d.Release()
	if calls != 1 {
		t.Fatalf("expected one release, got %d", calls)
	}
	var zero Disposer
	zero.Release()
}

func TestParseGesture(t *testing.T) {
	for _, g := range []Gesture{GestureScrollDown, GestureScrollUp, GestureTap, GestureDoubleTap, GestureForegroundEnter, GestureForegroundExit} {
		parsed, err := ParseGesture(g.String())
		if err != nil {
			t.Fatalf("parse %s: %v", g, err)
		}
		if parsed != g {
			t.Fatalf("expected %s, got %s", g, parsed)
		}
	}
	if _, err := ParseGesture("wave"); err == nil {
		t.Fatalf("expected error for unknown gesture")
	}
}
