package model

import "fmt"

// Gesture is a ring or system event delivered by the device bridge.
type Gesture int

// Gesture vocabulary.
const (
	GestureScrollDown Gesture = iota + 1
	GestureScrollUp
	GestureTap
	GestureDoubleTap
	GestureForegroundEnter
	GestureForegroundExit
)

var gestureNames = map[Gesture]string{
	GestureScrollDown:      "scrollDown",
	GestureScrollUp:        "scrollUp",
	GestureTap:             "tap",
	GestureDoubleTap:       "doubleTap",
	GestureForegroundEnter: "foregroundEnter",
	GestureForegroundExit:  "foregroundExit",
}

func (g Gesture) String() string {
	if name, ok := gestureNames[g]; ok {
		return name
	}
	return fmt.Sprintf("gesture(%d)", int(g))
}

// ParseGesture maps a gesture name back to its value.
func ParseGesture(name string) (Gesture, error) {
	for g, n := range gestureNames {
		if n == name {
			return g, nil
		}
	}
	return 0, fmt.Errorf("unknown gesture %q", name)
}
