// Package model defines shared data structures.
package model

import "time"

// Tempo bounds in beats per minute.
const (
	MinTempo     = 40
	MaxTempo     = 300
	DefaultTempo = 120
)

// BeatsPerMeasure is the number of beats between window advances (4/4 time).
const BeatsPerMeasure = 4

// Document is a loaded tab file. Documents are never mutated after creation.
type Document struct {
	ID        string
	Title     string
	Artist    string
	Tuning    string
	Tempo     int // 0 when the file carries no tempo hint
	Content   string
	CreatedAt time.Time
}

// HasTempo reports whether the document carries a tempo hint.
func (d Document) HasTempo() bool {
	return d.Tempo > 0
}

// Config defines runtime settings for a playback session.
type Config struct {
	LinesPerWindow int
	ThrottleWindow time.Duration
	WidthCols      int
	Tempo          int
	LibraryDirs    []string
	LibraryDB      string
	BridgeListen   string
	LogLevel       string
	LogFile        string
}

// ClampTempo limits v to [MinTempo, MaxTempo].
func ClampTempo(v int) int {
	return max(MinTempo, min(MaxTempo, v))
}
