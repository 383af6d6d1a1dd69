package segments

import (
	"fmt"
	"math"
	"sync"
)

// Marker is one proportional progress-bar indicator.
type Marker struct {
	Category     Category `json:"category"`
	Color        string   `json:"color"`
	LeftPercent  float64  `json:"left_percent"`
	WidthPercent float64  `json:"width_percent"`
	Title        string   `json:"title"`
}

// Markers lays out display intervals against the media duration. It returns
// nil when the duration is unknown.
func Markers(display DisplaySet, duration float64) []Marker {
	if duration <= 0 || math.IsNaN(duration) || math.IsInf(duration, 0) {
		return nil
	}
	out := make([]Marker, 0, len(display))
	for _, seg := range display {
		out = append(out, Marker{
			Category:     seg.Category,
			Color:        seg.Category.Color(),
			LeftPercent:  seg.Start / duration * 100,
			WidthPercent: seg.Duration() / duration * 100,
			Title:        fmt.Sprintf("%s: %.1fs - %.1fs", seg.Category, seg.Start, seg.End),
		})
	}
	return out
}

// DisplaySink receives rendered markers. An empty slice clears the display.
type DisplaySink interface {
	Render(markers []Marker)
}

// Indicators keeps the latest DisplaySet and duration and re-renders into the
// sink whenever either changes.
type Indicators struct {
	mu       sync.Mutex
	sink     DisplaySink
	display  DisplaySet
	duration float64
	rendered bool
}

// NewIndicators returns indicators bound to sink. A nil sink discards output.
func NewIndicators(sink DisplaySink) *Indicators {
	return &Indicators{sink: sink}
}

// SetSegments replaces the displayed segments.
func (in *Indicators) SetSegments(display DisplaySet) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.display = append(DisplaySet(nil), display...)
	in.renderLocked()
}

// SetDuration records the media duration, re-rendering when it changes.
func (in *Indicators) SetDuration(duration float64) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if duration == in.duration && in.rendered {
		return
	}
	in.duration = duration
	in.renderLocked()
}

// Clear drops segments and clears the sink.
func (in *Indicators) Clear() {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.display = nil
	in.renderLocked()
}

// Current returns the markers for the current state.
func (in *Indicators) Current() []Marker {
	in.mu.Lock()
	defer in.mu.Unlock()
	return Markers(in.display, in.duration)
}

func (in *Indicators) renderLocked() {
	markers := Markers(in.display, in.duration)
	// Without a duration the segments stay pending until metadata arrives.
	in.rendered = markers != nil
	if in.sink == nil {
		return
	}
	if markers == nil {
		markers = []Marker{}
	}
	in.sink.Render(markers)
}
