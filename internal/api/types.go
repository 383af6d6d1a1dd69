package api

import (
	"time"

	"segskip/internal/segments"
	"segskip/internal/session"
)

// Health reports daemon liveness.
type Health struct {
	Status       string `json:"status"`
	Sessions     int    `json:"sessions"`
	SponsorBlock bool   `json:"sponsorblock"`
	AdSpeedup    bool   `json:"ad_speedup"`
}

// SessionView is the transport form of a session status.
type SessionView struct {
	ID             string              `json:"id"`
	Running        bool                `json:"running"`
	Connected      bool                `json:"connected"`
	Source         string              `json:"source,omitempty"`
	VideoID        string              `json:"video_id,omitempty"`
	Position       float64             `json:"position"`
	Duration       float64             `json:"duration"`
	AdState        string              `json:"ad_state"`
	LastChange     string              `json:"last_change,omitempty"`
	Skip           segments.SkipSet    `json:"skip"`
	Display        segments.DisplaySet `json:"display"`
	SegmentSkips   int                 `json:"segment_skips"`
	AdSkipRequests int                 `json:"ad_skip_requests"`
	CreatedAt      string              `json:"created_at"`
	UpdatedAt      string              `json:"updated_at"`
}

// SegmentsView is the resolved segment data for one video.
type SegmentsView struct {
	VideoID string              `json:"video_id"`
	Skip    segments.SkipSet    `json:"skip"`
	Display segments.DisplaySet `json:"display"`
}

// FromStatus converts a session snapshot.
func FromStatus(st session.Status) SessionView {
	return SessionView{
		ID:             st.ID,
		Running:        st.Running,
		Connected:      st.Connected,
		Source:         st.Source,
		VideoID:        st.VideoID,
		Position:       st.Position,
		Duration:       st.Duration,
		AdState:        st.AdState,
		LastChange:     formatTime(st.LastChange),
		Skip:           nonNilSkip(st.Skip),
		Display:        nonNilDisplay(st.Display),
		SegmentSkips:   st.SegmentSkips,
		AdSkipRequests: st.AdSkipRequests,
		CreatedAt:      formatTime(st.CreatedAt),
		UpdatedAt:      formatTime(st.UpdatedAt),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

func nonNilSkip(s segments.SkipSet) segments.SkipSet {
	if s == nil {
		return segments.SkipSet{}
	}
	return s
}

func nonNilDisplay(d segments.DisplaySet) segments.DisplaySet {
	if d == nil {
		return segments.DisplaySet{}
	}
	return d
}
