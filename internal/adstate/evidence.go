package adstate

import (
	"fmt"
	"strings"
)

// DefaultMaxAdDuration is the longest media duration still treated as ad-length.
const DefaultMaxAdDuration = 120.0

// Evidence is one snapshot of ad markers observed on the player.
type Evidence struct {
	Overlay         bool    `json:"overlay"`
	AdText          bool    `json:"ad_text"`
	Countdown       bool    `json:"countdown"`
	SkipButton      bool    `json:"skip_button"`
	AdShowing       bool    `json:"ad_showing"`
	AdBadge         bool    `json:"ad_badge"`
	ContainerFlag   bool    `json:"container_flag"`
	DurationSeconds float64 `json:"duration_seconds"`
	// SkipVisible reports the skip button is rendered and clickable.
	SkipVisible bool `json:"skip_visible"`
}

// Indicators counts the independent ad markers present in the snapshot.
func (e Evidence) Indicators() int {
	count := 0
	for _, present := range []bool{e.Overlay, e.AdText, e.Countdown, e.SkipButton, e.AdShowing, e.AdBadge} {
		if present {
			count++
		}
	}
	return count
}

// Decision is the outcome of scoring one evidence snapshot.
type Decision struct {
	Indicators    int    `json:"indicators"`
	ShortDuration bool   `json:"short_duration"`
	Definite      bool   `json:"definite"`
	Reason        string `json:"reason"`
}

// Scorer evaluates evidence against a maximum ad duration.
type Scorer struct {
	MaxAdDuration float64
}

// Score evaluates evidence with the default maximum ad duration.
func Score(e Evidence) Decision {
	return Scorer{MaxAdDuration: DefaultMaxAdDuration}.Score(e)
}

// Score requires two markers, or the container flag plus one marker on
// ad-length media.
func (s Scorer) Score(e Evidence) Decision {
	maxDuration := s.MaxAdDuration
	if maxDuration <= 0 {
		maxDuration = DefaultMaxAdDuration
	}
	d := Decision{
		Indicators:    e.Indicators(),
		ShortDuration: e.DurationSeconds > 0 && e.DurationSeconds < maxDuration,
	}
	switch {
	case d.Indicators >= 2:
		d.Definite = true
		d.Reason = fmt.Sprintf("%d indicators", d.Indicators)
	case e.ContainerFlag && d.Indicators >= 1 && d.ShortDuration:
		d.Definite = true
		d.Reason = "container flag with indicator on short media"
	default:
		d.Reason = describeMiss(e, d)
	}
	return d
}

func describeMiss(e Evidence, d Decision) string {
	var parts []string
	parts = append(parts, fmt.Sprintf("%d indicators", d.Indicators))
	if e.ContainerFlag {
		parts = append(parts, "container flag")
	}
	if !d.ShortDuration {
		parts = append(parts, "not short")
	}
	return strings.Join(parts, ", ")
}
