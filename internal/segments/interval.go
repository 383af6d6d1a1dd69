package segments

import (
	"fmt"
	"math"
	"sort"
)

// Interval is a time range in stream-relative seconds.
type Interval struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Valid reports whether the interval is finite, non-negative, and ordered.
// Zero-width intervals are valid.
func (iv Interval) Valid() bool {
	if math.IsNaN(iv.Start) || math.IsNaN(iv.End) || math.IsInf(iv.Start, 0) || math.IsInf(iv.End, 0) {
		return false
	}
	return iv.Start >= 0 && iv.End >= iv.Start
}

// Contains reports whether pos falls in [Start, End).
func (iv Interval) Contains(pos float64) bool {
	return pos >= iv.Start && pos < iv.End
}

// Duration returns the interval length in seconds.
func (iv Interval) Duration() float64 {
	return iv.End - iv.Start
}

func (iv Interval) String() string {
	return fmt.Sprintf("[%g, %g]", iv.Start, iv.End)
}

// CategorizedInterval is an interval carrying its segment category.
type CategorizedInterval struct {
	Interval
	Category Category `json:"category"`
}

// SkipSet is a sorted list of strictly disjoint intervals.
type SkipSet []Interval

// DisplaySet is a sorted, unmerged list of categorized intervals.
type DisplaySet []CategorizedInterval

func less(a, b Interval) bool {
	if a.Start == b.Start {
		return a.End < b.End
	}
	return a.Start < b.Start
}

// Merge sorts a copy of intervals by start (ties by end) and collapses every
// run of touching or overlapping intervals into one. Invalid intervals are
// dropped before sorting.
func Merge(intervals []Interval) SkipSet {
	sorted := make([]Interval, 0, len(intervals))
	for _, iv := range intervals {
		if iv.Valid() {
			sorted = append(sorted, iv)
		}
	}
	if len(sorted) == 0 {
		return SkipSet{}
	}
	sort.Slice(sorted, func(i, j int) bool { return less(sorted[i], sorted[j]) })

	out := make(SkipSet, 0, len(sorted))
	cur := sorted[0]
	for _, next := range sorted[1:] {
		if cur.End < next.Start {
			out = append(out, cur)
			cur = next
			continue
		}
		cur.End = math.Max(cur.End, next.End)
	}
	return append(out, cur)
}

// SortByCategory returns a copy of intervals stably sorted by (start, end).
// Overlaps and duplicates are kept. Invalid intervals are dropped.
func SortByCategory(intervals []CategorizedInterval) DisplaySet {
	out := make(DisplaySet, 0, len(intervals))
	for _, iv := range intervals {
		if iv.Valid() {
			out = append(out, iv)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i].Interval, out[j].Interval) })
	return out
}

// Containing returns the interval holding pos, if any.
func (s SkipSet) Containing(pos float64) (Interval, bool) {
	// Disjoint and start-sorted, so the candidate is the last interval starting at or before pos.
	idx := sort.Search(len(s), func(i int) bool { return s[i].Start > pos })
	if idx == 0 {
		return Interval{}, false
	}
	candidate := s[idx-1]
	if candidate.Contains(pos) {
		return candidate, true
	}
	return Interval{}, false
}

// Total returns the summed length of the skip set.
func (s SkipSet) Total() float64 {
	var total float64
	for _, iv := range s {
		total += iv.Duration()
	}
	return total
}

// Intervals strips categories, keeping order.
func (d DisplaySet) Intervals() []Interval {
	out := make([]Interval, len(d))
	for i, iv := range d {
		out[i] = iv.Interval
	}
	return out
}

// Result bundles both views of one segment-source response.
type Result struct {
	Skip    SkipSet    `json:"skip"`
	Display DisplaySet `json:"display"`
}

// Empty reports whether the result carries no segments.
func (r Result) Empty() bool {
	return len(r.Skip) == 0 && len(r.Display) == 0
}

// Build derives the SkipSet and DisplaySet from raw categorized records.
func Build(records []CategorizedInterval) Result {
	raw := make([]Interval, len(records))
	for i, rec := range records {
		raw[i] = rec.Interval
	}
	return Result{
		Skip:    Merge(raw),
		Display: SortByCategory(records),
	}
}
