// Package segments turns labeled time ranges from the segment source into the
// two views playback needs.
//
// Merge produces the SkipSet: a sorted list of disjoint intervals the player
// jumps over. Touching or overlapping ranges collapse into one, gapped ranges
// stay separate. SortByCategory produces the DisplaySet: the same ranges in
// start order with their categories intact and nothing merged, so overlapping
// sponsor and intro ranges each keep their own marker.
//
// Both functions work on copies and are safe to call from any goroutine.
// Indicators converts a DisplaySet into proportional progress-bar markers.
package segments
