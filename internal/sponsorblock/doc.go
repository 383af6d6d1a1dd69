// Package sponsorblock fetches community-submitted skip segments for a video.
//
// Client talks to the skipSegments endpoint. Source layers the optional
// segment cache on top and never fails: any fetch problem is logged and
// yields an empty result, so playback continues without skipping.
package sponsorblock
