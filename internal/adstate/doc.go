// Package adstate decides when playback is inside an advertisement and drives
// the mute/fast-forward policy.
//
// Score combines independent boolean markers into a single decision. Machine
// consumes that decision once per tick and only acts on confirmed transitions:
// entering the ad state mutes and speeds up the sink, leaving it restores the
// pre-ad mute state and normal speed. A cooldown between transitions absorbs
// marker flicker during player animations.
package adstate
