package mpv

import (
	"context"
	"encoding/json"
	"fmt"
)

// Observed property IDs.
const (
	observeTimePos = iota + 1
	observeDuration
	observePath
)

// Observe subscribes to the properties the session loop consumes.
func (c *Client) Observe(ctx context.Context) error {
	props := []struct {
		id   int
		name string
	}{
		{observeTimePos, "time-pos"},
		{observeDuration, "duration"},
		{observePath, "path"},
	}
	for _, p := range props {
		if _, err := c.Command(ctx, "observe_property", p.id, p.name); err != nil {
			return fmt.Errorf("observe %s: %w", p.name, err)
		}
	}
	return nil
}

// GetFloat reads a numeric property.
func (c *Client) GetFloat(ctx context.Context, name string) (float64, error) {
	data, err := c.Command(ctx, "get_property", name)
	if err != nil {
		return 0, err
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return 0, fmt.Errorf("decode %s: %w", name, err)
	}
	return v, nil
}

// GetBool reads a flag property.
func (c *Client) GetBool(ctx context.Context, name string) (bool, error) {
	data, err := c.Command(ctx, "get_property", name)
	if err != nil {
		return false, err
	}
	var v bool
	if err := json.Unmarshal(data, &v); err != nil {
		return false, fmt.Errorf("decode %s: %w", name, err)
	}
	return v, nil
}

// GetString reads a string property.
func (c *Client) GetString(ctx context.Context, name string) (string, error) {
	data, err := c.Command(ctx, "get_property", name)
	if err != nil {
		return "", err
	}
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return "", fmt.Errorf("decode %s: %w", name, err)
	}
	return v, nil
}

// SetProperty writes a property.
func (c *Client) SetProperty(ctx context.Context, name string, value any) error {
	_, err := c.Command(ctx, "set_property", name, value)
	return err
}

// Position returns the playback position in seconds.
func (c *Client) Position(ctx context.Context) (float64, error) {
	return c.GetFloat(ctx, "time-pos")
}

// Duration returns the media duration in seconds.
func (c *Client) Duration(ctx context.Context) (float64, error) {
	return c.GetFloat(ctx, "duration")
}

// Seek jumps to an absolute position in seconds.
func (c *Client) Seek(ctx context.Context, position float64) error {
	_, err := c.Command(ctx, "seek", position, "absolute")
	return err
}

// Muted reports the player's mute flag.
func (c *Client) Muted(ctx context.Context) (bool, error) {
	return c.GetBool(ctx, "mute")
}

// SetMuted sets the player's mute flag.
func (c *Client) SetMuted(ctx context.Context, muted bool) error {
	return c.SetProperty(ctx, "mute", muted)
}

// SetPlaybackRate sets the playback speed multiplier.
func (c *Client) SetPlaybackRate(ctx context.Context, rate float64) error {
	return c.SetProperty(ctx, "speed", rate)
}

// ShowText displays an OSD message for the given milliseconds.
func (c *Client) ShowText(ctx context.Context, text string, durationMS int) error {
	_, err := c.Command(ctx, "show-text", text, durationMS)
	return err
}
