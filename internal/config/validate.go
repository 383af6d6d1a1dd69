package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSponsorBlock(); err != nil {
		return err
	}
	if err := c.validateAdSpeedup(); err != nil {
		return err
	}
	if err := c.validatePlayer(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSponsorBlock() error {
	if !c.SponsorBlock.Enabled {
		return nil
	}
	parsed, err := url.Parse(c.SponsorBlock.APIURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("sponsorblock.api_url must be an absolute URL, got %q", c.SponsorBlock.APIURL)
	}
	if c.SponsorBlock.RequestTimeout <= 0 {
		return errors.New("sponsorblock.request_timeout must be positive (seconds)")
	}
	if c.SponsorBlock.CacheTTL < 0 {
		return errors.New("sponsorblock.cache_ttl must be >= 0")
	}
	return nil
}

func (c *Config) validateAdSpeedup() error {
	if !c.AdSpeedup.Enabled {
		return nil
	}
	if err := ensurePositiveMap(map[string]int{
		"ad_speedup.cooldown_ms":         c.AdSpeedup.CooldownMS,
		"ad_speedup.throttle_ms":         c.AdSpeedup.ThrottleMS,
		"ad_speedup.poll_interval_ms":    c.AdSpeedup.PollIntervalMS,
		"ad_speedup.evidence_max_age_ms": c.AdSpeedup.EvidenceMaxAgeMS,
	}); err != nil {
		return err
	}
	if c.AdSpeedup.FastForwardRate < 1 {
		return errors.New("ad_speedup.fast_forward_rate must be >= 1")
	}
	if c.AdSpeedup.MaxAdDuration <= 0 {
		return errors.New("ad_speedup.max_ad_duration must be positive (seconds)")
	}
	return nil
}

func (c *Config) validatePlayer() error {
	if c.Player.ReconnectMaxRetry < 0 {
		return errors.New("player.reconnect_max_retry must be >= 0 (0 retries forever)")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
