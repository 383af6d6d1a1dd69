package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSponsorBlock()
	if err := c.normalizePlayer(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if value, ok := os.LookupEnv("SEGSKIP_API_TOKEN"); ok {
		c.Paths.APIToken = value
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	return nil
}

func (c *Config) normalizeSponsorBlock() {
	if value, ok := os.LookupEnv("SEGSKIP_SPONSORBLOCK_URL"); ok && strings.TrimSpace(value) != "" {
		c.SponsorBlock.APIURL = value
	}
	c.SponsorBlock.APIURL = strings.TrimRight(strings.TrimSpace(c.SponsorBlock.APIURL), "/")
	if c.SponsorBlock.APIURL == "" {
		c.SponsorBlock.APIURL = defaultSponsorBlockURL
	}

	categories := make([]string, 0, len(c.SponsorBlock.Categories))
	seen := make(map[string]struct{}, len(c.SponsorBlock.Categories))
	for _, category := range c.SponsorBlock.Categories {
		normalized := strings.ToLower(strings.TrimSpace(category))
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		categories = append(categories, normalized)
	}
	if len(categories) == 0 {
		categories = append(categories, defaultCategories...)
	}
	c.SponsorBlock.Categories = categories
}

func (c *Config) normalizePlayer() error {
	if value, ok := os.LookupEnv("SEGSKIP_MPV_SOCKET"); ok && strings.TrimSpace(value) != "" {
		c.Player.MPVSocket = value
	}
	c.Player.MPVSocket = strings.TrimSpace(c.Player.MPVSocket)
	if c.Player.MPVSocket == "" {
		c.Player.MPVSocket = defaultMPVSocket
	}
	if !strings.Contains(c.Player.MPVSocket, ":") {
		var err error
		if c.Player.MPVSocket, err = expandPath(c.Player.MPVSocket); err != nil {
			return fmt.Errorf("player.mpv_socket: %w", err)
		}
	}
	if c.Player.ReconnectIntervalMS <= 0 {
		c.Player.ReconnectIntervalMS = defaultReconnectIntervalMS
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
