package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
	APIBind  string `toml:"api_bind"`
	// APIToken, when set, is required as a bearer token on every API request.
	APIToken string `toml:"api_token"`
}

// SponsorBlock configures the segment source.
type SponsorBlock struct {
	Enabled        bool     `toml:"enabled"`
	APIURL         string   `toml:"api_url"`
	Categories     []string `toml:"categories"`
	RequestTimeout int      `toml:"request_timeout"`
	CacheEnabled   bool     `toml:"cache_enabled"`
	CacheTTL       int      `toml:"cache_ttl"`
}

// AdSpeedup configures the ad-detection policy.
type AdSpeedup struct {
	Enabled          bool    `toml:"enabled"`
	CooldownMS       int     `toml:"cooldown_ms"`
	ThrottleMS       int     `toml:"throttle_ms"`
	PollIntervalMS   int     `toml:"poll_interval_ms"`
	EvidenceMaxAgeMS int     `toml:"evidence_max_age_ms"`
	FastForwardRate  float64 `toml:"fast_forward_rate"`
	MaxAdDuration    float64 `toml:"max_ad_duration"`
}

// Player configures the mpv IPC connection.
type Player struct {
	MPVSocket           string `toml:"mpv_socket"`
	ReconnectIntervalMS int    `toml:"reconnect_interval_ms"`
	ReconnectMaxRetry   int    `toml:"reconnect_max_retry"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for segskip.
//
// Configuration sections by subsystem:
//   - Paths: state/log directories and API bind address
//   - SponsorBlock: segment source URL, categories, and cache
//   - AdSpeedup: cooldown, throttle, and fast-forward policy
//   - Player: mpv socket and reconnect behavior
//   - Logging: log format and level
type Config struct {
	Paths        Paths        `toml:"paths"`
	SponsorBlock SponsorBlock `toml:"sponsorblock"`
	AdSpeedup    AdSpeedup    `toml:"ad_speedup"`
	Player       Player       `toml:"player"`
	Logging      Logging      `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/segskip/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("segskip.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// CachePath returns the segment cache database location.
func (c *Config) CachePath() string {
	return filepath.Join(c.Paths.StateDir, "segments.db")
}

// LockPath returns the daemon lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "segskip.lock")
}

// RequestTimeout returns the segment source HTTP timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.SponsorBlock.RequestTimeout) * time.Second
}

// CacheTTL returns how long cached segments stay fresh.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.SponsorBlock.CacheTTL) * time.Second
}

// Cooldown returns the ad-state hysteresis window.
func (c *Config) Cooldown() time.Duration {
	return time.Duration(c.AdSpeedup.CooldownMS) * time.Millisecond
}

// Throttle returns the minimum spacing between executed detection ticks.
func (c *Config) Throttle() time.Duration {
	return time.Duration(c.AdSpeedup.ThrottleMS) * time.Millisecond
}

// EvidenceMaxAge returns how long a companion post stays usable.
func (c *Config) EvidenceMaxAge() time.Duration {
	return time.Duration(c.AdSpeedup.EvidenceMaxAgeMS) * time.Millisecond
}

// PollInterval returns the detection tick cadence.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.AdSpeedup.PollIntervalMS) * time.Millisecond
}

// ReconnectInterval returns the delay between mpv connection attempts.
func (c *Config) ReconnectInterval() time.Duration {
	return time.Duration(c.Player.ReconnectIntervalMS) * time.Millisecond
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders the effective configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}
