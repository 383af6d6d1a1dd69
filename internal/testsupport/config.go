package testsupport

import (
	"path/filepath"
	"testing"

	"segskip/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The API binds an ephemeral port and the segment server points at an address
// nothing listens on, so tests never touch the network by accident.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.SponsorBlock.APIURL = "http://127.0.0.1:1"
	cfgVal.SponsorBlock.RequestTimeout = 1
	cfgVal.Player.MPVSocket = filepath.Join(base, "mpv.sock")
	cfgVal.Player.ReconnectIntervalMS = 20

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithSponsorBlockURL points the segment source at url, typically an httptest server.
func WithSponsorBlockURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.SponsorBlock.APIURL = url
	}
}

// WithMPVSocket overrides the player IPC socket.
func WithMPVSocket(path string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Player.MPVSocket = path
	}
}

// WithAPIToken requires a bearer token on the API.
func WithAPIToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.APIToken = token
	}
}

// WithoutCache disables the segment cache.
func WithoutCache() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.SponsorBlock.CacheEnabled = false
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
