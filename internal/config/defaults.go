package config

const (
	defaultStateDir            = "~/.local/share/segskip"
	defaultLogDir              = "~/.local/share/segskip/logs"
	defaultAPIBind             = "127.0.0.1:7490"
	defaultSponsorBlockURL     = "https://sponsor.ajay.app"
	defaultRequestTimeout      = 10
	defaultCacheTTL            = 3600
	defaultCooldownMS          = 1000
	defaultThrottleMS          = 500
	defaultPollIntervalMS      = 500
	defaultEvidenceMaxAgeMS    = 3000
	defaultFastForwardRate     = 16.0
	defaultMaxAdDuration       = 120.0
	defaultMPVSocket           = "/tmp/mpv-socket"
	defaultReconnectIntervalMS = 1000
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

var defaultCategories = []string{
	"sponsor",
	"intro",
	"outro",
	"interaction",
	"selfpromo",
	"music_offtopic",
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
			APIBind:  defaultAPIBind,
		},
		SponsorBlock: SponsorBlock{
			Enabled:        true,
			APIURL:         defaultSponsorBlockURL,
			Categories:     append([]string(nil), defaultCategories...),
			RequestTimeout: defaultRequestTimeout,
			CacheEnabled:   true,
			CacheTTL:       defaultCacheTTL,
		},
		AdSpeedup: AdSpeedup{
			Enabled:          true,
			CooldownMS:       defaultCooldownMS,
			ThrottleMS:       defaultThrottleMS,
			PollIntervalMS:   defaultPollIntervalMS,
			EvidenceMaxAgeMS: defaultEvidenceMaxAgeMS,
			FastForwardRate:  defaultFastForwardRate,
			MaxAdDuration:    defaultMaxAdDuration,
		},
		Player: Player{
			MPVSocket:           defaultMPVSocket,
			ReconnectIntervalMS: defaultReconnectIntervalMS,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
