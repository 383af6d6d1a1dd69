package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"

	"segskip/internal/adstate"
	"segskip/internal/api"
	"segskip/internal/config"
	"segskip/internal/logging"
	"segskip/internal/mpv"
	"segskip/internal/preflight"
	"segskip/internal/segcache"
	"segskip/internal/session"
	"segskip/internal/sponsorblock"
	"segskip/internal/watch"
)

// Daemon owns the segment source, the session manager, and the API server.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	cache   *segcache.Store
	source  *sponsorblock.Source
	manager *session.Manager
	api     *apiServer

	lockPath string
	lock     *flock.Flock

	mu      sync.Mutex
	wg      sync.WaitGroup
	running atomic.Bool
	cancel  context.CancelFunc
	primary *session.Session
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	LockFilePath string
	CachePath    string
	APIAddress   string
	Sessions     []session.Status
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires config")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		lockPath: cfg.LockPath(),
		lock:     flock.New(cfg.LockPath()),
	}

	if cfg.SponsorBlock.Enabled {
		var cache sponsorblock.Cache
		if cfg.SponsorBlock.CacheEnabled {
			store, err := segcache.Open(cfg.CachePath(), segcache.Options{TTL: cfg.CacheTTL()})
			if err != nil {
				return nil, fmt.Errorf("open segment cache: %w", err)
			}
			d.cache = store
			cache = store
		}
		d.source = sponsorblock.NewSource(sponsorblock.NewConfiguredClient(cfg), cache, logger)
	}

	opts := SessionOptions(cfg, logger)
	if d.source != nil {
		opts.Source = d.source
	}
	d.manager = session.NewManager(opts)

	var source api.SegmentSource
	if d.source != nil {
		source = d.source
	}
	handler := api.NewHandler(d.manager, source, api.Options{
		SponsorBlock: cfg.SponsorBlock.Enabled,
		AdSpeedup:    cfg.AdSpeedup.Enabled,
	}, logger)
	d.api = newAPIServer(cfg, handler, logger)
	return d, nil
}

// SessionOptions translates configuration into session options. The
// connector dials the configured mpv socket.
func SessionOptions(cfg *config.Config, logger *slog.Logger) session.Options {
	return session.Options{
		Connect: MPVConnector(cfg.Player.MPVSocket, logger),
		Reconnect: watch.WaitOptions{
			MaxRetry:      cfg.Player.ReconnectMaxRetry,
			RetryInterval: cfg.ReconnectInterval(),
		},
		SponsorBlock: cfg.SponsorBlock.Enabled,
		AdSpeedup:    cfg.AdSpeedup.Enabled,
		Watch: watch.Options{
			Interval: cfg.PollInterval(),
			Throttle: cfg.Throttle(),
		},
		Machine: adstate.Options{
			Cooldown:        cfg.Cooldown(),
			FastForwardRate: cfg.AdSpeedup.FastForwardRate,
		},
		Scorer:         adstate.Scorer{MaxAdDuration: cfg.AdSpeedup.MaxAdDuration},
		EvidenceMaxAge: cfg.EvidenceMaxAge(),
		Logger:         logger,
	}
}

// MPVConnector dials socketPath and subscribes to the properties sessions consume.
func MPVConnector(socketPath string, logger *slog.Logger) session.Connector {
	return func(ctx context.Context) (session.Player, error) {
		client, err := mpv.Dial(ctx, socketPath, logger)
		if err != nil {
			return nil, err
		}
		if err := client.Observe(ctx); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("observe mpv properties: %w", err)
		}
		return client, nil
	}
}

// Start acquires the daemon lock, attaches the primary session, and serves the API.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another segskip daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	primary, err := d.manager.Create(runCtx, nil)
	if err != nil {
		cancel()
		_ = d.lock.Unlock()
		return fmt.Errorf("start session: %w", err)
	}
	if err := d.api.start(runCtx); err != nil {
		cancel()
		d.manager.StopAll()
		_ = d.lock.Unlock()
		return err
	}

	d.cancel = cancel
	d.primary = primary
	d.running.Store(true)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.logPreflight(runCtx)
	}()
	d.logger.Info("segskip daemon started",
		logging.String("lock", d.lockPath),
		logging.String("mpv_socket", d.cfg.Player.MPVSocket),
		logging.String(logging.FieldSessionID, primary.ID()),
	)
	return nil
}

// Stop stops sessions and the API server and releases the daemon lock.
func (d *Daemon) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.manager.StopAll()
	d.api.stop()
	d.wg.Wait()
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release daemon lock", "lock_release_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove "+d.lockPath+" if the next start fails"),
		)
	}
	d.primary = nil
	d.running.Store(false)
	d.logger.Info("segskip daemon stopped")
}

func (d *Daemon) logPreflight(ctx context.Context) {
	for _, result := range preflight.Failed(preflight.RunAll(ctx, d.cfg)) {
		if ctx.Err() != nil {
			return
		}
		logging.WarnWithContext(d.logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldImpact, "feature degraded until the check passes"),
		)
	}
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.cache != nil {
		return d.cache.Close()
	}
	return nil
}

// Run starts the daemon and blocks until ctx is cancelled.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	d.Stop()
	return nil
}

// Primary returns the session attached to the configured socket while running.
func (d *Daemon) Primary() *session.Session {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.primary
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	sessions := d.manager.List()
	statuses := make([]session.Status, 0, len(sessions))
	for _, sess := range sessions {
		statuses = append(statuses, sess.Status())
	}
	status := Status{
		Running:      d.running.Load(),
		LockFilePath: d.lockPath,
		APIAddress:   d.api.addr(),
		Sessions:     statuses,
	}
	if d.cache != nil {
		status.CachePath = d.cache.Path()
	}
	return status
}
