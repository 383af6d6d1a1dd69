package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"segskip/internal/adstate"
	"segskip/internal/logging"
	"segskip/internal/mpv"
	"segskip/internal/segments"
	"segskip/internal/watch"
)

var (
	// ErrRunning is returned by Start on a running session.
	ErrRunning = errors.New("session already running")
	// ErrStopped is returned by calls that need the event loop when it is not running.
	ErrStopped = errors.New("session not running")
)

// DefaultEvidenceMaxAge bounds how long a companion post drives the machine
// without being refreshed.
const DefaultEvidenceMaxAge = 3 * time.Second

// Player is the playback sink a session drives.
type Player interface {
	adstate.Sink
	Seek(ctx context.Context, position float64) error
	Events() <-chan mpv.Event
	Close() error
}

// osd is implemented by players that can show on-screen messages.
type osd interface {
	ShowText(ctx context.Context, text string, durationMS int) error
}

// Connector opens a player connection.
type Connector func(ctx context.Context) (Player, error)

// SegmentSource resolves a video ID into skip and display sets.
type SegmentSource interface {
	Segments(ctx context.Context, videoID string) segments.Result
}

// Options configures a Session.
type Options struct {
	ID string
	// Connect opens the player. Nil runs the session without a player.
	Connect   Connector
	Reconnect watch.WaitOptions
	Source    SegmentSource

	SponsorBlock bool
	AdSpeedup    bool

	Watch   watch.Options
	Machine adstate.Options
	Scorer  adstate.Scorer
	// EvidenceMaxAge is how long a post counts before the board reads as empty.
	EvidenceMaxAge time.Duration

	// Display receives rendered progress markers in addition to the status snapshot.
	Display segments.DisplaySink
	Now     func() time.Time
	Logger  *slog.Logger
}

// Status is a point-in-time view of a session.
type Status struct {
	ID             string              `json:"id"`
	Running        bool                `json:"running"`
	Connected      bool                `json:"connected"`
	Source         string              `json:"source,omitempty"`
	VideoID        string              `json:"video_id,omitempty"`
	Position       float64             `json:"position"`
	Duration       float64             `json:"duration"`
	AdState        string              `json:"ad_state"`
	LastChange     time.Time           `json:"last_change,omitzero"`
	Skip           segments.SkipSet    `json:"skip"`
	Display        segments.DisplaySet `json:"display"`
	Markers        []segments.Marker   `json:"markers"`
	SegmentSkips   int                 `json:"segment_skips"`
	AdSkipRequests int                 `json:"ad_skip_requests"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// EvidenceReply answers a companion's evidence post.
type EvidenceReply struct {
	Ad         bool   `json:"ad"`
	Skip       bool   `json:"skip"`
	Indicators int    `json:"indicators"`
	Definite   bool   `json:"definite"`
	Reason     string `json:"reason"`
}

type command struct {
	fn   func(ctx context.Context)
	done chan struct{}
}

type fetchResult struct {
	generation uint64
	videoID    string
	result     segments.Result
}

// Session is one playback session.
type Session struct {
	opts    Options
	logger  *slog.Logger
	now     func() time.Time
	watcher *watch.Watcher
	board   *EvidenceBoard
	display *segments.Indicators
	created time.Time

	cmds      chan command
	fetched   chan fetchResult
	connected chan Player

	lifecycle sync.Mutex
	cancel    context.CancelFunc
	loopDone  chan struct{}
	wg        sync.WaitGroup

	statusMu sync.Mutex
	status   Status

	// Loop-owned state.
	player       Player
	events       <-chan mpv.Event
	connecting   bool
	machine      *adstate.Machine
	skip         segments.SkipSet
	videoID      string
	generation   uint64
	segmentSkips int
}

// New builds a stopped session.
func New(opts Options) *Session {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	watchOpts := opts.Watch
	if watchOpts.Now == nil {
		watchOpts.Now = now
	}
	if opts.Scorer.MaxAdDuration <= 0 {
		opts.Scorer.MaxAdDuration = adstate.DefaultMaxAdDuration
	}
	if opts.EvidenceMaxAge <= 0 {
		opts.EvidenceMaxAge = DefaultEvidenceMaxAge
	}

	s := &Session{
		opts:      opts,
		now:       now,
		watcher:   watch.New(watchOpts),
		created:   now(),
		cmds:      make(chan command),
		fetched:   make(chan fetchResult),
		connected: make(chan Player),
	}
	s.logger = logging.NewComponentLogger(opts.Logger, "session").With(logging.String(logging.FieldSessionID, opts.ID))
	s.board = NewEvidenceBoard(s.watcher.Notify)
	s.display = segments.NewIndicators(displayFunc(s.rendered))
	s.machine = adstate.NewMachine(noopSink{}, s.board, opts.Machine)
	s.status = Status{
		ID:        opts.ID,
		AdState:   adstate.StateNormal.String(),
		Skip:      segments.SkipSet{},
		Display:   segments.DisplaySet{},
		Markers:   []segments.Marker{},
		CreatedAt: s.created,
		UpdatedAt: s.created,
	}
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.opts.ID
}

// Board returns the evidence board companions post to.
func (s *Session) Board() *EvidenceBoard {
	return s.board
}

// Start launches the event loop. The loop ends when ctx is cancelled or Stop is called.
func (s *Session) Start(ctx context.Context) error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	if s.loopDone != nil {
		select {
		case <-s.loopDone:
		default:
			return ErrRunning
		}
	}

	loopCtx, cancel := context.WithCancel(ctx)
	ticks, err := s.watcher.Start(loopCtx)
	if err != nil {
		cancel()
		return err
	}

	s.cancel = cancel
	s.loopDone = make(chan struct{})
	s.wg.Add(1)
	go s.run(loopCtx, ticks, s.loopDone)
	s.logger.Info("session started",
		logging.Bool("sponsorblock", s.opts.SponsorBlock),
		logging.Bool("ad_speedup", s.opts.AdSpeedup),
	)
	return nil
}

// Stop ends the event loop and waits for it and its helpers to exit. Player
// mute and speed are restored if an ad was in progress.
func (s *Session) Stop() {
	s.lifecycle.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.lifecycle.Unlock()
	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
	s.watcher.Stop()
}

// Done is closed when the current event loop exits.
func (s *Session) Done() <-chan struct{} {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	if s.loopDone == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return s.loopDone
}

// Status returns the latest snapshot.
func (s *Session) Status() Status {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	out := s.status
	out.Skip = append(segments.SkipSet{}, s.status.Skip...)
	out.Display = append(segments.DisplaySet{}, s.status.Display...)
	out.Markers = append([]segments.Marker{}, s.status.Markers...)
	return out
}

// SourceChanged switches to a new video and fetches its segments. An empty ID
// clears the segments.
func (s *Session) SourceChanged(videoID string) error {
	return s.submit(func(ctx context.Context) { s.changeSource(ctx, "", videoID) })
}

// Position handles a playback position update, jumping past any skip interval it lands in.
func (s *Session) Position(position float64) error {
	return s.submit(func(ctx context.Context) { s.handlePosition(ctx, position) })
}

// DurationChanged records the media duration and re-renders the markers.
func (s *Session) DurationChanged(duration float64) error {
	return s.submit(func(context.Context) { s.handleDuration(duration) })
}

// Reset drops the current segments, as when playback of a media item ends.
func (s *Session) Reset() error {
	return s.submit(func(context.Context) { s.resetSegments("reset") })
}

// PostEvidence records a companion's evidence snapshot. The machine consumes it
// on the next detection tick; the reply carries the immediate score and any
// skip queued since the previous post.
func (s *Session) PostEvidence(e adstate.Evidence) EvidenceReply {
	decision := s.opts.Scorer.Score(e)
	skip := s.board.Post(e, s.now())
	s.statusMu.Lock()
	ad := s.status.AdState == adstate.StateAd.String()
	s.statusMu.Unlock()
	return EvidenceReply{
		Ad:         ad,
		Skip:       skip,
		Indicators: decision.Indicators,
		Definite:   decision.Definite,
		Reason:     decision.Reason,
	}
}

// Markers returns the current progress markers.
func (s *Session) Markers() []segments.Marker {
	markers := s.display.Current()
	if markers == nil {
		return []segments.Marker{}
	}
	return markers
}

func (s *Session) submit(fn func(ctx context.Context)) error {
	s.lifecycle.Lock()
	loopDone := s.loopDone
	s.lifecycle.Unlock()
	if loopDone == nil {
		return ErrStopped
	}

	cmd := command{fn: fn, done: make(chan struct{})}
	select {
	case s.cmds <- cmd:
	case <-loopDone:
		return ErrStopped
	}
	select {
	case <-cmd.done:
		return nil
	case <-loopDone:
		return ErrStopped
	}
}

func (s *Session) rendered(markers []segments.Marker) {
	s.statusMu.Lock()
	s.status.Markers = append([]segments.Marker{}, markers...)
	s.statusMu.Unlock()
	if s.opts.Display != nil {
		s.opts.Display.Render(markers)
	}
}

type displayFunc func([]segments.Marker)

func (f displayFunc) Render(markers []segments.Marker) { f(markers) }

// noopSink stands in for the player while none is attached.
type noopSink struct{}

func (noopSink) Muted(context.Context) (bool, error) { return false, nil }
func (noopSink) SetMuted(context.Context, bool) error { return nil }
func (noopSink) SetPlaybackRate(context.Context, float64) error { return nil }
