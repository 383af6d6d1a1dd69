package adstate

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	// DefaultCooldown is the minimum dwell time before a state is reversed.
	DefaultCooldown = time.Second
	// DefaultFastForwardRate is the playback rate applied during ads.
	DefaultFastForwardRate = 16.0
	normalRate             = 1.0
)

// State is the detector state.
type State int

const (
	StateNormal State = iota
	StateAd
)

func (s State) String() string {
	if s == StateAd {
		return "ad"
	}
	return "normal"
}

// Sink is the playback surface the machine controls.
type Sink interface {
	Muted(ctx context.Context) (bool, error)
	SetMuted(ctx context.Context, muted bool) error
	SetPlaybackRate(ctx context.Context, rate float64) error
}

// SkipControl exposes the player's skip affordance.
type SkipControl interface {
	SkipVisible() bool
	Skip(ctx context.Context) error
}

// Transition describes what one Step did.
type Transition int

const (
	TransitionNone Transition = iota
	TransitionEnterAd
	TransitionExitAd
	// TransitionSuppressed marks a change the cooldown held back.
	TransitionSuppressed
)

func (t Transition) String() string {
	switch t {
	case TransitionEnterAd:
		return "enter_ad"
	case TransitionExitAd:
		return "exit_ad"
	case TransitionSuppressed:
		return "suppressed"
	default:
		return "none"
	}
}

// Outcome reports the effect of one Step.
type Outcome struct {
	State      State
	Transition Transition
	Skipped    bool
}

// Options tunes the machine.
type Options struct {
	Cooldown        time.Duration
	FastForwardRate float64
}

// Machine is the hysteresis-gated ad state. It is not safe for concurrent
// use; callers serialize Step calls.
type Machine struct {
	sink     Sink
	skip     SkipControl
	cooldown time.Duration
	rate     float64

	isAd       bool
	lastChange time.Time
	preMuted   bool
}

// NewMachine builds a machine in the normal state. skip may be nil.
func NewMachine(sink Sink, skip SkipControl, opts Options) *Machine {
	cooldown := opts.Cooldown
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	rate := opts.FastForwardRate
	if rate <= 0 {
		rate = DefaultFastForwardRate
	}
	return &Machine{sink: sink, skip: skip, cooldown: cooldown, rate: rate}
}

// State returns the current state.
func (m *Machine) State() State {
	if m.isAd {
		return StateAd
	}
	return StateNormal
}

// LastChange returns the time of the last confirmed transition.
func (m *Machine) LastChange() time.Time {
	return m.lastChange
}

// PreMuted reports the mute state captured when the current ad began.
func (m *Machine) PreMuted() bool {
	return m.preMuted
}

// Reset returns to the normal state without touching the sink.
func (m *Machine) Reset() {
	m.isAd = false
	m.lastChange = time.Time{}
	m.preMuted = false
}

func (m *Machine) cooldownElapsed(now time.Time) bool {
	return m.lastChange.IsZero() || now.Sub(m.lastChange) >= m.cooldown
}

// Step consumes one definitive-ad decision. Sink failures are returned joined,
// but the transition is still committed so it does not fire again.
func (m *Machine) Step(ctx context.Context, definitelyAd bool, now time.Time) (Outcome, error) {
	out := Outcome{Transition: TransitionNone}
	var errs []error

	switch {
	case definitelyAd && !m.isAd:
		if !m.cooldownElapsed(now) {
			out.Transition = TransitionSuppressed
			break
		}
		errs = append(errs, m.enterAd(ctx, now)...)
		out.Transition = TransitionEnterAd
	case !definitelyAd && m.isAd:
		if !m.cooldownElapsed(now) {
			out.Transition = TransitionSuppressed
			break
		}
		errs = append(errs, m.exitAd(ctx, now)...)
		out.Transition = TransitionExitAd
	}

	if m.isAd && m.skip != nil && m.skip.SkipVisible() {
		if err := m.skip.Skip(ctx); err != nil {
			errs = append(errs, fmt.Errorf("skip: %w", err))
		} else {
			out.Skipped = true
		}
	}

	out.State = m.State()
	return out, errors.Join(errs...)
}

func (m *Machine) enterAd(ctx context.Context, now time.Time) []error {
	var errs []error
	m.isAd = true
	m.lastChange = now

	muted, err := m.sink.Muted(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("read mute: %w", err))
	}
	m.preMuted = muted

	if err := m.sink.SetMuted(ctx, true); err != nil {
		errs = append(errs, fmt.Errorf("mute: %w", err))
	}
	if err := m.sink.SetPlaybackRate(ctx, m.rate); err != nil {
		errs = append(errs, fmt.Errorf("fast forward: %w", err))
	}
	return errs
}

func (m *Machine) exitAd(ctx context.Context, now time.Time) []error {
	var errs []error
	m.isAd = false
	m.lastChange = now

	if !m.preMuted {
		if err := m.sink.SetMuted(ctx, false); err != nil {
			errs = append(errs, fmt.Errorf("unmute: %w", err))
		}
	}
	if err := m.sink.SetPlaybackRate(ctx, normalRate); err != nil {
		errs = append(errs, fmt.Errorf("restore rate: %w", err))
	}
	return errs
}

// Restore leaves the ad state immediately, ignoring the cooldown, and undoes
// the mute and speed changes. It is used when playback control is handed back,
// such as on shutdown. If the sink fails the machine stays in the ad state so
// the restore can be retried after Rebind.
func (m *Machine) Restore(ctx context.Context, now time.Time) error {
	if !m.isAd {
		return nil
	}
	prev := m.lastChange
	if errs := m.exitAd(ctx, now); len(errs) > 0 {
		m.isAd = true
		m.lastChange = prev
		return errors.Join(errs...)
	}
	return nil
}

// Rebind swaps the sink, keeping state and the captured pre-ad mute.
func (m *Machine) Rebind(sink Sink) {
	m.sink = sink
}
