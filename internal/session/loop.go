package session

import (
	"context"
	"fmt"
	"time"

	"segskip/internal/adstate"
	"segskip/internal/logging"
	"segskip/internal/mpv"
	"segskip/internal/segments"
	"segskip/internal/sponsorblock"
	"segskip/internal/watch"
)

const restoreTimeout = 2 * time.Second

func (s *Session) run(ctx context.Context, ticks <-chan time.Time, loopDone chan struct{}) {
	defer s.wg.Done()
	defer close(loopDone)
	defer s.shutdown()

	s.setRunning(true)
	s.maybeConnect(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case tick, ok := <-ticks:
			if !ok {
				ticks = nil
				continue
			}
			s.detect(ctx, tick)
		case cmd := <-s.cmds:
			cmd.fn(ctx)
			close(cmd.done)
		case res := <-s.fetched:
			s.applySegments(res)
		case player := <-s.connected:
			s.attach(ctx, player)
		case event, ok := <-s.events:
			if !ok {
				s.detach(ctx, "player connection closed")
				s.maybeConnect(ctx)
				continue
			}
			s.handleEvent(ctx, event)
		}
	}
}

func (s *Session) maybeConnect(ctx context.Context) {
	if s.opts.Connect == nil || s.player != nil || s.connecting {
		return
	}
	s.connecting = true
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		player, err := watch.WaitFor(ctx, func(ctx context.Context) (Player, error) {
			return s.opts.Connect(ctx)
		}, s.opts.Reconnect)
		if err != nil {
			if ctx.Err() == nil {
				logging.ErrorWithContext(s.logger, "player unavailable", "player_connect_failed",
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "start mpv with --input-ipc-server pointing at player.mpv_socket"),
				)
			}
			return
		}
		select {
		case s.connected <- player:
		case <-ctx.Done():
			_ = player.Close()
		}
	}()
}

func (s *Session) attach(ctx context.Context, player Player) {
	s.connecting = false
	s.player = player
	s.events = player.Events()
	s.machine.Rebind(player)
	s.logger.Info("player connected", logging.String(logging.FieldEventType, "player_connected"))

	// An ad the lost connection could not undo is restored on the new one.
	if err := s.restore(ctx); err != nil {
		s.warnRestore(err)
	}
	state := s.machine.State().String()
	lastChange := s.machine.LastChange()
	s.publish(func(st *Status) {
		st.Connected = true
		st.AdState = state
		st.LastChange = lastChange
	})
}

func (s *Session) detach(ctx context.Context, reason string) {
	if s.player == nil {
		return
	}
	if err := s.restore(ctx); err != nil {
		s.logger.Debug("restore deferred until reconnect", logging.Error(err))
	}
	_ = s.player.Close()
	s.player = nil
	s.events = nil
	s.machine.Rebind(noopSink{})
	logging.WarnWithContext(s.logger, "player disconnected", "player_disconnected",
		logging.String("reason", reason),
		logging.String(logging.FieldImpact, "segments and ads are not handled until the player returns"),
		logging.String(logging.FieldErrorHint, "segskip reconnects automatically when mpv is back"),
	)
	state := s.machine.State().String()
	s.publish(func(st *Status) {
		st.Connected = false
		st.AdState = state
	})
}

// restore hands mute and speed back to the user if an ad is in progress.
func (s *Session) restore(ctx context.Context) error {
	restoreCtx, cancel := context.WithTimeout(ctx, restoreTimeout)
	defer cancel()
	return s.machine.Restore(restoreCtx, s.now())
}

func (s *Session) warnRestore(err error) {
	logging.WarnWithContext(s.logger, "restore player state failed", "player_restore_failed",
		logging.Error(err),
		logging.String(logging.FieldImpact, "player may stay muted or fast-forwarded"),
	)
}

func (s *Session) shutdown() {
	if s.player != nil {
		// The loop context is already cancelled here.
		if err := s.restore(context.Background()); err != nil {
			s.warnRestore(err)
		}
		_ = s.player.Close()
		s.player = nil
		s.events = nil
	}
	s.connecting = false
	s.setRunning(false)
	s.logger.Info("session stopped")
}

func (s *Session) handleEvent(ctx context.Context, event mpv.Event) {
	switch event.Kind {
	case mpv.EventPosition:
		s.handlePosition(ctx, event.Value)
	case mpv.EventDuration:
		s.handleDuration(event.Value)
	case mpv.EventPath:
		videoID, _ := sponsorblock.VideoIDFromURL(event.Path)
		s.changeSource(ctx, event.Path, videoID)
	case mpv.EventEndFile:
		s.resetSegments(event.Reason)
	}
}

// detect runs one ad detection tick.
func (s *Session) detect(ctx context.Context, now time.Time) {
	if !s.opts.AdSpeedup || s.player == nil {
		return
	}
	evidence, postedAt := s.board.Latest()
	if now.Sub(postedAt) > s.opts.EvidenceMaxAge {
		// The companion went quiet; let the cooldown walk the machine back.
		evidence = adstate.Evidence{}
	}
	decision := s.opts.Scorer.Score(evidence)
	out, err := s.machine.Step(ctx, decision.Definite, now)
	if err != nil {
		logging.WarnWithContext(s.logger, "ad state side effects failed", "ad_sink_failed",
			logging.Error(err),
			logging.String("transition", out.Transition.String()),
			logging.String(logging.FieldImpact, "mute or speed may not match the ad state"),
		)
	}

	switch out.Transition {
	case adstate.TransitionEnterAd:
		s.logger.Info("ad started",
			logging.String(logging.FieldEventType, "ad_started"),
			logging.Int("indicators", decision.Indicators),
			logging.String("reason", decision.Reason),
		)
	case adstate.TransitionExitAd:
		s.logger.Info("ad finished", logging.String(logging.FieldEventType, "ad_finished"))
	case adstate.TransitionSuppressed:
		s.logger.Debug("transition held by cooldown", logging.Bool("definite", decision.Definite))
	}
	if out.Skipped {
		s.logger.Debug("skip requested")
	}

	lastChange := s.machine.LastChange()
	s.publish(func(st *Status) {
		st.AdState = out.State.String()
		st.LastChange = lastChange
		st.AdSkipRequests = s.board.SkipCount()
	})
}

func (s *Session) handlePosition(ctx context.Context, position float64) {
	s.publish(func(st *Status) { st.Position = position })
	if s.player == nil {
		return
	}
	interval, ok := s.skip.Containing(position)
	if !ok {
		return
	}
	if err := s.player.Seek(ctx, interval.End); err != nil {
		logging.WarnWithContext(s.logger, "segment skip failed", "segment_skip_failed",
			logging.Error(err),
			logging.String("interval", interval.String()),
			logging.String(logging.FieldImpact, "segment plays through"),
		)
		return
	}
	s.segmentSkips++
	s.logger.Info("skipped segment",
		logging.String(logging.FieldEventType, "segment_skipped"),
		logging.Float64("from", position),
		logging.Float64("to", interval.End),
	)
	if screen, ok := s.player.(osd); ok {
		_ = screen.ShowText(ctx, fmt.Sprintf("Skipped %.0fs segment", interval.Duration()), 2000)
	}
	skips := s.segmentSkips
	s.publish(func(st *Status) {
		st.Position = interval.End
		st.SegmentSkips = skips
	})
}

func (s *Session) handleDuration(duration float64) {
	s.display.SetDuration(duration)
	s.publish(func(st *Status) { st.Duration = duration })
}

func (s *Session) changeSource(ctx context.Context, source, videoID string) {
	s.resetSegments("source changed")
	s.videoID = videoID
	s.board.Clear()
	s.publish(func(st *Status) {
		st.Source = source
		st.VideoID = videoID
		st.Position = 0
	})

	if videoID == "" || !s.opts.SponsorBlock || s.opts.Source == nil {
		return
	}

	generation := s.generation
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fetchCtx := logging.WithSessionID(ctx, s.opts.ID)
		result := s.opts.Source.Segments(fetchCtx, videoID)
		select {
		case s.fetched <- fetchResult{generation: generation, videoID: videoID, result: result}:
		case <-ctx.Done():
		}
	}()
}

func (s *Session) applySegments(res fetchResult) {
	if res.generation != s.generation || res.videoID != s.videoID {
		s.logger.Debug("discarding stale segments", logging.String(logging.FieldVideoID, res.videoID))
		return
	}
	s.skip = res.result.Skip
	s.display.SetSegments(res.result.Display)
	skip := append(segments.SkipSet{}, res.result.Skip...)
	display := append(segments.DisplaySet{}, res.result.Display...)
	s.publish(func(st *Status) {
		st.Skip = skip
		st.Display = display
	})
}

func (s *Session) resetSegments(reason string) {
	s.generation++
	if len(s.skip) > 0 {
		s.logger.Debug("segments reset", logging.String("reason", reason))
	}
	s.skip = nil
	s.display.Clear()
	s.publish(func(st *Status) {
		st.Skip = segments.SkipSet{}
		st.Display = segments.DisplaySet{}
	})
}

func (s *Session) setRunning(running bool) {
	s.publish(func(st *Status) {
		st.Running = running
		if !running {
			st.Connected = false
		}
	})
}

func (s *Session) publish(update func(*Status)) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	update(&s.status)
	s.status.UpdatedAt = s.now()
}
