package proc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/leeineian/jmusic/sys"
)

// run is the session's playback loop. It exits when the session is stopped
// or after idling for idleTimeout with nothing queued.
func (s *Session) run() {
	defer close(s.done)
	defer s.setState(StateTerminated)

	for {
		s.setState(StateIdle)
		t, res := s.queue.Dequeue(s.ctx, s.idleTimeout)
		switch res {
		case Canceled:
			return
		case Timeout:
			sys.LogVoice(sys.MsgVoiceIdle, s.idleTimeout, s.GuildID)
			s.notifier.Text(idleMessage(s.idleTimeout))
			s.terminate(ReasonIdle)
			return
		}

		if s.ctx.Err() != nil {
			release(t)
			return
		}
		s.play(t)
	}
}

func (s *Session) play(t *Track) {
	s.mu.Lock()
	conn := s.conn
	s.current = t
	s.skipped = false
	clear(s.skipVotes)
	volume := s.volume
	s.mu.Unlock()

	if conn == nil {
		s.playbackFailed(t, ErrNotConnected)
		s.finish(t, false)
		return
	}

	t.Source.SetVolume(volume)

	// Resolved from the connection's goroutine; never blocks it.
	completed := make(chan error, 1)
	onComplete := func(err error) {
		select {
		case completed <- err:
		default:
		}
	}

	s.setState(StatePlaying)
	if err := conn.Play(t.Source, onComplete); err != nil {
		s.playbackFailed(t, err)
		s.finish(t, false)
		return
	}

	// A skip that landed before Play started has nothing to stop yet.
	s.mu.Lock()
	pending := s.skipped
	s.mu.Unlock()
	if pending {
		conn.Stop()
	}

	sys.Stats.TracksPlayed.Inc()
	sys.LogVoice(sys.MsgVoicePlaying, s.GuildID, t.Title(), t.URL())
	s.notifier.NowPlaying(t)
	s.recordHistory(t)

	select {
	case err := <-completed:
		if err != nil {
			s.playbackFailed(t, err)
			s.finish(t, false)
			return
		}
		sys.LogVoice(sys.MsgVoiceFinished, s.GuildID, t.Title())
		s.finish(t, true)
	case <-s.ctx.Done():
		conn.Stop()
		s.finish(t, false)
	}
}

// finish clears the current track and either re-queues it at the head (loop)
// or releases its source.
func (s *Session) finish(t *Track, ok bool) {
	s.mu.Lock()
	again := ok && s.loop && !s.skipped && !s.closed
	s.current = nil
	s.skipped = false
	clear(s.skipVotes)
	s.mu.Unlock()

	if again {
		sys.LogVoice(sys.MsgVoiceLooping, s.GuildID, t.Title())
		s.queue.PushFront(t)
		return
	}
	release(t)
}

func (s *Session) playbackFailed(t *Track, err error) {
	perr := &PlaybackError{Track: t, Err: err}
	sys.Stats.PlaybackErrors.Inc()
	sys.LogVoiceWarn(sys.MsgVoicePlaybackError, s.GuildID, t.Title(), perr)
	if !errors.Is(err, context.Canceled) {
		s.notifier.Text(playbackFailedMessage(t))
		s.notifier.React("⚠️")
	}
}

func (s *Session) recordHistory(t *Track) {
	if s.history == nil {
		return
	}
	guildID := s.GuildID
	sys.SafeGo(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.history.RecordPlay(ctx, guildID, t); err != nil {
			sys.LogVoiceWarn(sys.MsgHistoryRecordFail, guildID, err)
		}
	})
}

func release(t *Track) {
	if t != nil && t.Source != nil {
		t.Source.Release()
	}
}

func idleMessage(d time.Duration) string {
	return fmt.Sprintf(sys.MsgIdleLeft, d.Round(time.Second))
}

func playbackFailedMessage(t *Track) string {
	return fmt.Sprintf(sys.MsgPlaybackFailed, t.Title())
}
