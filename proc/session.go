package proc

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/leeineian/jmusic/sys"
)

const QueuePageSize = 10

type State int32

const (
	StateIdle State = iota
	StatePlaying
	StateStopping
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlaying:
		return "playing"
	case StateStopping:
		return "stopping"
	case StateTerminated:
		return "terminated"
	}
	return "unknown"
}

// TerminateReason says why a session ended.
type TerminateReason string

const (
	ReasonStopped  TerminateReason = "stopped"
	ReasonIdle     TerminateReason = "idle"
	ReasonShutdown TerminateReason = "shutdown"
	ReasonExternal TerminateReason = "disconnected"
)

// SessionOptions carries everything a new session needs. Zero values fall
// back to the package defaults.
type SessionOptions struct {
	Dialer        Dialer
	Notifier      Notifier
	History       History
	IdleTimeout   time.Duration
	SkipThreshold int
	// Volume is the starting gain factor in 0..2.
	Volume float64
}

// SessionFactory builds the options for a guild that has no session yet.
type SessionFactory func(guildID snowflake.ID) SessionOptions

// Session is the playback state of one guild and the worker driving it.
type Session struct {
	GuildID snowflake.ID

	queue         *TrackQueue
	dialer        Dialer
	notifier      Notifier
	history       History
	idleTimeout   time.Duration
	skipThreshold int

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	joinMu sync.Mutex

	mu        sync.Mutex
	conn      Conn
	current   *Track
	volume    float64
	loop      bool
	skipVotes map[snowflake.ID]struct{}
	skipped   bool
	closed    bool
	reason    TerminateReason

	state       atomic.Int32
	stopOnce    sync.Once
	onTerminate func(*Session)
}

func newSession(guildID snowflake.ID, opts SessionOptions, onTerminate func(*Session)) *Session {
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = sys.DefaultIdleTimeout
	}
	if opts.SkipThreshold < 1 {
		opts.SkipThreshold = sys.DefaultSkipThreshold
	}
	if opts.Notifier == nil {
		opts.Notifier = nopNotifier{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		GuildID:       guildID,
		queue:         NewTrackQueue(),
		dialer:        opts.Dialer,
		notifier:      opts.Notifier,
		history:       opts.History,
		idleTimeout:   opts.IdleTimeout,
		skipThreshold: opts.SkipThreshold,
		ctx:           ctx,
		cancel:        cancel,
		done:          make(chan struct{}),
		volume:        clampFactor(opts.Volume),
		skipVotes:     make(map[snowflake.ID]struct{}),
		onTerminate:   onTerminate,
	}
	return s
}

func (s *Session) State() State { return State(s.state.Load()) }

func (s *Session) setState(st State) { s.state.Store(int32(st)) }

// Done is closed once the worker has exited.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) closing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Reason is empty until the session terminates.
func (s *Session) Reason() TerminateReason {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reason
}

// Join connects to channelID, or moves the existing connection there.
func (s *Session) Join(ctx context.Context, channelID snowflake.ID) error {
	s.joinMu.Lock()
	defer s.joinMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	conn := s.conn
	s.mu.Unlock()

	if conn != nil {
		if conn.ChannelID() == channelID {
			return nil
		}
		sys.LogVoice(sys.MsgVoiceMoving, conn.ChannelID(), channelID, s.GuildID)
		return conn.Move(ctx, channelID)
	}

	if s.dialer == nil {
		return ErrNotConnected
	}

	sys.LogVoice(sys.MsgVoiceJoining, channelID, s.GuildID)
	conn, err := s.dialer.Dial(ctx, s.GuildID, channelID)
	if err != nil {
		sys.LogVoiceWarn(sys.MsgVoiceJoinFail, s.GuildID, err)
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		conn.Close(closeCtx)
		return ErrSessionClosed
	}
	s.conn = conn
	s.mu.Unlock()
	return nil
}

// Connected reports whether the session holds a voice connection.
func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

// ChannelID returns the voice channel the session is in, or 0.
func (s *Session) ChannelID() snowflake.ID {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return 0
	}
	return conn.ChannelID()
}

// Enqueue appends t and returns its 1-based queue position.
func (s *Session) Enqueue(t *Track) (int, error) {
	s.mu.Lock()
	closed, connected := s.closed, s.conn != nil
	s.mu.Unlock()
	if closed {
		return 0, ErrSessionClosed
	}
	if !connected {
		return 0, ErrNotConnected
	}
	pos := s.queue.Enqueue(t)
	sys.LogVoice(sys.MsgVoiceQueued, s.GuildID, pos, t.Title())
	return pos, nil
}

// NowPlaying returns the current track, or nil.
func (s *Session) NowPlaying() *Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *Session) Pause() error {
	conn, err := s.playingConn()
	if err != nil {
		return err
	}
	conn.Pause()
	return nil
}

func (s *Session) Resume() error {
	conn, err := s.playingConn()
	if err != nil {
		return err
	}
	conn.Resume()
	return nil
}

func (s *Session) playingConn() (Conn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil, ErrNotConnected
	}
	if s.current == nil {
		return nil, ErrNothingPlaying
	}
	return s.conn, nil
}

// Skip ends the current track regardless of votes.
func (s *Session) Skip() error {
	s.mu.Lock()
	conn, err := s.skipLocked()
	s.mu.Unlock()
	if err != nil {
		return err
	}
	conn.Stop()
	return nil
}

func (s *Session) skipLocked() (Conn, error) {
	if s.current == nil || s.conn == nil {
		return nil, ErrNothingPlaying
	}
	sys.LogVoice(sys.MsgVoiceSkip, s.GuildID, s.current.Title())
	s.skipped = true
	clear(s.skipVotes)
	return s.conn, nil
}

type SkipResult struct {
	Skipped      bool
	AlreadyVoted bool
	Votes        int
	Required     int
	Track        *Track
}

// RequestSkip casts voter's skip vote against the track playing right now.
// The track's requester skips immediately; anyone else skips once the vote
// count reaches the threshold.
func (s *Session) RequestSkip(voter snowflake.ID) (SkipResult, error) {
	s.mu.Lock()
	if s.current == nil {
		s.mu.Unlock()
		return SkipResult{}, ErrNothingPlaying
	}
	res := SkipResult{Required: s.skipThreshold, Track: s.current}

	if voter != s.current.RequesterID {
		if _, ok := s.skipVotes[voter]; ok {
			res.AlreadyVoted = true
			res.Votes = len(s.skipVotes)
			s.mu.Unlock()
			return res, nil
		}
		s.skipVotes[voter] = struct{}{}
		sys.Stats.SkipVotes.Inc()
		res.Votes = len(s.skipVotes)
		if res.Votes < s.skipThreshold {
			s.mu.Unlock()
			return res, nil
		}
	}

	conn, err := s.skipLocked()
	s.mu.Unlock()
	if err != nil {
		return SkipResult{}, err
	}
	conn.Stop()
	res.Skipped = true
	return res, nil
}

// SetVolume applies percent (clamped to 0..200) to the session and to the
// track playing now, and returns the applied percentage.
func (s *Session) SetVolume(percent int) int {
	percent = sys.ClampVolume(percent)
	factor := float64(percent) / 100

	s.mu.Lock()
	s.volume = factor
	cur := s.current
	s.mu.Unlock()

	if cur != nil && cur.Source != nil {
		cur.Source.SetVolume(factor)
	}
	return percent
}

// Volume returns the session volume as a percentage.
func (s *Session) Volume() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int(s.volume*100 + 0.5)
}

func (s *Session) SetLoop(enabled bool) {
	s.mu.Lock()
	s.loop = enabled
	s.mu.Unlock()
}

func (s *Session) Loop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loop
}

func (s *Session) Shuffle() int { return s.queue.Shuffle() }

// Remove drops the track at 1-based position pos from the queue.
func (s *Session) Remove(pos int) (*Track, error) {
	t, err := s.queue.RemoveAt(pos - 1)
	if err != nil {
		return nil, err
	}
	if t.Source != nil {
		t.Source.Release()
	}
	return t, nil
}

func (s *Session) QueueLen() int { return s.queue.Len() }

type QueuePage struct {
	Tracks  []*Track
	Page    int
	Pages   int
	Total   int
	Offset  int
	Current *Track
	Loop    bool
	Volume  int
}

// Queue returns the 1-based page of upcoming tracks.
func (s *Session) Queue(page int) (QueuePage, error) {
	tracks, pages, err := s.queue.Page(page, QueuePageSize)
	s.mu.Lock()
	qp := QueuePage{
		Tracks:  tracks,
		Page:    page,
		Pages:   pages,
		Total:   s.queue.Len(),
		Offset:  (page - 1) * QueuePageSize,
		Current: s.current,
		Loop:    s.loop,
		Volume:  int(s.volume*100 + 0.5),
	}
	s.mu.Unlock()
	return qp, err
}

// Stop clears the queue, disconnects and terminates the worker. It waits for
// the worker to exit and is safe to call more than once.
func (s *Session) Stop() {
	s.stop(ReasonStopped)
}

func (s *Session) stop(reason TerminateReason) {
	s.terminate(reason)
	<-s.done
}

func (s *Session) terminate(reason TerminateReason) {
	s.stopOnce.Do(func() {
		s.setState(StateStopping)

		s.mu.Lock()
		s.closed = true
		s.reason = reason
		conn := s.conn
		s.conn = nil
		s.skipped = true
		s.mu.Unlock()

		s.cancel()

		for _, t := range s.queue.Clear() {
			if t.Source != nil {
				t.Source.Release()
			}
		}

		if conn != nil {
			conn.Stop()
			closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			conn.Close(closeCtx)
			cancel()
		}

		if s.onTerminate != nil {
			s.onTerminate(s)
		}
		sys.Stats.RecordSessionTerminated(string(reason))
		sys.LogVoice(sys.MsgVoiceSessionEnded, s.GuildID, reason)
	})
}
