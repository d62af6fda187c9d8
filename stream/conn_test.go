package stream

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/disgoorg/disgo/voice"
	"github.com/leeineian/jmusic/proc"
	"github.com/leeineian/jmusic/sys"
)

func TestMain(m *testing.M) {
	sys.InitLogger(true, false)
	m.Run()
}

const waitTimeout = 2 * time.Second

// --- Fakes ---

type fakeVoiceConn struct {
	mu       sync.Mutex
	provider voice.OpusFrameProvider
	speaking voice.SpeakingFlags
	closed   bool
}

func (f *fakeVoiceConn) SetOpusFrameProvider(p voice.OpusFrameProvider) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.provider = p
}

func (f *fakeVoiceConn) SetSpeaking(_ context.Context, flags voice.SpeakingFlags) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.speaking = flags
	return nil
}

func (f *fakeVoiceConn) Close(context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeVoiceConn) currentProvider() voice.OpusFrameProvider {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.provider
}

// fakeSource emits frames, then either ends or waits for cancellation.
type fakeSource struct {
	frames int
	block  bool
}

func (s *fakeSource) Transcode(ctx context.Context, on func([]byte) bool) error {
	for i := 0; i < s.frames; i++ {
		if !on([]byte{byte(i)}) {
			return ctx.Err()
		}
	}
	if s.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return nil
}

func (s *fakeSource) Close() {}

func newTestConn(open func(*proc.AudioSource) (frameSource, error)) (*Conn, *fakeVoiceConn) {
	vc := &fakeVoiceConn{}
	return &Conn{guildID: 1, channelID: 2, vc: vc, newSource: open}, vc
}

func sourceOf(fs *fakeSource) func(*proc.AudioSource) (frameSource, error) {
	return func(*proc.AudioSource) (frameSource, error) { return fs, nil }
}

func completion() (func(error), chan error) {
	ch := make(chan error, 1)
	return func(err error) { ch <- err }, ch
}

func waitDone(t *testing.T, ch chan error) error {
	t.Helper()
	select {
	case err := <-ch:
		return err
	case <-time.After(waitTimeout):
		t.Fatal("onComplete was not called")
		return nil
	}
}

// drain pulls frames the way disgo's sender does until the provider ends.
func drain(t *testing.T, p voice.OpusFrameProvider) int {
	t.Helper()
	n := 0
	deadline := time.Now().Add(waitTimeout)
	for time.Now().Before(deadline) {
		f, err := p.ProvideOpusFrame()
		if errors.Is(err, io.EOF) {
			return n
		}
		if f != nil {
			n++
		}
	}
	t.Fatal("provider never reached EOF")
	return n
}

// --- Tests ---

func TestConnPlayAgainAfterStop(t *testing.T) {
	c, vc := newTestConn(sourceOf(&fakeSource{block: true}))

	onComplete, done := completion()
	if err := c.Play(&proc.AudioSource{Title: "a"}, onComplete); err != nil {
		t.Fatalf("first Play: %v", err)
	}
	if !c.Playing() {
		t.Fatal("expected Playing after Play")
	}

	c.Stop()
	if err := waitDone(t, done); err != nil {
		t.Fatalf("stop completion = %v, want nil", err)
	}

	// The session calls Play for the next track straight from onComplete.
	onComplete2, done2 := completion()
	if err := c.Play(&proc.AudioSource{Title: "b"}, onComplete2); err != nil {
		t.Fatalf("Play after stop: %v", err)
	}

	second := c.current()
	time.Sleep(50 * time.Millisecond)
	if got := vc.currentProvider(); got != voice.OpusFrameProvider(second) {
		t.Errorf("provider was reset under the new player")
	}

	c.Stop()
	waitDone(t, done2)
}

func TestConnPlayAgainAfterNaturalEnd(t *testing.T) {
	c, vc := newTestConn(sourceOf(&fakeSource{frames: 3}))

	onComplete, done := completion()
	if err := c.Play(&proc.AudioSource{Title: "a"}, onComplete); err != nil {
		t.Fatalf("Play: %v", err)
	}

	if n := drain(t, vc.currentProvider()); n != 3 {
		t.Errorf("got %d frames, want 3", n)
	}
	if err := waitDone(t, done); err != nil {
		t.Fatalf("natural end = %v, want nil", err)
	}
	if c.Playing() {
		t.Error("still playing after EOF")
	}

	onComplete2, done2 := completion()
	if err := c.Play(&proc.AudioSource{Title: "b"}, onComplete2); err != nil {
		t.Fatalf("Play after natural end: %v", err)
	}
	c.Stop()
	waitDone(t, done2)
}

func TestConnReleasesProviderWhenIdle(t *testing.T) {
	c, vc := newTestConn(sourceOf(&fakeSource{block: true}))

	onComplete, done := completion()
	if err := c.Play(&proc.AudioSource{Title: "a"}, onComplete); err != nil {
		t.Fatalf("Play: %v", err)
	}
	c.Stop()
	waitDone(t, done)

	deadline := time.Now().Add(waitTimeout)
	for vc.currentProvider() != nil {
		if time.Now().After(deadline) {
			t.Fatal("provider not cleared after stop")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestConnRejectsConcurrentPlay(t *testing.T) {
	c, _ := newTestConn(sourceOf(&fakeSource{block: true}))

	onComplete, done := completion()
	if err := c.Play(&proc.AudioSource{Title: "a"}, onComplete); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if err := c.Play(&proc.AudioSource{Title: "b"}, nil); !errors.Is(err, proc.ErrAlreadyPlaying) {
		t.Errorf("second Play = %v, want ErrAlreadyPlaying", err)
	}
	c.Stop()
	waitDone(t, done)
}

func TestConnOpenFailureCompletesWithError(t *testing.T) {
	boom := errors.New("no such stream")
	c, vc := newTestConn(func(*proc.AudioSource) (frameSource, error) { return nil, boom })

	onComplete, done := completion()
	if err := c.Play(&proc.AudioSource{Title: "a"}, onComplete); err != nil {
		t.Fatalf("Play: %v", err)
	}
	drain(t, vc.currentProvider())
	if err := waitDone(t, done); !errors.Is(err, boom) {
		t.Errorf("completion = %v, want %v", err, boom)
	}
}

func TestConnPauseSendsSilence(t *testing.T) {
	c, vc := newTestConn(sourceOf(&fakeSource{frames: 1, block: true}))

	onComplete, done := completion()
	if err := c.Play(&proc.AudioSource{Title: "a"}, onComplete); err != nil {
		t.Fatalf("Play: %v", err)
	}
	c.Pause()
	if c.Playing() {
		t.Error("Playing while paused")
	}
	if f, err := vc.currentProvider().ProvideOpusFrame(); f != nil || err != nil {
		t.Errorf("paused frame = %v, %v; want silence", f, err)
	}
	c.Resume()
	if !c.Playing() {
		t.Error("not Playing after Resume")
	}
	c.Stop()
	waitDone(t, done)
}

func TestConnCloseStopsPlayback(t *testing.T) {
	c, vc := newTestConn(sourceOf(&fakeSource{block: true}))

	onComplete, done := completion()
	if err := c.Play(&proc.AudioSource{Title: "a"}, onComplete); err != nil {
		t.Fatalf("Play: %v", err)
	}
	c.Close(context.Background())
	waitDone(t, done)

	vc.mu.Lock()
	closed := vc.closed
	vc.mu.Unlock()
	if !closed {
		t.Error("voice connection not closed")
	}
}
