package stream

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/leeineian/jmusic/proc"
	"github.com/leeineian/jmusic/sys"
)

const frameBuffer = 100

// player feeds one source to the voice connection. It implements
// voice.OpusFrameProvider.
type player struct {
	src        *proc.AudioSource
	open       func(src *proc.AudioSource) (frameSource, error)
	frames     chan []byte
	ctx        context.Context
	cancel     context.CancelFunc
	paused     atomic.Bool
	once       sync.Once
	onComplete func(error)

	errMu sync.Mutex
	err   error
}

func newPlayer(src *proc.AudioSource, open func(src *proc.AudioSource) (frameSource, error), onComplete func(error)) *player {
	if open == nil {
		open = openTranscoder
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &player{
		src:        src,
		open:       open,
		frames:     make(chan []byte, frameBuffer),
		ctx:        ctx,
		cancel:     cancel,
		onComplete: onComplete,
	}
}

// transcode runs on its own goroutine and closes frames when done.
func (p *player) transcode() {
	defer close(p.frames)

	fs, err := p.open(p.src)
	if err == nil {
		err = fs.Transcode(p.ctx, p.push)
		fs.Close()
	}
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, errStopped) {
		sys.LogVoiceWarn("Transcoder failed for %s: %v", p.src.Title, err)
		p.errMu.Lock()
		p.err = err
		p.errMu.Unlock()
	}
}

func (p *player) push(f []byte) bool {
	select {
	case p.frames <- f:
		return true
	case <-p.ctx.Done():
		return false
	}
}

func (p *player) ProvideOpusFrame() ([]byte, error) {
	if p.paused.Load() {
		select {
		case <-p.ctx.Done():
			p.finish(nil)
			return nil, io.EOF
		default:
			return nil, nil // Silence
		}
	}

	select {
	case f, ok := <-p.frames:
		if !ok {
			p.errMu.Lock()
			err := p.err
			p.errMu.Unlock()
			p.finish(err)
			return nil, io.EOF
		}
		return f, nil
	case <-p.ctx.Done():
		p.finish(nil)
		return nil, io.EOF
	case <-time.After(100 * time.Millisecond):
		return nil, nil // Silence
	}
}

func (p *player) Close() {
	p.finish(nil)
}

func (p *player) stop() {
	p.finish(nil)
}

// finish cancels transcoding and reports completion exactly once.
func (p *player) finish(err error) {
	p.once.Do(func() {
		p.cancel()
		if p.onComplete != nil {
			p.onComplete(err)
		}
	})
}
