package proc

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// AudioSource is a playable input plus its presentation metadata. Its volume
// can be changed while it plays; the stream reads it on every frame.
type AudioSource struct {
	// Input is what the transcoder opens, usually a direct media URL.
	Input     string
	Title     string
	URL       string
	Thumbnail string
	Duration  time.Duration
	Live      bool

	volume      atomic.Uint64
	releaseMu   sync.Mutex
	release     []func()
	releaseOnce sync.Once
}

// Volume returns the gain factor in 0..2.
func (s *AudioSource) Volume() float64 {
	return math.Float64frombits(s.volume.Load())
}

func (s *AudioSource) SetVolume(factor float64) {
	s.volume.Store(math.Float64bits(clampFactor(factor)))
}

// OnRelease registers a cleanup hook run once when the source is discarded.
func (s *AudioSource) OnRelease(fn func()) {
	s.releaseMu.Lock()
	defer s.releaseMu.Unlock()
	s.release = append(s.release, fn)
}

// Release runs the cleanup hooks. Further calls are no-ops.
func (s *AudioSource) Release() {
	s.releaseOnce.Do(func() {
		s.releaseMu.Lock()
		hooks := s.release
		s.release = nil
		s.releaseMu.Unlock()
		for _, fn := range hooks {
			fn()
		}
	})
}

func clampFactor(f float64) float64 {
	if math.IsNaN(f) || f < 0 {
		return 0
	}
	return min(f, 2)
}

// Track is a resolved source together with who asked for it.
type Track struct {
	Source        *AudioSource
	RequesterID   snowflake.ID
	RequesterName string
	QueuedAt      time.Time
}

func NewTrack(src *AudioSource, requesterID snowflake.ID, requesterName string) *Track {
	return &Track{Source: src, RequesterID: requesterID, RequesterName: requesterName, QueuedAt: time.Now()}
}

func (t *Track) Title() string {
	if t == nil || t.Source == nil {
		return ""
	}
	return t.Source.Title
}

func (t *Track) URL() string {
	if t == nil || t.Source == nil {
		return ""
	}
	return t.Source.URL
}
