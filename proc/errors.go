package proc

import (
	"errors"
	"fmt"
)

var (
	ErrNotConnected   = errors.New("not connected to a voice channel")
	ErrInvalidIndex   = errors.New("queue index out of range")
	ErrNothingPlaying = errors.New("nothing is playing")
	ErrSessionClosed  = errors.New("session is closed")
	ErrAlreadyPlaying = errors.New("connection is already playing")
)

// ResolutionError reports a query that could not be turned into a playable
// source. The queue is left untouched when it is returned.
type ResolutionError struct {
	Query string
	Err   error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve %q: %v", e.Query, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// PlaybackError reports a track whose playback ended abnormally.
type PlaybackError struct {
	Track *Track
	Err   error
}

func (e *PlaybackError) Error() string {
	title := "<nil>"
	if e.Track != nil {
		title = e.Track.Title()
	}
	return fmt.Sprintf("playback of %q: %v", title, e.Err)
}

func (e *PlaybackError) Unwrap() error { return e.Err }
