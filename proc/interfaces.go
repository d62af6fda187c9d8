package proc

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
)

// Resolver turns a URL or free-text query into a playable source.
type Resolver interface {
	Resolve(ctx context.Context, query string) (*AudioSource, error)
}

// Dialer opens a voice connection for a guild.
type Dialer interface {
	Dial(ctx context.Context, guildID, channelID snowflake.ID) (Conn, error)
}

// Conn is one voice connection able to play a single source at a time.
// onComplete passed to Play is called exactly once, from the connection's own
// goroutine, with nil on normal end or Stop and the failure otherwise. By the
// time onComplete runs the connection must accept the next Play; a Play
// while a source is still active returns ErrAlreadyPlaying.
type Conn interface {
	ChannelID() snowflake.ID
	Move(ctx context.Context, channelID snowflake.ID) error
	Close(ctx context.Context)
	Play(src *AudioSource, onComplete func(error)) error
	Stop()
	Pause()
	Resume()
	Playing() bool
}

// Notifier posts session events back to the text channel. Implementations
// must not block the caller.
type Notifier interface {
	NowPlaying(t *Track)
	Text(msg string)
	React(emoji string)
}

// History records tracks as they start.
type History interface {
	RecordPlay(ctx context.Context, guildID snowflake.ID, t *Track) error
}

type nopNotifier struct{}

func (nopNotifier) NowPlaying(*Track) {}
func (nopNotifier) Text(string)       {}
func (nopNotifier) React(string)      {}
