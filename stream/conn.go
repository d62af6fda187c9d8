package stream

import (
	"context"
	"net/http"
	"sync"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/disgo/voice"
	"github.com/disgoorg/snowflake/v2"
	"github.com/leeineian/jmusic/proc"
	"github.com/leeineian/jmusic/sys"
)

// Dialer opens disgo voice connections.
type Dialer struct {
	client *bot.Client
}

func NewDialer(client *bot.Client) *Dialer {
	return &Dialer{client: client}
}

func (d *Dialer) Dial(ctx context.Context, guildID, channelID snowflake.ID) (proc.Conn, error) {
	vc := d.client.VoiceManager.CreateConn(guildID)
	if err := vc.Open(ctx, channelID, false, true); err != nil {
		vc.Close(ctx)
		return nil, err
	}
	return &Conn{
		client:    d.client,
		guildID:   guildID,
		channelID: channelID,
		vc:        vc,
		newSource: openTranscoder,
	}, nil
}

// voiceConn is the part of voice.Conn a Conn drives.
type voiceConn interface {
	SetOpusFrameProvider(provider voice.OpusFrameProvider)
	SetSpeaking(ctx context.Context, flags voice.SpeakingFlags) error
	Close(ctx context.Context)
}

// Conn adapts a disgo voice connection to a session's playback needs. Once
// a Play's onComplete has fired, the next Play is accepted.
type Conn struct {
	client    *bot.Client
	guildID   snowflake.ID
	vc        voiceConn
	newSource func(src *proc.AudioSource) (frameSource, error)

	// providerMu orders provider and speaking updates between Play and the
	// cleanup of a finished player.
	providerMu sync.Mutex

	mu        sync.Mutex
	channelID snowflake.ID
	player    *player
}

func (c *Conn) ChannelID() snowflake.ID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.channelID
}

func (c *Conn) Move(ctx context.Context, channelID snowflake.ID) error {
	old := c.ChannelID()
	if err := c.client.UpdateVoiceState(ctx, c.guildID, &channelID, false, true); err != nil {
		return err
	}
	c.mu.Lock()
	c.channelID = channelID
	playing := c.player
	c.mu.Unlock()

	c.setVoiceStatus(old, "")
	if playing != nil {
		c.setVoiceStatus(channelID, statusFor(playing.src))
	}
	return nil
}

func (c *Conn) Close(ctx context.Context) {
	c.Stop()
	c.setVoiceStatus(c.ChannelID(), "")
	c.vc.Close(ctx)
}

func (c *Conn) Play(src *proc.AudioSource, onComplete func(error)) error {
	c.mu.Lock()
	if c.player != nil {
		c.mu.Unlock()
		return proc.ErrAlreadyPlaying
	}

	var p *player
	p = newPlayer(src, c.newSource, func(err error) {
		// Called from disgo's audio sender or from Stop. The conn is free
		// before the session hears about it.
		c.mu.Lock()
		active := c.player == p
		if active {
			c.player = nil
		}
		channelID := c.channelID
		c.mu.Unlock()

		if active {
			go c.release(channelID)
		}
		if onComplete != nil {
			onComplete(err)
		}
	})
	c.player = p
	channelID := c.channelID
	c.mu.Unlock()

	sys.SafeGo(p.transcode)

	c.providerMu.Lock()
	c.setOpusFrameProviderSafe(p)
	c.setSpeaking(voice.SpeakingFlagMicrophone)
	c.providerMu.Unlock()

	c.setVoiceStatus(channelID, statusFor(src))
	return nil
}

// release resets the provider after a player finished, unless a newer one
// has already taken over.
func (c *Conn) release(channelID snowflake.ID) {
	c.providerMu.Lock()
	defer c.providerMu.Unlock()
	if c.current() != nil {
		return
	}
	c.setOpusFrameProviderSafe(nil)
	c.setSpeaking(0)
	c.setVoiceStatus(channelID, "")
}

func (c *Conn) current() *player {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.player
}

func (c *Conn) Stop() {
	if p := c.current(); p != nil {
		p.stop()
	}
}

func (c *Conn) Pause() {
	if p := c.current(); p != nil {
		p.paused.Store(true)
	}
}

func (c *Conn) Resume() {
	if p := c.current(); p != nil {
		p.paused.Store(false)
	}
}

func (c *Conn) Playing() bool {
	p := c.current()
	return p != nil && !p.paused.Load()
}

// setOpusFrameProviderSafe sets the opus frame provider, recovering from any panic in disgo
func (c *Conn) setOpusFrameProviderSafe(provider voice.OpusFrameProvider) {
	defer func() {
		if r := recover(); r != nil {
			sys.LogVoiceWarn("Recovered from panic in SetOpusFrameProvider: %v", r)
		}
	}()
	c.vc.SetOpusFrameProvider(provider)
}

func (c *Conn) setSpeaking(flags voice.SpeakingFlags) {
	defer func() {
		if r := recover(); r != nil {
			sys.LogVoiceWarn("Recovered from panic in SetSpeaking: %v", r)
		}
	}()
	if err := c.vc.SetSpeaking(context.TODO(), flags); err != nil {
		sys.LogDebug("Failed to set speaking in guild %s: %v", c.guildID, err)
	}
}

// setVoiceStatus updates the voice channel status text in the background
func (c *Conn) setVoiceStatus(channelID snowflake.ID, status string) {
	if channelID == 0 || c.client == nil {
		return
	}
	sys.SafeGo(func() {
		route := rest.NewEndpoint(http.MethodPut, "/channels/"+channelID.String()+"/voice-status")
		if err := c.client.Rest.Do(route.Compile(nil), map[string]string{"status": status}, nil); err != nil {
			sys.LogDebug("Failed to update voice status for %s: %v", channelID, err)
		}
	})
}

func statusFor(src *proc.AudioSource) string {
	return sys.TruncateWithPreserve(src.Title, 128, "🎶 ", "")
}
