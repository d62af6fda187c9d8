package home

import (
	"context"
	"errors"
	"time"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/omit"
	"github.com/disgoorg/snowflake/v2"
	"github.com/leeineian/jmusic/media"
	"github.com/leeineian/jmusic/proc"
	"github.com/leeineian/jmusic/sys"
)

var errUserNotInVoice = errors.New("user is not in a voice channel")

const resolveTimeout = 60 * time.Second

// Searcher feeds the play command's autocomplete.
type Searcher interface {
	Search(ctx context.Context, q string) []media.SearchResult
}

// Music owns the /music command group. Every guild's playback goes through
// its registry.
type Music struct {
	cfg       *sys.Config
	registry  *proc.Registry
	resolver  proc.Resolver
	searcher  Searcher
	newDialer func(client *bot.Client) proc.Dialer
}

func NewMusic(cfg *sys.Config, registry *proc.Registry, resolver proc.Resolver, searcher Searcher, newDialer func(client *bot.Client) proc.Dialer) *Music {
	return &Music{
		cfg:       cfg,
		registry:  registry,
		resolver:  resolver,
		searcher:  searcher,
		newDialer: newDialer,
	}
}

// Register adds /music, its autocomplete and the voice state listener.
func (m *Music) Register(r *Router) {
	connectPerm := discord.PermissionConnect

	r.RegisterCommand(discord.SlashCommandCreate{
		Name:                     "music",
		Description:              "Play music in your voice channel",
		DefaultMemberPermissions: omit.New(&connectPerm),
		Contexts: []discord.InteractionContextType{
			discord.InteractionContextTypeGuild,
		},
		Options: []discord.ApplicationCommandOption{
			discord.ApplicationCommandOptionSubCommand{
				Name:        "join",
				Description: "Join your voice channel",
				Options: []discord.ApplicationCommandOption{
					discord.ApplicationCommandOptionChannel{
						Name:        "channel",
						Description: "The voice channel to join instead of yours",
						ChannelTypes: []discord.ChannelType{
							discord.ChannelTypeGuildVoice,
							discord.ChannelTypeGuildStageVoice,
						},
					},
				},
			},
			discord.ApplicationCommandOptionSubCommand{
				Name:        "play",
				Description: "Queue a song from a URL or search",
				Options: []discord.ApplicationCommandOption{
					discord.ApplicationCommandOptionString{
						Name:         "query",
						Description:  "The URL or song name to play",
						Required:     true,
						Autocomplete: true,
					},
				},
			},
			discord.ApplicationCommandOptionSubCommand{
				Name:        "lounge",
				Description: "Queue the lounge radio stream",
			},
			discord.ApplicationCommandOptionSubCommand{
				Name:        "pause",
				Description: "Pause the current song",
			},
			discord.ApplicationCommandOptionSubCommand{
				Name:        "resume",
				Description: "Resume the current song",
			},
			discord.ApplicationCommandOptionSubCommand{
				Name:        "skip",
				Description: "Skip the current song, or vote to",
			},
			discord.ApplicationCommandOptionSubCommand{
				Name:        "nowplaying",
				Description: "Show the current song",
			},
			discord.ApplicationCommandOptionSubCommand{
				Name:        "queue",
				Description: "Show the queue",
				Options: []discord.ApplicationCommandOption{
					discord.ApplicationCommandOptionInt{
						Name:        "page",
						Description: "Page number (default: 1)",
						Required:    false,
						MinValue:    intPtr(1),
					},
				},
			},
			discord.ApplicationCommandOptionSubCommand{
				Name:        "remove",
				Description: "Remove a song from the queue",
				Options: []discord.ApplicationCommandOption{
					discord.ApplicationCommandOptionInt{
						Name:        "position",
						Description: "Queue position as shown by /music queue",
						Required:    true,
						MinValue:    intPtr(1),
					},
				},
			},
			discord.ApplicationCommandOptionSubCommand{
				Name:        "shuffle",
				Description: "Shuffle the queue",
			},
			discord.ApplicationCommandOptionSubCommand{
				Name:        "loop",
				Description: "Repeat the current song",
				Options: []discord.ApplicationCommandOption{
					discord.ApplicationCommandOptionBool{
						Name:        "enabled",
						Description: "Turn looping on or off (default: toggle)",
						Required:    false,
					},
				},
			},
			discord.ApplicationCommandOptionSubCommand{
				Name:        "volume",
				Description: "Show or change the player volume",
				Options: []discord.ApplicationCommandOption{
					discord.ApplicationCommandOptionInt{
						Name:        "percent",
						Description: "Volume from 0 to 200",
						Required:    false,
						MinValue:    intPtr(0),
						MaxValue:    intPtr(sys.MaxVolumePercent),
					},
				},
			},
			discord.ApplicationCommandOptionSubCommand{
				Name:        "history",
				Description: "Show recently played songs",
			},
			discord.ApplicationCommandOptionSubCommand{
				Name:        "stop",
				Description: "Stop playback, clear the queue and disconnect",
			},
			discord.ApplicationCommandOptionSubCommand{
				Name:        "leave",
				Description: "Disconnect from voice",
			},
		},
	}, m.handleMusic)

	r.RegisterAutocompleteHandler("music", m.handleMusicAutocomplete)
	r.RegisterVoiceStateUpdateHandler(m.onVoiceStateUpdate)
}

// handleMusic routes music subcommands to their respective handlers
func (m *Music) handleMusic(event *events.ApplicationCommandInteractionCreate) {
	data := event.SlashCommandInteractionData()
	if data.SubCommandName == nil {
		return
	}
	guildID := event.GuildID()
	if guildID == nil {
		replyError(event, sys.ErrNotInGuild)
		return
	}

	sub := *data.SubCommandName
	sys.LogCommand(sys.MsgCommandInvoked, event.User().Username, event.User().ID, sub, *guildID)

	switch sub {
	case "join":
		m.handleMusicJoin(event, data, *guildID)
	case "play":
		m.handleMusicPlay(event, data, *guildID)
	case "lounge":
		m.handleMusicLounge(event, *guildID)
	case "pause":
		m.handleMusicPause(event, *guildID)
	case "resume":
		m.handleMusicResume(event, *guildID)
	case "skip":
		m.handleMusicSkip(event, *guildID)
	case "nowplaying":
		m.handleMusicNowPlaying(event, *guildID)
	case "queue":
		m.handleMusicQueue(event, data, *guildID)
	case "remove":
		m.handleMusicRemove(event, data, *guildID)
	case "shuffle":
		m.handleMusicShuffle(event, *guildID)
	case "loop":
		m.handleMusicLoop(event, data, *guildID)
	case "volume":
		m.handleMusicVolume(event, data, *guildID)
	case "history":
		m.handleMusicHistory(event, *guildID)
	case "stop":
		m.handleMusicStop(event, *guildID, sys.MsgStopped)
	case "leave":
		m.handleMusicStop(event, *guildID, sys.MsgLeft)
	}
}

// --- Session helpers ---

// factory builds session options bound to the invoking text channel.
func (m *Music) factory(event *events.ApplicationCommandInteractionCreate) proc.SessionFactory {
	client := event.Client()
	channelID := event.Channel().ID()
	return func(guildID snowflake.ID) proc.SessionOptions {
		volume := m.cfg.DefaultVolume
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if v, ok, err := sys.GetGuildVolume(ctx, guildID); err != nil {
			sys.LogVoiceWarn(sys.MsgSettingsLoadFail, guildID, err)
		} else if ok {
			volume = v
		}

		return proc.SessionOptions{
			Dialer:        m.newDialer(client),
			Notifier:      newChannelNotifier(client, channelID),
			History:       playHistory{},
			IdleTimeout:   m.cfg.IdleTimeout,
			SkipThreshold: m.cfg.SkipVoteThreshold,
			Volume:        float64(volume) / 100,
		}
	}
}

// userVoiceChannel returns the voice channel the invoking user sits in.
func userVoiceChannel(event *events.ApplicationCommandInteractionCreate, guildID snowflake.ID) (snowflake.ID, bool) {
	vs, ok := event.Client().Caches.VoiceState(guildID, event.User().ID)
	if !ok || vs.ChannelID == nil {
		return 0, false
	}
	return *vs.ChannelID, true
}

// ensureVoice returns a connected session, joining the user's channel when
// the bot is not connected yet.
func (m *Music) ensureVoice(ctx context.Context, event *events.ApplicationCommandInteractionCreate, guildID snowflake.ID) (*proc.Session, error) {
	if s := m.registry.Get(guildID); s != nil && s.Connected() {
		return s, nil
	}
	channelID, ok := userVoiceChannel(event, guildID)
	if !ok {
		return nil, errUserNotInVoice
	}
	return m.joinChannel(ctx, event, guildID, channelID)
}

func (m *Music) joinChannel(ctx context.Context, event *events.ApplicationCommandInteractionCreate, guildID, channelID snowflake.ID) (*proc.Session, error) {
	s, created := m.registry.GetOrCreate(guildID, m.factory(event))
	if err := s.Join(ctx, channelID); err != nil {
		if created && !s.Connected() {
			m.registry.Remove(guildID)
		}
		return nil, err
	}
	return s, nil
}

// connectedSession returns the guild's session if it has a voice connection.
func (m *Music) connectedSession(guildID snowflake.ID) (*proc.Session, error) {
	s := m.registry.Get(guildID)
	if s == nil || !s.Connected() {
		return nil, proc.ErrNotConnected
	}
	return s, nil
}

// onVoiceStateUpdate drops the session when the bot is disconnected by
// someone else.
func (m *Music) onVoiceStateUpdate(event *events.GuildVoiceStateUpdate) {
	if event.VoiceState.UserID != event.Client().ID() || event.VoiceState.ChannelID != nil {
		return
	}
	if m.registry.Get(event.VoiceState.GuildID) == nil {
		return
	}
	sys.LogVoice(sys.MsgVoiceExternalDisconnect, event.VoiceState.GuildID)
	m.registry.Evict(event.VoiceState.GuildID)
}

// playHistory stores started tracks in the play_history table.
type playHistory struct{}

func (playHistory) RecordPlay(ctx context.Context, guildID snowflake.ID, t *proc.Track) error {
	return sys.AddPlayHistory(ctx, &sys.PlayRecord{
		GuildID:     guildID,
		RequesterID: t.RequesterID,
		Title:       t.Title(),
		URL:         t.URL(),
	})
}

// --- Responses ---

func reply(event *events.ApplicationCommandInteractionCreate, content string, ephemeral bool) {
	replyCard(event, discord.NewContainer(discord.NewTextDisplay(content)), ephemeral)
}

func replyError(event *events.ApplicationCommandInteractionCreate, content string) {
	reply(event, content, true)
}

func replyCard(event *events.ApplicationCommandInteractionCreate, card discord.ContainerComponent, ephemeral bool) {
	_ = event.CreateMessage(discord.NewMessageCreate().
		WithIsComponentsV2(true).
		AddComponents(card).
		WithEphemeral(ephemeral))
}

func editReply(event *events.ApplicationCommandInteractionCreate, content string) {
	editReplyCard(event, discord.NewContainer(discord.NewTextDisplay(content)))
}

func editReplyCard(event *events.ApplicationCommandInteractionCreate, card discord.ContainerComponent) {
	_, _ = event.Client().Rest.UpdateInteractionResponse(event.ApplicationID(), event.Token(), discord.NewMessageUpdate().
		WithIsComponentsV2(true).
		AddComponents(card))
}

func intPtr(i int) *int {
	return &i
}
