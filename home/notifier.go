package home

import (
	"sync"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
	"github.com/leeineian/jmusic/proc"
	"github.com/leeineian/jmusic/sys"
)

// channelNotifier posts session events to the text channel the session was
// started from. Sends never block the caller.
type channelNotifier struct {
	client    *bot.Client
	channelID snowflake.ID

	mu     sync.Mutex
	lastID snowflake.ID
}

func newChannelNotifier(client *bot.Client, channelID snowflake.ID) *channelNotifier {
	return &channelNotifier{client: client, channelID: channelID}
}

func (n *channelNotifier) NowPlaying(t *proc.Track) {
	card := nowPlayingCard(t)
	sys.SafeGo(func() {
		msg, err := n.client.Rest.CreateMessage(n.channelID, discord.NewMessageCreate().
			WithIsComponentsV2(true).
			AddComponents(card))
		if err != nil {
			sys.LogVoiceWarn(sys.MsgGenericError, err)
			return
		}
		n.mu.Lock()
		n.lastID = msg.ID
		n.mu.Unlock()
	})
}

func (n *channelNotifier) Text(content string) {
	sys.SafeGo(func() {
		_, err := n.client.Rest.CreateMessage(n.channelID, discord.NewMessageCreate().
			WithIsComponentsV2(true).
			AddComponents(discord.NewContainer(discord.NewTextDisplay(content))))
		if err != nil {
			sys.LogVoiceWarn(sys.MsgGenericError, err)
		}
	})
}

// React adds emoji to the latest now playing message, if there is one.
func (n *channelNotifier) React(emoji string) {
	n.mu.Lock()
	messageID := n.lastID
	n.mu.Unlock()
	if messageID == 0 {
		return
	}
	sys.SafeGo(func() {
		if err := n.client.Rest.AddReaction(n.channelID, messageID, emoji); err != nil {
			sys.LogVoiceWarn(sys.MsgGenericError, err)
		}
	})
}

var _ proc.Notifier = (*channelNotifier)(nil)
