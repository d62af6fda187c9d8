package home

import (
	"context"
	"fmt"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/snowflake/v2"
	"github.com/leeineian/jmusic/sys"
)

// handleMusicJoin connects to the named channel, or the caller's when none is
// given, moving there if the bot already sits somewhere else in the guild.
func (m *Music) handleMusicJoin(event *events.ApplicationCommandInteractionCreate, data discord.SlashCommandInteractionData, guildID snowflake.ID) {
	channelID, ok := joinTarget(data, func() (snowflake.ID, bool) {
		return userVoiceChannel(event, guildID)
	})
	if !ok {
		replyError(event, sys.ErrUserNotInVoice)
		return
	}

	_ = event.DeferCreateMessage(false)

	ctx, cancel := context.WithTimeout(context.Background(), resolveTimeout)
	defer cancel()

	if _, err := m.joinChannel(ctx, event, guildID, channelID); err != nil {
		editReply(event, joinFailure(err))
		return
	}
	editReply(event, fmt.Sprintf(sys.MsgJoined, channelID))
}

// joinTarget picks the channel option when set and falls back to caller.
func joinTarget(data discord.SlashCommandInteractionData, caller func() (snowflake.ID, bool)) (snowflake.ID, bool) {
	if id, ok := data.OptSnowflake("channel"); ok {
		return id, true
	}
	return caller()
}

// handleMusicStop tears the session down. Stop and leave both end up here
// and only differ in the reply.
func (m *Music) handleMusicStop(event *events.ApplicationCommandInteractionCreate, guildID snowflake.ID, msg string) {
	if m.registry.Get(guildID) == nil {
		replyError(event, sys.ErrBotNotConnected)
		return
	}
	_ = event.DeferCreateMessage(false)
	m.registry.Remove(guildID)
	editReply(event, msg)
}
