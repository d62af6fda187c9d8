package home

import (
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/snowflake/v2"
	"github.com/leeineian/jmusic/sys"
)

// handleMusicLoop sets or toggles repeat of the current track.
func (m *Music) handleMusicLoop(event *events.ApplicationCommandInteractionCreate, data discord.SlashCommandInteractionData, guildID snowflake.ID) {
	s, err := m.connectedSession(guildID)
	if err != nil {
		replyError(event, userMessage(err))
		return
	}

	enabled, ok := data.OptBool("enabled")
	if !ok {
		enabled = !s.Loop()
	}
	s.SetLoop(enabled)

	if enabled {
		reply(event, sys.MsgLoopEnabled, false)
	} else {
		reply(event, sys.MsgLoopDisabled, false)
	}
}
